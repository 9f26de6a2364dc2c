package config

import (
	"net"
	"time"
)

// Config is the full service configuration.
type Config struct {
	// HTTP listener
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// Origins allowed by CORS on HTTP and real-time transports. "*" allows all.
	AllowedOrigins []string `yaml:"allowedOrigins"`

	// Persistence
	DBPath     string `yaml:"dbPath"`
	DBPoolSize int    `yaml:"dbPoolSize"`

	// Logging
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`

	// Audit trail. An empty AuditDir disables it.
	AuditDir        string `yaml:"auditDir"`
	AuditMaxSizeMB  int    `yaml:"auditMaxSizeMb"`
	AuditMaxBackups int    `yaml:"auditMaxBackups"`

	// Notification bus
	ClientBuffer      int           `yaml:"clientBuffer"`
	HeartbeatInterval time.Duration `yaml:"heartbeatInterval"`
}

const (
	DefaultPort   = "5000"
	DefaultDBPath = "./database.db"
)

// Defaults returns the baseline configuration.
func Defaults() *Config {
	return &Config{
		Port:            DefaultPort,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 10 * time.Second,

		AllowedOrigins: []string{"*"},

		DBPath:     DefaultDBPath,
		DBPoolSize: 4,

		LogLevel:  "info",
		LogFormat: "console",

		AuditDir:        "logs",
		AuditMaxSizeMB:  10,
		AuditMaxBackups: 5,

		ClientBuffer:      64,
		HeartbeatInterval: 25 * time.Second,
	}
}

// Addr returns the listen address for the configured port.
func (c *Config) Addr() string {
	return net.JoinHostPort("", c.Port)
}
