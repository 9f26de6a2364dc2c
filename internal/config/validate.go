//
//
package config

import (
	"fmt"
	"strconv"
)

var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "console": true}
)

// Validate checks a merged configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("port must be a number in 1-65535, got %q", cfg.Port)
	}

	if cfg.DBPath == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if cfg.DBPoolSize < 0 {
		return fmt.Errorf("database pool size must be non-negative, got %d", cfg.DBPoolSize)
	}

	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	if !validLogFormats[cfg.LogFormat] {
		return fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}

	if len(cfg.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin is required")
	}

	if cfg.ClientBuffer < 1 {
		return fmt.Errorf("client buffer must be positive, got %d", cfg.ClientBuffer)
	}
	if cfg.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive, got %v", cfg.HeartbeatInterval)
	}

	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 || cfg.IdleTimeout < 0 || cfg.ShutdownTimeout < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}

	if cfg.AuditDir != "" && cfg.AuditMaxSizeMB < 1 {
		return fmt.Errorf("audit max size must be at least 1 MB, got %d", cfg.AuditMaxSizeMB)
	}

	return nil
}
