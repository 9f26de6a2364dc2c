//
//
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Options selects the files Load reads. Empty fields fall back to
// INGEST_CONFIG for the YAML file and ".env" for the env file.
type Options struct {
	ConfigFile string
	EnvFile    string
}

// Load merges defaults + optional YAML file + .env + environment overrides.
func Load(configFile string) (*Config, error) {
	return LoadWithOptions(Options{ConfigFile: configFile})
}

// LoadWithOptions is Load with explicit file locations.
func LoadWithOptions(opts Options) (*Config, error) {
	cfg := Defaults()

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// A missing .env is normal outside development; anything else is not.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = os.Getenv("INGEST_CONFIG")
	}
	if configFile != "" {
		if err := loadFromFile(cfg, configFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", configFile, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile decodes a YAML file over cfg. Keys absent from the file
// keep their current values.
func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides applies PORT and INGEST_* environment variables.
func applyEnvOverrides(cfg *Config) error {
	cfg.Port = GetEnvVar("PORT", cfg.Port)
	cfg.DBPath = GetEnvVar("INGEST_DB_PATH", cfg.DBPath)
	if val := os.Getenv("INGEST_DB_POOL_SIZE"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("INGEST_DB_POOL_SIZE: %w", err)
		}
		cfg.DBPoolSize = n
	}
	if val := os.Getenv("INGEST_CORS_ORIGINS"); val != "" {
		cfg.AllowedOrigins = splitList(val)
	}
	if val := os.Getenv("INGEST_LOG_LEVEL"); val != "" {
		cfg.LogLevel = strings.ToLower(val)
	}
	if val := os.Getenv("INGEST_LOG_FORMAT"); val != "" {
		cfg.LogFormat = strings.ToLower(val)
	}
	if val, ok := os.LookupEnv("INGEST_AUDIT_DIR"); ok {
		cfg.AuditDir = val
	}
	if val := os.Getenv("INGEST_AUDIT_MAX_SIZE_MB"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("INGEST_AUDIT_MAX_SIZE_MB: %w", err)
		}
		cfg.AuditMaxSizeMB = n
	}
	if val := os.Getenv("INGEST_CLIENT_BUFFER"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("INGEST_CLIENT_BUFFER: %w", err)
		}
		cfg.ClientBuffer = n
	}
	if val := os.Getenv("INGEST_HEARTBEAT_INTERVAL"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("INGEST_HEARTBEAT_INTERVAL: %w", err)
		}
		cfg.HeartbeatInterval = d
	}
	return nil
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetEnvVar returns the value of an environment variable with a default.
func GetEnvVar(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
