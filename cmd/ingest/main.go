// Package main implements the readings ingest service entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/kmitl-iot/ingest/internal/api"
	"github.com/kmitl-iot/ingest/internal/audit"
	"github.com/kmitl-iot/ingest/internal/config"
	"github.com/kmitl-iot/ingest/internal/ingest"
	"github.com/kmitl-iot/ingest/internal/logging"
	"github.com/kmitl-iot/ingest/internal/store"
	"github.com/kmitl-iot/ingest/internal/telemetry"
)

// flags holds command-line overrides. Empty values leave config alone.
type flags struct {
	configFile string
	envFile    string
	port       string
	dbPath     string
	logLevel   string
	version    bool
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{}
	fs := pflag.NewFlagSet("ingest", pflag.ContinueOnError)
	fs.StringVarP(&f.configFile, "config", "c", "", "path to YAML config file")
	fs.StringVar(&f.envFile, "env-file", "", "dotenv file to load (default .env)")
	fs.StringVarP(&f.port, "port", "p", "", "HTTP listen port (overrides PORT)")
	fs.StringVar(&f.dbPath, "db", "", "SQLite database file")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// apply copies set flags onto cfg and revalidates it.
func (f *flags) apply(cfg *config.Config) error {
	if f.port != "" {
		cfg.Port = f.port
	}
	if f.dbPath != "" {
		cfg.DBPath = f.dbPath
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	return config.Validate(cfg)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "ingest: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	f, err := parseFlags(args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if f.version {
		fmt.Println(api.Version)
		return nil
	}

	// Step 1: Load configuration
	cfg, err := config.LoadWithOptions(config.Options{ConfigFile: f.configFile, EnvFile: f.envFile})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := f.apply(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.Info().Str("version", api.Version).Msg("Starting ingest service")

	// Step 2: Open the database
	db, err := store.Open(store.Config{Path: cfg.DBPath, PoolSize: cfg.DBPoolSize, Logger: logger})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing database")
		}
	}()
	logger.Info().Str("path", cfg.DBPath).Msg("Connected to the SQLite database")

	// Step 3: Initialize telemetry hub
	hub := telemetry.NewHub(cfg, logger)

	// Step 4: Initialize audit logger
	var auditLogger ingest.AuditLogger
	if cfg.AuditDir != "" {
		al, err := audit.NewLogger(audit.Config{
			Dir:        cfg.AuditDir,
			MaxSizeMB:  cfg.AuditMaxSizeMB,
			MaxBackups: cfg.AuditMaxBackups,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize audit logger: %w", err)
		}
		defer func() {
			if err := al.Close(); err != nil {
				logger.Error().Err(err).Msg("Error closing audit logger")
			}
		}()
		auditLogger = al
		logger.Info().Str("file", al.GetFilePath()).Msg("Audit logger initialized")
	}

	// Step 5: Wire the update flow and the API server
	svc := ingest.NewService(db, hub, auditLogger, logger)
	server := api.NewServer(cfg, svc, hub, db, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(cfg.Addr())
	}()
	logger.Info().Str("port", cfg.Port).Msgf("Server is running on port %s", cfg.Port)

	// Wait for shutdown signal or server error
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received, initiating graceful shutdown")
	case err := <-serverErr:
		if err != nil {
			hub.Stop()
			return err
		}
	}

	return shutdown(server, hub, logger)
}

// shutdown disconnects subscribers first so streaming handlers return and
// Shutdown does not wait on them.
func shutdown(server *api.Server, hub *telemetry.Hub, logger zerolog.Logger) error {
	hub.Stop()
	logger.Info().Msg("Telemetry hub stopped")

	if err := server.Stop(context.Background()); err != nil {
		return fmt.Errorf("error stopping HTTP server: %w", err)
	}
	logger.Info().Msg("HTTP server stopped gracefully")
	return nil
}
