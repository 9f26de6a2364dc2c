// Package harness provides a fully wired ingest server for end-to-end tests.
// Every test runs against the same stack the binary builds: a temp SQLite
// file, a real hub, a real audit log and the API on a loopback listener.
package harness

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kmitl-iot/ingest/internal/api"
	"github.com/kmitl-iot/ingest/internal/audit"
	"github.com/kmitl-iot/ingest/internal/config"
	"github.com/kmitl-iot/ingest/internal/ingest"
	"github.com/kmitl-iot/ingest/internal/logging"
	"github.com/kmitl-iot/ingest/internal/store"
	"github.com/kmitl-iot/ingest/internal/telemetry"
)

// Options configures the test harness.
type Options struct {
	TempDir           string
	ClientBuffer      int
	HeartbeatInterval time.Duration
	Logger            zerolog.Logger
}

// DefaultOptions returns sensible defaults for testing.
func DefaultOptions() Options {
	return Options{
		ClientBuffer:      16,
		HeartbeatInterval: 200 * time.Millisecond,
		Logger:            logging.Nop(),
	}
}

// Server is a running ingest server with every component exposed.
type Server struct {
	URL          string
	WSURL        string
	Config       *config.Config
	Store        *store.Store
	TelemetryHub *telemetry.Hub
	AuditLogger  *audit.Logger
	API          *api.Server
	Shutdown     func()
}

// NewServer starts a server and registers its shutdown with t.Cleanup.
func NewServer(t *testing.T, opts Options) *Server {
	t.Helper()

	tempDir := opts.TempDir
	if tempDir == "" {
		tempDir = t.TempDir()
	}

	cfg := config.Defaults()
	cfg.DBPath = filepath.Join(tempDir, "database.db")
	cfg.AuditDir = filepath.Join(tempDir, "logs")
	cfg.ShutdownTimeout = 2 * time.Second
	if opts.ClientBuffer > 0 {
		cfg.ClientBuffer = opts.ClientBuffer
	}
	if opts.HeartbeatInterval > 0 {
		cfg.HeartbeatInterval = opts.HeartbeatInterval
	}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("invalid harness config: %v", err)
	}

	db, err := store.Open(store.Config{Path: cfg.DBPath, PoolSize: cfg.DBPoolSize, Logger: opts.Logger})
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}

	hub := telemetry.NewHub(cfg, opts.Logger)

	auditLogger, err := audit.NewLogger(audit.Config{
		Dir:        cfg.AuditDir,
		MaxSizeMB:  cfg.AuditMaxSizeMB,
		MaxBackups: cfg.AuditMaxBackups,
	}, opts.Logger)
	if err != nil {
		t.Fatalf("Failed to create audit logger: %v", err)
	}

	svc := ingest.NewService(db, hub, auditLogger, opts.Logger)
	apiServer := api.NewServer(cfg, svc, hub, db, opts.Logger)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	serveDone := make(chan error, 1)
	go func() { serveDone <- apiServer.Serve(ln) }()

	addr := ln.Addr().String()
	s := &Server{
		URL:          "http://" + addr,
		WSURL:        "ws://" + addr + "/ws",
		Config:       cfg,
		Store:        db,
		TelemetryHub: hub,
		AuditLogger:  auditLogger,
		API:          apiServer,
	}

	stopped := false
	s.Shutdown = func() {
		if stopped {
			return
		}
		stopped = true
		hub.Stop()
		if err := apiServer.Stop(context.Background()); err != nil {
			t.Errorf("Failed to stop API server: %v", err)
		}
		select {
		case err := <-serveDone:
			if err != nil {
				t.Errorf("Serve returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Serve did not return after Stop")
		}
		_ = auditLogger.Close()
		_ = db.Close()
	}
	t.Cleanup(s.Shutdown)

	return s
}
