//
//
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kmitl-iot/ingest/internal/config"
)

// Version is reported by GET /health.
var Version = "1.0.0"

// Server represents the HTTP API server.
type Server struct {
	mu         sync.Mutex
	httpServer *http.Server
	stopped    bool
	config     *config.Config
	updates    UpdatePort
	telemetry  TelemetryPort
	db         HealthPort
	logger     zerolog.Logger
	startTime  time.Time
}

// NewServer creates a new API server.
func NewServer(cfg *config.Config, updates UpdatePort, telemetry TelemetryPort, db HealthPort, logger zerolog.Logger) *Server {
	return &Server{
		config:    cfg,
		updates:   updates,
		telemetry: telemetry,
		db:        db,
		logger:    logger.With().Str("component", "api").Logger(),
		startTime: time.Now(),
	}
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return s.withMiddleware(normalizePath(s.Router()))
}

// Start listens on addr and serves until Stop.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener until Stop.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ln.Close()
	}
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Debug().Str("addr", ln.Addr().String()).Msg("HTTP server listening")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server. A Serve that has not started yet
// returns immediately. Hijacked WebSocket connections are not tracked by
// Shutdown; the hub closes them.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

// GetServer returns the underlying HTTP server for testing.
func (s *Server) GetServer() *http.Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.httpServer
}
