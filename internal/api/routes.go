//
//
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"

	"github.com/kmitl-iot/ingest/internal/ingest"
	"github.com/kmitl-iot/ingest/internal/store"
)

// Greeting is the body of GET /.
const Greeting = "This is API for IOT Final Project in Computer Science, KMITL"

// maxBodyBytes caps update request bodies.
const maxBodyBytes = 1 << 20

const healthTimeout = 2 * time.Second

// Router registers every endpoint on a new gorilla/mux router.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/update/{kind}", s.handleUpdate).Methods(http.MethodPost)
	r.HandleFunc("/readings/{kind}", s.handleReadings).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	// Real-time subscriptions
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	r.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)
	return r
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": Greeting})
}

// handleUpdate handles POST /update/{kind}
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	kind, err := store.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	if s.updates == nil {
		WriteErr(w, errServiceUnavailable)
		return
	}

	req, err := ingest.DecodeRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	result, err := s.updates.HandleUpdate(r.Context(), kind, req)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	WriteSuccess(w, result.Data)
}

// handleReadings handles GET /readings/{kind}
func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	kind, err := store.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	if s.updates == nil {
		WriteErr(w, errServiceUnavailable)
		return
	}

	readings, err := s.updates.List(r.Context(), kind)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	WriteSuccess(w, readings)
}

// handleWS handles GET /ws
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.telemetry == nil {
		WriteErr(w, errTelemetryUnavailable)
		return
	}
	s.telemetry.ServeWS(w, r)
}

// handleEvents handles GET /events (SSE)
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.telemetry == nil {
		WriteErr(w, errTelemetryUnavailable)
		return
	}
	s.telemetry.ServeSSE(w, r)
}

// HealthStatus is the data of GET /health.
type HealthStatus struct {
	Status      string          `json:"status"`
	UptimeSec   float64         `json:"uptimeSec"`
	Version     string          `json:"version"`
	Subscribers int             `json:"subscribers"`
	Subsystems  map[string]bool `json:"subsystems"`
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	subsystems := s.checkSubsystemHealth(r.Context())

	health := HealthStatus{
		Status:     "ok",
		UptimeSec:  time.Since(s.startTime).Seconds(),
		Version:    Version,
		Subsystems: subsystems,
	}
	if s.telemetry != nil {
		health.Subscribers = s.telemetry.Stats().Subscribers
	}

	if !subsystems["database"] || !subsystems["telemetry"] {
		health.Status = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Data:    health,
			Error:   "One or more subsystems are unavailable",
		})
		return
	}
	WriteSuccess(w, health)
}

// checkSubsystemHealth checks the health of all subsystems.
func (s *Server) checkSubsystemHealth(ctx context.Context) map[string]bool {
	subsystems := map[string]bool{
		"telemetry": s.telemetry != nil,
		"database":  false,
	}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(ctx, healthTimeout)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("database health check failed")
		} else {
			subsystems["database"] = true
		}
	}
	return subsystems
}

// writeFailure logs server-side failures and writes the mapped error.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	if !ingest.IsClientError(err) {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	}
	WriteErr(w, err)
}

// normalizePath matches routes case-insensitively and ignores a trailing
// slash, so /update/Sensor/ reaches the same handler as /update/sensor.
func normalizePath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.ToLower(r.URL.Path)
		if len(path) > 1 {
			path = strings.TrimRight(path, "/")
			if path == "" {
				path = "/"
			}
		}
		if path != r.URL.Path {
			u := *r.URL
			u.Path = path
			u.RawPath = ""
			r2 := r.Clone(r.Context())
			r2.URL = &u
			r = r2
		}
		next.ServeHTTP(w, r)
	})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	WriteErr(w, errNotFound)
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteErr(w, errMethodNotAllowed)
}
