package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/kmitl-iot/ingest/internal/audit"
)

// CorrelationHeader carries the per-request ID in both directions.
const CorrelationHeader = "X-Correlation-ID"

// withMiddleware wraps next, outermost first: panic recovery, CORS,
// request logger, access log, correlation ID.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	h := correlationID(next)
	h = hlog.AccessHandler(accessLog)(h)
	h = hlog.RemoteAddrHandler("ip")(h)
	h = hlog.NewHandler(s.logger)(h)
	h = s.cors().Handler(h)
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(true),
	)(h)
}

func (s *Server) cors() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", CorrelationHeader},
		ExposedHeaders: []string{CorrelationHeader},
	})
}

// correlationID reuses the caller's X-Correlation-ID or assigns a new one,
// echoes it on the response and attaches it to the context and logger.
func correlationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(CorrelationHeader, id)

		hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("correlationId", id)
		})
		next.ServeHTTP(w, r.WithContext(audit.WithCorrelationID(r.Context(), id)))
	})
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	e := hlog.FromRequest(r).Info()
	if status >= http.StatusInternalServerError {
		e = hlog.FromRequest(r).Error()
	}
	e.Str("method", r.Method).
		Stringer("url", r.URL).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}

// recoveryLogger adapts zerolog to handlers.RecoveryHandlerLogger.
type recoveryLogger struct {
	logger zerolog.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.logger.Error().Msgf("panic recovered: %v", v)
}
