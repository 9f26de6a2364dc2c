// Package api defines ports (interfaces) for API server dependencies.
package api

import (
	"context"
	"net/http"

	"github.com/kmitl-iot/ingest/internal/ingest"
	"github.com/kmitl-iot/ingest/internal/store"
	"github.com/kmitl-iot/ingest/internal/telemetry"
)

// UpdatePort defines the minimal interface the API needs from the ingest service.
type UpdatePort interface {
	HandleUpdate(ctx context.Context, kind store.Kind, req ingest.UpdateRequest) (*ingest.Result, error)
	List(ctx context.Context, kind store.Kind) ([]store.Reading, error)
}

// TelemetryPort defines the minimal interface the API needs from the telemetry hub.
type TelemetryPort interface {
	ServeSSE(w http.ResponseWriter, r *http.Request)
	ServeWS(w http.ResponseWriter, r *http.Request)
	Stats() telemetry.Stats
}

// HealthPort reports whether the database answers.
type HealthPort interface {
	Ping(ctx context.Context) error
}

// Compile-time assertions for port conformance
var _ UpdatePort = (*ingest.Service)(nil)
var _ TelemetryPort = (*telemetry.Hub)(nil)
var _ HealthPort = (*store.Store)(nil)
