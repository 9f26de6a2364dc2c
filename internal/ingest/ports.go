package ingest

import (
	"context"
	"time"

	"github.com/kmitl-iot/ingest/internal/audit"
	"github.com/kmitl-iot/ingest/internal/store"
	"github.com/kmitl-iot/ingest/internal/telemetry"
)

// Store is the persistence the service needs.
type Store interface {
	Upsert(ctx context.Context, kind store.Kind, name, value string) (store.Reading, error)
	ListAll(ctx context.Context, kind store.Kind) ([]store.Reading, error)
}

// Publisher broadcasts an event to every connected subscriber.
type Publisher interface {
	Publish(eventType string, data any) int
}

// AuditLogger writes one record per update attempt.
type AuditLogger interface {
	LogAction(ctx context.Context, action string, kind store.Kind, name, outcome string, latency time.Duration)
}

var (
	_ Store       = (*store.Store)(nil)
	_ Publisher   = (*telemetry.Hub)(nil)
	_ AuditLogger = (*audit.Logger)(nil)
)
