package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/kmitl-iot/ingest/internal/store"
)

// Audit outcomes.
const (
	OutcomeSuccess = "SUCCESS"
	OutcomeInvalid = "INVALID"
	OutcomeError   = "ERROR"
)

const actionUpdate = "update"

// Result is the success body of an update.
type Result struct {
	Success bool          `json:"success"`
	Data    store.Reading `json:"data"`
}

// Service applies reading updates.
type Service struct {
	store  Store
	bus    Publisher
	audit  AuditLogger
	logger zerolog.Logger
}

// NewService wires the update flow. auditLogger may be nil.
func NewService(st Store, bus Publisher, auditLogger AuditLogger, logger zerolog.Logger) *Service {
	return &Service{
		store:  st,
		bus:    bus,
		audit:  auditLogger,
		logger: logger.With().Str("component", "ingest").Logger(),
	}
}

// HandleUpdate validates req, upserts the reading for kind and broadcasts
// "<kind>Updated" with the stored {name, value}. Nothing is written or
// broadcast when validation fails, and nothing is broadcast when the
// upsert fails.
func (s *Service) HandleUpdate(ctx context.Context, kind store.Kind, req UpdateRequest) (*Result, error) {
	start := time.Now()

	if _, err := store.ParseKind(string(kind)); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		s.logAudit(ctx, kind, req.Name, OutcomeInvalid, time.Since(start))
		return nil, err
	}

	reading, err := s.store.Upsert(ctx, kind, req.Name, req.Value)
	if err != nil {
		s.logger.Error().Err(err).
			Str("kind", string(kind)).
			Str("name", req.Name).
			Msg("upsert failed")
		s.logAudit(ctx, kind, req.Name, OutcomeError, time.Since(start))
		return nil, err
	}

	delivered := s.bus.Publish(kind.EventName(), reading)
	s.logger.Debug().
		Str("event", kind.EventName()).
		Str("name", reading.Name).
		Int("delivered", delivered).
		Msg("reading broadcast")

	s.logSnapshot(ctx, kind)
	s.logAudit(ctx, kind, reading.Name, OutcomeSuccess, time.Since(start))

	return &Result{Success: true, Data: reading}, nil
}

// List returns every stored reading of kind.
func (s *Service) List(ctx context.Context, kind store.Kind) ([]store.Reading, error) {
	if _, err := store.ParseKind(string(kind)); err != nil {
		return nil, err
	}
	return s.store.ListAll(ctx, kind)
}

// logSnapshot re-reads the kind's table after a write and logs it. A read
// failure is logged and otherwise ignored; the update already succeeded.
func (s *Service) logSnapshot(ctx context.Context, kind store.Kind) {
	rows, err := s.store.ListAll(ctx, kind)
	if err != nil {
		s.logger.Warn().Err(err).Str("kind", string(kind)).Msg("diagnostic read failed")
		return
	}
	if e := s.logger.Debug(); e.Enabled() {
		arr := zerolog.Arr()
		for _, r := range rows {
			arr.Dict(zerolog.Dict().Str("name", r.Name).Str("value", r.Value))
		}
		e.Str("kind", string(kind)).Int("rows", len(rows)).Array("readings", arr).Msg("table snapshot")
	}
}

func (s *Service) logAudit(ctx context.Context, kind store.Kind, name, outcome string, latency time.Duration) {
	if s.audit == nil {
		return
	}
	s.audit.LogAction(ctx, actionUpdate, kind, name, outcome, latency)
}

// IsClientError reports whether err was caused by the request rather than
// the service.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrMalformedBody) || errors.Is(err, store.ErrUnknownKind)
}
