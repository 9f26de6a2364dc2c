package ingest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/kmitl-iot/ingest/internal/store"
)

type fakeStore struct {
	mu        sync.Mutex
	rows      map[store.Kind]map[string]string
	upserts   int
	upsertErr error
	listErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[store.Kind]map[string]string{
		store.KindSensor:    {},
		store.KindEquipment: {},
	}}
}

func (f *fakeStore) Upsert(_ context.Context, kind store.Kind, name, value string) (store.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.upsertErr != nil {
		return store.Reading{}, f.upsertErr
	}
	f.rows[kind][name] = value
	return store.Reading{Name: name, Value: value}, nil
}

func (f *fakeStore) ListAll(_ context.Context, kind store.Kind) ([]store.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []store.Reading{}
	for name, value := range f.rows[kind] {
		out = append(out, store.Reading{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type publishedEvent struct {
	Type string
	Data any
}

type fakeBus struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (b *fakeBus) Publish(eventType string, data any) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, publishedEvent{Type: eventType, Data: data})
	return 1
}

func (b *fakeBus) Events() []publishedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]publishedEvent(nil), b.events...)
}

type auditRecord struct {
	Action  string
	Kind    store.Kind
	Name    string
	Outcome string
}

type fakeAudit struct {
	mu      sync.Mutex
	records []auditRecord
}

func (a *fakeAudit) LogAction(_ context.Context, action string, kind store.Kind, name, outcome string, _ time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, auditRecord{Action: action, Kind: kind, Name: name, Outcome: outcome})
}

var errDiskFull = errors.New("disk I/O error")
