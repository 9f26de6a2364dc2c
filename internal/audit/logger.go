//
//
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kmitl-iot/ingest/internal/store"
)

// FileName is the active audit file inside the audit directory.
const FileName = "audit.jsonl"

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	Timestamp     time.Time `json:"ts"`
	Kind          string    `json:"kind"`
	Name          string    `json:"name"`
	Action        string    `json:"action"`
	Outcome       string    `json:"outcome"`
	Code          string    `json:"code"`
	LatencyMs     int64     `json:"latencyMs"`
	CorrelationID string    `json:"correlationId,omitempty"`
}

// Config controls where audit records go and how the file rotates.
type Config struct {
	Dir        string
	MaxSizeMB  int
	MaxBackups int
}

// Logger implements the audit logging functionality.
type Logger struct {
	mu       sync.Mutex
	filePath string
	out      *lumberjack.Logger
	logger   zerolog.Logger
}

// NewLogger creates the audit directory and opens the rotating audit file.
func NewLogger(cfg Config, logger zerolog.Logger) (*Logger, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("audit directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filePath := filepath.Join(cfg.Dir, FileName)

	// lumberjack opens lazily; touch the file so permission problems
	// surface here rather than on the first request.
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}
	_ = f.Close()

	return &Logger{
		filePath: filePath,
		out: &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		},
		logger: logger.With().Str("component", "audit").Logger(),
	}, nil
}

// LogAction records one update attempt.
func (l *Logger) LogAction(ctx context.Context, action string, kind store.Kind, name, outcome string, latency time.Duration) {
	l.writeEntry(AuditEntry{
		Timestamp:     time.Now().UTC(),
		Kind:          string(kind),
		Name:          name,
		Action:        action,
		Outcome:       outcome,
		Code:          codeFromOutcome(outcome),
		LatencyMs:     latency.Milliseconds(),
		CorrelationID: CorrelationID(ctx),
	})
}

// writeEntry appends one JSON line. Failures are logged, never returned:
// a broken audit file must not fail the update it describes.
func (l *Logger) writeEntry(entry AuditEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		l.logger.Error().Err(err).Msg("failed to marshal audit entry")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out == nil {
		return
	}
	if _, err := l.out.Write(append(data, '\n')); err != nil {
		l.logger.Error().Err(err).Msg("failed to write audit entry")
	}
}

// codeFromOutcome maps outcomes to the response code family.
func codeFromOutcome(outcome string) string {
	switch outcome {
	case "SUCCESS":
		return "OK"
	case "INVALID":
		return "BAD_REQUEST"
	case "ERROR":
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// Close closes the audit file. Later writes are dropped.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out == nil {
		return nil
	}
	err := l.out.Close()
	l.out = nil
	return err
}

// GetFilePath returns the path to the audit log file.
func (l *Logger) GetFilePath() string {
	return l.filePath
}

// Rotate moves the current file aside and starts a new one.
func (l *Logger) Rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out == nil {
		return fmt.Errorf("audit logger closed")
	}
	if err := l.out.Rotate(); err != nil {
		return fmt.Errorf("failed to rotate audit log: %w", err)
	}
	return nil
}
