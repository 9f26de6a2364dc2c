package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kmitl-iot/ingest/internal/store"
)

func newTestLogger(t *testing.T) (*Logger, string) {
	t.Helper()
	tempDir := t.TempDir()

	logger, err := NewLogger(Config{Dir: tempDir, MaxSizeMB: 1, MaxBackups: 2}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	t.Cleanup(func() { _ = logger.Close() })
	return logger, tempDir
}

func readEntries(t *testing.T, path string) []AuditEntry {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open audit log: %v", err)
	}
	defer file.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("Invalid JSON line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("Failed to read audit log: %v", err)
	}
	return entries
}

func TestNewLogger(t *testing.T) {
	logger, tempDir := newTestLogger(t)

	expectedPath := filepath.Join(tempDir, "audit.jsonl")
	if logger.GetFilePath() != expectedPath {
		t.Errorf("Expected file path %s, got %s", expectedPath, logger.GetFilePath())
	}
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Error("Audit log file was not created")
	}
}

func TestNewLoggerCreatesNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	logger, err := NewLogger(Config{Dir: dir}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
		t.Errorf("Audit log file missing: %v", err)
	}
}

func TestNewLoggerRequiresDir(t *testing.T) {
	if _, err := NewLogger(Config{}, zerolog.Nop()); err == nil {
		t.Error("Expected error for empty directory")
	}
}

func TestLogAction(t *testing.T) {
	logger, _ := newTestLogger(t)

	ctx := WithCorrelationID(context.Background(), "req-123")
	logger.LogAction(ctx, "update", store.KindSensor, "temp1", "SUCCESS", 15*time.Millisecond)

	entries := readEntries(t, logger.GetFilePath())
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Action != "update" {
		t.Errorf("Expected action 'update', got %q", entry.Action)
	}
	if entry.Kind != "sensor" {
		t.Errorf("Expected kind 'sensor', got %q", entry.Kind)
	}
	if entry.Name != "temp1" {
		t.Errorf("Expected name 'temp1', got %q", entry.Name)
	}
	if entry.Outcome != "SUCCESS" || entry.Code != "OK" {
		t.Errorf("Expected SUCCESS/OK, got %s/%s", entry.Outcome, entry.Code)
	}
	if entry.LatencyMs != 15 {
		t.Errorf("Expected latency 15ms, got %d", entry.LatencyMs)
	}
	if entry.CorrelationID != "req-123" {
		t.Errorf("Expected correlation ID 'req-123', got %q", entry.CorrelationID)
	}
	if time.Since(entry.Timestamp) > time.Minute {
		t.Errorf("Timestamp too old: %v", entry.Timestamp)
	}
}

func TestLogActionWithoutCorrelationID(t *testing.T) {
	logger, _ := newTestLogger(t)

	logger.LogAction(context.Background(), "update", store.KindEquipment, "pump1", "INVALID", 0)

	data, err := os.ReadFile(logger.GetFilePath())
	if err != nil {
		t.Fatalf("Failed to read audit log: %v", err)
	}
	if strings.Contains(string(data), "correlationId") {
		t.Errorf("Expected correlationId to be omitted, got %s", data)
	}
}

func TestMultipleLogEntries(t *testing.T) {
	logger, _ := newTestLogger(t)

	outcomes := []string{"SUCCESS", "INVALID", "ERROR"}
	for _, outcome := range outcomes {
		logger.LogAction(context.Background(), "update", store.KindSensor, "temp1", outcome, time.Millisecond)
	}

	entries := readEntries(t, logger.GetFilePath())
	if len(entries) != len(outcomes) {
		t.Fatalf("Expected %d entries, got %d", len(outcomes), len(entries))
	}
	for i, entry := range entries {
		if entry.Outcome != outcomes[i] {
			t.Errorf("Entry %d: expected outcome %s, got %s", i, outcomes[i], entry.Outcome)
		}
	}
}

func TestConcurrentLogAction(t *testing.T) {
	logger, _ := newTestLogger(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.LogAction(context.Background(), "update", store.KindSensor, "temp1", "SUCCESS", 0)
		}()
	}
	wg.Wait()

	if got := len(readEntries(t, logger.GetFilePath())); got != 20 {
		t.Errorf("Expected 20 entries, got %d", got)
	}
}

func TestCodeFromOutcome(t *testing.T) {
	tests := []struct {
		outcome  string
		expected string
	}{
		{"SUCCESS", "OK"},
		{"INVALID", "BAD_REQUEST"},
		{"ERROR", "INTERNAL"},
		{"SOMETHING_ELSE", "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := codeFromOutcome(tt.outcome); got != tt.expected {
			t.Errorf("codeFromOutcome(%s) = %s, expected %s", tt.outcome, got, tt.expected)
		}
	}
}

func TestCorrelationIDContext(t *testing.T) {
	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("Expected empty correlation ID, got %q", got)
	}
	ctx := WithCorrelationID(context.Background(), "abc")
	if got := CorrelationID(ctx); got != "abc" {
		t.Errorf("Expected 'abc', got %q", got)
	}
}

func TestClose(t *testing.T) {
	logger, _ := newTestLogger(t)

	if err := logger.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	// Writes after close are dropped silently.
	logger.LogAction(context.Background(), "update", store.KindSensor, "temp1", "SUCCESS", 0)

	if err := logger.Close(); err != nil {
		t.Errorf("Second Close() failed: %v", err)
	}
	if err := logger.Rotate(); err == nil {
		t.Error("Expected Rotate() to fail after Close()")
	}
}

func TestRotate(t *testing.T) {
	logger, tempDir := newTestLogger(t)

	logger.LogAction(context.Background(), "update", store.KindSensor, "temp1", "SUCCESS", 0)
	if err := logger.Rotate(); err != nil {
		t.Fatalf("Rotate() failed: %v", err)
	}
	logger.LogAction(context.Background(), "update", store.KindSensor, "temp2", "SUCCESS", 0)

	files, err := filepath.Glob(filepath.Join(tempDir, "audit-*.jsonl"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("Expected 1 rotated file, got %d (%v)", len(files), files)
	}

	current := readEntries(t, logger.GetFilePath())
	if len(current) != 1 || current[0].Name != "temp2" {
		t.Errorf("Expected only temp2 in current file, got %+v", current)
	}
	rotated := readEntries(t, files[0])
	if len(rotated) != 1 || rotated[0].Name != "temp1" {
		t.Errorf("Expected only temp1 in rotated file, got %+v", rotated)
	}
}
