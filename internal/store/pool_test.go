package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

func TestPoolPragmas(t *testing.T) {
	p, err := openPool(filepath.Join(t.TempDir(), "pragma.db"), 1, zerolog.Nop(), nil)
	require.NoError(t, err)
	defer func() { _ = p.close() }()

	conn, err := p.take(context.Background())
	require.NoError(t, err)
	defer p.put(conn)

	var journalMode string
	err = sqlitex.Execute(conn, "PRAGMA journal_mode", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			journalMode = stmt.ColumnText(0)
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	err = sqlitex.Execute(conn, "PRAGMA busy_timeout", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			busyTimeout = stmt.ColumnInt(0)
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 5000, busyTimeout)
}

func TestPoolOnConnectRuns(t *testing.T) {
	var called bool
	p, err := openPool(filepath.Join(t.TempDir(), "hook.db"), 1, zerolog.Nop(), func(conn *sqlite.Conn) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	defer func() { _ = p.close() }()

	conn, err := p.take(context.Background())
	require.NoError(t, err)
	p.put(conn)

	assert.True(t, called, "onConnect was not called")
}
