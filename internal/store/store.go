//
//
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Config holds the parameters for opening a Store.
type Config struct {
	// Path is the database file. The parent directory must exist; the
	// file is created if missing.
	Path string

	// PoolSize is the number of pooled connections. Defaults to
	// max(NumCPU, 4) when zero or negative.
	PoolSize int

	Logger zerolog.Logger
}

// Store is the two-table key-value persistence layer. Safe for concurrent use.
type Store struct {
	pool   *pool
	logger zerolog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Open opens the database and makes sure every kind table exists. The
// schema is applied on each new connection; Open forces the first one so
// a bad path or schema error surfaces at startup.
func Open(cfg Config) (*Store, error) {
	p, err := openPool(cfg.Path, cfg.PoolSize, cfg.Logger, createSchema)
	if err != nil {
		return nil, err
	}

	s := &Store{pool: p, logger: cfg.Logger}
	if err := s.Ping(context.Background()); err != nil {
		_ = p.close()
		return nil, err
	}
	return s, nil
}

func createSchema(conn *sqlite.Conn) error {
	var script strings.Builder
	for _, k := range Kinds {
		fmt.Fprintf(&script, "CREATE TABLE IF NOT EXISTS %s (name TEXT PRIMARY KEY, value TEXT);\n", k.Table())
	}
	return sqlitex.ExecuteScript(conn, script.String(), nil)
}

// Upsert inserts name or replaces its value, and returns the stored row.
func (s *Store) Upsert(ctx context.Context, kind Kind, name, value string) (Reading, error) {
	table, err := tableFor(kind)
	if err != nil {
		return Reading{}, err
	}

	conn, err := s.pool.take(ctx)
	if err != nil {
		return Reading{}, s.fail("upsert", kind, err)
	}
	defer s.pool.put(conn)

	query := "INSERT INTO " + table + " (name, value) VALUES (?, ?) " +
		"ON CONFLICT(name) DO UPDATE SET value = excluded.value " +
		"RETURNING name, value"

	var stored Reading
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: []any{name, value},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			stored = Reading{Name: stmt.ColumnText(0), Value: stmt.ColumnText(1)}
			return nil
		},
	})
	if err != nil {
		return Reading{}, s.fail("upsert", kind, err)
	}
	return stored, nil
}

// ListAll returns every row of the kind's table ordered by name.
func (s *Store) ListAll(ctx context.Context, kind Kind) ([]Reading, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	conn, err := s.pool.take(ctx)
	if err != nil {
		return nil, s.fail("list", kind, err)
	}
	defer s.pool.put(conn)

	readings := []Reading{}
	err = sqlitex.Execute(conn, "SELECT name, value FROM "+table+" ORDER BY name", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			readings = append(readings, Reading{Name: stmt.ColumnText(0), Value: stmt.ColumnText(1)})
			return nil
		},
	})
	if err != nil {
		return nil, s.fail("list", kind, err)
	}
	return readings, nil
}

// Get looks up a single reading by name. The bool is false when no row exists.
func (s *Store) Get(ctx context.Context, kind Kind, name string) (Reading, bool, error) {
	table, err := tableFor(kind)
	if err != nil {
		return Reading{}, false, err
	}

	conn, err := s.pool.take(ctx)
	if err != nil {
		return Reading{}, false, s.fail("get", kind, err)
	}
	defer s.pool.put(conn)

	var (
		found   bool
		reading Reading
	)
	err = sqlitex.Execute(conn, "SELECT name, value FROM "+table+" WHERE name = ?", &sqlitex.ExecOptions{
		Args: []any{name},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			reading = Reading{Name: stmt.ColumnText(0), Value: stmt.ColumnText(1)}
			return nil
		},
	})
	if err != nil {
		return Reading{}, false, s.fail("get", kind, err)
	}
	return reading, found, nil
}

// Count returns the number of rows stored for the kind.
func (s *Store) Count(ctx context.Context, kind Kind) (int, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	conn, err := s.pool.take(ctx)
	if err != nil {
		return 0, s.fail("count", kind, err)
	}
	defer s.pool.put(conn)

	var n int
	err = sqlitex.Execute(conn, "SELECT COUNT(*) FROM "+table, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			n = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		return 0, s.fail("count", kind, err)
	}
	return n, nil
}

// Ping checks that a connection can be taken and used.
func (s *Store) Ping(ctx context.Context) error {
	conn, err := s.pool.take(ctx)
	if err != nil {
		return s.fail("ping", "", err)
	}
	defer s.pool.put(conn)

	if err := sqlitex.ExecuteTransient(conn, "SELECT 1", nil); err != nil {
		return s.fail("ping", "", err)
	}
	return nil
}

// Close releases every pooled connection. Blocks until borrowed ones are
// returned. Later calls return the first result.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.pool.close()
	})
	return s.closeErr
}

func tableFor(kind Kind) (string, error) {
	table := kind.Table()
	if table == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
	}
	return table, nil
}

// fail logs a database failure and wraps it as a StorageError.
func (s *Store) fail(op string, kind Kind, err error) error {
	s.logger.Error().Err(err).Str("op", op).Str("kind", string(kind)).Msg("storage operation failed")
	return storageErr(op, kind, err)
}
