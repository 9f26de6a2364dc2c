package store

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// pool is a fixed-size set of SQLite connections sharing one database
// file. Connections are not safe for concurrent use: each goroutine takes
// its own and puts it back when done.
type pool struct {
	inner  *sqlitex.Pool
	logger zerolog.Logger
	path   string
}

// connPragmas are applied to every connection before first use.
var connPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA temp_store=MEMORY",
}

func openPool(path string, size int, logger zerolog.Logger, onConnect func(*sqlite.Conn) error) (*pool, error) {
	if path == "" {
		return nil, fmt.Errorf("store: path is required")
	}
	if size <= 0 {
		size = runtime.NumCPU()
		if size < 4 {
			size = 4
		}
	}

	inner, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		PoolSize: size,
		PrepareConn: func(conn *sqlite.Conn) error {
			return prepareConnection(conn, onConnect)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}

	logger.Info().Str("path", path).Int("pool_size", size).Msg("sqlite pool opened")

	return &pool{inner: inner, logger: logger, path: path}, nil
}

// take borrows a connection. Blocks until one is free or ctx is done.
func (p *pool) take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := p.inner.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("take connection: %w", err)
	}
	return conn, nil
}

func (p *pool) put(conn *sqlite.Conn) {
	p.inner.Put(conn)
}

func (p *pool) close() error {
	if err := p.inner.Close(); err != nil {
		p.logger.Error().Err(err).Str("path", p.path).Msg("sqlite pool close error")
		return fmt.Errorf("store: closing %s: %w", p.path, err)
	}
	p.logger.Info().Str("path", p.path).Msg("sqlite pool closed")
	return nil
}

func prepareConnection(conn *sqlite.Conn, onConnect func(*sqlite.Conn) error) error {
	for _, pragma := range connPragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("store: %s: %w", pragma, err)
		}
	}
	if onConnect != nil {
		if err := onConnect(conn); err != nil {
			return fmt.Errorf("store: prepare connection: %w", err)
		}
	}
	return nil
}
