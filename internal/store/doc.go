// Package store implements the persistence store for the ingest service.
//
// Readings live in a single SQLite database file with one table per kind
// (sensor, equipment). Each table is keyed by name and holds only the
// latest value; an upsert replaces the previous value in place.
//
// The store wraps a zombiezen sqlitex pool. Every connection is prepared
// with WAL journaling, NORMAL synchronous mode and a busy timeout, and the
// kind tables are created if absent before the connection is first used.
package store
