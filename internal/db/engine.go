// Package db provides the SQL engine abstraction for clickmart.
// The pipeline renders engine-specific SQL through a Dialect and executes it
// through an Engine; PostgreSQL and ClickHouse implementations are provided.
package db

import (
	"context"
	"fmt"
)

// Rows is the minimal result-set interface shared by both drivers.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Row is a single-row result.
type Row interface {
	Scan(dest ...any) error
}

// Engine abstracts the SQL engine executing the pipeline.
// Queries with parameters use '?' placeholders; each implementation adapts
// them to its driver's convention.
type Engine interface {
	// Name returns the engine name ("postgres" or "clickhouse").
	Name() string

	// Dialect returns the SQL dialect for this engine.
	Dialect() Dialect

	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, sql string, args ...any) error

	// Query executes a query returning multiple rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// QueryRow executes a query expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// BatchInsert inserts rows into a table using the engine's bulk path
	// (COPY for postgres, native batches for clickhouse). Nil values insert
	// as SQL NULL.
	BatchInsert(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// TableExists reports whether a table is present.
	TableExists(ctx context.Context, table string) (bool, error)

	// SwapTable atomically replaces target with staging. On success the old
	// target is gone and staging no longer exists under its staging name; on
	// failure the previously published target is left unchanged.
	SwapTable(ctx context.Context, staging, target string) error

	// Close releases all connections.
	Close()
}

// Open connects to the configured engine and verifies the connection.
func Open(ctx context.Context, engine, connString string) (Engine, error) {
	switch engine {
	case "postgres":
		return OpenPostgres(ctx, connString)
	case "clickhouse":
		return OpenClickHouse(ctx, connString)
	default:
		return nil, fmt.Errorf("unknown engine: %s", engine)
	}
}
