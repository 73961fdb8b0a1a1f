package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clickmart/clickmart/internal/logging"
)

// PostgresEngine executes the pipeline against PostgreSQL via pgx.
type PostgresEngine struct {
	pool    *pgxpool.Pool
	dialect PostgresDialect
}

// DefaultPoolConfig returns default connection pool configuration.
func DefaultPoolConfig() *pgxpool.Config {
	config, _ := pgxpool.ParseConfig("")

	// The pipeline runs one long statement at a time; a handful of
	// connections covers transforms plus audit readers.
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	return config
}

// OpenPostgres establishes a connection pool and verifies it.
func OpenPostgres(ctx context.Context, connString string) (*PostgresEngine, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	defaults := DefaultPoolConfig()
	config.MaxConns = defaults.MaxConns
	config.MinConns = defaults.MinConns
	config.MaxConnLifetime = defaults.MaxConnLifetime
	config.MaxConnIdleTime = defaults.MaxConnIdleTime
	config.HealthCheckPeriod = defaults.HealthCheckPeriod

	logging.Debug().
		Str("host", config.ConnConfig.Host).
		Uint16("port", config.ConnConfig.Port).
		Str("database", config.ConnConfig.Database).
		Msg("Connecting to PostgreSQL")

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.Info().
		Str("host", config.ConnConfig.Host).
		Str("database", config.ConnConfig.Database).
		Msg("Connected to PostgreSQL")

	return &PostgresEngine{pool: pool}, nil
}

// NewPostgresEngine wraps an existing pool, used by tests.
func NewPostgresEngine(pool *pgxpool.Pool) *PostgresEngine {
	return &PostgresEngine{pool: pool}
}

func (e *PostgresEngine) Name() string { return "postgres" }

func (e *PostgresEngine) Dialect() Dialect { return e.dialect }

func (e *PostgresEngine) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := e.pool.Exec(ctx, rebind(sql), args...)
	return err
}

func (e *PostgresEngine) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rows, err := e.pool.Query(ctx, rebind(sql), args...)
	if err != nil {
		return nil, err
	}
	return pgRows{rows}, nil
}

func (e *PostgresEngine) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return e.pool.QueryRow(ctx, rebind(sql), args...)
}

// BatchInsert uses the COPY protocol.
func (e *PostgresEngine) BatchInsert(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	n, err := e.pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy into %s failed: %w", table, err)
	}
	return n, nil
}

func (e *PostgresEngine) TableExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	err := e.pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT FROM information_schema.tables
            WHERE table_name = $1 AND table_schema = current_schema()
        )
    `, table).Scan(&exists)
	return exists, err
}

// SwapTable publishes staging as target in a single transaction, so readers
// either see the old table or the new one, never an intermediate state.
func (e *PostgresEngine) SwapTable(ctx context.Context, staging, target string) error {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin swap transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", target)); err != nil {
		return fmt.Errorf("failed to drop %s: %w", target, err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", staging, target)); err != nil {
		return fmt.Errorf("failed to rename %s: %w", staging, err)
	}

	return tx.Commit(ctx)
}

func (e *PostgresEngine) Close() {
	e.pool.Close()
}

type pgRows struct {
	rows pgx.Rows
}

func (r pgRows) Next() bool             { return r.rows.Next() }
func (r pgRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r pgRows) Err() error             { return r.rows.Err() }
func (r pgRows) Close()                 { r.rows.Close() }

// rebind converts '?' placeholders to pgx's positional $1..$n form.
// Question marks inside single-quoted literals are left alone.
func rebind(sql string) string {
	if !strings.ContainsRune(sql, '?') {
		return sql
	}

	var b strings.Builder
	b.Grow(len(sql) + 8)
	n := 0
	inLiteral := false
	for _, c := range sql {
		switch {
		case c == '\'':
			inLiteral = !inLiteral
			b.WriteRune(c)
		case c == '?' && !inLiteral:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}
