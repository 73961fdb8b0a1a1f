package db

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/clickmart/clickmart/internal/logging"
	"github.com/clickmart/clickmart/pkg/version"
)

// ClickHouseEngine executes the pipeline against ClickHouse over the native
// protocol.
type ClickHouseEngine struct {
	conn    driver.Conn
	dialect ClickHouseDialect
}

// OpenClickHouse connects using a clickhouse:// DSN and verifies the
// connection.
func OpenClickHouse(ctx context.Context, connString string) (*ClickHouseEngine, error) {
	options, err := clickhouse.ParseDSN(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse clickhouse DSN: %w", err)
	}

	options.ClientInfo = clickhouse.ClientInfo{
		Products: []struct {
			Name    string
			Version string
		}{{Name: "clickmart", Version: version.Short()}},
	}
	if options.Compression == nil {
		options.Compression = &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	logging.Info().
		Strs("addr", options.Addr).
		Str("database", options.Auth.Database).
		Msg("Connected to ClickHouse")

	return &ClickHouseEngine{conn: conn}, nil
}

func (e *ClickHouseEngine) Name() string { return "clickhouse" }

func (e *ClickHouseEngine) Dialect() Dialect { return e.dialect }

func (e *ClickHouseEngine) Exec(ctx context.Context, sql string, args ...any) error {
	return e.conn.Exec(ctx, sql, args...)
}

func (e *ClickHouseEngine) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rows, err := e.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{rows}, nil
}

func (e *ClickHouseEngine) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return e.conn.QueryRow(ctx, sql, args...)
}

// BatchInsert uses the native batch protocol.
func (e *ClickHouseEngine) BatchInsert(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	cols := ""
	for i, c := range columns {
		if i > 0 {
			cols += ", "
		}
		cols += c
	}

	batch, err := e.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s (%s)", table, cols))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch for %s: %w", table, err)
	}

	for _, row := range rows {
		if err := batch.Append(row...); err != nil {
			return 0, fmt.Errorf("failed to append row to %s batch: %w", table, err)
		}
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send %s batch: %w", table, err)
	}
	return int64(len(rows)), nil
}

func (e *ClickHouseEngine) TableExists(ctx context.Context, table string) (bool, error) {
	var count uint64
	err := e.conn.QueryRow(ctx, `
        SELECT count() FROM system.tables
        WHERE database = currentDatabase() AND name = ?
    `, table).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SwapTable publishes staging as target. EXCHANGE TABLES is atomic on the
// Atomic database engine; when the target does not exist yet a plain rename
// suffices.
func (e *ClickHouseEngine) SwapTable(ctx context.Context, staging, target string) error {
	exists, err := e.TableExists(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", target, err)
	}

	if !exists {
		return e.conn.Exec(ctx, fmt.Sprintf("RENAME TABLE %s TO %s", staging, target))
	}

	if err := e.conn.Exec(ctx, fmt.Sprintf("EXCHANGE TABLES %s AND %s", staging, target)); err != nil {
		return fmt.Errorf("failed to exchange %s and %s: %w", staging, target, err)
	}
	return e.conn.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", staging))
}

func (e *ClickHouseEngine) Close() {
	if err := e.conn.Close(); err != nil {
		logging.Debug().Err(err).Msg("ClickHouse close")
	}
}

type chRows struct {
	rows driver.Rows
}

func (r chRows) Next() bool             { return r.rows.Next() }
func (r chRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r chRows) Err() error             { return r.rows.Err() }
func (r chRows) Close()                 { _ = r.rows.Close() }
