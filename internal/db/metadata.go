//-------------------------------------------------------------------------
//
// clickmart - clickstream analytics pipeline
//
// Copyright (c) 2025 - 2026, the clickmart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/clickmart/clickmart/internal/logging"
	"github.com/clickmart/clickmart/pkg/version"
)

const (
	metadataTable = "clickmart_metadata"
	runsTable     = "clickmart_runs"
)

const createMetadataPostgresSQL = `
CREATE TABLE IF NOT EXISTS clickmart_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

// ReplacingMergeTree keyed by key gives last-write-wins upsert semantics;
// reads go through FINAL.
const createMetadataClickHouseSQL = `
CREATE TABLE IF NOT EXISTS clickmart_metadata (
    key        String,
    value      String,
    updated_at DateTime DEFAULT now()
) ENGINE = ReplacingMergeTree(updated_at) ORDER BY key`

const createRunsPostgresSQL = `
CREATE TABLE IF NOT EXISTS clickmart_runs (
    run_id      TEXT NOT NULL,
    stage       TEXT NOT NULL,
    table_name  TEXT NOT NULL,
    row_count   BIGINT NOT NULL,
    duration_ms BIGINT NOT NULL,
    started_at  TIMESTAMP NOT NULL
)`

const createRunsClickHouseSQL = `
CREATE TABLE IF NOT EXISTS clickmart_runs (
    run_id      String,
    stage       String,
    table_name  String,
    row_count   Int64,
    duration_ms Int64,
    started_at  DateTime
) ENGINE = MergeTree() ORDER BY (started_at, stage)`

// InitMetadata creates the metadata and run-ledger tables.
func InitMetadata(ctx context.Context, eng Engine) error {
	metaSQL := createMetadataPostgresSQL
	runsSQL := createRunsPostgresSQL
	if eng.Name() == "clickhouse" {
		metaSQL = createMetadataClickHouseSQL
		runsSQL = createRunsClickHouseSQL
	}

	if err := eng.Exec(ctx, metaSQL); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}
	if err := eng.Exec(ctx, runsSQL); err != nil {
		return fmt.Errorf("failed to create run ledger: %w", err)
	}
	return nil
}

// SaveMetadata records initialization metadata.
func SaveMetadata(ctx context.Context, eng Engine, extra map[string]string) error {
	if err := InitMetadata(ctx, eng); err != nil {
		return err
	}

	metadata := map[string]string{
		"engine":         eng.Name(),
		"version":        version.Short(),
		"initialized_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range extra {
		metadata[k] = v
	}

	for key, value := range metadata {
		if err := setMetadataValue(ctx, eng, key, value); err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}

	logging.Debug().Int("keys", len(metadata)).Msg("Saved metadata")
	return nil
}

// SetMetadataValue upserts a single metadata key.
func SetMetadataValue(ctx context.Context, eng Engine, key, value string) error {
	return setMetadataValue(ctx, eng, key, value)
}

func setMetadataValue(ctx context.Context, eng Engine, key, value string) error {
	if eng.Name() == "clickhouse" {
		return eng.Exec(ctx,
			"INSERT INTO clickmart_metadata (key, value) VALUES (?, ?)", key, value)
	}
	return eng.Exec(ctx, `
        INSERT INTO clickmart_metadata (key, value) VALUES (?, ?)
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
    `, key, value)
}

// GetMetadataValue retrieves a single metadata value by key.
func GetMetadataValue(ctx context.Context, eng Engine, key string) (string, error) {
	query := "SELECT value FROM clickmart_metadata WHERE key = ?"
	if eng.Name() == "clickhouse" {
		query = "SELECT value FROM clickmart_metadata FINAL WHERE key = ?"
	}

	var value string
	if err := eng.QueryRow(ctx, query, key).Scan(&value); err != nil {
		return "", err
	}
	return value, nil
}

// GetAllMetadata retrieves all metadata as a map.
func GetAllMetadata(ctx context.Context, eng Engine) (map[string]string, error) {
	query := "SELECT key, value FROM clickmart_metadata"
	if eng.Name() == "clickhouse" {
		query = "SELECT key, value FROM clickmart_metadata FINAL"
	}

	rows, err := eng.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		metadata[key] = value
	}
	return metadata, rows.Err()
}

// DropMetadata drops the metadata and ledger tables.
func DropMetadata(ctx context.Context, eng Engine) error {
	if err := eng.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", metadataTable)); err != nil {
		return err
	}
	return eng.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", runsTable))
}

// StageRun is one row of the run ledger.
type StageRun struct {
	RunID      string
	Stage      string
	Table      string
	RowCount   int64
	DurationMs int64
	StartedAt  time.Time
}

// RecordStageRun appends a stage execution to the ledger.
func RecordStageRun(ctx context.Context, eng Engine, run StageRun) error {
	return eng.Exec(ctx, `
        INSERT INTO clickmart_runs (run_id, stage, table_name, row_count, duration_ms, started_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, run.RunID, run.Stage, run.Table, run.RowCount, run.DurationMs, run.StartedAt)
}

// RecentRuns returns the most recent ledger entries, newest first.
func RecentRuns(ctx context.Context, eng Engine, limit int) ([]StageRun, error) {
	rows, err := eng.Query(ctx, fmt.Sprintf(`
        SELECT run_id, stage, table_name, row_count, duration_ms, started_at
        FROM clickmart_runs
        ORDER BY started_at DESC
        LIMIT %d
    `, limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []StageRun
	for rows.Next() {
		var r StageRun
		if err := rows.Scan(&r.RunID, &r.Stage, &r.Table, &r.RowCount, &r.DurationMs, &r.StartedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
