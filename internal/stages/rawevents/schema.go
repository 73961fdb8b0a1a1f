//-------------------------------------------------------------------------
//
// clickmart - clickstream analytics pipeline
//
// Copyright (c) 2025 - 2026, the clickmart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package rawevents owns the bronze layer: the raw_events table, the CSV
// loader, and the synthetic event seeder. Bronze rows are loaded, never
// transformed; every field is nullable because validation belongs to the
// cleaning stage.
package rawevents

import (
	"context"
	"fmt"

	"github.com/clickmart/clickmart/internal/db"
)

// TableName is the bronze event table.
const TableName = "raw_events"

// Columns is the bronze column order used by the loader and seeder.
var Columns = []string{
	"event_time", "event_type", "product_id", "category_id",
	"category_code", "brand", "price", "user_id", "user_session",
}

const createPostgresSQL = `
CREATE TABLE IF NOT EXISTS raw_events (
    event_time    TIMESTAMP,
    event_type    TEXT,
    product_id    BIGINT,
    category_id   BIGINT,
    category_code TEXT,
    brand         TEXT,
    price         NUMERIC(12,2),
    user_id       BIGINT,
    user_session  TEXT
)`

const createClickHouseSQL = `
CREATE TABLE IF NOT EXISTS raw_events (
    event_time    Nullable(DateTime),
    event_type    Nullable(String),
    product_id    Nullable(Int64),
    category_id   Nullable(Int64),
    category_code Nullable(String),
    brand         Nullable(String),
    price         Nullable(Float64),
    user_id       Nullable(Int64),
    user_session  Nullable(String)
) ENGINE = MergeTree() ORDER BY tuple()`

// CreateSchema creates the bronze table.
func CreateSchema(ctx context.Context, eng db.Engine) error {
	sql := createPostgresSQL
	if eng.Name() == "clickhouse" {
		sql = createClickHouseSQL
	}
	if err := eng.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to create %s: %w", TableName, err)
	}
	return nil
}

// DropSchema drops the bronze table.
func DropSchema(ctx context.Context, eng db.Engine) error {
	return eng.Exec(ctx, eng.Dialect().DropTable(TableName))
}

// Truncate empties the bronze table ahead of a full reload.
func Truncate(ctx context.Context, eng db.Engine) error {
	return eng.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s", TableName))
}
