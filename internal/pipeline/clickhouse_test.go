//-------------------------------------------------------------------------
//
// clickmart - clickstream analytics pipeline
//
// Copyright (c) 2025 - 2026, the clickmart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import (
	"context"
	"testing"

	"github.com/clickmart/clickmart/internal/audit"
	"github.com/clickmart/clickmart/internal/db"
	"github.com/clickmart/clickmart/internal/stages/rawevents"
	"github.com/clickmart/clickmart/internal/testutil"
)

// TestPipelineEndToEndClickHouse runs the same fixture through the ClickHouse
// engine. Row counts and aggregates go through explicit CASTs because the
// native protocol scans types strictly.
func TestPipelineEndToEndClickHouse(t *testing.T) {
	baseConnStr := testutil.SkipIfNoClickHouse(t)

	connStr, dbName := testutil.CreateClickHouseTestDB(t, baseConnStr)
	cleanup := testutil.NewClickHouseCleanup(t, baseConnStr, dbName)
	defer cleanup.Cleanup()

	eng := testutil.ConnectClickHouseTestDB(t, connStr)
	cleanup.SetEngine(eng)

	ctx := context.Background()
	if err := rawevents.CreateSchema(ctx, eng); err != nil {
		t.Fatalf("CreateSchema failed: %v", err)
	}
	events := fixtureEvents()
	if _, err := eng.BatchInsert(ctx, rawevents.TableName, rawevents.Columns, events); err != nil {
		t.Fatalf("BatchInsert failed: %v", err)
	}

	runner := NewRunner(eng)
	result, err := runner.RunAll(ctx)
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if len(result.Stages) != 9 {
		t.Fatalf("Expected 9 stages, got %d", len(result.Stages))
	}

	t.Run("Cleaning", func(t *testing.T) { checkCleaningCH(t, eng, int64(len(events))) })
	t.Run("Sessions", func(t *testing.T) { checkSessionsCH(t, eng) })
	t.Run("Users", func(t *testing.T) { checkUsersCH(t, eng) })
	t.Run("Rollups", func(t *testing.T) { checkRollupsCH(t, eng) })
	t.Run("Trends", func(t *testing.T) { checkTrendsCH(t, eng) })
	t.Run("Audit", func(t *testing.T) { checkAuditCH(t, eng, int64(len(events))) })
	t.Run("Idempotence", func(t *testing.T) { checkIdempotenceCH(t, eng, runner) })
}

func checkCleaningCH(t *testing.T, eng db.Engine, rawRows int64) {
	cleaned := scanInt64(t, eng, "SELECT CAST(COUNT(*) AS BIGINT) FROM cleaned_events")
	if cleaned != rawRows-3 {
		t.Errorf("Expected %d cleaned rows, got %d", rawRows-3, cleaned)
	}

	if n := scanInt64(t, eng,
		"SELECT CAST(COUNT(*) AS BIGINT) FROM cleaned_events WHERE event_type NOT IN ('view', 'cart', 'remove_from_cart', 'purchase')"); n != 0 {
		t.Errorf("Found %d non-canonical event types after cleaning", n)
	}
	if n := scanInt64(t, eng,
		"SELECT CAST(COUNT(*) AS BIGINT) FROM cleaned_events WHERE brand = 'sony'"); n != 4 {
		t.Errorf("Expected 4 sony rows after case folding, got %d", n)
	}
	if n := scanInt64(t, eng,
		"SELECT CAST(COUNT(*) AS BIGINT) FROM cleaned_events WHERE is_price_invalid AND price IS NULL"); n != 2 {
		t.Errorf("Expected 2 invalid-price rows, got %d", n)
	}

	// 2019-10-01 is a Tuesday
	dow := scanInt64(t, eng,
		"SELECT CAST(MIN(day_of_week) AS BIGINT) FROM cleaned_events WHERE event_date = '2019-10-01'")
	if dow != 2 {
		t.Errorf("Expected ISO weekday 2 for Tuesday, got %d", dow)
	}
}

func checkSessionsCH(t *testing.T, eng db.Engine) {
	if n := scanInt64(t, eng, "SELECT CAST(COUNT(*) AS BIGINT) FROM session_metrics"); n != 4 {
		t.Fatalf("Expected 4 sessions, got %d", n)
	}

	purchases := scanInt64(t, eng,
		"SELECT CAST(purchases_count AS BIGINT) FROM session_metrics WHERE user_session = ?", "s-b")
	if purchases != 3 {
		t.Errorf("s-b purchases_count = %d, expected 3", purchases)
	}
	revenue := scanFloat64(t, eng,
		"SELECT CAST(total_revenue AS FLOAT8) FROM session_metrics WHERE user_session = ?", "s-b")
	if revenue != 60.0 {
		t.Errorf("s-b total_revenue = %v, expected 60", revenue)
	}
	avg := scanFloat64(t, eng,
		"SELECT CAST(avg_purchase_value AS FLOAT8) FROM session_metrics WHERE user_session = ?", "s-b")
	if avg != 20.0 {
		t.Errorf("s-b avg_purchase_value = %v, expected 20", avg)
	}

	for session, want := range map[string]string{
		"s-a": "abandoned_cart",
		"s-b": "converted",
		"s-c": "browsing_only",
		"s-d": "converted",
	} {
		got := scanString(t, eng,
			"SELECT funnel_stage FROM session_metrics WHERE user_session = ?", session)
		if got != want {
			t.Errorf("%s funnel_stage = %q, expected %q", session, got, want)
		}
	}
}

func checkUsersCH(t *testing.T, eng db.Engine) {
	for userID, want := range map[int64][2]string{
		101: {"cart_abandoner", "non_buyer"},
		102: {"buyer", "repeat_buyer"},
		103: {"browser", "non_buyer"},
		104: {"buyer", "one_time_buyer"},
	} {
		var userType, segment string
		err := eng.QueryRow(context.Background(),
			"SELECT user_type, buyer_segment FROM user_profiles WHERE user_id = ?", userID).
			Scan(&userType, &segment)
		if err != nil {
			t.Fatalf("Failed to read user %d: %v", userID, err)
		}
		if userType != want[0] || segment != want[1] {
			t.Errorf("user %d classified %s/%s, expected %s/%s",
				userID, userType, segment, want[0], want[1])
		}
	}
}

func checkRollupsCH(t *testing.T, eng db.Engine) {
	if n := scanInt64(t, eng, "SELECT CAST(COUNT(*) AS BIGINT) FROM category_performance"); n != 3 {
		t.Errorf("Expected 3 categories, got %d", n)
	}
	if n := scanInt64(t, eng, "SELECT CAST(COUNT(*) AS BIGINT) FROM brand_performance"); n != 3 {
		t.Errorf("Expected 3 brands, got %d", n)
	}

	// The fixture's 60.00 of revenue must survive every aggregation level
	for _, q := range []string{
		"SELECT CAST(SUM(total_revenue) AS FLOAT8) FROM product_performance",
		"SELECT CAST(SUM(category_revenue) AS FLOAT8) FROM category_performance",
		"SELECT CAST(SUM(brand_revenue) AS FLOAT8) FROM brand_performance",
	} {
		if got := scanFloat64(t, eng, q); got != 60.0 {
			t.Errorf("%s = %v, expected 60", q, got)
		}
	}
}

func checkTrendsCH(t *testing.T, eng db.Engine) {
	if n := scanInt64(t, eng, "SELECT CAST(COUNT(*) AS BIGINT) FROM daily_trends"); n != 2 {
		t.Errorf("Expected 2 daily buckets, got %d", n)
	}
	if got := scanFloat64(t, eng,
		"SELECT CAST(SUM(total_revenue) AS FLOAT8) FROM daily_trends"); got != 60.0 {
		t.Errorf("daily_trends revenue = %v, expected 60", got)
	}
	if n := scanInt64(t, eng,
		"SELECT CAST(SUM(sessions_count) AS BIGINT) FROM daily_trends"); n != 4 {
		t.Errorf("daily_trends sessions = %d, expected 4", n)
	}

	name := scanString(t, eng,
		"SELECT day_name FROM dow_patterns WHERE day_of_week = 2")
	if name != "Tuesday" {
		t.Errorf("day_name for weekday 2 = %q, expected Tuesday", name)
	}
}

func checkAuditCH(t *testing.T, eng db.Engine, rawRows int64) {
	report, err := audit.Run(context.Background(), eng)
	if err != nil {
		t.Fatalf("Audit failed: %v", err)
	}
	if report.RawRows != rawRows {
		t.Errorf("RawRows = %d, expected %d", report.RawRows, rawRows)
	}
	if report.DroppedRows != 3 {
		t.Errorf("DroppedRows = %d, expected 3", report.DroppedRows)
	}
	if report.BrandMissing != 2 || report.CategoryMissing != 2 || report.PriceInvalid != 2 {
		t.Errorf("Flags = %d/%d/%d, expected 2/2/2",
			report.BrandMissing, report.CategoryMissing, report.PriceInvalid)
	}
	if report.FunnelStages["converted"] != 2 {
		t.Errorf("Converted sessions = %d, expected 2", report.FunnelStages["converted"])
	}
}

func checkIdempotenceCH(t *testing.T, eng db.Engine, runner *Runner) {
	before := scanInt64(t, eng, "SELECT CAST(COUNT(*) AS BIGINT) FROM session_metrics")

	if _, err := runner.RunAll(context.Background()); err != nil {
		t.Fatalf("Second RunAll failed: %v", err)
	}

	after := scanInt64(t, eng, "SELECT CAST(COUNT(*) AS BIGINT) FROM session_metrics")
	if before != after {
		t.Errorf("Rerun changed session count: %d -> %d", before, after)
	}

	// Every staging table swapped away or dropped
	staging := scanInt64(t, eng, `
        SELECT CAST(count() AS BIGINT) FROM system.tables
        WHERE database = currentDatabase() AND name LIKE '%__staging'
    `)
	if staging != 0 {
		t.Errorf("Found %d leftover staging tables", staging)
	}
}
