// Package audit runs the read-only data-quality queries over the pipeline's
// tables. Rows rejected by the cleaning stage are never surfaced as faults
// anywhere else; this is where they are counted.
package audit

import (
	"context"
	"fmt"

	"github.com/clickmart/clickmart/internal/db"
)

// The raw key fields whose absence causes a row to be dropped by cleaning.
var keyFields = []string{"event_time", "event_type", "product_id", "user_id", "user_session"}

// Report is the data-quality summary.
type Report struct {
	RawRows     int64
	CleanedRows int64
	DroppedRows int64

	// DroppedByField counts raw rows missing each key field. A row missing
	// several fields appears under each, so these can sum past DroppedRows.
	DroppedByField map[string]int64

	// Quality-flag counts over cleaned_events (pre-normalization gaps).
	BrandMissing    int64
	CategoryMissing int64
	PriceInvalid    int64

	// FunnelStages is the session distribution, when session_metrics exists.
	FunnelStages map[string]int64
}

// Run collects the report. Tables that have not been built yet are skipped,
// not errors, so audit is usable right after a load.
func Run(ctx context.Context, eng db.Engine) (*Report, error) {
	r := &Report{
		DroppedByField: make(map[string]int64),
		FunnelStages:   make(map[string]int64),
	}
	d := eng.Dialect()

	if err := countRow(ctx, eng, "SELECT CAST(COUNT(*) AS BIGINT) FROM raw_events", &r.RawRows); err != nil {
		return nil, fmt.Errorf("failed to count raw_events: %w", err)
	}

	for _, field := range keyFields {
		var n int64
		q := fmt.Sprintf("SELECT CAST(COUNT(*) AS BIGINT) FROM raw_events WHERE %s IS NULL", field)
		if err := countRow(ctx, eng, q, &n); err != nil {
			return nil, fmt.Errorf("failed to count missing %s: %w", field, err)
		}
		r.DroppedByField[field] = n
	}

	cleanedExists, err := eng.TableExists(ctx, "cleaned_events")
	if err != nil {
		return nil, err
	}
	if cleanedExists {
		q := fmt.Sprintf(`SELECT
            CAST(COUNT(*) AS BIGINT),
            CAST(%s AS BIGINT),
            CAST(%s AS BIGINT),
            CAST(%s AS BIGINT)
        FROM cleaned_events`,
			d.CountIf("is_brand_missing"),
			d.CountIf("is_category_missing"),
			d.CountIf("is_price_invalid"))
		if err := eng.QueryRow(ctx, q).Scan(&r.CleanedRows, &r.BrandMissing, &r.CategoryMissing, &r.PriceInvalid); err != nil {
			return nil, fmt.Errorf("failed to audit cleaned_events: %w", err)
		}
		r.DroppedRows = r.RawRows - r.CleanedRows
	}

	sessionsExist, err := eng.TableExists(ctx, "session_metrics")
	if err != nil {
		return nil, err
	}
	if sessionsExist {
		rows, err := eng.Query(ctx, `
            SELECT funnel_stage, CAST(COUNT(*) AS BIGINT)
            FROM session_metrics
            GROUP BY funnel_stage
        `)
		if err != nil {
			return nil, fmt.Errorf("failed to audit session_metrics: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var stage string
			var n int64
			if err := rows.Scan(&stage, &n); err != nil {
				return nil, err
			}
			r.FunnelStages[stage] = n
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func countRow(ctx context.Context, eng db.Engine, query string, dest *int64) error {
	return eng.QueryRow(ctx, query).Scan(dest)
}
