//-------------------------------------------------------------------------
//
// clickmart - clickstream analytics pipeline
//
// Copyright (c) 2025 - 2026, the clickmart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cleaned

import (
	"fmt"

	"github.com/clickmart/clickmart/internal/db"
)

// Sentinels replacing null/blank labels during normalization. The quality
// flags are computed from the raw values before these are applied, so audits
// can still see the original gaps.
const (
	UncategorizedSentinel = "uncategorized"
	UnknownBrandSentinel  = "unknown"
)

// Query renders the cleaning SELECT over raw_events.
//
// Contract:
//   - rows missing event_time, event_type, product_id, user_id or
//     user_session are dropped, not repaired;
//   - event_type / category_code / brand are case-folded and trimmed, with
//     null-or-blank labels replaced by sentinels;
//   - non-positive prices become NULL (flagged), valid prices are rounded to
//     2 decimal places;
//   - event_date, event_hour and day_of_week (ISO, 1 = Monday) derive from
//     event_time.
func Query(d db.Dialect) string {
	return fmt.Sprintf(`SELECT
    event_time,
    LOWER(%[1]s) AS event_type,
    product_id,
    category_id,
    CASE
        WHEN category_code IS NULL OR %[2]s = '' THEN '%[7]s'
        ELSE LOWER(%[2]s)
    END AS category_code,
    CASE
        WHEN brand IS NULL OR %[3]s = '' THEN '%[8]s'
        ELSE LOWER(%[3]s)
    END AS brand,
    CASE
        WHEN price IS NULL OR price <= 0 THEN NULL
        ELSE %[4]s
    END AS price,
    user_id,
    user_session,
    %[5]s AS event_date,
    %[6]s AS event_hour,
    %[9]s AS day_of_week,
    (brand IS NULL OR %[3]s = '') AS is_brand_missing,
    (category_code IS NULL OR %[2]s = '') AS is_category_missing,
    (price IS NULL OR price <= 0) AS is_price_invalid
FROM raw_events
WHERE event_time IS NOT NULL
  AND event_type IS NOT NULL
  AND product_id IS NOT NULL
  AND user_id IS NOT NULL
  AND user_session IS NOT NULL`,
		d.Trim("event_type"),
		d.Trim("category_code"),
		d.Trim("brand"),
		d.Round2("price"),
		d.DateOf("event_time"),
		d.HourOf("event_time"),
		UncategorizedSentinel,
		UnknownBrandSentinel,
		d.IsoDayOfWeek("event_time"),
	)
}
