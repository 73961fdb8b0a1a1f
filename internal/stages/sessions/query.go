//-------------------------------------------------------------------------
//
// clickmart - clickstream analytics pipeline
//
// Copyright (c) 2025 - 2026, the clickmart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package sessions

import (
	"fmt"

	"github.com/clickmart/clickmart/internal/db"
)

// Funnel stages, deepest action wins.
const (
	FunnelConverted     = "converted"
	FunnelAbandonedCart = "abandoned_cart"
	FunnelBrowsingOnly  = "browsing_only"
)

// Query renders the session aggregation over cleaned_events.
//
// Session tokens are assumed globally unique, so the grouped user_id is
// single-valued; MAX is just a deterministic pick. Typed counters cover
// view/cart/remove_from_cart/purchase; other event types count only toward
// total_events. Revenue sums purchase-row prices with NULL treated as 0,
// the convention used by every downstream stage. funnel_stage is strict
// precedence: any purchase converts the session regardless of cart events.
func Query(d db.Dialect) string {
	purchases := d.CountIf("event_type = 'purchase'")
	carts := d.CountIf("event_type = 'cart'")
	revenue := d.SumIf("price", "event_type = 'purchase'")

	return fmt.Sprintf(`SELECT
    user_session,
    MAX(user_id) AS user_id,
    MIN(event_time) AS session_start,
    MAX(event_time) AS session_end,
    %[1]s AS session_duration_minutes,
    COUNT(*) AS total_events,
    %[2]s AS views_count,
    %[3]s AS cart_adds_count,
    %[4]s AS removes_count,
    %[5]s AS purchases_count,
    %[6]s AS viewed_products,
    %[7]s AS cart_products,
    %[8]s AS purchased_products,
    %[9]s AS total_revenue,
    %[9]s / NULLIF(%[5]s, 0) AS avg_purchase_value,
    %[3]s > 0 AS has_cart,
    %[5]s > 0 AS has_purchase,
    CASE
        WHEN %[5]s > 0 THEN '%[10]s'
        WHEN %[3]s > 0 THEN '%[11]s'
        ELSE '%[12]s'
    END AS funnel_stage
FROM cleaned_events
GROUP BY user_session`,
		d.MinutesBetween("MIN(event_time)", "MAX(event_time)"),
		d.CountIf("event_type = 'view'"),
		carts,
		d.CountIf("event_type = 'remove_from_cart'"),
		purchases,
		d.CountDistinctIf("product_id", "event_type = 'view'"),
		d.CountDistinctIf("product_id", "event_type = 'cart'"),
		d.CountDistinctIf("product_id", "event_type = 'purchase'"),
		revenue,
		FunnelConverted,
		FunnelAbandonedCart,
		FunnelBrowsingOnly,
	)
}
