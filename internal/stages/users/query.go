//-------------------------------------------------------------------------
//
// clickmart - clickstream analytics pipeline
//
// Copyright (c) 2025 - 2026, the clickmart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package users

import (
	"fmt"

	"github.com/clickmart/clickmart/internal/db"
)

// User activity types, deepest action wins.
const (
	TypeBuyer         = "buyer"
	TypeCartAbandoner = "cart_abandoner"
	TypeBrowser       = "browser"
)

// Buyer segments by lifetime purchase count.
const (
	SegmentRepeatBuyer  = "repeat_buyer"
	SegmentOneTimeBuyer = "one_time_buyer"
	SegmentNonBuyer     = "non_buyer"
)

// RepeatBuyerThreshold is the purchase count at which a buyer becomes a
// repeat buyer.
const RepeatBuyerThreshold = 3

// Query renders the user aggregation over cleaned_events.
//
// lifetime_days is an inclusive day count: the calendar-day difference
// between first and last event plus one, so a single-day user has
// lifetime_days = 1. user_type and buyer_segment are two independent
// classification passes over the same counters; a cart_abandoner always
// carries segment non_buyer, while a buyer may be one_time or repeat.
func Query(d db.Dialect) string {
	purchases := d.CountIf("event_type = 'purchase'")
	revenue := d.SumIf("price", "event_type = 'purchase'")

	return fmt.Sprintf(`SELECT
    user_id,
    MIN(event_time) AS first_seen,
    MAX(event_time) AS last_seen,
    %[1]s + 1 AS lifetime_days,
    COUNT(DISTINCT user_session) AS sessions_count,
    COUNT(DISTINCT event_date) AS active_days_count,
    %[2]s AS views_count,
    %[3]s AS cart_adds_count,
    %[4]s AS purchases_count,
    %[5]s AS lifetime_revenue,
    %[5]s / NULLIF(%[4]s, 0) AS avg_order_value,
    COUNT(DISTINCT product_id) AS products_viewed,
    COUNT(DISTINCT category_code) AS categories_browsed,
    COUNT(DISTINCT brand) AS brands_browsed,
    CASE
        WHEN %[4]s > 0 THEN '%[6]s'
        WHEN %[3]s > 0 THEN '%[7]s'
        ELSE '%[8]s'
    END AS user_type,
    CASE
        WHEN %[4]s >= %[9]d THEN '%[10]s'
        WHEN %[4]s >= 1 THEN '%[11]s'
        ELSE '%[12]s'
    END AS buyer_segment
FROM cleaned_events
GROUP BY user_id`,
		d.DaysBetween("MIN(event_time)", "MAX(event_time)"),
		d.CountIf("event_type = 'view'"),
		d.CountIf("event_type = 'cart'"),
		purchases,
		revenue,
		TypeBuyer,
		TypeCartAbandoner,
		TypeBrowser,
		RepeatBuyerThreshold,
		SegmentRepeatBuyer,
		SegmentOneTimeBuyer,
		SegmentNonBuyer,
	)
}
