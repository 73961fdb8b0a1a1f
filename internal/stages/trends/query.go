package trends

import (
	"fmt"

	"github.com/clickmart/clickmart/internal/db"
)

// DayNames maps the ISO weekday number (1 = Monday ... 7 = Sunday) to its
// display name.
var DayNames = [8]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DailyQuery buckets sessions by the calendar date of their first event.
func DailyQuery(d db.Dialect) string {
	return bucketQuery(d, d.DateOf("session_start"), "event_date", "")
}

// HourlyQuery buckets sessions by the hour of day they started in.
func HourlyQuery(d db.Dialect) string {
	return bucketQuery(d, d.HourOf("session_start"), "event_hour", "")
}

// DowQuery buckets sessions by the ISO weekday they started on, with a fixed
// display-name lookup.
func DowQuery(d db.Dialect) string {
	return bucketQuery(d, d.IsoDayOfWeek("session_start"), "day_of_week", dayNameCase(d))
}

func dayNameCase(d db.Dialect) string {
	s := "CASE " + d.IsoDayOfWeek("session_start") + "\n"
	for i := 1; i <= 7; i++ {
		s += fmt.Sprintf("        WHEN %d THEN '%s'\n", i, DayNames[i])
	}
	return s + "    END AS day_name,"
}

// bucketQuery renders the shared time-bucket aggregation over
// session_metrics. Sessions are assigned to the bucket of their start time.
// avg_order_value treats orders as summed purchase events and divides
// NULLIF-safely; conversion_rate is the fraction of sessions that purchased.
func bucketQuery(d db.Dialect, keyExpr, keyAlias, extraCols string) string {
	extra := ""
	if extraCols != "" {
		extra = "\n    " + extraCols
	}

	return fmt.Sprintf(`SELECT
    %[1]s AS %[2]s,%[3]s
    COUNT(*) AS sessions_count,
    COUNT(DISTINCT user_id) AS unique_users,
    SUM(total_events) AS total_events,
    SUM(purchases_count) AS orders_count,
    SUM(total_revenue) AS total_revenue,
    SUM(total_revenue) / NULLIF(SUM(purchases_count), 0) AS avg_order_value,
    %[4]s * 1.0 / COUNT(*) AS conversion_rate
FROM session_metrics
GROUP BY %[1]s`,
		keyExpr,
		keyAlias,
		extra,
		d.CountIf("has_purchase"),
	)
}
