package users

import (
	"strings"
	"testing"

	"github.com/clickmart/clickmart/internal/db"
)

var dialects = []db.Dialect{db.PostgresDialect{}, db.ClickHouseDialect{}}

func TestQueryGroupsByUser(t *testing.T) {
	for _, d := range dialects {
		q := Query(d)
		if !strings.Contains(q, "GROUP BY user_id") {
			t.Errorf("%s: profiles must group by user_id", d.Name())
		}
		if !strings.Contains(q, "FROM cleaned_events") {
			t.Errorf("%s: profiles must read cleaned_events", d.Name())
		}
	}
}

func TestQueryLifetimeDaysInclusive(t *testing.T) {
	for _, d := range dialects {
		q := Query(d)
		want := d.DaysBetween("MIN(event_time)", "MAX(event_time)") + " + 1 AS lifetime_days"
		if !strings.Contains(q, want) {
			t.Errorf("%s: lifetime_days must be the inclusive day span, want %q",
				d.Name(), want)
		}
	}
}

func TestQueryDistinctCounts(t *testing.T) {
	for _, d := range dialects {
		q := Query(d)
		for _, want := range []string{
			"COUNT(DISTINCT user_session) AS sessions_count",
			"COUNT(DISTINCT event_date) AS active_days_count",
			"COUNT(DISTINCT product_id) AS products_viewed",
			"COUNT(DISTINCT category_code) AS categories_browsed",
			"COUNT(DISTINCT brand) AS brands_browsed",
		} {
			if !strings.Contains(q, want) {
				t.Errorf("%s: missing %q", d.Name(), want)
			}
		}
	}
}

func TestQueryAvgOrderValueGuarded(t *testing.T) {
	for _, d := range dialects {
		q := Query(d)
		purchases := d.CountIf("event_type = 'purchase'")
		if !strings.Contains(q, "NULLIF("+purchases+", 0) AS avg_order_value") {
			t.Errorf("%s: avg_order_value must guard against zero purchases", d.Name())
		}
	}
}

func TestQueryClassifications(t *testing.T) {
	for _, d := range dialects {
		q := Query(d)

		// user_type: purchase beats cart beats browsing
		buyer := strings.Index(q, "'"+TypeBuyer+"'")
		abandoner := strings.Index(q, "'"+TypeCartAbandoner+"'")
		browser := strings.Index(q, "'"+TypeBrowser+"'")
		if buyer < 0 || abandoner < 0 || browser < 0 {
			t.Fatalf("%s: user types missing from query", d.Name())
		}
		if !(buyer < abandoner && abandoner < browser) {
			t.Errorf("%s: user_type CASE must check purchases, then carts, then default",
				d.Name())
		}

		// buyer_segment: the repeat threshold comes first
		if !strings.Contains(q, ">= 3 THEN '"+SegmentRepeatBuyer+"'") {
			t.Errorf("%s: repeat buyer threshold must be %d", d.Name(), RepeatBuyerThreshold)
		}
		if !strings.Contains(q, ">= 1 THEN '"+SegmentOneTimeBuyer+"'") {
			t.Errorf("%s: one-time buyer requires at least one purchase", d.Name())
		}
		if !strings.Contains(q, "'"+SegmentNonBuyer+"'") {
			t.Errorf("%s: missing non_buyer default", d.Name())
		}
	}
}

func TestStageShape(t *testing.T) {
	s := New()
	if s.Name() != TableName {
		t.Errorf("Stage name %q should match its table", s.Name())
	}
	deps := s.DependsOn()
	if len(deps) != 1 || deps[0] != "cleaned_events" {
		t.Errorf("Profiles must read cleaned_events only, got %v", deps)
	}
}
