// Package trends implements the gold-layer time-bucket aggregators: session
// metrics rolled up by calendar day, hour of day, and ISO weekday.
package trends

import (
	"context"

	"github.com/clickmart/clickmart/internal/db"
	"github.com/clickmart/clickmart/internal/stages"
)

// Mart table names.
const (
	DailyTable  = "daily_trends"
	HourlyTable = "hourly_patterns"
	DowTable    = "dow_patterns"
)

// bucketStage is one of the three parallel time-bucket aggregators; they
// differ only in table name and bucket key.
type bucketStage struct {
	name        string
	description string
	query       func(db.Dialect) string
}

func (s bucketStage) Name() string        { return s.name }
func (s bucketStage) Layer() string       { return stages.LayerGold }
func (s bucketStage) Description() string { return s.description }
func (s bucketStage) DependsOn() []string { return []string{"session_metrics"} }
func (s bucketStage) Tables() []string    { return []string{s.name} }

func (s bucketStage) Build(ctx context.Context, eng db.Engine) ([]stages.BuildResult, error) {
	res, err := stages.BuildTable(ctx, eng, s.name, s.query(eng.Dialect()))
	if err != nil {
		return nil, err
	}
	return []stages.BuildResult{res}, nil
}

// NewDaily creates the calendar-day aggregator.
func NewDaily() stages.Stage {
	return bucketStage{
		name:        DailyTable,
		description: "Roll session metrics up by calendar day",
		query:       DailyQuery,
	}
}

// NewHourly creates the hour-of-day aggregator.
func NewHourly() stages.Stage {
	return bucketStage{
		name:        HourlyTable,
		description: "Roll session metrics up by hour of day",
		query:       HourlyQuery,
	}
}

// NewDow creates the day-of-week aggregator.
func NewDow() stages.Stage {
	return bucketStage{
		name:        DowTable,
		description: "Roll session metrics up by ISO weekday",
		query:       DowQuery,
	}
}

func init() {
	stages.Register(NewDaily())
	stages.Register(NewHourly())
	stages.Register(NewDow())
}
