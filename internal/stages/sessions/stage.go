// Package sessions implements the gold-layer session aggregator: one row per
// user_session with funnel classification.
package sessions

import (
	"context"

	"github.com/clickmart/clickmart/internal/db"
	"github.com/clickmart/clickmart/internal/stages"
)

// TableName is the session mart table.
const TableName = "session_metrics"

type stage struct{}

// New creates the session aggregation stage.
func New() stages.Stage {
	return stage{}
}

func (stage) Name() string  { return "session_metrics" }
func (stage) Layer() string { return stages.LayerGold }

func (stage) Description() string {
	return "Aggregate cleaned events per session; classify the funnel stage reached"
}

func (stage) DependsOn() []string { return []string{"cleaned_events"} }

func (stage) Tables() []string { return []string{TableName} }

func (stage) Build(ctx context.Context, eng db.Engine) ([]stages.BuildResult, error) {
	res, err := stages.BuildTable(ctx, eng, TableName, Query(eng.Dialect()))
	if err != nil {
		return nil, err
	}
	return []stages.BuildResult{res}, nil
}

func init() {
	stages.Register(New())
}
