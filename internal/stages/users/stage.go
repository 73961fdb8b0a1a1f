// Package users implements the gold-layer user aggregator: lifetime activity
// and buyer segmentation per user_id.
package users

import (
	"context"

	"github.com/clickmart/clickmart/internal/db"
	"github.com/clickmart/clickmart/internal/stages"
)

// TableName is the user mart table.
const TableName = "user_profiles"

type stage struct{}

// New creates the user aggregation stage.
func New() stages.Stage {
	return stage{}
}

func (stage) Name() string  { return "user_profiles" }
func (stage) Layer() string { return stages.LayerGold }

func (stage) Description() string {
	return "Aggregate cleaned events per user; derive lifetime value and buyer segment"
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
