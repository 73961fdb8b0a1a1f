// Package cleaned implements the silver-layer cleaning transform: raw events
// are validated, normalized and enriched with calendar fields and quality
// flags, then published wholesale as cleaned_events.
package cleaned

import (
	"context"

	"github.com/clickmart/clickmart/internal/db"
	"github.com/clickmart/clickmart/internal/stages"
)

// TableName is the silver event table.
const TableName = "cleaned_events"

type stage struct{}

// New creates the cleaning stage.
func New() stages.Stage {
	return stage{}
}

func (stage) Name() string  { return "cleaned_events" }
func (stage) Layer() string { return stages.LayerSilver }

func (stage) Description() string {
	return "Validate and normalize raw events; derive calendar fields and quality flags"
}

func (stage) DependsOn() []string { return nil }

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
