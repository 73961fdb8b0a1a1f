// Package pipeline sequences the transform stages. Stages run one at a time
// in dependency order with a total barrier between them: a stage starts only
// after everything it reads has been published.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clickmart/clickmart/internal/db"
	"github.com/clickmart/clickmart/internal/logging"
	"github.com/clickmart/clickmart/internal/stages"
)

// StageResult reports one executed stage.
type StageResult struct {
	Stage    string
	Tables   []stages.BuildResult
	Duration time.Duration
}

// RunResult reports one pipeline run.
type RunResult struct {
	RunID    string
	Stages   []StageResult
	Duration time.Duration
}

// Runner executes stages against an engine and records the run ledger.
type Runner struct {
	eng db.Engine
}

// NewRunner creates a pipeline runner.
func NewRunner(eng db.Engine) *Runner {
	return &Runner{eng: eng}
}

// RunAll executes every registered stage in dependency order.
func (r *Runner) RunAll(ctx context.Context) (*RunResult, error) {
	ordered, err := Order(stages.All())
	if err != nil {
		return nil, err
	}
	return r.run(ctx, ordered)
}

// RunStage executes a single stage. Its upstream tables must already be
// published; missing upstreams are reported, not built implicitly.
func (r *Runner) RunStage(ctx context.Context, name string) (*RunResult, error) {
	s, err := stages.Get(name)
	if err != nil {
		return nil, err
	}

	for _, dep := range s.DependsOn() {
		upstream, err := stages.Get(dep)
		if err != nil {
			return nil, err
		}
		for _, table := range upstream.Tables() {
			exists, err := r.eng.TableExists(ctx, table)
			if err != nil {
				return nil, fmt.Errorf("failed to check upstream %s: %w", table, err)
			}
			if !exists {
				return nil, fmt.Errorf(
					"stage %s requires %s; run 'clickmart run' or build stage %s first",
					name, table, dep)
			}
		}
	}

	return r.run(ctx, []stages.Stage{s})
}

func (r *Runner) run(ctx context.Context, ordered []stages.Stage) (*RunResult, error) {
	if err := db.InitMetadata(ctx, r.eng); err != nil {
		return nil, err
	}

	result := &RunResult{RunID: uuid.NewString()}
	runStart := time.Now()

	logging.Info().
		Str("run_id", result.RunID).
		Int("stages", len(ordered)).
		Msg("Starting pipeline run")

	for _, s := range ordered {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		stageStart := time.Now()
		logging.Info().
			Str("stage", s.Name()).
			Str("layer", s.Layer()).
			Msg("Building stage")

		builds, err := s.Build(ctx, r.eng)
		if err != nil {
			// The failed stage's published tables are untouched; everything
			// built before it stays published.
			logging.Error().
				Str("stage", s.Name()).
				Err(err).
				Msg("Stage failed")
			return result, fmt.Errorf("stage %s failed: %w", s.Name(), err)
		}

		elapsed := time.Since(stageStart)
		for _, b := range builds {
			logging.Info().
				Str("stage", s.Name()).
				Str("table", b.Table).
				Int64("rows", b.Rows).
				Dur("elapsed", elapsed).
				Msg("Stage published")

			ledger := db.StageRun{
				RunID:      result.RunID,
				Stage:      s.Name(),
				Table:      b.Table,
				RowCount:   b.Rows,
				DurationMs: elapsed.Milliseconds(),
				StartedAt:  stageStart.UTC(),
			}
			if err := db.RecordStageRun(ctx, r.eng, ledger); err != nil {
				logging.Warn().Err(err).Msg("Failed to record run ledger entry")
			}
		}

		result.Stages = append(result.Stages, StageResult{
			Stage:    s.Name(),
			Tables:   builds,
			Duration: elapsed,
		})
	}

	result.Duration = time.Since(runStart)
	logging.Info().
		Str("run_id", result.RunID).
		Dur("elapsed", result.Duration).
		Msg("Pipeline run complete")

	return result, nil
}

// Order sorts stages topologically by DependsOn, breaking ties by name so
// runs are deterministic. A dependency on a stage outside the given set is
// an error; the bronze layer is loaded, not a stage, so it never appears in
// DependsOn.
func Order(all []stages.Stage) ([]stages.Stage, error) {
	byName := make(map[string]stages.Stage, len(all))
	for _, s := range all {
		byName[s.Name()] = s
	}

	// Kahn's algorithm over the subset, names sorted for determinism.
	indegree := make(map[string]int, len(all))
	dependents := make(map[string][]string, len(all))
	for _, s := range all {
		indegree[s.Name()] = 0
	}
	for _, s := range all {
		for _, dep := range s.DependsOn() {
			if _, ok := byName[dep]; !ok {
				return nil, fmt.Errorf("stage %s depends on unregistered stage %s", s.Name(), dep)
			}
			indegree[s.Name()]++
			dependents[dep] = append(dependents[dep], s.Name())
		}
	}

	var ready []string
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	ordered := make([]stages.Stage, 0, len(all))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		ordered = append(ordered, byName[name])

		released := dependents[name]
		sort.Strings(released)
		for _, next := range released {
			indegree[next]--
			if indegree[next] == 0 {
				ready = append(ready, next)
				sort.Strings(ready)
			}
		}
	}

	if len(ordered) != len(all) {
		return nil, fmt.Errorf("stage dependency cycle detected")
	}
	return ordered, nil
}
