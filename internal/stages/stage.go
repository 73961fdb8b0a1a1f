// Package stages defines the transform stage interface and registry.
// A stage owns one or more derived tables and rebuilds them wholesale from
// its upstream tables; stages never write tables they do not own.
package stages

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/clickmart/clickmart/internal/db"
)

// Layer names, in dependency order.
const (
	LayerBronze = "bronze"
	LayerSilver = "silver"
	LayerGold   = "gold"
)

// BuildResult reports one rebuilt table.
type BuildResult struct {
	// Table is the published table name.
	Table string

	// Rows is the row count of the published table.
	Rows int64
}

// Stage is a single transform in the pipeline DAG.
type Stage interface {
	// Name is the stage identifier used by --stage and the run ledger.
	Name() string

	// Layer is the medallion layer this stage writes to.
	Layer() string

	// Description is a human-readable summary.
	Description() string

	// DependsOn lists the names of stages whose output this stage reads.
	// Bronze tables are loaded, not built, so the silver stage has no
	// dependencies.
	DependsOn() []string

	// Tables lists the tables this stage owns, in build order.
	Tables() []string

	// Build rebuilds the stage's tables wholesale and atomically publishes
	// them. On error the previously published tables remain unchanged.
	Build(ctx context.Context, eng db.Engine) ([]BuildResult, error)
}

var (
	registry = make(map[string]Stage)
	mu       sync.RWMutex
)

// Register adds a stage to the registry.
func Register(s Stage) {
	mu.Lock()
	defer mu.Unlock()
	registry[s.Name()] = s
}

// Get retrieves a stage by name.
func Get(name string) (Stage, error) {
	mu.RLock()
	defer mu.RUnlock()

	s, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown stage: %s", name)
	}
	return s, nil
}

// All returns all registered stages sorted by name.
func All() []Stage {
	mu.RLock()
	defer mu.RUnlock()

	all := make([]Stage, 0, len(registry))
	for _, s := range registry {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name() < all[j].Name() })
	return all
}

// Names returns all registered stage names sorted alphabetically.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StagingSuffix is appended to a table name while it is being rebuilt.
const StagingSuffix = "__staging"

// BuildTable materializes selectSQL into table via a staging CTAS and an
// atomic swap. All derived tables are published through this path so a
// failed build never disturbs the live table.
func BuildTable(ctx context.Context, eng db.Engine, table, selectSQL string) (BuildResult, error) {
	d := eng.Dialect()
	staging := table + StagingSuffix

	if err := eng.Exec(ctx, d.DropTable(staging)); err != nil {
		return BuildResult{}, fmt.Errorf("failed to drop stale staging for %s: %w", table, err)
	}
	if err := eng.Exec(ctx, d.CreateTableAs(staging, selectSQL)); err != nil {
		return BuildResult{}, fmt.Errorf("failed to build %s: %w", table, err)
	}

	var rows int64
	// CAST keeps the count scannable as int64 on both engines (ClickHouse
	// count() is UInt64 and its driver scans types strictly).
	if err := eng.QueryRow(ctx, fmt.Sprintf("SELECT CAST(COUNT(*) AS BIGINT) FROM %s", staging)).Scan(&rows); err != nil {
		return BuildResult{}, fmt.Errorf("failed to count %s: %w", staging, err)
	}

	if err := eng.SwapTable(ctx, staging, table); err != nil {
		return BuildResult{}, fmt.Errorf("failed to publish %s: %w", table, err)
	}

	return BuildResult{Table: table, Rows: rows}, nil
}
