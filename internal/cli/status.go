package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clickmart/clickmart/internal/db"
	"github.com/clickmart/clickmart/internal/pipeline"
	"github.com/clickmart/clickmart/internal/stages"
)

var statusRuns int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database metadata and recent pipeline runs",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusRuns, "runs", 10,
		"number of recent stage runs to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	eng, err := db.Open(ctx, cfg.Engine, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer eng.Close()

	metadata, err := db.GetAllMetadata(ctx, eng)
	if err != nil {
		return fmt.Errorf("database has not been initialized; run 'clickmart init' first")
	}

	cmd.Println("Metadata:")
	for _, key := range []string{"engine", "version", "initialized_at", "last_load_file"} {
		if value, ok := metadata[key]; ok {
			cmd.Printf("  %-16s %s\n", key, value)
		}
	}

	ordered, err := pipeline.Order(stages.All())
	if err != nil {
		return err
	}
	cmd.Println()
	cmd.Println("Tables:")
	printTable := func(name string) error {
		exists, err := eng.TableExists(ctx, name)
		if err != nil {
			return err
		}
		state := "missing"
		if exists {
			state = "published"
		}
		cmd.Printf("  %-24s %s\n", name, state)
		return nil
	}
	if err := printTable("raw_events"); err != nil {
		return err
	}
	for _, s := range ordered {
		for _, table := range s.Tables() {
			if err := printTable(table); err != nil {
				return err
			}
		}
	}

	runs, err := db.RecentRuns(ctx, eng, statusRuns)
	if err != nil {
		return err
	}
	if len(runs) > 0 {
		cmd.Println()
		cmd.Println("Recent stage runs:")
		for _, r := range runs {
			cmd.Printf("  %s  %-24s %10d rows  %6dms  run %s\n",
				r.StartedAt.UTC().Format(time.RFC3339),
				r.Table, r.RowCount, r.DurationMs, r.RunID)
		}
	}

	return nil
}
