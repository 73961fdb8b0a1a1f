package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clickmart/clickmart/internal/db"
	"github.com/clickmart/clickmart/internal/logging"
	"github.com/clickmart/clickmart/internal/pipeline"
)

var runStage string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the transform pipeline",
	Long: `Run the transform pipeline against loaded raw events. Stages execute
one at a time in dependency order, and each table is published atomically
when its stage completes. With --stage, only that stage runs; its upstream
tables must already be published.

Example:
  clickmart run --connection "postgres://..."
  clickmart run --stage session_metrics`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runStage, "stage", "",
		"run a single stage instead of the full pipeline")
}

func runRun(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if runStage != "" {
		cfg.Run.Stage = runStage
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Interruption cancels between statements; an aborted build leaves the
	// published tables untouched.
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, err := db.Open(ctx, cfg.Engine, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer eng.Close()

	exists, err := eng.TableExists(ctx, "raw_events")
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("raw_events does not exist; run 'clickmart init' and load events first")
	}

	runner := pipeline.NewRunner(eng)

	var result *pipeline.RunResult
	if cfg.Run.Stage != "" {
		result, err = runner.RunStage(ctx, cfg.Run.Stage)
	} else {
		result, err = runner.RunAll(ctx)
	}
	if err != nil {
		return err
	}

	for _, sr := range result.Stages {
		for _, t := range sr.Tables {
			cmd.Printf("  %-24s %10d rows  %s\n", t.Table, t.Rows, sr.Duration.Round(time.Millisecond))
		}
	}
	cmd.Printf("Pipeline run %s finished in %s\n",
		result.RunID, result.Duration.Round(time.Millisecond))

	logging.Info().
		Str("run_id", result.RunID).
		Int("stages", len(result.Stages)).
		Dur("elapsed", result.Duration).
		Msg("Pipeline complete")
	return nil
}
