package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clickmart/clickmart/internal/db"
	"github.com/clickmart/clickmart/internal/logging"
	"github.com/clickmart/clickmart/internal/stages/rawevents"
)

var (
	loadFile      string
	loadBatchSize int
	loadTruncate  bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a clickstream CSV export into raw_events",
	Long: `Load an e-commerce clickstream CSV export into the raw_events table.
The file must carry a header row with the standard export columns
(event_time, event_type, product_id, category_id, category_code, brand,
price, user_id, user_session). Values are loaded as-is; cleaning happens
in the pipeline, not here.

Example:
  clickmart load --file 2019-Oct.csv --connection "postgres://..."`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadFile, "file", "",
		"path of the CSV file to load")
	loadCmd.Flags().IntVar(&loadBatchSize, "batch-size", 0,
		"rows per batch insert")
	loadCmd.Flags().BoolVar(&loadTruncate, "truncate", false,
		"empty raw_events before loading")
}

func runLoad(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if loadFile != "" {
		cfg.Load.File = loadFile
	}
	if loadBatchSize > 0 {
		cfg.Load.BatchSize = loadBatchSize
	}
	if loadTruncate {
		cfg.Load.Truncate = true
	}

	// Validate configuration
	if err := cfg.ValidateLoad(); err != nil {
		return err
	}

	ctx := context.Background()
	eng, err := db.Open(ctx, cfg.Engine, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer eng.Close()

	exists, err := eng.TableExists(ctx, rawevents.TableName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("raw_events does not exist; run 'clickmart init' first")
	}

	if cfg.Load.Truncate {
		logging.Info().Msg("Truncating raw_events")
		if err := rawevents.Truncate(ctx, eng); err != nil {
			return fmt.Errorf("failed to truncate raw_events: %w", err)
		}
	}

	logging.Info().
		Str("file", cfg.Load.File).
		Int("batch_size", cfg.Load.BatchSize).
		Msg("Loading events")

	start := time.Now()
	loader := rawevents.NewLoader(eng, cfg.Load.BatchSize)
	rows, err := loader.LoadFile(ctx, cfg.Load.File)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	if err := db.SetMetadataValue(ctx, eng, "last_load_file", cfg.Load.File); err != nil {
		logging.Warn().Err(err).Msg("Could not record load metadata")
	}

	logging.Info().
		Int64("rows", rows).
		Dur("elapsed", time.Since(start)).
		Msg("Load complete")
	return nil
}
