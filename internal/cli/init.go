package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clickmart/clickmart/internal/db"
	"github.com/clickmart/clickmart/internal/logging"
	"github.com/clickmart/clickmart/internal/stages/rawevents"
)

var initDropExisting bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the database with the bronze schema",
	Long: `Initialize the target database with the raw_events table and the
pipeline metadata tables. Run this once before loading or seeding events.

Example:
  clickmart init --engine postgres --connection "postgres://..."`,
	RunE: runInitCmd,
}

func init() {
	initCmd.Flags().BoolVar(&initDropExisting, "drop-existing", false,
		"drop existing tables before initialization")
}

func runInitCmd(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	eng, err := db.Open(ctx, cfg.Engine, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer eng.Close()

	if initDropExisting {
		logging.Info().Msg("Dropping existing tables")
		if err := rawevents.DropSchema(ctx, eng); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
		if err := db.DropMetadata(ctx, eng); err != nil {
			logging.Debug().Err(err).Msg("No metadata tables to drop")
		}
	}

	logging.Info().Str("engine", eng.Name()).Msg("Creating schema")
	if err := rawevents.CreateSchema(ctx, eng); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := db.InitMetadata(ctx, eng); err != nil {
		return fmt.Errorf("failed to create metadata tables: %w", err)
	}

	if err := db.SaveMetadata(ctx, eng, nil); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	logging.Info().Msg("Database initialization complete")
	return nil
}
