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
	seedEvents    int
	seedUsers     int
	seedProducts  int
	seedDays      int
	seedDirtyRate float64
	seedRandom    uint64
	seedBatchSize int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate synthetic clickstream events into raw_events",
	Long: `Generate synthetic funnel-shaped clickstream events and insert them
into raw_events, as a stand-in for a real CSV export. A configurable
fraction of rows carries deliberate data-quality defects so the cleaning
stage has realistic work to do.

Example:
  clickmart seed --events 500000 --users 5000 --dirty-rate 0.05 --seed 42`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedEvents, "events", 0,
		"approximate number of events to generate")
	seedCmd.Flags().IntVar(&seedUsers, "users", 0,
		"number of distinct users")
	seedCmd.Flags().IntVar(&seedProducts, "products", 0,
		"size of the product catalog")
	seedCmd.Flags().IntVar(&seedDays, "days", 0,
		"calendar span of event timestamps in days")
	seedCmd.Flags().Float64Var(&seedDirtyRate, "dirty-rate", 0,
		"fraction of rows given data-quality defects")
	seedCmd.Flags().Uint64Var(&seedRandom, "seed", 0,
		"random seed for reproducible generation (0 = random)")
	seedCmd.Flags().IntVar(&seedBatchSize, "batch-size", 0,
		"rows per batch insert")
}

func runSeed(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if seedEvents > 0 {
		cfg.Seed.Events = seedEvents
	}
	if seedUsers > 0 {
		cfg.Seed.Users = seedUsers
	}
	if seedProducts > 0 {
		cfg.Seed.Products = seedProducts
	}
	if seedDays > 0 {
		cfg.Seed.Days = seedDays
	}
	if seedDirtyRate > 0 {
		cfg.Seed.DirtyRate = seedDirtyRate
	}
	if seedRandom > 0 {
		cfg.Seed.RandomSeed = seedRandom
	}
	if seedBatchSize > 0 {
		cfg.Seed.BatchSize = seedBatchSize
	}

	// Validate configuration
	if err := cfg.ValidateSeed(); err != nil {
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

	logging.Info().
		Int("events", cfg.Seed.Events).
		Int("users", cfg.Seed.Users).
		Int("products", cfg.Seed.Products).
		Float64("dirty_rate", cfg.Seed.DirtyRate).
		Msg("Generating events")

	start := time.Now()
	seeder := rawevents.NewSeeder(eng, rawevents.SeederConfig{
		Events:    cfg.Seed.Events,
		Users:     cfg.Seed.Users,
		Products:  cfg.Seed.Products,
		Days:      cfg.Seed.Days,
		DirtyRate: cfg.Seed.DirtyRate,
		Seed:      cfg.Seed.RandomSeed,
		BatchSize: cfg.Seed.BatchSize,
	})
	rows, err := seeder.Seed(ctx)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	logging.Info().
		Int64("rows", rows).
		Dur("elapsed", time.Since(start)).
		Msg("Seed complete")
	return nil
}
