package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/clickmart/clickmart/internal/audit"
	"github.com/clickmart/clickmart/internal/db"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Report data quality across the pipeline tables",
	Long: `Report data quality: raw versus cleaned row counts, how many raw
rows were dropped for each missing key field, the rates of the brand,
category and price quality flags, and the session funnel distribution.
Audit only reads; it never modifies any table.`,
	RunE: runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
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

	report, err := audit.Run(ctx, eng)
	if err != nil {
		return err
	}

	cmd.Println("Data quality report")
	cmd.Println()
	cmd.Printf("  raw_events rows:      %d\n", report.RawRows)
	if report.CleanedRows > 0 || report.DroppedRows > 0 {
		cmd.Printf("  cleaned_events rows:  %d\n", report.CleanedRows)
		cmd.Printf("  dropped rows:         %d (%s)\n",
			report.DroppedRows, pct(report.DroppedRows, report.RawRows))
	} else {
		cmd.Println("  cleaned_events:       not built yet")
	}
	cmd.Println()

	cmd.Println("  Raw rows missing key fields:")
	for _, field := range sortedKeys(report.DroppedByField) {
		cmd.Printf("    %-14s %d\n", field, report.DroppedByField[field])
	}

	if report.CleanedRows > 0 {
		cmd.Println()
		cmd.Println("  Quality flags on cleaned rows:")
		cmd.Printf("    missing brand:     %d (%s)\n",
			report.BrandMissing, pct(report.BrandMissing, report.CleanedRows))
		cmd.Printf("    missing category:  %d (%s)\n",
			report.CategoryMissing, pct(report.CategoryMissing, report.CleanedRows))
		cmd.Printf("    invalid price:     %d (%s)\n",
			report.PriceInvalid, pct(report.PriceInvalid, report.CleanedRows))
	}

	if len(report.FunnelStages) > 0 {
		var total int64
		for _, n := range report.FunnelStages {
			total += n
		}
		cmd.Println()
		cmd.Println("  Session funnel:")
		for _, stage := range sortedKeys(report.FunnelStages) {
			n := report.FunnelStages[stage]
			cmd.Printf("    %-16s %d (%s)\n", stage, n, pct(n, total))
		}
	}

	return nil
}

func pct(part, whole int64) string {
	if whole == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)*100/float64(whole))
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
