package db

import "fmt"

// Dialect renders the engine-specific SQL fragments the transform queries
// differ on. Everything else (CASE expressions, GROUP BY, NULLIF arithmetic)
// is written once in portable SQL.
type Dialect interface {
	// Name returns the dialect name, matching the engine name.
	Name() string

	// CreateTableAs renders a CREATE TABLE ... AS SELECT statement.
	CreateTableAs(table, query string) string

	// DropTable renders DROP TABLE IF EXISTS.
	DropTable(table string) string

	// CountIf counts rows matching a condition.
	CountIf(cond string) string

	// SumIf sums an expression over rows matching a condition, yielding 0
	// (never NULL) when no row matches. NULL values contribute nothing.
	SumIf(expr, cond string) string

	// CountDistinctIf counts distinct values of expr over matching rows.
	CountDistinctIf(expr, cond string) string

	// Trim renders whitespace trimming.
	Trim(expr string) string

	// DateOf extracts the calendar date from a timestamp.
	DateOf(expr string) string

	// HourOf extracts the hour of day (0-23) from a timestamp.
	HourOf(expr string) string

	// IsoDayOfWeek extracts the ISO weekday (1 = Monday ... 7 = Sunday).
	IsoDayOfWeek(expr string) string

	// MinutesBetween is the whole-minute difference end - start (floor).
	MinutesBetween(start, end string) string

	// DaysBetween is the calendar-day difference end - start.
	DaysBetween(start, end string) string

	// Round2 rounds a numeric expression to 2 decimal places.
	Round2(expr string) string
}

// PostgresDialect renders PostgreSQL SQL.
type PostgresDialect struct{}

func (PostgresDialect) Name() string { return "postgres" }

func (PostgresDialect) CreateTableAs(table, query string) string {
	return fmt.Sprintf("CREATE TABLE %s AS\n%s", table, query)
}

func (PostgresDialect) DropTable(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", table)
}

func (PostgresDialect) CountIf(cond string) string {
	return fmt.Sprintf("COUNT(*) FILTER (WHERE %s)", cond)
}

func (PostgresDialect) SumIf(expr, cond string) string {
	return fmt.Sprintf("COALESCE(SUM(%s) FILTER (WHERE %s), 0)", expr, cond)
}

func (PostgresDialect) CountDistinctIf(expr, cond string) string {
	return fmt.Sprintf("COUNT(DISTINCT %s) FILTER (WHERE %s)", expr, cond)
}

func (PostgresDialect) Trim(expr string) string {
	return fmt.Sprintf("TRIM(%s)", expr)
}

func (PostgresDialect) DateOf(expr string) string {
	return fmt.Sprintf("CAST(%s AS DATE)", expr)
}

func (PostgresDialect) HourOf(expr string) string {
	return fmt.Sprintf("CAST(EXTRACT(HOUR FROM %s) AS SMALLINT)", expr)
}

func (PostgresDialect) IsoDayOfWeek(expr string) string {
	return fmt.Sprintf("CAST(EXTRACT(ISODOW FROM %s) AS SMALLINT)", expr)
}

func (PostgresDialect) MinutesBetween(start, end string) string {
	return fmt.Sprintf("CAST(FLOOR(EXTRACT(EPOCH FROM (%s - %s)) / 60) AS BIGINT)", end, start)
}

func (PostgresDialect) DaysBetween(start, end string) string {
	return fmt.Sprintf("(CAST(%s AS DATE) - CAST(%s AS DATE))", end, start)
}

func (PostgresDialect) Round2(expr string) string {
	return fmt.Sprintf("ROUND(CAST(%s AS NUMERIC), 2)", expr)
}

// ClickHouseDialect renders ClickHouse SQL.
type ClickHouseDialect struct{}

func (ClickHouseDialect) Name() string { return "clickhouse" }

// MergeTree ordered by tuple() sidesteps nullable-key restrictions; derived
// tables are full-scan marts, so the sort key carries no query semantics.
func (ClickHouseDialect) CreateTableAs(table, query string) string {
	return fmt.Sprintf("CREATE TABLE %s ENGINE = MergeTree() ORDER BY tuple() AS\n%s", table, query)
}

func (ClickHouseDialect) DropTable(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", table)
}

func (ClickHouseDialect) CountIf(cond string) string {
	return fmt.Sprintf("countIf(%s)", cond)
}

func (ClickHouseDialect) SumIf(expr, cond string) string {
	return fmt.Sprintf("coalesce(sumIf(%s, %s), 0)", expr, cond)
}

func (ClickHouseDialect) CountDistinctIf(expr, cond string) string {
	return fmt.Sprintf("uniqExactIf(%s, %s)", expr, cond)
}

func (ClickHouseDialect) Trim(expr string) string {
	return fmt.Sprintf("trimBoth(%s)", expr)
}

func (ClickHouseDialect) DateOf(expr string) string {
	return fmt.Sprintf("toDate(%s)", expr)
}

func (ClickHouseDialect) HourOf(expr string) string {
	return fmt.Sprintf("toHour(%s)", expr)
}

func (ClickHouseDialect) IsoDayOfWeek(expr string) string {
	return fmt.Sprintf("toDayOfWeek(%s)", expr)
}

func (ClickHouseDialect) MinutesBetween(start, end string) string {
	return fmt.Sprintf("intDiv(toUnixTimestamp(%s) - toUnixTimestamp(%s), 60)", end, start)
}

func (ClickHouseDialect) DaysBetween(start, end string) string {
	return fmt.Sprintf("dateDiff('day', %s, %s)", start, end)
}

func (ClickHouseDialect) Round2(expr string) string {
	return fmt.Sprintf("round(%s, 2)", expr)
}
