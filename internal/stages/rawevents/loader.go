package rawevents

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/clickmart/clickmart/internal/db"
	"github.com/clickmart/clickmart/internal/logging"
)

// Timestamp layouts accepted by the loader, tried in order. The first form
// matches the usual clickstream CSV exports ("2019-10-01 00:00:00 UTC").
var timeLayouts = []string{
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Loader streams a CSV export into raw_events.
type Loader struct {
	eng       db.Engine
	batchSize int

	progressInterval int64
}

// NewLoader creates a CSV loader.
func NewLoader(eng db.Engine, batchSize int) *Loader {
	return &Loader{
		eng:              eng,
		batchSize:        batchSize,
		progressInterval: 1000000,
	}
}

// LoadFile ingests a CSV file and returns the number of rows inserted.
// Rows with unparseable fields are still loaded, with those fields as NULL;
// rejecting rows is the cleaning stage's job, not the loader's.
func (l *Loader) LoadFile(ctx context.Context, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	logging.Info().Str("file", path).Msg("Loading raw events")
	return l.Load(ctx, f)
}

// Load ingests CSV data from a reader.
func (l *Loader) Load(ctx context.Context, r io.Reader) (int64, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return 0, err
	}

	var total int64
	batch := make([][]any, 0, l.batchSize)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("failed to read CSV record: %w", err)
		}

		batch = append(batch, parseRecord(record, cols))

		if len(batch) >= l.batchSize {
			n, err := l.eng.BatchInsert(ctx, TableName, Columns, batch)
			if err != nil {
				return total, err
			}
			total += n
			batch = batch[:0]

			if total%l.progressInterval < int64(l.batchSize) {
				logging.Info().Int64("rows", total).Msg("Loading raw events")
			}
		}
	}

	if len(batch) > 0 {
		n, err := l.eng.BatchInsert(ctx, TableName, Columns, batch)
		if err != nil {
			return total, err
		}
		total += n
	}

	logging.Info().Int64("rows", total).Msg("Raw events loaded")
	return total, nil
}

// mapColumns resolves the CSV header into indexes for the bronze columns.
// Extra columns are ignored; all nine bronze columns must be present.
func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(Columns))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range Columns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("CSV is missing required column %q", name)
		}
	}
	return cols, nil
}

// parseRecord converts one CSV record into bronze column order. Empty and
// unparseable fields become NULL.
func parseRecord(record []string, cols map[string]int) []any {
	field := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return record[i]
	}

	return []any{
		parseTime(field("event_time")),
		parseText(field("event_type")),
		parseInt(field("product_id")),
		parseInt(field("category_id")),
		parseText(field("category_code")),
		parseText(field("brand")),
		parseFloat(field("price")),
		parseInt(field("user_id")),
		parseText(field("user_session")),
	}
}

func parseText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseInt(s string) any {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	return v
}

func parseFloat(s string) any {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return v
}

func parseTime(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return nil
}
