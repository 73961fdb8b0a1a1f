package rawevents

import (
	"context"
	"fmt"

	"github.com/clickmart/clickmart/internal/db"
)

// fakeEngine captures batch inserts for loader and seeder tests.
type fakeEngine struct {
	execs   []string
	batches [][][]any
	columns []string
	table   string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{}
}

func (e *fakeEngine) Name() string        { return "fake" }
func (e *fakeEngine) Dialect() db.Dialect { return db.PostgresDialect{} }

func (e *fakeEngine) Exec(ctx context.Context, sql string, args ...any) error {
	e.execs = append(e.execs, sql)
	return nil
}

func (e *fakeEngine) Query(ctx context.Context, sql string, args ...any) (db.Rows, error) {
	return nil, fmt.Errorf("not implemented")
}

func (e *fakeEngine) QueryRow(ctx context.Context, sql string, args ...any) db.Row {
	return errRow{}
}

func (e *fakeEngine) BatchInsert(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	e.table = table
	e.columns = columns
	copied := make([][]any, len(rows))
	for i, row := range rows {
		copied[i] = append([]any(nil), row...)
	}
	e.batches = append(e.batches, copied)
	return int64(len(rows)), nil
}

func (e *fakeEngine) TableExists(ctx context.Context, table string) (bool, error) {
	return true, nil
}

func (e *fakeEngine) SwapTable(ctx context.Context, staging, target string) error {
	return nil
}

func (e *fakeEngine) Close() {}

func (e *fakeEngine) allRows() [][]any {
	var all [][]any
	for _, b := range e.batches {
		all = append(all, b...)
	}
	return all
}

type errRow struct{}

func (errRow) Scan(dest ...any) error { return fmt.Errorf("not implemented") }
