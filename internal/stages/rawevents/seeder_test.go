package rawevents

import (
	"context"
	"testing"
	"time"
)

func testSeederConfig() SeederConfig {
	return SeederConfig{
		Events:    2000,
		Users:     50,
		Products:  20,
		Days:      7,
		DirtyRate: 0.1,
		Seed:      42,
		BatchSize: 500,
	}
}

func TestCategoryID(t *testing.T) {
	a := categoryID("electronics.smartphone")
	b := categoryID("electronics.smartphone")
	if a != b {
		t.Errorf("categoryID not stable: %d != %d", a, b)
	}
	if a < 2000000000 {
		t.Errorf("categoryID %d below id range", a)
	}
	if a == categoryID("apparel.shoes") {
		t.Error("distinct codes mapped to the same id")
	}
}

func TestSeederCatalog(t *testing.T) {
	s := NewSeeder(newFakeEngine(), testSeederConfig())

	if len(s.catalog) != 20 {
		t.Fatalf("Expected 20 products, got %d", len(s.catalog))
	}
	seen := make(map[int64]bool)
	for _, p := range s.catalog {
		if seen[p.id] {
			t.Errorf("Duplicate product id %d", p.id)
		}
		seen[p.id] = true

		if p.price < 5 || p.price > 2500 {
			t.Errorf("Product price %f out of range", p.price)
		}
		if p.brand == "" {
			t.Error("Product has empty brand")
		}
		if p.categoryID != categoryID(p.categoryCode) {
			t.Errorf("category_id %d inconsistent with code %q", p.categoryID, p.categoryCode)
		}
	}
}

func TestSeederRowCount(t *testing.T) {
	eng := newFakeEngine()
	cfg := testSeederConfig()

	total, err := NewSeeder(eng, cfg).Seed(context.Background())
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	if total < int64(cfg.Events) {
		t.Errorf("Expected at least %d events, got %d", cfg.Events, total)
	}
	// Sessions cap at 11 events, so overshoot stays small
	if total > int64(cfg.Events)+20 {
		t.Errorf("Seeded far past target: %d events for target %d", total, cfg.Events)
	}

	if eng.table != TableName {
		t.Errorf("Seeded into %q, expected %q", eng.table, TableName)
	}
	if len(eng.columns) != len(Columns) {
		t.Errorf("Expected %d columns, got %d", len(Columns), len(eng.columns))
	}
}

func TestSeederDeterminism(t *testing.T) {
	cfg := testSeederConfig()

	eng1 := newFakeEngine()
	if _, err := NewSeeder(eng1, cfg).Seed(context.Background()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	eng2 := newFakeEngine()
	if _, err := NewSeeder(eng2, cfg).Seed(context.Background()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	rows1 := eng1.allRows()
	rows2 := eng2.allRows()
	if len(rows1) != len(rows2) {
		t.Fatalf("Row counts differ: %d != %d", len(rows1), len(rows2))
	}

	for i := range rows1 {
		for j := range rows1[i] {
			v1, v2 := rows1[i][j], rows2[i][j]
			if t1, ok := v1.(time.Time); ok {
				t2, ok := v2.(time.Time)
				if !ok || !t1.Equal(t2) {
					t.Fatalf("Row %d column %d differs: %v != %v", i, j, v1, v2)
				}
				continue
			}
			if v1 != v2 {
				t.Fatalf("Row %d column %d differs: %v != %v", i, j, v1, v2)
			}
		}
	}
}

func TestSeederCleanRows(t *testing.T) {
	eng := newFakeEngine()
	cfg := testSeederConfig()
	cfg.DirtyRate = 0

	if _, err := NewSeeder(eng, cfg).Seed(context.Background()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	for _, row := range eng.allRows() {
		at, ok := row[0].(time.Time)
		if !ok {
			t.Fatal("Clean row with missing event_time")
		}
		if at.IsZero() {
			t.Fatal("Clean row with zero event_time")
		}
		if row[1] == nil || row[8] == nil {
			t.Fatal("Clean row with missing event_type or user_session")
		}
		if price, ok := row[6].(float64); !ok || price <= 0 {
			t.Fatalf("Clean row with non-positive price: %v", row[6])
		}
	}
}

func TestSeederDirtyRows(t *testing.T) {
	eng := newFakeEngine()
	cfg := testSeederConfig()
	cfg.Events = 5000
	cfg.DirtyRate = 0.5

	if _, err := NewSeeder(eng, cfg).Seed(context.Background()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	dirty := 0
	rows := eng.allRows()
	for _, row := range rows {
		if isDirtyRow(row) {
			dirty++
		}
	}
	if dirty == 0 {
		t.Fatal("DirtyRate 0.5 produced no dirty rows")
	}
	// Roughly half the rows carry a defect; wide bounds absorb randomness
	rate := float64(dirty) / float64(len(rows))
	if rate < 0.3 || rate > 0.7 {
		t.Errorf("Dirty rate %.2f far from configured 0.5", rate)
	}
}

func isDirtyRow(row []any) bool {
	if row[0] == nil || row[1] == nil || row[8] == nil {
		return true
	}
	if row[4] == nil || row[4] == "  " || row[5] == nil {
		return true
	}
	if price, ok := row[6].(float64); ok && price <= 0 {
		return true
	}
	return false
}
