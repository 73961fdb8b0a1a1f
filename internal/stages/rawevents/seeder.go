//-------------------------------------------------------------------------
//
// clickmart - clickstream analytics pipeline
//
// Copyright (c) 2025 - 2026, the clickmart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package rawevents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clickmart/clickmart/internal/datagen"
	"github.com/clickmart/clickmart/internal/db"
	"github.com/clickmart/clickmart/internal/logging"
)

// Category codes mirror the dotted taxonomy of real clickstream exports.
var categoryCodes = []string{
	"electronics.smartphone",
	"electronics.audio.headphone",
	"electronics.video.tv",
	"electronics.clocks",
	"computers.notebook",
	"computers.desktop",
	"computers.peripherals.mouse",
	"appliances.kitchen.refrigerators",
	"appliances.kitchen.washer",
	"appliances.environment.vacuum",
	"apparel.shoes",
	"apparel.shirt",
	"furniture.bedroom.bed",
	"furniture.living_room.sofa",
	"kids.toys",
	"sport.bicycle",
	"auto.accessories.player",
	"construction.tools.drill",
}

// Event type noise exercises the cleaning stage's case-fold and trim.
var eventTypeForms = []string{"view", "view", "view", "View", " view ", "VIEW"}

// SeederConfig controls synthetic event generation.
type SeederConfig struct {
	Events    int
	Users     int
	Products  int
	Days      int
	DirtyRate float64
	Seed      uint64
	BatchSize int
}

type product struct {
	id           int64
	categoryID   int64
	categoryCode string
	brand        string
	price        float64
}

// Seeder writes synthetic funnel-shaped clickstream events into raw_events.
// A configurable fraction of rows carries deliberate defects (missing key
// fields, blank brand/category, non-positive prices) so the cleaning stage
// and quality audit operate on realistic input.
type Seeder struct {
	eng     db.Engine
	faker   *datagen.Faker
	cfg     SeederConfig
	catalog []product
}

// NewSeeder creates a seeder; a zero cfg.Seed uses a time-based seed.
func NewSeeder(eng db.Engine, cfg SeederConfig) *Seeder {
	var faker *datagen.Faker
	if cfg.Seed != 0 {
		faker = datagen.NewFakerWithSeed(cfg.Seed)
	} else {
		faker = datagen.NewFaker()
	}
	s := &Seeder{eng: eng, faker: faker, cfg: cfg}
	s.buildCatalog()
	return s
}

func (s *Seeder) buildCatalog() {
	brands := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		name := strings.ToLower(s.faker.Company())
		name = strings.ReplaceAll(strings.ReplaceAll(name, " ", ""), "'", "")
		brands = append(brands, name)
	}

	s.catalog = make([]product, s.cfg.Products)
	for i := range s.catalog {
		code := datagen.Choose(s.faker, categoryCodes)
		s.catalog[i] = product{
			id:           int64(1000000 + i),
			categoryID:   categoryID(code),
			categoryCode: code,
			brand:        datagen.Choose(s.faker, brands),
			price:        s.faker.Price(5, 2500),
		}
	}
}

// categoryID derives a stable numeric id from a category code.
func categoryID(code string) int64 {
	var h int64
	for _, c := range code {
		h = (h*31 + int64(c)) % 1000000007
	}
	return 2000000000 + h
}

// Seed generates approximately cfg.Events rows and returns the exact count
// inserted.
func (s *Seeder) Seed(ctx context.Context) (int64, error) {
	logging.Info().
		Int("events", s.cfg.Events).
		Int("users", s.cfg.Users).
		Int("products", s.cfg.Products).
		Float64("dirty_rate", s.cfg.DirtyRate).
		Msg("Seeding synthetic clickstream")

	end := time.Now().UTC().Truncate(time.Hour)
	start := end.AddDate(0, 0, -s.cfg.Days)

	var total int64
	batch := make([][]any, 0, s.cfg.BatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.eng.BatchInsert(ctx, TableName, Columns, batch)
		if err != nil {
			return fmt.Errorf("failed to insert seed batch: %w", err)
		}
		total += n
		batch = batch[:0]
		return nil
	}

	for total+int64(len(batch)) < int64(s.cfg.Events) {
		for _, row := range s.session(start, end) {
			batch = append(batch, row)
		}
		if len(batch) >= s.cfg.BatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}

	logging.Info().Int64("rows", total).Msg("Seed complete")
	return total, nil
}

// session emits one user session: a run of views with optional cart, remove
// and purchase events, timestamps strictly increasing.
func (s *Seeder) session(start, end time.Time) [][]any {
	userID := int64(100000 + s.faker.Int(0, s.cfg.Users-1))
	sessionID := s.faker.UUID()
	at := s.faker.DateRange(start, end)

	var rows [][]any
	emit := func(eventType string, p product) {
		rows = append(rows, s.row(at, eventType, p, userID, sessionID))
		at = at.Add(time.Duration(s.faker.Int(20, 240)) * time.Second)
	}

	views := s.faker.Int(1, 8)
	var last product
	for i := 0; i < views; i++ {
		last = datagen.Choose(s.faker, s.catalog)
		emit(datagen.Choose(s.faker, eventTypeForms), last)
	}

	if s.faker.Chance(0.35) {
		emit("cart", last)
		if s.faker.Chance(0.20) {
			emit("remove_from_cart", last)
		}
		if s.faker.Chance(0.45) {
			emit("purchase", last)
		}
	}
	return rows
}

func (s *Seeder) row(at time.Time, eventType string, p product, userID int64, sessionID string) []any {
	row := []any{
		at,
		eventType,
		p.id,
		p.categoryID,
		p.categoryCode,
		p.brand,
		p.price,
		userID,
		sessionID,
	}

	if !s.faker.Chance(s.cfg.DirtyRate) {
		return row
	}

	// One defect per dirty row. Missing key fields make the cleaning stage
	// drop the row; the rest exercise normalization and flagging.
	switch s.faker.Int(1, 8) {
	case 1:
		row[5] = nil // brand
	case 2:
		row[4] = nil // category_code
	case 3:
		row[4] = "  " // blank-after-trim category
	case 4:
		row[6] = -p.price // negative price
	case 5:
		row[6] = 0.0 // zero price
	case 6:
		row[0] = nil // event_time: row will be dropped
	case 7:
		row[8] = nil // user_session: row will be dropped
	case 8:
		row[1] = nil // event_type: row will be dropped
	}
	return row
}
