package rawevents

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestMapColumns(t *testing.T) {
	tests := []struct {
		name      string
		header    []string
		wantError bool
	}{
		{
			name: "standard export header",
			header: []string{"event_time", "event_type", "product_id", "category_id",
				"category_code", "brand", "price", "user_id", "user_session"},
			wantError: false,
		},
		{
			name: "reordered with extra columns",
			header: []string{"user_id", "extra", "event_time", "event_type", "product_id",
				"category_id", "category_code", "brand", "price", "user_session"},
			wantError: false,
		},
		{
			name: "mixed case and whitespace",
			header: []string{" Event_Time ", "EVENT_TYPE", "product_id", "category_id",
				"category_code", "brand", "price", "user_id", "user_session"},
			wantError: false,
		},
		{
			name: "missing user_session",
			header: []string{"event_time", "event_type", "product_id", "category_id",
				"category_code", "brand", "price", "user_id"},
			wantError: true,
		},
		{
			name:      "empty header",
			header:    []string{},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mapColumns(tt.header)
			if tt.wantError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestParseRecord(t *testing.T) {
	cols, err := mapColumns([]string{"event_time", "event_type", "product_id",
		"category_id", "category_code", "brand", "price", "user_id", "user_session"})
	if err != nil {
		t.Fatalf("mapColumns failed: %v", err)
	}

	record := []string{
		"2019-10-01 00:00:00 UTC", "view", "44600062", "2103807459595387724",
		"electronics.smartphone", "samsung", "489.07", "541312140",
		"72d76fde-8bb3-4e00-8c23-a032dfed738c",
	}
	row := parseRecord(record, cols)

	if len(row) != len(Columns) {
		t.Fatalf("Expected %d values, got %d", len(Columns), len(row))
	}

	ts, ok := row[0].(time.Time)
	if !ok {
		t.Fatalf("event_time not parsed as time: %T", row[0])
	}
	want := time.Date(2019, 10, 1, 0, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("event_time = %v, want %v", ts, want)
	}

	if row[1] != "view" {
		t.Errorf("event_type = %v", row[1])
	}
	if row[2] != int64(44600062) {
		t.Errorf("product_id = %v", row[2])
	}
	if row[6] != 489.07 {
		t.Errorf("price = %v", row[6])
	}
	if row[8] != "72d76fde-8bb3-4e00-8c23-a032dfed738c" {
		t.Errorf("user_session = %v", row[8])
	}
}

func TestParseRecordNulls(t *testing.T) {
	cols, err := mapColumns([]string{"event_time", "event_type", "product_id",
		"category_id", "category_code", "brand", "price", "user_id", "user_session"})
	if err != nil {
		t.Fatalf("mapColumns failed: %v", err)
	}

	// Empty and malformed fields load as NULL, never as errors
	record := []string{"not-a-time", "view", "abc", "", "", "", "free", "12", "s1"}
	row := parseRecord(record, cols)

	if row[0] != nil {
		t.Errorf("malformed event_time should be nil, got %v", row[0])
	}
	if row[2] != nil {
		t.Errorf("malformed product_id should be nil, got %v", row[2])
	}
	if row[3] != nil {
		t.Errorf("empty category_id should be nil, got %v", row[3])
	}
	if row[4] != nil {
		t.Errorf("empty category_code should be nil, got %v", row[4])
	}
	if row[5] != nil {
		t.Errorf("empty brand should be nil, got %v", row[5])
	}
	if row[6] != nil {
		t.Errorf("malformed price should be nil, got %v", row[6])
	}
	if row[7] != int64(12) {
		t.Errorf("user_id = %v", row[7])
	}
}

func TestParseTimeLayouts(t *testing.T) {
	tests := []struct {
		in     string
		parsed bool
	}{
		{"2019-10-01 00:00:00 UTC", true},
		{"2019-10-01 12:34:56", true},
		{"2019-10-01T00:00:00Z", true},
		{"2019-10-01", false},
		{"", false},
	}

	for _, tt := range tests {
		got := parseTime(tt.in)
		if tt.parsed && got == nil {
			t.Errorf("parseTime(%q) = nil, expected a timestamp", tt.in)
		}
		if !tt.parsed && got != nil {
			t.Errorf("parseTime(%q) = %v, expected nil", tt.in, got)
		}
	}
}

func TestLoaderBatching(t *testing.T) {
	eng := newFakeEngine()
	loader := NewLoader(eng, 2)

	csvData := strings.Join([]string{
		"event_time,event_type,product_id,category_id,category_code,brand,price,user_id,user_session",
		"2019-10-01 00:00:00 UTC,view,1,10,electronics.audio,sony,19.99,100,s1",
		"2019-10-01 00:00:05 UTC,view,2,10,electronics.audio,sony,29.99,100,s1",
		"2019-10-01 00:01:00 UTC,cart,1,10,electronics.audio,sony,19.99,100,s1",
		"2019-10-01 00:02:00 UTC,purchase,1,10,electronics.audio,sony,19.99,100,s1",
		"2019-10-01 00:05:00 UTC,view,3,11,,,,,",
	}, "\n")

	total, err := loader.Load(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if total != 5 {
		t.Errorf("Expected 5 rows loaded, got %d", total)
	}

	// Batch size 2 over 5 rows: 2 + 2 + 1
	if len(eng.batches) != 3 {
		t.Fatalf("Expected 3 batches, got %d", len(eng.batches))
	}
	if len(eng.batches[0]) != 2 || len(eng.batches[1]) != 2 || len(eng.batches[2]) != 1 {
		t.Errorf("Unexpected batch sizes: %d, %d, %d",
			len(eng.batches[0]), len(eng.batches[1]), len(eng.batches[2]))
	}

	// Trailing empty fields of the last row load as NULL
	last := eng.batches[2][0]
	if last[5] != nil || last[6] != nil || last[7] != nil || last[8] != nil {
		t.Errorf("Expected trailing NULLs, got %v", last)
	}
}

func TestLoaderMissingColumn(t *testing.T) {
	eng := newFakeEngine()
	loader := NewLoader(eng, 10)

	csvData := "event_time,event_type\n2019-10-01 00:00:00 UTC,view\n"
	if _, err := loader.Load(context.Background(), strings.NewReader(csvData)); err == nil {
		t.Error("Expected error for missing columns")
	}
}
