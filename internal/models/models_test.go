package models

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
)

func TestPeriodBounds(t *testing.T) {
	start, end := Period{Start: 20240101, End: 20240103}.Bounds()
	if start != 20240101000000 {
		t.Errorf("start = %d, want 20240101000000", start)
	}
	if end != 20240103240000 {
		t.Errorf("end = %d, want 20240103240000", end)
	}
}

func TestPeriodValidate(t *testing.T) {
	tests := []struct {
		name    string
		period  Period
		wantErr bool
	}{
		{"single day", SingleDay(20240101), false},
		{"range", Period{Start: 20240101, End: 20240131}, false},
		{"reversed", Period{Start: 20240102, End: 20240101}, true},
		{"short start", Period{Start: 240101, End: 20240101}, true},
		{"long end", Period{Start: 20240101, End: 202401011}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.period.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidPeriod) {
				t.Errorf("error %v does not wrap ErrInvalidPeriod", err)
			}
		})
	}
}

func TestGeohashCountJSONPair(t *testing.T) {
	data, err := json.Marshal([]GeohashCount{{Hash: "w21z7q", Count: 3}})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `[["w21z7q",3]]` {
		t.Errorf("Marshal = %s", data)
	}

	var back []GeohashCount
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if len(back) != 1 || back[0].Hash != "w21z7q" || back[0].Count != 3 {
		t.Errorf("Unmarshal = %+v", back)
	}

	var bad GeohashCount
	if err := json.Unmarshal([]byte(`["w21z7q"]`), &bad); err == nil {
		t.Error("expected error for one-element pair")
	}
}

func TestTotalCount(t *testing.T) {
	if got := TotalCount([]GeohashCount{{"a", 2}, {"b", 5}}); got != 7 {
		t.Errorf("TotalCount = %d, want 7", got)
	}
	if got := TotalCount(nil); got != 0 {
		t.Errorf("TotalCount(nil) = %d", got)
	}
}
