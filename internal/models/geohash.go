package models

import (
	"fmt"

	"github.com/goccy/go-json"
)

// NoneHash marks a stay-point bucket with no points
const NoneHash = "none"

// GeohashCount is one geohash cell and how many points fell into it.
// It encodes as the pair ["wsq3f6", 4].
type GeohashCount struct {
	Hash  string
	Count int
}

// MarshalJSON encodes the count as a two-element array
func (g GeohashCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{g.Hash, g.Count})
}

// UnmarshalJSON decodes the two-element array form
func (g *GeohashCount) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("geohash count: want 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &g.Hash); err != nil {
		return fmt.Errorf("geohash count hash: %w", err)
	}
	if err := json.Unmarshal(pair[1], &g.Count); err != nil {
		return fmt.Errorf("geohash count value: %w", err)
	}
	return nil
}

// LocationDict maps each subscriber to its geohash counts for one sampling date
type LocationDict map[string][]GeohashCount

// DatedLocationDict is a LocationDict tagged with its sampling date
type DatedLocationDict struct {
	Date        int          `json:"date"`
	Subscribers LocationDict `json:"subscribers"`
}

// TotalCount sums the counts of a list
func TotalCount(counts []GeohashCount) int {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	return total
}

// GeohashBounds is the bounding box of a geohash cell
type GeohashBounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// GeohashInfo describes a geohash cell
type GeohashInfo struct {
	Hash           string        `json:"geohash"`
	Precision      int           `json:"precision"`
	Center         LatLon        `json:"center"`
	Bounds         GeohashBounds `json:"bounds"`
	Neighbors      []string      `json:"neighbors"`
	CellSizeMeters float64       `json:"cell_size_m"`
}

// PipelineSettings are the effective encoding precision and default hour sets
type PipelineSettings struct {
	Source           string   `json:"source"`
	GeohashPrecision int      `json:"geohash_precision"`
	DayHours         []string `json:"day_hours"`
	NightHours       []string `json:"night_hours"`
}
