package spatial

import (
	"fmt"

	"github.com/mmcloughlin/geohash"
)

// EncodeGeohash encodes latitude and longitude into a geohash string
// precision: number of characters in the geohash (1-12)
func EncodeGeohash(lat, lon float64, precision int) string {
	if precision < 1 {
		precision = 1
	}
	if precision > 12 {
		precision = 12
	}
	return geohash.EncodeWithPrecision(lat, lon, uint(precision))
}

// DecodeGeohash decodes a geohash string into the center of its cell
func DecodeGeohash(hash string) (lat, lon float64) {
	return geohash.DecodeCenter(hash)
}

// GeohashBounds returns the bounding box of a geohash cell
// Returns (minLat, minLon, maxLat, maxLon)
func GeohashBounds(hash string) (float64, float64, float64, float64) {
	box := geohash.BoundingBox(hash)
	return box.MinLat, box.MinLng, box.MaxLat, box.MaxLng
}

// GeohashNeighbors returns the 8 neighboring geohash cells
func GeohashNeighbors(hash string) []string {
	return geohash.Neighbors(hash)
}

// ValidateGeohash reports whether hash is a well-formed geohash of 1-12 characters
func ValidateGeohash(hash string) error {
	if len(hash) == 0 || len(hash) > 12 {
		return fmt.Errorf("geohash %q: length must be 1-12", hash)
	}
	return geohash.Validate(hash)
}

// GeohashCellSize returns the approximate cell size in meters for a given precision
func GeohashCellSize(precision int) float64 {
	// Approximate cell sizes at equator
	sizes := map[int]float64{
		1:  5000000, // ±2500 km
		2:  625000,  // ±312.5 km
		3:  123000,  // ±61.5 km
		4:  19500,   // ±9.75 km
		5:  3900,    // ±1.95 km
		6:  610,     // ±305 m
		7:  120,     // ±60 m
		8:  19,      // ±9.5 m
		9:  3.7,     // ±1.85 m
		10: 0.6,     // ±30 cm
		11: 0.12,    // ±6 cm
		12: 0.019,   // ±0.95 cm
	}

	if size, ok := sizes[precision]; ok {
		return size
	}
	return 0
}
