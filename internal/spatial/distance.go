package spatial

import (
	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is Earth's mean radius
const EarthRadiusMeters = 6371000.0

// HaversineDistance calculates the great-circle distance between two points in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// GeohashDistance returns the distance in meters between the centers of two cells
func GeohashDistance(a, b string) float64 {
	lat1, lon1 := DecodeGeohash(a)
	lat2, lon2 := DecodeGeohash(b)
	return HaversineDistance(lat1, lon1, lat2, lon2)
}
