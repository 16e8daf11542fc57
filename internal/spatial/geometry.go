package spatial

import (
	"math"
)

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64
	Lon float64
}

// WeightedCentroid calculates the weighted centroid of a set of points.
// Missing weights count as 1; all-zero weights fall back to the plain mean.
func WeightedCentroid(points []Point, weights []float64) Point {
	if len(points) == 0 {
		return Point{}
	}

	var sumLat, sumLon, sumWeights float64
	for i, p := range points {
		w := weightAt(weights, i)
		sumLat += p.Lat * w
		sumLon += p.Lon * w
		sumWeights += w
	}

	if sumWeights == 0 {
		return WeightedCentroid(points, nil)
	}

	return Point{
		Lat: sumLat / sumWeights,
		Lon: sumLon / sumWeights,
	}
}

// WeightedRadiusOfGyration measures the weighted spread of points around
// their weighted centroid, in meters
func WeightedRadiusOfGyration(points []Point, weights []float64) float64 {
	if len(points) == 0 {
		return 0
	}

	center := WeightedCentroid(points, weights)

	var sumWeightedSquaredDist, sumWeights float64
	for i, p := range points {
		w := weightAt(weights, i)
		dist := HaversineDistance(center.Lat, center.Lon, p.Lat, p.Lon)
		sumWeightedSquaredDist += w * dist * dist
		sumWeights += w
	}

	if sumWeights == 0 {
		return WeightedRadiusOfGyration(points, nil)
	}

	return math.Sqrt(sumWeightedSquaredDist / sumWeights)
}

// CellCenters decodes each geohash to the center of its cell
func CellCenters(hashes []string) []Point {
	points := make([]Point, len(hashes))
	for i, h := range hashes {
		lat, lon := DecodeGeohash(h)
		points[i] = Point{Lat: lat, Lon: lon}
	}
	return points
}

func weightAt(weights []float64, i int) float64 {
	if weights == nil || i >= len(weights) {
		return 1
	}
	return weights[i]
}
