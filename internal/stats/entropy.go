// Package stats holds distribution measures used to summarise location profiles.
package stats

import (
	"math"
)

// Sum returns the sum of all values
func Sum(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum
}

// Share returns values[i] as a fraction of the total, or 0 for an empty total
func Share(values []float64, i int) float64 {
	if i < 0 || i >= len(values) {
		return 0
	}
	sum := Sum(values)
	if sum == 0 {
		return 0
	}
	return values[i] / sum
}

// ShannonEntropy calculates the Shannon entropy of a frequency distribution
// values: visit counts or probabilities
// Returns entropy in bits (log base 2)
func ShannonEntropy(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	// Normalize to probabilities
	sum := Sum(values)
	if sum == 0 {
		return 0
	}

	var entropy float64
	for _, v := range values {
		if v > 0 {
			p := v / sum
			entropy -= p * math.Log2(p)
		}
	}

	return entropy
}

// NormalizedEntropy calculates the normalized Shannon entropy (0 to 1)
// Divides by log2(n) where n is the number of categories
func NormalizedEntropy(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}

	entropy := ShannonEntropy(values)
	maxEntropy := math.Log2(float64(len(values)))

	if maxEntropy == 0 {
		return 0
	}

	return entropy / maxEntropy
}
