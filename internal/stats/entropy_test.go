package stats

import (
	"math"
	"testing"
)

func TestShannonEntropy(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"all zero", []float64{0, 0}, 0},
		{"single cell", []float64{7}, 0},
		{"two equal", []float64{3, 3}, 1},
		{"four equal", []float64{1, 1, 1, 1}, 2},
		{"skewed", []float64{3, 1}, 0.8112781244591328},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShannonEntropy(tt.values); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ShannonEntropy(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestNormalizedEntropy(t *testing.T) {
	if got := NormalizedEntropy([]float64{5}); got != 0 {
		t.Errorf("single category = %v, want 0", got)
	}
	if got := NormalizedEntropy([]float64{2, 2, 2}); math.Abs(got-1) > 1e-9 {
		t.Errorf("uniform = %v, want 1", got)
	}
	if got := NormalizedEntropy([]float64{9, 1}); got <= 0 || got >= 1 {
		t.Errorf("skewed = %v, want in (0,1)", got)
	}
}

func TestShare(t *testing.T) {
	values := []float64{3, 1}
	if got := Share(values, 0); got != 0.75 {
		t.Errorf("Share(0) = %v", got)
	}
	if got := Share(values, 5); got != 0 {
		t.Errorf("out of range = %v", got)
	}
	if got := Share([]float64{0}, 0); got != 0 {
		t.Errorf("zero total = %v", got)
	}
}
