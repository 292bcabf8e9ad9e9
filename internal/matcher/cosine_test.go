package matcher

import (
	"math"
	"testing"
)

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 0.0},
		{"identical scaled", []float32{1, 0}, []float32{5, 0}, 0.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 1.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, 2.0},
		// (1,0) vs (3,4): cos = 3/5, distance = 0.4.
		{"three four five", []float32{1, 0}, []float32{3, 4}, 0.4},
		// (1,0) vs (4,3): cos = 4/5, distance = 0.2.
		{"four three five", []float32{1, 0}, []float32{4, 3}, 0.2},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 2.0},
		{"empty", nil, nil, 2.0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 2.0},
		{"NaN component", []float32{float32(math.NaN()), 0}, []float32{1, 0}, 2.0},
		{"Inf component", []float32{float32(math.Inf(1)), 0}, []float32{1, 0}, 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineDistance(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("CosineDistance() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCosineDistanceSymmetric(t *testing.T) {
	a := []float32{0.3, -0.7, 0.2, 0.9}
	b := []float32{-0.1, 0.4, 0.8, -0.2}
	if CosineDistance(a, b) != CosineDistance(b, a) {
		t.Error("CosineDistance is not symmetric")
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		expected float64
	}{
		{"identical", 0.0, 1.0},
		{"orthogonal", 1.0, 0.5},
		{"opposite", 2.0, 0.0},
		{"typical match", 0.4, 0.8},
		{"clamped below", 2.5, 0.0},
		{"clamped above", -0.5, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Confidence(tt.distance)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Confidence(%v) = %v, want %v", tt.distance, got, tt.expected)
			}
		})
	}
}
