package vector

import (
	"fmt"
	"math"

	"github.com/hyperjump/mitsumori/internal/models"
)

// EuclideanDistance returns the L2 distance between a and b.
func EuclideanDistance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: vectors have %d and %d elements", models.ErrDimensionMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Similarity converts a distance into the score reported to callers.
func Similarity(distance float64) float64 {
	return 1 - distance
}
