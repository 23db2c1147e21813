package facerec

import "math"

// EuclideanDistance computes the L2 distance between two face descriptors.
// Descriptors of different length are incomparable and get +Inf, so callers
// can skip them with a plain threshold comparison instead of handling an
// error per record.
func EuclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	return math.Sqrt(sum)
}
