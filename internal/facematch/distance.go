package facematch

import "math"

// Distance computes the Euclidean distance between two descriptors.
// Absent or differently sized vectors cannot be compared and are reported as
// +Inf, which never matches. Squared differences are accumulated in float64 and
// the square root is taken once.
func Distance(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}

	d := math.Sqrt(sum)
	if math.IsNaN(d) {
		// NaN components in a stored vector
		return math.Inf(1)
	}
	return d
}
