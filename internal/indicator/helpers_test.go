package indicator

import "math"

// approx reports whether a and b agree within eps.
func approx(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

type seg struct {
	to float64
	n  int
}

// seriesFrom builds a price series by linear interpolation between waypoints.
// The series starts at `start` and each segment appends n bars ending at to.
func seriesFrom(start float64, segs ...seg) []float64 {
	out := []float64{start}
	for _, s := range segs {
		from := out[len(out)-1]
		for i := 1; i <= s.n; i++ {
			out = append(out, from+(s.to-from)*float64(i)/float64(s.n))
		}
	}
	return out
}

// shift returns a copy of xs with d added to every element.
func shift(xs []float64, d float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x + d
	}
	return out
}
