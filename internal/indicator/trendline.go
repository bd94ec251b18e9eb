package indicator

import (
	"gonum.org/v1/gonum/stat"
)

// Trendline is a least-squares fit over a pivot sequence. X coordinates are
// bar indices, so two trendlines fitted over the same window can be
// intersected directly.
type Trendline struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
	Start     int     `json:"start"` // bar index of the first fitted pivot
	End       int     `json:"end"`   // bar index of the last fitted pivot
}

// FitTrendline fits an ordinary least-squares line through the pivots.
// At least two pivots are required.
func FitTrendline(pivots []Pivot) (Trendline, error) {
	if len(pivots) < 2 {
		return Trendline{}, &InsufficientDataError{Indicator: "trendline", Need: 2, Got: len(pivots)}
	}

	xs := make([]float64, len(pivots))
	ys := make([]float64, len(pivots))
	for i, p := range pivots {
		xs[i] = float64(p.Index)
		ys[i] = p.Value
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)

	est := make([]float64, len(xs))
	for i, x := range xs {
		est[i] = intercept + slope*x
	}
	r2 := stat.RSquaredFrom(est, ys, nil)

	return Trendline{
		Slope:     slope,
		Intercept: intercept,
		R2:        r2,
		Start:     pivots[0].Index,
		End:       pivots[len(pivots)-1].Index,
	}, nil
}

// ValueAt evaluates the trendline at bar index x.
func (t Trendline) ValueAt(x int) float64 {
	return t.Intercept + t.Slope*float64(x)
}

// Intersection solves for the bar coordinate where two trendlines meet.
// ok is false for (near-)parallel lines.
func (t Trendline) Intersection(other Trendline) (x float64, ok bool) {
	d := t.Slope - other.Slope
	if d > -1e-12 && d < 1e-12 {
		return 0, false
	}
	return (other.Intercept - t.Intercept) / d, true
}
