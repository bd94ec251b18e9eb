package indicator

// PivotKind distinguishes local maxima from local minima.
type PivotKind string

const (
	PivotPeak   PivotKind = "peak"
	PivotValley PivotKind = "valley"
)

// Pivot is a local extremum in a numeric series (price or indicator).
type Pivot struct {
	Index int       `json:"index"`
	Value float64   `json:"value"`
	Kind  PivotKind `json:"kind"`
}

// FindPivots locates local extrema using a symmetric lookback window.
//
// Index i is a peak iff series[i] is strictly greater than every other value
// in [i-lookback, i+lookback]; a valley is the strict-minimum mirror. Equal
// neighbors disqualify a pivot. No pivot is reported within lookback bars of
// either boundary, so every returned pivot is fully confirmed.
func FindPivots(series []float64, kind PivotKind, lookback int) []Pivot {
	if lookback <= 0 || len(series) < 2*lookback+1 {
		return nil
	}

	var pivots []Pivot
	for i := lookback; i < len(series)-lookback; i++ {
		v := series[i]
		ok := true
		for j := i - lookback; j <= i+lookback; j++ {
			if j == i {
				continue
			}
			if kind == PivotPeak && series[j] >= v {
				ok = false
				break
			}
			if kind == PivotValley && series[j] <= v {
				ok = false
				break
			}
		}
		if ok {
			pivots = append(pivots, Pivot{Index: i, Value: v, Kind: kind})
		}
	}
	return pivots
}
