package indicator

import "testing"

func TestFindPivots(t *testing.T) {
	series := seriesFrom(1, seg{to: 5, n: 4}, seg{to: 1, n: 4}, seg{to: 4, n: 3})

	peaks := FindPivots(series, PivotPeak, 2)
	if len(peaks) != 1 {
		t.Fatalf("peaks = %v, want exactly one", peaks)
	}
	if peaks[0].Index != 4 || peaks[0].Value != 5 || peaks[0].Kind != PivotPeak {
		t.Errorf("peak = %+v, want index 4 value 5", peaks[0])
	}

	valleys := FindPivots(series, PivotValley, 2)
	if len(valleys) != 1 {
		t.Fatalf("valleys = %v, want exactly one", valleys)
	}
	if valleys[0].Index != 8 || valleys[0].Value != 1 {
		t.Errorf("valley = %+v, want index 8 value 1", valleys[0])
	}
}

func TestFindPivotsEqualNeighborsDisqualify(t *testing.T) {
	// A plateau is not a strict extremum.
	series := []float64{1, 2, 3, 3, 3, 2, 1}
	if got := FindPivots(series, PivotPeak, 2); len(got) != 0 {
		t.Errorf("plateau peaks = %v, want none", got)
	}
}

func TestFindPivotsBoundaries(t *testing.T) {
	// Unconfirmed extrema near the edges are never reported.
	series := []float64{9, 1, 2, 3, 2, 1, 9}
	peaks := FindPivots(series, PivotPeak, 2)
	for _, p := range peaks {
		if p.Index < 2 || p.Index > len(series)-3 {
			t.Errorf("pivot at boundary index %d", p.Index)
		}
	}

	if got := FindPivots([]float64{1, 2, 3}, PivotPeak, 5); got != nil {
		t.Errorf("short series pivots = %v, want nil", got)
	}
}
