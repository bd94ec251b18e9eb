package indicator

import (
	"math"
	"sort"
)

// fibSwingWindow bounds how far back the swing search looks.
const fibSwingWindow = 100

// fibSwingLookback is the pivot confirmation window for swing detection.
const fibSwingLookback = 3

// Golden pocket: the 0.618-0.66 retracement band.
const (
	goldenPocketLow  = 0.618
	goldenPocketHigh = 0.66
)

var (
	fibRetracements = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1}
	fibExtensions   = []float64{1.272, 1.414, 1.618, 2.618, 4.236}
)

// FibLevel is a single Fibonacci retracement or extension price level.
type FibLevel struct {
	Ratio        float64 `json:"ratio"`
	Price        float64 `json:"price"`
	Extension    bool    `json:"extension"`
	GoldenPocket bool    `json:"golden_pocket"`
	Distance     float64 `json:"distance"` // |price - current| / current * 100
}

// FibResult describes the detected swing and its projected levels,
// sorted by distance to the current price (nearest first).
type FibResult struct {
	SwingHigh      float64    `json:"swing_high"`
	SwingLow       float64    `json:"swing_low"`
	SwingHighIndex int        `json:"swing_high_index"`
	SwingLowIndex  int        `json:"swing_low_index"`
	Uptrend        bool       `json:"uptrend"` // swing low formed before swing high
	Levels         []FibLevel `json:"levels"`
}

// ComputeFibonacci locates the most recent significant swing (the last
// confirmed peak/valley pair within the trailing ~100 bars) and projects
// retracement and extension levels from it.
//
// In an uptrend (low before high) retracements descend from the swing high
// and extensions project above it; a downtrend mirrors both.
func ComputeFibonacci(closes, highs, lows []float64) (*FibResult, error) {
	minBars := 2*fibSwingLookback + 2
	if len(closes) < minBars || len(highs) != len(closes) || len(lows) != len(closes) {
		return nil, &InsufficientDataError{Indicator: "fibonacci", Need: minBars, Got: len(closes)}
	}

	offset := 0
	if len(closes) > fibSwingWindow {
		offset = len(closes) - fibSwingWindow
	}

	peaks := FindPivots(highs[offset:], PivotPeak, fibSwingLookback)
	valleys := FindPivots(lows[offset:], PivotValley, fibSwingLookback)
	if len(peaks) == 0 || len(valleys) == 0 {
		return nil, &CalculationError{Op: "fibonacci", Msg: "no confirmed swing in window"}
	}

	peak := peaks[len(peaks)-1]
	valley := valleys[len(valleys)-1]

	res := &FibResult{
		SwingHigh:      peak.Value,
		SwingLow:       valley.Value,
		SwingHighIndex: peak.Index + offset,
		SwingLowIndex:  valley.Index + offset,
		Uptrend:        valley.Index < peak.Index,
	}

	swing := peak.Value - valley.Value
	if swing <= 0 {
		return nil, &CalculationError{Op: "fibonacci", Msg: "degenerate swing: high <= low"}
	}

	current := closes[len(closes)-1]
	for _, r := range fibRetracements {
		res.Levels = append(res.Levels, fibLevel(r, swing, res, current, false))
	}
	for _, r := range fibExtensions {
		res.Levels = append(res.Levels, fibLevel(r, swing, res, current, true))
	}

	sort.Slice(res.Levels, func(i, j int) bool {
		return res.Levels[i].Distance < res.Levels[j].Distance
	})
	return res, nil
}

func fibLevel(ratio, swing float64, res *FibResult, current float64, ext bool) FibLevel {
	var price float64
	if res.Uptrend {
		// ratio 0 sits at the swing high, 1 at the swing low; >1 projects
		// above the high.
		if ext {
			price = res.SwingHigh + (ratio-1)*swing
		} else {
			price = res.SwingHigh - ratio*swing
		}
	} else {
		if ext {
			price = res.SwingLow - (ratio-1)*swing
		} else {
			price = res.SwingLow + ratio*swing
		}
	}

	dist := 0.0
	if current > 0 {
		dist = math.Abs(price-current) / current * 100.0
	}
	return FibLevel{
		Ratio:        ratio,
		Price:        price,
		Extension:    ext,
		GoldenPocket: !ext && ratio >= goldenPocketLow && ratio <= goldenPocketHigh,
		Distance:     dist,
	}
}
