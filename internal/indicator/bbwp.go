package indicator

import "math"

// BBWP thresholds: a volatility squeeze below the 20th percentile, an
// expansion above the 80th.
const (
	bbwpSqueezePct   = 20.0
	bbwpExpansionPct = 80.0
)

// BBWPResult holds the Bollinger Band Width Percentile for the latest bar.
type BBWPResult struct {
	Width      float64 `json:"width"`      // (upper-lower)/SMA * 100 for the latest window
	Percentile float64 `json:"percentile"` // rank of Width against its trailing history, 0-100
	Squeeze    bool    `json:"squeeze"`    // percentile < 20
	Expansion  bool    `json:"expansion"`  // percentile > 80
}

// ComputeBBWP calculates the Bollinger Band Width Percentile for the most
// recent bar: the fraction of the trailing lookback band widths strictly
// below the current width, scaled to 0-100.
//
// Band width uses an SMA middle band with population standard deviation and
// stdDevMult bands on each side.
func ComputeBBWP(prices []float64, period int, stdDevMult float64, lookback int) (*BBWPResult, error) {
	if period <= 1 || lookback <= 0 || stdDevMult <= 0 {
		return nil, &CalculationError{Op: "bbwp", Msg: "period, lookback and stdDevMult must be positive"}
	}
	min := period
	if lookback > min {
		min = lookback
	}
	if len(prices) < min {
		return nil, &InsufficientDataError{Indicator: "bbwp", Need: min, Got: len(prices)}
	}

	widths := bandWidths(prices, period, stdDevMult)
	current := widths[len(widths)-1]

	// Rank the current width inside its trailing window (including itself).
	window := widths
	if len(window) > lookback {
		window = window[len(window)-lookback:]
	}
	below := 0
	for _, w := range window {
		if w < current {
			below++
		}
	}
	percentile := float64(below) / float64(len(window)) * 100.0

	return &BBWPResult{
		Width:      current,
		Percentile: percentile,
		Squeeze:    percentile < bbwpSqueezePct,
		Expansion:  percentile > bbwpExpansionPct,
	}, nil
}

// bandWidths computes the Bollinger band width series. widths[i] corresponds
// to prices[period-1+i].
func bandWidths(prices []float64, period int, mult float64) []float64 {
	widths := make([]float64, 0, len(prices)-period+1)
	for i := period - 1; i < len(prices); i++ {
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += prices[j]
		}
		sma := sum / float64(period)

		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := prices[j] - sma
			variance += d * d
		}
		std := math.Sqrt(variance / float64(period))

		width := 0.0
		if sma != 0 {
			// upper-lower = 2 * mult * std
			width = (2 * mult * std) / sma * 100.0
		}
		widths = append(widths, width)
	}
	return widths
}
