// Package indicator provides the pure technical-analysis core: indicator
// series, pivot detection, divergences, support/resistance clustering, chart
// pattern recognition and confluence scoring.
//
// Every function is stateless and pure with respect to its inputs: candles
// and derived series are never mutated, and identical inputs always produce
// identical outputs.
package indicator

import "math"

// rsiEpsilon floors the average loss so a gains-only series produces an RSI
// that approaches (but never divides by zero at) 100.
const rsiEpsilon = 1e-4

// ComputeRSI calculates the Relative Strength Index using Wilder's smoothing.
//
// The first period deltas seed the average gain/loss as simple means; every
// later step applies the recursion avg = (avg*(period-1) + new) / period.
// The returned series holds one value per post-seed step: out[i] corresponds
// to prices[period+i], so len(out) == len(prices) - period.
func ComputeRSI(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, &CalculationError{Op: "rsi", Msg: "period must be positive"}
	}
	if len(prices) < period+1 {
		return nil, &InsufficientDataError{Indicator: "rsi", Need: period + 1, Got: len(prices)}
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 1; i <= period; i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]float64, 0, len(prices)-period)
	out = append(out, rsiValue(avgGain, avgLoss))

	p := float64(period)
	for i := period + 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out = append(out, rsiValue(avgGain, avgLoss))
	}
	return out, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	rs := avgGain / math.Max(avgLoss, rsiEpsilon)
	return 100.0 - 100.0/(1.0+rs)
}
