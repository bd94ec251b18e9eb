// Package siglevel derives entry, stop-loss and take-profit prices for a
// directional signal from support/resistance levels and Fibonacci
// projections, honoring a minimum reward:risk ratio.
package siglevel

import (
	"fmt"
	"math"

	"signal-enginev1/internal/indicator"
)

// InvalidLevelsError reports a stop/target on the wrong side of entry.
type InvalidLevelsError struct {
	Direction  indicator.Bias
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	Msg        string
}

func (e *InvalidLevelsError) Error() string {
	return fmt.Sprintf("invalid levels for %s: entry=%.4f stop=%.4f target=%.4f: %s",
		e.Direction, e.Entry, e.StopLoss, e.TakeProfit, e.Msg)
}

// Levels is a consistent entry/stop/target triple.
type Levels struct {
	Entry      float64 `json:"entry"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
	RiskReward float64 `json:"risk_reward"`
}

// Config tunes candidate selection.
type Config struct {
	MinRiskReward    float64 // targets below this ratio are discarded
	DefaultStopPct   float64 // fallback stop distance from entry, percent
	LevelMaxDistPct  float64 // how far a protective level may sit from entry
	FibMaxDistPct    float64 // how far a Fibonacci level may sit from entry
	MinLevelStrength float64 // weaker levels are not trusted with the stop
	StopBufferPct    float64 // stop placed this far beyond the protective level
}

// DefaultConfig returns the standard calculator tuning.
func DefaultConfig() Config {
	return Config{
		MinRiskReward:    1.5,
		DefaultStopPct:   2,
		LevelMaxDistPct:  5,
		FibMaxDistPct:    5,
		MinLevelStrength: 50,
		StopBufferPct:    0.2,
	}
}

// Calculator picks signal levels from technical structure.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a calculator with the given config.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Calculate builds the level triple for a directional signal.
//
// Entry is the current price. The stop is taken from the strongest protective
// support/resistance, else the nearest qualifying Fibonacci level, else the
// default percentage stop. Take-profit candidates (levels, Fibonacci
// extensions, and the default entry +/- risk*minRR) are filtered to those
// meeting the minimum reward:risk and the best-ratio survivor wins. The
// final triple is re-checked for side consistency.
func (c *Calculator) Calculate(direction indicator.Bias, price float64, levels []indicator.Level, fib *indicator.FibResult) (Levels, error) {
	if price <= 0 {
		return Levels{}, &InvalidLevelsError{Direction: direction, Entry: price, Msg: "non-positive entry price"}
	}
	long := direction == indicator.BiasBullish
	if !long && direction != indicator.BiasBearish {
		return Levels{}, &InvalidLevelsError{Direction: direction, Entry: price, Msg: "no direction to derive levels for"}
	}

	stop := c.stopLoss(long, price, levels, fib)
	risk := math.Abs(price - stop)
	if risk == 0 {
		return Levels{}, &InvalidLevelsError{Direction: direction, Entry: price, StopLoss: stop, Msg: "zero risk distance"}
	}

	target, rr := c.takeProfit(long, price, risk, levels, fib)

	out := Levels{Entry: price, StopLoss: stop, TakeProfit: target, RiskReward: rr}
	if long && !(stop < price && price < target) {
		return Levels{}, &InvalidLevelsError{Direction: direction, Entry: price, StopLoss: stop, TakeProfit: target, Msg: "levels out of order for long"}
	}
	if !long && !(target < price && price < stop) {
		return Levels{}, &InvalidLevelsError{Direction: direction, Entry: price, StopLoss: stop, TakeProfit: target, Msg: "levels out of order for short"}
	}
	return out, nil
}

// stopLoss picks the protective stop in priority order.
func (c *Calculator) stopLoss(long bool, entry float64, levels []indicator.Level, fib *indicator.FibResult) float64 {
	buffer := entry * c.cfg.StopBufferPct / 100

	if lvl, ok := c.protectiveLevel(long, entry, levels); ok {
		if long {
			return lvl.Price - buffer
		}
		return lvl.Price + buffer
	}

	if price, ok := c.protectiveFib(long, entry, fib); ok {
		if long {
			return price - buffer
		}
		return price + buffer
	}

	if long {
		return entry * (1 - c.cfg.DefaultStopPct/100)
	}
	return entry * (1 + c.cfg.DefaultStopPct/100)
}

// protectiveLevel finds the strongest unbroken level on the protective side
// within range.
func (c *Calculator) protectiveLevel(long bool, entry float64, levels []indicator.Level) (indicator.Level, bool) {
	var best indicator.Level
	found := false
	for _, lvl := range levels {
		if lvl.Broken || lvl.Strength < c.cfg.MinLevelStrength {
			continue
		}
		if long && (lvl.Type != indicator.LevelSupport || lvl.Price >= entry) {
			continue
		}
		if !long && (lvl.Type != indicator.LevelResistance || lvl.Price <= entry) {
			continue
		}
		if distPct(entry, lvl.Price) > c.cfg.LevelMaxDistPct {
			continue
		}
		if !found || lvl.Strength > best.Strength {
			best, found = lvl, true
		}
	}
	return best, found
}

// protectiveFib finds the nearest retracement level on the protective side
// within range.
func (c *Calculator) protectiveFib(long bool, entry float64, fib *indicator.FibResult) (float64, bool) {
	if fib == nil {
		return 0, false
	}
	// Fib levels are sorted by distance to current price, so the first
	// qualifying one is the nearest.
	for _, lvl := range fib.Levels {
		if lvl.Extension {
			continue
		}
		if long && lvl.Price >= entry {
			continue
		}
		if !long && lvl.Price <= entry {
			continue
		}
		if distPct(entry, lvl.Price) > c.cfg.FibMaxDistPct {
			continue
		}
		return lvl.Price, true
	}
	return 0, false
}

// takeProfit evaluates target candidates and keeps the best ratio.
func (c *Calculator) takeProfit(long bool, entry, risk float64, levels []indicator.Level, fib *indicator.FibResult) (price, rr float64) {
	var candidates []float64
	for _, lvl := range levels {
		if lvl.Broken {
			continue
		}
		if long && lvl.Type == indicator.LevelResistance && lvl.Price > entry {
			candidates = append(candidates, lvl.Price)
		}
		if !long && lvl.Type == indicator.LevelSupport && lvl.Price < entry {
			candidates = append(candidates, lvl.Price)
		}
	}
	if fib != nil {
		for _, lvl := range fib.Levels {
			if !lvl.Extension {
				continue
			}
			if long && lvl.Price > entry {
				candidates = append(candidates, lvl.Price)
			}
			if !long && lvl.Price < entry {
				candidates = append(candidates, lvl.Price)
			}
		}
	}

	// The default target meets the minimum ratio exactly, so the candidate
	// set is never empty.
	if long {
		candidates = append(candidates, entry+risk*c.cfg.MinRiskReward)
	} else {
		candidates = append(candidates, entry-risk*c.cfg.MinRiskReward)
	}

	best, bestRR := 0.0, 0.0
	for _, cand := range candidates {
		ratio := math.Abs(cand-entry) / risk
		if ratio < c.cfg.MinRiskReward {
			continue
		}
		if ratio > bestRR {
			best, bestRR = cand, ratio
		}
	}
	return best, bestRR
}

func distPct(entry, price float64) float64 {
	return math.Abs(price-entry) / entry * 100
}
