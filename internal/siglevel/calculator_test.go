package siglevel

import (
	"errors"
	"math"
	"testing"

	"signal-enginev1/internal/indicator"
)

func TestCalculateLongWithSupportStop(t *testing.T) {
	c := NewCalculator(DefaultConfig())
	levels := []indicator.Level{
		{Price: 49000, Type: indicator.LevelSupport, Strength: 70, Touches: 3},
		{Price: 55000, Type: indicator.LevelResistance, Strength: 65, Touches: 2},
	}

	out, err := c.Calculate(indicator.BiasBullish, 50000, levels, nil)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if !(out.StopLoss < out.Entry && out.Entry < out.TakeProfit) {
		t.Fatalf("long ordering violated: %+v", out)
	}
	// Stop sits just below the 49000 support.
	if want := 49000 - 50000*0.002; math.Abs(out.StopLoss-want) > 1e-9 {
		t.Errorf("stop = %v, want %v", out.StopLoss, want)
	}
	// The 55000 resistance beats the default target on ratio.
	if out.TakeProfit != 55000 {
		t.Errorf("target = %v, want 55000", out.TakeProfit)
	}
	if out.RiskReward < DefaultConfig().MinRiskReward {
		t.Errorf("rr = %v, below minimum", out.RiskReward)
	}
}

func TestCalculateShortMirrors(t *testing.T) {
	c := NewCalculator(DefaultConfig())
	levels := []indicator.Level{
		{Price: 51000, Type: indicator.LevelResistance, Strength: 70, Touches: 3},
		{Price: 45000, Type: indicator.LevelSupport, Strength: 65, Touches: 2},
	}

	out, err := c.Calculate(indicator.BiasBearish, 50000, levels, nil)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if !(out.TakeProfit < out.Entry && out.Entry < out.StopLoss) {
		t.Fatalf("short ordering violated: %+v", out)
	}
	if want := 51000 + 50000*0.002; math.Abs(out.StopLoss-want) > 1e-9 {
		t.Errorf("stop = %v, want %v", out.StopLoss, want)
	}
	if out.TakeProfit != 45000 {
		t.Errorf("target = %v, want 45000", out.TakeProfit)
	}
}

func TestCalculateDefaultStopAndTarget(t *testing.T) {
	// No usable structure: fall back to the percentage stop and the minimum
	// ratio target.
	c := NewCalculator(DefaultConfig())
	out, err := c.Calculate(indicator.BiasBullish, 100, nil, nil)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if math.Abs(out.StopLoss-98) > 1e-9 {
		t.Errorf("stop = %v, want 98 (2%% default)", out.StopLoss)
	}
	if math.Abs(out.TakeProfit-103) > 1e-9 {
		t.Errorf("target = %v, want 103 (entry + 2*1.5)", out.TakeProfit)
	}
	if math.Abs(out.RiskReward-1.5) > 1e-9 {
		t.Errorf("rr = %v, want 1.5", out.RiskReward)
	}
}

func TestCalculateUsesFibStop(t *testing.T) {
	c := NewCalculator(DefaultConfig())
	fib := &indicator.FibResult{
		Uptrend: true,
		Levels: []indicator.FibLevel{
			{Ratio: 0.618, Price: 98.5, Distance: 1.5},
			{Ratio: 1.618, Price: 108, Extension: true, Distance: 8},
		},
	}

	out, err := c.Calculate(indicator.BiasBullish, 100, nil, fib)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if want := 98.5 - 100*0.002; math.Abs(out.StopLoss-want) > 1e-9 {
		t.Errorf("stop = %v, want %v (below 0.618 retracement)", out.StopLoss, want)
	}
	// The 1.618 extension beats the default target.
	if out.TakeProfit != 108 {
		t.Errorf("target = %v, want 108", out.TakeProfit)
	}
}

func TestCalculateRejectsBadInput(t *testing.T) {
	c := NewCalculator(DefaultConfig())

	var invalid *InvalidLevelsError
	if _, err := c.Calculate(indicator.BiasNeutral, 100, nil, nil); !errors.As(err, &invalid) {
		t.Errorf("neutral direction: err = %v, want *InvalidLevelsError", err)
	}
	if _, err := c.Calculate(indicator.BiasBullish, 0, nil, nil); !errors.As(err, &invalid) {
		t.Errorf("zero price: err = %v, want *InvalidLevelsError", err)
	}
}
