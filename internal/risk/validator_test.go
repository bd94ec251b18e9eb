package risk

import (
	"errors"
	"math"
	"testing"

	"signal-enginev1/internal/model"
)

func TestCalculatePositionSize(t *testing.T) {
	v := NewValidator(DefaultLimits())

	out, err := v.CalculatePositionSize(1000, 50000, 48000, 2, 10)
	if err != nil {
		t.Fatalf("CalculatePositionSize: %v", err)
	}
	if out.Direction != model.DirectionLong {
		t.Errorf("direction = %v, want long", out.Direction)
	}
	if out.RiskAmount != 20 {
		t.Errorf("riskAmount = %v, want 20", out.RiskAmount)
	}
	if out.PriceRisk != 2000 {
		t.Errorf("priceRisk = %v, want 2000", out.PriceRisk)
	}
	if want := 20.0 / 2000; math.Abs(out.Size-want) > 1e-12 {
		t.Errorf("size = %v, want %v", out.Size, want)
	}
	if want := (20.0 / 2000) * 50000 / 10; math.Abs(out.RequiredCapital-want) > 1e-9 {
		t.Errorf("requiredCapital = %v, want %v", out.RequiredCapital, want)
	}
	if len(out.Warnings) != 0 {
		t.Errorf("warnings = %v, want none at 2%% risk and 10x", out.Warnings)
	}
}

func TestCalculatePositionSizeShortAndWarnings(t *testing.T) {
	v := NewValidator(DefaultLimits())

	out, err := v.CalculatePositionSize(10000, 50000, 52000, 3, 15)
	if err != nil {
		t.Fatalf("CalculatePositionSize: %v", err)
	}
	if out.Direction != model.DirectionShort {
		t.Errorf("direction = %v, want short", out.Direction)
	}
	// 3% risk and 15x leverage each trip a warning.
	if len(out.Warnings) != 2 {
		t.Errorf("warnings = %v, want 2", out.Warnings)
	}
}

func TestCalculatePositionSizeRejections(t *testing.T) {
	v := NewValidator(DefaultLimits())
	var invalid *InvalidParameterError

	cases := []struct {
		name                                   string
		balance, entry, stop, riskPct, leverage float64
	}{
		{"zero balance", 0, 50000, 48000, 2, 10},
		{"zero entry", 1000, 0, 48000, 2, 10},
		{"zero stop", 1000, 50000, 0, 2, 10},
		{"leverage over cap", 1000, 50000, 48000, 2, 25},
		{"risk over cap", 1000, 50000, 48000, 6, 10},
		{"stop equals entry", 1000, 50000, 50000, 2, 10},
		{"capital over balance", 100, 50000, 49990, 2, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.CalculatePositionSize(tc.balance, tc.entry, tc.stop, tc.riskPct, tc.leverage)
			if !errors.As(err, &invalid) {
				t.Errorf("err = %v, want *InvalidParameterError", err)
			}
		})
	}
}

func TestCalculateTakeProfit(t *testing.T) {
	v := NewValidator(DefaultLimits())

	out, err := v.CalculateTakeProfit(50000, 48000, 2)
	if err != nil {
		t.Fatalf("CalculateTakeProfit: %v", err)
	}
	if out.Price != 54000 || out.Direction != model.DirectionLong {
		t.Errorf("tp = %v/%v, want 54000/long", out.Price, out.Direction)
	}

	out, err = v.CalculateTakeProfit(50000, 52000, 2)
	if err != nil {
		t.Fatalf("CalculateTakeProfit(short): %v", err)
	}
	if out.Price != 46000 || out.Direction != model.DirectionShort {
		t.Errorf("tp = %v/%v, want 46000/short", out.Price, out.Direction)
	}

	var invalid *InvalidParameterError
	if _, err := v.CalculateTakeProfit(50000, 48000, 1); !errors.As(err, &invalid) {
		t.Errorf("rr below minimum: err = %v, want *InvalidParameterError", err)
	}
}

func TestValidateStopLoss(t *testing.T) {
	v := NewValidator(DefaultLimits())

	out, err := v.ValidateStopLoss(50000, 49000, 0, 0)
	if err != nil {
		t.Fatalf("ValidateStopLoss: %v", err)
	}
	if math.Abs(out.RiskPct-2) > 1e-9 || len(out.Warnings) != 0 {
		t.Errorf("check = %+v, want 2%% risk and no warnings", out)
	}

	// Stop right on top of the support draws a warning.
	out, err = v.ValidateStopLoss(50000, 49000, 49100, 0)
	if err != nil {
		t.Fatalf("ValidateStopLoss: %v", err)
	}
	if len(out.Warnings) != 1 {
		t.Errorf("warnings = %v, want 1", out.Warnings)
	}

	var invalid *InvalidParameterError
	if _, err := v.ValidateStopLoss(50000, 44000, 0, 0); !errors.As(err, &invalid) {
		t.Errorf("12%% stop: err = %v, want *InvalidParameterError", err)
	}
}

func TestMoveStopToBreakeven(t *testing.T) {
	v := NewValidator(DefaultLimits())

	// Risk 1000; price recovered 300 of it: hold.
	out, err := v.MoveStopToBreakeven(50000, 50300, 49000)
	if err != nil {
		t.Fatalf("MoveStopToBreakeven: %v", err)
	}
	if out.Action != ActionHold || out.NewStop != 49000 {
		t.Errorf("adjustment = %+v, want hold at 49000", out)
	}

	// Recovered 50% of the risk: move to breakeven.
	out, err = v.MoveStopToBreakeven(50000, 50500, 49000)
	if err != nil {
		t.Fatalf("MoveStopToBreakeven: %v", err)
	}
	if out.Action != ActionMoveToBreakeven || out.NewStop != 50000 {
		t.Errorf("adjustment = %+v, want move_to_breakeven at entry", out)
	}

	// Short position mirrors the profit measurement.
	out, err = v.MoveStopToBreakeven(50000, 49500, 51000)
	if err != nil {
		t.Fatalf("MoveStopToBreakeven(short): %v", err)
	}
	if out.Action != ActionMoveToBreakeven || out.NewStop != 50000 {
		t.Errorf("short adjustment = %+v, want move_to_breakeven", out)
	}
}

func TestCheckTradingStreak(t *testing.T) {
	v := NewValidator(DefaultLimits())

	trades := []model.TradeRecord{
		{PnL: 100}, {PnL: -50}, {PnL: -30}, {PnL: -40},
	}
	rep := v.CheckTradingStreak(trades, 900, 1000)
	if rep.ConsecutiveLosses != 3 {
		t.Errorf("losses = %d, want 3", rep.ConsecutiveLosses)
	}
	if !rep.ShouldPause {
		t.Error("shouldPause = false, want true")
	}
	if rep.EmergencyStop {
		t.Error("emergencyStop = true at 10%% drawdown, want false")
	}

	rep = v.CheckTradingStreak(nil, 750, 1000)
	if math.Abs(rep.Drawdown-25) > 1e-9 {
		t.Errorf("drawdown = %v, want 25", rep.Drawdown)
	}
	if !rep.EmergencyStop {
		t.Error("emergencyStop = false at 25%% drawdown, want true")
	}
	if rep.ShouldPause {
		t.Error("shouldPause = true with no trades, want false")
	}
}
