// Package risk sizes positions and enforces the account guardrails: leverage
// caps, stop distance limits, loss streaks and drawdown-based emergency stops.
package risk

import (
	"fmt"
	"math"

	"signal-enginev1/internal/model"
)

// InvalidParameterError reports a risk input that fails validation.
type InvalidParameterError struct {
	Param string
	Value float64
	Msg   string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s=%v: %s", e.Param, e.Value, e.Msg)
}

// Limits holds the account guardrails.
type Limits struct {
	MaxLeverage          float64 // hard cap, positions above it are rejected
	MinRiskReward        float64
	MaxRiskPct           float64 // max risk per trade as percent of balance
	WarnRiskPct          float64 // escalating warning threshold
	WarnLeverage         float64
	HighWarnLeverage     float64
	MaxStopDistancePct   float64 // per-unit risk above this is an error
	SRMarginPct          float64 // stop inside this margin of S/R draws a warning
	BreakevenThreshold   float64 // percent of initial risk recovered
	MaxConsecutiveLosses int
	EmergencyStopPct     float64 // drawdown percent triggering a full stop
}

// DefaultLimits returns the standard guardrails.
func DefaultLimits() Limits {
	return Limits{
		MaxLeverage:          20,
		MinRiskReward:        1.5,
		MaxRiskPct:           5,
		WarnRiskPct:          3,
		WarnLeverage:         15,
		HighWarnLeverage:     20,
		MaxStopDistancePct:   10,
		SRMarginPct:          1,
		BreakevenThreshold:   40,
		MaxConsecutiveLosses: 3,
		EmergencyStopPct:     20,
	}
}

// PositionSize is a validated sizing result.
type PositionSize struct {
	Direction       model.Direction `json:"direction"`
	RiskAmount      float64         `json:"risk_amount"`
	PriceRisk       float64         `json:"price_risk"`
	Size            float64         `json:"size"` // units of the asset
	RequiredCapital float64         `json:"required_capital"`
	Leverage        float64         `json:"leverage"`
	Warnings        []string        `json:"warnings,omitempty"`
}

// TakeProfit is a validated target price.
type TakeProfit struct {
	Price      float64         `json:"price"`
	Direction  model.Direction `json:"direction"`
	RiskReward float64         `json:"risk_reward"`
}

// StopCheck is the outcome of stop-loss validation.
type StopCheck struct {
	RiskPct  float64  `json:"risk_pct"` // per-unit risk as percent of entry
	Warnings []string `json:"warnings,omitempty"`
}

// Breakeven stop actions.
const (
	ActionHold            = "hold"
	ActionMoveToBreakeven = "move_to_breakeven"
)

// StopAdjustment is the outcome of a breakeven check.
type StopAdjustment struct {
	Action    string  `json:"action"`
	NewStop   float64 `json:"new_stop"`
	ProfitPct float64 `json:"profit_pct"` // percent of initial risk recovered
}

// StreakReport summarizes recent trading health.
type StreakReport struct {
	ConsecutiveLosses int     `json:"consecutive_losses"`
	Drawdown          float64 `json:"drawdown"` // percent below initial balance
	ShouldPause       bool    `json:"should_pause"`
	EmergencyStop     bool    `json:"emergency_stop"`
}

// Validator applies the limits to concrete trades.
type Validator struct {
	limits Limits
}

// NewValidator creates a validator with the given limits.
func NewValidator(limits Limits) *Validator {
	return &Validator{limits: limits}
}

// Limits returns the configured guardrails.
func (v *Validator) Limits() Limits { return v.limits }

// CalculatePositionSize sizes a position so the distance to the stop risks
// exactly riskPct of the balance. Direction is inferred from the stop side.
func (v *Validator) CalculatePositionSize(balance, entry, stop, riskPct, leverage float64) (PositionSize, error) {
	switch {
	case balance <= 0:
		return PositionSize{}, &InvalidParameterError{Param: "balance", Value: balance, Msg: "must be positive"}
	case entry <= 0:
		return PositionSize{}, &InvalidParameterError{Param: "entry", Value: entry, Msg: "must be positive"}
	case stop <= 0:
		return PositionSize{}, &InvalidParameterError{Param: "stop", Value: stop, Msg: "must be positive"}
	case leverage <= 0:
		return PositionSize{}, &InvalidParameterError{Param: "leverage", Value: leverage, Msg: "must be positive"}
	case leverage > v.limits.MaxLeverage:
		return PositionSize{}, &InvalidParameterError{Param: "leverage", Value: leverage,
			Msg: fmt.Sprintf("exceeds maximum %v", v.limits.MaxLeverage)}
	case riskPct <= 0:
		return PositionSize{}, &InvalidParameterError{Param: "riskPct", Value: riskPct, Msg: "must be positive"}
	case riskPct > v.limits.MaxRiskPct:
		return PositionSize{}, &InvalidParameterError{Param: "riskPct", Value: riskPct,
			Msg: fmt.Sprintf("exceeds maximum %v", v.limits.MaxRiskPct)}
	case stop == entry:
		return PositionSize{}, &InvalidParameterError{Param: "stop", Value: stop, Msg: "equals entry, no direction"}
	}

	direction := model.DirectionLong
	if stop > entry {
		direction = model.DirectionShort
	}

	riskAmount := balance * riskPct / 100
	priceRisk := math.Abs(entry - stop)
	size := riskAmount / priceRisk
	requiredCapital := size * entry / leverage
	if requiredCapital > balance {
		return PositionSize{}, &InvalidParameterError{Param: "requiredCapital", Value: requiredCapital,
			Msg: fmt.Sprintf("exceeds balance %v", balance)}
	}

	out := PositionSize{
		Direction:       direction,
		RiskAmount:      riskAmount,
		PriceRisk:       priceRisk,
		Size:            size,
		RequiredCapital: requiredCapital,
		Leverage:        leverage,
	}
	if riskPct >= v.limits.WarnRiskPct {
		out.Warnings = append(out.Warnings, fmt.Sprintf("risk %.1f%% of balance is aggressive", riskPct))
	}
	if leverage >= v.limits.HighWarnLeverage {
		out.Warnings = append(out.Warnings, fmt.Sprintf("%vx leverage leaves no margin for error", leverage))
	} else if leverage >= v.limits.WarnLeverage {
		out.Warnings = append(out.Warnings, fmt.Sprintf("%vx leverage amplifies liquidation risk", leverage))
	}
	return out, nil
}

// CalculateTakeProfit projects the target at rr times the stop distance on
// the profit side.
func (v *Validator) CalculateTakeProfit(entry, stop, rr float64) (TakeProfit, error) {
	switch {
	case entry <= 0:
		return TakeProfit{}, &InvalidParameterError{Param: "entry", Value: entry, Msg: "must be positive"}
	case stop <= 0:
		return TakeProfit{}, &InvalidParameterError{Param: "stop", Value: stop, Msg: "must be positive"}
	case stop == entry:
		return TakeProfit{}, &InvalidParameterError{Param: "stop", Value: stop, Msg: "equals entry, no direction"}
	case rr < v.limits.MinRiskReward:
		return TakeProfit{}, &InvalidParameterError{Param: "riskReward", Value: rr,
			Msg: fmt.Sprintf("below minimum %v", v.limits.MinRiskReward)}
	}

	priceRisk := math.Abs(entry - stop)
	if stop < entry {
		return TakeProfit{Price: entry + priceRisk*rr, Direction: model.DirectionLong, RiskReward: rr}, nil
	}
	return TakeProfit{Price: entry - priceRisk*rr, Direction: model.DirectionShort, RiskReward: rr}, nil
}

// ValidateStopLoss checks the stop distance and its placement relative to
// known structure. support/resistance are optional; pass 0 to skip.
func (v *Validator) ValidateStopLoss(entry, stop, support, resistance float64) (StopCheck, error) {
	switch {
	case entry <= 0:
		return StopCheck{}, &InvalidParameterError{Param: "entry", Value: entry, Msg: "must be positive"}
	case stop <= 0:
		return StopCheck{}, &InvalidParameterError{Param: "stop", Value: stop, Msg: "must be positive"}
	case stop == entry:
		return StopCheck{}, &InvalidParameterError{Param: "stop", Value: stop, Msg: "equals entry, no direction"}
	}

	riskPct := math.Abs(entry-stop) / entry * 100
	if riskPct > v.limits.MaxStopDistancePct {
		return StopCheck{}, &InvalidParameterError{Param: "stop", Value: stop,
			Msg: fmt.Sprintf("per-unit risk %.1f%% exceeds %v%%", riskPct, v.limits.MaxStopDistancePct)}
	}

	out := StopCheck{RiskPct: riskPct}
	margin := v.limits.SRMarginPct / 100
	if support > 0 && math.Abs(stop-support)/support <= margin {
		out.Warnings = append(out.Warnings, "stop sits inside the support zone, expect wicks through it")
	}
	if resistance > 0 && math.Abs(stop-resistance)/resistance <= margin {
		out.Warnings = append(out.Warnings, "stop sits inside the resistance zone, expect wicks through it")
	}
	return out, nil
}

// MoveStopToBreakeven advises moving the stop to entry once the trade has
// recovered BreakevenThreshold percent of its initial risk.
func (v *Validator) MoveStopToBreakeven(entry, current, stop float64) (StopAdjustment, error) {
	switch {
	case entry <= 0:
		return StopAdjustment{}, &InvalidParameterError{Param: "entry", Value: entry, Msg: "must be positive"}
	case current <= 0:
		return StopAdjustment{}, &InvalidParameterError{Param: "current", Value: current, Msg: "must be positive"}
	case stop <= 0 || stop == entry:
		return StopAdjustment{}, &InvalidParameterError{Param: "stop", Value: stop, Msg: "must differ from entry"}
	}

	priceRisk := math.Abs(entry - stop)
	profit := current - entry
	if stop > entry { // short
		profit = entry - current
	}
	profitPct := profit / priceRisk * 100

	if profitPct >= v.limits.BreakevenThreshold {
		return StopAdjustment{Action: ActionMoveToBreakeven, NewStop: entry, ProfitPct: profitPct}, nil
	}
	return StopAdjustment{Action: ActionHold, NewStop: stop, ProfitPct: profitPct}, nil
}

// CheckTradingStreak counts consecutive losses from the most recent trade
// backward and measures drawdown against the initial balance.
func (v *Validator) CheckTradingStreak(trades []model.TradeRecord, balance, initialBalance float64) StreakReport {
	out := StreakReport{}
	for i := len(trades) - 1; i >= 0; i-- {
		if trades[i].PnL >= 0 {
			break
		}
		out.ConsecutiveLosses++
	}
	if initialBalance > 0 {
		out.Drawdown = (initialBalance - balance) / initialBalance * 100
	}
	out.ShouldPause = out.ConsecutiveLosses >= v.limits.MaxConsecutiveLosses
	out.EmergencyStop = out.Drawdown >= v.limits.EmergencyStopPct
	return out
}
