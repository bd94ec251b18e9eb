package analysis

import (
	"fmt"
	"log/slog"
	"time"

	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/model"
)

// Account is the trading-account state the guardrails evaluate.
type Account struct {
	Balance        float64
	InitialBalance float64
	Trades         []model.TradeRecord // oldest first
}

// GenerateSignal runs the full pipeline and folds every failure mode into a
// tagged Outcome:
//
//   - FILTERED: loss streak or drawdown guardrails advise standing aside,
//     regardless of how good the setup looks.
//   - REJECTED: the window could not be analyzed, or level/risk validation
//     failed.
//   - NEUTRAL: confluence did not clear the directional threshold.
//   - VALID: a fully sized, internally consistent signal.
//
// The partial analysis result is returned alongside the outcome whenever one
// was produced, for inspection endpoints.
func (a *Analyzer) GenerateSignal(candles []model.Candle, account Account) (model.Outcome, *Result) {
	symbol := ""
	if len(candles) > 0 {
		symbol = candles[len(candles)-1].Symbol
	}

	streak := a.validator.CheckTradingStreak(account.Trades, account.Balance, account.InitialBalance)
	if streak.EmergencyStop {
		return model.Outcome{
			Kind:   model.OutcomeFiltered,
			Symbol: symbol,
			Reason: fmt.Sprintf("drawdown %.1f%% tripped the emergency stop", streak.Drawdown),
		}, nil
	}
	if streak.ShouldPause {
		return model.Outcome{
			Kind:   model.OutcomeFiltered,
			Symbol: symbol,
			Reason: fmt.Sprintf("%d consecutive losses, pausing new entries", streak.ConsecutiveLosses),
		}, nil
	}

	res, err := a.Analyze(candles)
	if err != nil {
		return model.Outcome{
			Kind:   model.OutcomeRejected,
			Symbol: symbol,
			Reason: err.Error(),
		}, nil
	}

	direction := biasToDirection(res.Confluence.Direction)
	if direction == model.DirectionNeutral {
		return model.Outcome{
			Kind:      model.OutcomeNeutral,
			Symbol:    res.Symbol,
			Score:     res.Confluence.Score,
			Direction: model.DirectionNeutral,
		}, res
	}

	levels, err := a.calc.Calculate(res.Confluence.Direction, res.Price, res.Levels, res.Fib)
	if err != nil {
		return a.rejected(res, "level calculation", err), res
	}

	support, resistance := nearestStructure(res.Levels, res.Price)
	check, err := a.validator.ValidateStopLoss(levels.Entry, levels.StopLoss, support, resistance)
	if err != nil {
		return a.rejected(res, "stop validation", err), res
	}

	sized, err := a.validator.CalculatePositionSize(
		account.Balance, levels.Entry, levels.StopLoss, a.params.RiskPct, a.params.Leverage)
	if err != nil {
		return a.rejected(res, "position sizing", err), res
	}

	now := time.Now().UTC()
	sig := &model.Signal{
		ID:              model.NewSignalID(),
		Symbol:          res.Symbol,
		Timeframe:       res.Timeframe,
		Direction:       direction,
		Entry:           levels.Entry,
		StopLoss:        levels.StopLoss,
		TakeProfit:      levels.TakeProfit,
		RiskReward:      levels.RiskReward,
		PositionSize:    sized.Size,
		Leverage:        sized.Leverage,
		ConfluenceScore: res.Confluence.Score,
		Alerts:          append(check.Warnings, sized.Warnings...),
		GeneratedAt:     now,
		ValidUntil:      now.Add(a.params.SignalTTL),
	}

	if a.log != nil {
		a.log.Info("signal generated",
			slog.String("symbol", sig.Symbol),
			slog.String("direction", string(sig.Direction)),
			slog.Float64("score", sig.ConfluenceScore),
			slog.Float64("rr", sig.RiskReward),
		)
	}

	return model.Outcome{Kind: model.OutcomeValid, Symbol: res.Symbol, Signal: sig}, res
}

func (a *Analyzer) rejected(res *Result, stage string, err error) model.Outcome {
	if a.log != nil {
		a.log.Warn("signal rejected",
			slog.String("symbol", res.Symbol),
			slog.String("stage", stage),
			slog.Any("err", err),
		)
	}
	return model.Outcome{
		Kind:   model.OutcomeRejected,
		Symbol: res.Symbol,
		Reason: fmt.Sprintf("%s: %v", stage, err),
	}
}

func biasToDirection(b indicator.Bias) model.Direction {
	switch b {
	case indicator.BiasBullish:
		return model.DirectionLong
	case indicator.BiasBearish:
		return model.DirectionShort
	default:
		return model.DirectionNeutral
	}
}

// nearestStructure finds the closest unbroken support below and resistance
// above the price, for stop placement checks. Zero means none in play.
func nearestStructure(levels []indicator.Level, price float64) (support, resistance float64) {
	for _, lvl := range levels {
		if lvl.Broken {
			continue
		}
		if lvl.Type == indicator.LevelSupport && lvl.Price < price {
			if support == 0 || lvl.Price > support {
				support = lvl.Price
			}
		}
		if lvl.Type == indicator.LevelResistance && lvl.Price > price {
			if resistance == 0 || lvl.Price < resistance {
				resistance = lvl.Price
			}
		}
	}
	return support, resistance
}
