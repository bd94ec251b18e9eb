package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Direction is the trade direction implied by an analysis.
type Direction string

const (
	DirectionLong    Direction = "long"
	DirectionShort   Direction = "short"
	DirectionNeutral Direction = "neutral"
)

// Signal is a fully validated trade recommendation. Every field is internally
// consistent by construction: for long signals StopLoss < Entry < TakeProfit
// (reversed for short), RiskReward meets the configured minimum and Leverage
// the configured cap.
type Signal struct {
	ID              string    `json:"id"`
	Symbol          string    `json:"symbol"`
	Timeframe       string    `json:"timeframe"`
	Direction       Direction `json:"direction"`
	Entry           float64   `json:"entry"`
	StopLoss        float64   `json:"stop_loss"`
	TakeProfit      float64   `json:"take_profit"`
	RiskReward      float64   `json:"risk_reward"`
	PositionSize    float64   `json:"position_size"` // units of the base asset
	Leverage        float64   `json:"leverage"`
	ConfluenceScore float64   `json:"confluence_score"`
	Alerts          []string  `json:"alerts,omitempty"` // risk warnings attached during validation
	GeneratedAt     time.Time `json:"generated_at"`
	ValidUntil      time.Time `json:"valid_until"`
}

// NewSignalID returns a fresh unique signal ID.
func NewSignalID() string {
	return uuid.NewString()
}

// JSON returns the JSON-encoded signal.
func (s *Signal) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}

// OutcomeKind discriminates the possible results of signal generation.
type OutcomeKind string

const (
	// OutcomeValid carries a tradeable Signal.
	OutcomeValid OutcomeKind = "VALID_SIGNAL"
	// OutcomeNeutral means confluence did not clear the directional threshold.
	OutcomeNeutral OutcomeKind = "NEUTRAL_SIGNAL"
	// OutcomeRejected means risk or level validation failed.
	OutcomeRejected OutcomeKind = "REJECTED_SIGNAL"
	// OutcomeFiltered means account guardrails (loss streak, drawdown)
	// advise standing aside even though the setup itself was valid.
	OutcomeFiltered OutcomeKind = "FILTERED_SIGNAL"
)

// Outcome is the tagged result of a signal generation call. Exactly the
// fields relevant to the Kind are populated, so consumers can switch on Kind
// and handle every case explicitly.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Symbol string      `json:"symbol"`

	// Valid
	Signal *Signal `json:"signal,omitempty"`

	// Neutral
	Score     float64   `json:"score,omitempty"`
	Direction Direction `json:"direction,omitempty"`

	// Rejected / Filtered
	Reason string `json:"reason,omitempty"`
}

// TradeRecord is one closed trade used by the streak guardrails.
// Slices are ordered oldest → newest.
type TradeRecord struct {
	Symbol   string    `json:"symbol"`
	PnL      float64   `json:"pnl"` // realized profit/loss in account currency
	ClosedAt time.Time `json:"closed_at"`
}
