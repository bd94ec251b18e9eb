// Package analysis orchestrates the technical-analysis pipeline: indicators
// and pivots feed divergence, level and pattern detection, confluence scoring
// gates the direction, and the risk layer turns the read into a final signal
// outcome.
package analysis

import (
	"fmt"
	"log/slog"
	"time"

	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/model"
	"signal-enginev1/internal/risk"
	"signal-enginev1/internal/siglevel"
)

// Params tunes the full analysis pipeline.
type Params struct {
	RSIPeriod      int
	BBWPPeriod     int
	BBWPStdDev     float64
	BBWPLookback   int
	PivotLookback  int
	MaxPsychLevels int

	Divergence indicator.DivergenceConfig
	Cluster    indicator.ClusterConfig
	Pattern    indicator.PatternConfig
	Scorer     indicator.ScorerConfig
	Levels     siglevel.Config

	RiskPct   float64 // percent of balance risked per signal
	Leverage  float64
	SignalTTL time.Duration
}

// DefaultParams returns the standard pipeline tuning.
func DefaultParams() Params {
	return Params{
		RSIPeriod:      14,
		BBWPPeriod:     20,
		BBWPStdDev:     2,
		BBWPLookback:   120,
		PivotLookback:  3,
		MaxPsychLevels: 5,
		Divergence:     indicator.DefaultDivergenceConfig(),
		Cluster:        indicator.DefaultClusterConfig(),
		Pattern:        indicator.DefaultPatternConfig(),
		Scorer:         indicator.DefaultScorerConfig(),
		Levels:         siglevel.DefaultConfig(),
		RiskPct:        2,
		Leverage:       10,
		SignalTTL:      10 * time.Minute,
	}
}

// Result is the full per-symbol analysis snapshot. Component failures that
// did not abort the run are recorded in ComponentErrors.
type Result struct {
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	Price     float64   `json:"price"`
	Bars      int       `json:"bars"`
	CreatedAt time.Time `json:"created_at"`

	RSI         []float64                  `json:"rsi,omitempty"`
	BBWP        *indicator.BBWPResult      `json:"bbwp,omitempty"`
	Fib         *indicator.FibResult       `json:"fibonacci,omitempty"`
	Divergences []indicator.Divergence     `json:"divergences,omitempty"`
	Levels      []indicator.Level          `json:"levels,omitempty"`
	Patterns    []indicator.Pattern        `json:"patterns,omitempty"`
	Confluence  indicator.ConfluenceResult `json:"confluence"`

	ComponentErrors []string `json:"component_errors,omitempty"`
}

// LastRSI returns the most recent RSI value, false when RSI failed.
func (r *Result) LastRSI() (float64, bool) {
	if len(r.RSI) == 0 {
		return 0, false
	}
	return r.RSI[len(r.RSI)-1], true
}

// Analyzer runs the pipeline over candle windows. It is stateless with
// respect to its inputs and safe for concurrent use.
type Analyzer struct {
	params     Params
	log        *slog.Logger
	divergence *indicator.DivergenceDetector
	clusterer  *indicator.Clusterer
	recognizer *indicator.Recognizer
	scorer     *indicator.Scorer
	calc       *siglevel.Calculator
	validator  *risk.Validator
}

// New creates an analyzer with the given tuning and risk limits.
func New(params Params, limits risk.Limits, log *slog.Logger) *Analyzer {
	return &Analyzer{
		params:     params,
		log:        log,
		divergence: indicator.NewDivergenceDetector(params.Divergence),
		clusterer:  indicator.NewClusterer(params.Cluster),
		recognizer: indicator.NewRecognizer(params.Pattern),
		scorer:     indicator.NewScorer(params.Scorer),
		calc:       siglevel.NewCalculator(params.Levels),
		validator:  risk.NewValidator(limits),
	}
}

// Validator exposes the risk validator for callers that manage open trades.
func (a *Analyzer) Validator() *risk.Validator { return a.validator }

// Analyze runs every component over the candle window. A component failure
// (short series, degenerate swing) is recorded and the remaining analysis
// continues; only a window too short for any indicator is a hard error.
func (a *Analyzer) Analyze(candles []model.Candle) (*Result, error) {
	if len(candles) < a.params.RSIPeriod+1 {
		return nil, &indicator.InsufficientDataError{
			Indicator: "analysis",
			Need:      a.params.RSIPeriod + 1,
			Got:       len(candles),
		}
	}

	closes := model.Closes(candles)
	highs := model.Highs(candles)
	lows := model.Lows(candles)
	volumes := model.Volumes(candles)
	last := candles[len(candles)-1]

	res := &Result{
		Symbol:    last.Symbol,
		Timeframe: last.Timeframe,
		Price:     last.Close,
		Bars:      len(candles),
		CreatedAt: time.Now().UTC(),
	}

	rsi, err := indicator.ComputeRSI(closes, a.params.RSIPeriod)
	if err != nil {
		a.recordFailure(res, "rsi", err)
	} else {
		res.RSI = rsi
	}

	if bbwp, err := indicator.ComputeBBWP(closes, a.params.BBWPPeriod, a.params.BBWPStdDev, a.params.BBWPLookback); err != nil {
		a.recordFailure(res, "bbwp", err)
	} else {
		res.BBWP = bbwp
	}

	if fib, err := indicator.ComputeFibonacci(closes, highs, lows); err != nil {
		a.recordFailure(res, "fibonacci", err)
	} else {
		res.Fib = fib
	}

	pricePivots := append(
		indicator.FindPivots(closes, indicator.PivotPeak, a.params.PivotLookback),
		indicator.FindPivots(closes, indicator.PivotValley, a.params.PivotLookback)...,
	)
	if len(res.RSI) > 0 {
		res.Divergences = a.divergence.Detect(closes, pricePivots, a.rsiPivots(res.RSI))
	}

	res.Levels = append(
		a.clusterer.Cluster(highs, lows, closes),
		indicator.PsychologicalLevels(last.Close, a.params.MaxPsychLevels)...,
	)

	res.Patterns = a.recognizer.Detect(highs, lows, closes, volumes)

	in := indicator.ConfluenceInput{
		Price:       last.Close,
		Divergences: res.Divergences,
		BBWP:        res.BBWP,
		Fib:         res.Fib,
		Levels:      res.Levels,
		Patterns:    res.Patterns,
	}
	if v, ok := res.LastRSI(); ok {
		in.RSI, in.HasRSI = v, true
	}
	res.Confluence = a.scorer.Score(in)

	return res, nil
}

// rsiPivots finds RSI extremes and shifts them into price bar coordinates.
// RSI[i] corresponds to closes[period+i], so pivot indices move by +period.
func (a *Analyzer) rsiPivots(rsi []float64) []indicator.Pivot {
	pivots := append(
		indicator.FindPivots(rsi, indicator.PivotPeak, a.params.PivotLookback),
		indicator.FindPivots(rsi, indicator.PivotValley, a.params.PivotLookback)...,
	)
	for i := range pivots {
		pivots[i].Index += a.params.RSIPeriod
	}
	return pivots
}

func (a *Analyzer) recordFailure(res *Result, component string, err error) {
	res.ComponentErrors = append(res.ComponentErrors, fmt.Sprintf("%s: %v", component, err))
	if a.log != nil {
		a.log.Warn("analysis component failed",
			slog.String("symbol", res.Symbol),
			slog.String("component", component),
			slog.Any("err", err),
		)
	}
}
