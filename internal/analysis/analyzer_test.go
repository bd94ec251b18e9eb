package analysis

import (
	"errors"
	"strings"
	"testing"
	"time"

	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/model"
	"signal-enginev1/internal/risk"
)

// candlesFrom wraps a close series into candles with a small high/low spread.
func candlesFrom(symbol, timeframe string, closes []float64) []model.Candle {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Candle, len(closes))
	for i, c := range closes {
		out[i] = model.Candle{
			Symbol:    symbol,
			Timeframe: timeframe,
			TS:        start.Add(time.Duration(i) * time.Hour),
			Open:      c,
			High:      c + 2,
			Low:       c - 2,
			Close:     c,
			Volume:    100,
		}
	}
	return out
}

// sawtooth oscillates between lo and hi with the given half-period, then
// appends tail extra bars continuing the final descent.
func sawtooth(lo, hi float64, half, cycles, tail int) []float64 {
	out := []float64{lo}
	for c := 0; c < cycles; c++ {
		out = appendRamp(out, hi, half)
		out = appendRamp(out, lo, half)
	}
	out = appendRamp(out, hi, half)
	step := (hi - lo) / float64(half)
	for i := 0; i < tail; i++ {
		out = append(out, out[len(out)-1]-step)
	}
	return out
}

func appendRamp(out []float64, to float64, n int) []float64 {
	from := out[len(out)-1]
	for i := 1; i <= n; i++ {
		out = append(out, from+(to-from)*float64(i)/float64(n))
	}
	return out
}

// neutralCandles is a symmetric 1000-1100 sawtooth ending one bar after a
// peak: RSI stays mid-range and no directional factor fires.
func neutralCandles() []model.Candle {
	return candlesFrom("ETHUSDT", "1h", sawtooth(1000, 1100, 5, 2, 1))
}

func TestAnalyzeNeutralFixture(t *testing.T) {
	a := New(DefaultParams(), risk.DefaultLimits(), nil)
	res, err := a.Analyze(neutralCandles())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if res.Symbol != "ETHUSDT" || res.Timeframe != "1h" {
		t.Errorf("identity = %s/%s", res.Symbol, res.Timeframe)
	}
	if res.Bars != 27 || res.Price != 1080 {
		t.Errorf("bars/price = %d/%v, want 27/1080", res.Bars, res.Price)
	}
	if want := 27 - DefaultParams().RSIPeriod; len(res.RSI) != want {
		t.Errorf("len(rsi) = %d, want %d", len(res.RSI), want)
	}
	if v, ok := res.LastRSI(); !ok || v < 30 || v > 70 {
		t.Errorf("last rsi = %v/%v, want mid-range", v, ok)
	}

	// Only BBWP lacks data at 27 bars; everything else computes.
	if len(res.ComponentErrors) != 1 || !strings.HasPrefix(res.ComponentErrors[0], "bbwp") {
		t.Errorf("component errors = %v, want a single bbwp failure", res.ComponentErrors)
	}
	if res.BBWP != nil {
		t.Error("bbwp result present despite failure")
	}
	if res.Fib == nil {
		t.Fatal("fibonacci missing")
	}
	if res.Fib.Uptrend {
		t.Error("uptrend = true, want false (last confirmed valley after last peak)")
	}

	// Two weak clusters plus the 1100 round number.
	if len(res.Levels) != 3 {
		t.Errorf("levels = %+v, want 3", res.Levels)
	}
	if len(res.Patterns) != 0 || len(res.Divergences) != 0 {
		t.Errorf("patterns/divergences = %d/%d, want none", len(res.Patterns), len(res.Divergences))
	}

	if res.Confluence.Score != 50 || len(res.Confluence.Factors) != 0 {
		t.Errorf("confluence = %+v, want bare baseline", res.Confluence)
	}
	if res.Confluence.Direction != indicator.BiasNeutral {
		t.Errorf("direction = %v, want neutral", res.Confluence.Direction)
	}
}

func TestAnalyzeShortWindow(t *testing.T) {
	a := New(DefaultParams(), risk.DefaultLimits(), nil)
	_, err := a.Analyze(candlesFrom("BTCUSDT", "1h", []float64{1, 2, 3}))
	var insufficient *indicator.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want *InsufficientDataError", err)
	}
}

func TestAnalyzeSurvivesComponentFailures(t *testing.T) {
	// A monotonic series kills fibonacci (no confirmed swing) and BBWP
	// (short window) but the analysis still completes.
	closes := appendRamp([]float64{2000}, 1500, 29)
	a := New(DefaultParams(), risk.DefaultLimits(), nil)
	res, err := a.Analyze(candlesFrom("BTCUSDT", "1h", closes))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.ComponentErrors) != 2 {
		t.Errorf("component errors = %v, want bbwp and fibonacci", res.ComponentErrors)
	}
	if len(res.RSI) == 0 {
		t.Error("rsi missing despite sufficient data")
	}
	if res.Confluence.Score < 0 || res.Confluence.Score > 100 {
		t.Errorf("score = %v, outside [0,100]", res.Confluence.Score)
	}
}
