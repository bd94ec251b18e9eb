// Package marketdata defines the candle supply contract consumed by the
// analysis layer, plus a static in-memory provider for tests and replay.
package marketdata

import (
	"context"
	"fmt"
	"sync"

	"signal-enginev1/internal/model"
)

// Provider supplies ordered candle windows by symbol and timeframe.
// Implementations must return candles oldest → newest and at most count bars.
type Provider interface {
	Candles(ctx context.Context, symbol, timeframe string, count int) ([]model.Candle, error)
}

// StaticProvider serves pre-loaded candle series from memory.
type StaticProvider struct {
	mu     sync.RWMutex
	series map[string][]model.Candle // key: "symbol:timeframe"
}

// NewStaticProvider creates an empty static provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{series: make(map[string][]model.Candle)}
}

// Load replaces the series for a symbol/timeframe pair.
func (p *StaticProvider) Load(symbol, timeframe string, candles []model.Candle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.series[symbol+":"+timeframe] = candles
}

// Candles returns the most recent count bars of the loaded series.
func (p *StaticProvider) Candles(_ context.Context, symbol, timeframe string, count int) ([]model.Candle, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	series, ok := p.series[symbol+":"+timeframe]
	if !ok {
		return nil, fmt.Errorf("marketdata: no series loaded for %s:%s", symbol, timeframe)
	}
	if count > 0 && len(series) > count {
		series = series[len(series)-count:]
	}
	out := make([]model.Candle, len(series))
	copy(out, series)
	return out, nil
}
