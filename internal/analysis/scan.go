package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"signal-enginev1/internal/cache"
	"signal-enginev1/internal/marketdata"
	"signal-enginev1/internal/metrics"
	"signal-enginev1/internal/model"
)

// ScanResult is one symbol's outcome within a batch scan.
type ScanResult struct {
	Symbol  string         `json:"symbol"`
	Outcome *model.Outcome `json:"outcome,omitempty"`
	Cached  bool           `json:"cached,omitempty"`
	Err     error          `json:"-"`
}

// ScannerConfig tunes batch scans.
type ScannerConfig struct {
	Timeframe   string
	CandleCount int
	Workers     int // bounded concurrency for the symbol fan-out
	CacheTTL    time.Duration
}

// Scanner analyzes many symbols concurrently. Per-symbol failures are
// isolated: one bad symbol never fails the batch.
type Scanner struct {
	analyzer *Analyzer
	provider marketdata.Provider
	cache    cache.Cache      // optional
	metrics  *metrics.Metrics // optional
	log      *slog.Logger
	cfg      ScannerConfig
}

// NewScanner wires a scanner over the analyzer and its collaborators.
// cache and m may be nil.
func NewScanner(analyzer *Analyzer, provider marketdata.Provider, c cache.Cache, m *metrics.Metrics, log *slog.Logger, cfg ScannerConfig) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Scanner{
		analyzer: analyzer,
		provider: provider,
		cache:    c,
		metrics:  m,
		log:      log,
		cfg:      cfg,
	}
}

// Scan fans the symbol list out over the worker pool and collects one result
// per symbol, in input order.
func (s *Scanner) Scan(ctx context.Context, symbols []string, account Account) []ScanResult {
	if s.metrics != nil {
		s.metrics.ScansTotal.Inc()
	}

	results := make([]ScanResult, len(symbols))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < s.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.scanOne(ctx, symbols[i], account)
			}
		}()
	}
	for i := range symbols {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func (s *Scanner) scanOne(ctx context.Context, symbol string, account Account) (out ScanResult) {
	out = ScanResult{Symbol: symbol}

	// A misbehaving detector must cost one symbol, not the batch.
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("analysis panicked: %v", r)
			s.failSymbol(symbol, out.Err)
		}
	}()

	key := s.cacheKey(symbol)
	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var cached model.Outcome
			if json.Unmarshal(raw, &cached) == nil {
				if s.metrics != nil {
					s.metrics.CacheHits.Inc()
				}
				out.Outcome, out.Cached = &cached, true
				return out
			}
		}
		if s.metrics != nil {
			s.metrics.CacheMisses.Inc()
		}
	}

	candles, err := s.provider.Candles(ctx, symbol, s.cfg.Timeframe, s.cfg.CandleCount)
	if err != nil {
		out.Err = fmt.Errorf("fetch candles: %w", err)
		s.failSymbol(symbol, out.Err)
		return out
	}
	if s.metrics != nil {
		s.metrics.CandlesFetched.Add(float64(len(candles)))
	}

	start := time.Now()
	outcome, res := s.analyzer.GenerateSignal(candles, account)
	if s.metrics != nil {
		s.metrics.AnalysisDur.Observe(time.Since(start).Seconds())
		s.metrics.SignalsTotal.WithLabelValues(string(outcome.Kind)).Inc()
		if res != nil {
			for _, ce := range res.ComponentErrors {
				component, _, _ := strings.Cut(ce, ":")
				s.metrics.ComponentFails.WithLabelValues(component).Inc()
			}
		}
	}
	out.Outcome = &outcome

	if s.cache != nil {
		if raw, err := json.Marshal(&outcome); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.cfg.CacheTTL); err != nil && s.log != nil {
				s.log.Warn("cache write failed", slog.String("symbol", symbol), slog.Any("err", err))
			}
		}
	}
	return out
}

func (s *Scanner) cacheKey(symbol string) string {
	return fmt.Sprintf("scan:%s:%s:%d", symbol, s.cfg.Timeframe, s.cfg.CandleCount)
}

func (s *Scanner) failSymbol(symbol string, err error) {
	if s.metrics != nil {
		s.metrics.SymbolFailures.Inc()
	}
	if s.log != nil {
		s.log.Error("symbol scan failed", slog.String("symbol", symbol), slog.Any("err", err))
	}
}
