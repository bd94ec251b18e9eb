package metrics

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the signal engine.
type Metrics struct {
	ScansTotal     prometheus.Counter
	AnalysisDur    prometheus.Histogram
	SignalsTotal   *prometheus.CounterVec // labels: outcome
	ComponentFails *prometheus.CounterVec // labels: component
	SymbolFailures prometheus.Counter
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CandlesFetched prometheus.Counter
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_scans_total",
			Help: "Total market scans started",
		}),
		AnalysisDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sigengine_analysis_duration_seconds",
			Help:    "Per-symbol analysis latency",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_signals_total",
			Help: "Signal generation outcomes (valid, neutral, rejected, filtered)",
		}, []string{"outcome"}),
		ComponentFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_component_failures_total",
			Help: "Non-fatal analysis component failures by component",
		}, []string{"component"}),
		SymbolFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_symbol_failures_total",
			Help: "Symbols that failed during a batch scan",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_cache_hits_total",
			Help: "Analysis result cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_cache_misses_total",
			Help: "Analysis result cache misses",
		}),
		CandlesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_candles_fetched_total",
			Help: "Candles fetched from the market data provider",
		}),
	}

	prometheus.MustRegister(
		m.ScansTotal,
		m.AnalysisDur,
		m.SignalsTotal,
		m.ComponentFails,
		m.SymbolFailures,
		m.CacheHits,
		m.CacheMisses,
		m.CandlesFetched,
	)

	return m
}

// Server runs an HTTP server exposing /metrics.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics server.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
