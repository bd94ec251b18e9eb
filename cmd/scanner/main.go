// cmd/scanner runs batch market scans over the configured symbol universe,
// publishes validated signals to the notification channels and exposes
// Prometheus metrics.
//
// Usage:
//
//	go run ./cmd/scanner --interval=5m
//
// With --interval=0 the scanner runs a single scan and exits.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"signal-enginev1/config"
	"signal-enginev1/internal/analysis"
	"signal-enginev1/internal/cache"
	"signal-enginev1/internal/logger"
	"signal-enginev1/internal/metrics"
	"signal-enginev1/internal/model"
	"signal-enginev1/internal/notification"
	"signal-enginev1/internal/risk"
	redisstore "signal-enginev1/internal/store/redis"
	sqlitestore "signal-enginev1/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	interval := flag.Duration("interval", 0, "Scan interval (0 = single scan)")
	flag.Parse()

	cfg := config.Load()
	logr := logger.Init("scanner", logger.ParseLevel(cfg.LogLevel))
	logr.Info("starting scanner", slog.String("symbols", cfg.Symbols), slog.String("timeframe", cfg.Timeframe))

	prom := metrics.NewMetrics()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr)
	metricsSrv.Start()

	os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755)
	store, err := sqlitestore.New(sqlitestore.Config{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[scanner] sqlite init failed: %v", err)
	}
	defer store.Close()

	// Redis is optional; fall back to an in-process cache when unavailable.
	var resultCache cache.Cache = cache.NewMemory()
	if cfg.RedisAddr != "" {
		redisCache, err := redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("[scanner] WARNING: redis init failed: %v (using in-memory cache)", err)
		} else {
			defer redisCache.Close()
			resultCache = redisCache
		}
	}

	notifier := buildNotifier(cfg)

	params := analysis.DefaultParams()
	params.RiskPct = cfg.RiskPct
	params.Leverage = cfg.Leverage
	analyzer := analysis.New(params, risk.DefaultLimits(), logr)
	scanner := analysis.NewScanner(analyzer, store, resultCache, prom, logr, analysis.ScannerConfig{
		Timeframe:   cfg.Timeframe,
		CandleCount: cfg.CandleCount,
		Workers:     cfg.Workers,
		CacheTTL:    cfg.CacheTTL,
	})

	account := analysis.Account{
		Balance:        cfg.Balance,
		InitialBalance: cfg.InitialBalance,
	}
	symbols := cfg.ParseSymbols()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logr.Info("shutdown signal received")
		cancel()
	}()

	runScan(ctx, scanner, notifier, logr, symbols, account)
	if *interval > 0 {
		ticker := time.NewTicker(*interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				shutdown(metricsSrv)
				return
			case <-ticker.C:
				runScan(ctx, scanner, notifier, logr, symbols, account)
			}
		}
	}
	shutdown(metricsSrv)
}

func runScan(ctx context.Context, scanner *analysis.Scanner, notifier notification.Notifier, logr *slog.Logger, symbols []string, account analysis.Account) {
	start := time.Now()
	results := scanner.Scan(ctx, symbols, account)

	valid, failed := 0, 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		if r.Cached || r.Outcome == nil {
			continue
		}
		switch r.Outcome.Kind {
		case model.OutcomeValid:
			valid++
			if err := notifier.Send(ctx, notification.SignalAlert(r.Outcome.Signal)); err != nil {
				logr.Warn("signal notification failed", slog.String("symbol", r.Symbol), slog.Any("err", err))
			}
		case model.OutcomeFiltered:
			if err := notifier.Send(ctx, notification.GuardrailAlert(*r.Outcome)); err != nil {
				logr.Warn("guardrail notification failed", slog.String("symbol", r.Symbol), slog.Any("err", err))
			}
		}
	}

	logr.Info("scan complete",
		slog.Int("symbols", len(results)),
		slog.Int("valid", valid),
		slog.Int("failed", failed),
		slog.Duration("took", time.Since(start)))
}

func buildNotifier(cfg *config.Config) notification.Notifier {
	notifiers := []notification.Notifier{notification.NewLogNotifier()}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifiers = append(notifiers, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
		log.Println("[scanner] telegram notifier enabled")
	}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notification.NewWebhookNotifier(cfg.WebhookURL))
		log.Println("[scanner] webhook notifier enabled")
	}
	return notification.NewFanout(notifiers...)
}

func shutdown(srv *metrics.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Stop(ctx)
}
