// cmd/analyzer runs a single full analysis for one symbol against stored
// candles and prints the result as JSON. Useful for inspecting what the
// scanner would see without running the whole service.
//
// Usage:
//
//	go run ./cmd/analyzer --symbol=BTCUSDT --tf=1h --count=200
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"signal-enginev1/config"
	"signal-enginev1/internal/analysis"
	"signal-enginev1/internal/logger"
	"signal-enginev1/internal/risk"
	sqlitestore "signal-enginev1/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	cfg := config.Load()
	symbol := flag.String("symbol", "BTCUSDT", "Symbol to analyze")
	tf := flag.String("tf", cfg.Timeframe, "Timeframe")
	count := flag.Int("count", cfg.CandleCount, "Candles to analyze")
	dbPath := flag.String("db", cfg.SQLitePath, "Path to SQLite database")
	full := flag.Bool("full", false, "Print the full analysis result, not just the outcome")
	flag.Parse()

	logr := logger.Init("analyzer", logger.ParseLevel(cfg.LogLevel))

	store, err := sqlitestore.New(sqlitestore.Config{DBPath: *dbPath})
	if err != nil {
		log.Fatalf("[analyzer] sqlite open failed: %v", err)
	}
	defer store.Close()

	candles, err := store.Candles(context.Background(), *symbol, *tf, *count)
	if err != nil {
		log.Fatalf("[analyzer] load candles: %v", err)
	}

	params := analysis.DefaultParams()
	params.RiskPct = cfg.RiskPct
	params.Leverage = cfg.Leverage
	analyzer := analysis.New(params, risk.DefaultLimits(), logr)

	outcome, result := analyzer.GenerateSignal(candles, analysis.Account{
		Balance:        cfg.Balance,
		InitialBalance: cfg.InitialBalance,
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if *full && result != nil {
		if err := enc.Encode(result); err != nil {
			log.Fatalf("[analyzer] encode result: %v", err)
		}
	}
	if err := enc.Encode(outcome); err != nil {
		log.Fatalf("[analyzer] encode outcome: %v", err)
	}
	fmt.Fprintf(os.Stderr, "analyzed %d candles of %s %s: %s\n", len(candles), *symbol, *tf, outcome.Kind)
}
