// cmd/backfill imports historical candles from a CSV file into the SQLite
// store so the scanner has data to analyze. Rows are
// "timestamp,open,high,low,close,volume" with the timestamp in Unix seconds;
// a header row is skipped automatically. Re-importing overlapping ranges is
// safe: rows upsert on (symbol, timeframe, ts).
//
// Usage:
//
//	go run ./cmd/backfill --symbol=BTCUSDT --tf=1h --csv=btc_1h.csv
package main

import (
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"signal-enginev1/config"
	"signal-enginev1/internal/model"
	sqlitestore "signal-enginev1/internal/store/sqlite"
)

const batchSize = 1000

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	cfg := config.Load()
	symbol := flag.String("symbol", "", "Symbol to import, e.g. BTCUSDT")
	tf := flag.String("tf", cfg.Timeframe, "Timeframe label, e.g. 1h")
	csvPath := flag.String("csv", "", "CSV file to import")
	dbPath := flag.String("db", cfg.SQLitePath, "Path to SQLite database")
	flag.Parse()

	if *symbol == "" || *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	os.MkdirAll(filepath.Dir(*dbPath), 0o755)
	store, err := sqlitestore.New(sqlitestore.Config{DBPath: *dbPath})
	if err != nil {
		log.Fatalf("[backfill] sqlite open failed: %v", err)
	}
	defer store.Close()

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("[backfill] open csv: %v", err)
	}
	defer f.Close()

	imported, skipped := 0, 0
	batch := make([]model.Candle, 0, batchSize)
	r := csv.NewReader(f)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("[backfill] read csv: %v", err)
		}
		c, ok := parseRow(rec, *symbol, *tf)
		if !ok {
			skipped++
			continue
		}
		batch = append(batch, c)
		if len(batch) == batchSize {
			if err := store.SaveCandles(batch); err != nil {
				log.Fatalf("[backfill] save batch: %v", err)
			}
			imported += len(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := store.SaveCandles(batch); err != nil {
			log.Fatalf("[backfill] save batch: %v", err)
		}
		imported += len(batch)
	}

	last, err := store.LastTimestamp(*symbol, *tf)
	if err != nil {
		log.Fatalf("[backfill] last timestamp: %v", err)
	}
	log.Printf("[backfill] imported %d candles for %s %s (%d rows skipped), newest bar %s",
		imported, *symbol, *tf, skipped, last.Format(time.RFC3339))
}

// parseRow converts one CSV record into a candle. Header rows and malformed
// records report !ok.
func parseRow(rec []string, symbol, tf string) (model.Candle, bool) {
	if len(rec) < 5 {
		return model.Candle{}, false
	}
	ts, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return model.Candle{}, false
	}
	vals := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(rec[i+1], 64)
		if err != nil {
			return model.Candle{}, false
		}
		vals[i] = v
	}
	var volume float64
	if len(rec) > 5 {
		volume, _ = strconv.ParseFloat(rec[5], 64)
	}
	return model.Candle{
		Symbol:    symbol,
		Timeframe: tf,
		TS:        time.Unix(ts, 0).UTC(),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    volume,
	}, true
}
