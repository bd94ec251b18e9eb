package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"signal-enginev1/internal/model"
)

func testCandles(n int) []model.Candle {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Candle, n)
	for i := range out {
		price := 100 + float64(i)
		out[i] = model.Candle{
			Symbol:    "BTCUSDT",
			Timeframe: "1h",
			TS:        start.Add(time.Duration(i) * time.Hour),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price + 0.5,
			Volume:    10,
		}
	}
	return out
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store, err := New(Config{DBPath: filepath.Join(t.TempDir(), "candles.db")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer store.Close()

	all := testCandles(48)
	if err := store.SaveCandles(all); err != nil {
		t.Fatalf("SaveCandles: %v", err)
	}

	got, err := store.Candles(context.Background(), "BTCUSDT", "1h", 10)
	if err != nil {
		t.Fatalf("Candles: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	// Most recent 10 bars, oldest first.
	for i, c := range got {
		want := all[38+i]
		if !c.TS.Equal(want.TS) || c.Close != want.Close {
			t.Errorf("candle %d = %v/%v, want %v/%v", i, c.TS, c.Close, want.TS, want.Close)
		}
	}

	last, err := store.LastTimestamp("BTCUSDT", "1h")
	if err != nil {
		t.Fatalf("LastTimestamp: %v", err)
	}
	if !last.Equal(all[47].TS) {
		t.Errorf("last = %v, want %v", last, all[47].TS)
	}
}

func TestSaveIsUpsert(t *testing.T) {
	store, err := New(Config{DBPath: filepath.Join(t.TempDir(), "candles.db")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer store.Close()

	all := testCandles(5)
	if err := store.SaveCandles(all); err != nil {
		t.Fatalf("SaveCandles: %v", err)
	}
	// Re-import the same range with a revised close.
	all[4].Close = 999
	if err := store.SaveCandles(all); err != nil {
		t.Fatalf("SaveCandles (again): %v", err)
	}

	got, err := store.Candles(context.Background(), "BTCUSDT", "1h", 100)
	if err != nil {
		t.Fatalf("Candles: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5 (duplicates must replace)", len(got))
	}
	if got[4].Close != 999 {
		t.Errorf("close = %v, want the replacement 999", got[4].Close)
	}
}

func TestLoadMissingSeries(t *testing.T) {
	store, err := New(Config{DBPath: filepath.Join(t.TempDir(), "candles.db")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer store.Close()

	if _, err := store.Candles(context.Background(), "ETHUSDT", "1h", 10); err == nil {
		t.Error("Candles succeeded for a series that was never stored")
	}
	last, err := store.LastTimestamp("ETHUSDT", "1h")
	if err != nil {
		t.Fatalf("LastTimestamp: %v", err)
	}
	if !last.IsZero() {
		t.Errorf("last = %v, want zero for an empty series", last)
	}
}
