package indicator

import (
	"errors"
	"testing"
)

// alternatingPrices builds n bars flipping between base+amp and base-amp.
func alternatingPrices(base, amp float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = base + amp
		} else {
			out[i] = base - amp
		}
	}
	return out
}

func TestComputeBBWPExpansion(t *testing.T) {
	// Calm history, violent tail: the current band width should rank near the
	// top of its trailing window.
	prices := append(alternatingPrices(100, 0.1, 50), alternatingPrices(100, 5, 10)...)
	res, err := ComputeBBWP(prices, 10, 2, 20)
	if err != nil {
		t.Fatalf("ComputeBBWP: %v", err)
	}
	if res.Percentile <= bbwpExpansionPct {
		t.Errorf("percentile = %v, want > %v", res.Percentile, bbwpExpansionPct)
	}
	if !res.Expansion || res.Squeeze {
		t.Errorf("expansion/squeeze = %v/%v, want true/false", res.Expansion, res.Squeeze)
	}
}

func TestComputeBBWPSqueeze(t *testing.T) {
	// Violent history, calm tail: every width in the trailing window matches
	// the current one, so nothing ranks strictly below it.
	prices := append(alternatingPrices(100, 5, 10), alternatingPrices(100, 0.1, 50)...)
	res, err := ComputeBBWP(prices, 10, 2, 20)
	if err != nil {
		t.Fatalf("ComputeBBWP: %v", err)
	}
	if res.Percentile >= bbwpSqueezePct {
		t.Errorf("percentile = %v, want < %v", res.Percentile, bbwpSqueezePct)
	}
	if !res.Squeeze || res.Expansion {
		t.Errorf("squeeze/expansion = %v/%v, want true/false", res.Squeeze, res.Expansion)
	}
}

func TestComputeBBWPErrors(t *testing.T) {
	_, err := ComputeBBWP(alternatingPrices(100, 1, 5), 10, 2, 20)
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want *InsufficientDataError", err)
	}
	if insufficient.Need != 20 {
		t.Errorf("need = %d, want 20", insufficient.Need)
	}

	var calc *CalculationError
	if _, err := ComputeBBWP(alternatingPrices(100, 1, 60), 0, 2, 20); !errors.As(err, &calc) {
		t.Errorf("zero period: err = %v, want *CalculationError", err)
	}
}
