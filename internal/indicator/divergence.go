package indicator

import (
	"math"
	"sort"
)

// DivergenceType is the direction a divergence argues for.
type DivergenceType string

// DivergenceSubtype distinguishes reversal from continuation divergences.
type DivergenceSubtype string

const (
	DivergenceBullish DivergenceType = "bullish"
	DivergenceBearish DivergenceType = "bearish"

	DivergenceClassic DivergenceSubtype = "classic"
	DivergenceHidden  DivergenceSubtype = "hidden"
)

// hiddenWeight discounts continuation divergences against reversals.
const hiddenWeight = 0.8

// Divergence is a price/oscillator disagreement across two same-kind pivots.
type Divergence struct {
	Type            DivergenceType    `json:"type"`
	Subtype         DivergenceSubtype `json:"subtype"`
	Strength        float64           `json:"strength"` // 0-100
	PricePivots     [2]Pivot          `json:"price_pivots"`
	IndicatorPivots [2]Pivot          `json:"indicator_pivots"`
	BarsBetween     int               `json:"bars_between"`
	Confirmed       bool              `json:"confirmed"` // later closes followed through
}

// DivergenceConfig tunes the detector.
type DivergenceConfig struct {
	MinPeriod         int     // minimum bars between the two price pivots
	MaxLookback       int     // maximum bars between the two price pivots
	MatchRadius       int     // max index distance between price and RSI pivot
	StrengthThreshold float64 // drop divergences weaker than this
	MaxResults        int     // keep only the N strongest
}

// DefaultDivergenceConfig returns the standard detector tuning.
func DefaultDivergenceConfig() DivergenceConfig {
	return DivergenceConfig{
		MinPeriod:         5,
		MaxLookback:       60,
		MatchRadius:       3,
		StrengthThreshold: 60,
		MaxResults:        5,
	}
}

// DivergenceDetector compares price pivots against RSI pivots.
type DivergenceDetector struct {
	cfg DivergenceConfig
}

// NewDivergenceDetector creates a detector with the given config.
func NewDivergenceDetector(cfg DivergenceConfig) *DivergenceDetector {
	return &DivergenceDetector{cfg: cfg}
}

// Detect finds classic and hidden divergences between price and RSI.
//
// pricePivots and rsiPivots must share the same index coordinate space
// (the caller aligns RSI pivot indices onto price bar indices). For each
// pair of consecutive same-kind price pivots separated by [MinPeriod,
// MaxLookback] bars, the nearest RSI pivot within MatchRadius of each price
// pivot is matched. Results are filtered by StrengthThreshold and truncated
// to the MaxResults strongest.
func (d *DivergenceDetector) Detect(prices []float64, pricePivots []Pivot, rsiPivots []Pivot) []Divergence {
	var found []Divergence
	found = append(found, d.scan(prices, pricePivots, rsiPivots, PivotValley)...)
	found = append(found, d.scan(prices, pricePivots, rsiPivots, PivotPeak)...)

	out := found[:0]
	for _, div := range found {
		if div.Strength >= d.cfg.StrengthThreshold {
			out = append(out, div)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Strength > out[j].Strength })
	if len(out) > d.cfg.MaxResults {
		out = out[:d.cfg.MaxResults]
	}
	return out
}

func (d *DivergenceDetector) scan(prices []float64, pricePivots, rsiPivots []Pivot, kind PivotKind) []Divergence {
	same := make([]Pivot, 0, len(pricePivots))
	for _, p := range pricePivots {
		if p.Kind == kind {
			same = append(same, p)
		}
	}

	var out []Divergence
	for i := 1; i < len(same); i++ {
		p1, p2 := same[i-1], same[i]
		bars := p2.Index - p1.Index
		if bars < d.cfg.MinPeriod || bars > d.cfg.MaxLookback {
			continue
		}

		r1, ok1 := nearestPivot(rsiPivots, kind, p1.Index, d.cfg.MatchRadius)
		r2, ok2 := nearestPivot(rsiPivots, kind, p2.Index, d.cfg.MatchRadius)
		if !ok1 || !ok2 {
			continue
		}

		div, ok := classify(kind, p1, p2, r1, r2)
		if !ok {
			continue
		}
		div.BarsBetween = bars
		div.Strength = d.strength(div, p1, p2, r1, r2, bars)
		div.Confirmed = confirmed(prices, p2, div.Type)
		out = append(out, div)
	}
	return out
}

// classify maps the four pivot relationships onto divergence type/subtype.
func classify(kind PivotKind, p1, p2, r1, r2 Pivot) (Divergence, bool) {
	div := Divergence{
		PricePivots:     [2]Pivot{p1, p2},
		IndicatorPivots: [2]Pivot{r1, r2},
	}
	switch kind {
	case PivotValley:
		switch {
		case p2.Value < p1.Value && r2.Value > r1.Value:
			// Lower low in price, higher low in RSI: reversal up.
			div.Type, div.Subtype = DivergenceBullish, DivergenceClassic
		case p2.Value > p1.Value && r2.Value < r1.Value:
			// Higher low in price, lower low in RSI: uptrend continuation.
			div.Type, div.Subtype = DivergenceBullish, DivergenceHidden
		default:
			return div, false
		}
	case PivotPeak:
		switch {
		case p2.Value > p1.Value && r2.Value < r1.Value:
			div.Type, div.Subtype = DivergenceBearish, DivergenceClassic
		case p2.Value < p1.Value && r2.Value > r1.Value:
			div.Type, div.Subtype = DivergenceBearish, DivergenceHidden
		default:
			return div, false
		}
	}
	return div, true
}

// strength combines price change, RSI delta, recency and RSI extremity into
// a 0-100 score. Hidden divergences score 0.8x the classic equivalent.
func (d *DivergenceDetector) strength(div Divergence, p1, p2, r1, r2 Pivot, bars int) float64 {
	priceChangePct := 0.0
	if p1.Value != 0 {
		priceChangePct = math.Abs(p2.Value-p1.Value) / math.Abs(p1.Value) * 100.0
	}
	rsiDelta := math.Abs(r2.Value - r1.Value)
	recency := math.Max(0.5, 1.0-float64(bars)/50.0)

	base := (priceChangePct*8 + rsiDelta*2) * recency

	// Divergences printed at RSI extremes carry more weight.
	switch div.Type {
	case DivergenceBullish:
		if r2.Value < 40 {
			base += (40 - r2.Value) * 0.75
		}
	case DivergenceBearish:
		if r2.Value > 60 {
			base += (r2.Value - 60) * 0.75
		}
	}

	s := math.Min(100, math.Max(0, base))
	if div.Subtype == DivergenceHidden {
		s *= hiddenWeight
	}
	return s
}

// confirmed applies the deterministic follow-through rule: at least two
// closes after the later price pivot on the divergence side of it.
func confirmed(prices []float64, later Pivot, typ DivergenceType) bool {
	n := 0
	for i := later.Index + 1; i < len(prices); i++ {
		if typ == DivergenceBullish && prices[i] > later.Value {
			n++
		}
		if typ == DivergenceBearish && prices[i] < later.Value {
			n++
		}
		if n >= 2 {
			return true
		}
	}
	return false
}

// nearestPivot finds the same-kind pivot closest to index within radius.
func nearestPivot(pivots []Pivot, kind PivotKind, index, radius int) (Pivot, bool) {
	best := Pivot{}
	bestDist := radius + 1
	for _, p := range pivots {
		if p.Kind != kind {
			continue
		}
		dist := p.Index - index
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			best, bestDist = p, dist
		}
	}
	return best, bestDist <= radius
}
