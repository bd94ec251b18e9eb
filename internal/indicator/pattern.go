package indicator

import (
	"math"
	"sort"
)

// PatternType names a chart formation family.
type PatternType string

// PatternSubtype refines the formation within its family.
type PatternSubtype string

// Bias is the breakout direction a pattern argues for.
type Bias string

const (
	PatternTriangle      PatternType = "triangle"
	PatternHeadShoulders PatternType = "head_and_shoulders"
	PatternDoubleTop     PatternType = "double_top"
	PatternDoubleBottom  PatternType = "double_bottom"

	TriangleAscending   PatternSubtype = "ascending"
	TriangleDescending  PatternSubtype = "descending"
	TriangleSymmetrical PatternSubtype = "symmetrical"
	HSRegular           PatternSubtype = "regular"
	HSInverse           PatternSubtype = "inverse"

	BiasBullish Bias = "bullish"
	BiasBearish Bias = "bearish"
)

// PatternTargets is the trade geometry derived from a formation.
type PatternTargets struct {
	Entry      float64 `json:"entry"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
	Breakout   float64 `json:"breakout"`
}

// Pattern is a detected chart formation with its confidence and targets.
type Pattern struct {
	Type       PatternType    `json:"type"`
	Subtype    PatternSubtype `json:"subtype,omitempty"`
	Bias       Bias           `json:"bias"`
	Confidence float64        `json:"confidence"` // 0-100
	Start      int            `json:"start"`      // bar index of formation start
	End        int            `json:"end"`        // bar index of formation end
	Neckline   float64        `json:"neckline,omitempty"`
	Targets    PatternTargets `json:"targets"`
}

// PatternConfig tunes the recognizer.
type PatternConfig struct {
	MinPatternBars     int     // formation must span at least this many bars
	MaxPatternBars     int     // ... and at most this many
	PivotLookback      int     // confirmation window for formation pivots
	TrendlinePivots    int     // pivots per side fitted for triangle lines
	HorizontalSlopePct float64 // %/bar below which a trendline counts as flat
	MinConvergencePct  float64 // triangle spread narrowing window
	MaxConvergencePct  float64
	MinTrendlineR2     float64 // reject sloppy trendline fits
	ShoulderTolerance  float64 // max relative shoulder height mismatch
	PeakSimilarity     float64 // max relative height mismatch for double tops
	MinRetracePct      float64 // double top/bottom middle retracement window
	MaxRetracePct      float64
	MinConfidence      float64 // drop weaker formations
	MaxResults         int     // keep the N most confident
	VolumeConfirmation bool    // score volume behavior when volumes are given
}

// DefaultPatternConfig returns the standard recognizer tuning.
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{
		MinPatternBars:     15,
		MaxPatternBars:     120,
		PivotLookback:      3,
		TrendlinePivots:    4,
		HorizontalSlopePct: 0.04,
		MinConvergencePct:  2,
		MaxConvergencePct:  20,
		MinTrendlineR2:     0.5,
		ShoulderTolerance:  0.05,
		PeakSimilarity:     0.02,
		MinRetracePct:      3,
		MaxRetracePct:      20,
		MinConfidence:      60,
		MaxResults:         10,
		VolumeConfirmation: true,
	}
}

// patternContext carries the shared inputs of one Detect call.
type patternContext struct {
	highs, lows, closes, volumes []float64
	peaks, valleys               []Pivot
	merged                       []Pivot // peaks+valleys in index order
	current                      float64
}

// patternRule pairs a formation name with its detector. Rules run in a
// fixed order so the result set is auditable and each detector unit-testable
// in isolation.
type patternRule struct {
	name   string
	detect func(*patternContext) []Pattern
}

// Recognizer classifies chart formations from pivot geometry.
type Recognizer struct {
	cfg   PatternConfig
	rules []patternRule
}

// NewRecognizer creates a recognizer with the given config.
func NewRecognizer(cfg PatternConfig) *Recognizer {
	r := &Recognizer{cfg: cfg}
	r.rules = []patternRule{
		{name: "head_and_shoulders", detect: r.detectHeadShoulders},
		{name: "double_top_bottom", detect: r.detectDoubles},
		{name: "triangle", detect: r.detectTriangles},
	}
	return r
}

// Detect runs every pattern rule over the candle window, filters the results
// by MinConfidence and returns the MaxResults most confident formations.
// volumes may be nil; volume confirmation is then skipped.
func (r *Recognizer) Detect(highs, lows, closes, volumes []float64) []Pattern {
	if len(closes) < r.cfg.MinPatternBars {
		return nil
	}
	ctx := &patternContext{
		highs:   highs,
		lows:    lows,
		closes:  closes,
		volumes: volumes,
		peaks:   FindPivots(highs, PivotPeak, r.cfg.PivotLookback),
		valleys: FindPivots(lows, PivotValley, r.cfg.PivotLookback),
		current: closes[len(closes)-1],
	}
	ctx.merged = mergePivots(ctx.peaks, ctx.valleys)

	var all []Pattern
	for _, rule := range r.rules {
		all = append(all, rule.detect(ctx)...)
	}

	out := all[:0]
	for _, p := range all {
		if p.Confidence >= r.cfg.MinConfidence {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if len(out) > r.cfg.MaxResults {
		out = out[:r.cfg.MaxResults]
	}
	return out
}

// ---- head and shoulders ----

// detectHeadShoulders scans sliding windows of five alternating pivots:
// shoulder, valley, head, valley, shoulder (mirrored for the inverse form).
func (r *Recognizer) detectHeadShoulders(ctx *patternContext) []Pattern {
	var out []Pattern
	for i := 0; i+5 <= len(ctx.merged); i++ {
		w := ctx.merged[i : i+5]
		if !alternating(w) {
			continue
		}
		switch w[0].Kind {
		case PivotPeak:
			if p, ok := r.buildHeadShoulders(ctx, w, false); ok {
				out = append(out, p)
			}
		case PivotValley:
			if p, ok := r.buildHeadShoulders(ctx, w, true); ok {
				out = append(out, p)
			}
		}
	}
	return out
}

func (r *Recognizer) buildHeadShoulders(ctx *patternContext, w []Pivot, inverse bool) (Pattern, bool) {
	s1, n1, head, n2, s2 := w[0], w[1], w[2], w[3], w[4]

	span := s2.Index - s1.Index
	if span < r.cfg.MinPatternBars || span > r.cfg.MaxPatternBars {
		return Pattern{}, false
	}

	// The head must extend beyond both shoulders.
	if inverse {
		if head.Value >= s1.Value || head.Value >= s2.Value {
			return Pattern{}, false
		}
	} else {
		if head.Value <= s1.Value || head.Value <= s2.Value {
			return Pattern{}, false
		}
	}

	// Shoulder symmetry within tolerance.
	mean := (s1.Value + s2.Value) / 2
	if mean == 0 {
		return Pattern{}, false
	}
	symDiff := math.Abs(s1.Value-s2.Value) / mean
	if symDiff > r.cfg.ShoulderTolerance {
		return Pattern{}, false
	}

	// Neckline through the two inner pivots.
	neck, err := FitTrendline([]Pivot{n1, n2})
	if err != nil {
		return Pattern{}, false
	}
	lastIdx := len(ctx.closes) - 1
	neckAtEnd := neck.ValueAt(lastIdx)
	headDepth := math.Abs(head.Value - neck.ValueAt(head.Index))

	p := Pattern{
		Type:     PatternHeadShoulders,
		Subtype:  HSRegular,
		Bias:     BiasBearish,
		Start:    s1.Index,
		End:      s2.Index,
		Neckline: neckAtEnd,
	}
	if inverse {
		p.Subtype = HSInverse
		p.Bias = BiasBullish
		p.Targets = PatternTargets{
			Entry:      neckAtEnd,
			Breakout:   neckAtEnd,
			StopLoss:   s2.Value,
			TakeProfit: neckAtEnd + headDepth,
		}
	} else {
		p.Targets = PatternTargets{
			Entry:      neckAtEnd,
			Breakout:   neckAtEnd,
			StopLoss:   s2.Value,
			TakeProfit: neckAtEnd - headDepth,
		}
	}

	conf := 55.0
	conf += (1 - symDiff/r.cfg.ShoulderTolerance) * 20
	if span >= 2*r.cfg.MinPatternBars {
		conf += 15
	}
	if r.cfg.VolumeConfirmation && volumeAt(ctx.volumes, head.Index) > volumeAt(ctx.volumes, s2.Index) {
		// Fading volume into the right shoulder confirms distribution.
		conf += 10
	}
	p.Confidence = clamp(conf, 0, 100)
	return p, true
}

// ---- double top / bottom ----

func (r *Recognizer) detectDoubles(ctx *patternContext) []Pattern {
	var out []Pattern
	out = append(out, r.scanDoubles(ctx, ctx.peaks, ctx.valleys, true)...)
	out = append(out, r.scanDoubles(ctx, ctx.valleys, ctx.peaks, false)...)
	return out
}

// scanDoubles pairs adjacent same-kind extremes of similar height separated
// by an opposite-kind retracement inside the configured window.
func (r *Recognizer) scanDoubles(ctx *patternContext, extremes, between []Pivot, top bool) []Pattern {
	var out []Pattern
	for i := 1; i < len(extremes); i++ {
		p1, p2 := extremes[i-1], extremes[i]
		span := p2.Index - p1.Index
		if span < r.cfg.MinPatternBars || span > r.cfg.MaxPatternBars {
			continue
		}

		mean := (p1.Value + p2.Value) / 2
		if mean == 0 {
			continue
		}
		similarity := math.Abs(p1.Value-p2.Value) / mean
		if similarity > r.cfg.PeakSimilarity {
			continue
		}

		mid, ok := extremeBetween(between, p1.Index, p2.Index, !top)
		if !ok {
			continue
		}
		retrace := math.Abs(mean-mid.Value) / mean * 100
		if retrace < r.cfg.MinRetracePct || retrace > r.cfg.MaxRetracePct {
			continue
		}

		height := math.Abs(mean - mid.Value)
		p := Pattern{
			Start:    p1.Index,
			End:      p2.Index,
			Neckline: mid.Value,
		}
		if top {
			p.Type = PatternDoubleTop
			p.Bias = BiasBearish
			p.Targets = PatternTargets{
				Entry:      mid.Value,
				Breakout:   mid.Value,
				StopLoss:   math.Max(p1.Value, p2.Value),
				TakeProfit: mid.Value - height,
			}
		} else {
			p.Type = PatternDoubleBottom
			p.Bias = BiasBullish
			p.Targets = PatternTargets{
				Entry:      mid.Value,
				Breakout:   mid.Value,
				StopLoss:   math.Min(p1.Value, p2.Value),
				TakeProfit: mid.Value + height,
			}
		}

		conf := 55.0
		conf += (1 - similarity/r.cfg.PeakSimilarity) * 20
		if span >= 2*r.cfg.MinPatternBars {
			conf += 10
		}
		if r.cfg.VolumeConfirmation && volumeAt(ctx.volumes, p2.Index) < volumeAt(ctx.volumes, p1.Index) {
			// The second test of the level on lighter volume is the classic
			// exhaustion read.
			conf += 10
		}
		p.Confidence = clamp(conf, 0, 100)
		out = append(out, p)
	}
	return out
}

// ---- triangles ----

// detectTriangles fits trendlines to the most recent peaks and valleys and
// classifies the formation by slope signs against the horizontality
// threshold. Convergence is the percentage narrowing of the spread versus
// its value at the formation start.
func (r *Recognizer) detectTriangles(ctx *patternContext) []Pattern {
	peaks := tailPivots(ctx.peaks, r.cfg.TrendlinePivots)
	valleys := tailPivots(ctx.valleys, r.cfg.TrendlinePivots)
	if len(peaks) < 3 || len(valleys) < 3 {
		return nil
	}

	upper, err := FitTrendline(peaks)
	if err != nil || upper.R2 < r.cfg.MinTrendlineR2 {
		return nil
	}
	lower, err := FitTrendline(valleys)
	if err != nil || lower.R2 < r.cfg.MinTrendlineR2 {
		return nil
	}

	avgPrice := mean(ctx.closes)
	if avgPrice == 0 {
		return nil
	}
	upPct := upper.Slope / avgPrice * 100
	loPct := lower.Slope / avgPrice * 100
	h := r.cfg.HorizontalSlopePct

	var subtype PatternSubtype
	switch {
	case math.Abs(upPct) < h && loPct > h:
		subtype = TriangleAscending
	case upPct < -h && math.Abs(loPct) < h:
		subtype = TriangleDescending
	case upPct < -h && loPct > h:
		subtype = TriangleSymmetrical
	default:
		return nil
	}

	start := upper.Start
	if lower.Start < start {
		start = lower.Start
	}
	lastIdx := len(ctx.closes) - 1
	span := lastIdx - start
	if span < r.cfg.MinPatternBars || span > r.cfg.MaxPatternBars {
		return nil
	}

	s0 := upper.ValueAt(start) - lower.ValueAt(start)
	s1 := upper.ValueAt(lastIdx) - lower.ValueAt(lastIdx)
	if s0 <= 0 || s1 <= 0 {
		return nil
	}
	narrowing := (s0 - s1) / s0 * 100
	if narrowing < r.cfg.MinConvergencePct || narrowing > r.cfg.MaxConvergencePct {
		return nil
	}

	// The apex must sit ahead of the formation, not behind it.
	if apex, ok := upper.Intersection(lower); ok && apex <= float64(start) {
		return nil
	}

	bias := BiasBullish
	switch subtype {
	case TriangleDescending:
		bias = BiasBearish
	case TriangleSymmetrical:
		mid := (upper.ValueAt(lastIdx) + lower.ValueAt(lastIdx)) / 2
		if ctx.current < mid {
			bias = BiasBearish
		}
	}

	p := Pattern{
		Type:    PatternTriangle,
		Subtype: subtype,
		Bias:    bias,
		Start:   start,
		End:     lastIdx,
	}
	if bias == BiasBullish {
		breakout := upper.ValueAt(lastIdx)
		p.Targets = PatternTargets{
			Entry:      breakout,
			Breakout:   breakout,
			StopLoss:   lower.ValueAt(lastIdx),
			TakeProfit: breakout + s0,
		}
	} else {
		breakout := lower.ValueAt(lastIdx)
		p.Targets = PatternTargets{
			Entry:      breakout,
			Breakout:   breakout,
			StopLoss:   upper.ValueAt(lastIdx),
			TakeProfit: breakout - s0,
		}
	}

	conf := 45.0
	conf += (upper.R2 + lower.R2) / 2 * 30
	if span >= 2*r.cfg.MinPatternBars {
		conf += 10
	}
	if r.cfg.VolumeConfirmation && len(ctx.volumes) > span {
		// Volume drying up inside the formation is the textbook read.
		if mean(ctx.volumes[len(ctx.volumes)-span/2:]) < mean(ctx.volumes[len(ctx.volumes)-span:]) {
			conf += 10
		}
	}
	p.Confidence = clamp(conf, 0, 100)
	return []Pattern{p}
}

// ---- helpers ----

// mergePivots interleaves peaks and valleys by bar index.
func mergePivots(peaks, valleys []Pivot) []Pivot {
	out := make([]Pivot, 0, len(peaks)+len(valleys))
	out = append(out, peaks...)
	out = append(out, valleys...)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// alternating reports whether pivot kinds strictly alternate.
func alternating(pivots []Pivot) bool {
	for i := 1; i < len(pivots); i++ {
		if pivots[i].Kind == pivots[i-1].Kind {
			return false
		}
	}
	return true
}

// extremeBetween finds the deepest valley (or highest peak) strictly between
// two bar indices.
func extremeBetween(pivots []Pivot, start, end int, wantPeak bool) (Pivot, bool) {
	var best Pivot
	found := false
	for _, p := range pivots {
		if p.Index <= start || p.Index >= end {
			continue
		}
		if !found ||
			(wantPeak && p.Value > best.Value) ||
			(!wantPeak && p.Value < best.Value) {
			best, found = p, true
		}
	}
	return best, found
}

func tailPivots(pivots []Pivot, n int) []Pivot {
	if len(pivots) <= n {
		return pivots
	}
	return pivots[len(pivots)-n:]
}

func volumeAt(volumes []float64, idx int) float64 {
	if idx < 0 || idx >= len(volumes) {
		return 0
	}
	return volumes[idx]
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
