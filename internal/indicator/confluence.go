package indicator

import "fmt"

// BiasNeutral marks factors (and results) with no directional argument.
const BiasNeutral Bias = "neutral"

// Factor is one scored contribution to a confluence read. Weight is the
// magnitude added to (or, for dampening factors, removed from) the score;
// Bias carries the factor's directional vote, BiasNeutral for none.
type Factor struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Bias   Bias    `json:"bias"`
	Detail string  `json:"detail,omitempty"`
}

// ConfluenceResult is the aggregate read over all factors.
type ConfluenceResult struct {
	Score     float64  `json:"score"` // 0-100
	Direction Bias     `json:"direction"`
	Factors   []Factor `json:"factors"`
}

// ConfluenceInput bundles the indicator outputs one scoring pass consumes.
// Any field may be zero/nil; the corresponding factor is then skipped.
type ConfluenceInput struct {
	Price       float64
	RSI         float64
	HasRSI      bool
	Divergences []Divergence
	BBWP        *BBWPResult
	Fib         *FibResult
	Levels      []Level
	Patterns    []Pattern
}

// ScorerConfig tunes factor weights and thresholds.
type ScorerConfig struct {
	Baseline           float64 // starting score before any factor
	RSIWeight          float64
	RSIOversold        float64
	RSIOverbought      float64
	DivergenceBase     float64 // flat weight for the strongest divergence
	DivergenceScale    float64 // extra weight scaled by divergence strength
	SqueezeWeight      float64 // volatility squeeze adds without voting
	ExpansionPenalty   float64 // volatility expansion dampens the score
	GoldenPocketWeight float64
	GoldenPocketDist   float64 // max distance (%) to a golden pocket level
	LevelWeight        float64
	LevelMaxDist       float64 // max distance (%) to a strong level
	LevelMinStrength   float64
	PatternBase        float64 // pattern weight before type/confidence scaling
	DirectionThreshold float64 // score needed before a direction is called
}

// DefaultScorerConfig returns the standard confluence tuning.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		Baseline:           50,
		RSIWeight:          15,
		RSIOversold:        30,
		RSIOverbought:      70,
		DivergenceBase:     20,
		DivergenceScale:    5,
		SqueezeWeight:      15,
		ExpansionPenalty:   10,
		GoldenPocketWeight: 15,
		GoldenPocketDist:   1.0,
		LevelWeight:        12,
		LevelMaxDist:       2.0,
		LevelMinStrength:   60,
		PatternBase:        20,
		DirectionThreshold: 60,
	}
}

// patternTypeWeight ranks formation families by historical reliability.
var patternTypeWeight = map[PatternType]float64{
	PatternHeadShoulders: 1.0,
	PatternDoubleTop:     0.9,
	PatternDoubleBottom:  0.9,
	PatternTriangle:      0.8,
}

// Scorer aggregates indicator outputs into a single confluence score.
type Scorer struct {
	cfg ScorerConfig
}

// NewScorer creates a scorer with the given config.
func NewScorer(cfg ScorerConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score folds every present factor into one 0-100 confluence score.
//
// Directional factors contribute their magnitude to the score and their
// sign to a separate direction vote, so strong bearish setups score just
// as high as bullish ones. Only the volatility-expansion factor dampens
// the score. A direction is called only when the score clears
// DirectionThreshold and the vote is not tied; otherwise the result is
// neutral.
func (s *Scorer) Score(in ConfluenceInput) ConfluenceResult {
	score := s.cfg.Baseline
	vote := 0.0
	var factors []Factor

	add := func(f Factor) {
		factors = append(factors, f)
		switch f.Bias {
		case BiasBullish:
			score += f.Weight
			vote += f.Weight
		case BiasBearish:
			score += f.Weight
			vote -= f.Weight
		default:
			score += f.Weight
		}
	}

	if in.HasRSI {
		switch {
		case in.RSI < s.cfg.RSIOversold:
			add(Factor{
				Name:   "rsi_oversold",
				Weight: s.cfg.RSIWeight,
				Bias:   BiasBullish,
				Detail: fmt.Sprintf("rsi=%.1f", in.RSI),
			})
		case in.RSI > s.cfg.RSIOverbought:
			add(Factor{
				Name:   "rsi_overbought",
				Weight: s.cfg.RSIWeight,
				Bias:   BiasBearish,
				Detail: fmt.Sprintf("rsi=%.1f", in.RSI),
			})
		}
	}

	if div, ok := strongestDivergence(in.Divergences); ok {
		bias := BiasBullish
		if div.Type == DivergenceBearish {
			bias = BiasBearish
		}
		add(Factor{
			Name:   "divergence_" + string(div.Type),
			Weight: s.cfg.DivergenceBase + s.cfg.DivergenceScale*div.Strength/100,
			Bias:   bias,
			Detail: fmt.Sprintf("%s strength=%.0f", div.Subtype, div.Strength),
		})
	}

	if in.BBWP != nil {
		if in.BBWP.Squeeze {
			// A squeeze raises the odds that any breakout follows through,
			// without arguing for a side.
			add(Factor{
				Name:   "volatility_squeeze",
				Weight: s.cfg.SqueezeWeight,
				Bias:   BiasNeutral,
				Detail: fmt.Sprintf("bbwp=%.1f", in.BBWP.Percentile),
			})
		} else if in.BBWP.Expansion {
			add(Factor{
				Name:   "volatility_expansion",
				Weight: -s.cfg.ExpansionPenalty,
				Bias:   BiasNeutral,
				Detail: fmt.Sprintf("bbwp=%.1f", in.BBWP.Percentile),
			})
		}
	}

	if in.Fib != nil {
		for _, lvl := range in.Fib.Levels {
			if !lvl.GoldenPocket || lvl.Distance > s.cfg.GoldenPocketDist {
				continue
			}
			bias := BiasBearish
			if in.Fib.Uptrend {
				bias = BiasBullish
			}
			add(Factor{
				Name:   "golden_pocket",
				Weight: s.cfg.GoldenPocketWeight,
				Bias:   bias,
				Detail: fmt.Sprintf("ratio=%.3f dist=%.2f%%", lvl.Ratio, lvl.Distance),
			})
			break
		}
	}

	if in.Price > 0 {
		if lvl, ok := nearestStrongLevel(in.Levels, in.Price, s.cfg.LevelMaxDist, s.cfg.LevelMinStrength); ok {
			bias := BiasBearish
			name := "near_resistance"
			if lvl.Type == LevelSupport {
				bias = BiasBullish
				name = "near_support"
			}
			add(Factor{
				Name:   name,
				Weight: s.cfg.LevelWeight,
				Bias:   bias,
				Detail: fmt.Sprintf("price=%.4f strength=%.0f", lvl.Price, lvl.Strength),
			})
		}
	}

	for _, p := range in.Patterns {
		w := s.cfg.PatternBase * patternTypeWeight[p.Type] * p.Confidence / 100
		if w <= 0 {
			continue
		}
		add(Factor{
			Name:   "pattern_" + string(p.Type),
			Weight: w,
			Bias:   p.Bias,
			Detail: fmt.Sprintf("%s confidence=%.0f", p.Subtype, p.Confidence),
		})
	}

	res := ConfluenceResult{
		Score:     clamp(score, 0, 100),
		Direction: BiasNeutral,
		Factors:   factors,
	}
	if res.Score > s.cfg.DirectionThreshold {
		switch {
		case vote > 0:
			res.Direction = BiasBullish
		case vote < 0:
			res.Direction = BiasBearish
		}
	}
	return res
}

// strongestDivergence picks the highest-strength divergence; detectors
// return results sorted strongest-first, but this does not rely on it.
func strongestDivergence(divs []Divergence) (Divergence, bool) {
	if len(divs) == 0 {
		return Divergence{}, false
	}
	best := divs[0]
	for _, d := range divs[1:] {
		if d.Strength > best.Strength {
			best = d
		}
	}
	return best, true
}

// nearestStrongLevel finds the closest unbroken level within maxDistPct of
// price that clears the strength floor.
func nearestStrongLevel(levels []Level, price, maxDistPct, minStrength float64) (Level, bool) {
	var best Level
	bestDist := maxDistPct
	found := false
	for _, lvl := range levels {
		if lvl.Broken || lvl.Strength < minStrength {
			continue
		}
		dist := (lvl.Price - price) / price * 100
		if dist < 0 {
			dist = -dist
		}
		if dist <= bestDist {
			best, bestDist, found = lvl, dist, true
		}
	}
	return best, found
}
