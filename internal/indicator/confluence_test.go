package indicator

import "testing"

func TestScoreEmptyInput(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())
	res := s.Score(ConfluenceInput{})
	if res.Score != 50 {
		t.Errorf("score = %v, want baseline 50", res.Score)
	}
	if res.Direction != BiasNeutral {
		t.Errorf("direction = %v, want neutral", res.Direction)
	}
	if len(res.Factors) != 0 {
		t.Errorf("factors = %+v, want none", res.Factors)
	}
}

func TestScoreRSIExtremes(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())

	res := s.Score(ConfluenceInput{HasRSI: true, RSI: 25})
	if res.Score != 65 || res.Direction != BiasBullish {
		t.Errorf("oversold = %v/%v, want 65/bullish", res.Score, res.Direction)
	}

	res = s.Score(ConfluenceInput{HasRSI: true, RSI: 75})
	if res.Score != 65 || res.Direction != BiasBearish {
		t.Errorf("overbought = %v/%v, want 65/bearish", res.Score, res.Direction)
	}

	// Mid-range RSI contributes nothing.
	res = s.Score(ConfluenceInput{HasRSI: true, RSI: 50})
	if res.Score != 50 || len(res.Factors) != 0 {
		t.Errorf("mid-range = %v with %d factors, want 50 with none", res.Score, len(res.Factors))
	}
}

func TestScoreExpansionDampens(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())
	res := s.Score(ConfluenceInput{
		HasRSI: true,
		RSI:    25,
		BBWP:   &BBWPResult{Percentile: 95, Expansion: true},
	})
	if res.Score != 55 {
		t.Errorf("score = %v, want 55 (65 dampened by 10)", res.Score)
	}
	// Below the direction threshold the result stays neutral even with a
	// bullish factor present.
	if res.Direction != BiasNeutral {
		t.Errorf("direction = %v, want neutral at score <= 60", res.Direction)
	}
}

func TestScoreClampsAndVotes(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())
	res := s.Score(ConfluenceInput{
		Price:  100,
		HasRSI: true,
		RSI:    25,
		Divergences: []Divergence{
			{Type: DivergenceBullish, Subtype: DivergenceClassic, Strength: 100},
		},
		BBWP: &BBWPResult{Percentile: 5, Squeeze: true},
		Fib: &FibResult{
			Uptrend: true,
			Levels: []FibLevel{
				{Ratio: 0.618, GoldenPocket: true, Distance: 0.5},
			},
		},
		Levels: []Level{
			{Price: 99.5, Type: LevelSupport, Source: LevelFromCluster, Strength: 80, Touches: 3},
		},
		Patterns: []Pattern{
			{Type: PatternHeadShoulders, Subtype: HSInverse, Bias: BiasBullish, Confidence: 100},
		},
	})
	if res.Score != 100 {
		t.Errorf("score = %v, want clamped to 100", res.Score)
	}
	if res.Direction != BiasBullish {
		t.Errorf("direction = %v, want bullish", res.Direction)
	}
	if len(res.Factors) != 6 {
		t.Errorf("factors = %d, want 6", len(res.Factors))
	}
}

func TestScoreTieStaysNeutral(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())
	// RSI argues long for 15 points, a 75-confidence head-and-shoulders argues
	// short for the same 15. High score, split vote.
	res := s.Score(ConfluenceInput{
		HasRSI: true,
		RSI:    25,
		Patterns: []Pattern{
			{Type: PatternHeadShoulders, Subtype: HSRegular, Bias: BiasBearish, Confidence: 75},
		},
	})
	if res.Score != 80 {
		t.Errorf("score = %v, want 80", res.Score)
	}
	if res.Direction != BiasNeutral {
		t.Errorf("direction = %v, want neutral on a tied vote", res.Direction)
	}
}

func TestScoreIgnoresBrokenAndWeakLevels(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())
	res := s.Score(ConfluenceInput{
		Price: 100,
		Levels: []Level{
			{Price: 99.5, Type: LevelSupport, Strength: 80, Broken: true},
			{Price: 100.5, Type: LevelResistance, Strength: 30},
			{Price: 150, Type: LevelResistance, Strength: 90}, // too far away
		},
	})
	if len(res.Factors) != 0 {
		t.Errorf("factors = %+v, want none", res.Factors)
	}
	if res.Score != 50 {
		t.Errorf("score = %v, want 50", res.Score)
	}
}
