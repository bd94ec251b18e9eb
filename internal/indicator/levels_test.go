package indicator

import (
	"reflect"
	"testing"
)

// clusterFixture repeatedly tests resistance near 110 (three touches) and
// support near 99 (two touches), ending mid-range so nothing is broken.
func clusterFixture() (highs, lows, closes []float64) {
	base := seriesFrom(100,
		seg{to: 110, n: 10},
		seg{to: 100, n: 10},
		seg{to: 110.3, n: 10},
		seg{to: 100.2, n: 10},
		seg{to: 109.9, n: 10},
		seg{to: 105, n: 10},
	)
	return base, shift(base, -1), shift(base, -0.5)
}

func TestClusterLevels(t *testing.T) {
	highs, lows, closes := clusterFixture()
	c := NewClusterer(DefaultClusterConfig())
	levels := c.Cluster(highs, lows, closes)

	var res, sup *Level
	for i := range levels {
		switch levels[i].Type {
		case LevelResistance:
			res = &levels[i]
		case LevelSupport:
			sup = &levels[i]
		}
	}
	if res == nil || sup == nil {
		t.Fatalf("levels = %+v, want one support and one resistance", levels)
	}

	if res.Touches != 3 {
		t.Errorf("resistance touches = %d, want 3", res.Touches)
	}
	// Running mean over 110, 110.3, 109.9.
	if want := ((110.0+110.3)/2*2 + 109.9) / 3; !approx(res.Price, want, 1e-9) {
		t.Errorf("resistance price = %v, want %v", res.Price, want)
	}
	if res.FirstTouchIndex != 10 || res.LastTouchIndex != 50 {
		t.Errorf("resistance touch span = %d..%d, want 10..50", res.FirstTouchIndex, res.LastTouchIndex)
	}
	// touches*20 capped at 80, plus span/24 capped at 20.
	if want := 60 + 40.0/24; !approx(res.Strength, want, 1e-9) {
		t.Errorf("resistance strength = %v, want %v", res.Strength, want)
	}
	if res.Broken {
		t.Error("resistance broken = true, want false")
	}

	if sup.Touches != 2 {
		t.Errorf("support touches = %d, want 2", sup.Touches)
	}
	if sup.Broken {
		t.Error("support broken = true, want false")
	}

	for i := 1; i < len(levels); i++ {
		if levels[i].Price < levels[i-1].Price {
			t.Fatal("levels not sorted by price")
		}
	}
}

func TestClusterDeterminism(t *testing.T) {
	highs, lows, closes := clusterFixture()
	c := NewClusterer(DefaultClusterConfig())
	a := c.Cluster(highs, lows, closes)
	b := c.Cluster(highs, lows, closes)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("clustering not deterministic:\n%+v\n%+v", a, b)
	}
}

func TestClusterBrokenSupport(t *testing.T) {
	base := seriesFrom(100,
		seg{to: 110, n: 10},
		seg{to: 100, n: 10},
		seg{to: 110.3, n: 10},
		seg{to: 100.2, n: 10},
		seg{to: 109.9, n: 10},
		seg{to: 95, n: 10}, // closes finish well below the support zone
	)
	c := NewClusterer(DefaultClusterConfig())
	levels := c.Cluster(base, shift(base, -1), shift(base, -0.5))

	for _, lvl := range levels {
		if lvl.Type == LevelSupport && !lvl.Broken {
			t.Errorf("support %v not marked broken", lvl.Price)
		}
	}
}

func TestPsychologicalLevels(t *testing.T) {
	levels := PsychologicalLevels(50000, 10)
	if len(levels) == 0 {
		t.Fatal("no psychological levels near 50000")
	}
	for _, lvl := range levels {
		if lvl.Source != LevelFromPsych {
			t.Errorf("source = %v, want psychological", lvl.Source)
		}
		if lvl.Price == 50000 {
			t.Error("current price emitted as a level")
		}
		dist := (lvl.Price - 50000) / 50000 * 100
		if dist < -psychRangePct || dist > psychRangePct {
			t.Errorf("level %v outside %v%% range", lvl.Price, psychRangePct)
		}
		if lvl.Price < 50000 && lvl.Type != LevelSupport {
			t.Errorf("level %v below price typed %v", lvl.Price, lvl.Type)
		}
		if lvl.Price > 50000 && lvl.Type != LevelResistance {
			t.Errorf("level %v above price typed %v", lvl.Price, lvl.Type)
		}
		if lvl.Strength <= 0 || lvl.Strength > 100 {
			t.Errorf("level %v strength = %v, outside (0,100]", lvl.Price, lvl.Strength)
		}
	}

	if got := PsychologicalLevels(50000, 2); len(got) > 2 {
		t.Errorf("len = %d, want <= 2", len(got))
	}
	if got := PsychologicalLevels(0, 5); got != nil {
		t.Errorf("zero price levels = %v, want nil", got)
	}
}
