package indicator

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// LevelType marks which side of price a level defends.
type LevelType string

const (
	LevelSupport    LevelType = "support"
	LevelResistance LevelType = "resistance"
)

// LevelSource says how a level was derived.
type LevelSource string

const (
	LevelFromCluster LevelSource = "cluster"
	LevelFromPsych   LevelSource = "psychological"
)

// Level is a support/resistance zone. Cluster levels always carry at least
// MinTouches touches; psychological levels are synthetic round-number zones
// with zero touches.
type Level struct {
	Price           float64     `json:"price"`
	Type            LevelType   `json:"type"`
	Source          LevelSource `json:"source"`
	Strength        float64     `json:"strength"`   // 0-100
	Confidence      float64     `json:"confidence"` // 0-100
	Touches         int         `json:"touches"`
	FirstTouchIndex int         `json:"first_touch_index"`
	LastTouchIndex  int         `json:"last_touch_index"`
	Broken          bool        `json:"broken"`
}

// ClusterConfig tunes the level clusterer.
type ClusterConfig struct {
	PivotLookback  int     // confirmation window for candidate pivots
	Tolerance      float64 // max |price - clusterAvg| / clusterAvg to join a cluster
	MinTouches     int     // touches required to report a level
	RecentCloses   int     // closes inspected for break detection
	BreakTolerance float64 // adverse close must exceed the level by this fraction
}

// DefaultClusterConfig returns the standard clusterer tuning.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		PivotLookback:  3,
		Tolerance:      0.005,
		MinTouches:     2,
		RecentCloses:   5,
		BreakTolerance: 0.002,
	}
}

// Clusterer groups nearby pivots into support/resistance levels.
// Clustering is deterministic: identical inputs yield identical levels.
type Clusterer struct {
	cfg ClusterConfig
}

// NewClusterer creates a clusterer with the given config.
func NewClusterer(cfg ClusterConfig) *Clusterer {
	return &Clusterer{cfg: cfg}
}

type cluster struct {
	typ        LevelType
	avg        float64
	touches    int
	firstTouch int
	lastTouch  int
}

// Cluster derives levels from a candle window: pivot highs become resistance
// candidates, pivot lows support candidates. A point joins the nearest open
// cluster of its type when it sits within Tolerance of the cluster's running
// mean; otherwise it opens a new cluster. Levels are returned sorted by
// price ascending.
func (c *Clusterer) Cluster(highs, lows, closes []float64) []Level {
	peaks := FindPivots(highs, PivotPeak, c.cfg.PivotLookback)
	valleys := FindPivots(lows, PivotValley, c.cfg.PivotLookback)

	clusters := make([]*cluster, 0, len(peaks)+len(valleys))
	clusters = c.absorb(clusters, peaks, LevelResistance)
	clusters = c.absorb(clusters, valleys, LevelSupport)

	var levels []Level
	for _, cl := range clusters {
		if cl.touches < c.cfg.MinTouches {
			continue
		}
		span := cl.lastTouch - cl.firstTouch
		lvl := Level{
			Price:           cl.avg,
			Type:            cl.typ,
			Source:          LevelFromCluster,
			Touches:         cl.touches,
			FirstTouchIndex: cl.firstTouch,
			LastTouchIndex:  cl.lastTouch,
			Strength:        levelStrength(cl.touches, span),
			Confidence:      levelConfidence(cl.touches, span),
			Broken:          c.broken(cl, closes),
		}
		levels = append(levels, lvl)
	}

	sort.Slice(levels, func(i, j int) bool { return levels[i].Price < levels[j].Price })
	return levels
}

// absorb feeds pivots (in index order) into the cluster set.
func (c *Clusterer) absorb(clusters []*cluster, pivots []Pivot, typ LevelType) []*cluster {
	for _, p := range pivots {
		var best *cluster
		bestDist := math.MaxFloat64
		for _, cl := range clusters {
			if cl.typ != typ || cl.avg == 0 {
				continue
			}
			dist := math.Abs(p.Value-cl.avg) / cl.avg
			if dist <= c.cfg.Tolerance && dist < bestDist {
				best, bestDist = cl, dist
			}
		}
		if best == nil {
			clusters = append(clusters, &cluster{
				typ:        typ,
				avg:        p.Value,
				touches:    1,
				firstTouch: p.Index,
				lastTouch:  p.Index,
			})
			continue
		}
		// Running mean over all members.
		best.avg = (best.avg*float64(best.touches) + p.Value) / float64(best.touches+1)
		best.touches++
		if p.Index > best.lastTouch {
			best.lastTouch = p.Index
		}
	}
	return clusters
}

// broken reports whether any recent close crossed the level by more than
// BreakTolerance on the adverse side.
func (c *Clusterer) broken(cl *cluster, closes []float64) bool {
	start := len(closes) - c.cfg.RecentCloses
	if start < 0 {
		start = 0
	}
	for _, close := range closes[start:] {
		if cl.typ == LevelSupport && close < cl.avg*(1-c.cfg.BreakTolerance) {
			return true
		}
		if cl.typ == LevelResistance && close > cl.avg*(1+c.cfg.BreakTolerance) {
			return true
		}
	}
	return false
}

func levelStrength(touches, spanBars int) float64 {
	s := math.Min(80, float64(touches)*20) + math.Min(20, float64(spanBars)/24)
	return math.Min(100, s)
}

func levelConfidence(touches, spanBars int) float64 {
	c := math.Min(80, float64(touches)/5*100)
	if spanBars > 48 {
		c += 20
	} else {
		c += 10
	}
	return math.Min(100, c)
}

// psychRangePct bounds how far from the current price round-number levels
// are generated.
const psychRangePct = 5.0

// PsychologicalLevels generates round-number levels near the current price,
// scored by proximity and numeric roundness (trailing zeros over digit
// count). Levels below the price are supports, above it resistances.
func PsychologicalLevels(currentPrice float64, maxLevels int) []Level {
	if currentPrice <= 0 || maxLevels <= 0 {
		return nil
	}

	// Step sizes: one and half of the order of magnitude one below the price.
	magnitude := math.Pow(10, math.Floor(math.Log10(currentPrice)))
	steps := []float64{magnitude / 10, magnitude / 2, magnitude}

	seen := make(map[float64]bool)
	var levels []Level
	for _, step := range steps {
		if step <= 0 {
			continue
		}
		lo := currentPrice * (1 - psychRangePct/100)
		hi := currentPrice * (1 + psychRangePct/100)
		for p := math.Ceil(lo/step) * step; p <= hi; p += step {
			if p <= 0 || seen[p] || p == currentPrice {
				continue
			}
			seen[p] = true

			proximity := 1.0 - math.Abs(p-currentPrice)/currentPrice/(psychRangePct/100)
			round := roundness(p)
			typ := LevelSupport
			if p > currentPrice {
				typ = LevelResistance
			}
			levels = append(levels, Level{
				Price:      p,
				Type:       typ,
				Source:     LevelFromPsych,
				Strength:   math.Min(100, proximity*40+round*60),
				Confidence: math.Min(100, proximity*30+round*50),
			})
		}
	}

	sort.Slice(levels, func(i, j int) bool { return levels[i].Strength > levels[j].Strength })
	if len(levels) > maxLevels {
		levels = levels[:maxLevels]
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price < levels[j].Price })
	return levels
}

// roundness scores how "round" a price looks: trailing zeros of its integer
// representation over its digit count, in [0,1].
func roundness(price float64) float64 {
	n := int64(math.Round(price))
	if n <= 0 {
		return 0
	}
	s := strconv.FormatInt(n, 10)
	trimmed := strings.TrimRight(s, "0")
	zeros := len(s) - len(trimmed)
	return float64(zeros) / float64(len(s))
}
