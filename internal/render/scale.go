package render

import (
	"math"

	"github.com/rben01/covid19-sub000/internal/models"
)

// logScale maps a value range onto [0, 1] logarithmically. Absolute counts
// use base 2 (doubling lines are evenly spaced); per-capita rates use base 10.
type logScale struct {
	min  float64
	max  float64
	base float64
}

func newLogScale(r models.ValueRange, acc models.Accumulation) logScale {
	base := 2.0
	if acc == models.PerCapita {
		base = 10
	}
	min := r.MinNonzero
	if min <= 0 {
		min = 1
	}
	max := r.Max
	if max <= min {
		max = min * base
	}
	return logScale{min: min, max: max, base: base}
}

// norm positions v in [0, 1]. Values at or below the scale floor clamp to 0.
func (s logScale) norm(v float64) float64 {
	if v <= s.min {
		return 0
	}
	if v >= s.max {
		return 1
	}
	return math.Log(v/s.min) / math.Log(s.max/s.min)
}

// ticks returns one tick per power of the base across the scale.
func (s logScale) ticks() []float64 {
	var out []float64
	lo := math.Ceil(math.Log(s.min) / math.Log(s.base))
	hi := math.Floor(math.Log(s.max) / math.Log(s.base))
	for e := lo; e <= hi; e++ {
		out = append(out, math.Pow(s.base, e))
	}
	return out
}
