package logic

import (
	"math"
	"time"

	"github.com/rben01/covid19-sub000/internal/models"
)

// Trailing windows, in days, for the extra doubling-time legend columns.
var adtlDoublingWindows = []int{20, 10}

// LegendSummary is the current-state data shown alongside a ranked line in
// the chart legend. Float fields use NaN for "no data"; renderers format
// that as a placeholder.
type LegendSummary struct {
	Confirmed float64
	Deaths    float64

	// Mortality is deaths over confirmed at the latest date.
	Mortality float64

	// StartDate is the first date with a positive confirmed count; zero when
	// the region never reported one.
	StartDate time.Time

	// NetDoubling is the doubling time in days measured from the first
	// positive sample; Doubling20/Doubling10 measure over the trailing 20
	// and 10 days of positive samples.
	NetDoubling float64
	Doubling20  float64
	Doubling10  float64
}

// Summarize computes the legend row for one region at the given
// accumulation. Counts come from the cumulative arrays; doubling times are
// measured on the confirmed series.
func (s *rankingService) Summarize(r *models.RegionSeries, acc models.Accumulation) LegendSummary {
	confirmed := r.SeriesFor(models.Metric{Affliction: models.Cases, Accumulation: acc})
	deaths := r.SeriesFor(models.Metric{Affliction: models.Deaths, Accumulation: acc})

	sum := LegendSummary{
		Confirmed:   math.NaN(),
		Deaths:      math.NaN(),
		Mortality:   math.NaN(),
		NetDoubling: math.NaN(),
		Doubling20:  math.NaN(),
		Doubling10:  math.NaN(),
	}
	if v, ok := confirmed.Last(); ok {
		sum.Confirmed = v
	}
	if v, ok := deaths.Last(); ok {
		sum.Deaths = v
	}
	if !math.IsNaN(sum.Confirmed) && !math.IsNaN(sum.Deaths) && sum.Confirmed > 0 {
		sum.Mortality = sum.Deaths / sum.Confirmed
	}

	dates, values := positiveSamples(r, confirmed)
	if len(values) == 0 {
		return sum
	}
	sum.StartDate = dates[0]
	sum.NetDoubling = doublingTime(dates, values, 0)
	sum.Doubling20 = doublingTime(dates, values, len(values)-1-adtlDoublingWindows[0])
	sum.Doubling10 = doublingTime(dates, values, len(values)-1-adtlDoublingWindows[1])
	return sum
}

// positiveSamples filters to the defined, strictly positive samples of the
// series together with their dates. Doubling time is undefined at or below
// zero, so the filter happens before any window math.
func positiveSamples(r *models.RegionSeries, s models.Series) ([]time.Time, []float64) {
	var dates []time.Time
	var values []float64
	for i := 0; i < s.Len(); i++ {
		if v, ok := s.At(i); ok && v > 0 {
			dates = append(dates, r.DateAt(i))
			values = append(values, v)
		}
	}
	return dates, values
}

// doublingTime solves currentCount = thenCount * 2^(days/doublingTime) for
// the doubling time between the sample at fromIdx and the latest sample.
// NaN when the window falls off the series or the ratio admits no doubling.
func doublingTime(dates []time.Time, values []float64, fromIdx int) float64 {
	last := len(values) - 1
	if fromIdx < 0 || fromIdx >= last {
		return math.NaN()
	}
	ratio := values[last] / values[fromIdx]
	if ratio <= 1 {
		return math.NaN()
	}
	days := dates[last].Sub(dates[fromIdx]).Hours() / 24
	return days / math.Log2(ratio)
}
