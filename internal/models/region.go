package models

import (
	"fmt"
	"time"
)

// RegionSeries holds one region's full history: an ordered date axis, the
// four cumulative arrays from the feed, the four day-over-day arrays derived
// once at load, and the feed's precomputed outbreak-cutoff index per array.
type RegionSeries struct {
	Code string
	Name string

	dates   []time.Time
	net     map[SeriesKey]Series
	dodd    map[SeriesKey]Series
	cutoffs map[SeriesKey]int
}

// NewRegionSeries validates alignment and derives the day-over-day arrays.
// Every array must match the date axis in length; index i in every array is
// the same calendar date.
func NewRegionSeries(code string, dates []time.Time, net map[SeriesKey]Series, cutoffs map[SeriesKey]int) (*RegionSeries, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("region %s: empty date axis", code)
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("region %s: date axis not strictly increasing at index %d", code, i)
		}
	}

	r := &RegionSeries{
		Code:    code,
		Name:    code,
		dates:   dates,
		net:     make(map[SeriesKey]Series, 4),
		dodd:    make(map[SeriesKey]Series, 4),
		cutoffs: make(map[SeriesKey]int, 4),
	}
	for _, k := range AllSeriesKeys() {
		s, ok := net[k]
		if !ok {
			return nil, fmt.Errorf("region %s: missing %q array", code, k.FeedKey())
		}
		if s.Len() != len(dates) {
			return nil, fmt.Errorf("region %s: %q has %d values for %d dates", code, k.FeedKey(), s.Len(), len(dates))
		}
		r.net[k] = s
		r.dodd[k] = s.DayOverDay()
		if c, ok := cutoffs[k]; ok {
			r.cutoffs[k] = c
		}
	}
	return r, nil
}

// Dates returns the region's date axis. Callers must not mutate it.
func (r *RegionSeries) Dates() []time.Time { return r.dates }

// DateAt returns the calendar date at index i.
func (r *RegionSeries) DateAt(i int) time.Time { return r.dates[i] }

// SeriesFor returns the array selected by the metric (cumulative or derived
// day-over-day).
func (r *RegionSeries) SeriesFor(m Metric) Series {
	if m.CountMethod == DayOverDay {
		return r.dodd[m.SeriesKey()]
	}
	return r.net[m.SeriesKey()]
}

// Cutoff returns the precomputed local-outbreak start index for the array,
// clamped to the axis. A region that never crossed the threshold reports its
// series length (no points on the outbreak axis).
func (r *RegionSeries) Cutoff(k SeriesKey) int {
	c := r.cutoffs[k]
	if c < 0 {
		return 0
	}
	if c > len(r.dates) {
		return len(r.dates)
	}
	return c
}
