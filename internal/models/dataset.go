package models

import "time"

// ValueRange is the feed's precomputed aggregate for one array and count
// method. MinNonzero anchors log-scale color ramps and axis domains.
type ValueRange struct {
	Min        float64
	Max        float64
	MinNonzero float64
}

// AggStats carries the feed's scope-wide aggregates: value ranges per array
// per count method, the global outbreak thresholds, and the calendar span.
type AggStats struct {
	Net        map[SeriesKey]ValueRange
	DayOverDay map[SeriesKey]ValueRange

	// Thresholds are the fixed absolute/per-capita outbreak cutoffs the feed
	// pipeline used when precomputing per-region cutoff indices.
	Thresholds map[SeriesKey]float64

	FirstDate        time.Time
	LastDate         time.Time
	FirstNonzeroDate time.Time
}

// Range returns the aggregate value range for a metric selection.
func (a AggStats) Range(m Metric) (ValueRange, bool) {
	var src map[SeriesKey]ValueRange
	if m.CountMethod == DayOverDay {
		src = a.DayOverDay
	} else {
		src = a.Net
	}
	r, ok := src[m.SeriesKey()]
	return r, ok
}

// Dataset is one immutable feed scope ("usa" or "world"). It is built once
// at load and treated as read-only for the rest of the session.
type Dataset struct {
	Scope   string
	Regions map[string]*RegionSeries
	Agg     AggStats

	// Dates is the longest region axis in the scope; playback and fixed-date
	// charts index into it.
	Dates []time.Time
}

// Days returns the number of frames a playback of this dataset has.
func (d *Dataset) Days() int { return len(d.Dates) }
