package models

import (
	"time"
)

// AxisMode picks the shared time axis ranked series are aligned to.
type AxisMode int

const (
	// FixedDate plots every region against the calendar.
	FixedDate AxisMode = iota
	// OutbreakStart plots each region against day offsets from its own
	// precomputed outbreak-cutoff index.
	OutbreakStart
)

func (a AxisMode) String() string {
	if a == OutbreakStart {
		return "from_local_spread_start"
	}
	return "from_fixed_date"
}

// RankQuery is the immutable per-render configuration for a top-N selection.
type RankQuery struct {
	Metric Metric

	// Window is the trailing moving-average width; 1 means raw values. It is
	// honored only for the day-over-day count method.
	Window int

	// N is the desired output size.
	N int

	// Offset skips that many higher-ranked regions (scroll control). Clamped
	// to [0, max(0, eligible-N)].
	Offset int

	Axis AxisMode

	// Epsilon filters chart points: values <= Epsilon are omitted so a
	// log-scale domain never sees nonpositive input.
	Epsilon float64
}

// ChartPoint is one plotted sample. Date is set on the fixed-date axis; Day
// is the offset from the outbreak cutoff on the local-outbreak axis.
type ChartPoint struct {
	Date  time.Time
	Day   int
	Value float64
}

// RankedLine is one region's visible, aligned, optionally smoothed series.
// Points may be empty: a region whose values never clear the epsilon stays
// ranked but renders as an empty line.
type RankedLine struct {
	Rank    int
	Code    string
	Name    string
	Color   string
	Current float64
	Points  []ChartPoint
}

// LastValue returns the final plotted value, used for legend ordering.
func (l RankedLine) LastValue() (float64, bool) {
	if len(l.Points) == 0 {
		return 0, false
	}
	return l.Points[len(l.Points)-1].Value, true
}

// RankedSeries is the projection handed to chart renderers. It is recomputed
// on every interaction and never persisted.
type RankedSeries struct {
	Query    RankQuery
	Eligible int
	Lines    []RankedLine
}
