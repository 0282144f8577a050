package models

import (
	"math"
)

// Series is one region's numeric array, index-aligned with the region's date
// axis. Missing observations (JSON nulls in the feed) are stored as a NaN
// sentinel that never leaves this package: callers read samples through the
// comma-ok accessors so "absent" can never be confused with zero.
type Series []float64

// NewSeries builds a Series from decoded feed values, where nil means the
// source had no observation for that date.
func NewSeries(vals []*float64) Series {
	s := make(Series, len(vals))
	for i, v := range vals {
		if v == nil {
			s[i] = math.NaN()
		} else {
			s[i] = *v
		}
	}
	return s
}

func (s Series) Len() int { return len(s) }

// At returns the sample at index i. The second return is false when i is out
// of range or the observation is missing.
func (s Series) At(i int) (float64, bool) {
	if i < 0 || i >= len(s) || math.IsNaN(s[i]) {
		return 0, false
	}
	return s[i], true
}

// Last returns the last defined sample.
func (s Series) Last() (float64, bool) {
	if i := s.LastIndex(); i >= 0 {
		return s[i], true
	}
	return 0, false
}

// LastIndex returns the index of the last defined sample, or -1.
func (s Series) LastIndex() int {
	for i := len(s) - 1; i >= 0; i-- {
		if !math.IsNaN(s[i]) {
			return i
		}
	}
	return -1
}

// HasData reports whether any sample is defined.
func (s Series) HasData() bool { return s.LastIndex() >= 0 }

// DayOverDay derives the daily-increase series from a cumulative one. The
// first entry has no prior day to difference against and stays missing; a
// diff is likewise missing whenever either operand is. Negative revisions
// are clamped to zero, matching the feed pipeline's aggregate treatment.
func (s Series) DayOverDay() Series {
	d := make(Series, len(s))
	for i := range s {
		if i == 0 || math.IsNaN(s[i]) || math.IsNaN(s[i-1]) {
			d[i] = math.NaN()
			continue
		}
		diff := s[i] - s[i-1]
		if diff < 0 {
			diff = 0
		}
		d[i] = diff
	}
	return d
}
