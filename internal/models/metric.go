package models

// Affliction is the disease stage being counted.
type Affliction int

const (
	Cases Affliction = iota
	Deaths
)

func (a Affliction) String() string {
	if a == Deaths {
		return "deaths"
	}
	return "cases"
}

// Accumulation distinguishes absolute counts from per-capita normalization.
// Per-capita feed values are pre-scaled by 1e5 (counts per 100k people).
type Accumulation int

const (
	Absolute Accumulation = iota
	PerCapita
)

func (a Accumulation) String() string {
	if a == PerCapita {
		return "per_capita"
	}
	return "absolute"
}

// CountMethod selects cumulative totals or day-over-day increases.
type CountMethod int

const (
	Net CountMethod = iota
	DayOverDay
)

func (c CountMethod) String() string {
	if c == DayOverDay {
		return "dodd"
	}
	return "net"
}

// SeriesKey identifies one of the four per-region arrays shipped in the feed.
type SeriesKey struct {
	Affliction   Affliction
	Accumulation Accumulation
}

// FeedKey returns the JSON field name for this array in the feed document.
func (k SeriesKey) FeedKey() string {
	switch {
	case k.Affliction == Cases && k.Accumulation == Absolute:
		return "cases"
	case k.Affliction == Cases && k.Accumulation == PerCapita:
		return "cases_per_capita"
	case k.Affliction == Deaths && k.Accumulation == Absolute:
		return "deaths"
	default:
		return "deaths_per_capita"
	}
}

// ParseSeriesKey maps a feed field name back to a SeriesKey.
func ParseSeriesKey(s string) (SeriesKey, bool) {
	for _, k := range AllSeriesKeys() {
		if k.FeedKey() == s {
			return k, true
		}
	}
	return SeriesKey{}, false
}

// AllSeriesKeys lists the four arrays in feed order.
func AllSeriesKeys() [4]SeriesKey {
	return [4]SeriesKey{
		{Cases, Absolute},
		{Cases, PerCapita},
		{Deaths, Absolute},
		{Deaths, PerCapita},
	}
}

// Metric is a full selector: which array to read and how to count it.
type Metric struct {
	Affliction   Affliction
	Accumulation Accumulation
	CountMethod  CountMethod
}

// SeriesKey drops the count method, identifying the underlying array.
func (m Metric) SeriesKey() SeriesKey {
	return SeriesKey{Affliction: m.Affliction, Accumulation: m.Accumulation}
}

// Slug is a filesystem- and metric-label-safe name for the selection.
func (m Metric) Slug() string {
	return m.SeriesKey().FeedKey() + "_" + m.CountMethod.String()
}

const (
	// DefaultTopN is the number of ranked series shown per chart.
	DefaultTopN = 10

	// MaxSmoothingWindow is the largest honored moving-average window; the
	// feed's aggregate dodd minima are computed against the same bound.
	MaxSmoothingWindow = 7
)
