package render

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/rben01/covid19-sub000/internal/logic"
	"github.com/rben01/covid19-sub000/internal/models"
)

var casesNet = models.Metric{
	Affliction:   models.Cases,
	Accumulation: models.Absolute,
	CountMethod:  models.Net,
}

func testAgg() models.AggStats {
	agg := models.AggStats{
		Net:        map[models.SeriesKey]models.ValueRange{},
		DayOverDay: map[models.SeriesKey]models.ValueRange{},
	}
	for _, k := range models.AllSeriesKeys() {
		agg.Net[k] = models.ValueRange{Min: 0, Max: 10000, MinNonzero: 1}
		agg.DayOverDay[k] = models.ValueRange{Min: 0, Max: 1000, MinNonzero: 1}
	}
	return agg
}

func testRanked(points int) *models.RankedSeries {
	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	line := models.RankedLine{
		Rank:  1,
		Code:  "AA",
		Name:  "Aland",
		Color: "#1f77b4",
	}
	for i := 0; i < points; i++ {
		line.Points = append(line.Points, models.ChartPoint{
			Date:  start.AddDate(0, 0, i),
			Value: float64(100 * (i + 1)),
		})
	}
	return &models.RankedSeries{
		Query:    models.RankQuery{Metric: casesNet, N: 1, Window: 1},
		Eligible: 1,
		Lines:    []models.RankedLine{line},
	}
}

func TestLineChartSuppressesEmptyProjection(t *testing.T) {
	c := NewLineChart(zap.NewNop())
	if got := c.Render(nil, testAgg(), nil); got != "" {
		t.Errorf("nil projection should render nothing")
	}
	empty := &models.RankedSeries{Query: models.RankQuery{Metric: casesNet}}
	if got := c.Render(empty, testAgg(), nil); got != "" {
		t.Errorf("empty projection should render nothing")
	}
}

func TestLineChartOutput(t *testing.T) {
	c := NewLineChart(zap.NewNop())
	summaries := map[string]logic.LegendSummary{
		"AA": {
			Confirmed:   1000,
			Deaths:      100,
			Mortality:   0.1,
			StartDate:   time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
			NetDoubling: 3.5,
			Doubling20:  math.NaN(),
			Doubling10:  math.NaN(),
		},
	}
	svg := c.Render(testRanked(10), testAgg(), summaries)

	for _, want := range []string{
		`<svg`, `</svg>`,
		`stroke="#1f77b4"`,
		`1. Aland`,
		`1,000`,
		`10.0%`,
		`3.5 / n/a / n/a`,
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("chart missing %q", want)
		}
	}
}

func TestLogScale(t *testing.T) {
	s := newLogScale(models.ValueRange{Min: 0, Max: 1000, MinNonzero: 1}, models.Absolute)
	if s.base != 2 {
		t.Errorf("absolute counts should use base 2, got %v", s.base)
	}
	if got := newLogScale(models.ValueRange{Max: 10, MinNonzero: 0.1}, models.PerCapita); got.base != 10 {
		t.Errorf("per-capita rates should use base 10, got %v", got.base)
	}

	if got := s.norm(0); got != 0 {
		t.Errorf("norm(0) = %v, want 0 (clamped to floor)", got)
	}
	if got := s.norm(1000); got != 1 {
		t.Errorf("norm(max) = %v, want 1", got)
	}
	mid := s.norm(math.Sqrt(1000))
	if math.Abs(mid-0.5) > 1e-9 {
		t.Errorf("norm(geometric mid) = %v, want 0.5", mid)
	}
	if ticks := s.ticks(); len(ticks) == 0 || ticks[0] != 1 {
		t.Errorf("ticks should start at the scale floor, got %v", ticks)
	}
}

func TestRampColor(t *testing.T) {
	if got := rampColor(0); got != "#fee8c8" {
		t.Errorf("ramp low = %s", got)
	}
	if got := rampColor(1); got != "#7f0000" {
		t.Errorf("ramp high = %s", got)
	}
	if got := rampColor(math.NaN()); got != "#fee8c8" {
		t.Errorf("NaN should clamp to the ramp floor, got %s", got)
	}
}

func square(x0, y0, size float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{x0, y0}, {x0 + size, y0}, {x0 + size, y0 + size}, {x0, y0 + size}, {x0, y0},
	}}
}

func choroplethFixture(t *testing.T) (*models.Dataset, *geojson.FeatureCollection) {
	t.Helper()
	v1, v2, v3 := 100.0, 200.0, 400.0
	net := map[models.SeriesKey]models.Series{}
	for _, k := range models.AllSeriesKeys() {
		net[k] = models.NewSeries([]*float64{&v1, &v2, &v3})
	}
	axis := []time.Time{
		time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 3, 3, 0, 0, 0, 0, time.UTC),
	}
	r, err := models.NewRegionSeries("AA", axis, net, nil)
	if err != nil {
		t.Fatal(err)
	}
	ds := &models.Dataset{
		Scope:   "world",
		Regions: map[string]*models.RegionSeries{"AA": r},
		Agg:     testAgg(),
		Dates:   axis,
	}

	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(square(0, 0, 10))
	f.Properties["code"] = "AA"
	fc.Append(f)
	g := geojson.NewFeature(square(20, 20, 10))
	g.Properties["code"] = "ZZ"
	fc.Append(g)
	return ds, fc
}

func TestChoroplethFills(t *testing.T) {
	ds, fc := choroplethFixture(t)
	c := NewChoropleth(zap.NewNop())

	svg := c.Render(ds, fc, casesNet, 2)
	if svg == "" {
		t.Fatal("expected a rendered frame")
	}
	if !strings.Contains(svg, "Mar 3, 2020") {
		t.Errorf("frame title should carry the frame date")
	}
	if !strings.Contains(svg, `fill="`+noDataFill+`"`) {
		t.Errorf("regions without data should use the muted fill")
	}
	if strings.Count(svg, "<path") != 2 {
		t.Errorf("want one path per feature, got %d", strings.Count(svg, "<path"))
	}
	// The data-bearing region must not be muted.
	if strings.Count(svg, `fill="`+noDataFill+`"`) != 1 {
		t.Errorf("exactly one feature should be muted")
	}

	// Out-of-range day indices clamp instead of failing.
	if got := c.Render(ds, fc, casesNet, 99); got == "" {
		t.Errorf("day index past the axis should clamp to the last frame")
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{math.NaN(), "n/a"},
		{1234567, "1,234,567"},
		{42.5, "42.5"},
		{0, "0"},
		{0.0004, "4.00e-04"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.in); got != tt.want {
			t.Errorf("formatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
