package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/rben01/covid19-sub000/internal/models"
)

const (
	mapWidth  = 960
	mapHeight = 500

	// Choropleth fill ramp endpoints, light to dark, interpolated in the log
	// domain of the metric.
	rampLowR, rampLowG, rampLowB    = 0xfe, 0xe8, 0xc8
	rampHighR, rampHighG, rampHighB = 0x7f, 0x00, 0x00

	noDataFill = "#d4d4d4"
	borderInk  = "#ffffff"
)

// Choropleth renders one day of one metric as a filled map. Fill intensity is
// log-scaled over the dataset-wide [min nonzero, max] range, so a frame
// sequence over successive days stays on one fixed color scale.
type Choropleth struct {
	Width  int
	Height int
	logger *zap.SugaredLogger
}

func NewChoropleth(logger *zap.Logger) *Choropleth {
	return &Choropleth{Width: mapWidth, Height: mapHeight, logger: logger.Sugar()}
}

// Render draws the frame for dayIdx (clamped to the dataset's range).
func (c *Choropleth) Render(ds *models.Dataset, fc *geojson.FeatureCollection, m models.Metric, dayIdx int) string {
	if ds == nil || fc == nil || len(fc.Features) == 0 {
		c.logger.Debugw("skipping map frame without boundaries")
		return ""
	}
	if dayIdx < 0 {
		dayIdx = 0
	}
	if days := ds.Days(); dayIdx >= days {
		dayIdx = days - 1
	}

	rng, _ := ds.Agg.Range(m)
	scale := newLogScale(rng, m.Accumulation)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`,
		c.Width, c.Height, c.Width, c.Height))
	sb.WriteString(`<rect width="100%" height="100%" fill="#eef3f7" />`)

	title := fmt.Sprintf("%s, %s (%s)", m.Affliction, m.CountMethod, m.Accumulation)
	if dayIdx < len(ds.Dates) {
		title += " - " + ds.Dates[dayIdx].Format("Jan 2, 2006")
	}
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="24" fill="#222" font-family="Arial" font-size="16" text-anchor="middle">%s</text>`,
		c.Width/2, escapeText(title)))

	for _, f := range fc.Features {
		code, _ := f.Properties["code"].(string)
		fill := noDataFill
		if r, ok := ds.Regions[code]; ok {
			if v, ok := valueAt(r, m, dayIdx); ok {
				fill = rampColor(scale.norm(v))
			}
		}
		c.writeFeature(&sb, f.Geometry, fill)
	}

	sb.WriteString(`</svg>`)
	return sb.String()
}

// valueAt reads the region's sample for the day, clamping past the end of
// regions whose history is shorter than the dataset axis.
func valueAt(r *models.RegionSeries, m models.Metric, dayIdx int) (float64, bool) {
	s := r.SeriesFor(m)
	if s.Len() == 0 {
		return 0, false
	}
	if dayIdx >= s.Len() {
		dayIdx = s.Len() - 1
	}
	return s.At(dayIdx)
}

func (c *Choropleth) writeFeature(sb *strings.Builder, g orb.Geometry, fill string) {
	switch geom := g.(type) {
	case orb.Polygon:
		c.writePolygon(sb, geom, fill)
	case orb.MultiPolygon:
		for _, p := range geom {
			c.writePolygon(sb, p, fill)
		}
	}
}

func (c *Choropleth) writePolygon(sb *strings.Builder, p orb.Polygon, fill string) {
	var path strings.Builder
	for _, ring := range p {
		for i, pt := range ring {
			x, y := c.project(pt)
			if i == 0 {
				fmt.Fprintf(&path, "M%.1f %.1f", x, y)
			} else {
				fmt.Fprintf(&path, " L%.1f %.1f", x, y)
			}
		}
		path.WriteString(" Z")
	}
	sb.WriteString(fmt.Sprintf(`<path d="%s" fill="%s" stroke="%s" stroke-width="0.5" />`,
		path.String(), fill, borderInk))
}

// project maps lon/lat onto the canvas with a plate carree projection. Good
// enough for a thumbnail-scale world or US map.
func (c *Choropleth) project(pt orb.Point) (float64, float64) {
	x := (pt[0] + 180) / 360 * float64(c.Width)
	y := (90 - pt[1]) / 180 * float64(c.Height)
	return x, y
}

// rampColor interpolates the fill ramp at t in [0, 1].
func rampColor(t float64) string {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	lerp := func(a, b int) int { return a + int(math.Round(t*float64(b-a))) }
	return fmt.Sprintf("#%02x%02x%02x",
		lerp(rampLowR, rampHighR),
		lerp(rampLowG, rampHighG),
		lerp(rampLowB, rampHighB),
	)
}
