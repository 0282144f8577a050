// Package render produces static SVG charts from ranked projections and
// datasets. Charts are built by hand with strings.Builder; no template or
// plotting dependency carries its weight for output this regular.
package render

import (
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rben01/covid19-sub000/internal/logic"
	"github.com/rben01/covid19-sub000/internal/models"
)

const (
	chartWidth   = 900
	chartHeight  = 520
	chartPadding = 60
	legendRowH   = 18
)

// LineChart renders one ranked projection as a multi-line SVG chart with a
// per-region legend table.
type LineChart struct {
	Width  int
	Height int
	logger *zap.SugaredLogger
}

func NewLineChart(logger *zap.Logger) *LineChart {
	return &LineChart{
		Width:  chartWidth,
		Height: chartHeight,
		logger: logger.Sugar(),
	}
}

// Render returns the chart SVG, or "" when the projection has no lines (a
// chart with only axes is worse than no chart).
func (c *LineChart) Render(rs *models.RankedSeries, agg models.AggStats, summaries map[string]logic.LegendSummary) string {
	if rs == nil || len(rs.Lines) == 0 {
		c.logger.Debugw("skipping empty chart", "eligible", eligibleOf(rs))
		return ""
	}

	rng, _ := agg.Range(rs.Query.Metric)
	scale := newLogScale(rng, rs.Query.Metric.Accumulation)
	origin := dateOrigin(rs)
	minDay, maxDay := dayExtent(rs, origin)
	plotW := c.Width - 2*chartPadding
	plotH := c.Height - 2*chartPadding - legendHeight(rs)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`,
		c.Width, c.Height, c.Width, c.Height))
	sb.WriteString(`<rect width="100%" height="100%" fill="white" />`)

	sb.WriteString(fmt.Sprintf(`<text x="%d" y="30" fill="#222" font-family="Arial" font-size="18" text-anchor="middle">%s</text>`,
		c.Width/2, chartTitle(rs.Query)))

	c.writeGrid(&sb, scale, plotW, plotH)
	c.writeXAxis(&sb, rs, origin, minDay, maxDay, plotW, plotH)

	for _, line := range rs.Lines {
		c.writeLine(&sb, line, scale, origin, minDay, maxDay, plotW, plotH)
	}
	c.writeLegend(&sb, rs, summaries, plotH)

	sb.WriteString(`</svg>`)
	return sb.String()
}

func eligibleOf(rs *models.RankedSeries) int {
	if rs == nil {
		return 0
	}
	return rs.Eligible
}

func legendHeight(rs *models.RankedSeries) int {
	return (len(rs.Lines) + 1) * legendRowH
}

func chartTitle(q models.RankQuery) string {
	title := fmt.Sprintf("%s, %s (%s)", q.Metric.Affliction, q.Metric.CountMethod, q.Metric.Accumulation)
	if q.Metric.CountMethod == models.DayOverDay && q.Window > 1 {
		title += fmt.Sprintf(", %d-day average", q.Window)
	}
	return title
}

// dateOrigin finds the earliest plotted date, the zero of the x axis on
// fixed-date charts. Outbreak-axis points carry no dates; origin stays zero.
func dateOrigin(rs *models.RankedSeries) time.Time {
	var origin time.Time
	for _, l := range rs.Lines {
		for _, p := range l.Points {
			if !p.Date.IsZero() && (origin.IsZero() || p.Date.Before(origin)) {
				origin = p.Date
			}
		}
	}
	return origin
}

// pointDay positions a point on the shared x axis: its day offset on the
// outbreak axis, or days since the chart origin on the fixed-date axis.
func pointDay(p models.ChartPoint, origin time.Time) int {
	if p.Date.IsZero() {
		return p.Day
	}
	return int(p.Date.Sub(origin).Hours() / 24)
}

// dayExtent finds the shared x range across all lines.
func dayExtent(rs *models.RankedSeries, origin time.Time) (int, int) {
	minDay, maxDay := math.MaxInt32, math.MinInt32
	for _, l := range rs.Lines {
		for _, p := range l.Points {
			d := pointDay(p, origin)
			if d < minDay {
				minDay = d
			}
			if d > maxDay {
				maxDay = d
			}
		}
	}
	if minDay > maxDay {
		return 0, 1
	}
	if minDay == maxDay {
		maxDay++
	}
	return minDay, maxDay
}

func (c *LineChart) writeGrid(sb *strings.Builder, scale logScale, plotW, plotH int) {
	for _, tick := range scale.ticks() {
		y := chartPadding + plotH - int(scale.norm(tick)*float64(plotH))
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#ddd" stroke-width="1" />`,
			chartPadding, y, chartPadding+plotW, y))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="#666" font-family="Arial" font-size="11" text-anchor="end">%s</text>`,
			chartPadding-6, y+4, formatValue(tick)))
	}
}

func (c *LineChart) writeXAxis(sb *strings.Builder, rs *models.RankedSeries, origin time.Time, minDay, maxDay, plotW, plotH int) {
	y := chartPadding + plotH
	sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#444" stroke-width="1" />`,
		chartPadding, y, chartPadding+plotW, y))

	label := "Date"
	if rs.Query.Axis == models.OutbreakStart {
		label = "Days since local spread started"
	}
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="#222" font-family="Arial" font-size="13" text-anchor="middle">%s</text>`,
		chartPadding+plotW/2, y+32, label))

	span := maxDay - minDay
	step := span / 8
	if step < 1 {
		step = 1
	}
	for d := minDay; d <= maxDay; d += step {
		x := chartPadding + int(float64(d-minDay)/float64(span)*float64(plotW))
		tick := fmt.Sprintf("%d", d)
		if !origin.IsZero() {
			tick = origin.AddDate(0, 0, d).Format("Jan 2")
		}
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="#666" font-family="Arial" font-size="11" text-anchor="middle">%s</text>`,
			x, y+16, tick))
	}
}

func (c *LineChart) writeLine(sb *strings.Builder, line models.RankedLine, scale logScale, origin time.Time, minDay, maxDay, plotW, plotH int) {
	if len(line.Points) == 0 {
		return
	}
	span := maxDay - minDay
	var path strings.Builder
	for i, p := range line.Points {
		d := pointDay(p, origin)
		x := chartPadding + int(float64(d-minDay)/float64(span)*float64(plotW))
		y := chartPadding + plotH - int(scale.norm(p.Value)*float64(plotH))
		if i == 0 {
			fmt.Fprintf(&path, "M%d %d", x, y)
		} else {
			fmt.Fprintf(&path, " L%d %d", x, y)
		}
	}
	sb.WriteString(fmt.Sprintf(`<path d="%s" fill="none" stroke="%s" stroke-width="2" />`,
		path.String(), line.Color))
}

func (c *LineChart) writeLegend(sb *strings.Builder, rs *models.RankedSeries, summaries map[string]logic.LegendSummary, plotH int) {
	top := chartPadding + plotH + 44
	headers := []string{"Location", "Cases", "Deaths", "CFR", "Since", "Doubling (d)"}
	cols := []int{chartPadding, 320, 420, 510, 580, 680}

	for i, h := range headers {
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="#222" font-family="Arial" font-size="12" font-weight="bold">%s</text>`,
			cols[i], top, h))
	}

	for i, line := range rs.Lines {
		y := top + (i+1)*legendRowH
		sum := summaries[line.Code]

		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="10" height="10" fill="%s" />`,
			cols[0], y-9, line.Color))
		cells := []string{
			fmt.Sprintf("%d. %s", line.Rank, escapeText(line.Name)),
			formatValue(sum.Confirmed),
			formatValue(sum.Deaths),
			formatPercent(sum.Mortality),
			formatDate(sum.StartDate),
			formatDoubling(sum),
		}
		for j, cell := range cells {
			x := cols[j]
			if j == 0 {
				x += 16
			}
			sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="#333" font-family="Arial" font-size="12">%s</text>`,
				x, y, cell))
		}
	}
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	switch {
	case v != 0 && math.Abs(v) < 0.01:
		return fmt.Sprintf("%.2e", v)
	case math.Abs(v) < 100:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	default:
		return groupThousands(int64(math.Round(v)))
	}
}

func formatPercent(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", v*100)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.Format("Jan 2")
}

func formatDoubling(sum logic.LegendSummary) string {
	parts := make([]string, 0, 3)
	for _, d := range []float64{sum.NetDoubling, sum.Doubling20, sum.Doubling10} {
		if math.IsNaN(d) {
			parts = append(parts, "n/a")
		} else {
			parts = append(parts, fmt.Sprintf("%.1f", d))
		}
	}
	return strings.Join(parts, " / ")
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var sb strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	if neg {
		return "-" + sb.String()
	}
	return sb.String()
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
