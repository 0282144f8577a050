package logic

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/rben01/covid19-sub000/internal/models"
)

var negInf = math.Inf(-1)

type rankingService struct {
	palette Palette
	logger  *zap.SugaredLogger
}

// NewRankingService builds the canonical ranking/smoothing implementation.
// palette may be nil, in which case lines carry no color.
func NewRankingService(palette Palette, logger *zap.Logger) RankingService {
	return &rankingService{palette: palette, logger: logger.Sugar()}
}

type candidate struct {
	region  *models.RegionSeries
	current float64
}

// SelectTopN ranks all eligible regions by current (optionally smoothed)
// value, slices out the scroll window, and aligns each selected region onto
// the requested time axis. Degenerate input yields an empty projection,
// never an error: callers suppress the render instead of handling a failure.
func (s *rankingService) SelectTopN(ds *models.Dataset, q models.RankQuery) *models.RankedSeries {
	q = normalizeQuery(q)
	out := &models.RankedSeries{Query: q}
	if ds == nil || len(ds.Regions) == 0 {
		return out
	}

	// Maps iterate in random order; rank from a fixed base order so equal
	// current values always tie-break the same way.
	codes := make([]string, 0, len(ds.Regions))
	for code := range ds.Regions {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	eligible := make([]candidate, 0, len(codes))
	for _, code := range codes {
		r := ds.Regions[code]
		cur, ok := currentValue(r, q)
		if !ok {
			continue
		}
		eligible = append(eligible, candidate{region: r, current: cur})
	}
	out.Eligible = len(eligible)
	if len(eligible) == 0 {
		s.logger.Debugw("no eligible regions for selection",
			"scope", ds.Scope,
			"metric", q.Metric.Slug(),
		)
		return out
	}

	// Full stable re-sort every call. Incrementally maintaining a running
	// extreme while replacing entries drifts from the sorted order; the full
	// sort is cheap at this scale and has one observable behavior.
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].current > eligible[j].current
	})

	offset := q.Offset
	if max := len(eligible) - q.N; offset > max {
		offset = max
	}
	if offset < 0 {
		offset = 0
	}
	end := offset + q.N
	if end > len(eligible) {
		end = len(eligible)
	}
	visible := eligible[offset:end]

	out.Lines = make([]models.RankedLine, 0, len(visible))
	for _, c := range visible {
		line := models.RankedLine{
			Code:    c.region.Code,
			Name:    c.region.Name,
			Current: c.current,
			Points:  s.buildPoints(c.region, q),
		}
		if s.palette != nil {
			line.Color = s.palette.Color(c.region.Code)
		}
		out.Lines = append(out.Lines, line)
	}

	// Legend order follows the last plotted value, which can diverge from
	// the selection order when epsilon filtering trims line tails.
	sort.SliceStable(out.Lines, func(i, j int) bool {
		return legendSortValue(out.Lines[i]) > legendSortValue(out.Lines[j])
	})
	for i := range out.Lines {
		out.Lines[i].Rank = offset + i + 1
	}

	return out
}

func normalizeQuery(q models.RankQuery) models.RankQuery {
	if q.N <= 0 {
		q.N = models.DefaultTopN
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	// Cumulative totals are never smoothed.
	if q.Metric.CountMethod != models.DayOverDay {
		q.Window = 1
	}
	if q.Window < 1 {
		q.Window = 1
	}
	if q.Window > models.MaxSmoothingWindow {
		q.Window = models.MaxSmoothingWindow
	}
	return q
}

// currentValue computes a region's ranking key: the trailing mean of the
// last Window day-over-day samples, or the last defined raw sample. Regions
// with no computable value are ineligible.
func currentValue(r *models.RegionSeries, q models.RankQuery) (float64, bool) {
	s := r.SeriesFor(q.Metric)
	if !s.HasData() {
		return 0, false
	}
	if q.Metric.CountMethod == models.DayOverDay && q.Window >= 2 {
		return MovingAverage(s, q.Window, s.Len()-1)
	}
	return s.Last()
}

func (s *rankingService) buildPoints(r *models.RegionSeries, q models.RankQuery) []models.ChartPoint {
	series := r.SeriesFor(q.Metric)
	start := 0
	if q.Axis == models.OutbreakStart {
		start = r.Cutoff(q.Metric.SeriesKey())
	}

	var points []models.ChartPoint
	for i := start; i < series.Len(); i++ {
		var v float64
		var ok bool
		if q.Window >= 2 {
			v, ok = smoothedAt(series, q.Window, i)
		} else {
			v, ok = series.At(i)
		}
		if !ok || v <= q.Epsilon {
			continue
		}
		pt := models.ChartPoint{Value: v}
		if q.Axis == models.OutbreakStart {
			pt.Day = i - start
		} else {
			pt.Date = r.DateAt(i)
		}
		points = append(points, pt)
	}
	return points
}

func legendSortValue(l models.RankedLine) float64 {
	if v, ok := l.LastValue(); ok {
		return v
	}
	// Empty lines sort to the bottom of the legend.
	return negInf
}
