// Package feed consumes the precomputed COVID JSON feed and the GeoJSON
// boundary feed. Both are fetched once at startup; the datasets they decode
// into are immutable for the rest of the session.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/rben01/covid19-sub000/internal/models"
)

const dateLayout = "2006-01-02"

var validate = validator.New()

// Wire types for the covid_data-<digest>.json document.

type document map[string]*scopeDocument

type scopeDocument struct {
	Agg  aggDocument                `json:"agg" validate:"required"`
	Data map[string]*regionDocument `json:"data" validate:"required,min=1,dive,required"`
}

type aggDocument struct {
	Net  aggGroup `json:"net" validate:"required"`
	Dodd aggGroup `json:"dodd" validate:"required"`
}

type aggGroup struct {
	Date            *dateRangeDoc      `json:"date"`
	Cases           *valueRangeDoc     `json:"cases" validate:"required"`
	CasesPerCapita  *valueRangeDoc     `json:"cases_per_capita" validate:"required"`
	Deaths          *valueRangeDoc     `json:"deaths" validate:"required"`
	DeathsPerCapita *valueRangeDoc     `json:"deaths_per_capita" validate:"required"`
	OutbreakCutoffs map[string]float64 `json:"outbreak_cutoffs"`
}

func (g aggGroup) rangeFor(k models.SeriesKey) *valueRangeDoc {
	switch k.FeedKey() {
	case "cases":
		return g.Cases
	case "cases_per_capita":
		return g.CasesPerCapita
	case "deaths":
		return g.Deaths
	default:
		return g.DeathsPerCapita
	}
}

type valueRangeDoc struct {
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	MinNonzero float64 `json:"min_nonzero"`
}

type dateRangeDoc struct {
	Min        string `json:"min"`
	Max        string `json:"max"`
	MinNonzero string `json:"min_nonzero"`
}

type regionDocument struct {
	// Date maps calendar date -> index into every value array.
	Date            map[string]int        `json:"date" validate:"required,min=1"`
	Net             map[string][]*float64 `json:"net" validate:"required"`
	OutbreakCutoffs map[string]int        `json:"outbreak_cutoffs"`
}

func decodeDocument(raw []byte) (document, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode feed document: %w", err)
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("feed document has no scopes")
	}
	for scope, sd := range doc {
		if sd == nil {
			return nil, fmt.Errorf("scope %q: empty document", scope)
		}
		if err := validate.Struct(sd); err != nil {
			return nil, fmt.Errorf("scope %q: %w", scope, err)
		}
	}
	return doc, nil
}

// buildDatasets turns the wire document into immutable datasets, one per
// scope, decoding and validating scopes concurrently.
func buildDatasets(ctx context.Context, doc document) (map[string]*models.Dataset, error) {
	out := make(map[string]*models.Dataset, len(doc))
	g, _ := errgroup.WithContext(ctx)

	type result struct {
		scope string
		ds    *models.Dataset
	}
	results := make(chan result, len(doc))

	for scope, sd := range doc {
		g.Go(func() error {
			ds, err := buildDataset(scope, sd)
			if err != nil {
				return err
			}
			results <- result{scope: scope, ds: ds}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(results)
	for r := range results {
		out[r.scope] = r.ds
	}
	return out, nil
}

func buildDataset(scope string, sd *scopeDocument) (*models.Dataset, error) {
	agg, err := buildAgg(sd.Agg)
	if err != nil {
		return nil, fmt.Errorf("scope %q: %w", scope, err)
	}

	ds := &models.Dataset{
		Scope:   scope,
		Regions: make(map[string]*models.RegionSeries, len(sd.Data)),
		Agg:     agg,
	}

	for code, rd := range sd.Data {
		region, err := buildRegion(code, rd)
		if err != nil {
			return nil, fmt.Errorf("scope %q: %w", scope, err)
		}
		ds.Regions[code] = region
		if len(region.Dates()) > len(ds.Dates) {
			ds.Dates = region.Dates()
		}
	}
	return ds, nil
}

func buildAgg(doc aggDocument) (models.AggStats, error) {
	agg := models.AggStats{
		Net:        make(map[models.SeriesKey]models.ValueRange, 4),
		DayOverDay: make(map[models.SeriesKey]models.ValueRange, 4),
		Thresholds: make(map[models.SeriesKey]float64, 4),
	}
	for _, k := range models.AllSeriesKeys() {
		n := doc.Net.rangeFor(k)
		d := doc.Dodd.rangeFor(k)
		agg.Net[k] = models.ValueRange{Min: n.Min, Max: n.Max, MinNonzero: n.MinNonzero}
		agg.DayOverDay[k] = models.ValueRange{Min: d.Min, Max: d.Max, MinNonzero: d.MinNonzero}
	}
	for name, v := range doc.Net.OutbreakCutoffs {
		if k, ok := models.ParseSeriesKey(name); ok {
			agg.Thresholds[k] = v
		}
	}

	if doc.Net.Date != nil {
		var err error
		if agg.FirstDate, err = time.Parse(dateLayout, doc.Net.Date.Min); err != nil {
			return agg, fmt.Errorf("agg first date: %w", err)
		}
		if agg.LastDate, err = time.Parse(dateLayout, doc.Net.Date.Max); err != nil {
			return agg, fmt.Errorf("agg last date: %w", err)
		}
		if doc.Net.Date.MinNonzero != "" {
			if agg.FirstNonzeroDate, err = time.Parse(dateLayout, doc.Net.Date.MinNonzero); err != nil {
				return agg, fmt.Errorf("agg first nonzero date: %w", err)
			}
		}
	}
	return agg, nil
}

func buildRegion(code string, rd *regionDocument) (*models.RegionSeries, error) {
	axis, err := buildDateAxis(code, rd.Date)
	if err != nil {
		return nil, err
	}

	net := make(map[models.SeriesKey]models.Series, 4)
	for _, k := range models.AllSeriesKeys() {
		vals, ok := rd.Net[k.FeedKey()]
		if !ok {
			return nil, fmt.Errorf("region %s: missing %q array", code, k.FeedKey())
		}
		net[k] = models.NewSeries(vals)
	}

	cutoffs := make(map[models.SeriesKey]int, len(rd.OutbreakCutoffs))
	for name, idx := range rd.OutbreakCutoffs {
		if k, ok := models.ParseSeriesKey(name); ok {
			cutoffs[k] = idx
		}
	}

	return models.NewRegionSeries(code, axis, net, cutoffs)
}

// buildDateAxis inverts the feed's date->index map into an ordered axis.
func buildDateAxis(code string, dates map[string]int) ([]time.Time, error) {
	axis := make([]time.Time, len(dates))
	seen := make([]bool, len(dates))
	for ds, idx := range dates {
		if idx < 0 || idx >= len(dates) {
			return nil, fmt.Errorf("region %s: date index %d out of range", code, idx)
		}
		if seen[idx] {
			return nil, fmt.Errorf("region %s: duplicate date index %d", code, idx)
		}
		t, err := time.Parse(dateLayout, ds)
		if err != nil {
			return nil, fmt.Errorf("region %s: bad date %q: %w", code, ds, err)
		}
		axis[idx] = t
		seen[idx] = true
	}
	// The index map is dense by construction above; sortedness is still
	// checked downstream by NewRegionSeries.
	if !sort.SliceIsSorted(axis, func(i, j int) bool { return axis[i].Before(axis[j]) }) {
		return nil, fmt.Errorf("region %s: date indices not in calendar order", code)
	}
	return axis, nil
}
