package logic

import (
	"sort"
	"sync"

	"github.com/rben01/covid19-sub000/internal/models"
)

// defaultPalette is the ten-color categorical palette, cycled by rank.
var defaultPalette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// unassignedColor marks regions seen by a chart before Assign ran (or absent
// from the dataset the assignment was built from).
const unassignedColor = "#999999"

// ColorAssigner hands every location a fixed color for the lifetime of a
// render session, so a region that is blue in one chart is blue in all of
// them. Assignment order is current confirmed count, descending, the same
// ordering the legends lead with.
type ColorAssigner struct {
	mu       sync.Mutex
	palette  []string
	assigned map[string]string
}

func NewColorAssigner() *ColorAssigner {
	return &ColorAssigner{
		palette:  defaultPalette,
		assigned: make(map[string]string),
	}
}

// Assign computes the session color mapping for a dataset. Calling it again
// with another dataset extends the mapping; already-assigned regions keep
// their colors.
func (c *ColorAssigner) Assign(ds *models.Dataset) {
	if ds == nil {
		return
	}
	metric := models.Metric{Affliction: models.Cases, Accumulation: models.Absolute, CountMethod: models.Net}

	type ranked struct {
		code    string
		current float64
	}
	all := make([]ranked, 0, len(ds.Regions))
	for code, r := range ds.Regions {
		v, ok := r.SeriesFor(metric).Last()
		if !ok {
			continue
		}
		all = append(all, ranked{code: code, current: v})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].current != all[j].current {
			return all[i].current > all[j].current
		}
		return all[i].code < all[j].code
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, r := range all {
		if _, ok := c.assigned[r.code]; ok {
			continue
		}
		c.assigned[r.code] = c.palette[i%len(c.palette)]
	}
}

// Color returns the region's session color.
func (c *ColorAssigner) Color(code string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if col, ok := c.assigned[code]; ok {
		return col
	}
	return unassignedColor
}
