package logic

import (
	"github.com/rben01/covid19-sub000/internal/models"
)

// RankingService selects, orders, and aligns the top-N regional series for a
// metric selection. Implementations are pure with respect to the dataset:
// the same inputs always yield the same projection.
type RankingService interface {
	SelectTopN(ds *models.Dataset, q models.RankQuery) *models.RankedSeries
	Summarize(r *models.RegionSeries, acc models.Accumulation) LegendSummary
}

// Palette maps locations to stable colors so a region keeps its color across
// every chart of a render session.
type Palette interface {
	Color(code string) string
}
