package book

import (
	"sort"

	"bookscope/internal/domain"
)

// ProjectDepth derives the merged depth-chart series from a canonical book:
// one point per level across both sides, ascending by price. Bid points carry
// only bid cumulative and ask points only ask cumulative; two points at the
// same price from opposite sides stay separate, which is fine for an
// area-chart and preserved deliberately.
func ProjectDepth(b domain.Book) []domain.DepthPoint {
	points := make([]domain.DepthPoint, 0, len(b.Bids)+len(b.Asks))

	// Bids are stored high-to-low; the chart wants ascending prices.
	for i := len(b.Bids) - 1; i >= 0; i-- {
		points = append(points, domain.DepthPoint{
			Price:         b.Bids[i].Price,
			BidCumulative: b.Bids[i].Cumulative,
		})
	}
	for _, lvl := range b.Asks {
		points = append(points, domain.DepthPoint{
			Price:         lvl.Price,
			AskCumulative: lvl.Cumulative,
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Price < points[j].Price
	})
	return points
}
