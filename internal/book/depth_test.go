package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookscope/internal/domain"
)

func TestProjectDepth(t *testing.T) {
	t.Run("one bid and one ask project to two ascending points", func(t *testing.T) {
		b := domain.Book{
			Bids: []domain.Level{{Price: 100, Size: 5, Cumulative: 5}},
			Asks: []domain.Level{{Price: 101, Size: 3, Cumulative: 3}},
		}

		points := ProjectDepth(b)
		require.Len(t, points, 2)
		assert.Equal(t, domain.DepthPoint{Price: 100, BidCumulative: 5}, points[0])
		assert.Equal(t, domain.DepthPoint{Price: 101, AskCumulative: 3}, points[1])
	})

	t.Run("bids are reversed into ascending order", func(t *testing.T) {
		b := domain.Book{
			Bids: []domain.Level{
				{Price: 100, Size: 5, Cumulative: 5},
				{Price: 99, Size: 3, Cumulative: 8},
				{Price: 98, Size: 2, Cumulative: 10},
			},
		}

		points := ProjectDepth(b)
		require.Len(t, points, 3)
		assert.Equal(t, 98.0, points[0].Price)
		assert.Equal(t, 10.0, points[0].BidCumulative)
		assert.Equal(t, 100.0, points[2].Price)
		assert.Equal(t, 5.0, points[2].BidCumulative)
	})

	t.Run("same price on both sides stays as two points", func(t *testing.T) {
		b := domain.Book{
			Bids: []domain.Level{{Price: 100, Size: 5, Cumulative: 5}},
			Asks: []domain.Level{{Price: 100, Size: 3, Cumulative: 3}},
		}

		points := ProjectDepth(b)
		require.Len(t, points, 2)
		for _, p := range points {
			assert.Equal(t, 100.0, p.Price)
		}
		// Each point keeps a zero on the side it does not represent.
		assert.Equal(t, 5.0, points[0].BidCumulative)
		assert.Equal(t, 0.0, points[0].AskCumulative)
		assert.Equal(t, 0.0, points[1].BidCumulative)
		assert.Equal(t, 3.0, points[1].AskCumulative)
	})

	t.Run("empty book projects to an empty series", func(t *testing.T) {
		assert.Empty(t, ProjectDepth(domain.Book{}))
	})
}
