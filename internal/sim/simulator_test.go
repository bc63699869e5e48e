package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookscope/internal/domain"
)

// asks builds an ask side with cumulative totals already computed, the way
// the book builder emits it.
func asks(levels ...[2]float64) []domain.Level {
	out := make([]domain.Level, 0, len(levels))
	var cum float64
	for _, l := range levels {
		cum += l[1]
		out = append(out, domain.Level{Price: l[0], Size: l[1], Cumulative: cum})
	}
	return out
}

func bids(levels ...[2]float64) []domain.Level {
	return asks(levels...)
}

func TestSimulate_Market(t *testing.T) {
	t.Run("quantity within the top level fills at its exact price", func(t *testing.T) {
		b := domain.Book{Asks: asks([2]float64{100, 10}, [2]float64{101, 10})}
		m, err := Simulate(b, domain.OrderRequest{
			Side: domain.OrderSideBuy, Type: domain.OrderTypeMarket, Quantity: 6,
		})
		require.NoError(t, err)

		assert.Equal(t, 100.0, m.AverageFillPrice)
		assert.Equal(t, 100.0, m.FillPercentage)
		assert.Equal(t, 0.0, m.SlippagePercent)
		assert.Equal(t, 600.0, m.EstimatedCost)
		assert.InDelta(t, 60.0, m.MarketImpactPercent, 1e-9)
	})

	t.Run("buy of 15 against asks (100,10) (101,10)", func(t *testing.T) {
		b := domain.Book{Asks: asks([2]float64{100, 10}, [2]float64{101, 10})}
		m, err := Simulate(b, domain.OrderRequest{
			Side: domain.OrderSideBuy, Type: domain.OrderTypeMarket, Quantity: 15,
		})
		require.NoError(t, err)

		// cost = 10*100 + 5*101 = 1505
		assert.Equal(t, 1505.0, m.EstimatedCost)
		assert.InDelta(t, 100.3333333, m.AverageFillPrice, 1e-6)
		assert.Equal(t, 100.0, m.FillPercentage)
		assert.InDelta(t, 0.3333333, m.SlippagePercent, 1e-6)
		// Impact versus the first level's cumulative size (10), not book depth.
		assert.InDelta(t, 150.0, m.MarketImpactPercent, 1e-9)
	})

	t.Run("sell walks the bid side", func(t *testing.T) {
		b := domain.Book{
			Bids: bids([2]float64{100, 4}, [2]float64{99, 4}),
			Asks: asks([2]float64{101, 50}),
		}
		m, err := Simulate(b, domain.OrderRequest{
			Side: domain.OrderSideSell, Type: domain.OrderTypeMarket, Quantity: 6,
		})
		require.NoError(t, err)

		// proceeds = 4*100 + 2*99 = 598
		assert.Equal(t, 598.0, m.EstimatedCost)
		assert.InDelta(t, 99.6666666, m.AverageFillPrice, 1e-6)
		assert.Equal(t, 100.0, m.FillPercentage)
	})

	t.Run("partial fill when the book is too thin", func(t *testing.T) {
		b := domain.Book{Asks: asks([2]float64{100, 10})}
		m, err := Simulate(b, domain.OrderRequest{
			Side: domain.OrderSideBuy, Type: domain.OrderTypeMarket, Quantity: 40,
		})
		require.NoError(t, err)

		assert.Equal(t, 25.0, m.FillPercentage)
		assert.Equal(t, 100.0, m.AverageFillPrice)
		assert.Equal(t, 1000.0, m.EstimatedCost)
	})

	t.Run("zero top-of-book cumulative does not divide by zero", func(t *testing.T) {
		b := domain.Book{Asks: []domain.Level{{Price: 100, Size: 0, Cumulative: 0}}}
		m, err := Simulate(b, domain.OrderRequest{
			Side: domain.OrderSideBuy, Type: domain.OrderTypeMarket, Quantity: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, 0.0, m.FillPercentage)
		assert.Equal(t, 0.0, m.MarketImpactPercent)
	})
}

func TestSimulate_Limit(t *testing.T) {
	book := domain.Book{Asks: asks([2]float64{100, 10}, [2]float64{101, 10})}

	t.Run("non-crossing buy rests unfilled", func(t *testing.T) {
		m, err := Simulate(book, domain.OrderRequest{
			Side: domain.OrderSideBuy, Type: domain.OrderTypeLimit,
			LimitPrice: 99, Quantity: 5,
		})
		require.NoError(t, err)

		assert.Equal(t, 0.0, m.FillPercentage)
		assert.Equal(t, 0.0, m.AverageFillPrice)
		assert.Equal(t, 0.0, m.SlippagePercent)
		assert.Equal(t, 0.0, m.MarketImpactPercent)
		assert.Equal(t, 99.0*5, m.EstimatedCost)
	})

	t.Run("crossing buy fills entirely at its own price", func(t *testing.T) {
		m, err := Simulate(book, domain.OrderRequest{
			Side: domain.OrderSideBuy, Type: domain.OrderTypeLimit,
			LimitPrice: 101, Quantity: 5,
		})
		require.NoError(t, err)

		assert.Equal(t, 100.0, m.FillPercentage)
		assert.Equal(t, 101.0, m.AverageFillPrice)
		assert.Equal(t, 0.0, m.SlippagePercent)
		assert.InDelta(t, 50.0, m.MarketImpactPercent, 1e-9) // 5 / cum(10) * 100
		assert.Equal(t, 101.0*5, m.EstimatedCost)
	})

	t.Run("crossing sell against bids", func(t *testing.T) {
		b := domain.Book{Bids: bids([2]float64{100, 8})}
		m, err := Simulate(b, domain.OrderRequest{
			Side: domain.OrderSideSell, Type: domain.OrderTypeLimit,
			LimitPrice: 99, Quantity: 4,
		})
		require.NoError(t, err)

		assert.Equal(t, 100.0, m.FillPercentage)
		assert.Equal(t, 99.0, m.AverageFillPrice)
		assert.InDelta(t, 50.0, m.MarketImpactPercent, 1e-9)
	})
}

func TestSimulate_Errors(t *testing.T) {
	book := domain.Book{Asks: asks([2]float64{100, 10})}

	t.Run("empty relevant side", func(t *testing.T) {
		_, err := Simulate(domain.Book{}, domain.OrderRequest{
			Side: domain.OrderSideBuy, Type: domain.OrderTypeMarket, Quantity: 5,
		})
		assert.ErrorIs(t, err, domain.ErrEmptyBook)

		// Asks present but the sell side is empty.
		_, err = Simulate(book, domain.OrderRequest{
			Side: domain.OrderSideSell, Type: domain.OrderTypeMarket, Quantity: 5,
		})
		assert.ErrorIs(t, err, domain.ErrEmptyBook)
	})

	t.Run("invalid requests", func(t *testing.T) {
		cases := []domain.OrderRequest{
			{Side: domain.OrderSideBuy, Type: domain.OrderTypeMarket, Quantity: 0},
			{Side: domain.OrderSideBuy, Type: domain.OrderTypeMarket, Quantity: -3},
			{Side: "hold", Type: domain.OrderTypeMarket, Quantity: 1},
			{Side: domain.OrderSideBuy, Type: "stop", Quantity: 1},
			{Side: domain.OrderSideBuy, Type: domain.OrderTypeLimit, Quantity: 1},
		}
		for _, req := range cases {
			_, err := Simulate(book, req)
			assert.ErrorIs(t, err, domain.ErrInvalidOrder)
		}
	})
}
