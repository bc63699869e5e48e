// Package sim walks a canonical order book to simulate the execution of a
// hypothetical order and report fill, price, slippage, and impact metrics.
package sim

import (
	"math"

	"bookscope/internal/domain"
)

// Simulate runs an order request against a canonical book and returns the
// resulting metrics. It returns domain.ErrInvalidOrder for unusable requests
// and domain.ErrEmptyBook when the side the order would consume has no
// levels; the latter is an expected transient state while waiting for the
// first venue update, not a fault.
//
// A buy consumes asks, a sell consumes bids. The side is already in
// execution-priority order, so a single forward pass walks best price first.
func Simulate(book domain.Book, req domain.OrderRequest) (domain.OrderMetrics, error) {
	if err := req.Validate(); err != nil {
		return domain.OrderMetrics{}, err
	}

	side := book.Asks
	if req.Side == domain.OrderSideSell {
		side = book.Bids
	}
	if len(side) == 0 {
		return domain.OrderMetrics{}, domain.ErrEmptyBook
	}

	var m domain.OrderMetrics
	var cost float64

	switch req.Type {
	case domain.OrderTypeMarket:
		cost = walkMarket(side, req, &m)
	case domain.OrderTypeLimit:
		scanLimit(side, req, &m)
	}

	// When no cost was accumulated (limit orders never walk, and an unfilled
	// order accumulates nothing), estimate against the order's own price.
	if cost == 0 {
		cost = req.LimitPrice * req.Quantity
	}
	m.EstimatedCost = cost

	return m, nil
}

// walkMarket fills the order level by level, capping each level's
// contribution at its resting size, and returns the accumulated cost.
func walkMarket(side []domain.Level, req domain.OrderRequest, m *domain.OrderMetrics) float64 {
	remaining := req.Quantity
	var filled, cost float64

	for _, lvl := range side {
		if remaining <= 0 {
			break
		}
		take := math.Min(remaining, lvl.Size)
		cost += take * lvl.Price
		filled += take
		remaining -= take
	}

	if filled > 0 {
		top := side[0]
		m.AverageFillPrice = cost / filled
		m.FillPercentage = math.Min(100, filled/req.Quantity*100)
		if top.Price > 0 {
			m.SlippagePercent = math.Abs(m.AverageFillPrice-top.Price) / top.Price * 100
		}
		// Impact is measured against the first level's cumulative size: how
		// much of the near-touch liquidity the order consumed, not a share of
		// whole-book depth.
		m.MarketImpactPercent = filled / nonZero(top.Cumulative) * 100
	}
	return cost
}

// scanLimit checks whether the limit price would cross the book. A crossing
// order is treated as fully fillable at its own stated price, so slippage is
// zero by construction; a non-crossing order rests with all metrics at zero.
func scanLimit(side []domain.Level, req domain.OrderRequest, m *domain.OrderMetrics) {
	crosses := false
	for _, lvl := range side {
		if req.Side == domain.OrderSideBuy && req.LimitPrice >= lvl.Price {
			crosses = true
			break
		}
		if req.Side == domain.OrderSideSell && req.LimitPrice <= lvl.Price {
			crosses = true
			break
		}
	}
	if !crosses {
		return
	}

	m.FillPercentage = 100
	m.AverageFillPrice = req.LimitPrice
	m.SlippagePercent = 0
	m.MarketImpactPercent = req.Quantity / nonZero(side[0].Cumulative) * 100
}

// nonZero substitutes 1 for a zero top-of-book cumulative. This is a safety
// clamp against a division fault when the side holds only zero-size levels;
// the resulting impact figure is not meaningful in that case.
func nonZero(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
