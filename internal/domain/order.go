package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// OrderSide identifies which side of the book a simulated order consumes.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType identifies the simulated order type.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// OrderRequest describes a hypothetical order to simulate against a Book.
// Quantity must be positive; LimitPrice must be positive when Type is limit
// and is ignored for market orders.
type OrderRequest struct {
	Side       OrderSide `json:"side"`
	Type       OrderType `json:"type"`
	LimitPrice float64   `json:"limit_price,omitempty"`
	Quantity   float64   `json:"quantity"`
}

// Validate checks the request fields and returns ErrInvalidOrder (wrapped)
// when they cannot drive a simulation.
func (r OrderRequest) Validate() error {
	switch r.Side {
	case OrderSideBuy, OrderSideSell:
	default:
		return fmt.Errorf("%w: unknown side %q", ErrInvalidOrder, string(r.Side))
	}
	switch r.Type {
	case OrderTypeMarket, OrderTypeLimit:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidOrder, string(r.Type))
	}
	if !isFinitePositive(r.Quantity) {
		return fmt.Errorf("%w: quantity must be > 0", ErrInvalidOrder)
	}
	if r.Type == OrderTypeLimit && !isFinitePositive(r.LimitPrice) {
		return fmt.Errorf("%w: limit price must be > 0", ErrInvalidOrder)
	}
	return nil
}

// ParseOrderRequest builds an OrderRequest from the free-text fields a
// user-facing form supplies. Unparseable or non-positive numerics are
// rejected rather than defaulted to zero, so a bad form never produces a
// silently misleading simulation.
func ParseOrderRequest(side, typ, limitPrice, quantity string) (OrderRequest, error) {
	req := OrderRequest{
		Side: OrderSide(strings.ToLower(strings.TrimSpace(side))),
		Type: OrderType(strings.ToLower(strings.TrimSpace(typ))),
	}

	qty, err := strconv.ParseFloat(strings.TrimSpace(quantity), 64)
	if err != nil {
		return OrderRequest{}, fmt.Errorf("%w: quantity %q is not numeric", ErrInvalidOrder, quantity)
	}
	req.Quantity = qty

	if req.Type == OrderTypeLimit {
		lp, err := strconv.ParseFloat(strings.TrimSpace(limitPrice), 64)
		if err != nil {
			return OrderRequest{}, fmt.Errorf("%w: limit price %q is not numeric", ErrInvalidOrder, limitPrice)
		}
		req.LimitPrice = lp
	}

	if err := req.Validate(); err != nil {
		return OrderRequest{}, err
	}
	return req, nil
}

// OrderMetrics is the result of one execution simulation. Values are produced
// fresh per call and carry no persisted identity of their own.
type OrderMetrics struct {
	FillPercentage      float64 `json:"fill_percentage"`
	AverageFillPrice    float64 `json:"average_fill_price"`
	SlippagePercent     float64 `json:"slippage_percent"`
	MarketImpactPercent float64 `json:"market_impact_percent"`
	EstimatedCost       float64 `json:"estimated_cost"`
}

// SimulationRecord is one persisted simulation run: the request, the venue
// book it ran against, and the resulting metrics.
type SimulationRecord struct {
	ID        string       `json:"id"`
	Venue     string       `json:"venue"`
	Symbol    string       `json:"symbol"`
	Request   OrderRequest `json:"request"`
	Metrics   OrderMetrics `json:"metrics"`
	BookAt    time.Time    `json:"book_at"`
	CreatedAt time.Time    `json:"created_at"`
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
