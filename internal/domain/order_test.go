package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     OrderRequest
		wantErr bool
	}{
		{
			name: "valid market buy",
			req:  OrderRequest{Side: OrderSideBuy, Type: OrderTypeMarket, Quantity: 1.5},
		},
		{
			name: "valid limit sell",
			req:  OrderRequest{Side: OrderSideSell, Type: OrderTypeLimit, LimitPrice: 100, Quantity: 2},
		},
		{
			name:    "unknown side",
			req:     OrderRequest{Side: "hold", Type: OrderTypeMarket, Quantity: 1},
			wantErr: true,
		},
		{
			name:    "unknown type",
			req:     OrderRequest{Side: OrderSideBuy, Type: "stop", Quantity: 1},
			wantErr: true,
		},
		{
			name:    "zero quantity",
			req:     OrderRequest{Side: OrderSideBuy, Type: OrderTypeMarket, Quantity: 0},
			wantErr: true,
		},
		{
			name:    "negative quantity",
			req:     OrderRequest{Side: OrderSideBuy, Type: OrderTypeMarket, Quantity: -3},
			wantErr: true,
		},
		{
			name:    "limit without price",
			req:     OrderRequest{Side: OrderSideBuy, Type: OrderTypeLimit, Quantity: 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidOrder)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseOrderRequest(t *testing.T) {
	req, err := ParseOrderRequest(" Buy ", "LIMIT", "101.25", "3")
	require.NoError(t, err)
	assert.Equal(t, OrderSideBuy, req.Side)
	assert.Equal(t, OrderTypeLimit, req.Type)
	assert.Equal(t, 101.25, req.LimitPrice)
	assert.Equal(t, 3.0, req.Quantity)

	// Market orders ignore the limit price field entirely.
	req, err = ParseOrderRequest("sell", "market", "not-a-number", "0.5")
	require.NoError(t, err)
	assert.Equal(t, OrderTypeMarket, req.Type)
	assert.Zero(t, req.LimitPrice)

	_, err = ParseOrderRequest("buy", "market", "", "abc")
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, err = ParseOrderRequest("buy", "limit", "oops", "1")
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, err = ParseOrderRequest("buy", "limit", "-5", "1")
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestBook_TopOfBook(t *testing.T) {
	b := Book{
		Bids: []Level{{Price: 99, Size: 1}, {Price: 98, Size: 2}},
		Asks: []Level{{Price: 101, Size: 1}, {Price: 102, Size: 2}},
	}
	assert.Equal(t, 99.0, b.BestBid())
	assert.Equal(t, 101.0, b.BestAsk())
	assert.Equal(t, 100.0, b.MidPrice())

	empty := Book{}
	assert.Zero(t, empty.BestBid())
	assert.Zero(t, empty.BestAsk())
	assert.Zero(t, empty.MidPrice())

	// Mid price needs both sides.
	oneSided := Book{Bids: []Level{{Price: 99, Size: 1}}}
	assert.Zero(t, oneSided.MidPrice())
}
