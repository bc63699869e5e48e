package binance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookscope/internal/venue"
)

func newTestAdapter() venue.Adapter {
	a, err := venue.New("binance", "BTCUSDT", "wss://stream.binance.com:9443")
	if err != nil {
		panic(err)
	}
	return a
}

func TestAdapter_Extract(t *testing.T) {
	a := newTestAdapter()

	t.Run("combined stream snapshot", func(t *testing.T) {
		payload := []byte(`{
			"stream": "btcusdt@depth20@100ms",
			"data": {
				"lastUpdateId": 160,
				"bids": [["61000.10", "0.50"], ["60999.90", "1.25"]],
				"asks": [["61000.50", "0.75"]]
			}
		}`)

		raw, ok := a.Extract(payload)
		require.True(t, ok)

		assert.Equal(t, "binance", raw.Venue)
		assert.Equal(t, "BTCUSDT", raw.Symbol)
		require.Len(t, raw.Bids, 2)
		require.Len(t, raw.Asks, 1)
		assert.Equal(t, "61000.10", raw.Bids[0].Price)
		assert.Equal(t, "0.50", raw.Bids[0].Size)
		assert.Equal(t, "61000.50", raw.Asks[0].Price)
		assert.False(t, raw.ObservedAt.IsZero())
	})

	t.Run("bare snapshot without stream wrapper", func(t *testing.T) {
		payload := []byte(`{"lastUpdateId":161,"bids":[["100","1"]],"asks":[["101","2"]]}`)

		raw, ok := a.Extract(payload)
		require.True(t, ok)
		assert.Equal(t, "100", raw.Bids[0].Price)
		assert.Equal(t, "101", raw.Asks[0].Price)
	})

	t.Run("method reply is no update", func(t *testing.T) {
		_, ok := a.Extract([]byte(`{"result":null,"id":1}`))
		assert.False(t, ok)
	})

	t.Run("non-JSON payload is no update", func(t *testing.T) {
		_, ok := a.Extract([]byte(`not json`))
		assert.False(t, ok)
	})

	t.Run("unrelated JSON object is no update", func(t *testing.T) {
		_, ok := a.Extract([]byte(`{"e":"trade","p":"100"}`))
		assert.False(t, ok)
	})
}

func TestAdapter_Stream(t *testing.T) {
	cfg := newTestAdapter().Stream()
	assert.Equal(t, "wss://stream.binance.com:9443/stream?streams=btcusdt@depth20@100ms", cfg.URL)
	assert.Empty(t, cfg.SubscribeFrames)
}
