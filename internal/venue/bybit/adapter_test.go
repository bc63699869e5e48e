package bybit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookscope/internal/venue"
)

func newTestAdapter() venue.Adapter {
	a, err := venue.New("bybit", "BTCUSDT", "wss://stream.bybit.com/v5/public/spot")
	if err != nil {
		panic(err)
	}
	return a
}

func TestAdapter_Extract(t *testing.T) {
	a := newTestAdapter()

	t.Run("snapshot frame", func(t *testing.T) {
		payload := []byte(`{
			"topic": "orderbook.50.BTCUSDT",
			"type": "snapshot",
			"ts": 1672304484978,
			"data": {
				"s": "BTCUSDT",
				"b": [["16493.50", "0.006"], ["16493.00", "0.100"]],
				"a": [["16611.00", "0.029"]],
				"u": 18521288,
				"seq": 7961638724
			}
		}`)

		raw, ok := a.Extract(payload)
		require.True(t, ok)

		assert.Equal(t, "bybit", raw.Venue)
		assert.Equal(t, "BTCUSDT", raw.Symbol)
		require.Len(t, raw.Bids, 2)
		require.Len(t, raw.Asks, 1)
		assert.Equal(t, "16493.50", raw.Bids[0].Price)
		assert.Equal(t, "0.006", raw.Bids[0].Size)
		assert.Equal(t, int64(1672304484978), raw.ObservedAt.UnixMilli())
	})

	t.Run("delta frame is no update", func(t *testing.T) {
		payload := []byte(`{
			"topic": "orderbook.50.BTCUSDT",
			"type": "delta",
			"ts": 1672304484978,
			"data": {"s": "BTCUSDT", "b": [["16493.50","0"]], "a": []}
		}`)
		_, ok := a.Extract(payload)
		assert.False(t, ok)
	})

	t.Run("subscribe ack is no update", func(t *testing.T) {
		_, ok := a.Extract([]byte(`{"success":true,"ret_msg":"subscribe","op":"subscribe"}`))
		assert.False(t, ok)
	})

	t.Run("pong is no update", func(t *testing.T) {
		_, ok := a.Extract([]byte(`{"success":true,"ret_msg":"pong","op":"ping"}`))
		assert.False(t, ok)
	})
}

func TestAdapter_Stream(t *testing.T) {
	cfg := newTestAdapter().Stream()
	assert.Equal(t, "wss://stream.bybit.com/v5/public/spot", cfg.URL)
	require.Len(t, cfg.SubscribeFrames, 1)
	assert.JSONEq(t, `{"op":"subscribe","args":["orderbook.50.BTCUSDT"]}`, string(cfg.SubscribeFrames[0]))
	assert.JSONEq(t, `{"op":"ping"}`, string(cfg.PingPayload))
}
