package okx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookscope/internal/venue"
)

func newTestAdapter() venue.Adapter {
	a, err := venue.New("okx", "BTC-USDT", "wss://ws.okx.com:8443/ws/v5/public")
	if err != nil {
		panic(err)
	}
	return a
}

func TestAdapter_Extract(t *testing.T) {
	a := newTestAdapter()

	t.Run("books5 push", func(t *testing.T) {
		payload := []byte(`{
			"arg": {"channel": "books5", "instId": "BTC-USDT"},
			"data": [{
				"asks": [["41006.8", "0.60038921", "0", "1"], ["41007.5", "0.30178218", "0", "2"]],
				"bids": [["41006.3", "0.30178218", "0", "2"]],
				"ts": "1629966436396"
			}]
		}`)

		raw, ok := a.Extract(payload)
		require.True(t, ok)

		assert.Equal(t, "okx", raw.Venue)
		assert.Equal(t, "BTC-USDT", raw.Symbol)
		require.Len(t, raw.Asks, 2)
		require.Len(t, raw.Bids, 1)
		assert.Equal(t, "41006.8", raw.Asks[0].Price)
		assert.Equal(t, "0.60038921", raw.Asks[0].Size)
		assert.Equal(t, int64(1629966436396), raw.ObservedAt.UnixMilli())
	})

	t.Run("subscribe ack is no update", func(t *testing.T) {
		_, ok := a.Extract([]byte(`{"event":"subscribe","arg":{"channel":"books5","instId":"BTC-USDT"}}`))
		assert.False(t, ok)
	})

	t.Run("error event is no update", func(t *testing.T) {
		_, ok := a.Extract([]byte(`{"event":"error","code":"60012","msg":"Invalid request"}`))
		assert.False(t, ok)
	})

	t.Run("pong is no update", func(t *testing.T) {
		_, ok := a.Extract([]byte(`pong`))
		assert.False(t, ok)
	})

	t.Run("short rows are skipped", func(t *testing.T) {
		payload := []byte(`{
			"arg": {"channel": "books5", "instId": "BTC-USDT"},
			"data": [{"asks": [["41006.8"]], "bids": [["41000.1","2","0","1"]], "ts": "1"}]
		}`)
		raw, ok := a.Extract(payload)
		require.True(t, ok)
		assert.Empty(t, raw.Asks)
		require.Len(t, raw.Bids, 1)
	})
}

func TestAdapter_Stream(t *testing.T) {
	cfg := newTestAdapter().Stream()
	assert.Equal(t, "wss://ws.okx.com:8443/ws/v5/public", cfg.URL)
	require.Len(t, cfg.SubscribeFrames, 1)
	assert.JSONEq(t, `{"op":"subscribe","args":[{"channel":"books5","instId":"BTC-USDT"}]}`, string(cfg.SubscribeFrames[0]))
	assert.Equal(t, "ping", string(cfg.PingPayload))
}
