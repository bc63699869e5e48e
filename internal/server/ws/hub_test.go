package ws

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct{}

func (b *fakeBus) Publish(ctx context.Context, channel string, payload []byte) error { return nil }

func (b *fakeBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	out := make(chan []byte)
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveChannel(t *testing.T) {
	t.Run("pattern resolves to the payload's venue channel", func(t *testing.T) {
		got := resolveChannel("ch:book:*", []byte(`{"venue":"binance","symbol":"BTCUSDT"}`))
		assert.Equal(t, "ch:book:binance", got)
	})

	t.Run("concrete channel passes through", func(t *testing.T) {
		got := resolveChannel("ch:sim", []byte(`{"venue":"binance"}`))
		assert.Equal(t, "ch:sim", got)
	})

	t.Run("payload without a venue keeps the pattern", func(t *testing.T) {
		assert.Equal(t, "ch:book:*", resolveChannel("ch:book:*", []byte(`{"type":"status"}`)))
		assert.Equal(t, "ch:book:*", resolveChannel("ch:book:*", []byte(`not json`)))
	})
}

func TestHub_DetachAfterShutdown(t *testing.T) {
	h := NewHub(&fakeBus{}, discardLogger(), Config{Mode: "server"})

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() {
		runDone <- h.Run(ctx)
	}()

	c := &client{hub: h, send: make(chan []byte, 1), subs: map[string]bool{}}
	h.register <- c

	cancel()
	select {
	case err := <-runDone:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("hub loop did not exit after cancel")
	}

	// Nothing receives on unregister anymore; a pump draining a dying
	// connection must still be able to let go of its client.
	detached := make(chan struct{})
	go func() {
		c.detach()
		close(detached)
	}()

	select {
	case <-detached:
	case <-time.After(time.Second):
		t.Fatal("detach blocked after the hub loop exited")
	}
}
