package venue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"bookscope/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// handshakeTimeout bounds the WebSocket dial.
	handshakeTimeout = 15 * time.Second
)

// PayloadHandler receives one raw message from the venue stream.
type PayloadHandler func(payload []byte)

// StreamClient is a single-connection WebSocket client for a venue feed. It
// dials, replays the subscribe frames, keeps the connection alive, and hands
// every inbound message to the handler. Reconnect policy belongs to the
// caller (the feed runner), which re-runs the client with backoff.
type StreamClient struct {
	cfg StreamConfig

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	done   chan struct{}
}

// NewStreamClient creates a client for the given stream.
func NewStreamClient(cfg StreamConfig) *StreamClient {
	return &StreamClient{
		cfg:  cfg,
		done: make(chan struct{}),
	}
}

// Run connects and pumps messages to handler until the connection drops, the
// context is cancelled, or Close is called. It always returns a non-nil
// error; a clean shutdown surfaces ctx.Err.
func (c *StreamClient) Run(ctx context.Context, handler PayloadHandler) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("venue/stream: %w", domain.ErrWSDisconnect)
	}
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("venue/stream: connect %s: %w", c.cfg.URL, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for _, frame := range c.cfg.SubscribeFrames {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return fmt.Errorf("venue/stream: subscribe: %w", err)
		}
	}

	pingDone := make(chan struct{})
	defer close(pingDone)
	go c.pingLoop(conn, pingDone)

	// Unblock ReadMessage when the context is cancelled or Close is called.
	readDone := make(chan struct{})
	defer close(readDone)
	go func() {
		select {
		case <-ctx.Done():
		case <-c.done:
		case <-readDone:
			return
		}
		_ = conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			select {
			case <-c.done:
				return fmt.Errorf("venue/stream: %w", domain.ErrWSDisconnect)
			default:
			}
			return fmt.Errorf("venue/stream: read: %w", err)
		}
		// Some venues reset the read deadline only on data frames.
		conn.SetReadDeadline(time.Now().Add(pongWait))
		handler(message)
	}
}

// pingLoop keeps the connection alive, using the venue's application-level
// ping when the stream config defines one and protocol pings otherwise.
func (c *StreamClient) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	interval := c.cfg.PingInterval
	if interval <= 0 {
		interval = pingPeriod
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			var err error
			if len(c.cfg.PingPayload) > 0 {
				err = conn.WriteMessage(websocket.TextMessage, c.cfg.PingPayload)
			} else {
				err = conn.WriteMessage(websocket.PingMessage, nil)
			}
			if err != nil {
				return
			}
		}
	}
}

// Close permanently stops the client. Safe to call multiple times.
func (c *StreamClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	if c.conn != nil {
		_ = c.conn.Close()
	}
}
