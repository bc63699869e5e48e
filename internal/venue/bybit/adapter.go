// Package bybit adapts Bybit v5 public orderbook streams.
package bybit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bookscope/internal/domain"
	"bookscope/internal/venue"
)

// pingInterval is Bybit's documented keepalive cadence.
const pingInterval = 20 * time.Second

func init() {
	venue.Register("bybit", func(symbol, wsURL string) venue.Adapter {
		return &Adapter{symbol: strings.ToUpper(symbol), wsURL: wsURL}
	})
}

// Adapter extracts raw levels from Bybit orderbook payloads.
type Adapter struct {
	symbol string
	wsURL  string
}

// Venue implements venue.Adapter.
func (a *Adapter) Venue() string { return "bybit" }

// Symbol implements venue.Adapter.
func (a *Adapter) Symbol() string { return a.symbol }

// Stream implements venue.Adapter. Bybit expects an application-level JSON
// ping rather than protocol pings.
func (a *Adapter) Stream() venue.StreamConfig {
	sub, _ := json.Marshal(subscribeCmd{
		Op:   "subscribe",
		Args: []string{fmt.Sprintf("orderbook.50.%s", a.symbol)},
	})
	ping, _ := json.Marshal(pingCmd{Op: "ping"})

	return venue.StreamConfig{
		URL:             a.wsURL,
		SubscribeFrames: [][]byte{sub},
		PingPayload:     ping,
		PingInterval:    pingInterval,
	}
}

// Extract implements venue.Adapter. Only "snapshot" frames are book data;
// delta frames and command acks are skipped (incremental updates are not
// consumed; the book is rebuilt wholesale from snapshots).
func (a *Adapter) Extract(payload []byte) (domain.RawBook, bool) {
	var env wsEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return domain.RawBook{}, false
	}
	if !strings.HasPrefix(env.Topic, "orderbook.") || env.Type != "snapshot" {
		return domain.RawBook{}, false
	}

	observed := time.Now()
	if env.TS > 0 {
		observed = time.UnixMilli(env.TS)
	}

	symbol := env.Data.Symbol
	if symbol == "" {
		symbol = a.symbol
	}

	return domain.RawBook{
		Venue:      a.Venue(),
		Symbol:     symbol,
		Bids:       pairLevels(env.Data.B),
		Asks:       pairLevels(env.Data.A),
		ObservedAt: observed,
	}, true
}

func pairLevels(rows [][2]venue.Token) []domain.RawLevel {
	levels := make([]domain.RawLevel, 0, len(rows))
	for _, row := range rows {
		levels = append(levels, domain.RawLevel{
			Price: string(row[0]),
			Size:  string(row[1]),
		})
	}
	return levels
}
