// Package okx adapts OKX books5 public streams.
package okx

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"bookscope/internal/domain"
	"bookscope/internal/venue"
)

// pingInterval keeps the connection inside OKX's 30-second idle window.
const pingInterval = 25 * time.Second

func init() {
	venue.Register("okx", func(symbol, wsURL string) venue.Adapter {
		return &Adapter{instID: strings.ToUpper(symbol), wsURL: wsURL}
	})
}

// Adapter extracts raw levels from OKX books5 payloads. books5 pushes a full
// snapshot of the top five levels on every change, so no delta handling is
// involved.
type Adapter struct {
	instID string
	wsURL  string
}

// Venue implements venue.Adapter.
func (a *Adapter) Venue() string { return "okx" }

// Symbol implements venue.Adapter.
func (a *Adapter) Symbol() string { return a.instID }

// Stream implements venue.Adapter. OKX expects a literal "ping" text frame
// as keepalive.
func (a *Adapter) Stream() venue.StreamConfig {
	sub, _ := json.Marshal(subscribeCmd{
		Op:   "subscribe",
		Args: []subscribeArg{{Channel: "books5", InstID: a.instID}},
	})

	return venue.StreamConfig{
		URL:             a.wsURL,
		SubscribeFrames: [][]byte{sub},
		PingPayload:     []byte("ping"),
		PingInterval:    pingInterval,
	}
}

// Extract implements venue.Adapter. Event frames (subscribe acks, errors) and
// "pong" replies are not book data.
func (a *Adapter) Extract(payload []byte) (domain.RawBook, bool) {
	if string(payload) == "pong" {
		return domain.RawBook{}, false
	}

	var env wsEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return domain.RawBook{}, false
	}
	if env.Event != "" || env.Arg.Channel != "books5" || len(env.Data) == 0 {
		return domain.RawBook{}, false
	}

	push := env.Data[0]

	observed := time.Now()
	if ms, err := strconv.ParseInt(push.TS, 10, 64); err == nil {
		observed = time.UnixMilli(ms)
	}

	return domain.RawBook{
		Venue:      a.Venue(),
		Symbol:     a.instID,
		Bids:       rowLevels(push.Bids),
		Asks:       rowLevels(push.Asks),
		ObservedAt: observed,
	}, true
}

// rowLevels takes price and size from each row, ignoring the trailing
// liquidation/order-count columns OKX appends.
func rowLevels(rows [][]venue.Token) []domain.RawLevel {
	levels := make([]domain.RawLevel, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		levels = append(levels, domain.RawLevel{
			Price: string(row[0]),
			Size:  string(row[1]),
		})
	}
	return levels
}
