// Package binance adapts Binance partial book depth streams.
package binance

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bookscope/internal/domain"
	"bookscope/internal/venue"
)

func init() {
	venue.Register("binance", func(symbol, wsURL string) venue.Adapter {
		return &Adapter{symbol: symbol, wsURL: wsURL}
	})
}

// Adapter extracts raw levels from Binance depth payloads.
type Adapter struct {
	symbol string
	wsURL  string
}

// Venue implements venue.Adapter.
func (a *Adapter) Venue() string { return "binance" }

// Symbol implements venue.Adapter.
func (a *Adapter) Symbol() string { return a.symbol }

// Stream subscribes to the 20-level depth snapshot stream via the combined
// stream endpoint, so no subscribe frames are needed after connect.
func (a *Adapter) Stream() venue.StreamConfig {
	stream := fmt.Sprintf("%s@depth20@100ms", strings.ToLower(a.symbol))
	return venue.StreamConfig{
		URL: fmt.Sprintf("%s/stream?streams=%s", strings.TrimRight(a.wsURL, "/"), stream),
	}
}

// Extract implements venue.Adapter. Binance depth snapshots carry no event
// timestamp, so the local receive time stands in for it.
func (a *Adapter) Extract(payload []byte) (domain.RawBook, bool) {
	inner := payload

	var env streamEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return domain.RawBook{}, false
	}
	if len(env.Data) > 0 {
		inner = env.Data
	}

	// Method-call replies ({"result":null,"id":1}) are not book data.
	var ctrl controlReply
	if err := json.Unmarshal(inner, &ctrl); err == nil && ctrl.ID != nil {
		return domain.RawBook{}, false
	}

	var snap depthSnapshot
	if err := json.Unmarshal(inner, &snap); err != nil {
		return domain.RawBook{}, false
	}
	if snap.LastUpdateID == 0 && len(snap.Bids) == 0 && len(snap.Asks) == 0 {
		return domain.RawBook{}, false
	}

	return domain.RawBook{
		Venue:      a.Venue(),
		Symbol:     a.symbol,
		Bids:       pairLevels(snap.Bids),
		Asks:       pairLevels(snap.Asks),
		ObservedAt: time.Now(),
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
