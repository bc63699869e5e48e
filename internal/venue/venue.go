// Package venue defines the closed set of market-data venue adapters and the
// shared WebSocket stream client they ride on. An adapter performs structural
// extraction only: it locates the bid/ask arrays and timestamp inside its
// venue's envelope and passes price/size tokens through unparsed; numeric
// parsing and failure policy belong to the book builder.
package venue

import (
	"encoding/json"
	"fmt"
	"time"

	"bookscope/internal/domain"
)

// Adapter translates one venue's payloads into raw, venue-neutral levels.
type Adapter interface {
	// Venue returns the adapter's venue tag, e.g. "binance".
	Venue() string

	// Symbol returns the instrument the adapter is subscribed to.
	Symbol() string

	// Stream describes how to connect and subscribe to the venue feed.
	Stream() StreamConfig

	// Extract pulls raw levels out of one payload. It returns false (not an
	// error) when the payload is not a book snapshot for this venue: control
	// and ack frames, delta frames, other channels. Such payloads are skipped
	// silently by the caller.
	Extract(payload []byte) (domain.RawBook, bool)
}

// StreamConfig describes a venue WebSocket stream.
type StreamConfig struct {
	// URL is the fully-built stream endpoint.
	URL string

	// SubscribeFrames are sent verbatim after every (re)connect.
	SubscribeFrames [][]byte

	// PingPayload, when set, is sent as a text frame every PingInterval
	// instead of a protocol-level ping (some venues speak application-level
	// pings).
	PingPayload  []byte
	PingInterval time.Duration
}

// Token is a price or size token as the venue sent it. Venues disagree on
// whether these are JSON strings or numbers; Token accepts both and keeps the
// raw text so the book builder owns parsing.
type Token string

// UnmarshalJSON implements json.Unmarshaler, accepting both "1.5" and 1.5.
func (t *Token) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Token(s)
		return nil
	}
	*t = Token(data)
	return nil
}

// Factory builds an adapter for a configured venue. Registered by each venue
// package in New.
type Factory func(symbol, wsURL string) Adapter

// New constructs the adapter for the given venue tag. The set of venues is
// closed: adding one means adding a venue package and a case here, never
// touching the builder or simulator.
func New(name, symbol, wsURL string) (Adapter, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownVenue, name)
	}
	return factory(symbol, wsURL), nil
}

// Names returns the venue tags with a registered adapter.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}

var factories = map[string]Factory{}

// Register installs a venue factory. Called from venue package init funcs.
func Register(name string, f Factory) {
	factories[name] = f
}
