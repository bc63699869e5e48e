package bybit

import "bookscope/internal/venue"

// wsEnvelope is the outer frame of every Bybit public stream message. Book
// payloads arrive on "orderbook.<depth>.<symbol>" topics with type
// "snapshot" or "delta"; command acks carry op/success instead of a topic.
type wsEnvelope struct {
	Topic string `json:"topic"`
	Type  string `json:"type"` // "snapshot" or "delta"
	TS    int64  `json:"ts"`   // ms since epoch
	Data  struct {
		Symbol string           `json:"s"`
		B      [][2]venue.Token `json:"b"`
		A      [][2]venue.Token `json:"a"`
	} `json:"data"`

	// Set on subscribe/ping acks.
	Op      string `json:"op"`
	Success *bool  `json:"success"`
}

// subscribeCmd is the JSON command sent to subscribe to public topics.
type subscribeCmd struct {
	Op   string   `json:"op"` // "subscribe"
	Args []string `json:"args"`
}

// pingCmd is Bybit's application-level keepalive.
type pingCmd struct {
	Op string `json:"op"` // "ping"
}
