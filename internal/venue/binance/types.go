package binance

import (
	"encoding/json"

	"bookscope/internal/venue"
)

// streamEnvelope is the combined-stream wrapper: {"stream":"...","data":{...}}.
// Raw connections deliver the inner payload directly, so both shapes appear.
type streamEnvelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// depthSnapshot is a partial book depth payload. Binance streams these as
// full snapshots of the top N levels on every tick; there is no delta form on
// this channel and no event timestamp.
type depthSnapshot struct {
	LastUpdateID int64            `json:"lastUpdateId"`
	Bids         [][2]venue.Token `json:"bids"`
	Asks         [][2]venue.Token `json:"asks"`
}

// controlReply is the response to SUBSCRIBE/UNSUBSCRIBE method calls,
// e.g. {"result":null,"id":1}. Used only to recognize non-book frames.
type controlReply struct {
	ID *int64 `json:"id"`
}
