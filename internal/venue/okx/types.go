package okx

import "bookscope/internal/venue"

// wsEnvelope is the outer frame of OKX public stream messages. Subscribe acks
// and errors carry an "event" field; book pushes carry arg + data.
type wsEnvelope struct {
	Event string `json:"event"` // "subscribe", "error", "" for data pushes
	Arg   struct {
		Channel string `json:"channel"`
		InstID  string `json:"instId"`
	} `json:"arg"`
	Data []bookData `json:"data"`
}

// bookData is one books5 push: a full snapshot of the top five levels. Level
// rows are 4-element arrays; only price and size (the first two) matter here.
type bookData struct {
	Asks [][]venue.Token `json:"asks"`
	Bids [][]venue.Token `json:"bids"`
	TS   string          `json:"ts"` // ms since epoch, as a string
}

// subscribeCmd is the JSON command sent to subscribe to public channels.
type subscribeCmd struct {
	Op   string         `json:"op"` // "subscribe"
	Args []subscribeArg `json:"args"`
}

type subscribeArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}
