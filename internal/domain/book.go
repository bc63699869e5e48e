package domain

import "time"

// Level is a single price+size entry in a canonical order book. Cumulative is
// the running sum of Size from the top of the side down to and including this
// level, in execution-priority order.
type Level struct {
	Price      float64 `json:"price"`
	Size       float64 `json:"size"`
	Cumulative float64 `json:"cumulative"`
}

// Book is the canonical, price-ordered order book for one venue. Bids are
// sorted strictly descending by price and asks strictly ascending, so index 0
// on either side is the top of book. A Book is rebuilt wholesale on every
// inbound venue update; it is never mutated in place.
type Book struct {
	Venue      string    `json:"venue"`
	Symbol     string    `json:"symbol"`
	Bids       []Level   `json:"bids"`
	Asks       []Level   `json:"asks"`
	ObservedAt time.Time `json:"observed_at"`
}

// BestBid returns the highest bid price, or 0 when the bid side is empty.
func (b Book) BestBid() float64 {
	if len(b.Bids) == 0 {
		return 0
	}
	return b.Bids[0].Price
}

// BestAsk returns the lowest ask price, or 0 when the ask side is empty.
func (b Book) BestAsk() float64 {
	if len(b.Asks) == 0 {
		return 0
	}
	return b.Asks[0].Price
}

// MidPrice returns the midpoint of the best bid and ask, or 0 when either
// side is empty.
func (b Book) MidPrice() float64 {
	if len(b.Bids) == 0 || len(b.Asks) == 0 {
		return 0
	}
	return (b.Bids[0].Price + b.Asks[0].Price) / 2
}

// RawLevel is an unparsed price/size token pair as extracted from a venue
// payload. Tokens keep whatever textual representation the venue used;
// numeric parsing happens in the book builder, not in the adapters.
type RawLevel struct {
	Price string
	Size  string
}

// RawBook is the venue-neutral output of a feed adapter: unparsed bid and ask
// token pairs plus the observation timestamp from the venue envelope (or the
// local receive time when the venue does not carry one).
type RawBook struct {
	Venue      string
	Symbol     string
	Bids       []RawLevel
	Asks       []RawLevel
	ObservedAt time.Time
}

// DepthPoint is one point of the merged depth-chart series derived from a
// Book. A point carries cumulative size for the side it came from and zero on
// the other side; points at the same price from opposite sides are kept as
// two separate points.
type DepthPoint struct {
	Price         float64 `json:"price"`
	BidCumulative float64 `json:"bid_cumulative"`
	AskCumulative float64 `json:"ask_cumulative"`
}
