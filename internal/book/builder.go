// Package book turns raw venue levels into canonical, price-ordered books
// with cumulative depth, and derives the depth-chart series from them.
package book

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"

	"bookscope/internal/domain"
)

// Builder parses raw token pairs into canonical books. The zero value is a
// lenient builder without logging.
//
// Parse policy: by default a token that fails to parse invalidates only its
// own level (the level is dropped and the rest of the update survives), since
// venues occasionally send malformed tokens during reconnect bursts and one
// hiccup should not blank the whole book. With Strict set, any bad token
// fails the entire update instead.
//
// Zero-size levels are retained: some venues emit them as removal markers and
// they contribute nothing to cumulative totals either way.
type Builder struct {
	// Strict fails the whole update on the first malformed token instead of
	// dropping the offending level.
	Strict bool

	// Logger, when set, records dropped levels and ordering violations.
	Logger *slog.Logger
}

// Build parses raw, produces per-side cumulative totals, and returns a new
// Book. Input ordering is trusted (venues emit priority-ordered levels) but
// always verified; a misordered side is stable re-sorted rather than passed
// through, since a misordered book silently corrupts simulation results.
func (b Builder) Build(raw domain.RawBook) (domain.Book, error) {
	bids, err := b.parseSide(raw.Venue, "bids", raw.Bids)
	if err != nil {
		return domain.Book{}, err
	}
	asks, err := b.parseSide(raw.Venue, "asks", raw.Asks)
	if err != nil {
		return domain.Book{}, err
	}

	b.ensureOrdered(raw.Venue, "bids", bids, func(i, j int) bool {
		return bids[i].Price > bids[j].Price
	})
	b.ensureOrdered(raw.Venue, "asks", asks, func(i, j int) bool {
		return asks[i].Price < asks[j].Price
	})

	accumulate(bids)
	accumulate(asks)

	return domain.Book{
		Venue:      raw.Venue,
		Symbol:     raw.Symbol,
		Bids:       bids,
		Asks:       asks,
		ObservedAt: raw.ObservedAt,
	}, nil
}

// parseSide converts raw token pairs to levels. Levels with unparseable,
// negative, or non-finite price/size are dropped (or fail the update under
// Strict).
func (b Builder) parseSide(venue, side string, raw []domain.RawLevel) ([]domain.Level, error) {
	levels := make([]domain.Level, 0, len(raw))
	for _, rl := range raw {
		price, perr := strconv.ParseFloat(rl.Price, 64)
		size, serr := strconv.ParseFloat(rl.Size, 64)
		if perr != nil || serr != nil || !validToken(price) || !validToken(size) {
			if b.Strict {
				return nil, fmt.Errorf("%w: %s %s level (%q, %q)", domain.ErrParse, venue, side, rl.Price, rl.Size)
			}
			if b.Logger != nil {
				b.Logger.Debug("dropping malformed level",
					slog.String("venue", venue),
					slog.String("side", side),
					slog.String("price", rl.Price),
					slog.String("size", rl.Size),
				)
			}
			continue
		}
		levels = append(levels, domain.Level{Price: price, Size: size})
	}
	return levels, nil
}

// ensureOrdered verifies the side is sorted by execution priority and stable
// re-sorts it when it is not.
func (b Builder) ensureOrdered(venue, side string, levels []domain.Level, less func(i, j int) bool) {
	if sort.SliceIsSorted(levels, less) {
		return
	}
	if b.Logger != nil {
		b.Logger.Warn("venue emitted out-of-order levels, re-sorting",
			slog.String("venue", venue),
			slog.String("side", side),
		)
	}
	sort.SliceStable(levels, less)
}

// accumulate fills Cumulative with a single forward pass over the
// priority-ordered side.
func accumulate(levels []domain.Level) {
	var total float64
	for i := range levels {
		total += levels[i].Size
		levels[i].Cumulative = total
	}
}

func validToken(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
