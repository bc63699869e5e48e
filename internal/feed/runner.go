// Package feed runs the per-venue ingestion pipeline: WebSocket stream in,
// canonical books out to the cache and the signal bus.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"bookscope/internal/book"
	"bookscope/internal/domain"
	"bookscope/internal/notify"
	"bookscope/internal/venue"
)

const (
	// BookChannelPrefix is the pub/sub channel prefix for canonical book
	// updates; the full channel is BookChannelPrefix + venue tag.
	BookChannelPrefix = "ch:book:"

	// StatusChannel carries venue connectivity events.
	StatusChannel = "ch:status"

	reconnectBase = 2 * time.Second
	reconnectMax  = 60 * time.Second
)

// BookChannel returns the pub/sub channel for a venue's book updates.
func BookChannel(venueName string) string {
	return BookChannelPrefix + venueName
}

// statusEvent is published on StatusChannel on connectivity changes.
type statusEvent struct {
	Venue  string    `json:"venue"`
	Symbol string    `json:"symbol"`
	Status string    `json:"status"`
	At     time.Time `json:"at"`
}

// Runner drives one venue's feed: it keeps the stream connected with
// exponential backoff, coalesces snapshots through a mailbox, and turns each
// taken snapshot into a canonical book in the cache plus a pub/sub update.
type Runner struct {
	adapter  venue.Adapter
	builder  book.Builder
	cache    domain.BookCache
	bus      domain.SignalBus
	notifier *notify.Notifier
	logger   *slog.Logger
	mailbox  *Mailbox
}

// NewRunner creates a runner for one venue adapter.
func NewRunner(
	adapter venue.Adapter,
	builder book.Builder,
	cache domain.BookCache,
	bus domain.SignalBus,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		adapter:  adapter,
		builder:  builder,
		cache:    cache,
		bus:      bus,
		notifier: notifier,
		logger: logger.With(
			slog.String("component", "feed"),
			slog.String("venue", adapter.Venue()),
			slog.String("symbol", adapter.Symbol()),
		),
		mailbox: NewMailbox(),
	}
}

// Run blocks until the context is cancelled, reconnecting with exponential
// backoff whenever the stream drops. It returns ctx.Err on shutdown.
func (r *Runner) Run(ctx context.Context) error {
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		r.consume(ctx)
	}()
	defer func() { <-workerDone }()

	backoff := reconnectBase
	for {
		connectedAt := time.Now()
		var live atomic.Bool

		client := venue.NewStreamClient(r.adapter.Stream())
		err := client.Run(ctx, func(payload []byte) {
			raw, ok := r.adapter.Extract(payload)
			if !ok {
				return
			}
			if live.CompareAndSwap(false, true) {
				r.onConnected(ctx)
			}
			r.mailbox.Put(raw)
		})
		client.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}

		r.logger.WarnContext(ctx, "stream dropped",
			slog.String("error", err.Error()),
			slog.Duration("retry_in", backoff),
		)
		if live.Load() {
			r.onDisconnected(ctx, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		// A session that outlived the cap means the venue was healthy; start
		// the backoff ladder over instead of compounding old failures.
		if time.Since(connectedAt) > reconnectMax {
			backoff = reconnectBase
		} else {
			backoff *= 2
			if backoff > reconnectMax {
				backoff = reconnectMax
			}
		}
	}
}

// consume drains the mailbox: build each snapshot into a canonical book, cache
// it, and publish it. Build failures skip the snapshot; the next one usually
// heals a transient malformed frame.
func (r *Runner) consume(ctx context.Context) {
	for {
		raw, err := r.mailbox.Take(ctx)
		if err != nil {
			return
		}

		b, err := r.builder.Build(raw)
		if err != nil {
			r.logger.WarnContext(ctx, "snapshot rejected", slog.String("error", err.Error()))
			continue
		}

		if err := r.cache.SetBook(ctx, b); err != nil {
			r.logger.ErrorContext(ctx, "cache book", slog.String("error", err.Error()))
			continue
		}

		payload, err := json.Marshal(b)
		if err != nil {
			r.logger.ErrorContext(ctx, "marshal book", slog.String("error", err.Error()))
			continue
		}
		if err := r.bus.Publish(ctx, BookChannel(b.Venue), payload); err != nil {
			r.logger.WarnContext(ctx, "publish book", slog.String("error", err.Error()))
		}
	}
}

func (r *Runner) onConnected(ctx context.Context) {
	r.logger.InfoContext(ctx, "stream live")
	r.publishStatus(ctx, "connected")
	if r.notifier != nil {
		_ = r.notifier.Notify(ctx, notify.EventVenueConnected,
			"Venue connected",
			fmt.Sprintf("%s %s stream is live", r.adapter.Venue(), r.adapter.Symbol()),
		)
	}
}

func (r *Runner) onDisconnected(ctx context.Context, cause error) {
	r.publishStatus(ctx, "disconnected")
	if r.notifier != nil {
		_ = r.notifier.Notify(ctx, notify.EventVenueDisconnected,
			"Venue disconnected",
			fmt.Sprintf("%s %s stream dropped: %v", r.adapter.Venue(), r.adapter.Symbol(), cause),
		)
	}
}

func (r *Runner) publishStatus(ctx context.Context, status string) {
	evt := statusEvent{
		Venue:  r.adapter.Venue(),
		Symbol: r.adapter.Symbol(),
		Status: status,
		At:     time.Now().UTC(),
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := r.bus.Publish(ctx, StatusChannel, payload); err != nil {
		r.logger.WarnContext(ctx, "publish status", slog.String("error", err.Error()))
	}
}
