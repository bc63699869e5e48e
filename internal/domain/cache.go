package domain

import (
	"context"
	"time"
)

// BookCache stores the latest canonical book per venue. SetBook replaces the
// previous book atomically from the reader's point of view; partial books are
// never observable.
type BookCache interface {
	SetBook(ctx context.Context, book Book) error
	GetBook(ctx context.Context, venue string) (Book, error)
	GetBBO(ctx context.Context, venue string) (bestBid, bestAsk float64, err error)
	ListVenues(ctx context.Context) ([]string, error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides ephemeral pub/sub fan-out.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
