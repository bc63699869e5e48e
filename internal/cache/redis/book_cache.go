package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"bookscope/internal/domain"
)

// BookCache implements domain.BookCache. Each venue's canonical book is kept
// as one JSON blob and replaced wholesale inside a transaction, so readers
// never observe a half-written book.
//
// Key schema:
//
//	book:{venue}:snapshot - JSON-encoded domain.Book
//	book:{venue}:bbo      - hash with fields "bid" and "ask" (best prices)
//	books:venues          - set of venue tags with a cached book
type BookCache struct {
	rdb *redis.Client
}

// NewBookCache creates a BookCache backed by the given Client.
func NewBookCache(c *Client) *BookCache {
	return &BookCache{rdb: c.Underlying()}
}

func bookSnapshotKey(venue string) string { return "book:" + venue + ":snapshot" }
func bookBBOKey(venue string) string      { return "book:" + venue + ":bbo" }

const venueSetKey = "books:venues"

// SetBook atomically replaces the cached book for the book's venue and
// refreshes the derived BBO hash.
func (bc *BookCache) SetBook(ctx context.Context, book domain.Book) error {
	payload, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("redis: marshal book %s: %w", book.Venue, err)
	}

	pipe := bc.rdb.TxPipeline()
	pipe.Set(ctx, bookSnapshotKey(book.Venue), payload, 0)
	pipe.SAdd(ctx, venueSetKey, book.Venue)

	bboKey := bookBBOKey(book.Venue)
	pipe.Del(ctx, bboKey)
	if bid := book.BestBid(); bid > 0 {
		pipe.HSet(ctx, bboKey, "bid", strconv.FormatFloat(bid, 'f', -1, 64))
	}
	if ask := book.BestAsk(); ask > 0 {
		pipe.HSet(ctx, bboKey, "ask", strconv.FormatFloat(ask, 'f', -1, 64))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set book %s: %w", book.Venue, err)
	}
	return nil
}

// GetBook returns the cached canonical book for a venue. It returns
// domain.ErrNotFound when the venue has no cached book.
func (bc *BookCache) GetBook(ctx context.Context, venue string) (domain.Book, error) {
	payload, err := bc.rdb.Get(ctx, bookSnapshotKey(venue)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Book{}, fmt.Errorf("redis: get book %s: %w", venue, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Book{}, fmt.Errorf("redis: get book %s: %w", venue, err)
	}

	var book domain.Book
	if err := json.Unmarshal(payload, &book); err != nil {
		return domain.Book{}, fmt.Errorf("redis: decode book %s: %w", venue, err)
	}
	return book, nil
}

// GetBBO retrieves the best bid and ask without decoding the whole book.
// It returns domain.ErrNotFound if no BBO data exists for the venue.
func (bc *BookCache) GetBBO(ctx context.Context, venue string) (bestBid, bestAsk float64, err error) {
	vals, err := bc.rdb.HGetAll(ctx, bookBBOKey(venue)).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis: get bbo %s: %w", venue, err)
	}
	if len(vals) == 0 {
		return 0, 0, domain.ErrNotFound
	}

	if bidStr, ok := vals["bid"]; ok {
		bestBid, _ = strconv.ParseFloat(bidStr, 64)
	}
	if askStr, ok := vals["ask"]; ok {
		bestAsk, _ = strconv.ParseFloat(askStr, 64)
	}
	return bestBid, bestAsk, nil
}

// ListVenues returns the venue tags that currently have a cached book.
func (bc *BookCache) ListVenues(ctx context.Context) ([]string, error) {
	venues, err := bc.rdb.SMembers(ctx, venueSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list venues: %w", err)
	}
	return venues, nil
}

// Compile-time interface check.
var _ domain.BookCache = (*BookCache)(nil)
