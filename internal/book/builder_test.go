package book

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookscope/internal/domain"
)

func rawLevels(pairs ...[2]string) []domain.RawLevel {
	out := make([]domain.RawLevel, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, domain.RawLevel{Price: p[0], Size: p[1]})
	}
	return out
}

func TestBuilder_Build(t *testing.T) {
	now := time.Now()

	t.Run("parses and accumulates both sides", func(t *testing.T) {
		raw := domain.RawBook{
			Venue:  "binance",
			Symbol: "BTCUSDT",
			Bids:   rawLevels([2]string{"100", "5"}, [2]string{"99.5", "3"}, [2]string{"99", "2"}),
			Asks:   rawLevels([2]string{"100.5", "1"}, [2]string{"101", "4"}),
			ObservedAt: now,
		}

		b, err := Builder{}.Build(raw)
		require.NoError(t, err)

		require.Len(t, b.Bids, 3)
		require.Len(t, b.Asks, 2)
		assert.Equal(t, "binance", b.Venue)
		assert.Equal(t, now, b.ObservedAt)

		assert.Equal(t, 5.0, b.Bids[0].Cumulative)
		assert.Equal(t, 8.0, b.Bids[1].Cumulative)
		assert.Equal(t, 10.0, b.Bids[2].Cumulative)
		assert.Equal(t, 1.0, b.Asks[0].Cumulative)
		assert.Equal(t, 5.0, b.Asks[1].Cumulative)
	})

	t.Run("cumulative totals are monotone and sum to the side total", func(t *testing.T) {
		raw := domain.RawBook{
			Asks: rawLevels(
				[2]string{"10", "1.5"}, [2]string{"11", "0"}, [2]string{"12", "2.25"},
				[2]string{"13", "4"}, [2]string{"14", "0.75"},
			),
		}
		b, err := Builder{}.Build(raw)
		require.NoError(t, err)

		var sum float64
		prev := 0.0
		for _, lvl := range b.Asks {
			sum += lvl.Size
			assert.GreaterOrEqual(t, lvl.Cumulative, prev)
			prev = lvl.Cumulative
		}
		assert.Equal(t, sum, b.Asks[len(b.Asks)-1].Cumulative)
	})

	t.Run("rebuilding from normalized levels is idempotent", func(t *testing.T) {
		raw := domain.RawBook{
			Bids: rawLevels([2]string{"100", "5"}, [2]string{"99", "3"}),
			Asks: rawLevels([2]string{"101", "2"}, [2]string{"102", "6"}),
		}
		first, err := Builder{}.Build(raw)
		require.NoError(t, err)

		again := domain.RawBook{
			Bids: rawLevels([2]string{"100", "5"}, [2]string{"99", "3"}),
			Asks: rawLevels([2]string{"101", "2"}, [2]string{"102", "6"}),
		}
		second, err := Builder{}.Build(again)
		require.NoError(t, err)

		assert.Equal(t, first.Bids, second.Bids)
		assert.Equal(t, first.Asks, second.Asks)
	})

	t.Run("lenient mode drops malformed levels and keeps the rest", func(t *testing.T) {
		raw := domain.RawBook{
			Bids: rawLevels(
				[2]string{"100", "5"},
				[2]string{"not-a-number", "3"},
				[2]string{"98", ""},
				[2]string{"97", "2"},
			),
		}
		b, err := Builder{}.Build(raw)
		require.NoError(t, err)

		require.Len(t, b.Bids, 2)
		assert.Equal(t, 100.0, b.Bids[0].Price)
		assert.Equal(t, 97.0, b.Bids[1].Price)
		assert.Equal(t, 7.0, b.Bids[1].Cumulative)
	})

	t.Run("strict mode fails the whole update on a bad token", func(t *testing.T) {
		raw := domain.RawBook{
			Asks: rawLevels([2]string{"100", "5"}, [2]string{"101", "junk"}),
		}
		_, err := Builder{Strict: true}.Build(raw)
		assert.ErrorIs(t, err, domain.ErrParse)
	})

	t.Run("negative and non-finite tokens are treated as malformed", func(t *testing.T) {
		raw := domain.RawBook{
			Asks: rawLevels(
				[2]string{"-100", "5"},
				[2]string{"100", "-5"},
				[2]string{"Inf", "1"},
				[2]string{"NaN", "1"},
				[2]string{"100", "5"},
			),
		}
		b, err := Builder{}.Build(raw)
		require.NoError(t, err)
		require.Len(t, b.Asks, 1)
		assert.Equal(t, 100.0, b.Asks[0].Price)
	})

	t.Run("zero-size levels are retained and contribute nothing", func(t *testing.T) {
		raw := domain.RawBook{
			Bids: rawLevels([2]string{"100", "5"}, [2]string{"99", "0"}, [2]string{"98", "3"}),
		}
		b, err := Builder{}.Build(raw)
		require.NoError(t, err)

		require.Len(t, b.Bids, 3)
		assert.Equal(t, 0.0, b.Bids[1].Size)
		assert.Equal(t, 5.0, b.Bids[1].Cumulative)
		assert.Equal(t, 8.0, b.Bids[2].Cumulative)
	})

	t.Run("pruning zero-size levels shifts cumulatives accordingly", func(t *testing.T) {
		// Retain-vs-prune changes the shape downstream consumers see; this
		// pins down what pruning WOULD produce so the retain policy above is
		// an explicit choice, not an accident.
		raw := domain.RawBook{
			Bids: rawLevels([2]string{"100", "5"}, [2]string{"98", "3"}),
		}
		b, err := Builder{}.Build(raw)
		require.NoError(t, err)

		require.Len(t, b.Bids, 2)
		assert.Equal(t, 5.0, b.Bids[0].Cumulative)
		assert.Equal(t, 8.0, b.Bids[1].Cumulative)
	})

	t.Run("out-of-order input is re-sorted, not passed through", func(t *testing.T) {
		raw := domain.RawBook{
			Bids: rawLevels([2]string{"99", "3"}, [2]string{"100", "5"}),
			Asks: rawLevels([2]string{"102", "1"}, [2]string{"101", "2"}),
		}
		b, err := Builder{}.Build(raw)
		require.NoError(t, err)

		assert.Equal(t, 100.0, b.Bids[0].Price)
		assert.Equal(t, 99.0, b.Bids[1].Price)
		assert.Equal(t, 101.0, b.Asks[0].Price)
		assert.Equal(t, 102.0, b.Asks[1].Price)
		assert.Equal(t, 5.0, b.Bids[0].Cumulative)
		assert.Equal(t, 8.0, b.Bids[1].Cumulative)
	})

	t.Run("empty sides build an empty book", func(t *testing.T) {
		b, err := Builder{}.Build(domain.RawBook{Venue: "okx"})
		require.NoError(t, err)
		assert.Empty(t, b.Bids)
		assert.Empty(t, b.Asks)
	})
}
