package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookscope/internal/domain"

	// Register the venue tags the listing reports on.
	_ "bookscope/internal/venue/binance"
	_ "bookscope/internal/venue/bybit"
	_ "bookscope/internal/venue/okx"
)

type fakeBookCache struct {
	venues []string
}

func (c *fakeBookCache) SetBook(ctx context.Context, book domain.Book) error { return nil }

func (c *fakeBookCache) GetBook(ctx context.Context, venue string) (domain.Book, error) {
	return domain.Book{}, domain.ErrNotFound
}

func (c *fakeBookCache) GetBBO(ctx context.Context, venue string) (float64, float64, error) {
	return 0, 0, domain.ErrNotFound
}

func (c *fakeBookCache) ListVenues(ctx context.Context) ([]string, error) {
	return c.venues, nil
}

type fakeSimulationStore struct {
	total int64
}

func (s *fakeSimulationStore) Insert(ctx context.Context, rec domain.SimulationRecord) error {
	return nil
}

func (s *fakeSimulationStore) GetByID(ctx context.Context, id string) (domain.SimulationRecord, error) {
	return domain.SimulationRecord{}, domain.ErrNotFound
}

func (s *fakeSimulationStore) List(ctx context.Context, venue string, opts domain.ListOpts) ([]domain.SimulationRecord, error) {
	return nil, nil
}

func (s *fakeSimulationStore) ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.SimulationRecord, error) {
	return nil, nil
}

func (s *fakeSimulationStore) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	return 0, nil
}

func (s *fakeSimulationStore) Count(ctx context.Context) (int64, error) {
	return s.total, nil
}

func TestVenueHandler_ListVenues(t *testing.T) {
	t.Run("reports live flags and the stored-run total", func(t *testing.T) {
		cache := &fakeBookCache{venues: []string{"binance"}}
		h := NewVenueHandler(cache, &fakeSimulationStore{total: 42}, discardLogger())

		rec := httptest.NewRecorder()
		h.ListVenues(rec, httptest.NewRequest(http.MethodGet, "/api/venues", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Venues []struct {
				Name string `json:"name"`
				Live bool   `json:"live"`
			} `json:"venues"`
			SimulationsStored *int64 `json:"simulations_stored"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

		live := map[string]bool{}
		for _, v := range body.Venues {
			live[v.Name] = v.Live
		}
		assert.True(t, live["binance"])
		assert.False(t, live["bybit"])
		assert.False(t, live["okx"])

		require.NotNil(t, body.SimulationsStored)
		assert.Equal(t, int64(42), *body.SimulationsStored)
	})

	t.Run("omits the total when no store is configured", func(t *testing.T) {
		h := NewVenueHandler(&fakeBookCache{}, nil, discardLogger())

		rec := httptest.NewRecorder()
		h.ListVenues(rec, httptest.NewRequest(http.MethodGet, "/api/venues", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "simulations_stored")
	})
}
