package s3blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookscope/internal/domain"
)

type fakeArchiveStore struct {
	batch   []domain.SimulationRecord
	deleted []string
}

func (s *fakeArchiveStore) ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.SimulationRecord, error) {
	if len(s.batch) > limit {
		return s.batch[:limit], nil
	}
	return s.batch, nil
}

func (s *fakeArchiveStore) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	s.deleted = append(s.deleted, ids...)
	return int64(len(ids)), nil
}

type fakeWriter struct {
	path string
	body []byte
	err  error
}

func (w *fakeWriter) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	if w.err != nil {
		return w.err
	}
	w.path = path
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.body = b
	return nil
}

func (w *fakeWriter) PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error {
	return w.Put(ctx, path, data, "")
}

func simRec(id string, createdAt time.Time) domain.SimulationRecord {
	return domain.SimulationRecord{
		ID:        id,
		Venue:     "binance",
		Symbol:    "BTCUSDT",
		CreatedAt: createdAt,
	}
}

func TestSimulationArchiver_ArchiveSimulations(t *testing.T) {
	ctx := context.Background()
	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	old := cutoff.AddDate(0, 0, -10)

	t.Run("uploads the batch and deletes exactly those rows", func(t *testing.T) {
		store := &fakeArchiveStore{batch: []domain.SimulationRecord{
			simRec("a", old),
			simRec("b", old.Add(time.Minute)),
		}}
		writer := &fakeWriter{}

		archived, err := NewSimulationArchiver(writer, store, nil).ArchiveSimulations(ctx, cutoff)
		require.NoError(t, err)

		assert.Equal(t, int64(2), archived)
		assert.Equal(t, []string{"a", "b"}, store.deleted)
		assert.True(t, strings.HasPrefix(writer.path, "archive/simulations/"))
		lines := bytes.Split(bytes.TrimRight(writer.body, "\n"), []byte("\n"))
		assert.Len(t, lines, 2)
	})

	t.Run("batch truncated inside a created_at tie leaves the tied row alone", func(t *testing.T) {
		// Rows b and c share one timestamp. The listing is capped after b, so
		// c was never uploaded; only a and b may be removed.
		tied := old.Add(time.Hour)
		store := &fakeArchiveStore{batch: []domain.SimulationRecord{
			simRec("a", old),
			simRec("b", tied),
			simRec("c", tied),
		}}
		writer := &fakeWriter{}
		a := &SimulationArchiver{writer: writer, store: store}

		recs, err := store.ListBefore(ctx, cutoff, 2)
		require.NoError(t, err)
		require.Len(t, recs, 2)

		store.batch = recs
		archived, err := a.ArchiveSimulations(ctx, cutoff)
		require.NoError(t, err)

		assert.Equal(t, int64(2), archived)
		assert.NotContains(t, store.deleted, "c")
		assert.Equal(t, []string{"a", "b"}, store.deleted)
	})

	t.Run("nothing to archive is not an error", func(t *testing.T) {
		store := &fakeArchiveStore{}
		writer := &fakeWriter{}

		archived, err := NewSimulationArchiver(writer, store, nil).ArchiveSimulations(ctx, cutoff)
		require.NoError(t, err)
		assert.Zero(t, archived)
		assert.Empty(t, writer.path)
		assert.Empty(t, store.deleted)
	})

	t.Run("upload failure deletes nothing", func(t *testing.T) {
		store := &fakeArchiveStore{batch: []domain.SimulationRecord{simRec("a", old)}}
		writer := &fakeWriter{err: errors.New("bucket unreachable")}

		_, err := NewSimulationArchiver(writer, store, nil).ArchiveSimulations(ctx, cutoff)
		require.Error(t, err)
		assert.Empty(t, store.deleted)
	})
}
