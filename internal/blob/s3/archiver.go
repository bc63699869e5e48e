package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookscope/internal/domain"
)

// maxArchiveRecords caps one archival pass. Rows beyond the cap stay in the
// store and are picked up by the next scheduled run.
const maxArchiveRecords = 50000

// multipartThreshold is the payload size above which the upload switches to
// the multipart path.
const multipartThreshold = 8 * 1024 * 1024

// SimulationArchiveStore is the slice of the simulation store the archiver
// needs: read a batch of old rows, then delete what was uploaded.
type SimulationArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.SimulationRecord, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

// SimulationArchiver implements domain.Archiver: it drains simulation runs
// older than a cutoff out of the primary store into JSONL objects in the
// blob store. Rows are deleted only after the upload succeeds.
type SimulationArchiver struct {
	writer domain.BlobWriter
	store  SimulationArchiveStore
	audit  domain.AuditStore
}

// NewSimulationArchiver creates an archiver over the given writer and store.
// audit may be nil when no audit log is configured.
func NewSimulationArchiver(writer domain.BlobWriter, store SimulationArchiveStore, audit domain.AuditStore) *SimulationArchiver {
	return &SimulationArchiver{
		writer: writer,
		store:  store,
		audit:  audit,
	}
}

// ArchiveSimulations moves runs created strictly before the cutoff to the
// blob store and returns the number of rows removed from the primary store.
func (a *SimulationArchiver) ArchiveSimulations(ctx context.Context, before time.Time) (int64, error) {
	recs, err := a.store.ListBefore(ctx, before, maxArchiveRecords)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive simulations query: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(recs)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive simulations marshal: %w", err)
	}

	path := archivePath(before)
	if int64(len(buf)) > multipartThreshold {
		err = a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), 0)
	} else {
		err = a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
	}
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive simulations upload: %w", err)
	}

	// Delete exactly what was uploaded. Deleting by ID means a batch
	// truncated at the cap, even mid way through a created_at tie, can never
	// take an unarchived row with it; the remainder is picked up next pass.
	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	deleted, err := a.store.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive simulations delete: %w", err)
	}

	if a.audit != nil {
		if err := a.audit.Log(ctx, "archive.simulations", map[string]any{
			"path":    path,
			"count":   len(recs),
			"deleted": deleted,
			"before":  before.Format(time.RFC3339),
		}); err != nil {
			return deleted, fmt.Errorf("s3blob: archive simulations audit log: %w", err)
		}
	}

	return deleted, nil
}

// archivePath builds the object key for one archival pass. Runs are keyed by
// the pass timestamp so repeated passes never overwrite each other.
//
//	archive/simulations/20260115T093000Z.jsonl
func archivePath(before time.Time) string {
	return fmt.Sprintf("archive/simulations/%s.jsonl", before.UTC().Format("20060102T150405Z"))
}

// marshalJSONL serialises records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*SimulationArchiver)(nil)
