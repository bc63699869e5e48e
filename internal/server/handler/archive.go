package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"bookscope/internal/domain"
)

// archiveLockKey serialises archival passes across processes.
const archiveLockKey = "archive:simulations"

// archivePrefix is the object-key prefix archival passes write under.
const archivePrefix = "archive/simulations/"

// ArchiveHandler serves the archive endpoints: listing the batches already
// moved to the blob store and triggering an on-demand archival pass. A
// distributed lock keeps a manual trigger from racing the scheduled pass.
type ArchiveHandler struct {
	archiver domain.Archiver
	reader   domain.BlobReader
	locks    domain.LockManager
	logger   *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler.
func NewArchiveHandler(archiver domain.Archiver, reader domain.BlobReader, locks domain.LockManager, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		archiver: archiver,
		reader:   reader,
		locks:    locks,
		logger:   logHandler(logger, "archive"),
	}
}

// ListArchives returns the archived batches, newest first.
// GET /api/archive
func (h *ArchiveHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	infos, err := h.reader.List(r.Context(), archivePrefix)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list archives", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list archives")
		return
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Path > infos[j].Path
	})

	type batchInfo struct {
		Path         string    `json:"path"`
		SizeBytes    int64     `json:"size_bytes"`
		LastModified time.Time `json:"last_modified"`
	}
	batches := make([]batchInfo, 0, len(infos))
	for _, info := range infos {
		batches = append(batches, batchInfo{
			Path:         info.Path,
			SizeBytes:    info.Size,
			LastModified: info.LastModified,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"batches": batches})
}

// Trigger archives simulation runs older than the cutoff. The cutoff comes
// from either a "before" RFC 3339 query parameter or "retention_days"
// (default 30).
// POST /api/archive/trigger
func (h *ArchiveHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	before, err := parseCutoff(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	unlock, err := h.locks.Acquire(r.Context(), archiveLockKey, 5*time.Minute)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			writeError(w, http.StatusConflict, "an archival pass is already running")
			return
		}
		h.logger.ErrorContext(r.Context(), "acquire archive lock", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to acquire archive lock")
		return
	}
	defer unlock()

	archived, err := h.archiver.ArchiveSimulations(r.Context(), before)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "archive simulations", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "archival failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"archived": archived,
		"before":   before.Format(time.RFC3339),
	})
}

func parseCutoff(r *http.Request) (time.Time, error) {
	q := r.URL.Query()

	if v := q.Get("before"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, errors.New("before must be an RFC 3339 timestamp")
		}
		return ts, nil
	}

	days := 30
	if v := q.Get("retention_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return time.Time{}, errors.New("retention_days must be a positive integer")
		}
		days = n
	}
	return time.Now().UTC().AddDate(0, 0, -days), nil
}
