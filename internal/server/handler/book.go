package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"bookscope/internal/book"
	"bookscope/internal/domain"
)

// BookHandler serves canonical book and depth endpoints backed by the book
// cache.
type BookHandler struct {
	cache  domain.BookCache
	logger *slog.Logger
}

// NewBookHandler creates a BookHandler.
func NewBookHandler(cache domain.BookCache, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		cache:  cache,
		logger: logHandler(logger, "book"),
	}
}

// GetBook returns the latest canonical book for a venue.
// GET /api/books/{venue}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	venue := pathParam(r, "venue")

	b, err := h.cache.GetBook(r.Context(), venue)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no book for venue "+venue)
			return
		}
		h.logger.ErrorContext(r.Context(), "get book", slog.String("venue", venue), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load book")
		return
	}

	writeJSON(w, http.StatusOK, b)
}

// GetDepth returns the merged depth-chart series for a venue's book.
// GET /api/books/{venue}/depth
func (h *BookHandler) GetDepth(w http.ResponseWriter, r *http.Request) {
	venue := pathParam(r, "venue")

	b, err := h.cache.GetBook(r.Context(), venue)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no book for venue "+venue)
			return
		}
		h.logger.ErrorContext(r.Context(), "get depth", slog.String("venue", venue), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load book")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"venue":       b.Venue,
		"symbol":      b.Symbol,
		"observed_at": b.ObservedAt,
		"points":      book.ProjectDepth(b),
	})
}

// GetBBO returns the best bid and ask for a venue without the full book.
// GET /api/books/{venue}/bbo
func (h *BookHandler) GetBBO(w http.ResponseWriter, r *http.Request) {
	venue := pathParam(r, "venue")

	bid, ask, err := h.cache.GetBBO(r.Context(), venue)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no book for venue "+venue)
			return
		}
		h.logger.ErrorContext(r.Context(), "get bbo", slog.String("venue", venue), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load bbo")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"venue":    venue,
		"best_bid": bid,
		"best_ask": ask,
	})
}
