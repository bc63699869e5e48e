package handler

import (
	"log/slog"
	"net/http"
	"sort"

	"bookscope/internal/domain"
	"bookscope/internal/venue"
)

// VenueHandler serves the venue listing endpoint.
type VenueHandler struct {
	cache  domain.BookCache
	store  domain.SimulationStore
	logger *slog.Logger
}

// NewVenueHandler creates a VenueHandler. store may be nil when no run
// history is configured; the listing then omits the stored-run total.
func NewVenueHandler(cache domain.BookCache, store domain.SimulationStore, logger *slog.Logger) *VenueHandler {
	return &VenueHandler{
		cache:  cache,
		store:  store,
		logger: logHandler(logger, "venues"),
	}
}

// ListVenues returns the supported venue tags, whether a live book is
// currently cached for each, and the total number of stored simulation runs.
// GET /api/venues
func (h *VenueHandler) ListVenues(w http.ResponseWriter, r *http.Request) {
	cached, err := h.cache.ListVenues(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list venues", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list venues")
		return
	}

	live := make(map[string]bool, len(cached))
	for _, v := range cached {
		live[v] = true
	}

	names := venue.Names()
	sort.Strings(names)

	type venueInfo struct {
		Name string `json:"name"`
		Live bool   `json:"live"`
	}
	infos := make([]venueInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, venueInfo{Name: name, Live: live[name]})
	}

	resp := map[string]any{"venues": infos}
	if h.store != nil {
		total, err := h.store.Count(r.Context())
		if err != nil {
			h.logger.WarnContext(r.Context(), "count simulations", slog.String("error", err.Error()))
		} else {
			resp["simulations_stored"] = total
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
