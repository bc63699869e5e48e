package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"bookscope/internal/domain"
	"bookscope/internal/sim"
)

// simChannel is the pub/sub channel simulation results are announced on.
const simChannel = "ch:sim"

// simulateRequest is the POST /api/simulate body. Numeric fields accept JSON
// numbers or strings, matching what trading UIs tend to send.
type simulateRequest struct {
	Venue      string      `json:"venue"`
	Side       string      `json:"side"`
	Type       string      `json:"type"`
	LimitPrice json.Number `json:"limit_price"`
	Quantity   json.Number `json:"quantity"`
}

// SimulateHandler runs execution simulations against cached books and serves
// the persisted run history.
type SimulateHandler struct {
	cache  domain.BookCache
	store  domain.SimulationStore
	bus    domain.SignalBus
	logger *slog.Logger
}

// NewSimulateHandler creates a SimulateHandler. store and bus may be nil; the
// handler then skips persistence and result announcements respectively.
func NewSimulateHandler(cache domain.BookCache, store domain.SimulationStore, bus domain.SignalBus, logger *slog.Logger) *SimulateHandler {
	return &SimulateHandler{
		cache:  cache,
		store:  store,
		bus:    bus,
		logger: logHandler(logger, "simulate"),
	}
}

// Simulate runs one hypothetical order against a venue's latest book.
// POST /api/simulate
func (h *SimulateHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var body simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Venue == "" {
		writeError(w, http.StatusBadRequest, "venue is required")
		return
	}

	req, err := domain.ParseOrderRequest(body.Side, body.Type, body.LimitPrice.String(), body.Quantity.String())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.cache.GetBook(r.Context(), body.Venue)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no book for venue "+body.Venue)
			return
		}
		h.logger.ErrorContext(r.Context(), "load book", slog.String("venue", body.Venue), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load book")
		return
	}

	metrics, err := sim.Simulate(b, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidOrder):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrEmptyBook):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.logger.ErrorContext(r.Context(), "simulate", slog.String("venue", body.Venue), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "simulation failed")
		}
		return
	}

	rec := domain.SimulationRecord{
		ID:        uuid.New().String(),
		Venue:     b.Venue,
		Symbol:    b.Symbol,
		Request:   req,
		Metrics:   metrics,
		BookAt:    b.ObservedAt,
		CreatedAt: time.Now().UTC(),
	}

	if h.store != nil {
		if err := h.store.Insert(r.Context(), rec); err != nil {
			// The simulation result is still valid; persistence is best effort.
			h.logger.ErrorContext(r.Context(), "persist simulation", slog.String("id", rec.ID), slog.String("error", err.Error()))
		}
	}

	if h.bus != nil {
		if payload, err := json.Marshal(rec); err == nil {
			if err := h.bus.Publish(r.Context(), simChannel, payload); err != nil {
				h.logger.WarnContext(r.Context(), "publish simulation", slog.String("error", err.Error()))
			}
		}
	}

	writeJSON(w, http.StatusOK, rec)
}

// ListSimulations returns persisted runs newest first, filterable by venue
// and time range.
// GET /api/simulations
func (h *SimulateHandler) ListSimulations(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "simulation history is not configured")
		return
	}

	venueFilter := r.URL.Query().Get("venue")
	recs, err := h.store.List(r.Context(), venueFilter, parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list simulations", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list simulations")
		return
	}
	if recs == nil {
		recs = []domain.SimulationRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"simulations": recs})
}

// GetSimulation returns one persisted run by ID.
// GET /api/simulations/{id}
func (h *SimulateHandler) GetSimulation(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "simulation history is not configured")
		return
	}

	id := pathParam(r, "id")
	rec, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no simulation "+id)
			return
		}
		h.logger.ErrorContext(r.Context(), "get simulation", slog.String("id", id), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load simulation")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}
