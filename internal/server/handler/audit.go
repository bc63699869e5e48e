package handler

import (
	"log/slog"
	"net/http"

	"bookscope/internal/domain"
)

// AuditHandler serves the audit log.
type AuditHandler struct {
	store  domain.AuditStore
	logger *slog.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(store domain.AuditStore, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{
		store:  store,
		logger: logHandler(logger, "audit"),
	}
}

// ListAudit returns audit entries newest first.
// GET /api/audit
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List(r.Context(), parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list audit", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
