package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mreyes/confluence/internal/contracts"
	"github.com/mreyes/confluence/pkg/logger"
)

// BlacklistHandler handles ticker blacklist inspection and manual
// unblocking.
type BlacklistHandler struct {
	store  contracts.BlacklistStore
	guard  contracts.Guard
	logger *logger.Logger
}

// NewBlacklistHandler creates a new blacklist handler.
func NewBlacklistHandler(store contracts.BlacklistStore, guard contracts.Guard, log *logger.Logger) *BlacklistHandler {
	return &BlacklistHandler{
		store:  store,
		guard:  guard,
		logger: log,
	}
}

// List returns every blacklist entry.
// GET /api/blacklist
func (h *BlacklistHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list blacklist")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve blacklist")
		return
	}
	if entries == nil {
		entries = []*contracts.BlacklistEntry{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(entries),
		"entries": entries,
	})
}

// Get returns the entry for one ticker.
// GET /api/blacklist/{ticker}
func (h *BlacklistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ticker := h.guard.Normalize(mux.Vars(r)["ticker"])

	entry, err := h.store.Get(r.Context(), ticker)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get blacklist entry")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve entry")
		return
	}
	if entry == nil {
		respondError(w, http.StatusNotFound, "Ticker is not blacklisted")
		return
	}

	respondJSON(w, http.StatusOK, entry)
}

// Unblock clears the entry for one ticker, permanent or not.
// DELETE /api/blacklist/{ticker}
func (h *BlacklistHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	ticker := h.guard.Normalize(mux.Vars(r)["ticker"])

	if err := h.guard.RecordSuccess(r.Context(), ticker); err != nil {
		h.logger.WithError(err).Error("Failed to unblock ticker")
		respondError(w, http.StatusInternalServerError, "Failed to unblock ticker")
		return
	}

	h.logger.WithField("ticker", ticker).Info("Ticker unblocked manually")
	respondJSON(w, http.StatusOK, map[string]string{
		"ticker": ticker,
		"status": "unblocked",
	})
}
