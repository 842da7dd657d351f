package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"autoadopt/internal/domain"
	"autoadopt/internal/service"
)

// AdoptRequest is the body of POST /api/adopt. Empty Addresses adopts the
// selected devices.
type AdoptRequest struct {
	Addresses   []string `json:"addresses,omitempty"`
	Credentials string   `json:"credentials,omitempty"`
}

// Adopt starts adoption sessions and returns before they finish. Progress
// arrives over /events.
// POST /api/adopt
func (h *Handler) Adopt(w http.ResponseWriter, r *http.Request) {
	var req AdoptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	set := domain.ParseCredentialSet(req.Credentials)
	batch, err := h.adoption.Adopt(r.Context(), req.Addresses, set)
	switch {
	case errors.Is(err, service.ErrNothingSelected),
		errors.Is(err, service.ErrInvalidAddress),
		errors.Is(err, service.ErrCredentialsNotConfigured):
		h.writeError(w, "Cannot start adoption", err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.log.Error().Err(err).Msg("Adoption failed to start")
		h.writeError(w, "Adoption failed to start", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, batch, http.StatusAccepted)
}

// ListAdoptions returns finished adoption attempts, newest first
// GET /api/adoptions?address=192.168.1.20&limit=50
func (h *Handler) ListAdoptions(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, "Invalid limit", "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.adoption.History(r.Context(), address, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list adoptions")
		h.writeError(w, "Failed to list adoptions", err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []domain.AdoptionRun{}
	}

	h.writeJSON(w, runs, http.StatusOK)
}
