// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gigmatch/gigmatch/internal/domain/model"
)

// OrganizersHandler handles organizer profile, statistics and rating
// requests.
type OrganizersHandler struct {
	deps Dependencies
}

// NewOrganizersHandler creates a new organizers handler.
func NewOrganizersHandler(deps Dependencies) *OrganizersHandler {
	return &OrganizersHandler{deps: deps}
}

// HandleUpsert handles PUT /organizers requests.
func (h *OrganizersHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	const op = "api.upsert_organizer"
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req model.OrganizerProfile
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	if req.OrganizerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: organizer_id required", op, ErrBadRequest))
		return
	}

	o, err := h.deps.SaveProfile(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// HandleStats handles GET /organizers/{id}/stats requests.
func (h *OrganizersHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.organizer_stats"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, sub, ok := subResource(r.URL.Path, "/organizers/")
	if !ok || sub != "stats" {
		http.NotFound(w, r)
		return
	}

	stats, err := h.deps.OrganizerStats(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// rateRequest is the payload for rating a performer after a show.
type rateRequest struct {
	OrganizerID string `json:"organizer_id"`
	EventID     string `json:"event_id"`
	PerformerID string `json:"performer_id"`
	Score       int    `json:"score"`
	Comment     string `json:"comment,omitempty"`
}

// HandleRate handles POST /ratings requests.
func (h *OrganizersHandler) HandleRate(w http.ResponseWriter, r *http.Request) {
	const op = "api.rate_performer"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	if req.OrganizerID == "" || req.EventID == "" || req.PerformerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: organizer_id, event_id and performer_id required", op, ErrBadRequest))
		return
	}

	rating, err := h.deps.RatePerformer(r.Context(), req.OrganizerID, model.Rating{
		EventID:     req.EventID,
		PerformerID: req.PerformerID,
		Score:       req.Score,
		Comment:     req.Comment,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rating)
}
