// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gigmatch/gigmatch/internal/domain/model"
)

// PerformersHandler handles performer profile and matching requests.
type PerformersHandler struct {
	deps Dependencies
}

// NewPerformersHandler creates a new performers handler.
func NewPerformersHandler(deps Dependencies) *PerformersHandler {
	return &PerformersHandler{deps: deps}
}

// HandleUpsert handles PUT /performers requests.
func (h *PerformersHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	const op = "api.upsert_performer"
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req model.PerformerProfile
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	if req.PerformerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: performer_id required", op, ErrBadRequest))
		return
	}

	p, err := h.deps.SaveProfile(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleSubResource handles GET /performers/{id}/events and
// GET /performers/{id}/stats requests.
func (h *PerformersHandler) HandleSubResource(w http.ResponseWriter, r *http.Request) {
	const op = "api.performer_sub_resource"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, sub, ok := subResource(r.URL.Path, "/performers/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch sub {
	case "events":
		events, err := h.deps.AvailableEvents(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, eventsResponse{Events: events, Count: len(events)})
	case "stats":
		stats, err := h.deps.PerformerStats(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	default:
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%s: unknown resource %q", op, sub))
	}
}

// eventsResponse is the payload for performer event listings.
type eventsResponse struct {
	Events []model.Event `json:"events"`
	Count  int           `json:"count"`
}

// subResource splits "/prefix/{id}/{sub}" into its id and sub parts.
func subResource(path, prefix string) (id, sub string, ok bool) {
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
