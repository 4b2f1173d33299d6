// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gigmatch/gigmatch/internal/domain/lifecycle"
)

// ApplicationsHandler handles application submission and decision requests.
type ApplicationsHandler struct {
	deps Dependencies
}

// NewApplicationsHandler creates a new applications handler.
func NewApplicationsHandler(deps Dependencies) *ApplicationsHandler {
	return &ApplicationsHandler{deps: deps}
}

// submitRequest is the payload for submitting an application.
type submitRequest struct {
	PerformerID string `json:"performer_id"`
	EventID     string `json:"event_id"`
	Message     string `json:"message"`
}

// HandleSubmit handles POST /applications requests.
func (h *ApplicationsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_application"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	if req.PerformerID == "" || req.EventID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: performer_id and event_id required", op, ErrBadRequest))
		return
	}

	a, err := h.deps.SubmitApplication(r.Context(), req.PerformerID, req.EventID, req.Message)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// decisionRequest is the payload for deciding an application.
type decisionRequest struct {
	OrganizerID string `json:"organizer_id"`
	Outcome     string `json:"outcome"`
}

// HandleSubResource handles POST /applications/{id}/view and
// POST /applications/{id}/decision requests.
func (h *ApplicationsHandler) HandleSubResource(w http.ResponseWriter, r *http.Request) {
	const op = "api.application_sub_resource"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	id, sub, ok := subResource(r.URL.Path, "/applications/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch sub {
	case "view":
		a, err := h.deps.MarkViewed(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	case "decision":
		var req decisionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
			return
		}
		if req.OrganizerID == "" {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: organizer_id required", op, ErrBadRequest))
			return
		}
		a, err := h.deps.DecideApplication(r.Context(), id, req.OrganizerID, lifecycle.Outcome(req.Outcome))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	default:
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%s: unknown action %q", op, sub))
	}
}
