// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gigmatch/gigmatch/internal/domain/model"
)

// EventsHandler handles event creation and lifecycle requests.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandleCreate handles POST /events requests.
func (h *EventsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req model.Event
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	if req.OrganizerID == "" || req.Title == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: organizer_id and title required", op, ErrBadRequest))
		return
	}

	e, err := h.deps.CreateEvent(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// transitionRequest carries the acting organizer for event state changes.
type transitionRequest struct {
	OrganizerID string `json:"organizer_id"`
}

// HandleTransition handles POST /events/{id}/publish, /events/{id}/cancel
// and /events/{id}/complete requests.
func (h *EventsHandler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	const op = "api.event_transition"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	id, sub, ok := subResource(r.URL.Path, "/events/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	if req.OrganizerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: organizer_id required", op, ErrBadRequest))
		return
	}

	var (
		e   model.Event
		err error
	)
	switch sub {
	case "publish":
		e, err = h.deps.PublishEvent(r.Context(), id, req.OrganizerID)
	case "cancel":
		e, err = h.deps.CancelEvent(r.Context(), id, req.OrganizerID)
	case "complete":
		e, err = h.deps.CompleteEvent(r.Context(), id, req.OrganizerID)
	default:
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%s: unknown transition %q", op, sub))
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
