// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gigmatch/gigmatch/internal/adapters/repository"
	"github.com/gigmatch/gigmatch/internal/domain/geo"
	"github.com/gigmatch/gigmatch/internal/domain/lifecycle"
	"github.com/gigmatch/gigmatch/internal/domain/location"
	"github.com/gigmatch/gigmatch/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SaveProfile(ctx context.Context, p model.Profile) (model.Profile, error)
	CreateEvent(ctx context.Context, e model.Event) (model.Event, error)
	PublishEvent(ctx context.Context, eventID, organizerID string) (model.Event, error)
	CancelEvent(ctx context.Context, eventID, organizerID string) (model.Event, error)
	CompleteEvent(ctx context.Context, eventID, organizerID string) (model.Event, error)

	AvailableEvents(ctx context.Context, performerID string) ([]model.Event, error)
	SubmitApplication(ctx context.Context, performerID, eventID, message string) (model.Application, error)
	MarkViewed(ctx context.Context, applicationID string) (model.Application, error)
	DecideApplication(ctx context.Context, applicationID, organizerID string, outcome lifecycle.Outcome) (model.Application, error)
	RatePerformer(ctx context.Context, organizerID string, r model.Rating) (model.Rating, error)

	PerformerStats(ctx context.Context, performerID string) (model.DerivedStats, error)
	OrganizerStats(ctx context.Context, organizerID string) (model.OrganizerStats, error)
	DistanceKm(a, b geo.Coordinates) float64
	ResolveAddress(ctx context.Context, text string) (location.Result, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	performersHandler   *PerformersHandler
	eventsHandler       *EventsHandler
	applicationsHandler *ApplicationsHandler
	organizersHandler   *OrganizersHandler
	geoHandler          *GeoHandler
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		performersHandler:   NewPerformersHandler(deps),
		eventsHandler:       NewEventsHandler(deps),
		applicationsHandler: NewApplicationsHandler(deps),
		organizersHandler:   NewOrganizersHandler(deps),
		geoHandler:          NewGeoHandler(deps),
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(statsProvider),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/performers", MetricsMiddleware(s.performersHandler.HandleUpsert, "performers"))
	mux.HandleFunc("/performers/", MetricsMiddleware(s.performersHandler.HandleSubResource, "performers"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandleCreate, "events"))
	mux.HandleFunc("/events/", MetricsMiddleware(s.eventsHandler.HandleTransition, "events"))
	mux.HandleFunc("/applications", MetricsMiddleware(s.applicationsHandler.HandleSubmit, "applications"))
	mux.HandleFunc("/applications/", MetricsMiddleware(s.applicationsHandler.HandleSubResource, "applications"))
	mux.HandleFunc("/organizers", MetricsMiddleware(s.organizersHandler.HandleUpsert, "organizers"))
	mux.HandleFunc("/organizers/", MetricsMiddleware(s.organizersHandler.HandleStats, "organizers"))
	mux.HandleFunc("/ratings", MetricsMiddleware(s.organizersHandler.HandleRate, "ratings"))
	mux.HandleFunc("/geo/distance", MetricsMiddleware(s.geoHandler.HandleDistance, "geo_distance"))
	mux.HandleFunc("/geo/resolve", MetricsMiddleware(s.geoHandler.HandleResolve, "geo_resolve"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates the core's typed errors into HTTP statuses.
// Conflict kinds are business-rule rejections and map to 409; they are not
// logged as failures.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrEventNotFound),
		errors.Is(err, lifecycle.ErrApplicationNotFound),
		errors.Is(err, repository.ErrPerformerNotFound),
		errors.Is(err, repository.ErrOrganizerNotFound),
		errors.Is(err, location.ErrAddressNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, lifecycle.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "unauthorized", err)
	case errors.Is(err, lifecycle.ErrDuplicateApplication):
		writeError(w, http.StatusConflict, "duplicate_application", err)
	case errors.Is(err, lifecycle.ErrAlreadyDecided):
		writeError(w, http.StatusConflict, "already_decided", err)
	case errors.Is(err, lifecycle.ErrEventNotJoinable):
		writeError(w, http.StatusConflict, "event_not_joinable", err)
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err)
	case errors.Is(err, lifecycle.ErrInvalidOutcome),
		errors.Is(err, model.ErrInvalidCoordinates),
		errors.Is(err, model.ErrInvalidMobilityRadius),
		errors.Is(err, model.ErrInvalidRatingScore),
		errors.Is(err, model.ErrUnknownProfileRole):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, location.ErrGeocodeUnavailable):
		writeError(w, http.StatusServiceUnavailable, "geocode_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
