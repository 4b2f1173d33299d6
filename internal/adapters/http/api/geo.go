// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gigmatch/gigmatch/internal/domain/geo"
	"github.com/gigmatch/gigmatch/internal/domain/model"
)

// GeoHandler handles distance and address resolution requests.
type GeoHandler struct {
	deps Dependencies
}

// NewGeoHandler creates a new geo handler.
func NewGeoHandler(deps Dependencies) *GeoHandler {
	return &GeoHandler{deps: deps}
}

// distanceResponse is the payload for distance queries.
type distanceResponse struct {
	DistanceKm float64 `json:"distance_km"`
}

// HandleDistance handles GET /geo/distance requests. Coordinates come from
// the from_lat, from_lon, to_lat and to_lon query parameters.
func (h *GeoHandler) HandleDistance(w http.ResponseWriter, r *http.Request) {
	const op = "api.geo_distance"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	from, err := parseCoordinates(q.Get("from_lat"), q.Get("from_lon"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	to, err := parseCoordinates(q.Get("to_lat"), q.Get("to_lon"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}

	writeJSON(w, http.StatusOK, distanceResponse{DistanceKm: h.deps.DistanceKm(from, to)})
}

// resolveResponse is the payload for address resolution queries.
type resolveResponse struct {
	City        string          `json:"city"`
	PostalCode  string          `json:"postal_code,omitempty"`
	DisplayName string          `json:"display_name,omitempty"`
	Coordinates geo.Coordinates `json:"coordinates"`
}

// HandleResolve handles GET /geo/resolve requests. The free-text query comes
// from the q query parameter.
func (h *GeoHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	const op = "api.geo_resolve"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: q required", op, ErrBadRequest))
		return
	}

	res, err := h.deps.ResolveAddress(r.Context(), query)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{
		City:        res.City,
		PostalCode:  res.PostalCode,
		DisplayName: res.DisplayName,
		Coordinates: res.Coordinates,
	})
}

func parseCoordinates(latStr, lonStr string) (geo.Coordinates, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return geo.Coordinates{}, fmt.Errorf("latitude %q: %w", latStr, err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return geo.Coordinates{}, fmt.Errorf("longitude %q: %w", lonStr, err)
	}
	c := geo.Coordinates{Latitude: lat, Longitude: lon}
	if !c.Valid() {
		return geo.Coordinates{}, fmt.Errorf("%w: %v,%v", model.ErrInvalidCoordinates, lat, lon)
	}
	return c, nil
}
