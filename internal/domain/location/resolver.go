// Package location resolves free-text addresses and device positions into
// coordinates, degrading through an ordered chain of strategies when the
// network geocoder is unavailable.
package location

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gigmatch/gigmatch/internal/domain/geo"
	"github.com/gigmatch/gigmatch/pkg/metrics"
)

// PlaceholderCity labels a position whose reverse geocoding failed. Device
// coordinates are worth keeping even without a human-readable label.
const PlaceholderCity = "Current position"

// Result is a resolved location.
type Result struct {
	City        string
	PostalCode  string
	DisplayName string
	Coordinates geo.Coordinates
}

// Geocoder is the external forward/reverse geocoding capability. Failures are
// typed errors, never panics; calls are bounded by the caller's context.
type Geocoder interface {
	// Forward returns candidate matches for a free-text query, restricted to
	// countryCode. An empty result is not an error.
	Forward(ctx context.Context, query, countryCode string) ([]Result, error)

	// Reverse returns the place at the given coordinates.
	Reverse(ctx context.Context, c geo.Coordinates) (Result, error)
}

// PositionProvider supplies the device's current coordinates.
// Implementations return ErrPositionPermissionDenied when the user refused
// the position permission and ErrPositionUnavailable for anything else.
type PositionProvider interface {
	CurrentPosition(ctx context.Context) (geo.Coordinates, error)
}

// strategy is one tier of the address-resolution chain. Returning
// ErrAddressNotFound (wrapped or not) lets the chain fall through to the
// next tier.
type strategy func(ctx context.Context, text string) (Result, error)

// Resolver turns addresses and city names into coordinates.
type Resolver struct {
	geocoder    Geocoder
	position    PositionProvider
	countryCode string
	cities      map[string]geo.Coordinates
	chain       []strategy
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithGeocoder sets the network geocoding capability.
func WithGeocoder(g Geocoder) Option {
	return func(r *Resolver) {
		if g != nil {
			r.geocoder = g
		}
	}
}

// WithPositionProvider sets the device position capability.
func WithPositionProvider(p PositionProvider) Option {
	return func(r *Resolver) {
		if p != nil {
			r.position = p
		}
	}
}

// WithCountryCode restricts forward geocoding to a single country.
func WithCountryCode(code string) Option {
	return func(r *Resolver) {
		if code != "" {
			r.countryCode = strings.ToLower(code)
		}
	}
}

// WithCityTable replaces the static fallback table of known cities.
func WithCityTable(cities map[string]geo.Coordinates) Option {
	return func(r *Resolver) {
		if len(cities) > 0 {
			r.cities = cities
		}
	}
}

// NewResolver creates a Resolver with configuration options. Without a
// geocoder the resolver still works through the static city table.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		countryCode: defaultCountryCode,
		cities:      defaultCityTable(),
	}
	for _, opt := range opts {
		opt(r)
	}

	// Ordered tiers: network geocode, then the static table. Each tier is
	// independently testable and substitutable.
	if r.geocoder != nil {
		r.chain = append(r.chain, r.resolveViaGeocoder)
	}
	r.chain = append(r.chain, r.resolveViaCityTable)

	return r
}

// ResolveAddress resolves free-text into the best single match, walking the
// strategy chain in order. It returns ErrAddressNotFound when every tier
// misses, and ErrGeocodeUnavailable only when the geocoder failed and no
// fallback tier matched.
func (r *Resolver) ResolveAddress(ctx context.Context, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, fmt.Errorf("%w: empty query", ErrAddressNotFound)
	}

	var unavailable error
	for _, tier := range r.chain {
		res, err := tier(ctx, text)
		if err == nil {
			return res, nil
		}
		if errors.Is(err, ErrGeocodeUnavailable) {
			// Remember the outage but keep degrading.
			unavailable = err
			metrics.RecordGeocodeFallback()
			continue
		}
		if errors.Is(err, ErrAddressNotFound) {
			continue
		}
		return Result{}, err
	}

	if unavailable != nil {
		return Result{}, unavailable
	}
	return Result{}, fmt.Errorf("%w: %q", ErrAddressNotFound, text)
}

// ResolveCurrentPosition obtains device coordinates and attempts a reverse
// lookup. Reverse-geocode failure degrades to PlaceholderCity rather than
// failing the whole operation.
func (r *Resolver) ResolveCurrentPosition(ctx context.Context) (Result, error) {
	if r.position == nil {
		return Result{}, ErrPositionUnavailable
	}

	coords, err := r.position.CurrentPosition(ctx)
	if err != nil {
		return Result{}, err
	}
	if !coords.Valid() {
		return Result{}, fmt.Errorf("%w: out-of-range coordinates", ErrPositionUnavailable)
	}

	if r.geocoder != nil {
		if place, err := r.geocoder.Reverse(ctx, coords); err == nil {
			place.Coordinates = coords
			return place, nil
		}
		metrics.RecordGeocodeFallback()
	}

	return Result{City: PlaceholderCity, Coordinates: coords}, nil
}

// CityFallbackCoordinates looks a city up in the static table, exact match
// first then case-insensitive. A miss is (zero, false), not an error: the
// caller falls back to city-name equality instead of distance filtering.
func (r *Resolver) CityFallbackCoordinates(name string) (geo.Coordinates, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return geo.Coordinates{}, false
	}
	if c, ok := r.cities[name]; ok {
		return c, true
	}
	for city, c := range r.cities {
		if strings.EqualFold(city, name) {
			return c, true
		}
	}
	return geo.Coordinates{}, false
}

// resolveViaGeocoder is the network tier of the chain.
func (r *Resolver) resolveViaGeocoder(ctx context.Context, text string) (Result, error) {
	metrics.RecordGeocodeRequest()
	matches, err := r.geocoder.Forward(ctx, text, r.countryCode)
	if err != nil {
		metrics.RecordGeocodeFailure()
		if errors.Is(err, ErrGeocodeUnavailable) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %v", ErrGeocodeUnavailable, err)
	}
	if len(matches) == 0 {
		return Result{}, fmt.Errorf("%w: %q", ErrAddressNotFound, text)
	}
	best := matches[0]
	if !best.Coordinates.Valid() {
		return Result{}, fmt.Errorf("%w: geocoder returned out-of-range coordinates", ErrAddressNotFound)
	}
	return best, nil
}

// resolveViaCityTable is the offline tier of the chain.
func (r *Resolver) resolveViaCityTable(_ context.Context, text string) (Result, error) {
	if c, ok := r.CityFallbackCoordinates(text); ok {
		return Result{City: canonicalCityName(r.cities, text), Coordinates: c}, nil
	}
	return Result{}, fmt.Errorf("%w: %q", ErrAddressNotFound, text)
}

func canonicalCityName(cities map[string]geo.Coordinates, name string) string {
	name = strings.TrimSpace(name)
	if _, ok := cities[name]; ok {
		return name
	}
	for city := range cities {
		if strings.EqualFold(city, name) {
			return city
		}
	}
	return name
}
