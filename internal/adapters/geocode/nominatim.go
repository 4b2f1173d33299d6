// Package geocode implements the location.Geocoder capability against a
// Nominatim-compatible HTTP endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gigmatch/gigmatch/internal/domain/geo"
	"github.com/gigmatch/gigmatch/internal/domain/location"
)

// Default client configuration constants.
const (
	defaultBaseURL = "https://nominatim.openstreetmap.org"
	defaultTimeout = 5 * time.Second
	userAgent      = "gigmatch/1.0"
)

// Client is a Nominatim-style geocoder. Requests are bounded by the client
// timeout and the caller's context, whichever ends first.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL points the client at a different Nominatim-compatible server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithTimeout bounds each geocoding request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient creates a geocoding client with configuration options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResult mirrors Nominatim's JSON shape; coordinates arrive as strings.
type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City     string `json:"city"`
		Town     string `json:"town"`
		Village  string `json:"village"`
		Postcode string `json:"postcode"`
	} `json:"address"`
}

// Forward geocodes free text restricted to countryCode.
func (c *Client) Forward(ctx context.Context, query, countryCode string) ([]location.Result, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("addressdetails", "1")
	q.Set("limit", "5")
	if countryCode != "" {
		q.Set("countrycodes", countryCode)
	}

	var results []searchResult
	if err := c.get(ctx, "/search", q, &results); err != nil {
		return nil, err
	}

	out := make([]location.Result, 0, len(results))
	for _, r := range results {
		res, err := r.toResult()
		if err != nil {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

// Reverse resolves coordinates to a place.
func (c *Client) Reverse(ctx context.Context, coords geo.Coordinates) (location.Result, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	q.Set("format", "json")
	q.Set("addressdetails", "1")

	var result searchResult
	if err := c.get(ctx, "/reverse", q, &result); err != nil {
		return location.Result{}, err
	}
	res, err := result.toResult()
	if err != nil {
		return location.Result{}, fmt.Errorf("%w: %v", location.ErrAddressNotFound, err)
	}
	return res, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", location.ErrGeocodeUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", location.ErrGeocodeUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode response: %v", location.ErrGeocodeUnavailable, err)
	}
	return nil
}

func (r searchResult) toResult() (location.Result, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return location.Result{}, fmt.Errorf("parse lat %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return location.Result{}, fmt.Errorf("parse lon %q: %w", r.Lon, err)
	}

	city := r.Address.City
	if city == "" {
		city = r.Address.Town
	}
	if city == "" {
		city = r.Address.Village
	}

	return location.Result{
		City:        city,
		PostalCode:  r.Address.Postcode,
		DisplayName: r.DisplayName,
		Coordinates: geo.Coordinates{Latitude: lat, Longitude: lon},
	}, nil
}
