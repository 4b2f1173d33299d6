// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults and Load(ctx) to layer
//   file and environment sources on top.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CountryCode restricts forward geocoding to one country.
	CountryCode string `koanf:"country_code"`

	// GeocoderBaseURL points at a Nominatim-compatible server. Empty
	// disables network geocoding; the resolver then runs on the static
	// city table alone.
	GeocoderBaseURL string `koanf:"geocoder_base_url"`

	// GeocoderTimeoutMS bounds each geocoding request.
	GeocoderTimeoutMS int `koanf:"geocoder_timeout_ms"`

	// NotifyBuffer bounds the in-memory notification queue.
	NotifyBuffer int `koanf:"notify_buffer"`

	// NotifyWorkers sets the number of notification delivery workers.
	NotifyWorkers int `koanf:"notify_workers"`

	// NATSURL enables the NATS notification sink when non-empty.
	NATSURL string `koanf:"nats_url"`

	// NATSSubjectPrefix prefixes per-user notification subjects.
	NATSSubjectPrefix string `koanf:"nats_subject_prefix"`

	// DatabaseURL enables the Postgres store when non-empty; otherwise the
	// in-memory store is used.
	DatabaseURL string `koanf:"database_url"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":8090",
		CountryCode:       "fr",
		GeocoderBaseURL:   "https://nominatim.openstreetmap.org",
		GeocoderTimeoutMS: 5000,
		NotifyBuffer:      1024,
		NotifyWorkers:     2,
		NATSSubjectPrefix: "gigmatch.notifications",
	}
}
