// Package metrics provides Prometheus metrics for the GigMatch matching
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the matching service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Application lifecycle metrics
	applicationsSubmitted  prometheus.Counter
	applicationsDuplicate  prometheus.Counter
	applicationsDecided    *prometheus.CounterVec
	eventsFilledUp         prometheus.Counter
	availabilityQueries    prometheus.Counter
	availabilityDurationMs prometheus.Histogram

	// Geocoding metrics
	geocodeRequests  prometheus.Counter
	geocodeFailures  prometheus.Counter
	geocodeFallbacks prometheus.Counter

	// Notification pipeline metrics
	notificationsQueued    prometheus.Counter
	notificationsDelivered prometheus.Counter
	notificationsDropped   prometheus.Counter
	notificationErrors     prometheus.Counter
	notificationQueueSize  prometheus.Gauge

	// Store metrics
	storedEvents       prometheus.Gauge
	storedApplications prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gigmatch",
		subsystem:        "matching",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.applicationsSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "applications_submitted_total",
		Help:      "Total number of applications accepted for processing",
	})

	m.applicationsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "applications_duplicate_total",
		Help:      "Total number of submissions rejected as duplicates",
	})

	m.applicationsDecided = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "applications_decided_total",
			Help:      "Total number of organizer decisions by outcome",
		},
		[]string{"outcome"},
	)

	m.eventsFilledUp = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_filled_total",
		Help:      "Total number of events whose derived status flipped to full",
	})

	m.availabilityQueries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "availability_queries_total",
		Help:      "Total number of available-events queries",
	})

	m.availabilityDurationMs = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "availability_query_duration_milliseconds",
		Help:      "Histogram of available-events query duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.geocodeRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "geocode_requests_total",
		Help:      "Total number of forward geocoding requests",
	})

	m.geocodeFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "geocode_failures_total",
		Help:      "Total number of failed geocoding requests",
	})

	m.geocodeFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "geocode_fallbacks_total",
		Help:      "Total number of resolutions that degraded to a fallback tier",
	})

	m.notificationsQueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_queued_total",
		Help:      "Total number of notifications queued for delivery",
	})

	m.notificationsDelivered = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_delivered_total",
		Help:      "Total number of notifications delivered to the sink",
	})

	m.notificationsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_dropped_total",
		Help:      "Total number of notifications dropped on queue overflow",
	})

	m.notificationErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notification_errors_total",
		Help:      "Total number of sink delivery failures",
	})

	m.notificationQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notification_queue_size",
		Help:      "Current number of undelivered notifications",
	})

	m.storedEvents = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stored_events",
		Help:      "Current number of events in the store",
	})

	m.storedApplications = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stored_applications",
		Help:      "Current number of applications in the store",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint, method and status",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordApplicationSubmitted increments the submitted-applications counter.
func RecordApplicationSubmitted() {
	globalManager.applicationsSubmitted.Inc()
}

// RecordApplicationDuplicate increments the duplicate-submissions counter.
func RecordApplicationDuplicate() {
	globalManager.applicationsDuplicate.Inc()
}

// RecordApplicationDecided increments the decisions counter for an outcome.
func RecordApplicationDecided(outcome string) {
	globalManager.applicationsDecided.WithLabelValues(outcome).Inc()
}

// RecordEventFilled increments the events-filled counter.
func RecordEventFilled() {
	globalManager.eventsFilledUp.Inc()
}

// RecordAvailabilityQuery increments the availability-queries counter.
func RecordAvailabilityQuery() {
	globalManager.availabilityQueries.Inc()
}

// RecordAvailabilityDuration records an available-events query duration.
func RecordAvailabilityDuration(durationMs float64) {
	globalManager.availabilityDurationMs.Observe(durationMs)
}

// RecordGeocodeRequest increments the geocode-requests counter.
func RecordGeocodeRequest() {
	globalManager.geocodeRequests.Inc()
}

// RecordGeocodeFailure increments the geocode-failures counter.
func RecordGeocodeFailure() {
	globalManager.geocodeFailures.Inc()
}

// RecordGeocodeFallback increments the fallback-tier counter.
func RecordGeocodeFallback() {
	globalManager.geocodeFallbacks.Inc()
}

// RecordNotificationQueued increments the queued-notifications counter.
func RecordNotificationQueued() {
	globalManager.notificationsQueued.Inc()
}

// RecordNotificationDelivered increments the delivered-notifications counter.
func RecordNotificationDelivered() {
	globalManager.notificationsDelivered.Inc()
}

// RecordNotificationDropped increments the dropped-notifications counter.
func RecordNotificationDropped() {
	globalManager.notificationsDropped.Inc()
}

// RecordNotificationError increments the delivery-failures counter.
func RecordNotificationError() {
	globalManager.notificationErrors.Inc()
}

// UpdateNotificationQueueSize sets the undelivered-notifications gauge.
func UpdateNotificationQueueSize(size int) {
	globalManager.notificationQueueSize.Set(float64(size))
}

// UpdateStoredEvents sets the stored-events gauge.
func UpdateStoredEvents(count int) {
	globalManager.storedEvents.Set(float64(count))
}

// UpdateStoredApplications sets the stored-applications gauge.
func UpdateStoredApplications(count int) {
	globalManager.storedApplications.Set(float64(count))
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
