// Package service provides the core business service that implements the
// matching and application-lifecycle operations exposed over HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gigmatch/gigmatch/internal/adapters/mq/notify"
	"github.com/gigmatch/gigmatch/internal/adapters/repository"
	"github.com/gigmatch/gigmatch/internal/domain/geo"
	"github.com/gigmatch/gigmatch/internal/domain/lifecycle"
	"github.com/gigmatch/gigmatch/internal/domain/location"
	"github.com/gigmatch/gigmatch/internal/domain/matching"
	"github.com/gigmatch/gigmatch/internal/domain/model"
	"github.com/gigmatch/gigmatch/internal/domain/stats"
	"github.com/gigmatch/gigmatch/pkg/logger"
	"github.com/gigmatch/gigmatch/pkg/metrics"
)

// Service wires the domain logic to its collaborators: entity stores, the
// location resolver and the notification dispatcher. All state transitions
// rely on the store's compare-and-swap semantics; the service never retries
// a failed transition on its own.
type Service struct {
	mu sync.RWMutex

	store      repository.Store
	resolver   *location.Resolver
	dispatcher *notify.Dispatcher
	sink       notify.Sink
	geocoder   location.Geocoder
	position   location.PositionProvider

	// Configuration
	countryCode   string
	notifyBuffer  int
	notifyWorkers int

	// State
	started bool

	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the entity store. Defaults to an in-memory store.
func WithStore(s repository.Store) Option {
	return func(svc *Service) {
		if s != nil {
			svc.store = s
		}
	}
}

// WithGeocoder sets the forward/reverse geocoding capability.
func WithGeocoder(g location.Geocoder) Option {
	return func(svc *Service) {
		if g != nil {
			svc.geocoder = g
		}
	}
}

// WithPositionProvider sets the device position capability.
func WithPositionProvider(p location.PositionProvider) Option {
	return func(svc *Service) {
		if p != nil {
			svc.position = p
		}
	}
}

// WithNotificationSink sets the delivery backend for notifications.
func WithNotificationSink(s notify.Sink) Option {
	return func(svc *Service) {
		if s != nil {
			svc.sink = s
		}
	}
}

// WithCountryCode restricts geocoding to one country.
func WithCountryCode(code string) Option {
	return func(svc *Service) {
		if code != "" {
			svc.countryCode = code
		}
	}
}

// WithNotifyBuffer bounds the notification queue.
func WithNotifyBuffer(n int) Option {
	return func(svc *Service) {
		if n > 0 {
			svc.notifyBuffer = n
		}
	}
}

// WithNotifyWorkers sets the number of notification delivery workers.
func WithNotifyWorkers(n int) Option {
	return func(svc *Service) {
		if n > 0 {
			svc.notifyWorkers = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

// WithClock replaces the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) {
		if now != nil {
			svc.now = now
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	svc := &Service{
		countryCode:   "fr",
		notifyBuffer:  1024,
		notifyWorkers: 2,
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Start initializes the default components and the notification dispatcher.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("matching")
	}
	if s.store == nil {
		s.store = repository.NewMemStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.sink == nil {
		s.sink = notify.NewLogSink(s.logger)
	}

	s.resolver = location.NewResolver(
		location.WithGeocoder(s.geocoder),
		location.WithPositionProvider(s.position),
		location.WithCountryCode(s.countryCode),
	)

	s.dispatcher = notify.NewDispatcher(s.sink,
		notify.WithCapacity(s.notifyBuffer),
		notify.WithWorkers(s.notifyWorkers),
		notify.WithLogger(s.logger),
	)
	s.dispatcher.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "matching service started",
		logger.String("country", s.countryCode),
		logger.Int("notifyWorkers", s.notifyWorkers),
	)
	return nil
}

// Stop drains the notification dispatcher.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.dispatcher.Stop()
	s.started = false
	s.logger.Info(context.Background(), "matching service stopped")
}

// UpsertPerformer validates and stores a performer profile. When the profile
// lacks coordinates the static city table fills them in opportunistically; a
// miss leaves the profile unresolved and distance filtering degrades to
// city equality.
func (s *Service) UpsertPerformer(ctx context.Context, p model.PerformerProfile) (model.PerformerProfile, error) {
	if err := p.Validate(); err != nil {
		return model.PerformerProfile{}, err
	}
	if p.Coordinates == nil {
		if c, ok := s.resolver.CityFallbackCoordinates(p.City); ok {
			p.Coordinates = &c
		}
	}
	if err := s.store.UpsertPerformer(ctx, p); err != nil {
		return model.PerformerProfile{}, err
	}
	return p, nil
}

// UpsertOrganizer stores an organizer profile.
func (s *Service) UpsertOrganizer(ctx context.Context, o model.OrganizerProfile) (model.OrganizerProfile, error) {
	if err := s.store.UpsertOrganizer(ctx, o); err != nil {
		return model.OrganizerProfile{}, err
	}
	return o, nil
}

// Organizer returns a stored organizer profile.
func (s *Service) Organizer(ctx context.Context, organizerID string) (model.OrganizerProfile, error) {
	return s.store.GetOrganizer(ctx, organizerID)
}

// SaveProfile stores a profile of either role. The switch is exhaustive over
// the sealed variants; a foreign implementation is refused.
func (s *Service) SaveProfile(ctx context.Context, p model.Profile) (model.Profile, error) {
	switch v := p.(type) {
	case model.PerformerProfile:
		saved, err := s.UpsertPerformer(ctx, v)
		if err != nil {
			return nil, err
		}
		return saved, nil
	case model.OrganizerProfile:
		saved, err := s.UpsertOrganizer(ctx, v)
		if err != nil {
			return nil, err
		}
		return saved, nil
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownProfileRole, p.Role())
	}
}

// CreateEvent stores a new event for an organizer. An event without a status
// starts as a draft; an unresolved location gets the city-table treatment.
func (s *Service) CreateEvent(ctx context.Context, e model.Event) (model.Event, error) {
	if e.EventID == "" {
		e.EventID = s.newID()
	}
	if e.Status == "" {
		e.Status = model.EventDraft
	}
	if e.Location.Coordinates != nil && !e.Location.Coordinates.Valid() {
		return model.Event{}, fmt.Errorf("%w: %+v", model.ErrInvalidCoordinates, *e.Location.Coordinates)
	}
	if !e.Location.Resolved() {
		if c, ok := s.resolver.CityFallbackCoordinates(e.Location.City); ok {
			e.Location.Coordinates = &c
		}
	}
	if err := s.store.CreateEvent(ctx, e); err != nil {
		return model.Event{}, err
	}
	return e, nil
}

// PublishEvent transitions an organizer's draft event to published.
func (s *Service) PublishEvent(ctx context.Context, eventID, organizerID string) (model.Event, error) {
	if _, err := s.getOwnedEvent(ctx, eventID, organizerID); err != nil {
		return model.Event{}, err
	}
	return s.casEventStatus(ctx, eventID, model.EventDraft, model.EventPublished)
}

// CancelEvent cancels an organizer's event.
func (s *Service) CancelEvent(ctx context.Context, eventID, organizerID string) (model.Event, error) {
	e, err := s.getOwnedEvent(ctx, eventID, organizerID)
	if err != nil {
		return model.Event{}, err
	}
	if e.Status == model.EventCompleted || e.Status == model.EventCancelled {
		return model.Event{}, fmt.Errorf("%w: cannot cancel a %s event", lifecycle.ErrInvalidTransition, e.Status)
	}
	return s.casEventStatus(ctx, eventID, e.Status, model.EventCancelled)
}

// CompleteEvent marks a published or full event as completed.
func (s *Service) CompleteEvent(ctx context.Context, eventID, organizerID string) (model.Event, error) {
	e, err := s.getOwnedEvent(ctx, eventID, organizerID)
	if err != nil {
		return model.Event{}, err
	}
	if e.Status != model.EventPublished && e.Status != model.EventFull {
		return model.Event{}, fmt.Errorf("%w: cannot complete a %s event", lifecycle.ErrInvalidTransition, e.Status)
	}
	return s.casEventStatus(ctx, eventID, e.Status, model.EventCompleted)
}

// AvailableEvents returns the events the performer may still apply to.
// Result order is not part of the contract.
func (s *Service) AvailableEvents(ctx context.Context, performerID string) ([]model.Event, error) {
	start := time.Now()
	defer func() {
		metrics.RecordAvailabilityDuration(float64(time.Since(start).Milliseconds()))
	}()
	metrics.RecordAvailabilityQuery()

	performer, err := s.getPerformer(ctx, performerID)
	if err != nil {
		return nil, err
	}
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	applications, err := s.store.ListApplications(ctx)
	if err != nil {
		return nil, err
	}

	return matching.AvailableEvents(performer, events, applications), nil
}

// SubmitApplication creates a pending application after re-validating
// eligibility server-side; a client-computed filter is never trusted. On
// success the event's organizer is notified.
func (s *Service) SubmitApplication(ctx context.Context, performerID, eventID, message string) (model.Application, error) {
	performer, err := s.getPerformer(ctx, performerID)
	if err != nil {
		return model.Application{}, err
	}
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return model.Application{}, err
	}

	eventApps, err := s.store.ListApplicationsByEvent(ctx, eventID)
	if err != nil {
		return model.Application{}, err
	}
	performerApps, err := s.store.ListApplicationsByPerformer(ctx, performerID)
	if err != nil {
		return model.Application{}, err
	}
	applied := make(map[string]bool, len(performerApps))
	for _, a := range performerApps {
		applied[a.EventID] = true
	}

	verdict := matching.Check(performer, event, applied, matching.AcceptedCount(eventID, eventApps))
	if !verdict.Eligible {
		if verdict.Reason == matching.ReasonAlreadyApplied {
			metrics.RecordApplicationDuplicate()
			return model.Application{}, fmt.Errorf("%w: performer %s on event %s", lifecycle.ErrDuplicateApplication, performerID, eventID)
		}
		return model.Application{}, fmt.Errorf("%w: %s", lifecycle.ErrEventNotJoinable, verdict.Reason)
	}

	app := model.Application{
		ApplicationID: s.newID(),
		EventID:       eventID,
		PerformerID:   performerID,
		Message:       message,
		Status:        model.ApplicationPending,
		AppliedAt:     s.now(),
	}
	if err := s.store.CreateApplication(ctx, app); err != nil {
		// The store's uniqueness check is authoritative under concurrency.
		if errors.Is(err, repository.ErrDuplicateApplication) {
			metrics.RecordApplicationDuplicate()
			return model.Application{}, fmt.Errorf("%w: performer %s on event %s", lifecycle.ErrDuplicateApplication, performerID, eventID)
		}
		return model.Application{}, err
	}

	metrics.RecordApplicationSubmitted()
	s.dispatcher.Notify(ctx, event.OrganizerID, notify.TypeApplicationReceived, map[string]any{
		"application_id": app.ApplicationID,
		"event_id":       eventID,
		"performer_id":   performerID,
	})

	return app, nil
}

// MarkViewed moves a pending application to viewed. Idempotent: calling it
// on a non-pending application is a no-op, not an error, and the write has
// no side effects.
func (s *Service) MarkViewed(ctx context.Context, applicationID string) (model.Application, error) {
	app, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return model.Application{}, err
	}
	if app.Status != model.ApplicationPending {
		return app, nil
	}

	updated, err := s.store.UpdateApplicationStatus(ctx, applicationID, model.ApplicationPending, model.ApplicationViewed, nil)
	if errors.Is(err, repository.ErrStatusConflict) {
		// Lost the race to a decision or another view; both are fine.
		return s.getApplication(ctx, applicationID)
	}
	if err != nil {
		return model.Application{}, err
	}
	return updated, nil
}

// DecideApplication applies an organizer's accept/reject decision. On
// success the performer is notified and, for an accepting decision that
// reaches capacity, the event's derived status flips published -> full.
func (s *Service) DecideApplication(ctx context.Context, applicationID, organizerID string, outcome lifecycle.Outcome) (model.Application, error) {
	app, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return model.Application{}, err
	}
	event, err := s.getEvent(ctx, app.EventID)
	if err != nil {
		return model.Application{}, err
	}

	var updated model.Application
	for {
		target, err := lifecycle.ValidateDecision(app, event, organizerID, outcome)
		if err != nil {
			return model.Application{}, err
		}

		respondedAt := s.now()
		updated, err = s.store.UpdateApplicationStatus(ctx, applicationID, app.Status, target, &respondedAt)
		if errors.Is(err, repository.ErrStatusConflict) {
			// A concurrent transition won. Only a terminal status makes the
			// decision final; a pending -> viewed race leaves the
			// application decidable, so retry from the fresh status.
			app, err = s.getApplication(ctx, applicationID)
			if err != nil {
				return model.Application{}, err
			}
			if app.Status.Terminal() {
				return model.Application{}, fmt.Errorf("%w: application %s", lifecycle.ErrAlreadyDecided, applicationID)
			}
			continue
		}
		if err != nil {
			return model.Application{}, err
		}
		break
	}
	target := updated.Status

	metrics.RecordApplicationDecided(string(outcome))
	s.dispatcher.Notify(ctx, app.PerformerID, notificationType(target), map[string]any{
		"application_id": applicationID,
		"event_id":       event.EventID,
	})

	if target == model.ApplicationAccepted {
		s.recomputeEventStatus(ctx, event)
	}

	return updated, nil
}

// RatePerformer records an organizer's post-show rating for a performer on
// a completed event.
func (s *Service) RatePerformer(ctx context.Context, organizerID string, r model.Rating) (model.Rating, error) {
	if err := r.Validate(); err != nil {
		return model.Rating{}, err
	}
	event, err := s.getOwnedEvent(ctx, r.EventID, organizerID)
	if err != nil {
		return model.Rating{}, err
	}
	if event.Status != model.EventCompleted {
		return model.Rating{}, fmt.Errorf("%w: event %s is not completed", lifecycle.ErrInvalidTransition, r.EventID)
	}
	if r.RatingID == "" {
		r.RatingID = s.newID()
	}
	r.CreatedAt = s.now()
	if err := s.store.AddRating(ctx, r); err != nil {
		return model.Rating{}, err
	}
	return r, nil
}

// PerformerStats recomputes the performer's derived statistics from current
// source data. Nothing is cached.
func (s *Service) PerformerStats(ctx context.Context, performerID string) (model.DerivedStats, error) {
	apps, err := s.store.ListApplicationsByPerformer(ctx, performerID)
	if err != nil {
		return model.DerivedStats{}, err
	}
	events := make(map[string]model.Event, len(apps))
	for _, a := range apps {
		if _, ok := events[a.EventID]; ok {
			continue
		}
		e, err := s.getEvent(ctx, a.EventID)
		if err != nil {
			return model.DerivedStats{}, err
		}
		events[a.EventID] = e
	}
	ratings, err := s.store.ListRatingsByPerformer(ctx, performerID)
	if err != nil {
		return model.DerivedStats{}, err
	}
	return stats.PerformerStats(performerID, apps, events, ratings), nil
}

// OrganizerStats aggregates over the organizer's own events.
func (s *Service) OrganizerStats(ctx context.Context, organizerID string) (model.OrganizerStats, error) {
	events, err := s.store.ListEventsByOrganizer(ctx, organizerID)
	if err != nil {
		return model.OrganizerStats{}, err
	}
	applications, err := s.store.ListApplications(ctx)
	if err != nil {
		return model.OrganizerStats{}, err
	}
	return stats.OrganizerStats(organizerID, events, applications), nil
}

// DistanceKm exposes the great-circle distance computation.
func (s *Service) DistanceKm(a, b geo.Coordinates) float64 {
	return geo.DistanceKm(a, b)
}

// ResolveAddress resolves free text through the geocoding fallback chain.
func (s *Service) ResolveAddress(ctx context.Context, text string) (location.Result, error) {
	return s.resolver.ResolveAddress(ctx, text)
}

// ResolveCurrentPosition resolves the device position.
func (s *Service) ResolveCurrentPosition(ctx context.Context) (location.Result, error) {
	return s.resolver.ResolveCurrentPosition(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]interface{}{
		"started": s.started,
		"country": s.countryCode,
	}
	if !s.started {
		return out
	}

	queued := s.dispatcher.Len()
	out["notificationQueue"] = queued
	metrics.UpdateNotificationQueueSize(queued)

	if events, err := s.store.ListEvents(ctx); err == nil {
		out["events"] = len(events)
	}
	if apps, err := s.store.ListApplications(ctx); err == nil {
		out["applications"] = len(apps)
	}
	return out
}

// recomputeEventStatus derives the event status after an accepting decision.
// A CAS conflict here means another decision already flipped the status;
// that is consistency lag, not an error.
func (s *Service) recomputeEventStatus(ctx context.Context, event model.Event) {
	apps, err := s.store.ListApplicationsByEvent(ctx, event.EventID)
	if err != nil {
		s.logger.Warn(ctx, "derived status recompute skipped",
			logger.String("event_id", event.EventID), logger.Error(err))
		return
	}

	next, changed := lifecycle.RecomputeEventStatus(event, matching.AcceptedCount(event.EventID, apps))
	if !changed {
		return
	}
	if _, err := s.store.UpdateEventStatus(ctx, event.EventID, event.Status, next); err != nil {
		if !errors.Is(err, repository.ErrStatusConflict) {
			s.logger.Warn(ctx, "derived status update failed",
				logger.String("event_id", event.EventID), logger.Error(err))
		}
		return
	}
	if next == model.EventFull {
		metrics.RecordEventFilled()
		s.logger.Info(ctx, "event reached capacity",
			logger.String("event_id", event.EventID),
			logger.Int("max_performers", event.MaxPerformers),
		)
	}
}

func (s *Service) casEventStatus(ctx context.Context, eventID string, from, to model.EventStatus) (model.Event, error) {
	e, err := s.store.UpdateEventStatus(ctx, eventID, from, to)
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return model.Event{}, fmt.Errorf("%w: %v", lifecycle.ErrInvalidTransition, err)
		}
		if errors.Is(err, repository.ErrEventNotFound) {
			return model.Event{}, fmt.Errorf("%w: %s", lifecycle.ErrEventNotFound, eventID)
		}
		return model.Event{}, err
	}
	return e, nil
}

func (s *Service) getOwnedEvent(ctx context.Context, eventID, organizerID string) (model.Event, error) {
	e, err := s.getEvent(ctx, eventID)
	if err != nil {
		return model.Event{}, err
	}
	if e.OrganizerID != organizerID {
		return model.Event{}, fmt.Errorf("%w: organizer %s does not own event %s", lifecycle.ErrUnauthorized, organizerID, eventID)
	}
	return e, nil
}

func (s *Service) getPerformer(ctx context.Context, performerID string) (model.PerformerProfile, error) {
	return s.store.GetPerformer(ctx, performerID)
}

func (s *Service) getEvent(ctx context.Context, eventID string) (model.Event, error) {
	e, err := s.store.GetEvent(ctx, eventID)
	if errors.Is(err, repository.ErrEventNotFound) {
		return model.Event{}, fmt.Errorf("%w: %s", lifecycle.ErrEventNotFound, eventID)
	}
	return e, err
}

func (s *Service) getApplication(ctx context.Context, applicationID string) (model.Application, error) {
	a, err := s.store.GetApplication(ctx, applicationID)
	if errors.Is(err, repository.ErrApplicationNotFound) {
		return model.Application{}, fmt.Errorf("%w: %s", lifecycle.ErrApplicationNotFound, applicationID)
	}
	return a, err
}

func notificationType(status model.ApplicationStatus) string {
	if status == model.ApplicationAccepted {
		return notify.TypeApplicationAccepted
	}
	return notify.TypeApplicationRejected
}
