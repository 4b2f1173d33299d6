package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gigmatch/gigmatch/internal/domain/model"
	"github.com/gigmatch/gigmatch/pkg/metrics"
)

// MemStore implements Store with mutex-guarded maps. It is the default
// wiring for library-level use and tests; the lock gives the same
// at-most-one-in-flight-mutation guarantee the Postgres store gets from its
// constraints.
type MemStore struct {
	mu sync.RWMutex

	events       map[string]model.Event
	applications map[string]model.Application
	// pairIndex enforces the (eventID, performerID) uniqueness invariant.
	pairIndex  map[string]string
	ratings    []model.Rating
	performers map[string]model.PerformerProfile
	organizers map[string]model.OrganizerProfile
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		events:       make(map[string]model.Event),
		applications: make(map[string]model.Application),
		pairIndex:    make(map[string]string),
		performers:   make(map[string]model.PerformerProfile),
		organizers:   make(map[string]model.OrganizerProfile),
	}
}

// UpsertPerformer creates or replaces a performer profile.
func (s *MemStore) UpsertPerformer(_ context.Context, p model.PerformerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.performers[p.PerformerID] = p
	return nil
}

// GetPerformer returns the profile or ErrPerformerNotFound.
func (s *MemStore) GetPerformer(_ context.Context, performerID string) (model.PerformerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.performers[performerID]
	if !ok {
		return model.PerformerProfile{}, fmt.Errorf("%w: %s", ErrPerformerNotFound, performerID)
	}
	return p, nil
}

// UpsertOrganizer creates or replaces an organizer profile.
func (s *MemStore) UpsertOrganizer(_ context.Context, o model.OrganizerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.organizers[o.OrganizerID] = o
	return nil
}

// GetOrganizer returns the profile or ErrOrganizerNotFound.
func (s *MemStore) GetOrganizer(_ context.Context, organizerID string) (model.OrganizerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.organizers[organizerID]
	if !ok {
		return model.OrganizerProfile{}, fmt.Errorf("%w: %s", ErrOrganizerNotFound, organizerID)
	}
	return o, nil
}

// CreateEvent stores a new event.
func (s *MemStore) CreateEvent(_ context.Context, e model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[e.EventID]; exists {
		return fmt.Errorf("event %s already exists", e.EventID)
	}
	s.events[e.EventID] = e
	metrics.UpdateStoredEvents(len(s.events))
	return nil
}

// GetEvent returns the event or ErrEventNotFound.
func (s *MemStore) GetEvent(_ context.Context, eventID string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[eventID]
	if !ok {
		return model.Event{}, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	return e, nil
}

// ListEvents returns every event.
func (s *MemStore) ListEvents(_ context.Context) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	return out, nil
}

// ListEventsByOrganizer returns the organizer's own events.
func (s *MemStore) ListEventsByOrganizer(_ context.Context, organizerID string) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Event
	for _, e := range s.events {
		if e.OrganizerID == organizerID {
			out = append(out, e)
		}
	}
	return out, nil
}

// UpdateEventStatus is a compare-and-swap on the event status.
func (s *MemStore) UpdateEventStatus(_ context.Context, eventID string, from, to model.EventStatus) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]
	if !ok {
		return model.Event{}, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	if e.Status != from {
		return model.Event{}, fmt.Errorf("%w: event %s is %s, not %s", ErrStatusConflict, eventID, e.Status, from)
	}
	e.Status = to
	s.events[eventID] = e
	return e, nil
}

// CreateApplication stores a new application, enforcing pair uniqueness.
func (s *MemStore) CreateApplication(_ context.Context, a model.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(a.EventID, a.PerformerID)
	if _, exists := s.pairIndex[key]; exists {
		return fmt.Errorf("%w: performer %s already applied to event %s", ErrDuplicateApplication, a.PerformerID, a.EventID)
	}
	s.applications[a.ApplicationID] = a
	s.pairIndex[key] = a.ApplicationID
	metrics.UpdateStoredApplications(len(s.applications))
	return nil
}

// GetApplication returns the application or ErrApplicationNotFound.
func (s *MemStore) GetApplication(_ context.Context, applicationID string) (model.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.applications[applicationID]
	if !ok {
		return model.Application{}, fmt.Errorf("%w: %s", ErrApplicationNotFound, applicationID)
	}
	return a, nil
}

// ListApplicationsByEvent returns every application for the event.
func (s *MemStore) ListApplicationsByEvent(_ context.Context, eventID string) ([]model.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Application
	for _, a := range s.applications {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ListApplicationsByPerformer returns the performer's applications.
func (s *MemStore) ListApplicationsByPerformer(_ context.Context, performerID string) ([]model.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Application
	for _, a := range s.applications {
		if a.PerformerID == performerID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ListApplications returns every application.
func (s *MemStore) ListApplications(_ context.Context) ([]model.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Application, 0, len(s.applications))
	for _, a := range s.applications {
		out = append(out, a)
	}
	return out, nil
}

// UpdateApplicationStatus is a compare-and-swap on the application status.
func (s *MemStore) UpdateApplicationStatus(_ context.Context, applicationID string, from, to model.ApplicationStatus, respondedAt *time.Time) (model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.applications[applicationID]
	if !ok {
		return model.Application{}, fmt.Errorf("%w: %s", ErrApplicationNotFound, applicationID)
	}
	if a.Status != from {
		return model.Application{}, fmt.Errorf("%w: application %s is %s, not %s", ErrStatusConflict, applicationID, a.Status, from)
	}
	a.Status = to
	if respondedAt != nil {
		a.RespondedAt = respondedAt
	}
	s.applications[applicationID] = a
	return a, nil
}

// AddRating stores a rating.
func (s *MemStore) AddRating(_ context.Context, r model.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ratings = append(s.ratings, r)
	return nil
}

// ListRatingsByPerformer returns the performer's received ratings.
func (s *MemStore) ListRatingsByPerformer(_ context.Context, performerID string) ([]model.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Rating
	for _, r := range s.ratings {
		if r.PerformerID == performerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func pairKey(eventID, performerID string) string {
	return eventID + "/" + performerID
}
