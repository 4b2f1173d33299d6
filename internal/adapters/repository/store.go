// Package repository defines the entity store interfaces and errors.
//
// The lifecycle engine's correctness (no duplicate application, no
// double-accept) depends on the store providing at-most-one-in-flight
// mutation per record: CreateApplication enforces the (eventID, performerID)
// uniqueness invariant, and the two UpdateStatus methods are compare-and-swap
// on the record's current status. The engine never locks on its own.
package repository

import (
	"context"
	"time"

	"github.com/gigmatch/gigmatch/internal/domain/model"
)

// EventStore provides access to event records.
type EventStore interface {
	// CreateEvent stores a new event.
	CreateEvent(ctx context.Context, e model.Event) error

	// GetEvent returns the event or ErrEventNotFound.
	GetEvent(ctx context.Context, eventID string) (model.Event, error)

	// ListEvents returns every event. Order is unspecified.
	ListEvents(ctx context.Context) ([]model.Event, error)

	// ListEventsByOrganizer returns the organizer's own events.
	ListEventsByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error)

	// UpdateEventStatus transitions the event from one status to another,
	// failing with ErrStatusConflict when the stored status is no longer
	// `from`.
	UpdateEventStatus(ctx context.Context, eventID string, from, to model.EventStatus) (model.Event, error)
}

// ApplicationStore provides access to application records.
type ApplicationStore interface {
	// CreateApplication stores a new application. ErrDuplicateApplication is
	// returned when any application already exists for the same
	// (eventID, performerID) pair.
	CreateApplication(ctx context.Context, a model.Application) error

	// GetApplication returns the application or ErrApplicationNotFound.
	GetApplication(ctx context.Context, applicationID string) (model.Application, error)

	// ListApplicationsByEvent returns every application for the event.
	ListApplicationsByEvent(ctx context.Context, eventID string) ([]model.Application, error)

	// ListApplicationsByPerformer returns the performer's applications.
	ListApplicationsByPerformer(ctx context.Context, performerID string) ([]model.Application, error)

	// ListApplications returns every application. Order is unspecified.
	ListApplications(ctx context.Context) ([]model.Application, error)

	// UpdateApplicationStatus transitions the application from one status to
	// another, recording respondedAt when non-nil. Fails with
	// ErrStatusConflict when the stored status is no longer `from`.
	UpdateApplicationStatus(ctx context.Context, applicationID string, from, to model.ApplicationStatus, respondedAt *time.Time) (model.Application, error)
}

// RatingStore provides access to post-show ratings.
type RatingStore interface {
	// AddRating stores a rating.
	AddRating(ctx context.Context, r model.Rating) error

	// ListRatingsByPerformer returns the performer's received ratings.
	ListRatingsByPerformer(ctx context.Context, performerID string) ([]model.Rating, error)
}

// ProfileStore provides access to account profiles, one method pair per
// profile variant.
type ProfileStore interface {
	// UpsertPerformer creates or replaces a performer profile.
	UpsertPerformer(ctx context.Context, p model.PerformerProfile) error

	// GetPerformer returns the profile or ErrPerformerNotFound.
	GetPerformer(ctx context.Context, performerID string) (model.PerformerProfile, error)

	// UpsertOrganizer creates or replaces an organizer profile.
	UpsertOrganizer(ctx context.Context, o model.OrganizerProfile) error

	// GetOrganizer returns the profile or ErrOrganizerNotFound.
	GetOrganizer(ctx context.Context, organizerID string) (model.OrganizerProfile, error)
}

// Store bundles the record stores behind one dependency.
type Store interface {
	EventStore
	ApplicationStore
	RatingStore
	ProfileStore
}
