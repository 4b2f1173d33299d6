// Package model contains domain entities passed between layers.
package model

import (
	"time"

	"github.com/gigmatch/gigmatch/internal/domain/geo"
)

// DefaultMobilityRadiusKm is applied when a performer profile omits a radius.
const DefaultMobilityRadiusKm = 30.0

// ExperienceLevel classifies a performer's stage experience.
type ExperienceLevel string

// Experience levels.
const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceExpert       ExperienceLevel = "expert"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

// Event statuses. Full and Completed are derived, the rest are
// organizer-driven.
const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventFull      EventStatus = "full"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

// ApplicationStatus is the state of a performer's application to an event.
type ApplicationStatus string

// Application statuses. Accepted and Rejected are terminal.
const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationViewed   ApplicationStatus = "viewed"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Terminal reports whether s admits no further transition.
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationAccepted || s == ApplicationRejected
}

// Location is a place an event happens at. A location is resolved when
// Coordinates is non-nil; unresolved locations cannot participate in
// distance filtering.
type Location struct {
	City        string           `json:"city"`
	PostalCode  string           `json:"postal_code,omitempty"`
	Address     string           `json:"address,omitempty"`
	Coordinates *geo.Coordinates `json:"coordinates,omitempty"`
}

// Resolved reports whether the location carries coordinates.
func (l Location) Resolved() bool {
	return l.Coordinates != nil
}

// Role discriminates the profile variants.
type Role string

// Profile roles.
const (
	RolePerformer Role = "performer"
	RoleOrganizer Role = "organizer"
)

// Profile is a sealed variant over the two account shapes. Consumers
// type-switch over both variants rather than probing optional fields; an
// implementation from outside the package is refused with
// ErrUnknownProfileRole.
type Profile interface {
	Role() Role
}

// PerformerProfile describes a performer's home base and travel tolerance.
// Mutated only by the performer through profile updates.
type PerformerProfile struct {
	PerformerID      string           `json:"performer_id"`
	StageName        string           `json:"stage_name,omitempty"`
	City             string           `json:"city"`
	Coordinates      *geo.Coordinates `json:"coordinates,omitempty"`
	MobilityRadiusKm float64          `json:"mobility_radius_km"`
	ExperienceLevel  ExperienceLevel  `json:"experience_level"`
}

// Role implements Profile.
func (PerformerProfile) Role() Role { return RolePerformer }

// OrganizerProfile describes an event organizer.
type OrganizerProfile struct {
	OrganizerID string `json:"organizer_id"`
	CompanyName string `json:"company_name,omitempty"`
	City        string `json:"city"`
}

// Role implements Profile.
func (OrganizerProfile) Role() Role { return RoleOrganizer }

// Event is a show an organizer is staffing. The accepted-application count is
// never stored on the event; MaxPerformers of zero means unlimited.
type Event struct {
	EventID       string      `json:"event_id"`
	OrganizerID   string      `json:"organizer_id"`
	Title         string      `json:"title"`
	Location      Location    `json:"location"`
	Date          time.Time   `json:"date"`
	StartTime     string      `json:"start_time,omitempty"`
	EndTime       string      `json:"end_time,omitempty"`
	FeeAmount     float64     `json:"fee_amount"`
	MaxPerformers int         `json:"max_performers,omitempty"`
	Status        EventStatus `json:"status"`
}

// Application records a performer's request to play an event. At most one
// application may exist per (EventID, PerformerID) pair; the message is
// immutable after submission.
type Application struct {
	ApplicationID string            `json:"application_id"`
	EventID       string            `json:"event_id"`
	PerformerID   string            `json:"performer_id"`
	Message       string            `json:"message"`
	Status        ApplicationStatus `json:"status"`
	AppliedAt     time.Time         `json:"applied_at"`
	RespondedAt   *time.Time        `json:"responded_at,omitempty"`
}

// Rating is an organizer's post-show score for a performer, 1 to 5.
type Rating struct {
	RatingID    string    `json:"rating_id"`
	EventID     string    `json:"event_id"`
	PerformerID string    `json:"performer_id"`
	Score       int       `json:"score"`
	Comment     string    `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DerivedStats are performer statistics recomputed on demand from the
// application, event and rating sets. Never persisted.
type DerivedStats struct {
	TotalApplications    int     `json:"total_applications"`
	AcceptedApplications int     `json:"accepted_applications"`
	CompletedShows       int     `json:"completed_shows"`
	AverageRating        float64 `json:"average_rating"`
	ViralScore           float64 `json:"viral_score"`
}

// OrganizerStats are aggregate figures over an organizer's own events.
type OrganizerStats struct {
	TotalEvents       int `json:"total_events"`
	TotalApplications int `json:"total_applications"`
	CompletedEvents   int `json:"completed_events"`
}
