// Package lifecycle encodes the application status state machine and the
// derived event status recomputation. Everything here is pure; the app layer
// owns store access and side effects.
package lifecycle

import (
	"fmt"

	"github.com/gigmatch/gigmatch/internal/domain/model"
)

// Outcome is an organizer's decision on an application.
type Outcome string

// Decision outcomes.
const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// Status returns the application status an outcome resolves to.
func (o Outcome) Status() (model.ApplicationStatus, error) {
	switch o {
	case OutcomeAccepted:
		return model.ApplicationAccepted, nil
	case OutcomeRejected:
		return model.ApplicationRejected, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOutcome, o)
	}
}

// transitions is the legal edge set. Viewing is not mandatory before a
// decision; accepted and rejected admit nothing.
var transitions = map[model.ApplicationStatus][]model.ApplicationStatus{
	model.ApplicationPending: {
		model.ApplicationViewed,
		model.ApplicationAccepted,
		model.ApplicationRejected,
	},
	model.ApplicationViewed: {
		model.ApplicationAccepted,
		model.ApplicationRejected,
	},
	model.ApplicationAccepted: nil,
	model.ApplicationRejected: nil,
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to model.ApplicationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateDecision checks that organizer may apply outcome to the
// application belonging to event. Decisions are final: a terminal status
// yields ErrAlreadyDecided regardless of the requested outcome.
func ValidateDecision(a model.Application, e model.Event, decidingOrganizerID string, outcome Outcome) (model.ApplicationStatus, error) {
	target, err := outcome.Status()
	if err != nil {
		return "", err
	}
	if e.OrganizerID != decidingOrganizerID {
		return "", fmt.Errorf("%w: organizer %s does not own event %s", ErrUnauthorized, decidingOrganizerID, e.EventID)
	}
	if a.Status.Terminal() {
		return "", fmt.Errorf("%w: application %s is %s", ErrAlreadyDecided, a.ApplicationID, a.Status)
	}
	if !CanTransition(a.Status, target) {
		return "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, target)
	}
	return target, nil
}

// RecomputeEventStatus derives the event status from its accepted-application
// count. It is invoked after every accepting decision instead of maintaining
// a stored counter that could drift. The second return reports whether the
// status changed.
func RecomputeEventStatus(e model.Event, acceptedCount int) (model.EventStatus, bool) {
	if e.MaxPerformers <= 0 {
		return e.Status, false
	}
	switch e.Status {
	case model.EventPublished:
		if acceptedCount >= e.MaxPerformers {
			return model.EventFull, true
		}
	case model.EventFull:
		// Capacity may have been raised after the event filled up.
		if acceptedCount < e.MaxPerformers {
			return model.EventPublished, true
		}
	}
	return e.Status, false
}
