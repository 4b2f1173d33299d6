package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrApplicationNotFound  = errors.New("application not found")
	ErrDuplicateApplication = errors.New("duplicate application")
	ErrStatusConflict       = errors.New("status conflict")
	ErrPerformerNotFound    = errors.New("performer not found")
	ErrOrganizerNotFound    = errors.New("organizer not found")
)
