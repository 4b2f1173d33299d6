package lifecycle

import "errors"

// Sentinel kinds for lifecycle failures. Conflict kinds (duplicate, already
// decided, not joinable) are business-rule rejections, not system faults;
// callers present them to users rather than logging them as failures.
var (
	ErrDuplicateApplication = errors.New("duplicate application")
	ErrEventNotJoinable     = errors.New("event not joinable")
	ErrAlreadyDecided       = errors.New("application already decided")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrEventNotFound        = errors.New("event not found")
	ErrApplicationNotFound  = errors.New("application not found")
	ErrInvalidOutcome       = errors.New("invalid outcome")
	ErrInvalidTransition    = errors.New("invalid transition")
)
