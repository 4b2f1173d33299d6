package model

import "errors"

// Sentinel kinds for input validation errors. Rejected immediately, never
// retried.
var (
	ErrInvalidCoordinates    = errors.New("invalid coordinates")
	ErrInvalidMobilityRadius = errors.New("invalid mobility radius")
	ErrInvalidRatingScore    = errors.New("invalid rating score")
	ErrUnknownProfileRole    = errors.New("unknown profile role")
)
