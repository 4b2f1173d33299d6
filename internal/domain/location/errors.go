package location

import "errors"

// Sentinel kinds for resolver errors. These allow errors.Is from callers.
var (
	ErrAddressNotFound          = errors.New("address not found")
	ErrGeocodeUnavailable       = errors.New("geocode service unavailable")
	ErrPositionUnavailable      = errors.New("device position unavailable")
	ErrPositionPermissionDenied = errors.New("device position permission denied")
)
