package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrItemNotFound indicates the requested item does not exist
	ErrItemNotFound = errors.New("item not found")

	// ErrServerOffline indicates the catalogue server is unreachable
	ErrServerOffline = errors.New("catalogue server is unreachable")

	// ErrAuthFailed indicates authentication failed
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrRangeUnavailable indicates a range query resolved without every
	// segment loaded (fetch failure or supersession)
	ErrRangeUnavailable = errors.New("range is not available")

	// ErrInstanceClosed indicates the endpoint instance was replaced or closed
	ErrInstanceClosed = errors.New("endpoint instance is closed")

	// ErrInvalidConfig indicates a configuration value is out of range
	ErrInvalidConfig = errors.New("invalid configuration")
)
