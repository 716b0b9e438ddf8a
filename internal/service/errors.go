package service

import "errors"

// Common service errors
var (
	// ErrStopped is returned when the desk service has shut down and can
	// no longer accept requests.
	ErrStopped = errors.New("desk service stopped")

	// ErrUnknownOrder is returned when an operation references an order
	// the cache does not hold.
	ErrUnknownOrder = errors.New("order not in cache")
)
