// Package alerts defines the business logic for watch items, the price-drift
// simulation tick, and the pending-notification queue. This file centralizes
// common service-level error values so that they can be consistently returned
// by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package alerts

import "errors"

var (
	// ErrProductNotFound indicates the product a watch action refers to does
	// not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrWatchNotFound indicates the requested watch item does not exist or
	// is not accessible to the current user.
	ErrWatchNotFound = errors.New("watch item not found")

	// ErrNotificationNotFound indicates the notification does not exist or
	// belongs to another user.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrTickRunning is returned when a price tick is requested while a
	// previous tick is still in flight. Ticks are single-flight; callers
	// should treat this as a retriable conflict.
	ErrTickRunning = errors.New("price tick already running")
)
