package service

import "errors"

// Errors returned by the mutation coordinator.
var (
	// ErrEmptyOrder rejects a submit with no billable line and no
	// applicable surcharge.
	ErrEmptyOrder = errors.New("order has no billable items")

	// ErrNotFound is returned when an operation targets an empty or
	// unknown order id.
	ErrNotFound = errors.New("order not found")

	// ErrOrderNotPending rejects edits to orders that already left the
	// pending state. Completion is one-way.
	ErrOrderNotPending = errors.New("order is not pending")
)
