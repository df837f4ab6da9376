package domain

import "errors"

var (
	// ErrProductNotFound means the catalog service returned no record for a
	// requested product id. Surfaced to the caller, never retried.
	ErrProductNotFound = errors.New("product not found")

	// ErrOrderNotFound means the repository holds no order for the given
	// (customer, order) pair.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidStatus means the supplied status string is outside the closed
	// order status vocabulary.
	ErrInvalidStatus = errors.New("invalid order status")

	// ErrInvalidTransition means the requested status is not reachable from
	// the order's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)
