package gateway

import "errors"

// Common gateway errors
var (
	// ErrNotAuthenticated is returned when an operation requires an owner
	// and no owner is signed in
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrCardNotFound is returned when a card is not found
	ErrCardNotFound = errors.New("card not found")

	// ErrColumnNotFound is returned when a column is not found
	ErrColumnNotFound = errors.New("column not found")
)
