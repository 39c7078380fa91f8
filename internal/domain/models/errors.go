package models

import "errors"

var (
	// ErrItemNotFound means the requested menu item does not exist for the
	// restaurant. Surfaced to the caller, never absorbed: sparse data is a
	// forecasting situation, an unknown item is a caller error.
	ErrItemNotFound = errors.New("menu item not found")

	// ErrInvalidHorizon rejects non-positive or oversized horizons before
	// any computation runs.
	ErrInvalidHorizon = errors.New("forecast horizon out of range")

	// ErrHistoryMismatch rejects history and day-of-week slices of
	// different lengths.
	ErrHistoryMismatch = errors.New("history and day-of-week lengths differ")
)
