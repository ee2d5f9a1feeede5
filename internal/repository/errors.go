package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateTrip is returned when a trip already exists for the
	// (route, slot, date) key.
	ErrDuplicateTrip = errors.New("trip already exists for route, slot and date")
)
