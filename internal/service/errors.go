package service

import "errors"

var (
	// ErrAlreadyRunning is returned when a run is requested while another
	// is in progress, in this process or another one holding the lease.
	ErrAlreadyRunning = errors.New("service already running")

	// ErrTripsAlreadyExist is returned by manual runs for a date that
	// already has trips.
	ErrTripsAlreadyExist = errors.New("trips already exist for date")

	// ErrInvalidDate is returned when a service date cannot be parsed.
	ErrInvalidDate = errors.New("invalid service date")
)

// Summary error entries shown to callers verbatim.
const (
	msgAlreadyRunning = "Service already running"
)
