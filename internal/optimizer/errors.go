package optimizer

import "errors"

var (
	// ErrUnavailable covers every way the optimizer can fail: timeout,
	// transport error, bad status, undecodable or schema-invalid body.
	// Callers switch to the fallback path on any error wrapping it.
	ErrUnavailable = errors.New("optimizer unavailable")

	// ErrInvalidProposal is returned when a decoded proposal fails validation.
	ErrInvalidProposal = errors.New("invalid trip proposal")
)
