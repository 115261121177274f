package health

import "errors"

var (
	// ErrTimeout is set on the Result of a check that outlived its timeout.
	ErrTimeout = errors.New("health: check did not finish in time")

	// ErrUnknownCheck is returned when no checker has the requested name.
	ErrUnknownCheck = errors.New("health: no such check")
)
