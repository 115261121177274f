package resilience

import (
	"errors"
	"time"
)

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrTimeout is returned when one attempt outlives its timeout.
	ErrTimeout = errors.New("resilience: attempt timed out")
)

// RetryableError marks an error as transient. After, when positive, is the
// upstream's own hint for how long to wait, such as an HTTP Retry-After.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err so IsRetryable reports true. A nil err stays nil.
func Retryable(err error) error {
	return RetryableAfter(err, 0)
}

// RetryableAfter is Retryable with a minimum wait before the next attempt.
func RetryableAfter(err error, after time.Duration) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err, After: after}
}

// IsRetryable reports whether err, or any error it wraps, was marked with
// Retryable, or is a timeout from this package.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re) || errors.Is(err, ErrTimeout)
}

// retryAfter returns the wait hint carried by err, if any.
func retryAfter(err error) time.Duration {
	var re *RetryableError
	if errors.As(err, &re) && re.After > 0 {
		return re.After
	}
	return 0
}
