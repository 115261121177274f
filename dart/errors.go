package dart

import (
	"errors"
	"fmt"
)

// Sentinel errors for client operations.
var (
	// ErrMissingAPIKey is returned by New when no key is given.
	ErrMissingAPIKey = errors.New("dart: api key is required")

	// ErrQuota is returned when OpenDART reports the daily request limit
	// was exceeded (status 020).
	ErrQuota = errors.New("dart: daily request limit exceeded")

	// ErrInvalidArgument is returned for malformed corp codes, years or
	// report codes before any request is made.
	ErrInvalidArgument = errors.New("dart: invalid argument")

	// ErrMalformedResponse is returned when a response body cannot be decoded.
	ErrMalformedResponse = errors.New("dart: malformed response")
)

// OpenDART status codes.
const (
	StatusOK           = "000"
	StatusInvalidKey   = "010"
	StatusNoData       = "013"
	StatusQuotaReached = "020"
)

// APIError is a non-success status reported in an OpenDART response body.
type APIError struct {
	Status  string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("dart: api status %s", e.Status)
	}
	return fmt.Sprintf("dart: api status %s: %s", e.Status, e.Message)
}

// HTTPError is a non-200 HTTP response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("dart: http status %d", e.StatusCode)
	}
	return fmt.Sprintf("dart: http status %d: %s", e.StatusCode, e.Body)
}

// statusError maps a response status to an error. StatusOK maps to nil.
// StatusNoData is left to the caller.
func statusError(status, message string) error {
	switch status {
	case StatusOK:
		return nil
	case StatusQuotaReached:
		return fmt.Errorf("%w: %s", ErrQuota, message)
	default:
		return &APIError{Status: status, Message: message}
	}
}
