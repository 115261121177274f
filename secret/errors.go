package secret

import "errors"

var (
	// ErrMissingEnv is returned when a value references an unset variable.
	ErrMissingEnv = errors.New("secret: environment variable not set")

	// ErrProviderNotRegistered is returned for a reference to an unknown provider.
	ErrProviderNotRegistered = errors.New("secret: provider not registered")

	// ErrInvalidRef is returned for a malformed secretref value.
	ErrInvalidRef = errors.New("secret: malformed reference")

	// ErrEmptySecret is returned when resolution yields an empty value.
	ErrEmptySecret = errors.New("secret: empty value")
)
