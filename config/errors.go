package config

import "errors"

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrLoad wraps provider and unmarshal failures.
	ErrLoad = errors.New("config: load failed")

	// ErrMissingAPIKey means no OpenDART key is configured.
	ErrMissingAPIKey = errors.New("config: OpenDART API key is not configured")
)
