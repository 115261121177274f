package observe

import "errors"

// ErrInvalidConfig wraps every Config validation failure. The message names
// the offending key.
var ErrInvalidConfig = errors.New("observe: invalid config")

// RedactedFields are log field keys whose values are replaced before a line
// is written. OpenDART takes its key as the crtfc_key query parameter.
var RedactedFields = []string{
	"api_key",
	"apiKey",
	"crtfc_key",
	"credential",
	"password",
	"secret",
	"token",
}
