// Package secret resolves credentials such as the OpenDART API key from
// configuration values without storing them in config files.
//
// A value is first expanded against the environment (see ExpandEnv),
// then any secret reference in it is resolved through a Provider:
//
//	${OPENDART_API_KEY}                    environment variable, must be set
//	secretref:env:OPENDART_API_KEY         same, through the env provider
//	secretref:file:~/.kfin/opendart.key    first line of a file
//
// Resolved values must never be logged; use Mask for display.
package secret
