package secret

import (
	"context"
	"fmt"
	"strings"
)

// RefPrefix marks a value that names a secret instead of containing it.
const RefPrefix = "secretref:"

// Provider looks up a secret by reference. Implementations must be safe
// for concurrent use and must not log what they return.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
}

// Resolver turns a configured credential value into the credential.
type Resolver struct {
	providers map[string]Provider
}

// NewDefaultResolver returns a Resolver backed by EnvProvider and
// FileProvider.
func NewDefaultResolver() *Resolver {
	return NewResolver(EnvProvider{}, FileProvider{})
}

// NewResolver returns a Resolver for providers, keyed by Name. A later
// provider with the same name replaces an earlier one.
func NewResolver(providers ...Provider) *Resolver {
	r := &Resolver{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// Resolve expands environment references in value and, when the result is
// a secret reference, looks it up through the named provider. Any other
// value is returned as expanded. An empty result is ErrEmptySecret.
//
// A nil Resolver only expands the environment.
func (r *Resolver) Resolve(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnv(value)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(expanded, RefPrefix) {
		if expanded == "" {
			return "", ErrEmptySecret
		}
		return expanded, nil
	}
	if r == nil {
		return "", fmt.Errorf("%w: %q", ErrProviderNotRegistered, expanded)
	}

	name, ref, err := ParseRef(expanded)
	if err != nil {
		return "", err
	}
	p, ok := r.providers[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrProviderNotRegistered, name)
	}
	v, err := p.Resolve(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("secret: %s: %w", name, err)
	}
	if v == "" {
		return "", fmt.Errorf("%w: %s provider", ErrEmptySecret, name)
	}
	return v, nil
}

// ParseRef splits "secretref:<provider>:<ref>" into its parts. The ref may
// itself contain colons.
func ParseRef(value string) (provider, ref string, err error) {
	rest, ok := strings.CutPrefix(value, RefPrefix)
	if !ok {
		return "", "", fmt.Errorf("%w: missing %q prefix", ErrInvalidRef, RefPrefix)
	}
	provider, ref, ok = strings.Cut(rest, ":")
	if !ok || strings.TrimSpace(provider) == "" || strings.TrimSpace(ref) == "" {
		return "", "", fmt.Errorf("%w: want %s<provider>:<ref>", ErrInvalidRef, RefPrefix)
	}
	return provider, ref, nil
}
