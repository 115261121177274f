package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// MaxKeyLength bounds a key in bytes. Keys are stored verbatim as the
// primary key of the persistent table.
const MaxKeyLength = 512

var (
	// ErrInvalidKey is returned for blank keys and keys containing control
	// characters.
	ErrInvalidKey = errors.New("cache: invalid key")

	// ErrKeyTooLong is returned for keys over MaxKeyLength bytes.
	ErrKeyTooLong = errors.New("cache: key too long")

	ErrNilFetch = errors.New("cache: nil fetch function")

	// ErrInit wraps failures opening or migrating the persistent store.
	ErrInit = errors.New("cache: cannot open persistent store")

	// ErrClosed is returned once the persistent store has been closed.
	ErrClosed = errors.New("cache: persistent store closed")
)

// MemoryTier is the in-process tier. Get reports a miss for absent and
// expired entries alike; a ttl <= 0 never expires. Implementations must be
// safe for concurrent use.
type MemoryTier interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
}

// PersistentTier is the durable tier behind MemoryTier. Get decodes into
// dst and returns (false, nil) on a miss or an expired entry, keeping
// errors for storage and decode failures.
type PersistentTier interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// ValidateKey rejects keys that cannot be stored or logged safely.
func ValidateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return fmt.Errorf("%w: blank", ErrInvalidKey)
	case len(key) > MaxKeyLength:
		return fmt.Errorf("%w: %d bytes", ErrKeyTooLong, len(key))
	case strings.IndexFunc(key, unicode.IsControl) >= 0:
		return fmt.Errorf("%w: control character in %q", ErrInvalidKey, key)
	}
	return nil
}
