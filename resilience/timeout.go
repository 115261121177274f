package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds one attempt when no timeout is given.
const DefaultTimeout = 30 * time.Second

// Timeout bounds a single attempt.
//
// The operation must honor its context; Timeout does not abandon a running
// call. When the attempt's own deadline fires, the error wraps ErrTimeout and
// is therefore retryable. Cancellation of the caller's context is returned
// as is.
type Timeout struct {
	d time.Duration
}

// NewTimeout creates a Timeout. d <= 0 uses DefaultTimeout.
func NewTimeout(d time.Duration) *Timeout {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &Timeout{d: d}
}

// Duration returns the per-attempt limit.
func (t *Timeout) Duration() time.Duration { return t.d }

// Execute runs op with a deadline of now plus the limit.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	actx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	err := op(actx)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %w", ErrTimeout, t.d, err)
	}
	return err
}
