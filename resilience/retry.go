package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig configures Retry. Zero fields take the documented defaults.
type RetryConfig struct {
	// MaxAttempts counts the first call.
	// Default: 3
	MaxAttempts int

	// InitialDelay is the wait before the second attempt.
	// Default: 200ms
	InitialDelay time.Duration

	// MaxDelay caps every wait, upstream hints included.
	// Default: 10s
	MaxDelay time.Duration

	// Multiplier grows the wait after each failed attempt.
	// Default: 2
	Multiplier float64

	// Jitter spreads each wait over [delay/2, delay].
	Jitter bool

	// RetryIf decides whether an error is worth another attempt.
	// Default: IsRetryable
	RetryIf func(err error) bool

	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry re-runs an operation with exponential backoff.
//
// Contract:
//   - Concurrency: safe for concurrent use; Retry holds no per-call state.
//   - Context: a cancelled context ends the wait and returns ctx.Err().
//   - Errors: the last attempt's error is returned unchanged.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a Retry.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 200 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 10 * time.Second
	}
	if config.Multiplier < 1 {
		config.Multiplier = 2
	}
	if config.RetryIf == nil {
		config.RetryIf = IsRetryable
	}
	return &Retry{config: config}
}

// Execute runs op until it succeeds, fails with an error RetryIf rejects, or
// MaxAttempts is reached.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil || !r.config.RetryIf(err) || attempt >= r.config.MaxAttempts {
			return err
		}

		delay := r.delay(attempt, err)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// delay is the wait after the given failed attempt. An upstream hint raises
// it; MaxDelay caps both.
func (r *Retry) delay(attempt int, err error) time.Duration {
	d := time.Duration(float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt-1)))
	if d <= 0 || d > r.config.MaxDelay {
		d = r.config.MaxDelay
	}
	if r.config.Jitter && d > 1 {
		half := d / 2
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		d = half + time.Duration(rand.Int64N(int64(half)+1))
	}
	if hint := retryAfter(err); hint > d {
		d = min(hint, r.config.MaxDelay)
	}
	return d
}

// Config returns the effective configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
