package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is blocking all requests.
	StateOpen
	// StateHalfOpen means the circuit is testing if the service recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

func fromGobreaker(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the protected upstream in logs.
	Name string

	// MaxFailures is the number of consecutive failures before opening the circuit.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long to wait before attempting recovery.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// HalfOpenMaxRequests is the max requests allowed in half-open state.
	// Default: 1
	HalfOpenMaxRequests int

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(from, to State)

	// IsFailure decides which errors count toward MaxFailures. Errors it
	// rejects count as successes.
	// Default: every non-nil error except context.Canceled.
	IsFailure func(err error) bool
}

// CircuitBreaker stops calling an upstream after repeated failures.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu sync.RWMutex
	cb *gobreaker.CircuitBreaker[struct{}]
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	// Apply defaults
	if config.Name == "" {
		config.Name = "upstream"
	}
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		}
	}

	c := &CircuitBreaker{config: config}
	c.cb = c.build()
	return c
}

func (c *CircuitBreaker) build() *gobreaker.CircuitBreaker[struct{}] {
	cfg := c.config
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: uint32(cfg.HalfOpenMaxRequests),
		Timeout:     cfg.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.MaxFailures)
		},
		IsSuccessful: func(err error) bool {
			return !cfg.IsFailure(err)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(fromGobreaker(from), fromGobreaker(to))
			}
		},
	})
}

func (c *CircuitBreaker) breaker() *gobreaker.CircuitBreaker[struct{}] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cb
}

// Execute runs the operation through the circuit breaker.
// A rejected call returns ErrCircuitOpen without running op.
func (c *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := c.breaker().Execute(func() (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// State returns the current circuit state.
func (c *CircuitBreaker) State() State {
	return fromGobreaker(c.breaker().State())
}

// Name returns the configured name.
func (c *CircuitBreaker) Name() string {
	return c.config.Name
}

// Reset resets the circuit breaker to closed state.
func (c *CircuitBreaker) Reset() {
	c.mu.Lock()
	old := fromGobreaker(c.cb.State())
	c.cb = c.build()
	c.mu.Unlock()

	if old != StateClosed && c.config.OnStateChange != nil {
		c.config.OnStateChange(old, StateClosed)
	}
}

// Metrics returns current circuit breaker metrics.
func (c *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb := c.breaker()
	counts := cb.Counts()
	return CircuitBreakerMetrics{
		State:     fromGobreaker(cb.State()),
		Requests:  int(counts.Requests),
		Failures:  int(counts.ConsecutiveFailures),
		Successes: int(counts.ConsecutiveSuccesses),
	}
}

// CircuitBreakerMetrics contains circuit breaker statistics for the current
// generation (counts reset on every state change).
type CircuitBreakerMetrics struct {
	State     State
	Requests  int
	Failures  int
	Successes int
}
