package resilience

import (
	"context"
	"time"
)

// Op is one call to an upstream.
type Op func(context.Context) error

// Executor runs an Op through the configured layers, outermost first:
// circuit breaker, retry, limiter, timeout. The limiter and the timeout sit
// inside retry, so every attempt spends quota and gets a fresh deadline; the
// breaker sees one outcome per logical call.
//
// Contract:
//   - Concurrency: safe for concurrent use once built.
//   - Errors: the innermost error propagates unchanged unless a layer
//     replaces it (ErrCircuitOpen, ErrTimeout, limiter errors).
type Executor struct {
	circuitBreaker *CircuitBreaker
	retry          *Retry
	limiter        Limiter
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an Executor. With no options it calls op directly.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker fails fast while cb is open.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.circuitBreaker = cb }
}

// WithRetry retries failed attempts.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithLimiter gates every attempt, retries included, on l.
func WithLimiter(l Limiter) ExecutorOption {
	return func(e *Executor) { e.limiter = l }
}

// WithTimeout bounds each attempt to d.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = NewTimeout(d) }
}

// Execute runs op through every configured layer.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	call := Op(op)
	if e.timeout != nil {
		call = wrap(call, e.timeout.Execute)
	}
	if e.limiter != nil {
		l := e.limiter
		call = wrap(call, func(ctx context.Context, inner func(context.Context) error) error {
			return ExecuteLimited(ctx, l, inner)
		})
	}
	if e.retry != nil {
		call = wrap(call, e.retry.Execute)
	}
	if e.circuitBreaker != nil {
		call = wrap(call, e.circuitBreaker.Execute)
	}
	return call(ctx)
}

// wrap returns inner run through layer.
func wrap(inner Op, layer func(context.Context, func(context.Context) error) error) Op {
	return func(ctx context.Context) error {
		return layer(ctx, inner)
	}
}
