// Package resilience provides resilience patterns for upstream API calls.
//
// The patterns wrap a func(context.Context) error and can be composed into a
// single Executor:
//
//   - Circuit Breaker: stops calling a failing upstream once a run of
//     consecutive failures is reached. Backed by sony/gobreaker.
//
//   - Retry: retries errors marked with Retryable, and timeouts, with
//     exponential backoff. RetryableAfter carries an upstream wait hint.
//
//   - Limiter: admits each attempt. Any Wait(ctx) error implementation works,
//     including *rate.Limiter and the daily quota limiter in package ratelimit.
//
//   - Timeout: bounds each attempt. An expired attempt is retryable.
//
// # Usage
//
//	executor := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	        Name:         "opendart",
//	        MaxFailures:  5,
//	        ResetTimeout: time.Minute,
//	    })),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3})),
//	    resilience.WithLimiter(quota),
//	    resilience.WithTimeout(10*time.Second),
//	)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return callUpstream(ctx)
//	})
package resilience
