package resilience

import (
	"context"
)

// Limiter admits calls. Wait blocks until the call may proceed or returns an
// error if it never will (context cancelled, quota spent).
//
// Both *rate.Limiter and the daily quota limiter in package ratelimit
// satisfy this interface.
type Limiter interface {
	Wait(ctx context.Context) error
}

// LimiterFunc adapts a function to the Limiter interface.
type LimiterFunc func(ctx context.Context) error

// Wait calls f(ctx).
func (f LimiterFunc) Wait(ctx context.Context) error { return f(ctx) }

// Chain returns a Limiter that waits on each limiter in order. Nil entries
// are skipped.
func Chain(limiters ...Limiter) Limiter {
	return LimiterFunc(func(ctx context.Context) error {
		for _, l := range limiters {
			if l == nil {
				continue
			}
			if err := l.Wait(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// ExecuteLimited runs op once l admits the call.
func ExecuteLimited(ctx context.Context, l Limiter, op func(context.Context) error) error {
	if l != nil {
		if err := l.Wait(ctx); err != nil {
			return err
		}
	}
	return op(ctx)
}
