package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Unlimited is reported as RemainingDaily when no daily quota is configured.
const Unlimited = -1

// Sentinel errors for limiter operations.
var (
	// ErrDailyQuotaExceeded is returned once the day's quota is spent.
	ErrDailyQuotaExceeded = errors.New("ratelimit: daily quota exceeded")
)

// KST is the default day boundary. Korea does not observe daylight saving.
var KST = time.FixedZone("KST", 9*60*60)

// Config configures a Limiter.
type Config struct {
	// Name identifies the upstream in status output.
	Name string

	// DailyLimit is the number of requests allowed per calendar day.
	// Zero disables the daily quota.
	DailyLimit int

	// Rate is the sustained number of requests per second.
	// Zero disables pacing.
	Rate float64

	// Burst is the token bucket size.
	// Default: 1
	Burst int

	// Location defines the calendar day.
	// Default: KST
	Location *time.Location
}

// Permit is granted by Acquire.
type Permit struct {
	// RemainingDaily is the quota left after this request, or Unlimited.
	RemainingDaily int
}

// Status is a snapshot of limiter state.
type Status struct {
	Name           string  `json:"name"`
	Day            string  `json:"day"`
	Used           int     `json:"used"`
	DailyLimit     int     `json:"daily_limit"`
	RemainingDaily int     `json:"remaining_daily"`
	Rate           float64 `json:"rate"`
	Burst          int     `json:"burst"`
}

// Limiter enforces a daily quota and a per-second rate.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: Acquire honors cancellation while waiting for a token.
// - Errors: a cancelled wait returns the quota slot it reserved.
type Limiter struct {
	config Config
	pace   *rate.Limiter
	now    func() time.Time

	mu   sync.Mutex
	day  string
	used int
}

// New creates a Limiter.
func New(config Config) *Limiter {
	if config.Burst <= 0 {
		config.Burst = 1
	}
	if config.Location == nil {
		config.Location = KST
	}

	l := &Limiter{config: config, now: time.Now}
	if config.Rate > 0 {
		l.pace = rate.NewLimiter(rate.Limit(config.Rate), config.Burst)
	}
	return l
}

// Acquire reserves one request from today's quota and waits for a rate
// token. It fails fast with ErrDailyQuotaExceeded when the quota is spent.
func (l *Limiter) Acquire(ctx context.Context) (Permit, error) {
	if err := ctx.Err(); err != nil {
		return Permit{}, err
	}

	l.mu.Lock()
	day := l.rolloverLocked()
	if l.config.DailyLimit > 0 && l.used >= l.config.DailyLimit {
		l.mu.Unlock()
		return Permit{}, fmt.Errorf("%w: %d/%d used on %s", ErrDailyQuotaExceeded, l.config.DailyLimit, l.config.DailyLimit, day)
	}
	l.used++
	permit := Permit{RemainingDaily: l.remainingLocked()}
	l.mu.Unlock()

	if l.pace != nil {
		if err := l.pace.Wait(ctx); err != nil {
			l.refund(day)
			return Permit{}, err
		}
	}
	return permit, nil
}

// Wait acquires a permit and discards it.
func (l *Limiter) Wait(ctx context.Context) error {
	_, err := l.Acquire(ctx)
	return err
}

// Status reports today's usage.
func (l *Limiter) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	day := l.rolloverLocked()
	return Status{
		Name:           l.config.Name,
		Day:            day,
		Used:           l.used,
		DailyLimit:     l.config.DailyLimit,
		RemainingDaily: l.remainingLocked(),
		Rate:           l.config.Rate,
		Burst:          l.config.Burst,
	}
}

// Restore seeds usage recorded by an earlier process. Usage for any day
// other than today is ignored.
func (l *Limiter) Restore(day string, used int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if day != l.rolloverLocked() || used <= l.used {
		return
	}
	l.used = used
}

func (l *Limiter) refund(day string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.day == day && l.used > 0 {
		l.used--
	}
}

// rolloverLocked resets usage when the calendar day changes and returns
// the current day. Caller holds mu.
func (l *Limiter) rolloverLocked() string {
	day := l.now().In(l.config.Location).Format(time.DateOnly)
	if day != l.day {
		l.day = day
		l.used = 0
	}
	return day
}

func (l *Limiter) remainingLocked() int {
	if l.config.DailyLimit <= 0 {
		return Unlimited
	}
	return max(l.config.DailyLimit-l.used, 0)
}
