package health

import (
	"context"
	"sync"
	"time"
)

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// Timeout is the maximum time to wait for all checks.
	// Default: 10 seconds
	Timeout time.Duration

	// Sequential runs checks one after another instead of in parallel.
	Sequential bool
}

// Aggregator combines multiple health checkers into a single report.
type Aggregator struct {
	config   AggregatorConfig
	mu       sync.RWMutex
	checkers []Checker
}

// NewAggregator creates a new health aggregator.
func NewAggregator(config ...AggregatorConfig) *Aggregator {
	var cfg AggregatorConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Aggregator{config: cfg}
}

// Register adds checkers. A checker whose name is already registered
// replaces the earlier one in place.
func (a *Aggregator) Register(checkers ...Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

next:
	for _, c := range checkers {
		for i, existing := range a.checkers {
			if existing.Name() == c.Name() {
				a.checkers[i] = c
				continue next
			}
		}
		a.checkers = append(a.checkers, c)
	}
}

// Check runs a single named health check.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	var checker Checker
	for _, c := range a.checkers {
		if c.Name() == name {
			checker = c
			break
		}
	}
	a.mu.RUnlock()

	if checker == nil {
		return Result{}, ErrUnknownCheck
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	return runCheck(ctx, checker), nil
}

// NamedResult is one entry of a Report.
type NamedResult struct {
	Name string `json:"name"`
	Result
}

// Report is the outcome of running every registered checker.
type Report struct {
	// Status is the worst status among Checks; healthy when there are none.
	Status    Status        `json:"status"`
	Checks    []NamedResult `json:"checks"`
	Timestamp time.Time     `json:"timestamp"`
}

// Run executes all registered checks and returns results in registration
// order.
func (a *Aggregator) Run(ctx context.Context) Report {
	a.mu.RLock()
	checkers := make([]Checker, len(a.checkers))
	copy(checkers, a.checkers)
	a.mu.RUnlock()

	report := Report{
		Status:    StatusHealthy,
		Checks:    make([]NamedResult, len(checkers)),
		Timestamp: time.Now(),
	}
	if len(checkers) == 0 {
		return report
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	if a.config.Sequential {
		for i, c := range checkers {
			report.Checks[i] = NamedResult{Name: c.Name(), Result: runCheck(ctx, c)}
		}
	} else {
		var wg sync.WaitGroup
		for i, c := range checkers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				report.Checks[i] = NamedResult{Name: c.Name(), Result: runCheck(ctx, c)}
			}()
		}
		wg.Wait()
	}

	for _, r := range report.Checks {
		report.Status = report.Status.Worse(r.Status)
	}
	return report
}

func runCheck(ctx context.Context, checker Checker) Result {
	start := time.Now()
	resultCh := make(chan Result, 1)

	go func() {
		result := checker.Check(ctx)
		result.Duration = time.Since(start)
		if result.Timestamp.IsZero() {
			result.Timestamp = start
		}
		resultCh <- result
	}()

	select {
	case result := <-resultCh:
		return result
	case <-ctx.Done():
		return Result{
			Status:    StatusUnhealthy,
			Message:   "check timed out",
			Error:     ErrTimeout,
			Duration:  time.Since(start),
			Timestamp: start,
		}
	}
}
