package health

import (
	"context"
	"time"
)

// Status is the outcome of a check, ordered from best to worst.
type Status uint8

const (
	StatusHealthy Status = iota
	// StatusDegraded means the component answers but something needs
	// attention, such as a stale snapshot or a nearly spent quota.
	StatusDegraded
	// StatusUnhealthy means the component cannot serve requests.
	StatusUnhealthy
)

var statusNames = [...]string{"healthy", "degraded", "unhealthy"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// MarshalText lets reports carry the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Worse returns whichever of s and o is more severe.
func (s Status) Worse(o Status) Status {
	return max(s, o)
}

// Result is what a single Checker reports.
type Result struct {
	Status    Status         `json:"status"`
	Message   string         `json:"message,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Duration  time.Duration  `json:"duration_ns"`
	Timestamp time.Time      `json:"timestamp"`
	Error     error          `json:"-"`
}

func result(s Status, msg string, err error) Result {
	return Result{Status: s, Message: msg, Error: err, Timestamp: time.Now()}
}

// Healthy, Degraded and Unhealthy build a Result stamped with the
// current time.
func Healthy(msg string) Result { return result(StatusHealthy, msg, nil) }

func Degraded(msg string) Result { return result(StatusDegraded, msg, nil) }

func Unhealthy(msg string, err error) Result { return result(StatusUnhealthy, msg, err) }

// WithDetails returns r carrying details.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// Checker probes one component. Check must return promptly once ctx is
// done.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

// CheckFunc returns a Checker named name that calls fn.
func CheckFunc(name string, fn func(context.Context) Result) Checker {
	return funcChecker{name: name, fn: fn}
}

type funcChecker struct {
	name string
	fn   func(context.Context) Result
}

func (f funcChecker) Name() string { return f.name }

func (f funcChecker) Check(ctx context.Context) Result { return f.fn(ctx) }
