// Package ratelimit throttles the public lookup and lifecycle endpoints.
// Counters live in Redis when configured; an in-memory sliding window takes
// over while Redis is failing.
package ratelimit

import (
	"context"
	"time"
)

// Class groups endpoints that share a limit.
type Class string

const (
	// ClassLookup covers serial eligibility checks, the enumeration surface.
	ClassLookup Class = "lookup"
	// ClassRegister covers warranty registration.
	ClassRegister Class = "register"
	// ClassClaim covers claim filing.
	ClassClaim Class = "claim"
)

// Limit is the number of requests allowed per window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Policy maps each class to its limit. Classes without an entry are not limited.
type Policy map[Class]Limit

// DefaultPolicy returns the limits used when none are configured.
func DefaultPolicy() Policy {
	return Policy{
		ClassLookup:   {Requests: 30, Window: time.Minute},
		ClassRegister: {Requests: 10, Window: time.Minute},
		ClassClaim:    {Requests: 5, Window: time.Minute},
	}
}

// Result is the outcome of one check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// Degraded is set when the answer came from the fallback store.
	Degraded bool
}

// RetryAfter is the wait before the window frees a slot, rounded up to a second.
func (r *Result) RetryAfter(now time.Time) int {
	d := r.ResetAt.Sub(now)
	if d <= 0 {
		return 1
	}
	return int((d + time.Second - 1) / time.Second)
}

// Store counts requests for a key within a window.
type Store interface {
	Allow(ctx context.Context, key string, limit Limit) (*Result, error)
}

func key(class Class, subject string) string {
	return string(class) + ":" + subject
}
