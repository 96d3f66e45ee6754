package ratelimit

import (
	"context"
	"log/slog"
	"sync"
)

// breaker opens after failureThreshold consecutive primary errors and closes
// after successThreshold consecutive primary successes.
type breaker struct {
	mu               sync.Mutex
	open             bool
	failures         int
	successes        int
	failureThreshold int
	successThreshold int
}

func newBreaker() *breaker {
	return &breaker{failureThreshold: 5, successThreshold: 3}
}

func (b *breaker) isOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// recordFailure reports whether this failure opened the circuit.
func (b *breaker) recordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.successes = 0
	if !b.open && b.failures >= b.failureThreshold {
		b.open = true
		return true
	}
	return false
}

// recordSuccess reports whether this success closed the circuit.
func (b *breaker) recordSuccess() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		b.failures = 0
		return false
	}
	b.successes++
	if b.successes >= b.successThreshold {
		b.open = false
		b.failures = 0
		b.successes = 0
		return true
	}
	return false
}

// Guarded consults primary and answers from fallback while primary fails.
// The primary is still probed while the circuit is open so it can close.
type Guarded struct {
	primary  Store
	fallback Store
	breaker  *breaker
	logger   *slog.Logger
	metrics  *Metrics
}

func NewGuarded(primary, fallback Store, logger *slog.Logger, metrics *Metrics) *Guarded {
	return &Guarded{
		primary:  primary,
		fallback: fallback,
		breaker:  newBreaker(),
		logger:   logger,
		metrics:  metrics,
	}
}

func (g *Guarded) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	res, err := g.primary.Allow(ctx, key, limit)
	if err != nil {
		if g.breaker.recordFailure() {
			g.logger.WarnContext(ctx, "rate limit store failing, using in-memory fallback", "error", err)
			g.metrics.SetDegraded(true)
		}
		return g.fromFallback(ctx, key, limit)
	}
	if g.breaker.recordSuccess() {
		g.logger.InfoContext(ctx, "rate limit store recovered")
		g.metrics.SetDegraded(false)
	}
	if g.breaker.isOpen() {
		return g.fromFallback(ctx, key, limit)
	}
	return res, nil
}

func (g *Guarded) fromFallback(ctx context.Context, key string, limit Limit) (*Result, error) {
	res, err := g.fallback.Allow(ctx, key, limit)
	if err != nil {
		return nil, err
	}
	res.Degraded = true
	return res, nil
}
