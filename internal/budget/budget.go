// Package budget bounds the rate of outbound exchange calls. Capacity is a
// fixed number of permits that fully replenishes once per window, a discrete
// bucket refill rather than a leaky token stream.
package budget

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oysmal/emoji-stock-trader/internal/metrics"
)

const retryInterval = 10 * time.Millisecond

type Budget struct {
	permits    int
	maxPermits int
	window     time.Duration
	lastRefill time.Time
	mu         sync.Mutex

	blocked atomic.Uint64
}

// New creates a budget of maxPermits per window. The bucket starts full.
func New(maxPermits int, window time.Duration) *Budget {
	if maxPermits < 1 {
		maxPermits = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &Budget{
		permits:    maxPermits,
		maxPermits: maxPermits,
		window:     window,
		lastRefill: time.Now(),
	}
}

// Acquire blocks until a permit is available. It cannot fail on capacity;
// the only error is the caller's context ending while waiting.
func (b *Budget) Acquire(ctx context.Context) error {
	waited := false
	for {
		if b.tryAcquire() {
			return nil
		}
		if !waited {
			waited = true
			b.blocked.Add(1)
			metrics.BudgetBlockedTotal.Inc()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

// tryAcquire refills if a window boundary passed, then attempts to consume
// one permit.
func (b *Budget) tryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(b.lastRefill); elapsed >= b.window {
		// Whole-window refill: permits snap back to capacity no matter how
		// many windows passed. Refilling an already-full bucket is a no-op.
		b.permits = b.maxPermits
		b.lastRefill = b.lastRefill.Add(elapsed - elapsed%b.window)
	}

	if b.permits > 0 {
		b.permits--
		return true
	}
	return false
}

// TimesBlocked reports how many Acquire calls had to wait for a refill.
// The counter only grows.
func (b *Budget) TimesBlocked() uint64 {
	return b.blocked.Load()
}

// Available returns the permits remaining in the current window.
func (b *Budget) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if time.Since(b.lastRefill) >= b.window {
		return b.maxPermits
	}
	return b.permits
}
