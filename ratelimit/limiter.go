// Package ratelimit implements a lock-free token-bucket rate limiter used
// to pace calls into a MarketDataProvider.
package ratelimit

import (
	"fmt"
	"sync/atomic"
	"time"
)

// bucket is an immutable snapshot swapped via CAS; no field is ever
// mutated after construction.
type bucket struct {
	tokens         float64
	lastRefillNano int64
}

// Limiter is a lock-free token-bucket limiter: tokens refill continuously
// at a fixed rate, up to a bounded burst capacity, via compare-and-swap on
// an immutable bucket snapshot. No mutex is ever held across a wait.
type Limiter struct {
	rateNanos int64 // nanoseconds per token
	maxBurst  float64
	b         atomic.Pointer[bucket]
}

// New returns a Limiter generating permitsPerSecond tokens/sec with a
// default 60-second burst capacity.
func New(permitsPerSecond float64) *Limiter {
	return NewBurst(permitsPerSecond, 60.0)
}

// NewBurst returns a Limiter generating permitsPerSecond tokens/sec,
// accumulating up to permitsPerSecond*maxBurstSeconds tokens.
func NewBurst(permitsPerSecond, maxBurstSeconds float64) *Limiter {
	if permitsPerSecond <= 0 || maxBurstSeconds <= 0 {
		panic("ratelimit: rate and burst must be positive")
	}
	l := &Limiter{
		rateNanos: int64(float64(time.Second) / permitsPerSecond),
		maxBurst:  permitsPerSecond * maxBurstSeconds,
	}
	l.b.Store(&bucket{tokens: l.maxBurst, lastRefillNano: time.Now().UnixNano()})
	return l
}

// reserve performs the CAS loop: it consumes permits if immediately
// available, otherwise returns the nanoseconds the caller must wait
// before retrying (without having consumed anything).
func (l *Limiter) reserve(permits float64) time.Duration {
	for {
		current := l.b.Load()
		now := time.Now().UnixNano()
		delta := now - current.lastRefillNano
		if delta < 0 {
			delta = 0
		}

		newTokens := current.tokens + float64(delta)/float64(l.rateNanos)
		if newTokens > l.maxBurst {
			newTokens = l.maxBurst
		}

		if newTokens < permits {
			wait := time.Duration((permits - newTokens) * float64(l.rateNanos))
			return wait
		}

		next := &bucket{tokens: newTokens - permits, lastRefillNano: now}
		if l.b.CompareAndSwap(current, next) {
			return 0
		}
		// CAS lost the race with a concurrent caller; retry.
	}
}

// Acquire blocks until permits tokens are available, spin-waiting for
// sub-millisecond waits and parking (via time.Sleep) otherwise.
func (l *Limiter) Acquire(permits float64) {
	if permits <= 0 {
		panic("ratelimit: permits must be positive")
	}
	wait := l.reserve(permits)
	if wait <= 0 {
		return
	}
	if wait > time.Millisecond {
		time.Sleep(wait)
		return
	}
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		// spin: sub-millisecond waits are cheaper to busy-wait than to
		// hand off to the scheduler
	}
}

// TryAcquire attempts to acquire permits within timeout, returning false
// without blocking past the deadline if the wait would exceed it.
func (l *Limiter) TryAcquire(permits float64, timeout time.Duration) bool {
	wait := l.reserve(permits)
	if wait <= 0 {
		return true
	}
	if timeout <= 0 {
		return false
	}
	if wait <= timeout {
		time.Sleep(wait)
		return true
	}
	return false
}

// String reports the limiter's configured rate, for log lines.
func (l *Limiter) String() string {
	perSecond := float64(time.Second) / float64(l.rateNanos)
	return fmt.Sprintf("Limiter(%.2f/s, burst=%.0f)", perSecond, l.maxBurst)
}
