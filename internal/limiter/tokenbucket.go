// Package limiter provides the token-bucket primitive that guards action
// frequency on client connections.
package limiter

import (
	"sync"
	"time"
)

// TokenBucket is a thread-safe token bucket. The bucket starts full, refills
// at refillRate tokens per second up to capacity, and TryConsume takes one
// token when available.
type TokenBucket struct {
	capacity   float64
	tokens     float64
	refillRate float64
	lastRefill time.Time

	// now is swappable for tests.
	now func() time.Time

	mu sync.Mutex
}

// NewTokenBucket creates a bucket with the given capacity (burst size) and
// refill rate in tokens per second.
func NewTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// TryConsume takes one token if available. It never blocks.
func (tb *TokenBucket) TryConsume() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
		tb.lastRefill = now
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// Tokens returns the current token count, for monitoring.
func (tb *TokenBucket) Tokens() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.tokens
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
