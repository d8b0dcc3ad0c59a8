package session

import "time"

// tokenBucket is a simple fixed-rate limiter: up to `rate` tokens
// available per second, refilled continuously. It backs the session
// coordinator's 100-commands-per-second cap (spec.md §4.7).
type tokenBucket struct {
	rate       float64
	capacity   float64
	tokens     float64
	lastRefill time.Time
}

func newTokenBucket(ratePerSecond int) *tokenBucket {
	r := float64(ratePerSecond)
	return &tokenBucket{rate: r, capacity: r, tokens: r, lastRefill: time.Now()}
}

// Allow reports whether a command arriving at now may proceed,
// consuming one token if so.
func (b *tokenBucket) Allow(now time.Time) bool {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = minFloat(b.capacity, b.tokens+elapsed*b.rate)
		b.lastRefill = now
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
