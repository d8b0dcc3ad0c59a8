package session

import (
	"sync"
	"time"
)

// BreakerState is one of the three states spec.md §7 names for the
// connection-attempt circuit breaker.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreaker trips after a run of consecutive processing failures and
// refuses further work until a cooldown elapses, at which point it admits
// exactly one probe before deciding whether to close or reopen (spec.md
// §7: "a three-state breaker (Closed/Open/Half-Open)... after N failures
// within a window the breaker opens and blocks new connects for a
// cooldown; Half-Open admits one probe"). It is a session-level policy,
// not a global one.
type CircuitBreaker struct {
	mu            sync.Mutex
	threshold     int
	cooldown      time.Duration
	failures      int
	openedAt      time.Time
	state         BreakerState
	probeInFlight bool
}

// NewCircuitBreaker creates a breaker that opens after threshold
// consecutive failures and stays open for cooldown before half-opening.
func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{threshold: threshold, cooldown: cooldown}
}

// State reports the breaker's current state, transitioning Open to
// HalfOpen once the cooldown has elapsed.
func (c *CircuitBreaker) State() BreakerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *CircuitBreaker) stateLocked() BreakerState {
	if c.state == BreakerOpen && time.Since(c.openedAt) >= c.cooldown {
		c.state = BreakerHalfOpen
		c.probeInFlight = false
	}
	return c.state
}

// Open reports whether the breaker currently refuses new work: true in
// the Open state, and true in HalfOpen once a probe is already admitted
// (only one probe is allowed through at a time).
func (c *CircuitBreaker) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.stateLocked() {
	case BreakerClosed:
		return false
	case BreakerHalfOpen:
		if c.probeInFlight {
			return true
		}
		c.probeInFlight = true
		return false
	default: // BreakerOpen
		return true
	}
}

// RecordFailure counts a processing failure. In Closed state it trips the
// breaker once the threshold is reached; in HalfOpen a failed probe
// reopens the breaker and restarts the cooldown.
func (c *CircuitBreaker) RecordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.stateLocked() {
	case BreakerHalfOpen:
		c.trip()
	default:
		c.failures++
		if c.failures >= c.threshold {
			c.trip()
		}
	}
}

func (c *CircuitBreaker) trip() {
	c.state = BreakerOpen
	c.openedAt = time.Now()
	c.probeInFlight = false
}

// RecordSuccess resets the consecutive-failure count. A successful probe
// in HalfOpen closes the breaker.
func (c *CircuitBreaker) RecordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.stateLocked() {
	case BreakerHalfOpen:
		c.state = BreakerClosed
		c.probeInFlight = false
	}
	c.failures = 0
}
