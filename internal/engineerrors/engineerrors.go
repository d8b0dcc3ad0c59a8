// Package engineerrors defines the engine-wide error taxonomy: a small
// Kind enumeration plus a wrapping EngineError, and a per-kind rate
// limiter so a hostile or broken host cannot flood the caller with
// repeated identical failures. There is no third-party error-taxonomy
// library in play here — every example repo that handles errors at all
// uses fmt.Errorf("...: %w", err) and plain sentinel values, so that is
// the idiom this package generalizes.
package engineerrors

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Kind classifies an EngineError for logging, metrics, and caller
// dispatch (spec.md §7).
type Kind int

const (
	KindUnknown Kind = iota
	KindProtocol
	KindTelnet
	KindTransport
	KindTimeout
	KindAuth
	KindConfig
	KindRateLimited
	KindSizeExceeded
	KindClosed
	KindField
)

func (k Kind) String() string {
	switch k {
	case KindProtocol:
		return "protocol"
	case KindTelnet:
		return "telnet"
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindAuth:
		return "auth"
	case KindConfig:
		return "config"
	case KindRateLimited:
		return "rate_limited"
	case KindSizeExceeded:
		return "size_exceeded"
	case KindClosed:
		return "closed"
	case KindField:
		return "field"
	default:
		return "unknown"
	}
}

// EngineError is the engine's wrapped error type: a Kind plus a
// human-readable message and an optional underlying cause.
type EngineError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

// New creates an EngineError with no underlying cause.
func New(kind Kind, message string) *EngineError {
	return &EngineError{Kind: kind, Message: message}
}

// Wrap creates an EngineError that wraps cause, preserving it for errors.Is/As.
func Wrap(kind Kind, message string, cause error) *EngineError {
	return &EngineError{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from err if it is, or wraps, an *EngineError;
// otherwise it returns KindUnknown.
func KindOf(err error) Kind {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindUnknown
}

// Sentinel errors for conditions callers commonly check with errors.Is.
var (
	ErrSessionClosed   = New(KindClosed, "session closed")
	ErrNotAuthorized   = New(KindAuth, "not authorized")
	ErrBufferTooLarge  = New(KindSizeExceeded, "buffer exceeds maximum size")
	ErrNegotiationFail = New(KindTimeout, "telnet negotiation did not complete")
	ErrKeyboardLocked  = New(KindField, "keyboard is locked")
	ErrFieldNotFound   = New(KindField, "cursor is not within an input field")
	ErrFieldProtected  = New(KindField, "field is protected")
)

// Limiter rate-limits error reporting per Kind so a host that keeps
// producing the same class of failure cannot generate unbounded log or
// metric volume (spec.md §7, "at most 10 per kind per second").
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	counts map[Kind]*bucket
}

type bucket struct {
	windowStart time.Time
	count       int
}

// NewLimiter creates a Limiter admitting up to limit errors of a given
// Kind per window.
func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{limit: limit, window: window, counts: make(map[Kind]*bucket)}
}

// DefaultLimiter returns the engine-standard 10-per-second-per-kind limiter.
func DefaultLimiter() *Limiter {
	return NewLimiter(10, time.Second)
}

// Allow reports whether an error of the given kind, occurring at now,
// should be surfaced, incrementing the kind's counter if so.
func (l *Limiter) Allow(kind Kind, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.counts[kind]
	if !ok || now.Sub(b.windowStart) >= l.window {
		b = &bucket{windowStart: now, count: 0}
		l.counts[kind] = b
	}
	if b.count >= l.limit {
		return false
	}
	b.count++
	return true
}
