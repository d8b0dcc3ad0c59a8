// Package session implements the coordinator sitting above the Telnet
// negotiator and the dialect-specific protocol processors: dialect
// auto-detection, rate limiting, size caps, the authentication gate, and
// the per-session token (spec.md §4.7). A mutex-guarded struct plus a
// registry keyed by id gives each connection its own session state.
package session

import (
	"crypto/rand"
	"fmt"
	"hash/fnv"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stlalpha/tn5250term/internal/codec"
	"github.com/stlalpha/tn5250term/internal/display"
	"github.com/stlalpha/tn5250term/internal/engineerrors"
	"github.com/stlalpha/tn5250term/internal/logging"
	"github.com/stlalpha/tn5250term/internal/tn3270"
	"github.com/stlalpha/tn5250term/internal/tn5250"
)

// Dialect is the wire protocol a session has settled on.
type Dialect int

const (
	DialectAutoDetect Dialect = iota
	DialectTN5250
	DialectTN3270
	DialectNVT
)

func (d Dialect) String() string {
	switch d {
	case DialectTN5250:
		return "TN5250"
	case DialectTN3270:
		return "TN3270"
	case DialectNVT:
		return "NVT"
	default:
		return "AutoDetect"
	}
}

// DialectProcessor is the narrow capability set the session holds its
// active protocol processor behind, letting AutoDetect swap processors
// without the session caring which one it has (spec.md §9).
type DialectProcessor interface {
	ProcessBytes(data []byte) ([]byte, error)
	QueryReply() []byte
}

// Limits bounds a session's rate and per-command size (spec.md §4.7).
type Limits struct {
	CommandsPerSecond int
	MaxCommandBytes   int
}

// DefaultLimits returns the baseline rate and size limits (spec.md §4.7):
// 100 commands/sec, 64KiB cap.
func DefaultLimits() Limits {
	return Limits{CommandsPerSecond: 100, MaxCommandBytes: 64 * 1024}
}

// Session is one protocol engine instance: a dialect, its processor, and
// the guards around how fast and how much the host may push at it.
type Session struct {
	ID    int
	Token uint64

	mu            sync.Mutex
	dialect       Dialect
	processor     DialectProcessor
	p5250         *tn5250.Processor
	p3270         *tn3270.Processor
	authenticated bool

	limits   Limits
	rate     *tokenBucket
	breaker  *CircuitBreaker
	fallback []byte // NVT fallback buffer (spec.md §8 scenario F)
	buf      []byte // internal accumulation buffer drained on every error path

	createdAt time.Time
}

// New creates a Session in AutoDetect mode, unauthenticated, with default
// rate limits and a fresh session token.
func New(id int) *Session {
	p5250 := tn5250.NewProcessor()
	p3270 := tn3270.NewProcessor()
	// The display buffer, field table, and EBCDIC codec are shared
	// between dialects (spec.md §4.4); only one processor is ever active
	// per session, but both are built over the same model so a mid-session
	// dialect switch (SwitchTo3270) does not lose or fork display state.
	p3270.Buf = p5250.Buf
	p3270.Fields = p5250.Fields
	limits := DefaultLimits()
	return &Session{
		ID:        id,
		Token:     newToken(),
		dialect:   DialectAutoDetect,
		p5250:     p5250,
		p3270:     p3270,
		limits:    limits,
		rate:      newTokenBucket(limits.CommandsPerSecond),
		breaker:   NewCircuitBreaker(5, 30*time.Second),
		createdAt: time.Now(),
	}
}

// newToken generates a 64-bit session token by folding a random uuid, the
// process id, a nanosecond timestamp, and 8 cryptographically random bytes
// through FNV-1a into a compact invalidation handle (spec.md §4.7,
// "hashed" token).
func newToken() uint64 {
	id := uuid.New()
	h := fnv.New64a()
	h.Write(id[:])
	fmt.Fprintf(h, "%d:%d", os.Getpid(), time.Now().UnixNano())

	var extra [8]byte
	if _, err := rand.Read(extra[:]); err == nil {
		h.Write(extra[:])
	}
	return h.Sum64()
}

// Dialect returns the session's current dialect.
func (s *Session) Dialect() Dialect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialect
}

// Authenticate promotes the session past the authentication gate. Telnet
// negotiation completion is the trigger spec.md §4.7 names.
func (s *Session) Authenticate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = true
}

// IsAuthenticated reports whether sensitive processing paths may proceed.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// BreakerState reports the session's circuit breaker state, for periodic
// maintenance and diagnostics (spec.md §7).
func (s *Session) BreakerState() BreakerState {
	return s.breaker.State()
}

// DetectDialect inspects the first inbound byte after negotiation and
// commits the session to a dialect (spec.md §4.7, §8 scenario F). It is a
// no-op once the session has already left AutoDetect.
func (s *Session) DetectDialect(firstByte byte) Dialect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detectDialectLocked(firstByte)
}

// detectDialectLocked is DetectDialect's body, callable by methods that
// already hold s.mu (sync.Mutex is not reentrant, so ProcessStream must
// not call the public, locking DetectDialect).
func (s *Session) detectDialectLocked(firstByte byte) Dialect {
	if s.dialect != DialectAutoDetect {
		return s.dialect
	}

	switch {
	case firstByte == tn5250.ESC:
		s.dialect = DialectTN5250
		s.processor = s.p5250
	case isPrintableASCII(firstByte):
		s.dialect = DialectNVT
		s.fallback = append(s.fallback, firstByte)
	default:
		s.dialect = DialectTN5250
		s.processor = s.p5250
	}
	logging.Info("session %d: dialect auto-detected as %s", s.ID, s.dialect)
	return s.dialect
}

func isPrintableASCII(b byte) bool {
	return b >= 0x20 && b <= 0x7E
}

// SwitchTo3270 commits the session to TN3270 explicitly (used when a
// caller knows the dialect out of band, bypassing auto-detection).
func (s *Session) SwitchTo3270() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialect = DialectTN3270
	s.processor = s.p3270
}

// Display returns the shared display buffer driving the active dialect
// (spec.md §4.4 — display, fields, and codec are shared across dialects).
// Before a dialect is settled, it returns the buffer the eventual TN5250
// processor will use, since both processors share one buffer (see New).
func (s *Session) Display() *display.Buffer {
	return s.p5250.Buf
}

// Fields returns the shared field table overlaid on Display().
func (s *Session) Fields() *display.FieldTable {
	return s.p5250.Fields
}

// TypeRune echoes a locally-typed character into the field under the
// cursor: it refuses to mutate content while the keyboard is locked
// (spec.md §3's invariant), requires the cursor sit inside an unprotected
// field, writes the rune into the display and the field's content mirror
// in EBCDIC, and sets MDT. The mirror update matches what mirrorWrite does
// for host-driven writes; setting MDT is specific to local keyboard input,
// since mirrorWrite leaves MDT unchanged.
func (s *Session) TypeRune(r rune) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.p5250.Buf
	if buf.KeyboardLocked() {
		return engineerrors.ErrKeyboardLocked
	}

	width, _ := buf.Dimensions()
	pos := buf.Cursor()
	f, ok := s.p5250.Fields.FieldAt(pos.Row, pos.Col, width)
	if !ok {
		return engineerrors.ErrFieldNotFound
	}
	if f.Attribute.Protected {
		return engineerrors.ErrFieldProtected
	}

	buf.WriteAtCursor(r, f.Attribute)
	offset := (pos.Row*width + pos.Col) - (f.StartRow*width + f.StartCol)
	if offset >= 0 && offset < len(f.Mirror) {
		f.Mirror[offset] = codec.ASCIIToEBCDIC(byte(r))
		f.MDT = true
	}
	return nil
}

// FallbackBuffer returns the bytes accumulated while the session is in
// NVT mode (spec.md §8 scenario F).
func (s *Session) FallbackBuffer() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.fallback...)
}

// ProcessStream feeds one host command through rate limiting, the size
// cap, and the active dialect processor.
//
// Drain-safety invariant (spec.md §4.7): on every error return path, the
// internal accumulation buffer is emptied before returning, so invalid
// bytes never accumulate across calls and deadlock a subsequent read.
func (s *Session) ProcessStream(data []byte) (resp []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf = append(s.buf[:0], data...)
	defer func() {
		if err != nil {
			s.buf = s.buf[:0]
		}
	}()

	if s.breaker.Open() {
		return nil, engineerrors.New(engineerrors.KindTransport, "circuit breaker open")
	}

	if len(s.buf) > s.limits.MaxCommandBytes {
		s.buf = s.buf[:0]
		return nil, engineerrors.ErrBufferTooLarge
	}

	if !s.rate.Allow(time.Now()) {
		return nil, engineerrors.New(engineerrors.KindRateLimited, "host command rate exceeded")
	}

	if s.dialect == DialectNVT {
		s.fallback = append(s.fallback, s.buf...)
		return nil, nil
	}

	if s.processor == nil {
		if len(s.buf) == 0 {
			return nil, nil
		}
		// detectDialectLocked already appends the detecting byte
		// (s.buf[0]) to s.fallback when it lands on NVT; only the rest
		// of the buffer still needs appending here, or "hello" becomes
		// "hhello" on the first NVT command (spec.md §8 scenario F).
		s.detectDialectLocked(s.buf[0])
		if s.dialect == DialectNVT {
			s.fallback = append(s.fallback, s.buf[1:]...)
			return nil, nil
		}
	}

	out, perr := s.processor.ProcessBytes(s.buf)
	if perr != nil {
		s.breaker.RecordFailure()
		// out may still carry a DSNR (or other) response the processor
		// wants written back to the host even though the command itself
		// failed (spec.md §7); the buffer-drain deferred above still runs.
		return out, perr
	}
	s.breaker.RecordSuccess()
	return out, nil
}
