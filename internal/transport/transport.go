// Package transport owns the TCP-or-TLS socket to the host and the
// single reader goroutine that publishes inbound byte chunks to the
// session coordinator. It is the dial-out counterpart of the shape
// internal/sshserver uses for its accept loop: the same Config-then-
// constructor pattern and the same read-interruption trick (here done
// via SetReadDeadline rather than a sibling goroutine, since a client
// connection has no independent control channel to race against).
package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/stlalpha/tn5250term/internal/engineerrors"
	"github.com/stlalpha/tn5250term/internal/logging"
)

// historicalSSLPort is the port TLS defaults on for when TLSMode is Auto
// (spec.md §4.6).
const historicalSSLPort = 992

// TLSMode selects whether the connection is wrapped in TLS.
type TLSMode int

const (
	TLSAuto TLSMode = iota
	TLSForceOn
	TLSForceOff
)

// Config carries everything Connect needs to establish a session (spec.md §4.6).
type Config struct {
	Host               string
	Port               int
	TLSMode            TLSMode
	InsecureSkipVerify bool
	CABundlePath       string // optional PEM bundle; parsed by LoadCABundle before Connect
	CABundlePEM        []byte

	DialTimeout       time.Duration // default 10s
	HandshakeTimeout  time.Duration // default 10s, bounds the TLS handshake
	NegotiationWindow time.Duration // not read by this package; no default is applied
}

func (c Config) useTLS() bool {
	switch c.TLSMode {
	case TLSForceOn:
		return true
	case TLSForceOff:
		return false
	default:
		return c.Port == historicalSSLPort
	}
}

func (c Config) dialTimeout() time.Duration {
	if c.DialTimeout > 0 {
		return c.DialTimeout
	}
	return 10 * time.Second
}

func (c Config) handshakeTimeout() time.Duration {
	if c.HandshakeTimeout > 0 {
		return c.HandshakeTimeout
	}
	return 10 * time.Second
}

// LoadCABundle parses a PEM file's BEGIN CERTIFICATE blocks, skipping
// malformed blocks with a logged warning instead of failing outright
// (spec.md §4.6).
func LoadCABundle(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("transport: read CA bundle %s: %w", path, err)
	}

	var out []byte
	rest := raw
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			logging.Debug("transport: skipping non-certificate PEM block %q in CA bundle", block.Type)
			continue
		}
		if _, err := x509.ParseCertificate(block.Bytes); err != nil {
			logging.Debug("transport: skipping malformed certificate in CA bundle: %v", err)
			continue
		}
		out = append(out, pem.EncodeToMemory(block)...)
	}
	return out, nil
}

// readFile is a thin indirection so tests can substitute an in-memory
// bundle without touching the filesystem.
var readFile = os.ReadFile

// Connector dials a single connection per call, honoring Config's TLS
// policy and timeouts.
type Connector struct {
	cfg Config
}

// NewConnector creates a Connector for the given configuration.
func NewConnector(cfg Config) *Connector {
	return &Connector{cfg: cfg}
}

// Connect dials the host, optionally wraps the socket in TLS, and returns
// a live Connection with its reader goroutine already running. The
// provided context cancels an in-flight dial or TLS handshake; sockets
// dropped this way are closed, not leaked (spec.md §4.6 "cancelable connect").
func (c *Connector) Connect(ctx context.Context) (*Connection, error) {
	dialer := &net.Dialer{Timeout: c.cfg.dialTimeout()}
	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)

	rawConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, engineerrors.Wrap(engineerrors.KindTransport, "dial failed", err)
	}

	var conn net.Conn = rawConn
	if c.cfg.useTLS() {
		tlsCfg := &tls.Config{InsecureSkipVerify: c.cfg.InsecureSkipVerify}
		if c.cfg.InsecureSkipVerify {
			logging.Info("transport: TLS certificate verification DISABLED for %s — accept-invalid-certs is set", addr)
		}
		if len(c.cfg.CABundlePEM) > 0 {
			pool := x509.NewCertPool()
			pool.AppendCertsFromPEM(c.cfg.CABundlePEM)
			tlsCfg.RootCAs = pool
		}

		tlsConn := tls.Client(rawConn, tlsCfg)
		handshakeCtx, cancel := context.WithTimeout(ctx, c.cfg.handshakeTimeout())
		err := tlsConn.HandshakeContext(handshakeCtx)
		cancel()
		if err != nil {
			rawConn.Close()
			return nil, engineerrors.Wrap(engineerrors.KindTransport, "TLS handshake failed", err)
		}
		conn = tlsConn
	}

	cn := newConnection(conn)
	cn.startReader()
	return cn, nil
}

// Connection is a live socket plus its single-producer byte-chunk
// channel. Exactly one goroutine (the reader started by Connect) ever
// reads from the underlying net.Conn, matching the single-reader
// invariant spec.md §5 requires.
type Connection struct {
	conn net.Conn

	mu          sync.Mutex
	negotiating bool

	recv   chan []byte
	closed chan struct{}
	once   sync.Once
}

func newConnection(conn net.Conn) *Connection {
	return &Connection{
		conn:   conn,
		recv:   make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

// Recv returns the channel of inbound byte chunks. It closes when the
// connection is lost (read == 0 or an IO error), which the consumer
// observes as "connection lost" (spec.md §4.6).
func (c *Connection) Recv() <-chan []byte {
	return c.recv
}

// Closed returns a channel that is closed once the reader goroutine exits.
func (c *Connection) Closed() <-chan struct{} {
	return c.closed
}

// EnterNegotiation applies the short handshake-phase read/write
// deadlines (spec.md §4.6, "~10s").
func (c *Connection) EnterNegotiation(timeout time.Duration) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c.mu.Lock()
	c.negotiating = true
	c.mu.Unlock()
	c.conn.SetDeadline(time.Now().Add(timeout))
}

// LeaveNegotiation clears deadlines so subsequent reads block
// indefinitely, per spec.md §4.6 ("after negotiation is complete,
// timeouts are cleared").
func (c *Connection) LeaveNegotiation() {
	c.mu.Lock()
	c.negotiating = false
	c.mu.Unlock()
	c.conn.SetDeadline(time.Time{})
}

// Write writes data to the socket as-is; it does no Telnet IAC escaping
// (callers frame outbound data with telnet.Frame first).
func (c *Connection) Write(data []byte) (int, error) {
	return c.conn.Write(data)
}

// Close closes the underlying socket. Safe to call more than once and
// concurrently with the reader goroutine.
func (c *Connection) Close() error {
	return c.conn.Close()
}

func (c *Connection) startReader() {
	go func() {
		defer close(c.closed)
		defer close(c.recv)
		buf := make([]byte, 8192)
		for {
			n, err := c.conn.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case c.recv <- chunk:
				case <-c.closed:
					return
				}
			}
			if err != nil {
				if !isTimeout(err) {
					return
				}
				// A deadline expiring mid-negotiation is not connection
				// loss; the caller re-arms a fresh deadline on its next
				// EnterNegotiation call and we keep reading.
				continue
			}
			if n == 0 {
				return
			}
		}
	}()
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
