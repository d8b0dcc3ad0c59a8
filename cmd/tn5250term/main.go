// Command tn5250term is the CLI entry point for the terminal protocol
// engine: it parses the spec.md §6 flags, dials the host over
// internal/transport, drives internal/telnet negotiation, auto-detects
// the dialect via internal/session, and pumps the local terminal's
// keyboard and screen through the active 5250/3270 processor.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stlalpha/tn5250term/internal/config"
	"github.com/stlalpha/tn5250term/internal/engineerrors"
	"github.com/stlalpha/tn5250term/internal/logging"
	"github.com/stlalpha/tn5250term/internal/scheduler"
	"github.com/stlalpha/tn5250term/internal/session"
	"github.com/stlalpha/tn5250term/internal/telnet"
	"github.com/stlalpha/tn5250term/internal/transport"
)

// Exit codes per spec.md §6.
const (
	exitClean              = 0
	exitArgError           = 2
	exitConnectionFailed   = 3
	exitNegotiationFailure = 4
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		server       string
		port         int
		useSSL       bool
		insecure     bool
		caBundle     string
		protocolFlag string
		termType     string
		user         string
		password     string
		debug        bool
	)

	fs := flag.NewFlagSet("tn5250term", flag.ContinueOnError)
	fs.StringVar(&server, "server", "", "host to connect to")
	fs.StringVar(&server, "s", "", "host to connect to (shorthand)")
	fs.IntVar(&port, "port", 23, "TCP port to connect to")
	fs.IntVar(&port, "p", 23, "TCP port to connect to (shorthand)")
	fs.BoolVar(&useSSL, "ssl", false, "force TLS regardless of port")
	fs.BoolVar(&insecure, "insecure", false, "accept invalid TLS certificates (requires -ssl)")
	fs.StringVar(&caBundle, "ca-bundle", "", "path to a PEM CA bundle")
	fs.StringVar(&protocolFlag, "protocol", "auto", "auto, tn5250, tn3270, or nvt")
	fs.StringVar(&termType, "terminal-type", "", "device-id string; must match -protocol")
	fs.StringVar(&user, "user", "", "advisory username, passed through New-Environ")
	fs.StringVar(&password, "password", "", "advisory password, passed through New-Environ")
	fs.BoolVar(&debug, "debug", false, "enable debug logging")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return exitArgError
	}
	if debug || os.Getenv("DEBUG") == "1" {
		logging.DebugEnabled = true
	}
	if server == "" {
		fmt.Fprintln(os.Stderr, "tn5250term: -server is required")
		return exitArgError
	}
	if insecure && !useSSL {
		fmt.Fprintln(os.Stderr, "tn5250term: -insecure requires -ssl")
		return exitArgError
	}

	protocol := config.Protocol(protocolFlag)
	deviceType := termType
	if deviceType == "" {
		deviceType = defaultTerminalTypeFor(protocol)
	}
	cfg := config.Default()
	cfg.Connection.Host = server
	cfg.Connection.Port = port
	cfg.Connection.Protocol = protocol
	cfg.Terminal.Type = deviceType
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "tn5250term: %v\n", err)
		return exitArgError
	}

	caPEM, err := transport.LoadCABundle(caBundle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tn5250term: %v\n", err)
		return exitConnectionFailed
	}

	tlsMode := transport.TLSAuto
	if useSSL {
		tlsMode = transport.TLSForceOn
	}
	tcfg := transport.Config{
		Host:               server,
		Port:               port,
		TLSMode:            tlsMode,
		InsecureSkipVerify: insecure,
		CABundlePath:       caBundle,
		CABundlePEM:        caPEM,
	}

	maint := scheduler.NewMaintainer()
	sess := session.New(1)
	if protocol != config.ProtocolAuto {
		forceDialect(sess, protocol)
	}
	// The CLI drives exactly one connection at a time, but the session
	// coordinator's registry is built for a host (a GUI, a multiplexing
	// daemon) serving several concurrently; registering here keeps this
	// session discoverable by id for the lifetime of the connection the
	// same way such a host would.
	registry := session.NewRegistry()
	registry.Register(sess)
	defer registry.Unregister(sess.ID)
	registerMaintenance(maint, sess)
	maint.Start()
	defer maint.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		cancel()
	}()

	connector := transport.NewConnector(tcfg)
	conn, err := connector.Connect(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tn5250term: connect failed: %v\n", err)
		return exitConnectionFailed
	}
	defer conn.Close()

	neg := telnet.New(telnet.Config{
		TerminalType: deviceType,
		DeviceName:   fmt.Sprintf("TN5250TERM-%d", os.Getpid()),
		DeviceType:   deviceType,
		Columns:      cfg.Terminal.Cols,
		Rows:         cfg.Terminal.Rows,
		UserVars:     userVars(user, password),
	})

	if err := negotiate(ctx, conn, neg); err != nil {
		fmt.Fprintf(os.Stderr, "tn5250term: %v\n", err)
		return exitNegotiationFailure
	}
	sess.Authenticate()
	conn.LeaveNegotiation()

	term, err := newLocalTerminal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tn5250term: local terminal init failed: %v\n", err)
		return exitConnectionFailed
	}
	defer term.Close()

	pump := newPump(conn, neg, sess, term)
	pump.run(ctx)
	return exitClean
}

func defaultTerminalTypeFor(p config.Protocol) string {
	if p == config.ProtocolTN3270 {
		return "IBM-3278-2"
	}
	return "IBM-5555-C01"
}

func forceDialect(sess *session.Session, p config.Protocol) {
	if p == config.ProtocolTN3270 {
		sess.SwitchTo3270()
	}
}

func userVars(user, password string) map[string]string {
	vars := map[string]string{}
	if user != "" {
		vars["USER"] = user
	}
	if password != "" {
		vars["PASSWORD"] = password
	}
	return vars
}

// negotiate drives the Telnet handshake to completion, applying the
// short handshake-phase deadlines and the top-level negotiation-window
// cap spec.md §4.6 describes, force-completing essential options if the
// host never answers (spec.md §4.5/§9 open question 3).
func negotiate(ctx context.Context, conn *transport.Connection, neg *telnet.Negotiator) error {
	const (
		handshakeTimeout  = 10 * time.Second
		negotiationWindow = 15 * time.Second
	)

	conn.EnterNegotiation(handshakeTimeout)
	if _, err := conn.Write(neg.InitialBurst()); err != nil {
		return engineerrors.Wrap(engineerrors.KindTransport, "write initial telnet negotiation burst", err)
	}

	deadline := time.Now().Add(negotiationWindow)
	for {
		if neg.IsNegotiationComplete() {
			return nil
		}
		if time.Now().After(deadline) {
			logging.Info("telnet: negotiation window elapsed, force-completing essential options")
			neg.ForceComplete()
			return nil
		}

		select {
		case <-ctx.Done():
			return engineerrors.ErrNegotiationFail
		case chunk, ok := <-conn.Recv():
			if !ok {
				return engineerrors.Wrap(engineerrors.KindTransport, "connection lost during negotiation", nil)
			}
			_, resp := neg.Unframe(chunk)
			if len(resp) > 0 {
				if _, err := conn.Write(resp); err != nil {
					return engineerrors.Wrap(engineerrors.KindTransport, "write telnet negotiation response", err)
				}
			}
		case <-time.After(100 * time.Millisecond):
			// re-check the deadline/completion without blocking forever on Recv
		}
	}
}

// registerMaintenance wires the session's circuit breaker into the
// periodic maintenance tick: a half-open transition is logged once per
// occurrence, giving the operator visibility into the "explicit policy
// choice" spec.md §4.5/§7 calls out for hostile-host handling.
func registerMaintenance(m *scheduler.Maintainer, sess *session.Session) {
	var lastState session.BreakerState
	m.Every("@every 1s", func() {
		st := sess.BreakerState()
		if st != lastState {
			logging.Info("session %d: circuit breaker state -> %s", sess.ID, st)
			lastState = st
		}
	})
}
