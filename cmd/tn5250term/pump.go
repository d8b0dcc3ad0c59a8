package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/stlalpha/tn5250term/internal/engineerrors"
	"github.com/stlalpha/tn5250term/internal/logging"
	"github.com/stlalpha/tn5250term/internal/session"
	"github.com/stlalpha/tn5250term/internal/telnet"
	"github.com/stlalpha/tn5250term/internal/transport"
)

// renderInterval bounds how often the local screen is redrawn: fast enough
// to feel live, slow enough that a burst of host writes coalesces into one
// repaint instead of flickering with every structured field.
const renderInterval = 33 * time.Millisecond

// pump is the bidirectional glue between the wire connection and the local
// terminal: host bytes flow through telnet unframing and the session's
// dialect processor onto the screen; local keystrokes flow through the
// keymap into AID triggers or field input. One select loop drives both
// directions plus a fixed redraw tick, with no GUI framework involved.
type pump struct {
	conn *transport.Connection
	neg  *telnet.Negotiator
	sess *session.Session
	term *localTerminal
}

func newPump(conn *transport.Connection, neg *telnet.Negotiator, sess *session.Session, term *localTerminal) *pump {
	return &pump{conn: conn, neg: neg, sess: sess, term: term}
}

// run drives the session until the context is canceled or the connection
// closes, redrawing the screen on a fixed tick whenever the display is dirty.
func (p *pump) run(ctx context.Context) {
	ticker := time.NewTicker(renderInterval)
	defer ticker.Stop()

	Render(p.sess.Display())

	for {
		select {
		case <-ctx.Done():
			return

		case <-p.conn.Closed():
			fmt.Fprintln(os.Stderr, "tn5250term: connection closed by host")
			return

		case chunk, ok := <-p.conn.Recv():
			if !ok {
				return
			}
			p.handleHostChunk(chunk)

		case raw, ok := <-p.term.Input():
			if !ok {
				return
			}
			p.handleLocalInput(raw)

		case <-ticker.C:
			if p.sess.Display().Dirty() {
				Render(p.sess.Display())
			}
		}
	}
}

// handleHostChunk unframes one read off the wire and feeds the clean
// payload through the session, writing back whatever response the
// dialect processor produced (an AID read response, a query reply, or a
// telnet negotiation reply renegotiated mid-session).
func (p *pump) handleHostChunk(chunk []byte) {
	clean, telnetResp := p.neg.Unframe(chunk)
	if len(telnetResp) > 0 {
		if _, err := p.conn.Write(telnetResp); err != nil {
			logging.Info("tn5250term: write telnet response: %v", err)
			return
		}
	}
	if len(clean) == 0 {
		return
	}

	resp, err := p.sess.ProcessStream(clean)
	if err != nil {
		// resp may still carry a DSNR (or other) packet the processor
		// wants sent back even though the command failed (spec.md §7).
		if len(resp) > 0 {
			if werr := p.writeResponse(resp); werr != nil {
				logging.Info("tn5250term: write host response: %v", werr)
			}
		}
		p.reportProcessingError(err)
		return
	}
	if len(resp) > 0 {
		if err := p.writeResponse(resp); err != nil {
			logging.Info("tn5250term: write host response: %v", err)
		}
	}
	Render(p.sess.Display())
}

// writeResponse re-inserts Telnet IAC escaping into resp and writes it to
// the host connection.
func (p *pump) writeResponse(resp []byte) error {
	_, err := p.conn.Write(telnet.Frame(resp))
	return err
}

// reportProcessingError logs a failed ProcessStream call without tearing
// down the session: per spec.md §7 a single bad command degrades rather
// than kills the connection, leaving the circuit breaker to decide when
// enough failures warrant refusing further host input.
func (p *pump) reportProcessingError(err error) {
	if errors.Is(err, engineerrors.ErrBufferTooLarge) {
		logging.Info("tn5250term: host command exceeded size cap")
		return
	}
	logging.Info("tn5250term: processing host data: %v", err)
}

// handleLocalInput parses one raw stdin read into logical key/rune events
// and dispatches each: AID keys trigger a Read response sent back to the
// host, printable runes are echoed into the current field locally.
func (p *pump) handleLocalInput(raw []byte) {
	for _, ev := range parseKeys(raw) {
		if ev.isAID {
			p.triggerAID(ev.aid)
			continue
		}
		if err := p.sess.TypeRune(ev.r); err != nil {
			logging.Debug("tn5250term: type rune rejected: %v", err)
			continue
		}
		Render(p.sess.Display())
	}
}

func (p *pump) triggerAID(key session.LogicalKey) {
	resp, err := p.sess.TriggerAID(key)
	if err != nil {
		logging.Info("tn5250term: AID trigger: %v", err)
		return
	}
	if len(resp) == 0 {
		return
	}
	if _, err := p.conn.Write(telnet.Frame(resp)); err != nil {
		logging.Info("tn5250term: write AID response: %v", err)
	}
}
