// Package telnet implements the RFC 854-style IAC framing and RFC 2877
// option negotiation used to carry the 5250/3270 byte stream to an IBM
// host. It is a bidirectional filter: Unframe strips and answers IAC
// sequences from an inbound chunk, returning the clean data subsequence;
// Frame escapes outbound data for the wire.
package telnet

import (
	"fmt"
	"sync"

	"github.com/stlalpha/tn5250term/internal/logging"
)

// Telnet command bytes (RFC 854).
const (
	IAC  byte = 255
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250
	GA   byte = 249
	EOR  byte = 239 // IAC EOR terminates a 3270/5250 record in binary mode
	SE   byte = 240
)

// Option bytes this engine cares about.
const (
	OptBinary     byte = 0
	OptEcho       byte = 1
	OptSGA        byte = 3
	OptTermType   byte = 24
	OptEOR        byte = 25
	OptNAWS       byte = 31
	OptNewEnviron byte = 39
	OptCharset    byte = 42
)

// Subnegotiation sub-commands.
const (
	SubIS   byte = 0
	SubSend byte = 1
)

// New-Environ subnegotiation type bytes (RFC 1572).
const (
	envVar   byte = 0
	envValue byte = 1
)

// State is the per-option negotiation state (spec.md §4.5's simplified
// four/five-state table).
type State int

const (
	StateInitial State = iota
	StateRequested
	StateRequestedDisable
	StateActive
	StateInactive
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "Initial"
	case StateRequested:
		return "Requested"
	case StateRequestedDisable:
		return "RequestedDisable"
	case StateActive:
		return "Active"
	case StateInactive:
		return "Inactive"
	default:
		return "Unknown"
	}
}

// preferredOptions is the set the negotiator actively requests at attach.
var preferredOptions = []byte{OptBinary, OptEOR, OptSGA, OptTermType, OptNewEnviron, OptNAWS, OptCharset}

func accepted(opt byte) bool {
	switch opt {
	case OptBinary, OptEOR, OptSGA, OptTermType, OptNewEnviron, OptNAWS, OptCharset:
		return true
	default:
		return false
	}
}

// Config carries the values the negotiator answers subnegotiation queries with.
type Config struct {
	TerminalType string            // e.g. "IBM-5555-C01" or "IBM-3278-2"
	DeviceName   string            // DEVNAME New-Environ variable
	DeviceType   string            // DEVTYPE New-Environ variable, hex device code
	Columns      int               // COLUMNS New-Environ variable
	Rows         int               // ROWS New-Environ variable
	UserVars     map[string]string // user-supplied New-Environ variables
}

// scanState tracks the byte-at-a-time IAC scan across Unframe calls.
type scanState int

const (
	scanData scanState = iota
	scanIAC
	scanWill
	scanWont
	scanDo
	scanDont
	scanSB
	scanSBData
	scanSBIAC
)

// Negotiator is a bidirectional Telnet IAC filter and option-negotiation
// state machine.
type Negotiator struct {
	mu      sync.Mutex
	cfg     Config
	options map[byte]State

	state    scanState
	sbOption byte
	sbData   []byte

	naws struct {
		cols, rows int
	}
	charsetOffered string

	forced bool
}

// New creates a Negotiator seeded with the given subnegotiation answers.
func New(cfg Config) *Negotiator {
	n := &Negotiator{
		cfg:     cfg,
		options: make(map[byte]State, len(preferredOptions)),
		state:   scanData,
	}
	for _, opt := range preferredOptions {
		n.options[opt] = StateInitial
	}
	return n
}

// InitialBurst returns the bytes the negotiator sends as soon as it is
// attached to a connection: "IAC DO <opt>" for every preferred option.
func (n *Negotiator) InitialBurst() []byte {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []byte
	for _, opt := range preferredOptions {
		out = append(out, IAC, DO, opt)
		n.options[opt] = StateRequested
	}
	return out
}

// OptionState returns the current negotiation state of opt.
func (n *Negotiator) OptionState(opt byte) State {
	n.mu.Lock()
	defer n.mu.Unlock()
	if s, ok := n.options[opt]; ok {
		return s
	}
	return StateInitial
}

// IsNegotiationComplete reports whether Binary, EOR, and SGA are all Active.
func (n *Negotiator) IsNegotiationComplete() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.options[OptBinary] == StateActive &&
		n.options[OptEOR] == StateActive &&
		n.options[OptSGA] == StateActive
}

// ForceComplete promotes Binary, EOR, and SGA to Active regardless of the
// actual negotiation outcome. It is an explicit escape hatch for hostile
// hosts that never answer essential options. Each option it promotes is
// logged at debug level; calls after the first do nothing.
func (n *Negotiator) ForceComplete() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.forced {
		return
	}
	n.forced = true
	for _, opt := range []byte{OptBinary, OptEOR, OptSGA} {
		if n.options[opt] != StateActive {
			logging.Debug("telnet: force-completing option %d (was %s)", opt, n.options[opt])
			n.options[opt] = StateActive
		}
	}
}

// NAWS returns the last negotiated window size, or (0,0) if none was reported.
func (n *Negotiator) NAWS() (cols, rows int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.naws.cols, n.naws.rows
}

// OfferedCharset returns the charset the host advertised via the Charset
// option, if any. Advisory only; it does not change codec behavior.
func (n *Negotiator) OfferedCharset() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.charsetOffered
}

// Frame escapes 0xFF bytes in outbound data as IAC IAC.
func Frame(data []byte) []byte {
	count := 0
	for _, b := range data {
		if b == IAC {
			count++
		}
	}
	if count == 0 {
		return data
	}
	out := make([]byte, 0, len(data)+count)
	for _, b := range data {
		if b == IAC {
			out = append(out, IAC, IAC)
		} else {
			out = append(out, b)
		}
	}
	return out
}

// Unframe scans data for IAC sequences, answering negotiation requests by
// appending response bytes to resp, and returns the clean data
// subsequence with all Telnet framing removed.
func (n *Negotiator) Unframe(data []byte) (clean []byte, resp []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()

	clean = make([]byte, 0, len(data))
	for _, b := range data {
		switch n.state {
		case scanData:
			if b == IAC {
				n.state = scanIAC
			} else {
				clean = append(clean, b)
			}
		case scanIAC:
			switch b {
			case IAC:
				clean = append(clean, 0xFF)
				n.state = scanData
			case WILL:
				n.state = scanWill
			case WONT:
				n.state = scanWont
			case DO:
				n.state = scanDo
			case DONT:
				n.state = scanDont
			case SB:
				n.state = scanSB
			default:
				// GA, NOP, EOR-as-command, etc. — no per-byte argument, consume.
				n.state = scanData
			}
		case scanWill:
			resp = append(resp, n.handleWill(b)...)
			n.state = scanData
		case scanWont:
			resp = append(resp, n.handleWont(b)...)
			n.state = scanData
		case scanDo:
			resp = append(resp, n.handleDo(b)...)
			n.state = scanData
		case scanDont:
			resp = append(resp, n.handleDont(b)...)
			n.state = scanData
		case scanSB:
			n.sbOption = b
			n.sbData = n.sbData[:0]
			n.state = scanSBData
		case scanSBData:
			if b == IAC {
				n.state = scanSBIAC
			} else if len(n.sbData) < 4096 {
				n.sbData = append(n.sbData, b)
			}
		case scanSBIAC:
			switch b {
			case SE:
				resp = append(resp, n.handleSubnegotiation()...)
				n.state = scanData
			case IAC:
				if len(n.sbData) < 4096 {
					n.sbData = append(n.sbData, IAC)
				}
				n.state = scanSBData
			default:
				n.state = scanData
			}
		}
	}
	return clean, resp
}

func (n *Negotiator) handleWill(opt byte) []byte {
	cur := n.options[opt]
	if !accepted(opt) || opt == OptEcho {
		if cur != StateInactive {
			n.options[opt] = StateInactive
			return []byte{IAC, DONT, opt}
		}
		return nil
	}
	if cur == StateActive {
		return nil
	}
	n.options[opt] = StateActive
	if cur == StateRequested {
		// Confirms a DO we sent to the peer about a WILL it is offering on
		// its own side; nothing further to send (per RFC 854 no reply to
		// a WILL matching an outstanding DO in the other axis).
		return nil
	}
	return []byte{IAC, DO, opt}
}

func (n *Negotiator) handleWont(opt byte) []byte {
	if n.options[opt] == StateInactive {
		return nil
	}
	n.options[opt] = StateInactive
	return []byte{IAC, DONT, opt}
}

func (n *Negotiator) handleDo(opt byte) []byte {
	cur := n.options[opt]
	if !accepted(opt) {
		if cur != StateInactive {
			n.options[opt] = StateInactive
			return []byte{IAC, WONT, opt}
		}
		return nil
	}
	if cur == StateActive {
		return nil
	}
	n.options[opt] = StateActive
	return []byte{IAC, WILL, opt}
}

func (n *Negotiator) handleDont(opt byte) []byte {
	if n.options[opt] == StateInactive {
		return nil
	}
	n.options[opt] = StateInactive
	return []byte{IAC, WONT, opt}
}

func (n *Negotiator) handleSubnegotiation() []byte {
	switch n.sbOption {
	case OptTermType:
		if len(n.sbData) >= 1 && n.sbData[0] == SubSend {
			return termTypeReply(n.cfg.TerminalType)
		}
	case OptNewEnviron:
		if len(n.sbData) >= 1 && n.sbData[0] == SubSend {
			return n.newEnvironReply()
		}
	case OptNAWS:
		if len(n.sbData) >= 4 {
			n.naws.cols = int(n.sbData[0])<<8 | int(n.sbData[1])
			n.naws.rows = int(n.sbData[2])<<8 | int(n.sbData[3])
		}
	case OptCharset:
		if len(n.sbData) >= 2 {
			// SB CHARSET REQUEST <sep><charset>... ; take the first offer.
			n.charsetOffered = firstCharset(n.sbData[1:])
		}
	}
	return nil
}

func termTypeReply(termType string) []byte {
	out := []byte{IAC, SB, OptTermType, SubIS}
	out = append(out, []byte(termType)...)
	out = append(out, IAC, SE)
	return out
}

func (n *Negotiator) newEnvironReply() []byte {
	out := []byte{IAC, SB, OptNewEnviron, SubIS}
	appendVar := func(name, value string) {
		out = append(out, envVar)
		out = append(out, []byte(name)...)
		out = append(out, envValue)
		out = append(out, []byte(value)...)
	}
	appendVar("DEVNAME", n.cfg.DeviceName)
	appendVar("DEVTYPE", n.cfg.DeviceType)
	if n.cfg.Columns > 0 {
		appendVar("COLUMNS", fmt.Sprintf("%d", n.cfg.Columns))
	}
	if n.cfg.Rows > 0 {
		appendVar("ROWS", fmt.Sprintf("%d", n.cfg.Rows))
	}
	for k, v := range n.cfg.UserVars {
		appendVar(k, v)
	}
	out = append(out, IAC, SE)
	return out
}

func firstCharset(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sep := data[0]
	rest := data[1:]
	for i, b := range rest {
		if b == sep {
			return string(rest[:i])
		}
	}
	return string(rest)
}
