package session

import (
	"github.com/stlalpha/tn5250term/internal/engineerrors"
	"github.com/stlalpha/tn5250term/internal/tn3270"
	"github.com/stlalpha/tn5250term/internal/tn5250"
)

// LogicalKey is a UI-facing attention key, independent of which wire
// dialect is active (spec.md §4.3.8/§4.4 #3 — "similar intent... but
// different byte values").
type LogicalKey int

const (
	KeyEnter LogicalKey = iota
	KeyClear
	KeyHelp
	KeyPrint
	KeySysRequest
	KeyAttention
	KeyRollUp
	KeyRollDown
	KeyRollLeft
	KeyRollRight
	KeyFieldExit
	KeyFieldMark
	KeyDup
	KeyPA1
	KeyPA2
	KeyPA3
	KeyPF1
)

// PF returns the logical key for PF1..PF24 (1-based).
func PF(n int) LogicalKey {
	return LogicalKey(int(KeyPF1) + n - 1)
}

// TriggerAID maps key to the active dialect's AID byte and returns the
// encoded Read response (spec.md §4.3.7/§4.4), as if a Read-family
// command had been armed and the user pressed that key. It acquires the
// session lock and clears read_opcode/relocks the keyboard the same way
// ProcessStream's host-driven reads do.
func (s *Session) TriggerAID(key LogicalKey) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.dialect {
	case DialectTN3270:
		return s.p3270.AIDReadResponse(key3270(key)), nil
	case DialectTN5250, DialectAutoDetect:
		return s.p5250.AIDReadResponse(key5250(key)), nil
	default:
		return nil, engineerrors.New(engineerrors.KindProtocol, "no active dialect for AID key")
	}
}

func key5250(key LogicalKey) tn5250.AID {
	switch key {
	case KeyEnter:
		return tn5250.AIDEnter
	case KeyClear:
		return tn5250.AIDClear
	case KeyHelp:
		return tn5250.AIDHelp
	case KeyPrint:
		return tn5250.AIDPrint
	case KeySysRequest:
		return tn5250.AIDSysReq
	case KeyAttention:
		return tn5250.AIDAttn
	case KeyRollUp:
		return tn5250.AIDRollUp
	case KeyRollDown:
		return tn5250.AIDRollDn
	case KeyRollLeft:
		return tn5250.AIDRollLt
	case KeyRollRight:
		return tn5250.AIDRollRt
	case KeyFieldExit:
		return tn5250.AIDFldExit
	case KeyFieldMark:
		return tn5250.AIDFldMark
	case KeyDup:
		return tn5250.AIDDup
	case KeyPA1:
		return tn5250.AIDPA1
	case KeyPA2:
		return tn5250.AIDPA2
	case KeyPA3:
		return tn5250.AIDPA3
	default:
		if n := int(key) - int(KeyPF1) + 1; n >= 1 && n <= 24 {
			return tn5250.PF(n)
		}
		return tn5250.AIDNone
	}
}

func key3270(key LogicalKey) tn3270.AID {
	switch key {
	case KeyEnter:
		return tn3270.AIDEnter
	case KeyClear:
		return tn3270.AIDClear
	case KeySysRequest:
		return tn3270.AIDSysReq
	case KeyAttention:
		return tn3270.AIDAttn
	case KeyPA1:
		return tn3270.AIDPA1
	case KeyPA2:
		return tn3270.AIDPA2
	case KeyPA3:
		return tn3270.AIDPA3
	default:
		if n := int(key) - int(KeyPF1) + 1; n >= 1 && n <= 24 {
			return tn3270.PF(n)
		}
		return tn3270.AIDNone
	}
}
