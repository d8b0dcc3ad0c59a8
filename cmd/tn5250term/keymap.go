package main

import "github.com/stlalpha/tn5250term/internal/session"

// inputEvent is either a printable rune the user typed into the current
// field, or an AID-triggering logical key (spec.md §4.3.8/§4.4 #3).
type inputEvent struct {
	isAID bool
	aid   session.LogicalKey
	r     rune
}

// xterm function-key escape sequences this minimal CLI recognizes: the
// standard VT220/xterm SS3 sequences for PF1-4 and CSI ~ sequences for
// PF5-12, read back from the local keyboard.
var fnKeySequences = map[string]session.LogicalKey{
	"\x1bOP": session.KeyPF1, "\x1bOQ": session.KeyPF1 + 1, "\x1bOR": session.KeyPF1 + 2, "\x1bOS": session.KeyPF1 + 3,
	"\x1b[15~": session.KeyPF1 + 4, "\x1b[17~": session.KeyPF1 + 5, "\x1b[18~": session.KeyPF1 + 6, "\x1b[19~": session.KeyPF1 + 7,
	"\x1b[20~": session.KeyPF1 + 8, "\x1b[21~": session.KeyPF1 + 9, "\x1b[23~": session.KeyPF1 + 10, "\x1b[24~": session.KeyPF1 + 11,
}

// parseKeys splits one raw stdin read into logical input events.
func parseKeys(data []byte) []inputEvent {
	var out []inputEvent
	i := 0
	for i < len(data) {
		b := data[i]
		switch {
		case b == '\r' || b == '\n':
			out = append(out, inputEvent{isAID: true, aid: session.KeyEnter})
			i++
		case b == 0x1b:
			if seq, n, ok := matchEscape(data[i:]); ok {
				out = append(out, inputEvent{isAID: true, aid: seq})
				i += n
			} else {
				out = append(out, inputEvent{isAID: true, aid: session.KeyAttention})
				i++
			}
		case b == 0x03: // Ctrl-C: System Request
			out = append(out, inputEvent{isAID: true, aid: session.KeySysRequest})
			i++
		case b >= 0x20 && b <= 0x7e:
			out = append(out, inputEvent{r: rune(b)})
			i++
		default:
			i++
		}
	}
	return out
}

// matchEscape looks for a known function-key sequence at the start of
// data, returning the mapped key, the byte length consumed, and whether
// a match was found.
func matchEscape(data []byte) (session.LogicalKey, int, bool) {
	for seq, key := range fnKeySequences {
		n := len(seq)
		if len(data) >= n && string(data[:n]) == seq {
			return key, n, true
		}
	}
	return 0, 0, false
}
