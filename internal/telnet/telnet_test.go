package telnet

import (
	"bytes"
	"testing"
)

func TestInitialBurstRequestsPreferredOptions(t *testing.T) {
	n := New(Config{TerminalType: "IBM-5555-C01"})
	burst := n.InitialBurst()

	for _, opt := range preferredOptions {
		if !bytes.Contains(burst, []byte{IAC, DO, opt}) {
			t.Errorf("initial burst missing IAC DO %d", opt)
		}
		if n.OptionState(opt) != StateRequested {
			t.Errorf("option %d: want StateRequested, got %s", opt, n.OptionState(opt))
		}
	}
}

// TestHandshakeScenarioA reproduces spec.md §8 scenario A: the host answers
// our initial DO Binary/EOR/SGA with its own DO for the same options, and we
// must reply WILL and mark each Active.
func TestHandshakeScenarioA(t *testing.T) {
	n := New(Config{TerminalType: "IBM-5555-C01"})
	n.InitialBurst()

	for _, opt := range []byte{OptBinary, OptEOR, OptSGA} {
		clean, resp := n.Unframe([]byte{IAC, DO, opt})
		if len(clean) != 0 {
			t.Errorf("option %d: expected no data output, got %v", opt, clean)
		}
		want := []byte{IAC, WILL, opt}
		if !bytes.Equal(resp, want) {
			t.Errorf("option %d: response = % X, want % X", opt, resp, want)
		}
		if n.OptionState(opt) != StateActive {
			t.Errorf("option %d: want Active, got %s", opt, n.OptionState(opt))
		}
	}

	if !n.IsNegotiationComplete() {
		t.Fatal("expected negotiation complete after Binary+EOR+SGA active")
	}
}

func TestEchoIsAlwaysRefused(t *testing.T) {
	n := New(Config{})
	_, resp := n.Unframe([]byte{IAC, WILL, OptEcho})
	if !bytes.Equal(resp, []byte{IAC, DONT, OptEcho}) {
		t.Errorf("expected DONT ECHO, got % X", resp)
	}
	if n.OptionState(OptEcho) != StateInactive {
		t.Errorf("echo state = %s, want Inactive", n.OptionState(OptEcho))
	}
}

func TestUnknownOptionRefused(t *testing.T) {
	n := New(Config{})
	const unknownOpt = byte(99)
	_, resp := n.Unframe([]byte{IAC, DO, unknownOpt})
	if !bytes.Equal(resp, []byte{IAC, WONT, unknownOpt}) {
		t.Errorf("expected WONT %d, got % X", unknownOpt, resp)
	}
}

func TestIACEscapeRoundTrip(t *testing.T) {
	data := []byte{0x01, 0xFF, 0x02, 0xFF, 0xFF, 0x03}
	framed := Frame(data)

	n := New(Config{})
	clean, resp := n.Unframe(framed)
	if len(resp) != 0 {
		t.Fatalf("unexpected negotiation response from pure data: % X", resp)
	}
	if !bytes.Equal(clean, data) {
		t.Errorf("round trip mismatch: got % X, want % X", clean, data)
	}
}

func TestTerminalTypeSubnegotiation(t *testing.T) {
	n := New(Config{TerminalType: "IBM-3278-2"})
	_, resp := n.Unframe([]byte{IAC, SB, OptTermType, SubSend, IAC, SE})

	want := append([]byte{IAC, SB, OptTermType, SubIS}, []byte("IBM-3278-2")...)
	want = append(want, IAC, SE)
	if !bytes.Equal(resp, want) {
		t.Errorf("term type reply = % X, want % X", resp, want)
	}
}

func TestNewEnvironSubnegotiation(t *testing.T) {
	n := New(Config{DeviceName: "DSP01", DeviceType: "3196", Columns: 80, Rows: 24})
	_, resp := n.Unframe([]byte{IAC, SB, OptNewEnviron, SubSend, IAC, SE})

	if len(resp) == 0 {
		t.Fatal("expected a new-environ reply")
	}
	if !bytes.Contains(resp, []byte("DSP01")) || !bytes.Contains(resp, []byte("3196")) {
		t.Errorf("new-environ reply missing device vars: % X", resp)
	}
}

func TestNAWSStored(t *testing.T) {
	n := New(Config{})
	_, _ = n.Unframe([]byte{IAC, SB, OptNAWS, 0, 80, 0, 24, IAC, SE})

	cols, rows := n.NAWS()
	if cols != 80 || rows != 24 {
		t.Errorf("NAWS = (%d,%d), want (80,24)", cols, rows)
	}
}

func TestForceComplete(t *testing.T) {
	n := New(Config{})
	if n.IsNegotiationComplete() {
		t.Fatal("expected incomplete before force")
	}
	n.ForceComplete()
	if !n.IsNegotiationComplete() {
		t.Fatal("expected complete after ForceComplete")
	}
}

func TestDataPassThroughInterleavedWithIAC(t *testing.T) {
	n := New(Config{})
	n.InitialBurst()

	input := append([]byte("HELLO"), IAC, DO, OptBinary)
	input = append(input, []byte("WORLD")...)

	clean, resp := n.Unframe(input)
	if string(clean) != "HELLOWORLD" {
		t.Errorf("clean = %q, want %q", clean, "HELLOWORLD")
	}
	if !bytes.Equal(resp, []byte{IAC, WILL, OptBinary}) {
		t.Errorf("resp = % X", resp)
	}
}
