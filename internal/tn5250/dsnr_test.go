package tn5250

import (
	"testing"

	"github.com/stlalpha/tn5250term/internal/engineerrors"
)

func TestBuildDSNRFraming(t *testing.T) {
	pkt := buildDSNR(DSNRInvCursPos, 0x05)
	want := []byte{ESC, CmdWriteErrorCode, 0x05, 0x00, 0x01, DSNRInvCursPos}
	if len(pkt) != len(want) {
		t.Fatalf("buildDSNR length = %d, want %d", len(pkt), len(want))
	}
	for i := range want {
		if pkt[i] != want[i] {
			t.Fatalf("buildDSNR[%d] = %#x, want %#x", i, pkt[i], want[i])
		}
	}
}

func TestClassifyDSNR(t *testing.T) {
	cases := []struct {
		err  error
		want byte
	}{
		{engineerrors.New(engineerrors.KindProtocol, "truncated SBA"), DSNRInvCursPos},
		{engineerrors.New(engineerrors.KindProtocol, "truncated RA"), DSNRRAB4WSA},
		{engineerrors.New(engineerrors.KindProtocol, "truncated Roll"), DSNRRollParm},
		{engineerrors.New(engineerrors.KindProtocol, "truncated command after ESC"), DSNRNoEsc},
		{engineerrors.New(engineerrors.KindTransport, "connection reset"), DSNRUnknown},
	}
	for _, c := range cases {
		if got := classifyDSNR(c.err); got != c.want {
			t.Errorf("classifyDSNR(%q) = %#x, want %#x", c.err, got, c.want)
		}
	}
}

// TestHandleHostDataEmitsDSNROnError reproduces a truncated RA order and
// checks the processor both surfaces the error and emits a DSNR packet
// identifying it (spec.md §7).
func TestHandleHostDataEmitsDSNROnError(t *testing.T) {
	p := NewProcessor()
	data := []byte{ESC, CmdWriteToDisplay, 0x00, 0x00, OrderRA, 0x01}
	out, err := p.HandleHostData(data)
	if err == nil {
		t.Fatal("expected truncated RA error")
	}
	if len(out) == 0 {
		t.Fatal("expected a DSNR packet in output")
	}
	if out[0] != ESC || out[1] != CmdWriteErrorCode {
		t.Fatalf("output does not start with a Write Error Code DSNR packet: % X", out)
	}
	if out[len(out)-1] != DSNRRAB4WSA {
		t.Errorf("DSNR code = %#x, want %#x", out[len(out)-1], DSNRRAB4WSA)
	}
}
