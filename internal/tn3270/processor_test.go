package tn3270

import (
	"bytes"
	"testing"

	"github.com/stlalpha/tn5250term/internal/display"
)

// TestAddress12RoundTrip reproduces spec.md §8 scenario E.
func TestAddress12RoundTrip(t *testing.T) {
	for addr := uint16(0); addr < 1<<12; addr++ {
		b1, b2 := EncodeAddress12(addr)
		if got := DecodeAddress12(b1, b2); got != addr {
			t.Fatalf("12-bit round trip failed for %d: got %d", addr, got)
		}
	}
}

// TestEncodeAddress12MatchesWireTable checks encode against the actual
// normative byte table, not just its own decoder: a wrong-but-self-inverse
// encode/decode pair would still pass a round-trip test.
func TestEncodeAddress12MatchesWireTable(t *testing.T) {
	cases := []struct {
		addr   uint16
		b1, b2 byte
	}{
		{0, 0x40, 0x40},
		{1, 0x40, 0xc1},
		{63, 0x40, 0x7f},
		{64, 0xc1, 0x40},
		{100, 0xc1, 0xe4}, // 100 = 1*64 + 36; codes[1]=0xc1, codes[36]=0xe4
	}
	for _, c := range cases {
		b1, b2 := EncodeAddress12(c.addr)
		if b1 != c.b1 || b2 != c.b2 {
			t.Errorf("EncodeAddress12(%d) = %#x %#x, want %#x %#x", c.addr, b1, b2, c.b1, c.b2)
		}
	}
}

func TestAddress12RoundTripKnownValues(t *testing.T) {
	for _, addr := range []uint16{100, 1919} {
		b1, b2 := EncodeAddress12(addr)
		if got := DecodeAddress12(b1, b2); got != addr {
			t.Errorf("address %d round trip = %d", addr, got)
		}
	}
}

func TestAddress14RoundTrip(t *testing.T) {
	for addr := uint16(0); addr < 1<<14; addr += 7 {
		b1, b2 := EncodeAddress14(addr)
		if got := DecodeAddress14(b1, b2); got != addr {
			t.Fatalf("14-bit round trip failed for %d: got %d", addr, got)
		}
	}
	// Exhaustively cover the boundary values too.
	for _, addr := range []uint16{0, 1, (1 << 14) - 1} {
		b1, b2 := EncodeAddress14(addr)
		if got := DecodeAddress14(b1, b2); got != addr {
			t.Errorf("boundary address %d round trip = %d", addr, got)
		}
	}
}

func TestHandleWriteErasesAndWritesText(t *testing.T) {
	p := NewProcessor()
	hi, lo := EncodeAddress12(0)
	body := []byte{0x00, OrderSBA, hi, lo, 0xC8, 0xC5, 0xD3, 0xD3, 0xD6} // WCC, SBA(0,0), "HELLO"

	if err := p.HandleWrite(body, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "HELLO"
	for i, w := range want {
		if got := p.Buf.CellAt(0, i).Character; got != w {
			t.Errorf("cell (0,%d) = %q, want %q", i, got, w)
		}
	}
}

func TestStartOfFieldCreatesUnprotectedField(t *testing.T) {
	p := NewProcessor()
	p.Buf.SetCursor(1, 1)
	body := []byte{0x00, OrderSF, 0x00} // unprotected attribute byte 0x00

	if err := p.HandleWrite(body, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fields := p.Fields.Fields()
	if len(fields) != 1 {
		t.Fatalf("field count = %d, want 1", len(fields))
	}
	if fields[0].Attribute.Protected {
		t.Error("expected unprotected field from attribute byte 0x00")
	}
}

func TestReadModifiedOnlyIncludesMDTFields(t *testing.T) {
	p := NewProcessor()
	p.Fields.Add(&display.Field{StartRow: 0, StartCol: 0, Mirror: []byte{0x40}, MDT: false})
	p.Fields.Add(&display.Field{StartRow: 0, StartCol: 5, Mirror: []byte{0xC1}, MDT: true})

	p.ArmRead(true)
	resp := p.AIDReadResponse(AIDEnter)

	if !p.containsByte(resp, 0xC1) {
		t.Errorf("expected modified field content in response, got % X", resp)
	}
	curHi, curLo := EncodeAddress12(0)
	fHi, fLo := EncodeAddress12(5)
	want := []byte{byte(AIDEnter), curHi, curLo, OrderSBA, fHi, fLo, 0xC1}
	if !bytes.Equal(resp, want) {
		t.Errorf("resp = % X, want only the modified field: % X", resp, want)
	}
	if p.ReadArmed() {
		t.Error("expected read disarmed after response")
	}
}

func (p *Processor) containsByte(data []byte, b byte) bool {
	for _, x := range data {
		if x == b {
			return true
		}
	}
	return false
}
