package tn5250

import (
	"testing"

	"github.com/stlalpha/tn5250term/internal/display"
)

func TestEraseResetInputOnlyPreservesProtectedText(t *testing.T) {
	p := NewProcessor()
	p.Fields.Add(&display.Field{StartRow: 0, StartCol: 0, Length: 1, Mirror: []byte{0xE7}, Attribute: display.Attribute{Protected: true}})
	p.Buf.PutChar(0, 0, 'X', display.Attribute{Protected: true})
	p.Fields.Add(&display.Field{StartRow: 1, StartCol: 0, Length: 1, Mirror: []byte{0xE8}, MDT: true})
	p.Buf.PutChar(1, 0, 'Y', display.Attribute{})

	sf := []byte{0x00, 0x05, sfClass, sfEraseReset, 0x02}
	cmd := append([]byte{ESC, CmdWriteStructured}, sf...)
	if _, err := p.HandleHostData(cmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ch := p.Buf.CellAt(0, 0).Character; ch != 'X' {
		t.Errorf("protected cell = %q, want preserved 'X'", ch)
	}
	if ch := p.Buf.CellAt(1, 0).Character; ch != ' ' {
		t.Errorf("unprotected cell = %q, want blanked", ch)
	}
	fields := p.Fields.Fields()
	if len(fields) != 2 {
		t.Fatalf("expected field table untouched by input-only reset, got %d fields", len(fields))
	}
	if fields[1].MDT {
		t.Error("expected unprotected field's MDT cleared by input-only reset")
	}
	if fields[1].Mirror[0] != 0x00 {
		t.Errorf("expected unprotected field mirror nulled, got %#02x", fields[1].Mirror[0])
	}
}

func TestEraseResetToNullsFillsNulCharacter(t *testing.T) {
	p := NewProcessor()
	p.Buf.PutChar(0, 0, 'X', display.Attribute{})
	p.Fields.Add(&display.Field{Length: 1})

	sf := []byte{0x00, 0x05, sfClass, sfEraseReset, 0x00}
	cmd := append([]byte{ESC, CmdWriteStructured}, sf...)
	if _, err := p.HandleHostData(cmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch := p.Buf.CellAt(0, 0).Character; ch != 0x00 {
		t.Errorf("cell = %q (%d), want NUL", ch, ch)
	}
	if len(p.Fields.Fields()) != 0 {
		t.Error("expected field table cleared by reset-to-nulls")
	}
}

func TestEraseResetToBlanksClearsFieldsAndScreen(t *testing.T) {
	p := NewProcessor()
	p.Buf.PutChar(0, 0, 'X', display.Attribute{})
	p.Fields.Add(&display.Field{Length: 1})

	sf := []byte{0x00, 0x05, sfClass, sfEraseReset, 0x01}
	cmd := append([]byte{ESC, CmdWriteStructured}, sf...)
	if _, err := p.HandleHostData(cmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch := p.Buf.CellAt(0, 0).Character; ch != ' ' {
		t.Errorf("cell = %q, want blank", ch)
	}
	if len(p.Fields.Fields()) != 0 {
		t.Error("expected field table cleared by reset-to-blanks")
	}
}

// TestExtendedAttributesAffectSubsequentWrites reproduces a Define
// Extended Attribute structured field setting reverse video, followed by
// a WTD that writes a character: the written cell should carry the
// pending attribute (spec.md §4.3.5).
func TestExtendedAttributesAffectSubsequentWrites(t *testing.T) {
	p := NewProcessor()
	sf := []byte{0x00, 0x07, sfClass, sfDefineExtAttr, extAttrReverse, 0x01, 0x01}
	cmd := append([]byte{ESC, CmdWriteStructured}, sf...)
	if _, err := p.HandleHostData(cmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wtd := []byte{ESC, CmdWriteToDisplay, 0x00, 0x00, OrderSBA, 0x01, 0x01, 0xC1}
	if _, err := p.HandleHostData(wtd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attr := p.Buf.CellAt(0, 0).Attribute; !attr.Reverse {
		t.Error("expected written cell to carry the pending reverse attribute")
	}
}
