package display

import "testing"

func TestNewBufferDefaultsToSpaces(t *testing.T) {
	b := NewBuffer(GeometryModel2)
	w, h := b.Dimensions()
	if w != 80 || h != 24 {
		t.Fatalf("dimensions = (%d,%d), want (80,24)", w, h)
	}
	if c := b.CellAt(0, 0); c.Character != ' ' {
		t.Errorf("default cell = %q, want space", c.Character)
	}
}

func TestSetCursor1BasedValidatesRange(t *testing.T) {
	b := NewBuffer(GeometryModel2)
	if err := b.SetCursor1Based(1, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p := b.Cursor(); p != (Position{Row: 0, Col: 0}) {
		t.Errorf("cursor = %+v, want (0,0)", p)
	}
	if err := b.SetCursor1Based(0, 1); err == nil {
		t.Error("expected error for row 0")
	}
	if err := b.SetCursor1Based(25, 1); err == nil {
		t.Error("expected error for row 25 on a 24-row buffer")
	}
}

func TestSetCursorClamps(t *testing.T) {
	b := NewBuffer(GeometryModel2)
	b.SetCursor(-5, 1000)
	if p := b.Cursor(); p != (Position{Row: 0, Col: 79}) {
		t.Errorf("cursor = %+v, want clamped (0,79)", p)
	}
}

func TestWriteAtCursorAdvancesAndWraps(t *testing.T) {
	b := NewBuffer(GeometryModel2)
	b.SetCursor(0, 79)
	b.WriteAtCursor('X', Attribute{})
	if p := b.Cursor(); p != (Position{Row: 1, Col: 0}) {
		t.Errorf("cursor after wrap = %+v, want (1,0)", p)
	}
	if c := b.CellAt(0, 79); c.Character != 'X' {
		t.Errorf("cell (0,79) = %q, want X", c.Character)
	}
}

func TestWriteAtCursorClampsAtEndOfScreen(t *testing.T) {
	b := NewBuffer(GeometryModel2)
	b.SetCursor(23, 79)
	b.WriteAtCursor('Z', Attribute{})
	if p := b.Cursor(); p != (Position{Row: 23, Col: 79}) {
		t.Errorf("cursor at end-of-screen = %+v, want clamp to (23,79)", p)
	}
}

func TestClearHomesCursorAndLocksKeyboard(t *testing.T) {
	b := NewBuffer(GeometryModel2)
	b.PutChar(5, 5, 'Q', Attribute{})
	b.SetCursor(10, 10)
	b.Clear()
	if p := b.Cursor(); p != (Position{}) {
		t.Errorf("cursor after Clear = %+v, want (0,0)", p)
	}
	if !b.KeyboardLocked() {
		t.Error("expected keyboard locked after Clear")
	}
	if c := b.CellAt(5, 5); c.Character != ' ' {
		t.Errorf("cell (5,5) after Clear = %q, want space", c.Character)
	}
	if b.Indicators()&IndicatorXSystem == 0 {
		t.Error("expected x_system indicator set after Clear")
	}
}

func TestClearAlternateSwitchesGeometry(t *testing.T) {
	b := NewBuffer(GeometryModel2)
	b.ClearAlternate()
	w, h := b.Dimensions()
	if w != 132 || h != 27 {
		t.Errorf("dimensions after ClearAlternate = (%d,%d), want (132,27)", w, h)
	}
}

func TestEraseRegion(t *testing.T) {
	b := NewBuffer(GeometryModel2)
	for r := 0; r < 24; r++ {
		for c := 0; c < 80; c++ {
			b.PutChar(r, c, 'A', Attribute{})
		}
	}
	b.EraseRegion(2, 2, 4, 4)
	for r := 2; r <= 4; r++ {
		for c := 2; c <= 4; c++ {
			if ch := b.CellAt(r, c).Character; ch != ' ' {
				t.Errorf("cell (%d,%d) = %q, want space", r, c, ch)
			}
		}
	}
	if ch := b.CellAt(0, 0).Character; ch != 'A' {
		t.Errorf("cell (0,0) = %q, want untouched A", ch)
	}
}

func TestRollUpFillsExposedRowsWithDefault(t *testing.T) {
	b := NewBuffer(GeometryModel2)
	for c := 0; c < 80; c++ {
		b.PutChar(0, c, 'X', Attribute{})
		b.PutChar(1, c, 'Y', Attribute{})
	}
	b.Roll(0, 1, 1)
	if ch := b.CellAt(0, 0).Character; ch != 'Y' {
		t.Errorf("row 0 after roll up = %q, want Y", ch)
	}
	if ch := b.CellAt(1, 0).Character; ch != ' ' {
		t.Errorf("row 1 after roll up = %q, want space", ch)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	b := NewBuffer(GeometryModel2)
	b.PutChar(1, 1, 'Z', Attribute{Protected: true})
	b.SetCursor(1, 1)
	snap := b.Snapshot()

	b.Clear()
	if ch := b.CellAt(1, 1).Character; ch != ' ' {
		t.Fatalf("precondition failed: expected clear to wipe cell")
	}

	b.Restore(snap)
	if ch := b.CellAt(1, 1).Character; ch != 'Z' {
		t.Errorf("cell (1,1) after restore = %q, want Z", ch)
	}
	if p := b.Cursor(); p != (Position{Row: 1, Col: 1}) {
		t.Errorf("cursor after restore = %+v, want (1,1)", p)
	}
}

func TestFieldTableAddAndLookup(t *testing.T) {
	ft := NewFieldTable()
	id := ft.Add(&Field{StartRow: 2, StartCol: 10, Length: 5})
	if id != 1 {
		t.Fatalf("first field id = %d, want 1", id)
	}
	f, ok := ft.ByID(1)
	if !ok || f.Length != 5 {
		t.Fatalf("ByID(1) = %+v, %v", f, ok)
	}
	at, ok := ft.FieldAt(2, 12, 80)
	if !ok || at.ID != 1 {
		t.Errorf("FieldAt(2,12) did not resolve to field 1")
	}
	if _, ok := ft.FieldAt(5, 5, 80); ok {
		t.Error("FieldAt outside any field should miss")
	}
}

func TestFieldTableModifiedFieldsAndReset(t *testing.T) {
	ft := NewFieldTable()
	ft.Add(&Field{Length: 1, MDT: true})
	ft.Add(&Field{Length: 1, MDT: false})
	ft.Add(&Field{Length: 1, MDT: true})

	mod := ft.ModifiedFields()
	if len(mod) != 2 {
		t.Fatalf("ModifiedFields count = %d, want 2", len(mod))
	}

	ft.ResetMDT(nil)
	if len(ft.ModifiedFields()) != 0 {
		t.Error("expected all MDT cleared after ResetMDT(nil)")
	}
}

func TestFieldTableClear(t *testing.T) {
	ft := NewFieldTable()
	ft.Add(&Field{Length: 1})
	ft.Clear()
	if len(ft.Fields()) != 0 {
		t.Error("expected no fields after Clear")
	}
	if id := ft.Add(&Field{Length: 1}); id != 1 {
		t.Errorf("id after Clear = %d, want renumbering from 1", id)
	}
}
