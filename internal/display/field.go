package display

// FCW is the 5250 Field Control Word bit set (spec.md §4.3.5), carried
// alongside a field's Format Word and consulted by input validation.
type FCW struct {
	WordWrap            bool
	Continuous          bool
	SelectionEnable     bool
	SignedNumeric       bool
	RightAdjustZeroFill bool
	MandatoryFill       bool
	MandatoryEntry      bool
}

// Field describes one entry in the field table: an input or output region
// anchored at a start position, with its own attribute byte, content
// mirror, and Modified Data Tag.
type Field struct {
	ID        uint16
	StartRow  int
	StartCol  int
	Length    int
	Attribute Attribute
	Mirror    []byte // EBCDIC content mirror, kept in sync with the display
	MDT       bool
	FCW       FCW
}

// IsInputField reports whether the field accepts keyboard entry.
func (f *Field) IsInputField() bool {
	return !f.Attribute.Protected
}

// FieldTable is the ordered set of fields overlaid on a display buffer
// (spec.md §3, field table). Fields are numbered in the order they were
// defined by the host's Start-of-Field orders.
type FieldTable struct {
	fields []*Field
	byID   map[uint16]*Field
	nextID uint16
}

// NewFieldTable returns an empty field table.
func NewFieldTable() *FieldTable {
	return &FieldTable{byID: make(map[uint16]*Field)}
}

// Add appends a new field, assigning it the next sequential ID, and returns
// that ID.
func (t *FieldTable) Add(f *Field) uint16 {
	t.nextID++
	f.ID = t.nextID
	t.fields = append(t.fields, f)
	t.byID[f.ID] = f
	return f.ID
}

// Clear removes every field. The 5250 Clear Unit, Clear Unit Alternate,
// and Clear Format Table commands and a 3270 Erase/Write call it.
func (t *FieldTable) Clear() {
	t.fields = nil
	t.byID = make(map[uint16]*Field)
	t.nextID = 0
}

// Fields returns the fields in definition order. The returned slice is
// the table's own backing slice, not a copy: it is safe to range over but
// must not be mutated.
func (t *FieldTable) Fields() []*Field {
	return t.fields
}

// ByID looks up a field by its assigned ID.
func (t *FieldTable) ByID(id uint16) (*Field, bool) {
	f, ok := t.byID[id]
	return f, ok
}

// FieldAt returns the field, if any, that owns the given 0-based position.
// A field occupies StartRow/StartCol through its Length cells, wrapping
// across rows in display order.
func (t *FieldTable) FieldAt(row, col int, width int) (*Field, bool) {
	pos := row*width + col
	for _, f := range t.fields {
		start := f.StartRow*width + f.StartCol
		if pos >= start && pos < start+f.Length {
			return f, true
		}
	}
	return nil, false
}

// ResetMDT clears the Modified Data Tag on every field for which keep
// returns false; fields matching keep retain their MDT. A nil keep clears
// all fields' MDT unconditionally.
func (t *FieldTable) ResetMDT(keep func(*Field) bool) {
	for _, f := range t.fields {
		if keep == nil || !keep(f) {
			f.MDT = false
		}
	}
}

// ModifiedFields returns the fields, in definition order, whose Modified
// Data Tag is set — the set a Read-MDT-Fields command reports.
func (t *FieldTable) ModifiedFields() []*Field {
	var out []*Field
	for _, f := range t.fields {
		if f.MDT {
			out = append(out, f)
		}
	}
	return out
}
