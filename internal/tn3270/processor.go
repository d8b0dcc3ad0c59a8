package tn3270

import (
	"github.com/stlalpha/tn5250term/internal/codec"
	"github.com/stlalpha/tn5250term/internal/display"
	"github.com/stlalpha/tn5250term/internal/engineerrors"
	"github.com/stlalpha/tn5250term/internal/logging"
)

// Processor is a stateful 3270 command interpreter sitting on the same
// kind of shared display buffer and field table as the 5250 processor.
type Processor struct {
	Buf    *display.Buffer
	Fields *display.FieldTable

	Addressing14Bit bool
	read            bool
	readModifiedOnly bool
}

// NewProcessor creates a processor over a freshly allocated model-2
// display, defaulting to 12-bit addressing until bind negotiates otherwise.
func NewProcessor() *Processor {
	return &Processor{
		Buf:    display.NewBuffer(display.GeometryModel2),
		Fields: display.NewFieldTable(),
	}
}

// HandleWrite processes a Write or Erase/Write command body: a Write
// Control Character followed by an order-and-data stream.
func (p *Processor) HandleWrite(body []byte, eraseFirst bool) error {
	if len(body) == 0 {
		return engineerrors.New(engineerrors.KindProtocol, "empty 3270 write body")
	}
	if eraseFirst {
		p.Fields.Clear()
		p.Buf.Clear()
	}
	wcc := body[0]
	i := 1
	for i < len(body) {
		b := body[i]
		i++
		var err error
		switch b {
		case OrderSBA:
			i, err = p.handleSBA(body, i)
		case OrderSF:
			i, err = p.handleSF(body, i)
		case OrderSFE:
			i, err = p.handleSFE(body, i)
		case OrderSA:
			i, err = p.handleSA(body, i)
		case OrderRA:
			i, err = p.handleRA(body, i)
		case OrderEUA:
			i, err = p.handleEUA(body, i)
		case OrderIC:
			p.moveCursorToFirstInput()
		case OrderPT:
			p.programTab()
		case OrderGE:
			if i < len(body) {
				ch := codec.DecodeRune(body[i])
				cur := p.Buf.Cursor()
				p.Buf.WriteAtCursor(ch, display.Attribute{})
				p.mirrorWrite(cur, body[i])
				i++
			}
		case OrderMF:
			i, err = p.handleMF(body, i)
		default:
			ch := codec.DecodeRune(b)
			cur := p.Buf.Cursor()
			p.Buf.WriteAtCursor(ch, display.Attribute{})
			p.mirrorWrite(cur, b)
		}
		if err != nil {
			return err
		}
	}
	p.applyWCC(wcc)
	return nil
}

func (p *Processor) applyWCC(wcc byte) {
	if wcc&wccResetMDT != 0 {
		p.Fields.ResetMDT(nil)
	}
	if wcc&wccKeyboardRst != 0 {
		p.Buf.UnlockKeyboard()
	}
	if wcc&wccSoundAlarm != 0 {
		logging.Debug("tn3270: alarm requested")
	}
}

func (p *Processor) currentAddress() uint16 {
	w, _ := p.Buf.Dimensions()
	pos := p.Buf.Cursor()
	return uint16(pos.Row*w + pos.Col)
}

func (p *Processor) setAddress(addr uint16) {
	w, _ := p.Buf.Dimensions()
	if w == 0 {
		return
	}
	p.Buf.SetCursor(int(addr)/w, int(addr)%w)
}

func (p *Processor) handleSBA(body []byte, i int) (int, error) {
	if i+1 >= len(body) {
		return i, engineerrors.New(engineerrors.KindProtocol, "truncated SBA")
	}
	addr := DecodeAddress(body[i], body[i+1], p.Addressing14Bit)
	p.setAddress(addr)
	return i + 2, nil
}

func (p *Processor) handleSF(body []byte, i int) (int, error) {
	if i >= len(body) {
		return i, engineerrors.New(engineerrors.KindProtocol, "truncated SF")
	}
	attrByte := body[i]
	i++
	cur := p.Buf.Cursor()
	f := &display.Field{
		StartRow:  cur.Row,
		StartCol:  cur.Col,
		Attribute: decodeFieldAttribute(attrByte),
	}
	f.Mirror = nil // length resolved lazily at EUA/next-field time in this engine
	p.Fields.Add(f)
	return i, nil
}

// handleSFE parses an Extended Start-of-Field: a count byte followed by
// that many (type,value) pairs.
func (p *Processor) handleSFE(body []byte, i int) (int, error) {
	if i >= len(body) {
		return i, engineerrors.New(engineerrors.KindProtocol, "truncated SFE")
	}
	count := int(body[i])
	i++
	attr := display.Attribute{}
	for n := 0; n < count; n++ {
		if i+1 >= len(body) {
			return i, engineerrors.New(engineerrors.KindProtocol, "truncated SFE pair")
		}
		typ, val := body[i], body[i+1]
		i += 2
		applySFEAttribute(&attr, typ, val)
	}
	cur := p.Buf.Cursor()
	f := &display.Field{StartRow: cur.Row, StartCol: cur.Col, Attribute: attr}
	p.Fields.Add(f)
	return i, nil
}

// 3270 extended-highlighting values (the val byte of an attrTypeHighlight
// type/value pair).
const (
	highlightDefault   byte = 0x00
	highlightBlink     byte = 0xF1
	highlightReverse   byte = 0xF2
	highlightUnderline byte = 0xF4
)

func applySFEAttribute(attr *display.Attribute, typ, val byte) {
	switch typ {
	case attrTypeValue:
		*attr = decodeFieldAttribute(val)
	case attrTypeColor:
		attr.HasColor = true
		attr.Color = display.Color(val & 0x07)
	case attrTypeHighlight:
		attr.Blink = val == highlightBlink
		attr.Reverse = val == highlightReverse
		attr.Underline = val == highlightUnderline
	default:
		logging.Debug("tn3270: unrecognized SFE attribute type %#02x", typ)
	}
}

func (p *Processor) handleSA(body []byte, i int) (int, error) {
	if i+1 >= len(body) {
		return i, engineerrors.New(engineerrors.KindProtocol, "truncated SA")
	}
	typ, val := body[i], body[i+1]
	i += 2
	w, _ := p.Buf.Dimensions()
	pos := p.Buf.Cursor()
	if f, ok := p.Fields.FieldAt(pos.Row, pos.Col, w); ok {
		applySFEAttribute(&f.Attribute, typ, val)
	}
	return i, nil
}

func (p *Processor) handleRA(body []byte, i int) (int, error) {
	if i+2 >= len(body) {
		return i, engineerrors.New(engineerrors.KindProtocol, "truncated RA")
	}
	endAddr := DecodeAddress(body[i], body[i+1], p.Addressing14Bit)
	fill := body[i+2]
	i += 3

	w, h := p.Buf.Dimensions()
	start := p.currentAddress()
	ch := codec.DecodeRune(fill)
	total := w * h
	addr := int(start)
	for {
		p.setAddress(uint16(addr))
		p.Buf.WriteAtCursor(ch, display.Attribute{})
		if addr == int(endAddr) {
			break
		}
		addr = (addr + 1) % total
		if addr == int(start) {
			break
		}
	}
	return i, nil
}

func (p *Processor) handleEUA(body []byte, i int) (int, error) {
	if i+1 >= len(body) {
		return i, engineerrors.New(engineerrors.KindProtocol, "truncated EUA")
	}
	endAddr := DecodeAddress(body[i], body[i+1], p.Addressing14Bit)
	i += 2

	w, _ := p.Buf.Dimensions()
	start := p.currentAddress()
	r1, c1 := int(start)/w, int(start)%w
	r2, c2 := int(endAddr)/w, int(endAddr)%w
	p.Buf.EraseRegion(r1, c1, r2, c2)
	for _, f := range p.Fields.Fields() {
		if !f.Attribute.Protected {
			for k := range f.Mirror {
				f.Mirror[k] = 0x00
			}
		}
	}
	return i, nil
}

func (p *Processor) handleMF(body []byte, i int) (int, error) {
	if i >= len(body) {
		return i, engineerrors.New(engineerrors.KindProtocol, "truncated MF")
	}
	count := int(body[i])
	i++
	if i+2*count > len(body) {
		return i, engineerrors.New(engineerrors.KindProtocol, "truncated MF attribute list")
	}
	w, _ := p.Buf.Dimensions()
	pos := p.Buf.Cursor()
	if f, ok := p.Fields.FieldAt(pos.Row, pos.Col, w); ok {
		for n := 0; n < count; n++ {
			applySFEAttribute(&f.Attribute, body[i], body[i+1])
			i += 2
		}
	} else {
		i += 2 * count
	}
	return i, nil
}

func (p *Processor) moveCursorToFirstInput() {
	for _, f := range p.Fields.Fields() {
		if !f.Attribute.Protected {
			p.Buf.SetCursor(f.StartRow, f.StartCol)
			return
		}
	}
}

func (p *Processor) programTab() {
	w, _ := p.Buf.Dimensions()
	cur := p.currentAddress()
	var next *display.Field
	for _, f := range p.Fields.Fields() {
		if f.Attribute.Protected {
			continue
		}
		addr := uint16(f.StartRow*w + f.StartCol)
		if addr > cur && (next == nil || addr < uint16(next.StartRow*w+next.StartCol)) {
			next = f
		}
	}
	if next != nil {
		p.Buf.SetCursor(next.StartRow, next.StartCol)
	}
}

func decodeFieldAttribute(b byte) display.Attribute {
	attr := display.Attribute{}
	if b&0x20 != 0 {
		attr.Protected = true
	}
	if b&0x10 != 0 {
		attr.NumericOnly = true
	}
	if b&0x0C == 0x0C {
		attr.Intensity = display.IntensityNonDisplay
	} else if b&0x08 != 0 {
		attr.Intensity = display.IntensityIntensified
	}
	return attr
}

func (p *Processor) mirrorWrite(pos display.Position, raw byte) {
	w, _ := p.Buf.Dimensions()
	f, ok := p.Fields.FieldAt(pos.Row, pos.Col, w)
	if !ok {
		return
	}
	offset := (pos.Row*w + pos.Col) - (f.StartRow*w + f.StartCol)
	if offset < 0 {
		return
	}
	for len(f.Mirror) <= offset {
		f.Mirror = append(f.Mirror, 0x00)
	}
	f.Mirror[offset] = raw
}

// ArmRead arms a Read Buffer (all fields) or Read Modified (mdt=true
// fields only) response.
func (p *Processor) ArmRead(modifiedOnly bool) {
	p.read = true
	p.readModifiedOnly = modifiedOnly
	p.Buf.UnlockKeyboard()
}

// ReadArmed reports whether a read response is pending.
func (p *Processor) ReadArmed() bool {
	return p.read
}

// AIDReadResponse builds the Read-Buffer/Read-Modified response: [aid]
// [cursor_addr hi][cursor_addr lo] <field data> (spec.md §4.4).
func (p *Processor) AIDReadResponse(aid AID) []byte {
	addr := p.currentAddress()
	hi, lo := EncodeAddress(addr, p.Addressing14Bit)
	out := []byte{byte(aid), hi, lo}

	for _, f := range p.Fields.Fields() {
		if p.readModifiedOnly && !f.MDT {
			continue
		}
		fhi, flo := EncodeAddress(uint16(f.StartRow*mustWidth(p.Buf)+f.StartCol), p.Addressing14Bit)
		out = append(out, OrderSBA, fhi, flo)
		out = append(out, f.Mirror...)
	}

	p.read = false
	p.Buf.LockKeyboard()
	return out
}

func mustWidth(b *display.Buffer) int {
	w, _ := b.Dimensions()
	return w
}
