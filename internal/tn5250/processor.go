// Package tn5250 implements the 5250 protocol processor: command framing,
// Write-To-Display order interpretation, field creation, structured
// fields, and Read-family responses (spec.md §4.3).
package tn5250

import (
	"encoding/binary"

	"github.com/stlalpha/tn5250term/internal/codec"
	"github.com/stlalpha/tn5250term/internal/display"
	"github.com/stlalpha/tn5250term/internal/engineerrors"
	"github.com/stlalpha/tn5250term/internal/logging"
)

// Processor is a stateful 5250 command interpreter sitting on top of a
// shared display buffer and field table.
type Processor struct {
	Buf    *display.Buffer
	Fields *display.FieldTable

	read        readOpcode
	pendingIC   *display.Position
	pendingAttr display.Attribute
	queryReply  QueryReplyConfig
	deviceName  string
	enhanced    bool
	monitorMode bool
	seq         byte
}

// NewProcessor creates a processor over a freshly allocated model-2 display.
func NewProcessor() *Processor {
	return &Processor{
		Buf:        display.NewBuffer(display.GeometryModel2),
		Fields:     display.NewFieldTable(),
		queryReply: DefaultQueryReplyConfig(),
	}
}

// HandleHostData consumes one or more ESC-framed commands from data and
// returns any bytes the processor wants to send back to the host (Read
// responses, structured field replies). It is not reentrant; call it from
// a single goroutine per session (spec.md §5).
func (p *Processor) HandleHostData(data []byte) ([]byte, error) {
	var out []byte
	i := 0
	for i < len(data) {
		if data[i] != ESC {
			// Stray byte outside command framing; spec.md §4.3.1 only
			// defines ESC-introduced commands at this layer.
			i++
			continue
		}
		if i+1 >= len(data) {
			err := engineerrors.New(engineerrors.KindProtocol, "truncated command after ESC")
			out = append(out, p.dsnrFor(err)...)
			return out, err
		}
		cmd := data[i+1]
		consumed, resp, err := p.dispatch(cmd, data[i+2:])
		if err != nil {
			// Recoverable stream error: emit a Data Stream Negative
			// Response identifying the error class before returning, so
			// the host sees why the command was rejected (spec.md §7).
			out = append(out, p.dsnrFor(err)...)
			return out, err
		}
		out = append(out, resp...)
		i += 2 + consumed
	}
	return out, nil
}

// dsnrFor builds a DSNR packet for err using and advancing the processor's
// wrapping sequence counter.
func (p *Processor) dsnrFor(err error) []byte {
	resp := DSNRFor(err, p.seq)
	p.seq++
	return resp
}

func (p *Processor) dispatch(cmd byte, rest []byte) (consumed int, resp []byte, err error) {
	switch cmd {
	case CmdClearUnit:
		p.Fields.Clear()
		p.Buf.Clear()
		p.pendingAttr = display.Attribute{}
		return 0, nil, nil
	case CmdClearUnitAlternate:
		p.Fields.Clear()
		p.Buf.ClearAlternate()
		p.pendingAttr = display.Attribute{}
		return 0, nil, nil
	case CmdClearFormatTable:
		p.Fields.Clear()
		return 0, nil, nil
	case CmdWriteToDisplay:
		return p.handleWriteToDisplay(rest)
	case CmdWriteErrorCode, CmdWriteErrorCodeWin:
		return p.handleWriteErrorCode(cmd, rest)
	case CmdReadInputFields:
		p.read = readInputFields
		p.Buf.UnlockKeyboard()
		return 0, nil, nil
	case CmdReadMDTFields:
		p.read = readMDTFields
		p.Buf.UnlockKeyboard()
		return 0, nil, nil
	case CmdReadMDTFieldsAlt:
		p.read = readMDTFieldsAlt
		p.Buf.UnlockKeyboard()
		return 0, nil, nil
	case CmdReadImmediate, CmdReadImmediateAlt:
		p.read = readImmediate
		p.Buf.UnlockKeyboard()
		return 0, nil, nil
	case CmdReadScreenImm:
		p.read = readScreenImmediate
		p.Buf.UnlockKeyboard()
		return 0, nil, nil
	case CmdSaveScreen:
		return 0, p.synthesizeSaveScreen(p.Buf.Snapshot()), nil
	case CmdSavePartialScreen:
		return p.handleSavePartialScreen(rest)
	case CmdRestoreScreen, CmdRestorePartial:
		// No-ops: the following bytes are themselves a WTD stream
		// (spec.md §4.3.2).
		return 0, nil, nil
	case CmdRoll:
		return p.handleRoll(rest)
	case CmdWriteStructured:
		return p.handleStructuredField(rest)
	default:
		return 0, nil, engineerrors.New(engineerrors.KindProtocol, "unknown 5250 command code")
	}
}

// handleWriteToDisplay parses CC1, CC2, and the order stream, stopping
// when it sees the next ESC (put back, not consumed) or runs out of data.
func (p *Processor) handleWriteToDisplay(rest []byte) (consumed int, resp []byte, err error) {
	if len(rest) < 2 {
		return len(rest), nil, engineerrors.New(engineerrors.KindProtocol, "WTD missing control characters")
	}
	cc1, cc2 := rest[0], rest[1]
	i := 2

	for i < len(rest) {
		if rest[i] == ESC {
			break
		}
		b := rest[i]
		i++
		switch b {
		case OrderSOH:
			if i >= len(rest) {
				return i, nil, engineerrors.New(engineerrors.KindProtocol, "truncated SOH")
			}
			n := int(rest[i])
			i++
			if n > 7 || i+n > len(rest) {
				return i, nil, engineerrors.New(engineerrors.KindProtocol, "malformed SOH length")
			}
			// Header bytes control screen-wide attributes; this engine
			// tracks them only insofar as later components need them.
			i += n
		case OrderRA:
			if i+2 >= len(rest) {
				return i, nil, engineerrors.New(engineerrors.KindProtocol, "truncated RA")
			}
			endRow, endCol, fill := int(rest[i]), int(rest[i+1]), rest[i+2]
			i += 3
			p.repeatToAddress(endRow-1, endCol-1, fill)
		case OrderEA:
			if i+2 >= len(rest) {
				return i, nil, engineerrors.New(engineerrors.KindProtocol, "truncated EA")
			}
			endRow, endCol, count := int(rest[i]), int(rest[i+1]), int(rest[i+2])
			i += 3
			if i+count > len(rest) {
				return i, nil, engineerrors.New(engineerrors.KindProtocol, "truncated EA class list")
			}
			classes := rest[i : i+count]
			i += count
			p.eraseToAddress(endRow-1, endCol-1, classes)
		case OrderSBA:
			if i+1 >= len(rest) {
				return i, nil, engineerrors.New(engineerrors.KindProtocol, "truncated SBA")
			}
			row, col := int(rest[i]), int(rest[i+1])
			i += 2
			if err := p.Buf.SetCursor1Based(row, col); err != nil {
				logging.Debug("tn5250: SBA out of range: %v", err)
			}
		case OrderIC:
			if i+1 >= len(rest) {
				return i, nil, engineerrors.New(engineerrors.KindProtocol, "truncated IC")
			}
			row, col := int(rest[i]), int(rest[i+1])
			i += 2
			pos := display.Position{Row: row - 1, Col: col - 1}
			p.pendingIC = &pos
		case OrderSF:
			n, err := p.createField(rest[i:])
			if err != nil {
				return i, nil, err
			}
			i += n
			p.pendingAttr = display.Attribute{}
		default:
			ch := codec.DecodeRune(b)
			cur := p.Buf.Cursor()
			p.Buf.WriteAtCursor(ch, p.pendingAttr)
			p.mirrorWrite(cur, b)
		}
	}

	p.applyCC1(cc1)
	p.applyCC2(cc2)
	if p.pendingIC != nil {
		p.Buf.SetCursor(p.pendingIC.Row, p.pendingIC.Col)
		p.pendingIC = nil
	}
	return i, nil, nil
}

func (p *Processor) applyCC1(cc1 byte) {
	if cc1&0x60 == 0x60 {
		p.Fields.ResetMDT(nil)
	} else if cc1&CC1ResetMDTNon != 0 {
		p.Fields.ResetMDT(func(f *display.Field) bool { return f.Attribute.Protected })
	}
	if cc1&CC1NullNonBypass != 0 {
		for _, f := range p.Fields.Fields() {
			if !f.Attribute.Protected {
				for i := range f.Mirror {
					f.Mirror[i] = 0x00
				}
			}
		}
	}
	if cc1&CC1LockKeyboard != 0 {
		p.Buf.LockKeyboard()
	}
}

func (p *Processor) applyCC2(cc2 byte) {
	const (
		cc2MessageWaiting byte = 0x80
		cc2Unlock         byte = 0x02
		cc2Alarm          byte = 0x04
	)
	if cc2&cc2MessageWaiting != 0 {
		p.Buf.SetIndicator(display.IndicatorMessageWaiting)
	} else {
		p.Buf.ClearIndicator(display.IndicatorMessageWaiting)
	}
	if cc2&cc2Unlock != 0 {
		p.Buf.UnlockKeyboard()
	}
	if cc2&cc2Alarm != 0 {
		logging.Debug("tn5250: alarm requested")
	}
}

func (p *Processor) repeatToAddress(endRow, endCol int, fill byte) {
	w, h := p.Buf.Dimensions()
	start := p.Buf.Cursor()
	ch := codec.DecodeRune(fill)
	attr := display.Attribute{}

	cur := start
	end := display.Position{Row: endRow, Col: endCol}
	for {
		p.Buf.PutChar(cur.Row, cur.Col, ch, attr)
		if cur == end {
			break
		}
		cur.Col++
		if cur.Col >= w {
			cur.Col = 0
			cur.Row++
			if cur.Row >= h {
				cur.Row = 0
			}
		}
		if cur == start {
			break // full wrap without reaching end; avoid infinite loop
		}
	}
}

func (p *Processor) eraseToAddress(endRow, endCol int, classes []byte) {
	wantAll, wantUnprotected, wantProtected := false, false, false
	for _, c := range classes {
		switch c {
		case eraseAll:
			wantAll = true
		case eraseUnprotected:
			wantUnprotected = true
		case eraseProtected:
			wantProtected = true
		}
	}
	if len(classes) == 0 {
		wantAll = true
	}

	start := p.Buf.Cursor()
	p.Buf.EraseRegion(start.Row, start.Col, endRow, endCol)

	for _, f := range p.Fields.Fields() {
		protected := f.Attribute.Protected
		if wantAll || (protected && wantProtected) || (!protected && wantUnprotected) {
			for i := range f.Mirror {
				f.Mirror[i] = 0x00
			}
		}
	}
}

// mirrorWrite keeps the owning field's content mirror (if any) in sync
// with a host-driven cell write that lands inside a field's extent. It
// leaves MDT unchanged.
func (p *Processor) mirrorWrite(pos display.Position, raw byte) {
	w, _ := p.Buf.Dimensions()
	f, ok := p.Fields.FieldAt(pos.Row, pos.Col, w)
	if !ok {
		return
	}
	offset := (pos.Row*w + pos.Col) - (f.StartRow*w + f.StartCol)
	if offset < 0 || offset >= len(f.Mirror) {
		return
	}
	f.Mirror[offset] = raw
}

func (p *Processor) handleWriteErrorCode(cmd byte, rest []byte) (int, []byte, error) {
	i := 0
	if cmd == CmdWriteErrorCodeWin {
		if len(rest) < 4 {
			return len(rest), nil, engineerrors.New(engineerrors.KindProtocol, "truncated error window coordinates")
		}
		i += 4
	}
	w, h := p.Buf.Dimensions()
	row := h - 1
	for i < len(rest) && rest[i] != ESC {
		ch := codec.DecodeRune(rest[i])
		col := i
		if cmd == CmdWriteErrorCodeWin {
			col = i - 4
		}
		if col < w {
			p.Buf.PutChar(row, col, ch, display.Attribute{Reverse: true})
		}
		i++
	}
	p.Buf.SetIndicator(display.IndicatorInhibit)
	return i, nil, nil
}

func (p *Processor) handleRoll(rest []byte) (int, []byte, error) {
	if len(rest) < 3 {
		return len(rest), nil, engineerrors.New(engineerrors.KindProtocol, "truncated Roll")
	}
	top, bottom, amount := int(rest[0])-1, int(rest[1])-1, int(int8(rest[2]))
	p.Buf.Roll(top, bottom, amount)
	return 3, nil, nil
}

func (p *Processor) handleSavePartialScreen(rest []byte) (int, []byte, error) {
	if len(rest) < 4 {
		return len(rest), nil, engineerrors.New(engineerrors.KindProtocol, "truncated Save Partial Screen")
	}
	r1, c1, r2, c2 := int(rest[0])-1, int(rest[1])-1, int(rest[2])-1, int(rest[3])-1
	snap := p.Buf.SnapshotRegion(r1, c1, r2, c2)
	return 4, p.synthesizeSaveScreen(snap), nil
}

// synthesizeSaveScreen emits a WTD stream that reproduces snap when played
// back through handleWriteToDisplay, per spec.md §4.3.2's Save Screen
// effect.
func (p *Processor) synthesizeSaveScreen(snap display.Snapshot) []byte {
	out := []byte{ESC, CmdWriteToDisplay, 0x00, 0x00}
	out = append(out, OrderIC, byte(snap.Cursor.Row+1), byte(snap.Cursor.Col+1))
	for r := 0; r < snap.Height; r++ {
		out = append(out, OrderSBA, byte(r+1), 0x01)
		for c := 0; c < snap.Width; c++ {
			cell := snap.Cells[r*snap.Width+c]
			out = append(out, codec.EncodeRune(cell.Character))
		}
	}
	return out
}

// AIDReadResponse builds the inbound Read response for the given AID,
// consulting the armed read opcode to decide which fields to include
// (spec.md §4.3.7), then clears read_opcode and locks the keyboard.
func (p *Processor) AIDReadResponse(aid AID) []byte {
	pos := p.Buf.Cursor()
	out := []byte{byte(pos.Row + 1), byte(pos.Col + 1), byte(aid)}

	var fields []*display.Field
	switch p.read {
	case readInputFields:
		fields = p.Fields.Fields()
	case readMDTFields, readMDTFieldsAlt:
		fields = p.Fields.ModifiedFields()
	case readImmediate, readScreenImmediate, readNone:
		fields = nil
	}

	for _, f := range fields {
		out = append(out, OrderSBA, byte(f.StartRow), byte(f.StartCol))
		out = append(out, f.Mirror...)
	}

	p.read = readNone
	p.Buf.LockKeyboard()
	return out
}

// ReadArmed reports whether a Read-family command is currently armed.
func (p *Processor) ReadArmed() bool {
	return p.read != readNone
}

func be16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

// ProcessBytes is HandleHostData under the narrow name the session
// coordinator dispatches through regardless of dialect (spec.md §9).
func (p *Processor) ProcessBytes(data []byte) ([]byte, error) {
	return p.HandleHostData(data)
}

// QueryReply returns the fixed-shape 5250 Query Reply payload, for
// callers that want it outside of a live structured-field exchange (e.g.
// to answer a session-level capability probe).
func (p *Processor) QueryReply() []byte {
	return p.buildQueryReply()
}
