package tn5250

import (
	"encoding/binary"

	"github.com/stlalpha/tn5250term/internal/codec"
	"github.com/stlalpha/tn5250term/internal/display"
	"github.com/stlalpha/tn5250term/internal/engineerrors"
	"github.com/stlalpha/tn5250term/internal/logging"
)

// Structured field class and type bytes (spec.md §4.3.5).
const (
	sfClass byte = 0xD9

	sfQuery              byte = 0x70
	sfQueryStationState  byte = 0x72
	sfQueryCommand       byte = 0x84
	sfEraseReset         byte = 0x5B
	sfDefinePendingOps   byte = 0x80
	sfDefinePendingOpsX  byte = 0x9D
	sfDefineNamedLU      byte = 0x7E
	sfDefineExtAttr      byte = 0xD3
	sfSetExtAttr         byte = 0xCA
	sfReadText           byte = 0xD2
	sfDefineRollDir      byte = 0x86
	sfSetMonitorMode     byte = 0x87
	sfCancelRecovery     byte = 0x88
	sfEnableCmdRecog     byte = 0x89
	sfRequestTimestampIv byte = 0x8A
)

// InboundWriteStructuredFieldAID is the AID byte a structured-field reply
// (such as a Query Reply) is framed under on its way back to the host.
const InboundWriteStructuredFieldAID AID = 0x88

// QueryReplyConfig controls the fixed-shape Query Reply payload (spec.md §4.3.6).
type QueryReplyConfig struct {
	ControllerClass byte
	CodeLevel       byte
	DeviceType      string
	KeyboardID      byte
	SerialNumber    uint32
	Capabilities    byte
	Enhanced        bool
	EnhancedFeature [2]byte
}

// DefaultQueryReplyConfig matches the engine's default 5250 identity.
func DefaultQueryReplyConfig() QueryReplyConfig {
	return QueryReplyConfig{
		ControllerClass: 0x01,
		CodeLevel:       0x01,
		DeviceType:      "IBM-5555-C01",
		KeyboardID:      0x01,
		Capabilities:    0x00,
	}
}

func (p *Processor) handleStructuredField(rest []byte) (int, []byte, error) {
	if len(rest) < 4 {
		return len(rest), nil, engineerrors.New(engineerrors.KindProtocol, "truncated structured field header")
	}
	total := int(binary.BigEndian.Uint16(rest[0:2]))
	if total < 4 || total > len(rest) {
		return len(rest), nil, engineerrors.New(engineerrors.KindProtocol, "malformed structured field length")
	}
	class := rest[2]
	typ := rest[3]
	body := rest[4:total]

	if class != sfClass {
		logging.Debug("tn5250: structured field with unexpected class %#02x", class)
		return total, nil, nil
	}

	switch typ {
	case sfQuery, sfQueryStationState:
		return total, p.buildQueryReply(), nil
	case sfQueryCommand:
		return total, p.buildSetReplyMode(), nil
	case sfEraseReset:
		p.handleEraseReset(body)
		return total, nil, nil
	case sfDefinePendingOps, sfDefinePendingOpsX:
		p.handleDefinePendingOps(body)
		return total, nil, nil
	case sfDefineNamedLU:
		p.handleDefineNamedLU(body)
		return total, nil, nil
	case sfDefineExtAttr, sfSetExtAttr:
		p.handleExtendedAttributes(body)
		return total, nil, nil
	case sfReadText:
		return total, p.buildReadTextReply(body), nil
	case sfDefineRollDir:
		logging.Debug("tn5250: define roll direction %v", body)
		return total, nil, nil
	case sfSetMonitorMode:
		p.monitorMode = len(body) > 0 && body[0] != 0
		return total, nil, nil
	case sfCancelRecovery, sfEnableCmdRecog, sfRequestTimestampIv:
		return total, nil, nil
	default:
		if typ >= 0x8C && typ <= 0xA1 {
			// Extended variants reuse their non-extended counterpart's
			// payload format (spec.md §4.3.5); no distinct handling needed
			// beyond acknowledging consumption.
			logging.Debug("tn5250: extended structured field %#02x treated as base variant", typ)
			return total, nil, nil
		}
		logging.Debug("tn5250: unknown structured field id=%#02x len=%d, skipping", typ, total)
		return total, nil, nil
	}
}

func (p *Processor) buildQueryReply() []byte {
	cfg := p.queryReply
	out := []byte{byte(InboundWriteStructuredFieldAID)}

	payload := []byte{sfClass, sfQuery}
	payload = append(payload, cfg.ControllerClass, cfg.CodeLevel)
	payload = append(payload, codec.EncodeBytes([]byte(cfg.DeviceType))...)
	payload = append(payload, cfg.KeyboardID)
	payload = append(payload, byte(cfg.SerialNumber>>24), byte(cfg.SerialNumber>>16), byte(cfg.SerialNumber>>8), byte(cfg.SerialNumber))
	payload = append(payload, cfg.Capabilities)
	if cfg.Enhanced {
		payload = append(payload, cfg.EnhancedFeature[0], cfg.EnhancedFeature[1])
	}

	total := 2 + len(payload)
	out = append(out, byte(total>>8), byte(total))
	out = append(out, payload...)
	return out
}

func (p *Processor) buildSetReplyMode() []byte {
	out := []byte{byte(InboundWriteStructuredFieldAID)}
	payload := []byte{sfClass, sfQueryCommand, 0x01}
	total := 2 + len(payload)
	out = append(out, byte(total>>8), byte(total))
	return append(out, payload...)
}

func (p *Processor) handleEraseReset(body []byte) {
	const (
		resetToNulls   byte = 0x00
		resetToBlanks  byte = 0x01
		resetInputOnly byte = 0x02
	)
	resetType := resetToBlanks
	if len(body) > 0 {
		resetType = body[0]
	}
	switch resetType {
	case resetToNulls:
		// Whole screen, but with the NUL character rather than a blank,
		// matching the distinction a real controller draws between
		// "erased" (null, eligible to be skipped on a subsequent field
		// read) and "blanked" (an explicit space).
		p.Fields.Clear()
		p.fillScreen(0x00)
	case resetInputOnly:
		// Only unprotected fields are cleared; protected text (labels,
		// constants) and the field table itself are left alone
		// (spec.md §4.3.5).
		p.eraseUnprotectedFields()
	default: // resetToBlanks
		p.Fields.Clear()
		p.Buf.Clear()
	}
}

// fillScreen overwrites every cell with ch, leaving the field table
// (already cleared or left intact by the caller) untouched.
func (p *Processor) fillScreen(ch rune) {
	w, h := p.Buf.Dimensions()
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			p.Buf.PutChar(r, c, ch, display.Attribute{})
		}
	}
}

// eraseUnprotectedFields blanks the cells and content mirror of every
// unprotected field, without touching protected fields or the field table.
func (p *Processor) eraseUnprotectedFields() {
	w, _ := p.Buf.Dimensions()
	for _, f := range p.Fields.Fields() {
		if f.Attribute.Protected {
			continue
		}
		for i := 0; i < f.Length; i++ {
			pos := f.StartRow*w + f.StartCol + i
			p.Buf.PutChar(pos/w, pos%w, ' ', f.Attribute)
		}
		for i := range f.Mirror {
			f.Mirror[i] = 0x00
		}
		f.MDT = false
	}
}

func (p *Processor) handleDefinePendingOps(body []byte) {
	const (
		opAID     byte = 0x01
		opField   byte = 0x02
		opTimer   byte = 0x03
	)
	i := 0
	for i < len(body) {
		opType := body[i]
		i++
		switch opType {
		case opAID, opField, opTimer:
			// Operation-specific parameter byte; it is skipped, and the
			// engine neither records nor acts on pending operations.
			if i < len(body) {
				i++
			}
		default:
			logging.Debug("tn5250: unknown pending-operation type %#02x", opType)
			return
		}
	}
}

func (p *Processor) handleDefineNamedLU(body []byte) {
	if len(body) == 0 {
		return
	}
	n := int(body[0])
	if n+1 > len(body) {
		logging.Debug("tn5250: truncated LU name in Define Named LU")
		return
	}
	p.deviceName = string(codec.DecodeBytes(body[1 : 1+n]))
}

func (p *Processor) handleExtendedAttributes(body []byte) {
	i := 0
	for i+1 < len(body) {
		id := body[i]
		length := int(body[i+1])
		i += 2
		if i+length > len(body) {
			logging.Debug("tn5250: truncated extended attribute id=%#02x", id)
			return
		}
		data := body[i : i+length]
		i += length
		p.applyExtendedAttribute(id, data)
	}
}

// Recognized extended-attribute IDs (spec.md §4.3.5).
const (
	extAttrColor     byte = 0xC0
	extAttrFontFlags byte = 0xC1
	extAttrIntensity byte = 0xC2
	extAttrReverse   byte = 0xC3
	extAttrBlink     byte = 0xC4
)

// applyExtendedAttribute folds one (id, data) entry from a Define/Set
// Extended Attribute list into the processor's pending attribute, which is
// applied to subsequent cell writes until the next Start-of-Field or
// explicit attribute change (spec.md §4.3.5). Unrecognized IDs are logged
// and skipped without aborting the list.
func (p *Processor) applyExtendedAttribute(id byte, data []byte) {
	if len(data) == 0 {
		logging.Debug("tn5250: empty extended attribute data id=%#02x", id)
		return
	}
	v := data[0]
	switch id {
	case extAttrColor:
		p.pendingAttr.HasColor = true
		p.pendingAttr.Color = display.Color(v % 7)
	case extAttrFontFlags:
		p.pendingAttr.Underline = v&0x01 != 0
		p.pendingAttr.Reverse = p.pendingAttr.Reverse || v&0x02 != 0
		if v&0x04 != 0 {
			p.pendingAttr.Intensity = display.IntensityIntensified
		}
	case extAttrIntensity:
		if v != 0 {
			p.pendingAttr.Intensity = display.IntensityIntensified
		} else {
			p.pendingAttr.Intensity = display.IntensityNormal
		}
	case extAttrReverse:
		p.pendingAttr.Reverse = v != 0
	case extAttrBlink:
		p.pendingAttr.Blink = v != 0
	default:
		logging.Debug("tn5250: unrecognized extended attribute id %#02x", id)
	}
}

func (p *Processor) buildReadTextReply(body []byte) []byte {
	w, h := p.Buf.Dimensions()
	r1, c1, r2, c2 := 0, 0, h-1, w-1
	if len(body) >= 4 {
		r1, c1, r2, c2 = int(body[0])-1, int(body[1])-1, int(body[2])-1, int(body[3])-1
	}
	snap := p.Buf.SnapshotRegion(r1, c1, r2, c2)

	out := []byte{byte(InboundWriteStructuredFieldAID)}
	payload := []byte{sfClass, sfReadText}
	for _, c := range snap.Cells {
		payload = append(payload, codec.EncodeRune(c.Character))
	}
	total := 2 + len(payload)
	out = append(out, byte(total>>8), byte(total))
	return append(out, payload...)
}
