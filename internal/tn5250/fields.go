package tn5250

import (
	"github.com/stlalpha/tn5250term/internal/display"
	"github.com/stlalpha/tn5250term/internal/engineerrors"
	"github.com/stlalpha/tn5250term/internal/logging"
)

// createField parses a Start-of-Field order's arguments (spec.md §4.3.4)
// starting at data[0], appends the new field to the table at the current
// cursor, and returns the number of bytes consumed.
func (p *Processor) createField(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, engineerrors.New(engineerrors.KindProtocol, "truncated SF")
	}
	cur := p.Buf.Cursor()
	f := &display.Field{StartRow: cur.Row, StartCol: cur.Col}

	i := 0
	if data[0]&0xE0 != 0x20 {
		// Input field: FFW, then FCWs, then attribute, then length.
		if len(data) < 2 {
			return 0, engineerrors.New(engineerrors.KindProtocol, "truncated FFW")
		}
		ffw := be16(data[0:2])
		i = 2
		applyFFW(f, ffw)

		for i+1 < len(data) && data[i]&0xE0 != 0x20 {
			fcw := be16(data[i : i+2])
			applyFCW(f, fcw)
			i += 2
		}

		if i >= len(data) {
			return i, engineerrors.New(engineerrors.KindProtocol, "truncated field attribute")
		}
		// Protection and numeric-only come from the FFW; the attribute
		// byte supplies the display characteristics.
		ffwAttr := f.Attribute
		f.Attribute = decodeFieldAttribute(data[i])
		f.Attribute.Protected = ffwAttr.Protected
		f.Attribute.NumericOnly = ffwAttr.NumericOnly
		i++
		if i+1 >= len(data) {
			return i, engineerrors.New(engineerrors.KindProtocol, "truncated field length")
		}
		f.Length = int(be16(data[i : i+2]))
		i += 2
	} else {
		// Output-only field: the first byte is itself the attribute.
		f.Attribute = decodeFieldAttribute(data[0])
		i = 1
		if i+1 >= len(data) {
			return i, engineerrors.New(engineerrors.KindProtocol, "truncated output field length")
		}
		f.Length = int(be16(data[i : i+2]))
		i += 2
	}

	f.Mirror = make([]byte, f.Length)
	p.Fields.Add(f)
	return i, nil
}

// fieldFormatWord bit positions (spec.md §4.3.4). The bypass bit is the
// FFW high byte's MSB: any valid FFW byte therefore has its top 3 bits
// outside the 0b001 pattern that marks an output-only field's lone
// attribute byte, which is what lets createField tell the two field
// shapes apart.
const (
	ffwBypassBit   uint16 = 0x8000
	ffwNumericOnly uint16 = 0x0400
)

func applyFFW(f *display.Field, ffw uint16) {
	f.Attribute.Protected = ffw&ffwBypassBit != 0
	f.Attribute.NumericOnly = ffw&ffwNumericOnly != 0
}

// applyFCW dispatches on the FCW's leading type byte to set the matching
// Field Control Word flag (spec.md §4.3.4).
func applyFCW(f *display.Field, fcw uint16) {
	switch fcw >> 8 {
	case 0x60:
		f.FCW.WordWrap = true
	case 0x66:
		f.FCW.Continuous = true
	case 0x24:
		f.FCW.SelectionEnable = true
	case 0x40:
		f.FCW.SignedNumeric = true
	case 0x42:
		f.FCW.RightAdjustZeroFill = true
	case 0x50:
		f.FCW.MandatoryFill = true
	case 0x20:
		f.FCW.MandatoryEntry = true
	default:
		logging.Debug("tn5250: unrecognized FCW type %#04x, skipping", fcw)
	}
}

// decodeFieldAttribute maps a 5250 field attribute byte to the shared
// display.Attribute representation.
func decodeFieldAttribute(b byte) display.Attribute {
	attr := display.Attribute{}
	switch b & 0x20 {
	case 0x20:
		attr.Protected = true
	}
	if b&0x0C == 0x0C {
		attr.Intensity = display.IntensityNonDisplay
	} else if b&0x08 != 0 {
		attr.Intensity = display.IntensityIntensified
	}
	if b&0x01 != 0 {
		attr.Underline = true
	}
	if b&0x02 != 0 {
		attr.Reverse = true
	}
	return attr
}
