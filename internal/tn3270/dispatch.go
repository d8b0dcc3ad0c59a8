package tn3270

import "github.com/stlalpha/tn5250term/internal/engineerrors"

// 3270 command codes, the outermost byte of a host-to-terminal data
// stream (distinct from the WTD sub-commands 5250 frames under ESC).
const (
	CmdWrite               byte = 0xF1
	CmdEraseWrite          byte = 0xF5
	CmdEraseWriteAlternate byte = 0x7E
	CmdReadBuffer          byte = 0xF2
	CmdReadModified        byte = 0xF6
	CmdEraseAllUnprotected byte = 0x6F
	CmdWriteStructured     byte = 0xF3
)

// ProcessBytes dispatches one 3270 command from data, returning any bytes
// the processor wants sent back to the host. It gives the session
// coordinator the same narrow {process_bytes, query_reply} shape the
// 5250 processor exposes (spec.md §9), letting it hold either behind one
// interface without dialect-specific branching.
func (p *Processor) ProcessBytes(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	cmd := data[0]
	body := data[1:]

	switch cmd {
	case CmdWrite:
		return nil, p.HandleWrite(body, false)
	case CmdEraseWrite, CmdEraseWriteAlternate:
		return nil, p.HandleWrite(body, true)
	case CmdReadBuffer:
		p.ArmRead(false)
		return p.AIDReadResponse(AIDEnter), nil
	case CmdReadModified:
		p.ArmRead(true)
		return p.AIDReadResponse(AIDEnter), nil
	case CmdEraseAllUnprotected:
		p.eraseAllUnprotected()
		return nil, nil
	case CmdWriteStructured:
		return nil, engineerrors.New(engineerrors.KindProtocol, "3270 write structured field not supported")
	default:
		return nil, engineerrors.New(engineerrors.KindProtocol, "unknown 3270 command code")
	}
}

func (p *Processor) eraseAllUnprotected() {
	w, h := p.Buf.Dimensions()
	for _, f := range p.Fields.Fields() {
		if f.Attribute.Protected {
			continue
		}
		end := f.StartRow*w + f.StartCol + f.Length
		if f.Length == 0 {
			end = f.StartRow*w + f.StartCol + len(f.Mirror)
		}
		for a := f.StartRow*w + f.StartCol; a < end; a++ {
			r, c := a/w, a%w
			if r >= h {
				break
			}
			p.Buf.PutChar(r, c, ' ', f.Attribute)
		}
		for i := range f.Mirror {
			f.Mirror[i] = 0x00
		}
	}
}

// QueryReply returns nil: the 3270 processor in this engine does not
// generate a structured-field Query Reply (CmdWriteStructured dispatch
// above rejects it); devices that need one negotiate it at bind time via
// a fuller WSF parser not yet implemented here.
func (p *Processor) QueryReply() []byte {
	return nil
}
