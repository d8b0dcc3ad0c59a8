package tn5250

import (
	"strings"

	"github.com/stlalpha/tn5250term/internal/engineerrors"
)

// DSNR (Data Stream Negative Response) codes, reproduced verbatim from
// the 5250 data stream reference (spec.md §7: "The DSNR byte values are
// fixed by the 5250 spec and reproduced verbatim").
const (
	DSNRReseqErr   byte = 0x03
	DSNRInvCursPos byte = 0x22
	DSNRRAB4WSA    byte = 0x23
	DSNRInvSFA     byte = 0x26
	DSNRFldEOD     byte = 0x28
	DSNRFmtOvf     byte = 0x29
	DSNRWrtEOD     byte = 0x2A
	DSNRSOHLen     byte = 0x2B
	DSNRRollParm   byte = 0x2C
	DSNRNoEsc      byte = 0x31
	DSNRInvWECW    byte = 0x32
	DSNRUnknown    byte = 0xFF
)

// classifyDSNR maps a recoverable stream error to the DSNR code that best
// identifies its class. Errors that don't fit a known class fall back to
// DSNRUnknown.
func classifyDSNR(err error) byte {
	if engineerrors.KindOf(err) != engineerrors.KindProtocol {
		return DSNRUnknown
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "resequenc"):
		return DSNRReseqErr
	case strings.Contains(msg, "truncated SBA"), strings.Contains(msg, "truncated IC"):
		return DSNRInvCursPos
	case strings.Contains(msg, "truncated RA"):
		return DSNRRAB4WSA
	case strings.Contains(msg, "field attribute"), strings.Contains(msg, "truncated SF"), strings.Contains(msg, "truncated FFW"):
		return DSNRInvSFA
	case strings.Contains(msg, "field length"):
		return DSNRFldEOD
	case strings.Contains(msg, "Save Partial Screen"), strings.Contains(msg, "EA class list"):
		return DSNRFmtOvf
	case strings.Contains(msg, "missing control characters"), strings.Contains(msg, "truncated EA"):
		return DSNRWrtEOD
	case strings.Contains(msg, "malformed SOH"), strings.Contains(msg, "truncated SOH"):
		return DSNRSOHLen
	case strings.Contains(msg, "truncated Roll"):
		return DSNRRollParm
	case strings.Contains(msg, "truncated command after ESC"):
		return DSNRNoEsc
	default:
		return DSNRUnknown
	}
}

// buildDSNR frames a Data Stream Negative Response as a Write Error Code
// command (spec.md §4.3.2, code 0x21): ESC, command code, a sequence byte,
// a big-endian length, then the DSNR code itself. The packet is self
// contained and can be written to the host alongside (or instead of)
// surfacing the error to the UI.
func buildDSNR(code byte, seq byte) []byte {
	out := []byte{ESC, CmdWriteErrorCode, seq, 0x00, 0x00, code}
	total := len(out) - 5 // bytes following the length field: the code byte
	out[3] = byte(total >> 8)
	out[4] = byte(total & 0xFF)
	return out
}

// DSNRFor builds the Data Stream Negative Response packet for a recoverable
// stream error detected while processing host data, classifying it per
// spec.md §7. seq is the processor's wrapping sequence counter.
func DSNRFor(err error, seq byte) []byte {
	return buildDSNR(classifyDSNR(err), seq)
}
