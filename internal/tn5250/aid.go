package tn5250

// AID is a 5250 Attention Identifier byte: the single byte that tells the
// host which key ended a read (spec.md §4.3.8).
type AID byte

// The fixed logical-key to AID-byte map. Every named key has exactly one
// AID; the UI surfaces 24 function keys plus these named keys.
const (
	AIDNone    AID = 0x00
	AIDEnter   AID = 0x7D
	AIDClear   AID = 0xBD
	AIDHelp    AID = 0xF3
	AIDPrint   AID = 0xF6
	AIDSysReq  AID = 0xF4
	AIDAttn    AID = 0x7C
	AIDRollUp  AID = 0xF7
	AIDRollDn  AID = 0xF8
	AIDRollLt  AID = 0xB5
	AIDRollRt  AID = 0xB6
	AIDFldExit AID = 0xB1
	AIDFldMark AID = 0xB2
	AIDDup     AID = 0xB3

	AIDPA1 AID = 0x6C
	AIDPA2 AID = 0x6E
	AIDPA3 AID = 0x6B
)

// pfAIDs maps PF1..PF24 to their AID bytes, following the 5250 PF key
// table order.
var pfAIDs = [24]AID{
	0x31, 0x32, 0x33, 0x34, 0x35, 0x36, // PF1-6
	0x37, 0x38, 0x39, 0x3A, 0x3B, 0x3C, // PF7-12
	0xB8, 0xB9, 0xBA, 0xBB, 0xBC, 0xBE, // PF13-18
	0xBF, 0xCB, 0xCA, 0xCC, 0xCD, 0xCE, // PF19-24
}

// PF returns the AID for PF1..PF24 (1-based). It returns AIDNone for n
// outside that range.
func PF(n int) AID {
	if n < 1 || n > 24 {
		return AIDNone
	}
	return pfAIDs[n-1]
}
