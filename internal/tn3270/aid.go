package tn3270

// AID is a 3270 Attention Identifier byte. The set has the same logical
// intent as the 5250 table but different byte values (spec.md §4.4 #3).
type AID byte

const (
	AIDNone   AID = 0x60
	AIDEnter  AID = 0x7D
	AIDClear  AID = 0x6D
	AIDPA1    AID = 0x6C
	AIDPA2    AID = 0x6E
	AIDPA3    AID = 0x6B
	AIDSysReq AID = 0xF0
	AIDAttn   AID = 0x6A
)

// pfAIDs maps PF1..PF24 to their 3270 AID bytes.
var pfAIDs = [24]AID{
	0xF1, 0xF2, 0xF3, 0xF4, 0xF5, 0xF6, // PF1-6
	0xF7, 0xF8, 0xF9, 0x7A, 0x7B, 0x7C, // PF7-12
	0xC1, 0xC2, 0xC3, 0xC4, 0xC5, 0xC6, // PF13-18
	0xC7, 0xC8, 0xC9, 0x4A, 0x4B, 0x4C, // PF19-24
}

// PF returns the AID for PF1..PF24 (1-based). It returns AIDNone for n
// outside that range.
func PF(n int) AID {
	if n < 1 || n > 24 {
		return AIDNone
	}
	return pfAIDs[n-1]
}
