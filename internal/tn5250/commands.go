package tn5250

// ESC introduces every 5250 command (spec.md §4.3.1).
const ESC byte = 0x04

// Command codes (spec.md §4.3.2).
const (
	CmdClearUnit          byte = 0x40
	CmdClearUnitAlternate byte = 0x20
	CmdClearFormatTable   byte = 0x50
	CmdWriteToDisplay     byte = 0x11
	CmdWriteErrorCode     byte = 0x21
	CmdWriteErrorCodeWin  byte = 0x22
	CmdReadInputFields    byte = 0x42
	CmdReadMDTFields      byte = 0x52
	CmdReadMDTFieldsAlt   byte = 0x82
	CmdReadImmediate      byte = 0x72
	CmdReadImmediateAlt   byte = 0x83
	CmdReadScreenImm      byte = 0x62
	CmdSaveScreen         byte = 0x02
	CmdSavePartialScreen  byte = 0x03
	CmdRestoreScreen      byte = 0x12
	CmdRestorePartial     byte = 0x13
	CmdRoll               byte = 0x23
	CmdWriteStructured    byte = 0xF3
)

// Order bytes within a Write-To-Display data stream (spec.md §4.3.3).
const (
	OrderSOH byte = 0x01
	OrderRA  byte = 0x02
	OrderEA  byte = 0x03
	OrderSBA byte = 0x11
	OrderIC  byte = 0x13
	OrderSF  byte = 0x1D
)

// CC1 bits (spec.md §4.3.3).
const (
	CC1LockKeyboard  byte = 0x80
	CC1ResetMDTNon   byte = 0x40 // combined with 0x20 per the 0x60 mask below
	CC1ResetMDTAll   byte = 0x60
	CC1NullNonBypass byte = 0x80 // shares the high bit with lock; see applyCC1
)

// readOpcode records which Read-family command is armed, awaiting an AID.
type readOpcode int

const (
	readNone readOpcode = iota
	readInputFields
	readMDTFields
	readMDTFieldsAlt
	readImmediate
	readScreenImmediate
)

// eraseClass is the EA order's attr-count byte selecting which field
// classes to erase.
const (
	eraseAll         byte = 0x00
	eraseUnprotected byte = 0x01
	eraseProtected   byte = 0x02
)
