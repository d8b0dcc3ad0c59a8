package tn3270

// Order bytes within a 3270 Write/Write-Structured-Field data stream
// (spec.md §4.4 #2). SBA, SF, and IC share their byte values with the
// 5250 order set; the remainder are 3270-specific.
const (
	OrderSBA byte = 0x11
	OrderSF  byte = 0x1D
	OrderSFE byte = 0x29
	OrderSA  byte = 0x28
	OrderRA  byte = 0x3C
	OrderEUA byte = 0x12
	OrderIC  byte = 0x13
	OrderPT  byte = 0x05
	OrderGE  byte = 0x08
	OrderMF  byte = 0x2C
)

// Write Control Character bits (subset relevant to this engine).
const (
	wccResetMDT    byte = 0x01
	wccKeyboardRst byte = 0x02
	wccSoundAlarm  byte = 0x04
	wccUnlock      byte = 0x08 // not consulted by applyWCC; keyboard unlock follows wccKeyboardRst
)

// extendedAttrType identifies an SA/SFE attribute-type byte, per the
// 3270 extended-attribute type codes (basic field attribute, extended
// highlighting, and color occupy distinct type bytes; they were previously
// aliased onto the same value here, which made highlighting silently
// indistinguishable from color in an SFE list).
const (
	attrTypeValue     byte = 0xC0 // basic 3270 field attribute (color-less)
	attrTypeHighlight byte = 0x41 // extended highlighting (blink/reverse/underline)
	attrTypeColor     byte = 0x42
)
