// Package codec provides the stateless EBCDIC/ASCII translation tables
// used everywhere the 5250/3270 byte stream carries character data. The
// baseline is CP037 (US/Canada EBCDIC), built on golang.org/x/text's
// charmap package.
package codec

import (
	"golang.org/x/text/encoding/charmap"
)

// asciiSpace and ebcdicSpace are the safe defaults spec.md §4.1 requires
// for bytes outside the printable domain.
const (
	asciiSpace  byte = 0x20
	ebcdicSpace byte = 0x40
)

var (
	ebcdicToASCIITable [256]byte
	asciiToEBCDICTable [256]byte
)

func init() {
	dec := charmap.CodePage037.NewDecoder()
	enc := charmap.CodePage037.NewEncoder()

	for i := 0; i < 256; i++ {
		out, err := dec.Bytes([]byte{byte(i)})
		if err != nil || len(out) == 0 || !isPrintableASCII(out[0]) {
			ebcdicToASCIITable[i] = asciiSpace
			continue
		}
		ebcdicToASCIITable[i] = out[0]
	}

	for i := 0; i < 256; i++ {
		ab := byte(i)
		if !isPrintableASCII(ab) {
			asciiToEBCDICTable[i] = ebcdicSpace
			continue
		}
		out, err := enc.Bytes([]byte{ab})
		if err != nil || len(out) == 0 {
			asciiToEBCDICTable[i] = ebcdicSpace
			continue
		}
		asciiToEBCDICTable[i] = out[0]
	}

	// The tables must agree with each other over the printable ASCII
	// subset: ascii -> ebcdic -> ascii is the identity (spec.md §8 #1).
	for i := asciiSpace; i <= 0x7E; i++ {
		eb := asciiToEBCDICTable[i]
		if ebcdicToASCIITable[eb] != i {
			ebcdicToASCIITable[eb] = i
		}
	}
}

func isPrintableASCII(b byte) bool {
	return b >= 0x20 && b <= 0x7E
}

// EBCDICToASCII decodes a single EBCDIC byte to its ASCII rune equivalent.
// It is a total function: bytes outside the printable domain decode to ' '.
func EBCDICToASCII(b byte) byte {
	return ebcdicToASCIITable[b]
}

// ASCIIToEBCDIC encodes a single ASCII byte to its EBCDIC equivalent. It is
// a total function: bytes outside the printable domain encode to 0x40
// (EBCDIC space).
func ASCIIToEBCDIC(b byte) byte {
	return asciiToEBCDICTable[b]
}

// DecodeBytes translates a slice of EBCDIC bytes to ASCII in place of a new slice.
func DecodeBytes(src []byte) []byte {
	out := make([]byte, len(src))
	for i, b := range src {
		out[i] = EBCDICToASCII(b)
	}
	return out
}

// EncodeBytes translates a slice of ASCII bytes to EBCDIC in a new slice.
func EncodeBytes(src []byte) []byte {
	out := make([]byte, len(src))
	for i, b := range src {
		out[i] = ASCIIToEBCDIC(b)
	}
	return out
}

// DecodeRune translates a single EBCDIC byte to the Unicode scalar value
// displayed in a Cell (spec.md §3). Non-printable bytes become ' '.
func DecodeRune(b byte) rune {
	return rune(EBCDICToASCII(b))
}

// EncodeRune translates a Unicode scalar back to EBCDIC. Runes outside the
// printable ASCII range encode to EBCDIC space.
func EncodeRune(r rune) byte {
	if r < 0 || r > 0x7E {
		return ebcdicSpace
	}
	return ASCIIToEBCDIC(byte(r))
}
