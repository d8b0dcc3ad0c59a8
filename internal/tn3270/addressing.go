// Package tn3270 implements the 3270 protocol processor: buffer address
// encoding, the WTD order set, structured-field-free field creation, and
// Read-Buffer/Read-Modified responses (spec.md §4.4). It shares its
// display buffer, field table, and EBCDIC codec with the 5250 processor;
// only address encoding and the order vocabulary differ.
package tn3270

// addressCodes is the fixed 3270 buffer-address I/O code table: each 6-bit
// address component (0-63) maps through this table to the actual wire
// byte, keeping the byte out of the EBCDIC control range. Reproduced
// verbatim from the normative table cited in spec.md §4.4/§8 scenario E
// (other_examples/a26992a6_racingmars-go3270__screen.go.go's `codes[]`,
// sourced from http://www.tommysprinkle.com/mvs/P3270/iocodes.htm). Every
// entry's low 6 bits equal its own index, which is why a plain `&0x3F`
// mask decodes any of them without a reverse lookup.
var addressCodes = [64]byte{
	0x40, 0xc1, 0xc2, 0xc3, 0xc4, 0xc5, 0xc6, 0xc7, 0xc8,
	0xc9, 0x4a, 0x4b, 0x4c, 0x4d, 0x4e, 0x4f, 0x50, 0xd1, 0xd2, 0xd3, 0xd4,
	0xd5, 0xd6, 0xd7, 0xd8, 0xd9, 0x5a, 0x5b, 0x5c, 0x5d, 0x5e, 0x5f, 0x60,
	0x61, 0xe2, 0xe3, 0xe4, 0xe5, 0xe6, 0xe7, 0xe8, 0xe9, 0x6a, 0x6b, 0x6c,
	0x6d, 0x6e, 0x6f, 0xf0, 0xf1, 0xf2, 0xf3, 0xf4, 0xf5, 0xf6, 0xf7, 0xf8,
	0xf9, 0x7a, 0x7b, 0x7c, 0x7d, 0x7e, 0x7f,
}

// EncodeAddress12 packs a buffer address under 4096 into the 3270 12-bit
// addressing scheme: each 6-bit half of the address is mapped through
// addressCodes to produce the wire byte (spec.md §4.4 #1).
func EncodeAddress12(addr uint16) (byte, byte) {
	addr &= 0x0FFF
	b1 := addressCodes[(addr>>6)&0x3F]
	b2 := addressCodes[addr&0x3F]
	return b1, b2
}

// DecodeAddress12 is the inverse of EncodeAddress12. Every addressCodes
// entry's low 6 bits equal its own index, so masking recovers the address
// component without a reverse lookup.
func DecodeAddress12(b1, b2 byte) uint16 {
	return (uint16(b1&0x3F) << 6) | uint16(b2&0x3F)
}

// EncodeAddress14 packs a buffer address under 16384 into the 3270 14-bit
// addressing scheme: 7 bits per byte, no marker bits.
func EncodeAddress14(addr uint16) (byte, byte) {
	addr &= 0x3FFF
	b1 := byte((addr >> 7) & 0x7F)
	b2 := byte(addr & 0x7F)
	return b1, b2
}

// DecodeAddress14 is the inverse of EncodeAddress14.
func DecodeAddress14(b1, b2 byte) uint16 {
	return (uint16(b1&0x7F) << 7) | uint16(b2&0x7F)
}

// EncodeAddress picks 12-bit or 14-bit packing based on the negotiated mode.
func EncodeAddress(addr uint16, use14Bit bool) (byte, byte) {
	if use14Bit {
		return EncodeAddress14(addr)
	}
	return EncodeAddress12(addr)
}

// DecodeAddress is the inverse of EncodeAddress.
func DecodeAddress(b1, b2 byte, use14Bit bool) uint16 {
	if use14Bit {
		return DecodeAddress14(b1, b2)
	}
	return DecodeAddress12(b1, b2)
}
