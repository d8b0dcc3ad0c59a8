package codec

import "testing"

func TestASCIIRoundTripOverPrintableDomain(t *testing.T) {
	for b := byte(0x20); b <= 0x7E; b++ {
		eb := ASCIIToEBCDIC(b)
		got := EBCDICToASCII(eb)
		if got != b {
			t.Errorf("round trip failed for %#02x: got %#02x via ebcdic %#02x", b, got, eb)
		}
	}
}

func TestKnownLetters(t *testing.T) {
	cases := []struct {
		ascii  byte
		ebcdic byte
	}{
		{'H', 0xC8},
		{'E', 0xC5},
		{'L', 0xD3},
		{'O', 0xD6},
		{' ', 0x40},
		{'A', 0xC1},
	}
	for _, c := range cases {
		if got := ASCIIToEBCDIC(c.ascii); got != c.ebcdic {
			t.Errorf("ASCIIToEBCDIC(%q) = %#02x, want %#02x", c.ascii, got, c.ebcdic)
		}
		if got := EBCDICToASCII(c.ebcdic); got != c.ascii {
			t.Errorf("EBCDICToASCII(%#02x) = %q, want %q", c.ebcdic, got, c.ascii)
		}
	}
}

func TestOutOfDomainSafeDefaults(t *testing.T) {
	if got := ASCIIToEBCDIC(0x01); got != 0x40 {
		t.Errorf("ASCIIToEBCDIC(control) = %#02x, want 0x40", got)
	}
	if got := EBCDICToASCII(0x00); got != ' ' {
		t.Errorf("EBCDICToASCII(nul) = %q, want ' '", got)
	}
}

func TestDecodeEncodeBytes(t *testing.T) {
	ebcdic := []byte{0xC8, 0xC5, 0xD3, 0xD3, 0xD6} // "HELLO"
	ascii := DecodeBytes(ebcdic)
	if string(ascii) != "HELLO" {
		t.Errorf("DecodeBytes = %q, want HELLO", ascii)
	}
	back := EncodeBytes(ascii)
	for i := range back {
		if back[i] != ebcdic[i] {
			t.Errorf("EncodeBytes[%d] = %#02x, want %#02x", i, back[i], ebcdic[i])
		}
	}
}

func TestRuneHelpers(t *testing.T) {
	if DecodeRune(0xC1) != 'A' {
		t.Errorf("DecodeRune(0xC1) != 'A'")
	}
	if EncodeRune('A') != 0xC1 {
		t.Errorf("EncodeRune('A') != 0xC1")
	}
	if EncodeRune(rune(0x2603)) != 0x40 {
		t.Errorf("EncodeRune(snowman) should default to EBCDIC space")
	}
}
