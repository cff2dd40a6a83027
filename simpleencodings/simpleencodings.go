// Package simpleencodings maps the single-byte encodings named in
// spec.md §4.5 (WinAnsi, MacRoman, MacExpert, Standard, PDFDoc) to Unicode
// runes, for use as the fallback text-extraction mapping when a font
// carries no ToUnicode CMap, and for text strings that can be represented
// without the UTF-16BE escape hatch.
//
// Adapted from the teacher's fonts/simpleencodings package: the same
// byte-to-rune table shape (there Names+Runes, keyed by glyph name; here
// Runes only, since this library never needs the glyph name, only the
// Unicode text it maps to), grounded on ISO 32000-1 Annex D.
package simpleencodings

// Encoding maps each of the 256 possible byte values to a Unicode rune; 0
// means "unmapped" (the byte has no glyph in this encoding).
type Encoding struct {
	Runes [256]rune
}

// Decode returns the Unicode text for data under this encoding, skipping
// unmapped bytes.
func (e *Encoding) Decode(data []byte) string {
	out := make([]rune, 0, len(data))
	for _, b := range data {
		if r := e.Runes[b]; r != 0 {
			out = append(out, r)
		}
	}
	return string(out)
}

// reverse lazily built rune->byte maps, used by Encode.
var reverseCache = map[*Encoding]map[rune]byte{}

func (e *Encoding) reverse() map[rune]byte {
	if m, ok := reverseCache[e]; ok {
		return m
	}
	m := make(map[rune]byte, 256)
	for b, r := range e.Runes {
		if r != 0 {
			if _, exists := m[r]; !exists {
				m[r] = byte(b)
			}
		}
	}
	reverseCache[e] = m
	return m
}

// Encode attempts to render s entirely in this encoding, returning false if
// any rune of s has no byte representation here.
func (e *Encoding) Encode(s string) ([]byte, bool) {
	rev := e.reverse()
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := rev[r]
		if !ok {
			return nil, false
		}
		out = append(out, b)
	}
	return out, true
}

func asciiTable() [256]rune {
	var t [256]rune
	for b := rune(0x20); b <= 0x7E; b++ {
		t[b] = b
	}
	return t
}
