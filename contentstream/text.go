package contentstream

import (
	"github.com/pdfgraph/pdfgraph/simpleencodings"
)

// FallbackEncoding looks up the single-byte encoding table named by a font's
// /Encoding entry, for text extraction when no ToUnicode CMap is present
// (spec.md §4.5). ok is false for an unrecognized name, or for the
// UTF16BE-only pseudo-encodings (Identity-H/UCS2-H), which DecodeText
// handles directly rather than through a table.
func FallbackEncoding(name string) (enc *simpleencodings.Encoding, ok bool) {
	switch name {
	case "WinAnsiEncoding":
		return simpleencodings.WinAnsi, true
	case "MacRomanEncoding":
		return simpleencodings.MacRoman, true
	case "MacExpertEncoding":
		return simpleencodings.MacExpert, true
	case "StandardEncoding":
		return simpleencodings.Standard, true
	case "PDFDocEncoding":
		return simpleencodings.PDFDoc, true
	default:
		return nil, false
	}
}

// isUTF16Encoding reports whether name is one of the composite-font
// encodings whose codes are already 2-byte UTF-16BE-ish code points
// (Identity-H/Identity-V using a CID-keyed CMap, or UCS2-H/UCS2-V).
func isUTF16Encoding(name string) bool {
	switch name {
	case "Identity-H", "Identity-V", "UCS2-H", "UCS2-V":
		return true
	default:
		return false
	}
}

// DecodeText extracts Unicode text from a string shown by a Tj/TJ operator.
// It prefers cmap (a font's ToUnicode CMap) when non-nil; otherwise it
// falls back to the single-byte table named by encodingName, or treats the
// bytes as UTF-16BE for the Identity-H/UCS2-H family.
func DecodeText(data []byte, cmap *ToUnicodeCMap, encodingName string) string {
	if cmap != nil {
		return cmap.Decode(data)
	}
	if isUTF16Encoding(encodingName) {
		return decodeUTF16BETarget(data)
	}
	if enc, ok := FallbackEncoding(encodingName); ok {
		return enc.Decode(data)
	}
	// No /Encoding recognized: ISO 32000-1 §9.6.6.2 default for a simple
	// font with no Encoding entry is the font's built-in encoding, which
	// this library has no access to; fall back to StandardEncoding.
	return simpleencodings.Standard.Decode(data)
}
