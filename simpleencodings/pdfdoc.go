package simpleencodings

// PDFDoc is PDFDocEncoding (ISO 32000-1 Annex D.4), used for text strings
// outside content streams (Info dictionary entries, outline titles) that
// aren't UTF-16BE. It shares WinAnsi's upper range, but reserves 0x18-0x1F
// for diacritic glyphs with no ASCII equivalent.
var PDFDoc = buildPDFDoc()

func buildPDFDoc() *Encoding {
	t := *WinAnsi
	lo := map[byte]rune{
		0x18: 0x02D8, 0x19: 0x02C7, 0x1A: 0x02C6, 0x1B: 0x02D9,
		0x1C: 0x02DD, 0x1D: 0x02DB, 0x1E: 0x02DA, 0x1F: 0x02DC,
	}
	for b, r := range lo {
		t.Runes[b] = r
	}
	return &t
}
