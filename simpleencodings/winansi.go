package simpleencodings

// WinAnsi is PDF's WinAnsiEncoding (ISO 32000-1 Annex D.2), Windows
// code page 1252 for bytes 0x80-0x9F and Latin-1 for 0xA0-0xFF.
var WinAnsi = buildWinAnsi()

func buildWinAnsi() *Encoding {
	t := asciiTable()
	hi := map[byte]rune{
		0x80: 0x20AC, 0x82: 0x201A, 0x83: 0x0192, 0x84: 0x201E,
		0x85: 0x2026, 0x86: 0x2020, 0x87: 0x2021, 0x88: 0x02C6,
		0x89: 0x2030, 0x8A: 0x0160, 0x8B: 0x2039, 0x8C: 0x0152,
		0x8E: 0x017D, 0x91: 0x2018, 0x92: 0x2019, 0x93: 0x201C,
		0x94: 0x201D, 0x95: 0x2022, 0x96: 0x2013, 0x97: 0x2014,
		0x98: 0x02DC, 0x99: 0x2122, 0x9A: 0x0161, 0x9B: 0x203A,
		0x9C: 0x0153, 0x9E: 0x017E, 0x9F: 0x0178,
	}
	for b, r := range hi {
		t[b] = r
	}
	// 0xA0-0xFF matches Latin-1 directly, except the slots already set above.
	for b := rune(0xA0); b <= 0xFF; b++ {
		if t[b] == 0 {
			t[b] = b
		}
	}
	return &Encoding{Runes: t}
}
