package simpleencodings

import "testing"

func TestASCIIPassthrough(t *testing.T) {
	tables := map[string]*Encoding{
		"WinAnsi":   WinAnsi,
		"MacRoman":  MacRoman,
		"Standard":  Standard,
		"PDFDoc":    PDFDoc,
		"MacExpert": MacExpert,
	}
	for name, enc := range tables {
		got := enc.Decode([]byte("Hello, World!"))
		if got != "Hello, World!" {
			t.Errorf("%s: ASCII passthrough got %q", name, got)
		}
	}
}

func TestWinAnsiHighBytes(t *testing.T) {
	cases := map[byte]rune{
		0x80: 0x20AC, // Euro
		0x93: 0x201C, // left double quote
		0xE9: 0x00E9, // eacute (Latin-1 identity)
	}
	for b, want := range cases {
		got := WinAnsi.Runes[b]
		if got != want {
			t.Errorf("WinAnsi[0x%02X] = %U, want %U", b, got, want)
		}
	}
}

func TestMacRomanHighBytes(t *testing.T) {
	if MacRoman.Runes[0x80] != 0x00C4 {
		t.Errorf("MacRoman[0x80] = %U, want Adieresis", MacRoman.Runes[0x80])
	}
	if MacRoman.Runes[0xAA] != 0x2122 {
		t.Errorf("MacRoman[0xAA] = %U, want trademark", MacRoman.Runes[0xAA])
	}
}

func TestStandardQuotes(t *testing.T) {
	if Standard.Runes[0x27] != 0x2019 {
		t.Errorf("Standard[0x27] = %U, want quoteright", Standard.Runes[0x27])
	}
	if Standard.Runes[0x60] != 0x2018 {
		t.Errorf("Standard[0x60] = %U, want quoteleft", Standard.Runes[0x60])
	}
}

func TestPDFDocSharesWinAnsiUpperRange(t *testing.T) {
	if PDFDoc.Runes[0xE9] != WinAnsi.Runes[0xE9] {
		t.Errorf("PDFDoc[0xE9] = %U, want same as WinAnsi", PDFDoc.Runes[0xE9])
	}
	if PDFDoc.Runes[0x18] != 0x02D8 {
		t.Errorf("PDFDoc[0x18] = %U, want breve", PDFDoc.Runes[0x18])
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := "Plain ASCII text"
	encoded, ok := WinAnsi.Encode(s)
	if !ok {
		t.Fatalf("WinAnsi.Encode(%q) failed", s)
	}
	if got := WinAnsi.Decode(encoded); got != s {
		t.Errorf("round trip got %q, want %q", got, s)
	}
}

func TestEncodeRejectsUnmappedRune(t *testing.T) {
	if _, ok := Standard.Encode("中"); ok {
		t.Errorf("Standard.Encode should reject a CJK rune it cannot represent")
	}
}
