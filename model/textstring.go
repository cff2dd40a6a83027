package model

import (
	"golang.org/x/text/encoding/unicode"

	"github.com/pdfgraph/pdfgraph/simpleencodings"
)

// utf16Enc encodes text strings as UTF-16BE with a leading byte-order mark,
// the PDF text-string escape hatch for characters PDFDocEncoding can't
// represent (ISO 32000-1 §7.9.2.2). Grounded on the teacher's model/write.go,
// which builds the identical encoder for the same purpose.
var utf16Enc = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)

// NewTextString builds a PDF text string from UTF-8 text s, preferring the
// more compact PDFDocEncoding and falling back to UTF-16BE only when s has a
// character PDFDocEncoding cannot represent.
func NewTextString(s string) (String, error) {
	if b, ok := simpleencodings.PDFDoc.Encode(s); ok {
		return String{Bytes: b, Format: Literal}, nil
	}
	b, err := utf16Enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return String{}, err
	}
	return String{Bytes: b, Format: Literal}, nil
}

// TextStringValue decodes a PDF text string back to UTF-8: UTF-16BE when a
// byte-order mark is present, else PDFDocEncoding.
func TextStringValue(s String) (string, error) {
	if len(s.Bytes) >= 2 && s.Bytes[0] == 0xFE && s.Bytes[1] == 0xFF {
		out, err := utf16Enc.NewDecoder().Bytes(s.Bytes)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	return simpleencodings.PDFDoc.Decode(s.Bytes), nil
}
