package filter

import (
	"io"

	"github.com/hhrutter/lzw"
)

// hhrutterLZWReader wraps github.com/hhrutter/lzw.NewReader, the same call
// the teacher makes in parser/filters/lzwDecode.go, giving LZWDecode's
// EarlyChange parameter (ISO 32000-1 Table 8) a real implementation instead
// of compress/lzw's incompatible GIF variant.
func hhrutterLZWReader(r io.Reader, earlyChange bool) ReadCloser {
	return lzw.NewReader(r, earlyChange)
}
