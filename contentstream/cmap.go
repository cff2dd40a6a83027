package contentstream

import (
	"fmt"
	"unicode/utf16"

	"github.com/pdfgraph/pdfgraph/model"
	"github.com/pdfgraph/pdfgraph/parser"
	"github.com/pdfgraph/pdfgraph/tokenizer"
)

// ToUnicodeCMap maps character codes from a font's encoded text strings to
// Unicode text (spec.md §4.2's ToUnicode sub-grammar). Grounded on
// original_source/src/cmap_parser.rs's begincodespacerange/beginbfchar/
// beginbfrange grammar, reusing this package's own token-level Parser
// instead of a bespoke combinator grammar: the CMap's token alphabet (hex
// strings, integers, names, arrays, barewords) is exactly what
// tokenizer.Tokenizer already lexes, so the "restricted PostScript dialect"
// spec.md describes needs only a small keyword-driven state machine on top.
type ToUnicodeCMap struct {
	// CodespaceByteLen is the fixed code length, in bytes, inferred from the
	// first begincodespacerange entry. Defaults to 2 (the common composite-
	// font case) if the CMap never declares one.
	CodespaceByteLen int

	chars  map[uint32]string
	ranges []bfRange
}

type bfRange struct {
	lo, hi uint32
	base   []byte // UTF-16BE bytes for code lo; code>lo increments this as a big-endian integer
}

// ParseToUnicodeCMap parses a ToUnicode CMap stream's decompressed content.
func ParseToUnicodeCMap(data []byte) (*ToUnicodeCMap, error) {
	p := parser.New(data)
	p.ContentStreamMode = true

	cm := &ToUnicodeCMap{chars: map[uint32]string{}}

	for {
		tk, err := p.PeekRaw()
		if err != nil {
			return nil, err
		}
		if tk.Kind == tokenizer.EOF {
			break
		}
		if tk.Kind == tokenizer.Keyword {
			switch tk.Value {
			case "begincodespacerange":
				p.NextRaw()
				if err := parseCodespaceRange(p, cm); err != nil {
					return nil, err
				}
				continue
			case "beginbfchar":
				p.NextRaw()
				if err := parseBfChar(p, cm); err != nil {
					return nil, err
				}
				continue
			case "beginbfrange":
				p.NextRaw()
				if err := parseBfRange(p, cm); err != nil {
					return nil, err
				}
				continue
			}
		}
		// Everything else (dict defs, CIDSystemInfo, section counts,
		// findresource/begin/end/def boilerplate) is irrelevant to text
		// extraction; skip one object at a time.
		if _, err := p.ParseObject(); err != nil {
			return nil, err
		}
	}
	if cm.CodespaceByteLen == 0 {
		cm.CodespaceByteLen = 2
	}
	return cm, nil
}

func parseCodespaceRange(p *parser.Parser, cm *ToUnicodeCMap) error {
	for {
		tk, err := p.PeekRaw()
		if err != nil {
			return err
		}
		if tk.Kind == tokenizer.Keyword && tk.Value == "endcodespacerange" {
			p.NextRaw()
			return nil
		}
		loObj, err := p.ParseObject()
		if err != nil {
			return err
		}
		lo, ok := loObj.(model.String)
		if !ok {
			return fmt.Errorf("contentstream: expected hex code in codespacerange, got %T", loObj)
		}
		if cm.CodespaceByteLen == 0 {
			cm.CodespaceByteLen = len(lo.Bytes)
		}
		if _, err := p.ParseObject(); err != nil { // high end of the pair, unused
			return err
		}
	}
}

func parseBfChar(p *parser.Parser, cm *ToUnicodeCMap) error {
	for {
		tk, err := p.PeekRaw()
		if err != nil {
			return err
		}
		if tk.Kind == tokenizer.Keyword && tk.Value == "endbfchar" {
			p.NextRaw()
			return nil
		}
		srcObj, err := p.ParseObject()
		if err != nil {
			return err
		}
		src, ok := srcObj.(model.String)
		if !ok {
			return fmt.Errorf("contentstream: expected hex source code in bfchar, got %T", srcObj)
		}
		tgtObj, err := p.ParseObject()
		if err != nil {
			return err
		}
		tgt, ok := tgtObj.(model.String)
		if !ok {
			return fmt.Errorf("contentstream: expected hex target string in bfchar, got %T", tgtObj)
		}
		cm.chars[bytesToCode(src.Bytes)] = decodeUTF16BETarget(tgt.Bytes)
	}
}

func parseBfRange(p *parser.Parser, cm *ToUnicodeCMap) error {
	for {
		tk, err := p.PeekRaw()
		if err != nil {
			return err
		}
		if tk.Kind == tokenizer.Keyword && tk.Value == "endbfrange" {
			p.NextRaw()
			return nil
		}
		loObj, err := p.ParseObject()
		if err != nil {
			return err
		}
		lo, ok := loObj.(model.String)
		if !ok {
			return fmt.Errorf("contentstream: expected hex lo code in bfrange, got %T", loObj)
		}
		hiObj, err := p.ParseObject()
		if err != nil {
			return err
		}
		hi, ok := hiObj.(model.String)
		if !ok {
			return fmt.Errorf("contentstream: expected hex hi code in bfrange, got %T", hiObj)
		}
		loCode, hiCode := bytesToCode(lo.Bytes), bytesToCode(hi.Bytes)

		peek, err := p.PeekRaw()
		if err != nil {
			return err
		}
		if peek.Kind == tokenizer.ArrayStart {
			arrObj, err := p.ParseObject()
			if err != nil {
				return err
			}
			arr, ok := arrObj.(model.Array)
			if !ok {
				return fmt.Errorf("contentstream: expected array of target strings in bfrange")
			}
			for i, el := range arr {
				code := loCode + uint32(i)
				if code > hiCode {
					break
				}
				s, ok := el.(model.String)
				if !ok {
					return fmt.Errorf("contentstream: expected hex target string in bfrange array, got %T", el)
				}
				cm.chars[code] = decodeUTF16BETarget(s.Bytes)
			}
			continue
		}

		tgtObj, err := p.ParseObject()
		if err != nil {
			return err
		}
		tgt, ok := tgtObj.(model.String)
		if !ok {
			return fmt.Errorf("contentstream: expected hex target string in bfrange, got %T", tgtObj)
		}
		cm.ranges = append(cm.ranges, bfRange{lo: loCode, hi: hiCode, base: tgt.Bytes})
	}
}

// Lookup returns the Unicode text a character code maps to, checking single
// bfchar mappings before range mappings.
func (cm *ToUnicodeCMap) Lookup(code uint32) (string, bool) {
	if s, ok := cm.chars[code]; ok {
		return s, true
	}
	for _, r := range cm.ranges {
		if code >= r.lo && code <= r.hi {
			return decodeUTF16BETarget(incrementUTF16Target(r.base, code-r.lo)), true
		}
	}
	return "", false
}

// Decode splits data into CodespaceByteLen-wide codes and maps each through
// Lookup, skipping codes with no mapping.
func (cm *ToUnicodeCMap) Decode(data []byte) string {
	n := cm.CodespaceByteLen
	if n <= 0 {
		n = 2
	}
	var out []byte
	for i := 0; i+n <= len(data); i += n {
		if s, ok := cm.Lookup(bytesToCode(data[i : i+n])); ok {
			out = append(out, s...)
		}
	}
	return string(out)
}

func bytesToCode(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

// incrementUTF16Target treats base as a big-endian integer and adds offset,
// carrying across all bytes: covers both the common case (only the low
// UTF-16 unit increments) and a range wide enough to roll over into a
// surrogate pair.
func incrementUTF16Target(base []byte, offset uint32) []byte {
	out := append([]byte(nil), base...)
	carry := offset
	for i := len(out) - 1; i >= 0 && carry > 0; i-- {
		sum := uint32(out[i]) + carry
		out[i] = byte(sum & 0xFF)
		carry = sum >> 8
	}
	return out
}

func decodeUTF16BETarget(b []byte) string {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
	}
	return string(utf16.Decode(units))
}
