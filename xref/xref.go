// Package xref implements spec.md §4.3: locating and parsing a PDF's
// cross-reference information, both the classic table form and the modern
// xref-stream form. It knows nothing about object materialization or
// decryption — that is the reader package's job; this package only turns
// bytes into a model.Xref plus the trailer dictionary each section carries.
//
// Grounded on the teacher's reader/file/read.go
// (offsetLastXRefSection/parseXRefTableSubSection/parseXRefTableEntry) and
// xreftable.go (parseXRefStreamDict/extractXRefTableEntriesFromXRefStream),
// generalized onto this library's tokenizer/parser/model packages instead
// of the teacher's own.
package xref

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pdfgraph/pdfgraph/model"
	"github.com/pdfgraph/pdfgraph/parser"
	"github.com/pdfgraph/pdfgraph/tokenizer"
)

// searchWindow bounds how far from the end of the file FindStartXref looks
// for "%%EOF", per spec.md §4.3 step 1.
const searchWindow = 1024

// FindStartXref locates the startxref offset: the byte position of either a
// classic xref section or an xref-stream object.
func FindStartXref(data []byte) (int64, error) {
	start := len(data) - searchWindow
	if start < 0 {
		start = 0
	}
	tail := data[start:]

	eof := bytes.LastIndex(tail, []byte("%%EOF"))
	if eof == -1 {
		return 0, model.NewDetailedError(model.XrefError, "NoEOFMarker", nil)
	}
	head := tail[:eof]

	sx := bytes.LastIndex(head, []byte("startxref"))
	if sx == -1 {
		return 0, model.NewDetailedError(model.XrefError, "NoStartxrefKeyword", nil)
	}

	numPart := bytes.TrimSpace(head[sx+len("startxref"):])
	offset, err := strconv.ParseInt(string(numPart), 10, 64)
	if err != nil || offset < 0 || offset >= int64(len(data)) {
		return 0, model.NewDetailedError(model.XrefError, "CorruptStartxref", err)
	}
	return offset, nil
}

// Section is one parsed cross-reference section: its entries plus the
// trailer-equivalent dictionary (the `trailer` dict for a classic section,
// or the stream dictionary itself for an xref stream).
type Section struct {
	Xref    *model.Xref
	Trailer *model.Dictionary
}

// ParseClassicSection parses a classic "xref ... trailer <<...>>" section.
// p must be positioned immediately after the "xref" keyword has already
// been consumed by the caller (the reader, which is the one disambiguating
// between a classic section and an xref-stream object at a given offset).
func ParseClassicSection(p *parser.Parser) (Section, error) {
	xr := model.NewXref()

	for {
		tk, err := p.PeekRaw()
		if err != nil {
			return Section{}, err
		}
		if tk.Kind == tokenizer.Keyword && tk.Value == "trailer" {
			p.NextRaw()
			break
		}
		if tk.Kind != tokenizer.Integer {
			return Section{}, model.NewDetailedError(model.XrefError, "MalformedSubsection", nil)
		}
		if err := parseSubsection(p, xr); err != nil {
			return Section{}, err
		}
	}

	trailerObj, err := p.ParseObject()
	if err != nil {
		return Section{}, model.NewDetailedError(model.TrailerError, "ParseFailure", err)
	}
	trailer, ok := trailerObj.(*model.Dictionary)
	if !ok {
		return Section{}, model.NewDetailedError(model.TrailerError, "NotADictionary", nil)
	}

	return Section{Xref: xr, Trailer: trailer}, nil
}

func parseSubsection(p *parser.Parser, xr *model.Xref) error {
	startTok, err := p.NextRaw()
	if err != nil || startTok.Kind != tokenizer.Integer {
		return model.NewDetailedError(model.XrefError, "InvalidSubsectionStart", err)
	}
	start, _ := startTok.Int()

	countTok, err := p.NextRaw()
	if err != nil || countTok.Kind != tokenizer.Integer {
		return model.NewDetailedError(model.XrefError, "InvalidSubsectionCount", err)
	}
	count, _ := countTok.Int()

	for i := int64(0); i < count; i++ {
		if err := parseEntry(p, xr, uint32(start+i)); err != nil {
			return err
		}
	}
	return nil
}

func parseEntry(p *parser.Parser, xr *model.Xref, objNum uint32) error {
	offsetTok, err := p.NextRaw()
	if err != nil {
		return err
	}
	offset, err := strconv.ParseInt(offsetTok.Value, 10, 64)
	if err != nil {
		return model.NewDetailedError(model.XrefError, "InvalidOffset", err)
	}

	genTok, err := p.NextRaw()
	if err != nil {
		return err
	}
	gen, err := genTok.Int()
	if err != nil {
		return model.NewDetailedError(model.XrefError, "InvalidGeneration", err)
	}

	kindTok, err := p.NextRaw()
	if err != nil {
		return err
	}
	if kindTok.Kind != tokenizer.Keyword || (kindTok.Value != "f" && kindTok.Value != "n") {
		return model.NewDetailedError(model.XrefError, "CorruptEntry", nil)
	}

	if kindTok.Value == "n" && offset == 0 {
		// malformed but tolerated: an in-use entry can't legitimately sit
		// at byte 0 (the header lives there), so treat it as absent.
		return nil
	}

	if _, exists := xr.Entries[objNum]; exists {
		// a newer section already defined this object number; the older
		// (current) entry is ignored, per spec.md §4.3 step 4.
		return nil
	}

	if kindTok.Value == "f" {
		xr.Set(objNum, model.Entry{Kind: model.EntryFree, NextFree: uint32(offset), Generation: uint16(gen)})
	} else {
		xr.Set(objNum, model.Entry{Kind: model.EntryNormal, Offset: uint32(offset), Generation: uint16(gen)})
	}
	return nil
}

// StreamDict is the subset of an xref-stream's own dictionary this package
// needs to decode its entries (ISO 32000-1 Table 17).
type StreamDict struct {
	W     [3]int
	Index [][2]int // pairs of (first object number, count); defaults to [[0, Size]]
	Size  int
}

// ParseStreamDict reads W/Index/Size out of dict (the dictionary of an
// already-parsed xref-stream object).
func ParseStreamDict(dict *model.Dictionary) (StreamDict, error) {
	var out StreamDict

	sizeObj, ok := dict.Get("Size")
	if !ok {
		return out, model.NewDetailedError(model.XrefError, "MissingSize", nil)
	}
	size, ok := model.AsInt(sizeObj)
	if !ok {
		return out, model.NewDetailedError(model.XrefError, "InvalidSize", nil)
	}
	out.Size = int(size)

	wObj, ok := dict.Get("W")
	if !ok {
		return out, model.NewDetailedError(model.XrefError, "MissingW", nil)
	}
	w, ok := model.AsArray(wObj)
	if !ok || len(w) < 3 {
		return out, model.NewDetailedError(model.XrefError, "InvalidW", nil)
	}
	for i := 0; i < 3; i++ {
		v, ok := model.AsInt(w[i])
		if !ok || v < 0 {
			return out, model.NewDetailedError(model.XrefError, "InvalidW", nil)
		}
		out.W[i] = int(v)
	}

	if idxObj, ok := dict.Get("Index"); ok {
		idx, ok := model.AsArray(idxObj)
		if !ok || len(idx)%2 != 0 {
			return out, model.NewDetailedError(model.XrefError, "InvalidIndex", nil)
		}
		for i := 0; i < len(idx); i += 2 {
			first, ok1 := model.AsInt(idx[i])
			n, ok2 := model.AsInt(idx[i+1])
			if !ok1 || !ok2 {
				return out, model.NewDetailedError(model.XrefError, "InvalidIndex", nil)
			}
			out.Index = append(out.Index, [2]int{int(first), int(n)})
		}
	} else {
		out.Index = [][2]int{{0, out.Size}}
	}

	return out, nil
}

func (d StreamDict) entrySize() int { return d.W[0] + d.W[1] + d.W[2] }

func (d StreamDict) count() int {
	total := 0
	for _, sub := range d.Index {
		total += sub[1]
	}
	return total
}

func bigEndianInt(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

// ParseStreamEntries decodes a cross-reference stream's entries out of its
// already-filter-decoded content, per spec.md §4.3's xref-stream rules: W
// widths, big-endian fields, a w1=0 default type of 1 (normal).
func ParseStreamEntries(decoded []byte, dict StreamDict) (*model.Xref, error) {
	entrySize, total := dict.entrySize(), dict.count()
	if entrySize == 0 {
		return nil, model.NewDetailedError(model.XrefError, "ZeroWidthEntry", nil)
	}
	needed := entrySize * total
	if len(decoded) < needed {
		return nil, model.NewDetailedError(model.XrefError, "TruncatedStream", fmt.Errorf("need %d bytes, have %d", needed, len(decoded)))
	}

	xr := model.NewXref()
	xr.Size = uint32(dict.Size)
	xr.Source = model.SourceXrefStream

	i1, i2, i3 := dict.W[0], dict.W[1], dict.W[2]
	j := 0
	for _, sub := range dict.Index {
		first, n := sub[0], sub[1]
		for k := 0; k < n; k++ {
			objNum := uint32(first + k)
			base := j * entrySize
			j++

			typ := int64(1)
			if i1 > 0 {
				typ = bigEndianInt(decoded[base : base+i1])
			}
			f2 := bigEndianInt(decoded[base+i1 : base+i1+i2])
			f3 := bigEndianInt(decoded[base+i1+i2 : base+i1+i2+i3])

			if _, exists := xr.Entries[objNum]; exists {
				continue
			}

			switch typ {
			case 0:
				xr.Set(objNum, model.Entry{Kind: model.EntryFree, NextFree: uint32(f2), Generation: uint16(f3)})
			case 1:
				xr.Set(objNum, model.Entry{Kind: model.EntryNormal, Offset: uint32(f2), Generation: uint16(f3)})
			case 2:
				xr.Set(objNum, model.Entry{Kind: model.EntryCompressed, Container: uint32(f2), Index: uint16(f3)})
			default:
				return nil, model.NewDetailedError(model.XrefError, "UnknownEntryType", fmt.Errorf("type %d", typ))
			}
		}
	}
	return xr, nil
}
