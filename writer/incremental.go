package writer

import (
	"fmt"
	"io"
	"sort"

	"github.com/pdfgraph/pdfgraph/model"
	"github.com/pdfgraph/pdfgraph/oracle"
	"github.com/pdfgraph/pdfgraph/xref"
)

// WriteIncremental implements the incremental-update save path (spec.md
// §4.10): original's bytes are reproduced verbatim, followed only by the
// objects named in changedIDs (new or modified) and a sparse xref section
// covering just those object numbers, with /Prev pointing back at
// original's own startxref offset. No teacher analogue exists (the
// teacher's writer/writer.go only ever writes from scratch); grounded on
// the already-grounded xref.FindStartXref and this package's own
// serializeIndirect/renderClassicXrefSubsections/renderTrailer.
//
// An id in changedIDs that is absent from doc.Objects is a deletion: it is
// rendered as a free entry with its generation incremented, per ISO
// 32000-1 §7.5.4.
func WriteIncremental(original []byte, doc *model.Document, changedIDs []model.ObjectId, dst io.Writer, opts Options) error {
	prevOffset, err := xref.FindStartXref(original)
	if err != nil {
		return fmt.Errorf("writer: locating original startxref: %w", err)
	}

	w := &writer{dst: dst}
	w.bytes(original)
	if len(original) == 0 || original[len(original)-1] != '\n' {
		w.bytes([]byte("\n"))
	}

	enc := encryptorFor(doc)
	encryptID := oracle.EncryptDictID(doc.Trailer)

	entries := make(map[uint32]classicEntry, len(changedIDs))
	numbers := make([]uint32, 0, len(changedIDs))
	seen := make(map[uint32]bool, len(changedIDs))

	for _, id := range changedIDs {
		if seen[id.Number] {
			continue
		}
		seen[id.Number] = true
		numbers = append(numbers, id.Number)

		obj, present := doc.Objects[id]
		if !present {
			gen := id.Generation + 1
			entries[id.Number] = classicEntry{inUse: false, nextFree: 0, generation: gen}
			continue
		}
		body, err := serializeIndirect(id, obj, enc, encryptID)
		if err != nil {
			return fmt.Errorf("writer: object %s: %w", id, err)
		}
		offset := w.writeIndirect(id, body)
		entries[id.Number] = classicEntry{inUse: true, offset: uint32(offset), generation: id.Generation}
	}
	if w.err != nil {
		return w.err
	}

	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	xrefOffset := w.written
	w.bytes(renderClassicXrefSubsections(entries, numbers))

	trailer := doc.Trailer.Clone().(*model.Dictionary)
	size := doc.MaxID + 1
	trailer.Set("Size", model.Integer(int64(size)))
	trailer.Set("Prev", model.Integer(prevOffset))
	w.bytes(renderTrailer(trailer, int64(xrefOffset)))
	return w.err
}
