package writer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pdfgraph/pdfgraph/filter"
	"github.com/pdfgraph/pdfgraph/model"
	"github.com/pdfgraph/pdfgraph/oracle"
)

// builtEntry is one not-yet-rendered cross-reference entry accumulated
// while writing the object-stream save path.
type builtEntry struct {
	kind       model.EntryKind
	offset     uint32 // EntryNormal
	generation uint16 // EntryNormal
	container  uint32 // EntryCompressed
	index      uint16 // EntryCompressed
}

// writeWithObjectStreams implements the modern save path (spec.md §4.8):
// the Compressibility Oracle decides what can move into an /ObjStm, the
// Object-Stream Builder packs eligible objects into containers, and the
// cross-reference data is emitted as an xref stream instead of a classic
// table. No teacher analogue exists for this path (writer/writer.go only
// ever emits a classic table); grounded on spec knowledge plus the
// already-grounded oracle package and this file's own serializeIndirect/
// filter.Encode reuse.
func writeWithObjectStreams(doc *model.Document, dst io.Writer, opts Options) error {
	w := &writer{dst: dst}
	enc := encryptorFor(doc)
	encryptID := oracle.EncryptDictID(doc.Trailer)

	w.writeHeader(doc.Version)

	plan := oracle.BuildPlan(doc, encryptID, opts.MaxObjectsPerStream)
	nextID := doc.MaxID + 1
	entries := map[uint32]builtEntry{}

	for _, id := range plan.Ineligible {
		body, err := serializeIndirect(id, doc.Objects[id], enc, encryptID)
		if err != nil {
			return fmt.Errorf("writer: object %s: %w", id, err)
		}
		offset := w.writeIndirect(id, body)
		entries[id.Number] = builtEntry{kind: model.EntryNormal, offset: uint32(offset), generation: id.Generation}
	}

	// Objects packed into a container are never separately encrypted: the
	// container stream carries the encryption for everything it holds
	// (ISO 32000-1 §7.5.7), mirroring reader.unpackObjectStream never
	// re-decrypting a member on the read side.
	serializeMember := func(id model.ObjectId, obj model.Object) ([]byte, error) {
		return serializeValue(obj, id, nil)
	}

	for _, group := range plan.Groups {
		containerID := model.ObjectId{Number: nextID}
		nextID++

		payload, err := oracle.BuildPayload(doc, group, serializeMember)
		if err != nil {
			return err
		}
		compressed, err := filter.Encode(payload.Content, opts.CompressionLevel)
		if err != nil {
			return fmt.Errorf("writer: compressing object stream: %w", err)
		}

		dict := model.NewDictionary()
		dict.Set("Type", model.Name("ObjStm"))
		dict.Set("N", model.Integer(int64(payload.N)))
		dict.Set("First", model.Integer(int64(payload.First)))
		dict.Set("Filter", model.Name("FlateDecode"))
		stream := model.Stream{Dict: dict, Content: compressed}

		body, err := serializeIndirect(containerID, stream, enc, encryptID)
		if err != nil {
			return fmt.Errorf("writer: object stream container: %w", err)
		}
		offset := w.writeIndirect(containerID, body)
		entries[containerID.Number] = builtEntry{kind: model.EntryNormal, offset: uint32(offset)}

		for memberID, idx := range payload.Index {
			entries[memberID.Number] = builtEntry{kind: model.EntryCompressed, container: containerID.Number, index: uint16(idx)}
		}
	}
	if w.err != nil {
		return w.err
	}

	xrefID := model.ObjectId{Number: nextID}
	size := xrefID.Number + 1

	xrefOffset := w.written
	entries[xrefID.Number] = builtEntry{kind: model.EntryNormal, offset: uint32(xrefOffset)}

	content := renderXrefStreamEntries(doc, size, entries)
	compressedXref, err := filter.Encode(content, opts.CompressionLevel)
	if err != nil {
		return fmt.Errorf("writer: compressing xref stream: %w", err)
	}

	xrefDict := doc.Trailer.Clone().(*model.Dictionary)
	xrefDict.Set("Type", model.Name("XRef"))
	xrefDict.Set("Size", model.Integer(int64(size)))
	xrefDict.Set("W", model.Array{model.Integer(1), model.Integer(4), model.Integer(2)})
	xrefDict.Set("Filter", model.Name("FlateDecode"))
	xrefStream := model.Stream{Dict: xrefDict, Content: compressedXref}

	// Xref streams are never encrypted, ISO 32000-1 §7.5.8.2.
	body, err := serializeIndirect(xrefID, xrefStream, nil, encryptID)
	if err != nil {
		return err
	}
	w.writeIndirect(xrefID, body)

	w.bytes([]byte(fmt.Sprintf("startxref\n%d\n%%%%EOF", xrefOffset)))
	return w.err
}

// renderXrefStreamEntries renders every object number in [0, size) as a
// fixed W=[1,4,2] binary row: type byte, then the two numeric fields at
// their declared widths, per spec.md §4.8 step 4. Numbers absent from
// entries are free, threaded into the same circular free list
// buildClassicEntries computes for the classic path.
func renderXrefStreamEntries(doc *model.Document, size uint32, entries map[uint32]builtEntry) []byte {
	present := make([]bool, size)
	for n := range entries {
		if n < size {
			present[n] = true
		}
	}
	present[0] = false

	var free []uint32
	for n := uint32(1); n < size; n++ {
		if !present[n] {
			free = append(free, n)
		}
	}
	free = append(free, 0)
	nextFree := make(map[uint32]uint32, len(free))
	for i := 0; i+1 < len(free); i++ {
		nextFree[free[i]] = free[i+1]
	}
	if len(free) > 1 {
		nextFree[0] = free[0]
	}

	freedGeneration := func(n uint32) uint16 {
		if n == 0 {
			return model.FreeListHead
		}
		if doc.Xref != nil {
			if e, ok := doc.Xref.Get(n); ok && e.Kind == model.EntryFree {
				return e.Generation
			}
		}
		return 1
	}

	var buf bytes.Buffer
	for n := uint32(0); n < size; n++ {
		e, ok := entries[n]
		if !ok {
			buf.WriteByte(0)
			writeBE(&buf, nextFree[n], 4)
			writeBE(&buf, uint32(freedGeneration(n)), 2)
			continue
		}
		switch e.kind {
		case model.EntryCompressed:
			buf.WriteByte(2)
			writeBE(&buf, e.container, 4)
			writeBE(&buf, uint32(e.index), 2)
		default: // EntryNormal
			buf.WriteByte(1)
			writeBE(&buf, e.offset, 4)
			writeBE(&buf, uint32(e.generation), 2)
		}
	}
	return buf.Bytes()
}

func writeBE(buf *bytes.Buffer, v uint32, width int) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[4-width:])
}
