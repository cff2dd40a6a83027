package writer

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/log"
	"github.com/pdfgraph/pdfgraph/crypt"
	"github.com/pdfgraph/pdfgraph/model"
	"github.com/pdfgraph/pdfgraph/oracle"
)

// Options configures a save operation (spec.md §4.8-§4.10).
type Options struct {
	// UseObjectStreams packs eligible objects into /ObjStm containers and
	// emits an xref stream instead of a classic table (spec.md §4.8).
	UseObjectStreams bool

	// MaxObjectsPerStream caps container size; DefaultMaxObjectsPerStream
	// if zero.
	MaxObjectsPerStream int

	// CompressionLevel is the zlib level (0-9) used for /ObjStm and xref
	// stream bodies. Ignored unless UseObjectStreams.
	CompressionLevel int
}

// writer is the byte-counting emission core, grounded on the teacher's
// writer.writer (writer/writer.go) and model.output (model/write.go): both
// track total bytes written and the offset of each object so the footer
// can be built once every object has been emitted.
type writer struct {
	dst     io.Writer
	err     error
	written int
}

func (w *writer) bytes(b []byte) {
	if w.err != nil {
		return
	}
	n, err := w.dst.Write(b)
	w.written += n
	if err != nil {
		w.err = err
	}
}

// writeHeader emits the version comment plus the binary-marker comment
// line ISO 32000-1 §7.5.2 requires for files containing binary streams;
// grounded on the teacher's output.writeHeader (model/write.go), which
// writes the same marker unconditionally.
func (w *writer) writeHeader(version string) {
	w.bytes([]byte(fmt.Sprintf("%%PDF-%s\n", version)))
	w.bytes([]byte("%\xE2\xE3\xCF\xD3\n"))
}

// writeIndirect emits "<n> <g> obj\n<body>\nendobj\n" and returns the byte
// offset the object's declaration started at.
func (w *writer) writeIndirect(id model.ObjectId, body []byte) int {
	offset := w.written
	w.bytes([]byte(fmt.Sprintf("%d %d obj\n", id.Number, id.Generation)))
	w.bytes(body)
	w.bytes([]byte("\nendobj\n"))
	return offset
}

// encryptorFor builds an Encryptor from doc's Encryption state, or nil if
// the document is not encrypted at rest.
func encryptorFor(doc *model.Document) *crypt.Encryptor {
	if doc.Encryption == nil || len(doc.Encryption.FileKey) == 0 {
		return nil
	}
	return crypt.NewEncryptor(doc.Encryption)
}

// sortedObjectIDs returns every ObjectId in doc.Objects in ascending
// (number, generation) order.
func sortedObjectIDs(doc *model.Document) []model.ObjectId {
	ids := make([]model.ObjectId, 0, len(doc.Objects))
	for id := range doc.Objects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Number != ids[j].Number {
			return ids[i].Number < ids[j].Number
		}
		return ids[i].Generation < ids[j].Generation
	})
	return ids
}

// Write serializes doc as a full (non-incremental) file, choosing the
// classic xref-table path or the xref-stream/object-stream path per
// opts.UseObjectStreams.
func Write(doc *model.Document, dst io.Writer, opts Options) error {
	if opts.UseObjectStreams {
		return writeWithObjectStreams(doc, dst, opts)
	}
	return writeClassic(doc, dst)
}

// writeClassic emits every object as a top-level indirect object followed
// by a classic cross-reference table, grounded on the teacher's
// writer.Write/writeFooter (writer/writer.go).
func writeClassic(doc *model.Document, dst io.Writer) error {
	if log.WriteEnabled() {
		log.Write.Printf("writeClassic: %d objects\n", len(doc.Objects))
	}

	w := &writer{dst: dst}
	enc := encryptorFor(doc)
	encryptID := oracle.EncryptDictID(doc.Trailer)

	w.writeHeader(doc.Version)

	ids := sortedObjectIDs(doc)
	offsets := make(map[uint32]int, len(ids))
	generations := make(map[uint32]uint16, len(ids))
	for _, id := range ids {
		body, err := serializeIndirect(id, doc.Objects[id], enc, encryptID)
		if err != nil {
			return fmt.Errorf("writer: object %s: %w", id, err)
		}
		offsets[id.Number] = w.writeIndirect(id, body)
		generations[id.Number] = id.Generation
	}
	if w.err != nil {
		return w.err
	}

	entries, numbers := buildClassicEntries(doc, offsets, generations)

	size := doc.MaxID + 1
	if doc.Xref != nil && doc.Xref.Size > size {
		size = doc.Xref.Size
	}
	doc.Trailer.Set("Size", model.Integer(int64(size)))

	xrefOffset := w.written
	if log.WriteEnabled() {
		log.Write.Printf("writeClassic: xref table at offset %d, Size %d\n", xrefOffset, size)
	}
	w.bytes(renderClassicXrefSubsections(entries, numbers))
	w.bytes(renderTrailer(doc.Trailer, int64(xrefOffset)))
	return w.err
}

// classicEntry is one row of a rendered classic xref subsection.
type classicEntry struct {
	inUse      bool
	offset     uint32 // inUse: byte offset
	nextFree   uint32 // !inUse: next free object number
	generation uint16
}

// buildClassicEntries computes a classic xref table spanning object
// numbers [0, size): present objects get Normal entries at their freshly
// written offset; every other number is threaded into the free list
// (ISO 32000-1 §7.5.4), preferring the generation doc.Xref already
// recorded for a freed slot (e.g. after a deletion) over the default of 1.
// The returned numbers slice is every number in [0, size) in ascending
// order, suitable for a full-table render via renderClassicXrefSubsections.
func buildClassicEntries(doc *model.Document, offsets map[uint32]int, generations map[uint32]uint16) (map[uint32]classicEntry, []uint32) {
	size := doc.MaxID + 1
	if doc.Xref != nil && doc.Xref.Size > size {
		size = doc.Xref.Size
	}

	present := make([]bool, size)
	for num := range offsets {
		if num < size {
			present[num] = true
		}
	}
	present[0] = false

	var free []uint32
	for n := uint32(1); n < size; n++ {
		if !present[n] {
			free = append(free, n)
		}
	}
	free = append(free, 0) // circular terminator

	freedGeneration := func(n uint32) uint16 {
		if doc.Xref != nil {
			if e, ok := doc.Xref.Get(n); ok && e.Kind == model.EntryFree {
				return e.Generation
			}
		}
		return 1
	}

	nextFree := make(map[uint32]uint32, len(free))
	for i := 0; i+1 < len(free); i++ {
		nextFree[free[i]] = free[i+1]
	}
	if len(free) > 1 {
		nextFree[0] = free[0]
	}

	entries := make(map[uint32]classicEntry, size)
	numbers := make([]uint32, size)
	entries[0] = classicEntry{inUse: false, nextFree: nextFree[0], generation: model.FreeListHead}
	numbers[0] = 0
	for n := uint32(1); n < size; n++ {
		numbers[n] = n
		if present[n] {
			entries[n] = classicEntry{inUse: true, offset: uint32(offsets[n]), generation: generations[n]}
		} else {
			entries[n] = classicEntry{inUse: false, nextFree: nextFree[n], generation: freedGeneration(n)}
		}
	}
	return entries, numbers
}

// renderClassicXrefSubsections renders numbers (ascending, not necessarily
// contiguous) as one or more "<start> <count>\n" subsections of fixed-width
// 20-byte rows, per spec.md §4.9-§4.10. A full-table save passes every
// number in [0, size); an incremental update passes only the touched object
// numbers, so that untouched objects are left to the prior revision's table
// via /Prev instead of being marked free by omission.
func renderClassicXrefSubsections(entries map[uint32]classicEntry, numbers []uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("xref\n")
	for i := 0; i < len(numbers); {
		start := numbers[i]
		j := i + 1
		for j < len(numbers) && numbers[j] == numbers[j-1]+1 {
			j++
		}
		fmt.Fprintf(&buf, "%d %d\n", start, j-i)
		for _, n := range numbers[i:j] {
			e := entries[n]
			if e.inUse {
				fmt.Fprintf(&buf, "%010d %05d n \n", e.offset, e.generation)
			} else {
				fmt.Fprintf(&buf, "%010d %05d f \n", e.nextFree, e.generation)
			}
		}
		i = j
	}
	return buf.Bytes()
}

// renderTrailer renders "trailer\n<<...>>\nstartxref\n<offset>\n%%EOF".
// An incremental update's caller sets /Prev on trailer beforehand; this
// function itself only ever renders whatever the dictionary already holds.
func renderTrailer(trailer *model.Dictionary, xrefOffset int64) []byte {
	body, err := serializeDict(trailer, model.ObjectId{}, nil)
	if err != nil {
		// trailer dictionaries hold only Size/Root/Info/Encrypt/ID/Prev,
		// none of which can fail to serialize.
		panic(fmt.Sprintf("writer: trailer dictionary: %v", err))
	}
	var buf bytes.Buffer
	buf.WriteString("trailer\n")
	buf.Write(body)
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF", xrefOffset)
	return buf.Bytes()
}
