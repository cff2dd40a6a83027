package pdfgraph

import (
	"io"

	"github.com/pdfgraph/pdfgraph/model"
	"github.com/pdfgraph/pdfgraph/writer"
)

// SaveOptions configures a full (from-scratch) save (spec.md §6.3). It is
// writer.Options verbatim: the teacher has no Options type of its own
// (writer.Write takes no configuration at all), so this shape is original
// to this library, and a single field set is enough to cover every tunable
// spec.md names — there's no independent use_xref_streams knob because an
// xref stream is only ever emitted alongside object streams
// (writer.Write), so coupling the two here matches the underlying encoder
// instead of promising an option it can't honor.
type SaveOptions = writer.Options

// Save serializes d from scratch (every object, a fresh xref section) into
// dst. It fails with a DecryptionError if d was loaded encrypted and never
// decrypted.
func (d *Document) Save(dst io.Writer, opts SaveOptions) error {
	inner, err := d.requireInner()
	if err != nil {
		return err
	}
	return writer.Write(inner, dst, opts)
}

// IncrementalDocument layers new/changed objects onto an existing file
// without rewriting it, per ISO 32000-1 §7.5.6 / spec.md §4.10.1. It tracks
// which object ids were touched since it was opened, so Save only needs to
// emit those.
type IncrementalDocument struct {
	doc      *Document
	original []byte
	changed  map[model.ObjectId]bool
}

// OpenIncremental wraps an already-loaded Document for incremental
// mutation. It fails if d was never parsed from bytes (a Document created
// via New has nothing to append onto).
func OpenIncremental(d *Document) (*IncrementalDocument, error) {
	if d.raw == nil {
		return nil, model.NewDetailedError(model.IOError, "NoBaseRevision", nil)
	}
	if _, err := d.requireInner(); err != nil {
		return nil, err
	}
	return &IncrementalDocument{doc: d, original: d.raw, changed: make(map[model.ObjectId]bool)}, nil
}

// AddObject mints a new object and marks it changed.
func (u *IncrementalDocument) AddObject(obj model.Object) (model.ObjectId, error) {
	id, err := u.doc.AddObject(obj)
	if err != nil {
		return model.ObjectId{}, err
	}
	u.changed[id] = true
	return id, nil
}

// SetObject overwrites id and marks it changed.
func (u *IncrementalDocument) SetObject(id model.ObjectId, obj model.Object) error {
	if err := u.doc.SetObject(id, obj); err != nil {
		return err
	}
	u.changed[id] = true
	return nil
}

// DeleteObject removes id and marks it changed, so Save emits it as a
// freed entry in the new revision's xref section.
func (u *IncrementalDocument) DeleteObject(id model.ObjectId) error {
	if err := u.doc.DeleteObject(id); err != nil {
		return err
	}
	u.changed[id] = true
	return nil
}

// Save appends this revision's objects and a sparse xref section to dst,
// preceded by a verbatim copy of the original bytes.
func (u *IncrementalDocument) Save(dst io.Writer, opts SaveOptions) error {
	inner, err := u.doc.requireInner()
	if err != nil {
		return err
	}
	ids := make([]model.ObjectId, 0, len(u.changed))
	for id := range u.changed {
		ids = append(ids, id)
	}
	return writer.WriteIncremental(u.original, inner, ids, dst, opts)
}
