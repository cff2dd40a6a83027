// Package pdfgraph is the public facade over the object-graph engine
// (spec.md §6.2): Load/Save a Document, dereference and mutate objects by
// ObjectId, and walk the page tree. It has no analogue in the teacher repo
// — benoitkugler-pdf exposes reader.ParsePDF/writer.Write directly with no
// unifying root-level type — so its shape is grounded directly on spec.md
// §6.2/§6.3 rather than on a teacher file.
package pdfgraph

import (
	"fmt"

	"github.com/pdfgraph/pdfgraph/model"
	"github.com/pdfgraph/pdfgraph/reader"
)

// maxReferenceHops bounds GetObject's Reference-following chain (spec.md
// §8 invariant: "get_object(id) follows ≤ 128 Reference hops").
const maxReferenceHops = 128

// Document wraps a model.Document together with the raw bytes it was
// loaded from, so a file whose password hasn't been supplied yet can still
// report IsEncrypted and be retried via Decrypt without re-reading from
// disk. It wraps rather than embeds/aliases model.Document, since Go
// methods can't be attached to a type from another package.
type Document struct {
	raw   []byte // nil for a Document created fresh via New
	inner *model.Document
}

// New returns an empty Document, object 0 reserved, ready to receive
// objects (spec.md §6.2's "created empty" lifecycle branch).
func New(version string) *Document {
	return &Document{inner: model.NewDocument(version)}
}

// Load parses data into a Document. If the file is encrypted and the empty
// user password doesn't authenticate it, Load succeeds anyway, returning a
// Document with no materialized objects; IsEncrypted reports true and
// every accessor fails with a DecryptionError until Decrypt supplies the
// right password. Any other failure (malformed header, broken xref chain,
// ...) is returned immediately.
func Load(data []byte) (*Document, error) {
	inner, err := reader.Load(data, "")
	if err != nil {
		if pdfErr, ok := err.(*model.Error); ok && pdfErr.Kind == model.DecryptionError {
			return &Document{raw: data}, nil
		}
		return nil, err
	}
	return &Document{raw: data, inner: inner}, nil
}

// IsEncrypted reports whether d still needs a password before its objects
// can be read. Once Load or Decrypt has materialized the document,
// IsEncrypted is false even though model.Document.Encryption stays set
// (it persists so Save re-encrypts under the same handler) — that field
// answers "is this saved encrypted", not "do I still need a password".
func (d *Document) IsEncrypted() bool {
	return d.inner == nil
}

// Decrypt authenticates password against the document's security handler
// and, on success, materializes it in place. It is a no-op error source
// until the file was actually loaded encrypted: calling it on a Document
// that parsed cleanly the first time re-parses from the stored raw bytes,
// which is harmless but wasted work.
func (d *Document) Decrypt(password string) error {
	if d.raw == nil {
		return model.NewDetailedError(model.DecryptionError, "NotLoadedFromBytes", nil)
	}
	inner, err := reader.Load(d.raw, password)
	if err != nil {
		return err
	}
	d.inner = inner
	return nil
}

// Encrypt arms doc to be written out under the given security handler on
// the next Save; it does not touch any object's bytes immediately, since
// actual string/stream encryption happens during serialization (writer's
// encryptorFor reads exactly this field).
func (d *Document) Encrypt(state *model.EncryptionState) {
	d.inner.Encryption = state
}

// requireInner returns the materialized model.Document or a DecryptionError
// if the caller hasn't supplied a password yet.
func (d *Document) requireInner() (*model.Document, error) {
	if d.inner == nil {
		return nil, model.NewDetailedError(model.DecryptionError, "PasswordRequired", nil)
	}
	return d.inner, nil
}

// GetObject dereferences id, following Reference chains up to
// maxReferenceHops deep (spec.md §8), and returns the first non-Reference
// value found. It fails with ObjectNotFound for an id with no entry and
// ReferenceLimit if the chain runs past the hop bound (a cyclic or
// pathologically long indirection).
func (d *Document) GetObject(id model.ObjectId) (model.Object, error) {
	inner, err := d.requireInner()
	if err != nil {
		return nil, err
	}
	for hop := 0; hop < maxReferenceHops; hop++ {
		obj, ok := inner.Objects[id]
		if !ok {
			return nil, model.NewDetailedError(model.ObjectNotFound, id.String(), nil)
		}
		ref, ok := obj.(model.Reference)
		if !ok {
			return obj, nil
		}
		id = model.ObjectId(ref)
	}
	return nil, model.NewDetailedError(model.ReferenceLimit, fmt.Sprintf("exceeded %d hops", maxReferenceHops), nil)
}

// AddObject stores obj under a freshly allocated ObjectId and returns it.
// Real xref offsets aren't known until Save, so no Xref entry is created
// here — Write derives a full entry table from Objects/MaxID at save time
// regardless of what Xref.Entries already holds (writer.buildClassicEntries
// only consults existing entries to preserve a freed slot's generation).
func (d *Document) AddObject(obj model.Object) (model.ObjectId, error) {
	inner, err := d.requireInner()
	if err != nil {
		return model.ObjectId{}, err
	}
	id := inner.NextID()
	inner.Objects[id] = obj
	return id, nil
}

// SetObject overwrites the object stored at id, which must already exist
// (use AddObject to mint a new id). It's the mutation half of get/mutate
// (spec.md §6.2); deletion is handled by DeleteObject.
func (d *Document) SetObject(id model.ObjectId, obj model.Object) error {
	inner, err := d.requireInner()
	if err != nil {
		return err
	}
	if _, ok := inner.Objects[id]; !ok {
		return model.NewDetailedError(model.ObjectNotFound, id.String(), nil)
	}
	inner.Objects[id] = obj
	return nil
}

// DeleteObject removes id from the document's object map. The freed
// object number is threaded back into the xref free list at Save time,
// exactly like any other number with no entry in Objects
// (writer.buildClassicEntries); it is not reused by NextID.
func (d *Document) DeleteObject(id model.ObjectId) error {
	inner, err := d.requireInner()
	if err != nil {
		return err
	}
	if _, ok := inner.Objects[id]; !ok {
		return model.NewDetailedError(model.ObjectNotFound, id.String(), nil)
	}
	delete(inner.Objects, id)
	return nil
}

// Trailer returns the document's trailer dictionary, for callers that need
// to inspect or amend keys Save doesn't already manage (/Root, /Info, ...).
func (d *Document) Trailer() (*model.Dictionary, error) {
	inner, err := d.requireInner()
	if err != nil {
		return nil, err
	}
	return inner.Trailer, nil
}

// Raw returns the original bytes the Document was parsed from, or nil for
// a Document created via New. IncrementalDocument uses this to anchor a
// WriteIncremental save to the right base revision.
func (d *Document) Raw() []byte { return d.raw }

// Model returns the underlying model.Document, for callers in this module
// (pages.go, incremental.go, cmd/pdfgraph) that need direct field access
// the facade doesn't expose. It fails the same way GetObject does when no
// password has been supplied yet.
func (d *Document) Model() (*model.Document, error) { return d.requireInner() }
