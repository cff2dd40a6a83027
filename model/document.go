package model

// Document owns the full in-memory representation of a PDF: its trailer,
// its cross-reference table, and every materialized object, keyed by
// ObjectId. References between objects are by ObjectId only, never by Go
// pointer — this is what lets the page tree's /Parent back-references form
// a cycle "of keys" instead of a cycle of owning pointers (see spec.md §9).
type Document struct {
	Version string // e.g. "1.7"

	Trailer *Dictionary
	Xref    *Xref
	Objects map[ObjectId]Object

	// MaxID is the highest object number ever issued, across every
	// generation. New objects are numbered MaxID+1.
	MaxID uint32

	Bookmarks []Bookmark

	// Encryption is the security handler state of the file the document
	// was loaded from (including the derived FileKey), or the state set by
	// Encrypt(...) for the next save. Loading an encrypted file decrypts
	// every object in memory but leaves this field set, so a later save
	// writes the file encrypted again under the same handler; no load or
	// decrypt step clears it.
	Encryption *EncryptionState
}

// Bookmark is a single node of the optional bookmark tree held in
// Document.Bookmarks (spec.md §3.4). The field is plain data: nothing in
// this library fills it from the Catalog's /Outlines on load or converts
// it to an Outlines object graph on save, and Document has no bookmark
// helper methods.
type Bookmark struct {
	Title    string
	Target   ObjectId // destination page
	Children []Bookmark
}

// NewDocument returns an empty Document ready to receive objects, with
// object 0 reserved as required by ISO 32000-1 §7.5.4.
func NewDocument(version string) *Document {
	return &Document{
		Version: version,
		Trailer: NewDictionary(),
		Xref:    NewXref(),
		Objects: make(map[ObjectId]Object),
	}
}

// NextID allocates a fresh object number with generation 0 and advances
// MaxID.
func (d *Document) NextID() ObjectId {
	d.MaxID++
	return ObjectId{Number: d.MaxID, Generation: 0}
}
