package writer

import (
	"bytes"
	"testing"

	"github.com/pdfgraph/pdfgraph/model"
	"github.com/pdfgraph/pdfgraph/reader"
)

// sampleDocument builds a minimal but representative object graph: a
// Catalog, a Pages tree with one Page, and an Info dictionary, all
// referenced from the trailer exactly as a real file would be.
func sampleDocument() *model.Document {
	doc := model.NewDocument("1.7")

	catalogID := model.ObjectId{Number: 1}
	pagesID := model.ObjectId{Number: 2}
	pageID := model.ObjectId{Number: 3}
	infoID := model.ObjectId{Number: 4}

	catalog := model.NewDictionary()
	catalog.Set("Type", model.Name("Catalog"))
	catalog.Set("Pages", model.Reference(pagesID))
	doc.Objects[catalogID] = catalog

	pages := model.NewDictionary()
	pages.Set("Type", model.Name("Pages"))
	pages.Set("Kids", model.Array{model.Reference(pageID)})
	pages.Set("Count", model.Integer(1))
	doc.Objects[pagesID] = pages

	page := model.NewDictionary()
	page.Set("Type", model.Name("Page"))
	page.Set("Parent", model.Reference(pagesID))
	page.Set("MediaBox", model.Array{model.Integer(0), model.Integer(0), model.Integer(612), model.Integer(792)})
	doc.Objects[pageID] = page

	info := model.NewDictionary()
	info.Set("Title", model.String{Bytes: []byte("A (tricky) title\\with stuff")})
	doc.Objects[infoID] = info

	doc.MaxID = 4
	doc.Trailer.Set("Root", model.Reference(catalogID))
	doc.Trailer.Set("Info", model.Reference(infoID))
	doc.Trailer.Set("Size", model.Integer(5))
	return doc
}

func TestWriteClassicRoundTrip(t *testing.T) {
	doc := sampleDocument()

	var buf bytes.Buffer
	if err := Write(doc, &buf, Options{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := reader.Load(buf.Bytes(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	catalog := got.Objects[model.ObjectId{Number: 1}].(*model.Dictionary)
	if typ, _ := catalog.Get("Type"); typ != model.Name("Catalog") {
		t.Errorf("got Catalog Type %v", typ)
	}
	pagesRef, _ := catalog.Get("Pages")
	if pagesRef != (model.Reference{Number: 2}) {
		t.Errorf("got Catalog Pages %v", pagesRef)
	}

	info := got.Objects[model.ObjectId{Number: 4}].(*model.Dictionary)
	title, _ := info.Get("Title")
	want := "A (tricky) title\\with stuff"
	if s, ok := title.(model.String); !ok || string(s.Bytes) != want {
		t.Errorf("got Title %v, want %q", title, want)
	}

	root, _ := got.Trailer.Get("Root")
	if root != (model.Reference{Number: 1}) {
		t.Errorf("got trailer Root %v", root)
	}
}

func TestWriteObjectStreamSaveRegression(t *testing.T) {
	doc := sampleDocument()

	var buf bytes.Buffer
	if err := Write(doc, &buf, Options{UseObjectStreams: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw := buf.Bytes()
	// None of the four packable objects may appear as a top-level "N 0
	// obj" declaration: only the ObjStm container and the xref stream do.
	for n := 1; n <= 4; n++ {
		needle := []byte{byte('0' + n), ' ', '0', ' ', 'o', 'b', 'j'}
		if bytes.Contains(raw, needle) {
			t.Errorf("object %d appears as a top-level indirect object in an object-stream save", n)
		}
	}

	got, err := reader.Load(raw, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for n := uint32(1); n <= 4; n++ {
		e, ok := got.Xref.Get(n)
		if !ok || e.Kind != model.EntryCompressed {
			t.Errorf("object %d: got xref entry %+v, want Compressed", n, e)
		}
	}

	catalog, ok := got.Objects[model.ObjectId{Number: 1}].(*model.Dictionary)
	if !ok {
		t.Fatalf("catalog not materialized")
	}
	if typ, _ := catalog.Get("Type"); typ != model.Name("Catalog") {
		t.Errorf("got Catalog Type %v", typ)
	}
}

func TestWriteIncrementalRoundTrip(t *testing.T) {
	doc := sampleDocument()

	var original bytes.Buffer
	if err := Write(doc, &original, Options{}); err != nil {
		t.Fatalf("Write original: %v", err)
	}

	// Modify the Info dictionary's title (same id, generation incremented)
	// and add a brand new object.
	modifiedInfoID := model.ObjectId{Number: 4, Generation: 1}
	modifiedInfo := model.NewDictionary()
	modifiedInfo.Set("Title", model.String{Bytes: []byte("Updated title")})

	newID := model.ObjectId{Number: 5}
	newObj := model.Name("Extra")

	doc.Objects[modifiedInfoID] = modifiedInfo
	delete(doc.Objects, model.ObjectId{Number: 4})
	doc.Objects[newID] = newObj
	doc.MaxID = 5

	var out bytes.Buffer
	err := WriteIncremental(original.Bytes(), doc, []model.ObjectId{modifiedInfoID, newID}, &out, Options{})
	if err != nil {
		t.Fatalf("WriteIncremental: %v", err)
	}

	got, err := reader.Load(out.Bytes(), "")
	if err != nil {
		t.Fatalf("Load incremental result: %v", err)
	}

	info, ok := got.Objects[modifiedInfoID].(*model.Dictionary)
	if !ok {
		t.Fatalf("modified Info object not found at incremented generation")
	}
	title, _ := info.Get("Title")
	if s, ok := title.(model.String); !ok || string(s.Bytes) != "Updated title" {
		t.Errorf("got Title %v, want %q", title, "Updated title")
	}

	if got.Objects[newID] != model.Name("Extra") {
		t.Errorf("got new object %v, want /Extra", got.Objects[newID])
	}

	// Untouched objects are still reachable via /Prev, not re-declared.
	catalog, ok := got.Objects[model.ObjectId{Number: 1}].(*model.Dictionary)
	if !ok {
		t.Fatalf("catalog lost across incremental update")
	}
	if typ, _ := catalog.Get("Type"); typ != model.Name("Catalog") {
		t.Errorf("got Catalog Type %v", typ)
	}
}

func TestEncryptionAppliedOnWrite(t *testing.T) {
	doc := sampleDocument()
	doc.Encryption = &model.EncryptionState{
		Filter:  "Standard",
		V:       2,
		R:       3,
		Length:  16,
		FileKey: bytes.Repeat([]byte{0x42}, 16),
	}

	var buf bytes.Buffer
	if err := Write(doc, &buf, Options{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// The plaintext title must not appear verbatim in the encrypted output.
	if bytes.Contains(buf.Bytes(), []byte("A (tricky) title")) {
		t.Errorf("plaintext string leaked into encrypted output")
	}
}
