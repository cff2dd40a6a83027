package pdfgraph

import (
	"bytes"
	"testing"

	"github.com/pdfgraph/pdfgraph/model"
	"github.com/pdfgraph/pdfgraph/writer"
)

// sampleFileBytes builds a minimal one-page PDF the same way
// writer.sampleDocument does, then serializes it, so facade tests exercise
// Load/Save/GetObject/GetPages round trips rather than a hand-built
// in-memory model.Document.
func sampleFileBytes(t *testing.T) []byte {
	t.Helper()
	doc := model.NewDocument("1.7")

	catalogID := model.ObjectId{Number: 1}
	pagesID := model.ObjectId{Number: 2}
	page1ID := model.ObjectId{Number: 3}
	page2ID := model.ObjectId{Number: 4}

	catalog := model.NewDictionary()
	catalog.Set("Type", model.Name("Catalog"))
	catalog.Set("Pages", model.Reference(pagesID))
	doc.Objects[catalogID] = catalog

	pages := model.NewDictionary()
	pages.Set("Type", model.Name("Pages"))
	pages.Set("Kids", model.Array{model.Reference(page1ID), model.Reference(page2ID)})
	pages.Set("Count", model.Integer(2))
	doc.Objects[pagesID] = pages

	for _, id := range []model.ObjectId{page1ID, page2ID} {
		page := model.NewDictionary()
		page.Set("Type", model.Name("Page"))
		page.Set("Parent", model.Reference(pagesID))
		page.Set("MediaBox", model.Array{model.Integer(0), model.Integer(0), model.Integer(612), model.Integer(792)})
		doc.Objects[id] = page
	}

	doc.MaxID = 4
	doc.Trailer.Set("Root", model.Reference(catalogID))
	doc.Trailer.Set("Size", model.Integer(5))

	var buf bytes.Buffer
	if err := writer.Write(doc, &buf, writer.Options{}); err != nil {
		t.Fatalf("writer.Write: %v", err)
	}
	return buf.Bytes()
}

func TestLoadAndGetObject(t *testing.T) {
	d, err := Load(sampleFileBytes(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.IsEncrypted() {
		t.Fatal("fresh unencrypted document reports IsEncrypted")
	}

	obj, err := d.GetObject(model.ObjectId{Number: 1})
	if err != nil {
		t.Fatalf("GetObject(1): %v", err)
	}
	dict, ok := obj.(*model.Dictionary)
	if !ok {
		t.Fatalf("GetObject(1) = %T, want *model.Dictionary", obj)
	}
	if typeName, _ := dict.Get("Type"); typeName != model.Name("Catalog") {
		t.Errorf("object 1 /Type = %#v, want /Catalog", typeName)
	}
}

func TestGetObjectNotFound(t *testing.T) {
	d, err := Load(sampleFileBytes(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	_, err = d.GetObject(model.ObjectId{Number: 999})
	pdfErr, ok := err.(*model.Error)
	if !ok || pdfErr.Kind != model.ObjectNotFound {
		t.Fatalf("GetObject(999) error = %v, want ObjectNotFound", err)
	}
}

func TestGetObjectFollowsReferenceChain(t *testing.T) {
	d, err := Load(sampleFileBytes(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	inner, err := d.Model()
	if err != nil {
		t.Fatalf("Model: %v", err)
	}
	// Chain objects 12 -> 11 -> 10 ("done"), then confirm GetObject(12)
	// resolves straight through to the leaf value.
	leafID := model.ObjectId{Number: 10}
	midID := model.ObjectId{Number: 11}
	headID := model.ObjectId{Number: 12}
	inner.Objects[leafID] = model.String{Bytes: []byte("done")}
	inner.Objects[midID] = model.Reference(leafID)
	inner.Objects[headID] = model.Reference(midID)

	obj, err := d.GetObject(headID)
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	s, ok := obj.(model.String)
	if !ok || string(s.Bytes) != "done" {
		t.Errorf("GetObject(head) = %#v, want String(done)", obj)
	}
}

func TestGetObjectReferenceLimit(t *testing.T) {
	d, err := Load(sampleFileBytes(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	inner, err := d.Model()
	if err != nil {
		t.Fatalf("Model: %v", err)
	}
	// A self-referencing object is an infinite chain; GetObject must bail
	// out at maxReferenceHops rather than looping forever.
	cyclicID := model.ObjectId{Number: 50}
	inner.Objects[cyclicID] = model.Reference(cyclicID)

	_, err = d.GetObject(cyclicID)
	pdfErr, ok := err.(*model.Error)
	if !ok || pdfErr.Kind != model.ReferenceLimit {
		t.Fatalf("GetObject(cyclic) error = %v, want ReferenceLimit", err)
	}
}

func TestAddSetDeleteObject(t *testing.T) {
	d := New("1.7")
	id, err := d.AddObject(model.Integer(42))
	if err != nil {
		t.Fatalf("AddObject: %v", err)
	}
	if id.Number != 1 {
		t.Fatalf("AddObject on a fresh Document returned number %d, want 1", id.Number)
	}

	obj, err := d.GetObject(id)
	if err != nil || obj != model.Integer(42) {
		t.Fatalf("GetObject(id) = %#v, %v; want Integer(42), nil", obj, err)
	}

	if err := d.SetObject(id, model.Integer(43)); err != nil {
		t.Fatalf("SetObject: %v", err)
	}
	obj, _ = d.GetObject(id)
	if obj != model.Integer(43) {
		t.Errorf("after SetObject, GetObject = %#v, want Integer(43)", obj)
	}

	if err := d.DeleteObject(id); err != nil {
		t.Fatalf("DeleteObject: %v", err)
	}
	if _, err := d.GetObject(id); err == nil {
		t.Error("GetObject after DeleteObject should fail")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	d, err := Load(sampleFileBytes(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var buf bytes.Buffer
	if err := d.Save(&buf, SaveOptions{}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(buf.Bytes())
	if err != nil {
		t.Fatalf("re-Load: %v", err)
	}
	obj, err := reloaded.GetObject(model.ObjectId{Number: 1})
	if err != nil {
		t.Fatalf("GetObject after round trip: %v", err)
	}
	dict := obj.(*model.Dictionary)
	if typeName, _ := dict.Get("Type"); typeName != model.Name("Catalog") {
		t.Errorf("round-tripped object 1 /Type = %#v, want /Catalog", typeName)
	}
}

func TestSaveWithObjectStreams(t *testing.T) {
	d, err := Load(sampleFileBytes(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var buf bytes.Buffer
	if err := d.Save(&buf, SaveOptions{UseObjectStreams: true}); err != nil {
		t.Fatalf("Save with object streams: %v", err)
	}

	reloaded, err := Load(buf.Bytes())
	if err != nil {
		t.Fatalf("re-Load: %v", err)
	}
	pages, err := reloaded.GetPages()
	if err != nil {
		t.Fatalf("GetPages: %v", err)
	}
	if len(pages) != 2 {
		t.Errorf("got %d pages, want 2", len(pages))
	}
}
