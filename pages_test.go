package pdfgraph

import (
	"testing"

	"github.com/pdfgraph/pdfgraph/model"
)

func TestGetPagesOrder(t *testing.T) {
	d, err := Load(sampleFileBytes(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	pages, err := d.GetPages()
	if err != nil {
		t.Fatalf("GetPages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if pages[0].ID != (model.ObjectId{Number: 3}) || pages[1].ID != (model.ObjectId{Number: 4}) {
		t.Errorf("pages = %+v, want ids 3 then 4 in document order", pages)
	}
	for _, p := range pages {
		if typeName, _ := p.Dict.Get("Type"); typeName != model.Name("Page") {
			t.Errorf("page %v /Type = %#v, want /Page", p.ID, typeName)
		}
	}
}

func TestGetPagesDetectsCycle(t *testing.T) {
	d, err := Load(sampleFileBytes(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	inner, err := d.Model()
	if err != nil {
		t.Fatalf("Model: %v", err)
	}

	// Make the Pages node its own Kid, so naive recursion never terminates.
	pagesID := model.ObjectId{Number: 2}
	pagesDict := inner.Objects[pagesID].(*model.Dictionary)
	pagesDict.Set("Kids", model.Array{model.Reference(pagesID)})

	_, err = d.GetPages()
	pdfErr, ok := err.(*model.Error)
	if !ok || pdfErr.Kind != model.ReferenceCycle {
		t.Fatalf("GetPages on a cyclic tree error = %v, want ReferenceCycle", err)
	}
}

func TestGetPagesMissingRoot(t *testing.T) {
	d := New("1.7")
	_, err := d.GetPages()
	pdfErr, ok := err.(*model.Error)
	if !ok || pdfErr.Kind != model.TrailerError {
		t.Fatalf("GetPages with no /Root error = %v, want TrailerError", err)
	}
}
