package pdfgraph

import (
	"fmt"

	"github.com/pdfgraph/pdfgraph/model"
)

// maxPageTreeDepth bounds how many /Kids levels GetPages descends, guarding
// against a cyclic page tree (spec.md §8: "a depth limit of 256").
const maxPageTreeDepth = 256

// Page is a single leaf of the page tree, resolved to its own ObjectId and
// dictionary so a caller doesn't need a second GetObject round trip.
type Page struct {
	ID   model.ObjectId
	Dict *model.Dictionary
}

// GetPages walks the document's page tree from the catalog's /Pages root,
// returning every /Type /Page leaf in document order. Traversal is guarded
// two ways (spec.md §8): a depth limit of maxPageTreeDepth on /Kids
// nesting, and a total-visited-node budget equal to the object count, so a
// page tree whose /Kids form a cycle at a single depth can't loop forever.
func (d *Document) GetPages() ([]Page, error) {
	inner, err := d.requireInner()
	if err != nil {
		return nil, err
	}

	root, ok := inner.Trailer.Get("Root")
	if !ok {
		return nil, model.NewDetailedError(model.TrailerError, "MissingRoot", nil)
	}
	rootID, ok := root.(model.Reference)
	if !ok {
		return nil, model.NewObjectTypeError("Reference", fmt.Sprintf("%T", root))
	}
	catalog, err := d.GetObject(model.ObjectId(rootID))
	if err != nil {
		return nil, err
	}
	catalogDict, ok := catalog.(*model.Dictionary)
	if !ok {
		return nil, model.NewObjectTypeError("Dictionary", fmt.Sprintf("%T", catalog))
	}
	pagesRef, ok := catalogDict.Get("Pages")
	if !ok {
		return nil, model.NewDetailedError(model.TrailerError, "MissingPages", nil)
	}
	pagesID, ok := pagesRef.(model.Reference)
	if !ok {
		return nil, model.NewObjectTypeError("Reference", fmt.Sprintf("%T", pagesRef))
	}

	w := &pageWalk{doc: d, budget: len(inner.Objects)}
	if err := w.visit(model.ObjectId(pagesID), 0); err != nil {
		return nil, err
	}
	return w.pages, nil
}

type pageWalk struct {
	doc    *Document
	pages  []Page
	budget int
}

func (w *pageWalk) visit(id model.ObjectId, depth int) error {
	if depth >= maxPageTreeDepth {
		return model.NewDetailedError(model.ReferenceCycle, "page tree depth limit exceeded", nil)
	}
	if w.budget <= 0 {
		return model.NewDetailedError(model.ReferenceCycle, "page tree visited more nodes than the document has objects", nil)
	}
	w.budget--

	obj, err := w.doc.GetObject(id)
	if err != nil {
		return err
	}
	dict, ok := obj.(*model.Dictionary)
	if !ok {
		return model.NewObjectTypeError("Dictionary", fmt.Sprintf("%T", obj))
	}

	typeName, _ := dict.Get("Type")
	if typeName == model.Name("Page") {
		w.pages = append(w.pages, Page{ID: id, Dict: dict})
		return nil
	}

	kids, ok := dict.Get("Kids")
	if !ok {
		// A node with neither /Type /Page nor /Kids is malformed; treat it
		// as a leaf rather than failing the whole traversal.
		w.pages = append(w.pages, Page{ID: id, Dict: dict})
		return nil
	}
	kidsArr, ok := kids.(model.Array)
	if !ok {
		return model.NewObjectTypeError("Array", fmt.Sprintf("%T", kids))
	}
	for _, kid := range kidsArr {
		kidRef, ok := kid.(model.Reference)
		if !ok {
			return model.NewObjectTypeError("Reference", fmt.Sprintf("%T", kid))
		}
		if err := w.visit(model.ObjectId(kidRef), depth+1); err != nil {
			return err
		}
	}
	return nil
}
