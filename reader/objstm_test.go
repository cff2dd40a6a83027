package reader

import (
	"testing"

	"github.com/pdfgraph/pdfgraph/model"
)

func buildObjStmFixture() (model.Stream, int) {
	prolog := "10 0 11 3"
	const sep = "\n"
	objectsData := "42 /Foo"
	decoded := prolog + sep + objectsData
	first := len(prolog) + len(sep)

	dict := model.NewDictionary()
	dict.Set("Type", model.Name("ObjStm"))
	dict.Set("N", model.Integer(2))
	dict.Set("First", model.Integer(int64(first)))

	return model.Stream{Dict: dict, Content: []byte(decoded)}, first
}

func TestUnpackObjectStream(t *testing.T) {
	stream, _ := buildObjStmFixture()

	objs, err := unpackObjectStream(stream)
	if err != nil {
		t.Fatalf("unpackObjectStream: %v", err)
	}
	if len(objs) != 2 {
		t.Fatalf("got %d objects, want 2", len(objs))
	}
	if i, ok := objs[0].(model.Integer); !ok || i != 42 {
		t.Errorf("got objs[0] = %#v", objs[0])
	}
	if n, ok := objs[1].(model.Name); !ok || n != "Foo" {
		t.Errorf("got objs[1] = %#v", objs[1])
	}
}

func TestUnpackCompressedObjects(t *testing.T) {
	stream, _ := buildObjStmFixture()

	doc := model.NewDocument("1.7")
	doc.Xref = model.NewXref()
	doc.Objects = map[model.ObjectId]model.Object{}

	const containerNum = 5
	doc.Xref.Set(containerNum, model.Entry{Kind: model.EntryNormal, Offset: 0})
	doc.Objects[model.ObjectId{Number: containerNum}] = stream

	doc.Xref.Set(10, model.Entry{Kind: model.EntryCompressed, Container: containerNum, Index: 0})
	doc.Xref.Set(11, model.Entry{Kind: model.EntryCompressed, Container: containerNum, Index: 1})

	if err := unpackCompressedObjects(doc); err != nil {
		t.Fatalf("unpackCompressedObjects: %v", err)
	}

	obj10, ok := doc.Objects[model.ObjectId{Number: 10}]
	if !ok {
		t.Fatal("object 10 not materialized")
	}
	if i, ok := obj10.(model.Integer); !ok || i != 42 {
		t.Errorf("got object 10 = %#v", obj10)
	}

	obj11, ok := doc.Objects[model.ObjectId{Number: 11}]
	if !ok {
		t.Fatal("object 11 not materialized")
	}
	if n, ok := obj11.(model.Name); !ok || n != "Foo" {
		t.Errorf("got object 11 = %#v", obj11)
	}
}
