package xref

import (
	"testing"

	"github.com/pdfgraph/pdfgraph/model"
	"github.com/pdfgraph/pdfgraph/parser"
)

func TestFindStartXref(t *testing.T) {
	data := []byte("%PDF-1.7\n...\nxref\n0 1\n0000000000 65535 f \ntrailer\n<<>>\nstartxref\n9\n%%EOF")
	off, err := FindStartXref(data)
	if err != nil {
		t.Fatalf("FindStartXref: %v", err)
	}
	if off != 9 {
		t.Errorf("got offset %d, want 9", off)
	}
}

func TestFindStartXrefMissing(t *testing.T) {
	if _, err := FindStartXref([]byte("not a pdf")); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseClassicSection(t *testing.T) {
	data := []byte("xref\n" +
		"0 3\n" +
		"0000000000 65535 f \n" +
		"0000000017 00000 n \n" +
		"0000000081 00000 n \n" +
		"trailer\n" +
		"<</Size 3/Root 1 0 R>>\n")

	p := parser.New(data)
	tk, err := p.NextRaw() // consume "xref"
	if err != nil || tk.Value != "xref" {
		t.Fatalf("expected xref keyword, got %+v err=%v", tk, err)
	}

	sec, err := ParseClassicSection(p)
	if err != nil {
		t.Fatalf("ParseClassicSection: %v", err)
	}
	if sec.Xref.Size != 3 {
		t.Errorf("got size %d", sec.Xref.Size)
	}
	e, ok := sec.Xref.Get(1)
	if !ok || e.Kind != model.EntryNormal || e.Offset != 17 {
		t.Errorf("got entry 1 = %+v", e)
	}
	if _, ok := sec.Trailer.Get("Root"); !ok {
		t.Error("expected /Root in trailer")
	}
}

func TestParseClassicSectionSkipsZeroOffsetInUse(t *testing.T) {
	data := []byte("xref\n0 1\n0000000000 00000 n \ntrailer\n<<>>\n")
	p := parser.New(data)
	p.NextRaw()
	sec, err := ParseClassicSection(p)
	if err != nil {
		t.Fatalf("ParseClassicSection: %v", err)
	}
	if _, ok := sec.Xref.Get(0); ok {
		t.Error("zero-offset in-use entry should be dropped")
	}
}

func TestParseStreamDictAndEntries(t *testing.T) {
	dict := model.NewDictionary()
	dict.Set("Size", model.Integer(4))
	dict.Set("W", model.Array{model.Integer(1), model.Integer(2), model.Integer(1)})

	sd, err := ParseStreamDict(dict)
	if err != nil {
		t.Fatalf("ParseStreamDict: %v", err)
	}
	if sd.Size != 4 || sd.W != [3]int{1, 2, 1} {
		t.Fatalf("got %+v", sd)
	}
	if len(sd.Index) != 1 || sd.Index[0] != [2]int{0, 4} {
		t.Fatalf("expected default Index [[0 4]], got %v", sd.Index)
	}

	// four 4-byte entries: type(1) offset(2,BE) gen(1)
	decoded := []byte{
		0, 0, 0, 0, // obj 0: free, next=0, gen=0
		1, 0, 10, 0, // obj 1: normal, offset=10, gen=0
		1, 0, 20, 0, // obj 2: normal, offset=20, gen=0
		2, 0, 1, 0, // obj 3: compressed, container=1, index=0
	}
	xr, err := ParseStreamEntries(decoded, sd)
	if err != nil {
		t.Fatalf("ParseStreamEntries: %v", err)
	}
	e1, _ := xr.Get(1)
	if e1.Kind != model.EntryNormal || e1.Offset != 10 {
		t.Errorf("got entry 1 = %+v", e1)
	}
	e3, _ := xr.Get(3)
	if e3.Kind != model.EntryCompressed || e3.Container != 1 {
		t.Errorf("got entry 3 = %+v", e3)
	}
}

func TestXrefMergeOlderLoses(t *testing.T) {
	newer := model.NewXref()
	newer.Set(5, model.Entry{Kind: model.EntryNormal, Offset: 100})

	older := model.NewXref()
	older.Set(5, model.Entry{Kind: model.EntryNormal, Offset: 1}) // stale
	older.Set(6, model.Entry{Kind: model.EntryNormal, Offset: 200})

	newer.Merge(older)

	e5, _ := newer.Get(5)
	if e5.Offset != 100 {
		t.Errorf("newer entry should win, got offset %d", e5.Offset)
	}
	e6, _ := newer.Get(6)
	if e6.Offset != 200 {
		t.Errorf("older-only entry should be merged in, got %+v", e6)
	}
}
