package writer

import (
	"bytes"
	"testing"

	"github.com/pdfgraph/pdfgraph/model"
)

func TestEncodeName(t *testing.T) {
	cases := []struct {
		in   model.Name
		want string
	}{
		{"Foo", "/Foo"},
		{"A B", "/A#20B"},
		{"Name#1", "/Name#231"},
		{"(paren)", "/#28paren#29"},
	}
	for _, c := range cases {
		if got := string(encodeName(c.in)); got != c.want {
			t.Errorf("encodeName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatReal(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1.5, "1.5"},
		{-0.25, "-0.25"},
		{100, "100"},
	}
	for _, c := range cases {
		if got := formatReal(c.in); got != c.want {
			t.Errorf("formatReal(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSerializeValueArraySeparators(t *testing.T) {
	arr := model.Array{model.Integer(1), model.Integer(2), model.Name("Foo")}
	got, err := serializeValue(arr, model.ObjectId{}, nil)
	if err != nil {
		t.Fatalf("serializeValue: %v", err)
	}
	want := "[1 2/Foo]"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSerializeValueArrayNoSpuriousSpaceAroundDelimiters(t *testing.T) {
	// A name immediately after a nested array's closing "]" needs no
	// separating space, since "]" is a delimiter.
	arr := model.Array{
		model.Array{model.Integer(1)},
		model.Name("Foo"),
	}
	got, err := serializeValue(arr, model.ObjectId{}, nil)
	if err != nil {
		t.Fatalf("serializeValue: %v", err)
	}
	want := "[[1]/Foo]"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSerializeDictKeyValueSeparators(t *testing.T) {
	d := model.NewDictionary()
	d.Set("Type", model.Name("Catalog"))
	d.Set("Count", model.Integer(3))
	got, err := serializeDict(d, model.ObjectId{}, nil)
	if err != nil {
		t.Fatalf("serializeDict: %v", err)
	}
	want := "<</Type/Catalog/Count 3>>"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEncodeLiteralStringEscaping(t *testing.T) {
	got := encodeLiteralString([]byte("a(b)c\\d\re"))
	want := `(a\(b\)c\\d\re)`
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSerializeStreamResetsLength(t *testing.T) {
	dict := model.NewDictionary()
	dict.Set("Length", model.Integer(999))
	s := model.Stream{Dict: dict, Content: []byte("abcde")}

	got, err := serializeStream(model.ObjectId{Number: 1}, s, nil, model.ObjectId{})
	if err != nil {
		t.Fatalf("serializeStream: %v", err)
	}
	if !bytes.Contains(got, []byte("/Length 5")) {
		t.Errorf("got %q, want it to contain /Length 5", got)
	}
	if !bytes.Contains(got, []byte("stream\nabcde\nendstream")) {
		t.Errorf("got %q, missing stream body", got)
	}
}
