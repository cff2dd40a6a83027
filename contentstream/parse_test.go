package contentstream

import (
	"testing"

	"github.com/pdfgraph/pdfgraph/model"
)

func TestParseMinimalTextBlock(t *testing.T) {
	ops, err := Parse([]byte("BT /F1 48 Tf 100 600 Td (Hello World!) Tj ET"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	wantOperators := []string{"BT", "Tf", "Td", "Tj", "ET"}
	if len(ops) != len(wantOperators) {
		t.Fatalf("got %d operations, want %d: %+v", len(ops), len(wantOperators), ops)
	}
	for i, op := range ops {
		if op.Operator != wantOperators[i] {
			t.Errorf("operation %d: got operator %q, want %q", i, op.Operator, wantOperators[i])
		}
	}

	tf := ops[1]
	if len(tf.Operands) != 2 {
		t.Fatalf("Tf: got %d operands, want 2", len(tf.Operands))
	}
	if name, ok := tf.Operands[0].(model.Name); !ok || name != "F1" {
		t.Errorf("Tf operand 0 = %#v, want Name(F1)", tf.Operands[0])
	}

	tj := ops[3]
	if len(tj.Operands) != 1 {
		t.Fatalf("Tj: got %d operands, want 1", len(tj.Operands))
	}
	s, ok := tj.Operands[0].(model.String)
	if !ok || string(s.Bytes) != "Hello World!" {
		t.Errorf("Tj operand = %#v, want String(Hello World!)", tj.Operands[0])
	}
}

func TestExtractTextMinimalCreation(t *testing.T) {
	ops, err := Parse([]byte("BT /F1 48 Tf 100 600 Td (Hello World!) Tj ET"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	resolve := func(string) (*ToUnicodeCMap, string) { return nil, "WinAnsiEncoding" }
	got := ExtractText(ops, resolve)
	if got != "Hello World!\n" {
		t.Errorf("ExtractText = %q, want %q", got, "Hello World!\n")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	op := Operation{Operator: "Td", Operands: []model.Object{model.Integer(100), model.Integer(600)}}
	b, err := op.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(b) != "100 600 Td" {
		t.Errorf("Encode = %q, want %q", b, "100 600 Td")
	}
}

func TestParseInlineImage(t *testing.T) {
	content := []byte("q BI /W 1 /H 1 /BPC 8 /CS /G ID \x00 EI Q")
	ops, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	wantOperators := []string{"q", "EI", "Q"}
	if len(ops) != len(wantOperators) {
		t.Fatalf("got %d operations, want %d: %+v", len(ops), len(wantOperators), ops)
	}
	for i, op := range ops {
		if op.Operator != wantOperators[i] {
			t.Errorf("operation %d: got operator %q, want %q", i, op.Operator, wantOperators[i])
		}
	}

	img := ops[1].InlineImage
	if img == nil {
		t.Fatal("expected an InlineImage on the EI operation")
	}
	if string(img.Data) != "\x00" {
		t.Errorf("inline image data = %q, want a single zero byte", img.Data)
	}
	w, _ := img.Dict.Get("W")
	if w != model.Integer(1) {
		t.Errorf("inline image /W = %#v, want Integer(1)", w)
	}
	cs, _ := img.Dict.Get("CS")
	if cs != model.Name("G") {
		t.Errorf("inline image /CS = %#v, want Name(G)", cs)
	}
}

func TestInlineImageEncodeRoundTrip(t *testing.T) {
	dict := model.NewDictionary()
	dict.Set("W", model.Integer(1))
	dict.Set("H", model.Integer(1))
	img := &InlineImage{Dict: dict, Data: []byte{0xFF}}
	op := Operation{Operator: "EI", InlineImage: img}
	b, err := op.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	reparsed, err := Parse(b)
	if err != nil {
		t.Fatalf("re-parsing encoded inline image: %v\n%s", err, b)
	}
	if len(reparsed) != 1 || reparsed[0].InlineImage == nil {
		t.Fatalf("expected a single EI operation with an inline image, got %+v", reparsed)
	}
	if string(reparsed[0].InlineImage.Data) != "\xFF" {
		t.Errorf("round-tripped data = %q", reparsed[0].InlineImage.Data)
	}
}
