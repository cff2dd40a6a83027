package pdfgraph

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/pdfgraph/pdfgraph/model"
)

func TestDecodeStreamFlate(t *testing.T) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write([]byte("hello stream"))
	zw.Close()

	dict := model.NewDictionary()
	dict.Set("Filter", model.Name("FlateDecode"))
	s := model.Stream{Dict: dict, Content: buf.Bytes()}

	got, err := DecodeStream(s)
	if err != nil {
		t.Fatalf("DecodeStream: %v", err)
	}
	if string(got) != "hello stream" {
		t.Errorf("DecodeStream = %q, want %q", got, "hello stream")
	}
}

func TestDecodeStreamNoFilterPassesThrough(t *testing.T) {
	dict := model.NewDictionary()
	s := model.Stream{Dict: dict, Content: []byte("raw bytes")}
	got, err := DecodeStream(s)
	if err != nil {
		t.Fatalf("DecodeStream: %v", err)
	}
	if string(got) != "raw bytes" {
		t.Errorf("DecodeStream = %q, want %q", got, "raw bytes")
	}
}
