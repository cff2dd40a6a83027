package tokenizer

import "testing"

func tokens(t *testing.T, data string) []Token {
	t.Helper()
	tk := New([]byte(data))
	var out []Token
	for {
		tok, err := tk.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.Kind == EOF {
			break
		}
		out = append(out, tok)
	}
	return out
}

func TestNumbers(t *testing.T) {
	cases := []struct {
		in   string
		kind Kind
	}{
		{"123", Integer},
		{"-17", Integer},
		{"+3", Integer},
		{"3.14", Real},
		{"-.5", Real},
		{"4.", Real},
	}
	for _, c := range cases {
		toks := tokens(t, c.in)
		if len(toks) != 1 || toks[0].Kind != c.kind {
			t.Fatalf("%q: got %v, want kind %v", c.in, toks, c.kind)
		}
	}
}

func TestNameEscapes(t *testing.T) {
	toks := tokens(t, "/Name1 /A#42 /#2F")
	want := []string{"Name1", "AB", "/"}
	if len(toks) != 3 {
		t.Fatalf("got %d tokens, want 3: %v", len(toks), toks)
	}
	for i, w := range want {
		if toks[i].Kind != Name || toks[i].Value != w {
			t.Errorf("token %d = %+v, want Name %q", i, toks[i], w)
		}
	}
}

func TestLiteralStringEscapesAndNesting(t *testing.T) {
	toks := tokens(t, `(a\n\(b\)c) (nested (ok) here)`)
	if len(toks) != 2 {
		t.Fatalf("got %d tokens, want 2: %v", len(toks), toks)
	}
	if toks[0].Value != "a\n(b)c" {
		t.Errorf("got %q", toks[0].Value)
	}
	if toks[1].Value != "nested (ok) here" {
		t.Errorf("got %q", toks[1].Value)
	}
}

func TestLiteralStringOctalEscape(t *testing.T) {
	toks := tokens(t, `(\101\102\103)`)
	if len(toks) != 1 || toks[0].Value != "ABC" {
		t.Fatalf("got %+v", toks)
	}
}

func TestLiteralStringEOLNormalization(t *testing.T) {
	toks := tokens(t, "(a\r\nb\rc)")
	if len(toks) != 1 {
		t.Fatalf("got %+v", toks)
	}
	if toks[0].Value != "a\nb\nc" {
		t.Errorf("got %q", toks[0].Value)
	}
}

func TestLiteralStringNestingLimit(t *testing.T) {
	data := "("
	for i := 0; i < MaxNestingDepth+1; i++ {
		data += "("
	}
	tk := New([]byte(data))
	_, err := tk.Next()
	if err == nil {
		t.Fatal("expected nesting-limit error")
	}
}

func TestHexString(t *testing.T) {
	toks := tokens(t, "<48656C6C6F> <901FA3>")
	if len(toks) != 2 {
		t.Fatalf("got %+v", toks)
	}
	if toks[0].Value != "Hello" {
		t.Errorf("got %q", toks[0].Value)
	}
	// six hex digits decode to exactly three bytes.
	if len(toks[1].Value) != 3 {
		t.Errorf("got %d bytes, want 3", len(toks[1].Value))
	}
}

func TestHexStringOddNibble(t *testing.T) {
	toks := tokens(t, "<48656C6C6F5>")
	if len(toks) != 1 {
		t.Fatalf("got %+v", toks)
	}
	// "48656C6C6F5" -> 5 pairs "48 65 6C 6C 6F" + trailing "5" -> left-justified 0x50
	want := "Hello" + string(rune(0x50))
	if toks[0].Value != want {
		t.Errorf("got %q (%x), want %q (%x)", toks[0].Value, toks[0].Value, want, want)
	}
}

func TestDelimitersAndArraysDicts(t *testing.T) {
	toks := tokens(t, "[1 2 <</A 1>>] obj")
	kinds := []Kind{ArrayStart, Integer, Integer, DictStart, Name, Integer, DictEnd, ArrayEnd, Keyword}
	if len(toks) != len(kinds) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(kinds), toks)
	}
	for i, k := range kinds {
		if toks[i].Kind != k {
			t.Errorf("token %d kind = %v, want %v", i, toks[i].Kind, k)
		}
	}
}

func TestCommentsIgnored(t *testing.T) {
	toks := tokens(t, "1 % a comment\n2")
	if len(toks) != 2 || toks[0].Value != "1" || toks[1].Value != "2" {
		t.Fatalf("got %+v", toks)
	}
}

func TestIndirectReferenceLookahead(t *testing.T) {
	tk := New([]byte("12 0 R"))
	a, _ := tk.Peek()
	b, _ := tk.PeekPeek()
	if a.Kind != Integer || a.Value != "12" {
		t.Fatalf("Peek = %+v", a)
	}
	if b.Kind != Integer || b.Value != "0" {
		t.Fatalf("PeekPeek = %+v", b)
	}
}

func TestSkipBytesAndResume(t *testing.T) {
	tk := New([]byte("stream\nBINARYDATAendstream"))
	tok, _ := tk.Next()
	if tok.Kind != Keyword || tok.Value != "stream" {
		t.Fatalf("got %+v", tok)
	}
	// position is right after "stream"; caller skips the EOL marker itself.
	pos := tk.Pos()
	if tk.Bytes()[0] != '\n' {
		t.Fatalf("expected newline at %d, got %q", pos, tk.Bytes()[:1])
	}
	tk.SetPos(pos + 1)
	payload := tk.SkipBytes(10)
	if string(payload) != "BINARYDATA" {
		t.Fatalf("got %q", payload)
	}
	tok, _ = tk.Next()
	if tok.Kind != Keyword || tok.Value != "endstream" {
		t.Fatalf("got %+v", tok)
	}
}
