// Package parser implements the PDF object grammar (spec.md §4.2), turning
// a tokenizer.Tokenizer into model.Object values. It does not know about
// filters, encryption or the xref table — it stops at producing a deferred
// Stream when a /Length is an indirect reference, leaving the reader
// package to resolve and fill stream content.
//
// Grounded on the teacher's reader/parser/parser.go (the ParseObject /
// parseArray / parseDict / parseNumericOrIndRef state machine), adapted to
// build model.Dictionary (ordered) instead of a plain map, and to compute
// absolute file offsets for deferred streams instead of leaving that to a
// higher layer.
package parser

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/log"
	"github.com/pdfgraph/pdfgraph/model"
	"github.com/pdfgraph/pdfgraph/tokenizer"
)

// Parser parses PDF objects out of a byte slice.
type Parser struct {
	tokens *tokenizer.Tokenizer
	data   []byte

	// ContentStreamMode disallows indirect references (illegal inside a
	// content stream) and allows bare Keyword tokens to surface as
	// operators instead of erroring.
	ContentStreamMode bool
}

// New builds a Parser over data, starting at byte offset 0.
func New(data []byte) *Parser {
	return &Parser{tokens: tokenizer.New(data), data: data}
}

// Pos returns the current byte offset of the parser's tokenizer.
func (p *Parser) Pos() int { return p.tokens.Pos() }

// SetPos relocates the parser to offset and resumes tokenizing from there.
func (p *Parser) SetPos(offset int) { p.tokens.SetPos(offset) }

// PeekRaw and NextRaw expose the underlying token stream directly, for
// callers (the xref package's classic-section parser) that need to read
// plain integers and keywords without ParseObject's "int int R" lookahead
// reinterpreting them as a Reference.
func (p *Parser) PeekRaw() (tokenizer.Token, error) { return p.tokens.Peek() }
func (p *Parser) NextRaw() (tokenizer.Token, error) { return p.tokens.Next() }

// SkipRaw consumes and returns the next n raw bytes from the current
// position, bypassing tokenization. Used by inline-image parsing to read the
// binary payload between "ID" and "EI" without the tokenizer misreading it
// as PDF syntax.
func (p *Parser) SkipRaw(n int) []byte { return p.tokens.SkipBytes(n) }

// Remaining returns every byte from the current position to the end of the
// input, without advancing the parser. Used to scan for the "EI" boundary
// terminating an inline image's data.
func (p *Parser) Remaining() []byte { return p.tokens.Bytes() }

// ParseObject parses a single PDF object starting at the parser's current
// position. It is the entry point for the `value` production of spec.md
// §4.2's grammar.
func (p *Parser) ParseObject() (model.Object, error) {
	tk, err := p.tokens.Next()
	if err != nil {
		return nil, err
	}
	return p.parseFromToken(tk)
}

func (p *Parser) parseFromToken(tk tokenizer.Token) (model.Object, error) {
	switch tk.Kind {
	case tokenizer.EOF:
		return nil, model.NewParseError(int64(p.tokens.Pos()), fmt.Errorf("unexpected end of input"))
	case tokenizer.Name:
		return model.Name(tk.Value), nil
	case tokenizer.StringLiteral:
		return model.String{Bytes: []byte(tk.Value), Format: model.Literal}, nil
	case tokenizer.StringHex:
		return model.String{Bytes: []byte(tk.Value), Format: model.Hexadecimal}, nil
	case tokenizer.ArrayStart:
		return p.parseArray()
	case tokenizer.DictStart:
		return p.parseDict()
	case tokenizer.Real:
		f, err := tk.Float()
		if err != nil {
			return nil, model.NewParseError(int64(p.tokens.Pos()), err)
		}
		return model.Real(f), nil
	case tokenizer.Integer:
		return p.parseNumericOrIndRef(tk)
	case tokenizer.Keyword:
		return p.parseKeyword(tk.Value)
	default:
		return nil, model.NewParseError(int64(p.tokens.Pos()), fmt.Errorf("unexpected token %v", tk.Kind))
	}
}

func (p *Parser) parseArray() (model.Array, error) {
	var a model.Array
	for {
		tk, err := p.tokens.Peek()
		if err != nil {
			return nil, err
		}
		switch tk.Kind {
		case tokenizer.ArrayEnd:
			p.tokens.Next()
			return a, nil
		case tokenizer.EOF:
			return nil, model.NewParseError(int64(p.tokens.Pos()), fmt.Errorf("unterminated array"))
		default:
			obj, err := p.ParseObject()
			if err != nil {
				return nil, err
			}
			a = append(a, obj)
		}
	}
}

func (p *Parser) parseDict() (*model.Dictionary, error) {
	d := model.NewDictionary()
	for {
		tk, err := p.tokens.Peek()
		if err != nil {
			return nil, err
		}
		switch tk.Kind {
		case tokenizer.DictEnd:
			p.tokens.Next()
			return d, nil
		case tokenizer.EOF:
			return nil, model.NewParseError(int64(p.tokens.Pos()), fmt.Errorf("unterminated dictionary"))
		case tokenizer.Name:
			key := tk.Value
			p.tokens.Next() // consume the key
			obj, err := p.ParseObject()
			if err != nil {
				return nil, err
			}
			// "Specifying the null object as the value of a dictionary
			// entry... shall be equivalent to omitting the entry
			// entirely" (ISO 32000-1 §7.3.7).
			if _, isNull := obj.(model.Null); !isNull {
				d.Set(key, obj)
			}
		default:
			return nil, model.NewParseError(int64(p.tokens.Pos()), fmt.Errorf("expected name key in dictionary, got %v", tk.Kind))
		}
	}
}

func (p *Parser) parseKeyword(v string) (model.Object, error) {
	switch v {
	case "null":
		return model.Null{}, nil
	case "true":
		return model.Boolean(true), nil
	case "false":
		return model.Boolean(false), nil
	default:
		if p.ContentStreamMode {
			return model.Operator(v), nil
		}
		return nil, model.NewParseError(int64(p.tokens.Pos()), fmt.Errorf("unexpected keyword %q", v))
	}
}

// parseNumericOrIndRef implements the "int int R" lookahead: a bare integer
// is an Integer, but if followed by a second integer and the keyword "R" it
// is a Reference; in ContentStreamMode no reference is possible at all.
func (p *Parser) parseNumericOrIndRef(tk tokenizer.Token) (model.Object, error) {
	i, err := tk.Int()
	if err != nil {
		return nil, model.NewParseError(int64(p.tokens.Pos()), err)
	}

	if p.ContentStreamMode {
		return model.Integer(i), nil
	}

	next, err := p.tokens.Peek()
	if err != nil {
		return nil, err
	}
	if next.Kind != tokenizer.Integer {
		return model.Integer(i), nil
	}
	gen, err := next.Int()
	if err != nil {
		return model.Integer(i), nil
	}

	nextNext, _ := p.tokens.PeekPeek()
	if nextNext.Kind != tokenizer.Keyword || nextNext.Value != "R" {
		return model.Integer(i), nil
	}

	p.tokens.Next() // consume generation
	p.tokens.Next() // consume "R"
	return model.Reference{Number: uint32(i), Generation: uint16(gen)}, nil
}

// ParseIndirectObject parses one complete "N G obj value (stream…endstream)?
// endobj" unit starting at offset. If value is a dictionary immediately
// followed by a stream keyword, the returned object is a model.Stream value; its
// Content is filled in already when /Length is a direct Integer, or left
// nil (IsDeferred() == true) when /Length is an indirect Reference, per
// spec.md §4.2's deferred-stream rule.
func (p *Parser) ParseIndirectObject(offset int) (model.ObjectId, model.Object, error) {
	p.SetPos(offset)

	numTok, err := p.tokens.Next()
	if err != nil {
		return model.ObjectId{}, nil, err
	}
	if numTok.Kind != tokenizer.Integer {
		return model.ObjectId{}, nil, model.NewParseError(int64(offset), fmt.Errorf("expected object number"))
	}
	num, _ := numTok.Int()

	genTok, err := p.tokens.Next()
	if err != nil || genTok.Kind != tokenizer.Integer {
		return model.ObjectId{}, nil, model.NewParseError(int64(p.tokens.Pos()), fmt.Errorf("expected generation number"))
	}
	gen, _ := genTok.Int()

	objTok, err := p.tokens.Next()
	if err != nil || objTok.Kind != tokenizer.Keyword || objTok.Value != "obj" {
		return model.ObjectId{}, nil, model.NewParseError(int64(p.tokens.Pos()), fmt.Errorf("expected 'obj' keyword"))
	}

	id := model.ObjectId{Number: uint32(num), Generation: uint16(gen)}
	if log.ParseEnabled() {
		log.Parse.Printf("ParseIndirectObject: %s at offset %d\n", id, offset)
	}

	value, err := p.ParseObject()
	if err != nil {
		return id, nil, err
	}

	if dict, ok := value.(*model.Dictionary); ok {
		streamTok, err := p.tokens.Peek()
		if err == nil && streamTok.Kind == tokenizer.Keyword && streamTok.Value == "stream" {
			p.tokens.Next()
			value, err = p.parseStreamBody(dict)
			if err != nil {
				return id, nil, err
			}
		}
	}

	return id, value, nil
}

// parseStreamBody computes the start position of stream data immediately
// following the "stream" keyword: an EOL marker (CRLF, or a bare LF) must
// separate the keyword from the data (ISO 32000-1 §7.3.8.1); a bare CR is
// non-conforming but tolerated, matching the teacher's leniency in
// reader/file/streams.go.
func (p *Parser) parseStreamBody(dict *model.Dictionary) (model.Object, error) {
	pos := p.tokens.Pos()
	data := p.data
	if pos < len(data) && data[pos] == '\r' {
		pos++
	}
	if pos < len(data) && data[pos] == '\n' {
		pos++
	}

	st := model.NewDeferredStream(dict, int64(pos))

	if lengthObj, ok := dict.Get("Length"); ok {
		if length, ok := lengthObj.(model.Integer); ok {
			end := pos + int(length)
			if end < pos || end > len(data) {
				return nil, model.NewParseError(int64(pos), fmt.Errorf("stream length %d overruns input", length))
			}
			st = st.WithContent(append([]byte(nil), data[pos:end]...))
			p.tokens.SetPos(end)
		} else {
			if log.ParseEnabled() {
				log.Parse.Println("parseStreamBody: /Length is an indirect reference, deferring")
			}
			p.tokens.SetPos(pos)
		}
	} else {
		p.tokens.SetPos(pos)
	}

	// Resynchronize on "endstream"/"endobj": direct-Length streams consume
	// exactly `length` bytes above and should already be positioned right
	// before "endstream"; deferred streams leave that to the reader package
	// once /Length has been resolved through the xref table.
	if !st.IsDeferred() {
		tk, err := p.tokens.Peek()
		if err == nil && tk.Kind == tokenizer.Keyword && tk.Value == "endstream" {
			p.tokens.Next()
		}
	}

	return st, nil
}
