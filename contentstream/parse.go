package contentstream

import (
	"fmt"

	"github.com/pdfgraph/pdfgraph/model"
	"github.com/pdfgraph/pdfgraph/parser"
	"github.com/pdfgraph/pdfgraph/tokenizer"
)

// Parse decodes content into an ordered list of Operations, per spec.md
// §4.2's content-stream sub-grammar: operand* operator, plus the special
// BI…ID…EI inline-image form.
func Parse(content []byte) ([]Operation, error) {
	p := parser.New(content)
	p.ContentStreamMode = true

	var ops []Operation
	var operands []model.Object

	for {
		tk, err := p.PeekRaw()
		if err != nil {
			return nil, err
		}
		if tk.Kind == tokenizer.EOF {
			if len(operands) > 0 {
				return nil, fmt.Errorf("contentstream: %d operand(s) left without an operator", len(operands))
			}
			return ops, nil
		}

		obj, err := p.ParseObject()
		if err != nil {
			return nil, err
		}

		op, isOperator := obj.(model.Operator)
		if !isOperator {
			operands = append(operands, obj)
			continue
		}

		if string(op) == "BI" {
			img, err := parseInlineImageBody(p)
			if err != nil {
				return nil, err
			}
			if err := expectOperator(p, "EI"); err != nil {
				return nil, err
			}
			ops = append(ops, Operation{Operator: "EI", InlineImage: img})
			operands = nil
			continue
		}

		ops = append(ops, Operation{Operator: string(op), Operands: operands})
		operands = nil
	}
}

func expectOperator(p *parser.Parser, want string) error {
	obj, err := p.ParseObject()
	if err != nil {
		return err
	}
	op, ok := obj.(model.Operator)
	if !ok || string(op) != want {
		return fmt.Errorf("contentstream: expected operator %q, got %T(%v)", want, obj, obj)
	}
	return nil
}

// parseInlineImageBody parses the characteristic dictionary of a BI…ID…EI
// inline image (the parser has already consumed "BI") and the raw sample
// data up to, but not including, the whitespace preceding "EI"; the caller
// is left positioned to parse "EI" itself as an ordinary operator.
//
// The ID-to-EI payload length is found heuristically (scanning for
// whitespace-delimited "EI") rather than computed exactly from W/H/BPC/CS
// as ISO 32000-1 §8.9.7 allows: spec.md scopes content-stream decoding as a
// boundary concern, and this library never decodes the pixel data itself.
func parseInlineImageBody(p *parser.Parser) (*InlineImage, error) {
	dict := model.NewDictionary()
	for {
		tk, err := p.PeekRaw()
		if err != nil {
			return nil, err
		}
		if tk.Kind == tokenizer.Keyword && tk.Value == "ID" {
			p.NextRaw()
			break
		}
		if tk.Kind == tokenizer.EOF {
			return nil, fmt.Errorf("contentstream: unterminated inline image, missing ID")
		}

		key, err := p.ParseObject()
		if err != nil {
			return nil, err
		}
		name, ok := key.(model.Name)
		if !ok {
			return nil, fmt.Errorf("contentstream: inline image expects a name key, got %T", key)
		}
		val, err := p.ParseObject()
		if err != nil {
			return nil, err
		}
		dict.Set(string(name), val)
	}

	p.SkipRaw(1) // the single whitespace byte ISO 32000-1 §8.9.7 requires after ID

	remaining := p.Remaining()
	end := findInlineImageDataEnd(remaining)
	if end < 0 {
		return nil, fmt.Errorf("contentstream: unterminated inline image, missing EI")
	}
	data := p.SkipRaw(end)
	return &InlineImage{Dict: dict, Data: data}, nil
}

// findInlineImageDataEnd returns the length of the image payload inside
// data, i.e. the offset of the whitespace byte immediately preceding a
// whitespace-delimited "EI" marker. Returns -1 if no such marker exists.
func findInlineImageDataEnd(data []byte) int {
	for i := 0; i+1 < len(data); i++ {
		if data[i] != 'E' || data[i+1] != 'I' {
			continue
		}
		if i > 0 && !isWhitespaceByte(data[i-1]) {
			continue
		}
		if i+2 < len(data) && !isWhitespaceByte(data[i+2]) {
			continue
		}
		if i == 0 {
			return 0
		}
		return i - 1
	}
	return -1
}

func isWhitespaceByte(b byte) bool {
	switch b {
	case 0, 9, 10, 12, 13, 32:
		return true
	default:
		return false
	}
}
