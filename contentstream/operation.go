// Package contentstream decodes and re-encodes the operator/operand token
// lists inside a page's content stream, and extracts text from them
// (spec.md §4.5, a boundary concern specified minimally compared to the
// core object graph). Grounded on original_source/src/content.rs's plain
// `Operation{operator, operands}` shape, not the teacher's own
// contentstream/commands.go ~50-type Op* operator hierarchy: spec.md is
// explicit that the core's only obligation is re-emitting operands with the
// Writer's own value rules, so a typed hierarchy buys nothing here.
package contentstream

import (
	"bytes"
	"fmt"

	"github.com/pdfgraph/pdfgraph/model"
	"github.com/pdfgraph/pdfgraph/writer"
)

// Operation is one content-stream instruction: zero or more operands
// followed by an operator keyword, e.g. "100 600 Td" or "/F1 48 Tf".
// InlineImage is non-nil only for the "EI" operator terminating a
// BI…ID…EI inline-image form, in which case Operands is always empty.
type Operation struct {
	Operator    string
	Operands    []model.Object
	InlineImage *InlineImage
}

// InlineImage holds the characteristic dictionary and raw sample data of a
// BI…ID…EI inline image (ISO 32000-1 §8.9.7).
type InlineImage struct {
	Dict *model.Dictionary
	Data []byte
}

// Encode renders op back to content-stream bytes, re-emitting operands with
// the same rules as the top-level Writer (spec.md §4.5).
func (op Operation) Encode() ([]byte, error) {
	if op.InlineImage != nil {
		return op.InlineImage.encode()
	}

	var buf bytes.Buffer
	for _, operand := range op.Operands {
		b, err := writer.SerializeOperand(operand)
		if err != nil {
			return nil, fmt.Errorf("contentstream: operand of %q: %w", op.Operator, err)
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.Write(b)
	}
	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}
	buf.WriteString(op.Operator)
	return buf.Bytes(), nil
}

func (img *InlineImage) encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("BI\n")
	first := true
	var rangeErr error
	img.Dict.Range(func(key string, value model.Object) bool {
		if !first {
			buf.WriteByte('\n')
		}
		first = false
		b, err := writer.SerializeOperand(value)
		if err != nil {
			rangeErr = err
			return false
		}
		buf.WriteString("/" + key + " ")
		buf.Write(b)
		return true
	})
	if rangeErr != nil {
		return nil, rangeErr
	}
	buf.WriteString("\nID\n")
	buf.Write(img.Data)
	buf.WriteString("\nEI")
	return buf.Bytes(), nil
}
