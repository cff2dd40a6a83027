package contentstream

import (
	"bytes"

	"github.com/pdfgraph/pdfgraph/model"
)

// ResolveFont looks up the ToUnicode CMap and fallback /Encoding name for a
// font resource name (as used by the Tf operator), returning a nil cmap and
// empty encodingName if the font can't be resolved.
type ResolveFont func(fontName string) (cmap *ToUnicodeCMap, encodingName string)

// ExtractText renders the text shown by Tj/TJ/'/" operators inside ops,
// tracking the current font via Tf so each string is decoded with the right
// ToUnicode CMap or fallback encoding (spec.md §4.5). A BT…ET block that
// shows at least one string contributes a single trailing newline, matching
// a simple per-line-of-text convention.
func ExtractText(ops []Operation, resolveFont ResolveFont) string {
	var out bytes.Buffer
	var cmap *ToUnicodeCMap
	var encodingName string
	wroteInBlock := false

	show := func(s model.String) {
		out.WriteString(DecodeText(s.Bytes, cmap, encodingName))
		wroteInBlock = true
	}

	for _, op := range ops {
		switch op.Operator {
		case "BT":
			wroteInBlock = false
		case "ET":
			if wroteInBlock {
				out.WriteByte('\n')
			}
			wroteInBlock = false
		case "Tf":
			if len(op.Operands) >= 2 && resolveFont != nil {
				if name, ok := op.Operands[0].(model.Name); ok {
					cmap, encodingName = resolveFont(string(name))
				}
			}
		case "Tj", "'":
			if len(op.Operands) == 1 {
				if s, ok := op.Operands[0].(model.String); ok {
					show(s)
				}
			}
		case "\"":
			if len(op.Operands) == 3 {
				if s, ok := op.Operands[2].(model.String); ok {
					show(s)
				}
			}
		case "TJ":
			if len(op.Operands) == 1 {
				if arr, ok := op.Operands[0].(model.Array); ok {
					for _, el := range arr {
						if s, ok := el.(model.String); ok {
							show(s)
						}
					}
				}
			}
		}
	}
	return out.String()
}
