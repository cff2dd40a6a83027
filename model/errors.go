package model

import "fmt"

// ErrorKind is the machine-checkable taxonomy exposed across the library
// boundary (spec.md §6.2), so a caller can branch on the kind of failure
// (e.g. prompt for a password on Decryption, but not on Parse).
type ErrorKind uint8

const (
	ObjectNotFound ErrorKind = iota
	ObjectType
	ReferenceCycle
	ReferenceLimit
	ParseError
	XrefError
	TrailerError
	HeaderError
	DecryptionError
	UnsupportedFilter
	ContentDecodeError
	IOError
	Unimplemented
)

func (k ErrorKind) String() string {
	switch k {
	case ObjectNotFound:
		return "ObjectNotFound"
	case ObjectType:
		return "ObjectType"
	case ReferenceCycle:
		return "ReferenceCycle"
	case ReferenceLimit:
		return "ReferenceLimit"
	case ParseError:
		return "Parse"
	case XrefError:
		return "Xref"
	case TrailerError:
		return "Trailer"
	case HeaderError:
		return "Header"
	case DecryptionError:
		return "Decryption"
	case UnsupportedFilter:
		return "UnsupportedFilter"
	case ContentDecodeError:
		return "ContentDecode"
	case IOError:
		return "IO"
	case Unimplemented:
		return "Unimplemented"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned across the Document facade
// boundary. It follows the teacher's own fmt.Errorf("...: %w", err)
// wrapping convention (see reader/parser/parser.go) but adds a stable Kind
// and, where relevant, a byte Offset, so front-ends can branch on failure
// class rather than parse message strings.
type Error struct {
	Kind ErrorKind

	// Offset is the byte offset of a Parse failure, or zero.
	Offset int64

	// Detail is a short machine-oriented detail string: a filter name for
	// UnsupportedFilter, an xref sub-kind for XrefError, a decryption
	// sub-kind ("IncorrectPassword", "UnsupportedRevision", ...) for
	// DecryptionError, and so on.
	Detail string

	// Expected/Found are populated for ObjectType errors.
	Expected, Found string

	Err error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	switch e.Kind {
	case ParseError:
		return fmt.Sprintf("pdfgraph: parse error at offset %d: %s", e.Offset, e.msg())
	case ObjectType:
		return fmt.Sprintf("pdfgraph: expected %s, found %s", e.Expected, e.Found)
	case UnsupportedFilter:
		return fmt.Sprintf("pdfgraph: unsupported filter %q", e.Detail)
	default:
		if e.Detail != "" {
			return fmt.Sprintf("pdfgraph: %s (%s): %s", e.Kind, e.Detail, e.msg())
		}
		return fmt.Sprintf("pdfgraph: %s: %s", e.Kind, e.msg())
	}
}

func (e *Error) msg() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "no further detail"
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an Error of the given kind wrapping cause (which may be
// nil).
func NewError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

// NewParseError builds a Parse error carrying offset.
func NewParseError(offset int64, cause error) *Error {
	return &Error{Kind: ParseError, Offset: offset, Err: cause}
}

// NewObjectTypeError builds an ObjectType error.
func NewObjectTypeError(expected, found string) *Error {
	return &Error{Kind: ObjectType, Expected: expected, Found: found}
}

// NewDetailedError builds an error of kind carrying a free-form Detail
// string (xref sub-kind, decryption sub-kind, filter name, ...).
func NewDetailedError(kind ErrorKind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: cause}
}
