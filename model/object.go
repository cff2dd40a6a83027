// Package model implements the PDF object model: the tagged-union Object
// value type, the ordered Dictionary container, the Stream container and
// the ObjectId/Xref types that address objects within a Document.
//
// It is adapted from the teacher's parser.Object interface
// (itself adapted from the pdfcpu authors), generalized so a Dictionary
// preserves key insertion order — a property the original map-backed
// model.ObjDict does not have, but which this spec's round-trip law
// requires.
package model

import (
	"fmt"
	"strconv"
)

// Object is a node of the PDF object graph: one of the nine primitive
// types plus an indirect Reference. It is never nil; the PDF null object
// is represented by its own concrete type, Null.
type Object interface {
	// Clone returns a deep copy, preserving the concrete type.
	Clone() Object
	// String returns a short debug representation, not the PDF
	// serialization (see writer.Write for that).
	String() string
}

// Null represents the PDF null object.
type Null struct{}

func (Null) Clone() Object  { return Null{} }
func (Null) String() string { return "null" }

// Boolean represents a PDF boolean object.
type Boolean bool

func (b Boolean) Clone() Object  { return b }
func (b Boolean) String() string { return strconv.FormatBool(bool(b)) }

// Integer represents a PDF integer object, signed 64-bit per spec.
type Integer int64

func (i Integer) Clone() Object  { return i }
func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }

// Real represents a PDF numeric object with a fractional part.
type Real float64

func (f Real) Clone() Object  { return f }
func (f Real) String() string { return strconv.FormatFloat(float64(f), 'f', -1, 64) }

// Name represents a PDF name object. It stores the decoded bytes, without
// the leading "/" and without #hh escapes (those are a lexical detail
// handled by the parser and the writer).
type Name string

func (n Name) Clone() Object  { return n }
func (n Name) String() string { return "/" + string(n) }

// StringFormat records whether a String object was written as a literal
// "(...)" or a hexadecimal "<...>" string, so the writer can round-trip the
// original form.
type StringFormat uint8

const (
	Literal StringFormat = iota
	Hexadecimal
)

// String represents a PDF string object: raw bytes plus the format they
// were (or should be) written in.
type String struct {
	Bytes  []byte
	Format StringFormat
}

func (s String) Clone() Object {
	return String{Bytes: append([]byte(nil), s.Bytes...), Format: s.Format}
}

func (s String) String() string {
	if s.Format == Hexadecimal {
		return fmt.Sprintf("<%x>", s.Bytes)
	}
	return fmt.Sprintf("(%s)", s.Bytes)
}

// Operator represents a content-stream operator keyword (Tj, re, BT, ...).
// It only ever appears as a value produced while parsing a content stream
// in Parser.ContentStreamMode; it is never valid inside an object graph.
// Grounded on the teacher's model.ObjCommand.
type Operator string

func (o Operator) Clone() Object  { return o }
func (o Operator) String() string { return string(o) }

// Array represents an ordered sequence of Objects.
type Array []Object

func (a Array) Clone() Object {
	out := make(Array, len(a))
	for i, o := range a {
		out[i] = o.Clone()
	}
	return out
}

func (a Array) String() string {
	return fmt.Sprintf("%v", []Object(a))
}

// Reference is an indirect reference to another object. References never
// point to another Reference directly: the object map always stores the
// direct value at an ObjectId, and resolution happens at lookup time.
type Reference ObjectId

func (r Reference) Clone() Object  { return r }
func (r Reference) String() string { return ObjectId(r).String() }

// Stream is a dictionary plus the raw (possibly filtered) bytes that
// follow it in the source file, or that will be emitted after it on write.
type Stream struct {
	Dict *Dictionary

	// Content holds the stream bytes exactly as they should appear in the
	// serialized PDF (i.e. still filtered/encoded, if a filter applies).
	Content []byte

	// StartPosition is the byte offset into the source buffer at which
	// Content begins, recorded when /Length was an indirect reference and
	// so could not be resolved during the first parsing pass (see
	// reader.resolveDeferredLengths). Zero once Content has been
	// filled in, or for streams that were never deferred.
	StartPosition int64

	// deferredLength records whether this stream's /Length was an
	// indirect reference at parse time; such a stream must be re-sliced
	// from the source buffer (via StartPosition) before it can be written
	// anywhere else. It is unrelated to the compressibility oracle
	// (streams are never ObjStm-eligible, see oracle.CanBeCompressed).
	deferredLength bool
}

func (s Stream) Clone() Object {
	return Stream{
		Dict:           s.Dict.Clone().(*Dictionary),
		Content:        append([]byte(nil), s.Content...),
		StartPosition:  s.StartPosition,
		deferredLength: s.deferredLength,
	}
}

func (s Stream) String() string {
	return fmt.Sprintf("stream(%d bytes)", len(s.Content))
}

// IsDeferred reports whether Content has not yet been sliced out of the
// source buffer because /Length was an indirect reference.
func (s Stream) IsDeferred() bool { return s.deferredLength }

// NewDeferredStream builds a Stream whose Content must still be resolved
// by re-slicing the source buffer at [StartPosition, StartPosition+length).
func NewDeferredStream(dict *Dictionary, startPosition int64) Stream {
	return Stream{Dict: dict, StartPosition: startPosition, deferredLength: true}
}

// WithContent returns a copy of s with Content filled in and the deferred
// flag cleared.
func (s Stream) WithContent(content []byte) Stream {
	s.Content = content
	s.deferredLength = false
	s.StartPosition = 0
	return s
}

// Resolve dereferences o if it is a Reference, using resolve as the object
// map lookup. Direct objects are returned unchanged. This bounds a single
// hop; callers needing the full chain-following behaviour (bounded at 128
// hops per spec.md §5) should use the root pdfgraph package's
// Document.GetObject.
func Resolve(o Object, resolve func(ObjectId) (Object, bool)) Object {
	ref, ok := o.(Reference)
	if !ok {
		return o
	}
	v, ok := resolve(ObjectId(ref))
	if !ok {
		return Null{}
	}
	return v
}

// AsInt returns the integer value of o, accepting both Integer and Real
// (truncated), the same leniency IsNumber grants in the teacher's
// model/types.go.
func AsInt(o Object) (int64, bool) {
	switch v := o.(type) {
	case Integer:
		return int64(v), true
	case Real:
		return int64(v), true
	default:
		return 0, false
	}
}

// AsFloat returns the numeric value of o, accepting Integer and Real.
func AsFloat(o Object) (float64, bool) {
	switch v := o.(type) {
	case Integer:
		return float64(v), true
	case Real:
		return float64(v), true
	default:
		return 0, false
	}
}

// AsName returns the name value of o, if any.
func AsName(o Object) (Name, bool) {
	n, ok := o.(Name)
	return n, ok
}

// AsDict returns the dictionary of o: a direct Dictionary, or the
// dictionary of a Stream.
func AsDict(o Object) (*Dictionary, bool) {
	switch v := o.(type) {
	case *Dictionary:
		return v, true
	case Stream:
		return v.Dict, true
	default:
		return nil, false
	}
}

// AsArray returns the array value of o, if any.
func AsArray(o Object) (Array, bool) {
	a, ok := o.(Array)
	return a, ok
}

// AsString returns the byte content of o if it is a String.
func AsString(o Object) ([]byte, bool) {
	s, ok := o.(String)
	if !ok {
		return nil, false
	}
	return s.Bytes, true
}
