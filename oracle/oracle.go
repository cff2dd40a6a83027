// Package oracle implements the Compressibility Oracle & Object-Stream
// Builder (spec.md §4.7-§4.8): the predicate that decides whether an
// object may be packed into an /ObjStm container when saving with object
// streams, and the packer that groups eligible objects into containers and
// assembles their directory+body payload.
//
// The teacher never writes object streams at all (writer/writer.go only
// ever emits a classic xref table), so this package has no direct teacher
// analogue; it is built from spec knowledge (ISO 32000-1 §7.5.7) and
// exercises the same model/filter packages the teacher's own writer and
// reader do.
package oracle

import "github.com/pdfgraph/pdfgraph/model"

// CanBeCompressed reports whether obj, addressed by id, may be moved into
// an object stream. An object is ineligible if any of the five rules in
// spec.md §4.7 holds; everything else — including the Catalog of a
// non-linearized document, Info, page-tree nodes and arbitrary user
// dictionaries — is eligible, even when referenced from the trailer.
func CanBeCompressed(id model.ObjectId, obj model.Object, encryptID model.ObjectId, linearized bool) bool {
	if id.Generation != 0 {
		return false
	}
	if _, isStream := obj.(model.Stream); isStream {
		return false
	}
	dict, isDict := obj.(*model.Dictionary)
	if isDict {
		if t, _ := dict.Get("Type"); t == model.Name("XRef") || t == model.Name("ObjStm") {
			return false
		}
	}
	if encryptID != (model.ObjectId{}) && id == encryptID {
		return false
	}
	if linearized && isDict {
		if t, _ := dict.Get("Type"); t == model.Name("Catalog") {
			return false
		}
	}
	return true
}

// IsLinearized scans doc's object map for a dictionary carrying a top-level
// /Linearized key with a numeric value, per spec.md §4.7's purely
// structural detection rule.
func IsLinearized(doc *model.Document) bool {
	for _, obj := range doc.Objects {
		dict, ok := model.AsDict(obj)
		if !ok {
			continue
		}
		if v, ok := dict.Get("Linearized"); ok {
			if _, isNum := model.AsFloat(v); isNum {
				return true
			}
		}
	}
	return false
}

// EncryptDictID resolves the ObjectId targeted by the trailer's /Encrypt
// entry, or the zero ObjectId if the trailer has no /Encrypt, or it is a
// direct dictionary (in which case there is no indirect object to exclude).
func EncryptDictID(trailer *model.Dictionary) model.ObjectId {
	v, ok := trailer.Get("Encrypt")
	if !ok {
		return model.ObjectId{}
	}
	ref, ok := v.(model.Reference)
	if !ok {
		return model.ObjectId{}
	}
	return model.ObjectId(ref)
}
