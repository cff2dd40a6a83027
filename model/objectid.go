package model

import "fmt"

// ObjectId addresses an indirect object by object number and generation,
// following ISO 32000-1 §7.3.10.
type ObjectId struct {
	Number     uint32
	Generation uint16
}

// FreeListHead is the generation value reserved for the head of the
// circular free list (object 0), per ISO 32000-1 §7.5.4.
const FreeListHead uint16 = 65535

func (id ObjectId) String() string {
	return fmt.Sprintf("%d %d R", id.Number, id.Generation)
}

// IsNew reports whether id was minted by this library (generation 0),
// as opposed to read from an existing file with a non-zero generation.
func (id ObjectId) IsNew() bool {
	return id.Generation == 0
}
