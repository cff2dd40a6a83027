package reader

import (
	"bytes"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/log"
	"github.com/pdfgraph/pdfgraph/filter"
	"github.com/pdfgraph/pdfgraph/model"
	"github.com/pdfgraph/pdfgraph/parser"
)

// unpackCompressedObjects resolves every EntryCompressed xref entry by
// decoding its containing object stream and inserting the objects it packs
// into doc.Objects at generation 0, per ISO 32000-1 §7.5.7. Grounded on the
// teacher's processObjectStream (reader/file/object_streams.go): the same
// prolog-parsing algorithm (N pairs of object-number/offset integers,
// tolerating a NUL byte in place of whitespace), generalized to use this
// library's filter/parser packages and to cache decoded containers across
// multiple compressed entries instead of a per-object-number map.
func unpackCompressedObjects(doc *model.Document) error {
	containers := map[uint32][]uint32{} // container object number -> member object numbers
	for num, entry := range doc.Xref.Entries {
		if entry.Kind != model.EntryCompressed {
			continue
		}
		containers[entry.Container] = append(containers[entry.Container], num)
	}
	if len(containers) == 0 {
		return nil
	}

	if log.ReadEnabled() {
		log.Read.Printf("unpackCompressedObjects: %d object streams to decode\n", len(containers))
	}

	decodedCache := map[uint32][]model.Object{}
	for containerNum, members := range containers {
		objects, ok := decodedCache[containerNum]
		if !ok {
			var err error
			objects, err = decodeObjectStream(doc, containerNum)
			if err != nil {
				return err
			}
			decodedCache[containerNum] = objects
		}

		for _, num := range members {
			entry, _ := doc.Xref.Get(num)
			if int(entry.Index) >= len(objects) {
				return model.NewDetailedError(model.XrefError, "ObjStmIndexOutOfRange", nil)
			}
			id := model.ObjectId{Number: num, Generation: 0}
			doc.Objects[id] = objects[entry.Index]
		}
	}
	return nil
}

func decodeObjectStream(doc *model.Document, containerNum uint32) ([]model.Object, error) {
	containerEntry, ok := doc.Xref.Get(containerNum)
	if !ok || containerEntry.Kind != model.EntryNormal {
		return nil, model.NewDetailedError(model.XrefError, "MissingObjStmContainer", nil)
	}
	containerID := model.ObjectId{Number: containerNum, Generation: containerEntry.Generation}
	obj, ok := doc.Objects[containerID]
	if !ok {
		return nil, model.NewDetailedError(model.XrefError, "ObjStmContainerNotMaterialized", nil)
	}
	stream, ok := obj.(model.Stream)
	if !ok {
		return nil, model.NewDetailedError(model.XrefError, "ObjStmContainerNotAStream", nil)
	}
	return unpackObjectStream(stream)
}

// unpackObjectStream decodes a single object stream's content (already
// decrypted, still filtered) into its constituent objects, in container
// order.
func unpackObjectStream(stream model.Stream) ([]model.Object, error) {
	chain, err := buildFilterChain(stream.Dict)
	if err != nil {
		return nil, err
	}
	decoded, err := filter.Decode(stream.Content, chain)
	if err != nil {
		return nil, err
	}

	nObj, ok := dictInt(stream.Dict, "N")
	if !ok {
		return nil, model.NewDetailedError(model.ParseError, "MissingN", nil)
	}
	first, ok := dictInt(stream.Dict, "First")
	if !ok || int(first) > len(decoded) {
		return nil, model.NewDetailedError(model.ParseError, "InvalidFirst", nil)
	}

	// The prolog is N pairs of (object number, offset-from-First); some
	// writers use 0x00 instead of whitespace as the field separator.
	prolog := bytes.ReplaceAll(decoded[:first], []byte{0x00}, []byte{' '})
	fields := bytes.Fields(prolog)
	if len(fields) != 2*int(nObj) {
		return nil, model.NewDetailedError(model.ParseError, "MalformedObjStmProlog", nil)
	}

	type entry struct{ offset int }
	entries := make([]entry, nObj)
	for i := range entries {
		off, err := strconv.Atoi(string(fields[2*i+1]))
		if err != nil {
			return nil, model.NewDetailedError(model.ParseError, "InvalidObjStmOffset", err)
		}
		pos := int(first) + off
		if pos > len(decoded) {
			return nil, model.NewDetailedError(model.ParseError, "ObjStmOffsetOverrun", nil)
		}
		entries[i] = entry{offset: pos}
	}

	order := make([]int, nObj)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return entries[order[a]].offset < entries[order[b]].offset })

	objects := make([]model.Object, nObj)
	for rank, i := range order {
		start := entries[i].offset
		end := len(decoded)
		if rank+1 < len(order) {
			end = entries[order[rank+1]].offset
		}
		p := parser.New(decoded[start:end])
		obj, err := p.ParseObject()
		if err != nil {
			return nil, err
		}
		objects[i] = obj
	}
	return objects, nil
}

func dictInt(dict *model.Dictionary, key string) (int64, bool) {
	v, ok := dict.Get(key)
	if !ok {
		return 0, false
	}
	return model.AsInt(v)
}
