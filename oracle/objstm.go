package oracle

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/log"
	"github.com/pdfgraph/pdfgraph/model"
)

// DefaultMaxObjectsPerStream is the recommended cap on objects per
// container, spec.md §4.8 ("default 100, ≤ 200 recommended").
const DefaultMaxObjectsPerStream = 100

// Group is one bucket of eligible objects destined for a single /ObjStm
// container, in the ascending-ObjectId order they were encountered.
// Members[i]'s position in this slice is its Compressed.Index.
type Group struct {
	Members []model.ObjectId
}

// Plan is the result of bucketing a Document's objects: Groups holds the
// eligible objects destined for object streams, Ineligible holds every
// object the oracle rejected, which must remain a top-level indirect
// object.
type Plan struct {
	Groups     []Group
	Ineligible []model.ObjectId
}

// BuildPlan iterates doc's object map in ascending ObjectId order (spec.md
// §4.8 step 1) and buckets eligible objects into groups of at most
// maxPerGroup (DefaultMaxObjectsPerStream if maxPerGroup <= 0).
func BuildPlan(doc *model.Document, encryptID model.ObjectId, maxPerGroup int) Plan {
	if maxPerGroup <= 0 {
		maxPerGroup = DefaultMaxObjectsPerStream
	}
	linearized := IsLinearized(doc)

	ids := make([]model.ObjectId, 0, len(doc.Objects))
	for id := range doc.Objects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Number != ids[j].Number {
			return ids[i].Number < ids[j].Number
		}
		return ids[i].Generation < ids[j].Generation
	})

	var plan Plan
	var current Group
	for _, id := range ids {
		obj := doc.Objects[id]
		if !CanBeCompressed(id, obj, encryptID, linearized) {
			plan.Ineligible = append(plan.Ineligible, id)
			continue
		}
		current.Members = append(current.Members, id)
		if len(current.Members) == maxPerGroup {
			plan.Groups = append(plan.Groups, current)
			current = Group{}
		}
	}
	if len(current.Members) > 0 {
		plan.Groups = append(plan.Groups, current)
	}
	if log.DebugEnabled() {
		log.Debug.Printf("oracle.BuildPlan: %d groups, %d ineligible objects\n", len(plan.Groups), len(plan.Ineligible))
	}
	return plan
}

// Serializer renders a direct object's bytes exactly as the Writer would
// for the value half of a top-level indirect object (no "N G obj"/"endobj"
// wrapper, no trailing newline). Supplied by the writer package at the call
// site so this package never needs to import it back — the object-stream
// payload's per-object encoding is otherwise identical to what the Writer
// already knows how to produce for any direct object.
type Serializer func(model.ObjectId, model.Object) ([]byte, error)

// Payload is the assembled, not-yet-compressed content of one /ObjStm
// container: the prolog directory followed by the concatenated object
// bodies, per spec.md §4.8 step 2.
type Payload struct {
	Content []byte                  // directory + "\n" + objects, ready to compress
	N       int                     // number of packed objects
	First   int                     // byte length of the directory region
	Index   map[model.ObjectId]int  // 0-based position of each member within the container
}

// BuildPayload serializes group's members in order, producing the prolog
// directory ("id off id off ... id off\n") and the concatenated per-object
// bodies the directory's offsets point into, relative to First.
func BuildPayload(doc *model.Document, group Group, serialize Serializer) (Payload, error) {
	var directory, body bytes.Buffer
	index := make(map[model.ObjectId]int, len(group.Members))

	for i, id := range group.Members {
		enc, err := serialize(id, doc.Objects[id])
		if err != nil {
			return Payload{}, fmt.Errorf("oracle: serializing object %s: %w", id, err)
		}
		index[id] = i
		if i > 0 {
			directory.WriteByte(' ')
			body.WriteByte('\n')
		}
		fmt.Fprintf(&directory, "%d %d", id.Number, body.Len())
		body.Write(enc)
	}
	directory.WriteByte('\n')

	first := directory.Len()
	content := append(directory.Bytes(), body.Bytes()...)

	if log.DebugEnabled() {
		log.Debug.Printf("oracle.BuildPayload: packed %d objects, First=%d\n", len(group.Members), first)
	}

	return Payload{
		Content: content,
		N:       len(group.Members),
		First:   first,
		Index:   index,
	}, nil
}
