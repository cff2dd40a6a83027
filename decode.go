package pdfgraph

import (
	"github.com/pdfgraph/pdfgraph/filter"
	"github.com/pdfgraph/pdfgraph/model"
)

// DecodeStream runs a stream's /Filter chain and returns its decoded
// content, leaving s itself untouched. It is the public counterpart of
// reader's unexported buildFilterChain (reader/reader.go), which only runs
// internally against xref/object streams; this lets a caller (notably
// cmd/pdfgraph's decode subcommand) decode an arbitrary content or image
// stream pulled out of the object graph via GetObject.
func DecodeStream(s model.Stream) ([]byte, error) {
	if s.IsDeferred() {
		return nil, model.NewDetailedError(model.ContentDecodeError, "DeferredLength", nil)
	}
	chain, err := buildFilterChain(s.Dict)
	if err != nil {
		return nil, err
	}
	return filter.Decode(s.Content, chain)
}

// buildFilterChain reads dict's /Filter (+/DecodeParms) into the ordered
// step list filter.Decode expects, accepting both the single-filter and
// filter-chain (array) forms ISO 32000-1 §7.4 allows. Mirrors
// reader.buildFilterChain; duplicated rather than exported across the
// package boundary since reader owns the deferred-length materialization
// buildFilterChain's callers there depend on, which doesn't apply here.
func buildFilterChain(dict *model.Dictionary) ([]filter.Step, error) {
	filterObj, ok := dict.Get("Filter")
	if !ok {
		return nil, nil
	}

	var names []model.Name
	switch f := filterObj.(type) {
	case model.Name:
		names = []model.Name{f}
	case model.Array:
		for _, o := range f {
			n, ok := model.AsName(o)
			if !ok {
				return nil, model.NewDetailedError(model.ParseError, "InvalidFilterArray", nil)
			}
			names = append(names, n)
		}
	default:
		return nil, model.NewDetailedError(model.ParseError, "InvalidFilter", nil)
	}

	var parmsList []*model.Dictionary
	if parmsObj, ok := dict.Get("DecodeParms"); ok {
		switch p := parmsObj.(type) {
		case *model.Dictionary:
			parmsList = []*model.Dictionary{p}
		case model.Array:
			for _, o := range p {
				d, _ := model.AsDict(o)
				parmsList = append(parmsList, d)
			}
		}
	}

	steps := make([]filter.Step, len(names))
	for i, n := range names {
		steps[i] = filter.Step{Name: string(n)}
		if i < len(parmsList) && parmsList[i] != nil {
			steps[i].Parms = dictToIntMap(parmsList[i])
		}
	}
	return steps, nil
}

func dictToIntMap(d *model.Dictionary) map[string]int {
	out := map[string]int{}
	d.Range(func(key string, value model.Object) bool {
		if n, ok := model.AsInt(value); ok {
			out[key] = int(n)
		} else if b, ok := value.(model.Boolean); ok && b {
			out[key] = 1
		}
		return true
	})
	return out
}
