// Package reader implements spec.md §4.3/§4.4: turning a raw PDF byte
// buffer into a fully materialized model.Document — following the
// cross-reference chain, parsing every indirect object it names, unpacking
// object streams, and decrypting strings/streams when the file carries a
// standard security handler.
//
// Grounded on the teacher's reader/file/read.go (buildXRefTableStartingAt,
// the classic/xref-stream disambiguation and the /Prev and hybrid /XRefStm
// chain-following loop) and object_streams.go (processObjectStream),
// generalized onto this library's xref/parser/filter/crypt packages instead
// of the teacher's own, and extended with decryption wiring the teacher's
// read path never had to do (the teacher only ever authored encrypted
// files, never read one back).
package reader

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/log"
	"github.com/pdfgraph/pdfgraph/crypt"
	"github.com/pdfgraph/pdfgraph/filter"
	"github.com/pdfgraph/pdfgraph/model"
	"github.com/pdfgraph/pdfgraph/parser"
	"github.com/pdfgraph/pdfgraph/tokenizer"
	"github.com/pdfgraph/pdfgraph/xref"
)

// maxXrefChainLength bounds how many /Prev sections Load will follow,
// guarding against a cyclic chain in a corrupt or adversarial file.
const maxXrefChainLength = 1024

// headerSearchWindow bounds how far into the file Load looks for the
// "%PDF-" marker; ISO 32000-1 §7.5.2 allows (but discourages) leading bytes
// before it, which the teacher's strict offset-0 check rejects outright.
const headerSearchWindow = 1024

// Load parses data into a Document. password is tried against the standard
// security handler if the file is encrypted; pass "" for an unencrypted
// file or to try the empty user password.
func Load(data []byte, password string) (*model.Document, error) {
	if log.ReadEnabled() {
		log.Read.Printf("Load: begin, %d bytes\n", len(data))
	}

	version, err := headerVersion(data)
	if err != nil {
		return nil, err
	}

	startOffset, err := xref.FindStartXref(data)
	if err != nil {
		return nil, err
	}

	combined := model.NewXref()
	var trailer *model.Dictionary

	visited := map[int64]bool{}
	offset := startOffset
	for offset != 0 {
		if visited[offset] {
			break
		}
		if len(visited) >= maxXrefChainLength {
			return nil, model.NewDetailedError(model.XrefError, "ChainTooLong", nil)
		}
		visited[offset] = true

		if log.ReadEnabled() {
			log.Read.Printf("Load: following xref section at offset %d\n", offset)
		}

		sec, next, hybrid, err := parseSectionAt(data, offset)
		if err != nil {
			return nil, err
		}

		// The /XRefStm hybrid section carries the true Compressed entries
		// for objects the classic table marks free/placeholder, so it must
		// win on collision (spec.md §4.3 step 4, scenario 4): merge it into
		// combined first, then merge the classic section, since Xref.Merge
		// keeps combined's own entry over an incoming one.
		if hybrid != 0 && !visited[hybrid] {
			visited[hybrid] = true
			if log.ReadEnabled() {
				log.Read.Printf("Load: merging hybrid /XRefStm at offset %d ahead of classic section\n", hybrid)
			}
			hybridSec, _, _, err := parseSectionAt(data, hybrid)
			if err != nil {
				return nil, err
			}
			combined.Merge(hybridSec.Xref)
		}

		combined.Merge(sec.Xref)
		if trailer == nil {
			trailer = sec.Trailer
		} else {
			mergeTrailerInfo(trailer, sec.Trailer)
		}

		offset = next
	}

	if trailer == nil {
		return nil, model.NewDetailedError(model.TrailerError, "NoTrailer", nil)
	}

	doc := model.NewDocument(version)
	doc.Trailer = trailer
	doc.Xref = combined
	if combined.Size > 0 {
		doc.MaxID = combined.Size - 1
	}

	if err := materializeDirectObjects(data, doc); err != nil {
		return nil, err
	}
	if err := resolveDeferredLengths(data, doc); err != nil {
		return nil, err
	}

	encryptID, encryptDict, hasEncrypt := resolveEncryptDict(trailer, doc.Objects)
	var dec *crypt.Decryptor
	if hasEncrypt {
		if log.ReadEnabled() {
			log.Read.Printf("Load: document carries a standard security handler, authenticating\n")
		}
		state, err := buildEncryptionState(encryptDict)
		if err != nil {
			return nil, err
		}
		id0 := firstID(trailer)
		fileKey, err := crypt.Authenticate(password, state, id0)
		if err != nil {
			return nil, err
		}
		state.FileKey = fileKey
		doc.Encryption = state
		dec = crypt.NewDecryptor(state)
	}

	if dec != nil {
		if err := decryptObjects(doc, encryptID, dec); err != nil {
			return nil, err
		}
	}

	if err := unpackCompressedObjects(doc); err != nil {
		return nil, err
	}

	if log.ReadEnabled() {
		log.Read.Printf("Load: done, %d objects materialized\n", len(doc.Objects))
	}

	return doc, nil
}

// headerVersion extracts the "x.y" version string following the "%PDF-"
// marker, per ISO 32000-1 §7.5.2. Grounded on the teacher's headerVersion
// (reader/file/read.go), generalized to search within headerSearchWindow
// bytes instead of requiring the marker at byte 0 (real-world files
// sometimes carry a handful of stray leading bytes).
func headerVersion(data []byte) (string, error) {
	window := data
	if len(window) > headerSearchWindow {
		window = window[:headerSearchWindow]
	}
	const prefix = "%PDF-"
	idx := bytes.Index(window, []byte(prefix))
	if idx == -1 {
		return "", model.NewDetailedError(model.HeaderError, "NoHeader", nil)
	}
	start := idx + len(prefix)
	end := start
	for end < len(data) && data[end] != '\r' && data[end] != '\n' && end-start < 8 {
		end++
	}
	if end <= start {
		return "", model.NewDetailedError(model.HeaderError, "EmptyVersion", nil)
	}
	return string(data[start:end]), nil
}

// parseSectionAt parses the cross-reference section at offset, returning it
// alongside the /Prev offset to follow next and the /XRefStm hybrid offset
// (0 if absent), disambiguating a classic "xref" keyword from an xref
// stream's "N G obj" header exactly as the teacher's
// buildXRefTableStartingAt does by peeking the first token.
func parseSectionAt(data []byte, offset int64) (sec xref.Section, next int64, hybrid int64, err error) {
	p := parser.New(data)
	p.SetPos(int(offset))

	tk, err := p.PeekRaw()
	if err != nil {
		return xref.Section{}, 0, 0, err
	}

	if tk.Kind == tokenizer.Keyword && tk.Value == "xref" {
		p.NextRaw()
		sec, err = xref.ParseClassicSection(p)
		if err != nil {
			return xref.Section{}, 0, 0, err
		}
		next = offsetFromField(sec.Trailer, "Prev")
		hybrid = offsetFromField(sec.Trailer, "XRefStm")
		return sec, next, hybrid, nil
	}

	id, obj, err := p.ParseIndirectObject(int(offset))
	if err != nil {
		return xref.Section{}, 0, 0, err
	}
	stream, ok := obj.(model.Stream)
	if !ok {
		return xref.Section{}, 0, 0, model.NewDetailedError(model.XrefError, "NotAnXrefStream", nil)
	}
	if stream.IsDeferred() {
		return xref.Section{}, 0, 0, model.NewDetailedError(model.XrefError, "DeferredXrefStreamLength", nil)
	}

	sd, err := xref.ParseStreamDict(stream.Dict)
	if err != nil {
		return xref.Section{}, 0, 0, err
	}
	chain, err := buildFilterChain(stream.Dict)
	if err != nil {
		return xref.Section{}, 0, 0, err
	}
	decoded, err := filter.Decode(stream.Content, chain)
	if err != nil {
		return xref.Section{}, 0, 0, err
	}

	xr, err := xref.ParseStreamEntries(decoded, sd)
	if err != nil {
		return xref.Section{}, 0, 0, err
	}
	if _, exists := xr.Get(id.Number); !exists {
		xr.Set(id.Number, model.Entry{Kind: model.EntryNormal, Offset: uint32(offset), Generation: id.Generation})
	}

	next = offsetFromField(stream.Dict, "Prev")
	return xref.Section{Xref: xr, Trailer: stream.Dict}, next, 0, nil
}

// offsetFromField reads an xref chain offset out of dict[key], accepting
// both a direct Integer and "NNN 0 R" — the teacher's offsetFromObject
// leniency for PDF generators that mistakenly write a reference where a
// plain integer is expected, using the reference's object number as the
// literal byte offset.
func offsetFromField(dict *model.Dictionary, key string) int64 {
	v, ok := dict.Get(key)
	if !ok {
		return 0
	}
	switch o := v.(type) {
	case model.Integer:
		return int64(o)
	case model.Reference:
		return int64(o.Number)
	default:
		return 0
	}
}

// mergeTrailerInfo folds fields from an older section's trailer into dst,
// keeping dst's existing value for any field already set — the newest
// trailer always wins, per ISO 32000-1 §7.5.6 and the teacher's
// parseTrailerInfo guards.
func mergeTrailerInfo(dst, src *model.Dictionary) {
	for _, key := range []string{"Root", "Info", "Encrypt", "ID", "Size"} {
		if _, ok := dst.Get(key); ok {
			continue
		}
		if v, ok := src.Get(key); ok {
			dst.Set(key, v)
		}
	}
}

// materializeDirectObjects parses every EntryNormal xref entry into
// doc.Objects. Streams whose /Length is an indirect reference are left
// deferred for resolveDeferredLengths.
func materializeDirectObjects(data []byte, doc *model.Document) error {
	doc.Objects = make(map[model.ObjectId]model.Object, len(doc.Xref.Entries))
	p := parser.New(data)
	for num, entry := range doc.Xref.Entries {
		if entry.Kind != model.EntryNormal {
			continue
		}
		id, obj, err := p.ParseIndirectObject(int(entry.Offset))
		if err != nil {
			return fmt.Errorf("object %d at offset %d: %w", num, entry.Offset, err)
		}
		doc.Objects[id] = obj
	}
	return nil
}

// resolveDeferredLengths fills in Stream.Content for every deferred stream,
// re-slicing the source buffer now that /Length's indirect target has been
// materialized.
func resolveDeferredLengths(data []byte, doc *model.Document) error {
	for id, obj := range doc.Objects {
		st, ok := obj.(model.Stream)
		if !ok || !st.IsDeferred() {
			continue
		}
		lengthObj, ok := st.Dict.Get("Length")
		if !ok {
			return model.NewDetailedError(model.ParseError, "MissingLength", nil)
		}
		length, ok := resolveLength(lengthObj, doc.Objects)
		if !ok {
			return model.NewDetailedError(model.ParseError, "UnresolvedLength", nil)
		}
		start := int(st.StartPosition)
		end := start + int(length)
		if start < 0 || end < start || end > len(data) {
			return model.NewDetailedError(model.ParseError, "StreamLengthOverrun", nil)
		}
		doc.Objects[id] = st.WithContent(append([]byte(nil), data[start:end]...))
	}
	return nil
}

func resolveLength(o model.Object, objects map[model.ObjectId]model.Object) (int64, bool) {
	ref, ok := o.(model.Reference)
	if !ok {
		return model.AsInt(o)
	}
	target, ok := objects[model.ObjectId(ref)]
	if !ok {
		return 0, false
	}
	return model.AsInt(target)
}

// resolveEncryptDict looks up the trailer's /Encrypt entry, following a
// single indirect reference if needed. The returned ObjectId identifies the
// encryption dictionary's own object so decryptObjects can exclude it: the
// encryption dictionary is never itself encrypted (ISO 32000-1 §7.6.1).
func resolveEncryptDict(trailer *model.Dictionary, objects map[model.ObjectId]model.Object) (model.ObjectId, *model.Dictionary, bool) {
	v, ok := trailer.Get("Encrypt")
	if !ok {
		return model.ObjectId{}, nil, false
	}
	switch e := v.(type) {
	case *model.Dictionary:
		return model.ObjectId{}, e, true
	case model.Reference:
		id := model.ObjectId(e)
		obj, ok := objects[id]
		if !ok {
			return id, nil, false
		}
		d, ok := model.AsDict(obj)
		return id, d, ok
	default:
		return model.ObjectId{}, nil, false
	}
}

// firstID returns the trailer's /ID[0] bytes, or nil if absent (legal for
// unencrypted documents, required for encrypted ones).
func firstID(trailer *model.Dictionary) []byte {
	v, ok := trailer.Get("ID")
	if !ok {
		return nil
	}
	arr, ok := model.AsArray(v)
	if !ok || len(arr) == 0 {
		return nil
	}
	b, _ := model.AsString(arr[0])
	return b
}

// buildEncryptionState reads the standard security handler's dictionary
// fields (ISO 32000-1 Table 20, ISO 32000-2 §7.6.4.1) into an
// EncryptionState. The teacher never reads this dictionary back (it only
// ever writes one), so this is built from spec knowledge, grounded only on
// the field names/shapes the teacher's own write-side model.Encrypt uses.
func buildEncryptionState(dict *model.Dictionary) (*model.EncryptionState, error) {
	state := &model.EncryptionState{EncryptMetadata: true}

	if v, ok := dict.Get("Filter"); ok {
		if n, ok := model.AsName(v); ok {
			state.Filter = n
		}
	}
	if v, ok := dict.Get("SubFilter"); ok {
		if n, ok := model.AsName(v); ok {
			state.SubFilter = n
		}
	}
	if v, ok := dict.Get("V"); ok {
		if n, ok := model.AsInt(v); ok {
			state.V = int(n)
		}
	}
	if v, ok := dict.Get("R"); ok {
		if n, ok := model.AsInt(v); ok {
			state.R = int(n)
		}
	}

	lengthBits := int64(40)
	if v, ok := dict.Get("Length"); ok {
		if n, ok := model.AsInt(v); ok {
			lengthBits = n
		}
	}
	state.Length = int(lengthBits / 8)
	if state.R >= 5 {
		state.Length = 32
	}

	if v, ok := dict.Get("P"); ok {
		if n, ok := model.AsInt(v); ok {
			state.P = int32(n)
		}
	}
	if v, ok := dict.Get("EncryptMetadata"); ok {
		if b, ok := v.(model.Boolean); ok {
			state.EncryptMetadata = bool(b)
		}
	}

	copyString := func(key string, out []byte) {
		if v, ok := dict.Get(key); ok {
			if b, ok := model.AsString(v); ok {
				copy(out, b)
			}
		}
	}
	copyString("O", state.O[:])
	copyString("U", state.U[:])
	copyString("OE", state.OE[:])
	copyString("UE", state.UE[:])
	copyString("Perms", state.Perms[:])

	state.StmF, state.StrF, state.EFF = "Identity", "Identity", "Identity"
	if state.V >= 4 {
		if v, ok := dict.Get("StmF"); ok {
			if n, ok := model.AsName(v); ok {
				state.StmF = n
			}
		}
		if v, ok := dict.Get("StrF"); ok {
			if n, ok := model.AsName(v); ok {
				state.StrF = n
			}
		}
		if v, ok := dict.Get("EFF"); ok {
			if n, ok := model.AsName(v); ok {
				state.EFF = n
			}
		}

		state.CF = map[model.Name]model.CryptFilter{}
		if v, ok := dict.Get("CF"); ok {
			if cfDict, ok := model.AsDict(v); ok {
				cfDict.Range(func(key string, value model.Object) bool {
					sub, ok := model.AsDict(value)
					if !ok {
						return true
					}
					cf := model.CryptFilter{CFM: model.CFMRC4, Length: state.Length}
					if cfmv, ok := sub.Get("CFM"); ok {
						if n, ok := model.AsName(cfmv); ok {
							cf.CFM = model.CryptFilterMethod(n)
						}
					}
					if lv, ok := sub.Get("Length"); ok {
						if n, ok := model.AsInt(lv); ok {
							cf.Length = int(n)
						}
					}
					state.CF[model.Name(key)] = cf
					return true
				})
			}
		}
	}

	return state, nil
}

// decryptObjects walks every materialized object and decrypts its strings
// and stream content in place, using the object's own id for per-object key
// derivation (ISO 32000-1 Algorithm 1). The encryption dictionary itself
// (encryptID) and any cross-reference stream are left untouched, per
// ISO 32000-1 §7.5.8.2 / §7.6.1.
func decryptObjects(doc *model.Document, encryptID model.ObjectId, dec *crypt.Decryptor) error {
	hasEncryptID := encryptID != (model.ObjectId{})
	for id, obj := range doc.Objects {
		if hasEncryptID && id == encryptID {
			continue
		}
		if st, ok := obj.(model.Stream); ok && isExemptFromStreamDecryption(st.Dict) {
			continue
		}
		decrypted, err := decryptValue(obj, id, dec)
		if err != nil {
			return fmt.Errorf("decrypting object %s: %w", id, err)
		}
		doc.Objects[id] = decrypted
	}
	return nil
}

func decryptValue(obj model.Object, id model.ObjectId, dec *crypt.Decryptor) (model.Object, error) {
	switch v := obj.(type) {
	case model.String:
		plain, err := dec.DecryptString(id, v.Bytes)
		if err != nil {
			return nil, err
		}
		return model.String{Bytes: plain, Format: v.Format}, nil
	case model.Array:
		out := make(model.Array, len(v))
		for i, e := range v {
			d, err := decryptValue(e, id, dec)
			if err != nil {
				return nil, err
			}
			out[i] = d
		}
		return out, nil
	case *model.Dictionary:
		return decryptDict(v, id, dec)
	case model.Stream:
		dict, err := decryptDict(v.Dict, id, dec)
		if err != nil {
			return nil, err
		}
		content := v.Content
		if !isExemptFromStreamDecryption(v.Dict) {
			content, err = dec.DecryptStream(id, v.Content)
			if err != nil {
				return nil, err
			}
		}
		return model.Stream{Dict: dict, Content: content}, nil
	default:
		return obj, nil
	}
}

func decryptDict(d *model.Dictionary, id model.ObjectId, dec *crypt.Decryptor) (*model.Dictionary, error) {
	out := model.NewDictionary()
	var rangeErr error
	d.Range(func(key string, value model.Object) bool {
		dv, err := decryptValue(value, id, dec)
		if err != nil {
			rangeErr = err
			return false
		}
		out.Set(key, dv)
		return true
	})
	if rangeErr != nil {
		return nil, rangeErr
	}
	return out, nil
}

// isExemptFromStreamDecryption reports whether a stream's content is never
// encrypted regardless of the document's security handler: cross-reference
// streams, per ISO 32000-1 §7.5.8.2 ("shall not be encrypted").
func isExemptFromStreamDecryption(dict *model.Dictionary) bool {
	if t, ok := dict.Get("Type"); ok {
		if n, ok := model.AsName(t); ok && n == "XRef" {
			return true
		}
	}
	return false
}

// buildFilterChain reads a stream dictionary's /Filter (+/DecodeParms) into
// the ordered list of steps filter.Decode expects, accepting both the
// single-filter and filter-chain (array) forms ISO 32000-1 §7.4 allows.
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
				d, _ := model.AsDict(o) // Null entries map to a nil dict, meaning "no parms"
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
