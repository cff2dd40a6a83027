package oracle

import (
	"testing"

	"github.com/pdfgraph/pdfgraph/model"
)

func dict(kv ...interface{}) *model.Dictionary {
	d := model.NewDictionary()
	for i := 0; i < len(kv); i += 2 {
		d.Set(kv[i].(string), kv[i+1].(model.Object))
	}
	return d
}

func TestCanBeCompressedRules(t *testing.T) {
	catalog := dict("Type", model.Name("Catalog"))
	encryptID := model.ObjectId{Number: 9}

	cases := []struct {
		name       string
		id         model.ObjectId
		obj        model.Object
		linearized bool
		want       bool
	}{
		{"plain dict", model.ObjectId{Number: 1}, dict("Type", model.Name("Page")), false, true},
		{"non-zero generation", model.ObjectId{Number: 1, Generation: 1}, dict(), false, false},
		{"stream", model.ObjectId{Number: 2}, model.Stream{Dict: model.NewDictionary()}, false, false},
		{"xref stream dict", model.ObjectId{Number: 3}, dict("Type", model.Name("XRef")), false, false},
		{"objstm dict", model.ObjectId{Number: 4}, dict("Type", model.Name("ObjStm")), false, false},
		{"encrypt dict", encryptID, dict("Filter", model.Name("Standard")), false, false},
		{"catalog non-linearized", model.ObjectId{Number: 5}, catalog, false, true},
		{"catalog linearized", model.ObjectId{Number: 5}, catalog, true, false},
		{"info dict always eligible", model.ObjectId{Number: 6}, dict("Title", model.String{Bytes: []byte("x")}), true, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := CanBeCompressed(c.id, c.obj, encryptID, c.linearized)
			if got != c.want {
				t.Errorf("got %v, want %v", got, c.want)
			}
		})
	}
}

func TestIsLinearized(t *testing.T) {
	doc := model.NewDocument("1.7")
	doc.Objects[model.ObjectId{Number: 1}] = dict("Type", model.Name("Catalog"))
	if IsLinearized(doc) {
		t.Fatal("expected not linearized")
	}
	doc.Objects[model.ObjectId{Number: 2}] = dict("Linearized", model.Integer(1))
	if !IsLinearized(doc) {
		t.Fatal("expected linearized")
	}
}

func TestEncryptDictID(t *testing.T) {
	trailer := model.NewDictionary()
	if id := EncryptDictID(trailer); id != (model.ObjectId{}) {
		t.Errorf("got %v, want zero value", id)
	}
	trailer.Set("Encrypt", model.Reference{Number: 7, Generation: 0})
	if id := EncryptDictID(trailer); id != (model.ObjectId{Number: 7}) {
		t.Errorf("got %v", id)
	}
}

func TestBuildPlanBucketsAndExcludes(t *testing.T) {
	doc := model.NewDocument("1.7")
	doc.Objects[model.ObjectId{Number: 1}] = dict("Type", model.Name("Catalog"))
	doc.Objects[model.ObjectId{Number: 2}] = dict("Type", model.Name("Pages"))
	doc.Objects[model.ObjectId{Number: 3}] = model.Stream{Dict: dict("Type", model.Name("XObject"))}
	doc.Objects[model.ObjectId{Number: 4, Generation: 1}] = dict("Type", model.Name("Font"))
	doc.Objects[model.ObjectId{Number: 5}] = dict("Filter", model.Name("Standard"))

	encryptID := model.ObjectId{Number: 5}
	plan := BuildPlan(doc, encryptID, 1) // force one object per group

	if len(plan.Groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(plan.Groups))
	}
	if plan.Groups[0].Members[0] != (model.ObjectId{Number: 1}) {
		t.Errorf("got first group member %v", plan.Groups[0].Members[0])
	}
	if plan.Groups[1].Members[0] != (model.ObjectId{Number: 2}) {
		t.Errorf("got second group member %v", plan.Groups[1].Members[0])
	}

	wantIneligible := map[model.ObjectId]bool{
		{Number: 3}:              true,
		{Number: 4, Generation: 1}: true,
		{Number: 5}:              true,
	}
	if len(plan.Ineligible) != len(wantIneligible) {
		t.Fatalf("got %d ineligible, want %d", len(plan.Ineligible), len(wantIneligible))
	}
	for _, id := range plan.Ineligible {
		if !wantIneligible[id] {
			t.Errorf("unexpected ineligible id %v", id)
		}
	}
}

func TestBuildPayloadDirectoryAndOffsets(t *testing.T) {
	doc := model.NewDocument("1.7")
	doc.Objects[model.ObjectId{Number: 10}] = model.Integer(42)
	doc.Objects[model.ObjectId{Number: 11}] = model.Name("Foo")

	group := Group{Members: []model.ObjectId{{Number: 10}, {Number: 11}}}
	serialize := func(_ model.ObjectId, o model.Object) ([]byte, error) { return []byte(o.String()), nil }

	payload, err := BuildPayload(doc, group, serialize)
	if err != nil {
		t.Fatalf("BuildPayload: %v", err)
	}
	if payload.N != 2 {
		t.Errorf("got N=%d", payload.N)
	}
	wantDirectory := "10 0 11 3\n"
	if string(payload.Content[:payload.First]) != wantDirectory {
		t.Errorf("got directory %q, want %q", payload.Content[:payload.First], wantDirectory)
	}
	wantBody := "42\n/Foo"
	if string(payload.Content[payload.First:]) != wantBody {
		t.Errorf("got body %q, want %q", payload.Content[payload.First:], wantBody)
	}
	if payload.Index[model.ObjectId{Number: 10}] != 0 || payload.Index[model.ObjectId{Number: 11}] != 1 {
		t.Errorf("got index %v", payload.Index)
	}
}
