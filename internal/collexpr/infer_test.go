package collexpr

import (
	"context"
	"testing"

	"brackets/internal/diag"
	"brackets/internal/syntax"
	"brackets/internal/types"
)

func TestInferElementType(t *testing.T) {
	f := newFixture(t)
	b := f.b
	animal := f.class("Animal")
	dog := f.class("Dog")
	dog.Base = animal.Self
	typed := func(id types.TypeID) ElementInfo { return ElementInfo{Type: id} }

	cases := []struct {
		name  string
		elems []ElementInfo
		want  types.TypeID
		ok    bool
		hard  bool
	}{
		{"single", []ElementInfo{typed(b.Int)}, b.Int, true, false},
		{"widening", []ElementInfo{typed(b.Int), typed(b.Long)}, b.Long, true, false},
		{"reference", []ElementInfo{typed(dog.Self), typed(animal.Self)}, animal.Self, true, false},
		{"unrelated", []ElementInfo{typed(b.Int), typed(b.String)}, types.NoTypeID, false, false},
		{"null joins reference", []ElementInfo{{Null: true}, typed(b.String)}, b.String, true, false},
		{"null rejects value", []ElementInfo{{Null: true}, typed(b.Int)}, types.NoTypeID, false, false},
		{"default joins value", []ElementInfo{{Default: true}, typed(b.Int)}, b.Int, true, false},
		{"only null", []ElementInfo{{Null: true}}, types.NoTypeID, false, false},
		{"empty", nil, types.NoTypeID, false, false},
		{"nested literal ignored", []ElementInfo{{Collection: true}, typed(b.Char)}, b.Char, true, false},
		{"collection arms", []ElementInfo{typed(b.Int), {UntypedArms: true}}, types.NoTypeID, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := f.eng().InferElementType(tc.elems)
			if got.OK != tc.ok || got.Hard != tc.hard {
				t.Fatalf("got %+v, want ok=%v hard=%v", got, tc.ok, tc.hard)
			}
			if tc.ok && got.Type != tc.want {
				t.Fatalf("type %s, want %s", f.label(got.Type), f.label(tc.want))
			}
		})
	}
}

func TestElementInfoFromExpressions(t *testing.T) {
	f := newFixture(t)
	f.locals["c"] = f.b.Bool
	b := f.binder(diag.NewBag(8))
	coll := f.coll("[1, null, [2], c ? [1] : [2], 2L]")
	node := ClassifyAll(coll, nil)
	var infos []ElementInfo
	for _, el := range node.Elements {
		infos = append(infos, b.typeOf(context.Background(), el.Expr).element(el))
	}
	if !infos[1].Null || !infos[2].Collection || !infos[3].UntypedArms {
		t.Fatalf("element infos %+v", infos)
	}
	if got := f.eng().InferElementType(infos); !got.Hard {
		t.Fatalf("conditional of two literals must refuse inference: %+v", got)
	}
	if got := f.eng().InferElementType([]ElementInfo{infos[0], infos[2], infos[4]}); !got.OK || got.Type != f.b.Long {
		t.Fatalf("got %+v", got)
	}
}

func TestClassifyElements(t *testing.T) {
	f := newFixture(t)
	coll := f.coll("[a, ..b, [c]]")
	node := ClassifyAll(coll, nil)
	kinds := make([]ElemKind, len(node.Elements))
	for i, el := range node.Elements {
		kinds[i] = el.Kind
	}
	if len(kinds) != 3 || kinds[0] != ElemPlain || kinds[1] != ElemSpread || kinds[2] != ElemPlain {
		t.Fatalf("kinds %v", kinds)
	}
	if sh := node.Shape(); sh.Count != 3 || !sh.HasSpread {
		t.Fatalf("shape %+v", sh)
	}
	if _, ok := Classify(syntax.Item{}); ok {
		t.Fatalf("an item without operand is malformed")
	}
}
