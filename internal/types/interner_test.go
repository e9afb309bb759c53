package types

import "testing"

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Int == NoTypeID || b.Object == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	if got := in.MustLookup(b.Long); got.Kind != KindInt || got.Width != Width64 {
		t.Fatalf("long descriptor: %+v", got)
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().String
	if in.Array(elem, 1) != in.Array(elem, 1) {
		t.Fatalf("array types should be deduplicated")
	}
	if in.Array(elem, 1) == in.Array(elem, 2) {
		t.Fatalf("rank must affect identity")
	}
	if in.Span(elem, true) == in.Span(elem, false) {
		t.Fatalf("read-only and mutable spans must differ")
	}
}

func TestNamedInstancesAreStable(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	a := in.Named(7, "List", []TypeID{b.Int})
	if a != in.Named(7, "List", []TypeID{b.Int}) {
		t.Fatal("same def and args must intern to the same id")
	}
	if a == in.Named(7, "List", []TypeID{b.Long}) {
		t.Fatal("different args must differ")
	}
	if in.DefOf(a) != 7 {
		t.Fatalf("DefOf = %d", in.DefOf(a))
	}
}

func TestSubstituteAndLabel(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	tp := in.RegisterTypeParam(TypeParamInfo{Name: "T", OwnerKind: OwnerType, Owner: 1})
	open := in.Named(1, "Dictionary", []TypeID{b.String, in.Array(tp, 1)})
	if !in.IsOpen(open) {
		t.Fatal("expected open type")
	}
	closed := in.Substitute(open, Subst{tp: b.Int})
	if in.IsOpen(closed) {
		t.Fatal("expected closed type")
	}
	if got := Label(in, closed); got != "Dictionary<string, int[]>" {
		t.Fatalf("label = %q", got)
	}
	if got := Label(in, in.Array(b.Int, 2)); got != "int[,]" {
		t.Fatalf("label = %q", got)
	}
	if got := Label(in, in.Span(tp, true)); got != "ReadOnlySpan<T>" {
		t.Fatalf("label = %q", got)
	}
}

func TestDistinctTypeParamsWithSameName(t *testing.T) {
	in := NewInterner()
	a := in.RegisterTypeParam(TypeParamInfo{Name: "T", OwnerKind: OwnerType, Owner: 1})
	b := in.RegisterTypeParam(TypeParamInfo{Name: "T", OwnerKind: OwnerMethod, Owner: 1})
	if a == b {
		t.Fatal("type parameters must not be deduplicated by name")
	}
}
