package collexpr

import (
	"context"
	"testing"

	"brackets/internal/symbols"
	"brackets/internal/types"
)

func TestResolveStrategySelection(t *testing.T) {
	f := newFixture(t)
	b := f.b

	myList := f.class("MyList")
	myList.Interfaces = []types.TypeID{f.iface(f.lib.IEnumerableT, b.Int)}
	f.method(myList, &symbols.Method{Ctor: true})
	f.method(myList, &symbols.Method{Name: "Add", Params: []symbols.Param{{Name: "x", Type: b.Int}}})

	noCtor := f.class("NoCtor")
	noCtor.Interfaces = []types.TypeID{f.iface(f.lib.IEnumerableT, b.Int)}
	f.method(noCtor, &symbols.Method{Ctor: true, Params: []symbols.Param{{Name: "n", Type: b.Int}}})
	f.method(noCtor, &symbols.Method{Name: "Add", Params: []symbols.Param{{Name: "x", Type: b.Int}}})

	noAdd := f.class("NoAdd")
	noAdd.Interfaces = []types.TypeID{f.iface(f.lib.IEnumerableT, b.Int)}
	f.method(noAdd, &symbols.Method{Ctor: true})

	notSeq := f.class("NotSequence")
	f.method(notSeq, &symbols.Method{Ctor: true})
	f.method(notSeq, &symbols.Method{Name: "Add", Params: []symbols.Param{{Name: "x", Type: b.Int}}})

	en := f.tab.NewType("Color", symbols.TypeEnum, nil)
	del := f.tab.NewType("Callback", symbols.TypeDelegate, nil)
	custom := f.tab.NewType("ICustom", symbols.TypeInterface, []string{"T"})

	cases := []struct {
		name   string
		target types.TypeID
		kind   StrategyKind
		reason Reason
		elem   types.TypeID
	}{
		{"array", f.in.Array(b.Int, 1), StrategyArray, ReasonNone, b.Int},
		{"multi-dim array", f.in.Array(b.Int, 2), StrategyNotConstructible, ReasonMultiDimensionalArray, types.NoTypeID},
		{"span", f.in.Span(b.String, false), StrategySpan, ReasonNone, b.String},
		{"read-only span", f.in.Span(b.Long, true), StrategySpan, ReasonNone, b.Long},
		{"pointer", f.in.Pointer(b.Int), StrategyNotConstructible, ReasonExcludedCategory, types.NoTypeID},
		{"enum", en.Self, StrategyNotConstructible, ReasonExcludedCategory, types.NoTypeID},
		{"delegate", del.Self, StrategyNotConstructible, ReasonExcludedCategory, types.NoTypeID},
		{"IEnumerable<int>", f.iface(f.lib.IEnumerableT, b.Int), StrategyInterfaceDefault, ReasonNone, b.Int},
		{"IList<string>", f.iface(f.lib.IListT, b.String), StrategyInterfaceDefault, ReasonNone, b.String},
		{"custom interface", f.tab.Instantiate(custom, b.Int), StrategyNotConstructible, ReasonUnsupportedInterface, types.NoTypeID},
		{"non-generic IEnumerable", f.lib.IEnumerable.Self, StrategyNotConstructible, ReasonUnsupportedInterface, types.NoTypeID},
		{"List<int>", f.list(b.Int), StrategyInitializer, ReasonNone, b.Int},
		{"HashSet<char>", f.tab.Instantiate(f.lib.HashSetT, b.Char), StrategyInitializer, ReasonNone, b.Char},
		{"custom initializer", myList.Self, StrategyInitializer, ReasonNone, b.Int},
		{"ctor needs argument", noCtor.Self, StrategyNotConstructible, ReasonNotConstructible, types.NoTypeID},
		{"no Add", noAdd.Self, StrategyNotConstructible, ReasonNotConstructible, types.NoTypeID},
		{"not a sequence", notSeq.Self, StrategyNotConstructible, ReasonNotConstructible, types.NoTypeID},
		{"ImmutableArray<int>", f.tab.Instantiate(f.lib.ImmutableArrayT, b.Int), StrategyBuilder, ReasonNone, b.Int},
		{"object", b.Object, StrategyNotConstructible, ReasonNotConstructible, types.NoTypeID},
		{"string", b.String, StrategyNotConstructible, ReasonNotConstructible, types.NoTypeID},
		{"no target", types.NoTypeID, StrategyNotConstructible, ReasonNoTargetType, types.NoTypeID},
	}
	e := f.eng()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := e.Resolve(context.Background(), tc.target, Shape{Count: 2})
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if s.Kind != tc.kind || s.Reason != tc.reason {
				t.Fatalf("got %s/%s, want %s/%s", s.Kind, s.Reason, tc.kind, tc.reason)
			}
			if s.Constructible() && s.Elem != tc.elem {
				t.Fatalf("element type %s, want %s", f.label(s.Elem), f.label(tc.elem))
			}
			if s.Constructible() == (s.Reason != ReasonNone) {
				t.Fatalf("strategy carries both a kind and a reason: %+v", s)
			}
		})
	}
}

func TestResolveInterfaceConcreteType(t *testing.T) {
	f := newFixture(t)
	e := f.eng()
	cases := []struct {
		decl *symbols.TypeDecl
		want string
	}{
		{f.lib.IEnumerableT, "int[]"},
		{f.lib.IReadOnlyCollectionT, "int[]"},
		{f.lib.IReadOnlyListT, "int[]"},
		{f.lib.ICollectionT, "List<int>"},
		{f.lib.IListT, "List<int>"},
	}
	for _, tc := range cases {
		s, err := e.Resolve(context.Background(), f.iface(tc.decl, f.b.Int), Shape{})
		if err != nil {
			t.Fatal(err)
		}
		if got := f.label(s.Concrete); got != tc.want {
			t.Errorf("%s: concrete %s, want %s", tc.decl.Name, got, tc.want)
		}
	}
}

func TestResolveInterfaceWithoutListType(t *testing.T) {
	f := newFixture(t, "List<T>")
	for _, decl := range []*symbols.TypeDecl{f.lib.IEnumerableT, f.lib.IListT} {
		s, err := f.eng().Resolve(context.Background(), f.iface(decl, f.b.Int), Shape{Count: 1})
		if err != nil {
			t.Fatal(err)
		}
		if s.Reason != ReasonMissingDefaultType || s.Missing != DefaultListType {
			t.Fatalf("%s: got %s (%q)", decl.Name, s.Reason, s.Missing)
		}
	}
}

func TestResolveTypeParameters(t *testing.T) {
	f := newFixture(t)
	owner := f.class("Holder", "T", "U", "V")
	free := owner.TypeParams[0].Type
	constrained := owner.TypeParams[1].Type
	noNew := owner.TypeParams[2].Type
	f.tab.Constrain(constrained, true, f.list(f.b.Int))
	f.tab.Constrain(noNew, false, f.list(f.b.Int))

	e := f.eng()
	s, _ := e.Resolve(context.Background(), free, Shape{})
	if s.Reason != ReasonNoTargetType {
		t.Fatalf("unconstrained parameter: %s", s.Reason)
	}
	s, _ = e.Resolve(context.Background(), constrained, Shape{})
	if s.Kind != StrategyInitializer || s.Elem != f.b.Int {
		t.Fatalf("new()-constrained parameter: %s/%s elem %s", s.Kind, s.Reason, f.label(s.Elem))
	}
	if s.Initializer.Ctor != nil {
		t.Fatalf("type parameter constructs implicitly")
	}
	s, _ = e.Resolve(context.Background(), noNew, Shape{})
	if s.Constructible() {
		t.Fatalf("parameter without new() must not be constructible")
	}
}

func TestResolveStructUsesImplicitConstructor(t *testing.T) {
	f := newFixture(t)
	st := f.tab.NewType("Bits", symbols.TypeStruct, nil)
	st.Assembly = "Test"
	st.Interfaces = []types.TypeID{f.iface(f.lib.IEnumerableT, f.b.Bool)}
	f.method(st, &symbols.Method{Name: "Add", Params: []symbols.Param{{Name: "b", Type: f.b.Bool}}})

	s, err := f.eng().Resolve(context.Background(), st.Self, Shape{Count: 3})
	if err != nil {
		t.Fatal(err)
	}
	if s.Kind != StrategyInitializer || s.Initializer.Ctor != nil {
		t.Fatalf("struct strategy: %+v", s)
	}
}

func TestResolveExtensionAdd(t *testing.T) {
	f := newFixture(t)
	bag := f.class("Bag", "T")
	tp := bag.TypeParams[0].Type
	bag.Interfaces = []types.TypeID{f.iface(f.lib.IEnumerableT, tp)}
	f.method(bag, &symbols.Method{Ctor: true})

	ext := f.class("BagExtensions")
	ext.Static = true
	add := &symbols.Method{Name: "Add", Static: true, Extension: true}
	add.TypeParams = f.tab.NewMethodTypeParams(ext.ID, "T")
	mt := add.TypeParams[0].Type
	add.Params = []symbols.Param{
		{Name: "bag", Type: f.tab.Instantiate(bag, mt)},
		{Name: "item", Type: mt},
	}
	f.method(ext, add)

	target := f.tab.Instantiate(bag, f.b.String)
	s, err := f.eng().Resolve(context.Background(), target, Shape{Count: 1})
	if err != nil {
		t.Fatal(err)
	}
	if s.Kind != StrategyInitializer {
		t.Fatalf("expected initializer, got %s/%s", s.Kind, s.Reason)
	}
	if len(s.Initializer.Adds) != 1 || !s.Initializer.Adds[0].Extension || s.Initializer.Adds[0].Param != f.b.String {
		t.Fatalf("extension Add not bound: %+v", s.Initializer.Adds)
	}

	bound, diags := f.bind(target, `["a", "b"]`)
	if diags.Len() != 0 || !bound.OK() {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(diags))
	}
}

func TestResolveInaccessibleConstructor(t *testing.T) {
	f := newFixture(t)
	hidden := f.class("Hidden")
	hidden.Assembly = "Other"
	hidden.Interfaces = []types.TypeID{f.iface(f.lib.IEnumerableT, f.b.Int)}
	f.method(hidden, &symbols.Method{Ctor: true, Access: symbols.AccessPrivate})
	f.method(hidden, &symbols.Method{Name: "Add", Params: []symbols.Param{{Name: "x", Type: f.b.Int}}})

	s, _ := f.eng().Resolve(context.Background(), hidden.Self, Shape{})
	if s.Constructible() {
		t.Fatalf("private constructor must not be usable from another type")
	}
}
