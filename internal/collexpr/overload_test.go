package collexpr

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"brackets/internal/diag"
	"brackets/internal/symbols"
	"brackets/internal/types"
)

func param(name string, t types.TypeID) symbols.Param {
	return symbols.Param{Name: name, Type: t}
}

func TestGenericParameterCannotInferFromCollection(t *testing.T) {
	f := newFixture(t)
	f.fn("F", []string{"T"}, func(tps []types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("value", tps[0])}, f.b.Void
	})
	res, bag := f.call("F([1, 2])")
	if res.Method != nil {
		t.Fatalf("call should fail")
	}
	if diff := cmp.Diff([]string{"CANNOT_INFER_TYPE_ARGS"}, codeNames(bag)); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"F"}, bag.Items()[0].Args); diff != "" {
		t.Fatalf("args (-want +got):\n%s", diff)
	}
}

func TestInferFromCollectionElements(t *testing.T) {
	f := newFixture(t)
	f.locals["xs"] = f.list(f.b.String)
	f.fn("First", []string{"T"}, func(tps []types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("items", f.in.Array(tps[0], 1))}, tps[0]
	})
	f.fn("Flat", []string{"T"}, func(tps []types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("items", f.in.Array(f.in.Array(tps[0], 1), 1))}, tps[0]
	})
	f.fn("Seq", []string{"T"}, func(tps []types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("items", f.iface(f.lib.IEnumerableT, tps[0]))}, tps[0]
	})
	f.fn("Span", []string{"T"}, func(tps []types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("items", f.in.Span(tps[0], true))}, tps[0]
	})

	cases := []struct {
		call string
		want string
	}{
		{"First([1, 2L])", "long"},
		{`First(["a", null])`, "string"},
		{"First([default, 2L])", "long"},
		{"First([..xs])", "string"},
		{"Flat([[1], [2L], []])", "long"},
		{"Seq([1, 2])", "int"},
		{"Span([1.5, 2])", "double"},
		{"First<long>([1])", "long"},
	}
	for _, tc := range cases {
		t.Run(tc.call, func(t *testing.T) {
			res, bag := f.call(tc.call)
			if res.Method == nil {
				t.Fatalf("call failed: %s", diagnosticsSummary(bag))
			}
			if got := f.label(res.Result); got != tc.want {
				t.Fatalf("result %s, want %s", got, tc.want)
			}
			if bag.Len() != 0 {
				t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
			}
			if res.Args[0] == nil || !res.Args[0].OK() {
				t.Fatalf("collection argument not bound")
			}
		})
	}
}

func TestInferenceFailsWithoutTypedElements(t *testing.T) {
	f := newFixture(t)
	f.locals["c"] = f.b.Bool
	f.fn("First", []string{"T"}, func(tps []types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("items", f.in.Array(tps[0], 1))}, tps[0]
	})
	calls := []string{
		"First([])",
		"First([null])",
		`First([1, "a"])`,
		"First([1, null])",
		"First([c ? [1] : [2], 1])",
	}
	for _, call := range calls {
		_, bag := f.call(call)
		if !hasCode(bag, diag.CollCantInferTypeArgs) {
			t.Errorf("%s: expected CANNOT_INFER_TYPE_ARGS, got %s", call, diagnosticsSummary(bag))
		}
	}
}

func TestOverloadPrefersNonInterfaceTarget(t *testing.T) {
	f := newFixture(t)
	f.fn("F", nil, func([]types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("e", f.iface(f.lib.IEnumerableT, f.b.Int))}, f.b.String
	})
	f.fn("F", nil, func([]types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("a", f.in.Array(f.b.Int, 1))}, f.b.Int
	})
	res, bag := f.call("F([1, 2])")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}
	if res.Result != f.b.Int {
		t.Fatalf("picked %s", f.label(res.Params[0]))
	}
}

func TestOverloadPrefersMoreDerivedInterface(t *testing.T) {
	f := newFixture(t)
	f.fn("F", nil, func([]types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("e", f.iface(f.lib.IEnumerableT, f.b.Int))}, f.b.String
	})
	f.fn("F", nil, func([]types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("l", f.iface(f.lib.IListT, f.b.Int))}, f.b.Int
	})
	res, bag := f.call("F([1])")
	if bag.Len() != 0 || res.Result != f.b.Int {
		t.Fatalf("expected IList overload, got %v: %s", res.Params, diagnosticsSummary(bag))
	}
}

func TestOverloadDistinctConcreteKindsAreAmbiguous(t *testing.T) {
	f := newFixture(t)
	f.fn("F", nil, func([]types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("a", f.in.Array(f.b.Int, 1))}, f.b.Void
	})
	f.fn("F", nil, func([]types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("l", f.list(f.b.Int))}, f.b.Void
	})
	res, bag := f.call("F([1, 2])")
	if res.Method != nil {
		t.Fatalf("call should be ambiguous")
	}
	if diff := cmp.Diff([]string{"AMBIGUOUS_CALL"}, codeNames(bag)); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"F(int[])", "F(List<int>)"}, bag.Items()[0].Args); diff != "" {
		t.Fatalf("args (-want +got):\n%s", diff)
	}
}

func TestOverloadSameKindComparesElements(t *testing.T) {
	f := newFixture(t)
	f.fn("F", nil, func([]types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("a", f.in.Array(f.b.Long, 1))}, f.b.Long
	})
	f.fn("F", nil, func([]types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("a", f.in.Array(f.b.Int, 1))}, f.b.Int
	})

	res, bag := f.call("F([1, 2])")
	if bag.Len() != 0 || res.Result != f.b.Int {
		t.Fatalf("int[] should win for int elements: %s", diagnosticsSummary(bag))
	}
	res, bag = f.call("F([1L])")
	if bag.Len() != 0 || res.Result != f.b.Long {
		t.Fatalf("only long[] applies: %s", diagnosticsSummary(bag))
	}
	_, bag = f.call("F([])")
	if !hasCode(bag, diag.CollAmbiguousCall) {
		t.Fatalf("empty literal orders nothing: %s", diagnosticsSummary(bag))
	}
}

func TestOverloadNonGenericBeatsGeneric(t *testing.T) {
	f := newFixture(t)
	f.fn("F", []string{"T"}, func(tps []types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("a", f.in.Array(tps[0], 1))}, f.b.String
	})
	f.fn("F", nil, func([]types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("a", f.in.Array(f.b.Int, 1))}, f.b.Int
	})
	res, bag := f.call("F([1, 2])")
	if bag.Len() != 0 || res.Method.Arity() != 0 {
		t.Fatalf("non-generic overload should win: %s", diagnosticsSummary(bag))
	}
	res, bag = f.call(`F(["x"])`)
	if bag.Len() != 0 || res.Result != f.b.String {
		t.Fatalf("generic overload should be the only candidate: %s", diagnosticsSummary(bag))
	}
}

func TestRefParameterRejectsCollectionArgument(t *testing.T) {
	f := newFixture(t)
	f.fn("F", nil, func([]types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{{Name: "a", Type: f.in.Array(f.b.Int, 1), Ref: symbols.RefRef}}, f.b.Long
	})
	f.fn("F", nil, func([]types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("e", f.iface(f.lib.IEnumerableT, f.b.Int))}, f.b.Int
	})
	res, bag := f.call("F([1])")
	if bag.Len() != 0 || res.Result != f.b.Int {
		t.Fatalf("ref overload must not apply: %s", diagnosticsSummary(bag))
	}

	g := newFixture(t)
	g.fn("G", nil, func([]types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{{Name: "a", Type: g.in.Array(g.b.Int, 1), Ref: symbols.RefOut}}, g.b.Void
	})
	if _, bag := g.call("G([1])"); !hasCode(bag, diag.CollNoOverload) {
		t.Fatalf("expected NO_OVERLOAD, got %s", diagnosticsSummary(bag))
	}
}

func TestUserDefinedConversionIgnoredForCollectionArgument(t *testing.T) {
	f := newFixture(t)
	wrapper := f.tab.NewType("Wrapper", symbols.TypeStruct, nil)
	wrapper.Assembly = "Test"
	f.method(wrapper, &symbols.Method{
		Name:   "op_Implicit",
		Static: true,
		Params: []symbols.Param{param("a", f.in.Array(f.b.Int, 1))},
		Result: wrapper.Self,
	})
	f.fn("F", nil, func([]types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("w", wrapper.Self)}, f.b.Void
	})
	f.locals["arr"] = f.in.Array(f.b.Int, 1)

	if _, bag := f.call("F(arr)"); bag.Len() != 0 {
		t.Fatalf("typed argument may use the user-defined conversion: %s", diagnosticsSummary(bag))
	}
	res, bag := f.call("F([1])")
	if res.Method != nil {
		t.Fatalf("collection argument must not use the user-defined conversion")
	}
	if !hasCode(bag, diag.CollNotConstructible) {
		t.Fatalf("expected the literal to be reported against Wrapper: %s", diagnosticsSummary(bag))
	}
}

func TestBadArgumentType(t *testing.T) {
	f := newFixture(t)
	f.fn("F", nil, func([]types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("n", f.b.Int)}, f.b.Void
	})
	f.fn("H", nil, func([]types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("a", f.in.Array(f.b.Int, 1))}, f.b.Void
	})
	_, bag := f.call(`F("text")`)
	if diff := cmp.Diff([]string{"BAD_ARG_TYPE"}, codeNames(bag)); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
	if want := "argument 1: cannot convert from 'string' to 'int'"; bag.Items()[0].Message != want {
		t.Fatalf("message %q", bag.Items()[0].Message)
	}

	_, bag = f.call(`H(["a"])`)
	if diff := cmp.Diff([]string{"ELEMENT_CONVERSION"}, codeNames(bag)); diff != "" {
		t.Fatalf("element errors surface through the single candidate (-want +got):\n%s", diff)
	}
}

func TestUndefinedFunctionElaboratesArguments(t *testing.T) {
	f := newFixture(t)
	_, bag := f.call("Nope([x])")
	want := []string{"UNDEFINED_NAME", "UNDEFINED_NAME"}
	if diff := cmp.Diff(want, codeNames(bag)); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
}

func TestNestedCallInsideCollection(t *testing.T) {
	f := newFixture(t)
	f.fn("Make", nil, func([]types.TypeID) ([]symbols.Param, types.TypeID) {
		return nil, f.b.Long
	})
	f.fn("Generic", []string{"T"}, func(tps []types.TypeID) ([]symbols.Param, types.TypeID) {
		return []symbols.Param{param("v", tps[0])}, tps[0]
	})
	bound, bag := f.bind(f.in.Array(f.b.Long, 1), "[Make(), 1]")
	if bag.Len() != 0 || !bound.OK() {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}
	_, bag = f.bind(f.in.Array(f.b.Long, 1), "[Generic([1])]")
	if diff := cmp.Diff([]string{"CANNOT_INFER_TYPE_ARGS"}, codeNames(bag)); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
}

func TestClassifyForOverload(t *testing.T) {
	f := newFixture(t)
	b := f.b
	arrInt := f.in.Array(b.Int, 1)
	arrLong := f.in.Array(b.Long, 1)
	enumInt := f.iface(f.lib.IEnumerableT, b.Int)
	listInt := f.iface(f.lib.IListT, b.Int)
	ros := f.in.Span(b.Int, true)
	span := f.in.Span(b.Int, false)

	cases := []struct {
		name   string
		coll   string
		p1, p2 types.TypeID
		want   PreferenceOrdering
	}{
		{"array over interface", "[1]", arrInt, enumInt, PreferFirst},
		{"interface under array", "[1]", enumInt, arrInt, PreferSecond},
		{"derived interface", "[1]", listInt, enumInt, PreferFirst},
		{"array vs span", "[1]", arrInt, ros, PreferNeither},
		{"span vs read-only span", "[1]", span, ros, PreferNeither},
		{"int elements", "[1, 2]", arrLong, arrInt, PreferSecond},
		{"empty", "[]", arrLong, arrInt, PreferNeither},
		{"same type", "[1]", arrInt, arrInt, PreferNeither},
		{"only first constructible", "[1]", arrInt, b.Object, PreferFirst},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bag := diag.NewBag(8)
			got := f.binder(bag).ClassifyForOverload(context.Background(), f.coll(tc.coll), tc.p1, tc.p2)
			if got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
			if bag.Len() != 0 {
				t.Fatalf("classification must not report: %s", diagnosticsSummary(bag))
			}
		})
	}
}
