package syntax

import (
	"testing"

	"brackets/internal/diag"
	"brackets/internal/source"
)

func parseExpr(t *testing.T, text string) (Expr, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("expr", []byte(text))
	bag := diag.NewBag(16)
	e, _ := ParseExprText(fs.Get(id), diag.BagReporter{Bag: bag})
	return e, bag
}

func TestParseCollectionItems(t *testing.T) {
	e, bag := parseExpr(t, "[1, ..xs, [2L], null]")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	coll, ok := e.(*Collection)
	if !ok {
		t.Fatalf("expected collection, got %T", e)
	}
	if len(coll.Items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(coll.Items))
	}
	if coll.Items[0].Spread || !coll.Items[1].Spread {
		t.Fatalf("spread flags wrong: %+v", coll.Items)
	}
	if name, ok := coll.Items[1].Expr.(*Name); !ok || name.Ident != "xs" {
		t.Fatalf("spread operand: %#v", coll.Items[1].Expr)
	}
	inner, ok := coll.Items[2].Expr.(*Collection)
	if !ok {
		t.Fatalf("nested collection expected, got %T", coll.Items[2].Expr)
	}
	if lit := inner.Items[0].Expr.(*Literal); lit.Kind != LitLong || lit.Value != 2 {
		t.Fatalf("long literal: %+v", lit)
	}
	if lit := coll.Items[3].Expr.(*Literal); lit.Kind != LitNull {
		t.Fatalf("null literal: %+v", lit)
	}
	if coll.Sp.Start != 0 || int(coll.Sp.End) != len("[1, ..xs, [2L], null]") {
		t.Fatalf("collection span %v", coll.Sp)
	}
}

func TestParseEmptyAndTrailingComma(t *testing.T) {
	for _, text := range []string{"[]", "[1,]"} {
		if _, bag := parseExpr(t, text); bag.Len() != 0 {
			t.Fatalf("%s: unexpected diagnostics %v", text, bag.Items())
		}
	}
}

func TestParseCallWithRefArgument(t *testing.T) {
	e, bag := parseExpr(t, "F<int>(ref [1], b ? [2] : [3])")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	call := e.(*Call)
	if call.Callee != "F" || len(call.TypeArgs) != 1 || call.TypeArgs[0].Name != "int" {
		t.Fatalf("call head: %+v", call)
	}
	if call.Args[0].Mode != ArgRef {
		t.Fatalf("first argument should be ref")
	}
	if _, ok := call.Args[1].Expr.(*Conditional); !ok {
		t.Fatalf("second argument should be conditional, got %T", call.Args[1].Expr)
	}
}

func TestSpreadOfSpreadIsRejected(t *testing.T) {
	_, bag := parseExpr(t, "[....x]")
	if bag.Count(diag.ProjSyntax) != 1 {
		t.Fatalf("expected one syntax error, got %v", bag.Items())
	}
}

func TestParseTypes(t *testing.T) {
	cases := map[string]string{
		"int":                       "int",
		"int[,]":                    "int[,]",
		"List<List<int>>":           "List<List<int>>",
		"Dictionary<string, int[]>": "Dictionary<string, int[]>",
		"int*":                      "int*",
		"ReadOnlySpan<T>":           "ReadOnlySpan<T>",
	}
	for text, want := range cases {
		fs := source.NewFileSet()
		id := fs.AddVirtual("type", []byte(text))
		te, ok := ParseTypeText(fs.Get(id), nil)
		if !ok {
			t.Fatalf("%s: parse failed", text)
		}
		if got := te.String(); got != want {
			t.Fatalf("%s: got %s", text, got)
		}
	}
}

func TestParseParam(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("param", []byte("scoped ReadOnlySpan<T> items"))
	pd, ok := ParseParamText(fs.Get(id), nil)
	if !ok || !pd.Scoped || pd.Name != "items" || pd.Type.String() != "ReadOnlySpan<T>" {
		t.Fatalf("scoped param: %+v", pd)
	}

	id = fs.AddVirtual("param2", []byte("int x = 0"))
	pd, ok = ParseParamText(fs.Get(id), nil)
	if !ok || !pd.Optional || pd.Mode != ArgValue {
		t.Fatalf("optional param: %+v", pd)
	}

	id = fs.AddVirtual("param3", []byte("ref int[] xs"))
	pd, ok = ParseParamText(fs.Get(id), nil)
	if !ok || pd.Mode != ArgRef || pd.Type.String() != "int[]" {
		t.Fatalf("ref param: %+v", pd)
	}
}
