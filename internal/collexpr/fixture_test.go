package collexpr

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"brackets/internal/diag"
	"brackets/internal/source"
	"brackets/internal/symbols"
	"brackets/internal/syntax"
	"brackets/internal/types"
)

// fixture is a small compilation: core library, a Program class holding
// free functions, and locals visible to every expression.
type fixture struct {
	t       *testing.T
	tab     *symbols.Table
	lib     *symbols.Corelib
	in      *types.Interner
	b       types.Builtins
	fs      *source.FileSet
	program *symbols.TypeDecl
	locals  map[string]types.TypeID
	opts    Options
	engine  *Engine
	seq     int
}

func newFixture(t *testing.T, missing ...string) *fixture {
	t.Helper()
	tab := symbols.NewTable(nil, nil)
	lib := symbols.LoadCorelib(tab, symbols.CorelibOptions{Missing: missing})
	f := &fixture{
		t:      t,
		tab:    tab,
		lib:    lib,
		in:     tab.Types,
		b:      tab.Types.Builtins(),
		fs:     source.NewFileSet(),
		locals: make(map[string]types.TypeID),
	}
	f.program = tab.NewType("Program", symbols.TypeClass, nil)
	f.program.Assembly = "Test"
	f.program.Base = f.b.Object
	f.opts = Options{Site: symbols.Site{Assembly: "Test", Within: f.program.ID}}
	return f
}

func (f *fixture) eng() *Engine {
	if f.engine == nil {
		f.engine = NewEngine(f.tab, f.opts)
	}
	return f.engine
}

func (f *fixture) class(name string, typeParams ...string) *symbols.TypeDecl {
	d := f.tab.NewType(name, symbols.TypeClass, typeParams)
	d.Assembly = "Test"
	d.Base = f.b.Object
	return d
}

func (f *fixture) method(owner *symbols.TypeDecl, m *symbols.Method) *symbols.Method {
	if m.Result == types.NoTypeID {
		m.Result = f.b.Void
	}
	return f.tab.AddMethod(owner, m)
}

// fn declares a static function on Program. build receives the method's
// type parameters.
func (f *fixture) fn(name string, typeParams []string, build func(tps []types.TypeID) ([]symbols.Param, types.TypeID)) *symbols.Method {
	m := &symbols.Method{Name: name, Static: true}
	m.TypeParams = f.tab.NewMethodTypeParams(f.program.ID, typeParams...)
	m.Params, m.Result = build(m.TypeParamIDs())
	return f.method(f.program, m)
}

func (f *fixture) list(elem types.TypeID) types.TypeID {
	return f.tab.Instantiate(f.lib.ListT, elem)
}

func (f *fixture) iface(decl *symbols.TypeDecl, elem types.TypeID) types.TypeID {
	return f.tab.Instantiate(decl, elem)
}

func (f *fixture) parse(text string) syntax.Expr {
	f.t.Helper()
	f.seq++
	id := f.fs.AddVirtual(fmt.Sprintf("expr%d", f.seq), []byte(text))
	bag := diag.NewBag(16)
	e, ok := syntax.ParseExprText(f.fs.Get(id), diag.BagReporter{Bag: bag})
	if !ok {
		f.t.Fatalf("parse %q: %s", text, diagnosticsSummary(bag))
	}
	return e
}

func (f *fixture) coll(text string) *syntax.Collection {
	f.t.Helper()
	c, ok := f.parse(text).(*syntax.Collection)
	if !ok {
		f.t.Fatalf("%q is not a collection expression", text)
	}
	return c
}

func (f *fixture) binder(bag *diag.Bag) *Binder {
	return f.eng().NewBinder(diag.BagReporter{Bag: bag}, Env{
		Locals: f.locals,
		Functions: func(name string) []*symbols.Method {
			return f.program.MethodsNamed(name)
		},
		ResolveType: f.resolveType,
	})
}

// resolveType knows the keyword types only.
func (f *fixture) resolveType(te *syntax.TypeExpr) (types.TypeID, error) {
	keywords := map[string]types.TypeID{
		"int":    f.b.Int,
		"long":   f.b.Long,
		"string": f.b.String,
		"double": f.b.Double,
		"bool":   f.b.Bool,
		"char":   f.b.Char,
		"object": f.b.Object,
	}
	if t, ok := keywords[te.Name]; ok && len(te.Args) == 0 && len(te.Suffixes) == 0 {
		return t, nil
	}
	return types.NoTypeID, fmt.Errorf("unknown type '%s'", te.String())
}

func (f *fixture) bind(target types.TypeID, text string) (*Bound, *diag.Bag) {
	f.t.Helper()
	bag := diag.NewBag(64)
	bound, err := f.binder(bag).Bind(context.Background(), target, f.coll(text))
	if err != nil {
		f.t.Fatalf("bind %q: %v", text, err)
	}
	return bound, bag
}

func (f *fixture) call(text string) (CallResult, *diag.Bag) {
	f.t.Helper()
	call, ok := f.parse(text).(*syntax.Call)
	if !ok {
		f.t.Fatalf("%q is not a call", text)
	}
	bag := diag.NewBag(64)
	return f.binder(bag).ResolveCall(context.Background(), call), bag
}

func (f *fixture) label(id types.TypeID) string {
	return types.Label(f.in, id)
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	if bag == nil {
		return false
	}
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func diagnosticsSummary(bag *diag.Bag) string {
	if bag == nil || bag.Len() == 0 {
		return "<none>"
	}
	var parts []string
	for _, d := range bag.Items() {
		parts = append(parts, fmt.Sprintf("%s: %s", d.Code.Name(), d.Message))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func codeNames(bag *diag.Bag) []string {
	var out []string
	for _, d := range bag.Items() {
		out = append(out, d.Code.Name())
	}
	sort.Strings(out)
	return out
}
