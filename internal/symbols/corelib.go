package symbols

import (
	"brackets/internal/types"
)

// CorelibAssembly is the assembly name of the built-in declarations.
const CorelibAssembly = "System.Runtime"

// CorelibOptions selects which parts of the core library are referenced.
type CorelibOptions struct {
	// Missing lists well-known declarations that are left out of the
	// reference set, e.g. "List<T>".
	Missing []string
}

func (o CorelibOptions) missing(name string) bool {
	for _, m := range o.Missing {
		if m == name {
			return true
		}
	}
	return false
}

// Corelib holds the built-in declarations the resolver relies on.
type Corelib struct {
	IEnumerable           *TypeDecl
	IEnumerator           *TypeDecl
	IEnumerableT          *TypeDecl
	IEnumeratorT          *TypeDecl
	ICollectionT          *TypeDecl
	IListT                *TypeDecl
	IReadOnlyCollectionT  *TypeDecl
	IReadOnlyListT        *TypeDecl
	ListT                 *TypeDecl // nil when left out of the reference set
	HashSetT              *TypeDecl
	ImmutableArrayT       *TypeDecl
	ImmutableArrayBuilder *TypeDecl
}

// LoadCorelib declares the collection interfaces and default collection types.
func LoadCorelib(t *Table, opts CorelibOptions) *Corelib {
	b := t.Types.Builtins()
	lib := &Corelib{}

	decl := func(name string, kind TypeKind, params []string, variances ...types.Variance) *TypeDecl {
		d := t.NewType(name, kind, params, variances...)
		d.Assembly = CorelibAssembly
		d.Access = AccessPublic
		return d
	}
	method := func(owner *TypeDecl, name string, result types.TypeID, params ...Param) *Method {
		return t.AddMethod(owner, &Method{Name: name, Access: AccessPublic, Result: result, Params: params})
	}

	lib.IEnumerator = decl("IEnumerator", TypeInterface, nil)
	lib.IEnumerator.Properties = append(lib.IEnumerator.Properties, &Property{Name: "Current", Type: b.Object})
	method(lib.IEnumerator, "MoveNext", b.Bool)
	t.MarkWellKnown(WKIEnumerator, lib.IEnumerator)

	lib.IEnumerable = decl("IEnumerable", TypeInterface, nil)
	method(lib.IEnumerable, "GetEnumerator", lib.IEnumerator.Self)
	t.MarkWellKnown(WKIEnumerable, lib.IEnumerable)

	lib.IEnumeratorT = decl("IEnumerator", TypeInterface, []string{"T"}, types.Covariant)
	lib.IEnumeratorT.Interfaces = []types.TypeID{lib.IEnumerator.Self}
	lib.IEnumeratorT.Properties = append(lib.IEnumeratorT.Properties, &Property{Name: "Current", Type: lib.IEnumeratorT.TypeParams[0].Type})
	t.MarkWellKnown(WKIEnumeratorT, lib.IEnumeratorT)

	lib.IEnumerableT = decl("IEnumerable", TypeInterface, []string{"T"}, types.Covariant)
	lib.IEnumerableT.Interfaces = []types.TypeID{lib.IEnumerable.Self}
	{
		tp := lib.IEnumerableT.TypeParams[0].Type
		method(lib.IEnumerableT, "GetEnumerator", t.Instantiate(lib.IEnumeratorT, tp))
	}
	t.MarkWellKnown(WKIEnumerableT, lib.IEnumerableT)

	lib.IReadOnlyCollectionT = decl("IReadOnlyCollection", TypeInterface, []string{"T"}, types.Covariant)
	{
		tp := lib.IReadOnlyCollectionT.TypeParams[0].Type
		lib.IReadOnlyCollectionT.Interfaces = []types.TypeID{t.Instantiate(lib.IEnumerableT, tp)}
		lib.IReadOnlyCollectionT.Properties = append(lib.IReadOnlyCollectionT.Properties, &Property{Name: "Count", Type: b.Int})
	}
	t.MarkWellKnown(WKIReadOnlyCollectionT, lib.IReadOnlyCollectionT)

	lib.IReadOnlyListT = decl("IReadOnlyList", TypeInterface, []string{"T"}, types.Covariant)
	{
		tp := lib.IReadOnlyListT.TypeParams[0].Type
		lib.IReadOnlyListT.Interfaces = []types.TypeID{t.Instantiate(lib.IReadOnlyCollectionT, tp)}
	}
	t.MarkWellKnown(WKIReadOnlyListT, lib.IReadOnlyListT)

	lib.ICollectionT = decl("ICollection", TypeInterface, []string{"T"})
	{
		tp := lib.ICollectionT.TypeParams[0].Type
		lib.ICollectionT.Interfaces = []types.TypeID{t.Instantiate(lib.IEnumerableT, tp)}
		method(lib.ICollectionT, "Add", b.Void, Param{Name: "item", Type: tp})
	}
	t.MarkWellKnown(WKICollectionT, lib.ICollectionT)

	lib.IListT = decl("IList", TypeInterface, []string{"T"})
	{
		tp := lib.IListT.TypeParams[0].Type
		lib.IListT.Interfaces = []types.TypeID{t.Instantiate(lib.ICollectionT, tp)}
	}
	t.MarkWellKnown(WKIListT, lib.IListT)

	if !opts.missing("List<T>") {
		lib.ListT = decl("List", TypeClass, []string{"T"})
		tp := lib.ListT.TypeParams[0].Type
		lib.ListT.Base = b.Object
		lib.ListT.Interfaces = []types.TypeID{
			t.Instantiate(lib.IListT, tp),
			t.Instantiate(lib.IReadOnlyListT, tp),
		}
		t.AddMethod(lib.ListT, &Method{Ctor: true, Access: AccessPublic, Result: b.Void})
		t.AddMethod(lib.ListT, &Method{Ctor: true, Access: AccessPublic, Result: b.Void, Params: []Param{{Name: "capacity", Type: b.Int}}})
		method(lib.ListT, "Add", b.Void, Param{Name: "item", Type: tp})
		method(lib.ListT, "GetEnumerator", t.Instantiate(lib.IEnumeratorT, tp))
		t.MarkWellKnown(WKListT, lib.ListT)
	}

	if !opts.missing("HashSet<T>") {
		lib.HashSetT = decl("HashSet", TypeClass, []string{"T"})
		tp := lib.HashSetT.TypeParams[0].Type
		lib.HashSetT.Base = b.Object
		lib.HashSetT.Interfaces = []types.TypeID{t.Instantiate(lib.ICollectionT, tp)}
		t.AddMethod(lib.HashSetT, &Method{Ctor: true, Access: AccessPublic, Result: b.Void})
		method(lib.HashSetT, "Add", b.Bool, Param{Name: "item", Type: tp})
		method(lib.HashSetT, "GetEnumerator", t.Instantiate(lib.IEnumeratorT, tp))
	}

	if !opts.missing("ImmutableArray<T>") {
		lib.ImmutableArrayBuilder = decl("ImmutableArray", TypeClass, nil)
		lib.ImmutableArrayBuilder.Static = true
		lib.ImmutableArrayBuilder.Base = b.Object

		lib.ImmutableArrayT = decl("ImmutableArray", TypeStruct, []string{"T"})
		tp := lib.ImmutableArrayT.TypeParams[0].Type
		lib.ImmutableArrayT.Interfaces = []types.TypeID{t.Instantiate(lib.IReadOnlyListT, tp)}
		method(lib.ImmutableArrayT, "GetEnumerator", t.Instantiate(lib.IEnumeratorT, tp))
		lib.ImmutableArrayT.Builder = &BuilderAttr{BuilderType: lib.ImmutableArrayBuilder.Self, MethodName: "Create"}

		create := &Method{Name: "Create", Static: true, Access: AccessPublic}
		create.TypeParams = t.NewMethodTypeParams(lib.ImmutableArrayBuilder.ID, "T")
		mt := create.TypeParams[0].Type
		create.Params = []Param{{Name: "items", Type: t.Types.Span(mt, true)}}
		create.Result = t.Instantiate(lib.ImmutableArrayT, mt)
		t.AddMethod(lib.ImmutableArrayBuilder, create)
	}
	return lib
}
