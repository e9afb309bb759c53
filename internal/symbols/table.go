package symbols

import (
	"fmt"
	"sync"

	"fortio.org/safecast"

	"brackets/internal/source"
	"brackets/internal/types"
)

// Table owns every type declaration of one compilation. Declarations are
// added while the compilation is being assembled and only read afterwards,
// so lookups take the read lock.
type Table struct {
	Types *types.Interner
	Names *source.Interner

	mu         sync.RWMutex
	decls      []*TypeDecl // index 0 reserved for NoDefID
	byName     map[source.StringID][]types.DefID
	wellKnown  map[WellKnown]types.DefID
	extensions map[string][]*Method
	typeParams map[types.TypeID]*TypeParamDecl
}

// NewTable creates an empty table over the given interners. Passing nil
// allocates fresh ones.
func NewTable(typesIn *types.Interner, names *source.Interner) *Table {
	if typesIn == nil {
		typesIn = types.NewInterner()
	}
	if names == nil {
		names = source.NewInterner()
	}
	return &Table{
		Types:      typesIn,
		Names:      names,
		decls:      []*TypeDecl{nil},
		byName:     make(map[source.StringID][]types.DefID),
		wellKnown:  make(map[WellKnown]types.DefID),
		extensions: make(map[string][]*Method),
		typeParams: make(map[types.TypeID]*TypeParamDecl),
	}
}

// NewType allocates a declaration with fresh type parameters and registers
// it. Variance of each parameter is taken from the matching entry of
// variances when present.
func (t *Table) NewType(name string, kind TypeKind, typeParams []string, variances ...types.Variance) *TypeDecl {
	t.mu.Lock()
	slot, err := safecast.Conv[uint32](len(t.decls))
	if err != nil {
		t.mu.Unlock()
		panic(fmt.Errorf("declaration table overflow: %w", err))
	}
	def := types.DefID(slot)
	decl := &TypeDecl{
		ID:     def,
		Name:   name,
		NameID: t.Names.Intern(name),
		Kind:   kind,
	}
	t.decls = append(t.decls, decl)
	t.byName[decl.NameID] = append(t.byName[decl.NameID], def)
	t.mu.Unlock()

	for i, pname := range typeParams {
		v := types.Invariant
		if i < len(variances) {
			v = variances[i]
		}
		idx, err := safecast.Conv[uint32](i)
		if err != nil {
			panic(fmt.Errorf("type parameter index overflow: %w", err))
		}
		tp := t.Types.RegisterTypeParam(types.TypeParamInfo{
			Name:      pname,
			OwnerKind: types.OwnerType,
			Owner:     uint32(def),
			Index:     idx,
			Variance:  v,
		})
		decl.TypeParams = append(decl.TypeParams, TypeParamDecl{Type: tp})
	}
	decl.Self = t.Types.Named(def, name, decl.TypeParamIDs())
	t.indexTypeParams(decl.TypeParams)
	return decl
}

// NewMethodTypeParams allocates type parameters owned by a method of owner.
func (t *Table) NewMethodTypeParams(owner types.DefID, names ...string) []TypeParamDecl {
	out := make([]TypeParamDecl, 0, len(names))
	for i, n := range names {
		idx, err := safecast.Conv[uint32](i)
		if err != nil {
			panic(fmt.Errorf("type parameter index overflow: %w", err))
		}
		tp := t.Types.RegisterTypeParam(types.TypeParamInfo{
			Name:      n,
			OwnerKind: types.OwnerMethod,
			Owner:     uint32(owner),
			Index:     idx,
		})
		out = append(out, TypeParamDecl{Type: tp})
	}
	t.indexTypeParams(out)
	return out
}

func (t *Table) indexTypeParams(params []TypeParamDecl) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range params {
		t.typeParams[params[i].Type] = &params[i]
	}
}

// Constrain records constraints on a type parameter declared through this
// table.
func (t *Table) Constrain(tp types.TypeID, newCtor bool, constraints ...types.TypeID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.typeParams[tp]
	if !ok {
		return
	}
	p.NewCtor = p.NewCtor || newCtor
	p.Constraints = append(p.Constraints, constraints...)
}

// TypeParam returns the constraint record of a type parameter.
func (t *Table) TypeParam(tp types.TypeID) (TypeParamDecl, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.typeParams[tp]
	if !ok {
		return TypeParamDecl{}, false
	}
	return *p, true
}

// AddMethod appends m to decl and registers extension methods.
func (t *Table) AddMethod(decl *TypeDecl, m *Method) *Method {
	m.Owner = decl.ID
	if m.Ctor {
		m.Name = ".ctor"
		decl.Ctors = append(decl.Ctors, m)
		return m
	}
	decl.Methods = append(decl.Methods, m)
	if m.Extension && m.Static && len(m.Params) > 0 {
		t.mu.Lock()
		t.extensions[m.Name] = append(t.extensions[m.Name], m)
		t.mu.Unlock()
	}
	return m
}

// MarkWellKnown binds a role to decl.
func (t *Table) MarkWellKnown(w WellKnown, decl *TypeDecl) {
	t.mu.Lock()
	defer t.mu.Unlock()
	decl.WellKnown = w
	t.wellKnown[w] = decl.ID
}

// WellKnown returns the declaration playing role w, if it is referenced.
func (t *Table) WellKnown(w WellKnown) (*TypeDecl, bool) {
	t.mu.RLock()
	def, ok := t.wellKnown[w]
	t.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return t.Decl(def), true
}

// Decl returns the declaration with the given ID or nil.
func (t *Table) Decl(def types.DefID) *TypeDecl {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if def == types.NoDefID || int(def) >= len(t.decls) {
		return nil
	}
	return t.decls[def]
}

// DeclOf returns the declaration of a named type instance or nil.
func (t *Table) DeclOf(id types.TypeID) *TypeDecl {
	return t.Decl(t.Types.DefOf(id))
}

// Lookup finds a declaration by name and arity.
func (t *Table) Lookup(name string, arity int) *TypeDecl {
	nameID := t.Names.Intern(name)
	t.mu.RLock()
	defs := t.byName[nameID]
	t.mu.RUnlock()
	for _, def := range defs {
		if d := t.Decl(def); d != nil && d.Arity() == arity {
			return d
		}
	}
	return nil
}

// Extensions returns the extension methods called name in declaration order.
func (t *Table) Extensions(name string) []*Method {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*Method(nil), t.extensions[name]...)
}

// Decls returns every declaration in declaration order.
func (t *Table) Decls() []*TypeDecl {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*TypeDecl(nil), t.decls[1:]...)
}

// Instantiate builds decl<args>.
func (t *Table) Instantiate(decl *TypeDecl, args ...types.TypeID) types.TypeID {
	if decl == nil {
		return types.NoTypeID
	}
	if len(args) != decl.Arity() {
		panic(fmt.Sprintf("instantiate %s: want %d type arguments, got %d", decl.Name, decl.Arity(), len(args)))
	}
	return t.Types.Named(decl.ID, decl.Name, args)
}

// SubstOf maps the type parameters of id's declaration to id's arguments.
func (t *Table) SubstOf(id types.TypeID) types.Subst {
	decl := t.DeclOf(id)
	if decl == nil || decl.Arity() == 0 {
		return nil
	}
	args := t.Types.TypeArgs(id)
	s := make(types.Subst, len(args))
	for i, tp := range decl.TypeParams {
		if i < len(args) {
			s[tp.Type] = args[i]
		}
	}
	return s
}

// BaseOf returns the substituted base class of a named instance.
func (t *Table) BaseOf(id types.TypeID) types.TypeID {
	decl := t.DeclOf(id)
	if decl == nil || decl.Base == types.NoTypeID {
		return types.NoTypeID
	}
	return t.Types.Substitute(decl.Base, t.SubstOf(id))
}

// InterfacesOf returns the directly implemented interfaces of id, substituted.
func (t *Table) InterfacesOf(id types.TypeID) []types.TypeID {
	decl := t.DeclOf(id)
	if decl == nil {
		return nil
	}
	s := t.SubstOf(id)
	out := make([]types.TypeID, 0, len(decl.Interfaces))
	for _, iface := range decl.Interfaces {
		out = append(out, t.Types.Substitute(iface, s))
	}
	return out
}

// BaseChain returns id followed by its base classes.
func (t *Table) BaseChain(id types.TypeID) []types.TypeID {
	var out []types.TypeID
	seen := make(map[types.TypeID]struct{})
	for cur := id; cur != types.NoTypeID; cur = t.BaseOf(cur) {
		if _, dup := seen[cur]; dup {
			break
		}
		seen[cur] = struct{}{}
		out = append(out, cur)
	}
	return out
}

// AllInterfaces returns every interface id implements, through base classes
// and interface inheritance, in discovery order. For an interface id the
// result starts with id itself.
func (t *Table) AllInterfaces(id types.TypeID) []types.TypeID {
	var out []types.TypeID
	seen := make(map[types.TypeID]struct{})
	var visit func(types.TypeID)
	visit = func(iface types.TypeID) {
		if _, dup := seen[iface]; dup {
			return
		}
		seen[iface] = struct{}{}
		out = append(out, iface)
		for _, inner := range t.InterfacesOf(iface) {
			visit(inner)
		}
	}
	if d := t.DeclOf(id); d != nil && d.Kind == TypeInterface {
		visit(id)
		return out
	}
	for _, cur := range t.BaseChain(id) {
		for _, iface := range t.InterfacesOf(cur) {
			visit(iface)
		}
	}
	return out
}

// Implements reports whether id is or implements an instance of decl.
func (t *Table) Implements(id types.TypeID, decl *TypeDecl) (types.TypeID, bool) {
	if decl == nil {
		return types.NoTypeID, false
	}
	for _, iface := range t.AllInterfaces(id) {
		if t.Types.DefOf(iface) == decl.ID {
			return iface, true
		}
	}
	return types.NoTypeID, false
}

// DerivesFrom reports whether decl a is b or inherits from it.
func (t *Table) DerivesFrom(a, b types.DefID) bool {
	da := t.Decl(a)
	if da == nil {
		return false
	}
	for _, cur := range t.BaseChain(da.Self) {
		if t.Types.DefOf(cur) == b {
			return true
		}
	}
	return false
}

// Accessible reports whether a member with the given accessibility declared
// in owner can be referenced from site.
func (t *Table) Accessible(access Accessibility, owner types.DefID, site Site) bool {
	switch access {
	case AccessPublic:
		return t.assemblyVisible(owner, site)
	case AccessInternal:
		d := t.Decl(owner)
		return d != nil && d.Assembly == site.Assembly && t.assemblyVisible(owner, site)
	case AccessPrivate:
		return site.Within == owner
	case AccessProtected:
		return site.Within != types.NoDefID && t.DerivesFrom(site.Within, owner)
	default:
		return false
	}
}

func (t *Table) assemblyVisible(owner types.DefID, site Site) bool {
	d := t.Decl(owner)
	if d == nil {
		return true
	}
	if d.Access == AccessInternal && d.Assembly != site.Assembly {
		return false
	}
	return true
}

// MethodRef is a method seen through a particular instantiation of its
// owner, so its signature can be read with the owner's type arguments.
type MethodRef struct {
	Method *Method
	Subst  types.Subst
}

// ParamType returns parameter i with the owner's substitution applied.
func (r MethodRef) ParamType(in *types.Interner, i int) types.TypeID {
	return in.Substitute(r.Method.Params[i].Type, r.Subst)
}

// ResultType returns the return type with the owner's substitution applied.
func (r MethodRef) ResultType(in *types.Interner) types.TypeID {
	return in.Substitute(r.Method.Result, r.Subst)
}

// InstanceMembers finds methods named name on id and its base classes,
// nearest declaration first. Interfaces search their inherited interfaces.
func (t *Table) InstanceMembers(id types.TypeID, name string) []MethodRef {
	var out []MethodRef
	chain := t.BaseChain(id)
	if d := t.DeclOf(id); d != nil && d.Kind == TypeInterface {
		chain = t.AllInterfaces(id)
	}
	for _, cur := range chain {
		decl := t.DeclOf(cur)
		if decl == nil {
			continue
		}
		s := t.SubstOf(cur)
		for _, m := range decl.MethodsNamed(name) {
			if m.Static {
				continue
			}
			out = append(out, MethodRef{Method: m, Subst: s})
		}
	}
	return out
}

// PropertyOf finds a property on id or its base classes.
func (t *Table) PropertyOf(id types.TypeID, name string) (types.TypeID, bool) {
	chain := t.BaseChain(id)
	if d := t.DeclOf(id); d != nil && d.Kind == TypeInterface {
		chain = t.AllInterfaces(id)
	}
	for _, cur := range chain {
		decl := t.DeclOf(cur)
		if decl == nil {
			continue
		}
		if p := decl.Property(name); p != nil {
			return t.Types.Substitute(p.Type, t.SubstOf(cur)), true
		}
	}
	return types.NoTypeID, false
}
