package sema

import (
	"brackets/internal/symbols"
	"brackets/internal/types"
)

// ConvKind classifies an implicit conversion.
type ConvKind uint8

const (
	ConvNone ConvKind = iota
	ConvIdentity
	ConvNumeric
	ConvReference
	ConvBoxing
	ConvSpan
	ConvUserDefined
)

func (k ConvKind) String() string {
	switch k {
	case ConvIdentity:
		return "identity"
	case ConvNumeric:
		return "numeric"
	case ConvReference:
		return "reference"
	case ConvBoxing:
		return "boxing"
	case ConvSpan:
		return "span"
	case ConvUserDefined:
		return "user-defined"
	default:
		return "none"
	}
}

// Exists reports whether k denotes a conversion.
func (k ConvKind) Exists() bool { return k != ConvNone }

const maxConvDepth = 16

// Conversions answers conversion questions against one symbol table. It
// holds no mutable state and is safe for concurrent use.
type Conversions struct {
	tab *symbols.Table
	in  *types.Interner
	b   types.Builtins
}

// New creates a conversion oracle over tab.
func New(tab *symbols.Table) *Conversions {
	return &Conversions{tab: tab, in: tab.Types, b: tab.Types.Builtins()}
}

// Table returns the symbol table the oracle reads.
func (c *Conversions) Table() *symbols.Table { return c.tab }

// Types returns the type interner.
func (c *Conversions) Types() *types.Interner { return c.in }

// Implicit reports whether a standard implicit conversion exists.
func (c *Conversions) Implicit(from, to types.TypeID) bool {
	return c.Classify(from, to).Exists()
}

// Classify returns the standard implicit conversion from -> to. User-defined
// operators are not considered; see ClassifyWithUser.
func (c *Conversions) Classify(from, to types.TypeID) ConvKind {
	return c.classify(from, to, 0)
}

func (c *Conversions) classify(from, to types.TypeID, depth int) ConvKind {
	if from == types.NoTypeID || to == types.NoTypeID || depth > maxConvDepth {
		return ConvNone
	}
	if from == to {
		return ConvIdentity
	}
	ft, okF := c.in.Lookup(from)
	tt, okT := c.in.Lookup(to)
	if !okF || !okT {
		return ConvNone
	}
	if ft.Kind == types.KindError || tt.Kind == types.KindError {
		return ConvIdentity
	}
	if isObjectLike(ft) && isObjectLike(tt) {
		return ConvIdentity
	}
	if fn, ok := numericOf(ft); ok {
		if tn, ok := numericOf(tt); ok && numericWidens(fn, tn) {
			return ConvNumeric
		}
	}
	if tt.Kind == types.KindSpan {
		switch ft.Kind {
		case types.KindArray:
			if ft.Count == 1 && c.elementConvertible(ft.Elem, tt.Elem, tt.ReadOnly, depth) {
				return ConvSpan
			}
		case types.KindSpan:
			if !ft.ReadOnly && tt.ReadOnly && ft.Elem == tt.Elem {
				return ConvSpan
			}
		case types.KindString:
			if tt.ReadOnly && tt.Elem == c.b.Char {
				return ConvSpan
			}
		}
		return ConvNone
	}
	if c.IsReferenceType(from) {
		if c.implicitReference(from, to, depth) {
			return ConvReference
		}
		return ConvNone
	}
	if c.boxing(from, ft, to, tt) {
		return ConvBoxing
	}
	return ConvNone
}

func isObjectLike(t types.Type) bool {
	return t.Kind == types.KindObject || t.Kind == types.KindDynamic
}

// elementConvertible is identity, or an implicit reference conversion when
// covariance is allowed.
func (c *Conversions) elementConvertible(from, to types.TypeID, covariant bool, depth int) bool {
	if from == to {
		return true
	}
	if !covariant || !c.IsReferenceType(from) {
		return false
	}
	return c.implicitReference(from, to, depth+1)
}

// IsReferenceType reports whether values of id are references.
func (c *Conversions) IsReferenceType(id types.TypeID) bool {
	tt, ok := c.in.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case types.KindObject, types.KindDynamic, types.KindString, types.KindArray:
		return true
	case types.KindNamed:
		d := c.tab.DeclOf(id)
		if d == nil {
			return false
		}
		return d.Kind == symbols.TypeClass || d.Kind == symbols.TypeInterface || d.Kind == symbols.TypeDelegate
	case types.KindTypeParam:
		p, ok := c.tab.TypeParam(id)
		if !ok {
			return false
		}
		for _, cons := range p.Constraints {
			if d := c.tab.DeclOf(cons); d != nil && d.Kind == symbols.TypeClass {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// AcceptsNull reports whether the null literal converts to id.
func (c *Conversions) AcceptsNull(id types.TypeID) bool {
	switch c.in.KindOf(id) {
	case types.KindPointer, types.KindError:
		return true
	}
	return c.IsReferenceType(id)
}

// AcceptsDefault reports whether a typeless default literal converts to id.
func (c *Conversions) AcceptsDefault(id types.TypeID) bool {
	k := c.in.KindOf(id)
	return k != types.KindInvalid && k != types.KindVoid
}

func (c *Conversions) implicitReference(from, to types.TypeID, depth int) bool {
	if depth > maxConvDepth {
		return false
	}
	if from == to {
		return true
	}
	ft, _ := c.in.Lookup(from)
	tt, _ := c.in.Lookup(to)
	if isObjectLike(tt) {
		return true
	}
	switch ft.Kind {
	case types.KindArray:
		return c.arrayReference(ft, to, tt, depth)
	case types.KindString:
		return c.implementsVariant(from, to, depth)
	case types.KindNamed:
		if tt.Kind != types.KindNamed {
			return false
		}
		toDecl := c.tab.DeclOf(to)
		if toDecl == nil {
			return false
		}
		if toDecl.Kind == symbols.TypeInterface {
			return c.implementsVariant(from, to, depth)
		}
		for _, base := range c.tab.BaseChain(from) {
			if base == to {
				return true
			}
		}
		return false
	case types.KindTypeParam:
		p, _ := c.tab.TypeParam(from)
		for _, cons := range p.Constraints {
			if cons == to || c.implicitReference(cons, to, depth+1) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (c *Conversions) arrayReference(ft types.Type, to types.TypeID, tt types.Type, depth int) bool {
	switch tt.Kind {
	case types.KindArray:
		return tt.Count == ft.Count && ft.Elem != tt.Elem &&
			c.IsReferenceType(ft.Elem) && c.implicitReference(ft.Elem, tt.Elem, depth+1)
	case types.KindNamed:
		decl := c.tab.DeclOf(to)
		if decl == nil {
			return false
		}
		if decl.WellKnown == symbols.WKIEnumerable {
			return true
		}
		if ft.Count != 1 {
			return false
		}
		switch decl.WellKnown {
		case symbols.WKIEnumerableT, symbols.WKICollectionT, symbols.WKIListT,
			symbols.WKIReadOnlyCollectionT, symbols.WKIReadOnlyListT:
			args := c.in.TypeArgs(to)
			return len(args) == 1 && c.elementConvertible(ft.Elem, args[0], true, depth)
		}
	}
	return false
}

// implementsVariant reports whether from (class, struct, interface, string)
// implements an interface convertible to the interface to.
func (c *Conversions) implementsVariant(from, to types.TypeID, depth int) bool {
	for _, iface := range c.interfacesOf(from) {
		if c.variantConvertible(iface, to, depth+1) {
			return true
		}
	}
	return false
}

func (c *Conversions) interfacesOf(id types.TypeID) []types.TypeID {
	if c.in.KindOf(id) == types.KindString {
		if decl, ok := c.tab.WellKnown(symbols.WKIEnumerableT); ok {
			return c.tab.AllInterfaces(c.tab.Instantiate(decl, c.b.Char))
		}
		return nil
	}
	return c.tab.AllInterfaces(id)
}

func (c *Conversions) variantConvertible(from, to types.TypeID, depth int) bool {
	if from == to {
		return true
	}
	fromDef := c.in.DefOf(from)
	if fromDef == types.NoDefID || fromDef != c.in.DefOf(to) {
		return false
	}
	decl := c.tab.Decl(fromDef)
	fa, ta := c.in.TypeArgs(from), c.in.TypeArgs(to)
	if len(fa) != len(ta) || len(fa) != decl.Arity() {
		return false
	}
	for i := range fa {
		if fa[i] == ta[i] {
			continue
		}
		info, _ := c.in.TypeParamInfo(decl.TypeParams[i].Type)
		switch info.Variance {
		case types.Covariant:
			if !c.IsReferenceType(fa[i]) || !c.implicitReference(fa[i], ta[i], depth+1) {
				return false
			}
		case types.Contravariant:
			if !c.IsReferenceType(ta[i]) || !c.implicitReference(ta[i], fa[i], depth+1) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (c *Conversions) boxing(from types.TypeID, ft types.Type, to types.TypeID, tt types.Type) bool {
	if isObjectLike(tt) {
		switch ft.Kind {
		case types.KindVoid, types.KindPointer, types.KindSpan, types.KindInvalid:
			return false
		}
		return true
	}
	if tt.Kind != types.KindNamed {
		return false
	}
	toDecl := c.tab.DeclOf(to)
	if toDecl == nil || toDecl.Kind != symbols.TypeInterface {
		return false
	}
	switch ft.Kind {
	case types.KindNamed, types.KindTypeParam:
		return c.implementsVariant(from, to, 0) || c.constraintReaches(from, to)
	}
	return false
}

func (c *Conversions) constraintReaches(from, to types.TypeID) bool {
	p, ok := c.tab.TypeParam(from)
	if !ok {
		return false
	}
	for _, cons := range p.Constraints {
		if cons == to || c.Implicit(cons, to) {
			return true
		}
	}
	return false
}
