package sema

import (
	"brackets/internal/symbols"
	"brackets/internal/types"
)

// IterationSource says how an iteration type was found.
type IterationSource uint8

const (
	IterNone IterationSource = iota
	IterArray
	IterSpan
	IterString
	IterPattern          // instance GetEnumerator/Current
	IterExtensionPattern // extension GetEnumerator
	IterGenericInterface // IEnumerable<T>
	IterInterface        // non-generic IEnumerable
	IterDynamic
)

func (s IterationSource) String() string {
	switch s {
	case IterArray:
		return "array"
	case IterSpan:
		return "span"
	case IterString:
		return "string"
	case IterPattern:
		return "pattern"
	case IterExtensionPattern:
		return "extension"
	case IterGenericInterface:
		return "IEnumerable<T>"
	case IterInterface:
		return "IEnumerable"
	case IterDynamic:
		return "dynamic"
	default:
		return "none"
	}
}

// Iteration is the result of the enumerable lookup.
type Iteration struct {
	Elem   types.TypeID
	Source IterationSource
}

// OK reports whether id is enumerable.
func (it Iteration) OK() bool { return it.Source != IterNone }

// IterationType finds the element type produced by enumerating id: arrays
// and spans directly, then the GetEnumerator/Current pattern (instance
// members before extension methods), then a unique IEnumerable<T>, then the
// non-generic IEnumerable.
func (c *Conversions) IterationType(id types.TypeID) Iteration {
	return c.iterationType(id, 0)
}

func (c *Conversions) iterationType(id types.TypeID, depth int) Iteration {
	if depth > maxConvDepth {
		return Iteration{}
	}
	tt, ok := c.in.Lookup(id)
	if !ok {
		return Iteration{}
	}
	switch tt.Kind {
	case types.KindArray:
		return Iteration{Elem: tt.Elem, Source: IterArray}
	case types.KindSpan:
		return Iteration{Elem: tt.Elem, Source: IterSpan}
	case types.KindString:
		return Iteration{Elem: c.b.Char, Source: IterString}
	case types.KindDynamic:
		return Iteration{Elem: c.b.Dynamic, Source: IterDynamic}
	case types.KindTypeParam:
		p, _ := c.tab.TypeParam(id)
		for _, cons := range p.Constraints {
			if it := c.iterationType(cons, depth+1); it.OK() {
				return it
			}
		}
		return Iteration{}
	case types.KindNamed:
	default:
		return Iteration{}
	}

	if elem, ok := c.patternCurrent(id); ok {
		return Iteration{Elem: elem, Source: IterPattern}
	}
	if elem, ok := c.extensionCurrent(id); ok {
		return Iteration{Elem: elem, Source: IterExtensionPattern}
	}
	if genericDecl, ok := c.tab.WellKnown(symbols.WKIEnumerableT); ok {
		var elem types.TypeID
		for _, iface := range c.tab.AllInterfaces(id) {
			if c.in.DefOf(iface) != genericDecl.ID {
				continue
			}
			args := c.in.TypeArgs(iface)
			if elem != types.NoTypeID && elem != args[0] {
				return Iteration{}
			}
			elem = args[0]
		}
		if elem != types.NoTypeID {
			return Iteration{Elem: elem, Source: IterGenericInterface}
		}
	}
	if plain, ok := c.tab.WellKnown(symbols.WKIEnumerable); ok {
		if _, found := c.tab.Implements(id, plain); found {
			return Iteration{Elem: c.b.Object, Source: IterInterface}
		}
	}
	return Iteration{}
}

// patternCurrent reads the Current property of the result of a public,
// parameterless instance GetEnumerator.
func (c *Conversions) patternCurrent(id types.TypeID) (types.TypeID, bool) {
	for _, ref := range c.tab.InstanceMembers(id, "GetEnumerator") {
		m := ref.Method
		if m.Access != symbols.AccessPublic || m.RequiredParams() != 0 || m.Arity() != 0 {
			continue
		}
		enumerator := ref.ResultType(c.in)
		if cur, ok := c.tab.PropertyOf(enumerator, "Current"); ok {
			return cur, true
		}
	}
	return types.NoTypeID, false
}

func (c *Conversions) extensionCurrent(id types.TypeID) (types.TypeID, bool) {
	for _, m := range c.tab.Extensions("GetEnumerator") {
		if m.Access != symbols.AccessPublic || len(m.Params) != 1 {
			continue
		}
		bindings := types.Subst{}
		if !Unify(c.in, m.Params[0].Type, id, VarSet(m.TypeParamIDs()), bindings) {
			continue
		}
		enumerator := c.in.Substitute(m.Result, bindings)
		if cur, ok := c.tab.PropertyOf(enumerator, "Current"); ok {
			return cur, true
		}
	}
	return types.NoTypeID, false
}
