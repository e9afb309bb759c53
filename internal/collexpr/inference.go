package collexpr

import (
	"context"

	"brackets/internal/symbols"
	"brackets/internal/syntax"
	"brackets/internal/types"
)

// inference collects bounds for the type parameters of one generic
// candidate and fixes them.
type inference struct {
	b     *Binder
	vars  map[types.TypeID]struct{}
	order []types.TypeID
	lower map[types.TypeID][]ElementInfo
	exact map[types.TypeID][]types.TypeID
}

func (b *Binder) newInference(params []types.TypeID) *inference {
	inf := &inference{
		b:     b,
		vars:  make(map[types.TypeID]struct{}, len(params)),
		order: params,
		lower: make(map[types.TypeID][]ElementInfo),
		exact: make(map[types.TypeID][]types.TypeID),
	}
	for _, p := range params {
		inf.vars[p] = struct{}{}
	}
	return inf
}

func (inf *inference) isVar(t types.TypeID) bool {
	_, ok := inf.vars[t]
	return ok
}

func (inf *inference) in() *types.Interner { return inf.b.e.in }

// argument adds the bounds contributed by one argument. Collection
// expressions only contribute through by-value parameters.
func (inf *inference) argument(ctx context.Context, arg callArg, param symbols.Param) {
	if arg.coll != nil {
		if param.Ref != symbols.RefNone || arg.mode != syntax.ArgValue {
			return
		}
		inf.fromCollection(ctx, arg.coll, param.Type)
		return
	}
	if !arg.info.typed() {
		return
	}
	if param.Ref == symbols.RefRef || param.Ref == symbols.RefOut {
		inf.exactBound(param.Type, arg.info.Type)
		return
	}
	inf.lowerBound(param.Type, arg.info.Type)
}

// collectionElement is the element type a collection parameter expects, or
// NoTypeID when p is not a collection type with an element slot.
func (inf *inference) collectionElement(p types.TypeID) types.TypeID {
	in := inf.in()
	tt, ok := in.Lookup(p)
	if !ok {
		return types.NoTypeID
	}
	switch tt.Kind {
	case types.KindArray:
		if tt.Count != 1 {
			return types.NoTypeID
		}
		return tt.Elem
	case types.KindSpan:
		return tt.Elem
	case types.KindNamed:
		if it := inf.b.e.conv.IterationType(p); it.OK() {
			return it.Elem
		}
	}
	return types.NoTypeID
}

// fromCollection infers from the elements of a collection expression
// argument, recursing into nested literals one level at a time.
func (inf *inference) fromCollection(ctx context.Context, coll *syntax.Collection, p types.TypeID) {
	if !inf.in().IsOpen(p) {
		return
	}
	elem := inf.collectionElement(p)
	if elem == types.NoTypeID {
		return
	}
	for _, item := range coll.Items {
		if ctx.Err() != nil {
			return
		}
		if inner, ok := item.Expr.(*syntax.Collection); ok {
			if !item.Spread {
				inf.fromCollection(ctx, inner, elem)
			}
			continue
		}
		x := inf.b.typeOf(ctx, item.Expr)
		if x.typed() && inf.in().KindOf(x.Type) == types.KindError {
			continue
		}
		if !item.Spread && inf.isVar(elem) {
			// null, default and conditional literals still constrain the result
			inf.lower[elem] = append(inf.lower[elem], x.element(Element{Expr: item.Expr, Span: item.Sp}))
			continue
		}
		if !x.typed() {
			continue
		}
		if item.Spread {
			it := inf.b.e.conv.IterationType(x.Type)
			if it.OK() {
				inf.lowerBound(elem, it.Elem)
			}
			continue
		}
		inf.lowerBound(elem, x.Type)
	}
}

func (inf *inference) lowerBound(p, a types.TypeID) {
	in := inf.in()
	if inf.isVar(p) {
		inf.lower[p] = append(inf.lower[p], ElementInfo{Type: a})
		return
	}
	if !in.IsOpen(p) {
		return
	}
	pt, _ := in.Lookup(p)
	at, _ := in.Lookup(a)
	switch pt.Kind {
	case types.KindArray:
		if at.Kind == types.KindArray && at.Count == pt.Count {
			if inf.b.e.conv.IsReferenceType(at.Elem) {
				inf.lowerBound(pt.Elem, at.Elem)
			} else {
				inf.exactBound(pt.Elem, at.Elem)
			}
		}
	case types.KindSpan:
		if at.Kind == types.KindSpan || at.Kind == types.KindArray {
			inf.exactBound(pt.Elem, at.Elem)
		}
	case types.KindNamed:
		inf.lowerNamed(p, a, at)
	}
}

func (inf *inference) lowerNamed(p, a types.TypeID, at types.Type) {
	in := inf.in()
	tab := inf.b.e.tab
	def := in.DefOf(p)
	decl := tab.Decl(def)
	if decl == nil {
		return
	}
	var match types.TypeID
	if at.Kind == types.KindArray && at.Count == 1 && decl.Arity() == 1 {
		if _, ok := interfaceDefault[decl.WellKnown]; ok {
			match = tab.Instantiate(decl, at.Elem)
		}
	}
	if match == types.NoTypeID {
		for _, cand := range append(tab.BaseChain(a), tab.AllInterfaces(a)...) {
			if in.DefOf(cand) == def {
				match = cand
				break
			}
		}
	}
	if match == types.NoTypeID {
		return
	}
	pa, ma := in.TypeArgs(p), in.TypeArgs(match)
	for i := range pa {
		if i >= len(ma) {
			break
		}
		info, _ := in.TypeParamInfo(decl.TypeParams[i].Type)
		if info.Variance == types.Covariant && inf.b.e.conv.IsReferenceType(ma[i]) {
			inf.lowerBound(pa[i], ma[i])
		} else {
			inf.exactBound(pa[i], ma[i])
		}
	}
}

func (inf *inference) exactBound(p, a types.TypeID) {
	in := inf.in()
	if inf.isVar(p) {
		inf.exact[p] = append(inf.exact[p], a)
		return
	}
	pt, okP := in.Lookup(p)
	at, okA := in.Lookup(a)
	if !okP || !okA || pt.Kind != at.Kind {
		return
	}
	switch pt.Kind {
	case types.KindArray, types.KindSpan, types.KindPointer:
		inf.exactBound(pt.Elem, at.Elem)
	case types.KindNamed:
		if in.DefOf(p) != in.DefOf(a) {
			return
		}
		pa, aa := in.TypeArgs(p), in.TypeArgs(a)
		for i := range pa {
			if i < len(aa) {
				inf.exactBound(pa[i], aa[i])
			}
		}
	}
}

// fix chooses a type for every parameter. Exact bounds must agree; lower
// bounds are merged by element type inference. A parameter without bounds
// fails inference.
func (inf *inference) fix() ([]types.TypeID, bool) {
	conv := inf.b.e.conv
	out := make([]types.TypeID, len(inf.order))
	for i, v := range inf.order {
		exact := inf.exact[v]
		lower := inf.lower[v]
		switch {
		case len(exact) > 0:
			t := exact[0]
			for _, x := range exact[1:] {
				if x != t {
					return nil, false
				}
			}
			for _, l := range lower {
				switch {
				case l.UntypedArms:
					return nil, false
				case l.Null && !conv.AcceptsNull(t):
					return nil, false
				case l.Default && !conv.AcceptsDefault(t):
					return nil, false
				case l.Type != types.NoTypeID && !conv.Implicit(l.Type, t):
					return nil, false
				}
			}
			out[i] = t
		case len(lower) > 0:
			got := inf.b.e.InferElementType(lower)
			if !got.OK {
				return nil, false
			}
			out[i] = got.Type
		default:
			return nil, false
		}
	}
	return out, true
}
