package collexpr

import (
	"context"
	"strconv"

	"brackets/internal/sema"
	"brackets/internal/symbols"
	"brackets/internal/trace"
	"brackets/internal/types"
)

// Resolve decides how a collection expression of the given shape is built
// when converted to target. Results are cached per compilation; the only
// error is ctx cancellation before the decision was made.
func (e *Engine) Resolve(ctx context.Context, target types.TypeID, shape Shape) (Strategy, error) {
	key := strategyKey{target: target, shape: shape, site: e.site}
	s, hit, err := e.cache.strategy(ctx, key, func() (Strategy, error) {
		s := e.decide(ctx, target)
		return s, ctx.Err()
	})
	if err != nil {
		return Strategy{}, err
	}
	trace.PointCtx(ctx, trace.ScopeNode, "collexpr.strategy", s.Kind.String(),
		"target", e.label(target),
		"reason", s.Reason.String(),
		"cached", strconv.FormatBool(hit))
	return s, nil
}

// decide applies the selection rules in order; the first match wins.
func (e *Engine) decide(ctx context.Context, target types.TypeID) Strategy {
	notConstructible := func(r Reason) Strategy {
		return Strategy{Kind: StrategyNotConstructible, Reason: r, Target: target}
	}
	tt, ok := e.in.Lookup(target)
	if !ok || target == types.NoTypeID {
		return notConstructible(ReasonNoTargetType)
	}

	switch tt.Kind {
	case types.KindTypeParam:
		p, _ := e.tab.TypeParam(target)
		if !p.NewCtor && len(p.Constraints) == 0 {
			return notConstructible(ReasonNoTargetType)
		}
		return e.resolveTypeParam(target, p)
	case types.KindArray:
		if tt.Count != 1 {
			return notConstructible(ReasonMultiDimensionalArray)
		}
		return Strategy{Kind: StrategyArray, Target: target, Elem: tt.Elem}
	case types.KindSpan:
		return Strategy{Kind: StrategySpan, Target: target, Elem: tt.Elem, SpanReadOnly: tt.ReadOnly}
	case types.KindPointer:
		return notConstructible(ReasonExcludedCategory)
	case types.KindNamed:
	default:
		return notConstructible(ReasonNotConstructible)
	}

	decl := e.tab.DeclOf(target)
	if decl == nil {
		return notConstructible(ReasonNotConstructible)
	}
	switch decl.Kind {
	case symbols.TypeDelegate, symbols.TypeEnum:
		return notConstructible(ReasonExcludedCategory)
	case symbols.TypeInterface:
		return e.resolveInterface(target, decl)
	}

	if decl.Builder != nil {
		return e.resolveBuilderStrategy(ctx, target, decl)
	}
	return e.resolveInitializer(target, decl)
}

func (e *Engine) resolveTypeParam(target types.TypeID, p symbols.TypeParamDecl) Strategy {
	fail := Strategy{Kind: StrategyNotConstructible, Reason: ReasonNotConstructible, Target: target}
	if !p.NewCtor {
		return fail
	}
	if !e.implementsMarker(target) {
		return fail
	}
	iter := e.conv.IterationType(target)
	adds := e.addCandidates(target)
	if !e.acceptsIteration(adds, iter) {
		return fail
	}
	return Strategy{
		Kind:        StrategyInitializer,
		Target:      target,
		Elem:        iter.Elem,
		Initializer: &InitializerInfo{Adds: adds},
	}
}

// implementsMarker reports whether target reaches the non-generic
// IEnumerable through base classes, interfaces or constraints.
func (e *Engine) implementsMarker(target types.TypeID) bool {
	marker, ok := e.tab.WellKnown(symbols.WKIEnumerable)
	if !ok {
		return false
	}
	return e.conv.Implicit(target, marker.Self)
}

func (e *Engine) resolveInitializer(target types.TypeID, decl *symbols.TypeDecl) Strategy {
	fail := Strategy{Kind: StrategyNotConstructible, Reason: ReasonNotConstructible, Target: target}
	if decl.Static || !e.implementsMarker(target) {
		return fail
	}
	var ctor *symbols.Method
	if decl.Kind == symbols.TypeClass {
		ctor = e.defaultCtor(decl)
		if ctor == nil {
			return fail
		}
	} else if c := e.defaultCtor(decl); c != nil {
		ctor = c
	}
	iter := e.conv.IterationType(target)
	if !iter.OK() {
		return fail
	}
	adds := e.addCandidates(target)
	if !e.acceptsIteration(adds, iter) {
		return fail
	}
	return Strategy{
		Kind:        StrategyInitializer,
		Target:      target,
		Elem:        iter.Elem,
		Initializer: &InitializerInfo{Ctor: ctor, Adds: adds},
	}
}

// defaultCtor finds an accessible constructor whose parameters are all
// optional, preferring the one with the fewest parameters.
func (e *Engine) defaultCtor(decl *symbols.TypeDecl) *symbols.Method {
	var best *symbols.Method
	for _, c := range decl.Ctors {
		if c.RequiredParams() != 0 || !e.tab.Accessible(c.Access, decl.ID, e.site) {
			continue
		}
		if best == nil || len(c.Params) < len(best.Params) {
			best = c
		}
	}
	return best
}

// addCandidates collects accessible Add methods callable with one argument:
// instance methods on the type and its bases (or constraint types), then
// extension methods whose receiver accepts the type.
func (e *Engine) addCandidates(target types.TypeID) []AddCandidate {
	var out []AddCandidate
	receivers := []types.TypeID{target}
	if e.in.KindOf(target) == types.KindTypeParam {
		p, _ := e.tab.TypeParam(target)
		receivers = p.Constraints
	}
	seen := make(map[*symbols.Method]struct{})
	for _, recv := range receivers {
		for _, ref := range e.tab.InstanceMembers(recv, "Add") {
			m := ref.Method
			if _, dup := seen[m]; dup {
				continue
			}
			if len(m.Params) == 0 || m.RequiredParams() > 1 || m.Arity() != 0 {
				continue
			}
			if !e.tab.Accessible(m.Access, m.Owner, e.site) {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, AddCandidate{Method: m, Param: ref.ParamType(e.in, 0)})
		}
	}
	for _, m := range e.tab.Extensions("Add") {
		if len(m.Params) < 2 || m.RequiredParams() > 2 {
			continue
		}
		if !e.tab.Accessible(m.Access, m.Owner, e.site) {
			continue
		}
		bindings, ok := e.unifyReceiver(m, target)
		if !ok {
			continue
		}
		param := e.in.Substitute(m.Params[1].Type, bindings)
		out = append(out, AddCandidate{Method: m, Param: param, Extension: true, Bindings: bindings})
	}
	return out
}

// unifyReceiver matches the receiver parameter of an extension method
// against target, its base classes and its interfaces, fixing the method's
// type parameters on the way.
func (e *Engine) unifyReceiver(m *symbols.Method, target types.TypeID) (types.Subst, bool) {
	recv := m.Params[0].Type
	vars := sema.VarSet(m.TypeParamIDs())
	cands := append(e.tab.BaseChain(target), e.tab.AllInterfaces(target)...)
	if len(cands) == 0 {
		cands = []types.TypeID{target}
	}
	for _, c := range cands {
		trial := types.Subst{}
		if sema.Unify(e.in, recv, c, vars, trial) {
			return trial, true
		}
	}
	if !e.in.IsOpen(recv) && e.conv.Implicit(target, recv) {
		return types.Subst{}, true
	}
	return nil, false
}

// acceptsIteration reports whether some Add accepts the iteration type. An
// object iteration type (non-generic IEnumerable) accepts any one-argument
// Add, with per-element binding deciding later.
func (e *Engine) acceptsIteration(adds []AddCandidate, iter sema.Iteration) bool {
	if len(adds) == 0 {
		return false
	}
	if !iter.OK() || iter.Elem == e.b.Object || iter.Source == sema.IterInterface {
		return true
	}
	for _, a := range adds {
		if e.in.IsOpen(a.Param) && e.in.KindOf(a.Param) == types.KindTypeParam {
			return true
		}
		if e.conv.Implicit(iter.Elem, a.Param) {
			return true
		}
	}
	return false
}
