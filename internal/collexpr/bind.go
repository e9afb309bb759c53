package collexpr

import (
	"context"
	"fmt"

	"brackets/internal/diag"
	"brackets/internal/sema"
	"brackets/internal/source"
	"brackets/internal/symbols"
	"brackets/internal/syntax"
	"brackets/internal/trace"
	"brackets/internal/types"
)

// countingReporter forwards diagnostics and counts errors.
type countingReporter struct {
	next   diag.Reporter
	errors int
}

func (r *countingReporter) Report(d diag.Diagnostic) {
	if d.IsError() {
		r.errors++
	}
	r.next.Report(d)
}

// Bind converts coll to target. A NoTypeID target means the context supplies
// no type, which reports NO_TARGET_TYPE. The context is checked between
// elements; on cancellation the partial result is discarded and ctx.Err()
// returned.
func (b *Binder) Bind(ctx context.Context, target types.TypeID, coll *syntax.Collection) (*Bound, error) {
	b.checkFeature(coll.Sp)
	ctx, sp := trace.BeginCtx(ctx, trace.ScopeNode, "collexpr.bind")
	bound, err := b.bind(ctx, target, coll)
	detail := "ok"
	switch {
	case err != nil:
		detail = err.Error()
	case bound != nil && !bound.OK():
		detail = bound.Strategy.Reason.String()
	}
	sp.End(detail)
	if err != nil {
		return nil, err
	}
	return bound, nil
}

func (b *Binder) bind(ctx context.Context, target types.TypeID, coll *syntax.Collection) (*Bound, error) {
	counter := &countingReporter{next: b.rep}
	saved := b.rep
	b.rep = counter
	defer func() { b.rep = saved }()

	node := ClassifyAll(coll, b.rep)
	bound := &Bound{Span: coll.Sp, Target: target}

	if target == types.NoTypeID {
		bound.Strategy = Strategy{Kind: StrategyNotConstructible, Reason: ReasonNoTargetType}
		err := b.RequireNaturalType(ctx, UsageVar, coll)
		bound.Errors = counter.errors
		return bound, err
	}
	if b.e.in.KindOf(target) == types.KindError {
		bound.Strategy = Strategy{Kind: StrategyNotConstructible, Reason: ReasonNotConstructible, Target: target}
		return bound, b.elaborate(ctx, coll)
	}

	s, err := b.e.Resolve(ctx, target, node.Shape())
	if err != nil {
		return nil, err
	}
	bound.Strategy = s
	bound.Elem = s.Elem
	for _, f := range s.Diags {
		b.rep.Report(f.At(coll.Sp))
	}
	if !s.Constructible() {
		b.reportNotConstructible(s, coll.Sp)
		err := b.elaborate(ctx, coll)
		bound.Errors = counter.errors
		return bound, err
	}

	bound.Elements = make([]BoundElement, 0, len(node.Elements))
	for _, el := range node.Elements {
		if err := b.checkCtx(ctx); err != nil {
			return nil, err
		}
		var be BoundElement
		var err error
		if el.Kind == ElemSpread {
			be, err = b.bindSpread(ctx, s, el)
		} else {
			be, err = b.bindPlain(ctx, s, el)
		}
		if err != nil {
			return nil, err
		}
		bound.Elements = append(bound.Elements, be)
	}
	bound.Errors = counter.errors
	return bound, nil
}

func (b *Binder) reportNotConstructible(s Strategy, sp source.Span) {
	switch s.Reason {
	case ReasonMissingDefaultType:
		b.rep.Report(diag.Errorf(diag.CollMissingPredefinedMember, sp,
			"missing compiler required member '%s.%s'", s.Missing, ".ctor"))
	case ReasonBuilderNotFound, ReasonNoElementType:
		if len(s.Diags) == 0 {
			b.rep.Report(diag.Errorf(diag.CollNotConstructible, sp,
				"cannot initialize type '%s' with a collection expression because the type is not constructible", b.e.label(s.Target)))
		}
	default:
		b.rep.Report(diag.Errorf(diag.CollNotConstructible, sp,
			"cannot initialize type '%s' with a collection expression because the type is not constructible", b.e.label(s.Target)))
	}
}

// nestedTarget is the type a nested literal element is bound against.
func (b *Binder) nestedTarget(s Strategy) types.TypeID {
	if s.Kind == StrategyInitializer && len(s.Initializer.Adds) == 1 {
		if p := s.Initializer.Adds[0].Param; !b.e.in.IsOpen(p) || b.e.in.KindOf(p) != types.KindTypeParam {
			return p
		}
	}
	return s.Elem
}

func (b *Binder) bindPlain(ctx context.Context, s Strategy, el Element) (BoundElement, error) {
	be := BoundElement{Kind: ElemPlain, Span: el.Span, Expr: el.Expr}
	switch n := el.Expr.(type) {
	case *syntax.Collection:
		target := b.nestedTarget(s)
		nested, err := b.bind(ctx, target, n)
		if err != nil {
			return be, err
		}
		be.Nested = nested
		be.Type = target
		be.Conv = sema.ConvIdentity
		return be, nil
	case *syntax.Conditional:
		if b.hasCollectionArm(n) {
			target := b.nestedTarget(s)
			b.typeOf(ctx, n.Cond)
			for _, arm := range []syntax.Expr{n.Then, n.Else} {
				if err := b.bindArm(ctx, target, arm); err != nil {
					return be, err
				}
			}
			be.Type = target
			be.Conv = sema.ConvIdentity
			return be, nil
		}
	}

	x := b.typeOf(ctx, el.Expr)
	be.Type = x.Type
	if s.Kind == StrategyInitializer {
		be.Add = b.pickAdd(ctx, s, x, el.Span)
		if be.Add != nil {
			be.Conv, _ = b.conversion(ctx, x, be.Add.Param)
		}
		return be, nil
	}
	kind, ok := b.conversion(ctx, x, s.Elem)
	if !ok {
		b.reportElementConversion(x, s.Elem, el.Span)
	}
	be.Conv = kind
	return be, nil
}

func (b *Binder) hasCollectionArm(n *syntax.Conditional) bool {
	_, thenColl := n.Then.(*syntax.Collection)
	_, elseColl := n.Else.(*syntax.Collection)
	return thenColl || elseColl
}

func (b *Binder) bindArm(ctx context.Context, target types.TypeID, arm syntax.Expr) error {
	if coll, ok := arm.(*syntax.Collection); ok {
		_, err := b.bind(ctx, target, coll)
		return err
	}
	x := b.typeOf(ctx, arm)
	if !b.convertible(ctx, x, target) {
		b.reportElementConversion(x, target, arm.Span())
	}
	return nil
}

func (b *Binder) bindSpread(ctx context.Context, s Strategy, el Element) (BoundElement, error) {
	be := BoundElement{Kind: ElemSpread, Span: el.Span, Expr: el.Expr}
	if inner, ok := el.Expr.(*syntax.Collection); ok {
		// A literal spread operand is elaborated on its own, without the
		// outer target.
		return be, b.RequireNaturalType(ctx, UsageSpreadOperand, inner)
	}
	x := b.typeOf(ctx, el.Expr)
	if b.e.in.KindOf(x.Type) == types.KindError {
		return be, nil
	}
	be.Operand = x.Type
	var iter sema.Iteration
	if x.typed() {
		iter = b.e.conv.IterationType(x.Type)
	}
	if !iter.OK() {
		what := "<null>"
		if x.typed() {
			what = b.e.label(x.Type)
		}
		b.rep.Report(diag.Errorf(diag.CollSpreadNotEnumerable, el.Expr.Span(),
			"spread operator cannot operate on variables of type '%s' because '%s' does not contain a public instance or extension definition for 'GetEnumerator'", what, what))
		return be, nil
	}
	be.Iter = iter.Source
	be.Type = iter.Elem
	item := exprInfo{Type: iter.Elem}
	if s.Kind == StrategyInitializer {
		be.Add = b.pickAdd(ctx, s, item, el.Span)
		if be.Add != nil {
			be.Conv, _ = b.conversion(ctx, item, be.Add.Param)
		}
		return be, nil
	}
	kind, ok := b.conversion(ctx, item, s.Elem)
	if !ok {
		b.reportElementConversion(item, s.Elem, el.Span)
	}
	be.Conv = kind
	return be, nil
}

func (b *Binder) describe(x exprInfo) string {
	switch {
	case x.Null:
		return "<null>"
	case x.Default:
		return "default"
	case x.Collection != nil, x.UntypedArms:
		return "collection expressions"
	case !x.typed():
		return "?"
	}
	return b.e.label(x.Type)
}

func (b *Binder) reportElementConversion(x exprInfo, to types.TypeID, sp source.Span) {
	if b.e.in.KindOf(x.Type) == types.KindError {
		return
	}
	b.rep.Report(diag.Errorf(diag.CollElementConversion, sp,
		"cannot implicitly convert type '%s' to '%s'", b.describe(x), b.e.label(to)))
}

// pickAdd resolves the Add overload for one element.
func (b *Binder) pickAdd(ctx context.Context, s Strategy, x exprInfo, sp source.Span) *AddCandidate {
	if b.e.in.KindOf(x.Type) == types.KindError {
		return nil
	}
	var applicable []AddCandidate
	for _, a := range s.Initializer.Adds {
		cand := a
		if b.isMethodTypeParam(cand.Method, cand.Param) {
			if !x.typed() {
				continue
			}
			cand.Bindings = cloneSubst(cand.Bindings)
			cand.Bindings[cand.Param] = x.Type
			cand.Param = x.Type
		}
		if b.convertible(ctx, x, cand.Param) {
			applicable = append(applicable, cand)
		}
	}
	if len(applicable) == 0 {
		want := b.e.b.Object
		if adds := s.Initializer.Adds; len(adds) > 0 {
			want = adds[0].Param
		}
		b.rep.Report(diag.Errorf(diag.CollBadArgType, sp,
			"argument %d: cannot convert from '%s' to '%s'", 1, b.describe(x), b.e.label(want)))
		return nil
	}

	var best []AddCandidate
	for i, a := range applicable {
		dominated := false
		for j, c := range applicable {
			if i != j && b.betterAdd(x, c, a) && !b.betterAdd(x, a, c) {
				dominated = true
				break
			}
		}
		if !dominated {
			best = append(best, a)
		}
	}
	if len(best) == 0 {
		best = applicable
	}
	if len(best) != 1 {
		b.rep.Report(diag.Errorf(diag.CollAmbiguousCall, sp,
			"the call is ambiguous between the following methods or properties: '%s' and '%s'",
			b.addLabel(best[0]), b.addLabel(best[1])))
		return nil
	}
	chosen := best[0]
	return &chosen
}

// betterAdd reports whether a is a better Add than c for x.
func (b *Binder) betterAdd(x exprInfo, a, c AddCandidate) bool {
	if x.typed() {
		aExact := x.Type == a.Param
		cExact := x.Type == c.Param
		if aExact != cExact {
			return aExact
		}
	}
	if r := b.e.conv.BetterTarget(a.Param, c.Param); r != 0 {
		return r < 0
	}
	return !a.Extension && c.Extension
}

func (b *Binder) isMethodTypeParam(m *symbols.Method, t types.TypeID) bool {
	for _, tp := range m.TypeParams {
		if tp.Type == t {
			return true
		}
	}
	return false
}

func (b *Binder) addLabel(a AddCandidate) string {
	owner := "?"
	if d := b.e.tab.Decl(a.Method.Owner); d != nil {
		owner = d.Name
	}
	return fmt.Sprintf("%s.%s(%s)", owner, a.Method.Name, b.e.label(a.Param))
}

func cloneSubst(s types.Subst) types.Subst {
	out := make(types.Subst, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	return out
}
