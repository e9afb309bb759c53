package collexpr

import (
	"context"
	"fmt"
	"strings"

	"brackets/internal/diag"
	"brackets/internal/symbols"
	"brackets/internal/syntax"
	"brackets/internal/trace"
	"brackets/internal/types"
)

// PreferenceOrdering is the outcome of comparing two parameter types for
// one argument.
type PreferenceOrdering uint8

const (
	PreferNeither PreferenceOrdering = iota
	PreferFirst
	PreferSecond
)

func (p PreferenceOrdering) String() string {
	switch p {
	case PreferFirst:
		return "first"
	case PreferSecond:
		return "second"
	default:
		return "neither"
	}
}

func (p PreferenceOrdering) flip() PreferenceOrdering {
	switch p {
	case PreferFirst:
		return PreferSecond
	case PreferSecond:
		return PreferFirst
	}
	return p
}

// CallResult is the resolved form of a call expression. Method is nil when
// resolution failed; the failure has been reported.
type CallResult struct {
	Method   *symbols.Method
	TypeArgs []types.TypeID
	Params   []types.TypeID // parameter types after substitution, one per argument
	Result   types.TypeID
	// Args holds the bound collection-expression arguments by position.
	Args map[int]*Bound
}

type callArg struct {
	mode syntax.ArgMode
	info exprInfo
	coll *syntax.Collection
	src  syntax.Arg
}

type candidate struct {
	m        *symbols.Method
	typeArgs []types.TypeID
	params   []types.TypeID
	result   types.TypeID

	applicable  bool
	inferFailed bool
	badArg      int // 1-based, 0 when the arity or a mode did not match
}

// ResolveCall resolves a call to a free function visible through Env.
// Call-level diagnostics do not depend on any outer target and go to the
// root reporter, so a call typed during a trial bind is still reported once.
func (b *Binder) ResolveCall(ctx context.Context, call *syntax.Call) CallResult {
	ctx, sp := trace.BeginCtx(ctx, trace.ScopeNode, "collexpr.call")
	res := b.resolveCall(ctx, call)
	detail := "failed"
	if res.Method != nil {
		detail = b.signature(res.Method, res.Params)
	}
	sp.End(detail)
	return res
}

func (b *Binder) resolveCall(ctx context.Context, call *syntax.Call) CallResult {
	args := make([]callArg, len(call.Args))
	for i, a := range call.Args {
		args[i] = callArg{mode: a.Mode, src: a}
		if coll, ok := a.Expr.(*syntax.Collection); ok {
			args[i].coll = coll
			args[i].info = exprInfo{Collection: coll}
			continue
		}
		args[i].info = b.typeOf(ctx, a.Expr)
	}

	var methods []*symbols.Method
	if b.env.Functions != nil {
		methods = b.env.Functions(call.Callee)
	}
	if len(methods) == 0 {
		b.root.Report(diag.Errorf(diag.CollUndefinedName, call.CalleeSpan,
			"the name '%s' does not exist in the current context", call.Callee))
		b.elaborateArgs(ctx, args)
		return CallResult{}
	}

	explicit := make([]types.TypeID, 0, len(call.TypeArgs))
	for _, ta := range call.TypeArgs {
		t, ok := b.resolveTypeExpr(ta)
		if !ok {
			b.elaborateArgs(ctx, args)
			return CallResult{}
		}
		explicit = append(explicit, t)
	}

	cands := make([]candidate, 0, len(methods))
	for _, m := range methods {
		if ctx.Err() != nil {
			return CallResult{}
		}
		cands = append(cands, b.evaluate(ctx, m, args, explicit))
	}

	var applicable []candidate
	for _, c := range cands {
		if c.applicable {
			applicable = append(applicable, c)
		}
	}
	if len(applicable) == 0 {
		b.reportNoApplicable(ctx, call, args, cands)
		b.elaborateArgs(ctx, args)
		return CallResult{}
	}

	best := b.selectBest(ctx, args, applicable)
	if len(best) != 1 {
		b.root.Report(diag.Errorf(diag.CollAmbiguousCall, call.Sp,
			"the call is ambiguous between the following methods or properties: '%s' and '%s'",
			b.signature(best[0].m, best[0].params), b.signature(best[1].m, best[1].params)))
		b.elaborateArgs(ctx, args)
		return CallResult{}
	}

	chosen := best[0]
	out := CallResult{
		Method:   chosen.m,
		TypeArgs: chosen.typeArgs,
		Params:   chosen.params,
		Result:   chosen.result,
	}
	for i, a := range args {
		if a.coll == nil {
			continue
		}
		bound, err := b.bind(ctx, chosen.params[i], a.coll)
		if err != nil {
			return CallResult{}
		}
		if out.Args == nil {
			out.Args = make(map[int]*Bound)
		}
		out.Args[i] = bound
	}
	return out
}

// evaluate instantiates m for the arguments and checks applicability.
func (b *Binder) evaluate(ctx context.Context, m *symbols.Method, args []callArg, explicit []types.TypeID) candidate {
	c := candidate{m: m}
	if len(args) > len(m.Params) || len(args) < m.RequiredParams() {
		return c
	}
	for i, a := range args {
		if !modeMatches(a, m.Params[i].Ref) {
			return c
		}
	}

	subst := types.Subst{}
	switch {
	case m.Arity() == 0:
		if len(explicit) > 0 {
			return c
		}
	case len(explicit) > 0:
		if len(explicit) != m.Arity() {
			return c
		}
		for i, tp := range m.TypeParams {
			subst[tp.Type] = explicit[i]
		}
		c.typeArgs = explicit
	default:
		inf := b.newInference(m.TypeParamIDs())
		for i, a := range args {
			inf.argument(ctx, a, m.Params[i])
		}
		typeArgs, ok := inf.fix()
		if !ok {
			c.inferFailed = true
			return c
		}
		for i, tp := range m.TypeParams {
			subst[tp.Type] = typeArgs[i]
		}
		c.typeArgs = typeArgs
	}

	in := b.e.in
	c.params = make([]types.TypeID, len(args))
	for i := range args {
		c.params[i] = in.Substitute(m.Params[i].Type, subst)
	}
	c.result = in.Substitute(m.Result, subst)

	for i, a := range args {
		if !b.argApplies(ctx, a, c.params[i], m.Params[i].Ref) {
			c.badArg = i + 1
			return c
		}
	}
	c.applicable = true
	return c
}

func modeMatches(a callArg, ref symbols.RefKind) bool {
	switch a.mode {
	case syntax.ArgRef:
		return ref == symbols.RefRef && a.coll == nil
	case syntax.ArgOut:
		return ref == symbols.RefOut && a.coll == nil
	case syntax.ArgIn:
		return ref == symbols.RefIn && a.coll == nil
	default:
		return ref == symbols.RefNone || ref == symbols.RefIn
	}
}

// argApplies checks one argument against a substituted parameter type.
// Collection expressions are tried by binding; user-defined conversions
// are never considered for them.
func (b *Binder) argApplies(ctx context.Context, a callArg, param types.TypeID, ref symbols.RefKind) bool {
	if a.coll != nil {
		bound, err := b.trial().bind(ctx, param, a.coll)
		return err == nil && bound != nil && bound.Strategy.Constructible() && bound.Errors == 0
	}
	if b.e.in.KindOf(a.info.Type) == types.KindError {
		return true
	}
	if ref == symbols.RefRef || ref == symbols.RefOut {
		return a.info.typed() && a.info.Type == param
	}
	return b.convertible(ctx, a.info, param)
}

// selectBest keeps the candidates no other applicable candidate beats.
func (b *Binder) selectBest(ctx context.Context, args []callArg, cands []candidate) []candidate {
	if len(cands) == 1 {
		return cands
	}
	var best []candidate
	for i, c := range cands {
		beaten := false
		for j, o := range cands {
			if i != j && b.compareCandidates(ctx, args, o, c) == PreferFirst {
				beaten = true
				break
			}
		}
		if !beaten {
			best = append(best, c)
		}
	}
	if len(best) == 0 {
		return cands
	}
	return best
}

// compareCandidates decides whether c1 or c2 is the better function member.
func (b *Binder) compareCandidates(ctx context.Context, args []callArg, c1, c2 candidate) PreferenceOrdering {
	first, second := false, false
	for i, a := range args {
		p1, p2 := c1.params[i], c2.params[i]
		if p1 == p2 {
			continue
		}
		switch b.betterArgument(ctx, a, p1, p2) {
		case PreferFirst:
			first = true
		case PreferSecond:
			second = true
		}
	}
	switch {
	case first && !second:
		return PreferFirst
	case second && !first:
		return PreferSecond
	case first && second:
		return PreferNeither
	}
	if !samePositions(c1.params, c2.params) {
		return PreferNeither
	}
	g1, g2 := c1.m.Arity() > 0, c2.m.Arity() > 0
	switch {
	case !g1 && g2:
		return PreferFirst
	case g1 && !g2:
		return PreferSecond
	}
	return PreferNeither
}

func samePositions(a, b []types.TypeID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (b *Binder) betterArgument(ctx context.Context, a callArg, p1, p2 types.TypeID) PreferenceOrdering {
	if a.coll != nil {
		return b.ClassifyForOverload(ctx, a.coll, p1, p2)
	}
	return b.betterFromExpr(a.info, p1, p2)
}

func (b *Binder) betterFromExpr(x exprInfo, p1, p2 types.TypeID) PreferenceOrdering {
	if p1 == p2 {
		return PreferNeither
	}
	if x.typed() {
		switch {
		case x.Type == p1:
			return PreferFirst
		case x.Type == p2:
			return PreferSecond
		}
	}
	switch b.e.conv.BetterTarget(p1, p2) {
	case -1:
		return PreferFirst
	case 1:
		return PreferSecond
	}
	return PreferNeither
}

// ClassifyForOverload compares two parameter types for a collection
// expression argument. Non-interface targets beat interfaces, the more
// derived of two interfaces wins, and targets of the same kind compare the
// conversions of the individual elements. Different non-interface kinds are
// never ordered.
func (b *Binder) ClassifyForOverload(ctx context.Context, coll *syntax.Collection, p1, p2 types.TypeID) PreferenceOrdering {
	if p1 == p2 {
		return PreferNeither
	}
	shape := shapeOf(coll)
	s1, err1 := b.e.Resolve(ctx, p1, shape)
	s2, err2 := b.e.Resolve(ctx, p2, shape)
	if err1 != nil || err2 != nil {
		return PreferNeither
	}
	switch {
	case s1.Constructible() && !s2.Constructible():
		return PreferFirst
	case !s1.Constructible() && s2.Constructible():
		return PreferSecond
	case !s1.Constructible():
		return PreferNeither
	}

	i1, i2 := s1.IsInterface(), s2.IsInterface()
	switch {
	case !i1 && i2:
		return PreferFirst
	case i1 && !i2:
		return PreferSecond
	case i1 && i2:
		conv := b.e.conv
		to2, to1 := conv.Implicit(p1, p2), conv.Implicit(p2, p1)
		switch {
		case to2 && !to1:
			return PreferFirst
		case to1 && !to2:
			return PreferSecond
		}
		if b.e.in.DefOf(p1) != b.e.in.DefOf(p2) {
			return PreferNeither
		}
		return b.compareElements(ctx, coll, s1.Elem, s2.Elem)
	}
	if !b.sameKind(s1, s2) {
		return PreferNeither
	}
	return b.compareElements(ctx, coll, s1.Elem, s2.Elem)
}

func (b *Binder) sameKind(s1, s2 Strategy) bool {
	if s1.Kind != s2.Kind {
		return false
	}
	switch s1.Kind {
	case StrategyArray:
		return true
	case StrategySpan:
		return s1.SpanReadOnly == s2.SpanReadOnly
	default:
		return b.e.in.DefOf(s1.Target) == b.e.in.DefOf(s2.Target)
	}
}

// compareElements orders e1 and e2 by how the elements of coll convert to
// them. An empty literal orders nothing.
func (b *Binder) compareElements(ctx context.Context, coll *syntax.Collection, e1, e2 types.TypeID) PreferenceOrdering {
	if e1 == e2 {
		return PreferNeither
	}
	first, second := false, false
	for _, item := range coll.Items {
		var r PreferenceOrdering
		switch n := item.Expr.(type) {
		case *syntax.Collection:
			if item.Spread {
				continue
			}
			r = b.ClassifyForOverload(ctx, n, e1, e2)
		default:
			x := b.typeOf(ctx, item.Expr)
			if item.Spread {
				if !x.typed() {
					continue
				}
				it := b.e.conv.IterationType(x.Type)
				if !it.OK() {
					continue
				}
				x = exprInfo{Type: it.Elem}
			}
			r = b.betterFromExpr(x, e1, e2)
		}
		switch r {
		case PreferFirst:
			first = true
		case PreferSecond:
			second = true
		}
	}
	switch {
	case first && !second:
		return PreferFirst
	case second && !first:
		return PreferSecond
	}
	return PreferNeither
}

func (b *Binder) reportNoApplicable(ctx context.Context, call *syntax.Call, args []callArg, cands []candidate) {
	allInferFailed := true
	for _, c := range cands {
		if !c.inferFailed {
			allInferFailed = false
		}
	}
	if allInferFailed {
		b.root.Report(diag.Errorf(diag.CollCantInferTypeArgs, call.CalleeSpan,
			"the type arguments for method '%s' cannot be inferred from the usage", call.Callee))
		return
	}
	if len(cands) > 1 {
		b.root.Report(diag.Errorf(diag.CollNoOverload, call.CalleeSpan,
			"no overload for method '%s' takes %d arguments of these types", call.Callee, len(args)))
		return
	}

	c := cands[0]
	if c.badArg == 0 {
		b.root.Report(diag.Errorf(diag.CollNoOverload, call.CalleeSpan,
			"no overload for method '%s' takes %d arguments", call.Callee, len(args)))
		return
	}
	i := c.badArg - 1
	a := args[i]
	if a.coll != nil {
		// Bind against the parameter so the element-level problems surface
		// where they are.
		counter := &countingReporter{next: b.root}
		saved := b.rep
		b.rep = counter
		_, _ = b.bind(ctx, c.params[i], a.coll)
		b.rep = saved
		if counter.errors > 0 {
			return
		}
	}
	b.root.Report(diag.Errorf(diag.CollBadArgType, a.src.Sp,
		"argument %d: cannot convert from '%s' to '%s'", c.badArg, b.describe(a.info), b.paramLabel(c.m.Params[i].Ref, c.params[i])))
}

// elaborateArgs types the arguments of a failed call without a target so
// nested name errors still surface.
func (b *Binder) elaborateArgs(ctx context.Context, args []callArg) {
	for _, a := range args {
		if a.coll != nil {
			_ = b.elaborate(ctx, a.coll)
		}
	}
}

func (b *Binder) resolveTypeExpr(te *syntax.TypeExpr) (types.TypeID, bool) {
	if b.env.ResolveType == nil {
		b.root.Report(diag.Errorf(diag.ProjUnknownType, te.Sp, "unknown type '%s'", te.String()))
		return types.NoTypeID, false
	}
	t, err := b.env.ResolveType(te)
	if err != nil {
		b.root.Report(diag.Errorf(diag.ProjUnknownType, te.Sp, "%v", err))
		return types.NoTypeID, false
	}
	return t, true
}

func (b *Binder) paramLabel(ref symbols.RefKind, t types.TypeID) string {
	prefix := ""
	switch ref {
	case symbols.RefRef:
		prefix = "ref "
	case symbols.RefIn:
		prefix = "in "
	case symbols.RefOut:
		prefix = "out "
	}
	return prefix + b.e.label(t)
}

// signature renders m as Name<T>(params) for diagnostics. params, when
// given, are the substituted parameter types of the call.
func (b *Binder) signature(m *symbols.Method, params []types.TypeID) string {
	var sb strings.Builder
	sb.WriteString(m.Name)
	if m.Arity() > 0 {
		names := make([]string, len(m.TypeParams))
		for i, tp := range m.TypeParams {
			names[i] = b.e.label(tp.Type)
		}
		fmt.Fprintf(&sb, "<%s>", strings.Join(names, ", "))
	}
	sb.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		t := p.Type
		if m.Arity() == 0 && i < len(params) {
			t = params[i]
		}
		sb.WriteString(b.paramLabel(p.Ref, t))
	}
	sb.WriteByte(')')
	return sb.String()
}

// Label renders the chosen overload of res, or "" when the call failed.
func (b *Binder) Label(res CallResult) string {
	if res.Method == nil {
		return ""
	}
	return b.signature(res.Method, res.Params)
}
