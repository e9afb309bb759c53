package collexpr

import (
	"context"

	"brackets/internal/diag"
	"brackets/internal/sema"
	"brackets/internal/syntax"
	"brackets/internal/types"
)

// exprInfo is the target-independent view of an expression.
type exprInfo struct {
	Type        types.TypeID
	Null        bool
	Default     bool
	Collection  *syntax.Collection
	UntypedArms bool
	Const       bool
	Value       int64
}

func (x exprInfo) typed() bool {
	return x.Type != types.NoTypeID
}

func (x exprInfo) element(el Element) ElementInfo {
	return ElementInfo{
		Type:        x.Type,
		Null:        x.Null,
		Default:     x.Default,
		Collection:  x.Collection != nil,
		UntypedArms: x.UntypedArms,
		Span:        el.Span,
	}
}

// typeOf computes the natural type of expr once per binder; diagnostics that
// do not depend on a target (undefined names, call resolution) are reported
// the first time only.
func (b *Binder) typeOf(ctx context.Context, expr syntax.Expr) exprInfo {
	if x, ok := b.exprs[expr]; ok {
		return x
	}
	x := b.computeType(ctx, expr)
	b.exprs[expr] = x
	return x
}

func (b *Binder) computeType(ctx context.Context, expr syntax.Expr) exprInfo {
	bi := b.e.b
	switch n := expr.(type) {
	case *syntax.Literal:
		switch n.Kind {
		case syntax.LitInt:
			return exprInfo{Type: bi.Int, Const: true, Value: n.Value}
		case syntax.LitUInt:
			return exprInfo{Type: bi.UInt}
		case syntax.LitLong:
			return exprInfo{Type: bi.Long}
		case syntax.LitULong:
			return exprInfo{Type: bi.ULong}
		case syntax.LitFloat:
			return exprInfo{Type: bi.Float}
		case syntax.LitDouble, syntax.LitDecimal:
			return exprInfo{Type: bi.Double}
		case syntax.LitString:
			return exprInfo{Type: bi.String}
		case syntax.LitChar:
			return exprInfo{Type: bi.Char}
		case syntax.LitBool:
			return exprInfo{Type: bi.Bool}
		case syntax.LitNull:
			return exprInfo{Null: true}
		case syntax.LitDefault:
			return exprInfo{Default: true}
		}
	case *syntax.Name:
		if t, ok := b.env.Locals[n.Ident]; ok {
			return exprInfo{Type: t}
		}
		b.root.Report(diag.Errorf(diag.CollUndefinedName, n.Sp, "the name '%s' does not exist in the current context", n.Ident))
		return exprInfo{Type: bi.Error}
	case *syntax.Collection:
		return exprInfo{Collection: n}
	case *syntax.Conditional:
		b.typeOf(ctx, n.Cond)
		return b.conditionalType(ctx, n)
	case *syntax.Call:
		res := b.ResolveCall(ctx, n)
		if res.Method == nil {
			return exprInfo{Type: bi.Error}
		}
		return exprInfo{Type: res.Result}
	case *syntax.Bad:
		return exprInfo{Type: bi.Error}
	}
	return exprInfo{Type: bi.Error}
}

func (b *Binder) conditionalType(ctx context.Context, n *syntax.Conditional) exprInfo {
	then := b.typeOf(ctx, n.Then)
	els := b.typeOf(ctx, n.Else)
	switch {
	case then.Collection != nil && els.Collection != nil:
		return exprInfo{UntypedArms: true}
	case then.typed() && !els.typed():
		if b.convertible(ctx, els, then.Type) {
			return exprInfo{Type: then.Type}
		}
	case els.typed() && !then.typed():
		if b.convertible(ctx, then, els.Type) {
			return exprInfo{Type: els.Type}
		}
	case then.typed() && els.typed():
		if then.Type == els.Type || b.e.conv.Implicit(els.Type, then.Type) {
			return exprInfo{Type: then.Type}
		}
		if b.e.conv.Implicit(then.Type, els.Type) {
			return exprInfo{Type: els.Type}
		}
	}
	return exprInfo{}
}

// convertible reports whether a typeless or typed expression converts to
// to. Collection expressions are checked by binding, not here; for them
// this only says whether a strategy exists.
func (b *Binder) convertible(ctx context.Context, x exprInfo, to types.TypeID) bool {
	_, ok := b.conversion(ctx, x, to)
	return ok
}

func (b *Binder) conversion(ctx context.Context, x exprInfo, to types.TypeID) (sema.ConvKind, bool) {
	conv := b.e.conv
	switch {
	case x.Null:
		if conv.AcceptsNull(to) {
			return sema.ConvReference, true
		}
		return sema.ConvNone, false
	case x.Default:
		if conv.AcceptsDefault(to) {
			return sema.ConvIdentity, true
		}
		return sema.ConvNone, false
	case x.UntypedArms:
		return sema.ConvNone, false
	case x.Collection != nil:
		s, err := b.e.Resolve(ctx, to, shapeOf(x.Collection))
		if err != nil || !s.Constructible() {
			return sema.ConvNone, false
		}
		return sema.ConvIdentity, true
	case !x.typed():
		return sema.ConvNone, false
	}
	if x.Const && x.Type != to && sema.ConstantFits(b.e.in, x.Value, to) {
		return sema.ConvNumeric, true
	}
	kind, ambiguous := conv.ClassifyWithUser(x.Type, to)
	if ambiguous || !kind.Exists() {
		return sema.ConvNone, false
	}
	return kind, true
}

func shapeOf(coll *syntax.Collection) Shape {
	s := Shape{Count: len(coll.Items)}
	for _, it := range coll.Items {
		if it.Spread {
			s.HasSpread = true
			break
		}
	}
	return s
}
