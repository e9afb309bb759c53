package collexpr

import (
	"context"

	"brackets/internal/diag"
	"brackets/internal/syntax"
)

// Usage is a context that consumes an expression without supplying a target
// type.
type Usage uint8

const (
	UsageVar Usage = iota
	UsageReceiver
	UsagePatternSubject
	UsageOperand
	UsageIncDec
	UsageAssignTarget
	UsageSpreadOperand
)

func (u Usage) String() string {
	switch u {
	case UsageVar:
		return "var"
	case UsageReceiver:
		return "receiver"
	case UsagePatternSubject:
		return "pattern subject"
	case UsageOperand:
		return "operand"
	case UsageIncDec:
		return "increment operand"
	case UsageAssignTarget:
		return "assignment target"
	case UsageSpreadOperand:
		return "spread operand"
	default:
		return "unknown"
	}
}

// ParseUsage maps the spelling used in scenario files to a Usage.
func ParseUsage(s string) (Usage, bool) {
	for u := UsageVar; u <= UsageSpreadOperand; u++ {
		if u.String() == s {
			return u, true
		}
	}
	switch s {
	case "member", "member-access":
		return UsageReceiver, true
	case "is", "as", "switch", "with":
		return UsagePatternSubject, true
	case "binary":
		return UsageOperand, true
	case "++", "--", "incdec":
		return UsageIncDec, true
	case "assign":
		return UsageAssignTarget, true
	}
	return 0, false
}

// HasNaturalType reports whether a bare collection expression has a type of
// its own in the given context. It never does.
func HasNaturalType(Usage) bool {
	return false
}

// RequireNaturalType handles a collection expression consumed by a context
// that needs a natural type: NO_TARGET_TYPE is reported at the literal and the
// elements are still elaborated so that errors inside them surface too.
func (b *Binder) RequireNaturalType(ctx context.Context, usage Usage, coll *syntax.Collection) error {
	b.checkFeature(coll.Sp)
	if HasNaturalType(usage) {
		return nil
	}
	b.rep.Report(diag.NewError(diag.CollNoTargetType, coll.Sp, "there is no target type for the collection expression"))
	return b.elaborate(ctx, coll)
}

// elaborate types every element without a target. Nested literals are
// visited silently; only the outermost literal carries NO_TARGET_TYPE.
func (b *Binder) elaborate(ctx context.Context, coll *syntax.Collection) error {
	for _, item := range coll.Items {
		if err := b.checkCtx(ctx); err != nil {
			return err
		}
		if err := b.elaborateExpr(ctx, item.Expr); err != nil {
			return err
		}
	}
	return nil
}

func (b *Binder) elaborateExpr(ctx context.Context, expr syntax.Expr) error {
	switch n := expr.(type) {
	case nil:
		return nil
	case *syntax.Collection:
		return b.elaborate(ctx, n)
	case *syntax.Conditional:
		b.typeOf(ctx, n.Cond)
		if err := b.elaborateExpr(ctx, n.Then); err != nil {
			return err
		}
		return b.elaborateExpr(ctx, n.Else)
	default:
		b.typeOf(ctx, expr)
		return nil
	}
}
