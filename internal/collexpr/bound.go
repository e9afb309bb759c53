package collexpr

import (
	"brackets/internal/sema"
	"brackets/internal/source"
	"brackets/internal/syntax"
	"brackets/internal/types"
)

// BoundElement is one element after conversion to the element type.
type BoundElement struct {
	Kind ElemKind
	Span source.Span
	Expr syntax.Expr
	// Type is the element's type; for a spread, the iteration type of the
	// operand.
	Type types.TypeID
	Conv sema.ConvKind
	// Add is the Add overload chosen for initializer strategies.
	Add *AddCandidate
	// Nested is set for a nested collection expression element.
	Nested *Bound
	// Operand and Iter describe a spread operand.
	Operand types.TypeID
	Iter    sema.IterationSource
}

// Bound is a collection expression bound against a target type. It is the
// hand-off to lowering.
type Bound struct {
	Span     source.Span
	Target   types.TypeID
	Strategy Strategy
	Elem     types.TypeID
	Elements []BoundElement
	// Errors counts error diagnostics reported while binding this literal
	// and its nested literals.
	Errors int
}

// OK reports whether the literal bound without errors.
func (b *Bound) OK() bool {
	return b != nil && b.Strategy.Constructible() && b.Errors == 0
}
