package collexpr

import (
	"brackets/internal/source"
	"brackets/internal/types"
)

// ElementInfo is what element type inference knows about one element.
type ElementInfo struct {
	// Type is the element's own type, or for a spread the iteration type of
	// its operand. NoTypeID when the element has no type.
	Type types.TypeID
	// Null and Default mark the typeless literals.
	Null    bool
	Default bool
	// Collection marks a nested collection expression, which has no type of
	// its own at this level.
	Collection bool
	// UntypedArms marks a conditional whose arms are both collection
	// expressions.
	UntypedArms bool
	Span        source.Span
}

// Inferred is the result of element type inference.
type Inferred struct {
	Type types.TypeID
	OK   bool
	// Hard is set when inference was refused outright rather than finding
	// no common type.
	Hard bool
}

// InferElementType merges element types with the best common type rule.
// Typeless null and default literals contribute no candidate but must
// convert to the result; nested collection expressions contribute nothing.
func (e *Engine) InferElementType(elems []ElementInfo) Inferred {
	var cands []types.TypeID
	for _, el := range elems {
		if el.UntypedArms {
			return Inferred{Hard: true}
		}
		if el.Null || el.Default || el.Collection || el.Type == types.NoTypeID {
			continue
		}
		cands = append(cands, el.Type)
	}
	best, ok := e.conv.BestCommonType(cands)
	if !ok {
		return Inferred{}
	}
	for _, el := range elems {
		switch {
		case el.Null && !e.conv.AcceptsNull(best):
			return Inferred{}
		case el.Default && !e.conv.AcceptsDefault(best):
			return Inferred{}
		}
	}
	return Inferred{Type: best, OK: true}
}
