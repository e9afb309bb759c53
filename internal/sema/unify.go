package sema

import (
	"brackets/internal/types"
)

// Unify matches pattern against actual structurally, binding the type
// parameters listed in vars. Existing bindings must agree. It reports
// whether the shapes match exactly.
func Unify(in *types.Interner, pattern, actual types.TypeID, vars map[types.TypeID]struct{}, bindings types.Subst) bool {
	if pattern == actual {
		return true
	}
	if _, isVar := vars[pattern]; isVar {
		if prev, ok := bindings[pattern]; ok && prev != types.NoTypeID {
			return prev == actual
		}
		bindings[pattern] = actual
		return true
	}
	pt, okP := in.Lookup(pattern)
	at, okA := in.Lookup(actual)
	if !okP || !okA || pt.Kind != at.Kind {
		return false
	}
	switch pt.Kind {
	case types.KindArray:
		return pt.Count == at.Count && Unify(in, pt.Elem, at.Elem, vars, bindings)
	case types.KindSpan:
		return pt.ReadOnly == at.ReadOnly && Unify(in, pt.Elem, at.Elem, vars, bindings)
	case types.KindPointer:
		return Unify(in, pt.Elem, at.Elem, vars, bindings)
	case types.KindNamed:
		pi, _ := in.NamedInfo(pattern)
		ai, _ := in.NamedInfo(actual)
		if pi.Def != ai.Def || len(pi.Args) != len(ai.Args) {
			return false
		}
		for i := range pi.Args {
			if !Unify(in, pi.Args[i], ai.Args[i], vars, bindings) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// VarSet builds the variable set for Unify.
func VarSet(params []types.TypeID) map[types.TypeID]struct{} {
	set := make(map[types.TypeID]struct{}, len(params))
	for _, p := range params {
		set[p] = struct{}{}
	}
	return set
}
