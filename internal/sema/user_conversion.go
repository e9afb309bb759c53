package sema

import (
	"brackets/internal/symbols"
	"brackets/internal/types"
)

// OpImplicit is the metadata name of a user-defined implicit operator.
const OpImplicit = "op_Implicit"

// UserDefined looks up op_Implicit operators declared on from, to or their
// base classes that take from and produce to through standard conversions.
// It returns:
//   - (m, false) if exactly one operator applies
//   - (nil, true) if several operators apply (ambiguous)
//   - (nil, false) if none applies
//
// Conversions are not chained: only one user-defined step is allowed.
func (c *Conversions) UserDefined(from, to types.TypeID) (*symbols.Method, bool) {
	if from == types.NoTypeID || to == types.NoTypeID || from == to {
		return nil, false
	}
	var found []*symbols.Method
	seen := make(map[*symbols.Method]struct{})
	for _, owner := range c.operatorOwners(from, to) {
		decl := c.tab.DeclOf(owner)
		if decl == nil {
			continue
		}
		s := c.tab.SubstOf(owner)
		for _, m := range decl.MethodsNamed(OpImplicit) {
			if !m.Static || len(m.Params) != 1 {
				continue
			}
			param := c.in.Substitute(m.Params[0].Type, s)
			result := c.in.Substitute(m.Result, s)
			if !c.Implicit(from, param) || !c.Implicit(result, to) {
				continue
			}
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			found = append(found, m)
		}
	}
	switch len(found) {
	case 0:
		return nil, false
	case 1:
		return found[0], false
	default:
		return nil, true
	}
}

func (c *Conversions) operatorOwners(from, to types.TypeID) []types.TypeID {
	var owners []types.TypeID
	for _, id := range []types.TypeID{from, to} {
		if c.in.KindOf(id) != types.KindNamed {
			continue
		}
		owners = append(owners, c.tab.BaseChain(id)...)
	}
	return owners
}

// ClassifyWithUser is Classify falling back to a user-defined operator.
// ambiguous is set when several operators compete.
func (c *Conversions) ClassifyWithUser(from, to types.TypeID) (kind ConvKind, ambiguous bool) {
	if k := c.Classify(from, to); k.Exists() {
		return k, false
	}
	m, amb := c.UserDefined(from, to)
	if amb {
		return ConvNone, true
	}
	if m != nil {
		return ConvUserDefined, false
	}
	return ConvNone, false
}
