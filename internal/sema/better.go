package sema

import (
	"brackets/internal/types"
)

// BetterTarget compares two conversion targets for the same source. It
// returns -1 when t1 is better, 1 when t2 is better and 0 when neither is.
// A target is better when it converts to the other but not back; among
// integral types a signed target beats an unsigned one of any width.
func (c *Conversions) BetterTarget(t1, t2 types.TypeID) int {
	if t1 == t2 {
		return 0
	}
	one := c.Implicit(t1, t2)
	two := c.Implicit(t2, t1)
	switch {
	case one && !two:
		return -1
	case two && !one:
		return 1
	}
	a, okA := c.in.Lookup(t1)
	b, okB := c.in.Lookup(t2)
	if okA && okB {
		if isSigned(a) && isUnsigned(b) {
			return -1
		}
		if isUnsigned(a) && isSigned(b) {
			return 1
		}
	}
	return 0
}

// BestCommonType returns the unique candidate every other candidate
// implicitly converts to. Duplicates are ignored; NoTypeID entries are
// skipped. When several candidates qualify, the one converting to all the
// others wins; otherwise inference fails.
func (c *Conversions) BestCommonType(cands []types.TypeID) (types.TypeID, bool) {
	uniq := make([]types.TypeID, 0, len(cands))
	seen := make(map[types.TypeID]struct{}, len(cands))
	for _, t := range cands {
		if t == types.NoTypeID {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		uniq = append(uniq, t)
	}
	switch len(uniq) {
	case 0:
		return types.NoTypeID, false
	case 1:
		return uniq[0], true
	}

	var valid []types.TypeID
	for _, x := range uniq {
		ok := true
		for _, y := range uniq {
			if x != y && !c.Implicit(y, x) {
				ok = false
				break
			}
		}
		if ok {
			valid = append(valid, x)
		}
	}
	switch len(valid) {
	case 0:
		return types.NoTypeID, false
	case 1:
		return valid[0], true
	}
	var best types.TypeID
	for _, x := range valid {
		ok := true
		for _, y := range valid {
			if x != y && !c.Implicit(x, y) {
				ok = false
				break
			}
		}
		if ok {
			if best != types.NoTypeID {
				return types.NoTypeID, false
			}
			best = x
		}
	}
	return best, best != types.NoTypeID
}
