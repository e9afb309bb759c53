package sema

import (
	"math"

	"brackets/internal/types"
)

type numericInfo struct {
	kind  types.Kind
	width types.Width
}

func numericOf(tt types.Type) (numericInfo, bool) {
	switch tt.Kind {
	case types.KindInt, types.KindUint, types.KindFloat, types.KindChar:
		w := tt.Width
		if tt.Kind == types.KindChar {
			w = types.Width16
		}
		return numericInfo{kind: tt.Kind, width: w}, true
	default:
		return numericInfo{}, false
	}
}

// numericWidens implements the implicit numeric conversion table.
func numericWidens(from, to numericInfo) bool {
	if from == to {
		return false
	}
	switch to.kind {
	case types.KindFloat:
		if from.kind == types.KindFloat {
			return from.width < to.width
		}
		return true
	case types.KindInt:
		switch from.kind {
		case types.KindInt:
			return from.width < to.width
		case types.KindUint, types.KindChar:
			return from.width < to.width
		}
	case types.KindUint:
		switch from.kind {
		case types.KindUint:
			return from.width < to.width
		case types.KindChar:
			return from.width <= to.width
		}
	}
	return false
}

// ConstantFits reports whether an integer constant can be implicitly
// converted to the integral or floating type to.
func ConstantFits(in *types.Interner, value int64, to types.TypeID) bool {
	tt, ok := in.Lookup(to)
	if !ok {
		return false
	}
	switch tt.Kind {
	case types.KindFloat:
		return true
	case types.KindInt:
		switch tt.Width {
		case types.Width8:
			return value >= math.MinInt8 && value <= math.MaxInt8
		case types.Width16:
			return value >= math.MinInt16 && value <= math.MaxInt16
		case types.Width32:
			return value >= math.MinInt32 && value <= math.MaxInt32
		default:
			return true
		}
	case types.KindUint:
		if value < 0 {
			return false
		}
		switch tt.Width {
		case types.Width8:
			return value <= math.MaxUint8
		case types.Width16:
			return value <= math.MaxUint16
		case types.Width32:
			return value <= math.MaxUint32
		default:
			return true
		}
	default:
		return false
	}
}

func isSigned(tt types.Type) bool {
	return tt.Kind == types.KindInt
}

func isUnsigned(tt types.Type) bool {
	return tt.Kind == types.KindUint
}
