package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindError        // result of a failed lookup; converts to and from anything silently
	KindVoid
	KindObject
	KindDynamic
	KindBool
	KindChar
	KindString
	KindInt
	KindUint
	KindFloat
	KindArray
	KindSpan
	KindPointer
	KindNamed
	KindTypeParam
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindError:
		return "error"
	case KindVoid:
		return "void"
	case KindObject:
		return "object"
	case KindDynamic:
		return "dynamic"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindArray:
		return "array"
	case KindSpan:
		return "span"
	case KindPointer:
		return "pointer"
	case KindNamed:
		return "named"
	case KindTypeParam:
		return "type parameter"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the precision of integers and floats.
type Width uint8

const (
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
	Width64 Width = 64
)

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind     Kind
	Elem     TypeID
	Count    uint32 // array rank
	Width    Width  // numeric primitives
	ReadOnly bool   // ReadOnlySpan vs Span
	Payload  uint32 // slot in the named/type-param side tables
}

// MakeInt describes a signed integer of the given width.
func MakeInt(width Width) Type {
	return Type{Kind: KindInt, Width: width}
}

// MakeUint describes an unsigned integer type.
func MakeUint(width Width) Type {
	return Type{Kind: KindUint, Width: width}
}

// MakeFloat describes a floating-point type.
func MakeFloat(width Width) Type {
	return Type{Kind: KindFloat, Width: width}
}

// MakeArray describes elem[] (rank 1) or elem[,...] for higher ranks.
func MakeArray(elem TypeID, rank uint32) Type {
	if rank == 0 {
		rank = 1
	}
	return Type{Kind: KindArray, Elem: elem, Count: rank}
}

// MakeSpan describes Span<elem> or ReadOnlySpan<elem>.
func MakeSpan(elem TypeID, readOnly bool) Type {
	return Type{Kind: KindSpan, Elem: elem, ReadOnly: readOnly}
}

// MakePointer describes elem*.
func MakePointer(elem TypeID) Type {
	return Type{Kind: KindPointer, Elem: elem}
}

// IsNumeric reports whether the kind is an integer or floating-point kind.
func (t Type) IsNumeric() bool {
	return t.Kind == KindInt || t.Kind == KindUint || t.Kind == KindFloat
}
