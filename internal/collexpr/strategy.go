package collexpr

import (
	"brackets/internal/symbols"
	"brackets/internal/types"
)

// Shape is the part of a collection expression strategy selection sees.
type Shape struct {
	Count     int
	HasSpread bool
}

// StrategyKind tags a Strategy.
type StrategyKind uint8

const (
	StrategyNotConstructible StrategyKind = iota
	StrategyArray
	StrategySpan
	StrategyInterfaceDefault
	StrategyInitializer
	StrategyBuilder
)

func (k StrategyKind) String() string {
	switch k {
	case StrategyArray:
		return "array"
	case StrategySpan:
		return "span"
	case StrategyInterfaceDefault:
		return "interface-default"
	case StrategyInitializer:
		return "initializer"
	case StrategyBuilder:
		return "builder"
	default:
		return "not-constructible"
	}
}

// Reason explains a NotConstructible strategy.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonNoTargetType
	ReasonMultiDimensionalArray
	ReasonExcludedCategory // pointer, delegate, enum
	ReasonUnsupportedInterface
	ReasonMissingDefaultType
	ReasonBuilderNotFound
	ReasonNoElementType
	ReasonNotConstructible
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNoTargetType:
		return "no target type"
	case ReasonMultiDimensionalArray:
		return "multi-dimensional array"
	case ReasonExcludedCategory:
		return "pointer, delegate or enum type"
	case ReasonUnsupportedInterface:
		return "interface is not a well-known collection interface"
	case ReasonMissingDefaultType:
		return "missing default collection type"
	case ReasonBuilderNotFound:
		return "builder method not found"
	case ReasonNoElementType:
		return "no element type"
	default:
		return "type is not constructible"
	}
}

// InitializerInfo is the construction recipe of a collection-initializer
// type: a parameterless (or all-optional) constructor followed by one Add
// call per element. Ctor is nil for structs and new()-constrained type
// parameters, which construct implicitly.
type InitializerInfo struct {
	Ctor *symbols.Method
	Adds []AddCandidate
}

// AddCandidate is an Add overload visible on the target.
type AddCandidate struct {
	Method    *symbols.Method
	Param     types.TypeID // substituted parameter type
	Extension bool
	Bindings  types.Subst // method type arguments fixed by the receiver
}

// Strategy is the decided way of building a collection. Exactly one of Kind
// other than StrategyNotConstructible or a Reason is set. Strategies are
// shared through the cache and must not be modified.
type Strategy struct {
	Kind   StrategyKind
	Reason Reason
	Target types.TypeID

	// Elem is the element type every element converts to.
	Elem types.TypeID

	// SpanReadOnly distinguishes ReadOnlySpan<T> from Span<T>.
	SpanReadOnly bool

	// Concrete is the type instantiated for an interface target: List<T> for
	// mutable interfaces, T[] for read-only ones.
	Concrete types.TypeID

	Initializer *InitializerInfo
	Builder     *BuilderMethod

	// Missing names the absent well-known type for ReasonMissingDefaultType.
	Missing string
	// Diags are builder diagnostics to replay at each use site.
	Diags []Finding
}

// Constructible reports whether the strategy can build the target.
func (s Strategy) Constructible() bool {
	return s.Kind != StrategyNotConstructible
}

// IsInterface reports whether the target was satisfied through an interface.
func (s Strategy) IsInterface() bool {
	return s.Kind == StrategyInterfaceDefault
}
