package collexpr

import (
	"brackets/internal/symbols"
	"brackets/internal/types"
)

// interfaceDefault lists the interfaces a collection expression may target
// and whether the synthesized collection must be mutable.
var interfaceDefault = map[symbols.WellKnown]bool{
	symbols.WKIEnumerableT:         false,
	symbols.WKIReadOnlyCollectionT: false,
	symbols.WKIReadOnlyListT:       false,
	symbols.WKICollectionT:         true,
	symbols.WKIListT:               true,
}

// DefaultListType is the well-known type backing interface targets.
const DefaultListType = "List<T>"

func (e *Engine) resolveInterface(target types.TypeID, decl *symbols.TypeDecl) Strategy {
	mutable, ok := interfaceDefault[decl.WellKnown]
	args := e.in.TypeArgs(target)
	if !ok || len(args) != 1 {
		return Strategy{Kind: StrategyNotConstructible, Reason: ReasonUnsupportedInterface, Target: target}
	}
	elem := args[0]
	list, ok := e.tab.WellKnown(symbols.WKListT)
	if !ok {
		return Strategy{Kind: StrategyNotConstructible, Reason: ReasonMissingDefaultType, Target: target, Missing: DefaultListType}
	}
	concrete := e.in.Array(elem, 1)
	if mutable {
		concrete = e.tab.Instantiate(list, elem)
	}
	return Strategy{Kind: StrategyInterfaceDefault, Target: target, Elem: elem, Concrete: concrete}
}
