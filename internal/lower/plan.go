package lower

// OpKind enumerates construction steps.
type OpKind uint8

const (
	// OpNewArray allocates an array of Count elements.
	OpNewArray OpKind = iota
	// OpStoreIndex stores element Index at slot Count of the buffer.
	OpStoreIndex
	// OpStackBuffer reserves Count elements on the stack behind a span.
	OpStackBuffer
	// OpHeapBuffer wraps a heap array of Count elements in a span.
	OpHeapBuffer
	// OpNewObject runs Method (a constructor) or zero-initializes Type.
	OpNewObject
	// OpCallAdd calls Method with element Index.
	OpCallAdd
	// OpSpread enumerates an operand and runs Body per item.
	OpSpread
	// OpToArray copies the temporary list into an exact-size array.
	OpToArray
	// OpToSpan views the array built so far as a span.
	OpToSpan
	// OpCallBuilder passes the span to the builder method.
	OpCallBuilder
)

func (k OpKind) String() string {
	switch k {
	case OpNewArray:
		return "newarray"
	case OpStoreIndex:
		return "store"
	case OpStackBuffer:
		return "stackbuf"
	case OpHeapBuffer:
		return "heapbuf"
	case OpNewObject:
		return "new"
	case OpCallAdd:
		return "add"
	case OpSpread:
		return "foreach"
	case OpToArray:
		return "toarray"
	case OpToSpan:
		return "tospan"
	case OpCallBuilder:
		return "build"
	default:
		return "?"
	}
}

// Step is one construction instruction. Elements are referenced by their
// position in the literal; Text carries the element's source for display.
type Step struct {
	Op     OpKind `msgpack:"op"`
	Index  int    `msgpack:"index"`
	Count  int    `msgpack:"count,omitempty"`
	Type   string `msgpack:"type,omitempty"`
	Method string `msgpack:"method,omitempty"`
	Conv   string `msgpack:"conv,omitempty"`
	Iter   string `msgpack:"iter,omitempty"`
	Text   string `msgpack:"text,omitempty"`
	Body   []Step `msgpack:"body,omitempty"`
	Nested *Plan  `msgpack:"nested,omitempty"`
}

// Plan is the hand-off from binding to code generation: the steps that build
// one collection expression, in source order.
type Plan struct {
	Target   string `msgpack:"target"`
	Strategy string `msgpack:"strategy"`
	Elem     string `msgpack:"elem"`
	// Length is the element count, or -1 when spreads make it dynamic.
	Length int    `msgpack:"length"`
	Steps  []Step `msgpack:"steps"`
}
