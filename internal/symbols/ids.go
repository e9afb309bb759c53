package symbols

// TypeKind is the nominal category of a declared type.
type TypeKind uint8

const (
	TypeClass TypeKind = iota + 1
	TypeStruct
	TypeInterface
	TypeEnum
	TypeDelegate
)

func (k TypeKind) String() string {
	switch k {
	case TypeClass:
		return "class"
	case TypeStruct:
		return "struct"
	case TypeInterface:
		return "interface"
	case TypeEnum:
		return "enum"
	case TypeDelegate:
		return "delegate"
	default:
		return "invalid"
	}
}

// Accessibility of a type or member.
type Accessibility uint8

const (
	AccessPublic Accessibility = iota
	AccessInternal
	AccessProtected
	AccessPrivate
)

func (a Accessibility) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessInternal:
		return "internal"
	case AccessProtected:
		return "protected"
	case AccessPrivate:
		return "private"
	default:
		return "invalid"
	}
}

// RefKind is the passing mode of a parameter.
type RefKind uint8

const (
	RefNone RefKind = iota
	RefRef
	RefIn
	RefOut
)

func (r RefKind) String() string {
	switch r {
	case RefRef:
		return "ref"
	case RefIn:
		return "in"
	case RefOut:
		return "out"
	default:
		return ""
	}
}

// WellKnown names types the resolver needs to find by role rather than name.
type WellKnown uint8

const (
	WKNone WellKnown = iota
	WKIEnumerable
	WKIEnumerator
	WKIEnumerableT
	WKIEnumeratorT
	WKICollectionT
	WKIListT
	WKIReadOnlyCollectionT
	WKIReadOnlyListT
	WKListT
)

func (w WellKnown) String() string {
	switch w {
	case WKIEnumerable:
		return "IEnumerable"
	case WKIEnumerator:
		return "IEnumerator"
	case WKIEnumerableT:
		return "IEnumerable<T>"
	case WKIEnumeratorT:
		return "IEnumerator<T>"
	case WKICollectionT:
		return "ICollection<T>"
	case WKIListT:
		return "IList<T>"
	case WKIReadOnlyCollectionT:
		return "IReadOnlyCollection<T>"
	case WKIReadOnlyListT:
		return "IReadOnlyList<T>"
	case WKListT:
		return "List<T>"
	default:
		return "none"
	}
}
