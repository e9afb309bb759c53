package types

import (
	"strings"
)

// Label returns a user-facing spelling of id, e.g. "List<int>" or "int[,]".
func Label(in *Interner, id TypeID) string {
	return labelDepth(in, id, 0)
}

func labelDepth(in *Interner, id TypeID, depth int) string {
	if id == NoTypeID || in == nil {
		return "?"
	}
	if depth > 8 {
		return "..."
	}
	tt, ok := in.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindError:
		return "?"
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
		switch tt.Width {
		case Width8:
			return "sbyte"
		case Width16:
			return "short"
		case Width64:
			return "long"
		default:
			return "int"
		}
	case KindUint:
		switch tt.Width {
		case Width8:
			return "byte"
		case Width16:
			return "ushort"
		case Width64:
			return "ulong"
		default:
			return "uint"
		}
	case KindFloat:
		if tt.Width == Width32 {
			return "float"
		}
		return "double"
	case KindArray:
		return labelDepth(in, tt.Elem, depth+1) + "[" + strings.Repeat(",", int(tt.Count)-1) + "]"
	case KindSpan:
		if tt.ReadOnly {
			return "ReadOnlySpan<" + labelDepth(in, tt.Elem, depth+1) + ">"
		}
		return "Span<" + labelDepth(in, tt.Elem, depth+1) + ">"
	case KindPointer:
		return labelDepth(in, tt.Elem, depth+1) + "*"
	case KindTypeParam:
		info, _ := in.TypeParamInfo(id)
		return info.Name
	case KindNamed:
		info, _ := in.NamedInfo(id)
		if len(info.Args) == 0 {
			return info.Name
		}
		parts := make([]string, len(info.Args))
		for i, a := range info.Args {
			parts[i] = labelDepth(in, a, depth+1)
		}
		return info.Name + "<" + strings.Join(parts, ", ") + ">"
	default:
		return tt.Kind.String()
	}
}
