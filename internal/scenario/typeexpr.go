package scenario

import (
	"errors"
	"fmt"

	"brackets/internal/diag"
	"brackets/internal/syntax"
	"brackets/internal/types"
)

func keywordTypes(b types.Builtins) map[string]types.TypeID {
	return map[string]types.TypeID{
		"void":    b.Void,
		"object":  b.Object,
		"dynamic": b.Dynamic,
		"bool":    b.Bool,
		"char":    b.Char,
		"string":  b.String,
		"sbyte":   b.SByte,
		"short":   b.Short,
		"int":     b.Int,
		"long":    b.Long,
		"byte":    b.Byte,
		"ushort":  b.UShort,
		"uint":    b.UInt,
		"ulong":   b.ULong,
		"float":   b.Float,
		"double":  b.Double,
	}
}

// TypeOf resolves a written type in the scope of the compilation's use site,
// where only declared and built-in types are visible.
func (c *Compilation) TypeOf(te *syntax.TypeExpr) (types.TypeID, error) {
	var failure error
	rep := diag.ReporterFunc(func(d diag.Diagnostic) {
		if failure == nil {
			failure = errors.New(d.Message)
		}
	})
	t, ok := resolveTypeExpr(c, te, nil, rep)
	if !ok {
		return types.NoTypeID, failure
	}
	return t, nil
}

// resolveTypeExpr binds te. Names are looked up in scope (type parameters),
// then keywords, then spans, then declarations by name and arity.
func resolveTypeExpr(c *Compilation, te *syntax.TypeExpr, scope map[string]types.TypeID, rep diag.Reporter) (types.TypeID, bool) {
	in := c.Table.Types
	args := make([]types.TypeID, len(te.Args))
	for i, a := range te.Args {
		t, ok := resolveTypeExpr(c, a, scope, rep)
		if !ok {
			return types.NoTypeID, false
		}
		args[i] = t
	}
	var t types.TypeID
	if tp, ok := scope[te.Name]; ok && len(args) == 0 {
		t = tp
	} else if kw, ok := keywordTypes(in.Builtins())[te.Name]; ok && len(args) == 0 {
		t = kw
	} else if (te.Name == "Span" || te.Name == "ReadOnlySpan") && len(args) == 1 {
		t = in.Span(args[0], te.Name == "ReadOnlySpan")
	} else if d := c.Table.Lookup(te.Name, len(args)); d != nil {
		t = c.Table.Instantiate(d, args...)
	} else {
		name := te.Name
		if len(args) > 0 {
			name = fmt.Sprintf("%s<%d>", te.Name, len(args))
		}
		rep.Report(diag.Errorf(diag.ProjUnknownType, te.Sp, "the type name '%s' could not be found", name))
		return types.NoTypeID, false
	}
	for _, s := range te.Suffixes {
		if s.Pointer {
			t = in.Pointer(t)
			continue
		}
		t = in.Array(t, s.Rank)
	}
	return t, true
}
