package syntax

import (
	"brackets/internal/source"
)

// Expr is an expression node.
type Expr interface {
	Span() source.Span
	exprNode()
}

// LitKind classifies literals. Numeric kinds follow the literal suffix.
type LitKind uint8

const (
	LitInt LitKind = iota
	LitUInt
	LitLong
	LitULong
	LitFloat
	LitDouble
	LitDecimal
	LitString
	LitChar
	LitBool
	LitNull
	LitDefault
)

// Literal is a constant. Value holds integer and boolean payloads.
type Literal struct {
	Kind  LitKind
	Text  string
	Value int64
	Sp    source.Span
}

// Name is a bare identifier reference.
type Name struct {
	Ident string
	Sp    source.Span
}

// Item is one entry of a bracket literal; Spread marks a leading "..".
type Item struct {
	Spread bool
	Expr   Expr
	Sp     source.Span
}

// Collection is a bracket literal "[a, ..b]".
type Collection struct {
	Items []Item
	Sp    source.Span
}

// Conditional is "c ? a : b".
type Conditional struct {
	Cond Expr
	Then Expr
	Else Expr
	Sp   source.Span
}

// ArgMode is the passing mode written at a call site.
type ArgMode uint8

const (
	ArgValue ArgMode = iota
	ArgRef
	ArgIn
	ArgOut
)

// Arg is one call argument.
type Arg struct {
	Mode ArgMode
	Expr Expr
	Sp   source.Span
}

// Call is "F(args)" or "F<T>(args)".
type Call struct {
	Callee     string
	CalleeSpan source.Span
	TypeArgs   []*TypeExpr
	Args       []Arg
	Sp         source.Span
}

// Bad stands in for an expression that failed to parse.
type Bad struct {
	Sp source.Span
}

func (e *Literal) Span() source.Span { return e.Sp }
func (e *Name) Span() source.Span { return e.Sp }
func (e *Collection) Span() source.Span { return e.Sp }
func (e *Conditional) Span() source.Span { return e.Sp }
func (e *Call) Span() source.Span { return e.Sp }
func (e *Bad) Span() source.Span { return e.Sp }

func (*Literal) exprNode() {}
func (*Name) exprNode() {}
func (*Collection) exprNode() {}
func (*Conditional) exprNode() {}
func (*Call) exprNode() {}
func (*Bad) exprNode() {}

// TypeSuffix is one "[]", "[,]" or "*" after a type name.
type TypeSuffix struct {
	Pointer bool
	Rank    uint32
}

// TypeExpr is a written type: a name with optional type arguments followed by
// array and pointer suffixes.
type TypeExpr struct {
	Name     string
	Args     []*TypeExpr
	Suffixes []TypeSuffix
	Sp       source.Span
}

// String prints the type expression back in source form.
func (t *TypeExpr) String() string {
	if t == nil {
		return "?"
	}
	out := t.Name
	if len(t.Args) > 0 {
		out += "<"
		for i, a := range t.Args {
			if i > 0 {
				out += ", "
			}
			out += a.String()
		}
		out += ">"
	}
	for _, s := range t.Suffixes {
		if s.Pointer {
			out += "*"
			continue
		}
		out += "["
		for i := uint32(1); i < s.Rank; i++ {
			out += ","
		}
		out += "]"
	}
	return out
}

// ParamDecl is a written parameter "scoped ref T name = default".
type ParamDecl struct {
	Scoped   bool
	Mode     ArgMode
	Type     *TypeExpr
	Name     string
	Optional bool
	Sp       source.Span
}
