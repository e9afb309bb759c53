package syntax

import (
	"brackets/internal/source"
)

// TokenKind enumerates the tokens of bracket expressions and type names.
type TokenKind uint8

const (
	Invalid TokenKind = iota
	EOF
	Ident
	IntLit
	FloatLit
	StringLit
	CharLit
	LBracket
	RBracket
	LParen
	RParen
	Lt
	Gt
	Comma
	Dot
	DotDot
	Question
	Colon
	Star
	Assign
)

func (k TokenKind) String() string {
	switch k {
	case EOF:
		return "end of input"
	case Ident:
		return "identifier"
	case IntLit:
		return "integer literal"
	case FloatLit:
		return "float literal"
	case StringLit:
		return "string literal"
	case CharLit:
		return "char literal"
	case LBracket:
		return "'['"
	case RBracket:
		return "']'"
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case Lt:
		return "'<'"
	case Gt:
		return "'>'"
	case Comma:
		return "','"
	case Dot:
		return "'.'"
	case DotDot:
		return "'..'"
	case Question:
		return "'?'"
	case Colon:
		return "':'"
	case Star:
		return "'*'"
	case Assign:
		return "'='"
	default:
		return "invalid token"
	}
}

// Token is a single lexeme with its location.
type Token struct {
	Kind TokenKind
	Span source.Span
	Text string
}

// Is reports whether the token is the identifier or keyword word.
func (t Token) Is(word string) bool {
	return t.Kind == Ident && t.Text == word
}
