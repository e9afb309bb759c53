package syntax

import (
	"brackets/internal/source"
)

type lexer struct {
	file *source.File
	cur  cursor
}

func newLexer(f *source.File) *lexer {
	return &lexer{file: f, cur: newCursor(f)}
}

func (lx *lexer) text(sp source.Span) string {
	return string(lx.file.Content[sp.Start:sp.End])
}

// next returns the next significant token. After EOF it keeps returning EOF.
func (lx *lexer) next() Token {
	lx.skipSpace()
	start := lx.cur.off
	if lx.cur.eof() {
		return Token{Kind: EOF, Span: lx.cur.spanFrom(start)}
	}
	ch := lx.cur.peek()
	switch {
	case isIdentStart(ch):
		for isIdentContinue(lx.cur.peek()) {
			lx.cur.bump()
		}
		return lx.token(Ident, start)
	case isDigit(ch):
		return lx.scanNumber(start)
	case ch == '"':
		return lx.scanQuoted(start, '"', StringLit)
	case ch == '\'':
		return lx.scanQuoted(start, '\'', CharLit)
	}

	lx.cur.bump()
	kind := Invalid
	switch ch {
	case '[':
		kind = LBracket
	case ']':
		kind = RBracket
	case '(':
		kind = LParen
	case ')':
		kind = RParen
	case '<':
		kind = Lt
	case '>':
		kind = Gt
	case ',':
		kind = Comma
	case '?':
		kind = Question
	case ':':
		kind = Colon
	case '*':
		kind = Star
	case '=':
		kind = Assign
	case '.':
		kind = Dot
		if lx.cur.eat('.') {
			kind = DotDot
		}
	}
	return lx.token(kind, start)
}

func (lx *lexer) token(kind TokenKind, start uint32) Token {
	sp := lx.cur.spanFrom(start)
	return Token{Kind: kind, Span: sp, Text: lx.text(sp)}
}

func (lx *lexer) skipSpace() {
	for !lx.cur.eof() {
		switch lx.cur.peek() {
		case ' ', '\t', '\n', '\r':
			lx.cur.bump()
		default:
			return
		}
	}
}

func (lx *lexer) scanNumber(start uint32) Token {
	kind := IntLit
	for isDigit(lx.cur.peek()) || lx.cur.peek() == '_' {
		lx.cur.bump()
	}
	if lx.cur.peek() == '.' && isDigit(lx.cur.peekAt(1)) {
		kind = FloatLit
		lx.cur.bump()
		for isDigit(lx.cur.peek()) {
			lx.cur.bump()
		}
	}
	// suffixes: L, U, UL, F, D, M
	for {
		switch lx.cur.peek() {
		case 'l', 'L', 'u', 'U':
			lx.cur.bump()
			continue
		case 'f', 'F', 'd', 'D', 'm', 'M':
			kind = FloatLit
			lx.cur.bump()
			continue
		}
		break
	}
	return lx.token(kind, start)
}

func (lx *lexer) scanQuoted(start uint32, quote byte, kind TokenKind) Token {
	lx.cur.bump()
	for !lx.cur.eof() {
		ch := lx.cur.bump()
		if ch == '\\' {
			lx.cur.bump()
			continue
		}
		if ch == quote {
			return lx.token(kind, start)
		}
	}
	return lx.token(Invalid, start)
}

func isIdentStart(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= 0x80
}

func isIdentContinue(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
