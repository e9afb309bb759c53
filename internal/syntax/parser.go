package syntax

import (
	"fmt"
	"strconv"
	"strings"

	"brackets/internal/diag"
	"brackets/internal/source"
)

// Parser reads bracket expressions, type names and parameter declarations
// from one source file. Syntax errors go to the reporter; the parser always
// returns a tree, with Bad nodes where recovery was needed.
type Parser struct {
	lx     *lexer
	tok    Token
	peeked *Token
	rep    diag.Reporter
	errors int
}

// NewParser positions a parser at the start of f.
func NewParser(f *source.File, rep diag.Reporter) *Parser {
	if rep == nil {
		rep = diag.NopReporter{}
	}
	p := &Parser{lx: newLexer(f), rep: rep}
	p.tok = p.lx.next()
	return p
}

// Errors counts reported syntax errors.
func (p *Parser) Errors() int { return p.errors }

func (p *Parser) advance() Token {
	prev := p.tok
	if p.peeked != nil {
		p.tok = *p.peeked
		p.peeked = nil
	} else {
		p.tok = p.lx.next()
	}
	return prev
}

func (p *Parser) peek() Token {
	if p.peeked == nil {
		t := p.lx.next()
		p.peeked = &t
	}
	return *p.peeked
}

func (p *Parser) at(k TokenKind) bool { return p.tok.Kind == k }

func (p *Parser) eat(k TokenKind) bool {
	if p.tok.Kind == k {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k TokenKind, what string) (Token, bool) {
	if p.tok.Kind == k {
		return p.advance(), true
	}
	p.errorf(p.tok.Span, "expected %s in %s, found %s", k, what, p.describe(p.tok))
	return p.tok, false
}

func (p *Parser) describe(t Token) string {
	if t.Kind == EOF || t.Text == "" {
		return t.Kind.String()
	}
	return fmt.Sprintf("%q", t.Text)
}

func (p *Parser) errorf(sp source.Span, format string, args ...any) {
	p.errors++
	p.rep.Report(diag.NewError(diag.ProjSyntax, sp, fmt.Sprintf(format, args...)))
}

// ExpectEOF reports trailing input.
func (p *Parser) ExpectEOF() {
	if !p.at(EOF) {
		p.errorf(p.tok.Span, "unexpected %s after expression", p.describe(p.tok))
	}
}

// ParseExpr parses one expression.
func (p *Parser) ParseExpr() Expr {
	cond := p.parsePrimary()
	if !p.at(Question) {
		return cond
	}
	p.advance()
	then := p.ParseExpr()
	p.expect(Colon, "conditional expression")
	els := p.ParseExpr()
	return &Conditional{Cond: cond, Then: then, Else: els, Sp: cond.Span().Cover(els.Span())}
}

func (p *Parser) parsePrimary() Expr {
	switch p.tok.Kind {
	case LBracket:
		return p.parseCollection()
	case LParen:
		p.advance()
		inner := p.ParseExpr()
		p.expect(RParen, "parenthesized expression")
		return inner
	case IntLit, FloatLit:
		return p.parseNumber(p.advance())
	case StringLit:
		t := p.advance()
		return &Literal{Kind: LitString, Text: t.Text, Sp: t.Span}
	case CharLit:
		t := p.advance()
		return &Literal{Kind: LitChar, Text: t.Text, Sp: t.Span}
	case Ident:
		return p.parseIdentExpr()
	case DotDot:
		t := p.advance()
		p.errorf(t.Span, "spread is only allowed directly inside a collection expression")
		p.parsePrimary()
		return &Bad{Sp: t.Span}
	}
	t := p.advance()
	p.errorf(t.Span, "expected expression, found %s", p.describe(t))
	return &Bad{Sp: t.Span}
}

func (p *Parser) parseIdentExpr() Expr {
	t := p.advance()
	switch t.Text {
	case "null":
		return &Literal{Kind: LitNull, Text: t.Text, Sp: t.Span}
	case "default":
		return &Literal{Kind: LitDefault, Text: t.Text, Sp: t.Span}
	case "true":
		return &Literal{Kind: LitBool, Text: t.Text, Value: 1, Sp: t.Span}
	case "false":
		return &Literal{Kind: LitBool, Text: t.Text, Sp: t.Span}
	}
	var typeArgs []*TypeExpr
	if p.at(Lt) && p.looksLikeTypeArgs() {
		typeArgs = p.parseTypeArgs()
	}
	if !p.at(LParen) {
		if len(typeArgs) > 0 {
			p.errorf(t.Span, "type arguments require a call")
		}
		return &Name{Ident: t.Text, Sp: t.Span}
	}
	p.advance()
	call := &Call{Callee: t.Text, CalleeSpan: t.Span, TypeArgs: typeArgs}
	for !p.at(RParen) && !p.at(EOF) {
		call.Args = append(call.Args, p.parseArg())
		if !p.eat(Comma) {
			break
		}
	}
	end, _ := p.expect(RParen, "argument list")
	call.Sp = t.Span.Cover(end.Span)
	return call
}

// looksLikeTypeArgs distinguishes F<int>(x) from a comparison; the
// expression language has no '<' operator so any '<' after a name opens
// type arguments.
func (p *Parser) looksLikeTypeArgs() bool {
	return p.peek().Kind == Ident
}

func (p *Parser) parseArg() Arg {
	start := p.tok.Span
	mode := ArgValue
	switch {
	case p.tok.Is("ref"):
		mode = ArgRef
	case p.tok.Is("in"):
		mode = ArgIn
	case p.tok.Is("out"):
		mode = ArgOut
	}
	if mode != ArgValue {
		p.advance()
	}
	e := p.ParseExpr()
	return Arg{Mode: mode, Expr: e, Sp: start.Cover(e.Span())}
}

func (p *Parser) parseCollection() Expr {
	open := p.advance()
	coll := &Collection{}
	for !p.at(RBracket) && !p.at(EOF) {
		coll.Items = append(coll.Items, p.parseItem())
		if !p.eat(Comma) {
			break
		}
	}
	end, ok := p.expect(RBracket, "collection expression")
	if !ok {
		end = p.tok
	}
	coll.Sp = open.Span.Cover(end.Span)
	return coll
}

func (p *Parser) parseItem() Item {
	if !p.at(DotDot) {
		e := p.ParseExpr()
		return Item{Expr: e, Sp: e.Span()}
	}
	dots := p.advance()
	if p.at(DotDot) {
		inner := p.advance()
		p.errorf(inner.Span, "spread of a spread element is not allowed")
		e := p.ParseExpr()
		return Item{Spread: true, Expr: &Bad{Sp: inner.Span.Cover(e.Span())}, Sp: dots.Span.Cover(e.Span())}
	}
	e := p.ParseExpr()
	return Item{Spread: true, Expr: e, Sp: dots.Span.Cover(e.Span())}
}

func (p *Parser) parseNumber(t Token) Expr {
	text := strings.ReplaceAll(t.Text, "_", "")
	lower := strings.ToLower(text)
	lit := &Literal{Text: t.Text, Sp: t.Span}
	if t.Kind == FloatLit {
		switch {
		case strings.HasSuffix(lower, "f"):
			lit.Kind = LitFloat
		case strings.HasSuffix(lower, "m"):
			lit.Kind = LitDecimal
		default:
			lit.Kind = LitDouble
		}
		return lit
	}
	digits := strings.TrimRight(lower, "lu")
	suffix := lower[len(digits):]
	switch suffix {
	case "":
		lit.Kind = LitInt
	case "u":
		lit.Kind = LitUInt
	case "l":
		lit.Kind = LitLong
	case "ul", "lu":
		lit.Kind = LitULong
	default:
		p.errorf(t.Span, "invalid integer suffix %q", suffix)
		return &Bad{Sp: t.Span}
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		p.errorf(t.Span, "integer literal %s out of range", t.Text)
		return &Bad{Sp: t.Span}
	}
	lit.Value = v
	// Unsuffixed literals take the first of int, uint, long that fits.
	if lit.Kind == LitInt && v > 1<<31-1 {
		if v <= 1<<32-1 {
			lit.Kind = LitUInt
		} else {
			lit.Kind = LitLong
		}
	}
	return lit
}

// ParseType parses a type name such as "Dictionary<string, List<int>>[]".
func (p *Parser) ParseType() *TypeExpr {
	name, ok := p.expect(Ident, "type")
	if !ok {
		p.advance()
		return &TypeExpr{Name: "?", Sp: name.Span}
	}
	te := &TypeExpr{Name: name.Text, Sp: name.Span}
	if p.at(Lt) {
		te.Args = p.parseTypeArgs()
	}
	for {
		switch {
		case p.at(Star):
			t := p.advance()
			te.Suffixes = append(te.Suffixes, TypeSuffix{Pointer: true})
			te.Sp = te.Sp.Cover(t.Span)
			continue
		case p.at(LBracket) && (p.peek().Kind == RBracket || p.peek().Kind == Comma):
			p.advance()
			rank := uint32(1)
			for p.eat(Comma) {
				rank++
			}
			end, _ := p.expect(RBracket, "array type")
			te.Suffixes = append(te.Suffixes, TypeSuffix{Rank: rank})
			te.Sp = te.Sp.Cover(end.Span)
			continue
		}
		return te
	}
}

func (p *Parser) parseTypeArgs() []*TypeExpr {
	p.advance() // '<'
	var args []*TypeExpr
	for {
		args = append(args, p.ParseType())
		if !p.eat(Comma) {
			break
		}
	}
	p.expect(Gt, "type argument list")
	return args
}

// ParseParam parses "[scoped] [ref|in|out] Type name [= default]".
func (p *Parser) ParseParam() *ParamDecl {
	start := p.tok.Span
	pd := &ParamDecl{}
	if p.tok.Is("scoped") && p.peek().Kind == Ident {
		pd.Scoped = true
		p.advance()
	}
	switch {
	case p.tok.Is("ref"):
		pd.Mode = ArgRef
	case p.tok.Is("in"):
		pd.Mode = ArgIn
	case p.tok.Is("out"):
		pd.Mode = ArgOut
	}
	if pd.Mode != ArgValue {
		p.advance()
	}
	pd.Type = p.ParseType()
	end := pd.Type.Sp
	if p.at(Ident) {
		t := p.advance()
		pd.Name = t.Text
		end = t.Span
	}
	if p.eat(Assign) {
		def := p.ParseExpr()
		pd.Optional = true
		end = def.Span()
	}
	pd.Sp = start.Cover(end)
	return pd
}

// ParseExprText parses a whole file as a single expression.
func ParseExprText(f *source.File, rep diag.Reporter) (Expr, bool) {
	p := NewParser(f, rep)
	e := p.ParseExpr()
	p.ExpectEOF()
	return e, p.Errors() == 0
}

// ParseTypeText parses a whole file as a single type name.
func ParseTypeText(f *source.File, rep diag.Reporter) (*TypeExpr, bool) {
	p := NewParser(f, rep)
	te := p.ParseType()
	p.ExpectEOF()
	return te, p.Errors() == 0
}

// ParseParamText parses a whole file as a single parameter declaration.
func ParseParamText(f *source.File, rep diag.Reporter) (*ParamDecl, bool) {
	p := NewParser(f, rep)
	pd := p.ParseParam()
	p.ExpectEOF()
	return pd, p.Errors() == 0
}
