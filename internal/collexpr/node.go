package collexpr

import (
	"brackets/internal/diag"
	"brackets/internal/source"
	"brackets/internal/syntax"
)

// ElemKind tells plain elements from spreads.
type ElemKind uint8

const (
	ElemPlain ElemKind = iota
	ElemSpread
)

func (k ElemKind) String() string {
	if k == ElemSpread {
		return "spread"
	}
	return "plain"
}

// Element is one classified item of a collection expression.
type Element struct {
	Kind ElemKind
	Expr syntax.Expr
	Span source.Span
}

// Node is a collection expression with its items classified, in source order.
type Node struct {
	Syntax   *syntax.Collection
	Elements []Element
}

// Span is the source span of the whole literal.
func (n *Node) Span() source.Span {
	if n == nil || n.Syntax == nil {
		return source.Span{}
	}
	return n.Syntax.Sp
}

// Shape summarizes the element list for strategy selection.
func (n *Node) Shape() Shape {
	s := Shape{Count: len(n.Elements)}
	for _, el := range n.Elements {
		if el.Kind == ElemSpread {
			s.HasSpread = true
			break
		}
	}
	return s
}

// Classify wraps a bracket item. An item with a leading ".." becomes a
// spread, anything else a plain element. ok is false for an item without an
// operand, which the parser never produces.
func Classify(item syntax.Item) (Element, bool) {
	if item.Expr == nil {
		return Element{Span: item.Sp}, false
	}
	kind := ElemPlain
	if item.Spread {
		kind = ElemSpread
	}
	return Element{Kind: kind, Expr: item.Expr, Span: item.Sp}, true
}

// ClassifyAll classifies every item of coll. Malformed items are dropped and
// reported as internal errors.
func ClassifyAll(coll *syntax.Collection, rep diag.Reporter) *Node {
	n := &Node{Syntax: coll, Elements: make([]Element, 0, len(coll.Items))}
	for _, item := range coll.Items {
		el, ok := Classify(item)
		if !ok {
			if rep != nil {
				rep.Report(diag.NewError(diag.CollInternalError, item.Sp, "collection element without operand"))
			}
			continue
		}
		n.Elements = append(n.Elements, el)
	}
	return n
}
