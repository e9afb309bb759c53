package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"brackets/internal/source"
	"brackets/internal/syntax"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed
// expression:
// 1) every node span lies in sf and within the content bounds
// 2) every child span is contained in its parent's span
// 3) collection items and call arguments appear in source order without overlap
func CheckSpanInvariants(e syntax.Expr, sf *source.File) error {
	if e == nil || sf == nil {
		return fmt.Errorf("nil expression or file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	c := checker{file: sf.ID, end: lenContent}
	return c.expr(e, source.Span{File: sf.ID, Start: 0, End: lenContent})
}

type checker struct {
	file source.FileID
	end  uint32
}

func (c checker) span(what string, sp, parent source.Span) error {
	if sp.File != c.file {
		return fmt.Errorf("%s span points to different file id: got=%d want=%d", what, sp.File, c.file)
	}
	if sp.End < sp.Start {
		return fmt.Errorf("%s span is inverted: %v", what, sp)
	}
	if sp.End > c.end {
		return fmt.Errorf("%s span end beyond content: %d > %d", what, sp.End, c.end)
	}
	if !parent.Contains(sp) {
		return fmt.Errorf("%s span %v is outside parent span %v", what, sp, parent)
	}
	return nil
}

// ordered checks that spans follow each other without overlap.
func ordered(what string, spans []source.Span) error {
	for i := 1; i < len(spans); i++ {
		if spans[i].Start < spans[i-1].End {
			return fmt.Errorf("%s %d span %v overlaps previous %v", what, i, spans[i], spans[i-1])
		}
	}
	return nil
}

func (c checker) expr(e syntax.Expr, parent source.Span) error {
	sp := e.Span()
	if err := c.span(fmt.Sprintf("%T", e), sp, parent); err != nil {
		return err
	}
	switch n := e.(type) {
	case *syntax.Collection:
		spans := make([]source.Span, 0, len(n.Items))
		for i := range n.Items {
			it := &n.Items[i]
			if err := c.span("item", it.Sp, sp); err != nil {
				return err
			}
			if it.Expr != nil {
				if err := c.expr(it.Expr, it.Sp); err != nil {
					return err
				}
			}
			spans = append(spans, it.Sp)
		}
		return ordered("item", spans)
	case *syntax.Conditional:
		for _, child := range []syntax.Expr{n.Cond, n.Then, n.Else} {
			if child == nil {
				continue
			}
			if err := c.expr(child, sp); err != nil {
				return err
			}
		}
	case *syntax.Call:
		spans := make([]source.Span, 0, len(n.Args))
		for i := range n.Args {
			arg := &n.Args[i]
			if err := c.span("argument", arg.Sp, sp); err != nil {
				return err
			}
			if arg.Expr != nil {
				if err := c.expr(arg.Expr, arg.Sp); err != nil {
					return err
				}
			}
			spans = append(spans, arg.Sp)
		}
		return ordered("argument", spans)
	}
	return nil
}
