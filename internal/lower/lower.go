package lower

import (
	"errors"
	"fmt"
	"strings"

	"brackets/internal/collexpr"
	"brackets/internal/source"
	"brackets/internal/symbols"
	"brackets/internal/types"
)

var (
	// ErrNotLowerable is returned for literals that did not bind cleanly.
	ErrNotLowerable = errors.New("collection expression did not bind cleanly")
	// ErrUnreachable marks a strategy tag lowering does not know.
	ErrUnreachable = errors.New("unreachable construction strategy")
)

// DefaultStackLimit is the largest known-length span buffer placed on the
// stack.
const DefaultStackLimit = 32

// Options configures lowering.
type Options struct {
	// Text returns the source of an element for display; nil leaves Step.Text
	// empty.
	Text func(source.Span) string
	// StackLimit overrides DefaultStackLimit.
	StackLimit int
}

type lowerer struct {
	tab  *symbols.Table
	in   *types.Interner
	opts Options
}

// Lower turns a bound literal into its construction plan.
func Lower(tab *symbols.Table, b *collexpr.Bound, opts Options) (*Plan, error) {
	if !b.OK() {
		return nil, ErrNotLowerable
	}
	if opts.StackLimit <= 0 {
		opts.StackLimit = DefaultStackLimit
	}
	l := &lowerer{tab: tab, in: tab.Types, opts: opts}
	return l.plan(b)
}

func (l *lowerer) plan(b *collexpr.Bound) (*Plan, error) {
	s := b.Strategy
	p := &Plan{
		Target:   l.label(b.Target),
		Strategy: s.Kind.String(),
		Elem:     l.label(s.Elem),
		Length:   knownLength(b),
	}
	var err error
	switch s.Kind {
	case collexpr.StrategyArray:
		p.Steps, err = l.array(b, b.Target)
	case collexpr.StrategySpan:
		p.Steps, err = l.span(b, b.Target)
	case collexpr.StrategyInterfaceDefault:
		if l.in.KindOf(s.Concrete) == types.KindArray {
			p.Steps, err = l.array(b, s.Concrete)
		} else {
			p.Steps, err = l.list(b, s.Concrete)
		}
	case collexpr.StrategyInitializer:
		p.Steps, err = l.initializer(b)
	case collexpr.StrategyBuilder:
		p.Steps, err = l.builder(b)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, s.Kind)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func knownLength(b *collexpr.Bound) int {
	for _, el := range b.Elements {
		if el.Kind == collexpr.ElemSpread {
			return -1
		}
	}
	return len(b.Elements)
}

// array allocates the exact size when it is known; otherwise elements go
// through a temporary list first.
func (l *lowerer) array(b *collexpr.Bound, arr types.TypeID) ([]Step, error) {
	n := knownLength(b)
	if n < 0 {
		steps, err := l.viaList(b)
		if err != nil {
			return nil, err
		}
		return append(steps, Step{Op: OpToArray, Type: l.label(arr)}), nil
	}
	steps := []Step{{Op: OpNewArray, Type: l.label(arr), Count: n}}
	return l.stores(b, steps)
}

func (l *lowerer) span(b *collexpr.Bound, spanType types.TypeID) ([]Step, error) {
	n := knownLength(b)
	if n < 0 {
		steps, err := l.viaList(b)
		if err != nil {
			return nil, err
		}
		return append(steps,
			Step{Op: OpToArray, Type: l.label(l.in.Array(b.Elem, 1))},
			Step{Op: OpToSpan, Type: l.label(spanType)},
		), nil
	}
	op := OpStackBuffer
	if n > l.opts.StackLimit {
		op = OpHeapBuffer
	}
	steps := []Step{{Op: op, Type: l.label(spanType), Count: n}}
	return l.stores(b, steps)
}

func (l *lowerer) stores(b *collexpr.Bound, steps []Step) ([]Step, error) {
	for i, el := range b.Elements {
		st := Step{Op: OpStoreIndex, Index: i, Count: i, Conv: el.Conv.String(), Text: l.text(el.Span)}
		if el.Nested != nil {
			nested, err := l.plan(el.Nested)
			if err != nil {
				return nil, err
			}
			st.Nested = nested
		}
		steps = append(steps, st)
	}
	return steps, nil
}

func (l *lowerer) viaList(b *collexpr.Bound) ([]Step, error) {
	tmp := fmt.Sprintf("List<%s>", l.label(b.Elem))
	add := fmt.Sprintf("%s.Add(%s)", tmp, l.label(b.Elem))
	steps := []Step{{Op: OpNewObject, Type: tmp, Method: ".ctor()"}}
	return l.adds(b, steps, func(collexpr.BoundElement) string { return add })
}

func (l *lowerer) list(b *collexpr.Bound, concrete types.TypeID) ([]Step, error) {
	name := l.label(concrete)
	ctor := Step{Op: OpNewObject, Type: name, Method: ".ctor()"}
	if n := knownLength(b); n > 0 {
		ctor.Method = ".ctor(int)"
		ctor.Count = n
	}
	add := fmt.Sprintf("%s.Add(%s)", name, l.label(b.Elem))
	return l.adds(b, []Step{ctor}, func(collexpr.BoundElement) string { return add })
}

func (l *lowerer) initializer(b *collexpr.Bound) ([]Step, error) {
	init := b.Strategy.Initializer
	ctor := Step{Op: OpNewObject, Type: l.label(b.Target)}
	if init.Ctor != nil {
		ctor.Method = l.methodLabel(init.Ctor, nil)
	}
	return l.adds(b, []Step{ctor}, func(el collexpr.BoundElement) string {
		if el.Add == nil {
			return ""
		}
		return l.addLabel(el.Add)
	})
}

// adds emits one Add per element and a loop per spread.
func (l *lowerer) adds(b *collexpr.Bound, steps []Step, method func(collexpr.BoundElement) string) ([]Step, error) {
	for i, el := range b.Elements {
		call := Step{Op: OpCallAdd, Index: i, Method: method(el), Conv: el.Conv.String(), Text: l.text(el.Span)}
		if el.Nested != nil {
			nested, err := l.plan(el.Nested)
			if err != nil {
				return nil, err
			}
			call.Nested = nested
		}
		if el.Kind != collexpr.ElemSpread {
			steps = append(steps, call)
			continue
		}
		call.Text = ""
		steps = append(steps, Step{
			Op:    OpSpread,
			Index: i,
			Type:  l.label(el.Operand),
			Iter:  el.Iter.String(),
			Text:  l.text(el.Expr.Span()),
			Body:  []Step{call},
		})
	}
	return steps, nil
}

func (l *lowerer) builder(b *collexpr.Bound) ([]Step, error) {
	bm := b.Strategy.Builder
	steps, err := l.span(b, l.in.Span(b.Elem, bm.ParamReadOnly))
	if err != nil {
		return nil, err
	}
	var targs []string
	for _, a := range l.in.TypeArgs(b.Target) {
		targs = append(targs, l.label(a))
	}
	method := bm.Method.Name
	if len(targs) > 0 {
		method += "<" + strings.Join(targs, ", ") + ">"
	}
	return append(steps, Step{Op: OpCallBuilder, Type: l.label(bm.BuilderType), Method: method}), nil
}

func (l *lowerer) addLabel(a *collexpr.AddCandidate) string {
	owner := "?"
	if d := l.tab.Decl(a.Method.Owner); d != nil {
		owner = d.Name
	}
	s := fmt.Sprintf("%s.%s(%s)", owner, a.Method.Name, l.label(a.Param))
	if a.Extension {
		s = "ext " + s
	}
	return s
}

func (l *lowerer) methodLabel(m *symbols.Method, subst types.Subst) string {
	parts := make([]string, len(m.Params))
	for i, p := range m.Params {
		parts[i] = l.label(l.in.Substitute(p.Type, subst))
	}
	return m.Name + "(" + strings.Join(parts, ", ") + ")"
}

func (l *lowerer) label(id types.TypeID) string {
	return types.Label(l.in, id)
}

func (l *lowerer) text(sp source.Span) string {
	if l.opts.Text == nil {
		return ""
	}
	return l.opts.Text(sp)
}
