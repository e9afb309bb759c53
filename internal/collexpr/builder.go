package collexpr

import (
	"context"

	"brackets/internal/diag"
	"brackets/internal/symbols"
	"brackets/internal/trace"
	"brackets/internal/types"
)

// BuilderState is the lifecycle of a builder resolution. Resolved and
// Failed are terminal.
type BuilderState uint8

const (
	BuilderUnresolved BuilderState = iota
	BuilderValidating
	BuilderResolved
	BuilderFailed
)

func (s BuilderState) String() string {
	switch s {
	case BuilderValidating:
		return "validating"
	case BuilderResolved:
		return "resolved"
	case BuilderFailed:
		return "failed"
	default:
		return "unresolved"
	}
}

// BuilderMethod is a validated factory method.
type BuilderMethod struct {
	BuilderType types.TypeID
	Method      *symbols.Method
	// ElemSlot is the index of the collection type parameter that is the
	// element type, or -1 when the element type is not a bare parameter.
	ElemSlot      int
	ParamReadOnly bool
}

// BuilderResolution is the cached outcome for one collection declaration.
type BuilderResolution struct {
	State  BuilderState
	Method *BuilderMethod
	// OpenElem is the element type of the open definition.
	OpenElem types.TypeID
	Reason   Reason
	Findings []Finding
}

// ResolveBuilder validates the builder attribute of collType's declaration
// and finds its factory method. The result is cached per declaration and
// access site.
func (e *Engine) ResolveBuilder(ctx context.Context, collType types.TypeID) (BuilderResolution, error) {
	decl := e.tab.DeclOf(collType)
	if decl == nil || decl.Builder == nil {
		return BuilderResolution{State: BuilderUnresolved}, nil
	}
	res, hit, err := e.cache.builder(ctx, builderKey{def: decl.ID, site: e.site}, func() BuilderResolution {
		return e.validateBuilder(decl)
	})
	if err != nil {
		return BuilderResolution{}, err
	}
	trace.PointCtx(ctx, trace.ScopeNode, "collexpr.builder", res.State.String(),
		"type", decl.Name, "cached", boolText(hit))
	return res, nil
}

func boolText(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func (e *Engine) validateBuilder(decl *symbols.TypeDecl) BuilderResolution {
	res := BuilderResolution{State: BuilderValidating}
	attr := decl.Builder
	collLabel := e.label(decl.Self)

	builderDecl, typeOK := e.validBuilderType(attr.BuilderType)
	if !typeOK {
		res.Findings = append(res.Findings, errFinding(diag.CollInvalidBuilderAttributeType,
			"the CollectionBuilderAttribute builder type must be a non-generic class or struct"))
	}
	nameOK := attr.MethodName != ""
	if !nameOK {
		res.Findings = append(res.Findings, errFinding(diag.CollInvalidBuilderMethodName,
			"the CollectionBuilderAttribute method name is invalid"))
	}

	iter := e.conv.IterationType(decl.Self)
	if !iter.OK() {
		res.State = BuilderFailed
		res.Reason = ReasonNoElementType
		res.Findings = append(res.Findings, errFinding(diag.CollBuilderNoElementType,
			"'%s' has a CollectionBuilderAttribute but no element type", collLabel))
		return res
	}
	res.OpenElem = iter.Elem
	notFound := func() BuilderResolution {
		res.State = BuilderFailed
		res.Reason = ReasonBuilderNotFound
		res.Findings = append(res.Findings, errFinding(diag.CollBuilderMethodNotFound,
			"could not find an accessible '%s' method with the expected signature: a static method with a single parameter of type 'ReadOnlySpan<%s>' and return type '%s'",
			attr.MethodName, e.label(iter.Elem), collLabel))
		return res
	}
	if !typeOK || !nameOK {
		return notFound()
	}

	for _, m := range builderDecl.MethodsNamed(attr.MethodName) {
		bm, ok := e.matchBuilderMethod(decl, builderDecl, m, iter.Elem)
		if !ok {
			continue
		}
		res.State = BuilderResolved
		res.Method = bm
		res.Findings = append(res.Findings, e.obsoleteFindings(builderDecl, m)...)
		return res
	}
	return notFound()
}

// validBuilderType accepts a non-generic class or struct.
func (e *Engine) validBuilderType(id types.TypeID) (*symbols.TypeDecl, bool) {
	if id == types.NoTypeID || e.in.KindOf(id) != types.KindNamed {
		return nil, false
	}
	d := e.tab.DeclOf(id)
	if d == nil || d.Arity() != 0 {
		return nil, false
	}
	if d.Kind != symbols.TypeClass && d.Kind != symbols.TypeStruct {
		return nil, false
	}
	return d, true
}

func (e *Engine) matchBuilderMethod(coll, builder *symbols.TypeDecl, m *symbols.Method, openElem types.TypeID) (*BuilderMethod, bool) {
	if !m.Static || m.UnmanagedCallersOnly || m.Extension {
		return nil, false
	}
	if !e.tab.Accessible(builder.Access, builder.ID, e.site) || !e.tab.Accessible(m.Access, builder.ID, e.site) {
		return nil, false
	}
	if m.Arity() != coll.Arity() || len(m.Params) != 1 {
		return nil, false
	}
	p := m.Params[0]
	if p.Ref != symbols.RefNone && p.Ref != symbols.RefIn {
		return nil, false
	}

	// Read the method signature in terms of the collection's parameters.
	s := make(types.Subst, m.Arity())
	for i, tp := range m.TypeParams {
		s[tp.Type] = coll.TypeParams[i].Type
	}
	pt, ok := e.in.Lookup(e.in.Substitute(p.Type, s))
	if !ok || pt.Kind != types.KindSpan || pt.Elem != openElem {
		return nil, false
	}
	result := e.in.Substitute(m.Result, s)
	if result != coll.Self && !e.conv.IsReferenceType(result) {
		return nil, false
	}
	if result != coll.Self && !e.conv.Implicit(result, coll.Self) {
		return nil, false
	}

	slot := -1
	for i, tp := range coll.TypeParams {
		if tp.Type == openElem {
			slot = i
		}
	}
	return &BuilderMethod{BuilderType: builder.Self, Method: m, ElemSlot: slot, ParamReadOnly: pt.ReadOnly}, true
}

func (e *Engine) obsoleteFindings(builder *symbols.TypeDecl, m *symbols.Method) []Finding {
	var out []Finding
	add := func(what string, o *symbols.Obsolete) {
		if o == nil {
			return
		}
		msg := "'%s' is obsolete"
		args := []any{what}
		if o.Message != "" {
			msg += ": '%s'"
			args = append(args, o.Message)
		}
		if o.IsError {
			out = append(out, errFinding(diag.CollObsoleteMember, msg, args...))
		} else {
			out = append(out, warnFinding(diag.CollObsoleteMember, msg, args...))
		}
	}
	add(builder.Name, builder.Obsolete)
	add(builder.Name+"."+m.Name, m.Obsolete)
	return out
}

func (e *Engine) resolveBuilderStrategy(ctx context.Context, target types.TypeID, decl *symbols.TypeDecl) Strategy {
	res, err := e.ResolveBuilder(ctx, target)
	if err != nil {
		// cancelled; Resolve drops this value
		return Strategy{Kind: StrategyNotConstructible, Reason: ReasonBuilderNotFound, Target: target}
	}
	switch res.State {
	case BuilderResolved:
		elem := e.in.Substitute(res.OpenElem, e.tab.SubstOf(target))
		return Strategy{
			Kind:    StrategyBuilder,
			Target:  target,
			Elem:    elem,
			Builder: res.Method,
			Diags:   res.Findings,
		}
	default:
		reason := res.Reason
		if reason == ReasonNone {
			reason = ReasonBuilderNotFound
		}
		return Strategy{Kind: StrategyNotConstructible, Reason: reason, Target: target, Diags: res.Findings}
	}
}
