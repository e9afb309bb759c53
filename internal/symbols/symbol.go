package symbols

import (
	"brackets/internal/source"
	"brackets/internal/types"
)

// Obsolete mirrors an obsolete marker on a type or member.
type Obsolete struct {
	Message string
	IsError bool
}

// BuilderAttr is the collection-builder marker attached to a type
// declaration: the builder type and the name of its factory method.
// BuilderType is NoTypeID when the attribute argument was null or did not
// resolve.
type BuilderAttr struct {
	BuilderType types.TypeID
	MethodName  string
	Span        source.Span
}

// TypeParamDecl carries the constraints of one generic parameter.
type TypeParamDecl struct {
	Type        types.TypeID
	Constraints []types.TypeID
	NewCtor     bool // new() constraint
}

// Param is one value parameter of a method.
type Param struct {
	Name     string
	Type     types.TypeID
	Ref      RefKind
	Scoped   bool
	Optional bool
}

// Method is a method, constructor, extension method or user-defined
// conversion operator.
type Method struct {
	Name                 string
	Owner                types.DefID
	Static               bool
	Ctor                 bool
	Extension            bool // first parameter is the receiver
	Access               Accessibility
	TypeParams           []TypeParamDecl
	Params               []Param
	Result               types.TypeID
	UnmanagedCallersOnly bool
	Obsolete             *Obsolete
	Span                 source.Span
}

// Arity is the number of method type parameters.
func (m *Method) Arity() int {
	if m == nil {
		return 0
	}
	return len(m.TypeParams)
}

// RequiredParams counts parameters without a default value.
func (m *Method) RequiredParams() int {
	n := 0
	for _, p := range m.Params {
		if !p.Optional {
			n++
		}
	}
	return n
}

// TypeParamIDs lists the method's own type parameters.
func (m *Method) TypeParamIDs() []types.TypeID {
	out := make([]types.TypeID, len(m.TypeParams))
	for i, tp := range m.TypeParams {
		out[i] = tp.Type
	}
	return out
}

// Property is a readable property; only the enumerator Current matters here.
type Property struct {
	Name   string
	Type   types.TypeID
	Access Accessibility
	Static bool
}

// TypeDecl is a named type declaration.
type TypeDecl struct {
	ID         types.DefID
	Name       string
	NameID     source.StringID
	Kind       TypeKind
	Access     Accessibility
	Assembly   string
	Static     bool
	TypeParams []TypeParamDecl
	Base       types.TypeID
	Interfaces []types.TypeID
	Ctors      []*Method
	Methods    []*Method
	Properties []*Property
	Builder    *BuilderAttr
	Obsolete   *Obsolete
	WellKnown  WellKnown
	Span       source.Span

	// Self is the declaration instantiated over its own type parameters.
	Self types.TypeID
}

// Arity is the number of type parameters of the declaration.
func (d *TypeDecl) Arity() int {
	if d == nil {
		return 0
	}
	return len(d.TypeParams)
}

// TypeParamIDs lists the declaration's own type parameters in order.
func (d *TypeDecl) TypeParamIDs() []types.TypeID {
	out := make([]types.TypeID, len(d.TypeParams))
	for i, tp := range d.TypeParams {
		out[i] = tp.Type
	}
	return out
}

// MethodsNamed returns the declared methods called name, in order.
func (d *TypeDecl) MethodsNamed(name string) []*Method {
	var out []*Method
	for _, m := range d.Methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// Property returns the declared property called name.
func (d *TypeDecl) Property(name string) *Property {
	for _, p := range d.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Site is where a member is referenced from; it drives accessibility.
type Site struct {
	Assembly string
	Within   types.DefID
}
