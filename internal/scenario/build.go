package scenario

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"brackets/internal/diag"
	"brackets/internal/project"
	"brackets/internal/source"
	"brackets/internal/symbols"
	"brackets/internal/syntax"
	"brackets/internal/types"
)

// DefaultAssembly is the assembly of declarations that do not name one.
const DefaultAssembly = "Test"

// Compilation is a scenario file turned into a symbol table plus the use
// site its cases are bound from.
type Compilation struct {
	Path    string
	Files   *source.FileSet
	File    source.FileID
	Spec    *File
	Table   *symbols.Table
	Lib     *symbols.Corelib
	Program *symbols.TypeDecl
	Site    symbols.Site
	Lang    *semver.Version
	Locals  map[string]types.TypeID
}

// Build declares everything in spec. Problems are reported and the affected
// declarations are skipped; ok is false when any was reported.
func Build(fs *source.FileSet, file source.FileID, spec *File, lang *semver.Version, rep diag.Reporter) (*Compilation, bool) {
	counter := &errorCounter{next: rep}
	tab := symbols.NewTable(nil, nil)
	c := &Compilation{
		Files:  fs,
		File:   file,
		Spec:   spec,
		Table:  tab,
		Lib:    symbols.LoadCorelib(tab, symbols.CorelibOptions{Missing: spec.Compilation.Missing}),
		Lang:   lang,
		Locals: make(map[string]types.TypeID),
	}
	if f := fs.Get(file); f != nil {
		c.Path = f.Path
	}
	whole := source.Span{File: file}
	if spec.Compilation.LanguageVersion != "" {
		v, err := project.ParseLanguageVersion(spec.Compilation.LanguageVersion)
		if err != nil {
			counter.Report(diag.NewError(diag.ProjInvalidScenario, whole, err.Error()))
		} else {
			c.Lang = v
		}
	}
	assembly := spec.Compilation.Assembly
	if assembly == "" {
		assembly = DefaultAssembly
	}
	c.Program = tab.NewType("Program", symbols.TypeClass, nil)
	c.Program.Assembly = assembly
	c.Program.Base = tab.Types.Builtins().Object
	c.Site = symbols.Site{Assembly: assembly, Within: c.Program.ID}

	b := &builder{c: c, rep: counter, assembly: assembly, whole: whole}
	decls := make([]*symbols.TypeDecl, len(spec.Types))
	for i := range spec.Types {
		decls[i] = b.declare(&spec.Types[i])
	}
	for i := range spec.Types {
		if decls[i] != nil {
			b.fill(decls[i], &spec.Types[i])
		}
	}
	for i := range spec.Types {
		if decls[i] == nil {
			continue
		}
		for j := range spec.Types[i].Methods {
			b.method(decls[i], &spec.Types[i].Methods[j], fmt.Sprintf("types.%s.methods[%d]", decls[i].Name, j))
		}
	}
	for _, d := range decls {
		if d != nil {
			b.implicitCtor(d)
		}
	}
	for i := range spec.Functions {
		fn := spec.Functions[i]
		fn.Static = true
		b.method(c.Program, &fn, fmt.Sprintf("functions[%d]", i))
	}
	for _, name := range sortedKeys(spec.Locals) {
		if t, ok := b.resolve(spec.Locals[name], "locals."+name, nil); ok {
			c.Locals[name] = t
		}
	}
	return c, counter.errors == 0
}

type errorCounter struct {
	next   diag.Reporter
	errors int
}

func (r *errorCounter) Report(d diag.Diagnostic) {
	if d.IsError() {
		r.errors++
	}
	r.next.Report(d)
}

type builder struct {
	c        *Compilation
	rep      diag.Reporter
	assembly string
	whole    source.Span
}

func (b *builder) errorf(code diag.Code, format string, args ...any) {
	b.rep.Report(diag.Errorf(code, b.whole, format, args...))
}

func parseKind(s string) (symbols.TypeKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "class":
		return symbols.TypeClass, true
	case "struct":
		return symbols.TypeStruct, true
	case "interface":
		return symbols.TypeInterface, true
	case "enum":
		return symbols.TypeEnum, true
	case "delegate":
		return symbols.TypeDelegate, true
	}
	return 0, false
}

func parseAccess(s string) (symbols.Accessibility, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "public":
		return symbols.AccessPublic, true
	case "internal":
		return symbols.AccessInternal, true
	case "protected":
		return symbols.AccessProtected, true
	case "private":
		return symbols.AccessPrivate, true
	}
	return 0, false
}

// splitVariance turns "out T" into ("T", Covariant).
func splitVariance(s string) (string, types.Variance) {
	fields := strings.Fields(s)
	if len(fields) == 2 {
		switch fields[0] {
		case "out":
			return fields[1], types.Covariant
		case "in":
			return fields[1], types.Contravariant
		}
	}
	return strings.TrimSpace(s), types.Invariant
}

func (b *builder) declare(td *TypeDef) *symbols.TypeDecl {
	kind, ok := parseKind(td.Kind)
	if !ok {
		b.errorf(diag.ProjInvalidScenario, "type %q: unknown kind %q", td.Name, td.Kind)
		return nil
	}
	if td.Name == "" {
		b.errorf(diag.ProjInvalidScenario, "type without a name")
		return nil
	}
	names := make([]string, len(td.TypeParams))
	variances := make([]types.Variance, len(td.TypeParams))
	for i, tp := range td.TypeParams {
		names[i], variances[i] = splitVariance(tp)
	}
	if b.c.Table.Lookup(td.Name, len(names)) != nil {
		b.errorf(diag.ProjInvalidScenario, "type %q with %d type parameters is already declared", td.Name, len(names))
		return nil
	}
	d := b.c.Table.NewType(td.Name, kind, names, variances...)
	d.Assembly = b.assembly
	if td.Assembly != "" {
		d.Assembly = td.Assembly
	}
	return d
}

func typeScope(d *symbols.TypeDecl, in *types.Interner, extra []symbols.TypeParamDecl) map[string]types.TypeID {
	scope := make(map[string]types.TypeID)
	add := func(tps []symbols.TypeParamDecl) {
		for _, tp := range tps {
			if info, ok := in.TypeParamInfo(tp.Type); ok {
				scope[info.Name] = tp.Type
			}
		}
	}
	if d != nil {
		add(d.TypeParams)
	}
	add(extra)
	return scope
}

func (b *builder) fill(d *symbols.TypeDecl, td *TypeDef) {
	in := b.c.Table.Types
	scope := typeScope(d, in, nil)
	where := "types." + d.Name
	access, ok := parseAccess(td.Access)
	if !ok {
		b.errorf(diag.ProjInvalidScenario, "%s: unknown access %q", where, td.Access)
	}
	d.Access = access
	d.Static = td.Static
	if td.Obsolete != "" || td.ObsoleteError {
		d.Obsolete = &symbols.Obsolete{Message: td.Obsolete, IsError: td.ObsoleteError}
	}
	switch {
	case td.Base != "":
		if t, ok := b.resolve(td.Base, where+".base", scope); ok {
			d.Base = t
		}
	case d.Kind == symbols.TypeClass:
		d.Base = in.Builtins().Object
	}
	for i, text := range td.Interfaces {
		if t, ok := b.resolve(text, fmt.Sprintf("%s.interfaces[%d]", where, i), scope); ok {
			d.Interfaces = append(d.Interfaces, t)
		}
	}
	b.constrain(td.Constraints, scope, where)
	if td.Builder != nil {
		attr := &symbols.BuilderAttr{MethodName: td.Builder.Method}
		if td.Builder.Type != "" {
			if t, ok := b.resolve(td.Builder.Type, where+".builder.type", scope); ok {
				attr.BuilderType = t
			}
		}
		d.Builder = attr
	}
	for i, pd := range td.Properties {
		t, ok := b.resolve(pd.Type, fmt.Sprintf("%s.properties[%d]", where, i), scope)
		if !ok {
			continue
		}
		acc, _ := parseAccess(pd.Access)
		d.Properties = append(d.Properties, &symbols.Property{Name: pd.Name, Type: t, Access: acc, Static: pd.Static})
	}
}

func (b *builder) constrain(defs []ConstraintDef, scope map[string]types.TypeID, where string) {
	for _, cd := range defs {
		tp, ok := scope[cd.Param]
		if !ok {
			b.errorf(diag.ProjInvalidScenario, "%s: constraint on unknown type parameter %q", where, cd.Param)
			continue
		}
		var bounds []types.TypeID
		for i, text := range cd.Types {
			if t, ok := b.resolve(text, fmt.Sprintf("%s.constraints.%s[%d]", where, cd.Param, i), scope); ok {
				bounds = append(bounds, t)
			}
		}
		b.c.Table.Constrain(tp, cd.New, bounds...)
	}
}

// implicitCtor gives a non-static class without declared constructors the
// public parameterless one the language provides.
func (b *builder) implicitCtor(d *symbols.TypeDecl) {
	if d.Kind != symbols.TypeClass || d.Static || len(d.Ctors) > 0 {
		return
	}
	b.c.Table.AddMethod(d, &symbols.Method{
		Ctor:   true,
		Access: symbols.AccessPublic,
		Result: b.c.Table.Types.Builtins().Void,
	})
}

func (b *builder) method(owner *symbols.TypeDecl, md *MethodDef, where string) {
	tab := b.c.Table
	if md.Name == "" && !md.Ctor {
		b.errorf(diag.ProjInvalidScenario, "%s: method without a name", where)
		return
	}
	access, ok := parseAccess(md.Access)
	if !ok {
		b.errorf(diag.ProjInvalidScenario, "%s: unknown access %q", where, md.Access)
	}
	m := &symbols.Method{
		Name:                 md.Name,
		Static:               md.Static,
		Ctor:                 md.Ctor,
		Extension:            md.Extension,
		Access:               access,
		UnmanagedCallersOnly: md.UnmanagedCallersOnly,
	}
	if md.Obsolete != "" || md.ObsoleteError {
		m.Obsolete = &symbols.Obsolete{Message: md.Obsolete, IsError: md.ObsoleteError}
	}
	if len(md.TypeParams) > 0 {
		m.TypeParams = tab.NewMethodTypeParams(owner.ID, md.TypeParams...)
	}
	scope := typeScope(owner, tab.Types, m.TypeParams)
	b.constrain(md.Constraints, scope, where)
	for i, text := range md.Params {
		p, ok := b.param(text, fmt.Sprintf("%s.params[%d]", where, i), scope)
		if !ok {
			return
		}
		m.Params = append(m.Params, p)
	}
	m.Result = tab.Types.Builtins().Void
	if md.Result != "" && !md.Ctor {
		t, ok := b.resolve(md.Result, where+".result", scope)
		if !ok {
			return
		}
		m.Result = t
	}
	if m.Extension && (!m.Static || len(m.Params) == 0) {
		b.errorf(diag.ProjInvalidScenario, "%s: extension methods are static and take a receiver", where)
		return
	}
	tab.AddMethod(owner, m)
}

func (b *builder) virtual(where, text string) *source.File {
	id := b.c.Files.AddVirtual(fmt.Sprintf("%s#%s", b.c.Path, where), []byte(text))
	return b.c.Files.Get(id)
}

func (b *builder) param(text, where string, scope map[string]types.TypeID) (symbols.Param, bool) {
	pd, ok := syntax.ParseParamText(b.virtual(where, text), b.rep)
	if !ok {
		return symbols.Param{}, false
	}
	t, ok := resolveTypeExpr(b.c, pd.Type, scope, b.rep)
	if !ok {
		return symbols.Param{}, false
	}
	ref := symbols.RefNone
	switch pd.Mode {
	case syntax.ArgRef:
		ref = symbols.RefRef
	case syntax.ArgIn:
		ref = symbols.RefIn
	case syntax.ArgOut:
		ref = symbols.RefOut
	}
	return symbols.Param{Name: pd.Name, Type: t, Ref: ref, Scoped: pd.Scoped, Optional: pd.Optional}, true
}

func (b *builder) resolve(text, where string, scope map[string]types.TypeID) (types.TypeID, bool) {
	te, ok := syntax.ParseTypeText(b.virtual(where, text), b.rep)
	if !ok {
		return types.NoTypeID, false
	}
	return resolveTypeExpr(b.c, te, scope, b.rep)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
