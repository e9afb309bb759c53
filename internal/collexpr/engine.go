package collexpr

import (
	"context"

	"github.com/Masterminds/semver/v3"

	"brackets/internal/diag"
	"brackets/internal/sema"
	"brackets/internal/symbols"
	"brackets/internal/syntax"
	"brackets/internal/types"
)

// Options configures an Engine.
type Options struct {
	// Cache is shared by every engine of one compilation. Nil allocates a
	// private cache.
	Cache *Cache
	// Site is the location members are accessed from.
	Site symbols.Site
	// LanguageVersion gates the feature; nil means the latest version.
	LanguageVersion *semver.Version
}

// Engine resolves collection expressions against one symbol table.
type Engine struct {
	tab   *symbols.Table
	conv  *sema.Conversions
	in    *types.Interner
	b     types.Builtins
	cache *Cache
	site  symbols.Site
	lang  *semver.Version
}

// NewEngine creates an engine over tab.
func NewEngine(tab *symbols.Table, opts Options) *Engine {
	cache := opts.Cache
	if cache == nil {
		cache = NewCache()
	}
	return &Engine{
		tab:   tab,
		conv:  sema.New(tab),
		in:    tab.Types,
		b:     tab.Types.Builtins(),
		cache: cache,
		site:  opts.Site,
		lang:  opts.LanguageVersion,
	}
}

// Table returns the symbol table.
func (e *Engine) Table() *symbols.Table { return e.tab }

// Conversions returns the conversion oracle.
func (e *Engine) Conversions() *sema.Conversions { return e.conv }

// Cache returns the compilation cache.
func (e *Engine) Cache() *Cache { return e.cache }

func (e *Engine) label(id types.TypeID) string {
	return types.Label(e.in, id)
}

// Env is what a use site can see besides types: local variables and the
// static methods callable by simple name.
type Env struct {
	Locals    map[string]types.TypeID
	Functions func(name string) []*symbols.Method
	// ResolveType binds explicit type arguments of calls.
	ResolveType func(te *syntax.TypeExpr) (types.TypeID, error)
}

// Binder binds collection expressions at one use site. A Binder is not safe
// for concurrent use; create one per bound statement or case.
type Binder struct {
	e     *Engine
	rep   diag.Reporter // conversion and gate diagnostics
	root  diag.Reporter // diagnostics independent of the target (undefined names)
	env   Env
	exprs map[syntax.Expr]exprInfo
	gated bool
}

// NewBinder creates a binder reporting into rep.
func (e *Engine) NewBinder(rep diag.Reporter, env Env) *Binder {
	if rep == nil {
		rep = diag.NopReporter{}
	}
	return &Binder{e: e, rep: rep, root: rep, env: env, exprs: make(map[syntax.Expr]exprInfo)}
}

// trial returns a binder that shares expression results with b but drops
// target-dependent diagnostics. Overload resolution uses it to test
// candidates.
func (b *Binder) trial() *Binder {
	return &Binder{e: b.e, rep: diag.NopReporter{}, root: b.root, env: b.env, exprs: b.exprs, gated: true}
}

// Engine returns the engine behind b.
func (b *Binder) Engine() *Engine { return b.e }

func (b *Binder) checkCtx(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
