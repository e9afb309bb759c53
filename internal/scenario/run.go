package scenario

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"

	"brackets/internal/collexpr"
	"brackets/internal/diag"
	"brackets/internal/lower"
	"brackets/internal/source"
	"brackets/internal/syntax"
	"brackets/internal/trace"
	"brackets/internal/types"
)

// DefaultMaxDiagnostics bounds the per-case diagnostic bag.
const DefaultMaxDiagnostics = 64

// Options configures Run.
type Options struct {
	// Jobs bounds concurrently bound cases; <= 0 means one per case.
	Jobs int
	// MaxDiagnostics bounds each case's bag.
	MaxDiagnostics int
	// Plans lowers every case that bound cleanly.
	Plans bool
	// StackLimit is passed to lowering.
	StackLimit int
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name     string
	Kind     string
	Span     source.Span
	Diags    []diag.Diagnostic
	Got      []string
	Want     []string
	Strategy string
	Chosen   string
	Plan     *lower.Plan
	// Problems lists every unmet expectation; empty means the case passed.
	Problems []string
}

// Passed reports whether every expectation held.
func (r *CaseResult) Passed() bool { return len(r.Problems) == 0 }

// Result is the outcome of one scenario file.
type Result struct {
	Path  string
	Comp  *Compilation
	Cases []CaseResult
	// Diags holds load problems, case diagnostics and expectation
	// mismatches in case order.
	Diags *diag.Bag
	Stats collexpr.CacheStats
}

// Passed reports whether the file loaded and all its cases passed.
func (r *Result) Passed() bool {
	if r == nil || r.Comp == nil {
		return false
	}
	for i := range r.Cases {
		if !r.Cases[i].Passed() {
			return false
		}
	}
	return true
}

// Failed counts failing cases.
func (r *Result) Failed() int {
	n := 0
	for i := range r.Cases {
		if !r.Cases[i].Passed() {
			n++
		}
	}
	return n
}

// Load reads and builds a scenario file. lang is the project default,
// overridden by the file's own language_version.
func Load(fs *source.FileSet, path string, lang *semver.Version, rep diag.Reporter) (*Compilation, bool) {
	id, err := fs.Load(path)
	if err != nil {
		rep.Report(diag.NewError(diag.IOLoadFileError, source.NoSpan, fmt.Sprintf("%s: %v", path, err)))
		return nil, false
	}
	spec, ok := Decode(fs.Get(id), rep)
	if !ok {
		return nil, false
	}
	return Build(fs, id, spec, lang, rep)
}

// RunFile loads path and runs all its cases.
func RunFile(ctx context.Context, fs *source.FileSet, path string, lang *semver.Version, opts Options) (*Result, error) {
	ctx, sp := trace.BeginCtx(trace.WithScenario(ctx, path), trace.ScopePass, "scenario.file")
	defer sp.End("")
	res := &Result{Path: path, Diags: diag.NewBag(maxDiags(opts) * 16)}
	comp, ok := Load(fs, path, lang, diag.BagReporter{Bag: res.Diags})
	if !ok {
		return res, nil
	}
	return run(ctx, comp, opts, res)
}

// Run binds every case of c. Cases share one engine and therefore one
// cache; each gets its own binder. Run fails only on cancellation.
func Run(ctx context.Context, c *Compilation, opts Options) (*Result, error) {
	return run(ctx, c, opts, &Result{Path: c.Path, Diags: diag.NewBag(maxDiags(opts) * 16)})
}

func maxDiags(opts Options) int {
	if opts.MaxDiagnostics > 0 {
		return opts.MaxDiagnostics
	}
	return DefaultMaxDiagnostics
}

// prepared is a case with its text parsed and its types resolved.
type prepared struct {
	c      *Case
	expr   syntax.Expr
	target types.TypeID
	usage  collexpr.Usage
	locals map[string]types.TypeID
	early  *diag.Bag
}

func (c *Compilation) prepare(cs *Case, limit int) *prepared {
	p := &prepared{c: cs, early: diag.NewBag(limit), locals: c.Locals}
	rep := diag.BagReporter{Bag: p.early}
	b := &builder{c: c, rep: rep, whole: source.Span{File: c.File}}
	where := "cases." + cs.Name
	if len(cs.Locals) > 0 {
		p.locals = make(map[string]types.TypeID, len(c.Locals)+len(cs.Locals))
		for k, v := range c.Locals {
			p.locals[k] = v
		}
		for _, name := range sortedKeys(cs.Locals) {
			if t, ok := b.resolve(cs.Locals[name], where+".locals."+name, nil); ok {
				p.locals[name] = t
			}
		}
	}
	text := cs.Expr
	if cs.Kind() == "call" {
		text = cs.Call
	}
	f := b.virtual(where, text)
	expr, ok := syntax.ParseExprText(f, rep)
	if !ok {
		return p
	}
	p.expr = expr
	switch cs.Kind() {
	case "target":
		if t, ok := b.resolve(cs.Target, where+".target", nil); ok {
			p.target = t
		}
		p.requireCollection(expr)
	case "usage":
		u, known := collexpr.ParseUsage(cs.Usage)
		if !known {
			p.early.Add(diag.Errorf(diag.ProjInvalidScenario, expr.Span(), "unknown usage %q", cs.Usage))
		}
		p.usage = u
		p.requireCollection(expr)
	case "call":
		if _, isCall := expr.(*syntax.Call); !isCall {
			p.early.Add(diag.NewError(diag.ProjInvalidScenario, expr.Span(), "call case is not a call expression"))
		}
	}
	return p
}

func (p *prepared) requireCollection(expr syntax.Expr) {
	if _, ok := expr.(*syntax.Collection); !ok {
		p.early.Add(diag.NewError(diag.ProjInvalidScenario, expr.Span(), "expression is not a collection expression"))
	}
}

func run(ctx context.Context, c *Compilation, opts Options, res *Result) (*Result, error) {
	if trace.AttributionOf(ctx).File == "" {
		ctx = trace.WithScenario(ctx, c.Path)
	}
	res.Comp = c
	limit := maxDiags(opts)
	engine := collexpr.NewEngine(c.Table, collexpr.Options{Site: c.Site, LanguageVersion: c.Lang})

	cases := c.Spec.Cases
	preps := make([]*prepared, len(cases))
	for i := range cases {
		preps[i] = c.prepare(&cases[i], limit)
	}

	res.Cases = make([]CaseResult, len(cases))
	g, gctx := errgroup.WithContext(ctx)
	if opts.Jobs > 0 {
		g.SetLimit(opts.Jobs)
	}
	for i := range preps {
		g.Go(func() error {
			cr, err := c.runCase(gctx, engine, preps[i], opts, limit)
			if err != nil {
				return err
			}
			res.Cases[i] = cr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i := range res.Cases {
		cr := &res.Cases[i]
		for _, d := range cr.Diags {
			res.Diags.Add(d)
		}
		for _, problem := range cr.Problems {
			res.Diags.Add(diag.Errorf(diag.ProjExpectationMismatch, cr.Span, "case %q: %s", cr.Name, problem))
		}
	}
	res.Stats = engine.Cache().Stats()
	return res, nil
}

func (c *Compilation) runCase(ctx context.Context, engine *collexpr.Engine, p *prepared, opts Options, limit int) (CaseResult, error) {
	ctx, sp := trace.BeginCtx(trace.WithCase(ctx, p.c.Name), trace.ScopeCase, "scenario.case")
	cr := CaseResult{Name: p.c.Name, Kind: p.c.Kind(), Want: sortedNames(p.c.Expect)}
	if p.expr != nil {
		cr.Span = p.expr.Span()
	}
	if p.early.HasErrors() || p.expr == nil {
		cr.Diags = p.early.Items()
		cr.Problems = append(cr.Problems, "case did not load")
		sp.End("invalid")
		return cr, nil
	}

	bag := diag.NewBag(limit)
	binder := engine.NewBinder(diag.NewDedupReporter(diag.BagReporter{Bag: bag}), collexpr.Env{
		Locals:      p.locals,
		Functions:   c.Program.MethodsNamed,
		ResolveType: c.TypeOf,
	})
	switch cr.Kind {
	case "target":
		bound, err := binder.Bind(ctx, p.target, p.expr.(*syntax.Collection))
		if err != nil {
			sp.End(err.Error())
			return cr, err
		}
		cr.Strategy = bound.Strategy.Kind.String()
		if opts.Plans && bound.OK() {
			plan, err := lower.Lower(c.Table, bound, lower.Options{Text: c.Files.Text, StackLimit: opts.StackLimit})
			if err != nil {
				bag.Add(diag.NewError(diag.CollInternalError, cr.Span, err.Error()))
			}
			cr.Plan = plan
		}
	case "usage":
		if err := binder.RequireNaturalType(ctx, p.usage, p.expr.(*syntax.Collection)); err != nil {
			sp.End(err.Error())
			return cr, err
		}
	case "call":
		call := binder.ResolveCall(ctx, p.expr.(*syntax.Call))
		if err := ctx.Err(); err != nil {
			sp.End(err.Error())
			return cr, err
		}
		cr.Chosen = binder.Label(call)
	}
	bag.Sort()
	cr.Diags = bag.Items()
	for _, d := range cr.Diags {
		if d.Severity > diag.SevInfo {
			cr.Got = append(cr.Got, d.Code.Name())
		}
	}
	sort.Strings(cr.Got)
	cr.Problems = p.check(&cr)
	sp.End(fmt.Sprintf("passed=%t", cr.Passed()))
	return cr, nil
}

func (p *prepared) check(cr *CaseResult) []string {
	var problems []string
	if strings.Join(cr.Got, ",") != strings.Join(cr.Want, ",") {
		problems = append(problems, fmt.Sprintf("expected diagnostics [%s], got [%s]",
			strings.Join(cr.Want, " "), strings.Join(cr.Got, " ")))
	}
	if p.c.Strategy != "" && p.c.Strategy != cr.Strategy {
		problems = append(problems, fmt.Sprintf("expected strategy %s, got %s", p.c.Strategy, cr.Strategy))
	}
	if p.c.Chosen != "" && p.c.Chosen != cr.Chosen {
		got := cr.Chosen
		if got == "" {
			got = "no method"
		}
		problems = append(problems, fmt.Sprintf("expected %s to be chosen, got %s", p.c.Chosen, got))
	}
	return problems
}

// sortedNames canonicalizes expectation spellings (names or IDs) to names.
func sortedNames(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, s := range codes {
		if code, ok := diag.ParseCode(s); ok {
			out = append(out, code.Name())
			continue
		}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
