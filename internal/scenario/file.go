// Package scenario loads declarative compilations from TOML files and binds
// their collection-expression cases through collexpr.
package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"brackets/internal/diag"
	"brackets/internal/source"
)

// File is the decoded form of one scenario file.
type File struct {
	Compilation CompilationDef    `toml:"compilation"`
	Types       []TypeDef         `toml:"types"`
	Functions   []MethodDef       `toml:"functions"`
	Locals      map[string]string `toml:"locals"`
	Cases       []Case            `toml:"cases"`
}

// CompilationDef configures the reference set and the use site.
type CompilationDef struct {
	LanguageVersion string   `toml:"language_version"`
	Assembly        string   `toml:"assembly"`
	Missing         []string `toml:"missing"`
}

// TypeDef declares one named type.
type TypeDef struct {
	Name          string          `toml:"name"`
	Kind          string          `toml:"kind"`
	TypeParams    []string        `toml:"type_params"` // "T", "out T", "in T"
	Constraints   []ConstraintDef `toml:"constraints"`
	Base          string          `toml:"base"`
	Interfaces    []string        `toml:"interfaces"`
	Assembly      string          `toml:"assembly"`
	Access        string          `toml:"access"`
	Static        bool            `toml:"static"`
	Obsolete      string          `toml:"obsolete"`
	ObsoleteError bool            `toml:"obsolete_error"`
	Builder       *BuilderDef     `toml:"builder"`
	Methods       []MethodDef     `toml:"methods"`
	Properties    []PropertyDef   `toml:"properties"`
}

// ConstraintDef constrains one type parameter.
type ConstraintDef struct {
	Param string   `toml:"param"`
	Types []string `toml:"types"`
	New   bool     `toml:"new"`
}

// BuilderDef is the collection-builder marker. An empty Type stands for a
// null attribute argument.
type BuilderDef struct {
	Type   string `toml:"type"`
	Method string `toml:"method"`
}

// MethodDef declares a method, constructor or extension method.
type MethodDef struct {
	Name                 string          `toml:"name"`
	Ctor                 bool            `toml:"ctor"`
	Static               bool            `toml:"static"`
	Extension            bool            `toml:"extension"`
	Access               string          `toml:"access"`
	TypeParams           []string        `toml:"type_params"`
	Constraints          []ConstraintDef `toml:"constraints"`
	Params               []string        `toml:"params"` // "scoped ref T name = default"
	Result               string          `toml:"result"`
	UnmanagedCallersOnly bool            `toml:"unmanaged_callers_only"`
	Obsolete             string          `toml:"obsolete"`
	ObsoleteError        bool            `toml:"obsolete_error"`
}

// PropertyDef declares a readable property.
type PropertyDef struct {
	Name   string `toml:"name"`
	Type   string `toml:"type"`
	Access string `toml:"access"`
	Static bool   `toml:"static"`
}

// Case is one use site. Exactly one of Target, Usage and Call is set.
type Case struct {
	Name   string            `toml:"name"`
	Target string            `toml:"target"`
	Usage  string            `toml:"usage"`
	Expr   string            `toml:"expr"`
	Call   string            `toml:"call"`
	Locals map[string]string `toml:"locals"`
	// Expect lists the diagnostic names the case must produce, in any order.
	Expect []string `toml:"expect"`
	// Strategy and Chosen are optional checks of the outcome.
	Strategy string `toml:"strategy"`
	Chosen   string `toml:"chosen"`
}

// Kind says how a case is bound.
func (c *Case) Kind() string {
	switch {
	case c.Call != "":
		return "call"
	case c.Usage != "":
		return "usage"
	default:
		return "target"
	}
}

// Decode parses scenario text. Syntax and schema problems are reported
// against the file and make ok false.
func Decode(file *source.File, rep diag.Reporter) (*File, bool) {
	var f File
	meta, err := toml.Decode(string(file.Content), &f)
	if err != nil {
		rep.Report(diag.NewError(diag.ProjSyntax, tomlErrorSpan(file, err), err.Error()))
		return nil, false
	}
	whole := source.Span{File: file.ID}
	ok := true
	for _, k := range meta.Undecoded() {
		rep.Report(diag.Errorf(diag.ProjInvalidScenario, whole, "unknown key %q", k.String()))
		ok = false
	}
	if len(f.Cases) == 0 {
		rep.Report(diag.NewError(diag.ProjInvalidScenario, whole, "scenario has no [[cases]]"))
		ok = false
	}
	seen := make(map[string]bool, len(f.Cases))
	for i := range f.Cases {
		c := &f.Cases[i]
		if c.Name == "" {
			c.Name = fmt.Sprintf("case%d", i+1)
		}
		if seen[c.Name] {
			rep.Report(diag.Errorf(diag.ProjInvalidScenario, whole, "duplicate case name %q", c.Name))
			ok = false
		}
		seen[c.Name] = true
		if msg := c.validate(); msg != "" {
			rep.Report(diag.Errorf(diag.ProjInvalidScenario, whole, "case %q: %s", c.Name, msg))
			ok = false
		}
		for _, e := range c.Expect {
			if _, known := diag.ParseCode(e); !known {
				rep.Report(diag.Errorf(diag.ProjInvalidScenario, whole, "case %q: unknown diagnostic %q", c.Name, e))
				ok = false
			}
		}
	}
	return &f, ok
}

func (c *Case) validate() string {
	set := 0
	for _, s := range []string{c.Target, c.Usage, c.Call} {
		if strings.TrimSpace(s) != "" {
			set++
		}
	}
	switch {
	case set != 1:
		return "exactly one of target, usage and call must be set"
	case c.Call == "" && strings.TrimSpace(c.Expr) == "":
		return "missing expr"
	case c.Call != "" && c.Expr != "":
		return "expr and call are exclusive"
	case c.Chosen != "" && c.Call == "":
		return "chosen only applies to calls"
	case c.Strategy != "" && c.Target == "":
		return "strategy only applies to target cases"
	}
	return ""
}

func tomlErrorSpan(file *source.File, err error) source.Span {
	var pe toml.ParseError
	if errors.As(err, &pe) {
		start := pe.Position.Start
		end := start + pe.Position.Len
		if end > len(file.Content) {
			end = len(file.Content)
		}
		if start >= 0 && start <= end {
			return source.MakeSpan(file.ID, start, end)
		}
	}
	return source.Span{File: file.ID}
}
