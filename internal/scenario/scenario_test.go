package scenario

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"brackets/internal/diag"
	"brackets/internal/lower"
	"brackets/internal/source"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "case.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runFile(t *testing.T, path string, opts Options) *Result {
	t.Helper()
	res, err := RunFile(context.Background(), source.NewFileSet(), path, nil, opts)
	if err != nil {
		t.Fatalf("run %s: %v", path, err)
	}
	return res
}

func diagnosticsSummary(items []diag.Diagnostic) string {
	if len(items) == 0 {
		return "<none>"
	}
	parts := make([]string, 0, len(items))
	for _, d := range items {
		parts = append(parts, fmt.Sprintf("%s: %s", d.Code.Name(), d.Message))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func hasCode(items []diag.Diagnostic, code diag.Code) bool {
	for _, d := range items {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestTestdataScenariosPass(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no scenario files")
	}
	for _, path := range files {
		t.Run(filepath.Base(path), func(t *testing.T) {
			res := runFile(t, path, Options{Jobs: 2})
			if res.Comp == nil {
				t.Fatalf("load failed: %s", diagnosticsSummary(res.Diags.Items()))
			}
			for _, cr := range res.Cases {
				if !cr.Passed() {
					t.Errorf("%s: %s (diagnostics: %s)", cr.Name, strings.Join(cr.Problems, "; "), diagnosticsSummary(cr.Diags))
				}
			}
			if res.Stats.Strategies == 0 && res.Cases[0].Kind == "target" {
				t.Errorf("engine cache was not used")
			}
		})
	}
}

func TestExpectationMismatchIsReported(t *testing.T) {
	path := writeScenario(t, `
[[cases]]
name = "wrong"
target = "object"
expr = "[1]"
expect = ["NO_TARGET_TYPE"]
strategy = "array"

[[cases]]
name = "right"
target = "int[]"
expr = "[1]"
`)
	res := runFile(t, path, Options{})
	if res.Passed() || res.Failed() != 1 {
		t.Fatalf("failed = %d", res.Failed())
	}
	want := []string{
		"expected diagnostics [NO_TARGET_TYPE], got [NOT_CONSTRUCTIBLE]",
		"expected strategy array, got not-constructible",
	}
	if diff := cmp.Diff(want, res.Cases[0].Problems); diff != "" {
		t.Fatalf("problems (-want +got):\n%s", diff)
	}
	if got := res.Diags.Count(diag.ProjExpectationMismatch); got != 2 {
		t.Fatalf("mismatch diagnostics = %d", got)
	}
	if !res.Cases[1].Passed() {
		t.Fatalf("second case: %v", res.Cases[1].Problems)
	}
}

func TestDecodeRejectsBadScenarios(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    diag.Code
		msg     string
	}{
		{"syntax", "[[cases]\n", diag.ProjSyntax, ""},
		{"no cases", "[compilation]\nassembly = \"A\"\n", diag.ProjInvalidScenario, "no [[cases]]"},
		{"unknown key", "[[cases]]\ntarget = \"int[]\"\nexpr = \"[]\"\ncolour = 1\n", diag.ProjInvalidScenario, "unknown key"},
		{"two kinds", "[[cases]]\ntarget = \"int[]\"\nusage = \"var\"\nexpr = \"[]\"\n", diag.ProjInvalidScenario, "exactly one of"},
		{"no expr", "[[cases]]\ntarget = \"int[]\"\n", diag.ProjInvalidScenario, "missing expr"},
		{"unknown code", "[[cases]]\ntarget = \"int[]\"\nexpr = \"[]\"\nexpect = [\"NOPE\"]\n", diag.ProjInvalidScenario, "unknown diagnostic"},
		{"duplicate", "[[cases]]\nname = \"a\"\ntarget = \"int[]\"\nexpr = \"[]\"\n[[cases]]\nname = \"a\"\ntarget = \"int[]\"\nexpr = \"[]\"\n", diag.ProjInvalidScenario, "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := source.NewFileSet()
			id := fs.AddVirtual(tt.name+".toml", []byte(tt.content))
			bag := diag.NewBag(16)
			if _, ok := Decode(fs.Get(id), diag.BagReporter{Bag: bag}); ok {
				t.Fatal("expected decode to fail")
			}
			items := bag.Items()
			if !hasCode(items, tt.code) {
				t.Fatalf("want %s, got %s", tt.code.ID(), diagnosticsSummary(items))
			}
			if tt.msg != "" && !strings.Contains(items[0].Message, tt.msg) {
				t.Fatalf("message %q lacks %q", items[0].Message, tt.msg)
			}
		})
	}
}

func TestBuildReportsUnknownTypes(t *testing.T) {
	path := writeScenario(t, `
[[types]]
name = "Box"
base = "Missing"

[[cases]]
target = "int[]"
expr = "[]"
`)
	res := runFile(t, path, Options{})
	if res.Comp != nil {
		t.Fatal("build should fail")
	}
	items := res.Diags.Items()
	if !hasCode(items, diag.ProjUnknownType) {
		t.Fatalf("got %s", diagnosticsSummary(items))
	}
	if !strings.Contains(items[0].Message, "'Missing'") {
		t.Fatalf("message %q", items[0].Message)
	}
}

func TestCaseLoadProblems(t *testing.T) {
	path := writeScenario(t, `
[[cases]]
name = "not a literal"
target = "int[]"
expr = "F()"

[[cases]]
name = "bad target"
target = "Nope<int>"
expr = "[1]"

[[cases]]
name = "bad usage"
usage = "sideways"
expr = "[1]"
`)
	res := runFile(t, path, Options{})
	if res.Failed() != 3 {
		t.Fatalf("failed = %d", res.Failed())
	}
	for _, cr := range res.Cases {
		if len(cr.Problems) != 1 || cr.Problems[0] != "case did not load" {
			t.Errorf("%s: %v", cr.Name, cr.Problems)
		}
	}
	if !hasCode(res.Cases[1].Diags, diag.ProjUnknownType) {
		t.Fatalf("bad target: %s", diagnosticsSummary(res.Cases[1].Diags))
	}
}

func TestClassWithoutCtorGetsImplicitOne(t *testing.T) {
	path := writeScenario(t, `
[[types]]
name = "Bag"
interfaces = ["IEnumerable<int>"]

[[types.methods]]
name = "Add"
params = ["int x"]
result = "void"

[[types]]
name = "Sealed"
interfaces = ["IEnumerable<int>"]

[[types.methods]]
name = ".ctor"
ctor = true
access = "private"

[[types.methods]]
name = "Add"
params = ["int x"]
result = "void"

[[cases]]
name = "implicit ctor"
target = "Bag"
expr = "[1, 2]"
strategy = "initializer"

[[cases]]
name = "private ctor only"
target = "Sealed"
expr = "[1]"
strategy = "not-constructible"
expect = ["NOT_CONSTRUCTIBLE"]
`)
	res := runFile(t, path, Options{})
	for _, cr := range res.Cases {
		if !cr.Passed() {
			t.Errorf("%s: %v (%s)", cr.Name, cr.Problems, diagnosticsSummary(cr.Diags))
		}
	}
	if res.Cases[0].Strategy != "initializer" || len(res.Cases[0].Diags) != 0 {
		t.Fatalf("implicit ctor: strategy %s, %s", res.Cases[0].Strategy, diagnosticsSummary(res.Cases[0].Diags))
	}
}

func TestPlansForCleanCases(t *testing.T) {
	res := runFile(t, filepath.Join("testdata", "basics.toml"), Options{Plans: true})
	plans := map[string]*lower.Plan{}
	for _, cr := range res.Cases {
		plans[cr.Name] = cr.Plan
	}
	if plans["object is not constructible"] != nil {
		t.Fatal("failed cases are not lowered")
	}
	p := plans["list initializer"]
	if p == nil {
		t.Fatal("list initializer has no plan")
	}
	var ops []string
	for _, st := range p.Steps {
		ops = append(ops, st.Op.String())
	}
	if diff := cmp.Diff([]string{"new", "add", "add", "add"}, ops); diff != "" {
		t.Fatalf("ops (-want +got):\n%s", diff)
	}
	if p.Steps[2].Text != "2" {
		t.Fatalf("element text %q", p.Steps[2].Text)
	}
}

func TestCaseLocalsShadowFileLocals(t *testing.T) {
	path := writeScenario(t, `
[locals]
xs = "bool"

[[cases]]
name = "file local"
target = "int[]"
expr = "[..xs]"
expect = ["SPREAD_NOT_ENUMERABLE"]

[[cases]]
name = "case local"
target = "int[]"
expr = "[..xs]"
locals = { xs = "int[]" }
`)
	res := runFile(t, path, Options{})
	for _, cr := range res.Cases {
		if !cr.Passed() {
			t.Errorf("%s: %v (%s)", cr.Name, cr.Problems, diagnosticsSummary(cr.Diags))
		}
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunFile(ctx, source.NewFileSet(), filepath.Join("testdata", "basics.toml"), nil, Options{})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}
