package fuzztests

import (
	"context"
	"testing"
	"time"

	"brackets/internal/diag"
	"brackets/internal/scenario"
	"brackets/internal/source"
	"brackets/internal/syntax"
	"brackets/internal/testkit"
)

// parseTimeout is the maximum time allowed for parsing a single input.
// If parsing takes longer, it indicates a potential infinite loop.
const parseTimeout = 5 * time.Second

func FuzzParseExprSpans(f *testing.F) {
	addExprSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)

		fs := source.NewFileSet()
		fileID := fs.AddVirtual("fuzz", input)
		file := fs.Get(fileID)

		bag := diag.NewBag(128)
		e, ok := syntax.ParseExprText(file, diag.BagReporter{Bag: bag})
		if !ok || bag.Len() > 0 {
			return
		}
		// чистый разбор обязан давать согласованные спаны
		if err := testkit.CheckSpanInvariants(e, file); err != nil {
			t.Fatalf("input %q: %v", input, err)
		}
	})
}

// FuzzParserNoHang tests that the expression parser terminates on any input,
// including the error recovery paths.
func FuzzParserNoHang(f *testing.F) {
	addExprSeeds(f)
	f.Add([]byte("[[[[[[[[[[[["))
	f.Add([]byte("F(F(F(F(")) // незакрытые вызовы
	f.Add([]byte("a ? b ? c"))

	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)

		ctx, cancel := context.WithTimeout(context.Background(), parseTimeout)
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			fs := source.NewFileSet()
			fileID := fs.AddVirtual("fuzz", input)
			_, _ = syntax.ParseExprText(fs.Get(fileID), diag.NopReporter{})
		}()

		select {
		case <-done:
		case <-ctx.Done():
			t.Fatalf("parser hang detected: parsing took longer than %v\ninput (%d bytes): %q",
				parseTimeout, len(input), truncateForLog(input, 200))
		}
	})
}

// FuzzScenarioDecode feeds arbitrary TOML to the scenario decoder and, when
// it decodes, builds the compilation. Neither step may panic.
func FuzzScenarioDecode(f *testing.F) {
	addScenarioSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)

		fs := source.NewFileSet()
		fileID := fs.AddVirtual("fuzz.toml", input)
		bag := diag.NewBag(256)
		rep := diag.BagReporter{Bag: bag}
		spec, ok := scenario.Decode(fs.Get(fileID), rep)
		if !ok {
			if !bag.HasErrors() {
				t.Fatalf("rejected input without an error diagnostic: %q", input)
			}
			return
		}
		_, _ = scenario.Build(fs, fileID, spec, nil, rep)
	})
}

// truncateForLog truncates input for logging purposes
func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], []byte("...")...)
}
