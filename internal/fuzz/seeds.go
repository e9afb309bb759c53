package fuzztests

import (
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB, ограничение для тестового корпуса
	maxFuzzInput = 1 << 16
)

var exprSeeds = []string{
	"[]",
	"[1, 2, 3]",
	"[..xs, ..[1, 2]]",
	"[[1], [], [2L, null]]",
	"b ? [1] : []",
	"F<int>([1], ref x, out y)",
	"[1, ..]",
	"[1,, 2]",
	"[....xs]",
	"[\"a\", 'c', 1.5m, 2UL, true, default]",
}

// addScenarioSeeds добавляет все сценарии из testdata пакета scenario.
func addScenarioSeeds(f *testing.F) {
	matches, err := filepath.Glob(filepath.Join("..", "scenario", "testdata", "*.toml"))
	if err != nil {
		return
	}
	for _, path := range matches {
		// #nosec G304 -- path comes from repository testdata glob
		src, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		f.Add(clampSeed(src))
	}
	f.Add([]byte{})
	f.Add([]byte("[[cases]]\ntarget = \"int[]\"\nexpr = \"[1]\"\n"))
}

func addExprSeeds(f *testing.F) {
	for _, s := range exprSeeds {
		f.Add([]byte(s))
	}
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return src
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}
