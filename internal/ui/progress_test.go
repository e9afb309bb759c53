package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"

	"brackets/internal/driver"
)

func TestProgressModelTracksFiles(t *testing.T) {
	files := []string{"a.toml", "b.toml"}
	m := NewProgressModel("check", files, nil).(*progressModel)

	m.Update(eventMsg{Path: "a.toml", Status: driver.FileRunning})
	if got := m.fraction(); got != 0.25 {
		t.Fatalf("fraction = %v, want 0.25", got)
	}
	m.Update(eventMsg{Path: "a.toml", Status: driver.FilePassed, Cases: 3, Elapsed: time.Millisecond})
	m.Update(eventMsg{Path: "b.toml", Status: driver.FileFailed, Cases: 2, Failed: 1})
	// поздние события для завершённого файла игнорируются
	m.Update(eventMsg{Path: "b.toml", Status: driver.FileRunning})
	m.Update(eventMsg{Path: "unknown.toml", Status: driver.FilePassed, Cases: 7})

	if m.cases != 5 || m.failed != 1 {
		t.Fatalf("totals = %d cases, %d failed", m.cases, m.failed)
	}
	if got := m.fraction(); got != 1 {
		t.Fatalf("fraction = %v, want 1", got)
	}
	m.Update(doneMsg{})
	view := m.View()
	for _, want := range []string{"done: check (5 cases, 1 failed)", "passed", "failed", "1/2 failed", "a.toml"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestTruncate(t *testing.T) {
	long := "scenarios/очень/длинный/путь.toml"
	got := truncate(long, 12)
	if w := runewidth.StringWidth(got); w > 12 || !strings.HasSuffix(got, "...") {
		t.Fatalf("truncate = %q (width %d)", got, w)
	}
	if truncate("ab", 12) != "ab" || truncate(long, 0) != long {
		t.Fatal("short values must be kept")
	}
}
