package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"brackets/internal/diag"
	"brackets/internal/source"
)

func decodeOutput(t *testing.T, buf *bytes.Buffer) DiagnosticsOutput {
	t.Helper()
	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput: %s", err, buf.String())
	}
	return output
}

// TestJSONBasic проверяет базовое JSON форматирование
func TestJSONBasic(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("[[cases]]\nexpr = \"[1, x]\"\n")
	fileID := fs.AddVirtual("case.toml", content)

	bag := diag.NewBag(10)
	d := diag.New(diag.SevError, diag.CollUndefinedName, source.Span{File: fileID, Start: 22, End: 23}, "the name 'x' does not exist in the current context")
	d = d.WithNote(source.Span{File: fileID, Start: 18, End: 24}, "in this collection expression")
	bag.Add(d)

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename, IncludeNotes: true}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	output := decodeOutput(t, &buf)

	want := DiagnosticsOutput{
		Count: 1,
		Diagnostics: []DiagnosticJSON{{
			Severity: "ERROR",
			Code:     "CEX3013",
			Name:     "UNDEFINED_NAME",
			Message:  "the name 'x' does not exist in the current context",
			Location: LocationJSON{File: "case.toml", StartByte: 22, EndByte: 23, StartLine: 2, StartCol: 13, EndLine: 2, EndCol: 14},
			Snippet:  "x",
			Notes: []NoteJSON{{
				Message:  "in this collection expression",
				Location: LocationJSON{File: "case.toml", StartByte: 18, EndByte: 24, StartLine: 2, StartCol: 9, EndLine: 2, EndCol: 15},
			}},
		}},
	}
	if diff := cmp.Diff(want, output); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONWithoutPositionsAndNotes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("case.toml", []byte("[]\n"))
	bag := diag.NewBag(4)
	bag.Add(diag.New(diag.SevError, diag.CollNoTargetType, source.Span{File: fileID, Start: 0, End: 2}, "no target").
		WithNote(source.Span{File: fileID, Start: 0, End: 1}, "hidden"))

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{PathMode: PathModeBasename}); err != nil {
		t.Fatal(err)
	}
	got := decodeOutput(t, &buf).Diagnostics[0]
	if got.Location.StartLine != 0 || got.Location.EndByte != 2 {
		t.Fatalf("location = %+v", got.Location)
	}
	if len(got.Notes) != 0 || got.Snippet != "" {
		t.Fatalf("notes must be omitted: %+v", got.Notes)
	}
}

func TestJSONTimingNotesAlwaysIncluded(t *testing.T) {
	bag := diag.NewBag(4)
	bag.Add(diag.New(diag.SevInfo, diag.ObsTimings, source.NoSpan, "timings").WithNote(source.NoSpan, `{"kind":"scenario"}`))

	output, err := BuildDiagnosticsOutput(bag, source.NewFileSet(), JSONOpts{})
	if err != nil {
		t.Fatal(err)
	}
	d := output.Diagnostics[0]
	if len(d.Notes) != 1 || d.Notes[0].Message != `{"kind":"scenario"}` {
		t.Fatalf("timing note missing: %+v", d)
	}
	if d.Location != (LocationJSON{}) {
		t.Fatalf("timings have no location, got %+v", d.Location)
	}
}

func TestJSONMaxLimit(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("case.toml", []byte("[1, 2, 3]\n"))
	bag := diag.NewBag(10)
	for i := range uint32(5) {
		bag.Add(diag.New(diag.SevWarning, diag.CollObsoleteMember, source.Span{File: fileID, Start: i, End: i + 1}, "obsolete"))
	}

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{Max: 3}); err != nil {
		t.Fatal(err)
	}
	output := decodeOutput(t, &buf)
	if output.Count != 3 || len(output.Diagnostics) != 3 || output.Omitted != 2 {
		t.Fatalf("count=%d omitted=%d, want 3 and 2", output.Count, output.Omitted)
	}

	empty, err := BuildDiagnosticsOutput(nil, fs, JSONOpts{})
	if err != nil || empty.Count != 0 || empty.Diagnostics == nil {
		t.Fatalf("nil bag output = %+v, %v", empty, err)
	}
}

func TestJSONSnippetAndArgs(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("case.toml", []byte("expr = \"[1,\n 2]\"\n"))
	bag := diag.NewBag(1)
	bag.Add(diag.Errorf(diag.CollNotConstructible, source.Span{File: fileID, Start: 8, End: 15}, "cannot construct %s", "Widget"))
	bag.Add(diag.NewError(diag.CollNoTargetType, source.Span{File: fileID, Start: 8, End: 9}, "dropped"))

	output, err := BuildDiagnosticsOutput(bag, fs, JSONOpts{IncludePositions: true})
	if err != nil {
		t.Fatal(err)
	}
	d := output.Diagnostics[0]
	if d.Snippet != "[1," {
		t.Fatalf("snippet = %q", d.Snippet)
	}
	if diff := cmp.Diff([]string{"Widget"}, d.Args); diff != "" {
		t.Fatalf("args (-want +got):\n%s", diff)
	}
	if output.Omitted != 1 {
		t.Fatalf("omitted = %d, want 1 (dropped by the bag)", output.Omitted)
	}
}
