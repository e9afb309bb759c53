package diagfmt

import (
	"encoding/json"
	"io"

	"brackets/internal/diag"
	"brackets/internal/source"
)

// LocationJSON - байтовый диапазон и, по запросу, строки/колонки
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// DiagnosticJSON is one diagnostic. Snippet is the source text under the
// primary span (first line only); Args are the message operands.
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Name     string       `json:"name,omitempty"`
	Message  string       `json:"message"`
	Args     []string     `json:"args,omitempty"`
	Location LocationJSON `json:"location"`
	Snippet  string       `json:"snippet,omitempty"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// DiagnosticsOutput is the root of the JSON output. Omitted counts
// diagnostics cut by Max plus those the bag itself dropped.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Omitted     int              `json:"omitted,omitempty"`
}

const maxSnippetWidth = 80

type jsonBuilder struct {
	fs   *source.FileSet
	opts JSONOpts
}

func (b jsonBuilder) location(span source.Span) LocationJSON {
	f := fileOf(b.fs, span)
	if f == nil {
		return LocationJSON{}
	}
	loc := LocationJSON{
		File:      formatPath(b.fs, f, b.opts.PathMode),
		StartByte: span.Start,
		EndByte:   span.End,
	}
	if b.opts.IncludePositions {
		start, end := b.fs.Resolve(span)
		loc.StartLine, loc.StartCol = start.Line, start.Col
		loc.EndLine, loc.EndCol = end.Line, end.Col
	}
	return loc
}

// snippet returns the text under span up to the end of its first line.
func (b jsonBuilder) snippet(span source.Span) string {
	f := fileOf(b.fs, span)
	if f == nil || !b.opts.IncludePositions || span.Empty() || int(span.End) > len(f.Content) {
		return ""
	}
	text := f.Content[span.Start:span.End]
	for i, c := range text {
		if c == '\n' {
			text = text[:i]
			break
		}
	}
	return clip(string(text), maxSnippetWidth)
}

func (b jsonBuilder) diagnostic(d diag.Diagnostic) DiagnosticJSON {
	out := DiagnosticJSON{
		Severity: d.Severity.String(),
		Code:     d.Code.ID(),
		Name:     d.Code.Name(),
		Message:  d.Message,
		Args:     d.Args,
		Location: b.location(d.Primary),
		Snippet:  b.snippet(d.Primary),
	}
	// тайминги несут payload в заметке, её отдаём всегда
	if b.opts.IncludeNotes || d.Code == diag.ObsTimings {
		for _, note := range d.Notes {
			out.Notes = append(out.Notes, NoteJSON{Message: note.Msg, Location: b.location(note.Span)})
		}
	}
	return out
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) (DiagnosticsOutput, error) {
	out := DiagnosticsOutput{Diagnostics: []DiagnosticJSON{}}
	if bag == nil {
		return out, nil
	}
	items := bag.Items()
	shown := items
	if opts.Max > 0 && opts.Max < len(items) {
		shown = items[:opts.Max]
	}
	b := jsonBuilder{fs: fs, opts: opts}
	for _, d := range shown {
		out.Diagnostics = append(out.Diagnostics, b.diagnostic(d))
	}
	out.Count = len(out.Diagnostics)
	out.Omitted = len(items) - len(shown) + bag.Dropped()
	return out, nil
}

// JSON пишет диагностики с отступами; формат см. DiagnosticsOutput.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	output, err := BuildDiagnosticsOutput(bag, fs, opts)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
