package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"brackets/internal/diag"
	"brackets/internal/source"
)

type palette struct {
	err, warn, info, code, gutter, marker, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan),
		code:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		marker: color.New(color.FgRed),
		note:   color.New(color.FgCyan, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.gutter, p.marker, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes с аналогичным форматом.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		if d.Severity == diag.SevInfo && !opts.ShowInfo {
			continue
		}
		code := d.Code.ID()
		if name := d.Code.Name(); name != code {
			code = fmt.Sprintf("%s [%s]", code, name)
		}
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			location(fs, d.Primary, opts.PathMode),
			p.severity(d.Severity).Sprint(d.Severity.String()),
			p.code.Sprint(code),
			d.Message,
		)
		writeExcerpt(w, fs, d.Primary, opts, p)
		if !opts.ShowNotes {
			continue
		}
		for _, note := range d.Notes {
			fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("note:"), location(fs, note.Span, opts.PathMode), note.Msg)
		}
	}
	if n := bag.Dropped(); n > 0 {
		fmt.Fprintf(w, "... %d more diagnostics not shown\n", n)
	}
}

func location(fs *source.FileSet, span source.Span, mode PathMode) string {
	f := fileOf(fs, span)
	if f == nil {
		return "<unknown>"
	}
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", formatPath(fs, f, mode), start.Line, start.Col)
}

func formatPath(fs *source.FileSet, f *source.File, mode PathMode) string {
	base := ""
	if mode == PathModeRelative {
		base = fs.BaseDir()
	}
	return f.FormatPath(mode.format(), base)
}

// fileOf отбрасывает пустые спаны без файла (например, у тайминга).
func fileOf(fs *source.FileSet, span source.Span) *source.File {
	if fs == nil || span == source.NoSpan {
		return nil
	}
	return fs.Get(span.File)
}

func writeExcerpt(w io.Writer, fs *source.FileSet, span source.Span, opts PrettyOpts, p palette) {
	f := fileOf(fs, span)
	if f == nil || opts.Context < 0 {
		return
	}
	start, end := fs.Resolve(span)
	lines := buildExcerpt(f, start.Line, end.Line, opts.Context)
	if len(lines) == 0 {
		return
	}
	gutter := len(fmt.Sprint(lines[len(lines)-1].num))
	for _, ln := range lines {
		text := clip(ln.text, opts.Width)
		fmt.Fprintf(w, " %s %s\n", p.gutter.Sprintf("%*d |", gutter, ln.num), text)
		if ln.num < start.Line || ln.num > end.Line {
			continue
		}
		from, to := uint32(1), uint32(len(ln.text)+1)
		if ln.num == start.Line {
			from = start.Col
		}
		if ln.num == end.Line {
			to = end.Col
		}
		marker := underline(ln.text, from, to)
		if ln.num != start.Line {
			marker = strings.Replace(marker, "^", "~", 1)
		}
		fmt.Fprintf(w, " %s %s\n", p.gutter.Sprintf("%s |", strings.Repeat(" ", gutter)), p.marker.Sprint(clip(marker, opts.Width)))
	}
}
