package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"brackets/internal/diagfmt"
	"brackets/internal/driver"
	"brackets/internal/observ"
)

type reporter struct {
	out     io.Writer
	format  string
	pretty  diagfmt.PrettyOpts
	quiet   bool
	timings bool
}

type checkSummary struct {
	Files  int `json:"files"`
	Cases  int `json:"cases"`
	Failed int `json:"failed_files"`
	Cached int `json:"cached_files"`
}

type fileJSON struct {
	Path        string                    `json:"path"`
	Status      string                    `json:"status"`
	Cases       int                       `json:"cases"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics"`
}

type checkJSON struct {
	Files   []fileJSON     `json:"files"`
	Summary checkSummary   `json:"summary"`
	Timings *observ.Report `json:"timings,omitempty"`
}

func summarize(res *driver.CheckResult) checkSummary {
	s := checkSummary{Files: len(res.Results), Failed: res.Failed()}
	for i := range res.Results {
		fr := &res.Results[i]
		s.Cases += fr.Cases()
		if fr.Status == driver.FileCached {
			s.Cached++
		}
	}
	return s
}

func (r reporter) render(res *driver.CheckResult, elapsed time.Duration) error {
	switch r.format {
	case "json":
		return r.renderJSON(res)
	case "short":
		r.renderShort(res)
	default:
		r.renderPretty(res)
	}
	if r.timings {
		printTimings(r.out, res, elapsed)
	}
	return nil
}

func (r reporter) renderPretty(res *driver.CheckResult) {
	for i := range res.Results {
		fr := &res.Results[i]
		if fr.Diags == nil {
			continue
		}
		fr.Diags.Sort()
		diagfmt.Pretty(r.out, fr.Diags, res.Files, r.pretty)
	}
	if !r.quiet || res.Failed() > 0 {
		r.printSummary(summarize(res))
	}
}

func (r reporter) printSummary(s checkSummary) {
	status := color.New(color.FgGreen, color.Bold)
	word := "ok"
	if s.Failed > 0 {
		status = color.New(color.FgRed, color.Bold)
		word = "FAILED"
	}
	if !r.pretty.Color {
		status.DisableColor()
	}
	fmt.Fprintf(r.out, "%s: %d files, %d cases, %d failed, %d cached\n", status.Sprint(word), s.Files, s.Cases, s.Failed, s.Cached)
}

func (r reporter) renderShort(res *driver.CheckResult) {
	for i := range res.Results {
		fr := &res.Results[i]
		if r.quiet && fr.Status != driver.FileFailed {
			continue
		}
		fmt.Fprintf(r.out, "%-6s %s (%d cases)\n", fr.Status, fr.Path, fr.Cases())
	}
}

func (r reporter) renderJSON(res *driver.CheckResult) error {
	out := checkJSON{Files: make([]fileJSON, 0, len(res.Results)), Summary: summarize(res)}
	opts := diagfmt.JSONOpts{IncludePositions: true, PathMode: r.pretty.PathMode, IncludeNotes: r.pretty.ShowNotes}
	for i := range res.Results {
		fr := &res.Results[i]
		if fr.Diags != nil {
			fr.Diags.Sort()
		}
		diags, err := diagfmt.BuildDiagnosticsOutput(fr.Diags, res.Files, opts)
		if err != nil {
			return err
		}
		out.Files = append(out.Files, fileJSON{Path: fr.Path, Status: fr.Status.String(), Cases: fr.Cases(), Diagnostics: diags})
	}
	if r.timings {
		total := totalTimings(res)
		out.Timings = &total
	}
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
