package driver

import (
	"encoding/json"
	"fmt"

	"brackets/internal/diag"
	"brackets/internal/observ"
	"brackets/internal/source"
)

// timingPayload is the JSON carried in the note of an ObsTimings diagnostic.
type timingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// timingDiagnostic packs the phase report of one scenario file.
func timingDiagnostic(path string, report observ.Report) (diag.Diagnostic, error) {
	data, err := json.Marshal(timingPayload{Kind: "scenario", Path: path, TotalMS: report.TotalMS, Phases: report.Phases})
	if err != nil {
		return diag.Diagnostic{}, fmt.Errorf("timings: %w", err)
	}
	msg := fmt.Sprintf("timings (scenario): total %.2f ms", report.TotalMS)
	if path != "" {
		msg += ", " + path
	}
	return diag.New(diag.SevInfo, diag.ObsTimings, source.NoSpan, msg).
		WithNote(source.NoSpan, string(data)), nil
}

// appendTimings records the report on fr; the diagnostic bypasses the bag
// limit so a file full of errors still shows its timings.
func appendTimings(fr *FileResult, path string, report observ.Report) {
	fr.Timing = &report
	d, err := timingDiagnostic(path, report)
	if err != nil || fr.Diags == nil {
		return
	}
	fr.Diags.Force(d)
}
