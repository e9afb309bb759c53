package diag

import (
	"brackets/internal/source"
)

// Severity orders diagnostics: info < warning < error.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{SevInfo: "INFO", SevWarning: "WARNING", SevError: "ERROR"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}

type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is a pure value; the core never uses it for control flow.
// Args keeps the formatting operands so tests can match on them.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Args     []string
	Notes    []Note
}

// IsError reports whether d stops a case from passing.
func (d Diagnostic) IsError() bool { return d.Severity >= SevError }
