package collexpr

import (
	"fmt"

	"brackets/internal/diag"
	"brackets/internal/source"
)

// Finding is a diagnostic without a location. Cached results carry findings
// so every use site can replay them at its own span.
type Finding struct {
	Severity diag.Severity
	Code     diag.Code
	Message  string
	Args     []string
}

func errFinding(code diag.Code, format string, args ...any) Finding {
	return Finding{Severity: diag.SevError, Code: code, Message: fmt.Sprintf(format, args...), Args: stringArgs(args)}
}

func warnFinding(code diag.Code, format string, args ...any) Finding {
	f := errFinding(code, format, args...)
	f.Severity = diag.SevWarning
	return f
}

// At places the finding at sp.
func (f Finding) At(sp source.Span) diag.Diagnostic {
	d := diag.New(f.Severity, f.Code, sp, f.Message)
	d.Args = f.Args
	return d
}

func stringArgs(args []any) []string {
	if len(args) == 0 {
		return nil
	}
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = fmt.Sprint(a)
	}
	return out
}
