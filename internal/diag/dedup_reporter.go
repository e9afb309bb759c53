package diag

import (
	"sync"

	"brackets/internal/source"
)

type dedupKey struct {
	code Code
	sev  Severity
	span source.Span
	msg  string
}

// DedupReporter suppresses diagnostics repeating the same code, severity,
// primary span and message. Nested collection literals are elaborated more
// than once during overload resolution; this keeps each node reported once.
type DedupReporter struct {
	mu   sync.Mutex
	next Reporter
	seen map[dedupKey]struct{}
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[dedupKey]struct{}),
	}
}

func (r *DedupReporter) Report(d Diagnostic) {
	if r == nil {
		return
	}
	if r.first(dedupKey{code: d.Code, sev: d.Severity, span: d.Primary, msg: d.Message}) && r.next != nil {
		r.next.Report(d)
	}
}

// first records key and reports whether it was new.
func (r *DedupReporter) first(key dedupKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[key]; ok {
		return false
	}
	r.seen[key] = struct{}{}
	return true
}
