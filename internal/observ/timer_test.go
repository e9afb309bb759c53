package observ

import (
	"errors"
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	timer := NewTimer()
	idx := timer.Begin("load")
	timer.End(idx, "2 files")
	boom := errors.New("boom")
	if err := timer.Measure("bind", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("Measure returned %v", err)
	}
	timer.End(42, "ignored")

	report := timer.Report()
	if len(report.Phases) != 2 {
		t.Fatalf("phases = %+v", report.Phases)
	}
	if report.Phases[0].Note != "2 files" || report.Phases[1].Note != "boom" {
		t.Fatalf("notes = %+v", report.Phases)
	}
	summary := timer.Summary()
	for _, want := range []string{"load", "bind", "// boom", "total"} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary lacks %q:\n%s", want, summary)
		}
	}
}

func TestReportAdd(t *testing.T) {
	var total Report
	total.Add(Report{TotalMS: 3, Phases: []PhaseReport{{Name: "load", DurationMS: 1}, {Name: "bind", DurationMS: 2}}})
	total.Add(Report{TotalMS: 4, Phases: []PhaseReport{{Name: "cache", DurationMS: 1}, {Name: "bind", DurationMS: 3}}})
	if total.TotalMS != 7 || len(total.Phases) != 3 {
		t.Fatalf("total = %+v", total)
	}
	if total.Phases[1].Name != "bind" || total.Phases[1].DurationMS != 5 {
		t.Fatalf("bind = %+v", total.Phases[1])
	}
	if (&Timer{}).Report().Phases != nil {
		t.Fatal("empty timer reports no phases")
	}
}
