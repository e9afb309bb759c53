package main

import (
	"fmt"
	"io"
	"time"

	"brackets/internal/driver"
	"brackets/internal/observ"
)

// totalTimings складывает фазы всех файлов в один отчёт.
func totalTimings(res *driver.CheckResult) observ.Report {
	var total observ.Report
	for i := range res.Results {
		if t := res.Results[i].Timing; t != nil {
			total.Add(*t)
		}
	}
	return total
}

func printTimings(out io.Writer, res *driver.CheckResult, elapsed time.Duration) {
	if out == nil {
		return
	}
	total := totalTimings(res)
	fmt.Fprintln(out, "timings (summed over files):")
	for _, p := range total.Phases {
		fmt.Fprintf(out, "  %-8s %8.1f ms\n", p.Name, p.DurationMS)
	}
	fmt.Fprintf(out, "  %-8s %8.1f ms\n", "wall", toMillis(elapsed))
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
