package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"brackets/internal/driver"
	"brackets/internal/ui"
)

type checkOutcome struct {
	result *driver.CheckResult
	err    error
}

// runCheckWithUI runs driver.Check in the background and renders its
// progress events until it finishes. Quitting the UI cancels the check.
func runCheckWithUI(ctx context.Context, title string, files []string, opts driver.CheckOptions) (*driver.CheckResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan driver.ProgressEvent, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Observer = func(ev driver.ProgressEvent) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}
		res, err := driver.Check(ctx, files, optsCopy)
		outcomeCh <- checkOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// модель выходит сама только после закрытия events; иначе это ctrl+c
	cancel()
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
