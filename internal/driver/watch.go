package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"brackets/internal/trace"
)

// DefaultDebounce collapses editor save bursts into one re-run.
const DefaultDebounce = 150 * time.Millisecond

// WatchDirs returns the unique directories that hold paths; directories in
// paths are kept as is.
func WatchDirs(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	var dirs []string
	for _, p := range paths {
		dir := p
		if info, err := os.Stat(p); err != nil || !info.IsDir() {
			dir = filepath.Dir(p)
		}
		dir = filepath.Clean(dir)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}
	return dirs
}

// Watch calls run every time a *.toml file under dirs changes, until ctx is
// done. Changes arriving within debounce of each other trigger one call.
// Errors from run are passed to onError and do not stop watching.
func Watch(ctx context.Context, dirs []string, debounce time.Duration, run func(context.Context) error, onError func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return err
		}
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	report := func(err error) {
		if err != nil && onError != nil {
			onError(err)
		}
	}

	tracer := trace.FromContext(ctx)
	timer := time.NewTimer(debounce)
	timer.Stop()
	pending := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevantChange(ev) {
				continue
			}
			trace.Point(tracer, trace.ScopeDriver, "driver.watch", ev.Op.String(), "path", ev.Name)
			if !pending {
				pending = true
				timer.Reset(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			report(err)
		case <-timer.C:
			pending = false
			report(run(ctx))
		}
	}
}

func relevantChange(ev fsnotify.Event) bool {
	if !strings.HasSuffix(ev.Name, ".toml") {
		return false
	}
	return ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
