package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"

	"brackets/internal/diag"
	"brackets/internal/observ"
	"brackets/internal/project"
	"brackets/internal/scenario"
	"brackets/internal/source"
	"brackets/internal/trace"
)

// CheckOptions configures Check.
type CheckOptions struct {
	// Jobs bounds the files checked at once; <= 0 means GOMAXPROCS.
	Jobs int
	// CaseJobs bounds the cases bound at once within a file.
	CaseJobs       int
	MaxDiagnostics int
	Plans          bool
	StackLimit     int
	// Lang is the project language version; nil means latest.
	Lang *semver.Version
	// Manifest, when set, is part of every cache key.
	Manifest *project.Manifest
	// Cache stores passing results; nil disables caching.
	Cache    *DiskCache
	Timings  bool
	Observer ProgressObserver
}

// FileResult is the outcome of one scenario file.
type FileResult struct {
	Path   string
	Status FileStatus
	// Result is nil for cache hits.
	Result *scenario.Result
	Cached *DiskPayload
	// Diags holds the file's diagnostics plus timings when requested.
	Diags  *diag.Bag
	Timing *observ.Report
}

// Cases counts the file's cases.
func (r *FileResult) Cases() int {
	switch {
	case r.Result != nil:
		return len(r.Result.Cases)
	case r.Cached != nil:
		return len(r.Cached.Cases)
	}
	return 0
}

// CheckResult collects every file of one run.
type CheckResult struct {
	Files   *source.FileSet
	Results []FileResult
}

// Failed counts files that did not pass.
func (r *CheckResult) Failed() int {
	n := 0
	for i := range r.Results {
		if r.Results[i].Status == FileFailed {
			n++
		}
	}
	return n
}

// ListScenarioFiles возвращает отсортированный список *.toml под путями.
// Каталоги обходятся рекурсивно, файлы берутся как есть.
func ListScenarioFiles(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".toml") && filepath.Base(path) != project.ManifestName {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// Check runs every scenario file in parallel. Each file is its own
// compilation with its own engine cache; files share the FileSet so that
// diagnostics from all of them can be rendered together. Check fails only
// on cancellation.
func Check(ctx context.Context, files []string, opts CheckOptions) (*CheckResult, error) {
	ctx, sp := trace.BeginCtx(ctx, trace.ScopeDriver, "driver.check")
	defer sp.End(fmt.Sprintf("files=%d", len(files)))

	fileSet := source.NewFileSet()
	res := &CheckResult{Files: fileSet, Results: make([]FileResult, len(files))}
	if len(files) == 0 {
		return res, nil
	}
	for _, path := range files {
		opts.notify(ProgressEvent{Path: path, Status: FileQueued})
	}

	// Настраиваем параллелизм
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			// Проверка отмены
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			fr, err := checkFile(gctx, fileSet, path, opts)
			if err != nil {
				return err
			}
			// индекс i уникален, мьютекс не нужен
			res.Results[i] = fr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	return res, nil
}

func (o CheckOptions) notify(ev ProgressEvent) {
	if o.Observer != nil {
		o.Observer(ev)
	}
}

func (o CheckOptions) langText() string {
	if o.Lang == nil {
		return "latest"
	}
	return o.Lang.String()
}

func checkFile(ctx context.Context, fileSet *source.FileSet, path string, opts CheckOptions) (FileResult, error) {
	ctx = trace.WithScenario(ctx, path)
	started := time.Now()
	timer := observ.NewTimer()
	fr := FileResult{Path: path, Diags: diag.NewBag(0)}
	opts.notify(ProgressEvent{Path: path, Status: FileRunning})

	var key, content project.Digest
	useCache := opts.Cache != nil && !opts.Plans
	if useCache {
		idx := timer.Begin("cache")
		data, err := os.ReadFile(path)
		if err == nil {
			content = project.Sum(data)
			var manifest project.Digest
			if opts.Manifest != nil {
				manifest = opts.Manifest.Digest
			}
			key = cacheKey(content, manifest, opts.langText())
			var payload DiskPayload
			hit, getErr := opts.Cache.Get(key, &payload)
			if getErr != nil {
				trace.PointCtx(ctx, trace.ScopePass, "driver.cache", "corrupt entry ignored", "error", getErr.Error())
			}
			if hit {
				trace.PointCtx(ctx, trace.ScopePass, "driver.cache", "hit", "key", key.Short())
				timer.End(idx, "hit")
				fr.Status = FileCached
				fr.Cached = &payload
				finish(&fr, timer, opts, path)
				opts.notify(ProgressEvent{Path: path, Status: FileCached, Cases: len(payload.Cases), Elapsed: time.Since(started)})
				return fr, nil
			}
		} else {
			useCache = false
		}
		timer.End(idx, "miss")
	}

	idx := timer.Begin("load")
	comp, ok := scenario.Load(fileSet, path, opts.Lang, diag.BagReporter{Bag: fr.Diags})
	timer.End(idx, "")
	if !ok {
		fr.Status = FileFailed
		finish(&fr, timer, opts, path)
		opts.notify(ProgressEvent{Path: path, Status: FileFailed, Elapsed: time.Since(started)})
		return fr, nil
	}

	idx = timer.Begin("bind")
	result, err := scenario.Run(ctx, comp, scenario.Options{
		Jobs:           opts.CaseJobs,
		MaxDiagnostics: opts.MaxDiagnostics,
		Plans:          opts.Plans,
		StackLimit:     opts.StackLimit,
	})
	if err != nil {
		return fr, fmt.Errorf("%s: %w", path, err)
	}
	timer.End(idx, fmt.Sprintf("%d cases, %d strategies cached", len(result.Cases), result.Stats.Strategies))
	fr.Result = result
	fr.Diags.Merge(result.Diags)

	fr.Status = FilePassed
	if !result.Passed() {
		fr.Status = FileFailed
	}
	if useCache && fr.Status == FilePassed {
		if err := opts.Cache.Put(key, payloadFor(result, content)); err != nil {
			trace.PointCtx(ctx, trace.ScopePass, "driver.cache", "store failed", "error", err.Error())
		}
	}
	finish(&fr, timer, opts, path)
	opts.notify(ProgressEvent{Path: path, Status: fr.Status, Cases: len(result.Cases), Failed: result.Failed(), Elapsed: time.Since(started)})
	return fr, nil
}

func finish(fr *FileResult, timer *observ.Timer, opts CheckOptions, path string) {
	if !opts.Timings {
		return
	}
	appendTimings(fr, path, timer.Report())
}
