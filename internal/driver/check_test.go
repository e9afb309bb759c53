package driver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"brackets/internal/diag"
	"brackets/internal/project"
)

const failingScenario = `
[[cases]]
name = "wrong expectation"
target = "int[]"
expr = "[1]"
expect = ["NOT_CONSTRUCTIBLE"]
`

func testdataFiles(t *testing.T) []string {
	t.Helper()
	files, err := ListScenarioFiles([]string{filepath.Join("..", "scenario", "testdata")})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no scenario testdata")
	}
	return files
}

func statuses(res *CheckResult) map[string]FileStatus {
	out := make(map[string]FileStatus, len(res.Results))
	for _, fr := range res.Results {
		out[filepath.Base(fr.Path)] = fr.Status
	}
	return out
}

func TestCheckTestdataPasses(t *testing.T) {
	files := testdataFiles(t)
	res, err := Check(context.Background(), files, CheckOptions{Jobs: 2})
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed() != 0 {
		t.Fatalf("failed files: %v", statuses(res))
	}
	for _, fr := range res.Results {
		if fr.Status != FilePassed || fr.Result == nil || fr.Cases() == 0 {
			t.Fatalf("%s: status %s, %d cases", fr.Path, fr.Status, fr.Cases())
		}
	}
}

func TestCheckUsesDiskCache(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	failing := filepath.Join(dir, "failing.toml")
	if err := os.WriteFile(failing, []byte(failingScenario), 0o600); err != nil {
		t.Fatal(err)
	}
	files := append(testdataFiles(t), failing)
	opts := CheckOptions{Cache: cache}

	first, err := Check(context.Background(), files, opts)
	if err != nil {
		t.Fatal(err)
	}
	if got := first.Failed(); got != 1 {
		t.Fatalf("first run failed %d files, want 1", got)
	}

	second, err := Check(context.Background(), files, opts)
	if err != nil {
		t.Fatal(err)
	}
	for i, fr := range second.Results {
		if fr.Path == failing {
			if fr.Status != FileFailed {
				t.Fatalf("failing file status %s", fr.Status)
			}
			continue
		}
		if fr.Status != FileCached || fr.Result != nil {
			t.Fatalf("%s: status %s, want cached", fr.Path, fr.Status)
		}
		if fr.Cases() != first.Results[i].Cases() {
			t.Fatalf("%s: %d cached cases, want %d", fr.Path, fr.Cases(), first.Results[i].Cases())
		}
	}

	// другой язык - другой ключ
	lang, err := project.ParseLanguageVersion("12.0")
	if err != nil {
		t.Fatal(err)
	}
	opts.Lang = lang
	third, err := Check(context.Background(), files[:1], opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.Results[0].Status == FileCached {
		t.Fatal("language version must be part of the cache key")
	}
}

func TestCheckReportsProgress(t *testing.T) {
	files := testdataFiles(t)
	var (
		mu     sync.Mutex
		events = make(map[string][]FileStatus)
	)
	opts := CheckOptions{Observer: func(ev ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		events[ev.Path] = append(events[ev.Path], ev.Status)
	}}
	if _, err := Check(context.Background(), files, opts); err != nil {
		t.Fatal(err)
	}
	want := []FileStatus{FileQueued, FileRunning, FilePassed}
	for _, path := range files {
		if diff := cmp.Diff(want, events[path]); diff != "" {
			t.Fatalf("%s events (-want +got):\n%s", path, diff)
		}
	}
}

func TestCheckTimings(t *testing.T) {
	files := testdataFiles(t)[:1]
	res, err := Check(context.Background(), files, CheckOptions{Timings: true})
	if err != nil {
		t.Fatal(err)
	}
	fr := res.Results[0]
	if fr.Timing == nil {
		t.Fatal("timing report missing")
	}
	var found *diag.Diagnostic
	for _, d := range fr.Diags.Items() {
		if d.Code == diag.ObsTimings {
			found = &d
			break
		}
	}
	if found == nil || len(found.Notes) != 1 {
		t.Fatalf("timings diagnostic missing: %+v", fr.Diags.Items())
	}
	var payload timingPayload
	if err := json.Unmarshal([]byte(found.Notes[0].Msg), &payload); err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(payload.Phases))
	for _, p := range payload.Phases {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"load", "bind"}, names); diff != "" {
		t.Fatalf("phases (-want +got):\n%s", diff)
	}
	if payload.Kind != "scenario" || payload.Path != files[0] {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestCheckCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Check(ctx, testdataFiles(t), CheckOptions{}); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestListScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.toml", "a.toml", "notes.md", project.ManifestName, filepath.Join("nested", "c.toml")} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	single := filepath.Join(dir, "a.toml")
	got, err := ListScenarioFiles([]string{dir, single})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{single, filepath.Join(dir, "b.toml"), filepath.Join(dir, "nested", "c.toml")}
	sort.Strings(want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("files (-want +got):\n%s", diff)
	}
	if _, err := ListScenarioFiles([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := OpenDiskCacheAt(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	key := cacheKey(project.Sum([]byte("scenario")), project.Digest{}, "latest")
	in := &DiskPayload{
		Schema: diskCacheSchemaVersion,
		Path:   "a.toml",
		Cases:  []CaseSummary{{Name: "c", Kind: "target", Strategy: "array"}},
	}
	var out DiskPayload
	if hit, err := cache.Get(key, &out); hit || err != nil {
		t.Fatalf("empty cache: hit=%v err=%v", hit, err)
	}
	if err := cache.Put(key, in); err != nil {
		t.Fatal(err)
	}
	hit, err := cache.Get(key, &out)
	if err != nil || !hit {
		t.Fatalf("hit=%v err=%v", hit, err)
	}
	if diff := cmp.Diff(*in, out, cmpopts.IgnoreFields(DiskPayload{}, "Stored")); diff != "" {
		t.Fatalf("payload (-want +got):\n%s", diff)
	}

	stale := *in
	stale.Schema = diskCacheSchemaVersion + 1
	if err := cache.Put(key, &stale); err != nil {
		t.Fatal(err)
	}
	if hit, _ := cache.Get(key, &out); hit {
		t.Fatal("foreign schema must miss")
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	if hit, err := cache.Get(key, &out); hit || err != nil {
		t.Fatalf("after DropAll: hit=%v err=%v", hit, err)
	}
}

func TestFileStatus(t *testing.T) {
	if FileRunning.Done() || !FileCached.Done() {
		t.Fatal("Done mismatch")
	}
	if FileCached.String() != "cached" || FileStatus(99).String() != "unknown" {
		t.Fatal("String mismatch")
	}
}
