package driver

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"brackets/internal/project"
	"brackets/internal/scenario"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache хранит результаты прошедших сценариев по ключу содержимого.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the cached outcome of a scenario file whose cases all
// passed. Failing files are never cached so their diagnostics are always
// recomputed.
type DiskPayload struct {
	Schema uint16 `msgpack:"schema"`

	Path        string         `msgpack:"path"`
	ContentHash project.Digest `msgpack:"content"`
	Cases       []CaseSummary  `msgpack:"cases"`
	Stored      time.Time      `msgpack:"stored"`
}

// CaseSummary is what survives of a passing case.
type CaseSummary struct {
	Name     string   `msgpack:"name"`
	Kind     string   `msgpack:"kind"`
	Codes    []string `msgpack:"codes,omitempty"`
	Strategy string   `msgpack:"strategy,omitempty"`
	Chosen   string   `msgpack:"chosen,omitempty"`
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt uses dir as the cache root.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key project.Digest) string {
	hexKey := key.Hex()
	// Подкаталог по первым двум символам, чтобы не раздувать один каталог.
	return filepath.Join(c.dir, "scenarios", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key project.Digest, payload *DiskPayload) error {
	if c == nil || payload == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		// после успешного Rename временного файла уже нет
		_ = os.Remove(tmp)
	}()

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(tmp, p)
}

// Get reads and deserializes a payload from the disk cache. Entries written
// by another schema version are reported as misses.
func (c *DiskCache) Get(key project.Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return out.Schema == diskCacheSchemaVersion, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// тривиально: переименуем каталог и удалим
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}

// cacheKey binds a scenario to its content and to everything that can
// change its outcome.
func cacheKey(content project.Digest, manifest project.Digest, lang string) project.Digest {
	deps := []project.Digest{project.Sum([]byte("lang=" + lang))}
	if !manifest.IsZero() {
		deps = append(deps, manifest)
	}
	return project.Combine(content, deps...)
}

func payloadFor(res *scenario.Result, content project.Digest) *DiskPayload {
	p := &DiskPayload{
		Schema:      diskCacheSchemaVersion,
		Path:        res.Path,
		ContentHash: content,
		Cases:       make([]CaseSummary, len(res.Cases)),
		Stored:      time.Now().UTC(),
	}
	for i, cr := range res.Cases {
		p.Cases[i] = CaseSummary{Name: cr.Name, Kind: cr.Kind, Codes: cr.Got, Strategy: cr.Strategy, Chosen: cr.Chosen}
	}
	return p
}
