package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
)

// DefaultScenarioGlob is used when [check].scenarios is empty.
const DefaultScenarioGlob = "scenarios/*.toml"

var (
	// ErrProjectSectionMissing indicates that [project] is missing.
	ErrProjectSectionMissing = errors.New("missing [project]")
	// ErrProjectNameMissing indicates that [project].name is missing.
	ErrProjectNameMissing = errors.New("missing [project].name")
)

// Manifest is a loaded brackets.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
	// Digest covers the raw manifest bytes; cached results depend on it.
	Digest Digest
}

// Config mirrors the manifest tables.
type Config struct {
	Project ProjectConfig `toml:"project"`
	Check   CheckConfig   `toml:"check"`
	Trace   TraceConfig   `toml:"trace"`
}

type ProjectConfig struct {
	Name string `toml:"name"`
	// LanguageVersion gates language features; empty means latest.
	LanguageVersion string `toml:"language_version"`
}

type CheckConfig struct {
	Scenarios      []string `toml:"scenarios"`
	MaxDiagnostics int      `toml:"max_diagnostics"`
	Jobs           int      `toml:"jobs"`
	Cache          *bool    `toml:"cache"`
	UI             string   `toml:"ui"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
	Format string `toml:"format"`
}

// Load finds and parses the manifest above startDir. ok is false when there
// is none.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := LoadFile(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// LoadFile parses one manifest file.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("project") {
		return nil, fmt.Errorf("%s: %w", path, ErrProjectSectionMissing)
	}
	if !meta.IsDefined("project", "name") || strings.TrimSpace(cfg.Project.Name) == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrProjectNameMissing)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if _, err := ParseLanguageVersion(cfg.Project.LanguageVersion); err != nil {
		return nil, fmt.Errorf("%s: [project].language_version: %w", path, err)
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
		Digest: Sum(data),
	}, nil
}

// ParseLanguageVersion accepts "12", "12.0", "latest" or "". Nil means latest.
func ParseLanguageVersion(s string) (*semver.Version, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "latest") || strings.EqualFold(s, "preview") {
		return nil, nil
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid language version %q: %w", s, err)
	}
	return v, nil
}

// LanguageVersion returns the configured version, nil for latest.
func (m *Manifest) LanguageVersion() *semver.Version {
	if m == nil {
		return nil
	}
	v, _ := ParseLanguageVersion(m.Config.Project.LanguageVersion)
	return v
}

// CacheEnabled reports whether the disk cache is on; it defaults to true.
func (m *Manifest) CacheEnabled() bool {
	return m == nil || m.Config.Check.Cache == nil || *m.Config.Check.Cache
}

// ScenarioFiles expands [check].scenarios relative to the project root.
// Results are sorted and unique.
func (m *Manifest) ScenarioFiles() ([]string, error) {
	globs := m.Config.Check.Scenarios
	if len(globs) == 0 {
		globs = []string{DefaultScenarioGlob}
	}
	seen := make(map[string]struct{})
	var out []string
	for _, g := range globs {
		pattern := g
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(m.Root, filepath.FromSlash(g))
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("%s: bad scenario pattern %q: %w", m.Path, g, err)
		}
		for _, p := range matches {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Template returns a minimal manifest for a new project.
func Template(name string) string {
	return fmt.Sprintf(`# brackets project manifest
[project]
name = "%s"
language_version = "12.0"

[check]
scenarios = ["%s"]
max_diagnostics = 100
`, name, DefaultScenarioGlob)
}
