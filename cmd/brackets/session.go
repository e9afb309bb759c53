package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"brackets/internal/diagfmt"
	"brackets/internal/driver"
	"brackets/internal/project"
)

// session holds the settings shared by every command of one invocation:
// the manifest found above the working directory merged with the flags.
type session struct {
	manifest       *project.Manifest
	lang           *semver.Version
	maxDiagnostics int
	jobs           int
	color          bool
	quiet          bool
	timings        bool
	ui             uiMode
	cache          bool
	cleanup        func()
}

var current *session

func preRun(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "init" || cmd.Name() == "version" || cmd.Name() == "explain" {
		return nil
	}
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	stopTrace, err := setupTracing(cmd, s.manifest)
	if err != nil {
		return err
	}
	stopProf, err := setupProfiling(cmd)
	if err != nil {
		stopTrace()
		return err
	}
	s.cleanup = func() {
		stopProf()
		stopTrace()
	}
	current = s
	return nil
}

func closeSession() {
	if current != nil && current.cleanup != nil {
		current.cleanup()
		current.cleanup = nil
	}
}

func loadSession(cmd *cobra.Command) (*session, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	manifest, _, err := project.Load(wd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Root().PersistentFlags()
	s := &session{
		manifest:       manifest,
		lang:           manifest.LanguageVersion(),
		maxDiagnostics: 100,
		jobs:           runtime.GOMAXPROCS(0),
		cache:          manifest.CacheEnabled(),
		ui:             uiModeAuto,
	}
	if manifest != nil {
		cfg := manifest.Config.Check
		if cfg.MaxDiagnostics > 0 {
			s.maxDiagnostics = cfg.MaxDiagnostics
		}
		if cfg.Jobs > 0 {
			s.jobs = cfg.Jobs
		}
		if s.ui, err = readUIMode(cfg.UI); err != nil {
			return nil, fmt.Errorf("%s: %w", manifest.Path, err)
		}
	}

	if flags.Changed("max-diagnostics") {
		if s.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
			return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
	}
	if flags.Changed("language-version") {
		raw, err := flags.GetString("language-version")
		if err != nil {
			return nil, fmt.Errorf("failed to get language-version flag: %w", err)
		}
		if s.lang, err = project.ParseLanguageVersion(raw); err != nil {
			return nil, err
		}
	}
	if s.quiet, err = flags.GetBool("quiet"); err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if s.timings, err = flags.GetBool("timings"); err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	colorFlag, err := flags.GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch strings.ToLower(colorFlag) {
	case "on":
		s.color = true
	case "off":
		s.color = false
	case "auto":
		s.color = isTerminal(os.Stdout)
	default:
		return nil, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
	return s, nil
}

func (s *session) prettyOpts(cmd *cobra.Command) (diagfmt.PrettyOpts, error) {
	mode, err := pathModeFlag(cmd)
	if err != nil {
		return diagfmt.PrettyOpts{}, err
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return diagfmt.PrettyOpts{}, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	return diagfmt.PrettyOpts{
		Color:     s.color,
		Context:   1,
		PathMode:  mode,
		ShowNotes: withNotes,
	}, nil
}

func pathModeFlag(cmd *cobra.Command) (diagfmt.PathMode, error) {
	raw, err := cmd.Flags().GetString("paths")
	if err != nil {
		return diagfmt.PathModeAuto, fmt.Errorf("failed to get paths flag: %w", err)
	}
	mode, ok := diagfmt.ParsePathMode(raw)
	if !ok {
		return diagfmt.PathModeAuto, fmt.Errorf("invalid --paths value %q (expected auto|absolute|relative|basename)", raw)
	}
	return mode, nil
}

// scenarioFiles expands args, falling back to the manifest's globs.
func (s *session) scenarioFiles(args []string) ([]string, error) {
	if len(args) > 0 {
		return driver.ListScenarioFiles(args)
	}
	if s.manifest == nil {
		return nil, fmt.Errorf("no scenario paths given and no %s found", project.ManifestName)
	}
	files, err := s.manifest.ScenarioFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: no scenario files match %v", s.manifest.Path, s.manifest.Config.Check.Scenarios)
	}
	return files, nil
}
