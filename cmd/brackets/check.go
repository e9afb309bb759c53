package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"brackets/internal/driver"
	"brackets/internal/trace"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [scenario.toml|directory]...",
	Short: "Bind every case of the given scenario files and compare expectations",
	Long: `Bind every case of the given scenario files and compare the diagnostics,
strategies and chosen overloads against the expectations. Without arguments the
scenarios listed in brackets.toml are checked.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json|short)")
	checkCmd.Flags().Int("jobs", 0, "max scenario files checked in parallel (0=auto)")
	checkCmd.Flags().Int("case-jobs", 0, "max cases bound in parallel per file (0=all)")
	checkCmd.Flags().Bool("no-cache", false, "do not read or write the result cache")
	checkCmd.Flags().Bool("clear-cache", false, "drop the result cache before checking")
	checkCmd.Flags().String("ui", "", "progress UI (auto|on|off); defaults to the manifest or auto")
	checkCmd.Flags().Bool("watch", false, "re-run when scenario files change")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().String("paths", "auto", "path display (auto|absolute|relative|basename)")
}

type checkFlags struct {
	format   string
	caseJobs int
	noCache  bool
	clear    bool
	watch    bool
}

func readCheckFlags(cmd *cobra.Command, s *session) (checkFlags, error) {
	var (
		f   checkFlags
		err error
	)
	if f.format, err = cmd.Flags().GetString("format"); err != nil {
		return f, fmt.Errorf("failed to get format flag: %w", err)
	}
	switch f.format = strings.ToLower(f.format); f.format {
	case "pretty", "json", "short":
	default:
		return f, fmt.Errorf("unknown format %q (must be pretty, json or short)", f.format)
	}
	if cmd.Flags().Changed("jobs") {
		jobs, err := cmd.Flags().GetInt("jobs")
		if err != nil {
			return f, fmt.Errorf("failed to get jobs flag: %w", err)
		}
		if jobs > 0 {
			s.jobs = jobs
		}
	}
	if f.caseJobs, err = cmd.Flags().GetInt("case-jobs"); err != nil {
		return f, fmt.Errorf("failed to get case-jobs flag: %w", err)
	}
	if f.noCache, err = cmd.Flags().GetBool("no-cache"); err != nil {
		return f, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	if f.clear, err = cmd.Flags().GetBool("clear-cache"); err != nil {
		return f, fmt.Errorf("failed to get clear-cache flag: %w", err)
	}
	if f.watch, err = cmd.Flags().GetBool("watch"); err != nil {
		return f, fmt.Errorf("failed to get watch flag: %w", err)
	}
	if cmd.Flags().Changed("ui") {
		raw, err := cmd.Flags().GetString("ui")
		if err != nil {
			return f, fmt.Errorf("failed to get ui flag: %w", err)
		}
		if s.ui, err = readUIMode(raw); err != nil {
			return f, err
		}
	}
	return f, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	s := current
	flags, err := readCheckFlags(cmd, s)
	if err != nil {
		return err
	}
	pretty, err := s.prettyOpts(cmd)
	if err != nil {
		return err
	}

	var cache *driver.DiskCache
	if s.cache && !flags.noCache {
		cache, err = driver.OpenDiskCache("brackets")
		if err != nil {
			// без кэша проверка всё равно работает
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: result cache disabled: %v\n", err)
			cache = nil
		}
	}
	if cache != nil && flags.clear {
		if err := cache.DropAll(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		if cache, err = driver.OpenDiskCache("brackets"); err != nil {
			return err
		}
	}

	opts := driver.CheckOptions{
		Jobs:           s.jobs,
		CaseJobs:       flags.caseJobs,
		MaxDiagnostics: s.maxDiagnostics,
		Lang:           s.lang,
		Manifest:       s.manifest,
		Cache:          cache,
		Timings:        s.timings,
	}
	rep := reporter{out: cmd.OutOrStdout(), format: flags.format, pretty: pretty, quiet: s.quiet, timings: s.timings}

	once := func(ctx context.Context) error {
		files, err := s.scenarioFiles(args)
		if err != nil {
			return err
		}
		ctx, sp := trace.BeginCtx(ctx, trace.ScopeDriver, "cli.check")
		defer sp.End("")

		started := time.Now()
		var res *driver.CheckResult
		if flags.format == "pretty" && shouldUseTUI(s.ui, len(files)) {
			res, err = runCheckWithUI(ctx, "checking scenarios", files, opts)
		} else {
			res, err = driver.Check(ctx, files, opts)
		}
		if err != nil {
			return err
		}
		if err := rep.render(res, time.Since(started)); err != nil {
			return err
		}
		if res.Failed() > 0 {
			return errChecksFailed
		}
		return nil
	}

	if !flags.watch {
		return once(cmd.Context())
	}
	return watch(cmd, s, args, once)
}

func watch(cmd *cobra.Command, s *session, args []string, once func(context.Context) error) error {
	ctx := cmd.Context()
	paths := args
	if len(paths) == 0 {
		files, err := s.scenarioFiles(nil)
		if err != nil {
			return err
		}
		paths = append(files, s.manifest.Path)
	}
	onError := func(err error) {
		if err != nil && !errors.Is(err, errChecksFailed) {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		}
	}
	onError(once(ctx))
	fmt.Fprintln(cmd.ErrOrStderr(), "watching for changes (ctrl+c to stop)")
	err := driver.Watch(ctx, driver.WatchDirs(paths), driver.DefaultDebounce, func(ctx context.Context) error {
		if isTerminal(os.Stdout) {
			fmt.Fprint(cmd.OutOrStdout(), "\033[H\033[2J")
		}
		return once(ctx)
	}, onError)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
