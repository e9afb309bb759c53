package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"brackets/internal/diag"
	"brackets/internal/diagfmt"
	"brackets/internal/lower"
	"brackets/internal/observ"
	"brackets/internal/scenario"
	"brackets/internal/source"
)

var planCmd = &cobra.Command{
	Use:   "plan [flags] <scenario.toml>",
	Short: "Print construction plans for the target cases of a scenario file",
	Long: `Bind the target cases of a scenario file and print how each collection
expression is constructed: allocation, element stores or Add calls, spread loops
and builder calls in source order. Cases that do not bind cleanly are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringSlice("case", nil, "only plan the named cases")
	planCmd.Flags().String("format", "text", "output format (text|msgpack)")
	planCmd.Flags().StringP("output", "o", "", "write plans to a file instead of stdout")
	planCmd.Flags().Int("stack-limit", lower.DefaultStackLimit, "largest span buffer placed on the stack")
	planCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	planCmd.Flags().String("paths", "auto", "path display (auto|absolute|relative|basename)")
}

func runPlan(cmd *cobra.Command, args []string) error {
	s := current
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	if format != "text" && format != "msgpack" {
		return fmt.Errorf("unknown format %q (must be text or msgpack)", format)
	}
	only, err := cmd.Flags().GetStringSlice("case")
	if err != nil {
		return fmt.Errorf("failed to get case flag: %w", err)
	}
	outPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	stackLimit, err := cmd.Flags().GetInt("stack-limit")
	if err != nil {
		return fmt.Errorf("failed to get stack-limit flag: %w", err)
	}
	pretty, err := s.prettyOpts(cmd)
	if err != nil {
		return err
	}
	if format == "msgpack" && outPath == "" && isTerminal(os.Stdout) {
		return fmt.Errorf("refusing to write msgpack to a terminal; use --output")
	}

	timer := observ.NewTimer()
	fs := source.NewFileSet()
	bag := diag.NewBag(0)
	var comp *scenario.Compilation
	_ = timer.Measure("load", func() error {
		var ok bool
		comp, ok = scenario.Load(fs, args[0], s.lang, diag.BagReporter{Bag: bag})
		if !ok {
			return fmt.Errorf("load failed")
		}
		return nil
	})
	if comp == nil {
		bag.Sort()
		diagfmt.Pretty(cmd.ErrOrStderr(), bag, fs, pretty)
		return errChecksFailed
	}

	var res *scenario.Result
	err = timer.Measure("bind", func() error {
		var runErr error
		res, runErr = scenario.Run(cmd.Context(), comp, scenario.Options{
			MaxDiagnostics: s.maxDiagnostics,
			Plans:          true,
			StackLimit:     stackLimit,
		})
		return runErr
	})
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", outPath, err)
		}
		defer f.Close()
		out = f
	}
	w := bufio.NewWriter(out)

	wanted := make(map[string]bool, len(only))
	for _, name := range only {
		wanted[name] = true
	}
	written := 0
	err = timer.Measure("emit", func() error {
		for i := range res.Cases {
			cr := &res.Cases[i]
			if len(wanted) > 0 && !wanted[cr.Name] {
				continue
			}
			if cr.Plan == nil {
				if len(wanted) > 0 && !s.quiet {
					fmt.Fprintf(cmd.ErrOrStderr(), "case %q has no plan (%s)\n", cr.Name, planSkipReason(cr))
				}
				continue
			}
			if format == "msgpack" {
				if err := lower.Encode(w, cr.Plan); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(w, "# %s\n", cr.Name)
				if err := lower.Dump(w, cr.Plan); err != nil {
					return err
				}
			}
			written++
		}
		return w.Flush()
	})
	if err != nil {
		return err
	}
	if s.timings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	if written == 0 && !s.quiet {
		fmt.Fprintln(cmd.ErrOrStderr(), "no plans: no target case bound cleanly")
	}
	return nil
}

func planSkipReason(cr *scenario.CaseResult) string {
	switch {
	case cr.Kind != "target":
		return cr.Kind + " case"
	case len(cr.Got) > 0:
		return strings.Join(cr.Got, ", ")
	default:
		return "did not bind"
	}
}
