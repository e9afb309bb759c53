package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"brackets/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new brackets project",
	Long: `Initialize a new brackets project by creating a project manifest (brackets.toml)
and a sample scenario (scenarios/sample.toml). If [path|name] is omitted, initializes
the current directory. If a non-existing name is provided, a directory will be
created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

// runInit creates brackets.toml and a sample scenario in the target
// directory, refusing to overwrite an existing manifest.
func runInit(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	target := wd
	if len(args) == 1 && args[0] != "." {
		target = args[0]
		if !filepath.IsAbs(target) {
			target = filepath.Join(wd, target)
		}
	}

	// Ensure directory exists
	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err = os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	name := strings.TrimSpace(filepath.Base(target))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "brackets-project"
	}

	manifestPath := filepath.Join(target, project.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}
	if err := os.WriteFile(manifestPath, []byte(project.Template(name)), 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	samplePath := filepath.Join(target, "scenarios", "sample.toml")
	createdSample := false
	if _, err := os.Stat(samplePath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(samplePath), 0o755); err != nil {
			return fmt.Errorf("failed to create scenarios directory: %w", err)
		}
		if err := os.WriteFile(samplePath, []byte(sampleScenario), 0o600); err != nil {
			return fmt.Errorf("failed to write sample scenario: %w", err)
		}
		createdSample = true
	}

	rel := target
	if r, err := filepath.Rel(wd, target); err == nil {
		rel = r
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized brackets project in %s\n", rel)
	fmt.Fprintf(out, "  - %s\n", project.ManifestName)
	if createdSample {
		fmt.Fprintln(out, "  - scenarios/sample.toml")
	} else {
		fmt.Fprintln(out, "  - scenarios/sample.toml (existing)")
	}
	return nil
}

const sampleScenario = `# Each case binds one collection expression.
#   target = "T"   convert the literal to T
#   usage  = "var" use the literal where it needs a natural type
#   call   = "F([1, 2])" resolve an overloaded call
# expect lists the diagnostics by name; strategy and chosen are optional.

[locals]
xs = "int[]"

[[functions]]
name = "Sum"
params = ["ReadOnlySpan<int> values"]
result = "int"

[[functions]]
name = "Sum"
params = ["IEnumerable<int> values"]
result = "int"

[[cases]]
name = "array"
target = "int[]"
expr = "[1, 2, 3]"
strategy = "array"

[[cases]]
name = "list with spread"
target = "List<int>"
expr = "[0, ..xs]"
strategy = "initializer"

[[cases]]
name = "span beats interface"
call = "Sum([1, 2])"
chosen = "Sum(ReadOnlySpan<int>)"

[[cases]]
name = "no natural type"
usage = "var"
expr = "[1, 2]"
expect = ["NO_TARGET_TYPE"]
`
