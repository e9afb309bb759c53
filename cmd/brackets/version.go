package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"brackets/internal/collexpr"
	"brackets/internal/version"
)

// buildInfo is what `brackets version --format json` prints.
type buildInfo struct {
	Tool       string `json:"tool"`
	Version    string `json:"version"`
	Major      uint64 `json:"major"`
	Minor      uint64 `json:"minor"`
	Patch      uint64 `json:"patch"`
	Prerelease string `json:"prerelease,omitempty"`
	Language   string `json:"language"`
	// CollectionsSince is the first language version with collection expressions.
	CollectionsSince string `json:"collections_since"`
	Commit           string `json:"commit,omitempty"`
	Built            string `json:"built,omitempty"`
}

var versionFormat string

func init() {
	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "pretty", "output format (pretty|short|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the brackets version and the language it checks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		switch strings.ToLower(versionFormat) {
		case "pretty":
			return writeBuildPretty(out, currentBuild())
		case "short":
			_, err := fmt.Fprintln(out, version.Short())
			return err
		case "json":
			return writeBuildJSON(out, currentBuild())
		}
		return fmt.Errorf("unsupported format %q (must be pretty, short or json)", versionFormat)
	},
}

func currentBuild() buildInfo {
	info := buildInfo{
		Tool:             "brackets",
		Version:          strings.TrimSpace(version.Version),
		Language:         version.Language,
		CollectionsSince: collexpr.MinLanguageVersion,
		Commit:           strings.TrimSpace(version.GitCommit),
		Built:            strings.TrimSpace(version.BuildDate),
	}
	if v, err := semver.NewVersion(info.Version); err == nil {
		info.Version = v.String()
		info.Major, info.Minor, info.Patch = v.Major(), v.Minor(), v.Patch()
		info.Prerelease = v.Prerelease()
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}

func writeBuildPretty(out io.Writer, info buildInfo) error {
	if _, err := fmt.Fprintf(out, "brackets %s (language %s, collection expressions since %s)\n",
		version.Banner(), info.Language, info.CollectionsSince); err != nil {
		return err
	}
	if info.Commit != "" {
		fmt.Fprintf(out, "commit %s\n", info.Commit)
	}
	if info.Built != "" {
		fmt.Fprintf(out, "built  %s\n", info.Built)
	}
	return nil
}

func writeBuildJSON(out io.Writer, info buildInfo) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}
