package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"brackets/internal/diag"
)

var explainCmd = &cobra.Command{
	Use:   "explain [CODE|NAME]...",
	Short: "Describe diagnostic codes",
	Long: `Describe diagnostic codes by ID (CEX3001) or name (NOT_CONSTRUCTIBLE).
Without arguments every known code is listed.`,
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type codeJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func runExplain(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	codes, err := lookupCodes(args)
	if err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case "json":
		out := make([]codeJSON, 0, len(codes))
		for _, c := range codes {
			out = append(out, codeJSON{ID: c.ID(), Name: c.Name(), Description: c.Title()})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "pretty":
		writeCodes(cmd.OutOrStdout(), codes)
		return nil
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
}

func lookupCodes(args []string) ([]diag.Code, error) {
	if len(args) == 0 {
		return diag.Codes(), nil
	}
	codes := make([]diag.Code, 0, len(args))
	for _, arg := range args {
		code, ok := diag.ParseCode(arg)
		if !ok {
			return nil, fmt.Errorf("unknown diagnostic %q", arg)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func writeCodes(w io.Writer, codes []diag.Code) {
	for _, c := range codes {
		name := ""
		if n := c.Name(); n != c.ID() {
			name = n
		}
		fmt.Fprintf(w, "%-8s %-32s %s\n", c.ID(), name, c.Title())
	}
}
