package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-snssqs-go/internal/differ"
)

// newDiffCmd creates the "diff" subcommand for comparing templates.
func newDiffCmd() *cobra.Command {
	var (
		outputFormat string
		ignoreOrder  bool
	)

	cmd := &cobra.Command{
		Use:   "diff <template1> <template2>",
		Short: "Compare two CloudFormation templates",
		Long: `Diff compares two templates resource by resource and reports
added, removed and modified resources with the changed property paths.

Examples:
    wetwire-snssqs diff compiled.json packaged.json
    wetwire-snssqs diff compiled.json packaged.yaml --format json
    wetwire-snssqs diff a.json b.json --ignore-order`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.OutOrStdout(), args[0], args[1], outputFormat, ignoreOrder)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore list element order")

	return cmd
}

func runDiff(w io.Writer, file1, file2, format string, ignoreOrder bool) error {
	result, err := differ.CompareFiles(file1, file2, differ.Options{IgnoreOrder: ignoreOrder})
	if err != nil {
		return err
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(struct {
			Diff    any `json:"diff"`
			Summary any `json:"summary"`
		}{result.Diff, result.Summary}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	case "text":
		writeDiff(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	return nil
}

// writeDiff prints a diff as text, one resource per line.
func writeDiff(w io.Writer, result *differ.Result) {
	if result.Summary.Total == 0 {
		fmt.Fprintln(w, "No changes.")
		return
	}

	for _, e := range result.Diff.Added {
		fmt.Fprintf(w, "+ %s (%s)\n", e.Resource, e.Type)
	}
	for _, e := range result.Diff.Removed {
		fmt.Fprintf(w, "- %s (%s)\n", e.Resource, e.Type)
	}
	for _, e := range result.Diff.Modified {
		fmt.Fprintf(w, "~ %s (%s)\n", e.Resource, e.Type)
		for _, change := range e.Changes {
			fmt.Fprintf(w, "    %s\n", change)
		}
	}

	s := result.Summary
	fmt.Fprintf(w, "\n%d added, %d removed, %d modified\n", s.Added, s.Removed, s.Modified)
}
