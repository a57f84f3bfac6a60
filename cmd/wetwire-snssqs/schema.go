package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-snssqs-go/internal/event"
	"github.com/lex00/wetwire-snssqs-go/internal/schema"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the snsSqs event JSON Schema",
		Long: `Schema prints the JSON Schema the snsSqs function event is validated against.

Examples:
    wetwire-snssqs schema > snssqs.schema.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd.OutOrStdout())
		},
	}
}

func runSchema(w io.Writer) error {
	registry := schema.NewRegistry()
	if err := registry.DefineFunctionEvent(event.Provider, event.Type, event.Schema()); err != nil {
		return err
	}

	data, err := json.MarshalIndent(registry.Schema(event.Provider, event.Type), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}
