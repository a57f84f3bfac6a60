package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-snssqs-go"
	"github.com/lex00/wetwire-snssqs-go/internal/schema"
)

func newListCmd() *cobra.Command {
	var (
		flags        serviceFlags
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snsSqs events",
		Long: `List shows every snsSqs event in the service configuration with its
queue names and the logical IDs of the resources it adds.

Examples:
    wetwire-snssqs list
    wetwire-snssqs list --stage prod --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := runList(flags)
			if err != nil {
				return err
			}
			return outputListResult(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func runList(flags serviceFlags) (wetwire.ListResult, error) {
	result := wetwire.ListResult{Events: []wetwire.ListEvent{}}

	svc, err := flags.load()
	if err != nil {
		return result, err
	}
	p, err := flags.plugin(svc, false, schema.ModeOff)
	if err != nil {
		return result, err
	}

	for _, b := range p.Bindings() {
		cfg, err := p.Config(b)
		if err != nil {
			return result, fmt.Errorf("function [%s]: %w", b.Function.Key, err)
		}

		ev := wetwire.ListEvent{
			Function:   b.Function.Key,
			Name:       cfg.Name,
			LogicalIDs: cfg.LogicalIDs(),
		}
		if !cfg.OmitPhysicalId {
			ev.QueueName = cfg.QueueName()
			if cfg.DeadLetterQueueEnabled {
				ev.DeadLetterQueueName = cfg.DeadLetterQueueName()
			}
		}
		result.Events = append(result.Events, ev)
	}

	return result, nil
}

func outputListResult(w io.Writer, result wetwire.ListResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Events) == 0 {
			fmt.Fprintln(w, "No snsSqs events found.")
			return nil
		}

		fmt.Fprintf(w, "snsSqs events (%d):\n\n", len(result.Events))
		for _, ev := range result.Events {
			fmt.Fprintf(w, "  %s: %s\n", ev.Function, ev.Name)
			if ev.QueueName != "" {
				fmt.Fprintf(w, "    queue: %s\n", ev.QueueName)
			}
			if ev.DeadLetterQueueName != "" {
				fmt.Fprintf(w, "    dead-letter queue: %s\n", ev.DeadLetterQueueName)
			}
			fmt.Fprintf(w, "    resources: %s\n", strings.Join(ev.LogicalIDs, ", "))
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
