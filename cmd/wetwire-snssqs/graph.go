package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-snssqs-go/internal/graph"
	"github.com/lex00/wetwire-snssqs-go/internal/schema"
)

type graphOptions struct {
	packageOptions
	outputFormat      string
	includeParameters bool
	clusterByType     bool
}

func newGraphCmd() *cobra.Command {
	var opts graphOptions

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate DOT graph of the packaged template",
		Long: `Generate a DOT or Mermaid format graph of the resource dependencies in
the packaged template.

The output can be rendered with Graphviz:
    wetwire-snssqs graph | dot -Tpng -o deps.png

Or used in GitHub markdown (Mermaid format):
    wetwire-snssqs graph -f mermaid

Examples:
    wetwire-snssqs graph --template compiled.json
    wetwire-snssqs graph -p              # include parameters
    wetwire-snssqs graph --cluster       # cluster by service
    wetwire-snssqs graph -f mermaid      # mermaid format`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.template, "template", "t", defaultTemplate, "Compiled CloudFormation template")
	cmd.Flags().StringVarP(&opts.outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&opts.includeParameters, "include-parameters", "p", false, "Include parameter nodes in the graph")
	cmd.Flags().BoolVar(&opts.clusterByType, "cluster", false, "Cluster resources by AWS service")

	return cmd
}

func runGraph(ctx context.Context, w io.Writer, opts graphOptions) error {
	var graphFormat graph.Format
	switch opts.outputFormat {
	case "dot":
		graphFormat = graph.FormatDOT
	case "mermaid":
		graphFormat = graph.FormatMermaid
	default:
		return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", opts.outputFormat)
	}

	opts.validationMode = string(schema.ModeOff)
	result, err := packageTemplate(ctx, opts.packageOptions)
	if err != nil {
		return err
	}

	gen := &graph.Generator{
		Format:            graphFormat,
		IncludeParameters: opts.includeParameters,
		ClusterByType:     opts.clusterByType,
	}
	return gen.Generate(result.after, w)
}
