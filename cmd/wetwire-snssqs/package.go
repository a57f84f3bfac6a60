package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	wetwire "github.com/lex00/wetwire-snssqs-go"
	"github.com/lex00/wetwire-snssqs-go/internal/differ"
	"github.com/lex00/wetwire-snssqs-go/internal/logging"
	"github.com/lex00/wetwire-snssqs-go/internal/plugin"
	"github.com/lex00/wetwire-snssqs-go/internal/schema"
	"github.com/lex00/wetwire-snssqs-go/internal/service"
	"github.com/lex00/wetwire-snssqs-go/internal/template"
)

const (
	defaultConfig   = "serverless.yml"
	defaultTemplate = ".serverless/cloudformation-template-update-stack.json"
)

// serviceFlags locate and resolve the service configuration.
type serviceFlags struct {
	config string
	stage  string
	region string
}

func (f *serviceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.config, "config", "c", defaultConfig, "Service configuration file")
	cmd.Flags().StringVarP(&f.stage, "stage", "s", "", "Stage (overrides provider.stage)")
	cmd.Flags().StringVarP(&f.region, "region", "r", "", "Region (overrides provider.region)")
}

func (f *serviceFlags) load() (*service.Service, error) {
	svc, err := service.Load(f.config, service.Options{Stage: f.stage, Region: f.region})
	if err != nil {
		return nil, err
	}
	zap.L().Debug("loaded service",
		zap.String("service", svc.Name),
		zap.String("stage", svc.Provider.Stage),
		zap.Int("functions", len(svc.Functions)))
	return svc, nil
}

func (f *serviceFlags) plugin(svc *service.Service, verbose bool, mode schema.Mode) (*plugin.Plugin, error) {
	return plugin.New(svc, plugin.Options{
		Stage:          f.stage,
		Region:         f.region,
		Verbose:        verbose,
		ValidationMode: mode,
	}, nil)
}

type packageOptions struct {
	serviceFlags
	template       string
	output         string
	format         string
	validationMode string
	dryRun         bool
	verbose        bool
}

// newPackageCmd creates the "package" subcommand that adds snsSqs resources to a template.
func newPackageCmd(logOpts *logging.Options) *cobra.Command {
	var opts packageOptions

	cmd := &cobra.Command{
		Use:   "package",
		Short: "Add snsSqs resources to a compiled template",
		Long: `Package reads the service configuration and the compiled CloudFormation
template, then adds the resources of every snsSqs event.

The template is rewritten in place unless --output is given.

Examples:
    wetwire-snssqs package
    wetwire-snssqs package --template compiled.json --output packaged.yaml
    wetwire-snssqs package --stage prod --dry-run
    wetwire-snssqs package --dry-run --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.verbose = logOpts.Verbose
			return runPackage(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.template, "template", "t", defaultTemplate, "Compiled CloudFormation template")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (default: rewrite --template)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: json or yaml (default: from file extension)")
	cmd.Flags().StringVar(&opts.validationMode, "validation-mode", string(schema.ModeWarn), "Event schema validation: error, warn or off")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the changes instead of writing the template")

	return cmd
}

// packaged is the outcome of running the package hook on a template.
type packaged struct {
	before *wetwire.Template
	after  *wetwire.Template
	events int
}

// packageTemplate loads the service and template and runs the package hook.
func packageTemplate(ctx context.Context, opts packageOptions) (*packaged, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	mode, err := schema.ParseMode(opts.validationMode)
	if err != nil {
		return nil, err
	}

	svc, err := opts.load()
	if err != nil {
		return nil, err
	}

	p, err := opts.plugin(svc, opts.verbose, mode)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.Load(opts.template)
	if err != nil {
		return nil, err
	}
	before, err := template.Normalize(tmpl)
	if err != nil {
		return nil, err
	}

	if err := p.Run(ctx, plugin.HookPackageFinalize, tmpl); err != nil {
		return nil, err
	}

	return &packaged{before: before, after: tmpl, events: len(p.Bindings())}, nil
}

func runPackage(ctx context.Context, w io.Writer, opts packageOptions) error {
	result, err := packageTemplate(ctx, opts)
	if err != nil {
		return err
	}

	if opts.dryRun {
		return outputPackageResult(w, result, opts.format)
	}

	output := opts.output
	if output == "" {
		output = opts.template
	}
	if err := template.Save(result.after, output, opts.format); err != nil {
		return fmt.Errorf("writing template: %w", err)
	}

	added := len(result.after.Resources) - len(result.before.Resources)
	fmt.Fprintf(w, "Packaged %d snsSqs events (%d resources added), wrote %s\n", result.events, added, output)
	return nil
}

func outputPackageResult(w io.Writer, result *packaged, format string) error {
	diff, err := differ.Compare(result.before, result.after, differ.Options{})
	if err != nil {
		return err
	}

	pkgResult := wetwire.PackageResult{
		Success: true,
		Events:  result.events,
		Diff:    diff.Diff,
	}
	for _, entry := range diff.Diff.Added {
		pkgResult.Resources = append(pkgResult.Resources, entry.Resource)
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(pkgResult, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	case "", "yaml", "text":
		fmt.Fprintf(w, "%d snsSqs events\n", pkgResult.Events)
		writeDiff(w, diff)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	return nil
}

// sameFile reports whether two paths refer to the same file location.
func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}
