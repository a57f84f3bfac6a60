package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	wetwire "github.com/lex00/wetwire-snssqs-go"
	"github.com/lex00/wetwire-snssqs-go/internal/resources"
	"github.com/lex00/wetwire-snssqs-go/internal/schema"
	"github.com/lex00/wetwire-snssqs-go/internal/template"
	"github.com/lex00/wetwire-snssqs-go/internal/validation"
)

type validateOptions struct {
	serviceFlags
	template     string
	outputFormat string
	lint         bool
	strict       bool
}

// newValidateCmd creates the "validate" subcommand for checking snsSqs events.
func newValidateCmd() *cobra.Command {
	var opts validateOptions

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate snsSqs events and the resources they produce",
		Long: `Validate checks every snsSqs event in the service configuration.

Checks performed:
  - Event schema: Each event matches the snsSqs JSON Schema
  - Configuration: Required fields, queue name length and topic ARNs
  - Resources: Generated resources match the CloudFormation property schemas
  - Lint (--lint): cfn-lint rules and reference checks on the packaged template

Examples:
    wetwire-snssqs validate
    wetwire-snssqs validate --format json
    wetwire-snssqs validate --template compiled.json --lint`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := runValidate(opts)
			if err != nil {
				return err
			}
			return outputValidateResult(cmd.OutOrStdout(), result, opts.outputFormat)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.template, "template", "t", "", "Compiled template to package before checking (default: empty template)")
	cmd.Flags().StringVarP(&opts.outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&opts.lint, "lint", false, "Run cfn-lint on the packaged template")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Report unknown resource properties as warnings")

	return cmd
}

// runValidate checks every snsSqs event and collects all failures instead
// of stopping at the first one.
func runValidate(opts validateOptions) (wetwire.ValidateResult, error) {
	var result wetwire.ValidateResult

	svc, err := opts.load()
	if err != nil {
		return result, err
	}
	p, err := opts.plugin(svc, false, schema.ModeError)
	if err != nil {
		return result, err
	}

	tmpl := template.New()
	if opts.template != "" {
		if tmpl, err = template.Load(opts.template); err != nil {
			return result, err
		}
	}

	var errs error
	bindings := p.Bindings()
	result.Events = len(bindings)
	for _, b := range bindings {
		if err := p.CheckSchema(b); err != nil {
			errs = multierr.Append(errs, err)
		}

		cfg, err := p.Config(b)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("function [%s]: %w", b.Function.Key, err))
			continue
		}
		if err := cfg.CheckTopicArn(); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("function [%s] event [%s]: %v", b.Function.Key, cfg.Name, err))
		}

		fn := resources.Function{
			Key:                    b.Function.Key,
			ProvisionedConcurrency: b.Function.HasProvisionedConcurrency(),
		}
		errs = multierr.Append(errs, resources.AddSnsSqsResources(tmpl, fn, cfg))
	}

	norm, err := template.Normalize(tmpl)
	if err != nil {
		return result, err
	}
	schemaResult := schema.ValidateTemplate(norm, schema.Options{Strict: opts.strict})
	for _, e := range schemaResult.Errors {
		errs = multierr.Append(errs, schemaError(e))
	}
	for _, e := range schemaResult.Warnings {
		result.Warnings = append(result.Warnings, schemaError(e).Error())
	}

	if opts.lint {
		findings, err := lintPackaged(tmpl, opts.template != "")
		if err != nil {
			return result, err
		}
		errs = multierr.Append(errs, findings.errs)
		result.Warnings = append(result.Warnings, findings.warnings...)
	}

	for _, e := range multierr.Errors(errs) {
		result.Errors = append(result.Errors, e.Error())
	}
	result.Success = len(result.Errors) == 0
	return result, nil
}

type lintFindings struct {
	errs     error
	warnings []string
}

// lintPackaged runs cfn-lint on tmpl. References are only checked against a
// full compiled template, since a bare one lacks the function resources.
func lintPackaged(tmpl *wetwire.Template, compiled bool) (lintFindings, error) {
	var findings lintFindings

	lintResult, err := validation.LintTemplate(tmpl)
	if err != nil {
		return findings, err
	}
	for _, e := range lintResult.Errors {
		findings.errs = multierr.Append(findings.errs, fmt.Errorf("cfn-lint: %s", e))
	}
	for _, w := range lintResult.Warnings {
		findings.warnings = append(findings.warnings, "cfn-lint: "+w)
	}

	if compiled {
		dangling, err := validation.DanglingReferences(tmpl)
		if err != nil {
			return findings, err
		}
		for _, d := range dangling {
			findings.errs = multierr.Append(findings.errs, errors.New(d))
		}
	}
	return findings, nil
}

func schemaError(e wetwire.SchemaError) error {
	if e.Property != "" {
		return fmt.Errorf("%s.%s: %s", e.Resource, e.Property, e.Message)
	}
	return fmt.Errorf("%s: %s", e.Resource, e.Message)
}

func outputValidateResult(w io.Writer, result wetwire.ValidateResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Success {
			fmt.Fprintf(w, "Validation passed: %d snsSqs events OK\n", result.Events)
			for _, warnMsg := range result.Warnings {
				fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
			}
			return nil
		}

		fmt.Fprintln(w, "Validation FAILED:")
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  ERROR: %s\n", errMsg)
		}
		for _, warnMsg := range result.Warnings {
			fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return errFailed
	}
	return nil
}
