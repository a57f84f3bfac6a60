// Package validation checks packaged CloudFormation templates.
//
// Two checks are available:
//   - cfn-lint-go: Validate the template against the CloudFormation rules (library dependency)
//   - references: Every Ref, Fn::GetAtt and Fn::Sub target must be a resource or parameter
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"
	cfntemplate "github.com/lex00/cloudformation-schema-go/template"

	wetwire "github.com/lex00/wetwire-snssqs-go"
	"github.com/lex00/wetwire-snssqs-go/internal/template"
)

// CfnLintResult contains the result of running cfn-lint.
type CfnLintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// RunCfnLint runs cfn-lint-go on the given template file.
func RunCfnLint(templatePath string) (*CfnLintResult, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Template file not found: %s", templatePath)},
		}, nil
	}

	linter := lint.New(lint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Linter error: %v", err)},
		}, nil
	}

	return categorize(matches), nil
}

// LintTemplate writes tmpl to a temporary file and runs cfn-lint-go on it.
func LintTemplate(tmpl *wetwire.Template) (*CfnLintResult, error) {
	dir, err := os.MkdirTemp("", "wetwire-snssqs-lint-")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "template.json")
	if err := template.Save(tmpl, path, "json"); err != nil {
		return nil, fmt.Errorf("writing template: %w", err)
	}
	return RunCfnLint(path)
}

// categorize buckets matches by level. Warnings do not fail the result.
func categorize(matches []lint.Match) *CfnLintResult {
	result := &CfnLintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}

	for _, match := range matches {
		formatted := formatMatch(match)

		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	result.Passed = len(result.Errors) == 0
	return result
}

// formatMatch formats a cfn-lint-go match for display.
func formatMatch(match lint.Match) string {
	pathStr := ""
	if len(match.Location.Path) > 0 {
		parts := make([]string, len(match.Location.Path))
		for i, p := range match.Location.Path {
			parts[i] = fmt.Sprintf("%v", p)
		}
		pathStr = strings.Join(parts, "/")
	}

	if pathStr != "" {
		return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, pathStr)
	}
	return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
}

// DanglingReferences returns one message per reference whose target is
// neither a resource nor a parameter of tmpl. Pseudo parameters are allowed.
func DanglingReferences(tmpl *wetwire.Template) ([]string, error) {
	data, err := template.ToJSON(tmpl)
	if err != nil {
		return nil, err
	}
	parsed, err := cfntemplate.ParseTemplateContent(data, "template.json")
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}

	var dangling []string
	for source, targets := range parsed.ReferenceGraph {
		for _, target := range targets {
			if strings.HasPrefix(target, "AWS::") {
				continue
			}
			if _, ok := parsed.Resources[target]; ok {
				continue
			}
			if _, ok := parsed.Parameters[target]; ok {
				continue
			}
			dangling = append(dangling, fmt.Sprintf("%s references undefined resource or parameter %s", source, target))
		}
	}
	sort.Strings(dangling)
	return dangling, nil
}
