// Package template loads, edits and serializes compiled CloudFormation templates.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	wetwire "github.com/lex00/wetwire-snssqs-go"
	"github.com/lex00/wetwire-snssqs-go/intrinsics"
)

// FormatVersion is the template format version set on new templates.
const FormatVersion = "2010-09-09"

// ExecutionRoleLogicalID is the logical ID of the default Lambda execution role.
const ExecutionRoleLogicalID = "IamRoleLambdaExecution"

// ErrDuplicateLogicalID is returned when a resource is added under an existing logical ID.
var ErrDuplicateLogicalID = errors.New("duplicate logical ID")

// New returns an empty template.
func New() *wetwire.Template {
	return &wetwire.Template{
		AWSTemplateFormatVersion: FormatVersion,
		Resources:                make(map[string]wetwire.ResourceDef),
	}
}

// Load reads a template from a JSON or YAML file.
func Load(path string) (*wetwire.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a template, trying JSON first and then YAML.
// YAML short-form intrinsics are expanded to their long form.
func Parse(data []byte) (*wetwire.Template, error) {
	var t wetwire.Template
	jsonErr := json.Unmarshal(data, &t)
	if jsonErr != nil {
		doc, err := intrinsics.UnmarshalYAML(data)
		if err != nil {
			return nil, fmt.Errorf("not valid JSON (%v) or YAML: %w", jsonErr, err)
		}
		normalized, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		t = wetwire.Template{}
		if err := json.Unmarshal(normalized, &t); err != nil {
			return nil, fmt.Errorf("decoding YAML template: %w", err)
		}
	}
	if t.Resources == nil {
		t.Resources = make(map[string]wetwire.ResourceDef)
	}
	return &t, nil
}

// ToJSON serializes the template to JSON.
func ToJSON(t *wetwire.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
// Values are normalized through JSON first so intrinsic types render in long form.
func ToYAML(t *wetwire.Template) ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

// Normalize returns a copy of t where every property value is a plain
// JSON value (maps, slices, strings, float64, bool).
func Normalize(t *wetwire.Template) (*wetwire.Template, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// FormatFor picks the output format for a path: "yaml" for .yml/.yaml, "json" otherwise.
func FormatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return "yaml"
	default:
		return "json"
	}
}

// Marshal serializes t in the given format ("json" or "yaml").
func Marshal(t *wetwire.Template, format string) ([]byte, error) {
	switch format {
	case "json", "":
		return ToJSON(t)
	case "yaml":
		return ToYAML(t)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// Save writes t to path. An empty format is derived from the file extension.
func Save(t *wetwire.Template, path, format string) error {
	if format == "" {
		format = FormatFor(path)
	}
	data, err := Marshal(t, format)
	if err != nil {
		return err
	}
	if format == "json" {
		data = append(data, '\n')
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing template: %w", err)
	}
	return nil
}

// AddResource adds def under id, failing if the logical ID is already taken.
func AddResource(t *wetwire.Template, id string, def wetwire.ResourceDef) error {
	if t.Resources == nil {
		t.Resources = make(map[string]wetwire.ResourceDef)
	}
	if _, exists := t.Resources[id]; exists {
		return fmt.Errorf("%w: Generated logical ID [%s] already exists in resources definition. Ensure that the snsSqs event definition has a unique name property",
			ErrDuplicateLogicalID, id)
	}
	t.Resources[id] = def
	return nil
}

// ExecutionRoleStatements returns the statements of the first inline policy of
// the default execution role. ok is false when the role is absent, which is the
// case for services that configure their own role.
func ExecutionRoleStatements(t *wetwire.Template) (stmts []any, ok bool, err error) {
	doc, ok, err := executionRolePolicyDocument(t)
	if err != nil || !ok {
		return nil, ok, err
	}
	stmts, _ = doc["Statement"].([]any)
	return stmts, true, nil
}

// AppendExecutionRoleStatement appends stmt to the first inline policy of the
// default execution role. It reports false without error when the role is absent.
func AppendExecutionRoleStatement(t *wetwire.Template, stmt any) (bool, error) {
	doc, ok, err := executionRolePolicyDocument(t)
	if err != nil || !ok {
		return false, err
	}
	stmts, _ := doc["Statement"].([]any)
	doc["Statement"] = append(stmts, stmt)
	return true, nil
}

func executionRolePolicyDocument(t *wetwire.Template) (map[string]any, bool, error) {
	role, ok := t.Resources[ExecutionRoleLogicalID]
	if !ok {
		return nil, false, nil
	}
	policies, ok := role.Properties["Policies"].([]any)
	if !ok || len(policies) == 0 {
		return nil, false, fmt.Errorf("%s has no inline policies", ExecutionRoleLogicalID)
	}
	policy, ok := policies[0].(map[string]any)
	if !ok {
		return nil, false, fmt.Errorf("%s: unexpected policy type %T", ExecutionRoleLogicalID, policies[0])
	}
	doc, ok := policy["PolicyDocument"].(map[string]any)
	if !ok {
		return nil, false, fmt.Errorf("%s: first policy has no PolicyDocument", ExecutionRoleLogicalID)
	}
	return doc, true, nil
}

// ResourceIDs returns the sorted logical IDs of resources of the given type,
// or all logical IDs when resourceType is empty.
func ResourceIDs(t *wetwire.Template, resourceType string) []string {
	var ids []string
	for id, r := range t.Resources {
		if resourceType == "" || r.Type == resourceType {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
