// Package service loads a Serverless-style service configuration
// (serverless.yml) into the parts the snsSqs packager needs.
package service

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/lex00/wetwire-snssqs-go/intrinsics"
)

// DefaultStage is used when neither the command line nor the provider sets a stage.
const DefaultStage = "dev"

// Service is a loaded service configuration with variables resolved.
type Service struct {
	Name      string
	Provider  Provider
	Custom    map[string]any
	Functions []Function
	// Path is the file the service was loaded from, if any.
	Path string
}

// Provider is the provider block of a service.
type Provider struct {
	Name    string
	Stage   string
	Region  string
	Runtime string
}

// Function is one entry of the functions block.
type Function struct {
	Key                    string
	Name                   string
	Handler                string
	Role                   any
	ProvisionedConcurrency any
	Events                 []Event
}

// Event is one entry of a function's events list, e.g. {snsSqs: {...}}.
type Event struct {
	Type  string
	Value any
}

// Options are the command line options that feed variable resolution.
type Options struct {
	Stage  string
	Region string
	// LookupEnv resolves ${env:NAME}. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// HasProvisionedConcurrency reports whether the framework creates a
// provisioned concurrency alias for the function.
func (f Function) HasProvisionedConcurrency() bool {
	switch v := f.ProvisionedConcurrency.(type) {
	case nil:
		return false
	case bool:
		return v
	case int:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != "" && v != "0"
	default:
		return true
	}
}

// EventsOfType returns the values of the function's events of the given type, in order.
func (f Function) EventsOfType(eventType string) []any {
	var values []any
	for _, ev := range f.Events {
		if ev.Type == eventType {
			values = append(values, ev.Value)
		}
	}
	return values
}

// Load reads and parses a service configuration file.
func Load(path string, opts Options) (*Service, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading service configuration: %w", err)
	}
	svc, err := Parse(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	svc.Path = path
	return svc, nil
}

// Parse parses a service configuration. Short-form intrinsics are expanded
// and ${...} variables resolved; functions keep their declaration order.
func Parse(data []byte, opts Options) (*Service, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	decoded, err := intrinsics.DecodeNode(&root)
	if err != nil {
		return nil, err
	}
	raw, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("service configuration must be a mapping, got %T", decoded)
	}

	r := newResolver(raw, opts)
	resolvedAny, err := r.resolve(raw, 0)
	if err != nil {
		return nil, err
	}
	resolved := resolvedAny.(map[string]any)

	svc := &Service{
		Name:     serviceName(resolved["service"]),
		Provider: parseProvider(resolved["provider"]),
		Custom:   asMap(resolved["custom"]),
	}
	if svc.Name == "" {
		return nil, fmt.Errorf("service name is required")
	}
	svc.Provider.Stage = r.stage
	if opts.Region != "" {
		svc.Provider.Region = opts.Region
	}

	functions := asMap(resolved["functions"])
	for _, key := range functionOrder(&root, functions) {
		fn, err := parseFunction(key, functions[key])
		if err != nil {
			return nil, err
		}
		svc.Functions = append(svc.Functions, fn)
	}
	return svc, nil
}

func serviceName(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case map[string]any:
		name, _ := s["name"].(string)
		return name
	}
	return ""
}

func parseProvider(v any) Provider {
	switch p := v.(type) {
	case string:
		return Provider{Name: p}
	case map[string]any:
		var prov Provider
		prov.Name, _ = p["name"].(string)
		prov.Stage, _ = p["stage"].(string)
		prov.Region, _ = p["region"].(string)
		prov.Runtime, _ = p["runtime"].(string)
		return prov
	}
	return Provider{}
}

func parseFunction(key string, v any) (Function, error) {
	fn := Function{Key: key}
	m := asMap(v)
	if m == nil {
		if v != nil {
			return fn, fmt.Errorf("function [%s] must be a mapping, got %T", key, v)
		}
		return fn, nil
	}

	fn.Name, _ = m["name"].(string)
	fn.Handler, _ = m["handler"].(string)
	fn.Role = m["role"]
	fn.ProvisionedConcurrency = m["provisionedConcurrency"]

	events, _ := m["events"].([]any)
	for i, e := range events {
		switch ev := e.(type) {
		case map[string]any:
			if len(ev) != 1 {
				return fn, fmt.Errorf("function [%s] event %d must have exactly one type, got %d", key, i, len(ev))
			}
			for typ, val := range ev {
				fn.Events = append(fn.Events, Event{Type: typ, Value: val})
			}
		case string:
			fn.Events = append(fn.Events, Event{Type: ev})
		default:
			return fn, fmt.Errorf("function [%s] event %d has unexpected type %T", key, i, e)
		}
	}
	return fn, nil
}

// functionOrder returns the function keys in declaration order, falling back
// to sorted order when the functions block is not a literal mapping.
func functionOrder(root *yaml.Node, functions map[string]any) []string {
	var keys []string
	seen := make(map[string]bool)
	if node := mappingValue(root, "functions"); node != nil && node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			k := node.Content[i].Value
			if _, ok := functions[k]; ok && !seen[k] {
				keys = append(keys, k)
				seen[k] = true
			}
		}
	}

	var rest []string
	for k := range functions {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
