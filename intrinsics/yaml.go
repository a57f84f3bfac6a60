package intrinsics

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// shortTags maps YAML short-form tags to their long-form keys.
var shortTags = map[string]string{
	"!Ref":         "Ref",
	"!Condition":   "Condition",
	"!GetAtt":      "Fn::GetAtt",
	"!Sub":         "Fn::Sub",
	"!Join":        "Fn::Join",
	"!ImportValue": "Fn::ImportValue",
	"!Select":      "Fn::Select",
	"!Split":       "Fn::Split",
	"!FindInMap":   "Fn::FindInMap",
	"!If":          "Fn::If",
	"!Equals":      "Fn::Equals",
	"!Not":         "Fn::Not",
	"!And":         "Fn::And",
	"!Or":          "Fn::Or",
	"!Base64":      "Fn::Base64",
	"!GetAZs":      "Fn::GetAZs",
	"!Cidr":        "Fn::Cidr",
	"!Transform":   "Fn::Transform",
}

// UnmarshalYAML decodes a YAML document into plain Go values, rewriting
// short-form intrinsics such as !Ref and !GetAtt to their long form.
func UnmarshalYAML(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 {
		return nil, nil
	}
	return DecodeNode(&root)
}

// DecodeNode converts a parsed YAML node into plain Go values.
// Mappings become map[string]any and sequences []any.
func DecodeNode(n *yaml.Node) (any, error) {
	if key, ok := shortTags[n.Tag]; ok {
		return decodeShortForm(n, key)
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return DecodeNode(n.Content[0])
	case yaml.AliasNode:
		return DecodeNode(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.ShortTag() == "!!merge" {
				if err := mergeInto(m, v); err != nil {
					return nil, err
				}
				continue
			}
			val, err := DecodeNode(v)
			if err != nil {
				return nil, err
			}
			m[k.Value] = val
		}
		return m, nil
	case yaml.SequenceNode:
		s := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := DecodeNode(c)
			if err != nil {
				return nil, err
			}
			s = append(s, val)
		}
		return s, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
}

func mergeInto(m map[string]any, v *yaml.Node) error {
	val, err := DecodeNode(v)
	if err != nil {
		return err
	}
	switch src := val.(type) {
	case map[string]any:
		for k, x := range src {
			if _, exists := m[k]; !exists {
				m[k] = x
			}
		}
	case []any:
		for _, item := range src {
			if sm, ok := item.(map[string]any); ok {
				for k, x := range sm {
					if _, exists := m[k]; !exists {
						m[k] = x
					}
				}
			}
		}
	}
	return nil
}

func decodeShortForm(n *yaml.Node, key string) (any, error) {
	if n.Kind == yaml.ScalarNode {
		if key == "Fn::GetAtt" {
			name, attr, ok := strings.Cut(n.Value, ".")
			if !ok {
				return nil, fmt.Errorf("line %d: !GetAtt %q must be in the form Resource.Attribute", n.Line, n.Value)
			}
			return map[string]any{key: []any{name, attr}}, nil
		}
		if key == "Fn::GetAZs" && n.Value == "" {
			return map[string]any{key: ""}, nil
		}
		return map[string]any{key: n.Value}, nil
	}

	inner := *n
	inner.Tag = ""
	val, err := DecodeNode(&inner)
	if err != nil {
		return nil, err
	}
	return map[string]any{key: val}, nil
}
