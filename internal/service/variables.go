package service

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// maxDepth bounds nested and self-referencing variable resolution.
const maxDepth = 20

// varPattern matches an innermost ${...} reference.
var varPattern = regexp.MustCompile(`\$\{([^${}]+)\}`)

type resolver struct {
	root      map[string]any
	opts      map[string]string
	stage     string
	lookupEnv func(string) (string, bool)
}

func newResolver(root map[string]any, opts Options) *resolver {
	r := &resolver{
		root:      root,
		opts:      map[string]string{},
		lookupEnv: opts.LookupEnv,
	}
	if r.lookupEnv == nil {
		r.lookupEnv = os.LookupEnv
	}
	if opts.Stage != "" {
		r.opts["stage"] = opts.Stage
	}
	if opts.Region != "" {
		r.opts["region"] = opts.Region
	}

	// ${sls:stage} inside provider.stage itself falls back to the default.
	r.stage = DefaultStage
	switch {
	case opts.Stage != "":
		r.stage = opts.Stage
	default:
		if prov, ok := root["provider"].(map[string]any); ok {
			if v, err := r.resolve(prov["stage"], 0); err == nil {
				if s, ok := v.(string); ok && s != "" {
					r.stage = s
				}
			}
		}
	}
	return r
}

// resolve walks v and resolves every variable reference in its strings.
func (r *resolver) resolve(v any, depth int) (any, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("variable resolution exceeded depth %d (circular reference?)", maxDepth)
	}
	switch x := v.(type) {
	case string:
		return r.resolveString(x, depth)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			resolved, err := r.resolve(val, depth)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			resolved, err := r.resolve(val, depth)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

// resolveString resolves the references in s. A string that is exactly one
// reference takes the type of the referenced value.
func (r *resolver) resolveString(s string, depth int) (any, error) {
	for i := 0; i < maxDepth; i++ {
		if loc := varPattern.FindStringIndex(s); loc != nil && loc[0] == 0 && loc[1] == len(s) {
			val, ok, err := r.lookup(s[2:len(s)-1], depth)
			if err != nil {
				return nil, err
			}
			if ok {
				return val, nil
			}
			return s, nil
		}

		var lookupErr error
		replaced := false
		out := varPattern.ReplaceAllStringFunc(s, func(match string) string {
			if lookupErr != nil {
				return match
			}
			val, ok, err := r.lookup(match[2:len(match)-1], depth)
			if err != nil {
				lookupErr = err
				return match
			}
			if !ok {
				return match
			}
			replaced = true
			return stringify(val)
		})
		if lookupErr != nil {
			return nil, lookupErr
		}
		if !replaced {
			return out, nil
		}
		s = out
	}
	return nil, fmt.Errorf("variable resolution exceeded depth %d in %q", maxDepth, s)
}

// lookup resolves one reference body such as "opt:stage, 'dev'". ok is false
// for sources this resolver does not handle, which are left in place.
func (r *resolver) lookup(expr string, depth int) (any, bool, error) {
	parts := splitFallbacks(expr)
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if unquoted, ok := unquote(part); ok {
			return unquoted, true, nil
		}
		source, _, hasSource := strings.Cut(part, ":")
		if hasSource && isSource(source) {
			val, found, err := r.source(part, depth)
			if err != nil {
				return nil, false, err
			}
			if found && val != nil {
				return val, true, nil
			}
			continue
		}
		if i == 0 {
			return nil, false, nil
		}
		return literal(part), true, nil
	}
	return nil, false, fmt.Errorf("cannot resolve variable ${%s}", expr)
}

func isSource(s string) bool {
	switch s {
	case "self", "opt", "sls", "env":
		return true
	}
	return false
}

func (r *resolver) source(ref string, depth int) (any, bool, error) {
	source, address, _ := strings.Cut(ref, ":")
	address = strings.TrimSpace(address)

	switch source {
	case "self":
		val, ok := lookupPath(r.root, address)
		if !ok {
			return nil, false, nil
		}
		resolved, err := r.resolve(val, depth+1)
		if err != nil {
			return nil, false, err
		}
		return resolved, true, nil
	case "opt":
		val, ok := r.opts[address]
		return val, ok, nil
	case "sls":
		if address == "stage" {
			return r.stage, true, nil
		}
		return nil, false, nil
	case "env":
		val, ok := r.lookupEnv(address)
		if !ok {
			return nil, false, nil
		}
		return val, true, nil
	}
	return nil, false, nil
}

func lookupPath(root map[string]any, path string) (any, bool) {
	if path == "" {
		return root, true
	}
	var cur any = root
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// splitFallbacks splits a reference body on commas outside quotes.
func splitFallbacks(expr string) []string {
	var parts []string
	var quote byte
	start := 0
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ',':
			parts = append(parts, expr[start:i])
			start = i + 1
		}
	}
	return append(parts, expr[start:])
}

func unquote(s string) (string, bool) {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], true
	}
	return "", false
}

func literal(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
