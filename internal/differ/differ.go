// Package differ provides semantic comparison of CloudFormation templates.
package differ

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"

	wetwire "github.com/lex00/wetwire-snssqs-go"
	"github.com/lex00/wetwire-snssqs-go/internal/template"
	"github.com/lex00/wetwire-snssqs-go/intrinsics"
)

// Options configures the differ.
type Options struct {
	// IgnoreOrder ignores array element order in comparisons
	IgnoreOrder bool
}

// Result contains the difference between two templates.
type Result struct {
	Diff    wetwire.TemplateDiff
	Summary wetwire.DiffSummary
}

// Compare compares two CloudFormation templates and returns differences.
// Both templates are normalized first so typed intrinsics compare equal to
// their parsed map form.
func Compare(before, after *wetwire.Template, opts Options) (*Result, error) {
	t1, err := template.Normalize(before)
	if err != nil {
		return nil, err
	}
	t2, err := template.Normalize(after)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	res1, res2 := t1.Resources, t2.Resources

	for name, def := range res2 {
		if _, exists := res1[name]; !exists {
			result.Diff.Added = append(result.Diff.Added, wetwire.DiffEntry{
				Resource: name,
				Type:     def.Type,
			})
		}
	}

	for name, def := range res1 {
		if _, exists := res2[name]; !exists {
			result.Diff.Removed = append(result.Diff.Removed, wetwire.DiffEntry{
				Resource: name,
				Type:     def.Type,
			})
		}
	}

	for name, def1 := range res1 {
		def2, exists := res2[name]
		if !exists {
			continue
		}
		if changes := compareResources(def1, def2, opts); len(changes) > 0 {
			result.Diff.Modified = append(result.Diff.Modified, wetwire.DiffEntry{
				Resource: name,
				Type:     def1.Type,
				Changes:  changes,
			})
		}
	}

	sortEntries(result.Diff.Added)
	sortEntries(result.Diff.Removed)
	sortEntries(result.Diff.Modified)

	result.Summary = Summarize(result.Diff)
	return result, nil
}

// CompareFiles compares two template files.
func CompareFiles(file1, file2 string, opts Options) (*Result, error) {
	t1, err := template.Load(file1)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file1, err)
	}

	t2, err := template.Load(file2)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file2, err)
	}

	return Compare(t1, t2, opts)
}

// Summarize counts the entries of diff.
func Summarize(diff wetwire.TemplateDiff) wetwire.DiffSummary {
	s := wetwire.DiffSummary{
		Added:    len(diff.Added),
		Removed:  len(diff.Removed),
		Modified: len(diff.Modified),
	}
	s.Total = s.Added + s.Removed + s.Modified
	return s
}

// compareResources compares two resource definitions and returns changes.
func compareResources(def1, def2 wetwire.ResourceDef, opts Options) []string {
	var changes []string

	if def1.Type != def2.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s → %s", def1.Type, def2.Type))
	}

	changes = append(changes, compareValues("Properties", def1.Properties, def2.Properties, opts)...)

	if !deepEqual(dependsOn(def1.DependsOn), dependsOn(def2.DependsOn), Options{IgnoreOrder: true}) {
		changes = append(changes, "DependsOn changed")
	}
	if def1.Condition != def2.Condition {
		changes = append(changes, "Condition changed")
	}
	if def1.DeletionPolicy != def2.DeletionPolicy {
		changes = append(changes, "DeletionPolicy changed")
	}

	return changes
}

// compareValues walks nested maps and reports changes by property path.
// Anything that is not a map on both sides is compared as a whole.
func compareValues(path string, v1, v2 any, opts Options) []string {
	m1, ok1 := v1.(map[string]any)
	m2, ok2 := v2.(map[string]any)
	if !ok1 || !ok2 || intrinsics.IsIntrinsic(v1) || intrinsics.IsIntrinsic(v2) {
		if deepEqual(v1, v2, opts) {
			return nil
		}
		return []string{path + " modified"}
	}

	var changes []string
	for key, val2 := range m2 {
		sub := path + "." + key
		if val1, exists := m1[key]; exists {
			changes = append(changes, compareValues(sub, val1, val2, opts)...)
		} else {
			changes = append(changes, sub+" added")
		}
	}
	for key := range m1 {
		if _, exists := m2[key]; !exists {
			changes = append(changes, path+"."+key+" removed")
		}
	}

	sort.Strings(changes)
	return changes
}

// dependsOn accepts the string or list forms of DependsOn.
func dependsOn(v any) []any {
	switch d := v.(type) {
	case nil:
		return nil
	case string:
		return []any{d}
	case []any:
		return d
	case []string:
		out := make([]any, len(d))
		for i, s := range d {
			out[i] = s
		}
		return out
	default:
		return []any{d}
	}
}

// deepEqual compares two values deeply, optionally ignoring order.
func deepEqual(a, b any, opts Options) bool {
	if opts.IgnoreOrder {
		a = normalizeValue(a)
		b = normalizeValue(b)
	}
	return reflect.DeepEqual(a, b)
}

// normalizeValue sorts every list by the JSON encoding of its elements.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []any:
		result := make([]any, len(val))
		keys := make(map[int]string, len(val))
		for i, item := range val {
			result[i] = normalizeValue(item)
			keys[i] = sortKey(result[i])
		}
		idx := make([]int, len(result))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(i, j int) bool { return keys[idx[i]] < keys[idx[j]] })
		sorted := make([]any, len(result))
		for i, j := range idx {
			sorted[i] = result[j]
		}
		return sorted
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = normalizeValue(v)
		}
		return result
	default:
		return v
	}
}

func sortKey(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return strconv.Quote(fmt.Sprint(v))
	}
	return string(b)
}

// sortEntries sorts diff entries by resource name.
func sortEntries(entries []wetwire.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Resource < entries[j].Resource
	})
}
