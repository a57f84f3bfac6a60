// Package graph generates DOT and Mermaid format dependency graphs from template resources.
package graph

import (
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	wetwire "github.com/lex00/wetwire-snssqs-go"
	"github.com/lex00/wetwire-snssqs-go/internal/template"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator creates dependency graphs from template resources.
type Generator struct {
	// IncludeParameters includes parameter references in the graph.
	IncludeParameters bool

	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByType groups resources by AWS service.
	ClusterByType bool
}

// Dependency is a reference from one resource to another resource or parameter.
type Dependency struct {
	Target string
	GetAtt bool
}

var subRef = regexp.MustCompile(`\$\{([A-Za-z0-9]+)(\.[A-Za-z0-9.]+)?\}`)

// Generate creates a dependency graph and writes it to w.
func (g *Generator) Generate(tmpl *wetwire.Template, w io.Writer) error {
	graph, err := g.buildGraph(tmpl)
	if err != nil {
		return err
	}

	format := g.Format
	if format == "" {
		format = FormatDOT
	}

	var output string
	if format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err = w.Write([]byte(output))
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(tmpl *wetwire.Template) (string, error) {
	var sb strings.Builder
	if err := g.Generate(tmpl, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Dependencies returns the references of every resource, keyed by logical ID.
// Targets are deduplicated; a target reached through Fn::GetAtt is marked so.
func Dependencies(tmpl *wetwire.Template) (map[string][]Dependency, error) {
	norm, err := template.Normalize(tmpl)
	if err != nil {
		return nil, err
	}

	deps := make(map[string][]Dependency, len(norm.Resources))
	for name, res := range norm.Resources {
		found := make(map[string]bool)
		collect(res.Properties, found)
		for _, d := range dependsOnList(res.DependsOn) {
			if _, ok := found[d]; !ok {
				found[d] = false
			}
		}
		delete(found, name)

		targets := make([]string, 0, len(found))
		for target := range found {
			targets = append(targets, target)
		}
		sort.Strings(targets)
		for _, target := range targets {
			deps[name] = append(deps[name], Dependency{Target: target, GetAtt: found[target]})
		}
	}
	return deps, nil
}

// collect records Ref, Fn::GetAtt and Fn::Sub targets found in v. The map
// value is true when the target was reached through Fn::GetAtt.
func collect(v any, found map[string]bool) {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 1 {
			if ref, ok := val["Ref"].(string); ok {
				mark(found, ref, false)
				return
			}
			if getAtt, ok := val["Fn::GetAtt"]; ok {
				if target := getAttTarget(getAtt); target != "" {
					mark(found, target, true)
				}
				return
			}
			if sub, ok := val["Fn::Sub"]; ok {
				collectSub(sub, found)
				return
			}
		}
		for _, item := range val {
			collect(item, found)
		}
	case []any:
		for _, item := range val {
			collect(item, found)
		}
	}
}

func collectSub(sub any, found map[string]bool) {
	var (
		body string
		vars map[string]any
	)
	switch s := sub.(type) {
	case string:
		body = s
	case []any:
		if len(s) > 0 {
			body, _ = s[0].(string)
		}
		if len(s) > 1 {
			vars, _ = s[1].(map[string]any)
			collect(s[1], found)
		}
	}
	for _, m := range subRef.FindAllStringSubmatch(body, -1) {
		if _, local := vars[m[1]]; local {
			continue
		}
		mark(found, m[1], m[2] != "")
	}
}

func getAttTarget(v any) string {
	switch g := v.(type) {
	case []any:
		if len(g) > 0 {
			s, _ := g[0].(string)
			return s
		}
	case string:
		before, _, _ := strings.Cut(g, ".")
		return before
	}
	return ""
}

func mark(found map[string]bool, target string, getAtt bool) {
	if strings.HasPrefix(target, "AWS::") {
		return
	}
	found[target] = found[target] || getAtt
}

func dependsOnList(v any) []string {
	switch d := v.(type) {
	case string:
		return []string{d}
	case []any:
		var out []string
		for _, item := range d {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// buildGraph creates the dot.Graph structure from template resources.
func (g *Generator) buildGraph(tmpl *wetwire.Template) (*dot.Graph, error) {
	deps, err := Dependencies(tmpl)
	if err != nil {
		return nil, err
	}

	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})

	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	names := make([]string, 0, len(tmpl.Resources))
	for name := range tmpl.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	if g.ClusterByType {
		g.addClusteredNodes(graph, tmpl, names)
	} else {
		g.addNodes(graph, tmpl, names)
	}

	if g.IncludeParameters {
		params := make([]string, 0, len(tmpl.Parameters))
		for name := range tmpl.Parameters {
			params = append(params, name)
		}
		sort.Strings(params)
		for _, name := range params {
			n := graph.Node(name)
			n.Attr("shape", "ellipse")
			n.Attr("style", "dashed")
			n.Label(name)
		}
	}

	for _, name := range names {
		for _, dep := range deps[name] {
			_, isParam := tmpl.Parameters[dep.Target]
			if isParam && !g.IncludeParameters {
				continue
			}
			_, isResource := tmpl.Resources[dep.Target]
			if !isResource && !isParam {
				continue
			}

			e := graph.Edge(graph.Node(name), graph.Node(dep.Target))
			if dep.GetAtt {
				e.Attr("color", "blue")
			}
		}
	}

	return graph, nil
}

// addNodes adds resource nodes without clustering.
func (g *Generator) addNodes(graph *dot.Graph, tmpl *wetwire.Template, names []string) {
	for _, name := range names {
		graph.Node(name).Label(nodeLabel(name, tmpl.Resources[name].Type))
	}
}

// addClusteredNodes adds resource nodes grouped by AWS service.
func (g *Generator) addClusteredNodes(graph *dot.Graph, tmpl *wetwire.Template, names []string) {
	serviceResources := make(map[string][]string)
	var services []string
	for _, name := range names {
		service := extractService(tmpl.Resources[name].Type)
		if _, seen := serviceResources[service]; !seen {
			services = append(services, service)
		}
		serviceResources[service] = append(serviceResources[service], name)
	}
	sort.Strings(services)

	for _, service := range services {
		resNames := serviceResources[service]
		if len(resNames) > 1 {
			cluster := graph.Subgraph("cluster_"+service, dot.ClusterOption{})
			cluster.Attr("label", service)
			cluster.Attr("style", "rounded")
			cluster.Attr("bgcolor", "lightyellow")

			for _, name := range resNames {
				cluster.Node(name).Label(nodeLabel(name, tmpl.Resources[name].Type))
			}
			continue
		}
		for _, name := range resNames {
			graph.Node(name).Label(nodeLabel(name, tmpl.Resources[name].Type))
		}
	}
}

func nodeLabel(name, cfType string) string {
	return name + "\\n[" + cfType + "]"
}

// extractService extracts the service name from a CloudFormation type.
// e.g., "AWS::SQS::Queue" -> "SQS"
func extractService(cfType string) string {
	parts := strings.Split(cfType, "::")
	if len(parts) == 3 {
		return strings.ToUpper(parts[1])
	}
	return "Other"
}
