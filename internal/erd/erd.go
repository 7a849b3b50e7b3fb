// Package erd implements the graph command's rendering of the foreign-key
// dependency graph as Mermaid, Graphviz dot, or JSON.
package erd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
	"github.com/sqlsplitter/sqlsplitter/internal/graph"
)

// Format names a supported output renderer.
type Format string

const (
	Mermaid Format = "mermaid"
	Dot     Format = "dot"
	JSON    Format = "json"
)

// Edge is one FK relationship, table -> referenced parent.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Node is one table with its classified role, for JSON/template rendering.
type Node struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// Document is the full renderable graph.
type Document struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// BuildDocument walks g and schema into a Document, attaching tenant roles
// when roles is non-nil.
func BuildDocument(g *graph.Graph, schema *ddl.Schema, roles map[string]graph.TenantRole) Document {
	var doc Document
	for _, n := range g.Nodes() {
		node := Node{Name: n}
		if roles != nil {
			node.Role = roles[n].String()
		}
		doc.Nodes = append(doc.Nodes, node)
	}
	for _, t := range schema.Tables() {
		from := strings.ToLower(t.Name)
		for _, fk := range t.ForeignKeys {
			doc.Edges = append(doc.Edges, Edge{From: from, To: strings.ToLower(fk.ToTable)})
		}
	}
	sort.Slice(doc.Edges, func(i, j int) bool {
		if doc.Edges[i].From != doc.Edges[j].From {
			return doc.Edges[i].From < doc.Edges[j].From
		}
		return doc.Edges[i].To < doc.Edges[j].To
	})
	return doc
}

var mermaidTmpl = template.Must(template.New("mermaid").Parse(
	`erDiagram
{{- range .Edges}}
    {{.To}} ||--o{ {{.From}} : references
{{- end}}
`))

var dotTmpl = template.Must(template.New("dot").Parse(
	`digraph schema {
  rankdir=LR;
{{- range .Nodes}}
  "{{.Name}}"{{if .Role}} [label="{{.Name}}\n({{.Role}})"]{{end}};
{{- end}}
{{- range .Edges}}
  "{{.From}}" -> "{{.To}}";
{{- end}}
}
`))

// Render produces the requested format's textual representation of doc.
func Render(doc Document, format Format) ([]byte, error) {
	switch format {
	case Mermaid:
		var buf bytes.Buffer
		if err := mermaidTmpl.Execute(&buf, doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case Dot:
		var buf bytes.Buffer
		if err := dotTmpl.Execute(&buf, doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case JSON:
		return json.MarshalIndent(doc, "", "  ")
	default:
		return nil, fmt.Errorf("unknown graph render format %q", format)
	}
}
