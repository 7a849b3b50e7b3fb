// Package graph implements C7: the foreign-key dependency graph over a
// parsed Schema, used to order tables for split/merge, detect cycles, and
// classify tables for sharding.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
)

// Graph is the directed FK dependency graph: an edge table -> parent means
// table has a foreign key referencing parent.
type Graph struct {
	schema   *ddl.Schema
	edges    map[string][]string // table -> parents it references
	rev      map[string][]string // table -> children that reference it
	allNodes []string            // every table name, first-seen + referenced-only, deterministic order
}

// New builds a Graph from schema. Tables referenced by a FOREIGN KEY but
// never defined via CREATE TABLE still appear as nodes, since spec.md §4.7
// requires the graph to be total over every name mentioned.
func New(schema *ddl.Schema) *Graph {
	g := &Graph{
		schema: schema,
		edges:  make(map[string][]string),
		rev:    make(map[string][]string),
	}
	seen := make(map[string]bool)
	add := func(name string) {
		key := strings.ToLower(name)
		if !seen[key] {
			seen[key] = true
			g.allNodes = append(g.allNodes, key)
		}
	}
	for _, t := range schema.Tables() {
		add(t.Name)
	}
	for _, t := range schema.Tables() {
		from := strings.ToLower(t.Name)
		for _, fk := range t.ForeignKeys {
			to := strings.ToLower(fk.ToTable)
			add(to)
			g.edges[from] = append(g.edges[from], to)
			g.rev[to] = append(g.rev[to], from)
		}
	}
	sort.Strings(g.allNodes)
	for k := range g.edges {
		sortUnique(g.edges[k])
	}
	for k := range g.rev {
		sortUnique(g.rev[k])
	}
	return g
}

func sortUnique(s []string) {
	sort.Strings(s)
}

// Nodes returns every table name the graph knows about, lowercase and
// sorted.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.allNodes))
	copy(out, g.allNodes)
	return out
}

// Parents returns the tables table directly depends on (its FK targets).
func (g *Graph) Parents(table string) []string {
	return append([]string(nil), g.edges[strings.ToLower(table)]...)
}

// Children returns the tables that directly reference table via FK.
func (g *Graph) Children(table string) []string {
	return append([]string(nil), g.rev[strings.ToLower(table)]...)
}

// CycleError reports that the graph is not a DAG; Cycle lists one
// offending cycle's member tables in traversal order.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("foreign key cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// color marks DFS visitation state for cycle-aware topological sort.
type color int

const (
	white color = iota
	gray
	black
)

// TopologicalOrder returns tables ordered so that every table appears
// after all tables it depends on (parent-first load order). Per spec.md
// §4.7's cycle-handling rule, a cycle is never fatal: every SCC (as found
// by SCCs, which already covers self-referencing singletons) collapses
// into one scheduling unit ordered internally by the lowercase tie-break,
// and those units are then ordered parent-first among themselves. The
// condensation of a graph's SCCs is always acyclic, so this never fails;
// the error return exists only as a defensive backstop if that invariant
// is ever violated.
func (g *Graph) TopologicalOrder() ([]string, error) {
	components := g.SCCs()
	compOf := make(map[string]int, len(g.allNodes))
	for i, c := range components {
		for _, n := range c {
			compOf[n] = i
		}
	}

	// parentsOf[i] holds the distinct components i directly depends on.
	parentsOf := make(map[int]map[int]bool, len(components))
	for from, parents := range g.edges {
		fc := compOf[from]
		for _, p := range parents {
			pc := compOf[p]
			if pc == fc {
				continue
			}
			if parentsOf[fc] == nil {
				parentsOf[fc] = make(map[int]bool)
			}
			parentsOf[fc][pc] = true
		}
	}

	// rep names each component by its lowest member (components are
	// pre-sorted), used to break ties between components deterministically.
	rep := make([]string, len(components))
	for i, c := range components {
		rep[i] = c[0]
	}

	colors := make([]color, len(components))
	var compOrder []int
	var visit func(i int) error
	visit = func(i int) error {
		switch colors[i] {
		case black:
			return nil
		case gray:
			return &CycleError{Cycle: components[i]}
		}
		colors[i] = gray
		parents := make([]int, 0, len(parentsOf[i]))
		for p := range parentsOf[i] {
			parents = append(parents, p)
		}
		sort.Slice(parents, func(a, b int) bool { return rep[parents[a]] < rep[parents[b]] })
		for _, p := range parents {
			if err := visit(p); err != nil {
				return err
			}
		}
		colors[i] = black
		compOrder = append(compOrder, i)
		return nil
	}

	order := make([]int, len(components))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return rep[order[a]] < rep[order[b]] })
	for _, i := range order {
		if colors[i] == white {
			if err := visit(i); err != nil {
				return nil, err
			}
		}
	}

	out := make([]string, 0, len(g.allNodes))
	for _, i := range compOrder {
		out = append(out, components[i]...)
	}
	return out, nil
}

// ReachableFrom returns every table transitively reachable from table by
// following FK edges outward (its full dependency closure), not including
// table itself.
func (g *Graph) ReachableFrom(table string) []string {
	return g.bfs(strings.ToLower(table), g.edges)
}

// DependentsOf returns every table transitively depending on table (its
// full dependent closure), not including table itself.
func (g *Graph) DependentsOf(table string) []string {
	return g.bfs(strings.ToLower(table), g.rev)
}

func (g *Graph) bfs(start string, adj map[string][]string) []string {
	visited := map[string]bool{start: true}
	queue := []string{start}
	var out []string
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, next := range adj[n] {
			if !visited[next] {
				visited[next] = true
				out = append(out, next)
				queue = append(queue, next)
			}
		}
	}
	sort.Strings(out)
	return out
}
