package graph

import (
	"sort"
	"strings"
)

// sccState holds Tarjan's algorithm bookkeeping across the recursive walk.
type sccState struct {
	g        *Graph
	index    map[string]int
	lowlink  map[string]int
	onStack  map[string]bool
	stack    []string
	counter  int
	result   [][]string
}

// SCCs returns the graph's strongly connected components via Tarjan's
// algorithm. Components are returned in the order the walk completes
// them, so each component comes after every component it references; each
// component's members are sorted for determinism. A component of size 1 whose table
// has no self-referencing FK is not a cycle — callers distinguishing real
// cycles from trivial singletons should check len(component) > 1 or a
// self-edge.
func (g *Graph) SCCs() [][]string {
	st := &sccState{
		g:       g,
		index:   make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
	}
	nodes := append([]string(nil), g.allNodes...)
	sort.Strings(nodes)
	for _, n := range nodes {
		if _, visited := st.index[n]; !visited {
			st.strongConnect(n)
		}
	}
	return st.result
}

func (st *sccState) strongConnect(v string) {
	st.index[v] = st.counter
	st.lowlink[v] = st.counter
	st.counter++
	st.stack = append(st.stack, v)
	st.onStack[v] = true

	parents := append([]string(nil), st.g.edges[v]...)
	sort.Strings(parents)
	for _, w := range parents {
		if _, visited := st.index[w]; !visited {
			st.strongConnect(w)
			if st.lowlink[w] < st.lowlink[v] {
				st.lowlink[v] = st.lowlink[w]
			}
		} else if st.onStack[w] {
			if st.index[w] < st.lowlink[v] {
				st.lowlink[v] = st.index[w]
			}
		}
	}

	if st.lowlink[v] == st.index[v] {
		var component []string
		for {
			n := len(st.stack) - 1
			w := st.stack[n]
			st.stack = st.stack[:n]
			st.onStack[w] = false
			component = append(component, w)
			if w == v {
				break
			}
		}
		sort.Strings(component)
		st.result = append(st.result, component)
	}
}

// HasSelfReference reports whether table has a FK referencing itself.
func (g *Graph) HasSelfReference(table string) bool {
	key := strings.ToLower(table)
	for _, p := range g.edges[key] {
		if p == key {
			return true
		}
	}
	return false
}
