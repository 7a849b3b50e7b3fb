package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopologicalOrderParentFirst(t *testing.T) {
	g := graphFromEdges(map[string][]string{
		"orders": {"users"},
		"users":  {"orgs"},
		"orgs":   nil,
	})
	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	pos := indexOf(order)
	assert.Less(t, pos["orgs"], pos["users"])
	assert.Less(t, pos["users"], pos["orders"])
}

func TestTopologicalOrderCollapsesCycleIntoSchedulingUnit(t *testing.T) {
	g := graphFromEdges(map[string][]string{
		"a": {"b"},
		"b": {"a"},
	})
	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestTopologicalOrderToleratesSelfReference(t *testing.T) {
	g := graphFromEdges(map[string][]string{
		"a": {"a", "b"},
		"b": nil,
	})
	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	pos := indexOf(order)
	assert.Less(t, pos["b"], pos["a"])
}

func TestSCCsFindsCycle(t *testing.T) {
	g := graphFromEdges(map[string][]string{
		"a": {"b"},
		"b": {"a"},
		"c": nil,
	})
	sccs := g.SCCs()
	found := false
	for _, c := range sccs {
		if len(c) == 2 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestReachableAndDependents(t *testing.T) {
	g := graphFromEdges(map[string][]string{
		"orders": {"users"},
		"users":  {"orgs"},
		"orgs":   nil,
	})
	assert.ElementsMatch(t, []string{"users", "orgs"}, g.ReachableFrom("orders"))
	assert.ElementsMatch(t, []string{"orders"}, g.DependentsOf("users"))
}

// graphFromEdges builds a Graph directly against the edges/rev maps for
// pure graph-algorithm tests that don't need a full ddl.Schema.
func graphFromEdges(edges map[string][]string) *Graph {
	g := &Graph{edges: make(map[string][]string), rev: make(map[string][]string)}
	seen := map[string]bool{}
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			g.allNodes = append(g.allNodes, n)
		}
	}
	for from, tos := range edges {
		add(from)
		for _, to := range tos {
			add(to)
			g.edges[from] = append(g.edges[from], to)
			g.rev[to] = append(g.rev[to], from)
		}
	}
	return g
}

func indexOf(order []string) map[string]int {
	m := make(map[string]int, len(order))
	for i, v := range order {
		m[v] = i
	}
	return m
}
