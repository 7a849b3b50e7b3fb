package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
	"github.com/sqlsplitter/sqlsplitter/internal/graph"
	"github.com/sqlsplitter/sqlsplitter/internal/row"
	"github.com/sqlsplitter/sqlsplitter/internal/token"
)

func TestPkSetDedupesAndCaps(t *testing.T) {
	s := NewPkSet(2)
	a := NewPkTuple([]row.Value{{Kind: row.Integer, Text: "1", Int64: 1}})
	b := NewPkTuple([]row.Value{{Kind: row.Integer, Text: "2", Int64: 2}})
	c := NewPkTuple([]row.Value{{Kind: row.Integer, Text: "3", Int64: 3}})

	assert.True(t, s.Add(a))
	assert.False(t, s.Add(a))
	assert.True(t, s.Add(b))
	assert.False(t, s.Add(c))
	assert.Equal(t, 1, s.Dropped())
}

func TestPlanPropagatesParents(t *testing.T) {
	b := ddl.NewBuilder(dialect.Postgres, nil)
	require.NoError(t, b.Ingest(token.Statement{Kind: token.CreateTable, Bytes: []byte(`CREATE TABLE orgs (id int PRIMARY KEY);`)}))
	require.NoError(t, b.Ingest(token.Statement{Kind: token.CreateTable, Bytes: []byte(`CREATE TABLE users (id int PRIMARY KEY, org_id int, FOREIGN KEY (org_id) REFERENCES orgs (id));`)}))
	schema := b.Schema()
	g := graph.New(schema)

	plan := NewPlan(schema, g, 0)
	reqs := plan.PropagateParents("users", map[string]row.Value{
		"org_id": {Kind: row.Integer, Text: "7", Int64: 7},
	})
	require.Len(t, reqs, 1)
	assert.Equal(t, "orgs", reqs[0].Table)
	assert.True(t, plan.IsRequired("orgs", NewPkTuple([]row.Value{{Kind: row.Integer, Text: "7", Int64: 7}})))
}
