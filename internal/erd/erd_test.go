package erd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
	"github.com/sqlsplitter/sqlsplitter/internal/graph"
	"github.com/sqlsplitter/sqlsplitter/internal/token"
)

func TestRenderMermaidAndDot(t *testing.T) {
	b := ddl.NewBuilder(dialect.Postgres, nil)
	require.NoError(t, b.Ingest(token.Statement{Kind: token.CreateTable, Bytes: []byte(`CREATE TABLE orgs (id int PRIMARY KEY);`)}))
	require.NoError(t, b.Ingest(token.Statement{Kind: token.CreateTable, Bytes: []byte(`CREATE TABLE users (id int PRIMARY KEY, org_id int, FOREIGN KEY (org_id) REFERENCES orgs (id));`)}))
	schema := b.Schema()
	g := graph.New(schema)
	doc := BuildDocument(g, schema, nil)

	mer, err := Render(doc, Mermaid)
	require.NoError(t, err)
	assert.Contains(t, string(mer), "orgs ||--o{ users")

	dot, err := Render(doc, Dot)
	require.NoError(t, err)
	assert.Contains(t, string(dot), `"users" -> "orgs"`)

	js, err := Render(doc, JSON)
	require.NoError(t, err)
	assert.Contains(t, string(js), `"from": "users"`)
}
