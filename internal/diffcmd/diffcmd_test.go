package diffcmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
	"github.com/sqlsplitter/sqlsplitter/internal/row"
	"github.com/sqlsplitter/sqlsplitter/internal/sample"
	"github.com/sqlsplitter/sqlsplitter/internal/token"
)

func buildSchema(t *testing.T, sql string) *ddl.Schema {
	t.Helper()
	b := ddl.NewBuilder(dialect.Postgres, nil)
	require.NoError(t, b.Ingest(token.Statement{Kind: token.CreateTable, Bytes: []byte(sql)}))
	return b.Schema()
}

func TestDiffSchemasDetectsAddedColumn(t *testing.T) {
	from := buildSchema(t, `CREATE TABLE users (id int PRIMARY KEY, name text);`)
	to := buildSchema(t, `CREATE TABLE users (id int PRIMARY KEY, name text, email text);`)

	diff := DiffSchemas(from, to)
	require.Len(t, diff.ChangedTables, 1)
	assert.Equal(t, []string{"email"}, diff.ChangedTables[0].AddedColumns)
}

func TestDiffSchemasDetectsRemovedTable(t *testing.T) {
	from := buildSchema(t, `CREATE TABLE legacy (id int PRIMARY KEY);`)
	to := ddl.NewSchema()
	diff := DiffSchemas(from, to)
	assert.Equal(t, []string{"legacy"}, diff.RemovedTables)
}

func TestRowComparatorDetectsChangedAndAdded(t *testing.T) {
	c := NewRowComparator()
	pk1 := sample.NewPkTuple([]row.Value{{Kind: row.Integer, Text: "1", Int64: 1}})
	pk2 := sample.NewPkTuple([]row.Value{{Kind: row.Integer, Text: "2", Int64: 2}})

	c.AddFrom(pk1, row.Row{Values: []row.Value{{Kind: row.String, Text: "old"}}})
	c.AddTo(pk1, row.Row{Values: []row.Value{{Kind: row.String, Text: "new"}}})
	c.AddTo(pk2, row.Row{Values: []row.Value{{Kind: row.String, Text: "fresh"}}})

	d := c.Diff("t")
	assert.Len(t, d.ChangedPKs, 1)
	assert.Len(t, d.AddedPKs, 1)
	assert.Empty(t, d.RemovedPKs)
}
