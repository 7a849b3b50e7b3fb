package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
	"github.com/sqlsplitter/sqlsplitter/internal/graph"
	"github.com/sqlsplitter/sqlsplitter/internal/token"
)

func TestBuildSummaryCountsCyclesAndRows(t *testing.T) {
	b := ddl.NewBuilder(dialect.Postgres, nil)
	require.NoError(t, b.Ingest(token.Statement{Kind: token.CreateTable, Bytes: []byte(`CREATE TABLE a (id int PRIMARY KEY, b_id int, FOREIGN KEY (b_id) REFERENCES b (id));`)}))
	require.NoError(t, b.Ingest(token.Statement{Kind: token.CreateTable, Bytes: []byte(`CREATE TABLE b (id int PRIMARY KEY, a_id int, FOREIGN KEY (a_id) REFERENCES a (id));`)}))
	schema := b.Schema()
	g := graph.New(schema)

	counters := NewCounters()
	counters.Observe("a", 10, 500)

	summary := Build(schema, g, nil, counters)
	assert.Equal(t, 2, summary.TableCount)
	assert.Equal(t, 1, summary.CycleCount)
	assert.Equal(t, int64(10), findTable(summary, "a").RowCount)
}

func findTable(s Summary, name string) TableStats {
	for _, t := range s.Tables {
		if t.Table == name {
			return t
		}
	}
	return TableStats{}
}
