// Package analyze implements the analyze command: structural and
// row-count statistics over a parsed dump, independent of any single
// output format.
package analyze

import (
	"sort"

	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
	"github.com/sqlsplitter/sqlsplitter/internal/graph"
)

// TableStats summarizes one table's shape and observed row volume.
type TableStats struct {
	Table         string
	ColumnCount   int
	ForeignKeys   int
	Indexes       int
	HasPrimaryKey bool
	RowCount      int64
	ByteCount     int64
	Role          string
}

// Summary is the analyze command's full result.
type Summary struct {
	TableCount      int
	ForeignKeyEdges int
	CycleCount      int
	Tables          []TableStats
	RoleCounts      map[string]int
}

// Counters accumulates per-table row/byte counts as the source stream is
// walked; the caller calls Observe once per INSERT statement or COPY
// block with that statement's row count and byte length.
type Counters struct {
	rows  map[string]int64
	bytes map[string]int64
}

// NewCounters returns an empty Counters.
func NewCounters() *Counters {
	return &Counters{rows: make(map[string]int64), bytes: make(map[string]int64)}
}

// Observe records n rows totalling byteLen bytes for table.
func (c *Counters) Observe(table string, n int, byteLen int) {
	c.rows[table] += int64(n)
	c.bytes[table] += int64(byteLen)
}

// Build assembles the final Summary from schema, its dependency graph,
// an optional tenant-role classification, and the row counters gathered
// during the streaming pass.
func Build(schema *ddl.Schema, g *graph.Graph, roles map[string]graph.TenantRole, counters *Counters) Summary {
	s := Summary{RoleCounts: make(map[string]int)}
	sccs := g.SCCs()
	for _, c := range sccs {
		if len(c) > 1 {
			s.CycleCount++
		}
	}
	for _, t := range schema.Tables() {
		ts := TableStats{
			Table:         t.Name,
			ColumnCount:   len(t.Columns),
			ForeignKeys:   len(t.ForeignKeys),
			Indexes:       len(t.Indexes),
			HasPrimaryKey: len(t.PrimaryKey) > 0,
		}
		if counters != nil {
			ts.RowCount = counters.rows[t.Name]
			ts.ByteCount = counters.bytes[t.Name]
		}
		if roles != nil {
			role := roles[t.Name]
			ts.Role = role.String()
			s.RoleCounts[role.String()]++
		}
		s.ForeignKeyEdges += len(t.ForeignKeys)
		s.Tables = append(s.Tables, ts)
	}
	s.TableCount = len(s.Tables)
	sort.Slice(s.Tables, func(i, j int) bool { return s.Tables[i].Table < s.Tables[j].Table })
	return s
}
