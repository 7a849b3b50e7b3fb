package sample

import (
	"strings"

	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
	"github.com/sqlsplitter/sqlsplitter/internal/graph"
	"github.com/sqlsplitter/sqlsplitter/internal/row"
)

// Plan tracks, per table, which primary-key tuples must be included in the
// sample output: rows chosen directly by the sampling predicate, plus
// every ancestor row those rows depend on via foreign keys.
type Plan struct {
	schema *ddl.Schema
	graph  *graph.Graph
	sets   map[string]*PkSet
	maxPk  int
}

// NewPlan builds an empty Plan over schema/g, capping each table's
// required-PK set at maxPkEntries (0 = unbounded).
func NewPlan(schema *ddl.Schema, g *graph.Graph, maxPkEntries int) *Plan {
	return &Plan{schema: schema, graph: g, sets: make(map[string]*PkSet), maxPk: maxPkEntries}
}

func (p *Plan) setFor(table string) *PkSet {
	key := strings.ToLower(table)
	s, ok := p.sets[key]
	if !ok {
		s = NewPkSet(p.maxPk)
		p.sets[key] = s
	}
	return s
}

// Require marks pk as needed in table's output, returning true if this is
// the first time it was requested (callers use the return value to decide
// whether to recurse into that row's own parents).
func (p *Plan) Require(table string, pk PkTuple) bool {
	return p.setFor(table).Add(pk)
}

// IsRequired reports whether pk has already been marked needed for table.
func (p *Plan) IsRequired(table string, pk PkTuple) bool {
	return p.setFor(table).Contains(pk)
}

// PropagateParents registers every parent-table PK value that childRow's
// foreign keys point to as required, given the already-parsed column
// values for childTable keyed by lowercase column name. It returns the
// list of (parentTable, pk) pairs that were newly required, so the caller
// can recursively propagate further up the chain as those parent rows are
// located and parsed.
type ParentRequirement struct {
	Table string
	PK    PkTuple
}

func (p *Plan) PropagateParents(childTable string, colValues map[string]row.Value) []ParentRequirement {
	t, ok := p.schema.Table(childTable)
	if !ok {
		return nil
	}
	var out []ParentRequirement
	for _, fk := range t.ForeignKeys {
		if fk.Unresolved {
			continue
		}
		vals := make([]row.Value, 0, len(fk.ToColumns))
		complete := true
		for _, fromCol := range fk.FromColumns {
			v, ok := colValues[strings.ToLower(fromCol)]
			if !ok || v.IsNull() {
				complete = false
				break
			}
			vals = append(vals, v)
		}
		if !complete {
			continue
		}
		pk := NewPkTuple(vals)
		if p.Require(fk.ToTable, pk) {
			out = append(out, ParentRequirement{Table: fk.ToTable, PK: pk})
		}
	}
	return out
}

// Stats reports, per table, how many PK tuples are required and how many
// were dropped due to the cap.
type Stats struct {
	Table    string
	Required int
	Dropped  int
}

func (p *Plan) Stats() []Stats {
	out := make([]Stats, 0, len(p.sets))
	for table, s := range p.sets {
		out = append(out, Stats{Table: table, Required: s.Len(), Dropped: s.Dropped()})
	}
	return out
}
