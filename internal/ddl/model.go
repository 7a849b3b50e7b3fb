// Package ddl implements C5: the DDL parser that builds a Schema from a
// stream of classified Statements, plus the data-model types from
// spec.md §3 that the rest of the core shares (TableSchema, Column,
// ForeignKeyEdge, IndexDef).
package ddl

import "strings"

// NominalType is the cross-dialect type category used for rewriting and
// analytics, normalized from each dialect's raw spelling.
type NominalType int

const (
	Unknown NominalType = iota
	Numeric
	StringType
	Binary
	Temporal
	Boolean
	Json
	Uuid
)

func (t NominalType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case StringType:
		return "string"
	case Binary:
		return "binary"
	case Temporal:
		return "temporal"
	case Boolean:
		return "boolean"
	case Json:
		return "json"
	case Uuid:
		return "uuid"
	default:
		return "unknown"
	}
}

// Column models one CREATE TABLE column definition.
type Column struct {
	Name         string
	RawType      string
	Nominal      NominalType
	Nullable     bool
	IsPrimaryKey bool
	IsIdentity   bool
	DefaultExpr  string
}

// ForeignKeyEdge models a FOREIGN KEY constraint, which may be a forward
// reference to a table not yet seen in the stream.
type ForeignKeyEdge struct {
	ConstraintName string
	FromColumns    []string
	ToTable        string
	ToColumns      []string
	OnDelete       string
	OnUpdate       string
	Unresolved     bool
}

// IndexTypeHint names the storage/access method behind an index, when the
// source specifies one.
type IndexTypeHint int

const (
	HintNone IndexTypeHint = iota
	HintBTree
	HintHash
	HintGin
	HintGist
	HintClustered
	HintNonClustered
	HintFullText
	HintSpatial
)

// IndexDef models a standalone or inline index/constraint.
type IndexDef struct {
	Name    string
	Columns []string
	Unique  bool
	Hint    IndexTypeHint
}

// TableSchema is the fully-parsed model of one table.
type TableSchema struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKeyEdge
	Indexes     []IndexDef
}

// ColumnByName performs a case-insensitive lookup, since column names
// within a table are unique case-insensitively per spec.md §3.
func (t *TableSchema) ColumnByName(name string) (Column, bool) {
	name = strings.ToLower(name)
	for _, c := range t.Columns {
		if strings.ToLower(c.Name) == name {
			return c, true
		}
	}
	return Column{}, false
}

// Schema maps normalized (lowercase) table name to TableSchema. It is
// mutated only by a Builder while it ingests statements; downstream
// consumers treat it as read-only.
type Schema struct {
	tables map[string]*TableSchema
	order  []string // first-seen order, for deterministic iteration
}

// NewSchema returns an empty Schema.
func NewSchema() *Schema {
	return &Schema{tables: make(map[string]*TableSchema)}
}

// Table looks up a table by name, case-insensitively.
func (s *Schema) Table(name string) (*TableSchema, bool) {
	t, ok := s.tables[strings.ToLower(name)]
	return t, ok
}

// Tables returns all tables in first-seen order.
func (s *Schema) Tables() []*TableSchema {
	out := make([]*TableSchema, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tables[name])
	}
	return out
}

// TableNames returns normalized table names in first-seen order.
func (s *Schema) TableNames() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Schema) put(t *TableSchema) {
	key := strings.ToLower(t.Name)
	if _, exists := s.tables[key]; !exists {
		s.order = append(s.order, key)
	}
	s.tables[key] = t
}
