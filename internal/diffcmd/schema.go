// Package diffcmd implements the diff command's schema and data comparison
// logic. It never attempts rename detection (spec.md §9): a column or
// table present under one name on one side and a different name on the
// other is reported as one removal plus one addition, not a rename.
package diffcmd

import (
	"sort"
	"strings"

	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
)

// ColumnChange describes a column present on both sides with a differing
// definition.
type ColumnChange struct {
	Column   string
	FromType string
	ToType   string
	FromNull bool
	ToNull   bool
}

// TableDiff summarizes one table's schema changes.
type TableDiff struct {
	Table           string
	AddedColumns    []string
	RemovedColumns  []string
	ChangedColumns  []ColumnChange
	AddedForeignKeys []string
	RemovedForeignKeys []string
	AddedIndexes    []string
	RemovedIndexes  []string
}

func (d *TableDiff) empty() bool {
	return len(d.AddedColumns) == 0 && len(d.RemovedColumns) == 0 && len(d.ChangedColumns) == 0 &&
		len(d.AddedForeignKeys) == 0 && len(d.RemovedForeignKeys) == 0 &&
		len(d.AddedIndexes) == 0 && len(d.RemovedIndexes) == 0
}

// SchemaDiff is the full result of comparing two Schemas.
type SchemaDiff struct {
	AddedTables   []string
	RemovedTables []string
	ChangedTables []TableDiff
}

// IsEmpty reports whether the two schemas were structurally identical.
func (d *SchemaDiff) IsEmpty() bool {
	return len(d.AddedTables) == 0 && len(d.RemovedTables) == 0 && len(d.ChangedTables) == 0
}

// DiffSchemas compares from against to, reporting what changed to get
// from -> to.
func DiffSchemas(from, to *ddl.Schema) *SchemaDiff {
	diff := &SchemaDiff{}
	fromNames := setOf(from.TableNames())
	toNames := setOf(to.TableNames())

	for name := range toNames {
		if !fromNames[name] {
			diff.AddedTables = append(diff.AddedTables, name)
		}
	}
	for name := range fromNames {
		if !toNames[name] {
			diff.RemovedTables = append(diff.RemovedTables, name)
		}
	}
	sort.Strings(diff.AddedTables)
	sort.Strings(diff.RemovedTables)

	for name := range fromNames {
		if !toNames[name] {
			continue
		}
		ft, _ := from.Table(name)
		tt, _ := to.Table(name)
		if td := diffTable(ft, tt); !td.empty() {
			diff.ChangedTables = append(diff.ChangedTables, td)
		}
	}
	sort.Slice(diff.ChangedTables, func(i, j int) bool {
		return diff.ChangedTables[i].Table < diff.ChangedTables[j].Table
	})
	return diff
}

func diffTable(from, to *ddl.TableSchema) TableDiff {
	td := TableDiff{Table: to.Name}
	fromCols := make(map[string]ddl.Column, len(from.Columns))
	for _, c := range from.Columns {
		fromCols[strings.ToLower(c.Name)] = c
	}
	toCols := make(map[string]ddl.Column, len(to.Columns))
	for _, c := range to.Columns {
		toCols[strings.ToLower(c.Name)] = c
	}
	for name, c := range toCols {
		fc, ok := fromCols[name]
		if !ok {
			td.AddedColumns = append(td.AddedColumns, c.Name)
			continue
		}
		if !strings.EqualFold(fc.RawType, c.RawType) || fc.Nullable != c.Nullable {
			td.ChangedColumns = append(td.ChangedColumns, ColumnChange{
				Column: c.Name, FromType: fc.RawType, ToType: c.RawType,
				FromNull: fc.Nullable, ToNull: c.Nullable,
			})
		}
	}
	for name, c := range fromCols {
		if _, ok := toCols[name]; !ok {
			td.RemovedColumns = append(td.RemovedColumns, c.Name)
		}
	}
	sort.Strings(td.AddedColumns)
	sort.Strings(td.RemovedColumns)
	sort.Slice(td.ChangedColumns, func(i, j int) bool { return td.ChangedColumns[i].Column < td.ChangedColumns[j].Column })

	td.AddedForeignKeys, td.RemovedForeignKeys = diffFKSets(from.ForeignKeys, to.ForeignKeys)
	td.AddedIndexes, td.RemovedIndexes = diffIndexSets(from.Indexes, to.Indexes)
	return td
}

func diffFKSets(from, to []ddl.ForeignKeyEdge) (added, removed []string) {
	fromSet := make(map[string]bool, len(from))
	for _, fk := range from {
		fromSet[fkKey(fk)] = true
	}
	toSet := make(map[string]bool, len(to))
	for _, fk := range to {
		toSet[fkKey(fk)] = true
	}
	for k := range toSet {
		if !fromSet[k] {
			added = append(added, k)
		}
	}
	for k := range fromSet {
		if !toSet[k] {
			removed = append(removed, k)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return
}

func fkKey(fk ddl.ForeignKeyEdge) string {
	return strings.ToLower(strings.Join(fk.FromColumns, ",")) + "->" + strings.ToLower(fk.ToTable) + "(" + strings.ToLower(strings.Join(fk.ToColumns, ",")) + ")"
}

func diffIndexSets(from, to []ddl.IndexDef) (added, removed []string) {
	fromSet := make(map[string]bool, len(from))
	for _, ix := range from {
		fromSet[indexKey(ix)] = true
	}
	toSet := make(map[string]bool, len(to))
	for _, ix := range to {
		toSet[indexKey(ix)] = true
	}
	for k := range toSet {
		if !fromSet[k] {
			added = append(added, k)
		}
	}
	for k := range fromSet {
		if !toSet[k] {
			removed = append(removed, k)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return
}

func indexKey(ix ddl.IndexDef) string {
	return strings.ToLower(strings.Join(ix.Columns, ","))
}

func setOf(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}
