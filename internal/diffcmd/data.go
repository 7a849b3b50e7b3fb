package diffcmd

import (
	"github.com/sqlsplitter/sqlsplitter/internal/row"
	"github.com/sqlsplitter/sqlsplitter/internal/sample"
)

// RowDiff summarizes data differences for one table, keyed by primary-key
// tuple. As with schema diffing, no rename inference is attempted: a row
// whose PK changed between sides appears as one removal plus one
// addition.
type RowDiff struct {
	Table       string
	AddedPKs    []sample.PkTuple
	RemovedPKs  []sample.PkTuple
	ChangedPKs  []sample.PkTuple
}

// RowComparator accumulates rows from both sides of a diff for one table
// and, once both sides have been fully streamed, reports which rows
// differ. Rows are identified by PK tuple; full-row equality is checked
// only for PKs present on both sides.
type RowComparator struct {
	fromRows map[uint64]rowRecord
	toRows   map[uint64]rowRecord
}

type rowRecord struct {
	pk  sample.PkTuple
	row row.Row
}

// NewRowComparator returns an empty comparator for one table.
func NewRowComparator() *RowComparator {
	return &RowComparator{fromRows: make(map[uint64]rowRecord), toRows: make(map[uint64]rowRecord)}
}

// AddFrom records a row from the "from" side.
func (c *RowComparator) AddFrom(pk sample.PkTuple, r row.Row) {
	c.fromRows[hashOf(pk)] = rowRecord{pk: pk, row: r}
}

// AddTo records a row from the "to" side.
func (c *RowComparator) AddTo(pk sample.PkTuple, r row.Row) {
	c.toRows[hashOf(pk)] = rowRecord{pk: pk, row: r}
}

// hashOf returns pk's hash (PkTuple.Hash) for use as a map key, so both
// sides key their rows by the hash NewPkTuple computed for them.
func hashOf(pk sample.PkTuple) uint64 {
	return pk.Hash()
}

// Diff compares the two accumulated row sets.
func (c *RowComparator) Diff(table string) RowDiff {
	d := RowDiff{Table: table}
	for h, fr := range c.fromRows {
		tr, ok := c.toRows[h]
		if !ok {
			d.RemovedPKs = append(d.RemovedPKs, fr.pk)
			continue
		}
		if !rowsEqual(fr.row, tr.row) {
			d.ChangedPKs = append(d.ChangedPKs, fr.pk)
		}
	}
	for h, tr := range c.toRows {
		if _, ok := c.fromRows[h]; !ok {
			d.AddedPKs = append(d.AddedPKs, tr.pk)
		}
	}
	return d
}

func rowsEqual(a, b row.Row) bool {
	if len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Values {
		if a.Values[i].Kind != b.Values[i].Kind || a.Values[i].Text != b.Values[i].Text {
			return false
		}
	}
	return true
}
