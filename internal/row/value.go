// Package row implements C6: parsing INSERT tuples and COPY data blocks
// into typed Value rows, per spec.md §3 and §4.6.
package row

import "strconv"

// Kind discriminates the Value sum type.
type Kind int

const (
	Null Kind = iota
	Integer
	BigInteger
	Decimal
	Float
	String
	Hex
	Boolean
	Temporal
	Raw
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Integer:
		return "integer"
	case BigInteger:
		return "biginteger"
	case Decimal:
		return "decimal"
	case Float:
		return "float"
	case String:
		return "string"
	case Hex:
		return "hex"
	case Boolean:
		return "boolean"
	case Temporal:
		return "temporal"
	default:
		return "raw"
	}
}

// Value is a single parsed cell from an INSERT tuple or COPY data line.
// Text always holds the literal, unescaped source text (except for
// String, which holds the decoded payload, and Hex, which holds the hex
// digits with a 0x prefix); Int64/Bool are populated
// opportunistically for kinds where they're cheap to compute so callers
// doing row-level work (sampling, sharding, redaction) don't have to
// reparse.
type Value struct {
	Kind  Kind
	Text  string
	Int64 int64
	Bool  bool
}

// IsNull reports whether v represents SQL NULL.
func (v Value) IsNull() bool { return v.Kind == Null }

// AsInt64 returns v's integer value and true if v is Integer or
// BigInteger and fits in an int64.
func (v Value) AsInt64() (int64, bool) {
	if v.Kind != Integer && v.Kind != BigInteger {
		return 0, false
	}
	if v.Int64 != 0 {
		return v.Int64, true
	}
	n, err := strconv.ParseInt(v.Text, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Row is one parsed record: either a full row (no projection) or the
// projected subset of columns requested by the caller.
type Row struct {
	Values []Value
}
