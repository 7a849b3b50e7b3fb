// Package rewrite implements C9: the statement-level rewriter toolkit used
// by convert, redact, and merge to translate a parsed statement from one
// dialect's surface syntax to another's, or to substitute values in place.
package rewrite

import (
	"fmt"
	"strings"

	"github.com/sqlsplitter/sqlsplitter/internal/codec"
	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
	"github.com/sqlsplitter/sqlsplitter/internal/row"
)

// CreateTableDDL renders a fresh CREATE TABLE statement for table in
// dialect to, translating column types via codec.MapType and requoting
// every identifier, per spec.md §4.9. It does not attempt to preserve the
// source statement's formatting or comments.
func CreateTableDDL(table *ddl.TableSchema, from, to dialect.Dialect) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", codec.QuoteIdentifier(table.Name, to))

	lines := make([]string, 0, len(table.Columns)+len(table.ForeignKeys)+1)
	for _, col := range table.Columns {
		lines = append(lines, "  "+columnDDL(col, from, to))
	}
	if len(table.PrimaryKey) > 1 || (len(table.PrimaryKey) == 1 && !singleColumnIsInline(table, table.PrimaryKey[0])) {
		lines = append(lines, "  PRIMARY KEY ("+quoteList(table.PrimaryKey, to)+")")
	}
	for _, fk := range table.ForeignKeys {
		lines = append(lines, "  "+foreignKeyDDL(fk, to))
	}
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n);")
	return b.String()
}

// singleColumnIsInline reports whether a single-column primary key is
// already expressed as an inline column constraint, to avoid emitting a
// redundant trailing PRIMARY KEY (col) clause.
func singleColumnIsInline(table *ddl.TableSchema, colName string) bool {
	col, ok := table.ColumnByName(colName)
	return ok && col.IsPrimaryKey
}

func columnDDL(col ddl.Column, from, to dialect.Dialect) string {
	parts := []string{codec.QuoteIdentifier(col.Name, to), codec.MapType(col.RawType, from, to)}
	if col.IsPrimaryKey && !strings.Contains(strings.ToUpper(col.RawType), "PRIMARY KEY") {
		parts = append(parts, "PRIMARY KEY")
	}
	if col.IsIdentity {
		parts = append(parts, identityClause(to))
	}
	if !col.Nullable && !col.IsPrimaryKey {
		parts = append(parts, "NOT NULL")
	}
	if col.DefaultExpr != "" {
		parts = append(parts, "DEFAULT "+col.DefaultExpr)
	}
	return strings.Join(parts, " ")
}

func identityClause(to dialect.Dialect) string {
	switch to {
	case dialect.MySQL:
		return "AUTO_INCREMENT"
	case dialect.Postgres:
		return "GENERATED ALWAYS AS IDENTITY"
	case dialect.Mssql:
		return "IDENTITY(1,1)"
	default: // SQLite
		return ""
	}
}

func foreignKeyDDL(fk ddl.ForeignKeyEdge, to dialect.Dialect) string {
	var b strings.Builder
	b.WriteString("FOREIGN KEY (")
	b.WriteString(quoteList(fk.FromColumns, to))
	b.WriteString(") REFERENCES ")
	b.WriteString(codec.QuoteIdentifier(fk.ToTable, to))
	b.WriteString(" (")
	b.WriteString(quoteList(fk.ToColumns, to))
	b.WriteString(")")
	if fk.OnDelete != "" {
		fmt.Fprintf(&b, " ON DELETE %s", fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		fmt.Fprintf(&b, " ON UPDATE %s", fk.OnUpdate)
	}
	return b.String()
}

func quoteList(cols []string, d dialect.Dialect) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = codec.QuoteIdentifier(c, d)
	}
	return strings.Join(out, ", ")
}

// InsertDDL renders an INSERT INTO ... VALUES (...) statement for table
// in dialect to from already-parsed Values, used both by convert (to
// translate a COPY block into portable INSERTs) and by redact/sample
// (to re-emit a row after substituting or dropping values).
func InsertDDL(table string, cols []string, rows []row.Row, to dialect.Dialect) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(codec.QuoteIdentifier(table, to))
	if len(cols) > 0 {
		b.WriteString(" (")
		b.WriteString(quoteList(cols, to))
		b.WriteString(")")
	}
	b.WriteString(" VALUES ")
	tuples := make([]string, len(rows))
	for i, r := range rows {
		vals := make([]string, len(r.Values))
		for j, v := range r.Values {
			vals[j] = ValueLiteral(v, to)
		}
		tuples[i] = "(" + strings.Join(vals, ", ") + ")"
	}
	b.WriteString(strings.Join(tuples, ", "))
	b.WriteString(";")
	return b.String()
}

// ValueLiteral renders a parsed Value back out as a SQL literal for
// dialect to.
func ValueLiteral(v row.Value, to dialect.Dialect) string {
	switch v.Kind {
	case row.Null:
		return "NULL"
	case row.Boolean:
		if to == dialect.SQLite || to == dialect.MySQL {
			if v.Bool {
				return "1"
			}
			return "0"
		}
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case row.Integer, row.BigInteger, row.Float, row.Decimal:
		return v.Text
	case row.Hex:
		if to == dialect.Postgres {
			return "'\\x" + strings.TrimPrefix(strings.ToLower(v.Text), "0x") + "'"
		}
		return "0x" + strings.TrimPrefix(strings.ToLower(v.Text), "0x")
	case row.Raw:
		return v.Text
	default: // String, Temporal
		return codec.QuoteStringLiteral(v.Text, to)
	}
}
