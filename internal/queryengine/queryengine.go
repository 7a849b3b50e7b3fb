// Package queryengine backs the query command: it loads a parsed dump's
// rows into an in-memory DuckDB database so the user can run arbitrary
// read-only SQL against the dump without restoring it to a live server.
package queryengine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
	"github.com/sqlsplitter/sqlsplitter/internal/row"
)

// Engine wraps an in-memory DuckDB handle scoped to one query command
// invocation. It is not safe for concurrent table loads.
type Engine struct {
	db *sql.DB
}

// Open starts a fresh in-memory DuckDB instance.
func Open(ctx context.Context) (*Engine, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return &Engine{db: db}, nil
}

// Close releases the DuckDB handle.
func (e *Engine) Close() error { return e.db.Close() }

// CreateTable declares table in DuckDB with a generic column set derived
// from the source schema: every column is typed VARCHAR except those
// classified Numeric (DOUBLE) or Boolean (BOOLEAN), since the query
// command only needs to support filtering/aggregation, not exact
// round-trip typing back into the original dialect.
func (e *Engine) CreateTable(ctx context.Context, table *ddl.TableSchema) error {
	var cols []string
	for _, c := range table.Columns {
		cols = append(cols, fmt.Sprintf(`"%s" %s`, c.Name, duckDBType(c)))
	}
	stmt := fmt.Sprintf(`CREATE TABLE "%s" (%s)`, table.Name, strings.Join(cols, ", "))
	_, err := e.db.ExecContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("create duckdb table %q: %w", table.Name, err)
	}
	return nil
}

func duckDBType(c ddl.Column) string {
	switch c.Nominal {
	case ddl.Numeric:
		return "DOUBLE"
	case ddl.Boolean:
		return "BOOLEAN"
	default:
		return "VARCHAR"
	}
}

// InsertRows batch-inserts rows into table using a prepared statement,
// within a single transaction for throughput.
func (e *Engine) InsertRows(ctx context.Context, table string, cols []string, rows []row.Row) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin duckdb tx: %w", err)
	}
	placeholders := make([]string, len(cols))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = fmt.Sprintf(`"%s"`, c)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO "%s" (%s) VALUES (%s)`,
		table, strings.Join(quoted, ", "), strings.Join(placeholders, ", ")))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert for %q: %w", table, err)
	}
	defer stmt.Close()

	for _, r := range rows {
		args := make([]any, len(r.Values))
		for i, v := range r.Values {
			args[i] = asAny(v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert into %q: %w", table, err)
		}
	}
	return tx.Commit()
}

func asAny(v row.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind {
	case row.Integer, row.BigInteger:
		if n, ok := v.AsInt64(); ok {
			return n
		}
		return v.Text
	case row.Boolean:
		return v.Bool
	default:
		return v.Text
	}
}

// Query runs a read-only SQL statement and returns the result rows as
// string-rendered cells, suitable for tabular printing.
func (e *Engine) Query(ctx context.Context, sqlText string) ([]string, [][]string, error) {
	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return cols, out, err
		}
		rendered := make([]string, len(cols))
		for i, v := range raw {
			rendered[i] = fmt.Sprintf("%v", v)
		}
		out = append(out, rendered)
	}
	return cols, out, rows.Err()
}
