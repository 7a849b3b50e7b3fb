package ddl

import (
	"regexp"
	"strings"

	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
	"github.com/sqlsplitter/sqlsplitter/internal/pipeline"
	"github.com/sqlsplitter/sqlsplitter/internal/token"
)

// Builder consumes a stream of classified Statements and accumulates a
// Schema, per spec.md §4.5. It holds no reference to the byte source; the
// caller drives it one Statement at a time.
type Builder struct {
	d      dialect.Dialect
	ctx    *pipeline.Context
	schema *Schema
}

// NewBuilder returns a Builder targeting dialect d, reporting warnings
// through ctx (which may be nil in tests).
func NewBuilder(d dialect.Dialect, ctx *pipeline.Context) *Builder {
	return &Builder{d: d, ctx: ctx, schema: NewSchema()}
}

// Schema returns the schema accumulated so far. The caller should only
// treat it as final once the whole statement stream has been consumed.
func (b *Builder) Schema() *Schema { return b.schema }

// Ingest feeds one classified statement to the builder. Only
// CreateTable, AlterTable, and CreateIndex kinds affect the schema;
// others are no-ops.
func (b *Builder) Ingest(s token.Statement) error {
	switch s.Kind {
	case token.CreateTable:
		t, err := b.parseCreateTable(string(s.Bytes))
		if err != nil {
			return b.warn(pipeline.WarnUnsupportedFeat, s.TargetTable, err.Error(), s.ByteRange.Offset)
		}
		if _, exists := b.schema.Table(t.Name); exists {
			if err := b.warn(pipeline.WarnDuplicateTable, t.Name, "CREATE TABLE seen twice, replacing prior definition", s.ByteRange.Offset); err != nil {
				return err
			}
		}
		b.schema.put(t)
	case token.AlterTable:
		if err := b.applyAlterTable(string(s.Bytes), s.TargetTable); err != nil {
			return b.warn(pipeline.WarnUnsupportedFeat, s.TargetTable, err.Error(), s.ByteRange.Offset)
		}
	case token.CreateIndex:
		if err := b.applyCreateIndex(string(s.Bytes), s.TargetTable); err != nil {
			return b.warn(pipeline.WarnUnsupportedFeat, s.TargetTable, err.Error(), s.ByteRange.Offset)
		}
	}
	return nil
}

func (b *Builder) warn(code pipeline.WarningCode, table, detail string, offset uint64) error {
	if b.ctx == nil {
		return nil
	}
	return b.ctx.Warn(pipeline.Warning{Code: code, Table: table, Detail: detail, Offset: offset})
}

var (
	reCreateTableHead = regexp.MustCompile(`(?is)^\s*CREATE\s+(?:TEMP(?:ORARY)?\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([^\s(]+)\s*\(`)
	reConstraintKw    = regexp.MustCompile(`(?i)^(CONSTRAINT\s+\S+\s+)?(PRIMARY\s+KEY|FOREIGN\s+KEY|UNIQUE|CHECK|KEY|INDEX)\b`)
	rePrimaryKeyCol   = regexp.MustCompile(`(?is)\bPRIMARY\s+KEY\b`)
	reIdentityKw      = regexp.MustCompile(`(?i)\b(AUTO_INCREMENT|IDENTITY(\s*\(\s*\d+\s*,\s*\d+\s*\))?|SERIAL|BIGSERIAL|SMALLSERIAL)\b`)
	reNotNull         = regexp.MustCompile(`(?i)\bNOT\s+NULL\b`)
	reDefault         = regexp.MustCompile(`(?is)\bDEFAULT\s+(.+)$`)
	reReferences      = regexp.MustCompile(`(?is)\bREFERENCES\s+([^\s(]+)\s*(?:\(([^)]*)\))?`)
	reOnDelete        = regexp.MustCompile(`(?i)\bON\s+DELETE\s+(CASCADE|SET\s+NULL|SET\s+DEFAULT|RESTRICT|NO\s+ACTION)\b`)
	reOnUpdate        = regexp.MustCompile(`(?i)\bON\s+UPDATE\s+(CASCADE|SET\s+NULL|SET\s+DEFAULT|RESTRICT|NO\s+ACTION)\b`)
	reColName         = regexp.MustCompile(`^(\S+|` + "`" + `[^` + "`" + `]*` + "`" + `|"[^"]*"|\[[^\]]*\])\s*(.*)$`)
	reAddConstraintFK = regexp.MustCompile(`(?is)\bADD\s+(?:CONSTRAINT\s+(\S+)\s+)?FOREIGN\s+KEY\s*\(([^)]*)\)\s*REFERENCES\s+([^\s(]+)\s*(?:\(([^)]*)\))?`)
	reAddPrimaryKey   = regexp.MustCompile(`(?is)\bADD\s+(?:CONSTRAINT\s+\S+\s+)?PRIMARY\s+KEY\s*\(([^)]*)\)`)
	reCreateIndexFull = regexp.MustCompile(`(?is)^\s*CREATE\s+(UNIQUE\s+)?(CLUSTERED\s+|NONCLUSTERED\s+)?INDEX\s+(\S+)\s+ON\s+[^\s(]+\s*\(([^)]*)\)\s*(USING\s+(\w+))?`)
)

// parseCreateTable parses a full CREATE TABLE statement into a TableSchema,
// per spec.md §4.5: split the parenthesized body on top-level commas, then
// route each item to column or constraint parsing.
func (b *Builder) parseCreateTable(stmt string) (*TableSchema, error) {
	m := reCreateTableHead.FindStringSubmatchIndex(stmt)
	if m == nil {
		return nil, errUnparsable("CREATE TABLE head did not match expected grammar")
	}
	name := unquote(lastSegment(stmt[m[2]:m[3]]))

	body, _ := extractParenBody(stmt, m[1]-1)
	items := splitTopLevel(body)

	t := &TableSchema{Name: name}
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if reConstraintKw.MatchString(item) {
			b.applyInlineConstraint(t, item)
			continue
		}
		col, ok := b.parseColumnDef(item)
		if !ok {
			continue
		}
		t.Columns = append(t.Columns, col)
		if col.IsPrimaryKey {
			t.PrimaryKey = append(t.PrimaryKey, col.Name)
		}
	}
	return t, nil
}

// parseColumnDef parses one column-definition item: name, type, and any
// inline constraints (PRIMARY KEY, NOT NULL, DEFAULT, REFERENCES, identity).
func (b *Builder) parseColumnDef(item string) (Column, bool) {
	m := reColName.FindStringSubmatch(item)
	if m == nil {
		return Column{}, false
	}
	name := unquote(m[1])
	rest := strings.TrimSpace(m[2])

	rawType := rest
	if idx := strings.IndexAny(rest, " \t\n"); idx >= 0 {
		// type may include a (n) or (n,m) size; extend past it if present.
		head := rest[:idx]
		tail := rest[idx:]
		if strings.HasSuffix(head, "(") || (strings.Contains(head, "(") && !strings.Contains(head, ")")) {
			closeIdx := strings.Index(rest, ")")
			if closeIdx >= 0 {
				rawType = rest[:closeIdx+1]
				tail = rest[closeIdx+1:]
			}
		} else {
			rawType = head
		}
		rest = tail
	}

	col := Column{
		Name:     name,
		RawType:  strings.TrimSpace(rawType),
		Nullable: true,
		Nominal:  NormalizeType(rawType),
	}
	if rePrimaryKeyCol.MatchString(rest) {
		col.IsPrimaryKey = true
		col.Nullable = false
	}
	if reNotNull.MatchString(rest) {
		col.Nullable = false
	}
	if reIdentityKw.MatchString(rest) || reIdentityKw.MatchString(col.RawType) {
		col.IsIdentity = true
	}
	// SQLite's "INTEGER PRIMARY KEY" column is an implicit rowid alias/identity.
	if b.d == dialect.SQLite && col.IsPrimaryKey && strings.EqualFold(strings.TrimSpace(col.RawType), "INTEGER") {
		col.IsIdentity = true
	}
	if dm := reDefault.FindStringSubmatch(rest); dm != nil {
		col.DefaultExpr = strings.TrimSpace(stopAtNextClause(dm[1]))
	}
	return col, true
}

// applyInlineConstraint handles a top-level constraint/index item inside a
// CREATE TABLE body: PRIMARY KEY (...), FOREIGN KEY (...) REFERENCES ...,
// UNIQUE (...), KEY/INDEX (...).
func (b *Builder) applyInlineConstraint(t *TableSchema, item string) {
	upper := strings.ToUpper(item)
	switch {
	case strings.Contains(upper, "FOREIGN KEY"):
		fk := b.parseForeignKey(item)
		if fk != nil {
			t.ForeignKeys = append(t.ForeignKeys, *fk)
		}
	case strings.Contains(upper, "PRIMARY KEY"):
		if cols := parseColumnList(item); len(cols) > 0 {
			t.PrimaryKey = append(t.PrimaryKey, cols...)
			for i := range t.Columns {
				for _, c := range cols {
					if strings.EqualFold(t.Columns[i].Name, c) {
						t.Columns[i].IsPrimaryKey = true
						t.Columns[i].Nullable = false
					}
				}
			}
		}
	case strings.Contains(upper, "UNIQUE"):
		if cols := parseColumnList(item); len(cols) > 0 {
			t.Indexes = append(t.Indexes, IndexDef{Columns: cols, Unique: true})
		}
	case strings.Contains(upper, "CHECK"):
		// CHECK constraints do not affect the structural model; dropped.
	case strings.HasPrefix(upper, "KEY") || strings.HasPrefix(upper, "INDEX"):
		if cols := parseColumnList(item); len(cols) > 0 {
			t.Indexes = append(t.Indexes, IndexDef{Columns: cols})
		}
	}
}

func (b *Builder) parseForeignKey(item string) *ForeignKeyEdge {
	re := regexp.MustCompile(`(?is)FOREIGN\s+KEY\s*\(([^)]*)\)\s*REFERENCES\s+([^\s(]+)\s*(?:\(([^)]*)\))?`)
	m := re.FindStringSubmatch(item)
	if m == nil {
		return nil
	}
	fk := &ForeignKeyEdge{
		FromColumns: splitColumnList(m[1]),
		ToTable:     unquote(lastSegment(strings.TrimSpace(m[2]))),
		ToColumns:   splitColumnList(m[3]),
	}
	if nm := regexp.MustCompile(`(?i)CONSTRAINT\s+(\S+)\s+FOREIGN`).FindStringSubmatch(item); nm != nil {
		fk.ConstraintName = unquote(nm[1])
	}
	if om := reOnDelete.FindStringSubmatch(item); om != nil {
		fk.OnDelete = normalizeAction(om[1])
	}
	if om := reOnUpdate.FindStringSubmatch(item); om != nil {
		fk.OnUpdate = normalizeAction(om[1])
	}
	return fk
}

// applyAlterTable handles the subset of ALTER TABLE relevant to the model:
// ADD CONSTRAINT ... FOREIGN KEY and ADD PRIMARY KEY. Anything else
// (ADD COLUMN, RENAME, DROP) is a structural no-op for this model — the
// split/merge/analyze pipeline works from the CREATE TABLE snapshot.
func (b *Builder) applyAlterTable(stmt, tableName string) error {
	t, ok := b.schema.Table(tableName)
	if !ok {
		// ALTER against a table not yet built from this stream: register an
		// empty table stub so a foreign key added below still reaches the graph.
		t = &TableSchema{Name: tableName}
		b.schema.put(t)
	}
	if m := reAddConstraintFK.FindStringSubmatch(stmt); m != nil {
		fk := ForeignKeyEdge{
			ConstraintName: unquote(m[1]),
			FromColumns:    splitColumnList(m[2]),
			ToTable:        unquote(lastSegment(strings.TrimSpace(m[3]))),
			ToColumns:      splitColumnList(m[4]),
		}
		if om := reOnDelete.FindStringSubmatch(stmt); om != nil {
			fk.OnDelete = normalizeAction(om[1])
		}
		if om := reOnUpdate.FindStringSubmatch(stmt); om != nil {
			fk.OnUpdate = normalizeAction(om[1])
		}
		if _, exists := b.schema.Table(fk.ToTable); !exists {
			fk.Unresolved = true
		}
		t.ForeignKeys = append(t.ForeignKeys, fk)
		return nil
	}
	if m := reAddPrimaryKey.FindStringSubmatch(stmt); m != nil {
		cols := splitColumnList(m[1])
		t.PrimaryKey = append(t.PrimaryKey, cols...)
		for i := range t.Columns {
			for _, c := range cols {
				if strings.EqualFold(t.Columns[i].Name, c) {
					t.Columns[i].IsPrimaryKey = true
				}
			}
		}
		return nil
	}
	return nil
}

// applyCreateIndex attaches a standalone CREATE INDEX ... ON table (...)
// statement to the already-built TableSchema for table.
func (b *Builder) applyCreateIndex(stmt, tableName string) error {
	m := reCreateIndexFull.FindStringSubmatch(stmt)
	if m == nil {
		return errUnparsable("CREATE INDEX did not match expected grammar")
	}
	t, ok := b.schema.Table(tableName)
	if !ok {
		return errUnparsable("CREATE INDEX on unknown table " + tableName)
	}
	idx := IndexDef{
		Name:    unquote(m[3]),
		Columns: splitColumnList(m[4]),
		Unique:  strings.TrimSpace(m[1]) != "",
		Hint:    hintFromClauses(m[2], m[6], b.d),
	}
	t.Indexes = append(t.Indexes, idx)
	return nil
}

func hintFromClauses(clusterClause, usingMethod string, d dialect.Dialect) IndexTypeHint {
	switch strings.ToUpper(strings.TrimSpace(clusterClause)) {
	case "CLUSTERED":
		return HintClustered
	case "NONCLUSTERED":
		return HintNonClustered
	}
	switch strings.ToUpper(strings.TrimSpace(usingMethod)) {
	case "HASH":
		return HintHash
	case "GIN":
		return HintGin
	case "GIST":
		return HintGist
	case "BTREE":
		return HintBTree
	}
	return HintNone
}

func normalizeAction(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

type parseError struct{ msg string }

func (e *parseError) Error() string { return e.msg }
func errUnparsable(msg string) error { return &parseError{msg: msg} }
