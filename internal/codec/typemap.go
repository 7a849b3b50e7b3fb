package codec

import (
	"strings"

	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
)

// typeMapping names one raw type spelling's equivalent in each of the
// four dialects; MapType looks up by whichever dialect's spelling is
// matched first. A "" entry means: carry the source raw type through
// unchanged (no well-known equivalent), which is always safe since every
// target dialect tolerates an unrecognized type name appearing in DDL it
// does not itself enforce strictly (SQLite in particular is permissive).
type typeMapping struct {
	mysql, postgres, sqlite, mssql string
}

var crossDialectTypes = []typeMapping{
	{mysql: "INT", postgres: "INTEGER", sqlite: "INTEGER", mssql: "INT"},
	{mysql: "BIGINT", postgres: "BIGINT", sqlite: "INTEGER", mssql: "BIGINT"},
	{mysql: "SMALLINT", postgres: "SMALLINT", sqlite: "INTEGER", mssql: "SMALLINT"},
	{mysql: "TINYINT", postgres: "SMALLINT", sqlite: "INTEGER", mssql: "TINYINT"},
	{mysql: "VARCHAR", postgres: "VARCHAR", sqlite: "TEXT", mssql: "NVARCHAR"},
	{mysql: "TEXT", postgres: "TEXT", sqlite: "TEXT", mssql: "NVARCHAR(MAX)"},
	{mysql: "BLOB", postgres: "BYTEA", sqlite: "BLOB", mssql: "VARBINARY(MAX)"},
	{mysql: "DATETIME", postgres: "TIMESTAMP", sqlite: "TEXT", mssql: "DATETIME2"},
	{mysql: "TIMESTAMP", postgres: "TIMESTAMP", sqlite: "TEXT", mssql: "DATETIME2"},
	{mysql: "BOOLEAN", postgres: "BOOLEAN", sqlite: "INTEGER", mssql: "BIT"},
	{mysql: "TINYINT(1)", postgres: "BOOLEAN", sqlite: "INTEGER", mssql: "BIT"},
	{mysql: "DOUBLE", postgres: "DOUBLE PRECISION", sqlite: "REAL", mssql: "FLOAT"},
	{mysql: "FLOAT", postgres: "REAL", sqlite: "REAL", mssql: "REAL"},
	{mysql: "JSON", postgres: "JSONB", sqlite: "TEXT", mssql: "NVARCHAR(MAX)"},
	{mysql: "CHAR(36)", postgres: "UUID", sqlite: "TEXT", mssql: "UNIQUEIDENTIFIER"},
}

func columnFor(d dialect.Dialect) func(typeMapping) string {
	switch d {
	case dialect.MySQL:
		return func(m typeMapping) string { return m.mysql }
	case dialect.SQLite:
		return func(m typeMapping) string { return m.sqlite }
	case dialect.Mssql:
		return func(m typeMapping) string { return m.mssql }
	default:
		return func(m typeMapping) string { return m.postgres }
	}
}

// MapType translates rawType, spelled in dialect from, to its equivalent
// spelling in dialect to. If no mapping row matches, rawType is returned
// unchanged (stripped of whitespace), per spec.md §4.9's convert fallback.
func MapType(rawType string, from, to dialect.Dialect) string {
	if from == to {
		return strings.TrimSpace(rawType)
	}
	src := columnFor(from)
	dst := columnFor(to)
	normalized := strings.ToUpper(strings.TrimSpace(rawType))
	for _, m := range crossDialectTypes {
		if strings.EqualFold(src(m), normalized) {
			if v := dst(m); v != "" {
				return v
			}
			break
		}
	}
	return strings.TrimSpace(rawType)
}
