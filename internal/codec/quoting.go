package codec

import (
	"strings"

	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
)

// QuoteIdentifier renders name as a quoted identifier for dialect d,
// doubling any embedded quote character per that dialect's escape rule.
func QuoteIdentifier(name string, d dialect.Dialect) string {
	switch d {
	case dialect.MySQL, dialect.SQLite:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	case dialect.Mssql:
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	default: // Postgres
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

// QuoteStringLiteral renders s as a quoted string literal for dialect d.
// MySQL/SQLite double each backslash in addition to doubling the quote;
// control characters are written as-is. Postgres/Mssql only double the
// quote (Postgres
// would need an E'...' prefix for backslash escapes, which this encoder
// avoids emitting by never backslash-escaping).
func QuoteStringLiteral(s string, d dialect.Dialect) string {
	var b strings.Builder
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'':
			b.WriteString("''")
		case c == '\\' && (d == dialect.MySQL || d == dialect.SQLite):
			b.WriteString(`\\`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// StripQuoting removes one layer of dialect-appropriate identifier
// quoting from name, undoubling the escaped quote character, returning
// name unchanged if it was not quoted.
func StripQuoting(name string) string {
	if len(name) < 2 {
		return name
	}
	switch {
	case name[0] == '`' && name[len(name)-1] == '`':
		return strings.ReplaceAll(name[1:len(name)-1], "``", "`")
	case name[0] == '"' && name[len(name)-1] == '"':
		return strings.ReplaceAll(name[1:len(name)-1], `""`, `"`)
	case name[0] == '[' && name[len(name)-1] == ']':
		return strings.ReplaceAll(name[1:len(name)-1], "]]", "]")
	}
	return name
}
