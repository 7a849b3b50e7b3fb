package row

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
)

var (
	reInsertHead = regexp.MustCompile(`(?is)^\s*INSERT\s+(?:IGNORE\s+|INTO\s+)*INTO\s+[^\s(]+\s*(?:\(([^)]*)\))?\s*VALUES\s*`)
)

// ParseInsertTuples parses "INSERT INTO t (cols) VALUES (...), (...);" into
// an explicit column list (nil if the statement had none) and one Row per
// tuple. When cols is non-nil and projection is non-empty, only the
// requested columns are materialized into each Row, in projection order.
func ParseInsertTuples(stmt []byte, d dialect.Dialect, projection []string) ([]string, []Row, error) {
	s := string(stmt)
	m := reInsertHead.FindStringSubmatchIndex(s)
	if m == nil {
		return nil, nil, errMalformed("INSERT statement did not match expected grammar")
	}
	var cols []string
	if m[2] >= 0 {
		cols = splitTopLevelCommas(s[m[2]:m[3]])
		for i := range cols {
			cols[i] = unquoteIdent(strings.TrimSpace(cols[i]))
		}
	}

	rest := s[m[1]:]
	tupleStrs, err := splitTuples(rest)
	if err != nil {
		return cols, nil, err
	}

	var keep map[int]bool
	var order []int
	if cols != nil && len(projection) > 0 {
		idxByName := make(map[string]int, len(cols))
		for i, c := range cols {
			idxByName[strings.ToLower(c)] = i
		}
		keep = make(map[int]bool)
		for _, p := range projection {
			if idx, ok := idxByName[strings.ToLower(p)]; ok {
				keep[idx] = true
				order = append(order, idx)
			}
		}
	}

	rows := make([]Row, 0, len(tupleStrs))
	for _, ts := range tupleStrs {
		fields, ferr := splitTopLevelCommas(ts), error(nil)
		_ = ferr
		vals := make([]Value, 0, len(fields))
		for _, f := range fields {
			vals = append(vals, parseLiteral(strings.TrimSpace(f), d))
		}
		if keep != nil {
			projected := make([]Value, 0, len(order))
			for _, idx := range order {
				if idx < len(vals) {
					projected = append(projected, vals[idx])
				} else {
					projected = append(projected, Value{Kind: Null})
				}
			}
			rows = append(rows, Row{Values: projected})
		} else {
			rows = append(rows, Row{Values: vals})
		}
	}
	return cols, rows, nil
}

// splitTuples splits "(a,b),(c,d);" style VALUES bodies into the inner
// content of each top-level parenthesized group, respecting quoting.
func splitTuples(s string) ([]string, error) {
	var out []string
	i := 0
	for i < len(s) {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r' || s[i] == ',') {
			i++
		}
		if i >= len(s) || s[i] == ';' {
			break
		}
		if s[i] != '(' {
			return out, errMalformed("expected '(' to start tuple")
		}
		depth := 0
		var quote byte
		start := i + 1
		j := i
		for ; j < len(s); j++ {
			c := s[j]
			switch {
			case quote != 0:
				if c == quote {
					if c == '\'' && j+1 < len(s) && s[j+1] == '\'' {
						j++
						continue
					}
					quote = 0
				} else if c == '\\' && quote == '\'' {
					j++
				}
			case c == '\'':
				quote = c
			case c == '(':
				depth++
			case c == ')':
				depth--
				if depth == 0 {
					out = append(out, s[start:j])
					i = j + 1
					goto next
				}
			}
		}
		return out, errMalformed("unterminated tuple")
	next:
	}
	return out, nil
}

// splitTopLevelCommas splits on commas not nested in parens or quotes.
func splitTopLevelCommas(s string) []string {
	var parts []string
	var cur strings.Builder
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			cur.WriteByte(c)
			if c == quote {
				if c == '\'' && i+1 < len(s) && s[i+1] == '\'' {
					i++
					cur.WriteByte(s[i])
					continue
				}
				quote = 0
			} else if c == '\\' && quote == '\'' && i+1 < len(s) {
				i++
				cur.WriteByte(s[i])
			}
		case c == '\'':
			quote = c
			cur.WriteByte(c)
		case c == '(':
			depth++
			cur.WriteByte(c)
		case c == ')':
			depth--
			cur.WriteByte(c)
		case c == ',' && depth == 0:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 || len(parts) > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

var (
	reHexLiteral  = regexp.MustCompile(`(?i)^0x[0-9a-f]+$`)
	reHexLiteral2 = regexp.MustCompile(`(?i)^x'([0-9a-f]*)'$`)
	reInt         = regexp.MustCompile(`^[+-]?[0-9]+$`)
	reFloat       = regexp.MustCompile(`^[+-]?[0-9]*\.[0-9]+([eE][+-]?[0-9]+)?$|^[+-]?[0-9]+[eE][+-]?[0-9]+$`)
)

// parseLiteral classifies and, where cheap, decodes one VALUES field into
// a typed Value, per spec.md §3's Value model.
func parseLiteral(f string, d dialect.Dialect) Value {
	upper := strings.ToUpper(f)
	switch upper {
	case "NULL":
		return Value{Kind: Null}
	case "TRUE":
		return Value{Kind: Boolean, Text: f, Bool: true}
	case "FALSE":
		return Value{Kind: Boolean, Text: f, Bool: false}
	}
	if d == dialect.Postgres && len(f) >= 3 && (f[0] == 'E' || f[0] == 'e') && f[1] == '\'' && f[len(f)-1] == '\'' {
		// E'...' strings take MySQL-style backslash escapes.
		return Value{Kind: String, Text: decodeStringLiteral(f[2:len(f)-1], dialect.MySQL)}
	}
	if len(f) >= 2 && f[0] == '\'' && f[len(f)-1] == '\'' {
		return Value{Kind: String, Text: decodeStringLiteral(f[1:len(f)-1], d)}
	}
	if reHexLiteral.MatchString(f) {
		return Value{Kind: Hex, Text: f}
	}
	if m := reHexLiteral2.FindStringSubmatch(f); m != nil {
		return Value{Kind: Hex, Text: "0x" + m[1]}
	}
	if reInt.MatchString(f) {
		if n, err := strconv.ParseInt(f, 10, 64); err == nil {
			return Value{Kind: Integer, Text: f, Int64: n}
		}
		return Value{Kind: BigInteger, Text: f}
	}
	if reFloat.MatchString(f) {
		return Value{Kind: Float, Text: f}
	}
	if strings.Contains(f, ".") && reIntDotInt.MatchString(f) {
		return Value{Kind: Decimal, Text: f}
	}
	return Value{Kind: Raw, Text: f}
}

var reIntDotInt = regexp.MustCompile(`^[+-]?[0-9]+\.[0-9]+$`)

// decodeStringLiteral undoubles the dialect's quote-escape convention and,
// for MySQL/SQLite and Postgres E'...' strings, decodes backslash escapes.
func decodeStringLiteral(s string, d dialect.Dialect) string {
	s = strings.ReplaceAll(s, "''", "'")
	if d != dialect.MySQL && d != dialect.SQLite {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			case '\\', '\'', '"':
				b.WriteByte(s[i])
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func unquoteIdent(s string) string {
	if len(s) >= 2 {
		switch {
		case s[0] == '`' && s[len(s)-1] == '`':
			return strings.ReplaceAll(s[1:len(s)-1], "``", "`")
		case s[0] == '"' && s[len(s)-1] == '"':
			return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
		case s[0] == '[' && s[len(s)-1] == ']':
			return strings.ReplaceAll(s[1:len(s)-1], "]]", "]")
		}
	}
	return s
}

type malformedError struct{ msg string }

func (e *malformedError) Error() string { return e.msg }
func errMalformed(msg string) error     { return &malformedError{msg: msg} }
