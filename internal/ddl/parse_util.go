package ddl

import "strings"

// extractParenBody returns the contents between the paren at openIdx (which
// must be '(') and its matching close, respecting nested parens and
// quoting, along with the index just past the closing paren.
func extractParenBody(s string, openIdx int) (string, int) {
	depth := 0
	var quote byte
	start := openIdx + 1
	for i := openIdx; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return s[start:i], i + 1
			}
		}
	}
	return s[start:], len(s)
}

// splitTopLevel splits a CREATE TABLE body on commas that are not nested
// inside parens or quotes.
func splitTopLevel(s string) []string {
	var items []string
	var cur strings.Builder
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
			cur.WriteByte(c)
		case c == '(':
			depth++
			cur.WriteByte(c)
		case c == ')':
			depth--
			cur.WriteByte(c)
		case c == ',' && depth == 0:
			items = append(items, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		items = append(items, cur.String())
	}
	return items
}

// unquote strips a single layer of backtick/double-quote/bracket quoting
// and undoubles any doubled closing-quote escapes.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	switch {
	case s[0] == '`' && s[len(s)-1] == '`':
		return strings.ReplaceAll(s[1:len(s)-1], "``", "`")
	case s[0] == '"' && s[len(s)-1] == '"':
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	case s[0] == '[' && s[len(s)-1] == ']':
		return strings.ReplaceAll(s[1:len(s)-1], "]]", "]")
	}
	return s
}

// lastSegment takes the final dot-separated component of a possibly
// schema-qualified identifier (schema.table, db.schema.table).
func lastSegment(s string) string {
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '.':
			if depth == 0 {
				last = i + 1
			}
		}
	}
	return strings.TrimSpace(s[last:])
}

// parseColumnList extracts the comma-separated column list from the first
// parenthesized group in s, e.g. "PRIMARY KEY (a, b)" -> ["a","b"].
func parseColumnList(s string) []string {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return nil
	}
	body, _ := extractParenBody(s, open)
	return splitColumnList(body)
}

// splitColumnList splits a raw "(a, b, c)"-style body (without parens) into
// unquoted, trimmed column names, dropping any trailing ASC/DESC/length spec.
func splitColumnList(body string) []string {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	parts := strings.Split(body, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if idx := strings.IndexAny(p, " \t("); idx > 0 {
			p = p[:idx]
		}
		out = append(out, unquote(p))
	}
	return out
}

// stopAtNextClause truncates a DEFAULT expression at the start of any
// following column clause keyword, since the regex that captured it runs
// to end of item.
func stopAtNextClause(s string) string {
	upper := strings.ToUpper(s)
	for _, kw := range []string{" NOT NULL", " NULL", " PRIMARY KEY", " REFERENCES", " UNIQUE", " CHECK"} {
		if idx := strings.Index(upper, kw); idx >= 0 {
			return strings.TrimSpace(s[:idx])
		}
	}
	return strings.TrimSpace(s)
}
