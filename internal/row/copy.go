package row

import (
	"strconv"
	"strings"
)

// ParseCopyHeader extracts the explicit column list from a COPY ... (cols)
// FROM stdin; header line, if present.
func ParseCopyHeader(header []byte) []string {
	s := string(header)
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return nil
	}
	depth := 0
	end := -1
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				end = i
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return nil
	}
	parts := strings.Split(s[open+1:end], ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, unquoteIdent(strings.TrimSpace(p)))
	}
	return out
}

// ParseCopyLine decodes one tab-separated COPY data line (without its
// trailing newline) into Values, per spec.md §4.6: fields are
// tab-delimited, "\N" denotes NULL, and backslash escapes (\t \n \r \\ and
// \NNN octal) are decoded within each field.
func ParseCopyLine(line []byte, cols []string, projection []string) Row {
	fields := strings.Split(string(line), "\t")
	vals := make([]Value, len(fields))
	for i, f := range fields {
		vals[i] = copyFieldValue(f)
	}
	if len(projection) == 0 || cols == nil {
		return Row{Values: vals}
	}
	idxByName := make(map[string]int, len(cols))
	for i, c := range cols {
		idxByName[strings.ToLower(c)] = i
	}
	projected := make([]Value, 0, len(projection))
	for _, p := range projection {
		if idx, ok := idxByName[strings.ToLower(p)]; ok && idx < len(vals) {
			projected = append(projected, vals[idx])
		} else {
			projected = append(projected, Value{Kind: Null})
		}
	}
	return Row{Values: projected}
}

func copyFieldValue(f string) Value {
	if f == `\N` {
		return Value{Kind: Null}
	}
	decoded := decodeCopyEscapes(f)
	if reInt.MatchString(decoded) {
		if n, err := strconv.ParseInt(decoded, 10, 64); err == nil {
			return Value{Kind: Integer, Text: decoded, Int64: n}
		}
		return Value{Kind: BigInteger, Text: decoded}
	}
	if reFloat.MatchString(decoded) || reIntDotInt.MatchString(decoded) {
		return Value{Kind: Decimal, Text: decoded}
	}
	switch decoded {
	case "t", "true":
		return Value{Kind: Boolean, Text: decoded, Bool: true}
	case "f", "false":
		return Value{Kind: Boolean, Text: decoded, Bool: false}
	}
	return Value{Kind: String, Text: decoded}
}

// decodeCopyEscapes decodes backslash escapes per Postgres COPY TEXT
// format: \t \n \r \\ and \NNN octal byte sequences.
func decodeCopyEscapes(f string) string {
	if !strings.ContainsRune(f, '\\') {
		return f
	}
	var b strings.Builder
	for i := 0; i < len(f); i++ {
		if f[i] != '\\' || i+1 >= len(f) {
			b.WriteByte(f[i])
			continue
		}
		i++
		switch f[i] {
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			if f[i] >= '0' && f[i] <= '7' && i+2 < len(f) {
				if n, err := strconv.ParseUint(f[i:i+3], 8, 8); err == nil {
					b.WriteByte(byte(n))
					i += 2
					continue
				}
			}
			b.WriteByte(f[i])
		}
	}
	return b.String()
}

// IsCopyTerminator reports whether line is the COPY block terminator.
func IsCopyTerminator(line []byte) bool {
	return strings.TrimRight(string(line), "\r\n") == `\.`
}
