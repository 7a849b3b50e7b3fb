package dialect

import (
	"bytes"
	"regexp"
)

// HeaderWindow bounds how much of the dump the detector inspects.
const HeaderWindow = 8 * 1024

type marker struct {
	pattern *regexp.Regexp
	literal []byte
	dialect Dialect
	score   int
	label   string
}

// markers mirrors the weighted table in spec.md §6.4, evaluated in order
// so MarkersFound is stable and deterministic for a given input.
var markers = []marker{
	{literal: []byte("PostgreSQL database dump"), dialect: Postgres, score: 10, label: "PostgreSQL database dump"},
	{literal: []byte("pg_dump"), dialect: Postgres, score: 10, label: "pg_dump"},
	{pattern: regexp.MustCompile(`COPY\s+\S+.*FROM stdin`), dialect: Postgres, score: 5, label: "COPY ... FROM stdin"},
	{literal: []byte("SET search_path"), dialect: Postgres, score: 5, label: "SET search_path"},
	{literal: []byte("$$"), dialect: Postgres, score: 2, label: "$$"},
	{literal: []byte("MySQL dump"), dialect: MySQL, score: 10, label: "MySQL dump"},
	{literal: []byte("MariaDB dump"), dialect: MySQL, score: 10, label: "MariaDB dump"},
	{pattern: regexp.MustCompile(`/\*!40`), dialect: MySQL, score: 5, label: "/*!40"},
	{pattern: regexp.MustCompile(`/\*!50`), dialect: MySQL, score: 5, label: "/*!50"},
	{literal: []byte("LOCK TABLES"), dialect: MySQL, score: 5, label: "LOCK TABLES"},
	{literal: []byte("`"), dialect: MySQL, score: 2, label: "backtick"},
	{literal: []byte("SQLite"), dialect: SQLite, score: 10, label: "SQLite"},
	{literal: []byte("PRAGMA "), dialect: SQLite, score: 5, label: "PRAGMA "},
	{literal: []byte("BEGIN TRANSACTION"), dialect: SQLite, score: 5, label: "BEGIN TRANSACTION"},
	{literal: []byte("SET ANSI_NULLS"), dialect: Mssql, score: 20, label: "SET ANSI_NULLS"},
	{literal: []byte("SET QUOTED_IDENTIFIER"), dialect: Mssql, score: 20, label: "SET QUOTED_IDENTIFIER"},
	{pattern: regexp.MustCompile(`(?m)^\s*GO\s*$`), dialect: Mssql, score: 15, label: "GO line"},
	{pattern: regexp.MustCompile(`\[[A-Za-z_][A-Za-z0-9_]*\]`), dialect: Mssql, score: 10, label: "[identifier]"},
	{literal: []byte("IDENTITY("), dialect: Mssql, score: 10, label: "IDENTITY("},
	{pattern: regexp.MustCompile(`N'`), dialect: Mssql, score: 5, label: "N'...'"},
	{literal: []byte("NVARCHAR"), dialect: Mssql, score: 5, label: "NVARCHAR"},
}

// priorityOrder breaks ties among equally-scored dialects; MySQL wins most
// often historically, so it is checked first.
var priorityOrder = []Dialect{MySQL, Postgres, SQLite, Mssql}

// Detect scores the marker table against up to HeaderWindow bytes of
// header and returns the highest-scoring dialect, breaking ties by
// priorityOrder. An all-zero score defaults to MySQL/Low.
func Detect(header []byte) Detection {
	if len(header) > HeaderWindow {
		header = header[:HeaderWindow]
	}

	scores := map[Dialect]int{}
	var found []string
	for _, m := range markers {
		var hit bool
		if m.pattern != nil {
			hit = m.pattern.Match(header)
		} else {
			hit = bytes.Contains(header, m.literal)
		}
		if hit {
			scores[m.dialect] += m.score
			found = append(found, m.label)
		}
	}

	best := MySQL
	bestScore := -1
	for _, d := range priorityOrder {
		if s := scores[d]; s > bestScore {
			bestScore = s
			best = d
		}
	}

	if bestScore <= 0 {
		return Detection{Dialect: MySQL, Confidence: Low}
	}

	conf := Low
	switch {
	case bestScore >= 15:
		conf = High
	case bestScore >= 7:
		conf = Medium
	}
	return Detection{Dialect: best, Confidence: conf, MarkersFound: found}
}
