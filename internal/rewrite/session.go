package rewrite

import (
	"regexp"
	"strings"

	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
)

// sessionOnlyPatterns match statements that are meaningful only in their
// originating dialect (charset/foreign-key-check toggles, search_path,
// ANSI option flags) and should be dropped rather than translated when
// converting between dialects, per spec.md §4.9.
var sessionOnlyPatterns = map[dialect.Dialect][]*regexp.Regexp{
	dialect.MySQL: {
		regexp.MustCompile(`(?i)^\s*SET\s+(FOREIGN_KEY_CHECKS|SQL_MODE|NAMES|CHARACTER_SET_CLIENT|TIME_ZONE)\b`),
		regexp.MustCompile(`(?i)^\s*(LOCK|UNLOCK)\s+TABLES\b`),
	},
	dialect.Postgres: {
		regexp.MustCompile(`(?i)^\s*SET\s+(search_path|statement_timeout|client_encoding)\b`),
		regexp.MustCompile(`(?i)^\s*SELECT\s+pg_catalog\.set_config\b`),
	},
	dialect.Mssql: {
		regexp.MustCompile(`(?i)^\s*SET\s+(ANSI_NULLS|QUOTED_IDENTIFIER|ANSI_PADDING|ANSI_WARNINGS|NOCOUNT)\b`),
	},
	dialect.SQLite: {
		regexp.MustCompile(`(?i)^\s*PRAGMA\b`),
	},
}

// IsSessionOnly reports whether stmt is a session/connection-state
// statement specific to d that should be dropped when rewriting into a
// different target dialect.
func IsSessionOnly(stmt []byte, d dialect.Dialect) bool {
	s := strings.TrimSpace(string(stmt))
	for _, re := range sessionOnlyPatterns[d] {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
