package ddl

import (
	"regexp"
	"strings"
)

var sizeSuffix = regexp.MustCompile(`\(.*\)$`)

// stripSize removes a trailing (n), (n,m), or (MAX) suffix for matching
// against the base type name.
func stripSize(raw string) string {
	return strings.TrimSpace(sizeSuffix.ReplaceAllString(strings.ToUpper(strings.TrimSpace(raw)), ""))
}

// booleanTypes, numericTypes, ... enumerate each dialect's spellings,
// case-insensitively, per spec.md §4.5's nominal type normalization table.
var (
	booleanTypes = map[string]bool{
		"BOOLEAN": true, "BOOL": true, "BIT": true, "TINYINT(1)": true,
	}
	numericTypes = map[string]bool{
		"INT": true, "INTEGER": true, "SMALLINT": true, "TINYINT": true, "MEDIUMINT": true,
		"BIGINT": true, "SERIAL": true, "BIGSERIAL": true, "SMALLSERIAL": true, "IDENTITY": true,
		"DECIMAL": true, "NUMERIC": true, "FLOAT": true, "DOUBLE": true, "REAL": true, "MONEY": true,
		"SMALLMONEY": true,
	}
	stringTypes = map[string]bool{
		"VARCHAR": true, "NVARCHAR": true, "CHAR": true, "NCHAR": true, "TEXT": true,
		"CLOB": true, "TINYTEXT": true, "MEDIUMTEXT": true, "LONGTEXT": true, "CITEXT": true,
	}
	binaryTypes = map[string]bool{
		"BLOB": true, "BYTEA": true, "VARBINARY": true, "BINARY": true, "TINYBLOB": true,
		"MEDIUMBLOB": true, "LONGBLOB": true, "IMAGE": true,
	}
	temporalTypes = map[string]bool{
		"DATETIME": true, "DATETIME2": true, "TIMESTAMP": true, "TIMESTAMPTZ": true,
		"DATE": true, "TIME": true, "SMALLDATETIME": true, "DATETIMEOFFSET": true,
	}
	jsonTypes = map[string]bool{"JSON": true, "JSONB": true}
	uuidTypes = map[string]bool{"UUID": true, "UNIQUEIDENTIFIER": true}
)

// NormalizeType maps a raw, dialect-specific type spelling to the shared
// NominalType enum. A boolean spelling listed with its size (TINYINT(1))
// is matched whole first; otherwise any (n)/(n,m)/(MAX) size suffix is
// stripped before matching.
// "INTEGER PRIMARY KEY" (SQLite's identity idiom) and bare "SERIAL"/
// "IDENTITY" fall under Numeric, same as a plain INT.
func NormalizeType(rawType string) NominalType {
	if booleanTypes[strings.ToUpper(strings.TrimSpace(rawType))] {
		return Boolean
	}
	base := stripSize(rawType)
	base = strings.TrimSuffix(base, " UNSIGNED")
	base = strings.TrimSuffix(base, " ZEROFILL")

	switch {
	case booleanTypes[base]:
		return Boolean
	case numericTypes[base]:
		return Numeric
	case stringTypes[base]:
		return StringType
	case binaryTypes[base]:
		return Binary
	case temporalTypes[base]:
		return Temporal
	case jsonTypes[base]:
		return Json
	case uuidTypes[base]:
		return Uuid
	case strings.Contains(base, "INT") && strings.Contains(rawType, "PRIMARY KEY"):
		return Numeric
	default:
		return Unknown
	}
}
