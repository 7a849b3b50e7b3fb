package graph

import (
	"path"
	"strings"

	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
)

// TenantRole categorizes a table's relationship to the tenant column, used
// by the shard command to decide how to partition its rows.
type TenantRole int

const (
	// Unclassified applies when no tenant column name was given.
	Unclassified TenantRole = iota
	// TenantRoot tables carry a column named like the tenant column
	// themselves (matched case-insensitively, whatever its key or
	// nullability).
	TenantRoot
	// TenantDependent tables reach a TenantRoot transitively via FK but do
	// not carry the tenant column themselves.
	TenantDependent
	// Junction tables have two or more outbound FKs to distinct parents,
	// no other non-key columns beyond a conventional timestamp set, and
	// exist purely to associate other tables (many-to-many link tables).
	Junction
	// Lookup is every remaining table: not System, without the tenant
	// column, not a Junction, and not reaching a TenantRoot via FKs.
	Lookup
	// System tables are explicitly out of the tenant model (migration
	// ledgers, schema version tables) and are never partitioned.
	System
)

func (r TenantRole) String() string {
	switch r {
	case TenantRoot:
		return "tenant_root"
	case TenantDependent:
		return "tenant_dependent"
	case Junction:
		return "junction"
	case Lookup:
		return "lookup"
	case System:
		return "system"
	default:
		return "unclassified"
	}
}

// systemTableNames lists conventional infrastructure tables that are never
// tenant-scoped, regardless of their FK shape.
var systemTableNames = map[string]bool{
	"schema_migrations":     true,
	"ar_internal_metadata":  true,
	"gorp_migrations":       true,
	"flyway_schema_history": true,
	"migrations":            true,
	"failed_jobs":           true,
	"job_batches":           true,
	"sessions":              true,
	"django_migrations":     true,
}

// systemTableWildcards lists glob patterns (matched with path.Match)
// against conventional infrastructure table name prefixes that vary by
// installation, e.g. Laravel's per-tag cache tables.
var systemTableWildcards = []string{
	"cache*",
	"telescope_*",
	"pulse_*",
}

// isSystemTable reports whether name matches a built-in system-table name
// or wildcard, or one of the caller-supplied extra patterns from
// sqlsplitter.yaml's system_tables list (exact names or glob patterns,
// both matched case-insensitively).
func isSystemTable(name string, extra []string) bool {
	if systemTableNames[name] {
		return true
	}
	for _, pat := range systemTableWildcards {
		if ok, _ := path.Match(pat, name); ok {
			return true
		}
	}
	for _, pat := range extra {
		pat = strings.ToLower(pat)
		if pat == name {
			return true
		}
		if ok, _ := path.Match(pat, name); ok {
			return true
		}
	}
	return false
}

// DefaultJunctionTimestampAllowlist is the set of timestamp-ish column
// names a junction table may carry beyond its FK and primary-key columns without being
// disqualified from Junction classification, addressing spec.md §9's open
// question about how strict the junction-table heuristic should be.
var DefaultJunctionTimestampAllowlist = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"deleted_at":  true,
	"created":     true,
	"updated":     true,
	"inserted_at": true,
}

// Classify assigns a TenantRole to every table in the graph. tenantColumn
// is the column name (case-insensitive) that marks direct tenant
// ownership; if empty, every table is Unclassified. allowlist overrides
// DefaultJunctionTimestampAllowlist when non-nil. extraSystemTables adds
// caller-supplied names/glob patterns (from sqlsplitter.yaml's
// system_tables) to the built-in System deny-list.
func Classify(g *Graph, schema *ddl.Schema, tenantColumn string, allowlist map[string]bool, extraSystemTables []string) map[string]TenantRole {
	if allowlist == nil {
		allowlist = DefaultJunctionTimestampAllowlist
	}
	result := make(map[string]TenantRole, len(g.allNodes))
	if tenantColumn == "" {
		for _, n := range g.allNodes {
			result[n] = Unclassified
		}
		return result
	}

	roots := make(map[string]bool)
	for _, t := range schema.Tables() {
		name := strings.ToLower(t.Name)
		if isSystemTable(name, extraSystemTables) {
			result[name] = System
			continue
		}
		if _, ok := t.ColumnByName(tenantColumn); ok {
			roots[name] = true
			result[name] = TenantRoot
		}
	}

	for _, n := range g.allNodes {
		if _, done := result[n]; done {
			continue
		}
		t, ok := schema.Table(n)
		if !ok {
			result[n] = Unclassified
			continue
		}
		if isJunction(t, allowlist) {
			result[n] = Junction
			continue
		}
		if dependsOnRoot(g, n, roots) {
			result[n] = TenantDependent
			continue
		}
		result[n] = Lookup
	}
	return result
}

// dependsOnRoot reports whether table transitively reaches any table in
// roots by following FK edges outward.
func dependsOnRoot(g *Graph, table string, roots map[string]bool) bool {
	for _, p := range g.ReachableFrom(table) {
		if roots[p] {
			return true
		}
	}
	return false
}

// isJunction applies the heuristic from spec.md §4.7: two or more foreign
// keys to distinct parent tables, no other columns beyond their FK
// columns, the table's own primary-key columns and a conventional
// timestamp allowlist.
func isJunction(t *ddl.TableSchema, allowlist map[string]bool) bool {
	if len(t.ForeignKeys) < 2 {
		return false
	}
	parents := make(map[string]bool, len(t.ForeignKeys))
	fkCols := make(map[string]bool)
	for _, fk := range t.ForeignKeys {
		parents[strings.ToLower(fk.ToTable)] = true
		for _, c := range fk.FromColumns {
			fkCols[strings.ToLower(c)] = true
		}
	}
	if len(parents) < 2 {
		return false
	}
	pkCols := make(map[string]bool, len(t.PrimaryKey))
	for _, c := range t.PrimaryKey {
		pkCols[strings.ToLower(c)] = true
	}
	for _, c := range t.Columns {
		name := strings.ToLower(c.Name)
		if fkCols[name] || pkCols[name] || c.IsPrimaryKey || allowlist[name] {
			continue
		}
		return false
	}
	return true
}

// RoleCounts summarizes a classification map for report output, in a
// deterministic order.
func RoleCounts(roles map[string]TenantRole) []struct {
	Role  string
	Count int
} {
	counts := make(map[TenantRole]int)
	for _, r := range roles {
		counts[r]++
	}
	order := []TenantRole{TenantRoot, TenantDependent, Junction, Lookup, System, Unclassified}
	out := make([]struct {
		Role  string
		Count int
	}, 0, len(order))
	for _, r := range order {
		if counts[r] > 0 {
			out = append(out, struct {
				Role  string
				Count int
			}{Role: r.String(), Count: counts[r]})
		}
	}
	return out
}
