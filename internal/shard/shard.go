// Package shard implements the shard command: routing each row to an
// output partition keyed by its tenant, using C7's tenant classification
// to decide how a non-root table's tenant is determined.
package shard

import (
	"fmt"
	"strings"

	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
	"github.com/sqlsplitter/sqlsplitter/internal/graph"
	"github.com/sqlsplitter/sqlsplitter/internal/row"
)

// Router decides, for each row, which shard key (tenant value) it belongs
// to so the caller can route the row's re-serialized statement to the
// right per-shard sink.
type Router struct {
	schema       *ddl.Schema
	roles        map[string]graph.TenantRole
	tenantColumn string
	// resolved caches, for TenantDependent/Junction tables, the shard key
	// resolved for each parent row's PK tuple, so a child row referencing
	// a parent indirectly (two hops away from TenantRoot) still resolves.
	resolved map[string]map[string]string // table -> pk text -> shard key
}

// NewRouter builds a Router. schema and g must describe the same dataset;
// tenantColumn is the column whose value directly names the shard on
// TenantRoot tables. extraSystemTables adds names/glob patterns to the
// built-in System deny-list (see graph.Classify).
func NewRouter(schema *ddl.Schema, g *graph.Graph, tenantColumn string, allowlist map[string]bool, extraSystemTables []string) *Router {
	return &Router{
		schema:       schema,
		roles:        graph.Classify(g, schema, tenantColumn, allowlist, extraSystemTables),
		tenantColumn: tenantColumn,
		resolved:     make(map[string]map[string]string),
	}
}

// RoleOf returns the classified TenantRole for table.
func (r *Router) RoleOf(table string) graph.TenantRole {
	return r.roles[strings.ToLower(table)]
}

// ShardKeyFromRoot extracts the shard key directly from a TenantRoot row's
// column values.
func (r *Router) ShardKeyFromRoot(colValues map[string]row.Value) (string, error) {
	v, ok := colValues[strings.ToLower(r.tenantColumn)]
	if !ok || v.IsNull() {
		return "", fmt.Errorf("tenant column %q missing or NULL on root row", r.tenantColumn)
	}
	return valueText(v), nil
}

// RememberShardKey records that pkText (the row's primary key, rendered as
// text) on table resolved to shardKey, so dependent rows referencing this
// row via FK can look it up later.
func (r *Router) RememberShardKey(table, pkText, shardKey string) {
	table = strings.ToLower(table)
	m, ok := r.resolved[table]
	if !ok {
		m = make(map[string]string)
		r.resolved[table] = m
	}
	m[pkText] = shardKey
}

// LookupShardKey returns the shard key previously remembered for
// table/pkText, if any.
func (r *Router) LookupShardKey(table, pkText string) (string, bool) {
	m, ok := r.resolved[strings.ToLower(table)]
	if !ok {
		return "", false
	}
	key, ok := m[pkText]
	return key, ok
}

func valueText(v row.Value) string {
	return v.Text
}

// ShardFileName renders the conventional per-shard output file name for
// table under shardKey.
func ShardFileName(table, shardKey string) string {
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '.' {
			return '_'
		}
		return r
	}, shardKey)
	return fmt.Sprintf("%s__%s.sql", safe, table)
}
