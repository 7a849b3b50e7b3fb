package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
	"github.com/sqlsplitter/sqlsplitter/internal/token"
)

func buildSchema(t *testing.T, d dialect.Dialect, stmts ...string) *ddl.Schema {
	t.Helper()
	b := ddl.NewBuilder(d, nil)
	for _, s := range stmts {
		kind := token.CreateTable
		if strings.HasPrefix(s, "ALTER TABLE ") {
			kind = token.AlterTable
		}
		require.NoError(t, b.Ingest(token.Statement{Kind: kind, Bytes: []byte(s)}))
	}
	return b.Schema()
}

func TestNewFromSchemaBuildsEdges(t *testing.T) {
	schema := buildSchema(t, dialect.Postgres,
		`CREATE TABLE orgs (id int PRIMARY KEY);`,
		`CREATE TABLE users (id int PRIMARY KEY, org_id int, FOREIGN KEY (org_id) REFERENCES orgs (id));`,
	)
	g := New(schema)
	assert.ElementsMatch(t, []string{"orgs"}, g.Parents("users"))
	assert.ElementsMatch(t, []string{"users"}, g.Children("orgs"))
}

func TestClassifyTenantRolesAndJunction(t *testing.T) {
	schema := buildSchema(t, dialect.Postgres,
		`CREATE TABLE orgs (id int PRIMARY KEY, tenant_id int);`,
		`CREATE TABLE statuses (id int PRIMARY KEY, label text);`,
		`CREATE TABLE users (id int PRIMARY KEY, org_id int, FOREIGN KEY (org_id) REFERENCES orgs (id));`,
		`CREATE TABLE user_roles (user_id int, role_id int, created_at timestamp, FOREIGN KEY (user_id) REFERENCES users (id), FOREIGN KEY (role_id) REFERENCES roles (id));`,
		`CREATE TABLE roles (id int PRIMARY KEY, name text);`,
	)
	g := New(schema)
	roles := Classify(g, schema, "tenant_id", nil, nil)

	assert.Equal(t, TenantRoot, roles["orgs"])
	assert.Equal(t, TenantDependent, roles["users"])
	assert.Equal(t, Junction, roles["user_roles"])
	assert.Equal(t, Lookup, roles["statuses"])
}

func TestClassifyJunctionWithThreeForeignKeys(t *testing.T) {
	schema := buildSchema(t, dialect.Postgres,
		`CREATE TABLE orgs (id int PRIMARY KEY, tenant_id int);`,
		`CREATE TABLE users (id int PRIMARY KEY, org_id int, FOREIGN KEY (org_id) REFERENCES orgs (id));`,
		`CREATE TABLE roles (id int PRIMARY KEY, name text);`,
		`CREATE TABLE projects (id int PRIMARY KEY, name text);`,
		`CREATE TABLE user_role_projects (user_id int, role_id int, project_id int, FOREIGN KEY (user_id) REFERENCES users (id), FOREIGN KEY (role_id) REFERENCES roles (id), FOREIGN KEY (project_id) REFERENCES projects (id));`,
	)
	g := New(schema)
	roles := Classify(g, schema, "tenant_id", nil, nil)

	assert.Equal(t, Junction, roles["user_role_projects"])
}

func TestClassifySystemTablesWildcardsAndConfigOverride(t *testing.T) {
	schema := buildSchema(t, dialect.Postgres,
		`CREATE TABLE orgs (id int PRIMARY KEY, tenant_id int);`,
		`CREATE TABLE migrations (id int PRIMARY KEY);`,
		`CREATE TABLE cache_locks (key text PRIMARY KEY);`,
		`CREATE TABLE telescope_entries (id int PRIMARY KEY);`,
		`CREATE TABLE custom_audit_log (id int PRIMARY KEY);`,
	)
	g := New(schema)
	roles := Classify(g, schema, "tenant_id", nil, []string{"custom_audit_*"})

	assert.Equal(t, System, roles["migrations"])
	assert.Equal(t, System, roles["cache_locks"])
	assert.Equal(t, System, roles["telescope_entries"])
	assert.Equal(t, System, roles["custom_audit_log"])
}

func TestClassifyUnclassifiedWhenNoTenantColumn(t *testing.T) {
	schema := buildSchema(t, dialect.MySQL, `CREATE TABLE t (id int PRIMARY KEY);`)
	g := New(schema)
	roles := Classify(g, schema, "", nil, nil)
	assert.Equal(t, Unclassified, roles["t"])
}
