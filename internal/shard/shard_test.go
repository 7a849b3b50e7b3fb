package shard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
	"github.com/sqlsplitter/sqlsplitter/internal/graph"
	"github.com/sqlsplitter/sqlsplitter/internal/row"
	"github.com/sqlsplitter/sqlsplitter/internal/token"
)

func TestRouterShardKeyFromRoot(t *testing.T) {
	b := ddl.NewBuilder(dialect.Postgres, nil)
	require.NoError(t, b.Ingest(token.Statement{Kind: token.CreateTable, Bytes: []byte(`CREATE TABLE orgs (id int PRIMARY KEY, tenant_id text);`)}))
	schema := b.Schema()
	g := graph.New(schema)
	router := NewRouter(schema, g, "tenant_id", nil, nil)

	assert.Equal(t, graph.TenantRoot, router.RoleOf("orgs"))
	key, err := router.ShardKeyFromRoot(map[string]row.Value{"tenant_id": {Kind: row.String, Text: "acme"}})
	require.NoError(t, err)
	assert.Equal(t, "acme", key)
}

func TestRememberAndLookupShardKey(t *testing.T) {
	router := &Router{resolved: make(map[string]map[string]string)}
	router.RememberShardKey("orgs", "7", "acme")
	key, ok := router.LookupShardKey("Orgs", "7")
	require.True(t, ok)
	assert.Equal(t, "acme", key)
}

func TestShardFileNameSanitizes(t *testing.T) {
	assert.Equal(t, "ac_me__users.sql", ShardFileName("users", "ac/me"))
}
