package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
	"github.com/sqlsplitter/sqlsplitter/internal/token"
)

func stmt(kind token.Kind, table, sql string) token.Statement {
	return token.Statement{Kind: kind, TargetTable: table, Bytes: []byte(sql)}
}

func TestBuilderParsesMySQLCreateTable(t *testing.T) {
	b := NewBuilder(dialect.MySQL, nil)
	sql := "CREATE TABLE `users` (" +
		"`id` INT NOT NULL AUTO_INCREMENT PRIMARY KEY, " +
		"`org_id` INT NOT NULL, " +
		"`name` VARCHAR(255) DEFAULT 'anon', " +
		"FOREIGN KEY (`org_id`) REFERENCES `orgs` (`id`) ON DELETE CASCADE" +
		");"
	require.NoError(t, b.Ingest(stmt(token.CreateTable, "users", sql)))

	tbl, ok := b.Schema().Table("users")
	require.True(t, ok)
	require.Len(t, tbl.Columns, 3)
	assert.True(t, tbl.Columns[0].IsIdentity)
	assert.True(t, tbl.Columns[0].IsPrimaryKey)
	assert.Equal(t, []string{"id"}, tbl.PrimaryKey)
	assert.Equal(t, "anon'", tbl.Columns[2].DefaultExpr[len(tbl.Columns[2].DefaultExpr)-5:])
	require.Len(t, tbl.ForeignKeys, 1)
	assert.Equal(t, "orgs", tbl.ForeignKeys[0].ToTable)
	assert.Equal(t, "CASCADE", tbl.ForeignKeys[0].OnDelete)
}

func TestBuilderParsesSQLitePrimaryKeyIdentity(t *testing.T) {
	b := NewBuilder(dialect.SQLite, nil)
	sql := `CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT);`
	require.NoError(t, b.Ingest(stmt(token.CreateTable, "t", sql)))
	tbl, ok := b.Schema().Table("t")
	require.True(t, ok)
	assert.True(t, tbl.Columns[0].IsIdentity)
}

func TestBuilderParsesPostgresQualifiedName(t *testing.T) {
	b := NewBuilder(dialect.Postgres, nil)
	sql := `CREATE TABLE "public"."orders" (id serial PRIMARY KEY, total numeric);`
	require.NoError(t, b.Ingest(stmt(token.CreateTable, "orders", sql)))
	tbl, ok := b.Schema().Table("orders")
	require.True(t, ok)
	assert.Equal(t, "orders", tbl.Name)
	assert.True(t, tbl.Columns[0].IsIdentity)
}

func TestBuilderAlterTableAddsForeignKey(t *testing.T) {
	b := NewBuilder(dialect.Postgres, nil)
	require.NoError(t, b.Ingest(stmt(token.CreateTable, "orgs", `CREATE TABLE orgs (id int PRIMARY KEY);`)))
	require.NoError(t, b.Ingest(stmt(token.CreateTable, "users", `CREATE TABLE users (id int PRIMARY KEY, org_id int);`)))
	alter := `ALTER TABLE users ADD CONSTRAINT fk_org FOREIGN KEY (org_id) REFERENCES orgs (id);`
	require.NoError(t, b.Ingest(stmt(token.AlterTable, "users", alter)))

	tbl, _ := b.Schema().Table("users")
	require.Len(t, tbl.ForeignKeys, 1)
	assert.Equal(t, "orgs", tbl.ForeignKeys[0].ToTable)
	assert.False(t, tbl.ForeignKeys[0].Unresolved)
}

func TestBuilderStandaloneCreateIndex(t *testing.T) {
	b := NewBuilder(dialect.MySQL, nil)
	require.NoError(t, b.Ingest(stmt(token.CreateTable, "t", `CREATE TABLE t (id int, email varchar(255));`)))
	require.NoError(t, b.Ingest(stmt(token.CreateIndex, "t", `CREATE UNIQUE INDEX idx_email ON t (email);`)))
	tbl, _ := b.Schema().Table("t")
	require.Len(t, tbl.Indexes, 1)
	assert.True(t, tbl.Indexes[0].Unique)
	assert.Equal(t, []string{"email"}, tbl.Indexes[0].Columns)
}
