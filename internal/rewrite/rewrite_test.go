package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sqlsplitter/sqlsplitter/internal/codec"
	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
	"github.com/sqlsplitter/sqlsplitter/internal/row"
)

func TestCreateTableDDLTranslatesTypesAndIdentity(t *testing.T) {
	table := &ddl.TableSchema{
		Name:       "users",
		PrimaryKey: []string{"id"},
		Columns: []ddl.Column{
			{Name: "id", RawType: "INT", IsPrimaryKey: true, IsIdentity: true},
			{Name: "email", RawType: "VARCHAR(255)", Nullable: false},
		},
	}
	out := CreateTableDDL(table, dialect.MySQL, dialect.Postgres)
	assert.Contains(t, out, `"users"`)
	assert.Contains(t, out, "GENERATED ALWAYS AS IDENTITY")
	assert.Contains(t, out, "VARCHAR(255)")
	assert.NotContains(t, out, "PRIMARY KEY (")
}

func TestInsertDDLRendersValues(t *testing.T) {
	rows := []row.Row{{Values: []row.Value{
		{Kind: row.Integer, Text: "1", Int64: 1},
		{Kind: row.Null},
		{Kind: row.String, Text: "a'b"},
	}}}
	out := InsertDDL("t", []string{"id", "x", "y"}, rows, dialect.Postgres)
	assert.Contains(t, out, `INSERT INTO "t"`)
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "'a''b'")
}

func TestIsSessionOnlyDropsMySQLToggle(t *testing.T) {
	assert.True(t, IsSessionOnly([]byte("SET FOREIGN_KEY_CHECKS=0;"), dialect.MySQL))
	assert.False(t, IsSessionOnly([]byte("SELECT 1;"), dialect.MySQL))
}

func TestMapTypeFallsBackToSourceWhenUnknown(t *testing.T) {
	got := codec.MapType("GEOMETRY", dialect.MySQL, dialect.Postgres)
	assert.Equal(t, "GEOMETRY", got)
}
