package row

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
)

func TestParseInsertTuplesBasic(t *testing.T) {
	stmt := []byte(`INSERT INTO t (id, name) VALUES (1, 'a;b'), (2, NULL);`)
	cols, rows, err := ParseInsertTuples(stmt, dialect.MySQL, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, cols)
	require.Len(t, rows, 2)
	assert.Equal(t, Integer, rows[0].Values[0].Kind)
	assert.Equal(t, int64(1), rows[0].Values[0].Int64)
	assert.Equal(t, "a;b", rows[0].Values[1].Text)
	assert.True(t, rows[1].Values[1].IsNull())
}

func TestParseInsertTuplesEscapedQuote(t *testing.T) {
	stmt := []byte(`INSERT INTO t VALUES (1, 'c\'d');`)
	_, rows, err := ParseInsertTuples(stmt, dialect.MySQL, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, `c'd`, rows[0].Values[1].Text)
}

func TestParseInsertTuplesProjection(t *testing.T) {
	stmt := []byte(`INSERT INTO t (id, name, org_id) VALUES (1, 'a', 9);`)
	_, rows, err := ParseInsertTuples(stmt, dialect.MySQL, []string{"org_id", "id"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Values, 2)
	assert.Equal(t, int64(9), rows[0].Values[0].Int64)
	assert.Equal(t, int64(1), rows[0].Values[1].Int64)
}

func TestParseCopyLineNullAndEscapes(t *testing.T) {
	cols := []string{"id", "name", "bio"}
	row := ParseCopyLine([]byte("1\t\\N\tline1\\nline2"), cols, nil)
	require.Len(t, row.Values, 3)
	assert.Equal(t, int64(1), row.Values[0].Int64)
	assert.True(t, row.Values[1].IsNull())
	assert.Equal(t, "line1\nline2", row.Values[2].Text)
}

func TestParseCopyHeaderColumns(t *testing.T) {
	cols := ParseCopyHeader([]byte("COPY public.orders (id, total) FROM stdin;"))
	assert.Equal(t, []string{"id", "total"}, cols)
}

func TestIsCopyTerminator(t *testing.T) {
	assert.True(t, IsCopyTerminator([]byte(`\.`)))
	assert.False(t, IsCopyTerminator([]byte(`1\t2`)))
}
