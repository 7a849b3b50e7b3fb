package token

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
)

// sliceReader adapts a byte slice to the byteReader interface the
// Tokenizer needs, without pulling in the source package's compression
// machinery for these unit tests.
type sliceReader struct {
	buf []byte
	pos int
}

func (r *sliceReader) ReadByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, io.EOF
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *sliceReader) Peek(n int) ([]byte, error) {
	end := r.pos + n
	if end > len(r.buf) {
		end = len(r.buf)
	}
	if end <= r.pos {
		return nil, io.EOF
	}
	return r.buf[r.pos:end], nil
}

func (r *sliceReader) Position() uint64 { return uint64(r.pos) }

func collectAll(t *testing.T, input string, d dialect.Dialect) []Statement {
	t.Helper()
	tok := New(&sliceReader{buf: []byte(input)}, d, nil)
	var stmts []Statement
	for {
		s, err := tok.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		stmts = append(stmts, s.Clone())
	}
	return stmts
}

func TestTokenizerSplitsOnSemicolon(t *testing.T) {
	input := "CREATE TABLE `a` (`id` INT PRIMARY KEY);\n" +
		"CREATE TABLE `b` (`id` INT PRIMARY KEY);\n" +
		"INSERT INTO `a` VALUES (1),(2);\n" +
		"INSERT INTO `b` VALUES (10);\n"
	stmts := collectAll(t, input, dialect.MySQL)
	require.Len(t, stmts, 4)
	for i, s := range stmts {
		assert.Truef(t, bytes.Contains(s.Bytes, []byte(";")), "statement %d missing terminator", i)
	}
}

func TestTokenizerBackslashEscapeInString(t *testing.T) {
	input := `INSERT INTO t VALUES ('a;b','c\'d');`
	stmts := collectAll(t, input, dialect.MySQL)
	require.Len(t, stmts, 1)
	assert.Equal(t, input, string(stmts[0].Bytes))
}

func TestTokenizerDoubledQuoteEscape(t *testing.T) {
	input := `INSERT INTO t VALUES ('it''s fine');`
	stmts := collectAll(t, input, dialect.Postgres)
	require.Len(t, stmts, 1)
	assert.Equal(t, input, string(stmts[0].Bytes))
}

func TestTokenizerDollarQuote(t *testing.T) {
	input := "CREATE FUNCTION f() RETURNS void AS $$ BEGIN x := 'a;b'; END; $$ LANGUAGE plpgsql;"
	stmts := collectAll(t, input, dialect.Postgres)
	require.Len(t, stmts, 1)
	assert.Equal(t, input, string(stmts[0].Bytes))
}

func TestTokenizerDollarQuoteWithTag(t *testing.T) {
	input := "SELECT $tag$semi;colon$tag$ AS x;"
	stmts := collectAll(t, input, dialect.Postgres)
	require.Len(t, stmts, 1)
}

func TestTokenizerMssqlGoSeparator(t *testing.T) {
	input := "CREATE TABLE [dbo].[A] ([Id] INT)\nGO\nCREATE TABLE [dbo].[B] ([Id] INT)\nGO 2\n"
	stmts := collectAll(t, input, dialect.Mssql)
	require.Len(t, stmts, 2)
	assert.Contains(t, string(stmts[0].Bytes), "[A]")
	assert.Contains(t, string(stmts[1].Bytes), "[B]")
}

func TestTokenizerLineAndBlockComments(t *testing.T) {
	input := "-- a comment with ; inside\nCREATE TABLE t (id INT); /* block ; comment */\n"
	stmts := collectAll(t, input, dialect.MySQL)
	require.Len(t, stmts, 2)
}

func TestTokenizerTruncatedString(t *testing.T) {
	input := "INSERT INTO t VALUES ('unterminated"
	tok := New(&sliceReader{buf: []byte(input)}, dialect.MySQL, nil)
	s, err := tok.Next()
	require.NoError(t, err)
	assert.True(t, s.Truncated)

	_, err = tok.Next()
	assert.Equal(t, io.EOF, err)
}

func TestClassifyStatements(t *testing.T) {
	kind, table := Classify([]byte("CREATE TABLE `users` (`id` INT);"), dialect.MySQL)
	assert.Equal(t, CreateTable, kind)
	assert.Equal(t, "users", table)

	kind, table = Classify([]byte(`INSERT INTO "public"."orders" VALUES (1);`), dialect.Postgres)
	assert.Equal(t, Insert, kind)
	assert.Equal(t, "orders", table)

	kind, _ = Classify([]byte("SET FOREIGN_KEY_CHECKS=0;"), dialect.MySQL)
	assert.Equal(t, Session, kind)

	kind, table = Classify([]byte("COPY t (id, x) FROM stdin;"), dialect.Postgres)
	assert.Equal(t, Copy, kind)
	assert.Equal(t, "t", table)
}
