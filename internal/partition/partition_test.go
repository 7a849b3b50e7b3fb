package partition

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct {
	*bytes.Buffer
	closed bool
}

func (m *memSink) Close() error { m.closed = true; return nil }

func TestPartitionerRoutesPerTable(t *testing.T) {
	bufs := map[string]*memSink{}
	p := New(func(table string) (io.WriteCloser, error) {
		m := &memSink{Buffer: &bytes.Buffer{}}
		bufs[table] = m
		return m, nil
	})

	require.NoError(t, p.Write("users", []byte("INSERT INTO users VALUES (1);\n")))
	require.NoError(t, p.Write("orders", []byte("INSERT INTO orders VALUES (1);\n")))
	require.NoError(t, p.Write("users", []byte("INSERT INTO users VALUES (2);\n")))

	stats, err := p.Close()
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "orders", stats[0].Table)
	assert.Equal(t, "users", stats[1].Table)
	assert.True(t, bufs["users"].closed)
	assert.Contains(t, bufs["users"].String(), "VALUES (2)")
	assert.True(t, bufs["orders"].closed)
}
