package source

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectCodecMagicBytes(t *testing.T) {
	assert.Equal(t, Gzip, DetectCodec([]byte{0x1f, 0x8b, 0x08}))
	assert.Equal(t, Bzip2, DetectCodec([]byte("BZh9")))
	assert.Equal(t, Xz, DetectCodec([]byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}))
	assert.Equal(t, Zstd, DetectCodec([]byte{0x28, 0xb5, 0x2f, 0xfd}))
	assert.Equal(t, Raw, DetectCodec([]byte("CREATE TABLE")))
}

func TestOpenRawReadsThrough(t *testing.T) {
	src, err := Open(bytes.NewReader([]byte("hello world")), nil)
	require.NoError(t, err)
	defer src.Close()

	b, err := src.Peek(5)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), b)
	src.Consume(5)
	assert.Equal(t, uint64(5), src.Position())
}

func TestOpenGzipDecompresses(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte("SELECT 1;"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	src, err := Open(&buf, nil)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, Gzip, src.Codec())

	all, err := io.ReadAll(asReader(src))
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1;", string(all))
}

func asReader(s *BufferedByteSource) io.Reader {
	return readerFunc(func(p []byte) (int, error) {
		b, err := s.Peek(len(p))
		if len(b) == 0 {
			if err == nil {
				err = io.EOF
			}
			return 0, err
		}
		n := copy(p, b)
		s.Consume(n)
		return n, nil
	})
}

type readerFunc func([]byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }
