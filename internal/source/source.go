// Package source implements the C1 byte reader: a single-pass buffered
// front end over a file or stdin that auto-detects compression by magic
// bytes and presents peek/consume/fill semantics to the tokenizer.
package source

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Codec identifies the compression wrapping the input stream.
type Codec int

const (
	Raw Codec = iota
	Gzip
	Bzip2
	Xz
	Zstd
)

func (c Codec) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	case Xz:
		return "xz"
	case Zstd:
		return "zstd"
	default:
		return "raw"
	}
}

const bufSize = 256 * 1024

// IOError wraps a failure to read from the underlying source.
type IOError struct {
	Err error
}

func (e *IOError) Error() string { return fmt.Sprintf("io error: %v", e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// CodecError wraps a failure from a decompressor.
type CodecError struct {
	Codec Codec
	Err   error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec error (%s): %v", e.Codec, e.Err)
}
func (e *CodecError) Unwrap() error { return e.Err }

// DetectCodec inspects up to the first 6 bytes for known magic numbers.
func DetectCodec(head []byte) Codec {
	switch {
	case len(head) >= 2 && head[0] == 0x1f && head[1] == 0x8b:
		return Gzip
	case len(head) >= 3 && head[0] == 0x42 && head[1] == 0x5a && head[2] == 0x68:
		return Bzip2
	case len(head) >= 6 && bytes.Equal(head[:6], []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}):
		return Xz
	case len(head) >= 4 && bytes.Equal(head[:4], []byte{0x28, 0xb5, 0x2f, 0xfd}):
		return Zstd
	default:
		return Raw
	}
}

// BufferedByteSource presents peek/consume/fill over a possibly-decompressed
// stream, tracking absolute byte position for Statement byte ranges.
type BufferedByteSource struct {
	r        *bufio.Reader
	pos      uint64
	codec    Codec
	closeFns []func() error
}

// Open wraps r, auto-detecting compression from its magic bytes unless
// forced is non-nil.
func Open(r io.Reader, forced *Codec) (*BufferedByteSource, error) {
	br := bufio.NewReaderSize(r, bufSize)

	head, err := br.Peek(6)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, &IOError{Err: err}
	}

	codec := DetectCodec(head)
	if forced != nil {
		codec = *forced
	}

	bs := &BufferedByteSource{codec: codec}

	var decompressed io.Reader
	switch codec {
	case Raw:
		decompressed = br
	case Gzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, &CodecError{Codec: Gzip, Err: err}
		}
		bs.closeFns = append(bs.closeFns, gz.Close)
		decompressed = gz
	case Bzip2:
		decompressed = bzip2.NewReader(br)
	case Xz:
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, &CodecError{Codec: Xz, Err: err}
		}
		decompressed = xr
	case Zstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, &CodecError{Codec: Zstd, Err: err}
		}
		bs.closeFns = append(bs.closeFns, func() error { zr.Close(); return nil })
		decompressed = zr
	}

	bs.r = bufio.NewReaderSize(decompressed, bufSize)
	return bs, nil
}

// Codec reports the detected or forced compression codec.
func (s *BufferedByteSource) Codec() Codec { return s.codec }

// Position returns the number of (decompressed) bytes consumed so far.
func (s *BufferedByteSource) Position() uint64 { return s.pos }

// Peek returns up to n bytes without consuming them. It may return fewer
// bytes than requested at EOF.
func (s *BufferedByteSource) Peek(n int) ([]byte, error) {
	b, err := s.r.Peek(n)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return b, &IOError{Err: err}
	}
	return b, nil
}

// Consume discards n bytes, which must already have been observed via Peek
// or Fill, advancing Position.
func (s *BufferedByteSource) Consume(n int) {
	discarded, _ := s.r.Discard(n)
	s.pos += uint64(discarded)
}

// Fill guarantees at least min bytes are buffered unless EOF is reached.
func (s *BufferedByteSource) Fill(min int) error {
	_, err := s.r.Peek(min)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return &IOError{Err: err}
	}
	return nil
}

// ReadByte consumes and returns a single byte.
func (s *BufferedByteSource) ReadByte() (byte, error) {
	b, err := s.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return 0, io.EOF
		}
		return 0, &IOError{Err: err}
	}
	s.pos++
	return b, nil
}

// ReadLine reads one line, including its trailing '\n' if present. Used by
// the COPY data-line reader, which bypasses the statement tokenizer.
func (s *BufferedByteSource) ReadLine() ([]byte, error) {
	line, err := s.r.ReadBytes('\n')
	s.pos += uint64(len(line))
	if err != nil {
		if err == io.EOF {
			if len(line) == 0 {
				return nil, io.EOF
			}
			return line, nil
		}
		return line, &IOError{Err: err}
	}
	return line, nil
}

// Close releases any decompressor resources.
func (s *BufferedByteSource) Close() error {
	var first error
	for _, fn := range s.closeFns {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
