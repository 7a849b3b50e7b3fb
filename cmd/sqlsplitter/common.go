package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
	"github.com/sqlsplitter/sqlsplitter/internal/pipeline"
	"github.com/sqlsplitter/sqlsplitter/internal/row"
	"github.com/sqlsplitter/sqlsplitter/internal/source"
	"github.com/sqlsplitter/sqlsplitter/internal/token"
)

// openInputFile opens gf.input, returning os.Stdin when it is "-".
func openInputFile() (*os.File, error) {
	if gf.input == "-" || gf.input == "" {
		return os.Stdin, nil
	}
	f, err := os.Open(gf.input)
	if err != nil {
		return nil, &pipeline.InputError{Err: err}
	}
	return f, nil
}

// forcedCodec parses --codec, if given, into a source.Codec pointer.
func forcedCodec() (*source.Codec, error) {
	if gf.codecName == "" {
		return nil, nil
	}
	switch gf.codecName {
	case "gzip":
		c := source.Gzip
		return &c, nil
	case "bzip2":
		c := source.Bzip2
		return &c, nil
	case "xz":
		c := source.Xz
		return &c, nil
	case "zstd":
		c := source.Zstd
		return &c, nil
	case "raw", "none":
		c := source.Raw
		return &c, nil
	default:
		return nil, fmt.Errorf("unknown --codec %q", gf.codecName)
	}
}

// openSource opens the input file and wraps it in a BufferedByteSource,
// applying any forced codec from --codec.
func openSource() (*source.BufferedByteSource, *os.File, error) {
	f, err := openInputFile()
	if err != nil {
		return nil, nil, err
	}
	codec, err := forcedCodec()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	src, err := source.Open(f, codec)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return src, f, nil
}

// resolveDialect determines the dialect to parse with: --dialect if given,
// else auto-detected from src's header window. It must be called before
// any bytes are consumed from src for row/statement parsing, since
// Detect only peeks.
func resolveDialect(src *source.BufferedByteSource) (dialect.Dialect, error) {
	if gf.dialectName != "" {
		d, ok := dialect.Parse(gf.dialectName)
		if !ok {
			return 0, fmt.Errorf("unknown --dialect %q", gf.dialectName)
		}
		return d, nil
	}
	header, err := src.Peek(dialect.HeaderWindow)
	if err != nil && len(header) == 0 {
		return 0, fmt.Errorf("read header for dialect detection: %w", err)
	}
	det := dialect.Detect(header)
	return det.Dialect, nil
}

// newTokenizer builds a Tokenizer reading from src under ctx's dialect.
func newTokenizer(src *source.BufferedByteSource, ctx *pipeline.Context) *token.Tokenizer {
	return token.New(src, ctx.Dialect, ctx)
}

// closeAll closes each closer, ignoring any error, for defer chains
// where the primary error path is already handled.
func closeAll(closers ...interface{ Close() error }) {
	for _, c := range closers {
		_ = c.Close()
	}
}

// StatementHandler receives each top-level statement, classified, plus the
// rows a COPY ... FROM stdin block carried (nil for every other kind).
type StatementHandler func(stmt token.Statement, copyRows []row.Row, copyCols []string) error

// walkDump tokenizes src under ctx's dialect, classifying each statement
// and transparently draining any COPY data block that follows a Copy
// header before resuming tokenization. COPY payloads are not semicolon
// delimited SQL, so they are read line-by-line straight off src rather
// than through the tokenizer, per spec.md §4.6.
func walkDump(src *source.BufferedByteSource, ctx *pipeline.Context, fn StatementHandler) error {
	tok := newTokenizer(src, ctx)
	for {
		if ctx.Cancelled() {
			return &pipeline.CancelledError{}
		}
		stmt, err := tok.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if stmt.Truncated {
			return &pipeline.TokenizationError{Offset: stmt.ByteRange.Offset, Kind: pipeline.TruncatedString}
		}

		kind, table := token.Classify(stmt.Bytes, ctx.Dialect)
		stmt.Kind = kind
		stmt.TargetTable = table

		if kind == token.Copy {
			cols := row.ParseCopyHeader(stmt.Bytes)
			rows, derr := drainCopyData(src, cols)
			if derr != nil {
				return derr
			}
			if err := fn(stmt, rows, cols); err != nil {
				return err
			}
			continue
		}
		if err := fn(stmt, nil, nil); err != nil {
			return err
		}
	}
}

// drainCopyData reads raw lines from src until the "\." terminator or EOF,
// parsing each into a Row against cols.
func drainCopyData(src *source.BufferedByteSource, cols []string) ([]row.Row, error) {
	var rows []row.Row
	// The tokenizer stops at the header's ';', so the first line read is
	// the rest of the header line, not data.
	headerRest := true
	for {
		line, err := src.ReadLine()
		if err != nil {
			if err == io.EOF {
				return rows, nil
			}
			return rows, err
		}
		if row.IsCopyTerminator(line) {
			return rows, nil
		}
		line = bytes.TrimRight(line, "\r\n")
		if headerRest {
			headerRest = false
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
		}
		rows = append(rows, row.ParseCopyLine(line, cols, nil))
	}
}

const readChunk = 256 * 1024

// drainToMemory reads src to exhaustion (decompressed), for commands that
// need two independent passes over the same dump (a schema pass, then a
// data pass) and so cannot rely on the source being forward-only. Buffering
// trades memory for that second pass; split, validate and redact read the
// input as a stream instead (redact's shuffle strategy opens it twice).
func drainToMemory(src *source.BufferedByteSource) ([]byte, error) {
	var buf bytes.Buffer
	for {
		chunk, err := src.Peek(readChunk)
		if len(chunk) > 0 {
			buf.Write(chunk)
			src.Consume(len(chunk))
		}
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			return buf.Bytes(), nil
		}
	}
}

// openBufferedInput reads the whole (decompressed) input into memory and
// resolves its dialect once, so callers can build as many independent
// source.BufferedByteSource passes over buf as they need via
// newMemorySource.
func openBufferedInput() ([]byte, dialect.Dialect, error) {
	src, f, err := openSource()
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	buf, err := drainToMemory(src)
	if err != nil {
		return nil, 0, err
	}
	d, err := resolveDialect(newMemorySourceMust(buf))
	if err != nil {
		return nil, 0, err
	}
	return buf, d, nil
}

// openBufferedInputAt mirrors openBufferedInput but reads path directly
// instead of gf.input, for subcommands (diff) that compare two dumps and so
// need a second input independent of the global --input flag.
func openBufferedInputAt(path string) ([]byte, dialect.Dialect, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, &pipeline.InputError{Err: err}
	}
	defer f.Close()
	codec, err := forcedCodec()
	if err != nil {
		return nil, 0, err
	}
	src, err := source.Open(f, codec)
	if err != nil {
		return nil, 0, err
	}
	buf, err := drainToMemory(src)
	if err != nil {
		return nil, 0, err
	}
	d, err := resolveDialect(newMemorySourceMust(buf))
	if err != nil {
		return nil, 0, err
	}
	return buf, d, nil
}

// newMemorySource wraps an in-memory dump buffer as an uncompressed
// BufferedByteSource, for a repeat pass over data already drained by
// drainToMemory.
func newMemorySource(buf []byte) (*source.BufferedByteSource, error) {
	raw := source.Raw
	return source.Open(bytes.NewReader(buf), &raw)
}

func newMemorySourceMust(buf []byte) *source.BufferedByteSource {
	src, _ := newMemorySource(buf)
	return src
}

// buildSchema walks buf once, feeding only CreateTable/AlterTable/
// CreateIndex statements to a ddl.Builder and discarding any row data
// (including draining, and discarding, COPY blocks so the tokenizer stays
// in sync).
func buildSchema(buf []byte, ctx *pipeline.Context) (*ddl.Schema, error) {
	src, err := newMemorySource(buf)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	b := ddl.NewBuilder(ctx.Dialect, ctx)
	err = walkDump(src, ctx, func(stmt token.Statement, _ []row.Row, _ []string) error {
		switch stmt.Kind {
		case token.CreateTable, token.AlterTable, token.CreateIndex:
			return b.Ingest(stmt)
		default:
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return b.Schema(), nil
}
