package ddl

import (
	"io"

	"github.com/sqlsplitter/sqlsplitter/internal/pipeline"
	"github.com/sqlsplitter/sqlsplitter/internal/token"
)

// StatementSource is the minimal iterator surface C3 exposes, satisfied by
// *token.Tokenizer.
type StatementSource interface {
	Next() (token.Statement, error)
}

// BuildSchema drains src entirely, feeding every CreateTable/AlterTable/
// CreateIndex statement to a fresh Builder, and returns the resulting
// Schema. It does not retain row-bearing statements; callers needing both
// a schema and the row stream scan the source twice (once for schema,
// once for rows) by opening two independent source.BufferedByteSource
// instances, since the tokenizer is a forward-only iterator.
func BuildSchema(src StatementSource, ctx *pipeline.Context) (*Schema, error) {
	b := NewBuilder(ctx.Dialect, ctx)
	for {
		s, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		s.Kind, s.TargetTable = token.Classify(s.Bytes, ctx.Dialect)
		if s.Kind == token.CreateTable || s.Kind == token.AlterTable || s.Kind == token.CreateIndex {
			if err := b.Ingest(s); err != nil {
				return nil, err
			}
		}
	}
	return b.Schema(), nil
}
