package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
	"github.com/sqlsplitter/sqlsplitter/internal/pipeline"
	"github.com/sqlsplitter/sqlsplitter/internal/report"
	"github.com/sqlsplitter/sqlsplitter/internal/rewrite"
	"github.com/sqlsplitter/sqlsplitter/internal/row"
	"github.com/sqlsplitter/sqlsplitter/internal/token"
)

func newConvertCommand() *cobra.Command {
	var toDialectName, outPath string
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Rewrite a dump from its source dialect to another",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(toDialectName, outPath)
		},
	}
	cmd.Flags().StringVar(&toDialectName, "to-dialect", "", "target dialect: mysql, postgres, sqlite, mssql (required)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "-", "output file, or - for stdout")
	cmd.MarkFlagRequired("to-dialect")
	return cmd
}

func runConvert(toDialectName, outPath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	toDialect, ok := dialect.Parse(toDialectName)
	if !ok {
		return fmt.Errorf("unknown --to-dialect %q", toDialectName)
	}

	buf, from, err := openBufferedInput()
	if err != nil {
		return err
	}
	ctx := pipeline.NewContext(from, cfg.Strict)
	schema, err := buildSchema(buf, ctx)
	if err != nil {
		return err
	}

	out, closeOut, err := openMergeOutput(outPath)
	if err != nil {
		return err
	}
	defer closeOut()
	w := bufio.NewWriterSize(out, 256*1024)

	for _, t := range schema.Tables() {
		fmt.Fprintln(w, rewrite.CreateTableDDL(t, from, toDialect))
	}

	src, err := newMemorySource(buf)
	if err != nil {
		return err
	}
	defer src.Close()
	walkErr := walkDump(src, ctx, func(stmt token.Statement, copyRows []row.Row, copyCols []string) error {
		switch stmt.Kind {
		case token.Insert:
			cols, rows, err := row.ParseInsertTuples(stmt.Bytes, from, nil)
			if err != nil {
				return ctx.Warn(pipeline.Warning{Code: pipeline.WarnMalformedRow, Table: stmt.TargetTable, Detail: err.Error(), Offset: stmt.ByteRange.Offset})
			}
			cols = columnsOrSchema(schema, stmt.TargetTable, cols)
			fmt.Fprintln(w, rewrite.InsertDDL(stmt.TargetTable, cols, rows, toDialect))
		case token.Copy:
			cols := columnsOrSchema(schema, stmt.TargetTable, copyCols)
			fmt.Fprintln(w, rewrite.InsertDDL(stmt.TargetTable, cols, copyRows, toDialect))
		case token.CreateTable, token.AlterTable, token.CreateIndex, token.Session, token.Comment:
			// already represented in the regenerated schema header, or
			// (Session) dialect-specific connection state that does not
			// carry across a conversion.
		default:
			return ctx.Warn(pipeline.Warning{Code: pipeline.WarnUnroutableStmt, Detail: "statement dropped during conversion", Offset: stmt.ByteRange.Offset})
		}
		return nil
	})
	if flushErr := w.Flush(); flushErr != nil && walkErr == nil {
		walkErr = flushErr
	}
	if walkErr != nil {
		return walkErr
	}

	rep := report.New("convert", toDialect.String(), cfg.Strict).Finish(ctx.Warnings, 0)
	fmt.Fprintf(os.Stderr, "convert: %d tables, %d warnings\n", len(schema.Tables()), rep.WarningCount)
	return nil
}

// columnsOrSchema falls back to the table's full declared column order
// when a statement (typically an unqualified COPY header) did not name
// its columns explicitly.
func columnsOrSchema(schema *ddl.Schema, table string, cols []string) []string {
	if len(cols) > 0 {
		return cols
	}
	t, ok := schema.Table(table)
	if !ok {
		return cols
	}
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
