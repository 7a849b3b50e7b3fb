package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sqlsplitter/sqlsplitter/internal/pipeline"
	"github.com/sqlsplitter/sqlsplitter/internal/queryengine"
	"github.com/sqlsplitter/sqlsplitter/internal/row"
	"github.com/sqlsplitter/sqlsplitter/internal/token"
)

func newQueryCommand() *cobra.Command {
	var sqlText string
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Load a dump into an in-memory database and run a SQL query against it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(sqlText)
		},
	}
	cmd.Flags().StringVar(&sqlText, "sql", "", "SQL to run against the loaded dump (required)")
	cmd.MarkFlagRequired("sql")
	return cmd
}

func runQuery(sqlText string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	buf, d, err := openBufferedInput()
	if err != nil {
		return err
	}
	ctx := pipeline.NewContext(d, cfg.Strict)
	schema, err := buildSchema(buf, ctx)
	if err != nil {
		return err
	}

	bgCtx := context.Background()
	engine, err := queryengine.Open(bgCtx)
	if err != nil {
		return err
	}
	defer engine.Close()

	for _, t := range schema.Tables() {
		if err := engine.CreateTable(bgCtx, t); err != nil {
			return err
		}
	}

	src, err := newMemorySource(buf)
	if err != nil {
		return err
	}
	defer src.Close()
	loadErr := walkDump(src, ctx, func(stmt token.Statement, copyRows []row.Row, copyCols []string) error {
		switch stmt.Kind {
		case token.Insert:
			cols, rows, perr := row.ParseInsertTuples(stmt.Bytes, d, nil)
			if perr != nil {
				return ctx.Warn(pipeline.Warning{Code: pipeline.WarnMalformedRow, Table: stmt.TargetTable, Detail: perr.Error(), Offset: stmt.ByteRange.Offset})
			}
			cols = columnsOrSchema(schema, stmt.TargetTable, cols)
			return engine.InsertRows(bgCtx, stmt.TargetTable, cols, rows)
		case token.Copy:
			cols := columnsOrSchema(schema, stmt.TargetTable, copyCols)
			return engine.InsertRows(bgCtx, stmt.TargetTable, cols, copyRows)
		}
		return nil
	})
	if loadErr != nil {
		return loadErr
	}

	cols, rows, err := engine.Query(bgCtx, sqlText)
	if err != nil {
		return err
	}
	printTable(cols, rows)
	return nil
}

func printTable(cols []string, rows [][]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(cols, "\t"))
	for _, r := range rows {
		fmt.Fprintln(w, strings.Join(r, "\t"))
	}
	w.Flush()
}
