package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
	"github.com/sqlsplitter/sqlsplitter/internal/diffcmd"
	"github.com/sqlsplitter/sqlsplitter/internal/pipeline"
	"github.com/sqlsplitter/sqlsplitter/internal/row"
	"github.com/sqlsplitter/sqlsplitter/internal/sample"
	"github.com/sqlsplitter/sqlsplitter/internal/token"
)

func newDiffCommand() *cobra.Command {
	var toPath string
	var dataTables []string
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare two dumps' schemas, and optionally their row data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(toPath, dataTables)
		},
	}
	cmd.Flags().StringVar(&toPath, "to", "", "second dump to compare against --input (required)")
	cmd.Flags().StringSliceVar(&dataTables, "data-table", nil, "table(s) to additionally diff row-by-row, by primary key")
	cmd.MarkFlagRequired("to")
	return cmd
}

// diffResult is the YAML-serialized shape printed to stdout.
type diffResult struct {
	Schema *diffcmd.SchemaDiff `yaml:"schema"`
	Data   []diffcmd.RowDiff   `yaml:"data,omitempty"`
}

func runDiff(toPath string, dataTables []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fromBuf, fromD, err := openBufferedInput()
	if err != nil {
		return err
	}
	toBuf, toD, err := openBufferedInputAt(toPath)
	if err != nil {
		return err
	}

	fromCtx := pipeline.NewContext(fromD, cfg.Strict)
	toCtx := pipeline.NewContext(toD, cfg.Strict)
	fromSchema, err := buildSchema(fromBuf, fromCtx)
	if err != nil {
		return err
	}
	toSchema, err := buildSchema(toBuf, toCtx)
	if err != nil {
		return err
	}

	result := diffResult{Schema: diffcmd.DiffSchemas(fromSchema, toSchema)}

	for _, table := range dataTables {
		rd, err := diffTableRows(fromBuf, fromSchema, fromD, toBuf, toSchema, toD, table, cfg.Strict)
		if err != nil {
			return err
		}
		result.Data = append(result.Data, rd)
	}

	y, err := yaml.Marshal(result)
	if err != nil {
		return err
	}
	fmt.Print(string(y))
	return nil
}

func diffTableRows(fromBuf []byte, fromSchema *ddl.Schema, fromD dialect.Dialect, toBuf []byte, toSchema *ddl.Schema, toD dialect.Dialect, table string, strict bool) (diffcmd.RowDiff, error) {
	cmp := diffcmd.NewRowComparator()
	ft, ok := fromSchema.Table(table)
	if !ok {
		return diffcmd.RowDiff{Table: table}, fmt.Errorf("table %q not present in --input schema", table)
	}
	tt, ok := toSchema.Table(table)
	if !ok {
		return diffcmd.RowDiff{Table: table}, fmt.Errorf("table %q not present in --to schema", table)
	}

	fromCtx := pipeline.NewContext(fromD, strict)
	if err := collectRowsInto(fromBuf, fromCtx, ft, table, func(pk sample.PkTuple, r row.Row) { cmp.AddFrom(pk, r) }); err != nil {
		return diffcmd.RowDiff{}, err
	}
	toCtx := pipeline.NewContext(toD, strict)
	if err := collectRowsInto(toBuf, toCtx, tt, table, func(pk sample.PkTuple, r row.Row) { cmp.AddTo(pk, r) }); err != nil {
		return diffcmd.RowDiff{}, err
	}
	return cmp.Diff(table), nil
}

// collectRowsInto walks buf once, feeding every row belonging to table
// (by primary key tuple) to add.
func collectRowsInto(buf []byte, ctx *pipeline.Context, t *ddl.TableSchema, table string, add func(sample.PkTuple, row.Row)) error {
	src, err := newMemorySource(buf)
	if err != nil {
		return err
	}
	defer src.Close()

	return walkDump(src, ctx, func(stmt token.Statement, copyRows []row.Row, copyCols []string) error {
		if stmt.Kind != token.Insert && stmt.Kind != token.Copy {
			return nil
		}
		if !strings.EqualFold(stmt.TargetTable, table) {
			return nil
		}
		var cols []string
		var rows []row.Row
		if stmt.Kind == token.Insert {
			c, r, perr := row.ParseInsertTuples(stmt.Bytes, ctx.Dialect, nil)
			if perr != nil {
				return nil
			}
			cols, rows = c, r
		} else {
			cols, rows = copyCols, copyRows
		}
		for _, r := range rows {
			pk, ok := pkTupleFor(t, cols, r)
			if !ok {
				continue
			}
			add(pk, r)
		}
		return nil
	})
}
