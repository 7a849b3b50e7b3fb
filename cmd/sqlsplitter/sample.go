package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/cobra"

	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
	"github.com/sqlsplitter/sqlsplitter/internal/graph"
	"github.com/sqlsplitter/sqlsplitter/internal/pipeline"
	"github.com/sqlsplitter/sqlsplitter/internal/report"
	"github.com/sqlsplitter/sqlsplitter/internal/rewrite"
	"github.com/sqlsplitter/sqlsplitter/internal/row"
	"github.com/sqlsplitter/sqlsplitter/internal/sample"
	"github.com/sqlsplitter/sqlsplitter/internal/token"
)

func newSampleCommand() *cobra.Command {
	var rootTable string
	var fraction float64
	var seed string
	var outPath string
	var includeTables []string
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Take a fractional sample of one table, pulling in required parent rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(rootTable, fraction, seed, outPath, includeTables)
		},
	}
	cmd.Flags().StringVar(&rootTable, "root-table", "", "table to sample from directly (required)")
	cmd.Flags().Float64Var(&fraction, "fraction", 0.1, "fraction of root-table rows to keep, in [0,1]")
	cmd.Flags().StringVar(&seed, "seed", "sqlsplitter", "deterministic sampling seed")
	cmd.Flags().StringVarP(&outPath, "output", "o", "-", "output file, or - for stdout")
	cmd.Flags().StringSliceVar(&includeTables, "include-table", nil, "table(s) to always include in full, regardless of sampling")
	cmd.MarkFlagRequired("root-table")
	return cmd
}

func runSample(rootTable string, fraction float64, seed, outPath string, includeTables []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if fraction < 0 || fraction > 1 {
		return fmt.Errorf("--fraction must be in [0,1], got %v", fraction)
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
	g := graph.New(schema)
	plan := sample.NewPlan(schema, g, cfg.MaxPkEntries)

	always := make(map[string]bool, len(includeTables))
	for _, t := range includeTables {
		always[strings.ToLower(t)] = true
	}

	tableRows, tableCols, err := bufferAllRows(buf, ctx)
	if err != nil {
		return err
	}

	decideSampleClosure(schema, plan, rootTable, fraction, seed, tableRows, tableCols)

	out, closeOut, err := openMergeOutput(outPath)
	if err != nil {
		return err
	}
	defer closeOut()

	src, err := newMemorySource(buf)
	if err != nil {
		return err
	}
	defer src.Close()

	kept := 0
	walkErr := walkDump(src, ctx, func(stmt token.Statement, copyRows []row.Row, copyCols []string) error {
		switch stmt.Kind {
		case token.CreateTable, token.AlterTable, token.CreateIndex, token.Session:
			fmt.Fprintln(out, string(stmt.Bytes))
			return nil
		case token.Insert, token.Copy:
			table := strings.ToLower(stmt.TargetTable)
			if always[table] {
				fmt.Fprintln(out, string(stmt.Bytes))
				kept++
				return nil
			}
			t, ok := schema.Table(table)
			if !ok || len(t.PrimaryKey) == 0 {
				return nil
			}
			var cols []string
			var rows []row.Row
			if stmt.Kind == token.Insert {
				var perr error
				cols, rows, perr = row.ParseInsertTuples(stmt.Bytes, d, nil)
				if perr != nil {
					return nil
				}
				cols = columnsOrSchema(schema, table, cols)
			} else {
				cols = columnsOrSchema(schema, table, copyCols)
				rows = copyRows
			}
			var survivors []row.Row
			for _, r := range rows {
				pk, ok := pkTupleFor(t, cols, r)
				if ok && plan.IsRequired(table, pk) {
					survivors = append(survivors, r)
				}
			}
			if len(survivors) == 0 {
				return nil
			}
			fmt.Fprintln(out, rewrite.InsertDDL(stmt.TargetTable, cols, survivors, d))
			kept += len(survivors)
		}
		return nil
	})
	if walkErr != nil {
		return walkErr
	}

	rep := report.New("sample", d.String(), cfg.Strict).Finish(ctx.Warnings, 0)
	fmt.Fprintf(os.Stderr, "sample: kept %d rows across %d tables, %d warnings\n", kept, len(plan.Stats()), rep.WarningCount)
	return nil
}

// decideSampleClosure marks rootTable's fractionally-sampled rows as
// required, then walks their foreign keys outward to every ancestor row
// they depend on, so the output never references a row that was dropped.
func decideSampleClosure(schema *ddl.Schema, plan *sample.Plan, rootTable string, fraction float64, seed string, tableRows map[string][]row.Row, tableCols map[string][]string) {
	root, ok := schema.Table(rootTable)
	if !ok {
		return
	}
	threshold := uint64(fraction * float64(^uint64(0)))
	cols := tableCols[strings.ToLower(rootTable)]

	type queued struct {
		table string
		pk    sample.PkTuple
	}
	var queue []queued

	for _, r := range tableRows[strings.ToLower(rootTable)] {
		colValues := colValueMap(cols, r)
		pk, ok := pkTupleFor(root, cols, r)
		if !ok {
			continue
		}
		h := xxhash.Sum64String(seed) ^ pk.Hash()
		if h > threshold {
			continue
		}
		if plan.Require(rootTable, pk) {
			for _, req := range plan.PropagateParents(rootTable, colValues) {
				queue = append(queue, queued{table: req.Table, pk: req.PK})
			}
		}
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		t, ok := schema.Table(item.table)
		if !ok {
			continue
		}
		pcols := tableCols[strings.ToLower(item.table)]
		for _, r := range tableRows[strings.ToLower(item.table)] {
			pk, ok := pkTupleFor(t, pcols, r)
			if !ok || pk.Hash() != item.pk.Hash() {
				continue
			}
			colValues := colValueMap(pcols, r)
			for _, req := range plan.PropagateParents(item.table, colValues) {
				queue = append(queue, queued{table: req.Table, pk: req.PK})
			}
			break
		}
	}
}

func colValueMap(cols []string, r row.Row) map[string]row.Value {
	out := make(map[string]row.Value, len(cols))
	for i, c := range cols {
		if i < len(r.Values) {
			out[strings.ToLower(c)] = r.Values[i]
		}
	}
	return out
}

func pkTupleFor(t *ddl.TableSchema, cols []string, r row.Row) (sample.PkTuple, bool) {
	colValues := colValueMap(cols, r)
	vals := make([]row.Value, 0, len(t.PrimaryKey))
	for _, pkCol := range t.PrimaryKey {
		v, ok := colValues[strings.ToLower(pkCol)]
		if !ok {
			return sample.PkTuple{}, false
		}
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return sample.PkTuple{}, false
	}
	return sample.NewPkTuple(vals), true
}

// bufferAllRows fully materializes every table's rows in memory so the
// sampling closure can look a parent row up by primary key without a
// second pass over the byte stream.
func bufferAllRows(buf []byte, ctx *pipeline.Context) (map[string][]row.Row, map[string][]string, error) {
	src, err := newMemorySource(buf)
	if err != nil {
		return nil, nil, err
	}
	defer src.Close()

	rows := make(map[string][]row.Row)
	cols := make(map[string][]string)
	err = walkDump(src, ctx, func(stmt token.Statement, copyRows []row.Row, copyCols []string) error {
		table := strings.ToLower(stmt.TargetTable)
		switch stmt.Kind {
		case token.Insert:
			c, r, perr := row.ParseInsertTuples(stmt.Bytes, ctx.Dialect, nil)
			if perr != nil {
				return nil
			}
			if len(c) > 0 {
				cols[table] = c
			}
			rows[table] = append(rows[table], r...)
		case token.Copy:
			if len(copyCols) > 0 {
				cols[table] = copyCols
			}
			rows[table] = append(rows[table], copyRows...)
		}
		return nil
	})
	return rows, cols, err
}

