package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sqlsplitter/sqlsplitter/internal/config"
	"github.com/sqlsplitter/sqlsplitter/internal/pipeline"
	"github.com/sqlsplitter/sqlsplitter/internal/redact"
	"github.com/sqlsplitter/sqlsplitter/internal/report"
	"github.com/sqlsplitter/sqlsplitter/internal/rewrite"
	"github.com/sqlsplitter/sqlsplitter/internal/row"
	"github.com/sqlsplitter/sqlsplitter/internal/token"
)

func newRedactCommand() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "redact",
		Short: "Rewrite a dump with column values redacted per the configured rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRedact(outPath)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "-", "output file, or - for stdout")
	return cmd
}

func runRedact(outPath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.RedactColumns) == 0 {
		return fmt.Errorf("redact requires redact_columns in --config")
	}
	rules, err := buildRedactRules(cfg)
	if err != nil {
		return err
	}
	redactor := redact.New(cfg.RedactSalt, rules)
	shuffleCols := shuffleColumns(rules)

	if len(shuffleCols) > 0 && (gf.input == "" || gf.input == "-") {
		return fmt.Errorf("redact with a shuffle strategy requires a seekable --input file, not stdin")
	}

	var shuffled map[string][]row.Value
	if len(shuffleCols) > 0 {
		shuffled, err = collectShuffleValues(shuffleCols, cfg.RedactSalt)
		if err != nil {
			return err
		}
	}

	src, f, err := openSource()
	if err != nil {
		return err
	}
	defer f.Close()
	d, err := resolveDialect(src)
	if err != nil {
		return err
	}
	ctx := pipeline.NewContext(d, cfg.Strict)

	out, closeOut, err := openMergeOutput(outPath)
	if err != nil {
		return err
	}
	defer closeOut()
	w := bufio.NewWriterSize(out, 256*1024)

	redacted := 0
	walkErr := walkDump(src, ctx, func(stmt token.Statement, copyRows []row.Row, copyCols []string) error {
		switch stmt.Kind {
		case token.Insert:
			cols, rows, perr := row.ParseInsertTuples(stmt.Bytes, d, nil)
			if perr != nil {
				return ctx.Warn(pipeline.Warning{Code: pipeline.WarnMalformedRow, Table: stmt.TargetTable, Detail: perr.Error(), Offset: stmt.ByteRange.Offset})
			}
			redactRows(redactor, stmt.TargetTable, cols, rows, shuffled)
			fmt.Fprintln(w, rewrite.InsertDDL(stmt.TargetTable, cols, rows, d))
			redacted += len(rows)
		case token.Copy:
			redactRows(redactor, stmt.TargetTable, copyCols, copyRows, shuffled)
			fmt.Fprintln(w, rewrite.InsertDDL(stmt.TargetTable, copyCols, copyRows, d))
			redacted += len(copyRows)
		default:
			fmt.Fprintln(w, string(stmt.Bytes))
		}
		return nil
	})
	if flushErr := w.Flush(); flushErr != nil && walkErr == nil {
		walkErr = flushErr
	}
	if walkErr != nil {
		return walkErr
	}

	rep := report.New("redact", d.String(), cfg.Strict).Finish(ctx.Warnings, 0)
	fmt.Fprintf(os.Stderr, "redact: %d rows rewritten, %d warnings\n", redacted, rep.WarningCount)
	return nil
}

func buildRedactRules(cfg *config.Config) ([]redact.ColumnRule, error) {
	rules := make([]redact.ColumnRule, 0, len(cfg.RedactColumns))
	for _, c := range cfg.RedactColumns {
		rule := redact.ColumnRule{
			Table:    c.Table,
			Column:   c.Column,
			Strategy: redact.Strategy(c.Strategy),
			Constant: c.Constant,
			Faker:    c.Faker,
		}
		if err := redact.ValidateRule(rule); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func shuffleColumns(rules []redact.ColumnRule) []redact.ColumnRule {
	var out []redact.ColumnRule
	for _, r := range rules {
		if r.Strategy == redact.StrategyShuffle {
			out = append(out, r)
		}
	}
	return out
}

// collectShuffleValues makes a dedicated pass over the input collecting
// only the values of shuffle-strategy columns (not whole rows), shuffles
// each column's collected values once, and returns them as per-table.column
// queues that the output pass consumes in row order.
func collectShuffleValues(shuffleCols []redact.ColumnRule, salt string) (map[string][]row.Value, error) {
	src, f, err := openSource()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := resolveDialect(src)
	if err != nil {
		return nil, err
	}
	ctx := pipeline.NewContext(d, false)

	want := make(map[string]bool, len(shuffleCols))
	for _, r := range shuffleCols {
		want[strings.ToLower(r.Table)] = true
	}

	collected := make(map[string][]row.Value)
	err = walkDump(src, ctx, func(stmt token.Statement, copyRows []row.Row, copyCols []string) error {
		if !want[strings.ToLower(stmt.TargetTable)] {
			return nil
		}
		var cols []string
		var rows []row.Row
		switch stmt.Kind {
		case token.Insert:
			c, r, perr := row.ParseInsertTuples(stmt.Bytes, d, nil)
			if perr != nil {
				return nil
			}
			cols, rows = c, r
		case token.Copy:
			cols, rows = copyCols, copyRows
		default:
			return nil
		}
		for _, rule := range shuffleCols {
			if !strings.EqualFold(rule.Table, stmt.TargetTable) {
				continue
			}
			idx := columnIndex(cols, rule.Column)
			if idx < 0 {
				continue
			}
			ckey := columnKey(rule.Table, rule.Column)
			for _, r := range rows {
				if idx < len(r.Values) {
					collected[ckey] = append(collected[ckey], r.Values[idx])
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for ckey, vals := range collected {
		redact.Shuffle(vals, salt+":"+ckey)
	}
	return collected, nil
}

func columnKey(table, column string) string {
	return strings.ToLower(table) + "." + strings.ToLower(column)
}

func columnIndex(cols []string, name string) int {
	for i, c := range cols {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// redactRows rewrites rows in place: direct strategies are applied
// per-value via redactor, while shuffle-strategy columns pop the next
// value off shuffled's pre-shuffled queue in encounter order.
func redactRows(redactor *redact.Redactor, table string, cols []string, rows []row.Row, shuffled map[string][]row.Value) {
	for i := range rows {
		for c, col := range cols {
			if c >= len(rows[i].Values) {
				continue
			}
			rule, ok := redactor.RuleFor(table, col)
			if !ok {
				continue
			}
			if rule.Strategy == redact.StrategyShuffle {
				ckey := columnKey(table, col)
				queue := shuffled[ckey]
				if len(queue) == 0 {
					continue
				}
				rows[i].Values[c] = queue[0]
				shuffled[ckey] = queue[1:]
				continue
			}
			rows[i].Values[c] = redactor.Apply(rows[i].Values[c], rule)
		}
	}
}
