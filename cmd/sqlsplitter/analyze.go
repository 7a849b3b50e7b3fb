package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sqlsplitter/sqlsplitter/internal/analyze"
	"github.com/sqlsplitter/sqlsplitter/internal/graph"
	"github.com/sqlsplitter/sqlsplitter/internal/pipeline"
	"github.com/sqlsplitter/sqlsplitter/internal/row"
	"github.com/sqlsplitter/sqlsplitter/internal/token"
	"gopkg.in/yaml.v2"
)

func newAnalyzeCommand() *cobra.Command {
	var tenantColumn string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Summarize a dump's table shapes, FK graph, and row volume",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(tenantColumn)
		},
	}
	cmd.Flags().StringVar(&tenantColumn, "tenant-column", "", "tenant column name used to classify table roles (overrides config)")
	return cmd
}

func runAnalyze(tenantColumn string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if tenantColumn != "" {
		cfg.TenantColumn = tenantColumn
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
	var roles map[string]graph.TenantRole
	if cfg.TenantColumn != "" {
		roles = graph.Classify(g, schema, cfg.TenantColumn, cfg.JunctionTimestampAllowlist(), cfg.SystemTables)
	}

	counters := analyze.NewCounters()
	src, err := newMemorySource(buf)
	if err != nil {
		return err
	}
	defer src.Close()
	walkErr := walkDump(src, ctx, func(stmt token.Statement, copyRows []row.Row, copyCols []string) error {
		_ = copyCols
		switch stmt.Kind {
		case token.Insert:
			_, rows, err := row.ParseInsertTuples(stmt.Bytes, d, nil)
			if err != nil {
				return ctx.Warn(pipeline.Warning{Code: pipeline.WarnMalformedRow, Table: stmt.TargetTable, Detail: err.Error(), Offset: stmt.ByteRange.Offset})
			}
			counters.Observe(stmt.TargetTable, len(rows), len(stmt.Bytes))
		case token.Copy:
			counters.Observe(stmt.TargetTable, len(copyRows), len(stmt.Bytes))
		}
		return nil
	})
	if walkErr != nil {
		return walkErr
	}

	summary := analyze.Build(schema, g, roles, counters)
	y, err := yaml.Marshal(summary)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(y)
	return err
}
