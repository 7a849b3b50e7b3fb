package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sqlsplitter/sqlsplitter/internal/ddl"
	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
	"github.com/sqlsplitter/sqlsplitter/internal/graph"
	"github.com/sqlsplitter/sqlsplitter/internal/partition"
	"github.com/sqlsplitter/sqlsplitter/internal/pipeline"
	"github.com/sqlsplitter/sqlsplitter/internal/report"
	"github.com/sqlsplitter/sqlsplitter/internal/rewrite"
	"github.com/sqlsplitter/sqlsplitter/internal/row"
	"github.com/sqlsplitter/sqlsplitter/internal/shard"
	"github.com/sqlsplitter/sqlsplitter/internal/token"
)

const (
	schemaSinkKey    = "schema\x1fschema"
	unshardedKey     = "unsharded"
	sinkKeySeparator = "\x1f"
)

func newShardCommand() *cobra.Command {
	var outDir, tenantColumn string
	cmd := &cobra.Command{
		Use:   "shard",
		Short: "Route rows to one output file per table per tenant shard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShard(outDir, tenantColumn)
		},
	}
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "output directory (required)")
	cmd.Flags().StringVar(&tenantColumn, "tenant-column", "", "tenant column name on root tables (overrides config)")
	cmd.MarkFlagRequired("output")
	return cmd
}

func runShard(outDir, tenantColumn string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if tenantColumn != "" {
		cfg.TenantColumn = tenantColumn
	}
	if cfg.TenantColumn == "" {
		return fmt.Errorf("--tenant-column (or config tenant_column) is required for shard")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return &pipeline.InputError{Err: err}
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
	router := shard.NewRouter(schema, g, cfg.TenantColumn, cfg.JunctionTimestampAllowlist(), cfg.SystemTables)

	src, err := newMemorySource(buf)
	if err != nil {
		return err
	}
	defer src.Close()

	p := partition.New(shardSinkOpener(outDir))

	walkErr := walkDump(src, ctx, func(stmt token.Statement, copyRows []row.Row, copyCols []string) error {
		switch stmt.Kind {
		case token.CreateTable, token.AlterTable, token.CreateIndex, token.Session:
			return p.Write(schemaSinkKey, appendNewline(stmt.Bytes))
		case token.Insert, token.Copy:
			return routeShardRows(p, router, schema, d, stmt, copyRows, copyCols)
		}
		return nil
	})
	stats, closeErr := p.Close()
	if walkErr != nil {
		return walkErr
	}
	if closeErr != nil {
		return closeErr
	}

	rep := report.New("shard", d.String(), cfg.Strict)
	rep.Tables = report.FromSinkStats(stats, nil)
	rep.Finish(ctx.Warnings, 0)
	return writeReport(outDir, rep)
}

// shardSinkOpener maps a "table\x1fshardKey" partition key to a file named
// via shard.ShardFileName, so every (table, shard) pair gets its own file.
func shardSinkOpener(outDir string) partition.SinkOpener {
	return func(key string) (io.WriteCloser, error) {
		table, shardKey, _ := strings.Cut(key, sinkKeySeparator)
		name := shard.ShardFileName(sanitizeFileStem(table), sanitizeFileStem(shardKey))
		return os.OpenFile(filepath.Join(outDir, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	}
}

func routeShardRows(p *partition.Partitioner, router *shard.Router, schema *ddl.Schema, d dialect.Dialect, stmt token.Statement, copyRows []row.Row, copyCols []string) error {
	table := stmt.TargetTable
	t, ok := schema.Table(table)
	if !ok {
		return p.Write(table+sinkKeySeparator+unshardedKey, appendNewline(stmt.Bytes))
	}

	var cols []string
	var rows []row.Row
	if stmt.Kind == token.Insert {
		c, r, err := row.ParseInsertTuples(stmt.Bytes, d, nil)
		if err != nil {
			return nil
		}
		cols, rows = columnsOrSchema(schema, table, c), r
	} else {
		cols, rows = columnsOrSchema(schema, table, copyCols), copyRows
	}

	role := router.RoleOf(table)
	byShardKey := make(map[string][]row.Row)
	for _, r := range rows {
		colValues := colValueMap(cols, r)
		shardKey, ok := shardKeyForRow(router, t, role, table, colValues)
		if !ok {
			shardKey = unshardedKey
		}
		byShardKey[shardKey] = append(byShardKey[shardKey], r)
	}
	for shardKey, rs := range byShardKey {
		key := table + sinkKeySeparator + shardKey
		if err := p.Write(key, appendNewline([]byte(rewrite.InsertDDL(table, cols, rs, d)))); err != nil {
			return err
		}
	}
	return nil
}

// shardKeyForRow resolves the shard key for one row: directly from the
// tenant column on a TenantRoot table, or by following the first foreign
// key whose parent has already been assigned a shard key.
func shardKeyForRow(router *shard.Router, t *ddl.TableSchema, role graph.TenantRole, table string, colValues map[string]row.Value) (string, bool) {
	if role == graph.TenantRoot {
		key, err := router.ShardKeyFromRoot(colValues)
		if err != nil {
			return "", false
		}
		if pk, ok := pkTextFromColValues(t, colValues); ok {
			router.RememberShardKey(table, pk, key)
		}
		return key, true
	}
	for _, fk := range t.ForeignKeys {
		if fk.Unresolved {
			continue
		}
		parentPk, ok := fkParentPkText(fk, colValues)
		if !ok {
			continue
		}
		if key, ok := router.LookupShardKey(fk.ToTable, parentPk); ok {
			if pk, ok := pkTextFromColValues(t, colValues); ok {
				router.RememberShardKey(table, pk, key)
			}
			return key, true
		}
	}
	return "", false
}

func pkTextFromColValues(t *ddl.TableSchema, colValues map[string]row.Value) (string, bool) {
	if len(t.PrimaryKey) == 0 {
		return "", false
	}
	var b strings.Builder
	for i, col := range t.PrimaryKey {
		v, ok := colValues[strings.ToLower(col)]
		if !ok {
			return "", false
		}
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(v.Text)
	}
	return b.String(), true
}

func fkParentPkText(fk ddl.ForeignKeyEdge, colValues map[string]row.Value) (string, bool) {
	var b strings.Builder
	for i, col := range fk.FromColumns {
		v, ok := colValues[strings.ToLower(col)]
		if !ok || v.IsNull() {
			return "", false
		}
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(v.Text)
	}
	return b.String(), true
}
