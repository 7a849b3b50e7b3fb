package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sqlsplitter/sqlsplitter/internal/cliutil"
	"github.com/sqlsplitter/sqlsplitter/internal/dialect"
	"github.com/sqlsplitter/sqlsplitter/internal/graph"
	"github.com/sqlsplitter/sqlsplitter/internal/pipeline"
	"github.com/sqlsplitter/sqlsplitter/internal/report"
)

func newMergeCommand() *cobra.Command {
	var inDir, outPath string
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge a split directory back into a single ordered dump",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(inDir, outPath)
		},
	}
	cmd.Flags().StringVar(&inDir, "input-dir", "", "directory previously produced by split (required)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "-", "output file, or - for stdout")
	cmd.MarkFlagRequired("input-dir")
	return cmd
}

func runMerge(inDir, outPath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	schemaPath := filepath.Join(inDir, schemaSinkName+".sql")
	schemaBytes, err := os.ReadFile(schemaPath)
	if err != nil {
		return &pipeline.InputError{Err: err}
	}

	d, err := resolveMergeDialect(schemaBytes)
	if err != nil {
		return err
	}
	ctx := pipeline.NewContext(d, cfg.Strict)

	schema, err := buildSchema(schemaBytes, ctx)
	if err != nil {
		return err
	}
	g := graph.New(schema)
	order, err := g.TopologicalOrder()
	if err != nil {
		return fmt.Errorf("determining table write order: %w", err)
	}

	out, closeOut, err := openMergeOutput(outPath)
	if err != nil {
		return err
	}
	defer closeOut()

	if _, err := out.Write(schemaBytes); err != nil {
		return &pipeline.InputError{Err: err}
	}
	written := 0
	for _, table := range order {
		n, err := copyTableFile(out, inDir, table)
		if err != nil {
			return err
		}
		written += n
	}
	if n, err := copyTableFile(out, inDir, unroutableSinkName); err == nil {
		written += n
	}

	rep := report.New("merge", d.String(), cfg.Strict)
	rep.Finish(ctx.Warnings, cliutil.ExitSuccess)
	y, err := rep.YAML()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "merged %d tables\n%s", written, y)
	return nil
}

func resolveMergeDialect(schemaBytes []byte) (dialect.Dialect, error) {
	if gf.dialectName != "" {
		d, ok := dialect.Parse(gf.dialectName)
		if !ok {
			return 0, fmt.Errorf("unknown --dialect %q", gf.dialectName)
		}
		return d, nil
	}
	return dialect.Detect(schemaBytes).Dialect, nil
}

func openMergeOutput(path string) (*os.File, func(), error) {
	if path == "-" || path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, &pipeline.InputError{Err: err}
	}
	return f, func() { f.Close() }, nil
}

func copyTableFile(out *os.File, inDir, table string) (int, error) {
	b, err := os.ReadFile(filepath.Join(inDir, sanitizeFileStem(table)+".sql"))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, &pipeline.InputError{Err: err}
	}
	if _, err := out.Write(b); err != nil {
		return 0, &pipeline.InputError{Err: err}
	}
	return 1, nil
}
