package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sqlsplitter/sqlsplitter/internal/erd"
	grph "github.com/sqlsplitter/sqlsplitter/internal/graph"
	"github.com/sqlsplitter/sqlsplitter/internal/pipeline"
)

func newGraphCommand() *cobra.Command {
	var format, outPath, tenantColumn string
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the foreign-key dependency graph as Mermaid, Graphviz dot, or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(format, outPath, tenantColumn)
		},
	}
	cmd.Flags().StringVar(&format, "format", "mermaid", "output format: mermaid, dot, json")
	cmd.Flags().StringVarP(&outPath, "output", "o", "-", "output file, or - for stdout")
	cmd.Flags().StringVar(&tenantColumn, "tenant-column", "", "tenant column name used to classify table roles (overrides config)")
	return cmd
}

func runGraph(formatName, outPath, tenantColumn string) error {
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

	g := grph.New(schema)
	var roles map[string]grph.TenantRole
	if cfg.TenantColumn != "" {
		roles = grph.Classify(g, schema, cfg.TenantColumn, cfg.JunctionTimestampAllowlist(), cfg.SystemTables)
	}
	doc := erd.BuildDocument(g, schema, roles)

	format, err := parseErdFormat(formatName)
	if err != nil {
		return err
	}
	out, err := erd.Render(doc, format)
	if err != nil {
		return err
	}
	return writeBytesTo(outPath, out)
}

func parseErdFormat(name string) (erd.Format, error) {
	switch name {
	case "mermaid", "":
		return erd.Mermaid, nil
	case "dot":
		return erd.Dot, nil
	case "json":
		return erd.JSON, nil
	default:
		return "", fmt.Errorf("unknown --format %q", name)
	}
}

func writeBytesTo(path string, b []byte) error {
	if path == "-" || path == "" {
		_, err := os.Stdout.Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
