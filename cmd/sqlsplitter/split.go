package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sqlsplitter/sqlsplitter/internal/cliutil"
	"github.com/sqlsplitter/sqlsplitter/internal/partition"
	"github.com/sqlsplitter/sqlsplitter/internal/pipeline"
	"github.com/sqlsplitter/sqlsplitter/internal/report"
	"github.com/sqlsplitter/sqlsplitter/internal/row"
	"github.com/sqlsplitter/sqlsplitter/internal/token"
)

const schemaSinkName = "schema"
const unroutableSinkName = "unroutable"

func newSplitCommand() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a dump file into one file per table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(outDir)
		},
	}
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "output directory (required)")
	cmd.MarkFlagRequired("output")
	return cmd
}

func runSplit(outDir string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return &pipeline.InputError{Err: err}
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
	progress := cliutil.NewProgress(os.Stderr, "split")

	p := partition.New(sinkOpener(outDir))
	statements := 0
	walkErr := walkDump(src, ctx, func(stmt token.Statement, copyRows []row.Row, copyCols []string) error {
		statements++
		progress.Update(src.Position(), statements)
		switch stmt.Kind {
		case token.CreateTable, token.AlterTable, token.CreateIndex, token.Session:
			return p.Write(schemaSinkName, appendNewline(stmt.Bytes))
		case token.Insert:
			return p.Write(stmt.TargetTable, appendNewline(stmt.Bytes))
		case token.Copy:
			// walkDump has already read the COPY data lines off src into
			// copyRows, so they are written back in COPY text format after
			// the header, followed by the \. terminator.
			esc := strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)
			out := appendNewline(stmt.Bytes)
			for _, r := range copyRows {
				fields := make([]string, len(r.Values))
				for i, v := range r.Values {
					fields[i] = `\N`
					if !v.IsNull() {
						fields[i] = esc.Replace(v.Text)
					}
				}
				out = append(out, strings.Join(fields, "\t")+"\n"...)
			}
			return p.Write(stmt.TargetTable, append(out, "\\.\n"...))
		case token.Comment:
			return nil
		default:
			if werr := ctx.Warn(pipeline.Warning{Code: pipeline.WarnUnroutableStmt, Detail: "unrecognized statement", Offset: stmt.ByteRange.Offset}); werr != nil {
				return werr
			}
			return p.Write(unroutableSinkName, appendNewline(stmt.Bytes))
		}
	})
	stats, closeErr := p.Close()
	progress.Done()
	if walkErr != nil {
		return walkErr
	}
	if closeErr != nil {
		return closeErr
	}

	rep := report.New("split", d.String(), cfg.Strict)
	rep.Tables = report.FromSinkStats(stats, nil)
	rep.Finish(ctx.Warnings, cliutil.ExitSuccess)
	return writeReport(outDir, rep)
}

// sinkOpener opens <outDir>/<table>.sql for each distinct table the
// partitioner routes a statement to, truncating on first open.
func sinkOpener(outDir string) partition.SinkOpener {
	return func(table string) (io.WriteCloser, error) {
		return os.OpenFile(filepath.Join(outDir, sanitizeFileStem(table)+".sql"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	}
}

func sanitizeFileStem(name string) string {
	if name == "" {
		return unroutableSinkName
	}
	return name
}

func appendNewline(b []byte) []byte {
	out := make([]byte, len(b)+1)
	copy(out, b)
	out[len(b)] = '\n'
	return out
}

func writeReport(outDir string, rep *report.Report) error {
	y, err := rep.YAML()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, "report.yaml"), y, 0o644)
}
