package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sqlsplitter/sqlsplitter/internal/config"
)

// globalFlags holds the flags every subcommand shares, per spec.md §6.1.
type globalFlags struct {
	input        string
	dialectName  string
	codecName    string
	configPath   string
	strict       bool
	verbose      bool
	maxPkEntries int
}

var gf globalFlags

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "sqlsplitter",
		Short:         "Split, merge, sample, shard, convert, and inspect SQL dump files",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if gf.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&gf.input, "input", "i", "-", "input dump file path, or - for stdin")
	root.PersistentFlags().StringVar(&gf.dialectName, "dialect", "", "source dialect: mysql, postgres, sqlite, mssql (auto-detected if omitted)")
	root.PersistentFlags().StringVar(&gf.codecName, "codec", "", "input compression codec: gzip, bzip2, xz, zstd (auto-detected if omitted)")
	root.PersistentFlags().StringVar(&gf.configPath, "config", "", "path to sqlsplitter.yaml")
	root.PersistentFlags().BoolVar(&gf.strict, "strict", false, "elevate warnings to fatal errors")
	root.PersistentFlags().BoolVarP(&gf.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().IntVar(&gf.maxPkEntries, "max-pk-entries", 0, "override the configured global PK-set cap (0 = use config default)")

	root.AddCommand(
		newSplitCommand(),
		newMergeCommand(),
		newAnalyzeCommand(),
		newSampleCommand(),
		newShardCommand(),
		newConvertCommand(),
		newValidateCommand(),
		newDiffCommand(),
		newRedactCommand(),
		newGraphCommand(),
		newOrderCommand(),
		newQueryCommand(),
	)
	return root
}

// loadConfig reads gf.configPath, overlaying any --max-pk-entries /
// --strict overrides from the command line.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(gf.configPath)
	if err != nil {
		return nil, err
	}
	if gf.maxPkEntries > 0 {
		cfg.MaxPkEntries = gf.maxPkEntries
	}
	if gf.strict {
		cfg.Strict = true
	}
	return cfg, nil
}
