package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqlsplitter/sqlsplitter/internal/graph"
	"github.com/sqlsplitter/sqlsplitter/internal/pipeline"
)

func newOrderCommand() *cobra.Command {
	var reverse bool
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Print tables in FK-safe load order (parents before children)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(reverse)
		},
	}
	cmd.Flags().BoolVar(&reverse, "reverse", false, "print children-before-parents (delete order) instead")
	return cmd
}

func runOrder(reverse bool) error {
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

	g := graph.New(schema)
	// FK cycles are not fatal: TopologicalOrder collapses each SCC (including
	// self-referencing tables) into one scheduling unit. An error here would
	// mean the SCC condensation was non-acyclic, which should never happen.
	order, err := g.TopologicalOrder()
	if err != nil {
		return fmt.Errorf("internal error ordering tables: %w", err)
	}
	if reverse {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}
	for _, table := range order {
		fmt.Println(table)
	}
	return nil
}
