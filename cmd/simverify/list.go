package main

import (
	"fmt"
	"os"

	"github.com/ormasoftchile/simverify/pkg/discovery"
	"github.com/ormasoftchile/simverify/pkg/runner"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [root-dir]",
	Short: "List discovered model files without running the engine",
	Long: `List every model file the verify pipeline would run, in run order.

Useful for checking what a filter expression selects before committing to a
long batch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	cfg, errs := resolveConfig(root)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "  ✗ %s\n", e)
		}
		os.Exit(2)
	}

	filter, err := discovery.NewFilter(cfg.Filter)
	if err != nil {
		return err
	}
	models, err := discovery.Find(root, cfg.ModelExtension, filter)
	if err != nil {
		return err
	}

	for _, m := range models {
		fmt.Println(runner.RelPath(root, m.Path))
	}
	fmt.Fprintf(os.Stderr, "%d model file(s)\n", len(models))
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
}
