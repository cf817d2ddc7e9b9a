// Command simverify discovers simulation model files under a directory tree,
// runs each through the external simulation engine, and reports which models
// still verify against their reference mass-balance artifacts.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ormasoftchile/simverify/pkg/config"
	"github.com/ormasoftchile/simverify/pkg/discovery"
	"github.com/ormasoftchile/simverify/pkg/report"
	"github.com/ormasoftchile/simverify/pkg/runner"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	flagConfig  string
	flagPreset  string
	flagLog     string
	flagFilter  string
	flagTimeout string
)

var rootCmd = &cobra.Command{
	Use:   "simverify [root-dir]",
	Short: "Batch regression verification for simulation models",
	Long: `simverify — batch regression verification for simulation models.

Recursively finds model-definition files under root-dir (default: the current
directory), runs each through the external simulation engine with its
co-located reference mass-balance report, and prints a pass/fail summary.

Exit codes:
  0 — at least one model found and all verified
  1 — at least one model failed, or no models were found
  2 — configuration invalid (no models ran)`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
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

	os.Exit(runPipeline(os.Stdout, root, cfg))
	return nil
}

// resolveRoot turns the optional positional argument into an absolute search
// root, defaulting to the current directory.
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root %q: %w", root, err)
	}
	if fi, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("search root: %w", err)
	} else if !fi.IsDir() {
		return "", fmt.Errorf("search root %s is not a directory", abs)
	}
	return abs, nil
}

// resolveConfig layers the effective configuration: preset or config file,
// then individual flag overrides, then full validation.
func resolveConfig(root string) (*config.Config, []*config.ValidationError) {
	var cfg *config.Config
	var err error

	if flagPreset != "" {
		cfg, err = config.Preset(flagPreset)
	} else {
		cfg, err = config.Resolve(flagConfig, root)
	}
	if err != nil {
		return nil, []*config.ValidationError{{Phase: "structural", Message: err.Error()}}
	}

	if flagLog != "" {
		cfg.LogFile = flagLog
	}
	if flagFilter != "" {
		cfg.Filter = flagFilter
	}
	if flagTimeout != "" {
		cfg.Timeout = flagTimeout
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, errs
	}
	return cfg, nil
}

// runPipeline executes discovery → per-model verification → summary and
// returns the process exit code. Per-model failures never abort the batch;
// only empty discovery and harness-level I/O errors are fatal.
func runPipeline(out io.Writer, root string, cfg *config.Config) int {
	logPath := cfg.LogFile
	if logPath != "" && !filepath.IsAbs(logPath) {
		logPath = filepath.Join(root, logPath)
	}

	rep := report.New(out, logPath)
	if err := rep.Begin(root); err != nil {
		fmt.Fprintf(os.Stderr, "  ✗ %v\n", err)
		return 1
	}

	filter, err := discovery.NewFilter(cfg.Filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  ✗ %v\n", err)
		return 1
	}

	models, err := discovery.Find(root, cfg.ModelExtension, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  ✗ %v\n", err)
		return 1
	}

	if len(models) == 0 {
		rep.NoModels(cfg.ModelExtension)
		return 1
	}
	rep.Found(len(models))

	run, err := runner.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  ✗ %v\n", err)
		return 1
	}

	ctx := context.Background()
	for _, m := range models {
		rep.Verifying(runner.RelPath(root, m.Path))
		rep.Record(run.Verify(ctx, root, m))
	}

	rep.Summary()
	if err := rep.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "  ✗ %v\n", err)
		return 1
	}
	return rep.ExitCode()
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("simverify %s (build: %s)\n", version, commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a simverify.yaml configuration file")
	rootCmd.PersistentFlags().StringVar(&flagPreset, "preset", "", "built-in configuration preset (kalixcli, kalix)")
	rootCmd.PersistentFlags().StringVar(&flagFilter, "filter", "", "expr filter over {path, dir, name} selecting models to run")
	rootCmd.Flags().StringVar(&flagLog, "log", "", "transcript log file path (overrides config; relative to root-dir)")
	rootCmd.Flags().StringVar(&flagTimeout, "timeout", "", "per-model time limit (e.g. 300s, overrides config)")

	rootCmd.AddCommand(versionCmd)
}
