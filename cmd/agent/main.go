package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Nivasini17/ai-agent-challenge/internal/config"
	"github.com/Nivasini17/ai-agent-challenge/internal/logging"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string

	// Resolved in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "agent",
	Short: "statement-agent - autonomous bank statement parser factory",
	Long: `statement-agent generates, executes, and validates Go parsers for bank
statement documents in a refinement loop.

Each attempt asks the configured oracle for a candidate parser, runs it in
an interpreter sandbox over the target's sample document, and compares the
output against the reference CSV. Discrepancies feed the next prompt. Once
the attempt budget is spent, a pre-validated fallback parser is installed
instead, so a run always ends with a working parser unless the target is
unknown.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if workspace == "" {
			workspace, _ = os.Getwd()
		}
		if configPath == "" {
			configPath = filepath.Join(workspace, config.DefaultPath)
		}
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.Data.Dir = resolvePath(cfg.Data.Dir)
		cfg.Data.ParserDir = resolvePath(cfg.Data.ParserDir)
		cfg.Data.TraceDir = resolvePath(cfg.Data.TraceDir)

		if err := logging.Initialize(workspace); err != nil {
			logger.Warn("category logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// resolvePath anchors a config-relative path at the workspace root.
func resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(workspace, p)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <workspace>/.agent/config.yaml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(targetsCmd)
	rootCmd.AddCommand(modelsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
