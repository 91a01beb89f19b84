package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Nivasini17/ai-agent-challenge/internal/artifact"
	"github.com/Nivasini17/ai-agent-challenge/internal/sandbox"
	"github.com/Nivasini17/ai-agent-challenge/internal/statement"
)

var (
	execTarget string
	execInput  string
	execOutput string
)

// execCmd runs an installed parser against a statement document
var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "Run an installed parser against a statement document",
	Long: `Loads the parser previously installed for a target and runs it in the
sandbox against the given statement document. The parsed transactions are
written as CSV to stdout, or to --output when given.

Examples:
  agent exec --target icici --input data/icici/sample.pdf
  agent exec --target icici --input march.pdf --output march.csv`,
	RunE: execParser,
}

func init() {
	execCmd.Flags().StringVarP(&execTarget, "target", "t", "", "Target bank identifier (required)")
	execCmd.Flags().StringVarP(&execInput, "input", "i", "", "Statement document to parse, PDF or text (required)")
	execCmd.Flags().StringVarP(&execOutput, "output", "o", "", "Write CSV here instead of stdout")
	execCmd.MarkFlagRequired("target")
	execCmd.MarkFlagRequired("input")
}

func execParser(cmd *cobra.Command, args []string) error {
	writer := artifact.NewWriter(cfg.Data.ParserDir)
	source, err := writer.Load(execTarget)
	if err != nil {
		return err
	}

	text, err := statement.LoadSample(execInput)
	if err != nil {
		return err
	}

	logger.Info("executing parser",
		zap.String("target", execTarget),
		zap.String("input", execInput),
		zap.Int("chars", len(text)))

	executor := sandbox.NewExecutorWithTimeout(cfg.GetExecTimeout())
	outcome := executor.Run(context.Background(), source, text)
	if !outcome.Success {
		return fmt.Errorf("parser for %q failed on %s: %s", execTarget, execInput, outcome.Error)
	}

	csvText, err := outcome.Output.ToCSV()
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	if execOutput != "" {
		if err := os.WriteFile(execOutput, []byte(csvText), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", execOutput, err)
		}
		fmt.Printf("%s %d transactions -> %s\n",
			successStyle.Render("OK"), outcome.Output.NumRows(), execOutput)
		return nil
	}

	fmt.Print(csvText)
	return nil
}
