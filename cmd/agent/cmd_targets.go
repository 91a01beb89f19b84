package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nivasini17/ai-agent-challenge/internal/artifact"
	"github.com/Nivasini17/ai-agent-challenge/internal/fallback"
	"github.com/Nivasini17/ai-agent-challenge/internal/statement"
)

// targetsCmd lists registered targets and their state
var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List registered targets and their install state",
	Long: `Lists every target with a registered fallback parser, whether sample
data is present under the data directory, and whether a parser is
currently installed.`,
	RunE: listTargets,
}

func listTargets(cmd *cobra.Command, args []string) error {
	registry := fallback.NewRegistry()
	writer := artifact.NewWriter(cfg.Data.ParserDir)

	installed, err := writer.List()
	if err != nil {
		return err
	}
	installedSet := make(map[string]bool, len(installed))
	for _, t := range installed {
		installedSet[t] = true
	}

	targets := registry.Targets()
	if len(targets) == 0 {
		fmt.Println("no targets registered")
		return nil
	}

	fmt.Println(titleStyle.Render("Registered targets"))
	for _, t := range targets {
		data := warnStyle.Render("no sample data")
		if statement.HasData(cfg.Data.Dir, t) {
			data = successStyle.Render("sample data")
		}
		install := mutedStyle.Render("not installed")
		if installedSet[t] {
			install = successStyle.Render("installed at " + writer.Path(t))
		}
		fmt.Printf("  %-12s %s, %s\n", t, data, install)
	}
	return nil
}
