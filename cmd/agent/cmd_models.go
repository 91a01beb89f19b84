package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nivasini17/ai-agent-challenge/internal/oracle"
)

// modelsCmd lists the models available to the configured provider
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available from the configured LLM provider",
	RunE:  listModels,
}

func listModels(cmd *cobra.Command, args []string) error {
	client, err := oracle.NewClientFromConfig(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closer, ok := client.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}()

	lister, ok := client.(oracle.ModelLister)
	if !ok {
		return fmt.Errorf("provider %q does not support model listing", cfg.LLM.Provider)
	}

	models, err := lister.ListModels(context.Background())
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Models (%s)", cfg.LLM.Provider)))
	for _, m := range models {
		marker := "  "
		id := m.ID
		if m.ID == client.Model() {
			marker = successStyle.Render("* ")
			id = successStyle.Render(m.ID)
		}
		line := fmt.Sprintf("%s%-40s %-16s %8d tokens", marker, id, m.OwnedBy, m.ContextWindow)
		if !m.Active {
			line += " " + warnStyle.Render("(inactive)")
		}
		fmt.Println(line)
	}
	return nil
}
