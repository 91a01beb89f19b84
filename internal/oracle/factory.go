// Package oracle provides LLM client implementations for parser generation.
// This file contains provider selection from agent configuration.
package oracle

import (
	"fmt"
	"strings"

	"github.com/Nivasini17/ai-agent-challenge/internal/config"
	"github.com/Nivasini17/ai-agent-challenge/internal/logging"
)

// Provider identifies a supported LLM provider.
type Provider string

const (
	ProviderGroq   Provider = "groq"
	ProviderGemini Provider = "gemini"
)

// NewClientFromConfig creates an LLM client from the agent configuration.
// Provider and API key resolution (config file vs environment) has already
// happened inside config.Load; this only maps the result onto a client.
func NewClientFromConfig(cfg *config.Config) (Client, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("no API key found; set GROQ_API_KEY or GEMINI_API_KEY, or add llm.api_key to %s", config.DefaultPath)
	}

	switch Provider(cfg.LLM.Provider) {
	case ProviderGroq, "":
		client := NewGroqClientWithConfig(GroqConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.GetLLMTimeout(),
		})
		logging.Oracle("Using groq provider (model=%s)", client.Model())
		return client, nil

	case ProviderGemini:
		model := cfg.LLM.Model
		// A non-gemini model name means the provider was flipped by an env
		// override while the model stayed at the groq default; let the
		// gemini default apply instead.
		if !strings.HasPrefix(model, "gemini") {
			model = ""
		}
		client, err := NewGeminiClientWithConfig(GeminiConfig{
			APIKey: cfg.LLM.APIKey,
			Model:  model,
		})
		if err != nil {
			return nil, err
		}
		logging.Oracle("Using gemini provider (model=%s)", client.Model())
		return client, nil

	default:
		return nil, fmt.Errorf("unknown provider: %s (valid: groq, gemini)", cfg.LLM.Provider)
	}
}
