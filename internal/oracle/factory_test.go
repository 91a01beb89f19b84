package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nivasini17/ai-agent-challenge/internal/config"
)

func TestNewClientFromConfig_Groq(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.APIKey = "test-key"

	client, err := NewClientFromConfig(cfg)
	require.NoError(t, err)

	groq, ok := client.(*GroqClient)
	require.True(t, ok, "groq provider should yield a *GroqClient")
	assert.Equal(t, "llama-3.1-8b-instant", groq.Model())
}

func TestNewClientFromConfig_EmptyProviderDefaultsToGroq(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = ""
	cfg.LLM.APIKey = "test-key"
	cfg.LLM.Model = "llama-3.3-70b-versatile"

	client, err := NewClientFromConfig(cfg)
	require.NoError(t, err)

	_, ok := client.(*GroqClient)
	assert.True(t, ok)
	assert.Equal(t, "llama-3.3-70b-versatile", client.Model())
}

func TestNewClientFromConfig_MissingAPIKey(t *testing.T) {
	cfg := config.DefaultConfig()

	_, err := NewClientFromConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no API key found")
}

func TestNewClientFromConfig_UnknownProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = "openai"
	cfg.LLM.APIKey = "test-key"

	_, err := NewClientFromConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestNewGeminiClientWithConfig_MissingAPIKey(t *testing.T) {
	_, err := NewGeminiClientWithConfig(GeminiConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not configured")
}
