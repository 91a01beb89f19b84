// Package oracle provides LLM client implementations for parser generation.
// This file contains the Gemini client built on the google.golang.org/genai SDK.
package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Nivasini17/ai-agent-challenge/internal/logging"
)

const defaultGeminiModel = "gemini-3-flash-preview"

// GeminiClient implements Client for Google's Gemini API via the genai SDK.
// Like GroqClient it never retries rate limits itself; RESOURCE_EXHAUSTED
// responses are surfaced as *RateLimitError for the caller to handle.
type GeminiClient struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature float64
}

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// NewGeminiClient creates a new Gemini client with default configuration.
func NewGeminiClient(apiKey string) (*GeminiClient, error) {
	return NewGeminiClientWithConfig(GeminiConfig{APIKey: apiKey})
}

// NewGeminiClientWithConfig creates a new Gemini client with custom config.
func NewGeminiClientWithConfig(config GeminiConfig) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key not configured")
	}
	if config.Model == "" {
		config.Model = defaultGeminiModel
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaultMaxTokens
	}
	if config.Temperature <= 0 {
		config.Temperature = defaultTemperature
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: config.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		model:       config.Model,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
	}, nil
}

// Generate sends a system + user prompt pair and returns the completion text.
func (c *GeminiClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	startTime := time.Now()
	logging.OracleDebug("[Gemini] Generate: model=%s system_len=%d user_len=%d", c.model, len(systemPrompt), len(userPrompt))

	genConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(c.temperature)),
		MaxOutputTokens: int32(c.maxTokens),
	}
	if strings.TrimSpace(systemPrompt) != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt), genConfig)
	if err != nil {
		if isRateLimitMessage(err.Error()) {
			logging.OracleWarn("[Gemini] Generate: rate limited: %v", err)
			return "", &RateLimitError{
				Provider:    "gemini",
				RawResponse: truncateString(err.Error(), 500),
			}
		}
		logging.OracleError("[Gemini] Generate: %v", err)
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	response := strings.TrimSpace(result.Text())
	if response == "" {
		logging.OracleError("[Gemini] Generate: no completion returned")
		return "", fmt.Errorf("no completion returned")
	}

	logging.Oracle("[Gemini] Generate: completed in %v response_len=%d", time.Since(startTime), len(response))
	return response, nil
}

// SetModel changes the model used for completions.
func (c *GeminiClient) SetModel(model string) {
	c.model = model
}

// Model returns the current model.
func (c *GeminiClient) Model() string {
	return c.model
}

// Close satisfies io.Closer for callers that tear down their oracle.
// The GenAI client holds no resources needing release.
func (c *GeminiClient) Close() error {
	return nil
}
