// Package oracle provides LLM client implementations for parser generation.
// This file contains the Groq API client (OpenAI-compatible chat completions).
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Nivasini17/ai-agent-challenge/internal/logging"
)

// Groq-hosted models (2025):
// - llama-3.1-8b-instant    : Fast default, well suited to structured code generation
// - llama-3.3-70b-versatile : Larger model for statements the 8B model cannot crack
// Full list available via ListModels.

const (
	defaultGroqBaseURL = "https://api.groq.com/openai/v1"
	defaultGroqModel   = "llama-3.1-8b-instant"

	// Generation defaults tuned for deterministic code output.
	defaultMaxTokens   = 1000
	defaultTemperature = 0.1

	// Minimum spacing between requests to avoid hammering the API.
	minRequestSpacing = 100 * time.Millisecond
)

// GroqClient implements Client for the Groq API.
// It performs exactly one HTTP request per Generate call: rate limit
// responses come back as *RateLimitError so the refinement loop can decide
// how long to wait without burning an attempt.
type GroqClient struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
	mu          sync.Mutex
	lastRequest time.Time
}

// GroqConfig holds configuration for the Groq client.
type GroqConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// DefaultGroqConfig returns sensible defaults for the Groq free tier.
func DefaultGroqConfig(apiKey string) GroqConfig {
	return GroqConfig{
		APIKey:      apiKey,
		BaseURL:     defaultGroqBaseURL,
		Model:       defaultGroqModel,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
		Timeout:     90 * time.Second,
	}
}

// NewGroqClient creates a new Groq client with default configuration.
func NewGroqClient(apiKey string) *GroqClient {
	return NewGroqClientWithConfig(DefaultGroqConfig(apiKey))
}

// NewGroqClientWithConfig creates a new Groq client with custom config.
// Zero-valued fields fall back to the defaults.
func NewGroqClientWithConfig(config GroqConfig) *GroqClient {
	if config.BaseURL == "" {
		config.BaseURL = defaultGroqBaseURL
	}
	if config.Model == "" {
		config.Model = defaultGroqModel
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaultMaxTokens
	}
	if config.Temperature <= 0 {
		config.Temperature = defaultTemperature
	}
	if config.Timeout <= 0 {
		config.Timeout = 90 * time.Second
	}
	return &GroqClient{
		apiKey:      config.APIKey,
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		model:       config.Model,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Generate sends a system + user prompt pair and returns the completion text.
func (c *GroqClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	// Auto-apply timeout if context has no deadline (centralized timeout handling)
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	logging.OracleDebug("[Groq] Generate: model=%s system_len=%d user_len=%d", c.model, len(systemPrompt), len(userPrompt))

	if c.apiKey == "" {
		logging.OracleError("[Groq] Generate: API key not configured")
		return "", fmt.Errorf("API key not configured")
	}

	// Rate limiting
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < minRequestSpacing {
		time.Sleep(minRequestSpacing - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	var messages []ChatMessage
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: userPrompt})

	reqBody := ChatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		logging.OracleWarn("[Groq] Generate: rate limited (retry_after=%v)", retryAfter)
		return "", &RateLimitError{
			Provider:    "groq",
			RetryAfter:  retryAfter,
			RawResponse: truncateString(string(body), 500),
		}
	}

	if resp.StatusCode != http.StatusOK {
		logging.OracleError("[Groq] Generate: status %d: %s", resp.StatusCode, truncateString(string(body), 200))
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if chatResp.Error != nil {
		if isRateLimitMessage(chatResp.Error.Message) || isRateLimitMessage(chatResp.Error.Type) {
			return "", &RateLimitError{
				Provider:    "groq",
				RawResponse: chatResp.Error.Message,
			}
		}
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		logging.OracleError("[Groq] Generate: no completion returned")
		return "", fmt.Errorf("no completion returned")
	}

	response := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	logging.Oracle("[Groq] Generate: completed in %v response_len=%d tokens=%d", time.Since(startTime), len(response), chatResp.Usage.TotalTokens)
	return response, nil
}

// ListModels fetches the models available to the configured API key.
func (c *GroqClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	if c.apiKey == "" {
		return nil, fmt.Errorf("API key not configured")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var listing modelsResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	models := make([]ModelInfo, 0, len(listing.Data))
	for _, m := range listing.Data {
		models = append(models, ModelInfo{
			ID:            m.ID,
			OwnedBy:       m.OwnedBy,
			Active:        m.Active,
			ContextWindow: m.ContextWindow,
		})
	}
	logging.OracleDebug("[Groq] ListModels: %d models available", len(models))
	return models, nil
}

// SetModel changes the model used for completions.
func (c *GroqClient) SetModel(model string) {
	c.model = model
}

// Model returns the current model.
func (c *GroqClient) Model() string {
	return c.model
}

// parseRetryAfter interprets a Retry-After header value. It accepts whole or
// fractional seconds as well as an HTTP date; anything else maps to zero.
func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if secs, err := strconv.ParseFloat(header, 64); err == nil && secs >= 0 {
		return time.Duration(secs * float64(time.Second))
	}
	if when, err := http.ParseTime(header); err == nil {
		if d := time.Until(when); d > 0 {
			return d
		}
	}
	return 0
}
