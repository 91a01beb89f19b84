package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroqClient_Generate(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq ChatRequest
	var decodeErr error

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		decodeErr = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"\npackage main\n"}}],"usage":{"total_tokens":42}}`)
	}))
	defer server.Close()

	client := NewGroqClientWithConfig(GroqConfig{APIKey: "test-key", BaseURL: server.URL})

	got, err := client.Generate(context.Background(), "You write Go parsers.", "Generate the parser.")
	require.NoError(t, err)
	assert.Equal(t, "package main", got, "response should be whitespace-trimmed")

	require.NoError(t, decodeErr)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, defaultGroqModel, gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "You write Go parsers.", gotReq.Messages[0].Content)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, defaultMaxTokens, gotReq.MaxTokens)
	assert.InDelta(t, defaultTemperature, gotReq.Temperature, 1e-9)
}

func TestGroqClient_Generate_NoSystemPrompt(t *testing.T) {
	var gotReq ChatRequest
	var decodeErr error

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decodeErr = json.NewDecoder(r.Body).Decode(&gotReq)
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer server.Close()

	client := NewGroqClientWithConfig(GroqConfig{APIKey: "test-key", BaseURL: server.URL})

	_, err := client.Generate(context.Background(), "   ", "just the user prompt")
	require.NoError(t, err)
	require.NoError(t, decodeErr)
	require.Len(t, gotReq.Messages, 1, "blank system prompt should be omitted")
	assert.Equal(t, "user", gotReq.Messages[0].Role)
}

func TestGroqClient_Generate_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"Rate limit reached for model","type":"tokens"}}`)
	}))
	defer server.Close()

	client := NewGroqClientWithConfig(GroqConfig{APIKey: "test-key", BaseURL: server.URL})

	_, err := client.Generate(context.Background(), "", "prompt")
	require.Error(t, err)

	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, "groq", rle.Provider)
	assert.Equal(t, 7*time.Second, rle.RetryAfter)
	assert.Contains(t, rle.RawResponse, "Rate limit reached")
}

func TestGroqClient_Generate_RateLimitedNoHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewGroqClientWithConfig(GroqConfig{APIKey: "test-key", BaseURL: server.URL})

	_, err := client.Generate(context.Background(), "", "prompt")
	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Zero(t, rle.RetryAfter, "missing header leaves the backoff choice to the caller")
}

func TestGroqClient_Generate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "upstream exploded")
	}))
	defer server.Close()

	client := NewGroqClientWithConfig(GroqConfig{APIKey: "test-key", BaseURL: server.URL})

	_, err := client.Generate(context.Background(), "", "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")

	_, isRateLimit := AsRateLimit(err)
	assert.False(t, isRateLimit, "a 500 is not a rate limit")
}

func TestGroqClient_Generate_ErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"message":"model decommissioned","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	client := NewGroqClientWithConfig(GroqConfig{APIKey: "test-key", BaseURL: server.URL})

	_, err := client.Generate(context.Background(), "", "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model decommissioned")
}

func TestGroqClient_Generate_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer server.Close()

	client := NewGroqClientWithConfig(GroqConfig{APIKey: "test-key", BaseURL: server.URL})

	_, err := client.Generate(context.Background(), "", "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no completion returned")
}

func TestGroqClient_Generate_MissingAPIKey(t *testing.T) {
	client := NewGroqClientWithConfig(GroqConfig{BaseURL: "http://unreachable.invalid"})

	_, err := client.Generate(context.Background(), "", "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not configured")
}

func TestGroqClient_ListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		fmt.Fprint(w, `{"object":"list","data":[
			{"id":"llama-3.1-8b-instant","object":"model","owned_by":"Meta","active":true,"context_window":131072},
			{"id":"llama-3.3-70b-versatile","object":"model","owned_by":"Meta","active":true,"context_window":131072}
		]}`)
	}))
	defer server.Close()

	client := NewGroqClientWithConfig(GroqConfig{APIKey: "test-key", BaseURL: server.URL})

	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "llama-3.1-8b-instant", models[0].ID)
	assert.Equal(t, "Meta", models[0].OwnedBy)
	assert.True(t, models[0].Active)
	assert.Equal(t, 131072, models[0].ContextWindow)
}

func TestGroqClient_SetModel(t *testing.T) {
	client := NewGroqClient("test-key")
	assert.Equal(t, defaultGroqModel, client.Model())

	client.SetModel("llama-3.3-70b-versatile")
	assert.Equal(t, "llama-3.3-70b-versatile", client.Model())
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{"seconds", "7", 7 * time.Second},
		{"fractional seconds", "2.5", 2500 * time.Millisecond},
		{"zero", "0", 0},
		{"padded", " 12 ", 12 * time.Second},
		{"empty", "", 0},
		{"garbage", "soon", 0},
		{"negative", "-3", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRetryAfter(tt.header))
		})
	}

	t.Run("http date", func(t *testing.T) {
		header := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
		got := parseRetryAfter(header)
		assert.Greater(t, got, 50*time.Minute)
		assert.LessOrEqual(t, got, time.Hour)
	})
}
