// Package config holds the agent configuration: LLM provider settings, the
// refinement-loop policy knobs, and data/artifact locations. Configuration is
// a YAML file (default .agent/config.yaml) with environment overrides applied
// on top; a missing file yields defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config location relative to the workspace root.
const DefaultPath = ".agent/config.yaml"

// Config holds all agent configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM oracle configuration
	LLM LLMConfig `yaml:"llm"`

	// Refinement loop policy
	Loop LoopConfig `yaml:"loop"`

	// Data and artifact locations
	Data DataConfig `yaml:"data"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the code-generation oracle.
type LLMConfig struct {
	Provider string `yaml:"provider"` // groq, gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// LoopConfig configures the generate-execute-validate loop.
type LoopConfig struct {
	// Attempt budget per session (each consumed by OracleError,
	// ExecutionFailed, or ValidationFailed)
	MaxAttempts int `yaml:"max_attempts"`

	// Rate-limit retries within a single attempt
	RateLimitRetries  int     `yaml:"rate_limit_retries"`
	InitialBackoff    string  `yaml:"initial_backoff"`
	MaxBackoff        string  `yaml:"max_backoff"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`

	// How many discrepancies are forwarded into the next prompt.
	// 0 forwards the full list.
	MaxFeedbackDiscrepancies int `yaml:"max_feedback_discrepancies"`

	// Per-candidate execution timeout
	ExecTimeout string `yaml:"exec_timeout"`
}

// DataConfig configures where samples, parsers, and traces live.
type DataConfig struct {
	Dir        string `yaml:"dir"`         // per-target sample/reference pairs
	ParserDir  string `yaml:"parser_dir"`  // installed parser artifacts
	TraceDir   string `yaml:"trace_dir"`   // attempt trace exports
	SaveTraces bool   `yaml:"save_traces"` // off by default
}

// LoggingConfig configures the category file logger.
type LoggingConfig struct {
	Enabled    bool            `yaml:"enabled"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "statement-agent",
		Version: "1.0.0",

		LLM: LLMConfig{
			Provider: "groq",
			Model:    "llama-3.1-8b-instant",
			BaseURL:  "https://api.groq.com/openai/v1",
			Timeout:  "90s",
		},

		Loop: LoopConfig{
			MaxAttempts:              3,
			RateLimitRetries:         3,
			InitialBackoff:           "5s",
			MaxBackoff:               "60s",
			BackoffMultiplier:        2.0,
			MaxFeedbackDiscrepancies: 0,
			ExecTimeout:              "10s",
		},

		Data: DataConfig{
			Dir:        "data",
			ParserDir:  ".agent/parsers",
			TraceDir:   ".agent/traces",
			SaveTraces: false,
		},

		Logging: LoggingConfig{
			Enabled: false,
			Level:   "info",
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file returns defaults (with env overrides still applied).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
// GROQ_API_KEY is checked last so it wins when both provider keys are set
// (Groq is the reference deployment).
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "groq"
	}
	if provider := os.Getenv("AGENT_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}
	if model := os.Getenv("AGENT_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if os.Getenv("AGENT_DEBUG") == "1" {
		c.Logging.Enabled = true
		c.Logging.Level = "debug"
	}
}

// Validate checks the configuration for obvious misconfiguration.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "groq", "gemini":
	default:
		return fmt.Errorf("unknown llm provider: %q", c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm api key not configured (set GROQ_API_KEY or GEMINI_API_KEY)")
	}
	if c.Loop.MaxAttempts < 1 {
		return fmt.Errorf("loop max_attempts must be >= 1, got %d", c.Loop.MaxAttempts)
	}
	if c.Loop.BackoffMultiplier < 1 {
		return fmt.Errorf("loop backoff_multiplier must be >= 1, got %v", c.Loop.BackoffMultiplier)
	}
	return nil
}

// parseDuration parses a duration string with a fallback default.
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// GetLLMTimeout returns the oracle request timeout.
func (c *Config) GetLLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 90*time.Second)
}

// GetInitialBackoff returns the first rate-limit backoff delay.
func (c *Config) GetInitialBackoff() time.Duration {
	return parseDuration(c.Loop.InitialBackoff, 5*time.Second)
}

// GetMaxBackoff returns the rate-limit backoff cap.
func (c *Config) GetMaxBackoff() time.Duration {
	return parseDuration(c.Loop.MaxBackoff, 60*time.Second)
}

// GetExecTimeout returns the per-candidate execution timeout.
func (c *Config) GetExecTimeout() time.Duration {
	return parseDuration(c.Loop.ExecTimeout, 10*time.Second)
}
