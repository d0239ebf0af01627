package config

import (
	"encoding/json"
	"os"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `json:"server"`
	Line       LineConfig       `json:"line"`
	Completion CompletionConfig `json:"completion"`
	WebSearch  WebSearchConfig  `json:"websearch"`
	Journal    JournalConfig    `json:"journal"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int `json:"port"`
}

// LineConfig holds credentials and webhook behavior for the LINE channel
type LineConfig struct {
	ChannelSecret      string `json:"channel_secret"`
	ChannelAccessToken string `json:"channel_access_token"`
	ValidateSignature  bool   `json:"validate_signature"`
}

// CompletionConfig holds configuration for the completion backend
type CompletionConfig struct {
	Provider       string           `json:"provider"` // "openrouter" or "ollama"
	OpenRouter     OpenRouterConfig `json:"openrouter"`
	Ollama         OllamaConfig     `json:"ollama"`
	TimeoutSeconds time.Duration    `json:"timeout_seconds"`
	Temperature    float64          `json:"temperature"`
}

// OpenRouterConfig holds specific configuration for the OpenRouter API
type OpenRouterConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url"`
	Referer string `json:"referer"`
	Title   string `json:"title"`
}

// OllamaConfig holds specific configuration for a local Ollama instance
type OllamaConfig struct {
	Endpoint string `json:"endpoint"`
	Model    string `json:"model"`
}

// WebSearchConfig holds configuration for web search functionality
type WebSearchConfig struct {
	Enabled       bool   `json:"enabled"`
	Provider      string `json:"provider"` // "duckduckgo", "serpapi" or "brave"
	SerpAPIKey    string `json:"serpapi_key"`
	BraveAPIKey   string `json:"brave_api_key"`
	MaxResults    int    `json:"max_results"`
	SummaryLength int    `json:"summary_length"`
}

// JournalConfig holds configuration for the message journal
type JournalConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoadConfig loads configuration from a JSON file, layered over the defaults.
// Environment variables override file values for credentials and debug flags.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := DefaultConfig()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, err
	}

	applyEnvOverrides(config)
	return config, nil
}

// FromEnv returns the default configuration with environment overrides applied
func FromEnv() *Config {
	config := DefaultConfig()
	applyEnvOverrides(config)
	return config
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Line: LineConfig{
			ValidateSignature: true,
		},
		Completion: CompletionConfig{
			Provider: "openrouter",
			OpenRouter: OpenRouterConfig{
				Model:   "openai/gpt-4o-mini",
				BaseURL: "https://openrouter.ai/api/v1",
				Referer: "https://your-line-bot.com",
				Title:   "LINE Bot",
			},
			Ollama: OllamaConfig{
				Endpoint: "http://localhost:11434",
				Model:    "qwen3:14b",
			},
			TimeoutSeconds: 15,
			Temperature:    0.7,
		},
		WebSearch: WebSearchConfig{
			Enabled:       true,
			Provider:      "duckduckgo",
			MaxResults:    3,
			SummaryLength: 200,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    "./data/journal.db",
		},
	}
}

// applyEnvOverrides lets deployment environments inject credentials without a
// config file, matching the variable names the hosted bot has always used
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("CHANNEL_ACCESS_TOKEN"); v != "" {
		config.Line.ChannelAccessToken = v
	}
	if v := os.Getenv("CHANNEL_SECRET"); v != "" {
		config.Line.ChannelSecret = v
	}
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		config.Completion.OpenRouter.APIKey = v
	}
	if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
		config.Completion.OpenRouter.Model = v
	}
	if v := os.Getenv("SERPAPI_KEY"); v != "" {
		config.WebSearch.SerpAPIKey = v
	}
	if v := os.Getenv("BRAVE_API_KEY"); v != "" {
		config.WebSearch.BraveAPIKey = v
	}
	if v := os.Getenv("ENABLE_SIGNATURE_VALIDATION"); v != "" {
		config.Line.ValidateSignature = strings.EqualFold(v, "true")
	}
}
