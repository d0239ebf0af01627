package completion

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/takumi/line-bot/config"
	"github.com/takumi/line-bot/internal/core/domain"
	"github.com/takumi/line-bot/internal/core/ports"
	"github.com/takumi/line-bot/internal/logger"
)

const providerOllama = "ollama"

// OllamaAdapter implements the CompletionPort interface for a local Ollama
// server, for deployments without OpenRouter credentials.
type OllamaAdapter struct {
	client *ollama.LLM
	config *config.CompletionConfig
	logger logger.Logger
}

// NewOllamaAdapter creates a new OllamaAdapter
func NewOllamaAdapter(config *config.CompletionConfig, log logger.Logger) (*OllamaAdapter, error) {
	log.Info("Initializing Ollama adapter", "endpoint", config.Ollama.Endpoint, "model", config.Ollama.Model)

	client, err := ollama.New(
		ollama.WithServerURL(config.Ollama.Endpoint),
		ollama.WithModel(config.Ollama.Model),
	)
	if err != nil {
		log.Error("Failed to initialize Ollama client", "error", err)
		return nil, ports.NewProviderError(providerOllama, ports.ErrCodeUnavailable, "client initialization failed", err)
	}

	return &OllamaAdapter{
		client: client,
		config: config,
		logger: log,
	}, nil
}

// Complete runs one completion exchange and returns the model's text
func (a *OllamaAdapter) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(a.config.TimeoutSeconds)*time.Second)
	defer cancel()

	result, err := a.client.GenerateContent(timeoutCtx, requestMessages(req), callOptions(req)...)
	if err != nil {
		a.logger.Error("Ollama generation failed", "error", err)
		return "", ports.NewProviderError(providerOllama, ports.ErrCodeTransport, "request failed", err)
	}

	return firstChoice(providerOllama, result)
}

// GetModelInfo returns information about the configured model
func (a *OllamaAdapter) GetModelInfo(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{
		"name":     a.config.Ollama.Model,
		"provider": providerOllama,
		"endpoint": a.config.Ollama.Endpoint,
	}, nil
}
