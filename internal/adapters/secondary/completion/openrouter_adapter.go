package completion

import (
	"context"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/takumi/line-bot/config"
	"github.com/takumi/line-bot/internal/core/domain"
	"github.com/takumi/line-bot/internal/core/ports"
	"github.com/takumi/line-bot/internal/logger"
)

const providerOpenRouter = "openrouter"

// headerTransport injects the attribution headers OpenRouter reads for app
// rankings into every outgoing request.
type headerTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.referer != "" {
		clone.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		clone.Header.Set("X-Title", t.title)
	}
	return t.base.RoundTrip(clone)
}

// OpenRouterAdapter implements the CompletionPort interface for the OpenRouter
// chat-completions API.
type OpenRouterAdapter struct {
	client *openai.LLM
	config *config.CompletionConfig
	logger logger.Logger
}

// NewOpenRouterAdapter creates a new OpenRouterAdapter. Without an API key it
// returns an unavailable ProviderError so the caller can run degraded instead
// of exiting.
func NewOpenRouterAdapter(config *config.CompletionConfig, log logger.Logger) (*OpenRouterAdapter, error) {
	if config.OpenRouter.APIKey == "" {
		return nil, ports.NewProviderError(providerOpenRouter, ports.ErrCodeUnavailable, "api key not configured", nil)
	}

	log.Info("Initializing OpenRouter adapter", "base_url", config.OpenRouter.BaseURL, "model", config.OpenRouter.Model)

	httpClient := &http.Client{
		Transport: &headerTransport{
			base:    http.DefaultTransport,
			referer: config.OpenRouter.Referer,
			title:   config.OpenRouter.Title,
		},
	}

	client, err := openai.New(
		openai.WithBaseURL(config.OpenRouter.BaseURL),
		openai.WithToken(config.OpenRouter.APIKey),
		openai.WithModel(config.OpenRouter.Model),
		openai.WithHTTPClient(httpClient),
	)
	if err != nil {
		log.Error("Failed to initialize OpenRouter client", "error", err)
		return nil, ports.NewProviderError(providerOpenRouter, ports.ErrCodeUnavailable, "client initialization failed", err)
	}

	return &OpenRouterAdapter{
		client: client,
		config: config,
		logger: log,
	}, nil
}

// Complete runs one completion exchange and returns the model's text
func (a *OpenRouterAdapter) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(a.config.TimeoutSeconds)*time.Second)
	defer cancel()

	result, err := a.client.GenerateContent(timeoutCtx, requestMessages(req), callOptions(req)...)
	if err != nil {
		a.logger.Error("OpenRouter generation failed", "error", err)
		return "", ports.NewProviderError(providerOpenRouter, ports.ErrCodeTransport, "request failed", err)
	}

	return firstChoice(providerOpenRouter, result)
}

// GetModelInfo returns information about the configured model
func (a *OpenRouterAdapter) GetModelInfo(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{
		"name":     a.config.OpenRouter.Model,
		"provider": providerOpenRouter,
		"base_url": a.config.OpenRouter.BaseURL,
	}, nil
}
