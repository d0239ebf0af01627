package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takumi/line-bot/config"
	"github.com/takumi/line-bot/internal/core/domain"
	"github.com/takumi/line-bot/internal/core/ports"
	"github.com/takumi/line-bot/internal/logger"
)

func openRouterConfig(baseURL string) *config.CompletionConfig {
	return &config.CompletionConfig{
		Provider: "openrouter",
		OpenRouter: config.OpenRouterConfig{
			APIKey:  "test-key",
			Model:   "openai/gpt-4o-mini",
			BaseURL: baseURL,
			Referer: "https://your-line-bot.com",
			Title:   "LINE Bot",
		},
		TimeoutSeconds: 15,
		Temperature:    0.7,
	}
}

func TestNewOpenRouterAdapterWithoutKey(t *testing.T) {
	cfg := openRouterConfig("https://openrouter.ai/api/v1")
	cfg.OpenRouter.APIKey = ""

	adapter, err := NewOpenRouterAdapter(cfg, logger.New(slog.LevelError, io.Discard))

	assert.Nil(t, adapter)
	assert.True(t, ports.IsUnavailable(err))
}

func TestOpenRouterAdapterComplete(t *testing.T) {
	var captured struct {
		path    string
		auth    string
		referer string
		title   string
		body    map[string]interface{}
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		captured.referer = r.Header.Get("HTTP-Referer")
		captured.title = r.Header.Get("X-Title")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured.body)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"gen-1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  grounded answer  "},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	adapter, err := NewOpenRouterAdapter(openRouterConfig(server.URL), logger.New(slog.LevelError, io.Discard))
	require.NoError(t, err)

	got, err := adapter.Complete(context.Background(), domain.CompletionRequest{
		SystemPrompt: "system words",
		UserContent:  "user words",
		MaxTokens:    150,
		Temperature:  0.7,
	})

	require.NoError(t, err)
	assert.Equal(t, "grounded answer", got)

	assert.Equal(t, "/chat/completions", captured.path)
	assert.Equal(t, "Bearer test-key", captured.auth)
	assert.Equal(t, "https://your-line-bot.com", captured.referer)
	assert.Equal(t, "LINE Bot", captured.title)

	assert.Equal(t, "openai/gpt-4o-mini", captured.body["model"])
	assert.Equal(t, float64(150), captured.body["max_tokens"])
	assert.Equal(t, 0.7, captured.body["temperature"])

	messages, ok := captured.body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]interface{})
	second := messages[1].(map[string]interface{})
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, "user", second["role"])
	assert.Contains(t, fmt.Sprintf("%v", first["content"]), "system words")
	assert.Contains(t, fmt.Sprintf("%v", second["content"]), "user words")
}

func TestOpenRouterAdapterEmptyContentIsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"gen-1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"   "},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	adapter, err := NewOpenRouterAdapter(openRouterConfig(server.URL), logger.New(slog.LevelError, io.Discard))
	require.NoError(t, err)

	_, err = adapter.Complete(context.Background(), domain.CompletionRequest{
		SystemPrompt: "s",
		UserContent:  "u",
		MaxTokens:    100,
	})

	assert.True(t, ports.IsMalformedResponse(err))
}

func TestOpenRouterAdapterServerErrorIsTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"backend exploded"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter, err := NewOpenRouterAdapter(openRouterConfig(server.URL), logger.New(slog.LevelError, io.Discard))
	require.NoError(t, err)

	_, err = adapter.Complete(context.Background(), domain.CompletionRequest{
		SystemPrompt: "s",
		UserContent:  "u",
		MaxTokens:    100,
	})

	assert.True(t, ports.IsTransport(err))
}

func TestOpenRouterAdapterTimeoutIsTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"too late"}}]}`)
	}))
	defer server.Close()

	cfg := openRouterConfig(server.URL)
	cfg.TimeoutSeconds = 0

	adapter, err := NewOpenRouterAdapter(cfg, logger.New(slog.LevelError, io.Discard))
	require.NoError(t, err)

	_, err = adapter.Complete(context.Background(), domain.CompletionRequest{
		SystemPrompt: "s",
		UserContent:  "u",
		MaxTokens:    100,
	})

	assert.True(t, ports.IsTransport(err))
}
