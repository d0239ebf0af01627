package completion

import (
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/takumi/line-bot/internal/core/domain"
	"github.com/takumi/line-bot/internal/core/ports"
)

// requestMessages converts a CompletionRequest into the system/user exchange
// every pipeline stage uses.
func requestMessages(req domain.CompletionRequest) []llms.MessageContent {
	return []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, req.UserContent),
	}
}

func callOptions(req domain.CompletionRequest) []llms.CallOption {
	temperature := req.Temperature
	if temperature == 0 {
		temperature = domain.DefaultTemperature
	}
	return []llms.CallOption{
		llms.WithMaxTokens(req.MaxTokens),
		llms.WithTemperature(temperature),
	}
}

// firstChoice extracts the first choice's trimmed text. An empty completion
// is malformed; it must never reach a user.
func firstChoice(provider string, result *llms.ContentResponse) (string, error) {
	if result == nil || len(result.Choices) == 0 {
		return "", ports.NewProviderError(provider, ports.ErrCodeMalformedResponse, "response carried no choices", nil)
	}
	content := strings.TrimSpace(result.Choices[0].Content)
	if content == "" {
		return "", ports.NewProviderError(provider, ports.ErrCodeMalformedResponse, "response content is empty", nil)
	}
	return content, nil
}
