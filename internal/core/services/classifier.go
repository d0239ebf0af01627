package services

import (
	"context"

	"github.com/takumi/line-bot/internal/core/domain"
	"github.com/takumi/line-bot/internal/core/ports"
	"github.com/takumi/line-bot/internal/logger"
)

// Classifier decides whether a user message needs a web search before
// answering.
type Classifier struct {
	completion  ports.CompletionPort
	temperature float64
	logger      logger.Logger
}

// NewClassifier creates a new Classifier
func NewClassifier(completion ports.CompletionPort, temperature float64, logger logger.Logger) *Classifier {
	return &Classifier{
		completion:  completion,
		temperature: temperature,
		logger:      logger,
	}
}

// Classify runs one completion exchange over the user message and parses the
// verdict. On completion failure the error is returned and the caller falls
// back to a direct answer; the user never sees a classification failure.
func (c *Classifier) Classify(ctx context.Context, userMessage string) (domain.SearchDecision, error) {
	raw, err := c.completion.Complete(ctx, domain.CompletionRequest{
		SystemPrompt: classifierPrompt,
		UserContent:  userMessage,
		MaxTokens:    classifierMaxTokens,
		Temperature:  c.temperature,
	})
	if err != nil {
		return domain.SearchDecision{SuggestedQuery: userMessage}, err
	}

	decision := domain.ParseSearchDecision(raw, userMessage)
	c.logger.Info("Search need classified",
		"needs_search", decision.NeedsSearch,
		"query", decision.SuggestedQuery)
	return decision, nil
}
