package ports

import (
	"context"

	"github.com/takumi/line-bot/internal/core/domain"
)

// CompletionPort defines the interface for LLM completion backends
type CompletionPort interface {
	// Complete runs one completion exchange and returns the model's text
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)

	// GetModelInfo returns information about the configured model
	GetModelInfo(ctx context.Context) (map[string]interface{}, error)
}
