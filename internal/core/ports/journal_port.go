package ports

import (
	"context"

	"github.com/takumi/line-bot/internal/core/domain"
)

// JournalPort defines the interface for the append-only processing journal
type JournalPort interface {
	// Record appends one processed-message entry
	Record(ctx context.Context, entry domain.JournalEntry) error

	// Recent returns the most recent entries, newest first
	Recent(ctx context.Context, limit int) ([]domain.JournalEntry, error)

	// Count returns the total number of recorded entries
	Count(ctx context.Context) (int, error)

	// Close releases the underlying store
	Close() error
}
