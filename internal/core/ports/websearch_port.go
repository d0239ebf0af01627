package ports

import (
	"context"
)

// SearchResult represents a single search result item
type SearchResult struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Snippet       string `json:"snippet"`
	DisplayedLink string `json:"displayed_link"`
	Position      int    `json:"position"`
}

// WebSearchPort defines the interface for web search backends. Search returns
// an empty slice when the backend answered but found nothing; an error means
// the call itself failed.
type WebSearchPort interface {
	// Search performs a web search with the given query and returns results
	Search(ctx context.Context, query string) ([]SearchResult, error)

	// Name returns the provider name for logs and the journal
	Name() string
}
