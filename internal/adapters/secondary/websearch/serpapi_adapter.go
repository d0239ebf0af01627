package websearch

import (
	"context"

	serpapi "github.com/serpapi/google-search-results-golang"

	"github.com/takumi/line-bot/config"
	"github.com/takumi/line-bot/internal/core/ports"
	"github.com/takumi/line-bot/internal/logger"
)

// SerpAPIAdapter implements the WebSearchPort interface using SerpAPI's
// Google engine.
type SerpAPIAdapter struct {
	config *config.WebSearchConfig
	logger logger.Logger
}

// NewSerpAPIAdapter creates a new SerpAPIAdapter. Without an API key it
// returns an unavailable ProviderError.
func NewSerpAPIAdapter(config *config.WebSearchConfig, log logger.Logger) (*SerpAPIAdapter, error) {
	if config.SerpAPIKey == "" {
		return nil, ports.NewProviderError("serpapi", ports.ErrCodeUnavailable, "api key not configured", nil)
	}
	return &SerpAPIAdapter{
		config: config,
		logger: log,
	}, nil
}

// Name returns the provider name for logs and the journal
func (a *SerpAPIAdapter) Name() string { return "serpapi" }

// Search performs a web search with the given query and returns results. The
// SerpAPI client has no context support, so ctx only bounds the caller.
func (a *SerpAPIAdapter) Search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	a.logger.Info("Performing SerpAPI web search", "query", query)

	parameters := map[string]string{
		"q":             query,
		"engine":        "google",
		"google_domain": "google.com",
		"gl":            "us",
		"hl":            "en",
	}

	client := serpapi.NewGoogleSearch(parameters, a.config.SerpAPIKey)

	data, err := client.GetJSON()
	if err != nil {
		a.logger.Error("SerpAPI search failed", "error", err)
		return nil, ports.NewProviderError("serpapi", ports.ErrCodeTransport, "request failed", err)
	}

	var results []ports.SearchResult
	if organicResults, ok := data["organic_results"].([]interface{}); ok {
		for i, result := range organicResults {
			resultMap, ok := result.(map[string]interface{})
			if !ok {
				continue
			}
			results = append(results, ports.SearchResult{
				Title:         getStringValue(resultMap, "title"),
				Link:          getStringValue(resultMap, "link"),
				Snippet:       getStringValue(resultMap, "snippet"),
				DisplayedLink: getStringValue(resultMap, "displayed_link"),
				Position:      i + 1,
			})
		}
	}

	a.logger.Info("SerpAPI web search completed", "results_count", len(results))
	return results, nil
}

// getStringValue safely extracts a string value from a decoded JSON map
func getStringValue(data map[string]interface{}, key string) string {
	if value, ok := data[key]; ok {
		if strValue, ok := value.(string); ok {
			return strValue
		}
	}
	return ""
}
