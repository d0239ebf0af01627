package websearch

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/takumi/line-bot/config"
	"github.com/takumi/line-bot/internal/core/ports"
	"github.com/takumi/line-bot/internal/logger"
)

const braveSearchBaseURL = "https://api.search.brave.com/res/v1/web/search"

// braveSearchResponse is the subset of the Brave Search API response the
// adapter reads.
type braveSearchResponse struct {
	Query struct {
		Original string `json:"original"`
	} `json:"query"`
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
		MoreResultsAvailable bool `json:"more_results_available"`
	} `json:"web"`
}

// BraveAdapter implements the WebSearchPort interface using the Brave Search
// API.
type BraveAdapter struct {
	config     *config.WebSearchConfig
	logger     logger.Logger
	httpClient *http.Client
	baseURL    string
}

// NewBraveAdapter creates a new BraveAdapter. Without an API key it returns
// an unavailable ProviderError.
func NewBraveAdapter(config *config.WebSearchConfig, log logger.Logger) (*BraveAdapter, error) {
	if config.BraveAPIKey == "" {
		return nil, ports.NewProviderError("brave", ports.ErrCodeUnavailable, "api key not configured", nil)
	}
	return &BraveAdapter{
		config: config,
		logger: log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: braveSearchBaseURL,
	}, nil
}

// Name returns the provider name for logs and the journal
func (a *BraveAdapter) Name() string { return "brave" }

// Search performs a web search with the given query and returns results
func (a *BraveAdapter) Search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	a.logger.Info("Performing Brave web search", "query", query)

	searchURL, err := url.Parse(a.baseURL)
	if err != nil {
		return nil, ports.NewProviderError("brave", ports.ErrCodeTransport, "parse base url", err)
	}

	count := a.config.MaxResults
	if count <= 0 {
		count = 10
	}

	q := searchURL.Query()
	q.Set("q", query)
	q.Set("count", strconv.Itoa(count))
	q.Set("offset", "0")
	q.Set("country", "US")
	q.Set("language", "en")
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, ports.NewProviderError("brave", ports.ErrCodeTransport, "create request", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("X-Subscription-Token", a.config.BraveAPIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Error("Brave Search request failed", "error", err)
		return nil, ports.NewProviderError("brave", ports.ErrCodeTransport, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		a.logger.Error("Brave Search returned non-OK status", "status", resp.StatusCode, "body", string(errorBody))
		return nil, ports.NewProviderError("brave", ports.ErrCodeTransport, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	// Accept-Encoding was set explicitly, so the transport does not
	// decompress for us.
	reader := io.Reader(resp.Body)
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, ports.NewProviderError("brave", ports.ErrCodeMalformedResponse, "gzip decode failed", err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxResponseBytes))
	if err != nil {
		return nil, ports.NewProviderError("brave", ports.ErrCodeTransport, "read response", err)
	}

	var braveResp braveSearchResponse
	if err := json.Unmarshal(body, &braveResp); err != nil {
		a.logger.Error("Failed to parse Brave Search response", "error", err)
		return nil, ports.NewProviderError("brave", ports.ErrCodeMalformedResponse, "decode response", err)
	}

	var results []ports.SearchResult
	for i, result := range braveResp.Web.Results {
		displayedLink := result.URL
		if parsedURL, err := url.Parse(result.URL); err == nil && parsedURL.Host != "" {
			displayedLink = parsedURL.Host
		}

		results = append(results, ports.SearchResult{
			Title:         result.Title,
			Link:          result.URL,
			Snippet:       result.Description,
			DisplayedLink: displayedLink,
			Position:      i + 1,
		})
	}

	a.logger.Info("Brave web search completed", "results_count", len(results))
	return results, nil
}
