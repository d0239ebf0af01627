package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/takumi/line-bot/config"
	"github.com/takumi/line-bot/internal/core/ports"
	"github.com/takumi/line-bot/internal/logger"
)

const (
	duckDuckGoBaseURL = "https://html.duckduckgo.com/html/"
	maxResponseBytes  = 2 << 20
)

// DDG's HTML interface marks result anchors with stable classes.
var (
	ddgTitlePattern   = regexp.MustCompile(`<a[^>]*class="result__a"[^>]*href="([^"]*)"[^>]*>([^<]*)</a>`)
	ddgSnippetPattern = regexp.MustCompile(`<a[^>]*class="result__snippet"[^>]*>([^<]*)</a>`)
)

// DuckDuckGoAdapter implements the WebSearchPort interface against
// DuckDuckGo's HTML endpoint. It needs no API key, which makes it the default
// provider.
type DuckDuckGoAdapter struct {
	config     *config.WebSearchConfig
	logger     logger.Logger
	httpClient *http.Client
	baseURL    string
}

// NewDuckDuckGoAdapter creates a new DuckDuckGoAdapter
func NewDuckDuckGoAdapter(config *config.WebSearchConfig, log logger.Logger) *DuckDuckGoAdapter {
	return &DuckDuckGoAdapter{
		config: config,
		logger: log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: duckDuckGoBaseURL,
	}
}

// Name returns the provider name for logs and the journal
func (a *DuckDuckGoAdapter) Name() string { return "duckduckgo" }

// Search performs a web search with the given query and returns results
func (a *DuckDuckGoAdapter) Search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	a.logger.Info("Performing DuckDuckGo web search", "query", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, ports.NewProviderError("duckduckgo", ports.ErrCodeTransport, "create request", err)
	}

	// Browser-like headers; the endpoint rejects obvious bots.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Error("DuckDuckGo request failed", "error", err)
		return nil, ports.NewProviderError("duckduckgo", ports.ErrCodeTransport, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted {
		return nil, ports.NewProviderError("duckduckgo", ports.ErrCodeTransport, "rate limited", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, ports.NewProviderError("duckduckgo", ports.ErrCodeTransport, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, ports.NewProviderError("duckduckgo", ports.ErrCodeTransport, "read response", err)
	}

	results := parseDuckDuckGoResults(string(body))
	a.logger.Info("DuckDuckGo web search completed", "results_count", len(results))
	return results, nil
}

// parseDuckDuckGoResults extracts results from the HTML response. Titles and
// snippets are matched independently and associated by index; a page with no
// result anchors yields an empty slice, not an error.
func parseDuckDuckGoResults(html string) []ports.SearchResult {
	titles := ddgTitlePattern.FindAllStringSubmatch(html, -1)
	snippets := ddgSnippetPattern.FindAllStringSubmatch(html, -1)

	var results []ports.SearchResult
	for i, match := range titles {
		link := resolveRedirect(match[1])

		result := ports.SearchResult{
			Title:    strings.TrimSpace(match[2]),
			Link:     link,
			Position: i + 1,
		}
		if i < len(snippets) {
			result.Snippet = strings.TrimSpace(snippets[i][1])
		}
		if parsed, err := url.Parse(link); err == nil && parsed.Host != "" {
			result.DisplayedLink = parsed.Host
		}

		results = append(results, result)
	}
	return results
}

// resolveRedirect unwraps DDG's /l/?uddg= redirect wrapper around result
// links. The href comes out of an HTML attribute, so other parameters may be
// &amp;-escaped; ParseQuery flags those pairs but still decodes uddg.
func resolveRedirect(raw string) string {
	const prefix = "//duckduckgo.com/l/?"
	if !strings.HasPrefix(raw, prefix) {
		return raw
	}
	values, _ := url.ParseQuery(strings.TrimPrefix(raw, prefix))
	if target := values.Get("uddg"); target != "" {
		return target
	}
	return raw
}
