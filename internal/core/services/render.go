package services

import (
	"fmt"
	"strings"

	"github.com/takumi/line-bot/internal/core/domain"
	"github.com/takumi/line-bot/internal/core/ports"
)

const (
	titleMaxRunes   = 80
	renderMaxRunes  = 1800
	renderOverflow  = "...\n\n💡 Try more specific search terms for better results!"
	noResultsFmt    = "I couldn't find any results for '%s'. Try a different search term!"
	searchFailedFmt = "Sorry, I encountered an error while searching for '%s'. Please try again later."
)

// RenderSearchResults shapes raw search results into the reply text shown to
// the user and fed to contextual composition. Snippets are cut to
// summaryLength runes before normalization, titles to 80 runes; the whole
// rendering is capped at 1800 runes with a fixed overflow hint.
func RenderSearchResults(query string, results []ports.SearchResult, maxResults, summaryLength int) string {
	parts := []string{fmt.Sprintf("🔍 Search results for '%s':\n", query)}

	count := len(results)
	if maxResults > 0 && count > maxResults {
		count = maxResults
	}

	for i := 0; i < count; i++ {
		title := results[i].Title
		if title == "" {
			title = "No title"
		}
		snippet := results[i].Snippet
		if snippet == "" {
			snippet = "No description"
		}

		title = domain.TruncateRunes(title, titleMaxRunes)
		snippet = domain.NormalizeText(domain.TruncateRunes(snippet, summaryLength))

		parts = append(parts, fmt.Sprintf("%d. %s\n%s...\n", i+1, title, snippet))
	}

	rendering := strings.Join(parts, "\n")
	if len([]rune(rendering)) > renderMaxRunes {
		rendering = domain.TruncateRunes(rendering, renderMaxRunes) + renderOverflow
	}

	return rendering
}

// RenderNoResults is the reply for a search that answered with zero results.
func RenderNoResults(query string) string {
	return fmt.Sprintf(noResultsFmt, query)
}

// RenderSearchFailed is the reply for a search call that failed outright.
func RenderSearchFailed(query string) string {
	return fmt.Sprintf(searchFailedFmt, query)
}
