package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/takumi/line-bot/internal/core/ports"
)

func TestRenderSearchResultsShape(t *testing.T) {
	results := []ports.SearchResult{
		{Title: "The Go Programming Language", Snippet: "Go is an open source programming language", Link: "https://go.dev"},
		{Title: "Go by Example", Snippet: "Hands-on introduction to Go", Link: "https://gobyexample.com"},
	}

	got := RenderSearchResults("golang", results, 3, 200)

	want := "🔍 Search results for 'golang':\n" +
		"\n1. The Go Programming Language\nGo is an open source programming language...\n" +
		"\n2. Go by Example\nHands-on introduction to Go...\n"
	assert.Equal(t, want, got)
}

func TestRenderSearchResultsCapsTitleLength(t *testing.T) {
	results := []ports.SearchResult{
		{Title: strings.Repeat("t", 100), Snippet: "body"},
	}

	got := RenderSearchResults("q", results, 3, 200)

	assert.Contains(t, got, "1. "+strings.Repeat("t", 80)+"\n")
	assert.NotContains(t, got, strings.Repeat("t", 81))
}

func TestRenderSearchResultsTruncatesSnippetBeforeNormalizing(t *testing.T) {
	// Cutting "ab<b>cdef" to 5 runes leaves "ab<b>"; the dangling tag is then
	// stripped, so the rendered snippet is shorter than the cap.
	results := []ports.SearchResult{
		{Title: "x", Snippet: "ab<b>cdef"},
	}

	got := RenderSearchResults("q", results, 3, 5)

	assert.Contains(t, got, "1. x\nab...\n")
}

func TestRenderSearchResultsNormalizesSnippets(t *testing.T) {
	results := []ports.SearchResult{
		{Title: "x", Snippet: "some <b>bold</b>\n\ntext &amp; more"},
	}

	got := RenderSearchResults("q", results, 3, 200)

	assert.Contains(t, got, "some bold text more...")
}

func TestRenderSearchResultsHonorsMaxResults(t *testing.T) {
	results := []ports.SearchResult{
		{Title: "one", Snippet: "a"},
		{Title: "two", Snippet: "b"},
		{Title: "three", Snippet: "c"},
	}

	got := RenderSearchResults("q", results, 2, 200)

	assert.Contains(t, got, "1. one")
	assert.Contains(t, got, "2. two")
	assert.NotContains(t, got, "three")
}

func TestRenderSearchResultsDefaultsMissingFields(t *testing.T) {
	got := RenderSearchResults("q", []ports.SearchResult{{}}, 3, 200)

	assert.Contains(t, got, "1. No title\nNo description...\n")
}

func TestRenderSearchResultsCapsTotalLength(t *testing.T) {
	long := strings.Repeat("s", 700)
	results := []ports.SearchResult{
		{Title: "a", Snippet: long},
		{Title: "b", Snippet: long},
		{Title: "c", Snippet: long},
	}

	got := RenderSearchResults("q", results, 3, 700)

	assert.Len(t, []rune(got), renderMaxRunes+len([]rune(renderOverflow)))
	assert.True(t, strings.HasSuffix(got, "💡 Try more specific search terms for better results!"))
}

func TestRenderNoResultsAndFailureCarryQuery(t *testing.T) {
	assert.Equal(t,
		"I couldn't find any results for 'rare thing'. Try a different search term!",
		RenderNoResults("rare thing"))
	assert.Equal(t,
		"Sorry, I encountered an error while searching for 'rare thing'. Please try again later.",
		RenderSearchFailed("rare thing"))
}
