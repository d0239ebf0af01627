package domain

import (
	"regexp"
	"strings"
)

var (
	searchYesPattern   = regexp.MustCompile(`(?i)<search>YES</search>`)
	searchQueryPattern = regexp.MustCompile(`(?i)Search:\s*["']?([^"'.\n]+)["']?`)
)

// SearchDecision is the classifier's verdict for one user message.
type SearchDecision struct {
	NeedsSearch    bool
	SuggestedQuery string
	Rationale      string
}

// ParseSearchDecision extracts a SearchDecision from the classifier's
// free-form response. NeedsSearch is true only when the response carries a
// <search>YES</search> tag; an empty or garbled response means no search.
// The suggested query comes from a "Search: ..." hint when one is present
// and non-empty, otherwise fallbackQuery is used verbatim.
func ParseSearchDecision(response, fallbackQuery string) SearchDecision {
	decision := SearchDecision{
		SuggestedQuery: fallbackQuery,
		Rationale:      strings.TrimSpace(response),
	}

	if response == "" {
		return decision
	}

	decision.NeedsSearch = searchYesPattern.MatchString(response)

	if m := searchQueryPattern.FindStringSubmatch(response); m != nil {
		if q := strings.TrimSpace(m[1]); q != "" {
			decision.SuggestedQuery = q
		}
	}

	return decision
}
