package domain

import (
	"regexp"
	"strings"
)

var (
	entityPattern     = regexp.MustCompile(`&[a-zA-Z0-9#]+;`)
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// NormalizeText strips HTML character entities and tag-like substrings from
// text and collapses whitespace runs to single spaces. Total and idempotent:
// stripping repeats until a fixed point, because a single removal pass can
// splice the surrounding fragments into a new entity or tag.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}

	for {
		stripped := entityPattern.ReplaceAllString(text, "")
		stripped = tagPattern.ReplaceAllString(stripped, "")
		if stripped == text {
			break
		}
		text = stripped
	}

	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// TruncateRunes returns s cut to at most n runes. Counting runes rather than
// bytes keeps multibyte characters intact.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
