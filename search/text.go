package search

import (
	"strings"

	"github.com/poiesic/engram/core"
)

// Stop words to filter out of queries before keyword matching. Includes the
// question vocabulary that dominates natural-language study queries.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "what": true, "when": true, "which": true,
	"how": true, "who": true, "i": true, "my": true, "me": true, "did": true,
	"does": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// keywordScore returns the fraction of query tokens that occur as
// case-insensitive substrings of the record's content or title.
// No usable tokens scores 0.
func keywordScore(queryTokens []string, record *core.VectorizedRecord) float64 {
	if len(queryTokens) == 0 {
		return 0
	}

	haystack := strings.ToLower(record.Content)
	if title := record.Metadata[core.MetaTitle]; title != "" {
		haystack += " " + strings.ToLower(title)
	}

	matched := 0
	for _, token := range queryTokens {
		if strings.Contains(haystack, token) {
			matched++
		}
	}

	return float64(matched) / float64(len(queryTokens))
}
