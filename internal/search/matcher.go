package search

import (
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/vista/internal/domain"
)

// TitleMatcher returns a predicate for Instance.Find. Every word of query must
// fuzzy-match the item's filter value; word order does not matter, so
// "robot mr" finds "Mr. Robot". An empty query matches nothing.
func TitleMatcher(query string) func(*domain.MediaItem) bool {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return func(*domain.MediaItem) bool { return false }
	}
	return func(item *domain.MediaItem) bool {
		if item == nil {
			return false
		}
		words := tokenize(item.FilterValue())
		for _, tok := range tokens {
			if !matchesAnyWord(tok, words) {
				return false
			}
		}
		return true
	}
}

// matchesAnyWord reports whether tok fuzzy-matches one of words. Short tokens
// must be subsequences; longer ones also tolerate a single typo.
func matchesAnyWord(tok string, words []string) bool {
	for _, w := range words {
		if fuzzy.MatchNormalizedFold(tok, w) {
			return true
		}
		if len(tok) >= 5 && fuzzy.LevenshteinDistance(tok, w) <= 1 {
			return true
		}
	}
	return false
}

// tokenize splits text into lowercase words of letters and digits
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
