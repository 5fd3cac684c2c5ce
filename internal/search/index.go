// Package search provides the fuzzy matching used for server-side style
// filtering of an in-memory catalogue and for find-in-loaded-pages.
package search

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Index is a title index over a fixed item list. It implements sahilm/fuzzy's
// Source so lowercased titles are computed once at build time.
type Index struct {
	lowerTitles []string
}

// NewIndex builds an index over titles
func NewIndex(titles []string) *Index {
	idx := &Index{lowerTitles: make([]string, len(titles))}
	for i, t := range titles {
		idx.lowerTitles[i] = strings.ToLower(t)
	}
	return idx
}

// String returns the lowercase title at index i (implements fuzzy.Source)
func (idx *Index) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of titles (implements fuzzy.Source)
func (idx *Index) Len() int { return len(idx.lowerTitles) }

// Match is one ranked hit
type Match struct {
	Index          int   // position in the indexed list
	Score          int   // higher is better
	MatchedIndexes []int // matched character positions, for highlighting
}

// Filter returns the positions whose title fuzzy-matches query, best first.
// An empty query matches nothing.
func (idx *Index) Filter(query string) []Match {
	query = strings.TrimSpace(query)
	if query == "" || idx.Len() == 0 {
		return nil
	}

	found := fuzzy.FindFrom(strings.ToLower(query), idx)
	matches := make([]Match, len(found))
	for i, m := range found {
		matches[i] = Match{Index: m.Index, Score: m.Score, MatchedIndexes: m.MatchedIndexes}
	}
	return matches
}
