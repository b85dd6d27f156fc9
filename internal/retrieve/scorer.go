package retrieve

import (
	"math"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// SimilarityScorer rates textual similarity between two strings on a 0..100
// scale. Retrieval and topic deduplication depend only on this interface so
// the concrete algorithm stays swappable and unit-testable in isolation.
type SimilarityScorer interface {
	Score(a, b string) int
}

// TokenSortScorer is a token-sort Levenshtein ratio: both inputs are
// lower-cased, whitespace-tokenized, sorted and re-joined before computing
// normalized Levenshtein similarity. Word order therefore does not matter.
type TokenSortScorer struct {
	metric *metrics.Levenshtein
}

func NewTokenSortScorer() *TokenSortScorer {
	return &TokenSortScorer{metric: metrics.NewLevenshtein()}
}

func (s *TokenSortScorer) Score(a, b string) int {
	sim := strutil.Similarity(tokenSort(a), tokenSort(b), s.metric)
	return int(math.Round(sim * 100))
}

func tokenSort(text string) string {
	tokens := strings.Fields(strings.ToLower(text))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
