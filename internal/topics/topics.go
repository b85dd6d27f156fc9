// Package topics reduces the corpus's subject labels into a deduplicated set
// of representative topics that drives the suggested-questions UI.
package topics

import (
	"context"
	"io"
	"log"
	"sort"

	"github.com/dgp-ops/askdgp/internal/record"
	"github.com/dgp-ops/askdgp/internal/retrieve"
)

// DefaultTopN is how many frequent subjects seed the representative set.
const DefaultTopN = 20

// DefaultThreshold is the fuzzy-similarity score at or above which two labels
// count as duplicates.
const DefaultThreshold = 80

// Suggestion pairs a representative subject label with its question wording.
type Suggestion struct {
	Label    string `json:"label"`
	Question string `json:"question"`
}

// Top returns the n most frequent non-empty subjects, ties broken by
// first-encountered order.
func Top(tbl *record.Table, n int) []string {
	if n <= 0 {
		n = DefaultTopN
	}
	counts := map[string]int{}
	var order []string
	for _, rec := range tbl.Records {
		if rec.Subject == "" {
			continue
		}
		if counts[rec.Subject] == 0 {
			order = append(order, rec.Subject)
		}
		counts[rec.Subject]++
	}
	sort.SliceStable(order, func(a, b int) bool { return counts[order[a]] > counts[order[b]] })
	if len(order) > n {
		order = order[:n]
	}
	return order
}

// Dedupe greedily clusters labels in input order: a label becomes a new
// representative only if its best similarity score against all previously
// accepted representatives is below threshold. Intentionally order-sensitive
// and non-optimal; over at most a few dozen labels the O(n^2) single pass is
// fine. Idempotent on an already-deduplicated input.
func Dedupe(labels []string, scorer retrieve.SimilarityScorer, threshold int) []string {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	var reps []string
	for _, label := range labels {
		best := -1
		for _, rep := range reps {
			if score := scorer.Score(label, rep); score > best {
				best = score
			}
		}
		if best < threshold {
			reps = append(reps, label)
		}
	}
	return reps
}

// QuestionRewriter turns a topic label into a well-formed question.
type QuestionRewriter interface {
	TopicQuestion(ctx context.Context, label string) (string, error)
}

// Questions rewords each label into a question via the composer. A rewording
// failure falls back to the raw label; it is never fatal.
func Questions(ctx context.Context, rw QuestionRewriter, labels []string, logger *log.Logger) []Suggestion {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	out := make([]Suggestion, 0, len(labels))
	for _, label := range labels {
		question, err := rw.TopicQuestion(ctx, label)
		if err != nil {
			logger.Printf("question rewording failed for %q: %v", label, err)
			question = label
		}
		out = append(out, Suggestion{Label: label, Question: question})
	}
	return out
}
