// Package retrieve finds candidate historical replies for a free-text query
// using a two-stage strategy: a cheap block-level exact substring pass, then
// a fuzzy-similarity fallback over the whole table.
package retrieve

import (
	"io"
	"log"
	"sort"
	"strings"

	"github.com/dgp-ops/askdgp/internal/record"
)

// NoInformationMessage is the marker handed to the composer when retrieval
// yields nothing. An empty result is a valid state, not an error.
const NoInformationMessage = "Sorry, I couldn't find any relevant information based on your query."

// DefaultMaxCandidates caps how many candidates are presented downstream.
const DefaultMaxCandidates = 5

// Candidate is the answer-bearing projection of a ticket record.
type Candidate struct {
	Reply              string
	AdditionalComments string
}

// Stage records which pass produced the candidates.
type Stage int

const (
	StageNone Stage = iota
	StageExact
	StageFuzzy
)

func (s Stage) String() string {
	switch s {
	case StageExact:
		return "exact"
	case StageFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// Result is an ordered candidate list of length at most MaxCandidates.
type Result struct {
	Candidates []Candidate
	Stage      Stage
}

func (r Result) Empty() bool { return len(r.Candidates) == 0 }

type Retriever struct {
	Scorer        SimilarityScorer
	BlockSize     int
	MaxCandidates int
	Logger        *log.Logger
}

func New(scorer SimilarityScorer) *Retriever {
	return &Retriever{
		Scorer:        scorer,
		BlockSize:     record.DefaultBlockSize,
		MaxCandidates: DefaultMaxCandidates,
		Logger:        log.New(io.Discard, "", 0),
	}
}

// Retrieve runs the two-stage search. Stage 1 tests the lower-cased query as
// a substring of each block's space-joined query details; a hit emits every
// record of that block, not just the matching row. Block granularity is
// deliberate: it tolerates partial phrase matches within a locality of five
// records, at the cost of pulling in the block's neighbours. Stage 2 runs
// only when stage 1 found nothing and accepts every key in descending
// similarity order. The merged list is truncated to MaxCandidates.
func (r *Retriever) Retrieve(query string, tbl *record.Table) Result {
	if tbl.Len() == 0 {
		return Result{}
	}

	candidates := r.exactPass(query, tbl)
	stage := StageExact
	if len(candidates) == 0 {
		candidates = r.fuzzyPass(query, tbl)
		stage = StageFuzzy
	}
	if len(candidates) == 0 {
		return Result{Stage: StageNone}
	}
	if max := r.maxCandidates(); len(candidates) > max {
		candidates = candidates[:max]
	}
	return Result{Candidates: candidates, Stage: stage}
}

func (r *Retriever) exactPass(query string, tbl *record.Table) []Candidate {
	needle := strings.ToLower(query)
	var out []Candidate
	for _, block := range tbl.Blocks(r.BlockSize) {
		details := make([]string, 0, len(block.Records))
		for _, rec := range block.Records {
			details = append(details, rec.QueryDetails)
		}
		haystack := strings.ToLower(strings.Join(details, " "))
		if !strings.Contains(haystack, needle) {
			continue
		}
		for _, rec := range block.Records {
			out = append(out, Candidate{Reply: rec.Reply, AdditionalComments: rec.AdditionalComments})
		}
	}
	return out
}

// fuzzyPass scores the query against every record's query details and every
// record's subject. The candidate-key list is the concatenation of the two
// column slices, so key index i refers to row i when i < len(table) and to
// row i-len(table) otherwise.
func (r *Retriever) fuzzyPass(query string, tbl *record.Table) []Candidate {
	n := tbl.Len()
	type scored struct {
		key   int
		score int
	}
	keys := make([]scored, 0, 2*n)
	for i, rec := range tbl.Records {
		keys = append(keys, scored{key: i, score: r.Scorer.Score(query, rec.QueryDetails)})
	}
	for i, rec := range tbl.Records {
		keys = append(keys, scored{key: n + i, score: r.Scorer.Score(query, rec.Subject)})
	}
	sort.SliceStable(keys, func(a, b int) bool { return keys[a].score > keys[b].score })

	max := r.maxCandidates()
	out := make([]Candidate, 0, max)
	for _, k := range keys {
		row := k.key
		if row >= n {
			row -= n
		}
		if row < 0 || row >= n {
			// Key cannot be mapped back to a row; keep whatever we already have.
			r.logger().Printf("fuzzy match key %d outside table of %d rows, skipping", k.key, n)
			continue
		}
		rec := tbl.Records[row]
		out = append(out, Candidate{Reply: rec.Reply, AdditionalComments: rec.AdditionalComments})
		if len(out) >= max {
			break
		}
	}
	return out
}

func (r *Retriever) maxCandidates() int {
	if r.MaxCandidates > 0 {
		return r.MaxCandidates
	}
	return DefaultMaxCandidates
}

func (r *Retriever) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.New(io.Discard, "", 0)
}
