package retrieve

import "testing"

func TestTokenSortScorer(t *testing.T) {
	t.Parallel()
	s := NewTokenSortScorer()
	tests := []struct {
		name string
		a, b string
		want func(score int) bool
	}{
		{name: "identical strings score 100", a: "billing for subscription", b: "billing for subscription", want: func(v int) bool { return v == 100 }},
		{name: "word order is ignored", a: "subscription billing for", b: "for billing subscription", want: func(v int) bool { return v == 100 }},
		{name: "case is ignored", a: "CageScan Module", b: "cagescan module", want: func(v int) bool { return v == 100 }},
		{name: "near duplicates score above threshold", a: "Unable to access dashboard", b: "unable to access dashboards", want: func(v int) bool { return v >= 80 }},
		{name: "unrelated strings score low", a: "supplier invoice", b: "qqq zzz xxx", want: func(v int) bool { return v < 40 }},
		{name: "empty versus empty", a: "", b: "", want: func(v int) bool { return v == 100 }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(tt.a, tt.b)
			if got < 0 || got > 100 {
				t.Fatalf("Score(%q, %q) = %d, outside 0..100", tt.a, tt.b, got)
			}
			if !tt.want(got) {
				t.Fatalf("Score(%q, %q) = %d, fails expectation", tt.a, tt.b, got)
			}
		})
	}
}

func TestTokenSortScorerSymmetry(t *testing.T) {
	t.Parallel()
	s := NewTokenSortScorer()
	a, b := "agency health check overdue", "health check for agency"
	if s.Score(a, b) != s.Score(b, a) {
		t.Fatalf("scorer should be symmetric: %d vs %d", s.Score(a, b), s.Score(b, a))
	}
}
