package classify

import "testing"

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		query string
		hint  string
		want  Category
	}{
		{name: "billing routes to advisories", query: "I want to find out about billing for the subscription", want: Advisories},
		{name: "login routes to application access", query: "I cannot LOGIN to the portal", want: ApplicationAccess},
		{name: "risk module", query: "how do I update my risk register entry", want: IntegratedRiskManagement},
		{name: "cagescan", query: "CageScan results look wrong", want: CageScan},
		{name: "first listed wins on multi-match", query: "billing question about a risk item", want: Advisories},
		{name: "enumeration order beats later category", query: "waiver for a supplier contract", want: PolicyStandards},
		{name: "empty query falls back", query: "", want: Uncategorized},
		{name: "no keywords falls back", query: "completely unrelated gibberish", want: Uncategorized},
		{name: "hint rescues unmatched query", query: "tell me more about that", hint: "Agency Health Check submission", want: AgencyHealthCheck},
		{name: "query wins over hint", query: "vapt findings missing", hint: "supplier onboarding", want: AuditModules},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.query, tt.hint); got != tt.want {
				t.Fatalf("Classify(%q, %q) = %v (%s), want %v (%s)", tt.query, tt.hint, got, got.Label(), tt.want, tt.want.Label())
			}
		})
	}
}

func TestClassifyIsTotal(t *testing.T) {
	t.Parallel()
	inputs := []string{"", " ", "\n", "???", "ümlaut", "a very long string with nothing in it at all"}
	for _, in := range inputs {
		got := Classify(in, "")
		if got.Label() == "" {
			t.Fatalf("Classify(%q) returned category without label", in)
		}
	}
}

func TestUncategorizedLabel(t *testing.T) {
	t.Parallel()
	want := "Advisories, Briefings and any other business matters"
	if got := Uncategorized.Label(); got != want {
		t.Fatalf("Uncategorized.Label() = %q, want %q", got, want)
	}
}
