package eval

import (
	"strings"
	"testing"

	"smartplay-service/internal/domain"
)

func TestParseExtractsLastJSONObject(t *testing.T) {
	raw := `Evaluation: the plan is workable but ignores the weather nested {not json} trailing. {"verdict":"GOOD","score":4}`

	parsed := Parse(raw)
	if !parsed.Valid() {
		t.Fatalf("expected valid parse, got %+v", parsed)
	}
	if *parsed.Verdict != domain.VerdictGood || *parsed.Score != 4 {
		t.Fatalf("expected GOOD/4, got %v/%v", *parsed.Verdict, *parsed.Score)
	}
	if strings.Contains(parsed.Text, `"verdict"`) {
		t.Fatalf("evaluation text should exclude the JSON, got %q", parsed.Text)
	}
	if !strings.Contains(parsed.Text, "ignores the weather") {
		t.Fatalf("evaluation text lost the prose: %q", parsed.Text)
	}
}

func TestParseStripsMarkdownFences(t *testing.T) {
	raw := "The answer is decisive and calm.\n```json\n{\"verdict\": \"good\", \"score\": 5}\n```"

	parsed := Parse(raw)
	if !parsed.Valid() {
		t.Fatalf("expected valid parse, got %+v", parsed)
	}
	if *parsed.Verdict != domain.VerdictGood || *parsed.Score != 5 {
		t.Fatalf("expected GOOD/5, got %v/%v", *parsed.Verdict, *parsed.Score)
	}
}

func TestParseNoJSON(t *testing.T) {
	raw := "The model rambled and produced no structured output at all."

	parsed := Parse(raw)
	if parsed.Valid() {
		t.Fatalf("expected invalid parse, got %+v", parsed)
	}
	if parsed.Verdict != nil || parsed.Score != nil {
		t.Fatalf("expected nil verdict and score, got %+v", parsed)
	}
	if parsed.Text != raw {
		t.Fatalf("expected whole text kept as prose, got %q", parsed.Text)
	}
}

func TestParseUnclosedBrace(t *testing.T) {
	parsed := Parse(`Close call. {"verdict":"GOOD","score":`)
	if parsed.Valid() {
		t.Fatalf("expected invalid parse, got %+v", parsed)
	}
}

func TestVerdictNormalization(t *testing.T) {
	cases := []struct {
		raw  string
		want *domain.Verdict
	}{
		{`x {"verdict":"good","score":3}`, verdictPtr(domain.VerdictGood)},
		{`x {"verdict":"GOOD ","score":3}`, verdictPtr(domain.VerdictGood)},
		{`x {"verdict":"Good","score":3}`, verdictPtr(domain.VerdictGood)},
		{`x {"verdict":" bad","score":3}`, verdictPtr(domain.VerdictBad)},
		{`x {"verdict":"EXCELLENT","score":3}`, nil},
		{`x {"verdict":2,"score":3}`, nil},
		{`x {"score":3}`, nil},
	}
	for _, tc := range cases {
		parsed := Parse(tc.raw)
		if tc.want == nil {
			if parsed.Verdict != nil {
				t.Fatalf("%q: expected nil verdict, got %v", tc.raw, *parsed.Verdict)
			}
			continue
		}
		if parsed.Verdict == nil || *parsed.Verdict != *tc.want {
			t.Fatalf("%q: expected %v, got %v", tc.raw, *tc.want, parsed.Verdict)
		}
	}
}

func TestScoreClamping(t *testing.T) {
	cases := []struct {
		raw  string
		want *int
	}{
		{`x {"verdict":"GOOD","score":"4.9"}`, intPtr(5)},
		{`x {"verdict":"GOOD","score":7}`, intPtr(5)},
		{`x {"verdict":"GOOD","score":-3}`, intPtr(0)},
		{`x {"verdict":"GOOD","score":"abc"}`, nil},
		{`x {"verdict":"GOOD","score":2.4}`, intPtr(2)},
		{`x {"verdict":"GOOD","score":null}`, nil},
		{`x {"verdict":"GOOD"}`, nil},
	}
	for _, tc := range cases {
		parsed := Parse(tc.raw)
		if tc.want == nil {
			if parsed.Score != nil {
				t.Fatalf("%q: expected nil score, got %d", tc.raw, *parsed.Score)
			}
			continue
		}
		if parsed.Score == nil || *parsed.Score != *tc.want {
			t.Fatalf("%q: expected %d, got %v", tc.raw, *tc.want, parsed.Score)
		}
	}
}

func verdictPtr(v domain.Verdict) *domain.Verdict { return &v }

func intPtr(n int) *int { return &n }
