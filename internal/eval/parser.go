package eval

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"smartplay-service/internal/domain"
)

// Parsed is the normalized form of a raw model reply. Verdict and Score are
// nil when the reply did not contain a usable value for them.
type Parsed struct {
	Text    string
	Verdict *domain.Verdict
	Score   *int
}

// Valid reports whether the reply carried both a recognized verdict and a
// score; anything less triggers the orchestrator's fallback.
func (p Parsed) Valid() bool {
	return p.Verdict != nil && p.Score != nil
}

// Parse splits a raw model reply into the prose evaluation and the trailing
// JSON verdict/score object. Model output is irregular, so this tolerates
// markdown fences, multiple brace pairs, nested non-JSON braces, trailing
// prose inside the prose section, and wrongly typed fields, without ever
// failing: a reply with no parsable JSON simply yields nil verdict and score
// with the whole text kept as evaluation prose.
func Parse(raw string) Parsed {
	text := stripFences(strings.TrimSpace(raw))

	start := strings.LastIndex(text, "{")
	if start < 0 {
		return Parsed{Text: text}
	}

	// The object is expected at the end, after the prose. Scan forward from
	// the last "{" and keep the first substring that parses; that finds the
	// minimal closing brace even when the prose before it contains stray
	// brace pairs.
	var obj map[string]any
	matched := false
	for i := start + 1; i < len(text); i++ {
		if text[i] != '}' {
			continue
		}
		var candidate map[string]any
		if err := json.Unmarshal([]byte(text[start:i+1]), &candidate); err == nil {
			obj = candidate
			matched = true
			break
		}
	}
	if !matched {
		return Parsed{Text: text}
	}

	return Parsed{
		Text:    strings.TrimSpace(text[:start]),
		Verdict: normalizeVerdict(obj["verdict"]),
		Score:   normalizeScore(obj["score"]),
	}
}

// stripFences removes markdown code-block markers the model may have wrapped
// the JSON in, tagged or not.
func stripFences(text string) string {
	for _, marker := range []string{"```json", "```JSON", "```"} {
		text = strings.ReplaceAll(text, marker, "")
	}
	return strings.TrimSpace(text)
}

// normalizeVerdict accepts only GOOD or BAD after uppercasing and trimming;
// anything else, including missing or non-string values, becomes nil.
func normalizeVerdict(v any) *domain.Verdict {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	switch domain.Verdict(strings.ToUpper(strings.TrimSpace(s))) {
	case domain.VerdictGood:
		verdict := domain.VerdictGood
		return &verdict
	case domain.VerdictBad:
		verdict := domain.VerdictBad
		return &verdict
	}
	return nil
}

// normalizeScore coerces the score to a number, rounds to the nearest
// integer, and clamps into [0, 5]. Coercion failure yields nil.
func normalizeScore(v any) *int {
	var f float64
	switch value := v.(type) {
	case float64:
		f = value
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil
		}
		f = parsed
	case json.Number:
		parsed, err := value.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	score := int(math.Round(f))
	if score < 0 {
		score = 0
	}
	if score > 5 {
		score = 5
	}
	return &score
}
