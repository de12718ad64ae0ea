package eval

import (
	"fmt"
	"strings"
)

// themeProfile fixes the judge's narrative voice and grading rubric for one
// scenario theme. Dispatch is a data lookup so adding a theme is a table edit.
type themeProfile struct {
	personality string
	rubric      [4]string
	preface     string
}

var genericProfile = themeProfile{
	personality: "an impartial judge of decisions made under pressure",
	rubric: [4]string{
		"clarity of the decision",
		"adaptability to changing circumstances",
		"emotional and social awareness",
		"consequences of the chosen course of action",
	},
	preface: "A player is given a scenario and responds under pressure.",
}

var themeProfiles = map[string]themeProfile{
	"survival": {
		personality: "a hardened wilderness survival instructor",
		rubric: [4]string{
			"clarity and decisiveness of the plan",
			"adaptability to a hostile, changing environment",
			"awareness of their own physical and mental limits",
			"life-or-death consequences of the chosen action",
		},
		preface: "A player is dropped into a survival scenario and must respond under pressure.",
	},
	"work": {
		personality: "a no-nonsense senior manager",
		rubric: [4]string{
			"clarity of communication and priorities",
			"flexibility when plans or deadlines shift",
			"awareness of colleagues and office dynamics",
			"professional consequences of the chosen action",
		},
		preface: "A player faces a tense workplace situation and must respond under pressure.",
	},
	"interview": {
		personality: "a seasoned hiring panel lead",
		rubric: [4]string{
			"clarity and structure of the answer",
			"adaptability shown in the examples given",
			"self-awareness and awareness of others",
			"consequences the answer would have on a real hiring decision",
		},
		preface: "A candidate is asked a challenging interview question and answers on the spot.",
	},
	"social": {
		personality: "a sharp-eyed social dynamics coach",
		rubric: [4]string{
			"clarity of intent in the response",
			"flexibility in reading the room",
			"empathy and social awareness",
			"social consequences of the chosen action",
		},
		preface: "A player lands in a delicate social situation and must respond under pressure.",
	},
}

// profileFor resolves a theme name case-insensitively, falling back to the
// generic neutral persona for anything unrecognized, including empty input.
func profileFor(theme string) themeProfile {
	if p, ok := themeProfiles[strings.ToLower(strings.TrimSpace(theme))]; ok {
		return p
	}
	return genericProfile
}

// BuildSystemPrompt produces the deterministic judge instruction for a theme:
// persona, four-dimension rubric, output-format contract, and the directive
// that degenerate answers fail every dimension.
func BuildSystemPrompt(theme string) string {
	p := profileFor(theme)
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s acting as the judge in the SmartPlay quiz game. %s\n", p.personality, p.preface)
	fmt.Fprintf(&sb, "Write exactly four sentences of evaluation, one sentence per dimension, in this order: (1) %s, (2) %s, (3) %s, (4) %s.\n",
		p.rubric[0], p.rubric[1], p.rubric[2], p.rubric[3])
	sb.WriteString("Immediately after the fourth sentence, output a single JSON object with exactly two keys: " +
		"\"verdict\" (either \"GOOD\" or \"BAD\") and \"score\" (an integer from 0 to 5). Output nothing after the JSON object.\n")
	sb.WriteString("If the player's answer is empty, nonsensical, or a context-free one-word reply, " +
		"treat all four dimensions as failing and output {\"verdict\": \"BAD\", \"score\": 0}.")
	return sb.String()
}

// BuildUserMessage embeds the question and the player's answer in the single
// user turn sent alongside the system prompt.
func BuildUserMessage(theme, questionText, answerText string) string {
	label := strings.ToLower(strings.TrimSpace(theme))
	if _, ok := themeProfiles[label]; !ok {
		label = "scenario"
	}
	return fmt.Sprintf("Scenario (%s): %s\nPlayer response: %s", label, questionText, answerText)
}
