package eval

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"
)

// themeSeed holds the few-shot examples the generator prompts with for one
// theme, plus the canned question served when the model cannot deliver.
type themeSeed struct {
	examples [3]string
	fallback string
}

var themeSeeds = map[string]themeSeed{
	"survival": {
		examples: [3]string{
			"You're stranded on a deserted island with limited food and no communication. What is your first course of action?",
			"Your boat capsizes in rough seas and you wash ashore on unfamiliar land. How do you find shelter?",
			"A sudden storm traps you in a mountain cabin with dwindling supplies. What critical decisions do you make?",
		},
		fallback: "You're trapped in a cave with limited supplies. What's your first priority?",
	},
	"work": {
		examples: [3]string{
			"You find a critical error in a report moments before submission. How do you handle it?",
			"Your manager gives you an unrealistic deadline that conflicts with another project. What do you do?",
			"A coworker takes credit for your idea in a meeting. How do you address this?",
		},
		fallback: "You discover a major error in your team's presentation 10 minutes before presenting to the CEO. What do you do?",
	},
	"interview": {
		examples: [3]string{
			"Describe a challenging team conflict you resolved. How did you approach it?",
			"Tell me about a time you missed a deadline. What did you learn?",
			"How would you handle receiving unclear instructions on a critical task?",
		},
		fallback: "Tell me about a time you disagreed with your manager. How did you resolve it?",
	},
	"social": {
		examples: [3]string{
			"You arrive at a gathering where you know nobody and the host is busy. How do you join in?",
			"A close friend asks for honest feedback on work you think is weak. What do you say?",
			"You overhear someone spreading false rumors about your friend. How do you respond?",
		},
		fallback: "You overhear someone spreading false rumors about your friend. How do you respond?",
	},
}

const generatorSystemPrompt = "You create scenario questions for a decision-making quiz. " +
	"Output exactly one self-contained scenario question, under 25 words, and nothing else. " +
	"Do not add labels, introductions, or commentary."

// minGeneratedLen rejects degenerate model output in favor of the canned
// fallback question.
const minGeneratedLen = 10

// QuestionGenerator produces fresh scenario questions with the judge model,
// degrading to a fixed per-theme question when the model fails or replies
// with something unusable.
type QuestionGenerator struct {
	client ModelClient
	rnd    *rand.Rand
}

func NewQuestionGenerator(client ModelClient) *QuestionGenerator {
	return &QuestionGenerator{
		client: client,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Generate returns a new question for the theme, plus the theme it actually
// used: an empty theme draws a random known one, an unknown theme falls back
// to survival. It never returns an error; every failure path yields the
// theme's canned question.
func (g *QuestionGenerator) Generate(ctx context.Context, theme string) (string, string) {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if theme == "" {
		theme = g.randomTheme()
	}
	seed, ok := themeSeeds[theme]
	if !ok {
		seed = themeSeeds["survival"]
	}

	raw, err := g.client.Chat(ctx, generatorSystemPrompt, buildGeneratorMessage(seed))
	if err != nil {
		log.Printf("question generation failed for theme %q, using fallback: %v", theme, err)
		return theme, seed.fallback
	}

	question := strings.TrimSpace(raw)
	if len(question) < minGeneratedLen {
		return theme, seed.fallback
	}
	if !strings.HasSuffix(question, "?") {
		question = strings.TrimRight(question, ".") + "?"
	}
	return theme, question
}

func (g *QuestionGenerator) randomTheme() string {
	themes := make([]string, 0, len(themeSeeds))
	for theme := range themeSeeds {
		themes = append(themes, theme)
	}
	return themes[g.rnd.Intn(len(themes))]
}

func buildGeneratorMessage(seed themeSeed) string {
	var b strings.Builder
	b.WriteString("Here are some example scenario questions:\n")
	for i, example := range seed.examples {
		fmt.Fprintf(&b, "Example %d: %s\n", i+1, example)
	}
	b.WriteString("Now create a new, unique scenario question in the same style:")
	return b.String()
}
