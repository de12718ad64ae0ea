package eval

import (
	"strings"
	"testing"
)

func TestBuildSystemPromptKnownThemes(t *testing.T) {
	for _, theme := range []string{"survival", "work", "interview", "social"} {
		prompt := BuildSystemPrompt(theme)
		if !strings.Contains(prompt, "four sentences") {
			t.Fatalf("%s: prompt missing rubric contract: %q", theme, prompt)
		}
		if !strings.Contains(prompt, `"verdict"`) || !strings.Contains(prompt, `"score"`) {
			t.Fatalf("%s: prompt missing output contract: %q", theme, prompt)
		}
		if !strings.Contains(prompt, `{"verdict": "BAD", "score": 0}`) {
			t.Fatalf("%s: prompt missing degenerate-answer directive", theme)
		}
	}
}

func TestBuildSystemPromptCaseInsensitive(t *testing.T) {
	if BuildSystemPrompt("SURVIVAL") != BuildSystemPrompt("survival") {
		t.Fatalf("theme lookup should be case-insensitive")
	}
	if BuildSystemPrompt(" Work ") != BuildSystemPrompt("work") {
		t.Fatalf("theme lookup should trim whitespace")
	}
}

func TestBuildSystemPromptUnknownThemeFallsBack(t *testing.T) {
	generic := BuildSystemPrompt("")
	if BuildSystemPrompt("cooking") != generic {
		t.Fatalf("unknown theme should use the generic persona")
	}
	if !strings.Contains(generic, "impartial judge") {
		t.Fatalf("generic persona missing, got %q", generic)
	}
}

func TestBuildSystemPromptDeterministic(t *testing.T) {
	if BuildSystemPrompt("work") != BuildSystemPrompt("work") {
		t.Fatalf("prompt construction must be deterministic")
	}
}

func TestBuildUserMessage(t *testing.T) {
	msg := BuildUserMessage("work", "Your report is late. What do you do?", "I tell my manager immediately.")
	if !strings.Contains(msg, "Your report is late") {
		t.Fatalf("user message missing question: %q", msg)
	}
	if !strings.Contains(msg, "Player response: I tell my manager immediately.") {
		t.Fatalf("user message missing answer: %q", msg)
	}

	unknown := BuildUserMessage("cooking", "q", "a")
	if !strings.Contains(unknown, "Scenario (scenario)") {
		t.Fatalf("unknown theme should be labeled generically: %q", unknown)
	}
}
