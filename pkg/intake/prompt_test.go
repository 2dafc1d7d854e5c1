package intake

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/exp/golden"
)

func TestAssemblePrompt_Golden(t *testing.T) {
	history := []Message{
		{Role: RoleAssistant, Content: "Hi"},
		{Role: RoleUser, Content: "Hello"},
	}

	got := AssemblePrompt(DefaultScript().Preamble, history, "Test")

	golden.RequireEqual(t, []byte(got))
}

func TestAssemblePrompt_Literal(t *testing.T) {
	preamble := DefaultScript().Preamble
	history := []Message{
		{Role: RoleAssistant, Content: "Hi"},
		{Role: RoleUser, Content: "Hello"},
	}

	got := AssemblePrompt(preamble, history, "Test")
	want := preamble + "Assistant: Hi\n\nUser: Hello\n\n Test Assistant: "
	if got != want {
		t.Fatalf("AssemblePrompt() = %q, want %q", got, want)
	}
}

func TestAssemblePrompt_EmptyHistory(t *testing.T) {
	got := AssemblePrompt("P.", nil, "hi")
	if got != "P. hi Assistant: " {
		t.Fatalf("Expected bare cue, got %q", got)
	}
}

func TestAssemblePrompt_IsPure(t *testing.T) {
	history := []Message{{Role: RoleUser, Content: "a"}}
	first := AssemblePrompt("P", history, "x")
	second := AssemblePrompt("P", history, "x")
	if first != second {
		t.Fatalf("Expected identical output, got %q and %q", first, second)
	}
	if len(history) != 1 || history[0].Content != "a" {
		t.Fatalf("History was modified: %+v", history)
	}
}

func TestOptionPrompt(t *testing.T) {
	questions := []string{"Name?", "City?"}
	answers := []string{"Asha", "Pune"}

	got := OptionPrompt(questions, answers, "Do you want A Roadmap?")
	want := "You have the following information:\n" +
		"Name? Asha\n" +
		"City? Pune\n" +
		"Based on this information, do you want a roadmap? Assistant: "
	if got != want {
		t.Fatalf("OptionPrompt() = %q, want %q", got, want)
	}
}

func TestOptionPrompt_FewerAnswers(t *testing.T) {
	got := OptionPrompt([]string{"Q1", "Q2"}, []string{"A1"}, "Other")
	if strings.Contains(got, "Q2") {
		t.Fatalf("Expected unanswered question to be skipped, got %q", got)
	}
}
