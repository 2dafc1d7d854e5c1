package welcome

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestWelcomeMessage_ContainsShortcuts(t *testing.T) {
	msg := WelcomeMessage(ConsoleShortcuts)

	for _, s := range ConsoleShortcuts {
		if !strings.Contains(msg, s.Key) {
			t.Errorf("Expected welcome message to contain shortcut %q", s.Key)
		}
	}
}

func TestWelcomeMessage_ContainsTitle(t *testing.T) {
	msg := WelcomeMessage(ConsoleShortcuts)
	if !strings.Contains(msg, "Welcome to the Llama 2 Chatbot!") {
		t.Error("Expected welcome message to contain title")
	}
}

func TestWelcomeMessage_BoxIsAligned(t *testing.T) {
	msg := WelcomeMessage(ConsoleShortcuts)
	if !strings.Contains(msg, "╭") || !strings.Contains(msg, "╰") {
		t.Fatal("Expected welcome message to contain box border characters")
	}

	for _, line := range strings.Split(msg, "\n") {
		plain := ansi.Strip(line)
		if !strings.HasPrefix(plain, "│") || strings.Contains(plain, "🦙") {
			continue
		}
		if !strings.HasSuffix(plain, "│") {
			t.Fatalf("Expected closing border on %q", plain)
		}
	}
}
