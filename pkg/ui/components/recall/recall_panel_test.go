package recall

import (
	"strings"
	"testing"

	"llama_chat/pkg/intake"
	"llama_chat/pkg/ui/components/testutils"

	"github.com/charmbracelet/x/ansi"
	"github.com/google/go-cmp/cmp"
)

func TestEntries(t *testing.T) {
	messages := []intake.Message{
		{Role: intake.RoleAssistant, Content: "What is your name?"},
		{Role: intake.RoleUser, Content: "Ada"},
		{Role: intake.RoleAssistant, Content: "How old are you?"},
		{Role: intake.RoleUser, Content: "  34 "},
		{Role: intake.RoleUser, Content: "Ada"},
		{Role: intake.RoleUser, Content: "   "},
	}

	got := Entries(messages)
	want := []string{"Ada", "34"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}
}

func TestShow_WithInitialFilter(t *testing.T) {
	p := NewPanel()
	p.Show("head", []string{"head cold", "sore throat", "Headache since monday"})

	if !p.IsVisible() {
		t.Fatal("Expected panel to be visible")
	}
	want := []string{"head cold", "Headache since monday"}
	if diff := cmp.Diff(want, p.Filtered()); diff != "" {
		t.Errorf("Filtered() mismatch (-want +got):\n%s", diff)
	}
}

func TestFilter_AllTermsMustMatch(t *testing.T) {
	p := NewPanel()
	p.Show("", []string{"career change advice", "change of address", "career goals"})

	for _, msg := range testutils.TypeText("career change") {
		p.Update(msg)
	}
	if diff := cmp.Diff([]string{"career change advice"}, p.Filtered()); diff != "" {
		t.Errorf("Filtered() mismatch (-want +got):\n%s", diff)
	}

	p.Update(testutils.TestKeyCtrlU)
	if len(p.Filtered()) != 3 {
		t.Errorf("Expected Ctrl+U to clear the filter, got %v", p.Filtered())
	}
}

func TestBackspace_RemovesWholeRune(t *testing.T) {
	p := NewPanel()
	p.Show("café", []string{"café", "cafe"})

	p.Update(testutils.TestKeyBackspace)
	if p.filter != "caf" {
		t.Fatalf("Expected filter 'caf', got %q", p.filter)
	}
	if len(p.Filtered()) != 2 {
		t.Errorf("Expected both entries to match, got %v", p.Filtered())
	}
}

func TestUpdate_NavigationClamps(t *testing.T) {
	p := NewPanel()
	p.SetSize(80, 24)
	p.Show("", []string{"one", "two", "three"})

	p.Update(testutils.TestKeyUp)
	if p.selected != 0 {
		t.Errorf("Expected selection to stay at 0, got %d", p.selected)
	}
	p.Update(testutils.TestKeyEnd)
	if p.selected != 2 {
		t.Errorf("Expected end to select last, got %d", p.selected)
	}
	p.Update(testutils.TestKeyDown)
	if p.selected != 2 {
		t.Errorf("Expected selection to stay at 2, got %d", p.selected)
	}
	p.Update(testutils.TestKeyHome)
	if p.selected != 0 {
		t.Errorf("Expected home to select first, got %d", p.selected)
	}
}

func TestUpdate_ScrollFollowsSelection(t *testing.T) {
	p := NewPanel()
	p.SetSize(80, 12)
	entries := make([]string, 20)
	for i := range entries {
		entries[i] = strings.Repeat("x", i+1)
	}
	p.Show("", entries)

	page := p.listHeight()
	for range page + 2 {
		p.Update(testutils.TestKeyDown)
	}
	if p.scroll == 0 || p.selected < p.scroll || p.selected >= p.scroll+page {
		t.Errorf("Selection %d outside window [%d,%d)", p.selected, p.scroll, p.scroll+page)
	}
}

func TestUpdate_Select(t *testing.T) {
	p := NewPanel()
	p.Show("", []string{"first", "second"})
	p.Update(testutils.TestKeyDown)

	cmd := p.Update(testutils.TestKeyEnter)
	if cmd == nil {
		t.Fatal("Expected a command on enter")
	}
	msg, ok := cmd().(SelectMsg)
	if !ok || msg.Text != "second" {
		t.Errorf("Expected SelectMsg{second}, got %#v", cmd())
	}
	if p.IsVisible() {
		t.Error("Expected panel to close after selection")
	}
}

func TestUpdate_SelectWithNoMatches(t *testing.T) {
	p := NewPanel()
	p.Show("zzz", []string{"first"})

	if cmd := p.Update(testutils.TestKeyEnter); cmd != nil {
		t.Error("Expected no command when nothing matches")
	}
	if !p.IsVisible() {
		t.Error("Expected panel to stay open")
	}
}

func TestUpdate_Cancel(t *testing.T) {
	for _, key := range []string{"esc", "ctrl+r"} {
		t.Run(key, func(t *testing.T) {
			p := NewPanel()
			p.Show("", []string{"first"})

			k := testutils.TestKeyEsc
			if key == "ctrl+r" {
				k = testutils.TestKeyCtrlR
			}
			cmd := p.Update(k)
			if cmd == nil {
				t.Fatal("Expected a command")
			}
			if _, ok := cmd().(CancelMsg); !ok {
				t.Errorf("Expected CancelMsg, got %#v", cmd())
			}
			if p.IsVisible() {
				t.Error("Expected panel to close")
			}
		})
	}
}

func TestView(t *testing.T) {
	p := NewPanel()
	if p.View() != "" {
		t.Error("Expected hidden panel to render nothing")
	}

	p.SetSize(60, 20)
	p.Show("", []string{"line one\nline two", strings.Repeat("long ", 40)})
	view := ansi.Strip(p.View())

	if !strings.Contains(view, "Message History") {
		t.Error("Expected title in view")
	}
	if !strings.Contains(view, "line one line two") {
		t.Errorf("Expected multi-line entry flattened, got:\n%s", view)
	}
	for _, line := range strings.Split(view, "\n") {
		if w := ansi.StringWidth(line); w > 60 {
			t.Errorf("Line wider than screen (%d): %q", w, line)
		}
	}

	p.Show("nomatch", []string{"first"})
	if !strings.Contains(ansi.Strip(p.View()), "No matching messages") {
		t.Error("Expected empty-filter message")
	}
}
