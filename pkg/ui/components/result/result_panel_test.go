package result

import (
	"fmt"
	"strings"
	"testing"

	"llama_chat/pkg/ui/components/testutils"

	"github.com/charmbracelet/x/ansi"
)

func TestResultPanel_ShowAndClose(t *testing.T) {
	rp := NewResultPanel()
	rp.SetSize(80, 30)
	rp.Show("/help", "Available commands:\n  /clear  Clear chat history")

	if !rp.IsVisible() {
		t.Fatal("Expected panel to be visible after Show")
	}
	view := ansi.Strip(rp.View())
	if !strings.Contains(view, "/help") || !strings.Contains(view, "/clear  Clear chat history") {
		t.Fatalf("Unexpected view:\n%s", view)
	}

	cmd := rp.Update(testutils.TestKeyEsc)
	if cmd == nil {
		t.Fatal("Expected close command")
	}
	if _, ok := cmd().(ResultPanelCloseMsg); !ok {
		t.Fatalf("Expected ResultPanelCloseMsg, got %T", cmd())
	}
	if rp.IsVisible() || rp.View() != "" {
		t.Fatal("Expected panel to be hidden")
	}
}

func TestResultPanel_QCloses(t *testing.T) {
	rp := NewResultPanel()
	rp.SetSize(80, 30)
	rp.Show("title", "body")

	if cmd := rp.Update(testutils.NewTextKeyPressMsg("q")); cmd == nil || rp.IsVisible() {
		t.Fatal("Expected q to close the panel")
	}
}

func TestResultPanel_ShowError(t *testing.T) {
	rp := NewResultPanel()
	rp.SetSize(80, 30)
	rp.ShowError("/select", "no options are being offered")

	if !strings.Contains(ansi.Strip(rp.View()), "no options are being offered") {
		t.Fatal("Expected error text in view")
	}
	rp.Show("/help", "ok")
	if rp.isError {
		t.Fatal("Expected Show to reset error styling")
	}
}

func TestResultPanel_ScrollClamps(t *testing.T) {
	rp := NewResultPanel()
	rp.SetSize(80, 20)

	var sb strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	rp.Show("long", sb.String())

	for i := 0; i < 100; i++ {
		rp.Update(testutils.TestKeyDown)
	}
	maxScroll := len(rp.lines) - rp.visibleLines()
	if rp.scrollY != maxScroll {
		t.Fatalf("Expected scroll clamped to %d, got %d", maxScroll, rp.scrollY)
	}

	rp.Update(testutils.TestKeyPgUp)
	rp.Update(testutils.TestKeyPgUp)
	rp.Update(testutils.TestKeyPgUp)
	rp.Update(testutils.TestKeyPgUp)
	rp.Update(testutils.TestKeyPgUp)
	if rp.scrollY != 0 {
		t.Fatalf("Expected scroll at top, got %d", rp.scrollY)
	}
	if !strings.Contains(ansi.Strip(rp.View()), "Scroll") {
		t.Fatal("Expected scroll hint for long content")
	}
}

func TestResultPanel_WrapsLongLines(t *testing.T) {
	rp := NewResultPanel()
	rp.SetSize(30, 20)
	rp.Show("wrap", strings.Repeat("word ", 20))

	if len(rp.lines) < 2 {
		t.Fatalf("Expected wrapped lines, got %d", len(rp.lines))
	}
	for _, line := range rp.lines {
		if ansi.StringWidth(line) > rp.contentWidth() {
			t.Fatalf("Line %q exceeds content width %d", line, rp.contentWidth())
		}
	}
}

func TestResultPanel_KeepsColumnAlignment(t *testing.T) {
	rp := NewResultPanel()
	rp.SetSize(80, 30)

	content := fmt.Sprintf("Available Commands:\n  %-9s - %s\n  %-9s - %s\n", "/clear", "Clear chat history", "/select", "Pick an option")
	rp.Show("Help", content)

	view := ansi.Strip(rp.View())
	for _, want := range []string{"  /clear    - Clear chat history", "  /select   - Pick an option"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected aligned line %q in view:\n%s", want, view)
		}
	}
}
