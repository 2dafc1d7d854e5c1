package statusbar

import (
	"fmt"
	"strings"

	"llama_chat/pkg/ui/styles"

	"github.com/charmbracelet/x/ansi"
)

const (
	leftPrefix = "[llama_chat]"
	helpHint   = "Press / for commands"
	minGap     = 2
)

// StatusBarView renders the bottom status line.
type StatusBarView struct {
	message  string
	state    string
	progress string
	model    string
	provider string
	width    int
}

// NewStatusBarView creates a new status bar view
func NewStatusBarView() *StatusBarView {
	return &StatusBarView{width: 80}
}

// SetMessage sets a temporary message that replaces the state text.
func (s *StatusBarView) SetMessage(msg string) {
	s.message = msg
}

// SetState sets the conversation state, e.g. "Ready" or "Generating...".
func (s *StatusBarView) SetState(state string) {
	s.state = strings.TrimSpace(state)
}

// SetProgress sets the intake progress, e.g. "question 2/4".
func (s *StatusBarView) SetProgress(progress string) {
	s.progress = strings.TrimSpace(progress)
}

// SetModel updates the active preset and provider displayed.
func (s *StatusBarView) SetModel(preset, provider string) {
	s.model = strings.TrimSpace(preset)
	s.provider = strings.TrimSpace(provider)
}

// SetWidth updates the width for rendering
func (s *StatusBarView) SetWidth(width int) {
	s.width = width
}

// Render returns the styled status bar string, exactly width cells wide.
func (s *StatusBarView) Render() string {
	const contentPadding = 2

	innerWidth := s.width - contentPadding
	if innerWidth <= 0 {
		return strings.Repeat(" ", max(s.width, 0))
	}

	modelLabel := s.model
	if modelLabel == "" {
		modelLabel = "unknown"
	}
	if s.provider != "" {
		modelLabel = fmt.Sprintf("%s (%s)", modelLabel, s.provider)
	}
	right := "[llm]: " + modelLabel
	if s.message == "" {
		right += " | " + helpHint
	}

	left := leftPrefix
	if body := s.leftBody(); body != "" {
		left += " " + body
	}

	rightWidth := ansi.StringWidth(right)
	var inner string
	if rightWidth > innerWidth {
		inner = ansi.Truncate(right, innerWidth, "")
	} else {
		leftAvailable := innerWidth - rightWidth - minGap
		if leftAvailable < 0 {
			leftAvailable = 0
		}
		if ansi.StringWidth(left) > leftAvailable {
			left = ansi.Truncate(left, leftAvailable, "…")
		}
		gap := innerWidth - ansi.StringWidth(left) - rightWidth
		inner = left + strings.Repeat(" ", gap) + right
	}

	if w := ansi.StringWidth(inner); w < innerWidth {
		inner += strings.Repeat(" ", innerWidth-w)
	}

	return styles.StatusBarStyle.Width(s.width).Render(inner)
}

func (s *StatusBarView) leftBody() string {
	if s.message != "" {
		return s.message
	}
	parts := make([]string, 0, 2)
	if s.state != "" {
		parts = append(parts, s.state)
	}
	if s.progress != "" {
		parts = append(parts, s.progress)
	}
	return strings.Join(parts, " · ")
}
