// Package recall provides a searchable overlay over the messages the user
// already sent, so one can be put back into the chat input.
package recall

import (
	"strings"

	"llama_chat/pkg/intake"
	"llama_chat/pkg/ui/components/utils"
	"llama_chat/pkg/ui/styles"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
)

// SelectMsg is sent when a past message is chosen.
type SelectMsg struct {
	Text string
}

// CancelMsg is sent when the panel is dismissed without a choice.
type CancelMsg struct{}

const maxListHeight = 12

// Panel lists past user messages, newest first, filtered by what is typed.
type Panel struct {
	entries  []string
	filtered []string
	filter   string
	selected int
	scroll   int
	visible  bool
	width    int
	height   int
}

// NewPanel creates a hidden recall panel.
func NewPanel() *Panel {
	return &Panel{}
}

// Entries returns the distinct user messages in messages, newest first.
func Entries(messages []intake.Message) []string {
	seen := make(map[string]bool)
	var out []string
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Role != intake.RoleUser {
			continue
		}
		text := strings.TrimSpace(msg.Content)
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		out = append(out, text)
	}
	return out
}

// Show opens the panel over entries with an optional initial filter.
func (p *Panel) Show(initialFilter string, entries []string) {
	p.visible = true
	p.entries = append([]string(nil), entries...)
	p.filter = initialFilter
	p.selected = 0
	p.scroll = 0
	p.applyFilter()
}

// Hide closes the panel.
func (p *Panel) Hide() {
	p.visible = false
}

// IsVisible reports whether the panel is open.
func (p *Panel) IsVisible() bool {
	return p.visible
}

// SetSize sets the screen area the panel is centered in.
func (p *Panel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Filtered returns the entries matching the current filter.
func (p *Panel) Filtered() []string {
	return p.filtered
}

// applyFilter keeps entries containing every whitespace-separated term of
// the filter, case-insensitively.
func (p *Panel) applyFilter() {
	terms := strings.Fields(strings.ToLower(p.filter))
	if len(terms) == 0 {
		p.filtered = p.entries
	} else {
		p.filtered = make([]string, 0, len(p.entries))
		for _, entry := range p.entries {
			lower := strings.ToLower(entry)
			match := true
			for _, term := range terms {
				if !strings.Contains(lower, term) {
					match = false
					break
				}
			}
			if match {
				p.filtered = append(p.filtered, entry)
			}
		}
	}
	p.selected = 0
	p.ensureVisible()
}

// Update handles keyboard input while the panel is open.
func (p *Panel) Update(msg tea.KeyPressMsg) tea.Cmd {
	if !p.visible {
		return nil
	}

	page := p.listHeight()
	switch msg.String() {
	case "up", "ctrl+p":
		p.selected--
	case "down", "ctrl+n":
		p.selected++
	case "pgup":
		p.selected -= page
	case "pgdown":
		p.selected += page
	case "home":
		p.selected = 0
	case "end":
		p.selected = len(p.filtered) - 1

	case "enter", "tab":
		if p.selected < 0 || p.selected >= len(p.filtered) {
			return nil
		}
		text := p.filtered[p.selected]
		p.Hide()
		return func() tea.Msg {
			return SelectMsg{Text: text}
		}

	case "esc", "ctrl+r":
		p.Hide()
		return func() tea.Msg {
			return CancelMsg{}
		}

	case "backspace":
		if p.filter != "" {
			runes := []rune(p.filter)
			p.filter = string(runes[:len(runes)-1])
			p.applyFilter()
		}
		return nil

	case "ctrl+u":
		if p.filter != "" {
			p.filter = ""
			p.applyFilter()
		}
		return nil

	default:
		if text := msg.Key().Text; text != "" {
			p.filter += text
			p.applyFilter()
		}
		return nil
	}

	p.ensureVisible()
	return nil
}

// View renders the panel, or "" when hidden.
func (p *Panel) View() string {
	if !p.visible {
		return ""
	}

	boxWidth, contentWidth, listHeight := p.dimensions()

	var content strings.Builder
	content.WriteString(styles.TitleStyle.Render("🔍 Message History"))
	content.WriteString("\n")
	if p.filter != "" {
		content.WriteString(styles.FilterStyle.Render("Filter: " + p.filter))
	} else {
		content.WriteString(styles.TextMutedStyle.Render("Type to search..."))
	}
	content.WriteString("\n\n")

	if len(p.filtered) == 0 {
		if p.filter != "" {
			content.WriteString(styles.TextMutedStyle.Render("No matching messages"))
		} else {
			content.WriteString(styles.TextMutedStyle.Render("Nothing sent yet"))
		}
		content.WriteString(strings.Repeat("\n", listHeight))
	} else {
		for i := range listHeight {
			index := p.scroll + i
			if index >= len(p.filtered) {
				content.WriteString("\n")
				continue
			}
			// Multi-line messages are shown on one row.
			entry := strings.Join(strings.Fields(utils.Sanitize(p.filtered[index])), " ")
			line := "  " + ansi.Truncate(entry, contentWidth-2, "…")
			if index == p.selected {
				content.WriteString(styles.SelectedStyle.Render(utils.PadPlain(line, contentWidth)))
			} else {
				content.WriteString(styles.TextStyle.Render(line))
			}
			content.WriteString("\n")
		}
	}

	content.WriteString("\n")
	footer := "↑↓ Navigate | Enter Insert | Esc Cancel | Ctrl+U Clear"
	if len(p.filtered) > listHeight {
		footer = "↑↓ Navigate | PgUp/PgDn Scroll | Enter Insert | Esc Cancel"
	}
	content.WriteString(styles.FooterStyle.Render(footer))

	return styles.BoxStyle.Width(boxWidth).Render(content.String())
}

func (p *Panel) ensureVisible() {
	if len(p.filtered) == 0 {
		p.selected = 0
		p.scroll = 0
		return
	}
	p.selected = max(0, min(p.selected, len(p.filtered)-1))

	listHeight := p.listHeight()
	p.scroll = min(p.scroll, max(0, len(p.filtered)-listHeight))
	if p.selected < p.scroll {
		p.scroll = p.selected
	}
	if p.selected >= p.scroll+listHeight {
		p.scroll = p.selected - listHeight + 1
	}
}

// dimensions returns the box width, usable content width and list height.
func (p *Panel) dimensions() (int, int, int) {
	width, height := p.width, p.height
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}

	available := max(width-2, 1)
	boxWidth := min(available, 90)
	boxWidth = max(boxWidth, min(50, available))
	contentWidth := max(boxWidth-6, 4)

	// Title, filter, blank, blank and footer rows plus the border.
	listHeight := min(max(height-4-5, 1), maxListHeight)
	return boxWidth, contentWidth, listHeight
}

func (p *Panel) listHeight() int {
	_, _, h := p.dimensions()
	return h
}
