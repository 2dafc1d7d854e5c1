package transcript

import (
	"fmt"
	"io"
	"os"
	"strings"

	"llama_chat/pkg/intake"
	"llama_chat/pkg/ui/components/utils"
	"llama_chat/pkg/ui/styles"

	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
)

const (
	panelBorderSize = 1
	panelPaddingH   = 1
	panelPaddingV   = 0
	textareaHeight  = 3

	// title + separator above the input
	chromeLines = 2

	placeholderReady  = "Type your message... (Enter to send, / for commands)"
	placeholderLocked = "Enter a valid API token in the sidebar to start chatting"
)

// clipboardOut receives OSC52 sequences; tests swap it for a buffer.
var clipboardOut io.Writer = os.Stdout

// SubmitMsg is returned when the user submits the chat input.
type SubmitMsg struct {
	Content string
}

// CopiedMsg reports that the transcript was sent to the clipboard.
type CopiedMsg struct {
	Chars int
}

// Panel renders the conversation and owns the chat input.
type Panel struct {
	title   string
	width   int
	height  int
	scrollY int
	lines   []string
	follow  bool

	textarea textarea.Model
	focused  bool
	locked   bool // no valid credential: input rejects text
	busy     bool // inference in flight: Enter does not submit

	messages []intake.Message
	pending  string
	spinner  string
}

// NewPanel creates a transcript panel with a focused chat input.
func NewPanel(title string) *Panel {
	ta := textarea.New()
	ta.Placeholder = placeholderReady
	ta.ShowLineNumbers = false
	ta.SetHeight(textareaHeight)
	ta.Focus()

	return &Panel{
		title:    title,
		follow:   true,
		textarea: ta,
		focused:  true,
	}
}

// SetSize sets the panel dimensions.
func (p *Panel) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.textarea.SetWidth(p.contentWidth())
	p.reflow()
}

// SetMessages replaces the rendered transcript.
func (p *Panel) SetMessages(messages []intake.Message) {
	p.messages = append(p.messages[:0], messages...)
	p.reflow()
}

// SetPending sets the partial reply for the inference in flight. An empty
// frame hides the spinner.
func (p *Panel) SetPending(partial, spinnerFrame string, busy bool) {
	p.pending = partial
	p.spinner = spinnerFrame
	p.busy = busy
	p.reflow()
}

// SetLocked disables typing until a valid credential is present.
func (p *Panel) SetLocked(locked bool) {
	if p.locked == locked {
		return
	}
	p.locked = locked
	if locked {
		p.textarea.Reset()
		p.textarea.Placeholder = placeholderLocked
		p.textarea.Blur()
		return
	}
	p.textarea.Placeholder = placeholderReady
	if p.focused {
		p.textarea.Focus()
	}
}

// IsLocked reports whether the chat input is disabled.
func (p *Panel) IsLocked() bool {
	return p.locked
}

// Focus gives the chat input keyboard focus.
func (p *Panel) Focus() {
	p.focused = true
	if !p.locked {
		p.textarea.Focus()
	}
}

// Blur removes keyboard focus from the chat input.
func (p *Panel) Blur() {
	p.focused = false
	p.textarea.Blur()
}

// Focused reports whether the panel has keyboard focus.
func (p *Panel) Focused() bool {
	return p.focused
}

// Value returns the current input text.
func (p *Panel) Value() string {
	return p.textarea.Value()
}

// SetInput replaces the chat input text, leaving the cursor at the end.
func (p *Panel) SetInput(text string) {
	if p.locked {
		return
	}
	p.textarea.SetValue(text)
}

// Update handles keyboard input for the panel.
func (p *Panel) Update(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		if p.locked || p.busy {
			return nil
		}
		content := strings.TrimSpace(p.textarea.Value())
		if content == "" {
			return nil
		}
		p.textarea.Reset()
		return func() tea.Msg {
			return SubmitMsg{Content: content}
		}
	case "up", "down", "pgup", "pgdown", "home", "end":
		p.scroll(msg.String())
		return nil
	case "ctrl+y":
		return p.CopyToClipboard()
	}

	if p.locked {
		return nil
	}
	var cmd tea.Cmd
	p.textarea, cmd = p.textarea.Update(msg)
	return cmd
}

// HandlePaste routes pasted text to the chat input.
func (p *Panel) HandlePaste(content string) {
	if p.locked || !p.focused {
		return
	}
	p.textarea.InsertString(content)
}

func (p *Panel) scroll(key string) {
	maxScroll := p.maxScroll()
	page := p.viewportHeight()

	switch key {
	case "up":
		if p.scrollY > 0 {
			p.scrollY--
			p.follow = false
		}
	case "down":
		if p.scrollY < maxScroll {
			p.scrollY++
		}
	case "pgup":
		p.scrollY -= page
		if p.scrollY < 0 {
			p.scrollY = 0
		}
		p.follow = false
	case "pgdown":
		p.scrollY += page
		if p.scrollY > maxScroll {
			p.scrollY = maxScroll
		}
	case "home":
		p.scrollY = 0
		p.follow = false
	case "end":
		p.scrollY = maxScroll
	}
	if key != "up" && key != "pgup" && key != "home" {
		p.follow = p.scrollY >= maxScroll
	}
}

// PlainText returns the transcript as "Role: content" paragraphs.
func (p *Panel) PlainText() string {
	var sb strings.Builder
	for i, msg := range p.messages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(roleLabel(msg.Role))
		sb.WriteString(": ")
		sb.WriteString(utils.Sanitize(msg.Content))
	}
	return sb.String()
}

// CopyToClipboard copies the transcript through the terminal's OSC52
// clipboard support.
func (p *Panel) CopyToClipboard() tea.Cmd {
	text := p.PlainText()
	return func() tea.Msg {
		_, _ = fmt.Fprint(clipboardOut, osc52.New(text))
		return CopiedMsg{Chars: len([]rune(text))}
	}
}

// View renders the panel.
func (p *Panel) View() string {
	contentWidth := p.contentWidth()
	contentHeight := p.contentHeight()
	viewportHeight := p.viewportHeight()

	lines := make([]string, 0, contentHeight)
	lines = append(lines, utils.PadStyled(styles.TitleStyle.Render(utils.TruncateToWidth(p.title, contentWidth)), contentWidth))

	end := p.scrollY + viewportHeight
	if end > len(p.lines) {
		end = len(p.lines)
	}
	for i := p.scrollY; i < end; i++ {
		lines = append(lines, utils.PadStyled(p.lines[i], contentWidth))
	}
	for len(lines) < 1+viewportHeight {
		lines = append(lines, strings.Repeat(" ", contentWidth))
	}

	lines = append(lines, styles.TextMutedStyle.Render(strings.Repeat("─", contentWidth)))

	for i, line := range strings.Split(p.textarea.View(), "\n") {
		if i >= textareaHeight {
			break
		}
		lines = append(lines, utils.PadStyled(line, contentWidth))
	}
	for len(lines) < contentHeight {
		lines = append(lines, strings.Repeat(" ", contentWidth))
	}

	box := styles.PanelBoxMutedStyle
	if p.focused {
		box = styles.PanelBoxStyle
	}
	width := p.width
	if width < 1 {
		width = 1
	}
	return box.
		Width(width).
		Padding(panelPaddingV, panelPaddingH).
		Render(strings.Join(lines, "\n"))
}

func (p *Panel) reflow() {
	width := p.contentWidth()
	p.lines = p.renderLines(width)
	if p.follow || p.scrollY > p.maxScroll() {
		p.scrollY = p.maxScroll()
	}
	if p.scrollY < 0 {
		p.scrollY = 0
	}
}

func (p *Panel) renderLines(width int) []string {
	var lines []string
	for i, msg := range p.messages {
		if i > 0 {
			lines = append(lines, "")
			if msg.Role == intake.RoleUser {
				lines = append(lines, styles.TextMutedStyle.Render(strings.Repeat("─", min(width, 24))), "")
			}
		}
		lines = append(lines, roleStyle(msg.Role).Render(roleLabel(msg.Role)))
		lines = append(lines, renderMarkdown(msg.Content, width)...)
	}

	if p.busy {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		header := roleLabel(intake.RoleAssistant)
		if p.spinner != "" {
			header += " " + p.spinner
		}
		lines = append(lines, roleStyle(intake.RoleAssistant).Render(header))
		if p.pending != "" {
			lines = append(lines, renderMarkdown(p.pending, width)...)
		}
	}
	return lines
}

func (p *Panel) contentWidth() int {
	width := p.width - 2*(panelBorderSize+panelPaddingH)
	if width < 1 {
		return 1
	}
	return width
}

func (p *Panel) contentHeight() int {
	height := p.height - 2*(panelBorderSize+panelPaddingV)
	if height < 1 {
		return 1
	}
	return height
}

func (p *Panel) viewportHeight() int {
	height := p.contentHeight() - textareaHeight - chromeLines
	if height < 1 {
		return 1
	}
	return height
}

func (p *Panel) maxScroll() int {
	max := len(p.lines) - p.viewportHeight()
	if max < 0 {
		return 0
	}
	return max
}

func roleLabel(role intake.Role) string {
	if role == intake.RoleUser {
		return "You"
	}
	return "Assistant"
}

func roleStyle(role intake.Role) lipgloss.Style {
	if role == intake.RoleUser {
		return styles.UserRoleStyle
	}
	return styles.AssistantRoleStyle
}
