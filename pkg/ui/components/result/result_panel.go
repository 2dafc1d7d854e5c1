package result

import (
	"strings"

	"llama_chat/pkg/ui/components/utils"
	"llama_chat/pkg/ui/styles"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
)

// ResultPanel displays slash command output as an overlay.
type ResultPanel struct {
	title   string
	content string
	isError bool
	visible bool
	width   int
	height  int
	scrollY int
	lines   []string
}

// NewResultPanel creates a new result panel
func NewResultPanel() *ResultPanel {
	return &ResultPanel{}
}

// Show displays the result panel with content
func (rp *ResultPanel) Show(title, content string) {
	rp.title = title
	rp.content = content
	rp.isError = false
	rp.visible = true
	rp.scrollY = 0
	rp.wrap()
}

// ShowError displays content under title using the error style.
func (rp *ResultPanel) ShowError(title, content string) {
	rp.Show(title, content)
	rp.isError = true
}

// wrap splits content into display lines for the current width.
func (rp *ResultPanel) wrap() {
	width := rp.contentWidth()
	rp.lines = rp.lines[:0]
	for _, line := range strings.Split(rp.content, "\n") {
		if strings.TrimSpace(line) == "" {
			rp.lines = append(rp.lines, "")
			continue
		}
		// Lines that fit keep their spacing so aligned columns survive.
		if ansi.StringWidth(line) <= width {
			rp.lines = append(rp.lines, line)
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
		for _, part := range utils.WrapWords(line, width-len(indent)) {
			rp.lines = append(rp.lines, indent+part)
		}
	}
}

// Hide hides the result panel
func (rp *ResultPanel) Hide() {
	rp.visible = false
}

// IsVisible returns whether the panel is visible
func (rp *ResultPanel) IsVisible() bool {
	return rp.visible
}

// SetSize sets the panel dimensions
func (rp *ResultPanel) SetSize(width, height int) {
	rp.width = width
	rp.height = height
	rp.wrap()
}

func (rp *ResultPanel) panelSize() (int, int) {
	panelWidth := rp.width - 4
	if panelWidth > 80 {
		panelWidth = 80
	}
	if panelWidth < 20 {
		panelWidth = 20
	}
	panelHeight := rp.height - 4
	if panelHeight > 30 {
		panelHeight = 30
	}
	return panelWidth, panelHeight
}

func (rp *ResultPanel) contentWidth() int {
	panelWidth, _ := rp.panelSize()
	return max(panelWidth-6, 1)
}

func (rp *ResultPanel) visibleLines() int {
	_, panelHeight := rp.panelSize()
	return max(panelHeight-8, 5)
}

// ResultPanelCloseMsg is sent when the result panel is closed
type ResultPanelCloseMsg struct{}

// Update handles keyboard input for the result panel
func (rp *ResultPanel) Update(msg tea.KeyPressMsg) tea.Cmd {
	maxScroll := max(len(rp.lines)-rp.visibleLines(), 0)

	keyStr := msg.String()
	switch keyStr {
	case "esc", "enter":
		// Close the panel
		rp.Hide()
		return func() tea.Msg {
			return ResultPanelCloseMsg{}
		}

	case "up":
		if rp.scrollY > 0 {
			rp.scrollY--
		}
		return nil

	case "down":
		if rp.scrollY < maxScroll {
			rp.scrollY++
		}
		return nil

	case "pgup":
		rp.scrollY -= 10
		if rp.scrollY < 0 {
			rp.scrollY = 0
		}
		return nil

	case "pgdown":
		rp.scrollY += 10
		if rp.scrollY > maxScroll {
			rp.scrollY = maxScroll
		}
		return nil
	}

	// 'q' also closes
	if msg.String() == "q" {
		rp.Hide()
		return func() tea.Msg {
			return ResultPanelCloseMsg{}
		}
	}

	return nil
}

// View renders the result panel
func (rp *ResultPanel) View() string {
	if !rp.visible {
		return ""
	}

	panelWidth, _ := rp.panelSize()

	boxStyle := styles.BoxStyle.Width(panelWidth)
	titleStyle := styles.TitleStyle
	contentStyle := styles.TextStyle
	footerStyle := styles.FooterStyle
	if rp.isError {
		titleStyle = styles.ErrorStyle.Bold(true)
		contentStyle = styles.ErrorStyle
	}

	contentWidth := rp.contentWidth()

	// Build content
	var sb strings.Builder

	// Title
	sb.WriteString(titleStyle.Render(utils.TruncateToWidth(rp.title, contentWidth)))
	sb.WriteString("\n\n")

	visibleLines := rp.visibleLines()

	endLine := rp.scrollY + visibleLines
	if endLine > len(rp.lines) {
		endLine = len(rp.lines)
	}

	for i := rp.scrollY; i < endLine; i++ {
		line := utils.TruncateToWidth(rp.lines[i], contentWidth)
		sb.WriteString(contentStyle.Render(line))
		sb.WriteString("\n")
	}

	// Scroll indicator
	if len(rp.lines) > visibleLines {
		sb.WriteString(footerStyle.Render("↑↓ Scroll • "))
	}

	sb.WriteString(footerStyle.Render("Esc/q Close"))

	// Render box
	box := boxStyle.Render(sb.String())

	return box
}
