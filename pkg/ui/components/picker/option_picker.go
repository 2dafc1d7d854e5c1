package picker

import (
	"fmt"
	"strings"

	"llama_chat/pkg/ui/components/utils"
	"llama_chat/pkg/ui/styles"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

const previewLines = 3

// OpenOptionPickerMsg asks the root model to show the picker.
type OpenOptionPickerMsg struct {
	FieldKey string
	Title    string
	Options  []string
	Current  string
}

// OptionPickerSelectMsg reports the chosen option for FieldKey.
type OptionPickerSelectMsg struct {
	FieldKey string
	Value    string
}

// OptionPickerCancelMsg reports that the picker was dismissed.
type OptionPickerCancelMsg struct {
	FieldKey string
}

// OptionPickerPanel is a numbered list picker used for the post-intake
// options and for sidebar choices such as the model preset.
type OptionPickerPanel struct {
	title    string
	fieldKey string
	options  []string
	selected int
	scroll   int
	visible  bool
	width    int
	height   int
}

// NewOptionPickerPanel creates a new option picker panel.
func NewOptionPickerPanel() *OptionPickerPanel {
	return &OptionPickerPanel{}
}

// Show displays the picker for fieldKey with current preselected.
func (p *OptionPickerPanel) Show(title, fieldKey string, options []string, current string) {
	p.visible = true
	p.title = title
	p.fieldKey = fieldKey
	p.options = append([]string(nil), options...)
	p.selected = 0
	p.scroll = 0

	if current != "" {
		for i, option := range p.options {
			if option == current {
				p.selected = i
				break
			}
		}
	}

	p.ensureVisible(p.listHeight())
}

// Hide hides the picker.
func (p *OptionPickerPanel) Hide() {
	p.visible = false
}

// IsVisible reports whether the picker is visible.
func (p *OptionPickerPanel) IsVisible() bool {
	return p.visible
}

// SetSize updates the picker dimensions.
func (p *OptionPickerPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Update handles keyboard input for the picker.
func (p *OptionPickerPanel) Update(msg tea.KeyPressMsg) tea.Cmd {
	if !p.visible {
		return nil
	}

	listHeight := p.listHeight()

	keyStr := msg.String()
	switch keyStr {
	case "up":
		if p.selected > 0 {
			p.selected--
		}
		p.ensureVisible(listHeight)
		return nil

	case "down":
		if p.selected < len(p.options)-1 {
			p.selected++
		}
		p.ensureVisible(listHeight)
		return nil

	case "pgup":
		if len(p.options) > 0 {
			p.selected -= listHeight
			if p.selected < 0 {
				p.selected = 0
			}
			p.ensureVisible(listHeight)
		}
		return nil

	case "pgdown":
		if len(p.options) > 0 {
			p.selected += listHeight
			if p.selected > len(p.options)-1 {
				p.selected = len(p.options) - 1
			}
			p.ensureVisible(listHeight)
		}
		return nil

	case "home":
		if len(p.options) > 0 {
			p.selected = 0
			p.ensureVisible(listHeight)
		}
		return nil

	case "end":
		if len(p.options) > 0 {
			p.selected = len(p.options) - 1
			p.ensureVisible(listHeight)
		}
		return nil

	case "enter":
		return p.choose(p.selected)

	case "esc":
		p.Hide()
		fieldKey := p.fieldKey
		return func() tea.Msg {
			return OptionPickerCancelMsg{FieldKey: fieldKey}
		}
	}

	if text := msg.Key().Text; len(text) == 1 && text[0] >= '1' && text[0] <= '9' {
		index := int(text[0] - '1')
		if index < len(p.options) {
			return p.choose(index)
		}
	}

	return nil
}

func (p *OptionPickerPanel) choose(index int) tea.Cmd {
	if index < 0 || index >= len(p.options) {
		return nil
	}
	value := p.options[index]
	fieldKey := p.fieldKey
	p.Hide()
	return func() tea.Msg {
		return OptionPickerSelectMsg{FieldKey: fieldKey, Value: value}
	}
}

// View renders the picker.
func (p *OptionPickerPanel) View() string {
	if !p.visible {
		return ""
	}

	boxWidth, contentWidth, listHeight := p.dimensions()

	boxStyle := styles.BoxStyle.Width(boxWidth)
	titleStyle := styles.TitleStyle
	normalStyle := styles.TextStyle
	selectedStyle := styles.SelectedStyle
	descStyle := styles.TextMutedStyle
	footerStyle := styles.FooterStyle

	var content strings.Builder
	content.WriteString(titleStyle.Render(utils.TruncateToWidth(p.title, contentWidth)))
	content.WriteString("\n\n")

	if len(p.options) == 0 {
		content.WriteString(descStyle.Render("No options available"))
		for i := 1; i < listHeight; i++ {
			content.WriteString("\n")
		}
	} else {
		for i := 0; i < listHeight; i++ {
			index := p.scroll + i
			if index >= len(p.options) {
				break
			}
			line := utils.TruncateToWidth(fmt.Sprintf("  %d. %s", index+1, p.options[index]), contentWidth)
			if index == p.selected {
				line = utils.PadPlain(line, contentWidth)
				content.WriteString(selectedStyle.Render(line))
			} else {
				content.WriteString(normalStyle.Render(line))
			}
			content.WriteString("\n")
		}
	}

	if preview := p.preview(contentWidth); len(preview) > 0 {
		content.WriteString("\n")
		for _, line := range preview {
			content.WriteString(descStyle.Render(line))
			content.WriteString("\n")
		}
	}

	content.WriteString("\n")
	content.WriteString(footerStyle.Render("Up/Down Navigate | 1-9/Enter Select | Esc Cancel"))

	return boxStyle.Render(content.String())
}

// preview wraps the selected option when the list row had to truncate it.
func (p *OptionPickerPanel) preview(width int) []string {
	if p.selected < 0 || p.selected >= len(p.options) {
		return nil
	}
	option := p.options[p.selected]
	if lipgloss.Width(fmt.Sprintf("  %d. %s", p.selected+1, option)) <= width {
		return nil
	}
	lines := utils.WrapWords(option, width)
	if len(lines) > previewLines {
		lines = lines[:previewLines]
		lines[previewLines-1] = utils.TruncateToWidth(lines[previewLines-1]+" ...", width)
	}
	return lines
}

func (p *OptionPickerPanel) ensureVisible(listHeight int) {
	if len(p.options) == 0 {
		p.selected = 0
		p.scroll = 0
		return
	}

	if p.selected < 0 {
		p.selected = 0
	}
	if p.selected >= len(p.options) {
		p.selected = len(p.options) - 1
	}

	maxScroll := len(p.options) - listHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	if p.scroll > maxScroll {
		p.scroll = maxScroll
	}

	if p.selected < p.scroll {
		p.scroll = p.selected
	}
	if p.selected >= p.scroll+listHeight {
		p.scroll = p.selected - listHeight + 1
	}
	if p.scroll < 0 {
		p.scroll = 0
	}
}

func (p *OptionPickerPanel) dimensions() (int, int, int) {
	width := p.width
	height := p.height
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}

	boxWidth := width - 2
	if boxWidth > 90 {
		boxWidth = 90
	}
	if boxWidth < 20 {
		boxWidth = 20
	}

	// BoxStyle spends a border and two columns of padding on each side.
	contentWidth := boxWidth - 6
	if contentWidth < 10 {
		contentWidth = 10
	}

	maxContentHeight := height - 4
	if maxContentHeight < 6 {
		maxContentHeight = 6
	}

	// title, blank, blank, footer, plus room for the wrapped preview
	const fixedLines = 5 + previewLines
	listHeight := maxContentHeight - fixedLines
	if listHeight < 1 {
		listHeight = 1
	}

	return boxWidth, contentWidth, listHeight
}

func (p *OptionPickerPanel) listHeight() int {
	_, _, listHeight := p.dimensions()
	return listHeight
}
