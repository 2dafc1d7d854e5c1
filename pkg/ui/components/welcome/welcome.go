package welcome

import (
	"fmt"
	"strings"

	"llama_chat/pkg/ui/components/utils"
	"llama_chat/pkg/ui/styles"
	"llama_chat/pkg/version"

	"github.com/mattn/go-runewidth"
)

// Shortcut is one key/description row of the banner.
type Shortcut struct {
	Key  string
	Desc string
}

// ConsoleShortcuts are the keys and commands of the line-mode interface.
var ConsoleShortcuts = []Shortcut{
	{"/help", "List commands"},
	{"/options", "Show the options offered"},
	{"/select N", "Choose option N"},
	{"/clear", "Clear chat history"},
	{"Ctrl+C", "Stop reply, press again to quit"},
}

// WelcomeMessage returns the boxed banner listing shortcuts.
func WelcomeMessage(shortcuts []Shortcut) string {
	const boxWidth = 53 // Total inner width

	makeLine := func(content string, visualWidth int) string {
		pad := boxWidth - visualWidth
		if pad < 0 {
			pad = 0
		}
		return styles.WelcomeBorderStyle.Render("│") + content + strings.Repeat(" ", pad) + styles.WelcomeBorderStyle.Render("│")
	}

	top := styles.WelcomeBorderStyle.Render("╭" + strings.Repeat("─", boxWidth) + "╮")
	bottom := styles.WelcomeBorderStyle.Render("╰" + strings.Repeat("─", boxWidth) + "╯")
	empty := makeLine("", 0)

	var lines []string
	lines = append(lines, "", top)

	titleText := "🦙💬 Welcome to the Llama 2 Chatbot!"
	rawTitleWidth := runewidth.StringWidth(titleText)
	titleLeftPad := (boxWidth - rawTitleWidth) / 2
	titleLine := strings.Repeat(" ", titleLeftPad) + styles.WelcomeTitleStyle.Render(titleText)
	lines = append(lines, makeLine(titleLine, titleLeftPad+rawTitleWidth), empty)

	shortcutsHeader := "  Shortcuts:"
	lines = append(lines, makeLine(styles.WelcomeHeaderStyle.Render(shortcutsHeader), runewidth.StringWidth(shortcutsHeader)))

	for _, s := range shortcuts {
		keyFormatted := fmt.Sprintf("    %-10s", s.Key)
		desc := utils.TruncateToWidth(s.Desc, boxWidth-runewidth.StringWidth(keyFormatted))
		line := styles.WelcomeKeyStyle.Render(keyFormatted) + styles.TextStyle.Render(desc)
		lines = append(lines, makeLine(line, runewidth.StringWidth(keyFormatted)+runewidth.StringWidth(desc)))
	}

	lines = append(lines, empty)

	versionText := version.Summary()
	if runewidth.StringWidth(versionText) > boxWidth-4 {
		versionText = utils.TruncateToWidth(versionText, boxWidth-4)
	}
	versionLeftPad := (boxWidth - runewidth.StringWidth(versionText)) / 2
	versionLine := strings.Repeat(" ", versionLeftPad) + styles.WelcomeVersionStyle.Render(versionText)
	lines = append(lines, makeLine(versionLine, versionLeftPad+runewidth.StringWidth(versionText)))

	lines = append(lines, bottom, "")

	return strings.Join(lines, "\n") + "\n"
}
