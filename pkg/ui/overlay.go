package ui

import (
	"strings"

	"llama_chat/pkg/ui/render"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

// addOverlayLayer centers view on a screenW x screenH screen at depth z,
// clipping it to the screen.
func addOverlayLayer(layers []*lipgloss.Layer, view string, screenW, screenH, z int) []*lipgloss.Layer {
	if view == "" {
		return layers
	}
	x, y, w, h := render.CenterRect(lipgloss.Width(view), lipgloss.Height(view), screenW, screenH)
	if w == 0 || h == 0 {
		return layers
	}

	lines := strings.Split(view, "\n")
	if len(lines) > h {
		lines = lines[:h]
	}
	for i, line := range lines {
		if ansi.StringWidth(line) > w {
			lines[i] = ansi.Truncate(line, w, "")
		}
	}

	return append(layers, lipgloss.NewLayer(strings.Join(lines, "\n")).X(x).Y(y).Z(z))
}
