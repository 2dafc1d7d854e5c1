package transcript

import (
	"strings"

	"llama_chat/pkg/ui/components/utils"
	"llama_chat/pkg/ui/styles"

	"github.com/mattn/go-runewidth"
)

type markdownToken struct {
	text string
	bold bool
	code bool
}

// renderMarkdown renders the subset of markdown Llama chat models emit:
// bold, inline code, fenced code, headings, lists and pipe tables.
func renderMarkdown(content string, width int) []string {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	normalized = utils.Sanitize(normalized)
	normalized = strings.ReplaceAll(normalized, "<br>", "\n")
	normalized = strings.ReplaceAll(normalized, "<br/>", "\n")
	normalized = strings.ReplaceAll(normalized, "<br />", "\n")
	rawLines := strings.Split(normalized, "\n")

	var rendered []string
	inCode := false

	for i := 0; i < len(rawLines); i++ {
		line := strings.ReplaceAll(rawLines[i], "\t", "    ")
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inCode = !inCode
			continue
		}

		if inCode {
			rendered = append(rendered, renderCodeLine(line, width)...)
			continue
		}

		if isTableRow(line) {
			var rows [][]string
			for i < len(rawLines) && isTableRow(rawLines[i]) {
				if cells := splitTableRow(rawLines[i]); len(cells) > 0 {
					rows = append(rows, cells)
				}
				i++
			}
			i--

			if len(rows) > 0 {
				header := false
				if len(rows) > 1 && isSeparatorRow(rows[1]) {
					header = true
					rows = append(rows[:1], rows[2:]...)
				}
				rendered = append(rendered, renderTable(rows, header, width)...)
				continue
			}
		}

		rendered = append(rendered, renderMarkdownLine(line, width)...)
	}

	if len(rendered) == 0 {
		return []string{""}
	}
	return rendered
}

func renderMarkdownLine(line string, width int) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return []string{""}
	}

	if heading, ok := stripHeading(trimmed); ok {
		tokens := tokenizeInline(heading)
		for i := range tokens {
			tokens[i].bold = true
		}
		return wrapTokens(tokens, width)
	}

	if body, ok := stripBullet(trimmed); ok {
		indent := (len(line) - len(strings.TrimLeft(line, " "))) / 2 * 2
		return renderHanging(strings.Repeat(" ", indent)+"• ", body, width)
	}

	tokens := tokenizeInline(line)
	if len(tokens) == 0 {
		return []string{""}
	}
	return wrapTokens(tokens, width)
}

// renderHanging wraps body under a marker, indenting continuation lines so
// they line up with the first word.
func renderHanging(marker, body string, width int) []string {
	markerWidth := runewidth.StringWidth(marker)
	inner := width - markerWidth
	if inner < 1 {
		return wrapTokens(tokenizeInline(marker+body), width)
	}

	wrapped := wrapTokens(tokenizeInline(body), inner)
	out := make([]string, 0, len(wrapped))
	pad := strings.Repeat(" ", markerWidth)
	for i, line := range wrapped {
		if i == 0 {
			out = append(out, transcriptTextStyle.Render(marker)+line)
			continue
		}
		out = append(out, pad+line)
	}
	return out
}

func stripHeading(line string) (string, bool) {
	if !strings.HasPrefix(line, "#") {
		return "", false
	}
	rest := strings.TrimLeft(line, "#")
	if len(line)-len(rest) > 6 || !strings.HasPrefix(rest, " ") {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

func stripBullet(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "+ "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(line[len(marker):]), true
		}
	}
	return "", false
}

func renderTable(rows [][]string, header bool, width int) []string {
	if width <= 0 || len(rows) == 0 {
		return []string{""}
	}

	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return []string{""}
	}

	for i := range rows {
		if len(rows[i]) < cols {
			padded := make([]string, cols)
			copy(padded, rows[i])
			rows[i] = padded
		}
	}

	colWidths := make([]int, cols)
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	fixedWidth := 3*cols + 1
	maxContent := width - fixedWidth
	if maxContent < cols {
		return renderTableFallback(rows, width)
	}

	colWidths = fitColumnWidths(colWidths, maxContent)

	var rendered []string
	for rowIndex, row := range rows {
		line := buildTableLine(row, colWidths)
		if runewidth.StringWidth(line) > width {
			line = utils.TrimToWidth(line, width)
		}
		if header && rowIndex == 0 {
			rendered = append(rendered, transcriptBoldStyle.Render(line))
			rendered = append(rendered, transcriptTextStyle.Render(buildTableSeparator(colWidths)))
			continue
		}
		rendered = append(rendered, transcriptTextStyle.Render(line))
	}

	return rendered
}

func renderTableFallback(rows [][]string, width int) []string {
	var rendered []string
	for _, row := range rows {
		line := strings.Join(row, " | ")
		if width > 0 {
			line = utils.TrimToWidth(line, width)
		}
		rendered = append(rendered, transcriptTextStyle.Render(line))
	}
	return rendered
}

func buildTableLine(row []string, widths []int) string {
	var sb strings.Builder
	sb.WriteString("|")
	for i, cell := range row {
		if i >= len(widths) {
			break
		}
		text := utils.PadPlain(utils.TrimToWidth(cell, widths[i]), widths[i])
		sb.WriteString(" ")
		sb.WriteString(text)
		sb.WriteString(" |")
	}
	return sb.String()
}

func buildTableSeparator(widths []int) string {
	var sb strings.Builder
	sb.WriteString("|")
	for _, w := range widths {
		if w < 1 {
			w = 1
		}
		sb.WriteString(" ")
		sb.WriteString(strings.Repeat("-", w))
		sb.WriteString(" |")
	}
	return sb.String()
}

// fitColumnWidths shrinks the widest column one cell at a time until the
// table fits.
func fitColumnWidths(widths []int, maxContent int) []int {
	out := make([]int, len(widths))
	if maxContent <= 0 {
		for i := range out {
			out[i] = 1
		}
		return out
	}
	copy(out, widths)

	total := 0
	for _, w := range out {
		if w < 1 {
			w = 1
		}
		total += w
	}

	for total > maxContent {
		maxIdx := -1
		maxVal := 0
		for i, w := range out {
			if w > maxVal {
				maxVal = w
				maxIdx = i
			}
		}
		if maxIdx == -1 || maxVal <= 1 {
			break
		}
		out[maxIdx]--
		total--
	}

	for i, w := range out {
		if w < 1 {
			out[i] = 1
		}
	}
	return out
}

func renderCodeLine(line string, width int) []string {
	if width <= 0 {
		return []string{line}
	}
	if line == "" {
		return []string{transcriptCodeStyle.Render(utils.PadPlain("", width))}
	}

	parts := utils.SplitByWidth(line, width)
	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		lines = append(lines, transcriptCodeStyle.Render(utils.PadPlain(part, width)))
	}
	return lines
}

func isTableRow(line string) bool {
	if strings.Count(line, "|") < 2 {
		return false
	}
	cells := splitTableRow(line)
	if len(cells) < 2 {
		return false
	}
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return true
		}
	}
	return false
}

func splitTableRow(line string) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	trimmed = strings.TrimPrefix(trimmed, "|")
	trimmed = strings.TrimSuffix(trimmed, "|")
	parts := strings.Split(trimmed, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func isSeparatorRow(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, cell := range cells {
		clean := strings.Trim(strings.TrimSpace(cell), ":")
		if len(clean) < 3 {
			return false
		}
		for _, r := range clean {
			if r != '-' {
				return false
			}
		}
	}
	return true
}

// tokenizeInline splits a line into words, tracking **bold** and `code` spans.
func tokenizeInline(line string) []markdownToken {
	var tokens []markdownToken
	bold := false
	code := false

	for len(line) > 0 {
		idx := nextMarker(line, code)
		segment := line
		if idx >= 0 {
			segment = line[:idx]
		}
		for _, word := range strings.Fields(segment) {
			tokens = append(tokens, markdownToken{text: word, bold: bold, code: code})
		}
		if idx < 0 {
			break
		}

		if line[idx] == '`' {
			code = !code
			line = line[idx+1:]
			continue
		}
		bold = !bold
		line = line[idx+2:]
	}

	return tokens
}

// nextMarker returns the index of the next backtick or "**". Inside a code
// span only the closing backtick counts.
func nextMarker(s string, inCode bool) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '`':
			return i
		case '*':
			if !inCode && i+1 < len(s) && s[i+1] == '*' {
				return i
			}
		}
	}
	return -1
}

func wrapTokens(tokens []markdownToken, width int) []string {
	if width <= 0 {
		return []string{""}
	}

	var lines []string
	var lineTokens []markdownToken
	lineWidth := 0

	flush := func() {
		lines = append(lines, renderTokenLine(lineTokens))
		lineTokens = nil
		lineWidth = 0
	}

	for _, token := range tokens {
		if token.text == "" {
			continue
		}

		for _, part := range utils.SplitByWidth(token.text, width) {
			partWidth := runewidth.StringWidth(part)
			if lineWidth > 0 && lineWidth+1+partWidth > width {
				flush()
			}

			if lineWidth > 0 {
				lineWidth++
			}
			lineTokens = append(lineTokens, markdownToken{text: part, bold: token.bold, code: token.code})
			lineWidth += partWidth
		}
	}

	if len(lineTokens) > 0 {
		flush()
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

func renderTokenLine(tokens []markdownToken) string {
	var sb strings.Builder
	for i, token := range tokens {
		if i > 0 {
			sb.WriteString(transcriptTextStyle.Render(" "))
		}
		switch {
		case token.code:
			sb.WriteString(transcriptCodeStyle.Render(token.text))
		case token.bold:
			sb.WriteString(transcriptBoldStyle.Render(token.text))
		default:
			sb.WriteString(transcriptTextStyle.Render(token.text))
		}
	}
	return sb.String()
}

var (
	transcriptTextStyle = styles.TextStyle
	transcriptBoldStyle = styles.TextBoldStyle
	transcriptCodeStyle = styles.CodeStyle
)
