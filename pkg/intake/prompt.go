package intake

import (
	"fmt"
	"strings"
)

// AssemblePrompt flattens the transcript into a single completion prompt:
// the preamble, each message as "User: ..." or "Assistant: ..." followed by a
// blank line, then the new input and an "Assistant: " cue.
func AssemblePrompt(preamble string, history []Message, input string) string {
	var sb strings.Builder
	sb.WriteString(preamble)
	for _, msg := range history {
		if msg.Role == RoleUser {
			sb.WriteString("User: ")
		} else {
			sb.WriteString("Assistant: ")
		}
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
	}
	sb.WriteString(" ")
	sb.WriteString(input)
	sb.WriteString(" Assistant: ")
	return sb.String()
}

// OptionPrompt summarises the intake answers and asks the model to act on the
// chosen option.
func OptionPrompt(questions, answers []string, option string) string {
	var sb strings.Builder
	sb.WriteString("You have the following information:\n")
	for i, q := range questions {
		if i >= len(answers) {
			break
		}
		fmt.Fprintf(&sb, "%s %s\n", q, answers[i])
	}
	fmt.Fprintf(&sb, "Based on this information, %s Assistant: ", strings.ToLower(option))
	return sb.String()
}
