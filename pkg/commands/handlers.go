package commands

import (
	"fmt"
	"strconv"
	"strings"

	"llama_chat/pkg/intake"
)

// ClearHandler handles the /clear command
type ClearHandler struct{}

func (h *ClearHandler) Name() string        { return "/clear" }
func (h *ClearHandler) Description() string { return "Clear chat history" }

func (h *ClearHandler) Execute(ctx *Context) *Result {
	return &Result{
		Title:  "Clear",
		Action: ResultActionDispatch,
		Event:  intake.ClearHistory{},
	}
}

// OptionsHandler handles the /options command
type OptionsHandler struct{}

func (h *OptionsHandler) Name() string        { return "/options" }
func (h *OptionsHandler) Description() string { return "List the assistance options" }

func (h *OptionsHandler) Execute(ctx *Context) *Result {
	if !ctx.Session.ShowOptions || ctx.Controller == nil {
		return &Result{
			Title:   "Options",
			Content: "No options are available right now.",
			Error:   intake.ErrNoOptions,
		}
	}

	script := ctx.Controller.Script()
	var sb strings.Builder
	sb.WriteString(script.OptionsTitle)
	sb.WriteString("\n")
	for i, opt := range script.Options {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, opt)
	}
	sb.WriteString("\nUse /select <number> to choose.")

	return &Result{
		Title:   "Options",
		Content: sb.String(),
	}
}

// SelectHandler handles the /select command
type SelectHandler struct{}

func (h *SelectHandler) Name() string        { return "/select" }
func (h *SelectHandler) Description() string { return "Choose an option by number or text" }

func (h *SelectHandler) Execute(ctx *Context) *Result {
	if ctx.Controller == nil || !ctx.Session.ShowOptions {
		return &Result{
			Title:   "Select",
			Content: "No options are available right now.",
			Error:   intake.ErrNoOptions,
		}
	}
	if ctx.Args == "" {
		return &Result{
			Title:   "Select",
			Content: "Usage: /select <number>",
			Error:   intake.ErrUnknownOption,
		}
	}

	options := ctx.Controller.Script().Options
	option := ""
	if n, err := strconv.Atoi(ctx.Args); err == nil {
		if n >= 1 && n <= len(options) {
			option = options[n-1]
		}
	} else {
		for _, opt := range options {
			if strings.EqualFold(opt, ctx.Args) {
				option = opt
				break
			}
		}
	}
	if option == "" {
		return &Result{
			Title:   "Select",
			Content: fmt.Sprintf("No option matches %q.", ctx.Args),
			Error:   intake.ErrUnknownOption,
		}
	}

	return &Result{
		Title:  "Select",
		Action: ResultActionDispatch,
		Event:  intake.OptionSelected{Option: option},
	}
}

// ModelHandler handles the /model command
type ModelHandler struct{}

func (h *ModelHandler) Name() string        { return "/model" }
func (h *ModelHandler) Description() string { return "List or switch model presets" }

func (h *ModelHandler) Execute(ctx *Context) *Result {
	presets := ctx.Config.PresetsFor(ctx.Config.LLMProvider)
	if len(presets) == 0 {
		return &Result{
			Title:   "Model",
			Content: fmt.Sprintf("No presets configured for provider %s.", ctx.Config.LLMProvider),
		}
	}

	if ctx.Args == "" {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Presets for %s:\n", ctx.Config.LLMProvider)
		for i, p := range presets {
			marker := " "
			if p.Name == ctx.Preset.Name && p.Model == ctx.Preset.Model {
				marker = "*"
			}
			fmt.Fprintf(&sb, " %s %d. %s (%s)\n", marker, i+1, p.Name, p.Model)
		}
		sb.WriteString("\nUse /model <name or number> to switch.")
		return &Result{Title: "Model", Content: sb.String()}
	}

	for i, p := range presets {
		if strings.EqualFold(p.Name, ctx.Args) || strconv.Itoa(i+1) == ctx.Args {
			return &Result{
				Title:   "Model",
				Content: fmt.Sprintf("Switched to %s.", p.Name),
				Action:  ResultActionSetPreset,
				Preset:  p,
			}
		}
	}

	return &Result{
		Title:   "Model",
		Content: fmt.Sprintf("Unknown preset %q.", ctx.Args),
		Error:   fmt.Errorf("unknown preset %q", ctx.Args),
	}
}

// QuitHandler handles the /quit command
type QuitHandler struct{}

func (h *QuitHandler) Name() string        { return "/quit" }
func (h *QuitHandler) Description() string { return "Exit" }

func (h *QuitHandler) Execute(ctx *Context) *Result {
	return &Result{Title: "Quit", Action: ResultActionQuit}
}

// HelpHandler handles the /help command
type HelpHandler struct {
	dispatcher *Dispatcher
}

func (h *HelpHandler) Name() string        { return "/help" }
func (h *HelpHandler) Description() string { return "Show help" }

func (h *HelpHandler) Execute(ctx *Context) *Result {
	var sb strings.Builder
	sb.WriteString("Available Commands:\n")
	if h.dispatcher != nil {
		for _, handler := range h.dispatcher.Handlers() {
			fmt.Fprintf(&sb, "  %-9s - %s\n", handler.Name(), handler.Description())
		}
	}
	sb.WriteString("\nShortcuts:\n")
	sb.WriteString("  Esc       - Stop the reply being generated\n")
	sb.WriteString("  Ctrl+C    - Stop the reply, or exit when idle\n")

	return &Result{
		Title:   "Help",
		Content: sb.String(),
	}
}
