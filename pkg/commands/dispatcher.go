package commands

import (
	"sort"
	"strings"

	"llama_chat/pkg/config"
	"llama_chat/pkg/intake"
)

// ResultAction tells the UI what to do with a command result beyond showing it.
type ResultAction int

const (
	ResultActionNone ResultAction = iota
	// ResultActionDispatch feeds Result.Event to the conversation controller.
	ResultActionDispatch
	// ResultActionSetPreset switches the active model preset to Result.Preset.
	ResultActionSetPreset
	// ResultActionQuit exits the application.
	ResultActionQuit
)

// Result represents the result of a command execution
type Result struct {
	Title   string
	Content string
	Error   error
	Action  ResultAction
	Event   intake.Event
	Preset  config.ModelPreset
}

// Handler is the interface for command handlers
type Handler interface {
	Execute(ctx *Context) *Result
	Name() string
	Description() string
}

// Dispatcher routes commands to their handlers
type Dispatcher struct {
	handlers map[string]Handler
}

// NewDispatcher creates a new command dispatcher
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[string]Handler),
	}

	d.Register(&ClearHandler{})
	d.Register(&OptionsHandler{})
	d.Register(&SelectHandler{})
	d.Register(&ModelHandler{})
	d.Register(&QuitHandler{})
	d.Register(&HelpHandler{dispatcher: d})

	return d
}

// Register adds a handler to the dispatcher
func (d *Dispatcher) Register(h Handler) {
	d.handlers[h.Name()] = h
}

// IsCommand reports whether line should be routed to the dispatcher rather
// than sent to the conversation.
func IsCommand(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "/")
}

// Dispatch parses a "/name args" line and executes the matching handler.
func (d *Dispatcher) Dispatch(line string, ctx *Context) *Result {
	name, args, _ := strings.Cut(strings.TrimSpace(line), " ")
	handler, ok := d.handlers[name]
	if !ok {
		return &Result{
			Title:   "Error",
			Content: "Unknown command: " + name,
		}
	}

	ctx.Args = strings.TrimSpace(args)
	return handler.Execute(ctx)
}

// GetHandler returns a handler by name
func (d *Dispatcher) GetHandler(cmdName string) (Handler, bool) {
	h, ok := d.handlers[cmdName]
	return h, ok
}

// Handlers returns all registered handlers sorted by name.
func (d *Dispatcher) Handlers() []Handler {
	out := make([]Handler, 0, len(d.handlers))
	for _, h := range d.handlers {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
