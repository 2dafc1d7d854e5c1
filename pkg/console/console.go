// Package console runs the intake conversation over plain line I/O. It is
// used when stdin is not a terminal or when the full-screen interface is
// turned off.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"llama_chat/pkg/ai"
	"llama_chat/pkg/commands"
	"llama_chat/pkg/config"
	"llama_chat/pkg/intake"
	"llama_chat/pkg/ui/components/utils"
	"llama_chat/pkg/ui/components/welcome"
	"llama_chat/pkg/ui/styles"

	"charm.land/lipgloss/v2"
	"golang.org/x/term"
)

// Options configures a Console.
type Options struct {
	In         io.Reader
	Out        io.Writer
	Config     config.Config
	Controller *intake.Controller
	Runner     commands.Starter
	Token      string
	Source     config.CredentialSource
	// Interrupts delivers Ctrl+C. An interrupt stops the reply in flight, or
	// ends the session when idle.
	Interrupts <-chan os.Signal
}

// Console is the line-mode adapter for the conversation controller.
type Console struct {
	in         io.Reader
	out        io.Writer
	cfg        config.Config
	controller *intake.Controller
	runner     commands.Starter
	dispatcher *commands.Dispatcher
	interrupts <-chan os.Signal

	token   string
	source  config.CredentialSource
	preset  config.ModelPreset
	session intake.Session

	lines <-chan string
	done  chan struct{}
}

// New creates a console for opts.
func New(opts Options) *Console {
	c := &Console{
		in:         opts.In,
		out:        opts.Out,
		cfg:        opts.Config,
		controller: opts.Controller,
		runner:     opts.Runner,
		dispatcher: commands.NewDispatcher(),
		interrupts: opts.Interrupts,
		token:      strings.TrimSpace(opts.Token),
		source:     opts.Source,
		session:    opts.Controller.Seed(),
	}
	if preset, ok := opts.Config.ActivePreset(); ok {
		c.preset = preset
	}
	return c
}

// Run reads lines until EOF, /quit, an idle interrupt or ctx cancellation.
func (c *Console) Run(ctx context.Context) error {
	c.done = make(chan struct{})
	defer close(c.done)
	c.lines = readLines(c.in, c.done)

	c.print(welcome.WelcomeMessage(welcome.ConsoleShortcuts))
	slog.Info("console_start", "session", c.session.ID, "mode", c.controller.Mode())

	if err := c.ensureCredential(ctx); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, errQuit) {
			return nil
		}
		return err
	}
	c.printAssistant(c.session.Messages[0].Content)

	for {
		c.print(styles.UserRoleStyle.Render("You") + ": ")
		line, err := c.readLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, errQuit) {
				c.print("\n")
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := c.handleLine(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
	}
}

var errQuit = errors.New("quit")

// readLines scans in on its own goroutine so reads can be abandoned on
// interrupt. The goroutine exits at EOF or when done is closed.
func readLines(in io.Reader, done <-chan struct{}) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case ch <- scanner.Text():
			case <-done:
				return
			}
		}
	}()
	return ch
}

func (c *Console) readLine(ctx context.Context) (string, error) {
	select {
	case line, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	case <-c.interrupts:
		return "", errQuit
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ensureCredential blocks until the credential passes the local check.
func (c *Console) ensureCredential(ctx context.Context) error {
	provider := ai.ProviderType(c.cfg.LLMProvider)
	for {
		valid := ai.ValidateCredential(provider, c.token)
		c.dispatch(ctx, intake.CredentialChanged{Valid: valid})
		if valid {
			if c.source == config.SourceSecretStore && ai.RequiresKey(provider) {
				c.println(styles.SuccessStyle.Render("✅ API key already provided!"))
			}
			return nil
		}

		c.println(styles.WarningStyle.Render("⚠️ Please enter your credentials!"))
		token, err := c.readSecret(ctx, fmt.Sprintf("Enter %s API token: ", c.cfg.LLMProvider))
		if err != nil {
			return err
		}
		c.token = strings.TrimSpace(token)
		c.source = config.SourceInteractive
		slog.Info("credential_entered", "provider", c.cfg.LLMProvider, "valid", ai.ValidateCredential(provider, c.token))
	}
}

// readSecret reads a line without echo when the input is a terminal.
func (c *Console) readSecret(ctx context.Context, prompt string) (string, error) {
	c.print(prompt)
	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		c.print("\n")
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return string(secret), nil
	}
	return c.readLine(ctx)
}

func (c *Console) handleLine(ctx context.Context, line string) error {
	if commands.IsCommand(line) {
		return c.runCommand(ctx, line)
	}

	// A bare number picks an offered option.
	if c.session.ShowOptions {
		if n, err := strconv.Atoi(line); err == nil {
			options := c.controller.Script().Options
			if n >= 1 && n <= len(options) {
				return c.dispatch(ctx, intake.OptionSelected{Option: options[n-1]})
			}
		}
	}
	return c.dispatch(ctx, intake.UserInput{Text: line})
}

func (c *Console) runCommand(ctx context.Context, line string) error {
	cmdCtx := commands.NewContext(c.session, c.controller, c.cfg, c.preset)
	res := c.dispatcher.Dispatch(line, cmdCtx)
	slog.Info("command_executed", "command", strings.Fields(line)[0], "action", res.Action)

	if res.Error != nil {
		c.println(styles.ErrorStyle.Render(res.Content))
		return nil
	}

	switch res.Action {
	case commands.ResultActionDispatch:
		if _, ok := res.Event.(intake.ClearHistory); ok {
			c.println(styles.TextMutedStyle.Render("Chat history cleared."))
			err := c.dispatch(ctx, res.Event)
			c.printAssistant(c.session.Messages[0].Content)
			return err
		}
		return c.dispatch(ctx, res.Event)
	case commands.ResultActionSetPreset:
		c.preset = res.Preset
	case commands.ResultActionQuit:
		return errQuit
	}

	if res.Content != "" {
		c.println(res.Content)
	}
	return nil
}

// dispatch feeds ev to the controller, prints new assistant messages and
// performs the resulting effects.
func (c *Console) dispatch(ctx context.Context, ev intake.Event) error {
	next, effects, err := c.controller.Dispatch(c.session, ev)
	if err != nil {
		slog.Warn("intake_event_rejected", "event", fmt.Sprintf("%T", ev), "error", err)
		c.println(styles.ErrorStyle.Render(describe(err)))
		return nil
	}

	// ClearHistory reseeds the transcript; the caller prints the new seed.
	printed := len(c.session.Messages)
	if _, ok := ev.(intake.ClearHistory); ok {
		printed = len(next.Messages)
	}
	c.session = next
	script := c.controller.Script()
	for _, msg := range c.session.Messages[min(printed, len(c.session.Messages)):] {
		if msg.Role != intake.RoleAssistant {
			continue
		}
		// Offered options are listed with their numbers below.
		if c.session.ShowOptions && script.HasOption(msg.Content) {
			continue
		}
		c.printAssistant(msg.Content)
	}

	for _, effect := range effects {
		switch effect := effect.(type) {
		case intake.RunInference:
			if err := c.infer(ctx, effect); err != nil {
				return err
			}
		case intake.PresentOptions:
			c.printOptions(effect)
		}
	}
	return nil
}

// infer runs one inference to completion, printing fragments as they arrive.
func (c *Console) infer(ctx context.Context, run intake.RunInference) error {
	ch, cancel, err := c.runner.Start(ctx, c.token, c.preset, c.cfg.Sampling, run.Prompt)
	if err != nil {
		return c.finish(ctx, intake.InferenceFailed{Seq: run.Seq, Err: err}, "")
	}
	defer cancel()

	c.print(styles.AssistantRoleStyle.Render("Assistant") + ": ")
	var shown strings.Builder
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return c.finish(ctx, intake.InferenceCanceled{Seq: run.Seq}, shown.String())
				}
				return c.finish(ctx, intake.InferenceFailed{Seq: run.Seq, Err: errors.New("inference stream closed before completion")}, shown.String())
			}
			event := commands.ToEvent(run.Seq, ev)
			if delta, isDelta := event.(intake.InferenceDelta); isDelta {
				next, _, err := c.controller.Dispatch(c.session, delta)
				if err != nil {
					slog.Warn("inference_delta_rejected", "seq", run.Seq, "error", err)
					continue
				}
				// Stale fragments are dropped by the controller; don't echo them.
				if next.Pending == nil || next.Pending.Seq != run.Seq {
					continue
				}
				c.session = next
				text := utils.Sanitize(delta.Text)
				shown.WriteString(text)
				c.print(text)
				continue
			}
			return c.finish(ctx, event, shown.String())

		case <-c.interrupts:
			slog.Info("inference_cancel", "seq", run.Seq)
			cancel()
			c.print(styles.TextMutedStyle.Render(" [stopped]"))
			return c.finish(ctx, intake.InferenceCanceled{Seq: run.Seq}, shown.String())

		case <-ctx.Done():
			cancel()
			return c.finish(ctx, intake.InferenceCanceled{Seq: run.Seq}, shown.String())
		}
	}
}

// finish applies the terminal inference event and prints whatever part of
// the final reply has not been shown yet.
func (c *Console) finish(ctx context.Context, ev intake.Event, shown string) error {
	before := len(c.session.Messages)
	next, _, err := c.controller.Dispatch(c.session, ev)
	if err != nil {
		return fmt.Errorf("apply %T: %w", ev, err)
	}
	c.session = next

	if len(c.session.Messages) > before {
		final := utils.Sanitize(c.session.Messages[len(c.session.Messages)-1].Content)
		switch {
		case shown == "" && final != "":
			if _, failed := ev.(intake.InferenceFailed); failed {
				c.print(styles.AssistantRoleStyle.Render("Assistant") + ": ")
			}
			c.print(final)
		case strings.HasPrefix(final, shown):
			c.print(final[len(shown):])
		default:
			c.print("\n" + final)
		}
	}
	c.print("\n\n")
	return ctx.Err()
}

func describe(err error) string {
	switch {
	case errors.Is(err, intake.ErrInputDisabled):
		return "Please enter a valid API token first."
	case errors.Is(err, intake.ErrBusy):
		return "Please wait for the current reply."
	case errors.Is(err, intake.ErrNoOptions):
		return "No options are available right now."
	case errors.Is(err, intake.ErrUnknownOption):
		return "That option is not on the list."
	}
	return err.Error()
}

func (c *Console) printOptions(effect intake.PresentOptions) {
	c.println(styles.TextBoldStyle.Render(effect.Title))
	for i, option := range effect.Options {
		c.println(fmt.Sprintf("  %s %s", styles.WelcomeKeyStyle.Render(strconv.Itoa(i+1)+"."), option))
	}
	c.println(styles.TextMutedStyle.Render("Reply with an option number, or /select <number>."))
}

func (c *Console) printAssistant(text string) {
	c.println(styles.AssistantRoleStyle.Render("Assistant") + ": " + utils.Sanitize(text))
}

func (c *Console) print(s string) {
	_, _ = lipgloss.Fprint(c.out, s)
}

func (c *Console) println(s string) {
	_, _ = lipgloss.Fprintln(c.out, s)
}
