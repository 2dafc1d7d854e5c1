package ui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"llama_chat/pkg/ai"
	"llama_chat/pkg/commands"
	"llama_chat/pkg/config"
	"llama_chat/pkg/intake"
	"llama_chat/pkg/ui/components/picker"
	"llama_chat/pkg/ui/components/recall"
	"llama_chat/pkg/ui/components/result"
	"llama_chat/pkg/ui/components/settings"
	"llama_chat/pkg/ui/components/statusbar"
	"llama_chat/pkg/ui/components/transcript"
	"llama_chat/pkg/ui/render"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

const (
	sidebarWidth   = 34
	minMainWidth   = 40
	transcriptName = "Llama 2 Chatbot"

	// fieldIntakeOption is the picker key for the post-intake options.
	fieldIntakeOption = "intake_option"

	defaultStreamThrottle = 50 * time.Millisecond
)

type focusArea int

const (
	focusChat focusArea = iota
	focusSidebar
)

// Options configures a new Model.
type Options struct {
	// Context bounds every inference the model starts. Nil means
	// context.Background().
	Context    context.Context
	Config     config.Config
	Controller *intake.Controller
	Runner     commands.Starter
	Token      string
	Source     config.CredentialSource
	// LookupEnv resolves provider credentials when the provider changes.
	// Nil means os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Model represents the Bubble Tea application state
type Model struct {
	ctx        context.Context
	cfg        config.Config
	controller *intake.Controller
	session    intake.Session
	runner     commands.Starter
	dispatcher *commands.Dispatcher
	lookupEnv  func(string) (string, bool)

	// UI Components
	sidebar    *settings.SettingsPanel
	transcript *transcript.Panel
	picker     *picker.OptionPickerPanel
	recall     *recall.Panel
	result     *result.ResultPanel
	statusBar  *statusbar.StatusBarView
	spinner    spinner.Model

	initialToken  string
	initialSource config.CredentialSource

	// Inference in flight
	stream       <-chan ai.StreamEvent
	streamSeq    int
	cancelStream context.CancelFunc

	streamThrottleDelay   time.Duration
	streamThrottlePending bool

	// UI state
	width  int
	height int
	ready  bool
	focus  focusArea
}

// NewModel creates a new Bubble Tea model
func NewModel(opts Options) Model {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	m := Model{
		ctx:                 ctx,
		cfg:                 opts.Config,
		controller:          opts.Controller,
		session:             opts.Controller.Seed(),
		runner:              opts.Runner,
		dispatcher:          commands.NewDispatcher(),
		lookupEnv:           lookup,
		sidebar:             settings.NewSettingsPanel(opts.Config, credentialCheck),
		transcript:          transcript.NewPanel(transcriptName),
		picker:              picker.NewOptionPickerPanel(),
		recall:              recall.NewPanel(),
		result:              result.NewResultPanel(),
		statusBar:           statusbar.NewStatusBarView(),
		spinner:             spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		initialToken:        opts.Token,
		initialSource:       opts.Source,
		streamThrottleDelay: defaultStreamThrottle,
		focus:               focusChat,
	}

	// Input stays locked until the first credential check reports back.
	m.transcript.SetLocked(true)
	m.refresh()
	return m
}

// credentialCheck runs the registry's local format check for provider.
func credentialCheck(provider, key string) (bool, bool) {
	t := ai.ProviderType(provider)
	return ai.ValidateCredential(t, key), ai.RequiresKey(t)
}

// Init runs the initial credential check.
func (m Model) Init() tea.Cmd {
	return m.sidebar.SetCredential(m.initialToken, m.initialSource)
}

// Update handles messages and updates model state (Bubble Tea lifecycle method)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.PasteMsg:
		if m.overlayOpen() {
			return m, nil
		}
		if m.focus == focusSidebar {
			m.sidebar.HandlePaste(msg.Content)
		} else {
			m.transcript.HandlePaste(msg.Content)
		}
		return m, nil

	case transcript.SubmitMsg:
		return m.submit(msg.Content)

	case transcript.CopiedMsg:
		m.statusBar.SetMessage(fmt.Sprintf("Copied %d characters", msg.Chars))
		return m, nil

	case settings.CredentialChangedMsg:
		slog.Info("credential_checked", "provider", msg.Provider, "valid", msg.Valid)
		m.transcript.SetLocked(!msg.Valid)
		return m.dispatch(intake.CredentialChanged{Valid: msg.Valid})

	case settings.ProviderChangedMsg:
		m.cfg.LLMProvider = msg.Provider
		m.refresh()
		return m, nil

	case settings.PresetChangedMsg:
		slog.Info("preset_changed", "preset", msg.Preset.Name, "model", msg.Preset.Model)
		m.refresh()
		return m, nil

	case settings.SamplingChangedMsg:
		slog.Debug("sampling_changed",
			"temperature", msg.Sampling.Temperature,
			"top_p", msg.Sampling.TopP,
			"max_length", msg.Sampling.MaxLength,
		)
		return m, nil

	case settings.ClearHistoryMsg:
		return m.clearHistory()

	case picker.OpenOptionPickerMsg:
		m.picker.Show(msg.Title, msg.FieldKey, msg.Options, msg.Current)
		return m, nil

	case picker.OptionPickerSelectMsg:
		return m.handlePickerSelect(msg)

	case picker.OptionPickerCancelMsg:
		if msg.FieldKey == fieldIntakeOption {
			m.statusBar.SetMessage("Options hidden. Press Ctrl+O to show them again")
		}
		return m, nil

	case recall.SelectMsg:
		m.transcript.SetInput(msg.Text)
		return m, nil

	case recall.CancelMsg, result.ResultPanelCloseMsg:
		return m, nil

	case inferenceEventMsg:
		return m.handleInferenceEvent(msg)

	case streamThrottleFlushMsg:
		m.streamThrottlePending = false
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.session.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	m.statusBar.SetMessage("")
	key := msg.String()

	if key == "ctrl+c" {
		if m.session.Busy() {
			return m.cancelInference()
		}
		return m, tea.Quit
	}

	if m.result.IsVisible() {
		return m, m.result.Update(msg)
	}
	if m.picker.IsVisible() {
		return m, m.picker.Update(msg)
	}
	if m.recall.IsVisible() {
		return m, m.recall.Update(msg)
	}

	editing := m.focus == focusSidebar && m.sidebar.IsEditing()
	switch key {
	case "esc":
		if m.session.Busy() && !editing {
			return m.cancelInference()
		}
	case "tab", "shift+tab":
		m.toggleFocus()
		return m, nil
	case "ctrl+l":
		return m.clearHistory()
	case "ctrl+o":
		if m.session.ShowOptions {
			m.showIntakeOptions()
		}
		return m, nil
	case "ctrl+r":
		if m.focus == focusChat && !m.transcript.IsLocked() {
			m.recall.Show(m.transcript.Value(), recall.Entries(m.session.Messages))
		}
		return m, nil
	}

	if m.focus == focusSidebar {
		return m, m.sidebar.Update(msg)
	}
	return m, m.transcript.Update(msg)
}

// overlayOpen reports whether a modal panel has the keyboard.
func (m Model) overlayOpen() bool {
	return m.result.IsVisible() || m.picker.IsVisible() || m.recall.IsVisible()
}

func (m *Model) toggleFocus() {
	if m.focus == focusSidebar {
		m.focus = focusChat
		m.sidebar.Blur()
		m.transcript.Focus()
	} else {
		m.focus = focusSidebar
		m.transcript.Blur()
		m.sidebar.Focus()
	}
	// Narrow layouts show only the focused column.
	m.layout()
}

// submit routes a chat input line to the command dispatcher or the
// conversation.
func (m Model) submit(content string) (tea.Model, tea.Cmd) {
	if commands.IsCommand(content) {
		return m.runCommand(content)
	}
	return m.dispatch(intake.UserInput{Text: content})
}

func (m Model) runCommand(line string) (tea.Model, tea.Cmd) {
	ctx := commands.NewContext(m.session, m.controller, m.cfg, m.sidebar.Preset())
	res := m.dispatcher.Dispatch(line, ctx)
	slog.Info("command_executed", "command", strings.Fields(line)[0], "action", res.Action)

	if res.Error != nil {
		m.result.ShowError(res.Title, res.Content)
		return m, nil
	}

	switch res.Action {
	case commands.ResultActionDispatch:
		return m.dispatch(res.Event)
	case commands.ResultActionSetPreset:
		m.statusBar.SetMessage(res.Content)
		return m, m.sidebar.SetPreset(res.Preset.Name)
	case commands.ResultActionQuit:
		m.stopStream()
		return m, tea.Quit
	}

	m.result.Show(res.Title, res.Content)
	return m, nil
}

func (m Model) handlePickerSelect(msg picker.OptionPickerSelectMsg) (tea.Model, tea.Cmd) {
	switch msg.FieldKey {
	case fieldIntakeOption:
		return m.dispatch(intake.OptionSelected{Option: msg.Value})
	case settings.FieldProvider:
		token, source := config.ResolveCredential(m.cfg, msg.Value, m.lookupEnv)
		return m, m.sidebar.SetProvider(msg.Value, token, source)
	case settings.FieldPreset:
		return m, m.sidebar.SetPreset(msg.Value)
	}
	return m, nil
}

func (m Model) clearHistory() (tea.Model, tea.Cmd) {
	model, cmd := m.dispatch(intake.ClearHistory{})
	m = model.(Model)
	m.picker.Hide()
	m.statusBar.SetMessage("Chat history cleared")
	return m, cmd
}

// dispatch feeds ev to the controller and performs the resulting effects.
func (m Model) dispatch(ev intake.Event) (tea.Model, tea.Cmd) {
	next, effects, err := m.controller.Dispatch(m.session, ev)
	if err != nil {
		slog.Warn("intake_event_rejected", "event", fmt.Sprintf("%T", ev), "error", err)
		m.statusBar.SetMessage(err.Error())
		return m, nil
	}
	m.session = next

	var cmds []tea.Cmd
	for _, effect := range effects {
		var cmd tea.Cmd
		m, cmd = m.applyEffect(effect)
		cmds = append(cmds, cmd)
	}
	m.refresh()
	return m, tea.Batch(cmds...)
}

func (m Model) applyEffect(effect intake.Effect) (Model, tea.Cmd) {
	switch effect := effect.(type) {
	case intake.RunInference:
		return m.startInference(effect)
	case intake.CancelInference:
		m.stopStream()
		return m, nil
	case intake.PresentOptions:
		m.picker.Show(effect.Title, fieldIntakeOption, effect.Options, "")
		return m, nil
	}
	return m, nil
}

func (m *Model) showIntakeOptions() {
	script := m.controller.Script()
	m.picker.Show(script.OptionsTitle, fieldIntakeOption, script.Options, "")
}

// refresh pushes session state into the transcript and status bar.
func (m *Model) refresh() {
	m.transcript.SetMessages(m.session.Messages)

	var partial, frame string
	if m.session.Pending != nil {
		partial = m.session.Pending.Partial
		frame = m.spinner.View()
	}
	m.transcript.SetPending(partial, frame, m.session.Busy())

	preset := m.sidebar.Preset()
	m.statusBar.SetModel(preset.Name, preset.Provider)
	m.statusBar.SetState(m.stateLabel())
	m.statusBar.SetProgress(m.progressLabel())
}

func (m Model) stateLabel() string {
	switch {
	case !m.session.CredentialOK:
		return "Waiting for a valid API token"
	case m.session.Busy():
		return "Generating..."
	case m.session.ShowOptions:
		return "Choose an option"
	default:
		return "Ready"
	}
}

func (m Model) progressLabel() string {
	questions := len(m.controller.Script().Questions)
	if !m.session.IntakeComplete(m.controller.Script()) {
		return fmt.Sprintf("question %d/%d", m.session.QuestionIndex+1, questions)
	}
	if m.controller.Mode() == intake.ModeFreeChat {
		return "free chat"
	}
	return ""
}

// layout sizes every component for the current window.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	bodyHeight := render.BodyHeight(m.height)
	side, main := render.SplitColumns(m.width, sidebarWidth, minMainWidth)
	if side == 0 {
		// Narrow: the focused column takes the full width.
		m.sidebar.SetSize(m.width, bodyHeight)
		m.transcript.SetSize(m.width, bodyHeight)
	} else {
		m.sidebar.SetSize(side, bodyHeight)
		m.transcript.SetSize(main, bodyHeight)
	}
	m.picker.SetSize(m.width, m.height)
	m.recall.SetSize(m.width, m.height)
	m.result.SetSize(m.width, m.height)
	m.statusBar.SetWidth(m.width)
}

// View renders the UI (Bubble Tea lifecycle method)
func (m Model) View() tea.View {
	v := tea.NewView(m.Render())
	v.AltScreen = true
	v.WindowTitle = "Llama 2 Chatbot"
	return v
}

// Render returns the full screen as a string.
func (m Model) Render() string {
	if !m.ready {
		return "Initializing..."
	}

	var body string
	side, _ := render.SplitColumns(m.width, sidebarWidth, minMainWidth)
	switch {
	case side > 0:
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), m.transcript.View())
	case m.focus == focusSidebar:
		body = m.sidebar.View()
	default:
		body = m.transcript.View()
	}

	screen := lipgloss.JoinVertical(lipgloss.Left, body, m.statusBar.Render())

	layers := []*lipgloss.Layer{lipgloss.NewLayer(screen).Z(0)}
	if m.picker.IsVisible() {
		layers = addOverlayLayer(layers, m.picker.View(), m.width, m.height, 1)
	}
	if m.recall.IsVisible() {
		layers = addOverlayLayer(layers, m.recall.View(), m.width, m.height, 1)
	}
	if m.result.IsVisible() {
		layers = addOverlayLayer(layers, m.result.View(), m.width, m.height, 2)
	}
	if len(layers) == 1 {
		return screen
	}
	return lipgloss.NewCompositor(layers...).Render()
}
