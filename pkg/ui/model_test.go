package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"llama_chat/pkg/ai"
	_ "llama_chat/pkg/ai/providers"
	"llama_chat/pkg/config"
	"llama_chat/pkg/intake"
	"llama_chat/pkg/ui/components/picker"
	"llama_chat/pkg/ui/components/settings"
	"llama_chat/pkg/ui/components/testutils"
	"llama_chat/pkg/ui/components/transcript"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

const validToken = "r8_0123456789abcdefghijklmnopqrstuvwxyzA"

type startCall struct {
	apiKey   string
	preset   config.ModelPreset
	sampling config.SamplingConfig
	prompt   string
}

type fakeStarter struct {
	calls    []startCall
	ch       chan ai.StreamEvent
	err      error
	canceled int
}

func (f *fakeStarter) Start(
	_ context.Context,
	apiKey string,
	preset config.ModelPreset,
	sampling config.SamplingConfig,
	prompt string,
) (<-chan ai.StreamEvent, context.CancelFunc, error) {
	f.calls = append(f.calls, startCall{apiKey: apiKey, preset: preset, sampling: sampling, prompt: prompt})
	if f.err != nil {
		return nil, nil, f.err
	}
	f.ch = make(chan ai.StreamEvent, 16)
	return f.ch, func() { f.canceled++ }, nil
}

func noEnv(string) (string, bool) { return "", false }

func newTestModel(t *testing.T, mode intake.Mode, token string) (Model, *fakeStarter) {
	t.Helper()
	starter := &fakeStarter{}
	m := NewModel(Options{
		Config:     config.Default(),
		Controller: intake.NewController(intake.DefaultScript(), mode),
		Runner:     starter,
		Token:      token,
		Source:     config.SourceInteractive,
		LookupEnv:  noEnv,
	})
	m = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = send(t, m, m.Init()())
	return m, starter
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func sendCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

// answerIntake submits one answer per scripted question.
func answerIntake(t *testing.T, m Model) Model {
	t.Helper()
	for i := range m.controller.Script().Questions {
		m = send(t, m, transcript.SubmitMsg{Content: "answer " + string(rune('A'+i))})
	}
	return m
}

func lastMessage(m Model) intake.Message {
	return m.session.Messages[len(m.session.Messages)-1]
}

func TestNewModel(t *testing.T) {
	m, _ := newTestModel(t, intake.ModeOptions, validToken)

	if !m.ready {
		t.Fatal("Expected model to be ready after window size")
	}
	if len(m.session.Messages) != 1 || m.session.Messages[0].Content != intake.DefaultScript().Questions[0] {
		t.Fatalf("Expected seeded first question, got %+v", m.session.Messages)
	}
	if !m.session.CredentialOK || m.transcript.IsLocked() {
		t.Fatal("Expected valid token to unlock input")
	}
	if m.focus != focusChat {
		t.Fatal("Expected chat to have focus")
	}
}

func TestModel_Init_ReportsCredential(t *testing.T) {
	m := NewModel(Options{
		Config:     config.Default(),
		Controller: intake.NewController(intake.DefaultScript(), intake.ModeOptions),
		Runner:     &fakeStarter{},
		Token:      validToken,
		Source:     config.SourceSecretStore,
	})

	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Expected Init() to return a command")
	}
	msg, ok := cmd().(settings.CredentialChangedMsg)
	if !ok || !msg.Valid {
		t.Fatalf("Expected valid CredentialChangedMsg, got %#v", cmd())
	}
}

func TestModel_CredentialGating(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"malformed", "abc"},
		{"wrong length", "r8_short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, starter := newTestModel(t, intake.ModeFreeChat, tt.token)

			if m.session.CredentialOK || !m.transcript.IsLocked() {
				t.Fatal("Expected input to be locked")
			}

			// Typing is swallowed while locked.
			for _, key := range testutils.TypeText("hello") {
				m = send(t, m, key)
			}
			if _, cmd := sendCmd(t, m, testutils.TestKeyEnter); cmd != nil {
				t.Fatal("Expected no submit while locked")
			}

			// A submit that slips through is rejected by the controller.
			m = answerIntake(t, m)
			m = send(t, m, transcript.SubmitMsg{Content: "free text"})
			if len(starter.calls) != 0 {
				t.Fatalf("Expected no inference, got %d calls", len(starter.calls))
			}
			if m.session.QuestionIndex != 0 || len(m.session.Messages) != 1 {
				t.Fatalf("Expected session untouched, got %+v", m.session)
			}
			if !strings.Contains(ansi.Strip(m.statusBar.Render()), "Waiting for a valid API token") &&
				!strings.Contains(ansi.Strip(m.statusBar.Render()), "input disabled") {
				t.Fatalf("Expected credential hint in status bar, got %q", ansi.Strip(m.statusBar.Render()))
			}
		})
	}
}

func TestModel_CredentialChangeUnlocks(t *testing.T) {
	m, _ := newTestModel(t, intake.ModeOptions, "")

	m = send(t, m, settings.CredentialChangedMsg{Provider: config.ProviderReplicate, Token: validToken, Valid: true})
	if !m.session.CredentialOK || m.transcript.IsLocked() {
		t.Fatal("Expected valid credential to unlock input")
	}

	m = send(t, m, transcript.SubmitMsg{Content: "I need help"})
	if m.session.QuestionIndex != 1 {
		t.Fatalf("Expected first answer recorded, got index %d", m.session.QuestionIndex)
	}
}

func TestModel_IntakeQuestionsAdvance(t *testing.T) {
	m, starter := newTestModel(t, intake.ModeOptions, validToken)
	questions := m.controller.Script().Questions

	m = send(t, m, transcript.SubmitMsg{Content: "Career advice"})
	if m.session.QuestionIndex != 1 {
		t.Fatalf("Expected index 1, got %d", m.session.QuestionIndex)
	}
	if got := lastMessage(m); got.Role != intake.RoleAssistant || got.Content != questions[1] {
		t.Fatalf("Expected second question, got %+v", got)
	}
	if !strings.Contains(ansi.Strip(m.statusBar.Render()), "question 2/4") {
		t.Fatalf("Expected progress in status bar, got %q", ansi.Strip(m.statusBar.Render()))
	}
	if len(starter.calls) != 0 {
		t.Fatal("Expected no inference during intake")
	}
}

func TestModel_OptionPickerFlow(t *testing.T) {
	m, starter := newTestModel(t, intake.ModeOptions, validToken)
	script := m.controller.Script()

	m = answerIntake(t, m)
	if !m.session.ShowOptions {
		t.Fatal("Expected options to be offered")
	}
	if !m.picker.IsVisible() {
		t.Fatal("Expected option picker to open")
	}
	if !strings.Contains(ansi.Strip(m.Render()), script.OptionsTitle) {
		t.Fatal("Expected picker title in rendered view")
	}

	m, cmd := sendCmd(t, m, picker.OptionPickerSelectMsg{FieldKey: fieldIntakeOption, Value: script.Options[0]})
	if cmd == nil {
		t.Fatal("Expected listen command after selection")
	}
	if len(starter.calls) != 1 {
		t.Fatalf("Expected one inference, got %d", len(starter.calls))
	}
	call := starter.calls[0]
	if call.apiKey != validToken || call.preset.Name != "Llama2-7B" {
		t.Fatalf("Unexpected inference call: %+v", call)
	}
	if !strings.Contains(call.prompt, "answer A") || !strings.Contains(call.prompt, script.Options[0]) {
		t.Fatalf("Expected prompt to carry answers and option, got %q", call.prompt)
	}
	if !m.session.Busy() || m.session.ShowOptions {
		t.Fatal("Expected busy session with options consumed")
	}

	seq := m.session.Pending.Seq
	m = send(t, m, inferenceEventMsg{seq: seq, event: ai.StreamEvent{Delta: "Step 1. "}})
	m = send(t, m, inferenceEventMsg{seq: seq, event: ai.StreamEvent{Delta: "Study."}})
	m = send(t, m, inferenceEventMsg{seq: seq, event: ai.StreamEvent{Done: true}})

	if m.session.Busy() {
		t.Fatal("Expected inference to finish")
	}
	if got := lastMessage(m); got.Role != intake.RoleAssistant || got.Content != "Step 1. Study." {
		t.Fatalf("Expected streamed reply, got %+v", got)
	}
	if starter.canceled != 1 {
		t.Fatalf("Expected stream resources released once, got %d", starter.canceled)
	}
}

func TestModel_OptionPickerCancelAndReopen(t *testing.T) {
	m, _ := newTestModel(t, intake.ModeOptions, validToken)
	m = answerIntake(t, m)

	m, cmd := sendCmd(t, m, testutils.TestKeyEsc)
	if cmd == nil {
		t.Fatal("Expected picker cancel command")
	}
	m = send(t, m, cmd())
	if m.picker.IsVisible() {
		t.Fatal("Expected picker to close on Esc")
	}
	if !m.session.ShowOptions {
		t.Fatal("Expected options to stay on offer")
	}

	m = send(t, m, testutils.NewCtrlKeyPressMsg('o'))
	if !m.picker.IsVisible() {
		t.Fatal("Expected Ctrl+O to reopen the picker")
	}
}

func TestModel_FreeChatSendsPrompt(t *testing.T) {
	m, starter := newTestModel(t, intake.ModeFreeChat, validToken)
	m = answerIntake(t, m)

	if m.session.ShowOptions || m.picker.IsVisible() {
		t.Fatal("Expected no options in free chat mode")
	}
	if len(starter.calls) != 0 {
		t.Fatal("Expected no inference before the first free-chat message")
	}

	m = send(t, m, transcript.SubmitMsg{Content: "What should I study?"})
	if len(starter.calls) != 1 {
		t.Fatalf("Expected one inference, got %d", len(starter.calls))
	}
	if !strings.HasSuffix(starter.calls[0].prompt, "What should I study? Assistant: ") {
		t.Fatalf("Unexpected prompt tail: %q", starter.calls[0].prompt)
	}
	if !m.session.Busy() {
		t.Fatal("Expected busy session")
	}

	// A second message while busy is rejected.
	m = send(t, m, transcript.SubmitMsg{Content: "again"})
	if len(starter.calls) != 1 {
		t.Fatal("Expected busy session to reject input")
	}
}

func TestModel_SamplingFromSidebar(t *testing.T) {
	m, starter := newTestModel(t, intake.ModeFreeChat, validToken)
	m = answerIntake(t, m)

	m = send(t, m, testutils.TestKeyTab)
	if m.focus != focusSidebar || !m.sidebar.Focused() {
		t.Fatal("Expected Tab to focus the sidebar")
	}
	// Move to the temperature slider and nudge it.
	for i := 0; i < 3; i++ {
		m = send(t, m, testutils.TestKeyDown)
	}
	m = send(t, m, testutils.TestKeyRight)
	m = send(t, m, testutils.TestKeyShiftTab)
	if m.focus != focusChat {
		t.Fatal("Expected Shift+Tab to return focus to chat")
	}

	m = send(t, m, transcript.SubmitMsg{Content: "hi"})
	if len(starter.calls) != 1 {
		t.Fatalf("Expected one inference, got %d", len(starter.calls))
	}
	if got := starter.calls[0].sampling.Temperature; got != 0.11 {
		t.Fatalf("Expected temperature 0.11 from the slider, got %v", got)
	}
}

func TestStreamThrottling(t *testing.T) {
	m, _ := newTestModel(t, intake.ModeFreeChat, validToken)
	m = answerIntake(t, m)
	m = send(t, m, transcript.SubmitMsg{Content: "hi"})
	m.streamThrottleDelay = 10 * time.Millisecond
	seq := m.session.Pending.Seq

	// First chunk should update immediately and start timer
	m = send(t, m, inferenceEventMsg{seq: seq, event: ai.StreamEvent{Delta: "chunk1"}})
	if m.session.Pending.Partial != "chunk1" {
		t.Errorf("Expected content 'chunk1', got %q", m.session.Pending.Partial)
	}
	if !m.streamThrottlePending {
		t.Error("Expected throttle to be pending after first chunk")
	}
	if !strings.Contains(ansi.Strip(m.transcript.View()), "chunk1") {
		t.Error("Expected first chunk to render immediately")
	}

	for i := 2; i <= 10; i++ {
		m = send(t, m, inferenceEventMsg{seq: seq, event: ai.StreamEvent{Delta: "x"}})
	}

	// Content should accumulate
	if m.session.Pending.Partial != "chunk1xxxxxxxxx" {
		t.Errorf("Expected accumulated content, got %q", m.session.Pending.Partial)
	}
	if !m.streamThrottlePending {
		t.Error("Expected throttle to remain pending")
	}
	if strings.Contains(ansi.Strip(m.transcript.View()), "chunk1xxxxxxxxx") {
		t.Error("Expected render to wait for the flush")
	}

	m = send(t, m, streamThrottleFlushMsg{})
	if m.streamThrottlePending {
		t.Error("Expected throttle to be reset after flush")
	}
	if !strings.Contains(ansi.Strip(m.transcript.View()), "chunk1xxxxxxxxx") {
		t.Error("Expected flush to render accumulated content")
	}
}

func TestStreamErrorAppendsFallback(t *testing.T) {
	m, starter := newTestModel(t, intake.ModeFreeChat, validToken)
	m = answerIntake(t, m)
	m = send(t, m, transcript.SubmitMsg{Content: "hi"})
	seq := m.session.Pending.Seq

	m = send(t, m, inferenceEventMsg{seq: seq, event: ai.StreamEvent{Delta: "start"}})
	m = send(t, m, inferenceEventMsg{seq: seq, event: ai.StreamEvent{Err: errors.New("boom"), Done: true}})

	if m.streamThrottlePending {
		t.Error("Expected throttle to be reset on error")
	}
	if m.stream != nil || m.session.Busy() {
		t.Error("Expected stream to be cleared after error")
	}
	if got := lastMessage(m).Content; got != m.controller.Script().Fallback {
		t.Fatalf("Expected fallback apology, got %q", got)
	}
	if starter.canceled != 1 {
		t.Fatalf("Expected cancel to release the stream, got %d", starter.canceled)
	}
}

func TestStreamClosedEarlyAppendsFallback(t *testing.T) {
	m, _ := newTestModel(t, intake.ModeFreeChat, validToken)
	m = answerIntake(t, m)
	m = send(t, m, transcript.SubmitMsg{Content: "hi"})
	seq := m.session.Pending.Seq

	m = send(t, m, inferenceEventMsg{seq: seq, closed: true})
	if m.session.Busy() {
		t.Fatal("Expected closed stream to end the inference")
	}
	if got := lastMessage(m).Content; got != m.controller.Script().Fallback {
		t.Fatalf("Expected fallback apology, got %q", got)
	}
}

func TestStartErrorAppendsFallback(t *testing.T) {
	m, starter := newTestModel(t, intake.ModeFreeChat, validToken)
	starter.err = errors.New("create replicate provider: bad token")
	m = answerIntake(t, m)

	m = send(t, m, transcript.SubmitMsg{Content: "hi"})
	if m.session.Busy() {
		t.Fatal("Expected no inference in flight")
	}
	if got := lastMessage(m).Content; got != m.controller.Script().Fallback {
		t.Fatalf("Expected fallback apology, got %q", got)
	}
	if !strings.Contains(ansi.Strip(m.statusBar.Render()), "Inference failed") {
		t.Fatalf("Expected failure notice, got %q", ansi.Strip(m.statusBar.Render()))
	}
}

func TestModel_EscCancelsInference(t *testing.T) {
	m, starter := newTestModel(t, intake.ModeFreeChat, validToken)
	m = answerIntake(t, m)
	m = send(t, m, transcript.SubmitMsg{Content: "hi"})
	seq := m.session.Pending.Seq
	m = send(t, m, inferenceEventMsg{seq: seq, event: ai.StreamEvent{Delta: "partial answer"}})

	m = send(t, m, testutils.TestKeyEsc)
	if m.session.Busy() {
		t.Fatal("Expected Esc to stop the inference")
	}
	if starter.canceled != 1 {
		t.Fatalf("Expected stream cancel, got %d", starter.canceled)
	}
	if got := lastMessage(m).Content; got != "partial answer" {
		t.Fatalf("Expected partial reply kept, got %q", got)
	}

	// Late events of the cancelled stream are ignored.
	before := len(m.session.Messages)
	m = send(t, m, inferenceEventMsg{seq: seq, event: ai.StreamEvent{Delta: "late"}})
	m = send(t, m, inferenceEventMsg{seq: seq, closed: true})
	if len(m.session.Messages) != before {
		t.Fatal("Expected stale events to be dropped")
	}
}

func TestModel_CtrlC(t *testing.T) {
	m, _ := newTestModel(t, intake.ModeFreeChat, validToken)
	m = answerIntake(t, m)
	m = send(t, m, transcript.SubmitMsg{Content: "hi"})

	m, cmd := sendCmd(t, m, testutils.TestKeyCtrlC)
	if m.session.Busy() {
		t.Fatal("Expected Ctrl+C to cancel the inference first")
	}
	if cmd != nil {
		if _, ok := cmd().(tea.QuitMsg); ok {
			t.Fatal("Expected no quit while an inference was running")
		}
	}

	_, cmd = sendCmd(t, m, testutils.TestKeyCtrlC)
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("Expected QuitMsg, got %T", cmd())
	}
}

func TestModel_ClearHistoryCancelsInference(t *testing.T) {
	m, starter := newTestModel(t, intake.ModeFreeChat, validToken)
	m = answerIntake(t, m)
	m = send(t, m, transcript.SubmitMsg{Content: "hi"})

	m = send(t, m, settings.ClearHistoryMsg{})
	if m.session.Busy() || starter.canceled != 1 {
		t.Fatal("Expected clear to cancel the inference")
	}
	if len(m.session.Messages) != 1 || m.session.QuestionIndex != 0 || len(m.session.Answers) != 0 {
		t.Fatalf("Expected seeded session, got %+v", m.session)
	}
	if !m.session.CredentialOK {
		t.Fatal("Expected credential state to survive clear")
	}
}

func TestModel_SlashCommands(t *testing.T) {
	m, _ := newTestModel(t, intake.ModeOptions, validToken)

	m = send(t, m, transcript.SubmitMsg{Content: "/help"})
	if !m.result.IsVisible() {
		t.Fatal("Expected /help to open the result panel")
	}
	if !strings.Contains(ansi.Strip(m.Render()), "/select") {
		t.Fatal("Expected help text in rendered view")
	}
	m = send(t, m, testutils.TestKeyEsc)
	if m.result.IsVisible() {
		t.Fatal("Expected Esc to close the result panel")
	}
	if len(m.session.Messages) != 1 {
		t.Fatal("Expected commands to stay out of the transcript")
	}

	m = send(t, m, transcript.SubmitMsg{Content: "/select 1"})
	if !m.result.IsVisible() || m.session.Busy() {
		t.Fatal("Expected /select before the options to report an error")
	}
	m = send(t, m, testutils.TestKeyEsc)

	m = answerIntake(t, m)
	m = send(t, m, testutils.TestKeyEsc) // close picker
	m = send(t, m, transcript.SubmitMsg{Content: "/select 2"})
	if !m.session.Busy() {
		t.Fatal("Expected /select 2 to start an inference")
	}
	if got := m.session.Messages[len(m.session.Messages)-1]; got.Content != m.controller.Script().Options[1] {
		t.Fatalf("Expected selected option as user message, got %+v", got)
	}
}

func TestModel_ModelCommandSwitchesPreset(t *testing.T) {
	m, _ := newTestModel(t, intake.ModeOptions, validToken)

	m, cmd := sendCmd(t, m, transcript.SubmitMsg{Content: "/model 2"})
	if cmd == nil {
		t.Fatal("Expected preset change command")
	}
	m = send(t, m, cmd())
	if m.sidebar.Preset().Name != "Llama2-13B" {
		t.Fatalf("Expected Llama2-13B, got %q", m.sidebar.Preset().Name)
	}
	if !strings.Contains(ansi.Strip(m.statusBar.Render()), "Llama2-13B") {
		t.Fatal("Expected status bar to show the new preset")
	}
}

func TestModel_ProviderSwitchRechecksCredential(t *testing.T) {
	m, _ := newTestModel(t, intake.ModeOptions, "")

	m, cmd := sendCmd(t, m, picker.OptionPickerSelectMsg{FieldKey: settings.FieldProvider, Value: config.ProviderOllama})
	if cmd == nil {
		t.Fatal("Expected provider change command")
	}
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatalf("Expected BatchMsg, got %T", cmd())
	}
	for _, c := range batch {
		m = send(t, m, c())
	}

	if m.sidebar.Provider() != config.ProviderOllama || m.cfg.LLMProvider != config.ProviderOllama {
		t.Fatalf("Expected ollama provider, got %q", m.sidebar.Provider())
	}
	if !m.session.CredentialOK || m.transcript.IsLocked() {
		t.Fatal("Expected keyless provider to unlock input")
	}
}

func TestModel_PasteRoutesToFocus(t *testing.T) {
	m, _ := newTestModel(t, intake.ModeOptions, validToken)

	m = send(t, m, tea.PasteMsg{Content: "pasted answer"})
	if m.transcript.Value() != "pasted answer" {
		t.Fatalf("Expected paste in chat input, got %q", m.transcript.Value())
	}

	m = send(t, m, testutils.TestKeyTab)
	m = send(t, m, tea.PasteMsg{Content: "ignored"})
	if m.transcript.Value() != "pasted answer" {
		t.Fatal("Expected sidebar paste to leave the chat input alone")
	}
}

func TestModel_RenderFitsWindow(t *testing.T) {
	for _, size := range []struct{ w, h int }{{120, 40}, {80, 24}, {60, 20}} {
		m, _ := newTestModel(t, intake.ModeOptions, validToken)
		m = send(t, m, tea.WindowSizeMsg{Width: size.w, Height: size.h})

		view := m.Render()
		lines := strings.Split(view, "\n")
		if len(lines) > size.h {
			t.Errorf("%dx%d: rendered %d lines", size.w, size.h, len(lines))
		}
		for i, line := range lines {
			if w := lipgloss.Width(line); w > size.w {
				t.Errorf("%dx%d: line %d has width %d", size.w, size.h, i, w)
			}
		}
	}
}

func TestModel_NarrowLayoutShowsFocusedColumn(t *testing.T) {
	m, _ := newTestModel(t, intake.ModeOptions, validToken)
	m = send(t, m, tea.WindowSizeMsg{Width: 60, Height: 30})

	if strings.Contains(ansi.Strip(m.Render()), "Models and parameters") {
		t.Fatal("Expected sidebar hidden while chat has focus")
	}
	m = send(t, m, testutils.TestKeyTab)
	if !strings.Contains(ansi.Strip(m.Render()), "Models and parameters") {
		t.Fatal("Expected sidebar shown once focused")
	}
}

func TestModel_View(t *testing.T) {
	m, _ := newTestModel(t, intake.ModeOptions, validToken)
	v := m.View()
	if !v.AltScreen {
		t.Fatal("Expected alt screen")
	}

	notReady := NewModel(Options{
		Config:     config.Default(),
		Controller: intake.NewController(intake.DefaultScript(), intake.ModeOptions),
		Runner:     &fakeStarter{},
	})
	if notReady.Render() != "Initializing..." {
		t.Fatalf("Expected initializing view, got %q", notReady.Render())
	}
}

func TestModel_RecallInsertsPastMessage(t *testing.T) {
	m, _ := newTestModel(t, intake.ModeOptions, validToken)
	m = send(t, m, transcript.SubmitMsg{Content: "Ada Lovelace"})
	m = send(t, m, transcript.SubmitMsg{Content: "36"})

	m = send(t, m, testutils.TestKeyCtrlR)
	if !m.recall.IsVisible() {
		t.Fatal("Expected Ctrl+R to open the recall panel")
	}
	if got := m.recall.Filtered(); len(got) != 2 || got[0] != "36" {
		t.Fatalf("Expected newest message first, got %v", got)
	}

	m = send(t, m, testutils.TestKeyDown)
	m, cmd := sendCmd(t, m, testutils.TestKeyEnter)
	if cmd == nil {
		t.Fatal("Expected selection command")
	}
	m = send(t, m, cmd())

	if m.recall.IsVisible() {
		t.Error("Expected recall panel to close")
	}
	if got := m.transcript.Value(); got != "Ada Lovelace" {
		t.Errorf("Expected recalled input, got %q", got)
	}
}

func TestModel_RecallIgnoredWhileLocked(t *testing.T) {
	m, _ := newTestModel(t, intake.ModeOptions, "")

	m = send(t, m, testutils.TestKeyCtrlR)
	if m.recall.IsVisible() {
		t.Error("Expected recall to stay closed without a valid credential")
	}
}
