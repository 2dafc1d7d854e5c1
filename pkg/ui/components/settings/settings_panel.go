package settings

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"llama_chat/pkg/config"
	"llama_chat/pkg/ui/components/picker"
	"llama_chat/pkg/ui/components/utils"
	"llama_chat/pkg/ui/styles"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// Picker field keys.
const (
	FieldProvider = "provider"
	FieldPreset   = "preset"
)

const (
	fieldToken       = "token"
	fieldTemperature = "temperature"
	fieldTopP        = "top_p"
	fieldMaxLength   = "max_length"
	fieldClear       = "clear"
)

// SettingField represents a single row of the sidebar.
type SettingField struct {
	Label string
	Key   string
	Type  string // "secret", "choice", "slider", "action"
}

// CredentialCheck reports whether key passes the local check for provider and
// whether provider needs a key at all.
type CredentialCheck func(provider, key string) (valid, required bool)

// CredentialChangedMsg is sent when the credential or its validity changes.
type CredentialChangedMsg struct {
	Provider string
	Token    string
	Valid    bool
}

// ProviderChangedMsg is sent when the LLM provider is changed.
type ProviderChangedMsg struct {
	Provider string
}

// PresetChangedMsg is sent when a different model preset is selected.
type PresetChangedMsg struct {
	Preset config.ModelPreset
}

// SamplingChangedMsg is sent whenever a slider moves.
type SamplingChangedMsg struct {
	Sampling config.SamplingConfig
}

// ClearHistoryMsg is sent when the Clear Chat History action is chosen.
type ClearHistoryMsg struct{}

type slider struct {
	min, max, step float64
	format         string
}

var sliders = map[string]slider{
	fieldTemperature: {config.TemperatureMin, config.TemperatureMax, config.TemperatureStep, "%.2f"},
	fieldTopP:        {config.TopPMin, config.TopPMax, config.TopPStep, "%.2f"},
	fieldMaxLength:   {config.MaxLengthMin, config.MaxLengthMax, config.MaxLengthStep, "%.0f"},
}

// SettingsPanel is the always-on sidebar holding the credential, model and
// sampling controls.
type SettingsPanel struct {
	cfg      config.Config
	check    CredentialCheck
	provider string
	preset   config.ModelPreset
	sampling config.SamplingConfig

	token       string
	source      config.CredentialSource
	tokenValid  bool
	keyRequired bool

	fields   []SettingField
	selected int
	editing  bool
	input    textinput.Model
	focused  bool
	width    int
	height   int
}

// NewSettingsPanel creates the sidebar for cfg.
func NewSettingsPanel(cfg config.Config, check CredentialCheck) *SettingsPanel {
	ti := textinput.New()
	ti.Placeholder = "r8_..."
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 256
	ti.Prompt = ""

	sp := &SettingsPanel{
		cfg:      cfg,
		check:    check,
		provider: cfg.LLMProvider,
		sampling: cfg.Sampling,
		input:    ti,
	}
	if preset, ok := cfg.ActivePreset(); ok {
		sp.preset = preset
	}
	sp.buildFields()
	sp.revalidate()
	return sp
}

func (sp *SettingsPanel) buildFields() {
	sp.fields = []SettingField{
		{Label: "API token", Key: fieldToken, Type: "secret"},
		{Label: "Provider", Key: FieldProvider, Type: "choice"},
		{Label: "Model", Key: FieldPreset, Type: "choice"},
		{Label: "temperature", Key: fieldTemperature, Type: "slider"},
		{Label: "top_p", Key: fieldTopP, Type: "slider"},
		{Label: "max_length", Key: fieldMaxLength, Type: "slider"},
		{Label: "Clear Chat History", Key: fieldClear, Type: "action"},
	}
}

// SetCredential records a credential and where it came from, and returns a
// command reporting the check result.
func (sp *SettingsPanel) SetCredential(token string, source config.CredentialSource) tea.Cmd {
	sp.token = strings.TrimSpace(token)
	sp.source = source
	sp.revalidate()
	return sp.credentialCmd()
}

func (sp *SettingsPanel) revalidate() {
	sp.tokenValid, sp.keyRequired = false, true
	if sp.check != nil {
		sp.tokenValid, sp.keyRequired = sp.check(sp.provider, sp.token)
	}
}

func (sp *SettingsPanel) credentialCmd() tea.Cmd {
	msg := CredentialChangedMsg{Provider: sp.provider, Token: sp.token, Valid: sp.tokenValid}
	return func() tea.Msg { return msg }
}

// CredentialValid reports whether the current credential passed the check.
func (sp *SettingsPanel) CredentialValid() bool {
	return sp.tokenValid
}

// Token returns the current credential.
func (sp *SettingsPanel) Token() string {
	return sp.token
}

// Provider returns the selected provider.
func (sp *SettingsPanel) Provider() string {
	return sp.provider
}

// Preset returns the selected model preset.
func (sp *SettingsPanel) Preset() config.ModelPreset {
	return sp.preset
}

// Sampling returns the current slider values.
func (sp *SettingsPanel) Sampling() config.SamplingConfig {
	return sp.sampling
}

// SetPreset selects the preset named name for the current provider.
func (sp *SettingsPanel) SetPreset(name string) tea.Cmd {
	for _, p := range sp.cfg.PresetsFor(sp.provider) {
		if p.Name == name {
			sp.preset = p
			return func() tea.Msg { return PresetChangedMsg{Preset: p} }
		}
	}
	return nil
}

// SetProvider switches provider, selects its first preset and re-runs the
// credential check against token.
func (sp *SettingsPanel) SetProvider(provider, token string, source config.CredentialSource) tea.Cmd {
	presets := sp.cfg.PresetsFor(provider)
	if len(presets) == 0 {
		return nil
	}
	sp.provider = provider
	sp.cfg.LLMProvider = provider
	sp.preset = presets[0]
	preset := sp.preset
	return tea.Batch(
		func() tea.Msg { return ProviderChangedMsg{Provider: provider} },
		func() tea.Msg { return PresetChangedMsg{Preset: preset} },
		sp.SetCredential(token, source),
	)
}

// Focus gives the sidebar keyboard focus.
func (sp *SettingsPanel) Focus() {
	sp.focused = true
}

// Blur removes keyboard focus and abandons any edit in progress.
func (sp *SettingsPanel) Blur() {
	sp.focused = false
	sp.stopEditing()
}

// Focused reports whether the sidebar has keyboard focus.
func (sp *SettingsPanel) Focused() bool {
	return sp.focused
}

// IsEditing reports whether the token field is being edited.
func (sp *SettingsPanel) IsEditing() bool {
	return sp.editing
}

// SetSize sets the panel dimensions.
func (sp *SettingsPanel) SetSize(width, height int) {
	sp.width = width
	sp.height = height
	sp.input.SetWidth(sp.contentWidth())
}

// Update handles keyboard input for the sidebar.
func (sp *SettingsPanel) Update(msg tea.KeyPressMsg) tea.Cmd {
	if sp.editing {
		return sp.handleEditMode(msg)
	}

	field := sp.fields[sp.selected]
	switch msg.String() {
	case "up", "k":
		if sp.selected > 0 {
			sp.selected--
		}
		return nil

	case "down", "j":
		if sp.selected < len(sp.fields)-1 {
			sp.selected++
		}
		return nil

	case "left", "h":
		return sp.nudge(field.Key, -1)
	case "right", "l":
		return sp.nudge(field.Key, 1)
	case "shift+left", "H":
		return sp.nudge(field.Key, -10)
	case "shift+right", "L":
		return sp.nudge(field.Key, 10)

	case "enter", "space":
		switch field.Key {
		case fieldToken:
			if sp.source == config.SourceSecretStore || !sp.keyRequired {
				return nil
			}
			sp.editing = true
			sp.input.SetValue(sp.token)
			sp.input.CursorEnd()
			return sp.input.Focus()
		case FieldProvider:
			options := config.SupportedProviders()
			current := sp.provider
			return func() tea.Msg {
				return picker.OpenOptionPickerMsg{
					Title:    "LLM Provider",
					FieldKey: FieldProvider,
					Options:  options,
					Current:  current,
				}
			}
		case FieldPreset:
			var options []string
			for _, p := range sp.cfg.PresetsFor(sp.provider) {
				options = append(options, p.Name)
			}
			current := sp.preset.Name
			return func() tea.Msg {
				return picker.OpenOptionPickerMsg{
					Title:    "Choose a model",
					FieldKey: FieldPreset,
					Options:  options,
					Current:  current,
				}
			}
		case fieldClear:
			return func() tea.Msg { return ClearHistoryMsg{} }
		}
	}

	return nil
}

// handleEditMode handles input while the token field is being edited.
func (sp *SettingsPanel) handleEditMode(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		value := sp.input.Value()
		sp.stopEditing()
		return sp.SetCredential(value, config.SourceInteractive)

	case "esc":
		sp.stopEditing()
		return nil
	}

	var cmd tea.Cmd
	sp.input, cmd = sp.input.Update(msg)
	return cmd
}

// HandlePaste routes pasted text into the token field while editing.
func (sp *SettingsPanel) HandlePaste(content string) {
	if !sp.editing {
		return
	}
	content = strings.TrimSpace(strings.ReplaceAll(content, "\n", ""))
	sp.input.SetValue(sp.input.Value() + content)
	sp.input.CursorEnd()
}

func (sp *SettingsPanel) stopEditing() {
	sp.editing = false
	sp.input.Blur()
	sp.input.Reset()
}

// nudge moves a slider by steps increments, clamped to its range.
func (sp *SettingsPanel) nudge(key string, steps int) tea.Cmd {
	s, ok := sliders[key]
	if !ok {
		return nil
	}

	value := sp.sliderValue(key) + float64(steps)*s.step
	value = math.Round(value/s.step) * s.step
	value = math.Max(s.min, math.Min(s.max, value))

	switch key {
	case fieldTemperature:
		sp.sampling.Temperature = roundTo(value, 2)
	case fieldTopP:
		sp.sampling.TopP = roundTo(value, 2)
	case fieldMaxLength:
		sp.sampling.MaxLength = int(value)
	}

	sampling := sp.sampling
	return func() tea.Msg { return SamplingChangedMsg{Sampling: sampling} }
}

func (sp *SettingsPanel) sliderValue(key string) float64 {
	switch key {
	case fieldTemperature:
		return sp.sampling.Temperature
	case fieldTopP:
		return sp.sampling.TopP
	case fieldMaxLength:
		return float64(sp.sampling.MaxLength)
	}
	return 0
}

func roundTo(v float64, places int) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	return f
}

// View renders the sidebar.
func (sp *SettingsPanel) View() string {
	width := sp.contentWidth()

	labelStyle := styles.LabelStyle.Width(width)
	valueStyle := styles.ValueStyle
	selectedStyle := styles.SelectedStyle
	footerStyle := styles.FooterStyle

	var lines []string
	lines = append(lines, styles.HeaderTitleStyle.Render(utils.TruncateToWidth("🦙💬 Llama 2 Chatbot", width)), "")

	for i, field := range sp.fields {
		active := sp.focused && i == sp.selected
		if field.Type == "action" {
			label := utils.PadPlain("[ "+field.Label+" ]", width)
			if active {
				lines = append(lines, "", selectedStyle.Render(label))
			} else {
				lines = append(lines, "", valueStyle.Render(label))
			}
			continue
		}

		label := field.Label
		if field.Key == fieldToken {
			label = sp.tokenLabel()
		}
		if field.Key == FieldPreset {
			lines = append(lines, "", styles.TitleStyle.Render(utils.TruncateToWidth("Models and parameters", width)))
		}
		if active {
			lines = append(lines, selectedStyle.Render(utils.PadPlain(utils.TruncateToWidth(label, width), width)))
		} else {
			lines = append(lines, labelStyle.Render(utils.TruncateToWidth(label, width)))
		}

		lines = append(lines, sp.renderValue(field, width)...)
	}

	lines = append(lines, "")
	for _, hint := range sp.hints() {
		lines = append(lines, footerStyle.Render(utils.TruncateToWidth(hint, width)))
	}

	if sp.height > 2 {
		lines = utils.FitHeight(lines, sp.height-2)
	}

	box := styles.PanelBoxMutedStyle
	if sp.focused {
		box = styles.PanelBoxStyle
	}
	content := strings.Join(lines, "\n")
	boxWidth := sp.width
	if boxWidth < 1 {
		boxWidth = 1
	}
	style := box.Width(boxWidth).Padding(0, 1)
	if sp.height > 0 {
		style = style.Height(sp.height)
	}
	return style.Render(content)
}

func (sp *SettingsPanel) renderValue(field SettingField, width int) []string {
	switch field.Key {
	case fieldToken:
		return sp.renderToken(width)
	case FieldProvider:
		return []string{styles.ValueStyle.Render(utils.TruncateToWidth("  "+sp.provider, width))}
	case FieldPreset:
		name := sp.preset.Name
		if name == "" {
			name = "(none)"
		}
		return []string{styles.ValueStyle.Render(utils.TruncateToWidth("  "+name, width))}
	}
	if s, ok := sliders[field.Key]; ok {
		value := sp.sliderValue(field.Key)
		return []string{renderSlider(value, s, width)}
	}
	return nil
}

func (sp *SettingsPanel) renderToken(width int) []string {
	var value string
	switch {
	case !sp.keyRequired:
		value = styles.TextMutedStyle.Render("  not required")
	case sp.source == config.SourceSecretStore:
		value = styles.TextMutedStyle.Render("  (secret store)")
	case sp.editing:
		value = styles.EditStyle.Render("▶ ") + sp.input.View()
	case sp.token != "":
		value = styles.ValueStyle.Render("  " + strings.Repeat("•", min(len([]rune(sp.token)), width-2)))
	default:
		value = styles.PlaceholderStyle.Render("  (not set)")
	}

	return append([]string{value}, sp.credentialNotice(width)...)
}

// credentialNotice mirrors the credential state in one short line.
func (sp *SettingsPanel) credentialNotice(width int) []string {
	var text string
	style := styles.SuccessStyle
	switch {
	case !sp.keyRequired:
		return nil
	case sp.source == config.SourceSecretStore && sp.tokenValid:
		text = "✅ API key already provided!"
	case sp.tokenValid:
		text = "👉 Proceed to entering your prompt message!"
	default:
		text = "⚠️ Please enter your credentials!"
		style = styles.WarningStyle
	}

	var out []string
	for _, line := range utils.WrapWords(text, width) {
		out = append(out, style.Render(line))
	}
	return out
}

func (sp *SettingsPanel) tokenLabel() string {
	name := sp.provider
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return "Enter " + name + " API token:"
}

func (sp *SettingsPanel) hints() []string {
	if sp.editing {
		return []string{"Enter: Confirm • Esc: Cancel"}
	}
	if !sp.focused {
		return []string{"Tab: Focus sidebar"}
	}
	field := sp.fields[sp.selected]
	switch field.Type {
	case "slider":
		return []string{"←→ Adjust • Shift ×10", "↑↓ Navigate • Tab: Chat"}
	case "choice":
		return []string{"Enter: Pick", "↑↓ Navigate • Tab: Chat"}
	case "secret":
		if sp.source == config.SourceSecretStore || !sp.keyRequired {
			return []string{"↑↓ Navigate • Tab: Chat"}
		}
		return []string{"Enter: Edit", "↑↓ Navigate • Tab: Chat"}
	default:
		return []string{"Enter: Run", "↑↓ Navigate • Tab: Chat"}
	}
}

func (sp *SettingsPanel) contentWidth() int {
	width := sp.width - 4
	if width < 1 {
		return 1
	}
	return width
}

// renderSlider draws "━━━●────── 0.10" sized to width.
func renderSlider(value float64, s slider, width int) string {
	text := fmt.Sprintf(s.format, value)
	barWidth := width - len(text) - 3
	if barWidth < 3 {
		return styles.ValueStyle.Render("  " + text)
	}

	pos := 0
	if s.max > s.min {
		pos = int(math.Round((value - s.min) / (s.max - s.min) * float64(barWidth-1)))
	}
	pos = max(0, min(barWidth-1, pos))

	bar := styles.TitleStyle.Render(strings.Repeat("━", pos)+"●") +
		styles.TextMutedStyle.Render(strings.Repeat("─", barWidth-pos-1))
	return "  " + bar + " " + styles.ValueStyle.Render(text)
}
