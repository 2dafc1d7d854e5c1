package intake

// Role identifies who authored a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single transcript entry.
type Message struct {
	Role    Role
	Content string
}

// Mode selects what happens once the intake questions are exhausted.
type Mode string

const (
	// ModeOptions lists the script options and waits for a selection.
	ModeOptions Mode = "options"
	// ModeFreeChat goes straight to model-backed chat.
	ModeFreeChat Mode = "freechat"
)

// ParseMode maps a config or flag value to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeOptions, ModeFreeChat:
		return Mode(s), true
	}
	return "", false
}

// Pending tracks the inference currently in flight. Partial is display-only
// state; the transcript is appended once the inference finishes.
type Pending struct {
	Seq     int
	Prompt  string
	Partial string
}

// Session is the mutable conversation state for one interactive session.
type Session struct {
	ID            string
	Messages      []Message
	QuestionIndex int
	Answers       []string
	ShowOptions   bool
	CredentialOK  bool
	Pending       *Pending

	seq int
}

// IntakeComplete reports whether every scripted question has been answered.
func (s Session) IntakeComplete(script Script) bool {
	return s.QuestionIndex >= len(script.Questions)
}

// Busy reports whether an inference is in flight.
func (s Session) Busy() bool {
	return s.Pending != nil
}

// InputEnabled reports whether the chat input should accept text.
func (s Session) InputEnabled() bool {
	return s.CredentialOK && s.Pending == nil
}

func (s Session) clone() Session {
	out := s
	out.Messages = append([]Message(nil), s.Messages...)
	out.Answers = append([]string(nil), s.Answers...)
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	return out
}

func (s *Session) appendMessage(role Role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}
