package intake

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Controller drives question progression, option selection and prompt
// construction. It holds no session state: every transition takes a Session
// and returns the next one.
type Controller struct {
	script Script
	mode   Mode
	newID  func() string
}

// NewController creates a controller for script in the given mode.
func NewController(script Script, mode Mode) *Controller {
	if _, ok := ParseMode(string(mode)); !ok {
		mode = ModeOptions
	}
	return &Controller{
		script: script,
		mode:   mode,
		newID:  uuid.NewString,
	}
}

// Script returns the controller's script.
func (c *Controller) Script() Script {
	return c.script
}

// Mode returns the post-intake behaviour.
func (c *Controller) Mode() Mode {
	return c.mode
}

// Seed returns a fresh session holding only the first scripted question.
func (c *Controller) Seed() Session {
	s := Session{ID: c.newID()}
	s.appendMessage(RoleAssistant, c.script.Questions[0])
	return s
}

// Dispatch applies ev to s. The input session is never modified. On error the
// returned session equals s and no effects are produced.
func (c *Controller) Dispatch(s Session, ev Event) (Session, []Effect, error) {
	next := s.clone()

	var (
		effects []Effect
		err     error
	)
	switch ev := ev.(type) {
	case UserInput:
		effects, err = c.handleUserInput(&next, ev.Text)
	case OptionSelected:
		effects, err = c.handleOptionSelection(&next, ev.Option)
	case ClearHistory:
		effects = c.clearHistory(&next)
	case CredentialChanged:
		next.CredentialOK = ev.Valid
	case InferenceDelta:
		if next.Pending != nil && next.Pending.Seq == ev.Seq {
			next.Pending.Partial += ev.Text
		}
	case InferenceDone:
		if next.Pending != nil && next.Pending.Seq == ev.Seq {
			text := ev.Text
			if text == "" {
				text = next.Pending.Partial
			}
			if strings.TrimSpace(text) == "" {
				text = c.script.Fallback
			}
			next.appendMessage(RoleAssistant, text)
			next.Pending = nil
		}
	case InferenceFailed:
		if next.Pending != nil && next.Pending.Seq == ev.Seq {
			next.appendMessage(RoleAssistant, c.script.Fallback)
			next.Pending = nil
		}
	case InferenceCanceled:
		if next.Pending != nil && next.Pending.Seq == ev.Seq {
			if strings.TrimSpace(next.Pending.Partial) != "" {
				next.appendMessage(RoleAssistant, next.Pending.Partial)
			}
			next.Pending = nil
		}
	default:
		err = fmt.Errorf("unsupported event %T", ev)
	}

	if err != nil {
		return s, nil, err
	}
	return next, effects, nil
}

func (c *Controller) handleUserInput(s *Session, text string) ([]Effect, error) {
	if !s.CredentialOK {
		return nil, ErrInputDisabled
	}
	if s.Pending != nil {
		return nil, ErrBusy
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	s.appendMessage(RoleUser, text)

	if s.QuestionIndex < len(c.script.Questions) {
		s.Answers = append(s.Answers, text)
		s.QuestionIndex++
		if s.QuestionIndex < len(c.script.Questions) {
			s.appendMessage(RoleAssistant, c.script.Questions[s.QuestionIndex])
			return nil, nil
		}

		s.appendMessage(RoleAssistant, c.script.Transition)
		if c.mode != ModeOptions || len(c.script.Options) == 0 {
			return nil, nil
		}
		for _, option := range c.script.Options {
			s.appendMessage(RoleAssistant, option)
		}
		s.ShowOptions = true
		return []Effect{PresentOptions{
			Title:   c.script.OptionsTitle,
			Options: append([]string(nil), c.script.Options...),
		}}, nil
	}

	// The history already holds the new user message; the prompt repeats it
	// after the transcript.
	prompt := AssemblePrompt(c.script.Preamble, s.Messages, text)
	return []Effect{c.startInference(s, prompt)}, nil
}

func (c *Controller) handleOptionSelection(s *Session, option string) ([]Effect, error) {
	if c.mode != ModeOptions || !s.ShowOptions {
		return nil, ErrNoOptions
	}
	if !c.script.HasOption(option) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOption, option)
	}
	if !s.CredentialOK {
		return nil, ErrInputDisabled
	}
	if s.Pending != nil {
		return nil, ErrBusy
	}

	s.appendMessage(RoleUser, option)
	s.ShowOptions = false

	composite := OptionPrompt(c.script.Questions, s.Answers, option)
	prompt := AssemblePrompt(c.script.Preamble, s.Messages, composite)
	return []Effect{c.startInference(s, prompt)}, nil
}

func (c *Controller) clearHistory(s *Session) []Effect {
	var effects []Effect
	if s.Pending != nil {
		effects = append(effects, CancelInference{Seq: s.Pending.Seq})
	}

	credentialOK := s.CredentialOK
	seq := s.seq
	*s = c.Seed()
	s.CredentialOK = credentialOK
	s.seq = seq
	return effects
}

func (c *Controller) startInference(s *Session, prompt string) Effect {
	s.seq++
	s.Pending = &Pending{Seq: s.seq, Prompt: prompt}
	return RunInference{Seq: s.seq, Prompt: prompt}
}
