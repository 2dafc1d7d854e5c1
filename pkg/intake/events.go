package intake

import "errors"

var (
	ErrInputDisabled = errors.New("input disabled: credential missing or invalid")
	ErrBusy          = errors.New("a response is still being generated")
	ErrEmptyInput    = errors.New("input is empty")
	ErrNoOptions     = errors.New("options are not being offered")
	ErrUnknownOption = errors.New("unknown option")
)

// Event is a user or inference event fed to the Controller.
type Event interface {
	event()
}

// UserInput is free text typed in the chat input.
type UserInput struct{ Text string }

// OptionSelected is a submitted choice from the post-intake option list.
type OptionSelected struct{ Option string }

// ClearHistory resets the session to its seeded state.
type ClearHistory struct{}

// CredentialChanged reports the outcome of the credential check.
type CredentialChanged struct{ Valid bool }

// InferenceDelta carries a streamed fragment for inference Seq.
type InferenceDelta struct {
	Seq  int
	Text string
}

// InferenceDone reports a completed inference. Text, when non-empty, replaces
// whatever was accumulated from deltas.
type InferenceDone struct {
	Seq  int
	Text string
}

// InferenceFailed reports a failed inference.
type InferenceFailed struct {
	Seq int
	Err error
}

// InferenceCanceled reports that the user stopped inference Seq.
type InferenceCanceled struct{ Seq int }

func (UserInput) event()         {}
func (OptionSelected) event()    {}
func (ClearHistory) event()      {}
func (CredentialChanged) event() {}
func (InferenceDelta) event()    {}
func (InferenceDone) event()     {}
func (InferenceFailed) event()   {}
func (InferenceCanceled) event() {}

// Effect is work the UI adapter must perform after a transition.
type Effect interface {
	effect()
}

// RunInference asks the adapter to send Prompt to the model and report back
// with Inference* events tagged with Seq.
type RunInference struct {
	Seq    int
	Prompt string
}

// CancelInference asks the adapter to stop inference Seq.
type CancelInference struct{ Seq int }

// PresentOptions asks the adapter to show the option selection control.
type PresentOptions struct {
	Title   string
	Options []string
}

func (RunInference) effect()    {}
func (CancelInference) effect() {}
func (PresentOptions) effect()  {}
