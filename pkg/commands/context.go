package commands

import (
	"llama_chat/pkg/config"
	"llama_chat/pkg/intake"
)

// Context contains all the context needed for command execution
type Context struct {
	Session    intake.Session
	Controller *intake.Controller
	Config     config.Config
	// Preset is the model preset currently selected in the UI.
	Preset config.ModelPreset
	// Args is the text following the command name.
	Args string
}

// NewContext creates a new command context
func NewContext(sess intake.Session, ctrl *intake.Controller, cfg config.Config, preset config.ModelPreset) *Context {
	return &Context{
		Session:    sess,
		Controller: ctrl,
		Config:     cfg,
		Preset:     preset,
	}
}
