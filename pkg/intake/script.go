package intake

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultTransition   = "Thank you for the information. Here are some options for further assistance:"
	defaultFallback     = "I'm sorry, I couldn't generate a response."
	defaultOptionsTitle = "Select an option for further assistance:"
	defaultPreamble     = "You are a helpful assistant. You do not respond as 'User' or pretend to be 'User'. You only respond once as 'Assistant'."
)

// Script is the fixed conversation plan: intake questions asked before free chat,
// follow-up options offered once they are answered, and the canned assistant texts.
type Script struct {
	Questions    []string `yaml:"questions"`
	Options      []string `yaml:"options"`
	Transition   string   `yaml:"transition"`
	Fallback     string   `yaml:"fallback"`
	OptionsTitle string   `yaml:"options_title"`
	Preamble     string   `yaml:"preamble"`
}

// DefaultScript returns the built-in career guidance intake.
func DefaultScript() Script {
	return Script{
		Questions: []string{
			"How may I assist you today?",
			"Please provide your general information like name, city, state, country.",
			"Please provide your academic performance (grade, board, present percentage).",
			"What is your goal, financial position, and which places are you interested in?",
		},
		Options: []string{
			"Would you like a detailed roadmap to achieve your career goals considering your academics, financial status, and study locations?",
			"Do you want personalized career guidance based on your academic performance, financial status, and desired study locations?",
			"Do you need other specific guidance like scholarship opportunities, study programs, or financial planning?",
			"Other",
		},
		Transition:   defaultTransition,
		Fallback:     defaultFallback,
		OptionsTitle: defaultOptionsTitle,
		Preamble:     defaultPreamble,
	}
}

// LoadScript reads a YAML script file. Missing text fields take the defaults,
// missing questions or options do not.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read script: %w", err)
	}

	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return Script{}, fmt.Errorf("parse script: %w", err)
	}

	script = script.withDefaults()
	if err := script.Validate(); err != nil {
		return Script{}, fmt.Errorf("invalid script %s: %w", path, err)
	}
	return script, nil
}

func (s Script) withDefaults() Script {
	if strings.TrimSpace(s.Transition) == "" {
		s.Transition = defaultTransition
	}
	if strings.TrimSpace(s.Fallback) == "" {
		s.Fallback = defaultFallback
	}
	if strings.TrimSpace(s.OptionsTitle) == "" {
		s.OptionsTitle = defaultOptionsTitle
	}
	if strings.TrimSpace(s.Preamble) == "" {
		s.Preamble = defaultPreamble
	}
	return s
}

// Validate checks that the script can drive a session.
func (s Script) Validate() error {
	if len(s.Questions) == 0 {
		return errors.New("at least one question is required")
	}
	for i, q := range s.Questions {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("question %d is empty", i+1)
		}
	}
	for i, o := range s.Options {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("option %d is empty", i+1)
		}
	}
	return nil
}

// HasOption reports whether option is one of the script's follow-up options.
func (s Script) HasOption(option string) bool {
	for _, o := range s.Options {
		if o == option {
			return true
		}
	}
	return false
}
