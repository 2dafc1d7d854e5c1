package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"llama_chat/pkg/ai"
	_ "llama_chat/pkg/ai/providers"
	"llama_chat/pkg/commands"
	"llama_chat/pkg/config"
	"llama_chat/pkg/console"
	"llama_chat/pkg/intake"
	"llama_chat/pkg/logging"
	"llama_chat/pkg/ui"
	"llama_chat/pkg/version"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// rootOptions holds the command-line flags.
type rootOptions struct {
	configPath string
	scriptPath string
	mode       string
	provider   string
	plain      bool
}

// settings is everything resolved before the conversation starts.
type settings struct {
	cfg    config.Config
	script intake.Script
	mode   intake.Mode
	token  string
	source config.CredentialSource
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   version.Name,
		Short: "Llama 2 intake chatbot",
		Long: `llama_chat asks a short series of intake questions and then either offers
a list of assistance options or continues as a free chat backed by a
Llama 2 model hosted on Replicate.

The Replicate token is read from REPLICATE_API_TOKEN (a .env file in the
working directory is loaded first) or from the config file. When neither
holds a valid token you are asked for one.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.llama_chat/config.json)")
	flags.StringVar(&opts.scriptPath, "script", "", "YAML intake script overriding the built-in questions")
	flags.StringVar(&opts.mode, "mode", "", "post-intake behaviour: options or freechat")
	flags.StringVar(&opts.provider, "provider", "", "inference provider: "+strings.Join(config.SupportedProviders(), ", "))
	flags.BoolVar(&opts.plain, "plain", false, "use line-mode I/O instead of the full-screen interface")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

// loadSettings merges secrets, the config file, the environment and flags.
func loadSettings(opts *rootOptions, lookup func(string) (string, bool)) (settings, error) {
	if err := config.LoadSecrets(); err != nil {
		return settings{}, fmt.Errorf("load .env: %w", err)
	}

	path := opts.configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return settings{}, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg = config.ApplyEnvironment(cfg, lookup)

	if opts.provider != "" {
		cfg.LLMProvider = opts.provider
	}
	if opts.mode != "" {
		cfg.Mode = opts.mode
	}
	if opts.scriptPath != "" {
		cfg.ScriptPath = opts.scriptPath
	}
	if err := cfg.Validate(); err != nil {
		return settings{}, fmt.Errorf("invalid configuration: %w", err)
	}

	mode, ok := intake.ParseMode(cfg.Mode)
	if !ok {
		return settings{}, fmt.Errorf("unknown mode %q (want %s or %s)", cfg.Mode, intake.ModeOptions, intake.ModeFreeChat)
	}

	script := intake.DefaultScript()
	if cfg.ScriptPath != "" {
		script, err = intake.LoadScript(cfg.ScriptPath)
		if err != nil {
			return settings{}, err
		}
	}

	token, source := config.ResolveCredential(cfg, cfg.LLMProvider, lookup)
	return settings{cfg: cfg, script: script, mode: mode, token: token, source: source}, nil
}

func run(ctx context.Context, opts *rootOptions, in io.Reader, out io.Writer) error {
	s, err := loadSettings(opts, os.LookupEnv)
	if err != nil {
		return err
	}

	if _, err := logging.Init(s.cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	slog.Info("startup",
		"version", version.Summary(),
		"provider", s.cfg.LLMProvider,
		"mode", s.mode,
		"questions", len(s.script.Questions),
		"credential_source", s.source,
		"credential_valid", ai.ValidateCredential(ai.ProviderType(s.cfg.LLMProvider), s.token),
	)

	controller := intake.NewController(s.script, s.mode)
	runner := commands.NewInferenceRunner(s.cfg)

	if useConsole(opts, in) {
		return runConsole(ctx, s, controller, runner, in, out)
	}

	model := ui.NewModel(ui.Options{
		Context:    ctx,
		Config:     s.cfg,
		Controller: controller,
		Runner:     runner,
		Token:      s.token,
		Source:     s.source,
	})
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrInterrupted) {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("run interface: %w", err)
	}
	slog.Info("shutdown")
	return nil
}

func runConsole(ctx context.Context, s settings, controller *intake.Controller, runner commands.Starter, in io.Reader, out io.Writer) error {
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	c := console.New(console.Options{
		In:         in,
		Out:        out,
		Config:     s.cfg,
		Controller: controller,
		Runner:     runner,
		Token:      s.token,
		Source:     s.source,
		Interrupts: interrupts,
	})
	err := c.Run(ctx)
	slog.Info("shutdown", "error", err)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// useConsole reports whether to fall back to line mode: on request, or when
// input is not an interactive terminal.
func useConsole(opts *rootOptions, in io.Reader) bool {
	if opts.plain {
		return true
	}
	f, ok := in.(*os.File)
	return !ok || !term.IsTerminal(int(f.Fd()))
}
