package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"llama_chat/pkg/ai"
	"llama_chat/pkg/config"
	"llama_chat/pkg/intake"
	"llama_chat/pkg/logging"
)

const defaultInferenceTimeout = 120 * time.Second

// Starter launches an inference and returns its event channel. The UI and
// console adapters depend on this rather than on a concrete runner.
type Starter interface {
	Start(
		parent context.Context,
		apiKey string,
		preset config.ModelPreset,
		sampling config.SamplingConfig,
		prompt string,
	) (<-chan ai.StreamEvent, context.CancelFunc, error)
}

// InferenceRunner turns a RunInference effect into a running provider call.
type InferenceRunner struct {
	cfg         config.Config
	newProvider func(ai.ProviderConfig) (ai.Provider, error)
}

// NewInferenceRunner creates a runner that resolves providers from the
// default registry.
func NewInferenceRunner(cfg config.Config) *InferenceRunner {
	return &InferenceRunner{cfg: cfg, newProvider: ai.GetProvider}
}

// Config returns the configuration the runner was built with.
func (r *InferenceRunner) Config() config.Config {
	return r.cfg
}

// Start sends prompt to the preset's model and returns the event channel.
// The returned cancel func must be called once the caller is done with the
// channel; it stops the producer and releases the request timeout.
func (r *InferenceRunner) Start(
	parent context.Context,
	apiKey string,
	preset config.ModelPreset,
	sampling config.SamplingConfig,
	prompt string,
) (<-chan ai.StreamEvent, context.CancelFunc, error) {
	provider, err := r.newProvider(ai.ProviderConfig{
		Type:   ai.ProviderType(preset.Provider),
		Config: r.cfg,
		APIKey: apiKey,
	})
	if err != nil {
		slog.Error("inference_provider_error", "provider", preset.Provider, "error", err)
		return nil, nil, fmt.Errorf("create %s provider: %w", preset.Provider, err)
	}

	req := ai.NewPredictionRequest(preset.Model, prompt, sampling)
	if err := req.Validate(); err != nil {
		slog.Error("inference_request_invalid", "error", err)
		return nil, nil, err
	}

	logger := slog.Default()
	if logger.Enabled(parent, logging.LevelTrace) {
		logger.Log(
			parent,
			logging.LevelTrace,
			"inference_prompt",
			"model", req.Model,
			"prompt_full", req.Prompt,
		)
	}

	slog.Info("inference_start",
		"provider", preset.Provider,
		"preset", preset.Name,
		"model", req.Model,
		"stream", r.cfg.Stream,
		"prompt_len", len(req.Prompt),
		"temperature", req.Temperature,
		"top_p", req.TopP,
		"max_length", req.MaxLength,
	)

	timeout := defaultInferenceTimeout
	if r.cfg.APITimeoutSeconds > 0 {
		timeout = time.Duration(r.cfg.APITimeoutSeconds) * time.Second
	}
	ctx, cancelTimeout := context.WithTimeout(parent, timeout)
	ch, cancelStream := ai.StartStream(ctx, provider, req, r.cfg.Stream)

	return ch, func() {
		cancelStream()
		cancelTimeout()
	}, nil
}

// ToEvent converts a stream event for inference seq into a controller event.
func ToEvent(seq int, ev ai.StreamEvent) intake.Event {
	switch {
	case ev.Err != nil:
		slog.Error("inference_error", "seq", seq, "error", ev.Err)
		return intake.InferenceFailed{Seq: seq, Err: ev.Err}
	case ev.Done:
		slog.Info("inference_done", "seq", seq)
		return intake.InferenceDone{Seq: seq}
	default:
		return intake.InferenceDelta{Seq: seq, Text: ev.Delta}
	}
}
