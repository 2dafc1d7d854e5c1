package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"llama_chat/pkg/config"
)

// ErrInvalidRequest is returned for requests rejected before any network call.
var ErrInvalidRequest = errors.New("invalid prediction request")

// PredictionRequest is a single-prompt completion request.
type PredictionRequest struct {
	Model             string
	Prompt            string
	Temperature       float64
	TopP              float64
	MaxLength         int
	RepetitionPenalty float64
}

// NewPredictionRequest builds a request from a model id, prompt and sampling settings.
func NewPredictionRequest(model, prompt string, sampling config.SamplingConfig) PredictionRequest {
	penalty := sampling.RepetitionPenalty
	if penalty == 0 {
		penalty = 1
	}
	return PredictionRequest{
		Model:             model,
		Prompt:            prompt,
		Temperature:       sampling.Temperature,
		TopP:              sampling.TopP,
		MaxLength:         sampling.MaxLength,
		RepetitionPenalty: penalty,
	}
}

// Validate checks the request against the documented parameter ranges.
func (r PredictionRequest) Validate() error {
	if strings.TrimSpace(r.Model) == "" {
		return fmt.Errorf("%w: model is required", ErrInvalidRequest)
	}
	if r.Prompt == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	sampling := config.SamplingConfig{
		Temperature:       r.Temperature,
		TopP:              r.TopP,
		MaxLength:         r.MaxLength,
		RepetitionPenalty: r.RepetitionPenalty,
	}
	if err := sampling.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// ChatStream exposes a streaming response interface.
type ChatStream interface {
	Next() bool
	Content() string
	Err() error
	Close() error
}

// Provider is the inference client contract: run a prompt against a model and
// return the whole completion or a stream of fragments.
type Provider interface {
	Run(ctx context.Context, req PredictionRequest) (string, error)
	Stream(ctx context.Context, req PredictionRequest) (ChatStream, error)
}
