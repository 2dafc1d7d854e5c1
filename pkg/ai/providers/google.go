package providers

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"llama_chat/pkg/ai"

	"google.golang.org/genai"
)

const (
	googleDefaultTimeout = 120
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderGoogle,
		Name:        "Google",
		Description: "Gemini models through the Google AI API",
		RequiresKey: true,
		KeyHint:     "GEMINI_API_KEY",
	}, NewGoogleProvider)
}

type googleModelsClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

var newGoogleClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
	return genai.NewClient(ctx, cfg)
}

// GoogleProvider implements the Provider interface using the native Google AI SDK.
type GoogleProvider struct {
	models         googleModelsClient
	defaultTimeout time.Duration
}

// NewGoogleProvider creates a new Google provider from config.
func NewGoogleProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	apiKey := cfg.ResolveKey()
	if apiKey == "" {
		slog.Debug("google_provider_missing_key")
		return nil, fmt.Errorf("google api_key is required")
	}

	timeout := timeoutFor(cfg, googleDefaultTimeout)

	client, err := newGoogleClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create google client: %w", err)
	}

	slog.Debug("google_provider_ready", "timeout_seconds", int(timeout.Seconds()))
	return &GoogleProvider{
		models:         client.Models,
		defaultTimeout: timeout,
	}, nil
}

// Run sends a non-streaming generate request.
func (p *GoogleProvider) Run(ctx context.Context, req ai.PredictionRequest) (string, error) {
	model, contents, cfg := buildGoogleRequest(req)

	callCtx, cancel := p.withTimeout(ctx)
	defer cancel()

	resp, err := p.models.GenerateContent(callCtx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("google generate: %w", err)
	}
	return extractVisibleText(resp), nil
}

// Stream sends a streaming generate request.
func (p *GoogleProvider) Stream(ctx context.Context, req ai.PredictionRequest) (ai.ChatStream, error) {
	model, contents, cfg := buildGoogleRequest(req)

	callCtx, cancel := p.withTimeout(ctx)
	stream := p.models.GenerateContentStream(callCtx, model, contents, cfg)
	return newGoogleStream(stream, cancel), nil
}

func buildGoogleRequest(req ai.PredictionRequest) (string, []*genai.Content, *genai.GenerateContentConfig) {
	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: req.Prompt}},
		},
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
		TopP:        genai.Ptr(float32(req.TopP)),
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(0)),
		},
	}
	if req.MaxLength > 0 {
		config.MaxOutputTokens = int32(req.MaxLength)
	}

	return strings.TrimSpace(req.Model), contents, config
}

func (p *GoogleProvider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline || p.defaultTimeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, p.defaultTimeout)
}

type googleStreamEvent struct {
	delta string
	err   error
	done  bool
}

type googleStream struct {
	events  chan googleStreamEvent
	current string
	output  string
	err     error
	done    bool
	cancel  context.CancelFunc
}

func newGoogleStream(stream iter.Seq2[*genai.GenerateContentResponse, error], cancel context.CancelFunc) *googleStream {
	s := &googleStream{
		events: make(chan googleStreamEvent, 32),
		cancel: cancel,
	}
	go func() {
		defer close(s.events)
		for resp, err := range stream {
			if err != nil {
				s.events <- googleStreamEvent{err: err}
				return
			}
			fullText := extractVisibleText(resp)
			if fullText == "" {
				continue
			}

			delta := fullText
			if strings.HasPrefix(fullText, s.output) {
				delta = fullText[len(s.output):]
				s.output = fullText
			} else {
				s.output += delta
			}

			if delta != "" {
				s.events <- googleStreamEvent{delta: delta}
			}
		}
		s.events <- googleStreamEvent{done: true}
	}()
	return s
}

func (s *googleStream) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	for ev := range s.events {
		if ev.err != nil {
			s.err = ev.err
			s.done = true
			return false
		}
		if ev.done {
			s.done = true
			return false
		}
		if ev.delta == "" {
			continue
		}
		s.current = ev.delta
		return true
	}

	s.done = true
	return false
}

func (s *googleStream) Content() string {
	return s.current
}

func (s *googleStream) Err() error {
	return s.err
}

func (s *googleStream) Close() error {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.done {
		return nil
	}
	// Drain remaining events to allow producer goroutine to finish.
	for range s.events {
	}
	s.done = true
	return nil
}

// Ensure interface compliance
var _ ai.Provider = (*GoogleProvider)(nil)

func extractVisibleText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
