package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"llama_chat/pkg/ai"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
)

const (
	openAIDefaultAPIURL  = "https://api.openai.com/v1"
	openAIDefaultTimeout = 120
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderOpenAI,
		Name:        "OpenAI",
		Description: "OpenAI chat completions API",
		RequiresKey: true,
		KeyHint:     "OPENAI_API_KEY",
	}, NewOpenAIProvider)
}

// OpenAIProvider sends the assembled prompt to an OpenAI-compatible chat
// completions endpoint as a single user message.
type OpenAIProvider struct {
	name   string
	client openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider from config.
func NewOpenAIProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	providerCfg := cfg.Config.Providers.OpenAI

	apiKey := cfg.ResolveKey()
	if apiKey == "" {
		slog.Debug("openai_provider_missing_key")
		return nil, fmt.Errorf("openai api_key is required")
	}

	apiURL := strings.TrimSpace(providerCfg.APIURL)
	if apiURL == "" {
		apiURL = openAIDefaultAPIURL
	}

	httpClient := &http.Client{Timeout: timeoutFor(cfg, openAIDefaultTimeout)}
	return newOpenAICompatible("openai", apiKey, apiURL, httpClient), nil
}

func newOpenAICompatible(name, apiKey, apiURL string, httpClient *http.Client, extra ...option.RequestOption) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(apiURL),
		option.WithHTTPClient(httpClient),
	}
	opts = append(opts, extra...)

	slog.Debug(name+"_provider_ready", "api_url", apiURL)
	return &OpenAIProvider{
		name:   name,
		client: openai.NewClient(opts...),
	}
}

// Run sends a non-streaming chat completion request.
func (p *OpenAIProvider) Run(ctx context.Context, req ai.PredictionRequest) (string, error) {
	params := buildChatParams(req)

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream sends a streaming chat completion request.
func (p *OpenAIProvider) Stream(ctx context.Context, req ai.PredictionRequest) (ai.ChatStream, error) {
	params := buildChatParams(req)

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("%s stream: %w", p.name, err)
	}
	return &openAIStream{stream: stream}, nil
}

func buildChatParams(req ai.PredictionRequest) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(strings.TrimSpace(req.Model)),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(req.Temperature),
		TopP:        openai.Float(req.TopP),
	}
	if req.MaxLength > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxLength))
	}
	if req.RepetitionPenalty > 0 && req.RepetitionPenalty != 1 {
		// OpenAI has no repetition penalty; frequency penalty is the closest knob.
		params.FrequencyPenalty = openai.Float(req.RepetitionPenalty - 1)
	}
	return params
}

func timeoutFor(cfg ai.ProviderConfig, fallback int) time.Duration {
	seconds := cfg.Config.APITimeoutSeconds
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}

type openAIStream struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
}

func (s *openAIStream) Next() bool {
	return s.stream.Next()
}

func (s *openAIStream) Content() string {
	chunk := s.stream.Current()
	if len(chunk.Choices) == 0 {
		return ""
	}
	return chunk.Choices[0].Delta.Content
}

func (s *openAIStream) Err() error {
	return s.stream.Err()
}

func (s *openAIStream) Close() error {
	return s.stream.Close()
}

// Ensure interface compliance
var _ ai.Provider = (*OpenAIProvider)(nil)
