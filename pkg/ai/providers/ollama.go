package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"llama_chat/pkg/ai"
)

const ollamaDefaultHost = "http://localhost:11434"

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderOllama,
		Name:        "Ollama",
		Description: "Local Llama models served by Ollama",
		RequiresKey: false,
	}, NewOllamaProvider)
}

// OllamaProvider sends raw prompts to a local Ollama server.
type OllamaProvider struct {
	host       string
	httpClient *http.Client
}

// NewOllamaProvider creates a new Ollama provider from config.
func NewOllamaProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	return newOllamaProviderWithHTTPClient(cfg, &http.Client{}), nil
}

func newOllamaProviderWithHTTPClient(cfg ai.ProviderConfig, httpClient *http.Client) *OllamaProvider {
	host := strings.TrimRight(strings.TrimSpace(cfg.Config.Providers.Ollama.Host), "/")
	if host == "" {
		host = ollamaDefaultHost
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	slog.Debug("ollama_provider_ready", "host", host)
	return &OllamaProvider{host: host, httpClient: httpClient}
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Raw     bool          `json:"raw"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p"`
	NumPredict    int     `json:"num_predict,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// Run sends a non-streaming generate request.
func (p *OllamaProvider) Run(ctx context.Context, req ai.PredictionRequest) (string, error) {
	resp, err := p.generate(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ollama generate: decode response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama generate: %s", out.Error)
	}
	return out.Response, nil
}

// Stream sends a streaming generate request; the server answers with one JSON
// object per line.
func (p *OllamaProvider) Stream(ctx context.Context, req ai.PredictionRequest) (ai.ChatStream, error) {
	resp, err := p.generate(ctx, req, true)
	if err != nil {
		return nil, err
	}
	return &ollamaStream{body: resp.Body, scanner: bufio.NewScanner(resp.Body)}, nil
}

func (p *OllamaProvider) generate(ctx context.Context, req ai.PredictionRequest, stream bool) (*http.Response, error) {
	payload, err := json.Marshal(ollamaGenerateRequest{
		Model:  strings.TrimSpace(req.Model),
		Prompt: req.Prompt,
		Raw:    true,
		Stream: stream,
		Options: ollamaOptions{
			Temperature:   req.Temperature,
			TopP:          req.TopP,
			NumPredict:    req.MaxLength,
			RepeatPenalty: req.RepetitionPenalty,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama generate: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama generate: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

type ollamaStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	current string
	err     error
	done    bool
}

func (s *ollamaStream) Next() bool {
	if s.done || s.err != nil {
		return false
	}
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ollamaGenerateResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			s.err = fmt.Errorf("ollama stream: decode chunk: %w", err)
			return false
		}
		if chunk.Error != "" {
			s.err = errors.New("ollama stream: " + chunk.Error)
			return false
		}
		if chunk.Done {
			s.done = true
			s.current = chunk.Response
			return chunk.Response != ""
		}
		s.current = chunk.Response
		return true
	}
	s.err = s.scanner.Err()
	s.done = true
	return false
}

func (s *ollamaStream) Content() string {
	return s.current
}

func (s *ollamaStream) Err() error {
	return s.err
}

func (s *ollamaStream) Close() error {
	return s.body.Close()
}

// Ensure interface compliance
var _ ai.Provider = (*OllamaProvider)(nil)
