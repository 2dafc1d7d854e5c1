package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"llama_chat/pkg/ai"

	"github.com/openai/openai-go/v3/packages/ssestream"
)

const (
	replicateDefaultAPIURL  = "https://api.replicate.com/v1"
	replicateDefaultTimeout = 120
	replicateTokenPrefix    = "r8_"
	replicateTokenLength    = 40
	replicatePollInterval   = time.Second
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderReplicate,
		Name:        "Replicate",
		Description: "Llama 2 chat models hosted on Replicate",
		RequiresKey: true,
		KeyHint:     "REPLICATE_API_TOKEN",
		ValidateKey: ValidReplicateToken,
	}, NewReplicateProvider)
}

// ValidReplicateToken reports whether token has the shape of a Replicate API
// token: the "r8_" prefix and exactly 40 characters.
func ValidReplicateToken(token string) bool {
	return strings.HasPrefix(token, replicateTokenPrefix) && len(token) == replicateTokenLength
}

// ReplicateProvider runs predictions against the Replicate HTTP API.
type ReplicateProvider struct {
	apiURL       string
	token        string
	httpClient   *http.Client
	pollInterval time.Duration
}

// NewReplicateProvider creates a new Replicate provider from config.
func NewReplicateProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	return newReplicateProviderWithHTTPClient(cfg, &http.Client{})
}

func newReplicateProviderWithHTTPClient(cfg ai.ProviderConfig, httpClient *http.Client) (*ReplicateProvider, error) {
	token := cfg.ResolveKey()
	if token == "" {
		slog.Debug("replicate_provider_missing_token")
		return nil, fmt.Errorf("replicate api_token is required")
	}
	if !ValidReplicateToken(token) {
		return nil, fmt.Errorf("replicate api_token must start with %q and be %d characters", replicateTokenPrefix, replicateTokenLength)
	}

	apiURL := strings.TrimRight(strings.TrimSpace(cfg.Config.Providers.Replicate.APIURL), "/")
	if apiURL == "" {
		apiURL = replicateDefaultAPIURL
	}

	// Streams are bounded by the caller's context; a client timeout would cut
	// long SSE responses.
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	slog.Debug("replicate_provider_ready", "api_url", apiURL)
	return &ReplicateProvider{
		apiURL:       apiURL,
		token:        token,
		httpClient:   httpClient,
		pollInterval: replicatePollInterval,
	}, nil
}

type replicateInput struct {
	Prompt            string  `json:"prompt"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	MaxLength         int     `json:"max_length"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
}

type replicateCreateRequest struct {
	Version string         `json:"version,omitempty"`
	Input   replicateInput `json:"input"`
	Stream  bool           `json:"stream,omitempty"`
}

type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  json.RawMessage `json:"error"`
	URLs   struct {
		Get    string `json:"get"`
		Cancel string `json:"cancel"`
		Stream string `json:"stream"`
	} `json:"urls"`
}

func (p replicatePrediction) terminal() bool {
	switch p.Status {
	case "succeeded", "failed", "canceled":
		return true
	}
	return false
}

// failure returns the prediction's error, if it ended unsuccessfully.
func (p replicatePrediction) failure() error {
	switch p.Status {
	case "failed":
		return fmt.Errorf("replicate prediction %s failed: %s", p.ID, rawMessageText(p.Error))
	case "canceled":
		return fmt.Errorf("replicate prediction %s canceled", p.ID)
	}
	return nil
}

// outputText joins the prediction output, which is either a string or a list
// of string fragments.
func (p replicatePrediction) outputText() (string, error) {
	if len(p.Output) == 0 || string(p.Output) == "null" {
		return "", nil
	}
	var parts []string
	if err := json.Unmarshal(p.Output, &parts); err == nil {
		return strings.Join(parts, ""), nil
	}
	var text string
	if err := json.Unmarshal(p.Output, &text); err != nil {
		return "", fmt.Errorf("decode replicate output: %w", err)
	}
	return text, nil
}

func rawMessageText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// Run creates a prediction and waits for it to finish.
func (p *ReplicateProvider) Run(ctx context.Context, req ai.PredictionRequest) (string, error) {
	pred, err := p.create(ctx, req, false)
	if err != nil {
		return "", err
	}

	for !pred.terminal() {
		if pred.URLs.Get == "" {
			return "", fmt.Errorf("replicate prediction %s has no poll url", pred.ID)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.pollInterval):
		}
		pred, err = p.get(ctx, pred.URLs.Get)
		if err != nil {
			return "", err
		}
	}

	if err := pred.failure(); err != nil {
		return "", err
	}
	return pred.outputText()
}

// Stream creates a streaming prediction and reads its server-sent events.
func (p *ReplicateProvider) Stream(ctx context.Context, req ai.PredictionRequest) (ai.ChatStream, error) {
	pred, err := p.create(ctx, req, true)
	if err != nil {
		return nil, err
	}
	if pred.URLs.Stream == "" {
		return nil, fmt.Errorf("replicate prediction %s has no stream url", pred.ID)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pred.URLs.Stream, nil)
	if err != nil {
		return nil, fmt.Errorf("build replicate stream request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.token)
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-store")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("replicate stream: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		return nil, statusError("replicate stream", resp)
	}

	slog.Debug("replicate_stream_open", "prediction_id", pred.ID)
	return &replicateStream{decoder: ssestream.NewDecoder(resp)}, nil
}

func (p *ReplicateProvider) create(ctx context.Context, req ai.PredictionRequest, stream bool) (replicatePrediction, error) {
	body := replicateCreateRequest{
		Input: replicateInput{
			Prompt:            req.Prompt,
			Temperature:       req.Temperature,
			TopP:              req.TopP,
			MaxLength:         req.MaxLength,
			RepetitionPenalty: req.RepetitionPenalty,
		},
		Stream: stream,
	}

	endpoint := p.apiURL + "/predictions"
	model, version, hasVersion := strings.Cut(strings.TrimSpace(req.Model), ":")
	if hasVersion {
		if version == "" {
			return replicatePrediction{}, fmt.Errorf("%w: model %q has an empty version", ai.ErrInvalidRequest, req.Model)
		}
		body.Version = version
	} else {
		owner, name, ok := strings.Cut(model, "/")
		if !ok || owner == "" || name == "" {
			return replicatePrediction{}, fmt.Errorf("%w: model %q is not owner/name[:version]", ai.ErrInvalidRequest, req.Model)
		}
		endpoint = fmt.Sprintf("%s/models/%s/%s/predictions", p.apiURL, owner, name)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return replicatePrediction{}, fmt.Errorf("encode replicate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return replicatePrediction{}, fmt.Errorf("build replicate request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.token)
	httpReq.Header.Set("Content-Type", "application/json")
	if !stream {
		httpReq.Header.Set("Prefer", "wait")
	}

	slog.Debug("replicate_prediction_create", "model", model, "stream", stream)
	return p.do(httpReq, "replicate create prediction")
}

func (p *ReplicateProvider) get(ctx context.Context, url string) (replicatePrediction, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return replicatePrediction{}, fmt.Errorf("build replicate poll request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.token)
	return p.do(httpReq, "replicate get prediction")
}

func (p *ReplicateProvider) do(httpReq *http.Request, op string) (replicatePrediction, error) {
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return replicatePrediction{}, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return replicatePrediction{}, statusError(op, resp)
	}

	var pred replicatePrediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return replicatePrediction{}, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return pred, nil
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := strings.TrimSpace(string(body))
	var apiErr struct {
		Detail string `json:"detail"`
		Title  string `json:"title"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Detail != "" {
		detail = apiErr.Detail
	}
	if detail == "" {
		return fmt.Errorf("%s: status %d", op, resp.StatusCode)
	}
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, detail)
}

type replicateStream struct {
	decoder ssestream.Decoder
	current string
	err     error
	done    bool
}

func (s *replicateStream) Next() bool {
	if s.done || s.err != nil || s.decoder == nil {
		return false
	}
	for s.decoder.Next() {
		ev := s.decoder.Event()
		data := strings.TrimSuffix(string(ev.Data), "\n")
		switch ev.Type {
		case "output", "":
			s.current = data
			return true
		case "done":
			s.done = true
			return false
		case "error":
			s.err = errors.New("replicate stream error: " + streamErrorDetail(data))
			return false
		}
	}
	s.err = s.decoder.Err()
	return false
}

func streamErrorDetail(data string) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal([]byte(data), &payload) == nil && payload.Detail != "" {
		return payload.Detail
	}
	return data
}

func (s *replicateStream) Content() string {
	return s.current
}

func (s *replicateStream) Err() error {
	return s.err
}

func (s *replicateStream) Close() error {
	if s.decoder == nil {
		return nil
	}
	return s.decoder.Close()
}

// Ensure interface compliance
var _ ai.Provider = (*ReplicateProvider)(nil)
