package providers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"llama_chat/pkg/ai"

	"github.com/openai/openai-go/v3/option"
)

const (
	openRouterDefaultAPIURL = "https://openrouter.ai/api/v1"
	openRouterReferer       = "https://github.com/llama_chat"
	openRouterTitle         = "llama_chat"
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderOpenRouter,
		Name:        "OpenRouter",
		Description: "Hosted Llama and other models through OpenRouter",
		RequiresKey: true,
		KeyHint:     "OPENROUTER_API_KEY",
	}, NewOpenRouterProvider)
}

// NewOpenRouterProvider creates an OpenAI-compatible provider pointed at OpenRouter.
func NewOpenRouterProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	return newOpenRouterProviderWithHTTPClient(cfg, &http.Client{Timeout: timeoutFor(cfg, openAIDefaultTimeout)})
}

func newOpenRouterProviderWithHTTPClient(cfg ai.ProviderConfig, httpClient *http.Client) (*OpenAIProvider, error) {
	apiKey := cfg.ResolveKey()
	if apiKey == "" {
		slog.Debug("openrouter_provider_missing_key")
		return nil, fmt.Errorf("openrouter api_key is required")
	}

	apiURL := strings.TrimSpace(cfg.Config.Providers.OpenRouter.APIURL)
	if apiURL == "" {
		apiURL = openRouterDefaultAPIURL
	}

	return newOpenAICompatible("openrouter", apiKey, apiURL, httpClient,
		option.WithHeader("HTTP-Referer", openRouterReferer),
		option.WithHeader("X-Title", openRouterTitle),
	), nil
}
