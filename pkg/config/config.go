package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const (
	ProviderReplicate  = "replicate"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGoogle     = "google"
	ProviderOllama     = "ollama"
)

// Sampling ranges accepted by the inference client and offered by the sliders.
const (
	TemperatureMin  = 0.01
	TemperatureMax  = 5.0
	TemperatureStep = 0.01
	TopPMin         = 0.01
	TopPMax         = 1.0
	TopPStep        = 0.01
	MaxLengthMin    = 32
	MaxLengthMax    = 4096
	MaxLengthStep   = 32
)

// Config represents the application configuration
type Config struct {
	LLMProvider       string          `json:"llm_provider"`
	Providers         ProvidersConfig `json:"providers"`
	Presets           []ModelPreset   `json:"presets"`
	DefaultPreset     string          `json:"default_preset"`
	Sampling          SamplingConfig  `json:"sampling"`
	Mode              string          `json:"mode"`
	ScriptPath        string          `json:"script_path"`
	Stream            bool            `json:"stream"`
	APITimeoutSeconds int             `json:"api_timeout_seconds"`
	LogLevel          string          `json:"log_level"`
	LogFormat         string          `json:"log_format"`
	LogFile           string          `json:"log_file"`
}

// ProvidersConfig holds per-provider connection settings.
type ProvidersConfig struct {
	Replicate  ReplicateConfig `json:"replicate"`
	OpenAI     APIConfig       `json:"openai"`
	OpenRouter APIConfig       `json:"openrouter"`
	Google     APIConfig       `json:"google"`
	Ollama     OllamaConfig    `json:"ollama"`
}

// ReplicateConfig holds the Replicate API configuration
type ReplicateConfig struct {
	APIToken string `json:"api_token"`
	APIURL   string `json:"api_url"`
}

// APIConfig is a key + base URL pair used by the hosted chat providers.
type APIConfig struct {
	APIKey string `json:"api_key"`
	APIURL string `json:"api_url,omitempty"`
}

// OllamaConfig points at a local Ollama server.
type OllamaConfig struct {
	Host string `json:"host"`
}

// ModelPreset is a named model choice offered in the sidebar.
type ModelPreset struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// SamplingConfig holds the default generation parameters.
type SamplingConfig struct {
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	MaxLength         int     `json:"max_length"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
}

// Default returns a configuration with default values
func Default() Config {
	return Config{
		LLMProvider: ProviderReplicate,
		Providers: ProvidersConfig{
			Replicate:  ReplicateConfig{APIURL: "https://api.replicate.com/v1"},
			OpenAI:     APIConfig{APIURL: "https://api.openai.com/v1"},
			OpenRouter: APIConfig{APIURL: "https://openrouter.ai/api/v1"},
			Ollama:     OllamaConfig{Host: "http://localhost:11434"},
		},
		Presets:       DefaultPresets(),
		DefaultPreset: "Llama2-7B",
		Sampling: SamplingConfig{
			Temperature:       0.1,
			TopP:              0.9,
			MaxLength:         2048,
			RepetitionPenalty: 1,
		},
		Mode:              "options",
		Stream:            true,
		APITimeoutSeconds: 120,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// DefaultPresets returns the built-in small/large model pair for every provider.
func DefaultPresets() []ModelPreset {
	return []ModelPreset{
		{Name: "Llama2-7B", Provider: ProviderReplicate, Model: "a16z-infra/llama7b-v2-chat:4f0a4744c7295c024a1de15e1a63c880d3da035fa1f49bfd344fe076074c8eea"},
		{Name: "Llama2-13B", Provider: ProviderReplicate, Model: "a16z-infra/llama13b-v2-chat:df7690f1994d94e96ad9d568eac121aecf50684a0b0963b25a41cc40061269e5"},
		{Name: "GPT-4o mini", Provider: ProviderOpenAI, Model: "gpt-4o-mini"},
		{Name: "GPT-4o", Provider: ProviderOpenAI, Model: "gpt-4o"},
		{Name: "Llama2-13B", Provider: ProviderOpenRouter, Model: "meta-llama/llama-2-13b-chat"},
		{Name: "Llama3-70B", Provider: ProviderOpenRouter, Model: "meta-llama/llama-3-70b-instruct"},
		{Name: "Gemini Flash", Provider: ProviderGoogle, Model: "gemini-2.0-flash"},
		{Name: "Gemini Pro", Provider: ProviderGoogle, Model: "gemini-2.5-pro"},
		{Name: "Llama2-7B", Provider: ProviderOllama, Model: "llama2:7b"},
		{Name: "Llama2-13B", Provider: ProviderOllama, Model: "llama2:13b"},
	}
}

// SupportedProviders lists the llm_provider values the app understands.
func SupportedProviders() []string {
	return []string{ProviderReplicate, ProviderOpenAI, ProviderOpenRouter, ProviderGoogle, ProviderOllama}
}

// Load loads configuration from the specified path
// If the file doesn't exist, creates one with default values
func Load(configPath string) (Config, error) {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return Config{}, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if err := Save(configPath, cfg); err != nil {
				return Config{}, fmt.Errorf("failed to create default config: %w", err)
			}
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	// Fields absent from the file keep their defaults.
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.Presets) == 0 {
		cfg.Presets = DefaultPresets()
	}

	return cfg, nil
}

// Save saves the configuration to the specified path
func Save(configPath string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid. Credentials are not required
// here: a missing token is entered interactively.
func (c Config) Validate() error {
	if !isSupportedProvider(c.LLMProvider) {
		return fmt.Errorf("unsupported LLM provider: %s", c.LLMProvider)
	}

	if len(c.PresetsFor(c.LLMProvider)) == 0 {
		return fmt.Errorf("no model presets configured for provider %s", c.LLMProvider)
	}
	for _, p := range c.Presets {
		if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Model) == "" {
			return fmt.Errorf("preset name and model are required, got: %+v", p)
		}
	}

	if err := c.Sampling.Validate(); err != nil {
		return err
	}

	switch c.Mode {
	case "options", "freechat":
	default:
		return fmt.Errorf("mode must be 'options' or 'freechat', got: %q", c.Mode)
	}

	if c.APITimeoutSeconds <= 0 {
		return fmt.Errorf("api_timeout_seconds must be positive, got: %d", c.APITimeoutSeconds)
	}

	for name, raw := range map[string]string{
		"providers.replicate.api_url":  c.Providers.Replicate.APIURL,
		"providers.openai.api_url":     c.Providers.OpenAI.APIURL,
		"providers.openrouter.api_url": c.Providers.OpenRouter.APIURL,
		"providers.ollama.host":        c.Providers.Ollama.Host,
	} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if err := validateURL(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}

	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "", "json", "text":
	default:
		return fmt.Errorf("invalid log_format: %s", c.LogFormat)
	}

	return nil
}

// Validate checks the sampling parameters against the slider ranges.
func (s SamplingConfig) Validate() error {
	if s.Temperature < TemperatureMin || s.Temperature > TemperatureMax {
		return fmt.Errorf("temperature must be between %.2f and %.1f, got: %f", TemperatureMin, TemperatureMax, s.Temperature)
	}
	if s.TopP < TopPMin || s.TopP > TopPMax {
		return fmt.Errorf("top_p must be between %.2f and %.1f, got: %f", TopPMin, TopPMax, s.TopP)
	}
	if s.MaxLength < MaxLengthMin || s.MaxLength > MaxLengthMax {
		return fmt.Errorf("max_length must be between %d and %d, got: %d", MaxLengthMin, MaxLengthMax, s.MaxLength)
	}
	if s.RepetitionPenalty <= 0 {
		return fmt.Errorf("repetition_penalty must be positive, got: %f", s.RepetitionPenalty)
	}
	return nil
}

// PresetsFor returns the presets belonging to provider, in config order.
func (c Config) PresetsFor(provider string) []ModelPreset {
	var out []ModelPreset
	for _, p := range c.Presets {
		if p.Provider == provider {
			out = append(out, p)
		}
	}
	return out
}

// ActivePreset returns the default preset for the configured provider, falling
// back to the provider's first preset.
func (c Config) ActivePreset() (ModelPreset, bool) {
	presets := c.PresetsFor(c.LLMProvider)
	if len(presets) == 0 {
		return ModelPreset{}, false
	}
	for _, p := range presets {
		if p.Name == c.DefaultPreset {
			return p, true
		}
	}
	return presets[0], true
}

// APIKey returns the key configured in the file for provider.
func (c Config) APIKey(provider string) string {
	switch provider {
	case ProviderReplicate:
		return c.Providers.Replicate.APIToken
	case ProviderOpenAI:
		return c.Providers.OpenAI.APIKey
	case ProviderOpenRouter:
		return c.Providers.OpenRouter.APIKey
	case ProviderGoogle:
		return c.Providers.Google.APIKey
	}
	return ""
}

// WithAPIKey returns a copy of c with provider's key set to key.
func (c Config) WithAPIKey(provider, key string) Config {
	switch provider {
	case ProviderReplicate:
		c.Providers.Replicate.APIToken = key
	case ProviderOpenAI:
		c.Providers.OpenAI.APIKey = key
	case ProviderOpenRouter:
		c.Providers.OpenRouter.APIKey = key
	case ProviderGoogle:
		c.Providers.Google.APIKey = key
	}
	return c
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".llama_chat/config.json"
	}
	return filepath.Join(homeDir, ".llama_chat", "config.json")
}

func isSupportedProvider(p string) bool {
	for _, s := range SupportedProviders() {
		if p == s {
			return true
		}
	}
	return false
}

func validateURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("url must include scheme and host, got: %q", raw)
	}
	return nil
}
