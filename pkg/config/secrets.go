package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// CredentialSource describes where a provider credential came from.
type CredentialSource string

const (
	SourceNone        CredentialSource = ""
	SourceSecretStore CredentialSource = "secret_store"
	SourceConfig      CredentialSource = "config"
	SourceInteractive CredentialSource = "interactive"
)

// envKeys maps a provider to the environment variable holding its credential.
var envKeys = map[string]string{
	ProviderReplicate:  "REPLICATE_API_TOKEN",
	ProviderOpenAI:     "OPENAI_API_KEY",
	ProviderOpenRouter: "OPENROUTER_API_KEY",
	ProviderGoogle:     "GEMINI_API_KEY",
}

// EnvKey returns the environment variable name for provider's credential.
func EnvKey(provider string) string {
	return envKeys[provider]
}

// LoadSecrets loads KEY=value pairs from the given .env files into the
// process environment without overriding variables that are already set.
// Missing files are ignored.
func LoadSecrets(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// ResolveCredential looks the provider credential up in the secret store
// (environment) first and then in the config file.
func ResolveCredential(cfg Config, provider string, lookup func(string) (string, bool)) (string, CredentialSource) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if name := EnvKey(provider); name != "" {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), SourceSecretStore
		}
	}
	if v := strings.TrimSpace(cfg.APIKey(provider)); v != "" {
		return v, SourceConfig
	}
	return "", SourceNone
}

// ApplyEnvironment overrides non-credential settings from the environment.
func ApplyEnvironment(cfg Config, lookup func(string) (string, bool)) Config {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup("OLLAMA_HOST"); ok && strings.TrimSpace(v) != "" {
		host := strings.TrimSpace(v)
		if !strings.Contains(host, "://") {
			host = "http://" + host
		}
		cfg.Providers.Ollama.Host = host
	}
	if v, ok := lookup("REPLICATE_API_URL"); ok && strings.TrimSpace(v) != "" {
		cfg.Providers.Replicate.APIURL = strings.TrimSpace(v)
	}
	return cfg
}
