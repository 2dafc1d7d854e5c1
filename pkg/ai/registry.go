package ai

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"llama_chat/pkg/config"
)

// ProviderType represents a supported LLM provider.
type ProviderType string

const (
	ProviderReplicate  ProviderType = config.ProviderReplicate
	ProviderOpenAI     ProviderType = config.ProviderOpenAI
	ProviderOpenRouter ProviderType = config.ProviderOpenRouter
	ProviderGoogle     ProviderType = config.ProviderGoogle
	ProviderOllama     ProviderType = config.ProviderOllama
)

// ProviderConfig holds configuration for creating a provider.
type ProviderConfig struct {
	Type   ProviderType
	Config config.Config
	// APIKey overrides the key from Config, e.g. a token entered interactively.
	APIKey string
}

// ProviderFactory is a function that creates a Provider from config.
type ProviderFactory func(cfg ProviderConfig) (Provider, error)

// ProviderInfo describes a registered provider.
type ProviderInfo struct {
	Type        ProviderType
	Name        string
	Description string
	RequiresKey bool
	KeyHint     string
	// ValidateKey performs the provider's local credential check. Nil means
	// any non-empty key is accepted when RequiresKey is set.
	ValidateKey func(key string) bool
}

// Registry manages provider factories and instantiation.
type Registry struct {
	mu        sync.RWMutex
	factories map[ProviderType]ProviderFactory
	info      map[ProviderType]ProviderInfo
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[ProviderType]ProviderFactory),
		info:      make(map[ProviderType]ProviderInfo),
	}
}

// Register adds a provider factory to the registry.
func (r *Registry) Register(info ProviderInfo, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[info.Type] = factory
	r.info[info.Type] = info
}

// GetProvider creates a provider instance by type.
func (r *Registry) GetProvider(cfg ProviderConfig) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[cfg.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}

	return factory(cfg)
}

// ListProviders returns information about all registered providers, sorted by type.
func (r *Registry) ListProviders() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]ProviderInfo, 0, len(r.info))
	for _, info := range r.info {
		providers = append(providers, info)
	}
	sort.Slice(providers, func(i, j int) bool {
		return providers[i].Type < providers[j].Type
	})
	return providers
}

// GetProviderInfo returns information about a specific provider.
func (r *Registry) GetProviderInfo(providerType ProviderType) (ProviderInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.info[providerType]
	return info, ok
}

// IsRegistered checks if a provider type is registered.
func (r *Registry) IsRegistered(providerType ProviderType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[providerType]
	return ok
}

// ValidateCredential runs the provider's local credential check. It is a
// format check only; nothing is sent over the network.
func (r *Registry) ValidateCredential(providerType ProviderType, key string) bool {
	info, ok := r.GetProviderInfo(providerType)
	if !ok {
		return false
	}
	if !info.RequiresKey {
		return true
	}
	if info.ValidateKey != nil {
		return info.ValidateKey(key)
	}
	return strings.TrimSpace(key) != ""
}

// RequiresKey reports whether providerType needs a credential. Unknown
// providers are treated as needing one.
func (r *Registry) RequiresKey(providerType ProviderType) bool {
	info, ok := r.GetProviderInfo(providerType)
	return !ok || info.RequiresKey
}

// DefaultRegistry is the global provider registry.
var DefaultRegistry = NewRegistry()

// RegisterProvider registers a provider with the default registry.
func RegisterProvider(info ProviderInfo, factory ProviderFactory) {
	DefaultRegistry.Register(info, factory)
}

// GetProvider creates a provider from the default registry.
func GetProvider(cfg ProviderConfig) (Provider, error) {
	return DefaultRegistry.GetProvider(cfg)
}

// ListProviders returns all providers from the default registry.
func ListProviders() []ProviderInfo {
	return DefaultRegistry.ListProviders()
}

// ValidateCredential checks key against the default registry.
func ValidateCredential(providerType ProviderType, key string) bool {
	return DefaultRegistry.ValidateCredential(providerType, key)
}

// RequiresKey checks providerType against the default registry.
func RequiresKey(providerType ProviderType) bool {
	return DefaultRegistry.RequiresKey(providerType)
}

// GetProviderFromConfig creates the provider named by cfg.LLMProvider using
// apiKey when it is non-empty.
func GetProviderFromConfig(cfg config.Config, apiKey string) (Provider, error) {
	return GetProvider(ProviderConfig{
		Type:   ProviderType(cfg.LLMProvider),
		Config: cfg,
		APIKey: apiKey,
	})
}

// ResolveKey returns the override key when set, else the key from the config file.
func (c ProviderConfig) ResolveKey() string {
	if strings.TrimSpace(c.APIKey) != "" {
		return strings.TrimSpace(c.APIKey)
	}
	return strings.TrimSpace(c.Config.APIKey(string(c.Type)))
}
