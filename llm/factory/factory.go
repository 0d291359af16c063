// Package factory maps a provider kind tag to its concrete adapter. It is
// the only place that knows all five variants; downstream code holds a
// llm.Provider and never inspects the concrete type.
package factory

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/absmartly/browser-extension-sub003/llm"
	"github.com/absmartly/browser-extension-sub003/llm/providers"
	"github.com/absmartly/browser-extension-sub003/llm/providers/anthropic"
	"github.com/absmartly/browser-extension-sub003/llm/providers/gemini"
	"github.com/absmartly/browser-extension-sub003/llm/providers/openai"
	"github.com/absmartly/browser-extension-sub003/llm/providers/openaicompat"
	"github.com/absmartly/browser-extension-sub003/llm/providers/subscription"
)

// ProviderKind selects the backend capability variant.
type ProviderKind string

const (
	KindAnthropic    ProviderKind = "anthropic"           // keyed REST
	KindOpenAI       ProviderKind = "openai"              // function calling
	KindGemini       ProviderKind = "gemini"              // function declarations
	KindOpenAICompat ProviderKind = "openai-compatible"   // custom endpoint, OpenAI shape
	KindSubscription ProviderKind = "claude-subscription" // OAuth bearer bridge
)

// ProviderConfig is the flat configuration accepted by the factory. Extra
// carries provider-specific fields (organization, endpoint_path, ...).
type ProviderConfig struct {
	APIKey     string         `json:"api_key" yaml:"api_key"`
	OAuthToken string         `json:"oauth_token,omitempty" yaml:"oauth_token,omitempty"`
	BaseURL    string         `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model      string         `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout    time.Duration  `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Extra      map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// New creates the adapter for the given kind. A missing credential fails
// here, before any network traffic, so the engine can surface a
// configuration error rather than an opaque 401.
func New(kind ProviderKind, cfg ProviderConfig, logger *zap.Logger) (llm.Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	base := providers.BaseProviderConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}

	switch kind {
	case KindAnthropic:
		if cfg.APIKey == "" {
			return nil, missingCredential(kind)
		}
		ac := providers.AnthropicConfig{BaseProviderConfig: base}
		if v, ok := cfg.Extra["anthropic_version"].(string); ok {
			ac.AnthropicVersion = v
		}
		return anthropic.New(ac, logger), nil

	case KindOpenAI:
		if cfg.APIKey == "" {
			return nil, missingCredential(kind)
		}
		oc := providers.OpenAIConfig{BaseProviderConfig: base}
		if v, ok := cfg.Extra["organization"].(string); ok {
			oc.Organization = v
		}
		return openai.New(oc, logger), nil

	case KindGemini:
		if cfg.APIKey == "" {
			return nil, missingCredential(kind)
		}
		return gemini.New(providers.GeminiConfig{BaseProviderConfig: base}, logger), nil

	case KindOpenAICompat:
		if cfg.APIKey == "" {
			return nil, missingCredential(kind)
		}
		cc := providers.OpenAICompatConfig{BaseProviderConfig: base}
		if v, ok := cfg.Extra["provider_name"].(string); ok {
			cc.ProviderName = v
		}
		if v, ok := cfg.Extra["endpoint_path"].(string); ok {
			cc.EndpointPath = v
		}
		return openaicompat.New(cc, logger)

	case KindSubscription:
		if cfg.OAuthToken == "" {
			return nil, llm.NewError(llm.ErrMissingCredential,
				fmt.Sprintf("provider %q requires an OAuth token", kind))
		}
		sc := providers.SubscriptionConfig{BaseProviderConfig: base, OAuthToken: cfg.OAuthToken}
		return subscription.New(sc, logger), nil

	default:
		return nil, llm.NewError(llm.ErrInvalidRequest, fmt.Sprintf("unknown provider kind %q", kind))
	}
}

func missingCredential(kind ProviderKind) *llm.Error {
	return llm.NewError(llm.ErrMissingCredential,
		fmt.Sprintf("provider %q requires an API key", kind))
}
