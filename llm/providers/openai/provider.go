// Package openai implements the function-calling adapter for the OpenAI
// chat-completions API. The wire shape is handled by the embedded
// openaicompat provider; this wrapper pins the canonical endpoint, a
// default model and the optional Organization header.
package openai

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/absmartly/browser-extension-sub003/llm/providers"
	"github.com/absmartly/browser-extension-sub003/llm/providers/openaicompat"
)

const (
	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "gpt-4o"
)

// Provider is the OpenAI adapter.
type Provider struct {
	*openaicompat.Provider
}

// New creates the OpenAI adapter.
func New(cfg providers.OpenAIConfig, logger *zap.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	// Both base_url and model are populated above, so this cannot fail.
	inner, _ := openaicompat.New(providers.OpenAICompatConfig{
		BaseProviderConfig: cfg.BaseProviderConfig,
		ProviderName:       "openai",
	}, logger)

	if cfg.Organization != "" {
		org := cfg.Organization
		inner.BuildHeaders = func(req *http.Request, apiKey string) {
			providers.BearerTokenHeaders(req, apiKey)
			req.Header.Set("OpenAI-Organization", org)
		}
	}
	return &Provider{Provider: inner}
}
