package providers

import "time"

// BaseProviderConfig is the configuration shared by every adapter. Embedding
// it gives each adapter's Config the APIKey/BaseURL/Model/Timeout quartet
// without redefining them.
type BaseProviderConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// AnthropicConfig configures the keyed REST adapter.
type AnthropicConfig struct {
	BaseProviderConfig `yaml:",inline"`
	AnthropicVersion   string `json:"anthropic_version,omitempty" yaml:"anthropic_version,omitempty"`
}

// OpenAIConfig configures the function-calling adapter.
type OpenAIConfig struct {
	BaseProviderConfig `yaml:",inline"`
	Organization       string `json:"organization,omitempty" yaml:"organization,omitempty"`
}

// GeminiConfig configures the function-declaration adapter.
type GeminiConfig struct {
	BaseProviderConfig `yaml:",inline"`
}

// OpenAICompatConfig configures the generic OpenAI-compatible adapter.
// BaseURL and Model are mandatory; there is no sensible default endpoint
// or model for an arbitrary compatible backend.
type OpenAICompatConfig struct {
	BaseProviderConfig `yaml:",inline"`
	ProviderName       string `json:"provider_name,omitempty" yaml:"provider_name,omitempty"`
	EndpointPath       string `json:"endpoint_path,omitempty" yaml:"endpoint_path,omitempty"`
}

// SubscriptionConfig configures the OAuth subscription bridge adapter.
// OAuthToken replaces the API key; the wire format is Anthropic's.
type SubscriptionConfig struct {
	BaseProviderConfig `yaml:",inline"`
	OAuthToken         string `json:"oauth_token" yaml:"oauth_token"`
}
