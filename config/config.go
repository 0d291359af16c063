// Package config loads the YAML configuration for the generator: which
// backend to talk to, its credentials and the loop limits. Environment
// variables override the file so deployments can keep secrets out of it.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/absmartly/browser-extension-sub003/llm/factory"
)

// Environment overrides applied after the file is parsed.
const (
	EnvAPIKey     = "ABSMARTLY_API_KEY"
	EnvOAuthToken = "ABSMARTLY_OAUTH_TOKEN"
)

// ProviderSettings selects and configures the backend adapter.
type ProviderSettings struct {
	Kind       string         `yaml:"kind"`
	APIKey     string         `yaml:"api_key,omitempty"`
	OAuthToken string         `yaml:"oauth_token,omitempty"`
	BaseURL    string         `yaml:"base_url,omitempty"`
	Model      string         `yaml:"model,omitempty"`
	Timeout    time.Duration  `yaml:"timeout,omitempty"`
	Extra      map[string]any `yaml:"extra,omitempty"`
}

// EngineSettings tunes the generation loop. Zero values keep the engine
// defaults.
type EngineSettings struct {
	MaxIterations  int           `yaml:"max_iterations,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`

	// RateLimit caps outbound requests per second; 0 disables pacing.
	RateLimit float64 `yaml:"rate_limit,omitempty"`
	RateBurst int     `yaml:"rate_burst,omitempty"`
}

// LoggingSettings configures the zap logger.
type LoggingSettings struct {
	Level       string `yaml:"level,omitempty"` // debug, info, warn, error
	Development bool   `yaml:"development,omitempty"`
}

// MetricsSettings configures the Prometheus collectors.
type MetricsSettings struct {
	Enabled   bool   `yaml:"enabled,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
}

// Config is the full configuration document.
type Config struct {
	Provider ProviderSettings `yaml:"provider"`
	Engine   EngineSettings   `yaml:"engine,omitempty"`
	Logging  LoggingSettings  `yaml:"logging,omitempty"`
	Metrics  MetricsSettings  `yaml:"metrics,omitempty"`
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a YAML configuration document, applies environment
// overrides and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv(EnvOAuthToken); v != "" {
		c.Provider.OAuthToken = v
	}
}

// Validate checks the parts that cannot be defaulted. Credential presence
// is checked later by the provider factory, which knows which credential
// each kind needs.
func (c *Config) Validate() error {
	switch factory.ProviderKind(c.Provider.Kind) {
	case factory.KindAnthropic, factory.KindOpenAI, factory.KindGemini,
		factory.KindOpenAICompat, factory.KindSubscription:
	case "":
		return fmt.Errorf("config: provider.kind is required")
	default:
		return fmt.Errorf("config: unknown provider kind %q", c.Provider.Kind)
	}
	if c.Engine.MaxIterations < 0 {
		return fmt.Errorf("config: engine.max_iterations must not be negative")
	}
	if c.Engine.RateLimit < 0 {
		return fmt.Errorf("config: engine.rate_limit must not be negative")
	}
	return nil
}

// FactoryConfig converts the provider section into the factory's flat form.
func (c *Config) FactoryConfig() factory.ProviderConfig {
	return factory.ProviderConfig{
		APIKey:     c.Provider.APIKey,
		OAuthToken: c.Provider.OAuthToken,
		BaseURL:    c.Provider.BaseURL,
		Model:      c.Provider.Model,
		Timeout:    c.Provider.Timeout,
		Extra:      c.Provider.Extra,
	}
}
