package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmartly/browser-extension-sub003/llm/factory"
)

const sampleYAML = `
provider:
  kind: anthropic
  api_key: file-key
  model: claude-sonnet-4-5
  timeout: 30s
engine:
  max_iterations: 6
  request_timeout: 45s
  rate_limit: 2.5
  rate_burst: 3
logging:
  level: debug
metrics:
  enabled: true
  namespace: pageedit
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Provider.Kind)
	assert.Equal(t, "file-key", cfg.Provider.APIKey)
	assert.Equal(t, 30*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 6, cfg.Engine.MaxIterations)
	assert.Equal(t, 45*time.Second, cfg.Engine.RequestTimeout)
	assert.Equal(t, 2.5, cfg.Engine.RateLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "pageedit", cfg.Metrics.Namespace)
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(EnvOAuthToken, "env-token")

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Provider.APIKey)
	assert.Equal(t, "env-token", cfg.Provider.OAuthToken)
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing kind", `provider: {api_key: k}`, "provider.kind is required"},
		{"unknown kind", `provider: {kind: watson}`, "unknown provider kind"},
		{"negative iterations", "provider: {kind: gemini}\nengine: {max_iterations: -1}", "max_iterations"},
		{"negative rate", "provider: {kind: gemini}\nengine: {rate_limit: -1}", "rate_limit"},
		{"not yaml", `provider: [`, "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseAllKinds(t *testing.T) {
	kinds := []string{"anthropic", "openai", "gemini", "openai-compatible", "claude-subscription"}
	for _, kind := range kinds {
		t.Run(kind, func(t *testing.T) {
			_, err := Parse([]byte("provider:\n  kind: " + kind))
			assert.NoError(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider.Kind)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFactoryConfig(t *testing.T) {
	cfg, err := Parse([]byte(`
provider:
  kind: openai-compatible
  api_key: k
  base_url: https://gw.internal
  model: llama-3.1-70b
  extra:
    provider_name: corp-proxy
`))
	require.NoError(t, err)

	fc := cfg.FactoryConfig()
	assert.Equal(t, "k", fc.APIKey)
	assert.Equal(t, "https://gw.internal", fc.BaseURL)
	assert.Equal(t, "llama-3.1-70b", fc.Model)
	assert.Equal(t, "corp-proxy", fc.Extra["provider_name"])

	p, err := factory.New(factory.ProviderKind(cfg.Provider.Kind), fc, nil)
	require.NoError(t, err)
	assert.Equal(t, "corp-proxy", p.Name())
}
