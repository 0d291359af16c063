package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/absmartly/browser-extension-sub003/llm"
)

func TestNewAllKinds(t *testing.T) {
	tests := []struct {
		kind     ProviderKind
		cfg      ProviderConfig
		wantName string
	}{
		{KindAnthropic, ProviderConfig{APIKey: "k"}, "anthropic"},
		{KindOpenAI, ProviderConfig{APIKey: "k"}, "openai"},
		{KindGemini, ProviderConfig{APIKey: "k"}, "gemini"},
		{KindOpenAICompat, ProviderConfig{APIKey: "k", BaseURL: "https://gw.internal", Model: "m"}, "openai-compatible"},
		{KindSubscription, ProviderConfig{OAuthToken: "tok"}, "claude-subscription"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			p, err := New(tt.kind, tt.cfg, zap.NewNop())
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
			assert.True(t, p.SupportsNativeFunctionCalling())
		})
	}
}

func TestNewMissingCredentials(t *testing.T) {
	keyKinds := []ProviderKind{KindAnthropic, KindOpenAI, KindGemini, KindOpenAICompat}
	for _, kind := range keyKinds {
		t.Run(string(kind), func(t *testing.T) {
			_, err := New(kind, ProviderConfig{}, nil)
			require.Error(t, err)
			assert.Equal(t, llm.ErrMissingCredential, llm.GetErrorCode(err))
			assert.Equal(t, llm.FailureAuthentication, llm.Classify(err))
		})
	}

	// The subscription bridge wants an OAuth token, not an API key.
	_, err := New(KindSubscription, ProviderConfig{APIKey: "k"}, nil)
	require.Error(t, err)
	assert.Equal(t, llm.ErrMissingCredential, llm.GetErrorCode(err))
}

func TestNewOpenAICompatRequiresEndpoint(t *testing.T) {
	_, err := New(KindOpenAICompat, ProviderConfig{APIKey: "k", Model: "m"}, nil)
	require.Error(t, err)
	assert.Equal(t, llm.ErrInvalidRequest, llm.GetErrorCode(err))

	_, err = New(KindOpenAICompat, ProviderConfig{APIKey: "k", BaseURL: "https://gw"}, nil)
	require.Error(t, err)
	assert.Equal(t, llm.ErrMissingModel, llm.GetErrorCode(err))
}

func TestNewUnknownKind(t *testing.T) {
	_, err := New("watson", ProviderConfig{APIKey: "k"}, nil)
	require.Error(t, err)
	assert.Equal(t, llm.ErrInvalidRequest, llm.GetErrorCode(err))
	assert.Contains(t, err.Error(), "watson")
}

func TestNewExtraFields(t *testing.T) {
	p, err := New(KindOpenAICompat, ProviderConfig{
		APIKey:  "k",
		BaseURL: "https://gw.internal",
		Model:   "m",
		Extra:   map[string]any{"provider_name": "corp-proxy", "endpoint_path": "/llm/v1/chat"},
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "corp-proxy", p.Name())
}
