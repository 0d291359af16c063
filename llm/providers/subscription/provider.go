// Package subscription implements the OAuth bridge adapter: the Anthropic
// wire format authenticated with a subscription OAuth bearer token instead
// of an API key. Everything except the auth headers is shared with the
// anthropic adapter.
package subscription

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/absmartly/browser-extension-sub003/llm/providers"
	"github.com/absmartly/browser-extension-sub003/llm/providers/anthropic"
)

// oauthBetaHeader opts the messages API into bearer-token auth.
const oauthBetaHeader = "oauth-2025-04-20"

// New creates the subscription bridge adapter. The OAuth token rides in the
// config's APIKey slot internally so the shared codec's credential override
// path keeps working.
func New(cfg providers.SubscriptionConfig, logger *zap.Logger) *anthropic.Provider {
	inner := providers.AnthropicConfig{BaseProviderConfig: cfg.BaseProviderConfig}
	inner.APIKey = cfg.OAuthToken
	return anthropic.NewWithAuth(inner, "claude-subscription", func(req *http.Request, token string) {
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("anthropic-beta", oauthBetaHeader)
	}, logger)
}
