package llm

import (
	"context"
	"encoding/json"
)

type credentialOverrideKey struct{}

// CredentialOverride overrides provider credentials for a single call.
// It travels only through context and is masked when serialized, so a
// credential can never leak through request logging.
type CredentialOverride struct {
	APIKey     string
	OAuthToken string
}

func (c CredentialOverride) String() string {
	if c.APIKey == "" && c.OAuthToken == "" {
		return "CredentialOverride{}"
	}
	return "CredentialOverride{***}"
}

func (c CredentialOverride) MarshalJSON() ([]byte, error) {
	type masked struct {
		APIKey     string `json:"api_key,omitempty"`
		OAuthToken string `json:"oauth_token,omitempty"`
	}
	out := masked{}
	if c.APIKey != "" {
		out.APIKey = "***"
	}
	if c.OAuthToken != "" {
		out.OAuthToken = "***"
	}
	return json.Marshal(out)
}

// WithCredentialOverride stores a per-call credential override in ctx.
// An empty override leaves ctx unchanged.
func WithCredentialOverride(ctx context.Context, c CredentialOverride) context.Context {
	if c.APIKey == "" && c.OAuthToken == "" {
		return ctx
	}
	return context.WithValue(ctx, credentialOverrideKey{}, c)
}

// CredentialOverrideFromContext reads a per-call credential override.
func CredentialOverrideFromContext(ctx context.Context) (CredentialOverride, bool) {
	v := ctx.Value(credentialOverrideKey{})
	if v == nil {
		return CredentialOverride{}, false
	}
	c, ok := v.(CredentialOverride)
	return c, ok
}
