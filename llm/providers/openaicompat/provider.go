// Package openaicompat implements the generic adapter for OpenAI-compatible
// HTTP backends (self-hosted gateways, proxies, local runtimes). The caller
// supplies the endpoint; because there is no sensible default for an
// arbitrary compatible backend, an explicit model id is mandatory.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/absmartly/browser-extension-sub003/internal/tlsutil"
	"github.com/absmartly/browser-extension-sub003/llm"
	"github.com/absmartly/browser-extension-sub003/llm/providers"
)

const defaultEndpointPath = "/v1/chat/completions"

// Provider speaks the OpenAI chat-completions shape against a custom base
// URL. The openai adapter embeds it with the canonical endpoint.
type Provider struct {
	Cfg          providers.OpenAICompatConfig
	Client       *http.Client
	Logger       *zap.Logger
	BuildHeaders func(req *http.Request, apiKey string)
}

// New creates the adapter. The base URL and an explicit model id are
// required; there is nothing to fall back to for an unknown backend.
func New(cfg providers.OpenAICompatConfig, logger *zap.Logger) (*Provider, error) {
	if cfg.BaseURL == "" {
		return nil, llm.NewError(llm.ErrInvalidRequest, "openai-compatible provider requires a base_url")
	}
	if cfg.Model == "" {
		return nil, llm.NewError(llm.ErrMissingModel, "openai-compatible provider requires an explicit model id")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = defaultEndpointPath
	}
	if cfg.ProviderName == "" {
		cfg.ProviderName = "openai-compatible"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		Cfg:          cfg,
		Client:       tlsutil.SecureHTTPClient(cfg.Timeout),
		Logger:       logger.With(zap.String("provider", cfg.ProviderName)),
		BuildHeaders: providers.BearerTokenHeaders,
	}, nil
}

func (p *Provider) Name() string { return p.Cfg.ProviderName }

func (p *Provider) SupportsNativeFunctionCalling() bool { return true }

func (p *Provider) resolveAPIKey(ctx context.Context) string {
	if c, ok := llm.CredentialOverrideFromContext(ctx); ok {
		if strings.TrimSpace(c.APIKey) != "" {
			return strings.TrimSpace(c.APIKey)
		}
	}
	return p.Cfg.APIKey
}

func (p *Provider) endpoint() string {
	return fmt.Sprintf("%s%s", strings.TrimRight(p.Cfg.BaseURL, "/"), p.Cfg.EndpointPath)
}

// Completion performs one non-streaming chat completion.
func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	body := providers.OpenAICompatRequest{
		Model:       providers.ChooseModel(req, p.Cfg.Model),
		Messages:    providers.ConvertMessagesToOpenAI(req.Messages),
		Tools:       providers.ConvertToolsToOpenAI(req.Tools),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.ToolChoice != "" {
		body.ToolChoice = req.ToolChoice
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	p.BuildHeaders(httpReq, p.resolveAPIKey(ctx))

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return nil, providers.NetworkError(err, p.Name())
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		p.Logger.Warn("completion failed", zap.Int("status", resp.StatusCode), zap.String("message", msg))
		return nil, providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var oaResp providers.OpenAICompatResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaResp); err != nil {
		return nil, providers.NetworkError(fmt.Errorf("decode response: %w", err), p.Name())
	}

	result := providers.ToLLMChatResponse(oaResp, p.Name())
	if oaResp.Created != 0 {
		result.CreatedAt = time.Unix(oaResp.Created, 0)
	}
	p.Logger.Debug("completion ok", zap.String("model", result.Model))
	return result, nil
}
