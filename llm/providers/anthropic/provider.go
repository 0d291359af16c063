// Package anthropic implements the keyed REST adapter for the Anthropic
// messages API. The API differs from the OpenAI shape in several ways:
// x-api-key auth instead of Bearer, the system prompt travels in its own
// field, message content is an array of typed blocks, and tool results are
// wrapped into user messages. The subscription bridge adapter reuses this
// codec with OAuth headers.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/absmartly/browser-extension-sub003/internal/tlsutil"
	"github.com/absmartly/browser-extension-sub003/llm"
	"github.com/absmartly/browser-extension-sub003/llm/providers"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	defaultVersion = "2023-06-01"
	defaultModel   = "claude-sonnet-4-5"

	// Anthropic requires max_tokens; this is the cap when the caller
	// does not set one.
	defaultMaxTokens = 4096
)

// Provider is the Anthropic messages-API adapter.
type Provider struct {
	cfg          providers.AnthropicConfig
	name         string
	client       *http.Client
	logger       *zap.Logger
	buildHeaders func(*http.Request, string)
}

// New creates the keyed REST adapter using x-api-key authentication.
func New(cfg providers.AnthropicConfig, logger *zap.Logger) *Provider {
	return NewWithAuth(cfg, "anthropic", nil, logger)
}

// NewWithAuth creates an adapter with a custom name and header builder.
// The subscription bridge uses this to swap the auth scheme while keeping
// the wire codec.
func NewWithAuth(cfg providers.AnthropicConfig, name string, buildHeaders func(*http.Request, string), logger *zap.Logger) *Provider {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.AnthropicVersion == "" {
		cfg.AnthropicVersion = defaultVersion
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Provider{
		cfg:    cfg,
		name:   name,
		client: tlsutil.SecureHTTPClient(cfg.Timeout),
		logger: logger.With(zap.String("provider", name)),
	}
	if buildHeaders != nil {
		p.buildHeaders = buildHeaders
	} else {
		p.buildHeaders = func(req *http.Request, key string) {
			req.Header.Set("x-api-key", key)
		}
	}
	return p
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) SupportsNativeFunctionCalling() bool { return true }

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type anthropicMessage struct {
	Role    string             `json:"role"` // user or assistant
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type      string           `json:"type"` // text, image, tool_use, tool_result
	Text      string           `json:"text,omitempty"`
	Source    *anthropicSource `json:"source,omitempty"`
	ID        string           `json:"id,omitempty"`
	Name      string           `json:"name,omitempty"`
	Input     json.RawMessage  `json:"input,omitempty"`
	ToolUseID string           `json:"tool_use_id,omitempty"`
	Content   string           `json:"content,omitempty"` // tool_result payload
}

type anthropicSource struct {
	Type      string `json:"type"` // base64 or url
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature,omitempty"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
	ToolChoice  any                `json:"tool_choice,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicResponse struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Role       string             `json:"role"`
	Content    []anthropicContent `json:"content"`
	Model      string             `json:"model"`
	StopReason string             `json:"stop_reason"`
	Usage      *anthropicUsage    `json:"usage,omitempty"`
}

type anthropicErrorResp struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ---------------------------------------------------------------------------
// Canonical <-> wire conversion
// ---------------------------------------------------------------------------

// convertMessages extracts the system prompt and renders the rest as
// Anthropic messages. Tool results become tool_result blocks inside user
// messages, per the API contract.
func convertMessages(msgs []llm.Message) (string, []anthropicMessage) {
	var system string
	var out []anthropicMessage

	for _, m := range msgs {
		if m.Role == llm.RoleSystem {
			system = m.Content
			continue
		}

		if m.Role == llm.RoleTool {
			out = append(out, anthropicMessage{
				Role: "user",
				Content: []anthropicContent{{
					Type:      "tool_result",
					ToolUseID: m.ToolCallID,
					Content:   m.Content,
				}},
			})
			continue
		}

		am := anthropicMessage{Role: string(m.Role)}
		if m.Content != "" {
			am.Content = append(am.Content, anthropicContent{Type: "text", Text: m.Content})
		}
		for _, img := range m.Images {
			src := &anthropicSource{}
			if img.Type == "base64" {
				src.Type = "base64"
				src.MediaType = img.MimeType
				if src.MediaType == "" {
					src.MediaType = "image/png"
				}
				src.Data = img.Data
			} else {
				src.Type = "url"
				src.URL = img.URL
			}
			am.Content = append(am.Content, anthropicContent{Type: "image", Source: src})
		}
		for _, tc := range m.ToolCalls {
			am.Content = append(am.Content, anthropicContent{
				Type:  "tool_use",
				ID:    tc.ID,
				Name:  tc.Name,
				Input: tc.Arguments,
			})
		}
		if len(am.Content) > 0 {
			out = append(out, am)
		}
	}
	return system, out
}

func convertTools(tools []llm.ToolSchema) []anthropicTool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]anthropicTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, anthropicTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
	}
	return out
}

func toChatResponse(ar anthropicResponse, provider string) *llm.ChatResponse {
	msg := llm.Message{Role: llm.RoleAssistant}
	for _, block := range ar.Content {
		switch block.Type {
		case "text":
			msg.Content += block.Text
		case "tool_use":
			msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: block.Input,
			})
		}
	}
	resp := &llm.ChatResponse{
		ID:       ar.ID,
		Provider: provider,
		Model:    ar.Model,
		Choices: []llm.ChatChoice{{
			Index:        0,
			FinishReason: ar.StopReason,
			Message:      msg,
		}},
	}
	if ar.Usage != nil {
		resp.Usage = llm.ChatUsage{
			PromptTokens:     ar.Usage.InputTokens,
			CompletionTokens: ar.Usage.OutputTokens,
			TotalTokens:      ar.Usage.InputTokens + ar.Usage.OutputTokens,
		}
	}
	return resp
}

func readErrMsg(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil {
		return "failed to read error response"
	}
	var er anthropicErrorResp
	if err := json.Unmarshal(data, &er); err == nil && er.Error.Message != "" {
		return fmt.Sprintf("%s (type: %s)", er.Error.Message, er.Error.Type)
	}
	return string(data)
}

// ---------------------------------------------------------------------------
// Completion
// ---------------------------------------------------------------------------

func (p *Provider) resolveAPIKey(ctx context.Context) string {
	if c, ok := llm.CredentialOverrideFromContext(ctx); ok {
		if strings.TrimSpace(c.APIKey) != "" {
			return strings.TrimSpace(c.APIKey)
		}
	}
	return p.cfg.APIKey
}

func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	system, messages := convertMessages(req.Messages)

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	model := providers.ChooseModel(req, p.cfg.Model)
	if model == "" {
		model = defaultModel
	}

	body := anthropicRequest{
		Model:       model,
		Messages:    messages,
		System:      system,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		Tools:       convertTools(req.Tools),
	}
	if req.ToolChoice != "" && req.ToolChoice != "auto" {
		body.ToolChoice = map[string]string{"type": "tool", "name": req.ToolChoice}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v1/messages", strings.TrimRight(p.cfg.BaseURL, "/"))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	p.buildHeaders(httpReq, p.resolveAPIKey(ctx))
	httpReq.Header.Set("anthropic-version", p.cfg.AnthropicVersion)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, providers.NetworkError(err, p.Name())
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode >= 400 {
		msg := readErrMsg(resp.Body)
		p.logger.Warn("completion failed", zap.Int("status", resp.StatusCode), zap.String("message", msg))
		return nil, providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var ar anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, providers.NetworkError(fmt.Errorf("decode response: %w", err), p.Name())
	}

	p.logger.Debug("completion ok",
		zap.String("model", ar.Model),
		zap.String("stop_reason", ar.StopReason))
	return toChatResponse(ar, p.Name()), nil
}
