package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/absmartly/browser-extension-sub003/llm"
	"github.com/absmartly/browser-extension-sub003/llm/providers"
)

func testConfig(url string) providers.AnthropicConfig {
	cfg := providers.AnthropicConfig{}
	cfg.APIKey = "test-key"
	cfg.BaseURL = url
	return cfg
}

func TestCompletion(t *testing.T) {
	var gotReq anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, defaultVersion, r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := anthropicResponse{
			ID:    "msg_1",
			Model: "claude-sonnet-4-5",
			Content: []anthropicContent{
				{Type: "text", Text: "Done. "},
				{Type: "tool_use", ID: "toolu_1", Name: "generate_changes",
					Input: json.RawMessage(`{"domChanges":[]}`)},
			},
			StopReason: "tool_use",
			Usage:      &anthropicUsage{InputTokens: 100, OutputTokens: 20},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := New(testConfig(server.URL), zap.NewNop())
	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{
			llm.NewSystemMessage("you edit pages"),
			llm.NewUserMessage("change the title"),
		},
		Tools: []llm.ToolSchema{{Name: "generate_changes", Parameters: json.RawMessage(`{"type":"object"}`)}},
	})
	require.NoError(t, err)

	// System prompt travels in its own field, not as a message.
	assert.Equal(t, "you edit pages", gotReq.System)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Equal(t, defaultMaxTokens, gotReq.MaxTokens)
	require.Len(t, gotReq.Tools, 1)
	assert.Equal(t, "generate_changes", gotReq.Tools[0].Name)

	require.Len(t, resp.Choices, 1)
	msg := resp.Choices[0].Message
	assert.Equal(t, "Done. ", msg.Content)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "toolu_1", msg.ToolCalls[0].ID)
	assert.Equal(t, "generate_changes", msg.ToolCalls[0].Name)
	assert.Equal(t, 120, resp.Usage.TotalTokens)
	assert.Equal(t, "tool_use", resp.Choices[0].FinishReason)
}

func TestCompletionErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  llm.ErrorCode
		retryable bool
	}{
		{"unauthorized", 401, `{"error":{"type":"authentication_error","message":"invalid x-api-key"}}`, llm.ErrUnauthorized, false},
		{"rate limited", 429, `{"error":{"type":"rate_limit_error","message":"slow down"}}`, llm.ErrRateLimited, true},
		{"overloaded", 529, `{"error":{"type":"overloaded_error","message":"busy"}}`, llm.ErrModelOverloaded, true},
		{"server error", 503, `oops`, llm.ErrUpstreamError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := New(testConfig(server.URL), zap.NewNop())
			_, err := p.Completion(context.Background(), &llm.ChatRequest{
				Messages: []llm.Message{llm.NewUserMessage("hi")},
			})
			require.Error(t, err)
			var le *llm.Error
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.wantCode, le.Code)
			assert.Equal(t, tt.retryable, le.Retryable)
			assert.Equal(t, "anthropic", le.Provider)
		})
	}
}

func TestCredentialOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "per-call-key", r.Header.Get("x-api-key"))
		json.NewEncoder(w).Encode(anthropicResponse{Content: []anthropicContent{{Type: "text", Text: "ok"}}})
	}))
	defer server.Close()

	p := New(testConfig(server.URL), zap.NewNop())
	ctx := llm.WithCredentialOverride(context.Background(), llm.CredentialOverride{APIKey: "per-call-key"})
	_, err := p.Completion(ctx, &llm.ChatRequest{Messages: []llm.Message{llm.NewUserMessage("hi")}})
	require.NoError(t, err)
}

func TestConvertMessages(t *testing.T) {
	system, msgs := convertMessages([]llm.Message{
		llm.NewSystemMessage("sys"),
		llm.NewUserMessage("look at this").WithImages([]llm.ImageContent{
			{Type: "base64", Data: "aGk=", MimeType: "image/jpeg"},
			{Type: "url", URL: "https://example.com/shot.png"},
		}),
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
			{ID: "toolu_9", Name: "css_query", Arguments: json.RawMessage(`{"selectors":[".x"]}`)},
		}},
		llm.NewToolMessage("toolu_9", "css_query", `{"results":[]}`),
	})

	assert.Equal(t, "sys", system)
	require.Len(t, msgs, 3)

	user := msgs[0]
	require.Len(t, user.Content, 3)
	assert.Equal(t, "text", user.Content[0].Type)
	assert.Equal(t, "base64", user.Content[1].Source.Type)
	assert.Equal(t, "image/jpeg", user.Content[1].Source.MediaType)
	assert.Equal(t, "url", user.Content[2].Source.Type)

	assistant := msgs[1]
	assert.Equal(t, "assistant", assistant.Role)
	require.Len(t, assistant.Content, 1)
	assert.Equal(t, "tool_use", assistant.Content[0].Type)
	assert.Equal(t, "toolu_9", assistant.Content[0].ID)

	// Tool results ride inside a user message.
	result := msgs[2]
	assert.Equal(t, "user", result.Role)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "tool_result", result.Content[0].Type)
	assert.Equal(t, "toolu_9", result.Content[0].ToolUseID)
	assert.Equal(t, `{"results":[]}`, result.Content[0].Content)
}

func TestToolChoiceForced(t *testing.T) {
	var gotReq anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(anthropicResponse{Content: []anthropicContent{{Type: "text", Text: "ok"}}})
	}))
	defer server.Close()

	p := New(testConfig(server.URL), zap.NewNop())
	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages:   []llm.Message{llm.NewUserMessage("hi")},
		ToolChoice: "generate_changes",
	})
	require.NoError(t, err)
	require.NotNil(t, gotReq.ToolChoice)
	choice, ok := gotReq.ToolChoice.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "tool", choice["type"])
	assert.Equal(t, "generate_changes", choice["name"])
}

func TestNameAndCapabilities(t *testing.T) {
	p := New(testConfig("https://api.anthropic.com"), nil)
	assert.Equal(t, "anthropic", p.Name())
	assert.True(t, p.SupportsNativeFunctionCalling())
}
