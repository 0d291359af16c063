package gemini

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

func testConfig(url string) providers.GeminiConfig {
	cfg := providers.GeminiConfig{}
	cfg.APIKey = "g-key"
	cfg.BaseURL = url
	return cfg
}

func TestCompletion(t *testing.T) {
	var gotReq geminiRequest
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(geminiResponse{
			ResponseID:   "resp-1",
			ModelVersion: "gemini-2.0-flash",
			Candidates: []geminiCandidate{{
				FinishReason: "STOP",
				Content: geminiContent{
					Role: "model",
					Parts: []geminiPart{
						{Text: "Inspecting."},
						{FunctionCall: &geminiFunctionCall{
							Name: "css_query",
							Args: map[string]any{"selectors": []any{".hero"}},
						}},
						{FunctionCall: &geminiFunctionCall{
							Name: "xpath_query",
							Args: map[string]any{"xpath": "//h1"},
						}},
					},
				},
			}},
			UsageMetadata: &geminiUsageMetadata{PromptTokenCount: 80, CandidatesTokenCount: 15, TotalTokenCount: 95},
		})
	}))
	defer server.Close()

	p := New(testConfig(server.URL), zap.NewNop())
	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{
			llm.NewSystemMessage("sys"),
			llm.NewUserMessage("restyle"),
		},
		Tools: []llm.ToolSchema{{
			Name:       "css_query",
			Parameters: json.RawMessage(`{"type":"object","properties":{"selectors":{"type":"array"}}}`),
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", gotPath)
	require.NotNil(t, gotReq.SystemInstruction)
	assert.Equal(t, "sys", gotReq.SystemInstruction.Parts[0].Text)
	require.Len(t, gotReq.Contents, 1)
	assert.Equal(t, "user", gotReq.Contents[0].Role)
	require.Len(t, gotReq.Tools, 1)
	require.Len(t, gotReq.Tools[0].FunctionDeclarations, 1)
	assert.Equal(t, "css_query", gotReq.Tools[0].FunctionDeclarations[0].Name)

	require.Len(t, resp.Choices, 1)
	msg := resp.Choices[0].Message
	assert.Equal(t, "Inspecting.", msg.Content)
	require.Len(t, msg.ToolCalls, 2)
	// The wire carries no call ids; the adapter synthesizes them.
	assert.Equal(t, "call-0", msg.ToolCalls[0].ID)
	assert.Equal(t, "call-1", msg.ToolCalls[1].ID)
	assert.Equal(t, "css_query", msg.ToolCalls[0].Name)
	assert.Equal(t, 95, resp.Usage.TotalTokens)
}

func TestConvertContents(t *testing.T) {
	systemInstruction, contents := convertContents([]llm.Message{
		llm.NewSystemMessage("sys"),
		llm.NewUserMessage("hello"),
		{Role: llm.RoleAssistant, Content: "checking", ToolCalls: []llm.ToolCall{
			{ID: "call-0", Name: "css_query", Arguments: json.RawMessage(`{"selectors":[".a"]}`)},
		}},
		llm.NewToolMessage("call-0", "css_query", `{"results":[{"found":true}]}`),
	})

	require.NotNil(t, systemInstruction)
	assert.Equal(t, "sys", systemInstruction.Parts[0].Text)

	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	require.Len(t, contents[1].Parts, 2)
	assert.Equal(t, "checking", contents[1].Parts[0].Text)
	require.NotNil(t, contents[1].Parts[1].FunctionCall)

	// Tool results come back as user-role functionResponse parts keyed by
	// tool name.
	assert.Equal(t, "user", contents[2].Role)
	fr := contents[2].Parts[0].FunctionResponse
	require.NotNil(t, fr)
	assert.Equal(t, "css_query", fr.Name)
	assert.Contains(t, fr.Response, "results")
}

func TestConvertContentsNonJSONToolResult(t *testing.T) {
	_, contents := convertContents([]llm.Message{
		llm.NewToolMessage("call-0", "css_query", `Error: Unknown tool "x"`),
	})
	require.Len(t, contents, 1)
	fr := contents[0].Parts[0].FunctionResponse
	require.NotNil(t, fr)
	assert.Equal(t, `Error: Unknown tool "x"`, fr.Response["result"])
}

func TestConvertContentsImages(t *testing.T) {
	_, contents := convertContents([]llm.Message{
		llm.NewUserMessage("see this").WithImages([]llm.ImageContent{
			{Type: "base64", Data: "aGk=", MimeType: "image/webp"},
			{Type: "url", URL: "https://example.com/x.png"}, // dropped, no URL support
		}),
	})
	require.Len(t, contents, 1)
	require.Len(t, contents[0].Parts, 2)
	assert.Equal(t, "image/webp", contents[0].Parts[1].InlineData.MimeType)
	assert.Equal(t, "aGk=", contents[0].Parts[1].InlineData.Data)
}

func TestCompletionErrorMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"API key lacks permission","status":"PERMISSION_DENIED"}}`))
	}))
	defer server.Close()

	p := New(testConfig(server.URL), zap.NewNop())
	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{llm.NewUserMessage("hi")},
	})
	require.Error(t, err)
	var le *llm.Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, llm.ErrForbidden, le.Code)
	assert.Contains(t, le.Message, "PERMISSION_DENIED")
	assert.Equal(t, llm.FailureAuthentication, llm.Classify(err))
}

func TestModelOverride(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(geminiResponse{Candidates: []geminiCandidate{{}}})
	}))
	defer server.Close()

	p := New(testConfig(server.URL), zap.NewNop())
	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Model:    "gemini-2.5-pro",
		Messages: []llm.Message{llm.NewUserMessage("hi")},
	})
	require.NoError(t, err)
	assert.Equal(t, "/v1beta/models/gemini-2.5-pro:generateContent", gotPath)
}
