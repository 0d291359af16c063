package openai

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

func TestDefaultsAndName(t *testing.T) {
	cfg := providers.OpenAIConfig{}
	cfg.APIKey = "sk-test"
	p := New(cfg, zap.NewNop())

	assert.Equal(t, "openai", p.Name())
	assert.True(t, p.SupportsNativeFunctionCalling())
}

func TestCompletionDefaultModel(t *testing.T) {
	var gotReq providers.OpenAICompatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(providers.OpenAICompatResponse{
			Choices: []providers.OpenAICompatChoice{{
				Message: providers.OpenAICompatRespMessage{Content: "hello"},
			}},
		})
	}))
	defer server.Close()

	cfg := providers.OpenAIConfig{}
	cfg.APIKey = "sk-test"
	cfg.BaseURL = server.URL
	p := New(cfg, zap.NewNop())

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{llm.NewUserMessage("hi")},
	})
	require.NoError(t, err)
	assert.Equal(t, defaultModel, gotReq.Model)
}

func TestOrganizationHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "org-42", r.Header.Get("OpenAI-Organization"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(providers.OpenAICompatResponse{
			Choices: []providers.OpenAICompatChoice{{
				Message: providers.OpenAICompatRespMessage{Content: "ok"},
			}},
		})
	}))
	defer server.Close()

	cfg := providers.OpenAIConfig{Organization: "org-42"}
	cfg.APIKey = "sk-test"
	cfg.BaseURL = server.URL
	p := New(cfg, zap.NewNop())

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{llm.NewUserMessage("hi")},
	})
	require.NoError(t, err)
}
