package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/config"
)

func testBase(timeout time.Duration) clientBase {
	return clientBase{
		apiKey:      "test-key",
		model:       "test-model",
		maxTokens:   1024,
		temperature: 0.2,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func TestNewClientProviderSelection(t *testing.T) {
	tests := []struct {
		provider string
		wantErr  bool
	}{
		{provider: "claude"},
		{provider: "openai"},
		{provider: "deepseek"},
		{provider: "gemini", wantErr: true},
		{provider: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			client, err := NewClient(config.ModelConfig{
				Provider: tt.provider,
				Model:    "m",
				Timeout:  time.Second,
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestClaudeComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req claudeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "system prompt", req.System)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		json.NewEncoder(w).Encode(map[string]any{
			"content":     []map[string]string{{"type": "text", "text": `{"ok": true}`}},
			"stop_reason": "end_turn",
		})
	}))
	defer server.Close()

	client := &claudeClient{clientBase: testBase(time.Second), baseURL: server.URL}
	out, err := client.Complete(context.Background(), CompletionRequest{
		System: "system prompt",
		Prompt: "generate",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, out)
}

func TestClaudeCompleteBackendErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       any
		wantStatus int
	}{
		{
			name:       "overloaded",
			status:     http.StatusTooManyRequests,
			body:       map[string]any{"error": map[string]string{"type": "overloaded_error", "message": "try later"}},
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "empty completion",
			status:     http.StatusOK,
			body:       map[string]any{"content": []map[string]string{}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "server error without body detail",
			status:     http.StatusInternalServerError,
			body:       map[string]any{},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(tt.body)
			}))
			defer server.Close()

			client := &claudeClient{clientBase: testBase(time.Second), baseURL: server.URL}
			_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "generate"})
			require.Error(t, err)

			var backendErr *BackendError
			require.ErrorAs(t, err, &backendErr)
			assert.Equal(t, tt.wantStatus, backendErr.Status)
		})
	}
}

func TestOpenAIComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "result"}, "finish_reason": "stop"},
			},
		})
	}))
	defer server.Close()

	client := &openAIClient{clientBase: testBase(time.Second), baseURL: server.URL}
	out, err := client.Complete(context.Background(), CompletionRequest{
		System: "system prompt",
		Prompt: "generate",
	})
	require.NoError(t, err)
	assert.Equal(t, "result", out)
}

func TestOpenAICompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []map[string]any{}})
	}))
	defer server.Close()

	client := &openAIClient{clientBase: testBase(time.Second), baseURL: server.URL}
	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "generate"})

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Contains(t, backendErr.Message, "empty completion")
}

func TestCompleteTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": "late"}},
		})
	}))
	defer server.Close()

	client := &claudeClient{clientBase: testBase(20 * time.Millisecond), baseURL: server.URL}
	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "generate"})
	require.Error(t, err)

	var backendErr *BackendError
	assert.ErrorAs(t, err, &backendErr)
}

func TestCompleteContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := &openAIClient{clientBase: testBase(time.Second), baseURL: server.URL}
	_, err := client.Complete(ctx, CompletionRequest{Prompt: "generate"})
	require.Error(t, err)
}
