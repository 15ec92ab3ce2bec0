// Package llm provides completion clients for the supported model
// providers behind a single Completer interface, plus the text-level
// sanitation helpers for model output.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/config"
)

// Provider identifies a model provider
type Provider string

const (
	ProviderClaude   Provider = "claude"
	ProviderOpenAI   Provider = "openai"
	ProviderDeepSeek Provider = "deepseek"
)

// Default API endpoints; overridable for tests.
const (
	claudeBaseURL   = "https://api.anthropic.com/v1/messages"
	openAIBaseURL   = "https://api.openai.com/v1/chat/completions"
	deepSeekBaseURL = "https://api.deepseek.com/v1/chat/completions"
)

// CompletionRequest is a single prompt-to-text request.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Completer generates a completion from a prompt. This is the only
// capability the pipeline needs from a model provider; the concrete
// implementation is selected from configuration at process start.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// BackendError is returned when a provider call fails: non-2xx status,
// provider-reported error, or empty output. Callers must not retry it
// mid-pipeline; retry is a caller policy.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("generation backend error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("generation backend error: %s", e.Message)
}

// NewClient builds a Completer for the configured provider. The returned
// client applies the configured timeout per request unless the caller's
// context expires first.
func NewClient(cfg config.ModelConfig) (Completer, error) {
	base := clientBase{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
	if base.maxTokens <= 0 {
		base.maxTokens = 1024
	}

	switch Provider(cfg.Provider) {
	case ProviderClaude:
		return &claudeClient{clientBase: base, baseURL: claudeBaseURL}, nil
	case ProviderOpenAI:
		return &openAIClient{clientBase: base, baseURL: openAIBaseURL}, nil
	case ProviderDeepSeek:
		return &openAIClient{clientBase: base, baseURL: deepSeekBaseURL}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

type clientBase struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

func (b *clientBase) post(ctx context.Context, url string, headers map[string]string, payload any) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, &BackendError{Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &BackendError{Status: resp.StatusCode, Message: err.Error()}
	}

	return respBody, resp.StatusCode, nil
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeClient talks to the Anthropic messages API.
type claudeClient struct {
	clientBase
	baseURL string
}

type claudeRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []Message `json:"messages"`
	System      string    `json:"system,omitempty"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *claudeClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	maxTokens := c.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	payload := claudeRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		System:      req.System,
		Messages: []Message{
			{Role: "user", Content: req.Prompt},
		},
	}

	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	}

	respBody, status, err := c.post(ctx, c.baseURL, headers, payload)
	if err != nil {
		return "", err
	}

	var resp claudeResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", &BackendError{Status: status, Message: fmt.Sprintf("failed to unmarshal response: %v", err)}
	}
	if resp.Error != nil {
		return "", &BackendError{Status: status, Message: fmt.Sprintf("%s - %s", resp.Error.Type, resp.Error.Message)}
	}
	if status < 200 || status >= 300 {
		return "", &BackendError{Status: status, Message: "non-success status"}
	}
	if len(resp.Content) == 0 || resp.Content[0].Text == "" {
		return "", &BackendError{Status: status, Message: "empty completion"}
	}

	return resp.Content[0].Text, nil
}

// openAIClient talks to the OpenAI chat completions API and any
// OpenAI-compatible endpoint (DeepSeek).
type openAIClient struct {
	clientBase
	baseURL string
}

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

func (c *openAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	maxTokens := c.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	messages := make([]Message, 0, 2)
	if req.System != "" {
		messages = append(messages, Message{Role: "system", Content: req.System})
	}
	messages = append(messages, Message{Role: "user", Content: req.Prompt})

	payload := openAIRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}

	respBody, status, err := c.post(ctx, c.baseURL, headers, payload)
	if err != nil {
		return "", err
	}

	var resp openAIResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", &BackendError{Status: status, Message: fmt.Sprintf("failed to unmarshal response: %v", err)}
	}
	if resp.Error != nil {
		return "", &BackendError{Status: status, Message: fmt.Sprintf("%s - %s", resp.Error.Type, resp.Error.Message)}
	}
	if status < 200 || status >= 300 {
		return "", &BackendError{Status: status, Message: "non-success status"}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &BackendError{Status: status, Message: "empty completion"}
	}

	return resp.Choices[0].Message.Content, nil
}
