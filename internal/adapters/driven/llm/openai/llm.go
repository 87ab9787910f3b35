// Package openai provides an LLM service adapter for the OpenAI chat
// completions API and Azure OpenAI deployments.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL      = "https://api.openai.com/v1"
	DefaultLLMModel     = "gpt-4o-mini"
	DefaultAPIVersion   = "2023-03-15-preview"
	DefaultLLMTimeout   = 120 * time.Second
	maxErrorBodyPreview = 512
)

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is the OpenAI or Azure key (required).
	APIKey string

	// BaseURL is the API base URL. For Azure this is the resource endpoint,
	// e.g. https://my-resource.openai.azure.com.
	BaseURL string

	// Model is the model name, or the deployment name on Azure.
	Model string

	// Azure switches to deployment-scoped URLs and api-key auth.
	Azure bool

	// APIVersion is sent as api-version on Azure.
	APIVersion string

	Timeout time.Duration
}

// LLMService calls an OpenAI-compatible chat completions endpoint.
type LLMService struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	azure      bool
	apiVersion string
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Code    any    `json:"code"`
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Azure && cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai: Azure requires a base URL")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Azure && cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		azure:      cfg.Azure,
		apiVersion: cfg.APIVersion,
	}, nil
}

// Chat sends the conversation and returns the first choice.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	reqBody := chatRequest{
		Messages:    make([]chatMessage, len(messages)),
		MaxTokens:   opts.MaxTokens,
		Temperature: &opts.Temperature,
	}
	if !s.azure {
		reqBody.Model = s.model
	}
	for i, m := range messages {
		reqBody.Messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	body, err := s.post(ctx, s.chatURL(), reqBody)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no response choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *LLMService) chatURL() string {
	if !s.azure {
		return s.baseURL + "/chat/completions"
	}
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		s.baseURL, url.PathEscape(s.model), url.QueryEscape(s.apiVersion))
}

func (s *LLMService) authorise(req *http.Request) {
	if s.azure {
		req.Header.Set("api-key", s.apiKey)
		return
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
}

// post sends payload as JSON and returns the body of a 200 response.
func (s *LLMService) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorise(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, body)
	}
	return body, nil
}

func statusError(status int, body []byte) error {
	var wrapped struct {
		Error *apiError `json:"error"`
	}
	if json.Unmarshal(body, &wrapped) == nil && wrapped.Error != nil && wrapped.Error.Message != "" {
		return fmt.Errorf("openai: status %d: %s", status, wrapped.Error.Message)
	}
	if len(body) > maxErrorBodyPreview {
		body = body[:maxErrorBodyPreview]
	}
	return fmt.Errorf("openai: status %d: %s", status, strings.TrimSpace(string(body)))
}

// ModelName returns the model or deployment name.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks the API key. OpenAI lists models; Azure deployments have no
// cheap read endpoint, so a one-token completion is sent instead.
func (s *LLMService) Ping(ctx context.Context) error {
	if s.azure {
		_, err := s.Chat(ctx, []driven.ChatMessage{{Role: driven.RoleUser, Content: "ping"}},
			driven.ChatOptions{MaxTokens: 1})
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: create ping request: %w", err)
	}
	s.authorise(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return statusError(resp.StatusCode, body)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
