// Package eino adapts a cloudwego/eino chat model to the LLM service port.
// NewLLMService builds the eino-ext OpenAI model, which also serves Azure
// OpenAI deployments.
package eino

import (
	"context"
	"fmt"
	"time"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultAPIVersion = "2023-03-15-preview"
	DefaultTimeout    = 120 * time.Second
)

// Config holds configuration for an OpenAI or Azure OpenAI chat model.
type Config struct {
	APIKey string

	// BaseURL is the API base URL, or the Azure resource endpoint.
	BaseURL string

	// Model is the model name, or the deployment name on Azure.
	Model string

	Azure      bool
	APIVersion string
	Timeout    time.Duration
}

// LLMService sends chat requests through an eino chat model.
type LLMService struct {
	model model.BaseChatModel
	name  string
}

// NewLLMService creates the eino-ext OpenAI chat model described by cfg.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("eino: API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("eino: model or deployment name is required")
	}
	if cfg.Azure && cfg.BaseURL == "" {
		return nil, fmt.Errorf("eino: Azure requires a base URL")
	}
	if cfg.Azure && cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	cm, err := openaimodel.NewChatModel(ctx, &openaimodel.ChatModelConfig{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		ByAzure:    cfg.Azure,
		APIVersion: cfg.APIVersion,
		Timeout:    cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("eino: create chat model: %w", err)
	}
	return New(cm, cfg.Model), nil
}

// New wraps an existing eino chat model.
func New(cm model.BaseChatModel, name string) *LLMService {
	return &LLMService{model: cm, name: name}
}

// Chat converts the messages to eino schema messages and generates one reply.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	input := make([]*schema.Message, len(messages))
	for i, m := range messages {
		input[i] = &schema.Message{Role: toRole(m.Role), Content: m.Content}
	}

	callOpts := []model.Option{model.WithTemperature(float32(opts.Temperature))}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, model.WithMaxTokens(opts.MaxTokens))
	}

	out, err := s.model.Generate(ctx, input, callOpts...)
	if err != nil {
		return "", fmt.Errorf("eino: generate: %w", err)
	}
	if out == nil {
		return "", fmt.Errorf("eino: no message returned")
	}
	return out.Content, nil
}

func toRole(role string) schema.RoleType {
	switch role {
	case driven.RoleSystem:
		return schema.System
	case driven.RoleAssistant:
		return schema.Assistant
	default:
		return schema.User
	}
}

// ModelName returns the model or deployment name.
func (s *LLMService) ModelName() string {
	return s.name
}

// Ping sends a one-token completion.
func (s *LLMService) Ping(ctx context.Context) error {
	_, err := s.Chat(ctx, []driven.ChatMessage{{Role: driven.RoleUser, Content: "ping"}},
		driven.ChatOptions{MaxTokens: 1})
	return err
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
