// Package ai builds the embedding and language model adapters named by the
// configuration.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	einoembed "github.com/custodia-labs/guru-cli/internal/adapters/driven/embedding/eino"
	ollamaembed "github.com/custodia-labs/guru-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/guru-cli/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/guru-cli/internal/adapters/driven/llm/anthropic"
	einollm "github.com/custodia-labs/guru-cli/internal/adapters/driven/llm/eino"
	ollamallm "github.com/custodia-labs/guru-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/guru-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 10 * time.Second

// Services holds the model adapters of one run.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
}

// New creates both services. A missing or invalid setting is returned as a
// *domain.ConfigurationError.
func New(ctx context.Context, embedding domain.EmbeddingSettings, llm domain.LLMSettings) (*Services, error) {
	emb, err := NewEmbeddingService(ctx, embedding)
	if err != nil {
		return nil, err
	}
	chat, err := NewLLMService(ctx, llm)
	if err != nil {
		_ = emb.Close()
		return nil, err
	}
	return &Services{Embedding: emb, LLM: chat}, nil
}

// Check pings both services.
func (s *Services) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	var errs []error
	if err := s.Embedding.Ping(ctx); err != nil {
		errs = append(errs, fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingService, s.Embedding.ModelName(), err))
	}
	if err := s.LLM.Ping(ctx); err != nil {
		errs = append(errs, fmt.Errorf("%w: %s: %w", domain.ErrGenerationService, s.LLM.ModelName(), err))
	}
	return errors.Join(errs...)
}

// Close releases both services.
func (s *Services) Close() error {
	var errs []error
	if s.Embedding != nil {
		errs = append(errs, s.Embedding.Close())
	}
	if s.LLM != nil {
		errs = append(errs, s.LLM.Close())
	}
	return errors.Join(errs...)
}

// NewEmbeddingService creates the embedding adapter for settings.
func NewEmbeddingService(ctx context.Context, settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if err := checkProvider("embedding", settings.Provider, settings.Client); err != nil {
		return nil, err
	}
	if !settings.Provider.SupportsEmbeddings() {
		return nil, domain.NewConfigurationError("embedding.provider",
			"%s has no embedding models, use azure, openai or ollama", settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, missing("embedding", settings.Provider, settings.APIKey, settings.BaseURL)
	}

	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}
	azure := settings.Provider == domain.AIProviderAzure

	var (
		svc driven.EmbeddingService
		err error
	)
	switch {
	case settings.Provider == domain.AIProviderOllama:
		svc = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		})
	case settings.Client == domain.AIClientHTTP:
		svc, err = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Azure:      azure,
			APIVersion: settings.APIVersion,
			Dimensions: dimensions,
		})
	default:
		svc, err = einoembed.NewEmbeddingService(ctx, einoembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Azure:      azure,
			APIVersion: settings.APIVersion,
			Dimensions: dimensions,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingService, err)
	}
	return svc, nil
}

// NewLLMService creates the chat adapter for settings.
func NewLLMService(ctx context.Context, settings domain.LLMSettings) (driven.LLMService, error) {
	if err := checkProvider("llm", settings.Provider, settings.Client); err != nil {
		return nil, err
	}
	if !settings.IsConfigured() {
		return nil, missing("llm", settings.Provider, settings.APIKey, settings.BaseURL)
	}

	azure := settings.Provider == domain.AIProviderAzure

	var (
		svc driven.LLMService
		err error
	)
	switch {
	case settings.Provider == domain.AIProviderOllama:
		svc = ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case settings.Provider == domain.AIProviderAnthropic:
		svc, err = anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case settings.Client == domain.AIClientHTTP:
		svc, err = openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Azure:      azure,
			APIVersion: settings.APIVersion,
		})
	default:
		svc, err = einollm.NewLLMService(ctx, einollm.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Azure:      azure,
			APIVersion: settings.APIVersion,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationService, err)
	}
	return svc, nil
}

func checkProvider(section string, provider domain.AIProvider, client domain.AIClient) error {
	if !provider.IsValid() {
		return domain.NewConfigurationError(section+".provider", "unsupported provider %q", provider)
	}
	if !client.IsValid() {
		return domain.NewConfigurationError(section+".client", "unsupported client %q, use eino or http", client)
	}
	return nil
}

// missing names the first absent setting of an unconfigured provider.
func missing(section string, provider domain.AIProvider, apiKey, baseURL string) error {
	switch {
	case provider.RequiresAPIKey() && apiKey == "":
		return domain.NewConfigurationError(section+".api_key", "required for %s", provider)
	case provider.RequiresBaseURL() && baseURL == "":
		return domain.NewConfigurationError(section+".base_url", "required for %s", provider)
	default:
		return domain.NewConfigurationError(section+".model", "required for %s", provider)
	}
}
