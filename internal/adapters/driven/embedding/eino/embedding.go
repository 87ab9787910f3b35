// Package eino adapts a cloudwego/eino embedder to the embedding service port.
package eino

import (
	"context"
	"fmt"
	"time"

	openaiembed "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"

	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultAPIVersion = "2023-03-15-preview"
	DefaultTimeout    = 60 * time.Second
)

// Config holds configuration for an OpenAI or Azure OpenAI embedder.
type Config struct {
	APIKey  string
	BaseURL string

	// Model is the embedding model, or the deployment name on Azure.
	Model string

	Azure      bool
	APIVersion string
	Timeout    time.Duration

	// Dimensions is the known vector size of Model. Zero means unknown
	// until the first embedding is returned.
	Dimensions int
}

// EmbeddingService embeds text through an eino embedder.
type EmbeddingService struct {
	embedder   embedding.Embedder
	name       string
	dimensions int
}

// NewEmbeddingService creates the eino-ext OpenAI embedder described by cfg.
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
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

	emb, err := openaiembed.NewEmbedder(ctx, &openaiembed.EmbeddingConfig{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		ByAzure:    cfg.Azure,
		APIVersion: cfg.APIVersion,
		Timeout:    cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("eino: create embedder: %w", err)
	}
	return New(emb, cfg.Model, cfg.Dimensions), nil
}

// New wraps an existing eino embedder.
func New(emb embedding.Embedder, name string, dimensions int) *EmbeddingService {
	return &EmbeddingService{embedder: emb, name: name, dimensions: dimensions}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in one call, converting eino's float64 vectors.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	raw, err := s.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("eino: embed: %w", err)
	}
	if len(raw) != len(texts) {
		return nil, fmt.Errorf("eino: got %d embeddings for %d inputs", len(raw), len(texts))
	}

	out := make([][]float32, len(raw))
	for i, vec := range raw {
		if len(vec) == 0 {
			return nil, fmt.Errorf("eino: empty embedding for input %d", i)
		}
		out[i] = make([]float32, len(vec))
		for j, v := range vec {
			out[i][j] = float32(v)
		}
	}
	return out, nil
}

// Dimensions returns the embedding vector size, or 0 when unknown.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the model or deployment name.
func (s *EmbeddingService) ModelName() string {
	return s.name
}

// Ping embeds a short probe text and records its size when unknown.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	vec, err := s.Embed(ctx, "ping")
	if err != nil {
		return err
	}
	if s.dimensions == 0 {
		s.dimensions = len(vec)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
