// Package openai provides an embedding service adapter for the OpenAI
// embeddings API and Azure OpenAI deployments.
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

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultModel      = "text-embedding-ada-002"
	DefaultAPIVersion = "2023-03-15-preview"
	DefaultTimeout    = 60 * time.Second
)

// Model dimensions for OpenAI embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	// APIKey is the OpenAI or Azure key (required).
	APIKey string

	// BaseURL is the API base URL, or the Azure resource endpoint.
	BaseURL string

	// Model is the embedding model, or the deployment name on Azure.
	Model string

	// Azure switches to deployment-scoped URLs and api-key auth.
	Azure      bool
	APIVersion string

	Timeout time.Duration

	// Dimensions overrides the model's known vector size.
	Dimensions int
}

// EmbeddingService generates embeddings over HTTP.
type EmbeddingService struct {
	client     *http.Client
	endpoint   string
	apiKey     string
	model      string
	azure      bool
	dimensions int
}

type embeddingRequest struct {
	Model string   `json:"model,omitempty"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewEmbeddingService creates a new OpenAI embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
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
		cfg.Model = DefaultModel
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = modelDimensions[cfg.Model]
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	endpoint := base + "/embeddings"
	if cfg.Azure {
		endpoint = fmt.Sprintf("%s/openai/deployments/%s/embeddings?api-version=%s",
			base, url.PathEscape(cfg.Model), url.QueryEscape(cfg.APIVersion))
	}

	return &EmbeddingService{
		client:     &http.Client{Timeout: cfg.Timeout},
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		azure:      cfg.Azure,
		dimensions: dimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch embeds texts in one request. The result is index-aligned with texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := embeddingRequest{Input: texts}
	if !s.azure {
		reqBody.Model = s.model
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(jsonBody))
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

	var embedResp embeddingResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("openai: decode response (status %d): %w", resp.StatusCode, err)
	}
	if embedResp.Error != nil {
		return nil, fmt.Errorf("openai: status %d: %s", resp.StatusCode, embedResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai: status %d: %s", resp.StatusCode, string(body))
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range embedResp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", data.Index)
		}
		vec := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vec[i] = float32(v)
		}
		embeddings[data.Index] = vec
	}
	for i, vec := range embeddings {
		if vec == nil {
			return nil, fmt.Errorf("openai: missing embedding for input %d", i)
		}
	}
	return embeddings, nil
}

func (s *EmbeddingService) authorise(req *http.Request) {
	if s.azure {
		req.Header.Set("api-key", s.apiKey)
		return
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
}

// Dimensions returns the embedding vector size, or 0 when the model is unknown.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the model or deployment name.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping embeds a short probe text, which works on both OpenAI and Azure.
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
