package config

import (
	"path/filepath"

	"github.com/custodia-labs/guru-cli/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/services"
)

// EmbeddingSettings returns the embedding provider settings.
func (c *Config) EmbeddingSettings() domain.EmbeddingSettings {
	return domain.EmbeddingSettings{
		Provider:   domain.AIProvider(c.Embedding.Provider),
		Model:      c.Embedding.Model,
		BaseURL:    c.Embedding.BaseURL,
		APIKey:     c.Embedding.APIKey,
		APIVersion: c.Embedding.APIVersion,
		Client:     domain.AIClient(c.Embedding.Client),
		Dimensions: c.Embedding.Dimensions,
	}
}

// LLMSettings returns the chat model settings.
func (c *Config) LLMSettings() domain.LLMSettings {
	return domain.LLMSettings{
		Provider:   domain.AIProvider(c.LLM.Provider),
		Model:      c.LLM.Model,
		BaseURL:    c.LLM.BaseURL,
		APIKey:     c.LLM.APIKey,
		APIVersion: c.LLM.APIVersion,
		Client:     domain.AIClient(c.LLM.Client),
	}
}

// RetryPolicy returns the retrieval retry policy.
func (c *Config) RetryPolicy() services.RetryPolicy {
	return services.RetryPolicy{
		MaxAttempts:    c.Retrieval.MaxAttempts,
		InitialBackoff: c.Retrieval.InitialBackoff.Std(),
		MaxBackoff:     c.Retrieval.MaxBackoff.Std(),
	}
}

// IndexConfig returns the index build settings.
func (c *Config) IndexConfig() services.IndexConfig {
	return services.IndexConfig{
		BatchSize:         c.Embedding.BatchSize,
		Concurrency:       c.Embedding.Concurrency,
		RequestsPerSecond: c.Embedding.RequestsPerSecond,
		Retry:             c.RetryPolicy(),
	}
}

// SessionConfig returns the generator and condenser settings.
func (c *Config) SessionConfig() services.SessionConfig {
	return services.SessionConfig{
		Generator: services.GeneratorConfig{
			TopK:        c.Retrieval.TopK,
			Temperature: c.LLM.Temperature,
			MaxTokens:   c.LLM.MaxTokens,
		},
		Condenser: services.CondenserConfig{
			MaxSummaryTokens: c.Memory.MaxSummaryTokens,
			RetryWindow:      c.Memory.RetryWindow,
			Temperature:      c.Memory.Temperature,
		},
		Apology: services.DefaultApology,
	}
}

// RedisConfig returns the Redis vector index settings.
func (c *Config) RedisConfig() redis.Config {
	r := c.Vector.Redis
	return redis.Config{
		Addr:           r.Addr,
		Password:       r.Password,
		DB:             r.DB,
		IndexPrefix:    r.IndexPrefix,
		EFConstruction: r.EFConstruction,
		M:              r.M,
	}
}

// CorpusDirectory returns the corpus directory as an absolute path when it
// can be resolved.
func (c *Config) CorpusDirectory() string {
	if abs, err := filepath.Abs(c.Corpus.Directory); err == nil {
		return abs
	}
	return c.Corpus.Directory
}
