package config

import (
	"errors"
	"strings"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/postprocessors/chunker"
)

// ValidateCorpus checks the settings needed to load and chunk the corpus.
func (c *Config) ValidateCorpus() error {
	var errs []error
	if c.Corpus.Directory == "" {
		errs = append(errs, domain.NewConfigurationError("corpus.directory",
			"required, set it in the config file, with --data or with %s", EnvDataDirectory))
	}
	if err := chunker.Validate(c.Chunking.Size, c.Chunking.Overlap); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate checks the whole configuration and returns every problem found.
func (c *Config) Validate() error {
	errs := []error{c.ValidateCorpus()}

	if c.Retrieval.TopK <= 0 {
		errs = append(errs, domain.NewConfigurationError("retrieval.top_k", "must be positive, got %d", c.Retrieval.TopK))
	}
	if c.Retrieval.MaxAttempts <= 0 {
		errs = append(errs, domain.NewConfigurationError("retrieval.max_attempts",
			"must be positive, got %d", c.Retrieval.MaxAttempts))
	}
	if c.Retrieval.InitialBackoff < 0 || c.Retrieval.MaxBackoff < 0 {
		errs = append(errs, domain.NewConfigurationError("retrieval.initial_backoff", "backoff must not be negative"))
	}

	errs = append(errs, c.validateModels()...)

	if c.Embedding.BatchSize <= 0 {
		errs = append(errs, domain.NewConfigurationError("embedding.batch_size", "must be positive, got %d", c.Embedding.BatchSize))
	}
	if c.Embedding.Concurrency <= 0 {
		errs = append(errs, domain.NewConfigurationError("embedding.concurrency",
			"must be positive, got %d", c.Embedding.Concurrency))
	}
	if c.Embedding.RequestsPerSecond < 0 {
		errs = append(errs, domain.NewConfigurationError("embedding.requests_per_second", "must not be negative"))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, domain.NewConfigurationError("llm.temperature",
			"must be between 0 and 2, got %g", c.LLM.Temperature))
	}
	if c.Memory.MaxSummaryTokens <= 0 {
		errs = append(errs, domain.NewConfigurationError("memory.max_summary_tokens",
			"must be positive, got %d", c.Memory.MaxSummaryTokens))
	}
	if c.Memory.RetryWindow < 0 {
		errs = append(errs, domain.NewConfigurationError("memory.retry_window", "must not be negative"))
	}

	switch c.Vector.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Vector.Redis.Addr == "" {
			errs = append(errs, domain.NewConfigurationError("vector.redis.addr", "required for the redis backend"))
		}
	default:
		errs = append(errs, domain.NewConfigurationError("vector.backend",
			"unsupported backend %q, use memory or redis", c.Vector.Backend))
	}

	return errors.Join(errs...)
}

func (c *Config) validateModels() []error {
	var errs []error
	emb := c.EmbeddingSettings()
	llm := c.LLMSettings()

	if !emb.Provider.IsValid() || !emb.Provider.SupportsEmbeddings() {
		errs = append(errs, domain.NewConfigurationError("embedding.provider",
			"unsupported embedding provider %q, use %s", emb.Provider, providerList(domain.AllEmbeddingProviders())))
	}
	if !llm.Provider.IsValid() {
		errs = append(errs, domain.NewConfigurationError("llm.provider",
			"unsupported provider %q, use %s", llm.Provider, providerList(domain.AllLLMProviders())))
	}
	if !emb.Client.IsValid() {
		errs = append(errs, domain.NewConfigurationError("embedding.client", "unsupported client %q", emb.Client))
	}
	if !llm.Client.IsValid() {
		errs = append(errs, domain.NewConfigurationError("llm.client", "unsupported client %q", llm.Client))
	}

	errs = append(errs, requireCredentials("embedding", emb.Provider, emb.APIKey, emb.BaseURL, emb.Model)...)
	errs = append(errs, requireCredentials("llm", llm.Provider, llm.APIKey, llm.BaseURL, llm.Model)...)
	return errs
}

func requireCredentials(section string, provider domain.AIProvider, apiKey, baseURL, model string) []error {
	var errs []error
	if provider.RequiresAPIKey() && apiKey == "" {
		errs = append(errs, domain.NewConfigurationError(section+".api_key",
			"required for %s, set it in the config file or with %s", provider, EnvAPIKey))
	}
	if provider.RequiresBaseURL() && baseURL == "" {
		errs = append(errs, domain.NewConfigurationError(section+".base_url",
			"required for %s, set it in the config file or with %s", provider, EnvAPIBase))
	}
	if model == "" {
		errs = append(errs, domain.NewConfigurationError(section+".model", "required"))
	}
	return errs
}

func providerList(providers []domain.AIProvider) string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.String()
	}
	return strings.Join(names, ", ")
}
