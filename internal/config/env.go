package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
)

// Environment variables understood besides the GURU_* overrides.
const (
	EnvDataDirectory = "DATA_DIRECTORY"
	EnvProjectPath   = "PROJECT_PATH"
	EnvAPIType       = "OPENAI_API_TYPE"
	EnvAPIBase       = "OPENAI_API_BASE"
	EnvAPIKey        = "OPENAI_API_KEY"
	EnvAPIVersion    = "OPENAI_API_VERSION"

	envPrefix = "GURU_"
)

// loadEnvFile loads a .env file into the process environment. Variables
// already set win over the file.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return domain.NewConfigurationError("env_file", "load %s: %v", path, err)
}

// applyEnv overlays environment variables. OPENAI_* configure both the
// embedding and the chat model; GURU_<SECTION>_<KEY> sets any single key,
// e.g. GURU_RETRIEVAL_TOP_K or GURU_VECTOR_REDIS_ADDR.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if dir, ok := lookup(EnvProjectPath); ok && dir != "" {
		c.Corpus.Directory = dir
	}
	if dir, ok := lookup(EnvDataDirectory); ok && dir != "" {
		c.Corpus.Directory = dir
	}

	if apiType, ok := lookup(EnvAPIType); ok && apiType != "" {
		provider, err := providerFromAPIType(apiType)
		if err != nil {
			return err
		}
		c.switchProvider(domain.AIProvider(provider))
	}
	if base, ok := lookup(EnvAPIBase); ok && base != "" {
		c.Embedding.BaseURL = base
		c.LLM.BaseURL = base
	}
	if key, ok := lookup(EnvAPIKey); ok && key != "" {
		c.Embedding.APIKey = key
		c.LLM.APIKey = key
	}
	if version, ok := lookup(EnvAPIVersion); ok && version != "" {
		c.Embedding.APIVersion = version
		c.LLM.APIVersion = version
	}

	for _, key := range Keys() {
		name := envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if value, ok := lookup(name); ok && value != "" {
			if err := c.Set(key, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// switchProvider points both models at provider. Models still at the
// previous provider's default move to the new provider's default, since an
// Azure deployment name means nothing elsewhere.
func (c *Config) switchProvider(provider domain.AIProvider) {
	embModels := domain.DefaultEmbeddingModels()
	if c.Embedding.Model == embModels[domain.AIProvider(c.Embedding.Provider)] {
		if m, ok := embModels[provider]; ok {
			c.Embedding.Model = m
		}
	}
	llmModels := domain.DefaultLLMModels()
	if c.LLM.Model == llmModels[domain.AIProvider(c.LLM.Provider)] {
		if m, ok := llmModels[provider]; ok {
			c.LLM.Model = m
		}
	}
	c.Embedding.Provider = string(provider)
	c.LLM.Provider = string(provider)
}

// providerFromAPIType maps the openai SDK's api_type values to providers.
func providerFromAPIType(apiType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(apiType)) {
	case "azure", "azure_ad", "azuread":
		return string(domain.AIProviderAzure), nil
	case "open_ai", "openai":
		return string(domain.AIProviderOpenAI), nil
	default:
		return "", domain.NewConfigurationError(EnvAPIType, "unsupported api type %q, use azure or open_ai", apiType)
	}
}
