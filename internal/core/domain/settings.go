package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderAzure is Azure OpenAI, addressed by deployment name.
	AIProviderAzure AIProvider = "azure"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderAnthropic is Anthropic cloud API. It has no embedding models.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderAzure, AIProviderOpenAI, AIProviderOllama, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderAzure || p == AIProviderOpenAI || p == AIProviderAnthropic
}

// RequiresBaseURL returns true if this provider has no usable default endpoint.
func (p AIProvider) RequiresBaseURL() bool {
	return p == AIProviderAzure
}

// SupportsEmbeddings returns true if the provider offers embedding models.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderAzure || p == AIProviderOpenAI || p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderAzure:
		return "Azure OpenAI (cloud)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// AIClient selects the client used for Azure and OpenAI providers.
type AIClient string

const (
	// AIClientEino uses the cloudwego/eino OpenAI components. It is the default.
	AIClientEino AIClient = "eino"

	// AIClientHTTP uses the built-in REST client.
	AIClientHTTP AIClient = "http"
)

// IsValid returns true for a known client, or the empty default.
func (c AIClient) IsValid() bool {
	return c == "" || c == AIClientEino || c == AIClientHTTP
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name, or the deployment name on Azure.
	// It is pinned for the lifetime of an index.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key.
	APIKey string

	// APIVersion is the Azure API version.
	APIVersion string

	// Client selects the client for Azure and OpenAI.
	Client AIClient

	// Dimensions overrides the known vector size of Model.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	if e.Provider.RequiresBaseURL() && e.BaseURL == "" {
		return false
	}
	return e.Model != ""
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the model name, or the deployment name on Azure.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key.
	APIKey string

	// APIVersion is the Azure API version.
	APIVersion string

	// Client selects the client for Azure and OpenAI.
	Client AIClient
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	if l.Provider.RequiresBaseURL() && l.BaseURL == "" {
		return false
	}
	return l.Model != ""
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderAzure,
		AIProviderOpenAI,
		AIProviderOllama,
	}
}

// AllLLMProviders returns providers that support chat completion.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderAzure,
		AIProviderOpenAI,
		AIProviderOllama,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderAzure:  "text-embedding-ada-002",
		AIProviderOpenAI: "text-embedding-ada-002",
		AIProviderOllama: "nomic-embed-text",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderAzure:     "GenAIhackathon",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderOllama:    "llama3.2",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
