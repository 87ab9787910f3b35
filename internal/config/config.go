// Package config loads the guru configuration. Values are layered, lowest
// precedence first: built-in defaults, the config file (TOML or YAML), a
// .env file, environment variables and command-line overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
)

// Config is the complete guru configuration.
type Config struct {
	Corpus     CorpusConfig     `toml:"corpus" yaml:"corpus"`
	Chunking   ChunkingConfig   `toml:"chunking" yaml:"chunking"`
	Retrieval  RetrievalConfig  `toml:"retrieval" yaml:"retrieval"`
	Embedding  EmbeddingConfig  `toml:"embedding" yaml:"embedding"`
	LLM        LLMConfig        `toml:"llm" yaml:"llm"`
	Memory     MemoryConfig     `toml:"memory" yaml:"memory"`
	Vector     VectorConfig     `toml:"vector" yaml:"vector"`
	Transcript TranscriptConfig `toml:"transcript" yaml:"transcript"`
	Prompts    PromptsConfig    `toml:"prompts" yaml:"prompts"`
}

// CorpusConfig locates the documents to answer from.
type CorpusConfig struct {
	Directory   string `toml:"directory" yaml:"directory"`
	MaxFileSize int64  `toml:"max_file_size" yaml:"max_file_size"`
}

// ChunkingConfig sizes chunks in tokens of the given tiktoken encoding.
// An empty encoding follows the embedding model.
type ChunkingConfig struct {
	Size     int    `toml:"size" yaml:"size"`
	Overlap  int    `toml:"overlap" yaml:"overlap"`
	Encoding string `toml:"encoding" yaml:"encoding"`
}

// RetrievalConfig controls top-K search and its retry policy.
type RetrievalConfig struct {
	TopK           int      `toml:"top_k" yaml:"top_k"`
	MaxAttempts    int      `toml:"max_attempts" yaml:"max_attempts"`
	InitialBackoff Duration `toml:"initial_backoff" yaml:"initial_backoff"`
	MaxBackoff     Duration `toml:"max_backoff" yaml:"max_backoff"`
}

// EmbeddingConfig selects the embedding model and how the index is built.
type EmbeddingConfig struct {
	Provider   string `toml:"provider" yaml:"provider"`
	Client     string `toml:"client" yaml:"client"`
	Model      string `toml:"model" yaml:"model"`
	BaseURL    string `toml:"base_url" yaml:"base_url"`
	APIKey     string `toml:"api_key" yaml:"api_key"`
	APIVersion string `toml:"api_version" yaml:"api_version"`
	Dimensions int    `toml:"dimensions" yaml:"dimensions"`

	BatchSize         int     `toml:"batch_size" yaml:"batch_size"`
	Concurrency       int     `toml:"concurrency" yaml:"concurrency"`
	RequestsPerSecond float64 `toml:"requests_per_second" yaml:"requests_per_second"`
}

// LLMConfig selects the chat model.
type LLMConfig struct {
	Provider    string  `toml:"provider" yaml:"provider"`
	Client      string  `toml:"client" yaml:"client"`
	Model       string  `toml:"model" yaml:"model"`
	BaseURL     string  `toml:"base_url" yaml:"base_url"`
	APIKey      string  `toml:"api_key" yaml:"api_key"`
	APIVersion  string  `toml:"api_version" yaml:"api_version"`
	Temperature float64 `toml:"temperature" yaml:"temperature"`
	MaxTokens   int     `toml:"max_tokens" yaml:"max_tokens"`
}

// MemoryConfig bounds the conversation summary.
type MemoryConfig struct {
	MaxSummaryTokens int     `toml:"max_summary_tokens" yaml:"max_summary_tokens"`
	RetryWindow      int     `toml:"retry_window" yaml:"retry_window"`
	Temperature      float64 `toml:"temperature" yaml:"temperature"`
}

// VectorConfig selects the vector index backend.
type VectorConfig struct {
	Backend string      `toml:"backend" yaml:"backend"`
	Redis   RedisConfig `toml:"redis" yaml:"redis"`
}

// RedisConfig addresses a Redis server with the RediSearch module.
type RedisConfig struct {
	Addr           string `toml:"addr" yaml:"addr"`
	Password       string `toml:"password" yaml:"password"`
	DB             int    `toml:"db" yaml:"db"`
	IndexPrefix    string `toml:"index_prefix" yaml:"index_prefix"`
	EFConstruction int    `toml:"ef_construction" yaml:"ef_construction"`
	M              int    `toml:"m" yaml:"m"`
}

// TranscriptConfig enables the sqlite transcript store.
type TranscriptConfig struct {
	Enabled   bool   `toml:"enabled" yaml:"enabled"`
	Directory string `toml:"directory" yaml:"directory"`
}

// PromptsConfig locates user prompt overrides.
type PromptsConfig struct {
	Directory string `toml:"directory" yaml:"directory"`
}

// Vector backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Duration is a time.Duration written as a string such as "200ms".
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Directory:   "data",
			MaxFileSize: 10 << 20,
		},
		Chunking: ChunkingConfig{
			Size:     1000,
			Overlap:  0,
		},
		Retrieval: RetrievalConfig{
			TopK:           4,
			MaxAttempts:    3,
			InitialBackoff: Duration(200 * time.Millisecond),
			MaxBackoff:     Duration(2 * time.Second),
		},
		Embedding: EmbeddingConfig{
			Provider:    string(domain.AIProviderAzure),
			Client:      string(domain.AIClientEino),
			Model:       "text-embedding-ada-002",
			APIVersion:  DefaultAPIVersion,
			BatchSize:   1,
			Concurrency: 4,
		},
		LLM: LLMConfig{
			Provider:    string(domain.AIProviderAzure),
			Client:      string(domain.AIClientEino),
			Model:       "GenAIhackathon",
			APIVersion:  DefaultAPIVersion,
			Temperature: 0.7,
		},
		Memory: MemoryConfig{
			MaxSummaryTokens: 512,
			RetryWindow:      1,
		},
		Vector: VectorConfig{
			Backend: BackendMemory,
			Redis: RedisConfig{
				Addr:           "localhost:6379",
				IndexPrefix:    "guru",
				EFConstruction: 200,
				M:              16,
			},
		},
	}
}

// DefaultAPIVersion is the Azure OpenAI API version used when none is set.
const DefaultAPIVersion = "2023-03-15-preview"

// Options controls where Load looks.
type Options struct {
	// Path is an explicit config file. When empty, ~/.guru/config.toml is
	// used if it exists.
	Path string

	// EnvFile is a .env file to load. Defaults to ".env" in the working
	// directory; a missing file is ignored.
	EnvFile string

	// Overrides are applied last, keyed like the config file ("corpus.directory").
	Overrides map[string]string
}

// Load builds the configuration from all sources. It does not validate.
func Load(opts Options) (*Config, error) {
	cfg := Default()

	path := opts.Path
	if path == "" {
		if p, err := DefaultPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			}
		}
	}
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}

	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	for key, value := range opts.Overrides {
		if err := cfg.Set(key, value); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// DefaultPath returns ~/.guru/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".guru", "config.toml"), nil
}

// decodeFile merges a TOML or YAML file into cfg. Unknown keys are rejected.
func (c *Config) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.NewConfigurationError("config", "read %s: %v", path, err)
	}

	if isYAML(path) {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(c)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	} else {
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(c)
	}
	if err != nil {
		return domain.NewConfigurationError("config", "parse %s: %v", path, err)
	}
	return nil
}

// Encode writes cfg in the format matching path's extension.
func (c *Config) Encode(path string) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(c)
	}
	return toml.Marshal(c)
}

// Save writes cfg to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := c.Encode(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Redacted returns a copy with API keys and passwords masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.Embedding.APIKey = mask(c.Embedding.APIKey)
	out.LLM.APIKey = mask(c.LLM.APIKey)
	out.Vector.Redis.Password = mask(c.Vector.Redis.Password)
	return &out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + strings.Repeat("*", 4) + secret[len(secret)-4:]
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// String renders the config as TOML for logs.
func (c *Config) String() string {
	data, err := toml.Marshal(c.Redacted())
	if err != nil {
		return fmt.Sprintf("%+v", *c.Redacted())
	}
	return string(data)
}
