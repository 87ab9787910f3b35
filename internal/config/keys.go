package config

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
)

// setter parses a string into one config field.
type setter func(c *Config, value string) error

func stringField(get func(c *Config) *string) setter {
	return func(c *Config, value string) error {
		*get(c) = value
		return nil
	}
}

func intField(key string, get func(c *Config) *int) setter {
	return func(c *Config, value string) error {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return domain.NewConfigurationError(key, "not an integer: %q", value)
		}
		*get(c) = n
		return nil
	}
}

func int64Field(key string, get func(c *Config) *int64) setter {
	return func(c *Config, value string) error {
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return domain.NewConfigurationError(key, "not an integer: %q", value)
		}
		*get(c) = n
		return nil
	}
}

func floatField(key string, get func(c *Config) *float64) setter {
	return func(c *Config, value string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return domain.NewConfigurationError(key, "not a number: %q", value)
		}
		*get(c) = f
		return nil
	}
}

func boolField(key string, get func(c *Config) *bool) setter {
	return func(c *Config, value string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return domain.NewConfigurationError(key, "not a boolean: %q", value)
		}
		*get(c) = b
		return nil
	}
}

func durationField(key string, get func(c *Config) *Duration) setter {
	return func(c *Config, value string) error {
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return domain.NewConfigurationError(key, "not a duration: %q", value)
		}
		*get(c) = Duration(d)
		return nil
	}
}

// fields maps every config key to its setter.
var fields = map[string]setter{
	"corpus.directory":     stringField(func(c *Config) *string { return &c.Corpus.Directory }),
	"corpus.max_file_size": int64Field("corpus.max_file_size", func(c *Config) *int64 { return &c.Corpus.MaxFileSize }),

	"chunking.size":     intField("chunking.size", func(c *Config) *int { return &c.Chunking.Size }),
	"chunking.overlap":  intField("chunking.overlap", func(c *Config) *int { return &c.Chunking.Overlap }),
	"chunking.encoding": stringField(func(c *Config) *string { return &c.Chunking.Encoding }),

	"retrieval.top_k":           intField("retrieval.top_k", func(c *Config) *int { return &c.Retrieval.TopK }),
	"retrieval.max_attempts":    intField("retrieval.max_attempts", func(c *Config) *int { return &c.Retrieval.MaxAttempts }),
	"retrieval.initial_backoff": durationField("retrieval.initial_backoff", func(c *Config) *Duration { return &c.Retrieval.InitialBackoff }),
	"retrieval.max_backoff":     durationField("retrieval.max_backoff", func(c *Config) *Duration { return &c.Retrieval.MaxBackoff }),

	"embedding.provider":            stringField(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.client":              stringField(func(c *Config) *string { return &c.Embedding.Client }),
	"embedding.model":               stringField(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.base_url":            stringField(func(c *Config) *string { return &c.Embedding.BaseURL }),
	"embedding.api_key":             stringField(func(c *Config) *string { return &c.Embedding.APIKey }),
	"embedding.api_version":         stringField(func(c *Config) *string { return &c.Embedding.APIVersion }),
	"embedding.dimensions":          intField("embedding.dimensions", func(c *Config) *int { return &c.Embedding.Dimensions }),
	"embedding.batch_size":          intField("embedding.batch_size", func(c *Config) *int { return &c.Embedding.BatchSize }),
	"embedding.concurrency":         intField("embedding.concurrency", func(c *Config) *int { return &c.Embedding.Concurrency }),
	"embedding.requests_per_second": floatField("embedding.requests_per_second", func(c *Config) *float64 { return &c.Embedding.RequestsPerSecond }),

	"llm.provider":    stringField(func(c *Config) *string { return &c.LLM.Provider }),
	"llm.client":      stringField(func(c *Config) *string { return &c.LLM.Client }),
	"llm.model":       stringField(func(c *Config) *string { return &c.LLM.Model }),
	"llm.base_url":    stringField(func(c *Config) *string { return &c.LLM.BaseURL }),
	"llm.api_key":     stringField(func(c *Config) *string { return &c.LLM.APIKey }),
	"llm.api_version": stringField(func(c *Config) *string { return &c.LLM.APIVersion }),
	"llm.temperature": floatField("llm.temperature", func(c *Config) *float64 { return &c.LLM.Temperature }),
	"llm.max_tokens":  intField("llm.max_tokens", func(c *Config) *int { return &c.LLM.MaxTokens }),

	"memory.max_summary_tokens": intField("memory.max_summary_tokens", func(c *Config) *int { return &c.Memory.MaxSummaryTokens }),
	"memory.retry_window":       intField("memory.retry_window", func(c *Config) *int { return &c.Memory.RetryWindow }),
	"memory.temperature":        floatField("memory.temperature", func(c *Config) *float64 { return &c.Memory.Temperature }),

	"vector.backend":               stringField(func(c *Config) *string { return &c.Vector.Backend }),
	"vector.redis.addr":            stringField(func(c *Config) *string { return &c.Vector.Redis.Addr }),
	"vector.redis.password":        stringField(func(c *Config) *string { return &c.Vector.Redis.Password }),
	"vector.redis.db":              intField("vector.redis.db", func(c *Config) *int { return &c.Vector.Redis.DB }),
	"vector.redis.index_prefix":    stringField(func(c *Config) *string { return &c.Vector.Redis.IndexPrefix }),
	"vector.redis.ef_construction": intField("vector.redis.ef_construction", func(c *Config) *int { return &c.Vector.Redis.EFConstruction }),
	"vector.redis.m":               intField("vector.redis.m", func(c *Config) *int { return &c.Vector.Redis.M }),

	"transcript.enabled":   boolField("transcript.enabled", func(c *Config) *bool { return &c.Transcript.Enabled }),
	"transcript.directory": stringField(func(c *Config) *string { return &c.Transcript.Directory }),

	"prompts.directory": stringField(func(c *Config) *string { return &c.Prompts.Directory }),
}

// Set assigns a value given as a string to the key, e.g. "chunking.size".
func (c *Config) Set(key, value string) error {
	set, ok := fields[key]
	if !ok {
		return domain.NewConfigurationError(key, "unknown configuration key")
	}
	return set(c, value)
}

// Keys returns every configuration key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsKey reports whether key names a configuration field.
func IsKey(key string) bool {
	_, ok := fields[key]
	return ok
}

// Value returns the typed value of key as it would be written to a config
// file: durations as strings, numbers as int64 or float64.
func (c *Config) Value(key string) (any, bool) {
	if !IsKey(key) {
		return nil, false
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return nil, false
	}
	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return nil, false
	}

	var node any = tree
	for _, part := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		if node, ok = m[part]; !ok {
			return nil, false
		}
	}
	return node, true
}
