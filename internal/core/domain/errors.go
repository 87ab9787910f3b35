package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent pipeline failures.
// Typed errors below unwrap to these sentinels so callers can use errors.Is.
var (
	// ErrConfiguration indicates invalid or missing configuration. Fatal at startup.
	ErrConfiguration = errors.New("configuration error")

	// ErrCorpusEmpty indicates the corpus held no ingestible documents.
	// It is advisory: the session still starts.
	ErrCorpusEmpty = errors.New("corpus is empty")

	// ErrEmbeddingService indicates a failed call to the embedding service.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrEmbeddingModelMismatch indicates a query was embedded with a different
	// model than the one the index was built with.
	ErrEmbeddingModelMismatch = errors.New("embedding model mismatch")

	// ErrRetrievalUnavailable indicates retrieval failed after all retries.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrGenerationService indicates a failed call to the language model.
	ErrGenerationService = errors.New("generation service error")

	// ErrMemoryUpdate indicates the conversation summary could not be updated.
	ErrMemoryUpdate = errors.New("memory update failed")

	// ErrSessionTerminated indicates a question was asked after the session ended.
	ErrSessionTerminated = errors.New("session terminated")

	// ErrUnsupportedType indicates an unknown provider, backend or file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")
)

// ConfigurationError reports an invalid configuration value.
type ConfigurationError struct {
	// Field is the configuration key, e.g. "chunking.overlap".
	Field string

	// Reason describes what is wrong with it.
	Reason string
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// Unwrap returns ErrConfiguration.
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// CorpusEmptyWarningMessage is shown to the user when no files were ingested.
const CorpusEmptyWarningMessage = "Warning: No files found, please add files to the data directory."

// CorpusEmptyWarning is raised once, at session start, when the corpus
// held no ingestible documents.
type CorpusEmptyWarning struct {
	// Directory is the corpus location that was loaded.
	Directory string
}

func (w *CorpusEmptyWarning) Error() string {
	return CorpusEmptyWarningMessage
}

// Unwrap returns ErrCorpusEmpty.
func (w *CorpusEmptyWarning) Unwrap() error {
	return ErrCorpusEmpty
}
