package driven

import (
	"context"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
)

// Normaliser extracts plain text from raw corpus items.
// Each normaliser handles specific MIME types (e.g., Markdown, DOCX).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise transforms a raw item into a document.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Chunking is handled by the chunker.
type NormaliseResult struct {
	// Document is the normalised document with RawText populated.
	Document domain.Document
}
