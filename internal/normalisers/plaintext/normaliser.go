// Package plaintext provides the fallback Normaliser for text files.
package plaintext

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/x-go",
		"text/x-python",
		"text/x-shellscript",
		"text/x-sql",
		"text/yaml",
		"text/toml",
		"text/javascript",
		"text/css",
		"application/json",
		"application/xml",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise converts raw bytes to a document. Invalid UTF-8 sequences are
// replaced so downstream tokenisation always sees valid text.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := string(raw.Content)
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "�")
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")

	return &driven.NormaliseResult{
		Document: domain.Document{
			ID:         uuid.New().String(),
			SourcePath: raw.URI,
			RawText:    strings.TrimSpace(content),
		},
	}, nil
}
