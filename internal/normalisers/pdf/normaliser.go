// Package pdf extracts the text layer of PDF files.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PDF documents. Scanned PDFs without a text layer
// produce empty documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts plain text page by page.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text, err := extractText(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, raw.URI, err)
	}

	return &driven.NormaliseResult{
		Document: domain.Document{
			ID:         uuid.New().String(),
			SourcePath: raw.URI,
			RawText:    text,
		},
	}, nil
}

// extractText runs the PDF reader over data. The reader panics on some
// malformed cross-reference tables, so panics are reported as errors.
func extractText(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	out, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(out)), nil
}
