package tabular

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

// Ensure CSV implements the interface.
var _ driven.Normaliser = (*CSV)(nil)

// CSV handles comma and tab separated exports.
type CSV struct{}

// NewCSV creates a new CSV normaliser.
func NewCSV() *CSV {
	return &CSV{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *CSV) SupportedMIMETypes() []string {
	return []string{"text/csv", "text/tab-separated-values"}
}

// Priority returns the selection priority.
func (n *CSV) Priority() int {
	return 50
}

// Normalise parses the file and renders each record against the header.
// Rows may have differing field counts.
func (n *CSV) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw.Content, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	if raw.MIMEType == "text/tab-separated-values" {
		r.Comma = '\t'
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, raw.URI, err)
	}

	var b strings.Builder
	renderSheet(&b, "", rows)

	return &driven.NormaliseResult{
		Document: domain.Document{
			ID:         uuid.New().String(),
			SourcePath: raw.URI,
			RawText:    b.String(),
		},
	}, nil
}
