package tabular

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

// Ensure XLSX implements the interface.
var _ driven.Normaliser = (*XLSX)(nil)

// XLSX handles Excel workbooks.
type XLSX struct{}

// NewXLSX creates a new Excel normaliser.
func NewXLSX() *XLSX {
	return &XLSX{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *XLSX) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-excel.sheet.macroEnabled.12",
	}
}

// Priority returns the selection priority.
func (n *XLSX) Priority() int {
	return 50
}

// Normalise renders every sheet in workbook order. Cells hold their
// formatted values; formulas are not expanded.
func (n *XLSX) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, raw.URI, err)
	}
	defer func() { _ = f.Close() }()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: sheet %q: %w", domain.ErrInvalidInput, raw.URI, sheet, err)
		}
		renderSheet(&b, sheet, rows)
	}

	return &driven.NormaliseResult{
		Document: domain.Document{
			ID:         uuid.New().String(),
			SourcePath: raw.URI,
			RawText:    b.String(),
		},
	}, nil
}
