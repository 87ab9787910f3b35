package pdf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{"application/pdf"}, New().SupportedMIMETypes())
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_EmptyContent(t *testing.T) {
	result, err := New().Normalise(context.Background(), &domain.RawDocument{URI: "data/empty.pdf"})

	require.NoError(t, err)
	assert.Equal(t, "data/empty.pdf", result.Document.SourcePath)
	assert.Empty(t, result.Document.RawText)
}

func TestNormalise_NotAPDF(t *testing.T) {
	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "data/fake.pdf",
		Content: []byte("this is plain text with a pdf extension"),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "data/fake.pdf")
	assert.Nil(t, result)
}

func TestNormalise_TruncatedPDF(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "data/truncated.pdf",
		Content: []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\n"),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = New()
}
