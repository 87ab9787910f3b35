package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// buildDOCX creates a minimal archive with the given body XML.
func buildDOCX(t testing.TB, body string) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	types, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = types.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Types/>`))
	require.NoError(t, err)

	if body != "" {
		part, err := w.Create(documentPart)
		require.NoError(t, err)
		_, err = part.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body + `</w:body></w:document>`))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

func normalise(t *testing.T, body string) string {
	t.Helper()

	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:      "data/brief.docx",
		MIMEType: docxMIME,
		Content:  buildDOCX(t, body),
	})
	require.NoError(t, err)
	assert.Equal(t, "data/brief.docx", result.Document.SourcePath)
	assert.NotEmpty(t, result.Document.ID)
	return result.Document.RawText
}

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{docxMIME}, New().SupportedMIMETypes())
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_Paragraphs(t *testing.T) {
	text := normalise(t, `
<w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>
<w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>`)

	assert.Equal(t, "First paragraph\nSecond paragraph", text)
}

func TestNormalise_MultipleRuns(t *testing.T) {
	text := normalise(t, `<w:p>
<w:r><w:t xml:space="preserve">Eco</w:t></w:r>
<w:r><w:t>Wipe</w:t></w:r>
</w:p>`)

	assert.Equal(t, "EcoWipe", text)
}

func TestNormalise_TabsAndBreaks(t *testing.T) {
	text := normalise(t, `<w:p><w:r><w:t>SKU</w:t><w:tab/><w:t>EW-1</w:t><w:br/><w:t>in stock</w:t></w:r></w:p>`)

	assert.Equal(t, "SKU\tEW-1 in stock", text)
}

func TestNormalise_TableParagraphs(t *testing.T) {
	text := normalise(t, `<w:tbl><w:tr>
<w:tc><w:p><w:r><w:t>Price</w:t></w:r></w:p></w:tc>
<w:tc><w:p><w:r><w:t>4.99</w:t></w:r></w:p></w:tc>
</w:tr></w:tbl>`)

	assert.Equal(t, "Price\n4.99", text)
}

func TestNormalise_EmptyParagraphsSkipped(t *testing.T) {
	text := normalise(t, `<w:p/><w:p><w:r><w:t>  </w:t></w:r></w:p><w:p><w:r><w:t>Body</w:t></w:r></w:p>`)

	assert.Equal(t, "Body", text)
}

func TestNormalise_MissingDocumentPart(t *testing.T) {
	assert.Empty(t, normalise(t, ""))
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_InvalidZip(t *testing.T) {
	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "broken.docx",
		Content: []byte("not a zip file"),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "broken.docx")
	assert.Nil(t, result)
}

func TestParseDocumentXML_Malformed(t *testing.T) {
	_, err := parseDocumentXML(strings.NewReader("<w:p><w:r>"))
	assert.Error(t, err)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
