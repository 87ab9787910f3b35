package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

type stubNormaliser struct {
	name     string
	priority int
	mimes    []string
}

func (s *stubNormaliser) SupportedMIMETypes() []string { return s.mimes }
func (s *stubNormaliser) Priority() int                { return s.priority }

func (s *stubNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	return &driven.NormaliseResult{
		Document: domain.Document{ID: s.name, SourcePath: raw.URI, RawText: string(raw.Content)},
	}, nil
}

func TestRegistry_PicksHighestPriority(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{name: "fallback", priority: 5, mimes: []string{"text/markdown"}})
	r.Register(&stubNormaliser{name: "markdown", priority: 50, mimes: []string{"text/markdown"}})

	result, err := r.Normalise(context.Background(), &domain.RawDocument{
		URI:      "a.md",
		MIMEType: "text/markdown",
		Content:  []byte("hi"),
	})
	require.NoError(t, err)
	assert.Equal(t, "markdown", result.Document.ID)
}

func TestRegistry_TiesKeepRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{name: "first", priority: 50, mimes: []string{"text/plain"}})
	r.Register(&stubNormaliser{name: "second", priority: 50, mimes: []string{"text/plain"}})

	result, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, "first", result.Document.ID)
}

func TestRegistry_IgnoresMIMEParameters(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{name: "plain", priority: 5, mimes: []string{"text/plain"}})

	assert.True(t, r.Supports("Text/Plain; charset=utf-8"))
}

func TestRegistry_UnsupportedType(t *testing.T) {
	r := NewRegistry()

	_, err := r.Normalise(context.Background(), &domain.RawDocument{URI: "logo.png", MIMEType: "image/png"})

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.Contains(t, err.Error(), "logo.png")
}

func TestRegistry_NilDocument(t *testing.T) {
	_, err := NewRegistry().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDefaults_CoversCorpusFormats(t *testing.T) {
	r := Defaults()

	for _, mime := range []string{
		"text/plain",
		"text/markdown",
		"text/html",
		"text/csv",
		"application/pdf",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	} {
		assert.True(t, r.Supports(mime), mime)
	}

	types := r.SupportedMIMETypes()
	assert.IsIncreasing(t, types)
}

func TestDefaults_NormalisesPlainText(t *testing.T) {
	result, err := Defaults().Normalise(context.Background(), &domain.RawDocument{
		URI:      "data/products.txt",
		MIMEType: "text/plain",
		Content:  []byte("Our flagship product is EcoWipe."),
	})
	require.NoError(t, err)
	assert.Equal(t, "Our flagship product is EcoWipe.", result.Document.RawText)
}
