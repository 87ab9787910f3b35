package normalisers

import (
	"github.com/custodia-labs/guru-cli/internal/normalisers/docx"
	"github.com/custodia-labs/guru-cli/internal/normalisers/html"
	"github.com/custodia-labs/guru-cli/internal/normalisers/markdown"
	"github.com/custodia-labs/guru-cli/internal/normalisers/pdf"
	"github.com/custodia-labs/guru-cli/internal/normalisers/plaintext"
	"github.com/custodia-labs/guru-cli/internal/normalisers/tabular"
)

// Defaults returns a registry holding every built-in normaliser.
func Defaults() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	r.Register(pdf.New())
	r.Register(tabular.NewCSV())
	r.Register(tabular.NewXLSX())
	return r
}
