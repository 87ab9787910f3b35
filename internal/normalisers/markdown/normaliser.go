// Package markdown reduces Markdown files to the plain text the chunker sees.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise strips Markdown syntax and keeps the readable text. Fenced code
// keeps its body since product sheets often carry tables and specs there.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	return &driven.NormaliseResult{
		Document: domain.Document{
			ID:         uuid.New().String(),
			SourcePath: raw.URI,
			RawText:    stripMarkdown(string(raw.Content)),
		},
	}, nil
}

var (
	codeFence     = regexp.MustCompile("(?m)^[ \t]*(```|~~~)[^\n]*$")
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	images        = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	bold          = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	boldUnder     = regexp.MustCompile(`(^|\W)__([^_\n]+)__`)
	italic        = regexp.MustCompile(`\*([^*\n]+)\*`)
	italicUnder   = regexp.MustCompile(`(^|\W)_([^_\n]+)_(\W|$)`)
	blockquote    = regexp.MustCompile(`(?m)^>\s?`)
	rule          = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	bullets       = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	numbered      = regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t]+`)
	tableDivider  = regexp.MustCompile(`(?m)^[ \t]*\|?[ \t]*:?-{3,}:?[ \t]*(\|[ \t]*:?-{3,}:?[ \t]*)*\|?[ \t]*$`)
	htmlComment   = regexp.MustCompile(`(?s)<!--.*?-->`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes common markdown formatting for plain text content.
func stripMarkdown(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = htmlComment.ReplaceAllString(content, "")
	content = codeFence.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = blockquote.ReplaceAllString(content, "")
	content = tableDivider.ReplaceAllString(content, "")
	content = rule.ReplaceAllString(content, "")
	content = bullets.ReplaceAllString(content, "")
	content = numbered.ReplaceAllString(content, "")
	content = bold.ReplaceAllString(content, "$1")
	content = boldUnder.ReplaceAllString(content, "$1$2")
	content = italic.ReplaceAllString(content, "$1")
	content = italicUnder.ReplaceAllString(content, "$1$2$3")
	content = multiNewlines.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
