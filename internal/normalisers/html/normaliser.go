package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise drops markup, scripts and the document head, keeping one line
// per block element.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	return &driven.NormaliseResult{
		Document: domain.Document{
			ID:         uuid.New().String(),
			SourcePath: raw.URI,
			RawText:    stripHTML(string(raw.Content)),
		},
	}, nil
}

// dropped lists elements whose content never reaches the corpus.
var dropped = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
	regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`),
	regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`),
	regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`),
	regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`),
	regexp.MustCompile(`(?is)<template[^>]*>.*?</template>`),
	regexp.MustCompile(`(?s)<!--.*?-->`),
}

var (
	blockBoundary = regexp.MustCompile(
		`(?i)</?(p|div|br|hr|h[1-6]|li|ul|ol|tr|td|th|dt|dd|blockquote|pre|table|section|article|header|footer|nav|main)(\s[^>]*)?/?>`)
	anyTag      = regexp.MustCompile(`<[^>]+>`)
	inlineSpace = regexp.MustCompile(`[ \t\r\f\v\x{00a0}]+`)
)

// stripHTML turns markup into newline-separated text with entities decoded.
func stripHTML(content string) string {
	for _, re := range dropped {
		content = re.ReplaceAllString(content, "")
	}

	content = blockBoundary.ReplaceAllString(content, "\n")
	content = anyTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}
