// Package docx extracts paragraph text from Word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const documentPart = "word/document.xml"

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise reads word/document.xml from the archive and emits one line per
// paragraph, including paragraphs nested in tables.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a docx archive: %w", domain.ErrInvalidInput, raw.URI, err)
	}

	text, err := documentText(reader)
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

// documentText returns the text of the main document part. An archive
// without one yields empty text.
func documentText(reader *zip.Reader) (string, error) {
	for _, file := range reader.File {
		if file.Name != documentPart {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return parseDocumentXML(rc)
	}
	return "", nil
}

// parseDocumentXML walks the WordprocessingML token stream. Text runs are
// concatenated, tabs and breaks are kept, and each paragraph ends a line.
func parseDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		out    strings.Builder
		line   strings.Builder
		inText bool
	)
	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			if out.Len() > 0 {
				out.WriteByte('\n')
			}
			out.WriteString(s)
		}
		line.Reset()
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inText = true
			case "tab":
				line.WriteByte('\t')
			case "br", "cr":
				line.WriteByte(' ')
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				line.Write(el)
			}
		}
	}
	flush()

	return out.String(), nil
}
