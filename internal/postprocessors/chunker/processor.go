// Package chunker splits documents into token-bounded, overlapping chunks.
package chunker

import (
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of tokens per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of tokens shared by consecutive chunks.
const DefaultChunkOverlap = 0

// Processor splits documents into chunks of at most chunkSize tokens.
type Processor struct {
	tokenizer driven.Tokenizer
	chunkSize int
	overlap   int
	newID     func() string
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in tokens.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in tokens.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithIDFunc replaces the chunk ID generator. Defaults to random UUIDs.
func WithIDFunc(fn func() string) Option {
	return func(p *Processor) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// New creates a chunker. It returns a *domain.ConfigurationError when the
// chunk size is not positive or the overlap does not leave room for the
// window to advance.
func New(tokenizer driven.Tokenizer, opts ...Option) (*Processor, error) {
	p := &Processor{
		tokenizer: tokenizer,
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		newID:     func() string { return uuid.New().String() },
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := Validate(p.chunkSize, p.overlap); err != nil {
		return nil, err
	}
	if tokenizer == nil {
		return nil, domain.NewConfigurationError("chunking.encoding", "tokenizer is required")
	}

	return p, nil
}

// Validate checks a chunk size and overlap pair.
func Validate(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return domain.NewConfigurationError("chunking.size", "must be positive, got %d", chunkSize)
	}
	if overlap < 0 {
		return domain.NewConfigurationError("chunking.overlap", "must not be negative, got %d", overlap)
	}
	if overlap >= chunkSize {
		return domain.NewConfigurationError("chunking.overlap",
			"must be less than chunk size %d, got %d", chunkSize, overlap)
	}
	return nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size in tokens.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap in tokens.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Split chunks the documents in order. Ordinals run across all documents.
//
// When docs is empty, Split returns a single empty placeholder chunk and a
// CorpusEmptyWarning so the index is never empty. A document whose text
// encodes to zero tokens produces no chunks.
func (p *Processor) Split(docs []domain.Document) ([]domain.Chunk, *domain.CorpusEmptyWarning) {
	if len(docs) == 0 {
		return []domain.Chunk{p.placeholder()}, &domain.CorpusEmptyWarning{}
	}

	var chunks []domain.Chunk
	for i := range docs {
		chunks = p.splitDocument(&docs[i], chunks)
	}

	if len(chunks) == 0 {
		return []domain.Chunk{p.placeholder()}, &domain.CorpusEmptyWarning{}
	}
	return chunks, nil
}

// splitDocument appends the chunks of doc to chunks.
//
// Byte-level BPE tokens can end inside a multi-byte character, so window
// edges are moved to the nearest token that keeps the text valid UTF-8:
// the end moves back and the overlap start moves forward. A window too
// small to hold one whole character is cut as is.
func (p *Processor) splitDocument(doc *domain.Document, chunks []domain.Chunk) []domain.Chunk {
	tokens := p.tokenizer.Encode(doc.RawText)
	n := len(tokens)

	for start := 0; start < n; {
		end := min(start+p.chunkSize, n)
		text := p.tokenizer.Decode(tokens[start:end])
		for cut := end - 1; !utf8.ValidString(text) && cut > start; cut-- {
			if t := p.tokenizer.Decode(tokens[start:cut]); utf8.ValidString(t) {
				end, text = cut, t
			}
		}

		chunks = append(chunks, domain.Chunk{
			ID:         p.newID(),
			DocumentID: doc.ID,
			SourcePath: doc.SourcePath,
			Text:       text,
			TokenCount: end - start,
			Ordinal:    len(chunks),
		})

		if end == n {
			break
		}

		next := end - p.overlap
		for next < end && !utf8.ValidString(p.tokenizer.Decode(tokens[next:end])) {
			next++
		}
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

func (p *Processor) placeholder() domain.Chunk {
	return domain.Chunk{
		ID:         p.newID(),
		DocumentID: domain.PlaceholderDocumentID,
	}
}
