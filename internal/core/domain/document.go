package domain

// PlaceholderDocumentID is the document ID of the single empty chunk
// produced when the corpus holds no ingestible documents.
const PlaceholderDocumentID = "placeholder"

// Document is the text extracted from one corpus file.
// Documents are created once per ingestion run and never modified.
type Document struct {
	// ID is a unique identifier (UUID).
	ID string

	// SourcePath identifies the originating file, used for citations.
	SourcePath string

	// RawText is the extracted plain text.
	RawText string
}

// Chunk is a token-bounded contiguous span of a document.
type Chunk struct {
	// ID is a unique identifier (UUID).
	ID string

	// DocumentID links the chunk to its parent document.
	DocumentID string

	// SourcePath is copied from the parent document.
	SourcePath string

	// Text is the decoded text of the chunk's tokens.
	Text string

	// TokenCount is the number of tokens in Text. Never exceeds the chunk size.
	TokenCount int

	// Ordinal is the chunk's position across the whole corpus, starting at 0.
	Ordinal int
}

// IsPlaceholder reports whether the chunk stands in for an empty corpus.
func (c Chunk) IsPlaceholder() bool {
	return c.DocumentID == PlaceholderDocumentID
}

// EmbeddingVector pairs a chunk with its embedding.
type EmbeddingVector struct {
	ChunkID string
	Vector  []float32
}
