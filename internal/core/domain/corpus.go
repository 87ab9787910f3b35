package domain

// CorpusStats summarises a loaded and chunked corpus.
type CorpusStats struct {
	Directory string

	// Documents is the number of ingested documents.
	Documents int

	// Skipped lists items that could not be read or normalised.
	Skipped []string

	// Chunks is the number of chunks, including the empty-corpus placeholder.
	Chunks int

	// Tokens is the total token count over all chunks.
	Tokens int

	// MaxChunkTokens is the largest chunk's token count.
	MaxChunkTokens int

	// PerSource maps a source path to its chunk count.
	PerSource map[string]int

	// Empty is true when the corpus held no ingestible documents.
	Empty bool
}
