package domain

// RetrievalHit is a chunk and its similarity to a query.
type RetrievalHit struct {
	Chunk Chunk

	// Score is the cosine similarity between the query and the chunk, in [-1, 1].
	Score float64
}

// RetrievalResult is ordered by descending score, ties broken by ascending
// chunk ordinal. It is never persisted.
type RetrievalResult []RetrievalHit

// Chunks returns the chunks of the result in order.
func (r RetrievalResult) Chunks() []Chunk {
	chunks := make([]Chunk, len(r))
	for i := range r {
		chunks[i] = r[i].Chunk
	}
	return chunks
}
