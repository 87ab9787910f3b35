package driven

import "context"

// VectorIndex stores chunk vectors and answers nearest-neighbour queries.
// Each session owns one VectorIndex; it is filled once at build time and
// only read afterwards.
type VectorIndex interface {
	// Add inserts a vector for the given chunk ID.
	Add(ctx context.Context, chunkID string, embedding []float32) error

	// Search finds the k nearest neighbours to the query vector by cosine similarity.
	// Hits are ordered by descending similarity.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of stored vectors.
	Len() int

	// Close releases resources and discards stored vectors.
	Close() error
}

// VectorIndexFactory creates an empty VectorIndex for vectors of the given size.
type VectorIndexFactory func(ctx context.Context, dimensions int) (VectorIndex, error)

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score.
	Similarity float64
}
