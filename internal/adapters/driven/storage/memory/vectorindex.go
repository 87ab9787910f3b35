// Package memory provides in-process implementations of driven ports.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an exact cosine-similarity index held in memory.
// Equal similarities are returned in insertion order.
type VectorIndex struct {
	mu     sync.RWMutex
	dims   int
	ids    []string
	vecs   [][]float32
	norms  []float64
	byID   map[string]int
	closed bool
}

// NewVectorIndex creates an empty index for vectors of size dims.
func NewVectorIndex(dims int) *VectorIndex {
	return &VectorIndex{
		dims: dims,
		byID: make(map[string]int),
	}
}

// Factory adapts NewVectorIndex to driven.VectorIndexFactory.
func Factory(_ context.Context, dims int) (driven.VectorIndex, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("%w: vector dimensions must be positive, got %d", domain.ErrInvalidInput, dims)
	}
	return NewVectorIndex(dims), nil
}

// Add stores a copy of embedding under chunkID, replacing any previous vector.
func (v *VectorIndex) Add(_ context.Context, chunkID string, embedding []float32) error {
	if len(embedding) != v.dims {
		return fmt.Errorf("%w: vector has %d dimensions, index expects %d",
			domain.ErrInvalidInput, len(embedding), v.dims)
	}

	vec := append([]float32(nil), embedding...)
	norm := l2(vec)

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return fmt.Errorf("%w: vector index is closed", domain.ErrInvalidInput)
	}
	if i, ok := v.byID[chunkID]; ok {
		v.vecs[i] = vec
		v.norms[i] = norm
		return nil
	}
	v.byID[chunkID] = len(v.ids)
	v.ids = append(v.ids, chunkID)
	v.vecs = append(v.vecs, vec)
	v.norms = append(v.norms, norm)
	return nil
}

// Search scores every stored vector and returns the k best. A zero vector
// on either side scores 0.
func (v *VectorIndex) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != v.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index expects %d",
			domain.ErrInvalidInput, len(query), v.dims)
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if k <= 0 || len(v.ids) == 0 {
		return []driven.VectorHit{}, nil
	}

	qnorm := l2(query)
	hits := make([]driven.VectorHit, len(v.ids))
	for i, vec := range v.vecs {
		hits[i] = driven.VectorHit{
			ChunkID:    v.ids[i],
			Similarity: cosine(query, vec, qnorm, v.norms[i]),
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of stored vectors.
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.ids)
}

// Close discards all vectors.
func (v *VectorIndex) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ids, v.vecs, v.norms = nil, nil, nil
	v.byID = make(map[string]int)
	v.closed = true
	return nil
}

func l2(vec []float32) float64 {
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (na * nb)
}
