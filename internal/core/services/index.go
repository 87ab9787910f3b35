package services

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
	"github.com/custodia-labs/guru-cli/internal/logger"
)

// IndexConfig controls how an index is built and queried.
type IndexConfig struct {
	// BatchSize is the number of chunks per embedding request. One sends
	// each chunk on its own.
	BatchSize int

	// Concurrency bounds the embedding requests in flight during a build.
	Concurrency int

	// RequestsPerSecond throttles build requests. Zero disables throttling.
	RequestsPerSecond float64

	// Retry governs query embedding during search.
	Retry RetryPolicy
}

// DefaultIndexConfig returns the index defaults.
func DefaultIndexConfig() IndexConfig {
	return IndexConfig{
		BatchSize:   1,
		Concurrency: 4,
		Retry:       DefaultRetryPolicy(),
	}
}

// IndexBuilder embeds chunks into a fresh vector index.
type IndexBuilder struct {
	embedder   driven.EmbeddingService
	newVectors driven.VectorIndexFactory
	cfg        IndexConfig
}

// NewIndexBuilder creates an index builder.
func NewIndexBuilder(embedder driven.EmbeddingService, vectors driven.VectorIndexFactory, cfg IndexConfig) *IndexBuilder {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &IndexBuilder{embedder: embedder, newVectors: vectors, cfg: cfg}
}

// Build embeds every chunk and returns the finished index. Any failed
// embedding call fails the whole build; no partial index is returned.
// Chunks with empty text get a zero vector without calling the service.
func (b *IndexBuilder) Build(ctx context.Context, chunks []domain.Chunk) (*Index, error) {
	logger.Section("Index build")

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to index", domain.ErrInvalidInput)
	}

	model := b.embedder.ModelName()
	vectors, err := b.embedAll(ctx, chunks)
	if err != nil {
		return nil, err
	}

	declared := 0
	if !slices.ContainsFunc(vectors, func(v []float32) bool { return v != nil }) {
		declared, err = b.declaredDimensions(ctx)
		if err != nil {
			return nil, err
		}
	}

	dims, err := fillEmpty(vectors, declared)
	if err != nil {
		return nil, err
	}

	store, err := b.newVectors(ctx, dims)
	if err != nil {
		return nil, fmt.Errorf("create vector index: %w", err)
	}

	byID := make(map[string]domain.Chunk, len(chunks))
	for i, chunk := range chunks {
		ev := domain.EmbeddingVector{ChunkID: chunk.ID, Vector: vectors[i]}
		if err := store.Add(ctx, ev.ChunkID, ev.Vector); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("store vector for chunk %d: %w", chunk.Ordinal, err)
		}
		byID[chunk.ID] = chunk
	}

	logger.Info("Indexed %d chunks with %s (%d dimensions)", len(chunks), model, dims)

	return &Index{
		embedder: b.embedder,
		model:    model,
		dims:     dims,
		vectors:  store,
		chunks:   byID,
		retry:    b.cfg.Retry,
	}, nil
}

// embedAll returns vectors aligned with chunks. Entries for empty chunks
// stay nil.
func (b *IndexBuilder) embedAll(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	var pending []int
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk.Text) != "" {
			pending = append(pending, i)
		}
	}

	vectors := make([][]float32, len(chunks))
	if len(pending) == 0 {
		logger.Debug("No chunk text to embed")
		return vectors, nil
	}

	var limiter *rate.Limiter
	if b.cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(b.cfg.RequestsPerSecond), 1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)

	for start := 0; start < len(pending); start += b.cfg.BatchSize {
		end := min(start+b.cfg.BatchSize, len(pending))
		batch := pending[start:end]

		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}
			return b.embedBatch(gctx, chunks, batch, vectors)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("Embedded %d chunks in %d requests", len(pending),
		(len(pending)+b.cfg.BatchSize-1)/b.cfg.BatchSize)
	return vectors, nil
}

// embedBatch embeds chunks[batch...] into vectors. Each goroutine writes
// only its own indices.
func (b *IndexBuilder) embedBatch(ctx context.Context, chunks []domain.Chunk, batch []int, vectors [][]float32) error {
	if len(batch) == 1 {
		i := batch[0]
		vec, err := b.embedder.Embed(ctx, chunks[i].Text)
		if err != nil {
			return fmt.Errorf("%w: chunk %d: %w", domain.ErrEmbeddingService, chunks[i].Ordinal, err)
		}
		vectors[i] = vec
		return nil
	}

	texts := make([]string, len(batch))
	for j, i := range batch {
		texts[j] = chunks[i].Text
	}
	out, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: chunks %d-%d: %w", domain.ErrEmbeddingService,
			chunks[batch[0]].Ordinal, chunks[batch[len(batch)-1]].Ordinal, err)
	}
	if len(out) != len(batch) {
		return fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbeddingService, len(out), len(batch))
	}
	for j, i := range batch {
		vectors[i] = out[j]
	}
	return nil
}

// dimensionSample is embedded once when no chunk was embedded and the
// service does not report its vector size.
const dimensionSample = "dimension check"

// declaredDimensions returns the service's vector size. Services that report
// 0, such as deployments of unknown models, are asked for one embedding.
func (b *IndexBuilder) declaredDimensions(ctx context.Context) (int, error) {
	if d := b.embedder.Dimensions(); d > 0 {
		return d, nil
	}
	vec, err := b.embedder.Embed(ctx, dimensionSample)
	if err != nil {
		return 0, fmt.Errorf("%w: dimension check: %w", domain.ErrEmbeddingService, err)
	}
	if len(vec) == 0 {
		return 0, fmt.Errorf("%w: dimension check returned an empty vector", domain.ErrEmbeddingService)
	}
	logger.Debug("Embedding dimension %d measured from a sample", len(vec))
	return len(vec), nil
}

// fillEmpty checks every embedded vector has the same length and gives the
// nil entries a zero vector of that length. With nothing embedded the
// declared dimension is used.
func fillEmpty(vectors [][]float32, declared int) (int, error) {
	dims := 0
	for i, v := range vectors {
		if v == nil {
			continue
		}
		if len(v) == 0 {
			return 0, fmt.Errorf("%w: empty vector for chunk %d", domain.ErrEmbeddingService, i)
		}
		if dims == 0 {
			dims = len(v)
			continue
		}
		if len(v) != dims {
			return 0, fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				domain.ErrEmbeddingService, i, len(v), dims)
		}
	}

	if dims == 0 {
		dims = declared
	}
	if dims <= 0 {
		return 0, fmt.Errorf("%w: unknown vector dimension", domain.ErrEmbeddingService)
	}
	for i := range vectors {
		if vectors[i] == nil {
			vectors[i] = make([]float32, dims)
		}
	}
	return dims, nil
}

// Index is a built, immutable embedding index. It is safe for concurrent
// searches.
type Index struct {
	embedder driven.EmbeddingService
	model    string
	dims     int
	vectors  driven.VectorIndex
	chunks   map[string]domain.Chunk
	retry    RetryPolicy
}

// Model returns the embedding model the index was built with.
func (ix *Index) Model() string {
	return ix.model
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	return len(ix.chunks)
}

// Dimensions returns the vector size.
func (ix *Index) Dimensions() int {
	return ix.dims
}

// Search returns the min(k, Len()) chunks most similar to query, ordered by
// descending score with ties broken by ascending ordinal. A failing query
// embedding is retried; once retries run out the error wraps
// domain.ErrRetrievalUnavailable.
func (ix *Index) Search(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	if k <= 0 {
		return domain.RetrievalResult{}, nil
	}
	if got := ix.embedder.ModelName(); got != ix.model {
		return nil, fmt.Errorf("%w: index built with %q, query embedder uses %q",
			domain.ErrEmbeddingModelMismatch, ix.model, got)
	}

	var qvec []float32
	err := ix.retry.Do(ctx, "query embedding", func(ctx context.Context) error {
		v, err := ix.embedder.Embed(ctx, query)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrEmbeddingService, err)
		}
		qvec = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
	}
	if len(qvec) != ix.dims {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index has %d",
			domain.ErrEmbeddingModelMismatch, len(qvec), ix.dims)
	}

	// Ask for every candidate so equal scores at the cut-off are resolved
	// by ordinal rather than by backend order.
	hits, err := ix.vectors.Search(ctx, qvec, len(ix.chunks))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
	}

	result := make(domain.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		chunk, ok := ix.chunks[hit.ChunkID]
		if !ok {
			logger.Warn("vector index returned unknown chunk %s", hit.ChunkID)
			continue
		}
		result = append(result, domain.RetrievalHit{Chunk: chunk, Score: hit.Similarity})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].Chunk.Ordinal < result[j].Chunk.Ordinal
	})

	if len(result) > k {
		result = result[:k]
	}
	logger.Debug("Retrieved %d of %d chunks for query", len(result), len(ix.chunks))
	return result, nil
}

// Close releases the vector backend.
func (ix *Index) Close() error {
	return ix.vectors.Close()
}
