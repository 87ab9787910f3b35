// Package redis provides a VectorIndex backed by Redis with the RediSearch
// module. Each index lives under its own key prefix and is dropped on Close.
package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.VectorIndex = (*VectorIndex)(nil)

const (
	defaultEFConstruction = 200
	defaultM              = 16
	defaultPoolSize       = 10

	fieldVector  = "vector"
	fieldChunkID = "chunk_id"
	scoreAlias   = "score"
)

// Config holds the Redis connection and HNSW parameters.
type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int

	// IndexPrefix namespaces index names and keys. Defaults to "guru".
	IndexPrefix string

	EFConstruction int
	M              int
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.PoolSize <= 0 {
		c.PoolSize = defaultPoolSize
	}
	if c.IndexPrefix == "" {
		c.IndexPrefix = "guru"
	}
	if c.EFConstruction <= 0 {
		c.EFConstruction = defaultEFConstruction
	}
	if c.M <= 0 {
		c.M = defaultM
	}
	return c
}

// VectorIndex stores vectors as Redis hashes indexed by an HNSW cosine index.
type VectorIndex struct {
	client    *goredis.Client
	name      string
	keyPrefix string
	dims      int
	count     atomic.Int64

	mu     sync.Mutex
	closed bool
}

// NewFactory returns a factory that opens one Redis index per call.
func NewFactory(cfg Config) driven.VectorIndexFactory {
	return func(ctx context.Context, dimensions int) (driven.VectorIndex, error) {
		return New(ctx, cfg, dimensions)
	}
}

// New connects to Redis and creates a fresh index for vectors of the given size.
func New(ctx context.Context, cfg Config, dimensions int) (*VectorIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: vector dimensions must be positive, got %d", domain.ErrInvalidInput, dimensions)
	}
	cfg = cfg.withDefaults()

	// RESP2 keeps FT.SEARCH replies as flat arrays.
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
		Protocol: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: connect to %s: %w", cfg.Addr, err)
	}

	id := uuid.New().String()
	v := &VectorIndex{
		client:    client,
		name:      cfg.IndexPrefix + ":idx:" + id,
		keyPrefix: cfg.IndexPrefix + ":vec:" + id + ":",
		dims:      dimensions,
	}

	if err := v.create(ctx, cfg); err != nil {
		_ = client.Close()
		return nil, err
	}
	return v, nil
}

func (v *VectorIndex) create(ctx context.Context, cfg Config) error {
	err := v.client.Do(ctx, "FT.CREATE", v.name,
		"ON", "HASH",
		"PREFIX", "1", v.keyPrefix,
		"SCHEMA",
		fieldVector, "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(v.dims),
		"DISTANCE_METRIC", "COSINE",
		"EF_CONSTRUCTION", strconv.Itoa(cfg.EFConstruction),
		"M", strconv.Itoa(cfg.M),
		fieldChunkID, "TAG",
	).Err()
	if err != nil {
		return fmt.Errorf("redis: create index %s: %w", v.name, err)
	}
	return nil
}

// Name returns the RediSearch index name.
func (v *VectorIndex) Name() string {
	return v.name
}

// Add stores the vector under a key derived from chunkID. Adding an existing
// chunk ID replaces its vector.
func (v *VectorIndex) Add(ctx context.Context, chunkID string, embedding []float32) error {
	if err := v.checkOpen(); err != nil {
		return err
	}
	if len(embedding) != v.dims {
		return fmt.Errorf("%w: vector has %d dimensions, index expects %d",
			domain.ErrInvalidInput, len(embedding), v.dims)
	}

	added, err := v.client.HSet(ctx, v.keyPrefix+chunkID,
		fieldVector, encodeVector(embedding),
		fieldChunkID, chunkID,
	).Result()
	if err != nil {
		return fmt.Errorf("redis: store vector %s: %w", chunkID, err)
	}
	if added > 0 {
		v.count.Add(1)
	}
	return nil
}

// Search runs a KNN query. Scores are converted from cosine distance to similarity.
func (v *VectorIndex) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := v.checkOpen(); err != nil {
		return nil, err
	}
	if k <= 0 || v.Len() == 0 {
		return []driven.VectorHit{}, nil
	}
	if len(query) != v.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index expects %d",
			domain.ErrInvalidInput, len(query), v.dims)
	}

	res, err := v.client.Do(ctx, "FT.SEARCH", v.name,
		fmt.Sprintf("*=>[KNN %d @%s $query_vector AS %s]", k, fieldVector, scoreAlias),
		"PARAMS", "2", "query_vector", encodeVector(query),
		"RETURN", "2", fieldChunkID, scoreAlias,
		"SORTBY", scoreAlias,
		"LIMIT", "0", strconv.Itoa(k),
		"DIALECT", "2",
	).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: vector search: %w", err)
	}

	hits, err := parseSearchReply(res)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return hits, nil
}

// Len returns the number of stored vectors.
func (v *VectorIndex) Len() int {
	return int(v.count.Load())
}

// Close drops the index with its documents and closes the connection.
func (v *VectorIndex) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true

	dropErr := v.client.Do(context.Background(), "FT.DROPINDEX", v.name, "DD").Err()
	closeErr := v.client.Close()
	if dropErr != nil {
		return fmt.Errorf("redis: drop index %s: %w", v.name, dropErr)
	}
	return closeErr
}

func (v *VectorIndex) checkOpen() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return fmt.Errorf("%w: vector index is closed", domain.ErrInvalidInput)
	}
	return nil
}

// encodeVector packs a vector as little-endian FLOAT32, the blob format
// RediSearch expects for vector fields and query parameters.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// parseSearchReply reads an FT.SEARCH RESP2 reply:
// [total, key1, [field, value, ...], key2, [...], ...].
func parseSearchReply(res any) ([]driven.VectorHit, error) {
	values, ok := res.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected search reply %T", res)
	}

	hits := make([]driven.VectorHit, 0, len(values)/2)
	for i := 1; i+1 < len(values); i += 2 {
		fields, ok := values[i+1].([]any)
		if !ok {
			return nil, fmt.Errorf("unexpected fields for result %v", values[i])
		}

		var hit driven.VectorHit
		hasScore := false
		for j := 0; j+1 < len(fields); j += 2 {
			name, _ := fields[j].(string)
			value, _ := fields[j+1].(string)
			switch name {
			case fieldChunkID:
				hit.ChunkID = value
			case scoreAlias:
				distance, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return nil, fmt.Errorf("parse score %q: %w", value, err)
				}
				hit.Similarity = 1 - distance
				hasScore = true
			}
		}
		if hit.ChunkID == "" || !hasScore {
			return nil, fmt.Errorf("result %v is missing %s or %s", values[i], fieldChunkID, scoreAlias)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
