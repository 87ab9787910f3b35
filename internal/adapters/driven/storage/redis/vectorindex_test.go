package redis

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
)

func TestEncodeVector_RoundTrip(t *testing.T) {
	vec := []float32{0, 1.5, -2.25, 3e-7}

	buf := encodeVector(vec)
	require.Len(t, buf, 16)

	got := make([]float32, len(buf)/4)
	for i := range got {
		got[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	assert.Equal(t, vec, got)
}

func TestEncodeVector_LittleEndian(t *testing.T) {
	// 1.0 is 0x3f800000.
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, encodeVector([]float32{1}))
}

func TestEncodeVector_Empty(t *testing.T) {
	assert.Empty(t, encodeVector(nil))
}

func TestParseSearchReply(t *testing.T) {
	reply := []any{
		int64(2),
		"guru:vec:x:c1", []any{"chunk_id", "c1", "score", "0.1"},
		"guru:vec:x:c2", []any{"score", "0.75", "chunk_id", "c2"},
	}

	hits, err := parseSearchReply(reply)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.InDelta(t, 0.9, hits[0].Similarity, 1e-9)
	assert.Equal(t, "c2", hits[1].ChunkID)
	assert.InDelta(t, 0.25, hits[1].Similarity, 1e-9)
}

func TestParseSearchReply_Empty(t *testing.T) {
	hits, err := parseSearchReply([]any{int64(0)})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestParseSearchReply_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		reply any
	}{
		{"not an array", "OK"},
		{"fields not an array", []any{int64(1), "k", "oops"}},
		{"missing score", []any{int64(1), "k", []any{"chunk_id", "c1"}}},
		{"bad score", []any{int64(1), "k", []any{"chunk_id", "c1", "score", "nan?"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSearchReply(tt.reply)
			assert.Error(t, err)
		})
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, "localhost:6379", cfg.Addr)
	assert.Equal(t, "guru", cfg.IndexPrefix)
	assert.Equal(t, defaultEFConstruction, cfg.EFConstruction)
	assert.Equal(t, defaultM, cfg.M)
	assert.Equal(t, defaultPoolSize, cfg.PoolSize)
}

func TestNew_RejectsBadDimensions(t *testing.T) {
	_, err := New(context.Background(), Config{}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// TestVectorIndex_RediSearch needs a Redis Stack server; set GURU_TEST_REDIS_ADDR to run it.
func TestVectorIndex_RediSearch(t *testing.T) {
	addr := os.Getenv("GURU_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GURU_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	idx, err := NewFactory(Config{Addr: addr, IndexPrefix: "guru-test"})(ctx, 3)
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	require.NoError(t, idx.Add(ctx, "east", []float32{1, 0, 0}))
	require.NoError(t, idx.Add(ctx, "north", []float32{0, 1, 0}))
	require.NoError(t, idx.Add(ctx, "north-east", []float32{1, 1, 0}))
	require.NoError(t, idx.Add(ctx, "east", []float32{1, 0, 0}))
	assert.Equal(t, 3, idx.Len())

	hits, err := idx.Search(ctx, []float32{1, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "east", hits[0].ChunkID)
	assert.Equal(t, "north-east", hits[1].ChunkID)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)

	err = idx.Add(ctx, "bad", []float32{1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, idx.Close())
	_, err = idx.Search(ctx, []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
