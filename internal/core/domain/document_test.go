package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunk_IsPlaceholder(t *testing.T) {
	assert.True(t, Chunk{DocumentID: PlaceholderDocumentID}.IsPlaceholder())
	assert.False(t, Chunk{DocumentID: "doc-1", Text: "EcoWipe"}.IsPlaceholder())
}

func TestRetrievalResult_Chunks(t *testing.T) {
	result := RetrievalResult{
		{Chunk: Chunk{ID: "b", Ordinal: 1}, Score: 0.9},
		{Chunk: Chunk{ID: "a", Ordinal: 0}, Score: 0.5},
	}

	chunks := result.Chunks()

	assert.Len(t, chunks, 2)
	assert.Equal(t, "b", chunks[0].ID)
	assert.Equal(t, "a", chunks[1].ID)
	assert.Empty(t, RetrievalResult(nil).Chunks())
}
