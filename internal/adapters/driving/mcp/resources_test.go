package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
)

func TestExtractSessionID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid transcript URI",
			uri:      "guru://sessions/abc-123/transcript",
			expected: "abc-123",
		},
		{
			name:     "invalid prefix",
			uri:      "file://sessions/abc-123/transcript",
			expected: "",
		},
		{
			name:     "missing transcript suffix",
			uri:      "guru://sessions/abc-123",
			expected: "",
		},
		{
			name:     "nested path",
			uri:      "guru://sessions/a/b/transcript",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractSessionID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleCorpusResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stats as JSON", func(t *testing.T) {
		corpus := &mockCorpusService{stats: &domain.CorpusStats{
			Directory: "/data",
			Chunks:    1,
			Empty:     true,
		}}
		server := newTestServer(t, &Ports{Sessions: &mockSessionService{}, Corpus: corpus})

		result, err := server.handleCorpusResource(ctx, makeReadResourceRequest("guru://corpus"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var out CorpusStatsOutput
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &out))
		assert.True(t, out.Empty)
		assert.Equal(t, 1, out.Chunks)
	})

	t.Run("inspect failure", func(t *testing.T) {
		corpus := &mockCorpusService{err: errors.New("disk gone")}
		server := newTestServer(t, &Ports{Sessions: &mockSessionService{}, Corpus: corpus})

		_, err := server.handleCorpusResource(ctx, makeReadResourceRequest("guru://corpus"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "inspecting corpus")
	})
}

func TestServer_handleSessionsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("no sessions returns empty list", func(t *testing.T) {
		server := newTestServer(t, &Ports{Sessions: &mockSessionService{}})

		result, err := server.handleSessionsResource(ctx, makeReadResourceRequest("guru://sessions"))

		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("lists open and recorded sessions once each", func(t *testing.T) {
		started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		history := &mockHistoryService{sessions: []domain.SessionRecord{
			{ID: "session-1", StartedAt: started},
			{ID: "old", StartedAt: started, EndedAt: started.Add(time.Minute), Summary: "Talked about towels."},
		}}
		server := newTestServer(t, &Ports{Sessions: &mockSessionService{}, History: history})
		_, _, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})
		require.NoError(t, err)

		result, err := server.handleSessionsResource(ctx, makeReadResourceRequest("guru://sessions"))
		require.NoError(t, err)

		var infos []sessionInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &infos))
		require.Len(t, infos, 2)
		assert.Equal(t, "session-1", infos[0].ID)
		assert.True(t, infos[0].Open)
		assert.Equal(t, 1, infos[0].Turns)
		assert.Equal(t, "old", infos[1].ID)
		assert.False(t, infos[1].Open)
		assert.Equal(t, "2026-01-02T03:05:05Z", infos[1].EndedAt)
		assert.Equal(t, "Talked about towels.", infos[1].Summary)
	})

	t.Run("history failure", func(t *testing.T) {
		history := &mockHistoryService{err: errors.New("locked")}
		server := newTestServer(t, &Ports{Sessions: &mockSessionService{}, History: history})

		_, err := server.handleSessionsResource(ctx, makeReadResourceRequest("guru://sessions"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing sessions")
	})
}

func TestServer_handleTranscriptResource(t *testing.T) {
	ctx := context.Background()

	t.Run("live session", func(t *testing.T) {
		server := newTestServer(t, &Ports{Sessions: &mockSessionService{}})
		_, asked, err := server.handleAsk(ctx, nil, AskInput{Question: "What is EcoWipe?"})
		require.NoError(t, err)

		uri := "guru://sessions/" + asked.SessionID + "/transcript"
		result, err := server.handleTranscriptResource(ctx, makeReadResourceRequest(uri))

		require.NoError(t, err)
		var turns []turnInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &turns))
		require.Len(t, turns, 1)
		assert.Equal(t, "What is EcoWipe?", turns[0].Question)
		assert.Equal(t, "answer to What is EcoWipe?", turns[0].Answer)
	})

	t.Run("recorded session", func(t *testing.T) {
		history := &mockHistoryService{turns: map[string][]domain.ConversationTurn{
			"old": {{Seq: 1, Question: "hi", Answer: "hello"}},
		}}
		server := newTestServer(t, &Ports{Sessions: &mockSessionService{}, History: history})

		result, err := server.handleTranscriptResource(ctx, makeReadResourceRequest("guru://sessions/old/transcript"))

		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, `"answer": "hello"`)
	})

	t.Run("unknown session returns not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Sessions: &mockSessionService{}, History: &mockHistoryService{}})

		_, err := server.handleTranscriptResource(ctx, makeReadResourceRequest("guru://sessions/nope/transcript"))

		require.Error(t, err)
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Sessions: &mockSessionService{}})

		_, err := server.handleTranscriptResource(ctx, makeReadResourceRequest("guru://invalid"))

		require.Error(t, err)
	})
}
